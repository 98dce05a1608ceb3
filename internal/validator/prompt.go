package validator

import (
	"encoding/json"
	"fmt"
)

const promptTemplate = `Task: Validate if the following analysis accurately reflects the article text.

Article Text (Truncated):
"%s"

Analysis to Check:
%s

Output Instructions:
1. Respond ONLY with valid JSON.
2. Format: {"is_valid": boolean, "reasoning": "string"}
3. Check for hallucinations or wrong sentiment labels.
`

// BuildPrompt renders the validation request for an excerpt and analysis.
func BuildPrompt(excerpt string, analysis map[string]any) (string, error) {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}

	return fmt.Sprintf(promptTemplate, excerpt, data), nil
}
