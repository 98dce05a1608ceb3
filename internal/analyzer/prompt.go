package analyzer

import "fmt"

const promptTemplate = `You are a strictly logical news analyst.

Output Requirements:
1. Return ONLY a valid JSON object.
2. Do not use Markdown formatting (no code fences).
3. Strict Schema:
   - "gist": (str) 1-2 sentence summary.
   - "sentiment": (str) Exactly "Positive", "Negative", or "Neutral".
   - "tone": (str) e.g., "Urgent", "Analytical", "Satirical".
   - "confidence_score": (float) 0.0 to 1.0.

Article Text:
%s
`

// BuildPrompt renders the analysis instructions around the article text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}
