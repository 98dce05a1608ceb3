package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newspipe/internal/config"
	"newspipe/internal/logger"
	"newspipe/pkg/metadata"
)

type harness struct {
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(env map[string]string) *harness {
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.app = &app{
		stdout: h.stdout,
		stderr: h.stderr,
		getenv: func(k string) string { return env[k] },
		newLog: func(level string, _ io.Writer) *logger.Logger {
			return logger.NewLoggerWithWriter(level, io.Discard)
		},
	}

	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(h.app)
	cmd.SetArgs(args)

	return cmd.ExecuteContext(context.Background())
}

var fullEnv = map[string]string{
	config.EnvNewsAPIKey:    "news-key",
	config.EnvGeminiKey:     "gemini-key",
	config.EnvOpenRouterKey: "router-key",
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "newspipe.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	return path
}

func TestLoadConfig_Layers(t *testing.T) {
	t.Chdir(t.TempDir())

	h := newHarness(map[string]string{config.EnvLogLevel: "warn", config.EnvGeminiModel: "gemini-env"})
	path := writeConfig(t, "pipeline:\n  topic: From File\n  limit: 9\nlogging:\n  level: error\n")

	changed := map[string]bool{"limit": true}
	f := runFlags{configPath: path, topic: "ignored", limit: 2, noValidate: true}

	cfg, err := h.app.loadConfig(f, func(name string) bool { return changed[name] })
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Pipeline.Topic != "From File" {
		t.Errorf("Topic = %q, unchanged flag must not override the file", cfg.Pipeline.Topic)
	}

	if cfg.Pipeline.Limit != 2 {
		t.Errorf("Limit = %d, want flag value 2", cfg.Pipeline.Limit)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q, env should override the file", cfg.Logging.Level)
	}

	if cfg.Analyzer.Model != "gemini-env" {
		t.Errorf("Model = %q, want gemini-env", cfg.Analyzer.Model)
	}

	if cfg.Validator.Enabled {
		t.Error("--no-validate should disable validation")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := newHarness(nil).app.loadConfig(runFlags{}, func(string) bool { return false })
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Pipeline.Topic != config.DefaultTopic || cfg.Pipeline.Limit != config.DefaultLimit {
		t.Errorf("unexpected defaults: %+v", cfg.Pipeline)
	}
}

func TestRun_InvalidFlag(t *testing.T) {
	t.Chdir(t.TempDir())

	err := newHarness(fullEnv).run("--limit", "0")
	if !errors.Is(err, config.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestRun_MissingCredentials(t *testing.T) {
	t.Chdir(t.TempDir())

	err := newHarness(map[string]string{config.EnvGeminiKey: "g"}).run()
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	if !strings.Contains(err.Error(), config.EnvNewsAPIKey) {
		t.Errorf("error should name %s: %v", config.EnvNewsAPIKey, err)
	}
}

// fakeProviders serves the article search, Gemini and the chat gateway
// from one server.
func fakeProviders(t *testing.T, articles []map[string]any) (*httptest.Server, *int) {
	t.Helper()

	chats := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/everything"):
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "totalResults": len(articles), "articles": articles})
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			text := `{"gist": "Lawmakers debated.", "sentiment": "Neutral", "tone": "Factual", "confidence_score": 0.75}`
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{
					"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
					"finishReason": "STOP",
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			chats++

			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []any{map[string]any{"message": map[string]any{
					"content": `{"is_valid": true, "reasoning": "Supported by the text."}`,
				}}},
			})
		case strings.HasSuffix(r.URL.Path, "/models"):
			_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{
				map[string]any{"name": "models/gemini-2.5-flash", "supportedGenerationMethods": []string{"generateContent", "countTokens"}},
				map[string]any{"name": "models/text-embedding-004", "supportedGenerationMethods": []string{"embedContent"}},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, &chats
}

func providerConfig(srvURL, outDir string) string {
	return fmt.Sprintf(`pipeline:
  courtesy_delay_ms: 0
fetcher:
  base_url: %[1]s/v2
analyzer:
  endpoint: %[1]s/
validator:
  base_url: %[1]s/api/v1
output:
  dir: %[2]s
`, srvURL, outDir)
}

func TestRun_EndToEnd(t *testing.T) {
	body := strings.Repeat("Parliament debated the new budget for several hours. ", 2)
	srv, chats := fakeProviders(t, []map[string]any{
		{"source": map[string]any{"name": "Daily"}, "title": "Budget debate", "content": body, "url": "https://a/1"},
		{"source": map[string]any{"name": "Wire"}, "title": "[Removed]", "content": body},
		{"source": map[string]any{"name": "Wire"}, "title": "Second story", "description": body},
	})

	outDir := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, providerConfig(srv.URL, outDir))

	h := newHarness(fullEnv)
	if err := h.run("--config", path, "--topic", "Budget", "--limit", "2"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if *chats != 2 {
		t.Errorf("validator calls = %d, want 2", *chats)
	}

	var records []map[string]any

	data, err := os.ReadFile(filepath.Join(outDir, "analysis_results.json"))
	if err != nil {
		t.Fatalf("results not written: %v", err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("results not JSON: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	report, err := os.ReadFile(filepath.Join(outDir, "final_report.md"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	if !strings.Contains(string(report), "**Topic:** Budget") {
		t.Errorf("report should name the flag topic:\n%s", report)
	}

	if !strings.Contains(h.stdout.String(), "Processed 2/2 articles successfully.") {
		t.Errorf("summary missing from stdout:\n%s", h.stdout.String())
	}
}

func TestRun_NoValidate(t *testing.T) {
	body := strings.Repeat("A long enough article body for the analyzer. ", 3)
	srv, chats := fakeProviders(t, []map[string]any{
		{"source": map[string]any{"name": "Daily"}, "title": "Only", "content": body},
	})

	outDir := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, providerConfig(srv.URL, outDir))

	if err := newHarness(fullEnv).run("--config", path, "--no-validate"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if *chats != 0 {
		t.Errorf("validator calls = %d, want 0", *chats)
	}
}

func TestRun_NoArticles(t *testing.T) {
	srv, _ := fakeProviders(t, nil)

	outDir := filepath.Join(t.TempDir(), "out")
	path := writeConfig(t, providerConfig(srv.URL, outDir))

	err := newHarness(fullEnv).run("--config", path)
	if err == nil || !strings.Contains(err.Error(), "no articles found") {
		t.Fatalf("expected no-articles error, got %v", err)
	}

	if _, statErr := os.Stat(outDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("nothing should be written when the run aborts")
	}
}

func TestModelsCmd(t *testing.T) {
	srv, _ := fakeProviders(t, nil)
	path := writeConfig(t, providerConfig(srv.URL, t.TempDir()))

	h := newHarness(fullEnv)
	if err := h.run("models", "--config", path); err != nil {
		t.Fatalf("models failed: %v", err)
	}

	out := h.stdout.String()
	if !strings.Contains(out, "models/gemini-2.5-flash") {
		t.Errorf("expected generateContent model in output:\n%s", out)
	}

	if strings.Contains(out, "text-embedding-004") {
		t.Errorf("embedding-only model should be filtered:\n%s", out)
	}
}

func TestModelsCmd_MissingKey(t *testing.T) {
	t.Chdir(t.TempDir())

	err := newHarness(nil).run("models")
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	h := newHarness(nil)

	if err := h.run("config", "init", path); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	if cfg.Pipeline.Topic != config.DefaultTopic {
		t.Errorf("Topic = %q, want default", cfg.Pipeline.Topic)
	}

	if err := h.run("config", "init", path); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second init = %v, want ErrConfigExists", err)
	}

	if err := h.run("config", "init", "--force", path); err != nil {
		t.Errorf("forced init failed: %v", err)
	}
}

func TestReportVerify(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	bad := filepath.Join(dir, "bad.md")

	signed := metadata.Sign("# News Analysis Report\n", metadata.Stamp{RunID: "abc", Topic: "t"})

	if err := os.WriteFile(good, []byte(signed), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(bad, []byte(strings.Replace(signed, "News", "Fake", 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(nil)
	if err := h.run("report", "verify", good); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if !strings.Contains(h.stdout.String(), "run abc") {
		t.Errorf("unexpected output: %s", h.stdout.String())
	}

	if err := h.run("report", "verify", bad); !errors.Is(err, metadata.ErrHashMismatch) {
		t.Errorf("edited report = %v, want ErrHashMismatch", err)
	}
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(nil)
	if err := h.run("version"); err != nil {
		t.Fatalf("version failed: %v", err)
	}

	if !strings.HasPrefix(h.stdout.String(), "newspipe dev") {
		t.Errorf("unexpected version output: %q", h.stdout.String())
	}
}
