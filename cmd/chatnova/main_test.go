package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/config"
	"github.com/hyperjump/chatnova/internal/dispatch"
	"github.com/hyperjump/chatnova/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"what is in the report", "-file", "report.pdf"},
			expected: []string{"-file", "report.pdf", "what is in the report"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-model", "gemini", "hello"},
			expected: []string{"-model", "gemini", "hello"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"hello there"},
			expected: []string{"hello there"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"a.pdf", "b.txt", "-output", "json"},
			expected: []string{"-output", "json", "a.pdf", "b.txt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"hello"}, "hello"},
		{"multiple words", []string{"summarize", "the", "report"}, "summarize the report"},
		{"single quoted phrase", []string{"summarize the report"}, "summarize the report"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestFileFlags(t *testing.T) {
	var f fileFlags
	_ = f.Set("a.pdf")
	_ = f.Set("b.txt")
	if f.String() != "a.pdf,b.txt" || len(f) != 2 {
		t.Errorf("fileFlags = %v", f)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_builtinDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want built-in defaults", resolved)
	}
	if cfg.Dispatch.DefaultProvider != "grok" || cfg.Providers["grok"].Fallback != "gemini" {
		t.Errorf("unexpected defaults: %+v", cfg.Dispatch)
	}
}

func TestLoadConfig_readsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEY", "")
	_ = os.Unsetenv("GEMINI_API_KEY")

	cfg, _, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers["gemini"].APIKey != "from-dotenv" {
		t.Errorf("gemini key not loaded from .env")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadValidConfig_rejectsBadFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  grok:
    kind: grok
    fallback: nowhere
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadValidConfig(configPath); err == nil {
		t.Error("expected validation error for unknown fallback")
	}
}

func mockConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Dispatch: config.DispatchConfig{DefaultProvider: "grok"},
		Providers: map[string]config.ProviderConfig{
			"grok":   {Kind: config.KindMock, MockError: "grok is down", Fallback: "gemini", Persona: config.PersonaConfig{DisplayName: "Grok"}},
			"gemini": {Kind: config.KindMock, MockResponse: "It says Hello world.", Persona: config.PersonaConfig{DisplayName: "Gemini"}},
		},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestInitializeComponents_andChatDirect(t *testing.T) {
	cfg := mockConfig(t)
	c, err := initializeComponents(cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("initializeComponents: %v", err)
	}
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Hello world"), 0600); err != nil {
		t.Fatal(err)
	}
	results, err := ingestPaths(context.Background(), c.Ingestor, []string{path}, "")
	if err != nil || results[0].Err != nil {
		t.Fatalf("ingestPaths: %v %v", err, results[0].Err)
	}

	req := &models.ChatRequest{
		Messages:      []models.ConversationMessage{models.NewMessage(models.RoleUser, "What does it say?")},
		UploadedFiles: []models.UploadedDocument{*results[0].Document},
		SelectedModel: "gemini",
	}
	resp, err := chatDirect(context.Background(), cfg, c, req)
	if err != nil {
		t.Fatalf("chatDirect: %v", err)
	}
	if resp.Role != models.RoleAssistant || resp.Content != "It says Hello world." || resp.Model != "gemini" {
		t.Errorf("response = %+v", resp)
	}

	resp, err = chatDirect(context.Background(), cfg, c, &models.ChatRequest{
		Messages: []models.ConversationMessage{models.NewMessage(models.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatalf("chatDirect default model: %v", err)
	}
	if resp.Model != "gemini" || !resp.Degraded {
		t.Errorf("expected degraded gemini fallback, got %+v", resp)
	}
}

func TestIngestPaths_missingFile(t *testing.T) {
	c, err := initializeComponents(mockConfig(t), zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ingestPaths(context.Background(), c.Ingestor, []string{"/does/not/exist.txt"}, ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProviderSummaries(t *testing.T) {
	cfg := mockConfig(t)
	c, err := initializeComponents(cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := providerSummaries(cfg, c)
	if len(got) != 2 || got[0].ID != "gemini" || got[1].ID != "grok" {
		t.Fatalf("summaries = %+v", got)
	}
	if !got[1].Default || got[1].Fallback != "gemini" || !got[1].Available {
		t.Errorf("grok summary = %+v", got[1])
	}
}

func TestChatViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SelectedModel == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Failed to generate response"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Role: models.RoleAssistant, Content: "pong", Model: "grok"})
	}))
	defer srv.Close()

	resp, err := chatViaHTTP(context.Background(), srv.URL+"/", &models.ChatRequest{SelectedModel: "grok"})
	if err != nil || resp.Content != "pong" {
		t.Fatalf("chatViaHTTP = %+v, %v", resp, err)
	}
	_, err = chatViaHTTP(context.Background(), srv.URL, &models.ChatRequest{SelectedModel: "broken"})
	if err == nil || err.Error() != "server returned 500: Failed to generate response" {
		t.Errorf("err = %v", err)
	}
}

func TestChatDirect_unknownModel(t *testing.T) {
	cfg := mockConfig(t)
	c, err := initializeComponents(cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = chatDirect(context.Background(), cfg, c, &models.ChatRequest{SelectedModel: "claude"})
	if !errors.Is(err, dispatch.ErrUnknownProvider) {
		t.Errorf("err = %v", err)
	}
}
