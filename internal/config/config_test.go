package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"modelprobe/internal/core"
)

func createModelsTempFile(t *testing.T, name, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filePath, []byte(content), core.FilePermissionReadWrite); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return filePath
}

func clearProbeEnv(t *testing.T) {
	t.Helper()
	keys := append([]string{}, core.TokenEnvVars...)
	keys = append(keys,
		core.EnvInferenceURL, core.EnvRevision, core.EnvCacheDir, core.EnvTimeout,
		core.EnvRate, core.EnvModels, core.EnvModelsFile, core.EnvHistoryFile, core.EnvRedisURL,
	)
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearProbeEnv(t)

	cfg, err := LoadFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Token != "" || cfg.TokenSource != "" {
		t.Errorf("Expected no token, got %q from %q", cfg.Token, cfg.TokenSource)
	}
	if cfg.CacheDir != "" || len(cfg.Models) != 0 {
		t.Errorf("Expected no cache dir or models, got %q / %v", cfg.CacheDir, cfg.Models)
	}
	if cfg.InferenceURL != core.DefaultInferenceURL {
		t.Errorf("Expected inference URL %q, got %q", core.DefaultInferenceURL, cfg.InferenceURL)
	}
	if cfg.Revision != core.DefaultRevision {
		t.Errorf("Expected revision %q, got %q", core.DefaultRevision, cfg.Revision)
	}
	if cfg.Timeout != core.DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", core.DefaultTimeout, cfg.Timeout)
	}
	if cfg.InferenceRate != core.DefaultInferenceRate {
		t.Errorf("Expected rate %v, got %v", core.DefaultInferenceRate, cfg.InferenceRate)
	}
	if cfg.HistoryFile != core.DefaultHistoryFile {
		t.Errorf("Expected history file %q, got %q", core.DefaultHistoryFile, cfg.HistoryFile)
	}
	if cfg.HTTPClientSettings.RequestTimeout != core.DefaultTimeout {
		t.Errorf("Expected request timeout %v, got %v", core.DefaultTimeout, cfg.HTTPClientSettings.RequestTimeout)
	}
}

func TestLoadFromEnv_TokenPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantToken  string
		wantSource string
	}{
		{
			name:       "primary key wins",
			env:        map[string]string{"HUGGING_FACE_API_KEY": "hf_primary", "HF_TOKEN": "hf_other"},
			wantToken:  "hf_primary",
			wantSource: "HUGGING_FACE_API_KEY",
		},
		{
			name:       "alternate spelling",
			env:        map[string]string{"HUGGINGFACE_API_KEY": "hf_alt", "HF_TOKEN": "hf_other"},
			wantToken:  "hf_alt",
			wantSource: "HUGGINGFACE_API_KEY",
		},
		{
			name:       "hf token last",
			env:        map[string]string{"HF_TOKEN": "hf_last"},
			wantToken:  "hf_last",
			wantSource: "HF_TOKEN",
		},
		{
			name:       "blank values ignored",
			env:        map[string]string{"HUGGING_FACE_API_KEY": "   ", "HF_TOKEN": "hf_last"},
			wantToken:  "hf_last",
			wantSource: "HF_TOKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProbeEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadFromEnv(&core.NopLogger{})
			if err != nil {
				t.Fatalf("LoadFromEnv failed: %v", err)
			}
			if cfg.Token != tt.wantToken || cfg.TokenSource != tt.wantSource {
				t.Errorf("Expected %q from %q, got %q from %q", tt.wantToken, tt.wantSource, cfg.Token, cfg.TokenSource)
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearProbeEnv(t)
	t.Setenv(core.EnvCacheDir, "/tmp/hub-cache")
	t.Setenv(core.EnvModels, " sfw=org/sfw , toxic=org/toxic,, ")
	t.Setenv(core.EnvTimeout, "30s")
	t.Setenv(core.EnvRate, "0")

	cfg, err := LoadFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.CacheDir != "/tmp/hub-cache" {
		t.Errorf("Unexpected cache dir %q", cfg.CacheDir)
	}
	if want := []string{"sfw=org/sfw", "toxic=org/toxic"}; !reflect.DeepEqual(cfg.Models, want) {
		t.Errorf("Expected models %v, got %v", want, cfg.Models)
	}
	if cfg.Timeout != 30*time.Second || cfg.HTTPClientSettings.RequestTimeout != 30*time.Second {
		t.Errorf("Unexpected timeout %v / %v", cfg.Timeout, cfg.HTTPClientSettings.RequestTimeout)
	}
	if cfg.InferenceRate != 0 {
		t.Errorf("Expected rate 0, got %v", cfg.InferenceRate)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{core.EnvTimeout, "soon"},
		{core.EnvTimeout, "-5s"},
		{core.EnvRate, "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearProbeEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(&core.NopLogger{}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSetTimeout(t *testing.T) {
	cfg := Config{Timeout: time.Minute, HTTPClientSettings: DefaultHTTPClientSettings()}

	cfg.SetTimeout(0)
	if cfg.Timeout != time.Minute {
		t.Errorf("Zero timeout should be ignored, got %v", cfg.Timeout)
	}

	cfg.SetTimeout(10 * time.Second)
	if cfg.Timeout != 10*time.Second || cfg.HTTPClientSettings.RequestTimeout != 10*time.Second {
		t.Errorf("Unexpected timeout %v / %v", cfg.Timeout, cfg.HTTPClientSettings.RequestTimeout)
	}
}

func TestDefaultChecks(t *testing.T) {
	checks := DefaultChecks()
	if err := ValidateChecks(checks); err != nil {
		t.Fatalf("Default checks invalid: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("Expected 2 default checks, got %d", len(checks))
	}
	if checks[0].Key != "malaysian_sfw" || !checks[0].TrustRemoteCode {
		t.Errorf("Unexpected first check: %+v", checks[0])
	}
	if checks[1].Key != "xlm_roberta" || checks[1].TrustRemoteCode {
		t.Errorf("Unexpected second check: %+v", checks[1])
	}
}

func TestLoadModelChecks_YAML(t *testing.T) {
	filePath := createModelsTempFile(t, "models.yaml", `
models:
  - key: toxic
    id: unitary/toxic-bert
    title: TOXIC BERT
    samples: ["hello", "you idiot"]
  - key: sfw
    id: malaysia-ai/malaysian-sfw-classifier
    trust_remote_code: true
`)

	checks, err := LoadModelChecks(filePath)
	if err != nil {
		t.Fatalf("LoadModelChecks failed: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("Expected 2 checks, got %d", len(checks))
	}
	if checks[0].Title != "TOXIC BERT" || !reflect.DeepEqual(checks[0].Samples, []string{"hello", "you idiot"}) {
		t.Errorf("Unexpected first check: %+v", checks[0])
	}
	if !checks[1].TrustRemoteCode {
		t.Error("Expected trust_remote_code on second check")
	}
	if checks[1].Title != "MALAYSIA-AI/MALAYSIAN-SFW-CLASSIFIER" {
		t.Errorf("Expected title derived from id, got %q", checks[1].Title)
	}
	if !reflect.DeepEqual(checks[1].Samples, DefaultSamples()) {
		t.Errorf("Expected default samples, got %v", checks[1].Samples)
	}
}

func TestLoadModelChecks_JSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object format", `{"models":[{"key":"a","id":"org/a"},{"key":"b","id":"org/b"}]}`},
		{"array format", `[{"key":"a","id":"org/a"},{"key":"b","id":"org/b"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := createModelsTempFile(t, "models.json", tt.content)

			checks, err := LoadModelChecks(filePath)
			if err != nil {
				t.Fatalf("LoadModelChecks failed: %v", err)
			}
			if len(checks) != 2 || checks[1].ID != "org/b" {
				t.Errorf("Unexpected checks: %+v", checks)
			}
		})
	}
}

func TestLoadModelChecks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "models.json", `{"models":`},
		{"invalid yaml", "models.yaml", "models: [unclosed"},
		{"empty list", "models.yaml", "models: []"},
		{"duplicate key", "models.yaml", "models:\n  - {key: a, id: org/a}\n  - {key: a, id: org/b}\n"},
		{"missing id", "models.yml", "models:\n  - {key: a}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := createModelsTempFile(t, tt.file, tt.content)
			if _, err := LoadModelChecks(filePath); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadModelChecks_NonExistentFile(t *testing.T) {
	_, err := LoadModelChecks(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestParseModelFlags(t *testing.T) {
	checks, err := ParseModelFlags([]string{"toxic=unitary/toxic-bert", "org/plain-model"})
	if err != nil {
		t.Fatalf("ParseModelFlags failed: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("Expected 2 checks, got %d", len(checks))
	}
	if checks[0].Key != "toxic" || checks[0].ID != "unitary/toxic-bert" {
		t.Errorf("Unexpected first check: %+v", checks[0])
	}
	if checks[1].Key != "plain-model" || checks[1].ID != "org/plain-model" {
		t.Errorf("Unexpected second check: %+v", checks[1])
	}
	if len(checks[0].Samples) == 0 || checks[0].Title == "" {
		t.Errorf("Expected defaults to be filled in: %+v", checks[0])
	}

	if _, err := ParseModelFlags([]string{"a=org/x", "a=org/y"}); err == nil {
		t.Error("Expected duplicate key error")
	}
	if _, err := ParseModelFlags([]string{"=org/x"}); err == nil {
		t.Error("Expected invalid pair error")
	}
}

func TestNewHTTPClient(t *testing.T) {
	settings := DefaultHTTPClientSettings()
	settings.RequestTimeout = 5 * time.Second

	client := NewHTTPClient(settings)
	if client.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", client.Timeout)
	}
	if client.Transport == nil {
		t.Fatal("Expected custom transport")
	}
}
