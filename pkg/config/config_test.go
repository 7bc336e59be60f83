package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSystemConfigMissingFile(t *testing.T) {
	cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "nope.json"))

	def := DefaultSystemConfig()
	if cfg.MaxToolRounds != def.MaxToolRounds {
		t.Errorf("expected default MaxToolRounds %d, got %d", def.MaxToolRounds, cfg.MaxToolRounds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if !cfg.EnableTools {
		t.Error("tools must be enabled by default")
	}
}

func TestLoadSystemConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	if err := os.WriteFile(path, []byte(`{"max_tool_rounds": 3, "log_level": "debug"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadSystemConfig(path)

	if cfg.MaxToolRounds != 3 {
		t.Errorf("expected override MaxToolRounds 3, got %d", cfg.MaxToolRounds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected override log level debug, got %q", cfg.LogLevel)
	}
	// Untouched fields keep their defaults
	if cfg.LLMTimeoutMs != DefaultSystemConfig().LLMTimeoutMs {
		t.Errorf("unexpected LLMTimeoutMs %d", cfg.LLMTimeoutMs)
	}
}

func TestLoadSystemConfigCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadSystemConfig(path)
	if cfg.MaxToolRounds != DefaultSystemConfig().MaxToolRounds {
		t.Error("corrupt file must fall back to defaults")
	}
}

func TestMaxTurns(t *testing.T) {
	cases := []struct {
		messages int
		want     int
	}{
		{20, 10},
		{21, 10},
		{1, 0},
		{0, 0},
		{-4, 0},
	}

	for _, tc := range cases {
		s := SystemConfig{MaxHistoryMessages: tc.messages}
		if got := s.MaxTurns(); got != tc.want {
			t.Errorf("MaxTurns with %d messages: expected %d, got %d", tc.messages, tc.want, got)
		}
	}
}

func TestValidateRequiresLLM(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing llm section")
	}

	cfg.LLM = []byte(`[{"type":"openai"}]`)
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
