package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure. It maps
// directly to config.json and holds business-level settings: channel
// credentials, LLM provider choices, mailbox account, and the persona.
type Config struct {
	// Channels maps channel identifiers (e.g. "telegram", "web") to
	// their platform-specific configuration payloads in raw JSON.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the provider group list in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// Mail holds the optional IMAP/SMTP account configuration used by
	// the mailbox tools. Empty disables those tools.
	Mail jsoniter.RawMessage `json:"mail,omitempty"`
	// SystemPrompt is the static persona/instruction string sent as the
	// system message of every conversation.
	SystemPrompt string `json:"system_prompt"`
	// OperatorChatID is the fixed destination for the notify_operator
	// tool, as a channel-native chat identifier.
	OperatorChatID string `json:"operator_chat_id,omitempty"`
}

// Validate ensures the configuration contains all mandatory fields.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters, loaded from
// system.json with safe defaults when the file is absent.
type SystemConfig struct {
	// MaxRetries is how many times a transient LLM error is retried
	// before the next fallback provider is tried.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the base wait between retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff for one model call.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// ToolTimeoutMs is the hard cutoff for one tool invocation.
	ToolTimeoutMs int `json:"tool_timeout_ms"`
	// MaxToolRounds caps model re-entries within one user turn. The cap
	// is the only protection against a model that never emits a final
	// answer.
	MaxToolRounds int `json:"max_tool_rounds"`
	// MaxHistoryMessages bounds the stored conversation per user,
	// counted in messages; a turn is two messages, so 20 keeps 10 turns.
	MaxHistoryMessages int `json:"max_history_messages"`
	// SessionIdleEvictMinutes enables idle-session reaping when > 0.
	// Zero keeps sessions for the process lifetime.
	SessionIdleEvictMinutes int `json:"session_idle_evict_minutes"`
	// SearchMaxResults bounds the web_search tool's snippet count.
	SearchMaxResults int `json:"search_max_results"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message; longer replies are split.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// DownloadTimeoutMs applies when fetching media (voice notes) from
	// channel servers.
	DownloadTimeoutMs int `json:"download_timeout_ms"`
	// LogLevel sets the minimum log severity: "debug", "info", "warn",
	// "error". Default "info".
	LogLevel string `json:"log_level"`
	// EnableTools globally toggles tool calling. When false the model
	// is offered no tools at all.
	EnableTools bool `json:"enable_tools"`
}

// MaxTurns derives the session turn bound from the message bound.
func (s *SystemConfig) MaxTurns() int {
	if s.MaxHistoryMessages <= 0 {
		return 0
	}
	return s.MaxHistoryMessages / 2
}

// DefaultSystemConfig returns a SystemConfig with hardcoded safe
// defaults, used when system.json is missing or corrupt.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:           3,
		RetryDelayMs:         500,
		LLMTimeoutMs:         120000,
		ToolTimeoutMs:        30000,
		MaxToolRounds:        6,
		MaxHistoryMessages:   20,
		SearchMaxResults:     5,
		TelegramMessageLimit: 4000,
		DownloadTimeoutMs:    10000,
		LogLevel:             "info",
		EnableTools:          true,
	}
}

// Load reads config.json and system.json from the working directory.
// config.json is mandatory; system.json falls back to defaults.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sysCfg := LoadSystemConfig("system.json")
	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returning defaults
// on any failure.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg
	}

	return cfg
}
