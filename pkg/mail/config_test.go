package mail

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		IMAP: IMAPConfig{Host: "imap.example.com", Username: "u"},
		SMTP: SMTPConfig{Host: "smtp.example.com", Username: "u"},
	}
	cfg.ApplyDefaults()

	if cfg.IMAP.Port != 993 {
		t.Errorf("expected IMAP port 993, got %d", cfg.IMAP.Port)
	}
	if !cfg.IMAP.TLS {
		t.Error("expected IMAP TLS default true")
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("expected SMTP port 587, got %d", cfg.SMTP.Port)
	}
	if !cfg.SMTP.StartTLS {
		t.Error("expected SMTP STARTTLS default true")
	}
}

func TestApplyDefaultsImplicitTLS(t *testing.T) {
	cfg := Config{
		IMAP: IMAPConfig{Host: "imap.example.com", Username: "u"},
		SMTP: SMTPConfig{Host: "smtp.example.com", Username: "u", Port: 465},
	}
	cfg.ApplyDefaults()

	if cfg.SMTP.StartTLS {
		t.Error("port 465 must keep implicit TLS (no STARTTLS)")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{IMAP: IMAPConfig{Host: "h", Username: "u", Port: 993}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("minimal IMAP config should validate, got %v", err)
	}

	bad := Config{IMAP: IMAPConfig{Username: "u", Port: 993}}
	if err := bad.Validate(); err == nil {
		t.Error("missing imap.host must fail validation")
	}

	noFrom := Config{
		IMAP: IMAPConfig{Host: "h", Username: "u", Port: 993},
		SMTP: SMTPConfig{Host: "s", Username: "u", Port: 587},
	}
	if err := noFrom.Validate(); err == nil {
		t.Error("smtp without default_from must fail validation")
	}
}

func TestConfigured(t *testing.T) {
	var empty Config
	if empty.Configured() {
		t.Error("empty config must not report configured")
	}
	cfg := Config{IMAP: IMAPConfig{Host: "h", Username: "u"}}
	if !cfg.Configured() {
		t.Error("config with host and username must report configured")
	}
}
