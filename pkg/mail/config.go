// Package mail provides IMAP reading and SMTP sending for the single
// assistant mailbox account.
package mail

import "fmt"

// Config holds the mailbox account configuration, parsed from the
// "mail" section of config.json. Absent configuration disables the
// mailbox tools entirely.
type Config struct {
	IMAP IMAPConfig `json:"imap"`
	SMTP SMTPConfig `json:"smtp"`

	// DefaultFrom is the From address for outbound email
	// (e.g., "Valet <bot@example.com>"). Required when SMTP is set.
	DefaultFrom string `json:"default_from"`
}

// Configured reports whether the minimum IMAP configuration is present.
func (c Config) Configured() bool {
	return c.IMAP.Host != "" && c.IMAP.Username != ""
}

// SMTPConfigured reports whether outbound sending is available.
func (c Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.Username != ""
}

// ApplyDefaults fills zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.IMAP.Port == 0 {
		c.IMAP.Port = 993
	}
	// TLS defaults to true unless the port is 143 (plaintext convention).
	if !c.IMAP.TLS && c.IMAP.Port != 143 {
		c.IMAP.TLS = true
	}

	// SMTP defaults: port 587 with STARTTLS, implicit TLS on 465.
	if c.SMTP.Host != "" {
		if c.SMTP.Port == 0 {
			c.SMTP.Port = 587
		}
		if !c.SMTP.StartTLS && c.SMTP.Port != 465 {
			c.SMTP.StartTLS = true
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.IMAP.Host == "" {
		return fmt.Errorf("mail: imap.host is required")
	}
	if c.IMAP.Username == "" {
		return fmt.Errorf("mail: imap.username is required")
	}
	if c.IMAP.Port < 1 || c.IMAP.Port > 65535 {
		return fmt.Errorf("mail: imap.port %d out of range (1-65535)", c.IMAP.Port)
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Username == "" {
			return fmt.Errorf("mail: smtp.username is required when smtp.host is set")
		}
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			return fmt.Errorf("mail: smtp.port %d out of range (1-65535)", c.SMTP.Port)
		}
		if c.DefaultFrom == "" {
			return fmt.Errorf("mail: default_from is required when smtp is configured")
		}
	}
	return nil
}

// IMAPConfig holds IMAP server connection parameters.
type IMAPConfig struct {
	// Host is the IMAP server hostname (e.g., "imap.gmail.com").
	Host string `json:"host"`

	// Port is the IMAP server port. Default: 993 (IMAPS).
	Port int `json:"port"`

	// Username is the IMAP login username (typically the email address).
	Username string `json:"username"`

	// Password is the IMAP login password.
	Password string `json:"password"`

	// TLS controls whether to use TLS for the connection. Default: true.
	TLS bool `json:"tls"`
}

// SMTPConfig holds SMTP server connection parameters for outbound email.
type SMTPConfig struct {
	// Host is the SMTP server hostname (e.g., "smtp.gmail.com").
	Host string `json:"host"`

	// Port is the SMTP server port. Default: 587 (submission with STARTTLS).
	Port int `json:"port"`

	// Username is the SMTP login username (typically the email address).
	Username string `json:"username"`

	// Password is the SMTP login password.
	Password string `json:"password"`

	// StartTLS controls whether to upgrade the connection with STARTTLS.
	// Default: true. Set to false for port 465 (implicit TLS).
	StartTLS bool `json:"starttls"`
}
