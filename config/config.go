// Package config handles zeus configuration from a YAML file with
// environment overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kypria/zeus/deflect"
	"github.com/kypria/zeus/notify"
)

// Config is the top-level zeus configuration.
type Config struct {
	Portal    PortalConfig      `yaml:"portal"`
	Protocols []ProtocolConfig  `yaml:"protocols"`
	Patterns  []deflect.Pattern `yaml:"patterns"`
	Deadline  DeadlineConfig    `yaml:"deadline"`
	Monitor   MonitorConfig     `yaml:"monitor"`
	Notify    NotifyConfig      `yaml:"notify"`
	API       APIConfig         `yaml:"api"`
}

// PortalConfig controls the browser session against the portal.
type PortalConfig struct {
	BaseURL     string        `yaml:"base_url"`
	MessagesURL string        `yaml:"messages_url"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Headless    bool          `yaml:"headless"`
	Timeout     time.Duration `yaml:"timeout"`
	Remote      string        `yaml:"remote"` // attach to an existing Chrome instead of launching
}

// ProtocolConfig is one tracked submission.
type ProtocolConfig struct {
	Number  string `yaml:"number"`
	Subject string `yaml:"subject"`
}

// DeadlineConfig drives the deadline-missed rule: if any listed protocol is
// still unresolved on or after Date, a CRITICAL alert fires.
type DeadlineConfig struct {
	// Date in YYYY-MM-DD (UTC).
	Date      string   `yaml:"date"`
	Protocols []string `yaml:"protocols"`
	// Repeat fires the alert on every cycle past the deadline instead of
	// once per protocol.
	Repeat bool `yaml:"repeat"`
}

// Reached reports whether t falls on or after the configured deadline date,
// compared at date granularity in UTC so the rule trips on the deadline day
// itself. A zero or malformed date never triggers.
func (d DeadlineConfig) Reached(t time.Time) bool {
	if d.Date == "" {
		return false
	}
	day, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return false
	}
	y, mo, dd := t.UTC().Date()
	return !time.Date(y, mo, dd, 0, 0, 0, 0, time.UTC).Before(day)
}

// Covers reports whether the rule applies to a protocol number.
func (d DeadlineConfig) Covers(protocol string) bool {
	for _, p := range d.Protocols {
		if p == protocol {
			return true
		}
	}
	return false
}

// MonitorConfig controls the polling loop and persistence paths.
type MonitorConfig struct {
	Interval    time.Duration `yaml:"interval"`
	DBPath      string        `yaml:"db_path"`
	EvidenceDir string        `yaml:"evidence_dir"`
	// ExcerptRunes bounds the stored status text excerpt.
	ExcerptRunes int `yaml:"excerpt_runes"`
}

// NotifyConfig configures outbound alert channels. Empty URL means the
// channel is disabled.
type NotifyConfig struct {
	SlackWebhook   string             `yaml:"slack_webhook"`
	DiscordWebhook string             `yaml:"discord_webhook"`
	Webhook        WebhookConfig      `yaml:"webhook"`
	Email          notify.EmailConfig `yaml:"email"`
	NATS           NATSConfig         `yaml:"nats"`
}

// WebhookConfig configures the generic signed webhook channel.
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// NATSConfig configures the NATS publisher channel.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// APIConfig configures the HTTP status API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoadFile reads a YAML configuration file, applies env overrides and
// defaults, and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets credentials live outside the config file.
func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Portal.Username, "ZEUS_PORTAL_USERNAME")
	set(&c.Portal.Password, "ZEUS_PORTAL_PASSWORD")
	set(&c.Notify.SlackWebhook, "ZEUS_SLACK_WEBHOOK")
	set(&c.Notify.DiscordWebhook, "ZEUS_DISCORD_WEBHOOK")
	set(&c.Notify.Email.Password, "ZEUS_SMTP_PASSWORD")
	set(&c.Notify.NATS.URL, "ZEUS_NATS_URL")
	set(&c.Notify.Webhook.Secret, "ZEUS_WEBHOOK_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Portal.BaseURL == "" {
		c.Portal.BaseURL = "https://www1.aade.gr/saadeapps2/bookipia/portal/"
	}
	if c.Portal.MessagesURL == "" {
		c.Portal.MessagesURL = c.Portal.BaseURL + "myMessages"
	}
	if c.Portal.Timeout <= 0 {
		c.Portal.Timeout = 60 * time.Second
	}
	if len(c.Patterns) == 0 {
		c.Patterns = deflect.DefaultPatterns()
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = 4 * time.Hour
	}
	if c.Monitor.DBPath == "" {
		c.Monitor.DBPath = "data/zeus.db"
	}
	if c.Monitor.EvidenceDir == "" {
		c.Monitor.EvidenceDir = "data/evidence"
	}
	if c.Monitor.ExcerptRunes <= 0 {
		c.Monitor.ExcerptRunes = 500
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8740"
	}
}

func (c *Config) validate() error {
	if len(c.Protocols) == 0 {
		return fmt.Errorf("config: no protocols configured")
	}
	seen := make(map[string]bool, len(c.Protocols))
	for i, p := range c.Protocols {
		if p.Number == "" {
			return fmt.Errorf("config: protocols[%d]: number is required", i)
		}
		if seen[p.Number] {
			return fmt.Errorf("config: duplicate protocol %s", p.Number)
		}
		seen[p.Number] = true
	}
	if c.Deadline.Date != "" {
		if _, err := time.Parse("2006-01-02", c.Deadline.Date); err != nil {
			return fmt.Errorf("config: deadline.date: %w", err)
		}
	}
	for i, p := range c.Patterns {
		if len(p.KeywordsEL) == 0 && len(p.KeywordsEN) == 0 {
			return fmt.Errorf("config: patterns[%d] (%s): no keywords", i, p.Kind)
		}
	}
	return nil
}
