package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
//
// Sources, highest precedence first: process environment, a .env file
// (loaded without overriding existing environment), an optional YAML
// config file, built-in defaults.
type Config struct {
	// FeedURL is the private calendar feed address. The URL embeds a
	// secret token and must never be logged in full.
	FeedURL string `yaml:"feed_url"`

	// DestinationContact is the phone number or handle the messages go to.
	DestinationContact string `yaml:"destination_contact"`

	// LookaheadDays is the forward window for relevant registrations.
	LookaheadDays int `yaml:"lookahead_days"`

	// OrganizerDomain is the "@domain" suffix that marks platform events.
	OrganizerDomain string `yaml:"organizer_domain"`

	// StateFile is where the notified-set is persisted.
	StateFile string `yaml:"state_file"`

	// LogFile, when set, receives an append-only copy of each run's log.
	LogFile string `yaml:"log_file"`

	// FetchTimeoutSeconds bounds the feed retrieval. Values below 10 are
	// clamped up to 10.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// Schedule is a cron expression used only by daemon mode,
	// e.g. "*/30 * * * *".
	Schedule string `yaml:"schedule"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LookaheadDays:       30,
		OrganizerDomain:     "lu.ma",
		StateFile:           "sent_events.json",
		FetchTimeoutSeconds: 30,
		Schedule:            "*/30 * * * *",
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// config files still behave.
func (c *Config) Normalize() {
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 30
	}
	if c.OrganizerDomain == "" {
		c.OrganizerDomain = "lu.ma"
	}
	if c.StateFile == "" {
		c.StateFile = "sent_events.json"
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 30
	} else if c.FetchTimeoutSeconds < 10 {
		c.FetchTimeoutSeconds = 10
	}
	if c.Schedule == "" {
		c.Schedule = "*/30 * * * *"
	}
}

// Validate fails fast on missing required settings. The error names the
// keys but never their values.
func (c *Config) Validate() error {
	var missing []string
	if c.FeedURL == "" {
		missing = append(missing, "FEED_URL")
	}
	if c.DestinationContact == "" {
		missing = append(missing, "DESTINATION_CONTACT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Load assembles the configuration.
//
// yamlPath may be empty (no config file). envPath points at a .env file;
// a missing .env is not an error since deployments may rely on the real
// environment instead.
func Load(yamlPath, envPath string) (*Config, error) {
	cfg := DefaultConfig()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// First run with an explicit config path: write the defaults
			// so the user has a file to edit.
			if err := Save(yamlPath, cfg); err != nil {
				return cfg, err
			}
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config file %s: %w", yamlPath, err)
			}
		}
	}

	// godotenv.Load never overrides variables already present in the
	// process environment, which gives env > .env for free.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("env file %s: %w", envPath, err)
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.FeedURL = v
	}
	if v := os.Getenv("DESTINATION_CONTACT"); v != "" {
		cfg.DestinationContact = v
	}
	if v := os.Getenv("LOOKAHEAD_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LookaheadDays = n
		}
	}
	if v := os.Getenv("ORGANIZER_DOMAIN"); v != "" {
		cfg.OrganizerDomain = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FetchTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
}

// Save writes cfg to the given YAML path atomically with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lumanotify-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
