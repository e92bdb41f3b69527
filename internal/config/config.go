// Package config loads the ledger configuration from a .env file, an optional
// YAML file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/mutation"
	"github.com/tinoosan/euer/internal/slug"
	"github.com/tinoosan/euer/internal/tax"
)

// DefaultDBPath is used when neither the file nor the environment names a database.
const DefaultDBPath = "euer.db"

// Config is the complete configuration.
type Config struct {
	Tax             TaxConfig              `yaml:"tax"`
	PrivateAccounts []string               `yaml:"private_accounts"`
	LedgerAccounts  []ledger.LedgerAccount `yaml:"ledger_accounts"`
	Audit           AuditConfig            `yaml:"audit"`
	Database        DatabaseConfig         `yaml:"database"`

	// Path is the YAML file that was read, empty when none was found.
	Path string `yaml:"-"`
}

type TaxConfig struct {
	Mode string `yaml:"mode"`
}

type AuditConfig struct {
	User string `yaml:"user"`
}

// DatabaseConfig selects the store. A non-empty URL selects Postgres.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

// DefaultPath returns EUER_CONFIG or ~/.config/euer/config.yaml.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("EUER_CONFIG")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "euer", "config.yaml")
}

// Load reads .env from the working directory if present, then the YAML file at
// path (DefaultPath when empty; a missing default file is not an error), then
// applies EUER_DB_PATH, DATABASE_URL, EUER_TAX_MODE and EUER_AUDIT_USER.
// The result is validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	overrideEnv(&cfg.Database.Path, "EUER_DB_PATH")
	overrideEnv(&cfg.Database.URL, "DATABASE_URL")
	overrideEnv(&cfg.Tax.Mode, "EUER_TAX_MODE")
	overrideEnv(&cfg.Audit.User, "EUER_AUDIT_USER")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and normalizes the tax mode. An unknown mode fails
// with errs.CodeInvalidTaxMode; ledger account keys must be unique slugs that
// name a category.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tax.Mode) == "" {
		c.Tax.Mode = string(tax.SmallBusiness)
	}
	mode, err := tax.ParseMode(c.Tax.Mode)
	if err != nil {
		return err
	}
	c.Tax.Mode = string(mode)
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = DefaultDBPath
	}

	seen := make(map[string]bool, len(c.LedgerAccounts))
	for i := range c.LedgerAccounts {
		acc := &c.LedgerAccounts[i]
		acc.Key = strings.TrimSpace(acc.Key)
		acc.Category = strings.TrimSpace(acc.Category)
		if !slug.IsSlug(acc.Key) {
			return fmt.Errorf("%w: ledger account key %q must match [a-z0-9_]{2,40}", errs.ErrInvalid, acc.Key)
		}
		if acc.Category == "" {
			return fmt.Errorf("%w: ledger account %q has no category", errs.ErrInvalid, acc.Key)
		}
		if seen[acc.Key] {
			return fmt.Errorf("%w: ledger account %q defined twice", errs.ErrInvalid, acc.Key)
		}
		seen[acc.Key] = true
		if acc.Name == "" {
			acc.Name = acc.Key
		}
	}
	return nil
}

// Settings returns the values the mutation service needs.
func (c *Config) Settings() mutation.Settings {
	return mutation.Settings{
		TaxMode:         tax.Mode(c.Tax.Mode),
		PrivateAccounts: c.PrivateAccounts,
		LedgerAccounts:  c.LedgerAccounts,
		User:            c.Audit.User,
	}
}

func overrideEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
