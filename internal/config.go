package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/climap/internal/catalog"
	"github.com/starford/climap/internal/identity"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultSources is the enumerated set of package sources a database may reference.
var DefaultSources = []string{"brew", "scoop", "npm", "cargo", "nix", "apt", "pacman", "aur", "flathub", "pip"}

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app" toml:"app"`
	Data     DataConfig        `yaml:"data" toml:"data"`
	SQLite   SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth" toml:"auth"`
	Sources  SourcesConfig     `yaml:"sources" toml:"sources"`
	Scoring  ScoringConfig     `yaml:"scoring" toml:"scoring"`
	Merge    MergeConfig       `yaml:"merge" toml:"merge"`
	Crossref CrossrefConfig    `yaml:"crossref" toml:"crossref"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Sources.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Merge.Validate(); err != nil {
		return err
	}
	return c.Crossref.Validate()
}

// Catalog returns the catalog service configuration.
func (c *Config) Catalog() catalog.Config {
	return catalog.Config{
		Database:       c.Data.Database,
		RawDir:         c.Data.RawDir,
		CrossrefOutput: c.Data.CrossrefOutput,
		VerifiedInput:  c.Data.VerifiedInput,
		ValidSources:   append([]string(nil), c.Sources.Valid...),
		Precedence:     c.Scoring.Precedence(),
		Weights:        c.Scoring.Weights(),
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig locates the data directory and the files inside it. File paths
// are relative to Dir.
type DataConfig struct {
	Dir            string `yaml:"dir" toml:"dir"`
	Database       string `yaml:"database" toml:"database"`
	RawDir         string `yaml:"raw_dir" toml:"raw_dir"`
	CrossrefOutput string `yaml:"crossref_output" toml:"crossref_output"`
	VerifiedInput  string `yaml:"verified_input" toml:"verified_input"`
}

var errRelative = errors.New("must be relative to the data directory")

func relativePath(value any) error {
	s, _ := value.(string)
	if s != "" && filepath.IsAbs(s) {
		return errRelative
	}
	return nil
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Database, validation.Required, validation.By(relativePath)),
		validation.Field(&c.RawDir, validation.Required, validation.By(relativePath)),
		validation.Field(&c.CrossrefOutput, validation.Required, validation.By(relativePath)),
		validation.Field(&c.VerifiedInput, validation.Required, validation.By(relativePath)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SourcesConfig lists the source ids a package database may reference.
type SourcesConfig struct {
	Valid []string `yaml:"valid" toml:"valid"`
}

// Validate validates the sources configuration.
func (c *SourcesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Valid, validation.Required, validation.Each(validation.Required)),
	)
}

// CuratedSource is a curated list and the score it adds to records it names.
type CuratedSource struct {
	Name   string `yaml:"name" toml:"name"`
	Weight int    `yaml:"weight" toml:"weight"`
}

// Validate validates one curated source.
func (c CuratedSource) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Weight, validation.Min(0)),
	)
}

// ScoringConfig fixes the source precedence used by crossref and the weight
// of each curated source. Curated is ordered from highest precedence down.
type ScoringConfig struct {
	Primary string          `yaml:"primary" toml:"primary"`
	Curated []CuratedSource `yaml:"curated" toml:"curated"`
	Extra   []string        `yaml:"extra" toml:"extra"`
}

// Validate validates the scoring configuration.
func (c *ScoringConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Primary, validation.Required),
		validation.Field(&c.Curated),
	)
}

// Precedence returns the resolver order described by the configuration.
func (c *ScoringConfig) Precedence() identity.Precedence {
	p := identity.Precedence{Primary: c.Primary, Extra: c.Extra}
	for _, cs := range c.Curated {
		p.Curated = append(p.Curated, cs.Name)
	}
	return p
}

// Weights returns the curated weights for the scorer.
func (c *ScoringConfig) Weights() []identity.CuratedWeight {
	out := make([]identity.CuratedWeight, 0, len(c.Curated))
	for _, cs := range c.Curated {
		out = append(out, identity.CuratedWeight{Source: cs.Name, Weight: cs.Weight})
	}
	return out
}

// MergeConfig holds merge defaults.
type MergeConfig struct {
	MinSources int `yaml:"min_sources" toml:"min_sources"`
}

// Validate validates the merge configuration.
func (c *MergeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MinSources, validation.Min(0)),
	)
}

// CrossrefConfig holds crossref defaults.
type CrossrefConfig struct {
	Limit int `yaml:"limit" toml:"limit"`
}

// Validate validates the crossref configuration.
func (c *CrossrefConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Dir:            "./data",
			Database:       "known_packages.ccl",
			RawDir:         "raw",
			CrossrefOutput: "crossref_results.json",
			VerifiedInput:  "verified_packages.json",
		},
		SQLite: SQLiteConfig{
			Path: "./climap.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Sources: SourcesConfig{
			Valid: append([]string(nil), DefaultSources...),
		},
		Scoring: ScoringConfig{
			Primary: "homebrew",
			Curated: []CuratedSource{
				{Name: "modern_unix", Weight: 200},
				{Name: "toolleeo", Weight: 50},
				{Name: "awesome_cli_apps", Weight: 50},
			},
			Extra: []string{"scoop", "aur", "cargo", "npm", "nix", "pip"},
		},
		Merge: MergeConfig{
			MinSources: 1,
		},
		Crossref: CrossrefConfig{
			Limit: 200,
		},
	}
}
