// Package config loads prismagen settings from defaults, an optional file
// and PRISMAGEN_* environment variables. Command-line flags are applied on
// top by the caller before Validate.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/prismagen/internal/db"
	"github.com/tordrt/prismagen/internal/formatter"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PRISMAGEN_"

// Config is the complete prismagen configuration
type Config struct {
	Store  StoreConfig  `yaml:"store" toml:"store" json:"store" ini:"store"`
	Log    LogConfig    `yaml:"log" toml:"log" json:"log" ini:"log"`
	Server ServerConfig `yaml:"server" toml:"server" json:"server" ini:"server"`
	Prisma PrismaConfig `yaml:"prisma" toml:"prisma" json:"prisma" ini:"prisma"`
	Import ImportConfig `yaml:"import" toml:"import" json:"import" ini:"import"`
}

// StoreConfig selects where the document is persisted
type StoreConfig struct {
	// URL is a store URL or a .yaml/.yml/.json path, see db.Open
	URL string `yaml:"url" toml:"url" json:"url" ini:"url" validate:"required"`
	Key string `yaml:"key" toml:"key" json:"key" ini:"key" validate:"required"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level" ini:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" json:"format" ini:"format" validate:"oneof=text json"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string   `yaml:"addr" toml:"addr" json:"addr" ini:"addr" validate:"required"`
	AllowOrigins []string `yaml:"allowOrigins" toml:"allowOrigins" json:"allowOrigins" ini:"allowOrigins"`
}

// PrismaConfig holds the schema document generation options
type PrismaConfig struct {
	Provider           string `yaml:"provider" toml:"provider" json:"provider" ini:"provider" validate:"required"`
	URLEnv             string `yaml:"urlEnv" toml:"urlEnv" json:"urlEnv" ini:"urlEnv" validate:"required"`
	ClientProvider     string `yaml:"clientProvider" toml:"clientProvider" json:"clientProvider" ini:"clientProvider" validate:"required"`
	NameRelationFields bool   `yaml:"nameRelationFields" toml:"nameRelationFields" json:"nameRelationFields" ini:"nameRelationFields"`
	RelationTypeByID   bool   `yaml:"relationTypeById" toml:"relationTypeById" json:"relationTypeById" ini:"relationTypeById"`
}

// ImportConfig holds database introspection settings
type ImportConfig struct {
	// Schema is the PostgreSQL schema to introspect
	Schema  string   `yaml:"schema" toml:"schema" json:"schema" ini:"schema"`
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude" ini:"exclude"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Store:  StoreConfig{URL: "prismagen.yaml", Key: db.DefaultKey},
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080"},
		Prisma: PrismaConfig{
			Provider:       formatter.DefaultProvider,
			URLEnv:         formatter.DefaultURLEnv,
			ClientProvider: formatter.DefaultClientProvider,
		},
		Import: ImportConfig{Schema: "public"},
	}
}

// Load reads the configuration from path (optional, empty to skip) and the
// process environment, then validates it
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".json":
		err = json.Unmarshal(data, c)
	case ".ini":
		err = decodeINI(data, c)
	default:
		return fmt.Errorf("unsupported config file extension: %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("STORE_URL", &c.Store.URL)
	str("STORE_KEY", &c.Store.Key)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("SERVER_ADDR", &c.Server.Addr)
	str("PRISMA_PROVIDER", &c.Prisma.Provider)
	str("PRISMA_URL_ENV", &c.Prisma.URLEnv)
	str("PRISMA_CLIENT_PROVIDER", &c.Prisma.ClientProvider)
	str("IMPORT_SCHEMA", &c.Import.Schema)
	if v, ok := lookup(EnvPrefix + "IMPORT_EXCLUDE"); ok && strings.TrimSpace(v) != "" {
		c.Import.Exclude = SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "SERVER_ALLOW_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.Server.AllowOrigins = SplitList(v)
	}

	if err := boolean("PRISMA_NAME_RELATION_FIELDS", &c.Prisma.NameRelationFields); err != nil {
		return err
	}
	return boolean("PRISMA_RELATION_TYPE_BY_ID", &c.Prisma.RelationTypeByID)
}

// decodeINI maps sections onto the nested structs, e.g. [store] url = ...
func decodeINI(data []byte, c *Config) error {
	f, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, data)
	if err != nil {
		return err
	}
	return f.MapTo(c)
}

// Validate checks the struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// PrismaOptions converts the generation settings for the formatter
func (c *Config) PrismaOptions() *formatter.PrismaOptions {
	return &formatter.PrismaOptions{
		Provider:           c.Prisma.Provider,
		URLEnv:             c.Prisma.URLEnv,
		ClientProvider:     c.Prisma.ClientProvider,
		RelationTypeByID:   c.Prisma.RelationTypeByID,
		NameRelationFields: c.Prisma.NameRelationFields,
	}
}

// SplitList splits a comma-separated list, trimming blanks
func SplitList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
