package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	kgerrors "kgcheck/pkg/errors"
)

// DefaultConfigFile is picked up from the working directory when
// KG_CONFIG_FILE is not set.
const DefaultConfigFile = "kgcheck.yaml"

// Config holds all application configuration
type Config struct {
	// App
	Env      string `yaml:"env" validate:"oneof=development production test"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Port     string `yaml:"port" validate:"required,numeric"`

	// Corpus layout, relative to Root
	Root             string `yaml:"root" validate:"required"`
	EntitiesDir      string `yaml:"entities_dir" validate:"required"`
	SymbolsDir       string `yaml:"symbols_dir" validate:"required"`
	RelationshipsDir string `yaml:"relationships_dir" validate:"required"`
	SchemaDir        string `yaml:"schema_dir" validate:"required"`
	Extension        string `yaml:"extension" validate:"required,startswith=."`

	// Processing
	Workers         int `yaml:"workers" validate:"min=1,max=256"`
	WatchDebounceMS int `yaml:"watch_debounce_ms" validate:"min=0,max=60000"`

	// ConfigFile is the YAML overlay that was applied, if any
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Env:              "development",
		Port:             "8080",
		Root:             ".",
		EntitiesDir:      "entities",
		SymbolsDir:       "symbols",
		RelationshipsDir: "relationships",
		SchemaDir:        "schema",
		Extension:        ".cypher",
		Workers:          8,
		WatchDebounceMS:  500,
	}
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in increasing priority.
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := Default()

	file := getEnv("KG_CONFIG_FILE", "")
	explicit := file != ""
	if !explicit {
		file = DefaultConfigFile
	}
	if err := cfg.mergeFile(file); err != nil {
		switch {
		case !os.IsNotExist(err):
			return nil, err
		case explicit:
			return nil, kgerrors.NewConfigFileInvalid(file, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// mergeFile decodes a YAML overlay onto cfg. Keys absent from the file keep
// their current values.
func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return kgerrors.NewConfigFileInvalid(path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return kgerrors.NewConfigFileInvalid(path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnv("PORT", c.Port)
	c.Root = getEnv("KG_ROOT", c.Root)
	c.EntitiesDir = getEnv("KG_ENTITIES_DIR", c.EntitiesDir)
	c.SymbolsDir = getEnv("KG_SYMBOLS_DIR", c.SymbolsDir)
	c.RelationshipsDir = getEnv("KG_RELATIONSHIPS_DIR", c.RelationshipsDir)
	c.SchemaDir = getEnv("KG_SCHEMA_DIR", c.SchemaDir)
	c.Extension = getEnv("KG_EXTENSION", c.Extension)
	c.Workers = getEnvInt("KG_WORKERS", c.Workers)
	c.WatchDebounceMS = getEnvInt("KG_WATCH_DEBOUNCE_MS", c.WatchDebounceMS)
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			reason := fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			return kgerrors.NewConfigValidationFailed(fe.Field(), reason)
		}
		return err
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EntitiesPath is the directory holding generic entity files.
func (c *Config) EntitiesPath() string {
	return filepath.Join(c.Root, c.EntitiesDir)
}

// SymbolsPath is the directory holding Symbol entity files.
func (c *Config) SymbolsPath() string {
	return filepath.Join(c.Root, c.SymbolsDir)
}

// RelationshipsPath is the directory holding relationship files.
func (c *Config) RelationshipsPath() string {
	return filepath.Join(c.Root, c.RelationshipsDir)
}

// EntitySchemaFile is the entity-type declaration file.
func (c *Config) EntitySchemaFile() string {
	return filepath.Join(c.Root, c.SchemaDir, "entity-types"+c.Extension)
}

// RelationshipSchemaFile is the relationship-type declaration file.
func (c *Config) RelationshipSchemaFile() string {
	return filepath.Join(c.Root, c.SchemaDir, "relationship-types"+c.Extension)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}
