package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kgerrors "kgcheck/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KG_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ".cypher", cfg.Extension)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, filepath.Join(".", "schema", "entity-types.cypher"), cfg.EntitySchemaFile())
	assert.Equal(t, filepath.Join(".", "symbols"), cfg.SymbolsPath())
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(file, []byte("root: /data/kg\nworkers: 2\nextension: .cql\n"), 0o644))

	t.Setenv("KG_CONFIG_FILE", file)
	t.Setenv("KG_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/kg", cfg.Root)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ".cql", cfg.Extension)
	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, filepath.Join("/data/kg", "schema", "relationship-types.cql"), cfg.RelationshipSchemaFile())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("KG_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.True(t, kgerrors.IsErrorType(err, kgerrors.ErrorTypeConfig))
}

func TestLoad_UnknownFileKey(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("wrokers: 3\n"), 0o644))
	t.Setenv("KG_CONFIG_FILE", file)

	_, err := Load()
	require.Error(t, err)
	var fileErr *kgerrors.ErrConfigFileInvalid
	assert.ErrorAs(t, err, &fileErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, field: "Workers", wantErr: true},
		{name: "extension without dot", mutate: func(c *Config) { c.Extension = "cypher" }, field: "Extension", wantErr: true},
		{name: "unknown env", mutate: func(c *Config) { c.Env = "staging" }, field: "Env", wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, field: "LogLevel", wantErr: true},
		{name: "non numeric port", mutate: func(c *Config) { c.Port = "http" }, field: "Port", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *kgerrors.ErrConfigValidationFailed
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
