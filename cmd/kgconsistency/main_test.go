package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCorpus(t *testing.T, files map[string]string) {
	t.Helper()
	root := t.TempDir()
	files["schema/entity-types.cypher"] = `CREATE CONSTRAINT FOR (n:Symbol) REQUIRE n.name IS UNIQUE;
// Properties for Symbol:
// Required: name, context
// Optional: latex, meaning`
	files["schema/relationship-types.cypher"] = ""
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(root)
	t.Setenv("KG_ROOT", root)
	t.Setenv("KG_CONFIG_FILE", "")
}

func TestRun_MissingType(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(nil, &out))
}

func TestRun_Summary(t *testing.T) {
	setupCorpus(t, map[string]string{
		"symbols/v-fluid.cypher":  `CREATE (:Symbol {name: "v", context: "fluid dynamics"})`,
		"symbols/v-broken.cypher": `CREATE (:Symbol {latex: "\\vec{v}"})`,
	})

	var out bytes.Buffer
	code := run([]string{"Symbol"}, &out)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "✅ v-fluid.cypher: VALID\n")
	assert.Contains(t, out.String(), "❌ v-broken.cypher: INVALID\n")
	assert.Contains(t, out.String(), "Validation Summary: 1 valid, 1 invalid out of 2 files\n")
}

func TestRun_NoFiles(t *testing.T) {
	setupCorpus(t, map[string]string{})

	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"Symbol", "theta"}, &out))
	assert.Equal(t, "No Symbol files found for theta\n", out.String())
}
