package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgcheck/internal/conflict"
	"kgcheck/internal/report"
	"kgcheck/pkg/config"
	kgerrors "kgcheck/pkg/errors"
)

const entitySchema = `
CREATE CONSTRAINT FOR (n:MathematicalConcept) REQUIRE n.name IS UNIQUE;
CREATE CONSTRAINT FOR (n:NumericalMethod) REQUIRE n.name IS UNIQUE;
CREATE CONSTRAINT FOR (n:Symbol) REQUIRE n.name IS UNIQUE;

// Properties for MathematicalConcept:
// Required: name
// Optional: description

// Properties for NumericalMethod:
// Required: name
// Optional: year

// Properties for Symbol:
// Required: name, context
// Optional: latex, meaning
`

const relationshipSchema = `
// Relationship Type: IMPLEMENTS
// From: NumericalMethod
// To: MathematicalConcept
// Properties:

// Relationship Type: BASED_ON
// From: NumericalMethod
// To: MathematicalConcept
// Properties:
`

func corpusRoot(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	files["schema/entity-types.cypher"] = entitySchema
	files["schema/relationship-types.cypher"] = relationshipSchema
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg := config.Default()
	cfg.Root = root
	cfg.Workers = 2
	return cfg
}

func TestNew_MissingSchemaIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, kgerrors.IsFatal(err))
	assert.True(t, kgerrors.IsErrorType(err, kgerrors.ErrorTypeSchema))
}

func TestValidatePath(t *testing.T) {
	cfg := corpusRoot(t, map[string]string{
		"entities/gd.cypher":       `CREATE (:MathematicalConcept {name: "GradientDescent"})`,
		"entities/widget.cypher":   `CREATE (:Widget {name: "W"})`,
		"entities/template.cypher": `CREATE (:[ENTITY_TYPE] {name: "[ENTITY_NAME]"})`,
	})
	e, err := New(cfg)
	require.NoError(t, err)

	r, err := e.ValidatePath(context.Background(), cfg.EntitiesPath())
	require.NoError(t, err)
	assert.Equal(t, report.ModeBatch, r.Mode)
	assert.Equal(t, 2, r.Valid)
	assert.Equal(t, 1, r.Invalid)
	assert.Equal(t, 1, r.ExitCode())

	r, err = e.ValidatePath(context.Background(), filepath.Join(cfg.EntitiesPath(), "gd.cypher"))
	require.NoError(t, err)
	assert.Equal(t, report.ModeSingle, r.Mode)
	assert.Equal(t, 0, r.ExitCode())

	_, err = e.ValidatePath(context.Background(), filepath.Join(cfg.Root, "nowhere"))
	assert.True(t, kgerrors.IsErrorType(err, kgerrors.ErrorTypeIO))
}

func TestValidateContent(t *testing.T) {
	e, err := New(corpusRoot(t, map[string]string{}))
	require.NoError(t, err)

	res := e.ValidateContent("inline.cypher", `CREATE (:NumericalMethod {name: "Adam", year: "20A4"})`)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{`Year should be a 4-digit number: "20A4"`}, res.Errors)

	res = e.ValidateContent("inline.cypher", `CREATE (:[ENTITY_LABEL] {[PROPERTY_KEY]: "y"})`)
	assert.True(t, res.Valid)
	assert.True(t, res.Template)
	assert.Equal(t, []string{"This file is a template"}, res.Warnings)
}

func TestConsistency(t *testing.T) {
	cfg := corpusRoot(t, map[string]string{
		"symbols/v-fluid.cypher":  `CREATE (:Symbol {name: "v", context: "fluid dynamics"})`,
		"symbols/v-linalg.cypher": `CREATE (:Symbol {name: "v"})`,
		"symbols/theta.cypher":    `CREATE (:Symbol {name: "theta", context: "geometry"})`,
		"entities/adam.cypher":    `CREATE (:NumericalMethod {name: "Adam"})`,
	})
	e, err := New(cfg)
	require.NoError(t, err)

	r, err := e.Consistency(context.Background(), "Symbol", "v-")
	require.NoError(t, err)
	assert.Equal(t, "Symbol", r.EntityType)
	require.Len(t, r.Results, 2)
	assert.Equal(t, 1, r.Valid)
	assert.Equal(t, 1, r.Invalid)
	assert.Contains(t, r.Results[1].Errors, "Symbol has name but no context property")

	r, err = e.Consistency(context.Background(), "NumericalMethod", "")
	require.NoError(t, err)
	require.Len(t, r.Results, 1)
	assert.True(t, r.AllValid())
}

func TestConflicts(t *testing.T) {
	cfg := corpusRoot(t, map[string]string{
		"symbols/v-fluid.cypher":        `CREATE (:Symbol {name: "v", context: "fluid dynamics"})`,
		"symbols/v-linalg.cypher":       `CREATE (:Symbol {name: "v", context: "linear algebra"})`,
		"entities/gd.cypher":            `CREATE (:MathematicalConcept {name: "GradientDescent"})`,
		"entities/gd-copy.cypher":       `CREATE (:MathematicalConcept {name: "GradientDescent"})`,
		"relationships/documents.cypher": `MATCH (a:Symbol {name: "v", context: "fluid dynamics"})
MATCH (b:Symbol {name: "v", context: "linear algebra"})
CREATE (a)-[:CONFLICTS_WITH]->(b)`,
	})
	e, err := New(cfg)
	require.NoError(t, err)

	r, err := e.Conflicts(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, conflict.KindDuplicateName, r.Findings[0].Type)
	assert.Equal(t, 5, r.Files)
	assert.Equal(t, 2, r.Symbols)

	r, err = e.Conflicts(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, r.Findings)
	assert.True(t, r.SymbolsOnly)
}
