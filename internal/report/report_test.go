package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"kgcheck/internal/conflict"
	"kgcheck/internal/cypher"
	"kgcheck/internal/model"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "json", "yaml"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func results() []model.ValidationResult {
	return []model.ValidationResult{
		model.NewValidationResult("entities/gd.cypher", nil, nil),
		model.NewValidationResult("entities/bad.cypher", []string{"Invalid entity type: Widget"}, nil),
		model.TemplateResult("entities/template.cypher"),
	}
}

func TestValidationReport_Counts(t *testing.T) {
	r := NewValidationReport(ModeBatch, results())
	assert.Equal(t, 2, r.Valid)
	assert.Equal(t, 1, r.Invalid)
	assert.False(t, r.AllValid())
	assert.Equal(t, 1, r.ExitCode())
	assert.NotEmpty(t, r.RunID)

	ok := NewValidationReport(ModeBatch, nil)
	assert.Equal(t, 0, ok.ExitCode())
	assert.NotNil(t, ok.Results)
}

func TestWriteValidation_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, NewValidationReport(ModeSummary, results()), FormatText))
	assert.Equal(t, "✅ gd.cypher: VALID\n"+
		"❌ bad.cypher: INVALID\n"+
		"  - Invalid entity type: Widget\n"+
		"✅ template.cypher: VALID\n"+
		"\nValidation Summary: 2 valid, 1 invalid out of 3 files\n", buf.String())
}

func TestWriteValidation_Single(t *testing.T) {
	var buf bytes.Buffer
	r := NewValidationReport(ModeSingle, []model.ValidationResult{model.TemplateResult("a.cypher")})
	require.NoError(t, WriteValidation(&buf, r, FormatText))
	assert.Equal(t, "✅ VALIDATION PASSED\n⚠️ WARNINGS:\n  - This file is a template\n", buf.String())

	buf.Reset()
	r = NewValidationReport(ModeSingle, []model.ValidationResult{
		model.NewValidationResult("b.cypher", []string{"Invalid relationship type: TELEPORTS"}, nil),
	})
	require.NoError(t, WriteValidation(&buf, r, FormatText))
	assert.Equal(t, "❌ VALIDATION FAILED:\n  - Invalid relationship type: TELEPORTS\n", buf.String())
}

func TestWriteValidation_Structured(t *testing.T) {
	r := NewValidationReport(ModeBatch, results())

	var buf bytes.Buffer
	require.NoError(t, WriteValidation(&buf, r, FormatJSON))
	var decoded ValidationReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, 1, decoded.Invalid)
	require.Len(t, decoded.Results, 3)
	assert.True(t, decoded.Results[2].Template)

	buf.Reset()
	require.NoError(t, WriteValidation(&buf, r, FormatYAML))
	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &generic))
	assert.Equal(t, r.RunID, generic["runId"])
	assert.Equal(t, 2, generic["valid"])
}

func conflictReport(t *testing.T) *ConflictReport {
	t.Helper()
	b := model.NewBuilder()
	b.Add(model.SourceFile{Path: "symbols/v-fluid.cypher", Parsed: cypher.Parse(`CREATE (:Symbol {name: "v", context: "fluid dynamics"})`)})
	b.Add(model.SourceFile{Path: "symbols/v-linalg.cypher", Parsed: cypher.Parse(`CREATE (:Symbol {name: "v", context: "linear algebra"})`)})
	c := b.Build()

	findings, err := conflict.NewDetector(conflict.SymbolRules()).Detect(context.Background(), c)
	require.NoError(t, err)
	return NewConflictReport(c, findings, true)
}

func TestWriteConflicts_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConflicts(&buf, conflictReport(t), FormatText))
	assert.Equal(t, "\nDetected 1 potential conflicts:\n"+
		"\n== UndocumentedSymbolConflict (1) ==\n"+
		"  Symbol 'v' used in different contexts without CONFLICTS_WITH relationship\n"+
		"    - Contexts: fluid dynamics, linear algebra\n"+
		"    - v-fluid.cypher: context = \"fluid dynamics\"\n"+
		"    - v-linalg.cypher: context = \"linear algebra\"\n"+
		"    Resolution: Create CONFLICTS_WITH relationships between these symbols\n", buf.String())
}

func TestWriteConflicts_Empty(t *testing.T) {
	c := model.NewBuilder().Build()
	var buf bytes.Buffer
	require.NoError(t, WriteConflicts(&buf, NewConflictReport(c, nil, false), FormatText))
	assert.Equal(t, "No conflicts detected\n", buf.String())
}

func TestWriteConflicts_JSON(t *testing.T) {
	r := conflictReport(t)
	assert.Equal(t, 2, r.Symbols)
	assert.Equal(t, 0, r.ExitCode())

	var buf bytes.Buffer
	require.NoError(t, WriteConflicts(&buf, r, FormatJSON))

	var decoded struct {
		SymbolsOnly bool `json:"symbolsOnly"`
		Findings    []struct {
			Type   string `json:"type"`
			Detail struct {
				Name     string   `json:"name"`
				Contexts []string `json:"contexts"`
			} `json:"detail"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.SymbolsOnly)
	require.Len(t, decoded.Findings, 1)
	assert.Equal(t, "UndocumentedSymbolConflict", decoded.Findings[0].Type)
	assert.Equal(t, []string{"fluid dynamics", "linear algebra"}, decoded.Findings[0].Detail.Contexts)
}
