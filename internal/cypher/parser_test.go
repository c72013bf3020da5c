package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EntityStatement(t *testing.T) {
	src := `
// Concept file
CREATE (gd:MathematicalConcept {
  name: "GradientDescent",
  description: 'First-order "iterative" optimisation',
  year: 1847,
  aliases: ["steepest descent", 'GD'],
  metadata: {field: "optimization", tags: [1, 2, {deep: true}]},
  url: "https://en.wikipedia.org/wiki/Gradient_descent" // trailing comment
});
`
	f := Parse(src)
	require.Len(t, f.Entities, 1)
	assert.Empty(t, f.Unrecognized)

	e := f.Entities[0]
	assert.Equal(t, "MathematicalConcept", e.Type())
	assert.Equal(t, "gd", e.Node.Variable)
	assert.Equal(t, "GradientDescent", e.Node.Name())
	assert.Equal(t, 3, e.Line)

	props := e.Properties()
	assert.Equal(t, []string{"name", "description", "year", "aliases", "metadata", "url"}, props.Keys())
	assert.Equal(t, `First-order "iterative" optimisation`, props.String("description"))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Gradient_descent", props.String("url"))

	year, _ := props.Get("year")
	assert.Equal(t, KindNumber, year.Kind)
	assert.Equal(t, "1847", year.AsString())
	assert.Equal(t, int64(1847), year.Native())

	aliases, _ := props.Get("aliases")
	require.Equal(t, KindList, aliases.Kind)
	assert.Len(t, aliases.List, 2)
	assert.Equal(t, "GD", aliases.List[1].Text)

	meta, _ := props.Get("metadata")
	require.Equal(t, KindMap, meta.Kind)
	tags, _ := meta.Map.Get("tags")
	require.Len(t, tags.List, 3)
	assert.Equal(t, KindMap, tags.List[2].Kind)
}

func TestParse_RelationshipTriple(t *testing.T) {
	src := `MATCH (a:NumericalMethod {name: "Adam"})

MATCH   (b:MathematicalConcept {name: 'GradientDescent'})
CREATE (a)-[:BASED_ON {strength: 0.9, since: "2014"}]->(b);`

	f := Parse(src)
	require.Len(t, f.Relationships, 1)
	assert.Empty(t, f.Entities)
	assert.Len(t, f.Matches, 2)

	r := f.Relationships[0]
	assert.Equal(t, "BASED_ON", r.Label)
	assert.Equal(t, "a", r.SourceVar)
	assert.Equal(t, "b", r.TargetVar)
	require.True(t, r.Resolved())
	assert.Equal(t, "NumericalMethod", r.Source.Label())
	assert.Equal(t, "Adam", r.Source.Name())
	assert.Equal(t, "MathematicalConcept", r.Target.Label())
	assert.Equal(t, "GradientDescent", r.Target.Name())
	assert.Equal(t, 4, r.Line)

	strength, ok := r.Properties.Get("strength")
	require.True(t, ok)
	assert.InDelta(t, 0.9, strength.Num, 1e-9)
}

func TestParse_ReverseDirectionAndCommaMatch(t *testing.T) {
	src := `MATCH (p:Paper {id: "Kingma2014"}), (m:NumericalMethod {name: "Adam"})
CREATE (m)<-[:INTRODUCES]-(p)`

	f := Parse(src)
	require.Len(t, f.Relationships, 1)
	r := f.Relationships[0]
	assert.Equal(t, "p", r.SourceVar)
	assert.Equal(t, "Paper", r.Source.Label())
	assert.Equal(t, "Kingma2014", r.Source.Name())
	assert.Equal(t, "NumericalMethod", r.Target.Label())
	assert.Nil(t, r.Properties)
}

func TestParse_InlineChainCreatesEntitiesAndRelationship(t *testing.T) {
	src := `CREATE (s:Symbol {name: "v", context: "fluid dynamics"})-[:REPRESENTS]->(c:MathematicalConcept {name: "Velocity"})`

	f := Parse(src)
	require.Len(t, f.Entities, 2)
	require.Len(t, f.Relationships, 1)
	assert.Equal(t, "Symbol", f.Relationships[0].Source.Label())
	assert.Equal(t, "Velocity", f.Relationships[0].Target.Name())
}

func TestParse_BindingsResetAtSemicolon(t *testing.T) {
	src := `MATCH (a:Algorithm {name: "QuickSort"});
MATCH (b:Algorithm {name: "MergeSort"})
CREATE (a)-[:RELATES_TO]->(b)`

	f := Parse(src)
	require.Len(t, f.Relationships, 1)
	r := f.Relationships[0]
	assert.Nil(t, r.Source)
	assert.NotNil(t, r.Target)
	assert.False(t, r.Resolved())
}

func TestParse_WhereEquality(t *testing.T) {
	src := `MATCH (a:Symbol) WHERE a.name = "v" AND a.context = "fluid dynamics"
MATCH (b:Symbol {name: "v", context: "linear algebra"})
CREATE (a)-[:CONFLICTS_WITH]->(b)`

	f := Parse(src)
	require.Len(t, f.Relationships, 1)
	assert.Empty(t, f.Unrecognized)
	src0 := f.Relationships[0].Source
	assert.Equal(t, "v", src0.Name())
	assert.Equal(t, "fluid dynamics", src0.Properties.String("context"))
}

func TestParse_WhereLeavesEarlierStatementsAlone(t *testing.T) {
	t.Run("failing predicate", func(t *testing.T) {
		f := Parse(`CREATE (s:Symbol {name: "v", context: "fluid dynamics"})
MATCH (m:Symbol) WHERE s.name = "w" AND m.context > 3`)

		require.Len(t, f.Entities, 1)
		require.Len(t, f.Unrecognized, 1)
		props := f.Entities[0].Properties()
		assert.Equal(t, 2, props.Len())
		assert.Equal(t, "v", props.String("name"))
	})

	t.Run("earlier binding", func(t *testing.T) {
		f := Parse(`CREATE (s:Symbol {name: "v", context: "fluid dynamics"})
MATCH (m:Symbol) WHERE s.name = "w" AND m.name = "x"`)

		require.Len(t, f.Entities, 1)
		require.Len(t, f.Matches, 1)
		assert.Empty(t, f.Unrecognized)
		assert.Equal(t, "v", f.Entities[0].Properties().String("name"))
		assert.Equal(t, 2, f.Entities[0].Properties().Len())
		assert.Equal(t, "x", f.Matches[0].Name())
	})
}

func TestParse_CommentsAndQuotingVariants(t *testing.T) {
	src := `/* block
comment CREATE (x:Ignored {name: "no"}) */
CREATE (:Symbol {name:'theta',latex:"\theta", meaning: "angle // not a comment", 'context': "geometry",})`

	f := Parse(src)
	require.Len(t, f.Entities, 1)
	props := f.Entities[0].Properties()
	assert.Equal(t, `\theta`, props.String("latex"))
	assert.Equal(t, "angle // not a comment", props.String("meaning"))
	assert.Equal(t, "geometry", props.String("context"))
	assert.Equal(t, 3, f.Entities[0].Line)
}

func TestParse_EscapedBackslash(t *testing.T) {
	f := Parse(`CREATE (:Symbol {name: "nabla", latex: "\\nabla", note: 'it\'s'})`)
	require.Len(t, f.Entities, 1)
	assert.Equal(t, `\nabla`, f.Entities[0].Properties().String("latex"))
	assert.Equal(t, "it's", f.Entities[0].Properties().String("note"))
}

func TestParse_RawValues(t *testing.T) {
	f := Parse(`CREATE (:Paper {id: "Smith2020", published: date("2020-01-01"), score: -1.5, owner: $owner, dim: Scalar, draft: FALSE, extra: null})`)
	require.Len(t, f.Entities, 1)
	props := f.Entities[0].Properties()

	published, _ := props.Get("published")
	assert.Equal(t, KindRaw, published.Kind)
	assert.Equal(t, `date("2020-01-01")`, published.Text)

	score, _ := props.Get("score")
	assert.InDelta(t, -1.5, score.Num, 1e-9)

	owner, _ := props.Get("owner")
	assert.Equal(t, "$owner", owner.Text)

	assert.Equal(t, "Scalar", props.String("dim"))

	draft, _ := props.Get("draft")
	assert.Equal(t, KindBool, draft.Kind)
	assert.False(t, draft.Bool)

	assert.False(t, props.Has("extra"))
}

func TestParse_UnrecognizedIsObservable(t *testing.T) {
	src := `MERGE (a:Concept {name: "X"})
SET a.updated = true;
CREATE (b:Concept {name: "Y", broken: })
CREATE (c:Concept {name: "Z"})
CREATE (c)-[:RELATES_TO]-(b)`

	f := Parse(src)
	require.Len(t, f.Entities, 1)
	assert.Equal(t, "Z", f.Entities[0].Node.Name())
	assert.Empty(t, f.Relationships)

	// SET belongs to the skipped MERGE statement, so it is not reported on its own.
	require.Len(t, f.Unrecognized, 3)
	assert.Equal(t, "MERGE", f.Unrecognized[0].Keyword)
	assert.Equal(t, "unsupported clause", f.Unrecognized[0].Reason)
	assert.Equal(t, "CREATE", f.Unrecognized[1].Keyword)
	assert.Equal(t, 3, f.Unrecognized[1].Line)
	assert.Contains(t, f.Unrecognized[2].Reason, "direction")
	assert.Equal(t, 5, f.Unrecognized[2].Line)
}

func TestParse_UnterminatedString(t *testing.T) {
	f := Parse(`CREATE (:Concept {name: "Open})`)
	assert.NotEmpty(t, f.Unrecognized)
	assert.Empty(t, f.Entities)
}

func TestParse_NumberLikeWord(t *testing.T) {
	f := Parse(`CREATE (:Paper {id: "A2020", year: 20A4})`)
	require.Len(t, f.Entities, 1)
	year, _ := f.Entities[0].Properties().Get("year")
	assert.Equal(t, KindRaw, year.Kind)
	assert.Equal(t, "20A4", year.AsString())
}

func TestIsTemplate(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`CREATE (:Symbol {name: "[SYMBOL_NAME]"})`, true},
		{`CREATE (:[ENTITY_TYPE] {name: "x"})`, true},
		{`CREATE (:Concept {[PLACEHOLDER]: "x"})`, true},
		{`CREATE (:[ENTITY_LABEL] {[PROPERTY_KEY]: "y"})`, true},
		{`CREATE (n:Concept:[EXTRA_LABEL] {name: "x"})`, true},
		{`CREATE (:Concept {name: "x", [OTHER_KEY]: 1})`, true},
		{`MATCH (a:Concept) CREATE (a)-[:[REL_KIND]]->(a)`, true},
		{`CREATE (:Concept {name: "x", tags: ["NAME"]})`, false},
		{`CREATE (:Concept {name: "x", tags: [1, 2]})`, false},
		{`CREATE (n:Concept {name: "GradientDescent"})-[:IMPLEMENTS]->(m)`, false},
		{`CREATE (:Concept {name: "GradientDescent"})`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTemplate(tt.src))
		})
	}

	assert.Equal(t, []string{"[ENTITY_NAME]", "[PLACEHOLDER]"},
		Placeholders(`[ENTITY_NAME] [PLACEHOLDER] [ENTITY_NAME]`))
	assert.Equal(t, []string{"[ENTITY_LABEL]", "[PROPERTY_KEY]", "[SYMBOL_NAME]"},
		Placeholders(`CREATE (:[ENTITY_LABEL] {[PROPERTY_KEY]: "[SYMBOL_NAME]"})`))
}

func TestValueLiteral(t *testing.T) {
	f := Parse(`CREATE (:Concept {m: {a: [1, "x"], b: true}})`)
	require.Len(t, f.Entities, 1)
	m, _ := f.Entities[0].Properties().Get("m")
	assert.Equal(t, `{a: [1, "x"], b: true}`, m.Literal())
	assert.Equal(t, map[string]any{"a": []any{int64(1), "x"}, "b": true}, m.Native())
}
