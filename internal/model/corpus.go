package model

import (
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	"kgcheck/internal/cypher"
	"kgcheck/pkg/logger"
)

// EntityKey identifies an entity by type and name.
type EntityKey struct {
	Type string
	Name string
}

// EndpointPair is an unordered pair of endpoint names. A <= B always.
type EndpointPair struct {
	A string
	B string
}

// NewEndpointPair orders the names so that (x, y) and (y, x) are equal.
func NewEndpointPair(x, y string) EndpointPair {
	if y < x {
		x, y = y, x
	}
	return EndpointPair{A: x, B: y}
}

// Corpus is the read-only graph model assembled from every file of a run.
type Corpus struct {
	files         []string
	entities      []*EntityRecord
	relationships []*RelationshipRecord

	byType           map[string][]*EntityRecord
	byKey            map[EntityKey][]*EntityRecord
	symbolsByName    map[string][]*EntityRecord
	symbolsByContext map[string][]*EntityRecord
	symbolsByLatex   map[string][]*EntityRecord
	relsByPair       map[EndpointPair][]*RelationshipRecord

	// conflictRefs holds the Symbol endpoints of CONFLICTS_WITH statements
	// whose other endpoint is unbound.
	conflictRefs []symbolRef
}

// Builder folds per-file extraction results into a Corpus. Files may be
// added in any order; Build sorts them so the result does not depend on it.
type Builder struct {
	sources []SourceFile
	logger  *zap.Logger
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{logger: logger.Get()}
}

// Add queues one file. Templates and unreadable files are kept out of the model.
func (b *Builder) Add(sf SourceFile) {
	b.sources = append(b.sources, sf)
}

// Build assembles the corpus. The builder can be reused afterwards.
func (b *Builder) Build() *Corpus {
	sources := append([]SourceFile(nil), b.sources...)
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })

	c := &Corpus{
		byType:           make(map[string][]*EntityRecord),
		byKey:            make(map[EntityKey][]*EntityRecord),
		symbolsByName:    make(map[string][]*EntityRecord),
		symbolsByContext: make(map[string][]*EntityRecord),
		symbolsByLatex:   make(map[string][]*EntityRecord),
		relsByPair:       make(map[EndpointPair][]*RelationshipRecord),
	}

	skipped := 0
	for _, sf := range sources {
		if sf.Template || sf.ReadErr != nil || sf.Parsed == nil {
			skipped++
			continue
		}
		c.files = append(c.files, sf.Path)
		c.addFile(sf.Path, sf.Parsed)
	}

	c.markDocumentedConflicts()

	b.logger.Debug("Corpus built",
		zap.Int("files", len(c.files)),
		zap.Int("skipped", skipped),
		zap.Int("entities", len(c.entities)),
		zap.Int("relationships", len(c.relationships)),
	)
	return c
}

func (c *Corpus) addFile(path string, f *cypher.File) {
	for _, stmt := range f.Entities {
		rec := &EntityRecord{
			Type:       stmt.Type(),
			Name:       stmt.Node.Name(),
			File:       path,
			Line:       stmt.Line,
			Properties: stmt.Properties(),
		}
		c.entities = append(c.entities, rec)
		c.byType[rec.Type] = append(c.byType[rec.Type], rec)
		c.byKey[EntityKey{rec.Type, rec.Name}] = append(c.byKey[EntityKey{rec.Type, rec.Name}], rec)

		if !rec.IsSymbol() {
			continue
		}
		if rec.Name != "" {
			c.symbolsByName[rec.Name] = append(c.symbolsByName[rec.Name], rec)
		}
		if ctx := rec.Context(); ctx != "" {
			c.symbolsByContext[ctx] = append(c.symbolsByContext[ctx], rec)
		}
		if latex := rec.Latex(); latex != "" {
			c.symbolsByLatex[latex] = append(c.symbolsByLatex[latex], rec)
		}
	}

	for _, stmt := range f.Relationships {
		if !stmt.Resolved() {
			if stmt.Label == ConflictsWith {
				for _, n := range []*cypher.NodePattern{stmt.Source, stmt.Target} {
					if n != nil && n.Label() == SymbolType {
						c.conflictRefs = append(c.conflictRefs, symbolRef{n.Name(), n.Properties.String("context")})
					}
				}
			}
			continue
		}
		rec := &RelationshipRecord{
			SourceType:    stmt.Source.Label(),
			SourceName:    stmt.Source.Name(),
			SourceContext: stmt.Source.Properties.String("context"),
			TargetType:    stmt.Target.Label(),
			TargetName:    stmt.Target.Name(),
			TargetContext: stmt.Target.Properties.String("context"),
			Label:         stmt.Label,
			Properties:    stmt.Properties,
			File:          path,
			Line:          stmt.Line,
		}
		c.relationships = append(c.relationships, rec)
		pair := NewEndpointPair(rec.SourceName, rec.TargetName)
		c.relsByPair[pair] = append(c.relsByPair[pair], rec)
	}
}

type symbolRef struct {
	name    string
	context string
}

// markDocumentedConflicts attributes CONFLICTS_WITH relationships to the
// specific symbols they name, including those whose other endpoint is
// unbound. An endpoint without a context matches every symbol of that name.
func (c *Corpus) markDocumentedConflicts() {
	refs := make(map[symbolRef]bool)
	for _, ref := range c.conflictRefs {
		refs[ref] = true
	}
	for _, r := range c.relationships {
		if r.Label != ConflictsWith {
			continue
		}
		if r.SourceType == SymbolType {
			refs[symbolRef{r.SourceName, r.SourceContext}] = true
		}
		if r.TargetType == SymbolType {
			refs[symbolRef{r.TargetName, r.TargetContext}] = true
		}
	}
	if len(refs) == 0 {
		return
	}
	for _, sym := range c.byType[SymbolType] {
		sym.DocumentedConflict = refs[symbolRef{sym.Name, ""}] || refs[symbolRef{sym.Name, sym.Context()}]
	}
}

// Files returns the paths that contributed to the corpus, sorted.
func (c *Corpus) Files() []string { return c.files }

// Entities returns every entity record.
func (c *Corpus) Entities() []*EntityRecord { return c.entities }

// Relationships returns every resolved relationship record.
func (c *Corpus) Relationships() []*RelationshipRecord { return c.relationships }

// Types returns the entity types present, sorted.
func (c *Corpus) Types() []string { return sortedKeys(c.byType) }

// EntitiesOfType returns the records of one type.
func (c *Corpus) EntitiesOfType(entityType string) []*EntityRecord { return c.byType[entityType] }

// Lookup returns every record declared with the given type and name.
func (c *Corpus) Lookup(entityType, name string) []*EntityRecord {
	return c.byKey[EntityKey{entityType, name}]
}

// Symbols returns every Symbol record.
func (c *Corpus) Symbols() []*EntityRecord { return c.byType[SymbolType] }

// SymbolNames returns the distinct symbol names, sorted.
func (c *Corpus) SymbolNames() []string { return sortedKeys(c.symbolsByName) }

// SymbolsNamed returns the symbols with the given name.
func (c *Corpus) SymbolsNamed(name string) []*EntityRecord { return c.symbolsByName[name] }

// SymbolContexts returns the distinct symbol contexts, sorted.
func (c *Corpus) SymbolContexts() []string { return sortedKeys(c.symbolsByContext) }

// SymbolsInContext returns the symbols declared for a context.
func (c *Corpus) SymbolsInContext(ctx string) []*EntityRecord { return c.symbolsByContext[ctx] }

// Latexes returns the distinct symbol renderings, sorted.
func (c *Corpus) Latexes() []string { return sortedKeys(c.symbolsByLatex) }

// SymbolsWithLatex returns the symbols sharing a rendering.
func (c *Corpus) SymbolsWithLatex(latex string) []*EntityRecord { return c.symbolsByLatex[latex] }

// EndpointPairs returns the distinct unordered endpoint pairs, sorted.
func (c *Corpus) EndpointPairs() []EndpointPair {
	pairs := make([]EndpointPair, 0, len(c.relsByPair))
	for p := range c.relsByPair {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// RelationshipsBetween returns the relationships joining a pair, in either direction.
func (c *Corpus) RelationshipsBetween(pair EndpointPair) []*RelationshipRecord {
	return c.relsByPair[pair]
}

func elementID(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}

// GraphNodes exports the entities as Neo4j driver nodes. Element ids are
// "file:line" of the declaration.
func (c *Corpus) GraphNodes() []dbtype.Node {
	nodes := make([]dbtype.Node, 0, len(c.entities))
	for _, e := range c.entities {
		nodes = append(nodes, dbtype.Node{
			ElementId: elementID(e.File, e.Line),
			Labels:    []string{e.Type},
			Props:     e.Properties.Native(),
		})
	}
	return nodes
}

// GraphRelationships exports the relationships as Neo4j driver
// relationships. Endpoints that resolve to no entity keep an empty element id.
func (c *Corpus) GraphRelationships() []dbtype.Relationship {
	rels := make([]dbtype.Relationship, 0, len(c.relationships))
	for _, r := range c.relationships {
		rels = append(rels, dbtype.Relationship{
			ElementId:      elementID(r.File, r.Line),
			StartElementId: c.elementIDOf(r.SourceType, r.SourceName),
			EndElementId:   c.elementIDOf(r.TargetType, r.TargetName),
			Type:           r.Label,
			Props:          r.Properties.Native(),
		})
	}
	return rels
}

func (c *Corpus) elementIDOf(entityType, name string) string {
	recs := c.byKey[EntityKey{entityType, name}]
	if len(recs) == 0 {
		return ""
	}
	return elementID(recs[0].File, recs[0].Line)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
