// Package schema loads the entity-type and relationship-type declarations
// that every validator and the conflict detector are checked against.
package schema

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	kgerrors "kgcheck/pkg/errors"
)

// EntityType is an allowed node label with its property contract.
type EntityType struct {
	Name      string   `json:"name" yaml:"name"`
	UniqueKey string   `json:"unique_key" yaml:"unique_key"`
	Required  []string `json:"required" yaml:"required"`
	Optional  []string `json:"optional" yaml:"optional"`
}

// Allows reports whether prop is required or optional for the type.
func (t *EntityType) Allows(prop string) bool {
	return contains(t.Required, prop) || contains(t.Optional, prop)
}

// RelationshipType is an allowed relationship label with its endpoint and
// property contract.
type RelationshipType struct {
	Label      string   `json:"label" yaml:"label"`
	From       []string `json:"from" yaml:"from"`
	To         []string `json:"to" yaml:"to"`
	Properties []string `json:"properties" yaml:"properties"`
}

// AllowsSource reports whether entityType may be the start node.
func (t *RelationshipType) AllowsSource(entityType string) bool { return contains(t.From, entityType) }

// AllowsTarget reports whether entityType may be the end node.
func (t *RelationshipType) AllowsTarget(entityType string) bool { return contains(t.To, entityType) }

// AllowsProperty reports whether prop may be set on the relationship.
func (t *RelationshipType) AllowsProperty(prop string) bool { return contains(t.Properties, prop) }

// Schema is the immutable pair of type tables. It is built once per run and
// handed to every validator explicitly.
type Schema struct {
	entities      map[string]*EntityType
	relationships map[string]*RelationshipType
	warnings      []string
}

var (
	// CREATE CONSTRAINT name IF NOT EXISTS FOR (n:Type) REQUIRE n.prop IS UNIQUE
	constraintPattern = regexp.MustCompile(`CREATE\s+CONSTRAINT[^\n]*?\s(?:FOR|ON)\s*\(\s*(\w+)\s*:\s*(\w+)\s*\)[^\n]*?(?:REQUIRE|ASSERT)\s+(\w+)\.(\w+)\s+IS\s+UNIQUE`)
	propertiesPattern = regexp.MustCompile(`//\s*Properties for (\w+):\s*//\s*Required:([ \t\w,]*)\s*//\s*Optional:([ \t\w,]*)`)
	relTypePattern    = regexp.MustCompile(`//\s*Relationship Type:\s*(\w+)\s*//\s*From:([ \t\w,]+)\s*//\s*To:([ \t\w,]+)\s*//\s*Properties:([ \t\w,]*)`)
)

// Parse builds a Schema from the two declaration texts. Declarations that do
// not match are ignored, so an empty text yields empty tables.
func Parse(entityText, relationshipText string) *Schema {
	s := &Schema{
		entities:      make(map[string]*EntityType),
		relationships: make(map[string]*RelationshipType),
	}
	s.parseEntities(entityText)
	s.parseRelationships(relationshipText)
	return s
}

// LoadFiles reads and parses the two schema files. A read failure is fatal
// for the run.
func LoadFiles(entityPath, relationshipPath string) (*Schema, error) {
	entityText, err := os.ReadFile(entityPath)
	if err != nil {
		return nil, kgerrors.NewSchemaLoadFailed(entityPath, err)
	}
	relText, err := os.ReadFile(relationshipPath)
	if err != nil {
		return nil, kgerrors.NewSchemaLoadFailed(relationshipPath, err)
	}
	return Parse(string(entityText), string(relText)), nil
}

func (s *Schema) parseEntities(text string) {
	for _, m := range constraintPattern.FindAllStringSubmatch(text, -1) {
		variable, typeName, propVar, prop := m[1], m[2], m[3], m[4]
		if variable != propVar {
			s.warnf("constraint on %s refers to %s.%s instead of %s.%s", typeName, propVar, prop, variable, prop)
		}
		if _, ok := s.entities[typeName]; ok {
			continue
		}
		s.entities[typeName] = &EntityType{Name: typeName, UniqueKey: prop}
	}

	for _, m := range propertiesPattern.FindAllStringSubmatch(text, -1) {
		t, ok := s.entities[m[1]]
		if !ok {
			s.warnf("property list for %s has no uniqueness constraint", m[1])
			continue
		}
		t.Required = splitList(m[2])
		optional := splitList(m[3])
		t.Optional = t.Optional[:0]
		for _, p := range optional {
			if contains(t.Required, p) {
				s.warnf("property %s of %s is both required and optional; treating it as required", p, t.Name)
				continue
			}
			t.Optional = append(t.Optional, p)
		}
	}
}

func (s *Schema) parseRelationships(text string) {
	for _, m := range relTypePattern.FindAllStringSubmatch(text, -1) {
		s.relationships[m[1]] = &RelationshipType{
			Label:      m[1],
			From:       splitList(m[2]),
			To:         splitList(m[3]),
			Properties: splitList(m[4]),
		}
	}
}

func (s *Schema) warnf(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Entity returns the entity type named name.
func (s *Schema) Entity(name string) (*EntityType, bool) {
	t, ok := s.entities[name]
	return t, ok
}

// Relationship returns the relationship type with the given label.
func (s *Schema) Relationship(label string) (*RelationshipType, bool) {
	t, ok := s.relationships[label]
	return t, ok
}

// EntityNames returns the declared entity types in lexical order.
func (s *Schema) EntityNames() []string {
	return sortedKeys(s.entities)
}

// RelationshipLabels returns the declared relationship labels in lexical order.
func (s *Schema) RelationshipLabels() []string {
	return sortedKeys(s.relationships)
}

// Warnings returns inconsistencies found in the declarations themselves.
func (s *Schema) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
