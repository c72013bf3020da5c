// Package conflict detects cross-entity consistency defects over a built
// corpus. Each defect kind is produced by one rule; see DefaultRules.
package conflict

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind names a class of finding.
type Kind string

const (
	KindDuplicateName              Kind = "DuplicateName"
	KindUndocumentedSymbolConflict Kind = "UndocumentedSymbolConflict"
	KindInconsistentMeaning        Kind = "InconsistentMeaning"
	KindInconsistentNaming         Kind = "InconsistentNaming"
	KindConflictingRelationships   Kind = "ConflictingRelationships"
	KindUnresolvedEndpoint         Kind = "UnresolvedEndpoint"
)

// Finding is one detected defect. Findings are values reported to the user,
// never errors.
type Finding interface {
	Kind() Kind
	// Summary is a one-line description.
	Summary() string
	// Evidence lists the contributing records, one per line.
	Evidence() []string
	Resolution() string
}

// SymbolRef is a symbol record cited as evidence.
type SymbolRef struct {
	Name    string `json:"name" yaml:"name"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	Latex   string `json:"latex,omitempty" yaml:"latex,omitempty"`
	Meaning string `json:"meaning,omitempty" yaml:"meaning,omitempty"`
	File    string `json:"file" yaml:"file"`
	Line    int    `json:"line" yaml:"line"`
}

// RelationshipRef is a relationship record cited as evidence.
type RelationshipRef struct {
	Label  string `json:"label" yaml:"label"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	File   string `json:"file" yaml:"file"`
	Line   int    `json:"line" yaml:"line"`
}

// DuplicateName: one entity type declares the same name more than once.
type DuplicateName struct {
	EntityType string   `json:"entityType" yaml:"entityType"`
	Name       string   `json:"name" yaml:"name"`
	Count      int      `json:"count" yaml:"count"`
	Files      []string `json:"files" yaml:"files"`
}

func (f *DuplicateName) Kind() Kind { return KindDuplicateName }

func (f *DuplicateName) Summary() string {
	return fmt.Sprintf("Duplicate name '%s' for entity type %s", f.Name, f.EntityType)
}

func (f *DuplicateName) Evidence() []string {
	out := make([]string, 0, len(f.Files))
	for _, file := range f.Files {
		out = append(out, filepath.Base(file))
	}
	return out
}

func (f *DuplicateName) Resolution() string {
	return fmt.Sprintf("Ensure unique names for %s entities or create EXTENDS/VARIANT_OF relationships", f.EntityType)
}

// UndocumentedSymbolConflict: a symbol name is used in several contexts and
// none of its declarations takes part in a CONFLICTS_WITH relationship.
type UndocumentedSymbolConflict struct {
	Name     string      `json:"name" yaml:"name"`
	Contexts []string    `json:"contexts" yaml:"contexts"`
	Symbols  []SymbolRef `json:"symbols" yaml:"symbols"`
}

func (f *UndocumentedSymbolConflict) Kind() Kind { return KindUndocumentedSymbolConflict }

func (f *UndocumentedSymbolConflict) Summary() string {
	return fmt.Sprintf("Symbol '%s' used in different contexts without CONFLICTS_WITH relationship", f.Name)
}

func (f *UndocumentedSymbolConflict) Evidence() []string {
	out := []string{"Contexts: " + strings.Join(f.Contexts, ", ")}
	for _, s := range f.Symbols {
		out = append(out, fmt.Sprintf("%s: context = %q", filepath.Base(s.File), s.Context))
	}
	return out
}

func (f *UndocumentedSymbolConflict) Resolution() string {
	return "Create CONFLICTS_WITH relationships between these symbols"
}

// InconsistentMeaning: one symbol name carries different meanings within a
// single context.
type InconsistentMeaning struct {
	Name     string      `json:"name" yaml:"name"`
	Context  string      `json:"context" yaml:"context"`
	Meanings []string    `json:"meanings" yaml:"meanings"`
	Symbols  []SymbolRef `json:"symbols" yaml:"symbols"`
}

func (f *InconsistentMeaning) Kind() Kind { return KindInconsistentMeaning }

func (f *InconsistentMeaning) Summary() string {
	return fmt.Sprintf("Symbol '%s' has inconsistent meanings in context %q", f.Name, f.Context)
}

func (f *InconsistentMeaning) Evidence() []string {
	out := make([]string, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		out = append(out, fmt.Sprintf("%s: meaning = %q", filepath.Base(s.File), s.Meaning))
	}
	return out
}

func (f *InconsistentMeaning) Resolution() string {
	return "Consolidate symbols with consistent meanings or use more specific contexts"
}

// InconsistentNaming: one LaTeX rendering is declared under several names.
type InconsistentNaming struct {
	Latex   string      `json:"latex" yaml:"latex"`
	Names   []string    `json:"names" yaml:"names"`
	Symbols []SymbolRef `json:"symbols" yaml:"symbols"`
}

func (f *InconsistentNaming) Kind() Kind { return KindInconsistentNaming }

func (f *InconsistentNaming) Summary() string {
	return fmt.Sprintf("LaTeX '%s' has inconsistent names", f.Latex)
}

func (f *InconsistentNaming) Evidence() []string {
	out := make([]string, 0, len(f.Symbols))
	for _, s := range f.Symbols {
		out = append(out, fmt.Sprintf("%s: name = %q, context = %q", filepath.Base(s.File), s.Name, s.Context))
	}
	return out
}

func (f *InconsistentNaming) Resolution() string {
	return "Consider using SYNONYM_OF relationships or standardizing naming"
}

// ConflictingRelationships: both labels of a mutually exclusive pair join
// the same two endpoints, in either direction.
type ConflictingRelationships struct {
	Endpoints     [2]string         `json:"endpoints" yaml:"endpoints,flow"`
	Labels        [2]string         `json:"relTypes" yaml:"relTypes,flow"`
	Relationships []RelationshipRef `json:"relationships" yaml:"relationships"`
}

func (f *ConflictingRelationships) Kind() Kind { return KindConflictingRelationships }

func (f *ConflictingRelationships) Summary() string {
	return fmt.Sprintf("Conflicting relationships between %s and %s", f.Endpoints[0], f.Endpoints[1])
}

func (f *ConflictingRelationships) Evidence() []string {
	out := make([]string, 0, len(f.Relationships))
	for _, r := range f.Relationships {
		out = append(out, fmt.Sprintf("%s in %s", r.Label, filepath.Base(r.File)))
	}
	return out
}

func (f *ConflictingRelationships) Resolution() string {
	return fmt.Sprintf("Resolve conflicting relationships; %s and %s are typically incompatible", f.Labels[0], f.Labels[1])
}

// UnresolvedEndpoint: a relationship names an endpoint that no file declares.
type UnresolvedEndpoint struct {
	Role         string          `json:"role" yaml:"role"`
	EndpointType string          `json:"endpointType" yaml:"endpointType"`
	EndpointName string          `json:"endpointName" yaml:"endpointName"`
	Relationship RelationshipRef `json:"relationship" yaml:"relationship"`
}

func (f *UnresolvedEndpoint) Kind() Kind { return KindUnresolvedEndpoint }

func (f *UnresolvedEndpoint) Summary() string {
	return fmt.Sprintf("%s %s '%s' of %s is not declared by any file",
		strings.ToUpper(f.Role[:1])+f.Role[1:], f.EndpointType, f.EndpointName, f.Relationship.Label)
}

func (f *UnresolvedEndpoint) Evidence() []string {
	return []string{fmt.Sprintf("%s line %d", filepath.Base(f.Relationship.File), f.Relationship.Line)}
}

func (f *UnresolvedEndpoint) Resolution() string {
	return fmt.Sprintf("Create the %s entity '%s' or fix the MATCH pattern", f.EndpointType, f.EndpointName)
}
