package model

import (
	"kgcheck/internal/cypher"
)

// SymbolType is the entity type of mathematical notation records.
const SymbolType = "Symbol"

// ConflictsWith is the relationship label that documents a symbol conflict.
const ConflictsWith = "CONFLICTS_WITH"

// EntityRecord is one declared node.
type EntityRecord struct {
	Type       string
	Name       string
	File       string
	Line       int
	Properties *cypher.PropertyMap
	// DocumentedConflict is derived for symbols: some CONFLICTS_WITH
	// relationship in the corpus names this symbol as an endpoint.
	DocumentedConflict bool
}

// IsSymbol reports whether the record is a Symbol.
func (e *EntityRecord) IsSymbol() bool { return e.Type == SymbolType }

// Context returns the symbol context property.
func (e *EntityRecord) Context() string { return e.Properties.String("context") }

// Latex returns the symbol rendering.
func (e *EntityRecord) Latex() string { return e.Properties.String("latex") }

// Meaning returns the symbol meaning.
func (e *EntityRecord) Meaning() string { return e.Properties.String("meaning") }

// RelationshipRecord is one declared relationship with resolved endpoints.
type RelationshipRecord struct {
	SourceType string
	SourceName string
	// SourceContext and TargetContext carry the endpoints' context property
	// when the MATCH pattern specified one.
	SourceContext string
	TargetType    string
	TargetName    string
	TargetContext string
	Label         string
	Properties    *cypher.PropertyMap
	File          string
	Line          int
}

// ValidationResult is the verdict for one file.
type ValidationResult struct {
	File     string   `json:"file" yaml:"file"`
	Valid    bool     `json:"valid" yaml:"valid"`
	Template bool     `json:"template,omitempty" yaml:"template,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewValidationResult builds a result whose verdict follows its errors.
func NewValidationResult(file string, errs, warnings []string) ValidationResult {
	return ValidationResult{
		File:     file,
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// TemplateResult is the verdict for a file skipped as a template.
func TemplateResult(file string) ValidationResult {
	return ValidationResult{
		File:     file,
		Valid:    true,
		Template: true,
		Warnings: []string{"This file is a template"},
	}
}

// SourceFile is the extraction result of one corpus file, the unit the
// builder folds into a Corpus.
type SourceFile struct {
	Path     string
	Template bool

	// Placeholders lists the template markers of a template file.
	Placeholders []string

	// ReadErr is set when the file could not be read; Parsed is nil then.
	ReadErr error
	Parsed  *cypher.File
}
