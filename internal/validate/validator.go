// Package validate runs the per-file checks: schema syntax (known entity and
// relationship types, endpoint compatibility), property contracts and
// formats, and the entity-consistency rules.
package validate

import (
	"fmt"

	"go.uber.org/zap"

	"kgcheck/internal/cypher"
	"kgcheck/internal/model"
	"kgcheck/internal/schema"
	"kgcheck/pkg/logger"
)

// Validator checks files against one schema. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	schema *schema.Schema
	logger *zap.Logger
}

// New creates a validator bound to a loaded schema.
func New(s *schema.Schema) *Validator {
	return &Validator{
		schema: s,
		logger: logger.Get(),
	}
}

// Syntax checks that every label and relationship type exists in the schema
// and that resolved endpoints have allowed types.
func (v *Validator) Syntax(f *cypher.File) []string {
	var errs []string

	for _, e := range f.Entities {
		for _, label := range e.Node.Labels {
			if _, ok := v.schema.Entity(label); !ok {
				errs = append(errs, fmt.Sprintf("Invalid entity type: %s", label))
			}
		}
	}
	for _, m := range f.Matches {
		for _, label := range m.Labels {
			if _, ok := v.schema.Entity(label); !ok {
				errs = append(errs, fmt.Sprintf("Invalid entity type in MATCH: %s", label))
			}
		}
	}

	for _, r := range f.Relationships {
		rt, ok := v.schema.Relationship(r.Label)
		if !ok {
			errs = append(errs, fmt.Sprintf("Invalid relationship type: %s", r.Label))
			continue
		}
		if src := r.Source.Label(); src != "" && !rt.AllowsSource(src) {
			errs = append(errs, fmt.Sprintf("Invalid source type %s for relationship %s", src, r.Label))
		}
		if dst := r.Target.Label(); dst != "" && !rt.AllowsTarget(dst) {
			errs = append(errs, fmt.Sprintf("Invalid target type %s for relationship %s", dst, r.Label))
		}
	}

	return errs
}

// Properties checks every entity and relationship statement's properties.
func (v *Validator) Properties(f *cypher.File) []string {
	var errs []string
	for _, e := range f.Entities {
		errs = append(errs, v.EntityProperties(e)...)
	}
	for _, r := range f.Relationships {
		errs = append(errs, v.relationshipProperties(r)...)
	}
	return errs
}

// EntityProperties checks one entity statement: the schema contract of its
// type, value formats, naming conventions and, for symbols, the symbol rules.
func (v *Validator) EntityProperties(e *cypher.EntityStatement) []string {
	var errs []string
	entityType := e.Type()
	props := e.Properties()

	if t, ok := v.schema.Entity(entityType); ok {
		for _, req := range t.Required {
			if _, present := props.Get(req); !present {
				errs = append(errs, fmt.Sprintf("Missing required property '%s' for %s", req, entityType))
			}
		}
		for _, key := range props.Keys() {
			if !t.Allows(key) {
				errs = append(errs, fmt.Sprintf("Unknown property '%s' for %s", key, entityType))
			}
		}
	}

	errs = append(errs, formatErrors(entityType, props)...)
	errs = append(errs, namingErrors(entityType, props)...)
	if entityType == model.SymbolType {
		errs = append(errs, symbolErrors(props)...)
	}
	return errs
}

func (v *Validator) relationshipProperties(r *cypher.RelationshipStatement) []string {
	rt, ok := v.schema.Relationship(r.Label)
	if !ok {
		return nil
	}
	var errs []string
	for _, key := range r.Properties.Keys() {
		if !rt.AllowsProperty(key) {
			errs = append(errs, fmt.Sprintf("Unknown property '%s' for relationship %s", key, r.Label))
		}
	}
	return errs
}

// Validate runs the syntax and property checks over one source file and
// returns its verdict. Unreadable files yield a single error; templates are
// valid with a warning; skipped statements become warnings.
func (v *Validator) Validate(sf model.SourceFile) model.ValidationResult {
	if sf.ReadErr != nil {
		return model.NewValidationResult(sf.Path, []string{fmt.Sprintf("Error reading file: %v", sf.ReadErr)}, nil)
	}
	if sf.Template || sf.Parsed == nil {
		v.logger.Debug("Skipping template file", zap.String("file", sf.Path))
		return model.TemplateResult(sf.Path)
	}

	errs := v.Syntax(sf.Parsed)
	errs = append(errs, v.Properties(sf.Parsed)...)
	result := model.NewValidationResult(sf.Path, errs, unrecognizedWarnings(sf.Parsed))

	v.logger.Debug("File validated",
		zap.String("file", sf.Path),
		zap.Bool("valid", result.Valid),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

func unrecognizedWarnings(f *cypher.File) []string {
	var warnings []string
	for _, u := range f.Unrecognized {
		kw := u.Keyword
		if kw == "" {
			kw = "input"
		}
		warnings = append(warnings, fmt.Sprintf("line %d: skipped %s: %s", u.Line, kw, u.Reason))
	}
	return warnings
}
