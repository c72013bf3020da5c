package validate

import (
	"fmt"

	"go.uber.org/zap"

	"kgcheck/internal/cypher"
	"kgcheck/internal/model"
)

// StandardRelationships is the curated label vocabulary. Anything else is
// flagged by the consistency checks even when the schema allows it.
var StandardRelationships = []string{
	"BASED_ON", "IMPLEMENTS", "APPLIES_TO", "IMPROVES_UPON",
	"DEPENDS_ON", "INTEGRATES_WITH", "APPEARS_IN", "REPRESENTS",
	"HAS_INTERPRETATION_IN", "CONFLICTS_WITH", "SYNONYM_OF",
	"DERIVED_FROM", "USED_IN_EQUATION", "SPECIALIZES", "RELATES_TO",
	"INTRODUCES", "CITES", "DEVELOPS", "PRESENTS", "SUBDOMAIN_OF",
	"USES_SYMBOL", "EXTENDS",
}

var standardRelationships = func() map[string]bool {
	m := make(map[string]bool, len(StandardRelationships))
	for _, l := range StandardRelationships {
		m[l] = true
	}
	return m
}()

// Consistency checks the entities of one type in a file: property contract,
// formats and naming, plus the binding and vocabulary of every relationship
// statement in the file.
func (v *Validator) Consistency(sf model.SourceFile, entityType string) model.ValidationResult {
	if sf.ReadErr != nil {
		return model.NewValidationResult(sf.Path, []string{fmt.Sprintf("Error reading file: %v", sf.ReadErr)}, nil)
	}
	if sf.Template || sf.Parsed == nil {
		return model.TemplateResult(sf.Path)
	}

	entities := sf.Parsed.EntitiesOfType(entityType)
	if len(entities) == 0 {
		return model.NewValidationResult(sf.Path, []string{fmt.Sprintf("No %s entity found in file", entityType)}, nil)
	}

	var errs []string
	for _, e := range entities {
		errs = append(errs, v.EntityProperties(e)...)
	}
	errs = append(errs, relationshipConsistency(sf.Parsed)...)

	result := model.NewValidationResult(sf.Path, errs, unrecognizedWarnings(sf.Parsed))
	v.logger.Debug("Entity consistency checked",
		zap.String("file", sf.Path),
		zap.String("type", entityType),
		zap.Int("entities", len(entities)),
		zap.Bool("valid", result.Valid),
	)
	return result
}

func relationshipConsistency(f *cypher.File) []string {
	var errs []string
	for _, r := range f.Relationships {
		if r.Source == nil {
			errs = append(errs, fmt.Sprintf("Source variable mismatch: %s is not bound by a preceding MATCH or CREATE", displayVar(r.SourceVar)))
		}
		if r.Target == nil {
			errs = append(errs, fmt.Sprintf("Target variable mismatch: %s is not bound by a preceding MATCH or CREATE", displayVar(r.TargetVar)))
		}
		if !standardRelationships[r.Label] {
			errs = append(errs, fmt.Sprintf("Non-standard relationship type: %s", r.Label))
		}
	}
	return errs
}

func displayVar(name string) string {
	if name == "" {
		return "(anonymous)"
	}
	return name
}
