package conflict

import (
	"sort"

	"kgcheck/internal/model"
)

// Rule is one corpus-wide check. Check must be a pure function of the
// corpus.
type Rule struct {
	Name  string
	Check func(c *model.Corpus) []Finding
}

// ExclusivePairs lists relationship labels that should not both join the
// same endpoints.
var ExclusivePairs = [][2]string{
	{"IMPLEMENTS", "BASED_ON"},
	{"CONFLICTS_WITH", "SYNONYM_OF"},
}

// SymbolRules are the checks run in symbols-only mode.
func SymbolRules() []Rule {
	return []Rule{
		{Name: string(KindUndocumentedSymbolConflict), Check: undocumentedSymbolConflicts},
		{Name: string(KindInconsistentMeaning), Check: inconsistentMeanings},
		{Name: string(KindInconsistentNaming), Check: inconsistentNaming},
	}
}

// DefaultRules is the full registry: the symbol rules followed by the
// entity and relationship rules.
func DefaultRules() []Rule {
	return append(SymbolRules(),
		Rule{Name: string(KindDuplicateName), Check: duplicateNames},
		Rule{Name: string(KindConflictingRelationships), Check: conflictingRelationships},
		Rule{Name: string(KindUnresolvedEndpoint), Check: unresolvedEndpoints},
	)
}

// duplicateNames groups non-symbol entities by (type, name). Symbols are
// expected to repeat across contexts and have their own rules.
func duplicateNames(c *model.Corpus) []Finding {
	var out []Finding
	for _, entityType := range c.Types() {
		if entityType == model.SymbolType {
			continue
		}
		records := c.EntitiesOfType(entityType)
		if len(records) <= 1 {
			continue
		}
		var names []string
		seen := make(map[string]bool)
		for _, r := range records {
			if r.Name != "" && !seen[r.Name] {
				seen[r.Name] = true
				names = append(names, r.Name)
			}
		}
		sort.Strings(names)

		for _, name := range names {
			dups := c.Lookup(entityType, name)
			if len(dups) <= 1 {
				continue
			}
			files := make([]string, 0, len(dups))
			for _, d := range dups {
				files = append(files, d.File)
			}
			sort.Strings(files)
			out = append(out, &DuplicateName{
				EntityType: entityType,
				Name:       name,
				Count:      len(dups),
				Files:      files,
			})
		}
	}
	return out
}

func undocumentedSymbolConflicts(c *model.Corpus) []Finding {
	var out []Finding
	for _, name := range c.SymbolNames() {
		group := c.SymbolsNamed(name)
		if len(group) <= 1 {
			continue
		}
		contexts := distinct(group, (*model.EntityRecord).Context)
		if len(contexts) <= 1 {
			continue
		}
		documented := false
		for _, s := range group {
			if s.DocumentedConflict {
				documented = true
				break
			}
		}
		if documented {
			continue
		}
		out = append(out, &UndocumentedSymbolConflict{
			Name:     name,
			Contexts: contexts,
			Symbols:  symbolRefs(group),
		})
	}
	return out
}

func inconsistentMeanings(c *model.Corpus) []Finding {
	var out []Finding
	for _, name := range c.SymbolNames() {
		byContext := make(map[string][]*model.EntityRecord)
		for _, s := range c.SymbolsNamed(name) {
			if ctx := s.Context(); ctx != "" {
				byContext[ctx] = append(byContext[ctx], s)
			}
		}
		contexts := make([]string, 0, len(byContext))
		for ctx := range byContext {
			contexts = append(contexts, ctx)
		}
		sort.Strings(contexts)

		for _, ctx := range contexts {
			group := byContext[ctx]
			if len(group) <= 1 {
				continue
			}
			meanings := distinct(group, (*model.EntityRecord).Meaning)
			if len(meanings) <= 1 {
				continue
			}
			out = append(out, &InconsistentMeaning{
				Name:     name,
				Context:  ctx,
				Meanings: meanings,
				Symbols:  symbolRefs(group),
			})
		}
	}
	return out
}

func inconsistentNaming(c *model.Corpus) []Finding {
	var out []Finding
	for _, latex := range c.Latexes() {
		group := c.SymbolsWithLatex(latex)
		if len(group) <= 1 {
			continue
		}
		names := distinct(group, func(e *model.EntityRecord) string { return e.Name })
		if len(names) <= 1 {
			continue
		}
		out = append(out, &InconsistentNaming{
			Latex:   latex,
			Names:   names,
			Symbols: symbolRefs(group),
		})
	}
	return out
}

func conflictingRelationships(c *model.Corpus) []Finding {
	var out []Finding
	for _, pair := range c.EndpointPairs() {
		rels := c.RelationshipsBetween(pair)
		if len(rels) <= 1 {
			continue
		}
		labels := make(map[string]bool, len(rels))
		for _, r := range rels {
			labels[r.Label] = true
		}
		for _, excl := range ExclusivePairs {
			if !labels[excl[0]] || !labels[excl[1]] {
				continue
			}
			out = append(out, &ConflictingRelationships{
				Endpoints:     [2]string{pair.A, pair.B},
				Labels:        excl,
				Relationships: relationshipRefs(rels),
			})
		}
	}
	return out
}

// unresolvedEndpoints reports relationship endpoints whose (type, name) has
// no declaration anywhere in the corpus.
func unresolvedEndpoints(c *model.Corpus) []Finding {
	var out []Finding
	for _, r := range c.Relationships() {
		ref := relationshipRef(r)
		if r.SourceName != "" && len(c.Lookup(r.SourceType, r.SourceName)) == 0 {
			out = append(out, &UnresolvedEndpoint{Role: "source", EndpointType: r.SourceType, EndpointName: r.SourceName, Relationship: ref})
		}
		if r.TargetName != "" && len(c.Lookup(r.TargetType, r.TargetName)) == 0 {
			out = append(out, &UnresolvedEndpoint{Role: "target", EndpointType: r.TargetType, EndpointName: r.TargetName, Relationship: ref})
		}
	}
	return out
}

// distinct returns the sorted distinct non-empty values of field.
func distinct(records []*model.EntityRecord, field func(*model.EntityRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func symbolRefs(records []*model.EntityRecord) []SymbolRef {
	refs := make([]SymbolRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, SymbolRef{
			Name:    r.Name,
			Context: r.Context(),
			Latex:   r.Latex(),
			Meaning: r.Meaning(),
			File:    r.File,
			Line:    r.Line,
		})
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		return refs[i].Line < refs[j].Line
	})
	return refs
}

func relationshipRef(r *model.RelationshipRecord) RelationshipRef {
	return RelationshipRef{
		Label:  r.Label,
		Source: r.SourceName,
		Target: r.TargetName,
		File:   r.File,
		Line:   r.Line,
	}
}

func relationshipRefs(records []*model.RelationshipRecord) []RelationshipRef {
	refs := make([]RelationshipRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, relationshipRef(r))
	}
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		return refs[i].Line < refs[j].Line
	})
	return refs
}
