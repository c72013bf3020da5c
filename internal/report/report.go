// Package report renders validation and conflict results for the command
// line tools and the HTTP API.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"kgcheck/internal/conflict"
	"kgcheck/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a -format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Mode selects the text layout of a validation report.
type Mode string

const (
	// ModeSingle reports one file with PASSED/FAILED and its warnings.
	ModeSingle Mode = "single"
	// ModeBatch lists a VALID/INVALID line per file.
	ModeBatch Mode = "batch"
	// ModeSummary lists each file and ends with a summary count.
	ModeSummary Mode = "summary"
)

// ValidationReport collects the per-file results of one run.
type ValidationReport struct {
	RunID       string                   `json:"runId" yaml:"runId"`
	GeneratedAt time.Time                `json:"generatedAt" yaml:"generatedAt"`
	Mode        Mode                     `json:"mode" yaml:"mode"`
	EntityType  string                   `json:"entityType,omitempty" yaml:"entityType,omitempty"`
	Valid       int                      `json:"valid" yaml:"valid"`
	Invalid     int                      `json:"invalid" yaml:"invalid"`
	Results     []model.ValidationResult `json:"results" yaml:"results"`
}

// NewValidationReport tallies results under a fresh run id.
func NewValidationReport(mode Mode, results []model.ValidationResult) *ValidationReport {
	r := &ValidationReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		Results:     results,
	}
	if r.Results == nil {
		r.Results = []model.ValidationResult{}
	}
	for _, res := range results {
		if res.Valid {
			r.Valid++
		} else {
			r.Invalid++
		}
	}
	return r
}

// AllValid reports whether no file failed.
func (r *ValidationReport) AllValid() bool { return r.Invalid == 0 }

// ExitCode is 0 when every file is valid and 1 otherwise.
func (r *ValidationReport) ExitCode() int {
	if r.AllValid() {
		return 0
	}
	return 1
}

// FindingView is the serialisable form of a conflict finding.
type FindingView struct {
	Type       conflict.Kind    `json:"type" yaml:"type"`
	Summary    string           `json:"summary" yaml:"summary"`
	Evidence   []string         `json:"evidence" yaml:"evidence"`
	Resolution string           `json:"resolution" yaml:"resolution"`
	Detail     conflict.Finding `json:"detail" yaml:"detail"`
}

// ConflictReport collects the findings of one detection run.
type ConflictReport struct {
	RunID       string        `json:"runId" yaml:"runId"`
	GeneratedAt time.Time     `json:"generatedAt" yaml:"generatedAt"`
	SymbolsOnly bool          `json:"symbolsOnly" yaml:"symbolsOnly"`
	Files       int           `json:"files" yaml:"files"`
	Symbols     int           `json:"symbols" yaml:"symbols"`
	Findings    []FindingView `json:"findings" yaml:"findings"`
}

// NewConflictReport wraps findings with the corpus counts they came from.
func NewConflictReport(c *model.Corpus, findings []conflict.Finding, symbolsOnly bool) *ConflictReport {
	r := &ConflictReport{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		SymbolsOnly: symbolsOnly,
		Files:       len(c.Files()),
		Symbols:     len(c.Symbols()),
		Findings:    make([]FindingView, 0, len(findings)),
	}
	for _, f := range findings {
		r.Findings = append(r.Findings, FindingView{
			Type:       f.Kind(),
			Summary:    f.Summary(),
			Evidence:   f.Evidence(),
			Resolution: f.Resolution(),
			Detail:     f,
		})
	}
	return r
}

// ExitCode is always 0: findings are advisory.
func (r *ConflictReport) ExitCode() int { return 0 }

// byKind groups findings by kind, keeping first-appearance order.
func (r *ConflictReport) byKind() ([]conflict.Kind, map[conflict.Kind][]FindingView) {
	var order []conflict.Kind
	groups := make(map[conflict.Kind][]FindingView)
	for _, f := range r.Findings {
		if _, ok := groups[f.Type]; !ok {
			order = append(order, f.Type)
		}
		groups[f.Type] = append(groups[f.Type], f)
	}
	return order, groups
}
