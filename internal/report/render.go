package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kgcheck/internal/model"
)

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q has no structured encoding", format)
}

// WriteValidation renders a validation report.
func WriteValidation(w io.Writer, r *ValidationReport, format Format) error {
	if format != FormatText {
		return Encode(w, format, r)
	}

	if r.Mode == ModeSingle && len(r.Results) == 1 {
		writeSingle(w, r.Results[0])
		return nil
	}

	for _, res := range r.Results {
		name := filepath.Base(res.File)
		if res.Valid {
			fmt.Fprintf(w, "✅ %s: VALID\n", name)
			continue
		}
		fmt.Fprintf(w, "❌ %s: INVALID\n", name)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}

	if r.Mode == ModeSummary {
		fmt.Fprintf(w, "\nValidation Summary: %d valid, %d invalid out of %d files\n", r.Valid, r.Invalid, len(r.Results))
	}
	return nil
}

func writeSingle(w io.Writer, res model.ValidationResult) {
	if !res.Valid {
		fmt.Fprintln(w, "❌ VALIDATION FAILED:")
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		return
	}
	fmt.Fprintln(w, "✅ VALIDATION PASSED")
	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "⚠️ WARNINGS:")
		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}

// WriteConflicts renders a conflict report grouped by finding kind.
func WriteConflicts(w io.Writer, r *ConflictReport, format Format) error {
	if format != FormatText {
		return Encode(w, format, r)
	}

	if len(r.Findings) == 0 {
		fmt.Fprintln(w, "No conflicts detected")
		return nil
	}

	fmt.Fprintf(w, "\nDetected %d potential conflicts:\n", len(r.Findings))
	order, groups := r.byKind()
	for _, kind := range order {
		fmt.Fprintf(w, "\n== %s (%d) ==\n", kind, len(groups[kind]))
		for _, f := range groups[kind] {
			fmt.Fprintf(w, "  %s\n", f.Summary)
			for _, e := range f.Evidence {
				fmt.Fprintf(w, "    - %s\n", e)
			}
			fmt.Fprintf(w, "    Resolution: %s\n", f.Resolution)
		}
	}
	return nil
}
