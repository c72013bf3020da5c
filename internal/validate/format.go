package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kgcheck/internal/cypher"
	"kgcheck/internal/model"
)

var (
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
	doiPattern     = regexp.MustCompile(`^10\.\d{4,9}/[-._;()/:A-Za-z0-9]+$`)
	urlPattern     = regexp.MustCompile(`^https?://\S+$`)
	pascalPattern  = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	paperIDPattern = regexp.MustCompile(`^[A-Z][a-z]+\d{4}[a-z]?$`)
)

// pascalCaseTypes must have PascalCase names.
var pascalCaseTypes = map[string]bool{
	"MathematicalConcept": true,
	"NumericalMethod":     true,
	"Algorithm":           true,
}

var dimensionalities = map[string]bool{
	"Scalar": true,
	"Vector": true,
	"Matrix": true,
	"Tensor": true,
}

// formatErrors checks the value shape of well-known property names.
func formatErrors(entityType string, props *cypher.PropertyMap) []string {
	var errs []string
	for _, key := range props.Keys() {
		value, _ := props.Get(key)
		text := value.AsString()
		switch key {
		case "year":
			if !yearPattern.MatchString(text) {
				errs = append(errs, fmt.Sprintf("Year should be a 4-digit number: %s", value.Literal()))
			}
		case "doi":
			if text != "" && !doiPattern.MatchString(text) {
				errs = append(errs, fmt.Sprintf("DOI format is incorrect: %s", value.Literal()))
			}
		case "url":
			if text != "" && !urlPattern.MatchString(text) {
				errs = append(errs, fmt.Sprintf("URL format is incorrect: %s", value.Literal()))
			}
		case "latex":
			// A backslash anywhere but the front usually means a displaced escape.
			if entityType == model.SymbolType && strings.Contains(text, `\`) && !strings.HasPrefix(text, `\`) {
				errs = append(errs, fmt.Sprintf("LaTeX may be malformed: %s", value.Literal()))
			}
		}
	}
	return errs
}

// namingErrors applies the per-type naming conventions. Symbol names are exempt.
func namingErrors(entityType string, props *cypher.PropertyMap) []string {
	switch {
	case pascalCaseTypes[entityType]:
		name, ok := props.Get("name")
		if !ok || name.IsEmpty() || pascalPattern.MatchString(name.AsString()) {
			return nil
		}
		msg := fmt.Sprintf("%s name should be in PascalCase: %s", entityType, name.Literal())
		if hint := PascalCase(name.AsString()); hint != "" && hint != name.AsString() {
			msg += fmt.Sprintf(" (suggested: %s)", hint)
		}
		return []string{msg}
	case entityType == "Paper":
		id, ok := props.Get("id")
		if !ok || id.IsEmpty() || paperIDPattern.MatchString(id.AsString()) {
			return nil
		}
		return []string{fmt.Sprintf("Paper ID should follow format 'Author1234': %s", id.Literal())}
	}
	return nil
}

// symbolErrors checks the conventional Symbol properties.
func symbolErrors(props *cypher.PropertyMap) []string {
	var errs []string
	if props.Has("latex") && !props.Has("name") {
		errs = append(errs, "Symbol has LaTeX representation but no name property")
	}
	if props.Has("name") && !props.Has("context") {
		errs = append(errs, "Symbol has name but no context property")
	}
	if dim, ok := props.Get("dimensionality"); ok && !dimensionalities[dim.AsString()] {
		errs = append(errs, fmt.Sprintf("Invalid dimensionality: %s", dim.Literal()))
	}
	return errs
}

// PascalCase turns a free-form name into a PascalCase identifier:
// "gradient descent" and "gradient_descent" both become "GradientDescent".
// Inner capitals are kept, so "LU decomposition" becomes "LUDecomposition".
func PascalCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	out := b.String()
	if out != "" && !unicode.IsLetter([]rune(out)[0]) {
		return ""
	}
	return out
}
