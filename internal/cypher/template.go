package cypher

import (
	"regexp"
	"sort"
)

// placeholderPattern matches template markers such as [ENTITY_NAME],
// [SYMBOL_NAME], [ENTITY_TYPE] and [PLACEHOLDER] anywhere in the text.
var placeholderPattern = regexp.MustCompile(`\[(?:[A-Z]+_)*(?:NAME|TYPE|PLACEHOLDER)\]`)

// Any bracketed upper-snake token also marks a template when it stands where
// a label, a relationship type or a property key is expected.
var (
	labelSlotPattern = regexp.MustCompile(`[(\[]\s*(?:[A-Za-z_]\w*)?(?:\s*:\s*[A-Za-z_]\w*)*\s*:\s*(\[[A-Z][A-Z0-9_]*\])`)
	keySlotPattern   = regexp.MustCompile(`[{,]\s*(\[[A-Z][A-Z0-9_]*\])\s*:`)
)

// IsTemplate reports whether src still contains template placeholders.
// Template files are excluded from every check.
func IsTemplate(src string) bool {
	return placeholderPattern.MatchString(src) ||
		labelSlotPattern.MatchString(src) ||
		keySlotPattern.MatchString(src)
}

// Placeholders returns the distinct placeholder markers found in src, in
// order of first appearance.
func Placeholders(src string) []string {
	type hit struct {
		pos  int
		text string
	}
	var hits []hit
	for _, m := range placeholderPattern.FindAllStringIndex(src, -1) {
		hits = append(hits, hit{m[0], src[m[0]:m[1]]})
	}
	for _, re := range []*regexp.Regexp{labelSlotPattern, keySlotPattern} {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			hits = append(hits, hit{m[2], src[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if !seen[h.text] {
			seen[h.text] = true
			out = append(out, h.text)
		}
	}
	return out
}
