// Package placeholders computes what an element displays for a given data row.
// It holds no state: values come from a Source, the data binding store in practice.
package placeholders

import (
	"regexp"

	"github.com/zeptools/certmerge/elements"
)

// Source resolves a field for a row. It must return the `{field}` marker instead of failing.
type Source interface {
	ReplacementValueAt(field string, row int) string
}

// token = one or more characters other than `}` between braces
var tokenPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Display returns the string element e shows for row. Image and shape elements show no text.
func Display(e elements.Element, row int, src Source) string {
	switch v := e.(type) {
	case *elements.Placeholder:
		return src.ReplacementValueAt(v.Field, row)
	case *elements.Text:
		if !v.HasPlaceholder {
			return v.Text
		}
		return Substitute(v.Text, row, src)
	case *elements.Image, *elements.Shape:
		return ""
	}
	return ""
}

// Substitute replaces every `{token}` in text with its value for row, left to right.
// Substituted values are not scanned again.
func Substitute(text string, row int, src Source) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(match string) string {
		return src.ReplacementValueAt(match[1:len(match)-1], row)
	})
}

// Fields lists the tokens of text in order of appearance, duplicates included.
func Fields(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// TemplateFields lists every field a scene binds, once each, in paint order:
// placeholder fields plus tokens of placeholder-enabled text.
func TemplateFields(list elements.List) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	for _, e := range elements.Sorted(list) {
		switch v := e.(type) {
		case *elements.Placeholder:
			add(v.Field)
		case *elements.Text:
			if v.HasPlaceholder {
				for _, f := range Fields(v.Text) {
					add(f)
				}
			}
		}
	}
	return out
}
