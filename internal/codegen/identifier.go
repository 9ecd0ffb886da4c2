package codegen

import (
	"strings"
	"unicode"
)

// ExportIdentifier derives a camelCase JS identifier from a human-readable
// fixture name: "Login as Admin" -> "loginAsAdmin". Callers are responsible
// for uniqueness within the project.
func ExportIdentifier(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return "fixture"
	}

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}

	ident := b.String()
	if unicode.IsDigit(rune(ident[0])) {
		ident = "_" + ident
	}
	return ident
}

func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}
