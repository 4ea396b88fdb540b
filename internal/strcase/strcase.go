// Package strcase splits identifiers into words and recombines them.
package strcase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	classOther = iota
	classLower
	classUpper
	classDigit
)

func classOf(r rune) int {
	switch {
	case unicode.IsLower(r):
		return classLower
	case unicode.IsUpper(r):
		return classUpper
	case unicode.IsDigit(r):
		return classDigit
	default:
		return classOther
	}
}

// Split an identifier into words.
//
// Runs of the same character class form a word, and an upper case letter followed by lower case letters
// starts a new word, so "UpperCamelAPI" becomes ["Upper", "Camel", "API"]. Separators are kept as words.
func Split(s string) []string {
	if !utf8.ValidString(s) {
		return []string{s}
	}
	var runs [][]rune
	last := -1
	for _, r := range s {
		class := classOf(r)
		if class == last {
			runs[len(runs)-1] = append(runs[len(runs)-1], r)
		} else {
			runs = append(runs, []rune{r})
		}
		last = class
	}
	// Move the last upper case letter of a run onto a following lower case run: "APIClient" -> "API", "Client".
	for i := 0; i < len(runs)-1; i++ {
		if unicode.IsUpper(runs[i][0]) && unicode.IsLower(runs[i+1][0]) {
			runs[i+1] = append([]rune{runs[i][len(runs[i])-1]}, runs[i+1]...)
			runs[i] = runs[i][:len(runs[i])-1]
		}
	}
	out := make([]string, 0, len(runs))
	for _, run := range runs {
		if len(run) > 0 {
			out = append(out, string(run))
		}
	}
	return out
}

// LowerCamel converts an identifier to lowerCamelCase, dropping separators.
//
// eg. "FileConfig" -> "fileConfig", "HTTPServer" -> "httpServer", "db_pool" -> "dbPool".
func LowerCamel(s string) string {
	w := &strings.Builder{}
	first := true
	for _, word := range Split(s) {
		r, size := utf8.DecodeRuneInString(word)
		if classOf(r) == classOther {
			continue
		}
		if first {
			w.WriteString(strings.ToLower(word))
			first = false
			continue
		}
		w.WriteRune(unicode.ToUpper(r))
		w.WriteString(strings.ToLower(word[size:]))
	}
	return w.String()
}
