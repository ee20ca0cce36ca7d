package processor

import (
	"regexp"
	"strings"
)

var (
	glyphReplacer = strings.NewReplacer(
		"■", "",
		"▪", "",
		"●", "",
		"\uFFFD", "",
		"•", "-",
		"–", "-",
		"—", "-",
	)
	inlineMath = regexp.MustCompile(`\$[^$]*\$`)
)

// Clean normalizes extracted page text: stray glyphs removed, bullets and
// dashes mapped to '-', inline $...$ math dropped and whitespace collapsed.
// Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	text = glyphReplacer.Replace(text)
	text = normalizeWhitespace(text)
	text = inlineMath.ReplaceAllString(text, "")
	return normalizeWhitespace(text)
}

// normalizeWhitespace collapses every run of unicode whitespace to a single space and trims
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
