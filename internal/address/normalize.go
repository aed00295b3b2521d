// Package address turns raw address fields into comparable canonical strings.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// degree is kept through transliteration so the "n°" abbreviation can match.
const degree = '°'

type substitution struct {
	pattern *regexp.Regexp
	repl    string
}

// Applied in order; later rules see the output of earlier ones.
var abbreviations = []substitution{
	{regexp.MustCompile(`\brua\b|\br\.`), "r"},
	{regexp.MustCompile(`\bavenida\b|\bav\.`), "av"},
	{regexp.MustCompile(`\bnumero\b|\bn°|\bn\.`), "n"},
	{regexp.MustCompile(`\bapartamento\b|\bapto\b|\bap\.`), "ap"},
	{regexp.MustCompile(`\blote\b`), "lt"},
	{regexp.MustCompile(`\bquadra\b`), "qd"},
	{regexp.MustCompile(`\bbloco\b`), "bl"},
	{regexp.MustCompile(`\bcasa\b`), "cs"},
	{regexp.MustCompile(`\bsao\b`), "s"},
}

var punctuation = regexp.MustCompile(`[^\w\s]`)

// Normalize canonicalizes a single address field value. The result contains
// only lower-case ASCII letters, digits, underscores and single spaces.
// Normalize never fails; empty input yields the empty string.
func Normalize(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	s := strings.ToLower(value)
	s = strings.ToLower(transliterate(s))
	s = abbreviate(s)
	s = punctuation.ReplaceAllLiteralString(s, "")
	// Stripping punctuation can join letters into a new abbreviable word
	// ("r-ua"), so the table runs once more on the cleaned text.
	s = abbreviate(s)
	return strings.Join(strings.Fields(s), " ")
}

func abbreviate(s string) string {
	for _, sub := range abbreviations {
		s = sub.pattern.ReplaceAllLiteralString(s, sub.repl)
	}
	return s
}

func foldMarks() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			switch {
			case r == 'º':
				return degree
			case unicode.IsSpace(r):
				return ' '
			}
			return r
		}),
		norm.NFC,
	)
}

// transliterate strips diacritics and maps any remaining non-ASCII rune to
// its closest ASCII spelling.
func transliterate(s string) string {
	folded, _, err := transform.String(foldMarks(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r <= unicode.MaxASCII || r == degree {
			b.WriteRune(r)
			continue
		}
		b.WriteString(unidecode.Unidecode(string(r)))
	}
	return b.String()
}
