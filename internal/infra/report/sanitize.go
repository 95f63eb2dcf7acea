package report

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var markdownSymbols = strings.NewReplacer("#", "", "*", "")

// typographic covers what models emit most often outside Latin-1.
var typographic = map[rune]string{
	'‘': "'", '’': "'", '‚': "'", '′': "'",
	'“': `"`, '”': `"`, '„': `"`, '″': `"`,
	'–': "-", '—': "-", '―': "-", '−': "-", '‐': "-", '‑': "-",
	'•': "-", '●': "-", '▪': "-", '‣': "-",
	'…': "...",
	'→': "->", '←': "<-", '↑': "^", '↓': "v",
	'≤': "<=", '≥': ">=", '≈': "~", '≠': "!=",
	'\u2009': " ", '\u202f': " ", '\u200b': "",
	'™': "(TM)", '‰': "o/oo",
}

// Sanitize drops markdown emphasis and heading markers and returns text the
// core PDF fonts can draw.
func Sanitize(text string) string {
	return ToLatin1(markdownSymbols.Replace(text))
}

// ToLatin1 returns s re-encoded as ISO-8859-1 bytes (held in a Go string).
// Runes without a Latin-1 form are decomposed, then looked up in a small
// typographic table, and finally replaced by '?'.
func ToLatin1(s string) string {
	enc := charmap.ISO8859_1
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := latin1(enc, r); ok {
			b.WriteByte(c)
			continue
		}
		if folded, ok := fold(enc, r); ok {
			b.WriteString(folded)
			continue
		}
		if rep, ok := typographic[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}

func latin1(enc *charmap.Charmap, r rune) (byte, bool) {
	// C1 controls are valid Latin-1 but draw as cp1252 glyphs in core fonts.
	if r >= 0x80 && r <= 0x9F {
		return 0, false
	}
	if r == '\t' || r == '\n' || r == '\r' {
		return byte(r), true
	}
	if unicode.IsControl(r) {
		return 0, false
	}
	return enc.EncodeRune(r)
}

// fold strips combining marks from the NFKD form, e.g. 'ő' -> 'o'.
func fold(enc *charmap.Charmap, r rune) (string, bool) {
	decomposed := norm.NFKD.String(string(r))
	var b strings.Builder
	for _, d := range decomposed {
		if unicode.Is(unicode.Mn, d) {
			continue
		}
		c, ok := latin1(enc, d)
		if !ok {
			return "", false
		}
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}
