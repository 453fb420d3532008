package text

import (
	"unicode"
)

// Direction is the dominant writing direction of a run of text. Pages
// store right-to-left scripts in visual order, so the assembler needs
// the direction of each baseline to recover reading order.
type Direction int

const (
	// LTR covers Latin, Cyrillic, Greek, CJK and most other scripts.
	LTR Direction = iota
	// RTL covers Arabic, Hebrew and the other right-to-left scripts.
	RTL
	// Neutral covers digits, punctuation, whitespace and symbols.
	Neutral
)

// String returns "LTR", "RTL" or "Neutral".
func (d Direction) String() string {
	switch d {
	case LTR:
		return "LTR"
	case RTL:
		return "RTL"
	case Neutral:
		return "Neutral"
	}
	return "Unknown"
}

// rtlScripts are the scripts written right to left. The script tables
// cover the presentation-form blocks too, so shaped Arabic matches.
var rtlScripts = []*unicode.RangeTable{
	unicode.Arabic,
	unicode.Hebrew,
	unicode.Syriac,
	unicode.Thaana,
	unicode.Nko,
}

// CharDirection returns the inherent direction of a single rune. Digits,
// punctuation, whitespace and symbols are Neutral regardless of script;
// characters from right-to-left scripts are RTL; everything else,
// including CJK, is LTR.
func CharDirection(r rune) Direction {
	if unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
		return Neutral
	}
	if unicode.In(r, rtlScripts...) {
		return RTL
	}
	return LTR
}

// DetectDirection returns the dominant direction of text by counting
// strong directional characters. Ties go to LTR; text with no strong
// characters at all is Neutral.
func DetectDirection(text string) Direction {
	ltr, rtl := 0, 0
	for _, r := range text {
		switch CharDirection(r) {
		case LTR:
			ltr++
		case RTL:
			rtl++
		}
	}
	if ltr == 0 && rtl == 0 {
		return Neutral
	}
	if rtl > ltr {
		return RTL
	}
	return LTR
}
