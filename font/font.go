package font

import "strings"

// Font descriptor flag bits.
const (
	FlagFixedPitch  = 1 << 0
	FlagSerif       = 1 << 1
	FlagSymbolic    = 1 << 2
	FlagScript      = 1 << 3
	FlagNonsymbolic = 1 << 5
	FlagItalic      = 1 << 6
	FlagAllCap      = 1 << 16
	FlagSmallCap    = 1 << 17
	FlagForceBold   = 1 << 18
)

// AverageWidth is the assumed glyph width, in thousandths of an em,
// for codes no width source covers. Half an em keeps downstream
// spacing heuristics sane; zero would collapse every gap estimate.
const AverageWidth = 500.0

// monospaceWidth is the advance shared by every glyph in the Courier
// family.
const monospaceWidth = 600.0

// Font represents a font resource from a page's resource dictionary.
// It carries what text extraction needs: how to turn string bytes into
// Unicode and how wide each code is.
type Font struct {
	Name     string
	BaseFont string
	Subtype  string
	Encoding string

	// Flags holds the descriptor flag bits when a descriptor was
	// present, zero otherwise.
	Flags int

	// Widths declared by the font dictionary, keyed by character code.
	widths map[rune]float64

	// MissingWidth from the descriptor; used before the final
	// AverageWidth fallback.
	missingWidth float64

	// Encoding with /Differences applied, when the font has them.
	customEncoding Encoding

	// ToUnicode CMap for character code to Unicode mapping.
	ToUnicodeCMap *CMap
}

// NewFont creates a font with the given resource name, base font, and
// subtype. Simple fonts default to WinAnsiEncoding until an Encoding
// entry overrides it.
func NewFont(name, baseFont, subtype string) *Font {
	return &Font{
		Name:     name,
		BaseFont: baseFont,
		Subtype:  subtype,
		Encoding: "WinAnsiEncoding",
		widths:   make(map[rune]float64),
	}
}

// GetWidth returns the width of a character code in thousandths of an
// em. Widths from the font dictionary win. Otherwise the built-in
// tables for the standard fourteen apply, then the descriptor's
// MissingWidth, then AverageWidth. A width is never zero.
func (f *Font) GetWidth(r rune) float64 {
	if w, ok := f.widths[r]; ok {
		return w
	}

	base := StripSubsetTag(f.BaseFont)
	if f.Flags&FlagFixedPitch != 0 || strings.HasPrefix(base, "Courier") {
		return monospaceWidth
	}

	if table := builtinWidths(base); table != nil {
		if w, ok := table[r]; ok {
			return w
		}
	}

	if f.missingWidth > 0 {
		return f.missingWidth
	}
	return AverageWidth
}

// GetStringWidth returns the total width of a string in thousandths of
// an em.
func (f *Font) GetStringWidth(s string) float64 {
	total := 0.0
	for _, r := range s {
		total += f.GetWidth(r)
	}
	return total
}

// IsStandardFont reports whether the base font is one of the standard
// fourteen fonts every viewer provides without embedding.
func (f *Font) IsStandardFont() bool {
	return standardFontNames[f.BaseFont]
}

// IsBold reports whether the font renders bold, from the descriptor
// flags or the base font name.
func (f *Font) IsBold() bool {
	if f.Flags&FlagForceBold != 0 {
		return true
	}
	name := strings.ToLower(f.BaseFont)
	return strings.Contains(name, "bold") || strings.Contains(name, "black") ||
		strings.Contains(name, "heavy")
}

// IsItalic reports whether the font renders italic or oblique, from
// the descriptor flags or the base font name.
func (f *Font) IsItalic() bool {
	if f.Flags&FlagItalic != 0 {
		return true
	}
	name := strings.ToLower(f.BaseFont)
	return strings.Contains(name, "italic") || strings.Contains(name, "oblique")
}

// DecodeString decodes a string of character codes to Unicode.
// Priority order:
//  1. ToUnicode CMap when present (most accurate)
//  2. UTF-16 byte order mark (FEFF or FFFE)
//  3. The font's encoding, with /Differences applied when declared
//  4. Raw bytes
//
// All results are normalized to NFC so equal text compares equal.
func (f *Font) DecodeString(data []byte) string {
	if f.ToUnicodeCMap != nil {
		return NormalizeUnicode(f.ToUnicodeCMap.LookupString(data))
	}

	if len(data) >= 2 {
		if data[0] == 0xFE && data[1] == 0xFF {
			return NormalizeUnicode(DecodeUTF16BE(data[2:]))
		}
		if data[0] == 0xFF && data[1] == 0xFE {
			return NormalizeUnicode(DecodeUTF16LE(data[2:]))
		}
	}

	if f.customEncoding != nil {
		return NormalizeUnicode(f.customEncoding.DecodeString(data))
	}

	if f.Encoding != "" {
		return NormalizeUnicode(GetEncoding(f.Encoding).DecodeString(data))
	}

	return NormalizeUnicode(string(data))
}

// decoder returns the encoding used to turn character codes into
// runes, with Differences applied when the font declares them.
func (f *Font) decoder() Encoding {
	if f.customEncoding != nil {
		return f.customEncoding
	}
	return GetEncoding(f.Encoding)
}

// IsVertical reports whether this font uses vertical writing mode,
// which CJK documents select with the Identity-V encoding.
func (f *Font) IsVertical() bool {
	return IsVerticalEncoding(f.Encoding)
}

// IsVerticalEncoding reports whether an encoding name selects vertical
// writing mode. The comparison is case-sensitive, as PDF names are.
func IsVerticalEncoding(encoding string) bool {
	return encoding == "Identity-V"
}

// StripSubsetTag removes the six-letter subset prefix ("ABCDEF+") from
// a base font name when present.
func StripSubsetTag(name string) string {
	if len(name) > 7 && name[6] == '+' {
		for i := 0; i < 6; i++ {
			if name[i] < 'A' || name[i] > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}

// standardFontNames lists the standard fourteen.
var standardFontNames = map[string]bool{
	"Helvetica":             true,
	"Helvetica-Bold":        true,
	"Helvetica-Oblique":     true,
	"Helvetica-BoldOblique": true,
	"Times-Roman":           true,
	"Times-Bold":            true,
	"Times-Italic":          true,
	"Times-BoldItalic":      true,
	"Courier":               true,
	"Courier-Bold":          true,
	"Courier-Oblique":       true,
	"Courier-BoldOblique":   true,
	"Symbol":                true,
	"ZapfDingbats":          true,
}

// builtinWidths returns the metrics table for a standard family name,
// or nil when the name has no built-in metrics. Oblique and italic
// cuts share their upright tables, close enough for extraction. Common
// substitute names map to the matching standard family. Courier is
// handled by the fixed-pitch check and Symbol and ZapfDingbats fall
// through to AverageWidth, so neither needs a table here.
func builtinWidths(base string) map[rune]float64 {
	switch base {
	case "Helvetica", "Helvetica-Oblique", "Arial", "ArialMT", "Arial-ItalicMT":
		return helveticaWidths
	case "Helvetica-Bold", "Helvetica-BoldOblique", "Arial-Bold", "Arial-BoldMT":
		return helveticaBoldWidths
	case "Times-Roman", "Times-Italic", "TimesNewRoman", "TimesNewRomanPSMT":
		return timesRomanWidths
	case "Times-Bold", "Times-BoldItalic", "TimesNewRomanPS-BoldMT":
		return timesBoldWidths
	}
	return nil
}

// Width tables for the standard families, in thousandths of an em,
// covering printable ASCII. Values come from the Adobe core AFM files.

var helveticaWidths = map[rune]float64{
	' ':  278,
	'!':  278,
	'"':  355,
	'#':  556,
	'$':  556,
	'%':  889,
	'&':  667,
	'\'': 191,
	'(':  333,
	')':  333,
	'*':  389,
	'+':  584,
	',':  278,
	'-':  333,
	'.':  278,
	'/':  278,
	'0':  556,
	'1':  556,
	'2':  556,
	'3':  556,
	'4':  556,
	'5':  556,
	'6':  556,
	'7':  556,
	'8':  556,
	'9':  556,
	':':  278,
	';':  278,
	'<':  584,
	'=':  584,
	'>':  584,
	'?':  556,
	'@':  1015,
	'A':  667,
	'B':  667,
	'C':  722,
	'D':  722,
	'E':  667,
	'F':  611,
	'G':  778,
	'H':  722,
	'I':  278,
	'J':  500,
	'K':  667,
	'L':  556,
	'M':  833,
	'N':  722,
	'O':  778,
	'P':  667,
	'Q':  778,
	'R':  722,
	'S':  667,
	'T':  611,
	'U':  722,
	'V':  667,
	'W':  944,
	'X':  667,
	'Y':  667,
	'Z':  611,
	'[':  278,
	'\\': 278,
	']':  278,
	'^':  469,
	'_':  556,
	'`':  333,
	'a':  556,
	'b':  556,
	'c':  500,
	'd':  556,
	'e':  556,
	'f':  278,
	'g':  556,
	'h':  556,
	'i':  222,
	'j':  222,
	'k':  500,
	'l':  222,
	'm':  833,
	'n':  556,
	'o':  556,
	'p':  556,
	'q':  556,
	'r':  333,
	's':  500,
	't':  278,
	'u':  556,
	'v':  500,
	'w':  722,
	'x':  500,
	'y':  500,
	'z':  500,
	'{':  334,
	'|':  260,
	'}':  334,
	'~':  584,
}

var helveticaBoldWidths = map[rune]float64{
	' ':  278,
	'!':  333,
	'"':  474,
	'#':  556,
	'$':  556,
	'%':  889,
	'&':  722,
	'\'': 238,
	'(':  333,
	')':  333,
	'*':  389,
	'+':  584,
	',':  278,
	'-':  333,
	'.':  278,
	'/':  278,
	'0':  556,
	'1':  556,
	'2':  556,
	'3':  556,
	'4':  556,
	'5':  556,
	'6':  556,
	'7':  556,
	'8':  556,
	'9':  556,
	':':  333,
	';':  333,
	'<':  584,
	'=':  584,
	'>':  584,
	'?':  611,
	'@':  975,
	'A':  722,
	'B':  722,
	'C':  722,
	'D':  722,
	'E':  667,
	'F':  611,
	'G':  778,
	'H':  722,
	'I':  278,
	'J':  556,
	'K':  722,
	'L':  611,
	'M':  833,
	'N':  722,
	'O':  778,
	'P':  667,
	'Q':  778,
	'R':  722,
	'S':  667,
	'T':  611,
	'U':  722,
	'V':  667,
	'W':  944,
	'X':  667,
	'Y':  667,
	'Z':  611,
	'[':  333,
	'\\': 278,
	']':  333,
	'^':  584,
	'_':  556,
	'`':  333,
	'a':  556,
	'b':  611,
	'c':  556,
	'd':  611,
	'e':  556,
	'f':  333,
	'g':  611,
	'h':  611,
	'i':  278,
	'j':  278,
	'k':  556,
	'l':  278,
	'm':  889,
	'n':  611,
	'o':  611,
	'p':  611,
	'q':  611,
	'r':  389,
	's':  556,
	't':  333,
	'u':  611,
	'v':  556,
	'w':  778,
	'x':  556,
	'y':  556,
	'z':  500,
	'{':  389,
	'|':  280,
	'}':  389,
	'~':  584,
}

var timesRomanWidths = map[rune]float64{
	' ':  250,
	'!':  333,
	'"':  408,
	'#':  500,
	'$':  500,
	'%':  833,
	'&':  778,
	'\'': 180,
	'(':  333,
	')':  333,
	'*':  500,
	'+':  564,
	',':  250,
	'-':  333,
	'.':  250,
	'/':  278,
	'0':  500,
	'1':  500,
	'2':  500,
	'3':  500,
	'4':  500,
	'5':  500,
	'6':  500,
	'7':  500,
	'8':  500,
	'9':  500,
	':':  278,
	';':  278,
	'<':  564,
	'=':  564,
	'>':  564,
	'?':  444,
	'@':  921,
	'A':  722,
	'B':  667,
	'C':  667,
	'D':  722,
	'E':  611,
	'F':  556,
	'G':  722,
	'H':  722,
	'I':  333,
	'J':  389,
	'K':  722,
	'L':  611,
	'M':  889,
	'N':  722,
	'O':  722,
	'P':  556,
	'Q':  722,
	'R':  667,
	'S':  556,
	'T':  611,
	'U':  722,
	'V':  722,
	'W':  944,
	'X':  722,
	'Y':  722,
	'Z':  611,
	'[':  333,
	'\\': 278,
	']':  333,
	'^':  469,
	'_':  500,
	'`':  333,
	'a':  444,
	'b':  500,
	'c':  444,
	'd':  500,
	'e':  444,
	'f':  333,
	'g':  500,
	'h':  500,
	'i':  278,
	'j':  278,
	'k':  500,
	'l':  278,
	'm':  778,
	'n':  500,
	'o':  500,
	'p':  500,
	'q':  500,
	'r':  333,
	's':  389,
	't':  278,
	'u':  500,
	'v':  500,
	'w':  722,
	'x':  500,
	'y':  500,
	'z':  444,
	'{':  480,
	'|':  200,
	'}':  480,
	'~':  541,
}

var timesBoldWidths = map[rune]float64{
	' ':  250,
	'!':  333,
	'"':  555,
	'#':  500,
	'$':  500,
	'%':  1000,
	'&':  833,
	'\'': 278,
	'(':  333,
	')':  333,
	'*':  500,
	'+':  570,
	',':  250,
	'-':  333,
	'.':  250,
	'/':  278,
	'0':  500,
	'1':  500,
	'2':  500,
	'3':  500,
	'4':  500,
	'5':  500,
	'6':  500,
	'7':  500,
	'8':  500,
	'9':  500,
	':':  333,
	';':  333,
	'<':  570,
	'=':  570,
	'>':  570,
	'?':  500,
	'@':  930,
	'A':  722,
	'B':  667,
	'C':  722,
	'D':  722,
	'E':  667,
	'F':  611,
	'G':  778,
	'H':  778,
	'I':  389,
	'J':  500,
	'K':  778,
	'L':  667,
	'M':  944,
	'N':  722,
	'O':  778,
	'P':  611,
	'Q':  778,
	'R':  722,
	'S':  556,
	'T':  667,
	'U':  722,
	'V':  722,
	'W':  1000,
	'X':  722,
	'Y':  722,
	'Z':  667,
	'[':  333,
	'\\': 278,
	']':  333,
	'^':  581,
	'_':  500,
	'`':  333,
	'a':  500,
	'b':  556,
	'c':  444,
	'd':  556,
	'e':  444,
	'f':  333,
	'g':  500,
	'h':  556,
	'i':  278,
	'j':  333,
	'k':  556,
	'l':  278,
	'm':  833,
	'n':  556,
	'o':  500,
	'p':  556,
	'q':  556,
	'r':  444,
	's':  389,
	't':  333,
	'u':  556,
	'v':  500,
	'w':  722,
	'x':  500,
	'y':  500,
	'z':  444,
	'{':  394,
	'|':  220,
	'}':  394,
	'~':  520,
}
