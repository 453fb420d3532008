package font

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding maps single-byte character codes to Unicode.
type Encoding interface {
	// Decode returns the rune for one character code.
	Decode(b byte) rune

	// DecodeString converts a whole code sequence to text.
	DecodeString(data []byte) string

	// Name returns the PDF name of the encoding.
	Name() string
}

// Predefined single-byte encodings. StandardEncodingTable carries the
// "Table" suffix because StandardEncoding is also the plain name string
// used in font dictionaries.
var (
	WinAnsiEncoding       Encoding = &tableEncoding{name: "WinAnsiEncoding", exceptions: winAnsiExceptions}
	MacRomanEncoding      Encoding = macRomanEncoding{}
	PDFDocEncoding        Encoding = &tableEncoding{name: "PDFDocEncoding", exceptions: pdfDocExceptions}
	StandardEncodingTable Encoding = &tableEncoding{name: "StandardEncoding", exceptions: standardExceptions}
)

// GetEncoding returns the encoding for a PDF encoding name. Unknown
// names fall back to WinAnsiEncoding, the most common choice in
// western documents.
func GetEncoding(name string) Encoding {
	switch name {
	case "WinAnsiEncoding":
		return WinAnsiEncoding
	case "MacRomanEncoding":
		return MacRomanEncoding
	case "PDFDocEncoding":
		return PDFDocEncoding
	case "StandardEncoding":
		return StandardEncodingTable
	default:
		return WinAnsiEncoding
	}
}

// DecodeWithEncoding decodes data using the named encoding.
func DecodeWithEncoding(data []byte, encodingName string) string {
	return GetEncoding(encodingName).DecodeString(data)
}

// NormalizeUnicode converts extracted text to NFC so that decomposed
// accents compare equal to their precomposed forms.
func NormalizeUnicode(s string) string {
	return norm.NFC.String(s)
}

// IsValidUTF8 reports whether s is well-formed UTF-8.
func IsValidUTF8(s string) bool {
	return utf8.ValidString(s)
}

// DecodeUTF16BE decodes big-endian UTF-16 bytes, including surrogate
// pairs. A dangling final byte is ignored.
func DecodeUTF16BE(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	return string(utf16.Decode(units))
}

// DecodeUTF16LE decodes little-endian UTF-16 bytes.
func DecodeUTF16LE(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i+1])<<8|uint16(data[i]))
	}
	return string(utf16.Decode(units))
}

// tableEncoding decodes through an exception table. Codes without an
// entry map to themselves, which matches Latin-1 for the upper half
// and ASCII below.
type tableEncoding struct {
	name       string
	exceptions map[byte]rune
}

func (e *tableEncoding) Name() string { return e.name }

func (e *tableEncoding) Decode(b byte) rune {
	if r, ok := e.exceptions[b]; ok {
		return r
	}
	return rune(b)
}

func (e *tableEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(e.Decode(b))
	}
	return sb.String()
}

// macRomanEncoding decodes Mac OS Roman through the x/text charmap
// tables rather than a hand-maintained copy.
type macRomanEncoding struct{}

func (macRomanEncoding) Name() string { return "MacRomanEncoding" }

func (macRomanEncoding) Decode(b byte) rune {
	r := charmap.Macintosh.DecodeByte(b)
	if r == utf8.RuneError {
		return rune(b)
	}
	return r
}

func (macRomanEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(macRomanEncoding{}.Decode(b))
	}
	return sb.String()
}

// CustomEncoding overlays per-code differences on a base encoding. It
// carries the effect of a font's /Differences array.
type CustomEncoding struct {
	base        Encoding
	differences map[byte]rune
}

// NewCustomEncoding builds an encoding from a base and direct rune
// overrides.
func NewCustomEncoding(base Encoding, differences map[byte]rune) *CustomEncoding {
	return &CustomEncoding{base: base, differences: differences}
}

// NewCustomEncodingFromGlyphs builds an encoding from a base and glyph
// name overrides, as they appear in a /Differences array. Names that
// cannot be resolved to Unicode keep the base mapping.
func NewCustomEncodingFromGlyphs(base Encoding, glyphs map[byte]string) *CustomEncoding {
	differences := make(map[byte]rune, len(glyphs))
	for code, name := range glyphs {
		if r, ok := GlyphToUnicode(name); ok {
			differences[code] = r
		}
	}
	return &CustomEncoding{base: base, differences: differences}
}

func (e *CustomEncoding) Name() string { return e.base.Name() + "+custom" }

func (e *CustomEncoding) Decode(b byte) rune {
	if r, ok := e.differences[b]; ok {
		return r
	}
	return e.base.Decode(b)
}

func (e *CustomEncoding) DecodeString(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(e.Decode(b))
	}
	return sb.String()
}

// GlyphToUnicode resolves a PostScript glyph name to a rune. It knows
// the Latin and punctuation subset of the Adobe Glyph List plus the
// uniXXXX and uXXXX naming conventions.
func GlyphToUnicode(name string) (rune, bool) {
	if r, ok := glyphNameToUnicode[name]; ok {
		return r, true
	}
	return parseUniGlyphName(name)
}

// parseUniGlyphName handles the uniXXXX and uXXXX..XXXXXX glyph name
// forms from the Adobe Glyph List specification.
func parseUniGlyphName(name string) (rune, bool) {
	var hexPart string
	switch {
	case strings.HasPrefix(name, "uni") && len(name) == 7:
		hexPart = name[3:]
	case strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7:
		hexPart = name[1:]
	default:
		return 0, false
	}
	v, err := strconv.ParseUint(hexPart, 16, 32)
	if err != nil || v > 0x10FFFF {
		return 0, false
	}
	return rune(v), true
}

// winAnsiExceptions covers the 0x80-0x9F block where Windows code page
// 1252 departs from Latin-1. Every other code is its own code point.
var winAnsiExceptions = map[byte]rune{
	0x80: '€', // Euro
	0x82: '‚', // quotesinglbase
	0x83: 'ƒ', // florin
	0x84: '„', // quotedblbase
	0x85: '…', // ellipsis
	0x86: '†', // dagger
	0x87: '‡', // daggerdbl
	0x88: 'ˆ', // circumflex
	0x89: '‰', // perthousand
	0x8A: 'Š', // Scaron
	0x8B: '‹', // guilsinglleft
	0x8C: 'Œ', // OE
	0x8E: 'Ž', // Zcaron
	0x91: '‘', // quoteleft
	0x92: '’', // quoteright
	0x93: '“', // quotedblleft
	0x94: '”', // quotedblright
	0x95: '•', // bullet
	0x96: '–', // endash
	0x97: '—', // emdash
	0x98: '˜', // tilde
	0x99: '™', // trademark
	0x9A: 'š', // scaron
	0x9B: '›', // guilsinglright
	0x9C: 'œ', // oe
	0x9E: 'ž', // zcaron
	0x9F: 'Ÿ', // Ydieresis
}

// pdfDocExceptions covers where PDFDocEncoding departs from Latin-1:
// accents in the C0 range and typographic glyphs at 0x80-0x9E, with
// the Euro at 0xA0.
var pdfDocExceptions = map[byte]rune{
	0x18: '˘', // breve
	0x19: 'ˇ', // caron
	0x1A: 'ˆ', // circumflex
	0x1B: '˙', // dotaccent
	0x1C: '˝', // hungarumlaut
	0x1D: '˛', // ogonek
	0x1E: '˚', // ring
	0x1F: '˜', // tilde
	0x80: '•', // bullet
	0x81: '†', // dagger
	0x82: '‡', // daggerdbl
	0x83: '…', // ellipsis
	0x84: '—', // emdash
	0x85: '–', // endash
	0x86: 'ƒ', // florin
	0x87: '⁄', // fraction
	0x88: '‹', // guilsinglleft
	0x89: '›', // guilsinglright
	0x8A: '−', // minus
	0x8B: '‰', // perthousand
	0x8C: '„', // quotedblbase
	0x8D: '“', // quotedblleft
	0x8E: '”', // quotedblright
	0x8F: '‘', // quoteleft
	0x90: '’', // quoteright
	0x91: '‚', // quotesinglbase
	0x92: '™', // trademark
	0x93: 'ﬁ', // fi
	0x94: 'ﬂ', // fl
	0x95: 'Ł', // Lslash
	0x96: 'Œ', // OE
	0x97: 'Š', // Scaron
	0x98: 'Ÿ', // Ydieresis
	0x99: 'Ž', // Zcaron
	0x9A: 'ı', // dotlessi
	0x9B: 'ł', // lslash
	0x9C: 'œ', // oe
	0x9D: 'š', // scaron
	0x9E: 'ž', // zcaron
	0xA0: '€', // Euro
}

// standardExceptions covers where Adobe StandardEncoding departs from
// ASCII and Latin-1.
var standardExceptions = map[byte]rune{
	0x27: '’', // quoteright
	0x60: '‘', // quoteleft
	0xA1: '¡', // exclamdown
	0xA2: '¢', // cent
	0xA3: '£', // sterling
	0xA4: '⁄', // fraction
	0xA5: '¥', // yen
	0xA6: 'ƒ', // florin
	0xA7: '§', // section
	0xA8: '¤', // currency
	0xA9: '\'', // quotesingle
	0xAA: '“', // quotedblleft
	0xAB: '«', // guillemotleft
	0xAC: '‹', // guilsinglleft
	0xAD: '›', // guilsinglright
	0xAE: 'ﬁ', // fi
	0xAF: 'ﬂ', // fl
	0xB1: '–', // endash
	0xB2: '†', // dagger
	0xB3: '‡', // daggerdbl
	0xB4: '·', // periodcentered
	0xB6: '¶', // paragraph
	0xB7: '•', // bullet
	0xB8: '‚', // quotesinglbase
	0xB9: '„', // quotedblbase
	0xBA: '”', // quotedblright
	0xBB: '»', // guillemotright
	0xBC: '…', // ellipsis
	0xBD: '‰', // perthousand
	0xBF: '¿', // questiondown
	0xC1: '`', // grave
	0xC2: '´', // acute
	0xC3: 'ˆ', // circumflex
	0xC4: '˜', // tilde
	0xC5: '¯', // macron
	0xC6: '˘', // breve
	0xC7: '˙', // dotaccent
	0xC8: '¨', // dieresis
	0xCA: '˚', // ring
	0xCB: '¸', // cedilla
	0xCD: '˝', // hungarumlaut
	0xCE: '˛', // ogonek
	0xCF: 'ˇ', // caron
	0xD0: '—', // emdash
	0xE1: 'Æ', // AE
	0xE3: 'ª', // ordfeminine
	0xE8: 'Ł', // Lslash
	0xE9: 'Ø', // Oslash
	0xEA: 'Œ', // OE
	0xEB: 'º', // ordmasculine
	0xF1: 'æ', // ae
	0xF5: 'ı', // dotlessi
	0xF8: 'ł', // lslash
	0xF9: 'ø', // oslash
	0xFA: 'œ', // oe
	0xFB: 'ß', // germandbls
}

// glyphNameToUnicode maps PostScript glyph names to Unicode. This is
// the Latin and punctuation subset of the Adobe Glyph List, which
// covers the /Differences arrays found in western documents.
var glyphNameToUnicode = map[string]rune{
	// ASCII
	"space":        ' ',
	"exclam":       '!',
	"quotedbl":     '"',
	"numbersign":   '#',
	"dollar":       '$',
	"percent":      '%',
	"ampersand":    '&',
	"quotesingle":  '\'',
	"parenleft":    '(',
	"parenright":   ')',
	"asterisk":     '*',
	"plus":         '+',
	"comma":        ',',
	"hyphen":       '-',
	"period":       '.',
	"slash":        '/',
	"zero":         '0',
	"one":          '1',
	"two":          '2',
	"three":        '3',
	"four":         '4',
	"five":         '5',
	"six":          '6',
	"seven":        '7',
	"eight":        '8',
	"nine":         '9',
	"colon":        ':',
	"semicolon":    ';',
	"less":         '<',
	"equal":        '=',
	"greater":      '>',
	"question":     '?',
	"at":           '@',
	"A":            'A',
	"B":            'B',
	"C":            'C',
	"D":            'D',
	"E":            'E',
	"F":            'F',
	"G":            'G',
	"H":            'H',
	"I":            'I',
	"J":            'J',
	"K":            'K',
	"L":            'L',
	"M":            'M',
	"N":            'N',
	"O":            'O',
	"P":            'P',
	"Q":            'Q',
	"R":            'R',
	"S":            'S',
	"T":            'T',
	"U":            'U',
	"V":            'V',
	"W":            'W',
	"X":            'X',
	"Y":            'Y',
	"Z":            'Z',
	"bracketleft":  '[',
	"backslash":    '\\',
	"bracketright": ']',
	"asciicircum":  '^',
	"underscore":   '_',
	"grave":        '`',
	"a":            'a',
	"b":            'b',
	"c":            'c',
	"d":            'd',
	"e":            'e',
	"f":            'f',
	"g":            'g',
	"h":            'h',
	"i":            'i',
	"j":            'j',
	"k":            'k',
	"l":            'l',
	"m":            'm',
	"n":            'n',
	"o":            'o',
	"p":            'p',
	"q":            'q',
	"r":            'r',
	"s":            's',
	"t":            't',
	"u":            'u',
	"v":            'v',
	"w":            'w',
	"x":            'x',
	"y":            'y',
	"z":            'z',
	"braceleft":    '{',
	"bar":          '|',
	"braceright":   '}',
	"asciitilde":   '~',

	// Latin-1 supplement
	"exclamdown":     '¡',
	"cent":           '¢',
	"sterling":       '£',
	"currency":       '¤',
	"yen":            '¥',
	"brokenbar":      '¦',
	"section":        '§',
	"dieresis":       '¨',
	"copyright":      '©',
	"ordfeminine":    'ª',
	"guillemotleft":  '«',
	"logicalnot":     '¬',
	"registered":     '®',
	"macron":         '¯',
	"degree":         '°',
	"plusminus":      '±',
	"acute":          '´',
	"mu":             'µ',
	"paragraph":      '¶',
	"periodcentered": '·',
	"cedilla":        '¸',
	"ordmasculine":   'º',
	"guillemotright": '»',
	"onequarter":     '¼',
	"onehalf":        '½',
	"threequarters":  '¾',
	"questiondown":   '¿',
	"Agrave":         'À',
	"Aacute":         'Á',
	"Acircumflex":    'Â',
	"Atilde":         'Ã',
	"Adieresis":      'Ä',
	"Aring":          'Å',
	"AE":             'Æ',
	"Ccedilla":       'Ç',
	"Egrave":         'È',
	"Eacute":         'É',
	"Ecircumflex":    'Ê',
	"Edieresis":      'Ë',
	"Igrave":         'Ì',
	"Iacute":         'Í',
	"Icircumflex":    'Î',
	"Idieresis":      'Ï',
	"Eth":            'Ð',
	"Ntilde":         'Ñ',
	"Ograve":         'Ò',
	"Oacute":         'Ó',
	"Ocircumflex":    'Ô',
	"Otilde":         'Õ',
	"Odieresis":      'Ö',
	"multiply":       '×',
	"Oslash":         'Ø',
	"Ugrave":         'Ù',
	"Uacute":         'Ú',
	"Ucircumflex":    'Û',
	"Udieresis":      'Ü',
	"Yacute":         'Ý',
	"Thorn":          'Þ',
	"germandbls":     'ß',
	"agrave":         'à',
	"aacute":         'á',
	"acircumflex":    'â',
	"atilde":         'ã',
	"adieresis":      'ä',
	"aring":          'å',
	"ae":             'æ',
	"ccedilla":       'ç',
	"egrave":         'è',
	"eacute":         'é',
	"ecircumflex":    'ê',
	"edieresis":      'ë',
	"igrave":         'ì',
	"iacute":         'í',
	"icircumflex":    'î',
	"idieresis":      'ï',
	"eth":            'ð',
	"ntilde":         'ñ',
	"ograve":         'ò',
	"oacute":         'ó',
	"ocircumflex":    'ô',
	"otilde":         'õ',
	"odieresis":      'ö',
	"divide":         '÷',
	"oslash":         'ø',
	"ugrave":         'ù',
	"uacute":         'ú',
	"ucircumflex":    'û',
	"udieresis":      'ü',
	"yacute":         'ý',
	"thorn":          'þ',
	"ydieresis":      'ÿ',

	// Latin extended
	"dotlessi":  'ı',
	"Lslash":    'Ł',
	"lslash":    'ł',
	"OE":        'Œ',
	"oe":        'œ',
	"Scaron":    'Š',
	"scaron":    'š',
	"Ydieresis": 'Ÿ',
	"Zcaron":    'Ž',
	"zcaron":    'ž',
	"florin":    'ƒ',

	// Spacing modifier letters
	"circumflex":   'ˆ',
	"caron":        'ˇ',
	"breve":        '˘',
	"dotaccent":    '˙',
	"ring":         '˚',
	"ogonek":       '˛',
	"tilde":        '˜',
	"hungarumlaut": '˝',

	// General punctuation
	"endash":         '–',
	"emdash":         '—',
	"quoteleft":      '‘',
	"quoteright":     '’',
	"quotesinglbase": '‚',
	"quotedblleft":   '“',
	"quotedblright":  '”',
	"quotedblbase":   '„',
	"dagger":         '†',
	"daggerdbl":      '‡',
	"bullet":         '•',
	"ellipsis":       '…',
	"perthousand":    '‰',
	"guilsinglleft":  '‹',
	"guilsinglright": '›',
	"fraction":       '⁄',
	"Euro":           '€',
	"trademark":      '™',
	"minus":          '−',
	"fi":             'ﬁ',
	"fl":             'ﬂ',
}
