package font

import (
	"fmt"

	"github.com/quirepdf/quire/core"
)

// TrueTypeFont represents a TrueType font loaded from a font
// dictionary. When the program is embedded, its sfnt tables supply
// glyph-level metrics; widths declared in the dictionary still win for
// text measurement.
type TrueTypeFont struct {
	*Font

	FirstChar      int
	LastChar       int
	Widths         []float64
	FontDescriptor *FontDescriptor
	ToUnicode      *core.Stream

	// Embedded font program from FontFile2.
	FontProgram []byte
	Tables      map[string][]byte

	unitsPerEm  uint16
	glyphWidths map[uint16]uint16 // glyph ID -> advance in font units
	cmapTable   *CMapTable
	isSubset    bool
}

// CMapTable holds the character to glyph mapping from the font
// program's cmap table.
type CMapTable struct {
	format   uint16
	encoding map[rune]uint16
}

// NewTrueTypeFont creates a TrueType font from a font dictionary.
func NewTrueTypeFont(fontDict core.Dict, resolver Resolver) (*TrueTypeFont, error) {
	name := extractName(fontDict.Get("Name"))
	baseFont := extractName(fontDict.Get("BaseFont"))
	subtype := extractName(fontDict.Get("Subtype"))

	if subtype != "TrueType" {
		return nil, fmt.Errorf("not a TrueType font: %s", subtype)
	}

	tt := &TrueTypeFont{
		Font:        NewFont(name, baseFont, subtype),
		FirstChar:   0,
		LastChar:    255,
		Tables:      make(map[string][]byte),
		glyphWidths: make(map[uint16]uint16),
	}
	tt.isSubset = isSubsetFont(baseFont)

	if err := tt.parseEncoding(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse encoding: %w", err)
	}

	// Widths from the dictionary override font program widths, so they
	// are parsed after the encoding they are keyed through.
	if err := tt.parseWidths(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse widths: %w", err)
	}

	// The descriptor is optional; standard fonts may not carry one.
	if err := tt.parseFontDescriptor(fontDict, resolver); err != nil {
		_ = err
	}

	if stream := resolveStream(fontDict.Get("ToUnicode"), resolver); stream != nil {
		tt.ToUnicode = stream
		if cmap, err := ParseToUnicodeCMap(stream); err == nil && cmap.HasMappings() {
			tt.Font.ToUnicodeCMap = cmap
		}
	}

	if tt.FontDescriptor != nil && tt.FontDescriptor.FontFile2 != nil {
		// Failure here is survivable: dictionary widths still measure
		// text.
		if err := tt.parseFontProgram(); err != nil {
			_ = err
		}
	}

	return tt, nil
}

// isSubsetFont reports whether a base font name carries a subset
// prefix of six uppercase letters and a plus sign.
func isSubsetFont(baseFontName string) bool {
	if len(baseFontName) < 8 {
		return false
	}
	for i := 0; i < 6; i++ {
		if baseFontName[i] < 'A' || baseFontName[i] > 'Z' {
			return false
		}
	}
	return baseFontName[6] == '+'
}

// parseEncoding reads the Encoding entry: a predefined name, or a
// dictionary with a BaseEncoding and a Differences array.
func (tt *TrueTypeFont) parseEncoding(fontDict core.Dict, resolver Resolver) error {
	encodingObj := fontDict.Get("Encoding")
	if encodingObj == nil {
		tt.Encoding = "WinAnsiEncoding"
		return nil
	}

	if ref, ok := encodingObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		encodingObj = obj
	}

	if name, ok := encodingObj.(core.Name); ok {
		tt.Encoding = string(name)
		return nil
	}

	if dict, ok := encodingObj.(core.Dict); ok {
		if name, ok := dict.GetName("BaseEncoding"); ok {
			tt.Encoding = string(name)
		} else {
			tt.Encoding = "WinAnsiEncoding"
		}
		if diffs, ok := dict.GetArray("Differences"); ok {
			if glyphs := differencesToGlyphs(diffs); len(glyphs) > 0 {
				tt.customEncoding = NewCustomEncodingFromGlyphs(GetEncoding(tt.Encoding), glyphs)
			}
		}
		return nil
	}

	return fmt.Errorf("invalid encoding type: %T", encodingObj)
}

// parseWidths reads FirstChar, LastChar, and the Widths array. Widths
// are keyed by the decoded rune so lookups on extracted text land on
// the declared value.
func (tt *TrueTypeFont) parseWidths(fontDict core.Dict, resolver Resolver) error {
	if i, ok := fontDict.GetInt("FirstChar"); ok {
		tt.FirstChar = int(i)
	}
	if i, ok := fontDict.GetInt("LastChar"); ok {
		tt.LastChar = int(i)
	}

	widthsObj := fontDict.Get("Widths")
	if widthsObj == nil {
		return nil
	}

	if ref, ok := widthsObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		widthsObj = obj
	}

	widthsArray, ok := widthsObj.(core.Array)
	if !ok {
		return fmt.Errorf("widths is not an array: %T", widthsObj)
	}

	tt.Widths = make([]float64, len(widthsArray))
	for i, w := range widthsArray {
		switch v := w.(type) {
		case core.Int:
			tt.Widths[i] = float64(v)
		case core.Real:
			tt.Widths[i] = float64(v)
		default:
			return fmt.Errorf("invalid width type at index %d: %T", i, w)
		}
	}

	enc := tt.decoder()
	for i, width := range tt.Widths {
		code := tt.FirstChar + i
		if code > tt.LastChar || code > 255 {
			break
		}
		tt.widths[enc.Decode(byte(code))] = width
	}

	return nil
}

// parseFontDescriptor reads the FontDescriptor dictionary.
func (tt *TrueTypeFont) parseFontDescriptor(fontDict core.Dict, resolver Resolver) error {
	fd, err := parseFontDescriptorDict(fontDict.Get("FontDescriptor"), resolver)
	if err != nil {
		return err
	}

	tt.FontDescriptor = fd
	tt.Flags = fd.Flags
	if fd.MissingWidth > 0 {
		tt.missingWidth = fd.MissingWidth
	}
	return nil
}

// parseFontProgram decodes FontFile2 and extracts the sfnt tables,
// glyph advances, and character to glyph mapping.
func (tt *TrueTypeFont) parseFontProgram() error {
	if tt.FontDescriptor == nil || tt.FontDescriptor.FontFile2 == nil {
		return fmt.Errorf("no font program available")
	}

	data, err := tt.FontDescriptor.FontFile2.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode font program: %w", err)
	}
	tt.FontProgram = data

	metrics, err := ParseMetrics(data)
	if err != nil {
		return fmt.Errorf("failed to parse font program: %w", err)
	}

	tt.unitsPerEm = uint16(metrics.UnitsPerEm)
	for tag, table := range metrics.tables {
		tt.Tables[tag] = table
	}
	for gid, adv := range metrics.advances {
		tt.glyphWidths[uint16(gid)] = adv
	}
	if len(metrics.cmap) > 0 {
		tt.cmapTable = &CMapTable{format: metrics.cmapFormat, encoding: metrics.cmap}
	}

	return nil
}

// GetGlyphID returns the glyph ID for a character, zero (.notdef) when
// the font program carries no mapping for it.
func (tt *TrueTypeFont) GetGlyphID(r rune) uint16 {
	if tt.cmapTable != nil {
		if gid, ok := tt.cmapTable.encoding[r]; ok {
			return gid
		}
	}
	return 0
}

// GetWidthFromGlyph returns a glyph's advance in thousandths of an em.
func (tt *TrueTypeFont) GetWidthFromGlyph(glyphID uint16) float64 {
	if width, ok := tt.glyphWidths[glyphID]; ok {
		if tt.unitsPerEm > 0 {
			return float64(width) * 1000.0 / float64(tt.unitsPerEm)
		}
		return float64(width)
	}
	return AverageWidth
}
