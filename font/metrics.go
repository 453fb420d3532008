package font

import (
	"encoding/binary"
	"fmt"
)

// Metrics describes a TrueType font program: the quantities needed to
// embed it in a generated document and to measure strings set in it.
// Vertical metrics and the bounding box are in thousandths of an em,
// independent of the font's own unit grid.
type Metrics struct {
	UnitsPerEm  int
	NumGlyphs   int
	BBox        [4]float64
	Ascent      float64
	Descent     float64
	CapHeight   float64
	ItalicAngle float64
	Flags       int

	cmap       map[rune]uint16
	cmapFormat uint16
	advances   []uint16 // font units, indexed by glyph ID
	tables     map[string][]byte
}

// ParseMetrics parses an sfnt font program. The head and hhea tables
// are required; everything else degrades gracefully. CFF-based
// OpenType fonts are rejected because their outlines cannot be
// embedded as a TrueType font file.
func ParseMetrics(program []byte) (*Metrics, error) {
	tables, err := sfntTables(program)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		tables: tables,
		cmap:   make(map[rune]uint16),
	}

	head, ok := tables["head"]
	if !ok || len(head) < 54 {
		return nil, fmt.Errorf("font has no head table")
	}
	m.UnitsPerEm = int(binary.BigEndian.Uint16(head[18:]))
	if m.UnitsPerEm == 0 {
		m.UnitsPerEm = 1000
	}
	scale := 1000.0 / float64(m.UnitsPerEm)
	m.BBox = [4]float64{
		float64(int16(binary.BigEndian.Uint16(head[36:]))) * scale,
		float64(int16(binary.BigEndian.Uint16(head[38:]))) * scale,
		float64(int16(binary.BigEndian.Uint16(head[40:]))) * scale,
		float64(int16(binary.BigEndian.Uint16(head[42:]))) * scale,
	}

	if maxp, ok := tables["maxp"]; ok && len(maxp) >= 6 {
		m.NumGlyphs = int(binary.BigEndian.Uint16(maxp[4:]))
	}

	hhea, ok := tables["hhea"]
	if !ok || len(hhea) < 36 {
		return nil, fmt.Errorf("font has no hhea table")
	}
	m.Ascent = float64(int16(binary.BigEndian.Uint16(hhea[4:]))) * scale
	m.Descent = float64(int16(binary.BigEndian.Uint16(hhea[6:]))) * scale
	numHMetrics := int(binary.BigEndian.Uint16(hhea[34:]))

	if hmtx, ok := tables["hmtx"]; ok {
		m.advances = parseHmtx(hmtx, numHMetrics, m.NumGlyphs)
	}

	// OS/2 typographic metrics are preferred over hhea when present.
	if os2, ok := tables["OS/2"]; ok && len(os2) >= 72 {
		version := binary.BigEndian.Uint16(os2)
		if a := int16(binary.BigEndian.Uint16(os2[68:])); a != 0 {
			m.Ascent = float64(a) * scale
		}
		if d := int16(binary.BigEndian.Uint16(os2[70:])); d != 0 {
			m.Descent = float64(d) * scale
		}
		if version >= 2 && len(os2) >= 90 {
			m.CapHeight = float64(int16(binary.BigEndian.Uint16(os2[88:]))) * scale
		}
	}
	if m.CapHeight == 0 {
		// Seven tenths of the ascent is the conventional estimate
		// when OS/2 does not carry a cap height.
		m.CapHeight = m.Ascent * 0.7
	}

	if post, ok := tables["post"]; ok && len(post) >= 16 {
		m.ItalicAngle = float64(int32(binary.BigEndian.Uint32(post[4:]))) / 65536.0
		if binary.BigEndian.Uint32(post[12:]) != 0 {
			m.Flags |= FlagFixedPitch
		}
	}

	symbolic := true
	if cmapData, ok := tables["cmap"]; ok {
		symbolic = m.parseCmap(cmapData)
	}
	if symbolic {
		m.Flags |= FlagSymbolic
	} else {
		m.Flags |= FlagNonsymbolic
	}
	if m.ItalicAngle != 0 {
		m.Flags |= FlagItalic
	}

	return m, nil
}

// GlyphID returns the glyph index for a rune, zero (.notdef) when the
// font does not map it.
func (m *Metrics) GlyphID(r rune) uint16 {
	return m.cmap[r]
}

// HasGlyph reports whether the font maps r to a glyph.
func (m *Metrics) HasGlyph(r rune) bool {
	_, ok := m.cmap[r]
	return ok
}

// AdvanceWidth returns a glyph's advance in thousandths of an em.
func (m *Metrics) AdvanceWidth(gid uint16) float64 {
	if int(gid) < len(m.advances) {
		return float64(m.advances[gid]) * 1000 / float64(m.UnitsPerEm)
	}
	return AverageWidth
}

// MeasureString returns the width of s at the given font size, in text
// space units.
func (m *Metrics) MeasureString(s string, size float64) float64 {
	var w float64
	for _, r := range s {
		w += m.AdvanceWidth(m.GlyphID(r))
	}
	return w * size / 1000
}

// Table returns a raw sfnt table by tag, nil when absent.
func (m *Metrics) Table(tag string) []byte {
	return m.tables[tag]
}

// sfntTables reads the table directory of an sfnt container.
func sfntTables(program []byte) (map[string][]byte, error) {
	if len(program) < 12 {
		return nil, fmt.Errorf("font program too short: %d bytes", len(program))
	}

	switch binary.BigEndian.Uint32(program) {
	case 0x00010000, 0x74727565: // TrueType, Apple 'true'
	case 0x4F54544F: // 'OTTO'
		return nil, fmt.Errorf("OpenType font with CFF outlines is not a TrueType program")
	default:
		return nil, fmt.Errorf("unrecognized font program version 0x%08X", binary.BigEndian.Uint32(program))
	}

	numTables := int(binary.BigEndian.Uint16(program[4:]))
	if 12+numTables*16 > len(program) {
		return nil, fmt.Errorf("table directory truncated")
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < numTables; i++ {
		rec := program[12+i*16:]
		tag := string(rec[0:4])
		offset := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		end := int64(offset) + int64(length)
		if end > int64(len(program)) {
			return nil, fmt.Errorf("table %s extends past end of font", tag)
		}
		tables[tag] = program[offset:end]
	}
	return tables, nil
}

// parseHmtx expands the horizontal metrics to one advance per glyph.
// Glyphs past numberOfHMetrics repeat the last declared advance.
func parseHmtx(hmtx []byte, numHMetrics, numGlyphs int) []uint16 {
	if n := len(hmtx) / 4; numHMetrics > n {
		numHMetrics = n
	}
	if numHMetrics <= 0 {
		return nil
	}
	if numGlyphs < numHMetrics {
		numGlyphs = numHMetrics
	}

	advances := make([]uint16, numGlyphs)
	var last uint16
	for i := 0; i < numHMetrics; i++ {
		last = binary.BigEndian.Uint16(hmtx[i*4:])
		advances[i] = last
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		advances[i] = last
	}
	return advances
}

// parseCmap fills the code to glyph table from the best available
// subtable and reports whether the font should be flagged symbolic.
// The Windows BMP subtable (platform 3, encoding 1) marks the font
// nonsymbolic; a font exposing only the symbol subtable (3,0) stays
// symbolic.
func (m *Metrics) parseCmap(data []byte) bool {
	if len(data) < 4 {
		return true
	}
	numTables := int(binary.BigEndian.Uint16(data[2:]))
	if 4+numTables*8 > len(data) {
		return true
	}

	var windows, unicode, symbol []byte
	for i := 0; i < numTables; i++ {
		rec := data[4+i*8:]
		platform := binary.BigEndian.Uint16(rec)
		encoding := binary.BigEndian.Uint16(rec[2:])
		offset := binary.BigEndian.Uint32(rec[4:])
		if int64(offset) >= int64(len(data)) {
			continue
		}
		sub := data[offset:]
		switch {
		case platform == 3 && (encoding == 1 || encoding == 10):
			windows = sub
		case platform == 0:
			unicode = sub
		case platform == 3 && encoding == 0:
			symbol = sub
		}
	}

	switch {
	case windows != nil:
		m.parseCmapSubtable(windows)
		return false
	case unicode != nil:
		m.parseCmapSubtable(unicode)
		return false
	case symbol != nil:
		m.parseCmapSubtable(symbol)
	}
	return true
}

func (m *Metrics) parseCmapSubtable(sub []byte) {
	if len(sub) < 2 {
		return
	}
	format := binary.BigEndian.Uint16(sub)
	switch format {
	case 4:
		m.parseCmapFormat4(sub)
	case 6:
		m.parseCmapFormat6(sub)
	case 12:
		m.parseCmapFormat12(sub)
	default:
		return
	}
	m.cmapFormat = format
}

// parseCmapFormat4 reads the segmented BMP mapping, honoring idDelta
// and idRangeOffset for each segment.
func (m *Metrics) parseCmapFormat4(sub []byte) {
	if len(sub) < 14 {
		return
	}
	segCount := int(binary.BigEndian.Uint16(sub[6:])) / 2
	if segCount == 0 || 16+segCount*8 > len(sub) {
		return
	}

	endCodes := sub[14:]
	startCodes := sub[16+segCount*2:]
	deltas := sub[16+segCount*4:]
	rangeOffsets := sub[16+segCount*6:]

	for seg := 0; seg < segCount; seg++ {
		end := int(binary.BigEndian.Uint16(endCodes[seg*2:]))
		start := int(binary.BigEndian.Uint16(startCodes[seg*2:]))
		delta := binary.BigEndian.Uint16(deltas[seg*2:])
		rangeOffset := int(binary.BigEndian.Uint16(rangeOffsets[seg*2:]))
		if start == 0xFFFF {
			continue // sentinel segment
		}

		for code := start; code <= end && code < 0xFFFF; code++ {
			var gid uint16
			if rangeOffset == 0 {
				gid = uint16(code) + delta
			} else {
				// idRangeOffset is measured from its own slot in the
				// idRangeOffset array.
				glyphPos := 16 + segCount*6 + seg*2 + rangeOffset + 2*(code-start)
				if glyphPos+2 > len(sub) {
					continue
				}
				gid = binary.BigEndian.Uint16(sub[glyphPos:])
				if gid == 0 {
					continue
				}
				gid += delta
			}
			if gid != 0 {
				m.cmap[rune(code)] = gid
			}
		}
	}
}

func (m *Metrics) parseCmapFormat6(sub []byte) {
	if len(sub) < 10 {
		return
	}
	first := int(binary.BigEndian.Uint16(sub[6:]))
	count := int(binary.BigEndian.Uint16(sub[8:]))
	for i := 0; i < count; i++ {
		pos := 10 + i*2
		if pos+2 > len(sub) {
			break
		}
		if gid := binary.BigEndian.Uint16(sub[pos:]); gid != 0 {
			m.cmap[rune(first+i)] = gid
		}
	}
}

func (m *Metrics) parseCmapFormat12(sub []byte) {
	if len(sub) < 16 {
		return
	}
	numGroups := int(binary.BigEndian.Uint32(sub[12:]))
	for g := 0; g < numGroups; g++ {
		pos := 16 + g*12
		if pos+12 > len(sub) {
			break
		}
		startChar := binary.BigEndian.Uint32(sub[pos:])
		endChar := binary.BigEndian.Uint32(sub[pos+4:])
		startGID := binary.BigEndian.Uint32(sub[pos+8:])
		if endChar < startChar || endChar-startChar > 0xFFFF || endChar > 0x10FFFF {
			continue
		}
		for c := startChar; c <= endChar; c++ {
			m.cmap[rune(c)] = uint16(startGID + (c - startChar))
		}
	}
}
