package font

import (
	"encoding/binary"
	"testing"
)

// sfntTable is one table of a synthetic font program.
type sfntTable struct {
	tag  string
	data []byte
}

// buildSFNT assembles a TrueType container from raw tables so parser
// tests need no fixture files.
func buildSFNT(tables []sfntTable) []byte {
	buf := make([]byte, 12+16*len(tables))
	binary.BigEndian.PutUint32(buf[0:], 0x00010000)
	binary.BigEndian.PutUint16(buf[4:], uint16(len(tables)))

	offset := len(buf)
	for i, tbl := range tables {
		rec := buf[12+i*16:]
		copy(rec[0:4], tbl.tag)
		binary.BigEndian.PutUint32(rec[8:], uint32(offset))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(tbl.data)))
		offset += len(tbl.data)
	}
	for _, tbl := range tables {
		buf = append(buf, tbl.data...)
	}
	return buf
}

func testHeadTable(unitsPerEm int, bbox [4]int) []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[18:], uint16(unitsPerEm))
	for i, v := range bbox {
		binary.BigEndian.PutUint16(head[36+i*2:], uint16(int16(v)))
	}
	return head
}

func testMaxpTable(numGlyphs int) []byte {
	maxp := make([]byte, 6)
	binary.BigEndian.PutUint32(maxp[0:], 0x00010000)
	binary.BigEndian.PutUint16(maxp[4:], uint16(numGlyphs))
	return maxp
}

func testHheaTable(ascent, descent, numHMetrics int) []byte {
	hhea := make([]byte, 36)
	binary.BigEndian.PutUint32(hhea[0:], 0x00010000)
	binary.BigEndian.PutUint16(hhea[4:], uint16(int16(ascent)))
	binary.BigEndian.PutUint16(hhea[6:], uint16(int16(descent)))
	binary.BigEndian.PutUint16(hhea[34:], uint16(numHMetrics))
	return hhea
}

func testHmtxTable(advances []int) []byte {
	hmtx := make([]byte, len(advances)*4)
	for i, a := range advances {
		binary.BigEndian.PutUint16(hmtx[i*4:], uint16(a))
	}
	return hmtx
}

func testCmapTable(platform, encoding int, sub []byte) []byte {
	cmap := make([]byte, 12, 12+len(sub))
	binary.BigEndian.PutUint16(cmap[2:], 1)
	binary.BigEndian.PutUint16(cmap[4:], uint16(platform))
	binary.BigEndian.PutUint16(cmap[6:], uint16(encoding))
	binary.BigEndian.PutUint32(cmap[8:], 12)
	return append(cmap, sub...)
}

// testCmapFormat4 builds a two-segment format 4 subtable: one mapped
// range plus the required 0xFFFF terminator segment.
func testCmapFormat4(start, end, firstGID int) []byte {
	sub := make([]byte, 32)
	binary.BigEndian.PutUint16(sub[0:], 4)
	binary.BigEndian.PutUint16(sub[2:], 32)
	binary.BigEndian.PutUint16(sub[6:], 4) // segCountX2
	binary.BigEndian.PutUint16(sub[14:], uint16(end))
	binary.BigEndian.PutUint16(sub[16:], 0xFFFF)
	binary.BigEndian.PutUint16(sub[20:], uint16(start))
	binary.BigEndian.PutUint16(sub[22:], 0xFFFF)
	binary.BigEndian.PutUint16(sub[24:], uint16(firstGID-start))
	binary.BigEndian.PutUint16(sub[26:], 1)
	return sub
}

func testCmapFormat6(first int, gids []int) []byte {
	sub := make([]byte, 10+len(gids)*2)
	binary.BigEndian.PutUint16(sub[0:], 6)
	binary.BigEndian.PutUint16(sub[2:], uint16(len(sub)))
	binary.BigEndian.PutUint16(sub[6:], uint16(first))
	binary.BigEndian.PutUint16(sub[8:], uint16(len(gids)))
	for i, gid := range gids {
		binary.BigEndian.PutUint16(sub[10+i*2:], uint16(gid))
	}
	return sub
}

func testCmapFormat12(startChar, endChar, startGID int) []byte {
	sub := make([]byte, 28)
	binary.BigEndian.PutUint16(sub[0:], 12)
	binary.BigEndian.PutUint32(sub[4:], uint32(len(sub)))
	binary.BigEndian.PutUint32(sub[12:], 1)
	binary.BigEndian.PutUint32(sub[16:], uint32(startChar))
	binary.BigEndian.PutUint32(sub[20:], uint32(endChar))
	binary.BigEndian.PutUint32(sub[24:], uint32(startGID))
	return sub
}

func testOS2Table(version, typoAscender, typoDescender, capHeight int) []byte {
	os2 := make([]byte, 96)
	binary.BigEndian.PutUint16(os2[0:], uint16(version))
	binary.BigEndian.PutUint16(os2[68:], uint16(int16(typoAscender)))
	binary.BigEndian.PutUint16(os2[70:], uint16(int16(typoDescender)))
	binary.BigEndian.PutUint16(os2[88:], uint16(int16(capHeight)))
	return os2
}

func testPostTable(italicAngle float64, fixedPitch bool) []byte {
	post := make([]byte, 32)
	binary.BigEndian.PutUint32(post[0:], 0x00030000)
	binary.BigEndian.PutUint32(post[4:], uint32(int32(italicAngle*65536)))
	if fixedPitch {
		binary.BigEndian.PutUint32(post[12:], 1)
	}
	return post
}

// testFontProgram builds a four-glyph font on a 1000-unit grid mapping
// A, B, C to glyphs 1-3 with advances 600, 700, 700.
func testFontProgram() []byte {
	return buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{-100, -200, 900, 800})},
		{"maxp", testMaxpTable(4)},
		{"hhea", testHheaTable(750, -250, 3)},
		{"hmtx", testHmtxTable([]int{450, 600, 700})},
		{"cmap", testCmapTable(3, 1, testCmapFormat4('A', 'C', 1))},
		{"OS/2", testOS2Table(2, 760, -240, 710)},
		{"post", testPostTable(0, false)},
	})
}

func TestParseMetrics(t *testing.T) {
	m, err := ParseMetrics(testFontProgram())
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.UnitsPerEm != 1000 {
		t.Errorf("Expected UnitsPerEm 1000, got %d", m.UnitsPerEm)
	}

	if m.NumGlyphs != 4 {
		t.Errorf("Expected NumGlyphs 4, got %d", m.NumGlyphs)
	}

	if m.Ascent != 760 {
		t.Errorf("Expected OS/2 ascent 760, got %f", m.Ascent)
	}

	if m.Descent != -240 {
		t.Errorf("Expected OS/2 descent -240, got %f", m.Descent)
	}

	if m.CapHeight != 710 {
		t.Errorf("Expected cap height 710, got %f", m.CapHeight)
	}

	expected := [4]float64{-100, -200, 900, 800}
	if m.BBox != expected {
		t.Errorf("Expected bbox %v, got %v", expected, m.BBox)
	}

	if m.Flags&FlagNonsymbolic == 0 {
		t.Error("Font with a Windows cmap should be flagged nonsymbolic")
	}

	if m.Flags&FlagFixedPitch != 0 {
		t.Error("Font should not be flagged fixed pitch")
	}
}

func TestParseMetrics_HheaFallback(t *testing.T) {
	// Without OS/2 the hhea metrics apply and the cap height is
	// estimated from the ascent.
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{0, 0, 1000, 1000})},
		{"maxp", testMaxpTable(2)},
		{"hhea", testHheaTable(750, -250, 2)},
		{"hmtx", testHmtxTable([]int{500, 500})},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.Ascent != 750 {
		t.Errorf("Expected hhea ascent 750, got %f", m.Ascent)
	}

	if m.Descent != -250 {
		t.Errorf("Expected hhea descent -250, got %f", m.Descent)
	}

	if m.CapHeight != 525 {
		t.Errorf("Expected estimated cap height 525, got %f", m.CapHeight)
	}
}

func TestParseMetrics_ScaledUnits(t *testing.T) {
	// A 2048-unit grid must scale every metric to thousandths.
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(2048, [4]int{-1024, -512, 2048, 1024})},
		{"maxp", testMaxpTable(2)},
		{"hhea", testHheaTable(1024, -512, 2)},
		{"hmtx", testHmtxTable([]int{2048, 1024})},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.Ascent != 500 {
		t.Errorf("Expected scaled ascent 500, got %f", m.Ascent)
	}

	expected := [4]float64{-500, -250, 1000, 500}
	if m.BBox != expected {
		t.Errorf("Expected scaled bbox %v, got %v", expected, m.BBox)
	}

	if w := m.AdvanceWidth(1); w != 500 {
		t.Errorf("Expected scaled advance 500, got %f", w)
	}
}

func TestMetricsGlyphID(t *testing.T) {
	m, err := ParseMetrics(testFontProgram())
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	tests := []struct {
		r        rune
		expected uint16
	}{
		{'A', 1},
		{'B', 2},
		{'C', 3},
		{'Z', 0},
	}

	for _, tt := range tests {
		if gid := m.GlyphID(tt.r); gid != tt.expected {
			t.Errorf("GlyphID(%q) = %d, want %d", tt.r, gid, tt.expected)
		}
	}

	if !m.HasGlyph('A') {
		t.Error("HasGlyph('A') should be true")
	}

	if m.HasGlyph('Z') {
		t.Error("HasGlyph('Z') should be false")
	}
}

func TestMetricsAdvanceWidth(t *testing.T) {
	m, err := ParseMetrics(testFontProgram())
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if w := m.AdvanceWidth(0); w != 450 {
		t.Errorf("Expected advance 450 for glyph 0, got %f", w)
	}

	if w := m.AdvanceWidth(1); w != 600 {
		t.Errorf("Expected advance 600 for glyph 1, got %f", w)
	}

	// Glyph 3 is past numberOfHMetrics and repeats the last advance.
	if w := m.AdvanceWidth(3); w != 700 {
		t.Errorf("Expected repeated advance 700 for glyph 3, got %f", w)
	}

	// Out of range glyphs fall back to the average width.
	if w := m.AdvanceWidth(99); w != AverageWidth {
		t.Errorf("Expected fallback width %f, got %f", AverageWidth, w)
	}
}

func TestMetricsMeasureString(t *testing.T) {
	m, err := ParseMetrics(testFontProgram())
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if w := m.MeasureString("ABC", 10); w != 20.0 {
		t.Errorf("Expected width 20.0 for \"ABC\" at size 10, got %f", w)
	}

	if w := m.MeasureString("A", 1000); w != 600.0 {
		t.Errorf("Expected width 600.0 for \"A\" at size 1000, got %f", w)
	}

	// Unmapped runes measure as glyph 0.
	if w := m.MeasureString("Z", 10); w != 4.5 {
		t.Errorf("Expected width 4.5 for unmapped rune, got %f", w)
	}
}

func TestParseMetrics_InvalidPrograms(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
	}{
		{"Empty", []byte{}},
		{"TooShort", []byte{0x00, 0x01}},
		{"CFFOutlines", []byte{'O', 'T', 'T', 'O', 0, 0, 0, 0, 0, 0, 0, 0}},
		{"UnknownVersion", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"TruncatedDirectory", []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0, 0, 0, 0, 0, 0}},
		{"NoHead", buildSFNT([]sfntTable{{"hhea", testHheaTable(750, -250, 1)}})},
		{"NoHhea", buildSFNT([]sfntTable{{"head", testHeadTable(1000, [4]int{0, 0, 1, 1})}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMetrics(tt.program); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseMetrics_FixedPitch(t *testing.T) {
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{0, 0, 600, 800})},
		{"maxp", testMaxpTable(2)},
		{"hhea", testHheaTable(750, -250, 2)},
		{"hmtx", testHmtxTable([]int{600, 600})},
		{"post", testPostTable(0, true)},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.Flags&FlagFixedPitch == 0 {
		t.Error("Expected fixed pitch flag from post table")
	}
}

func TestParseMetrics_ItalicAngle(t *testing.T) {
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{0, 0, 600, 800})},
		{"maxp", testMaxpTable(2)},
		{"hhea", testHheaTable(750, -250, 2)},
		{"hmtx", testHmtxTable([]int{600, 600})},
		{"post", testPostTable(-12.5, false)},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.ItalicAngle != -12.5 {
		t.Errorf("Expected italic angle -12.5, got %f", m.ItalicAngle)
	}

	if m.Flags&FlagItalic == 0 {
		t.Error("Expected italic flag for a slanted font")
	}
}

func TestParseMetrics_SymbolicFlags(t *testing.T) {
	base := func(cmap []byte) []byte {
		tables := []sfntTable{
			{"head", testHeadTable(1000, [4]int{0, 0, 600, 800})},
			{"maxp", testMaxpTable(4)},
			{"hhea", testHheaTable(750, -250, 4)},
			{"hmtx", testHmtxTable([]int{500, 500, 500, 500})},
		}
		if cmap != nil {
			tables = append(tables, sfntTable{"cmap", cmap})
		}
		return buildSFNT(tables)
	}

	t.Run("SymbolSubtable", func(t *testing.T) {
		m, err := ParseMetrics(base(testCmapTable(3, 0, testCmapFormat4(0xF041, 0xF043, 1))))
		if err != nil {
			t.Fatalf("ParseMetrics failed: %v", err)
		}
		if m.Flags&FlagSymbolic == 0 {
			t.Error("Font with only a symbol cmap should stay symbolic")
		}
		if m.GlyphID(0xF041) != 1 {
			t.Errorf("Expected glyph 1 for symbol code, got %d", m.GlyphID(0xF041))
		}
	})

	t.Run("NoCmap", func(t *testing.T) {
		m, err := ParseMetrics(base(nil))
		if err != nil {
			t.Fatalf("ParseMetrics failed: %v", err)
		}
		if m.Flags&FlagSymbolic == 0 {
			t.Error("Font without a cmap should be flagged symbolic")
		}
		if m.GlyphID('A') != 0 {
			t.Errorf("Expected glyph 0 without cmap, got %d", m.GlyphID('A'))
		}
	})
}

func TestParseMetrics_CmapFormat6(t *testing.T) {
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{0, 0, 600, 800})},
		{"maxp", testMaxpTable(8)},
		{"hhea", testHheaTable(750, -250, 8)},
		{"hmtx", testHmtxTable([]int{500, 500, 500, 500, 500, 500, 500, 500})},
		{"cmap", testCmapTable(0, 3, testCmapFormat6('A', []int{5, 6}))},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if gid := m.GlyphID('A'); gid != 5 {
		t.Errorf("Expected glyph 5 for 'A', got %d", gid)
	}

	if gid := m.GlyphID('B'); gid != 6 {
		t.Errorf("Expected glyph 6 for 'B', got %d", gid)
	}

	if gid := m.GlyphID('C'); gid != 0 {
		t.Errorf("Expected glyph 0 for unmapped 'C', got %d", gid)
	}
}

func TestParseMetrics_CmapFormat12(t *testing.T) {
	// Supplementary plane mapping: U+1F600 and U+1F601 to glyphs 7, 8.
	program := buildSFNT([]sfntTable{
		{"head", testHeadTable(1000, [4]int{0, 0, 600, 800})},
		{"maxp", testMaxpTable(16)},
		{"hhea", testHheaTable(750, -250, 1)},
		{"hmtx", testHmtxTable([]int{500})},
		{"cmap", testCmapTable(3, 10, testCmapFormat12(0x1F600, 0x1F601, 7))},
	})

	m, err := ParseMetrics(program)
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if gid := m.GlyphID(0x1F600); gid != 7 {
		t.Errorf("Expected glyph 7 for U+1F600, got %d", gid)
	}

	if gid := m.GlyphID(0x1F601); gid != 8 {
		t.Errorf("Expected glyph 8 for U+1F601, got %d", gid)
	}
}

func TestMetricsTable(t *testing.T) {
	m, err := ParseMetrics(testFontProgram())
	if err != nil {
		t.Fatalf("ParseMetrics failed: %v", err)
	}

	if m.Table("head") == nil {
		t.Error("Expected head table to be available")
	}

	if m.Table("glyf") != nil {
		t.Error("Expected nil for absent table")
	}
}

func BenchmarkParseMetrics(b *testing.B) {
	program := testFontProgram()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseMetrics(program); err != nil {
			b.Fatal(err)
		}
	}
}
