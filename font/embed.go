package font

import (
	"bytes"
	"fmt"
	"sort"
	"unicode/utf16"
)

// Embedded is a TrueType font prepared for embedding. It wraps the
// parsed font program, encodes text as 2-byte glyph ID strings, and
// remembers which glyphs were used so the writer can emit a width
// array and a ToUnicode CMap covering exactly those glyphs.
type Embedded struct {
	family   string
	metrics  *Metrics
	program  []byte
	resource string
	used     map[uint16]rune
}

// WidthRun is a run of consecutive glyph IDs and their widths, in
// thousandths of an em. The writer turns each run into one entry of
// the descendant font's W array.
type WidthRun struct {
	First  uint16
	Widths []float64
}

// LoadEmbedded parses a TrueType font program for embedding. The
// program must carry a unicode character map; without one no text
// could be encoded against it.
func LoadEmbedded(family string, program []byte) (*Embedded, error) {
	if family == "" {
		return nil, fmt.Errorf("font family name is empty")
	}

	metrics, err := ParseMetrics(program)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", family, err)
	}
	if len(metrics.cmap) == 0 {
		return nil, fmt.Errorf("font %s has no unicode character map", family)
	}

	return &Embedded{
		family:  family,
		metrics: metrics,
		program: program,
		used:    make(map[uint16]rune),
	}, nil
}

// Family returns the font family name used as the BaseFont.
func (e *Embedded) Family() string { return e.family }

// Metrics returns the parsed font program metrics.
func (e *Embedded) Metrics() *Metrics { return e.metrics }

// Program returns the raw font program bytes for the FontFile2 stream.
func (e *Embedded) Program() []byte { return e.program }

// SetResource records the page resource name the writer assigned to
// this font, such as "F1".
func (e *Embedded) SetResource(name string) { e.resource = name }

// Resource returns the assigned page resource name.
func (e *Embedded) Resource() string { return e.resource }

// EncodeString encodes text as big-endian 2-byte glyph IDs for an
// Identity-H composite font, recording each glyph as used. Runes
// absent from the character map encode as glyph 0.
func (e *Embedded) EncodeString(s string) []byte {
	encoded := make([]byte, 0, len(s)*2)
	for _, r := range s {
		gid := e.metrics.GlyphID(r)
		if gid != 0 {
			e.used[gid] = r
		}
		encoded = append(encoded, byte(gid>>8), byte(gid))
	}
	return encoded
}

// MeasureString returns the width of s at the given font size.
func (e *Embedded) MeasureString(s string, size float64) float64 {
	return e.metrics.MeasureString(s, size)
}

// WidthRuns returns the widths of every used glyph, grouped into runs
// of consecutive glyph IDs in ascending order.
func (e *Embedded) WidthRuns() []WidthRun {
	if len(e.used) == 0 {
		return nil
	}

	gids := make([]uint16, 0, len(e.used))
	for gid := range e.used {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })

	var runs []WidthRun
	for _, gid := range gids {
		w := e.metrics.AdvanceWidth(gid)
		if n := len(runs); n > 0 && gid == runs[n-1].First+uint16(len(runs[n-1].Widths)) {
			runs[n-1].Widths = append(runs[n-1].Widths, w)
			continue
		}
		runs = append(runs, WidthRun{First: gid, Widths: []float64{w}})
	}
	return runs
}

// ToUnicodeCMap generates a CMap stream body mapping the used glyph
// IDs back to their source text, so text written with this font stays
// extractable. Mappings are emitted as bfchar entries in blocks of at
// most 100, as the CMap grammar requires.
func (e *Embedded) ToUnicodeCMap() []byte {
	gids := make([]uint16, 0, len(e.used))
	for gid := range e.used {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })

	var buf bytes.Buffer
	buf.WriteString("/CIDInit /ProcSet findresource begin\n")
	buf.WriteString("12 dict begin\n")
	buf.WriteString("begincmap\n")
	buf.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	buf.WriteString("/CMapName /Adobe-Identity-UCS def\n")
	buf.WriteString("/CMapType 2 def\n")
	buf.WriteString("1 begincodespacerange\n")
	buf.WriteString("<0000> <FFFF>\n")
	buf.WriteString("endcodespacerange\n")

	for start := 0; start < len(gids); start += 100 {
		end := start + 100
		if end > len(gids) {
			end = len(gids)
		}
		fmt.Fprintf(&buf, "%d beginbfchar\n", end-start)
		for _, gid := range gids[start:end] {
			fmt.Fprintf(&buf, "<%04X> <%s>\n", gid, utf16Hex(e.used[gid]))
		}
		buf.WriteString("endbfchar\n")
	}

	buf.WriteString("endcmap\n")
	buf.WriteString("CMapName currentdict /CMap defineresource pop\n")
	buf.WriteString("end\n")
	buf.WriteString("end\n")
	return buf.Bytes()
}

// utf16Hex renders a rune as big-endian UTF-16 hex digits, using a
// surrogate pair for code points beyond the basic plane.
func utf16Hex(r rune) string {
	units := utf16.Encode([]rune{r})
	var sb bytes.Buffer
	for _, u := range units {
		fmt.Fprintf(&sb, "%04X", u)
	}
	return sb.String()
}
