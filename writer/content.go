package writer

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/model"
)

// ContentBuilder accumulates a page's drawing operators. Coordinates
// are PDF device space: origin at the bottom-left corner, y up, 72
// points per inch.
type ContentBuilder struct {
	buf bytes.Buffer
}

// num renders a coordinate or scalar for the operator stream. Values
// round to a thousandth of a point; PDF syntax forbids exponents.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // normalize negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b *ContentBuilder) op(name string, args ...float64) {
	for _, a := range args {
		b.buf.WriteString(num(a))
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(name)
	b.buf.WriteByte('\n')
}

// Save pushes the graphics state.
func (b *ContentBuilder) Save() { b.op("q") }

// Restore pops the graphics state.
func (b *ContentBuilder) Restore() { b.op("Q") }

// Concat composes a matrix onto the CTM.
func (b *ContentBuilder) Concat(m model.Matrix) {
	b.op("cm", m[0], m[1], m[2], m[3], m[4], m[5])
}

// SetFillColor sets the non-stroking color.
func (b *ContentBuilder) SetFillColor(c model.Color) {
	r, g, bl := c.Floats()
	b.op("rg", r, g, bl)
}

// SetStrokeColor sets the stroking color.
func (b *ContentBuilder) SetStrokeColor(c model.Color) {
	r, g, bl := c.Floats()
	b.op("RG", r, g, bl)
}

// SetLineWidth sets the stroke width.
func (b *ContentBuilder) SetLineWidth(width float64) {
	b.op("w", width)
}

// BeginText opens a text object.
func (b *ContentBuilder) BeginText() { b.op("BT") }

// EndText closes the text object.
func (b *ContentBuilder) EndText() { b.op("ET") }

// SetFont selects a font resource at a size.
func (b *ContentBuilder) SetFont(resource string, size float64) {
	fmt.Fprintf(&b.buf, "/%s %s Tf\n", core.EscapeName(resource), num(size))
}

// SetLeading sets the text leading used by NextLine.
func (b *ContentBuilder) SetLeading(leading float64) {
	b.op("TL", leading)
}

// MoveText offsets the text position. Inside a fresh text object the
// offset is absolute.
func (b *ContentBuilder) MoveText(x, y float64) {
	b.op("Td", x, y)
}

// NextLine advances to the next line by the current leading.
func (b *ContentBuilder) NextLine() { b.op("T*") }

// SetTextRise sets the baseline rise.
func (b *ContentBuilder) SetTextRise(rise float64) {
	b.op("Ts", rise)
}

// ShowString shows text as an escaped literal string.
func (b *ContentBuilder) ShowString(s string) {
	fmt.Fprintf(&b.buf, "(%s) Tj\n", core.EscapeString(s))
}

// ShowGlyphs shows pre-encoded glyph bytes as a hex string. Composite
// fonts take 2-byte glyph IDs through this path.
func (b *ContentBuilder) ShowGlyphs(encoded []byte) {
	fmt.Fprintf(&b.buf, "<%X> Tj\n", encoded)
}

// Line strokes a segment with the current stroke color and width.
func (b *ContentBuilder) Line(x1, y1, x2, y2 float64) {
	b.op("m", x1, y1)
	b.op("l", x2, y2)
	b.op("S")
}

// StrokeRect strokes a rectangle outline.
func (b *ContentBuilder) StrokeRect(x, y, width, height float64) {
	b.op("re", x, y, width, height)
	b.op("S")
}

// FillRect fills a rectangle with the current fill color.
func (b *ContentBuilder) FillRect(x, y, width, height float64) {
	b.op("re", x, y, width, height)
	b.op("f")
}

// DrawImage places an image resource into the given rectangle. The
// unit image square is scaled and translated under a saved state.
func (b *ContentBuilder) DrawImage(resource string, x, y, width, height float64) {
	b.Save()
	b.Concat(model.Matrix{width, 0, 0, height, x, y})
	fmt.Fprintf(&b.buf, "/%s Do\n", core.EscapeName(resource))
	b.Restore()
}

// Len returns the number of bytes accumulated so far.
func (b *ContentBuilder) Len() int {
	return b.buf.Len()
}

// Bytes returns the operator stream.
func (b *ContentBuilder) Bytes() []byte {
	return b.buf.Bytes()
}
