package model

// ElementType represents the type of page element
type ElementType int

const (
	ElementTypeUnknown ElementType = iota
	ElementTypeParagraph
	ElementTypeHeading
	ElementTypeTable
	ElementTypeImage
)

func (et ElementType) String() string {
	switch et {
	case ElementTypeParagraph:
		return "Paragraph"
	case ElementTypeHeading:
		return "Heading"
	case ElementTypeTable:
		return "Table"
	case ElementTypeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Element is the interface for all reconstructed page elements. Elements
// are the output of layout reconstruction, one level above the raw
// PageItem stream.
type Element interface {
	Type() ElementType
	BoundingBox() BBox
	ZIndex() int
}

// TextElement is an interface for elements containing text
type TextElement interface {
	Element
	GetText() string
}

// Paragraph represents a paragraph of text
type Paragraph struct {
	Text      string
	BBox      BBox
	FontSize  float64
	FontName  string
	Style     TextStyle
	Alignment TextAlignment
	ZOrder    int
}

func (p *Paragraph) Type() ElementType { return ElementTypeParagraph }
func (p *Paragraph) BoundingBox() BBox { return p.BBox }
func (p *Paragraph) ZIndex() int       { return p.ZOrder }
func (p *Paragraph) GetText() string   { return p.Text }

// Heading represents a heading
type Heading struct {
	Text     string
	Level    int // 1-6
	BBox     BBox
	FontSize float64
	FontName string
	Style    TextStyle
	ZOrder   int
}

func (h *Heading) Type() ElementType { return ElementTypeHeading }
func (h *Heading) BoundingBox() BBox { return h.BBox }
func (h *Heading) ZIndex() int       { return h.ZOrder }
func (h *Heading) GetText() string   { return h.Text }

// Image represents an embedded image placed by layout reconstruction
type Image struct {
	Data   []byte
	Format ImageFormat
	BBox   BBox
	ZOrder int
	// Alt text if available
	AltText string
}

func (i *Image) Type() ElementType { return ElementTypeImage }
func (i *Image) BoundingBox() BBox { return i.BBox }
func (i *Image) ZIndex() int       { return i.ZOrder }

// ImageFormat represents image format
type ImageFormat int

const (
	ImageFormatUnknown ImageFormat = iota
	ImageFormatJPEG
	ImageFormatPNG
	ImageFormatJPEG2000
	ImageFormatRaw
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatJPEG:
		return "JPEG"
	case ImageFormatPNG:
		return "PNG"
	case ImageFormatJPEG2000:
		return "JPEG2000"
	case ImageFormatRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// TextStyle represents text styling
type TextStyle struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Color     Color
}

// TextAlignment represents text alignment
type TextAlignment int

const (
	AlignLeft TextAlignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// Color represents an RGB color
type Color struct {
	R, G, B uint8
}

// ColorFromFloats converts color components in [0, 1] to a Color, clamping
// out-of-range values.
func ColorFromFloats(r, g, b float64) Color {
	return Color{R: clampColor(r), G: clampColor(g), B: clampColor(b)}
}

func clampColor(f float64) uint8 {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return uint8(f*255 + 0.5)
}

// Floats returns the components scaled to [0, 1].
func (c Color) Floats() (r, g, b float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// IsDark reports whether the color is closer to black than to white,
// using perceived luminance.
func (c Color) IsDark() bool {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	return lum < 128
}
