package model

// PageItem is one positioned mark on a page, produced by the content stream
// interpreter in drawing order. The set of implementations is closed:
// TextItem, ImageItem and LineItem. Consumers switch over the concrete type
// rather than inspecting tags at runtime.
//
// Items are never mutated after the interpreter emits them.
type PageItem interface {
	Bounds() BBox
	Sequence() int

	pageItem()
}

// TextItem is one run of text shown by a single text-showing operator,
// placed in device space.
type TextItem struct {
	Text string

	// Baseline origin in device space
	X, Y float64

	// Advance width and nominal height of the run in device space
	Width  float64
	Height float64

	// Font resource name and effective size after matrix scaling
	FontName string
	FontSize float64

	Color Color
	Rise  float64

	Underline bool
	Strike    bool

	// Position in the page's drawing order
	Seq int
}

func (t *TextItem) Bounds() BBox {
	h := t.Height
	if h == 0 {
		h = t.FontSize
	}
	return BBox{X: t.X, Y: t.Y, Width: t.Width, Height: h}
}

func (t *TextItem) Sequence() int { return t.Seq }
func (t *TextItem) pageItem()     {}

// EndX returns the X coordinate where the run's advance ends.
func (t *TextItem) EndX() float64 {
	return t.X + t.Width
}

// ImageItem is an image XObject drawn onto the page. Data holds the image
// bytes: the original container for passthrough formats (JPEG, JPEG 2000),
// or decoded raster data otherwise.
type ImageItem struct {
	// Resource name the content stream drew it under
	Name string

	Data   []byte
	Format ImageFormat

	// Placement rectangle in device space
	X, Y          float64
	Width, Height float64

	Seq int
}

func (i *ImageItem) Bounds() BBox {
	return BBox{X: i.X, Y: i.Y, Width: i.Width, Height: i.Height}
}

func (i *ImageItem) Sequence() int { return i.Seq }
func (i *ImageItem) pageItem()     {}

// LineItem is a stroked line segment or a stroked/filled rectangle, in
// device space. Rectangles carry their two opposite corners in Start and
// End. Table detection consumes these to find cell borders and background
// fills.
type LineItem struct {
	Start, End Point

	StrokeWidth float64
	Color       Color

	IsRect bool
	Filled bool

	Seq int
}

func (l *LineItem) Bounds() BBox {
	return NewBBoxFromPoints(l.Start, l.End)
}

func (l *LineItem) Sequence() int { return l.Seq }
func (l *LineItem) pageItem()     {}

// IsHorizontal reports whether the segment is horizontal within tol.
func (l *LineItem) IsHorizontal(tol float64) bool {
	d := l.End.Y - l.Start.Y
	return d < tol && d > -tol
}

// IsVertical reports whether the segment is vertical within tol.
func (l *LineItem) IsVertical(tol float64) bool {
	d := l.End.X - l.Start.X
	return d < tol && d > -tol
}

// Length returns the segment length.
func (l *LineItem) Length() float64 {
	return l.Start.Distance(l.End)
}
