package graphicsstate

import (
	"fmt"
	"math"

	"github.com/quirepdf/quire/model"
)

// GraphicsState tracks the PDF graphics state as content stream operators
// execute: the current transformation matrix, stroke and fill colors, line
// attributes, and the text state.
type GraphicsState struct {
	// Current transformation matrix mapping user space to device space
	CTM model.Matrix

	// Text state
	Text TextState

	// Line attributes (w, J, j, M, d operators)
	LineWidth   float64
	LineCap     int
	LineJoin    int
	MiterLimit  float64
	DashPattern []float64
	DashPhase   float64

	// Colors, normalized to RGB regardless of the operator's color space
	StrokeColor [3]float64
	FillColor   [3]float64

	// Saved states for q/Q
	stack []*GraphicsState
}

// TextState represents text-specific state.
type TextState struct {
	FontName string
	FontSize float64

	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling as a percentage (Tz), 100 = unscaled
	HorizontalScaling float64

	Leading       float64
	RenderingMode int
	Rise          float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a graphics state with PDF default values.
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:         model.Identity(),
		LineWidth:   1.0,
		MiterLimit:  10.0,
		StrokeColor: [3]float64{0, 0, 0},
		FillColor:   [3]float64{0, 0, 0},
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone copies every state field. The saved-state stack is not part of the
// state value and is never copied. Each field is listed explicitly so a new
// field cannot silently escape q/Q semantics.
func (gs *GraphicsState) Clone() *GraphicsState {
	clone := &GraphicsState{
		CTM:         gs.CTM,
		Text:        gs.Text,
		LineWidth:   gs.LineWidth,
		LineCap:     gs.LineCap,
		LineJoin:    gs.LineJoin,
		MiterLimit:  gs.MiterLimit,
		DashPhase:   gs.DashPhase,
		StrokeColor: gs.StrokeColor,
		FillColor:   gs.FillColor,
	}
	if gs.DashPattern != nil {
		clone.DashPattern = make([]float64, len(gs.DashPattern))
		copy(clone.DashPattern, gs.DashPattern)
	}
	return clone
}

// Save pushes a copy of the current state onto the stack (q operator).
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, gs.Clone())
}

// Restore pops the most recently saved state (Q operator). Every field
// reverts to its saved value.
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	gs.CTM = saved.CTM
	gs.Text = saved.Text
	gs.LineWidth = saved.LineWidth
	gs.LineCap = saved.LineCap
	gs.LineJoin = saved.LineJoin
	gs.MiterLimit = saved.MiterLimit
	gs.DashPattern = saved.DashPattern
	gs.DashPhase = saved.DashPhase
	gs.StrokeColor = saved.StrokeColor
	gs.FillColor = saved.FillColor

	return nil
}

// Depth returns the number of saved states on the stack.
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Concat composes a matrix onto the CTM (cm operator). The new matrix
// applies before the existing CTM, so "2 0 0 2 0 0 cm" followed by
// "1 0 0 1 10 10 cm" maps the origin to (20, 20).
func (gs *GraphicsState) Concat(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetLineWidth sets the line width (w operator).
func (gs *GraphicsState) SetLineWidth(width float64) {
	gs.LineWidth = width
}

// SetLineCap sets the line cap style (J operator).
func (gs *GraphicsState) SetLineCap(cap int) {
	gs.LineCap = cap
}

// SetLineJoin sets the line join style (j operator).
func (gs *GraphicsState) SetLineJoin(join int) {
	gs.LineJoin = join
}

// SetMiterLimit sets the miter limit (M operator).
func (gs *GraphicsState) SetMiterLimit(limit float64) {
	gs.MiterLimit = limit
}

// SetDash sets the dash pattern and phase (d operator). An empty pattern
// means solid lines.
func (gs *GraphicsState) SetDash(pattern []float64, phase float64) {
	gs.DashPattern = pattern
	gs.DashPhase = phase
}

// SetStrokeColorRGB sets the stroke color (RG operator).
func (gs *GraphicsState) SetStrokeColorRGB(r, g, b float64) {
	gs.StrokeColor = [3]float64{r, g, b}
}

// SetFillColorRGB sets the fill color (rg operator).
func (gs *GraphicsState) SetFillColorRGB(r, g, b float64) {
	gs.FillColor = [3]float64{r, g, b}
}

// SetStrokeColorGray sets the stroke color from a gray level (G operator).
func (gs *GraphicsState) SetStrokeColorGray(gray float64) {
	gs.StrokeColor = [3]float64{gray, gray, gray}
}

// SetFillColorGray sets the fill color from a gray level (g operator).
func (gs *GraphicsState) SetFillColorGray(gray float64) {
	gs.FillColor = [3]float64{gray, gray, gray}
}

// SetStrokeColorCMYK sets the stroke color from CMYK components (K operator).
func (gs *GraphicsState) SetStrokeColorCMYK(c, m, y, k float64) {
	gs.StrokeColor = cmykToRGB(c, m, y, k)
}

// SetFillColorCMYK sets the fill color from CMYK components (k operator).
func (gs *GraphicsState) SetFillColorCMYK(c, m, y, k float64) {
	gs.FillColor = cmykToRGB(c, m, y, k)
}

// cmykToRGB converts CMYK to RGB with the standard approximation.
func cmykToRGB(c, m, y, k float64) [3]float64 {
	return [3]float64{
		(1 - c) * (1 - k),
		(1 - m) * (1 - k),
		(1 - y) * (1 - k),
	}
}

// SetFont sets the current font name and size (Tf operator).
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator).
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator).
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator).
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator).
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets the text rendering mode (Tr operator).
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets text rise (Ts operator).
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText resets the text matrices (BT operator).
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// EndText ends a text object (ET operator).
func (gs *GraphicsState) EndText() {
}

// SetTextMatrix sets both text matrices (Tm operator).
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText starts a new line offset from the current line (Td
// operator). The translation composes onto the line matrix so it moves in
// the line's own coordinate frame.
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading starts a new line and sets leading to -ty (TD
// operator).
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to the next line using the current leading (T* operator).
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// AdvanceText moves the text position tx text-space units along the
// baseline, the displacement produced by showing glyphs or by a TJ
// adjustment. Pre-composing keeps rotated or scaled baselines advancing in
// their own direction.
func (gs *GraphicsState) AdvanceText(tx float64) {
	gs.Text.TextMatrix = model.Translate(tx, 0).Multiply(gs.Text.TextMatrix)
}

// GetTextPosition returns the current text position in device space,
// including text rise.
func (gs *GraphicsState) GetTextPosition() (x, y float64) {
	p := gs.Text.TextMatrix.Transform(model.Point{X: 0, Y: gs.Text.Rise})
	p = gs.CTM.Transform(p)
	return p.X, p.Y
}

// GetTextMatrix returns the current text matrix.
func (gs *GraphicsState) GetTextMatrix() model.Matrix {
	return gs.Text.TextMatrix
}

// GetFontSize returns the font size set by Tf.
func (gs *GraphicsState) GetFontSize() float64 {
	return gs.Text.FontSize
}

// GetEffectiveFontSize returns the font size as rendered, accounting for
// text matrix and CTM scaling. Content streams routinely set Tf size 1 and
// scale through Tm.
func (gs *GraphicsState) GetEffectiveFontSize() float64 {
	combined := gs.Text.TextMatrix.Multiply(gs.CTM)
	// Length of the transformed unit vertical vector
	scale := math.Hypot(combined[2], combined[3])
	return gs.Text.FontSize * scale
}

// GetFontName returns the current font resource name.
func (gs *GraphicsState) GetFontName() string {
	return gs.Text.FontName
}
