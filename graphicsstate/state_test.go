package graphicsstate

import (
	"math"
	"testing"

	"github.com/quirepdf/quire/model"
)

// TestNewGraphicsState tests initial state
func TestNewGraphicsState(t *testing.T) {
	gs := NewGraphicsState()

	if gs.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", gs.LineWidth)
	}

	if gs.MiterLimit != 10.0 {
		t.Errorf("expected miter limit 10.0, got %f", gs.MiterLimit)
	}

	if gs.Text.FontSize != 12.0 {
		t.Errorf("expected font size 12.0, got %f", gs.Text.FontSize)
	}

	if gs.Text.HorizontalScaling != 100.0 {
		t.Errorf("expected horizontal scaling 100.0, got %f", gs.Text.HorizontalScaling)
	}

	// Check CTM is identity
	if !gs.CTM.IsIdentity() {
		t.Error("expected CTM to be identity matrix")
	}
}

// TestSaveRestore tests q/Q operators
func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState()

	// Modify state
	gs.SetLineWidth(2.5)
	gs.SetFont("Helvetica", 14)

	// Save
	gs.Save()

	// Modify again
	gs.SetLineWidth(5.0)
	gs.SetFont("Times", 18)

	if gs.LineWidth != 5.0 {
		t.Errorf("expected line width 5.0, got %f", gs.LineWidth)
	}

	// Restore
	err := gs.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	// Check restored values
	if gs.LineWidth != 2.5 {
		t.Errorf("expected restored line width 2.5, got %f", gs.LineWidth)
	}

	if gs.Text.FontName != "Helvetica" {
		t.Errorf("expected restored font Helvetica, got %s", gs.Text.FontName)
	}

	if gs.Text.FontSize != 14 {
		t.Errorf("expected restored font size 14, got %f", gs.Text.FontSize)
	}
}

// TestSaveRestoreAllFields mutates every tracked field between q and Q and
// checks each one reverts to its saved value
func TestSaveRestoreAllFields(t *testing.T) {
	gs := NewGraphicsState()

	// Establish non-default values for every field before saving
	gs.Concat(model.Translate(10, 20))
	gs.SetFont("Helvetica", 14)
	gs.SetCharSpacing(0.5)
	gs.SetWordSpacing(1.5)
	gs.SetHorizontalScaling(90)
	gs.SetLeading(16)
	gs.SetRenderingMode(1)
	gs.SetTextRise(3)
	gs.SetTextMatrix(model.Matrix{1, 0, 0, 1, 72, 720})
	gs.TranslateText(5, -16)
	gs.SetLineWidth(2.5)
	gs.SetLineCap(1)
	gs.SetLineJoin(2)
	gs.SetMiterLimit(4)
	gs.SetDash([]float64{3, 1}, 2)
	gs.SetStrokeColorRGB(1, 0, 0)
	gs.SetFillColorRGB(0, 0, 1)

	savedCTM := gs.CTM
	savedText := gs.Text
	gs.Save()

	// Overwrite everything
	gs.Concat(model.Scale(3, 3))
	gs.SetFont("Times", 20)
	gs.SetCharSpacing(2)
	gs.SetWordSpacing(4)
	gs.SetHorizontalScaling(50)
	gs.SetLeading(30)
	gs.SetRenderingMode(3)
	gs.SetTextRise(-2)
	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 0, 0})
	gs.TranslateText(100, 100)
	gs.SetLineWidth(9)
	gs.SetLineCap(2)
	gs.SetLineJoin(0)
	gs.SetMiterLimit(1)
	gs.SetDash(nil, 0)
	gs.SetStrokeColorGray(0.5)
	gs.SetFillColorCMYK(1, 0, 0, 0)

	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if gs.CTM != savedCTM {
		t.Errorf("expected restored CTM %v, got %v", savedCTM, gs.CTM)
	}
	if gs.Text != savedText {
		t.Errorf("expected restored text state %+v, got %+v", savedText, gs.Text)
	}
	if gs.Text.TextMatrix != savedText.TextMatrix {
		t.Errorf("expected restored text matrix %v, got %v", savedText.TextMatrix, gs.Text.TextMatrix)
	}
	if gs.Text.TextLineMatrix != savedText.TextLineMatrix {
		t.Errorf("expected restored line matrix %v, got %v", savedText.TextLineMatrix, gs.Text.TextLineMatrix)
	}
	if gs.LineWidth != 2.5 {
		t.Errorf("expected restored line width 2.5, got %f", gs.LineWidth)
	}
	if gs.LineCap != 1 {
		t.Errorf("expected restored line cap 1, got %d", gs.LineCap)
	}
	if gs.LineJoin != 2 {
		t.Errorf("expected restored line join 2, got %d", gs.LineJoin)
	}
	if gs.MiterLimit != 4 {
		t.Errorf("expected restored miter limit 4, got %f", gs.MiterLimit)
	}
	if len(gs.DashPattern) != 2 || gs.DashPattern[0] != 3 || gs.DashPattern[1] != 1 {
		t.Errorf("expected restored dash [3 1], got %v", gs.DashPattern)
	}
	if gs.DashPhase != 2 {
		t.Errorf("expected restored dash phase 2, got %f", gs.DashPhase)
	}
	if gs.StrokeColor != [3]float64{1, 0, 0} {
		t.Errorf("expected restored stroke red, got %v", gs.StrokeColor)
	}
	if gs.FillColor != [3]float64{0, 0, 1} {
		t.Errorf("expected restored fill blue, got %v", gs.FillColor)
	}
}

// TestRestoreUnderflow tests restore without save
func TestRestoreUnderflow(t *testing.T) {
	gs := NewGraphicsState()

	err := gs.Restore()
	if err == nil {
		t.Error("expected error on restore without save")
	}
}

// TestNestedSaveRestore tests nested q/Q
func TestNestedSaveRestore(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetLineWidth(1.0)
	gs.Save() // Level 1

	gs.SetLineWidth(2.0)
	gs.Save() // Level 2

	gs.SetLineWidth(3.0)

	// Restore to level 2
	gs.Restore()
	if gs.LineWidth != 2.0 {
		t.Errorf("expected line width 2.0, got %f", gs.LineWidth)
	}

	// Restore to level 1
	gs.Restore()
	if gs.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", gs.LineWidth)
	}
}

// TestSaveRestoreDashIndependent tests that a saved dash pattern is not
// aliased to the live one
func TestSaveRestoreDashIndependent(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetDash([]float64{3, 2}, 0)
	gs.Save()

	// Replace the pattern after saving
	gs.SetDash([]float64{10}, 5)

	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if len(gs.DashPattern) != 2 || gs.DashPattern[0] != 3 || gs.DashPattern[1] != 2 {
		t.Errorf("expected restored dash [3 2], got %v", gs.DashPattern)
	}

	if gs.DashPhase != 0 {
		t.Errorf("expected restored dash phase 0, got %f", gs.DashPhase)
	}
}

// TestConcat tests cm operator
func TestConcat(t *testing.T) {
	gs := NewGraphicsState()

	// Apply translation
	translation := model.Translate(100, 200)
	gs.Concat(translation)

	if gs.CTM[4] != 100 || gs.CTM[5] != 200 {
		t.Errorf("expected translation (100, 200), got (%f, %f)", gs.CTM[4], gs.CTM[5])
	}
}

// TestConcatOrder tests that cm composes new matrices before the existing
// CTM: a scale followed by a translate must scale the translation too
func TestConcatOrder(t *testing.T) {
	gs := NewGraphicsState()

	gs.Concat(model.Scale(2, 2))
	gs.Concat(model.Translate(10, 10))

	p := gs.CTM.Transform(model.Point{X: 0, Y: 0})
	if p.X != 20 || p.Y != 20 {
		t.Errorf("expected origin mapped to (20, 20), got (%f, %f)", p.X, p.Y)
	}
}

// TestSetFont tests Tf operator
func TestSetFont(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetFont("Helvetica-Bold", 24.0)

	if gs.Text.FontName != "Helvetica-Bold" {
		t.Errorf("expected font Helvetica-Bold, got %s", gs.Text.FontName)
	}

	if gs.Text.FontSize != 24.0 {
		t.Errorf("expected font size 24.0, got %f", gs.Text.FontSize)
	}
}

// TestTextSpacing tests Tc and Tw operators
func TestTextSpacing(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetCharSpacing(0.5)
	gs.SetWordSpacing(1.0)

	if gs.Text.CharSpacing != 0.5 {
		t.Errorf("expected char spacing 0.5, got %f", gs.Text.CharSpacing)
	}

	if gs.Text.WordSpacing != 1.0 {
		t.Errorf("expected word spacing 1.0, got %f", gs.Text.WordSpacing)
	}
}

// TestHorizontalScaling tests Tz operator
func TestHorizontalScaling(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetHorizontalScaling(80.0)

	if gs.Text.HorizontalScaling != 80.0 {
		t.Errorf("expected horizontal scaling 80.0, got %f", gs.Text.HorizontalScaling)
	}
}

// TestLeading tests TL operator
func TestLeading(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetLeading(14.0)

	if gs.Text.Leading != 14.0 {
		t.Errorf("expected leading 14.0, got %f", gs.Text.Leading)
	}
}

// TestRenderingMode tests Tr operator
func TestRenderingMode(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetRenderingMode(2)

	if gs.Text.RenderingMode != 2 {
		t.Errorf("expected rendering mode 2, got %d", gs.Text.RenderingMode)
	}
}

// TestTextRise tests Ts operator
func TestTextRise(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetTextRise(5.0)

	if gs.Text.Rise != 5.0 {
		t.Errorf("expected text rise 5.0, got %f", gs.Text.Rise)
	}
}

// TestLineAttributes tests J, j, M and d operators
func TestLineAttributes(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetLineCap(1)
	gs.SetLineJoin(2)
	gs.SetMiterLimit(4.0)
	gs.SetDash([]float64{5, 3}, 1)

	if gs.LineCap != 1 {
		t.Errorf("expected line cap 1, got %d", gs.LineCap)
	}

	if gs.LineJoin != 2 {
		t.Errorf("expected line join 2, got %d", gs.LineJoin)
	}

	if gs.MiterLimit != 4.0 {
		t.Errorf("expected miter limit 4.0, got %f", gs.MiterLimit)
	}

	if len(gs.DashPattern) != 2 || gs.DashPhase != 1 {
		t.Errorf("expected dash [5 3] phase 1, got %v phase %f", gs.DashPattern, gs.DashPhase)
	}
}

// TestBeginText tests BT operator
func TestBeginText(t *testing.T) {
	gs := NewGraphicsState()

	// Modify text matrix
	gs.Text.TextMatrix = model.Matrix{1, 0, 0, 1, 100, 200}

	// Begin text should reset to identity
	gs.BeginText()

	if !gs.Text.TextMatrix.IsIdentity() {
		t.Error("expected text matrix to be identity after BT")
	}

	if !gs.Text.TextLineMatrix.IsIdentity() {
		t.Error("expected text line matrix to be identity after BT")
	}
}

// TestSetTextMatrix tests Tm operator
func TestSetTextMatrix(t *testing.T) {
	gs := NewGraphicsState()

	m := model.Matrix{1, 0, 0, 1, 72, 720}

	gs.SetTextMatrix(m)

	if gs.Text.TextMatrix != m {
		t.Error("text matrix not set correctly")
	}

	if gs.Text.TextLineMatrix != m {
		t.Error("text line matrix not set correctly")
	}
}

// TestTranslateText tests Td operator
func TestTranslateText(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()

	gs.TranslateText(10, 20)

	if gs.Text.TextMatrix[4] != 10 || gs.Text.TextMatrix[5] != 20 {
		t.Errorf("expected translation (10, 20), got (%f, %f)",
			gs.Text.TextMatrix[4], gs.Text.TextMatrix[5])
	}

	// Translate again
	gs.TranslateText(5, 10)

	if gs.Text.TextMatrix[4] != 15 || gs.Text.TextMatrix[5] != 30 {
		t.Errorf("expected cumulative translation (15, 30), got (%f, %f)",
			gs.Text.TextMatrix[4], gs.Text.TextMatrix[5])
	}
}

// TestTranslateTextScaledLine tests that Td moves in the line's own frame:
// with a scaled line matrix the offset is scaled too
func TestTranslateTextScaledLine(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 100, 100})

	gs.TranslateText(10, -7)

	if gs.Text.TextMatrix[4] != 120 || gs.Text.TextMatrix[5] != 86 {
		t.Errorf("expected (120, 86), got (%f, %f)",
			gs.Text.TextMatrix[4], gs.Text.TextMatrix[5])
	}

	// Scale factors survive the translation
	if gs.Text.TextMatrix[0] != 2 || gs.Text.TextMatrix[3] != 2 {
		t.Errorf("expected scale preserved, got %v", gs.Text.TextMatrix)
	}
}

// TestTranslateTextSetLeading tests TD operator
func TestTranslateTextSetLeading(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()

	gs.TranslateTextSetLeading(0, -14)

	if gs.Text.Leading != 14 {
		t.Errorf("expected leading 14, got %f", gs.Text.Leading)
	}

	if gs.Text.TextMatrix[5] != -14 {
		t.Errorf("expected Y translation -14, got %f", gs.Text.TextMatrix[5])
	}
}

// TestNextLine tests T* operator
func TestNextLine(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetLeading(14)

	initialY := gs.Text.TextMatrix[5]

	gs.NextLine()

	expectedY := initialY - 14
	if math.Abs(gs.Text.TextMatrix[5]-expectedY) > 0.001 {
		t.Errorf("expected Y %f, got %f", expectedY, gs.Text.TextMatrix[5])
	}
}

// TestAdvanceText tests the baseline advance after showing glyphs
func TestAdvanceText(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.TranslateText(72, 720)

	gs.AdvanceText(30)

	if gs.Text.TextMatrix[4] != 102 {
		t.Errorf("expected X 102, got %f", gs.Text.TextMatrix[4])
	}

	// The line matrix is untouched; the next Td offsets from line start
	if gs.Text.TextLineMatrix[4] != 72 {
		t.Errorf("expected line X 72, got %f", gs.Text.TextLineMatrix[4])
	}
}

// TestAdvanceTextRotated tests that the advance follows a rotated baseline
func TestAdvanceTextRotated(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()

	// 90 degree rotation: the baseline runs along device Y
	gs.SetTextMatrix(model.Rotate(math.Pi / 2))

	gs.AdvanceText(10)

	x, y := gs.GetTextPosition()
	if math.Abs(x) > 0.001 || math.Abs(y-10) > 0.001 {
		t.Errorf("expected position (0, 10), got (%f, %f)", x, y)
	}
}

// TestGetTextPosition tests position calculation
func TestGetTextPosition(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextMatrix(model.Matrix{1, 0, 0, 1, 100, 200})

	x, y := gs.GetTextPosition()

	if x != 100 || y != 200 {
		t.Errorf("expected position (100, 200), got (%f, %f)", x, y)
	}
}

// TestGetTextPositionWithCTM tests position with CTM
func TestGetTextPositionWithCTM(t *testing.T) {
	gs := NewGraphicsState()

	// Apply CTM translation
	gs.Concat(model.Translate(50, 50))

	gs.BeginText()
	gs.SetTextMatrix(model.Matrix{1, 0, 0, 1, 100, 200})

	x, y := gs.GetTextPosition()

	// Should include CTM translation
	expectedX := 150.0
	expectedY := 250.0

	if math.Abs(x-expectedX) > 0.001 || math.Abs(y-expectedY) > 0.001 {
		t.Errorf("expected position (%f, %f), got (%f, %f)", expectedX, expectedY, x, y)
	}
}

// TestGetTextPositionWithRise tests that Ts shifts the reported position
func TestGetTextPositionWithRise(t *testing.T) {
	gs := NewGraphicsState()
	gs.BeginText()
	gs.SetTextMatrix(model.Matrix{1, 0, 0, 1, 100, 200})
	gs.SetTextRise(5)

	_, y := gs.GetTextPosition()

	if math.Abs(y-205) > 0.001 {
		t.Errorf("expected Y 205, got %f", y)
	}

	// With a scaled text matrix the rise scales too
	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 100, 200})

	_, y = gs.GetTextPosition()
	if math.Abs(y-210) > 0.001 {
		t.Errorf("expected Y 210, got %f", y)
	}
}

// TestColors tests RG and rg operators
func TestColors(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetStrokeColorRGB(1.0, 0.0, 0.0)
	gs.SetFillColorRGB(0.0, 1.0, 0.0)

	if gs.StrokeColor != [3]float64{1.0, 0.0, 0.0} {
		t.Errorf("stroke color not set correctly: %v", gs.StrokeColor)
	}

	if gs.FillColor != [3]float64{0.0, 1.0, 0.0} {
		t.Errorf("fill color not set correctly: %v", gs.FillColor)
	}
}

// TestColorsGray tests G and g operators
func TestColorsGray(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetStrokeColorGray(0.5)
	gs.SetFillColorGray(0.25)

	if gs.StrokeColor != [3]float64{0.5, 0.5, 0.5} {
		t.Errorf("stroke gray not set correctly: %v", gs.StrokeColor)
	}

	if gs.FillColor != [3]float64{0.25, 0.25, 0.25} {
		t.Errorf("fill gray not set correctly: %v", gs.FillColor)
	}
}

// TestColorsCMYK tests K and k operators
func TestColorsCMYK(t *testing.T) {
	gs := NewGraphicsState()

	// Pure cyan
	gs.SetFillColorCMYK(1, 0, 0, 0)
	if gs.FillColor != [3]float64{0, 1, 1} {
		t.Errorf("expected fill (0, 1, 1), got %v", gs.FillColor)
	}

	// Pure black via K channel
	gs.SetStrokeColorCMYK(0, 0, 0, 1)
	if gs.StrokeColor != [3]float64{0, 0, 0} {
		t.Errorf("expected stroke (0, 0, 0), got %v", gs.StrokeColor)
	}

	// 50% black halves each channel
	gs.SetFillColorCMYK(0, 0, 0, 0.5)
	if gs.FillColor != [3]float64{0.5, 0.5, 0.5} {
		t.Errorf("expected fill (0.5, 0.5, 0.5), got %v", gs.FillColor)
	}
}

// TestLineWidth tests w operator
func TestLineWidth(t *testing.T) {
	gs := NewGraphicsState()

	gs.SetLineWidth(2.5)

	if gs.LineWidth != 2.5 {
		t.Errorf("expected line width 2.5, got %f", gs.LineWidth)
	}
}

// TestClone tests state cloning
func TestClone(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("Helvetica", 14)
	gs.SetLineWidth(2.0)

	clone := gs.Clone()

	// Modify original
	gs.SetFont("Times", 18)
	gs.SetLineWidth(3.0)

	// Clone should be unchanged
	if clone.Text.FontName != "Helvetica" {
		t.Errorf("clone font should be Helvetica, got %s", clone.Text.FontName)
	}

	if clone.Text.FontSize != 14 {
		t.Errorf("clone font size should be 14, got %f", clone.Text.FontSize)
	}

	if clone.LineWidth != 2.0 {
		t.Errorf("clone line width should be 2.0, got %f", clone.LineWidth)
	}
}

// TestGetEffectiveFontSize tests scaling through Tm and CTM
func TestGetEffectiveFontSize(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", 1)
	gs.SetTextMatrix(model.Matrix{12, 0, 0, 12, 0, 0})

	if size := gs.GetEffectiveFontSize(); math.Abs(size-12) > 0.001 {
		t.Errorf("expected effective size 12, got %f", size)
	}

	// CTM scaling compounds
	gs.Concat(model.Scale(2, 2))
	if size := gs.GetEffectiveFontSize(); math.Abs(size-24) > 0.001 {
		t.Errorf("expected effective size 24, got %f", size)
	}
}

// TestComplexTextFlow tests realistic text flow
func TestComplexTextFlow(t *testing.T) {
	gs := NewGraphicsState()

	// BT
	gs.BeginText()

	// /F1 12 Tf
	gs.SetFont("F1", 12)

	// 72 720 Td
	gs.TranslateText(72, 720)

	// (Hello) Tj advances the text matrix
	gs.AdvanceText(31.2)

	// 0 -14 Td
	gs.TranslateText(0, -14)

	// (World) Tj
	gs.AdvanceText(34.4)

	// ET
	gs.EndText()

	// Text matrix should have moved
	if gs.Text.TextMatrix[4] <= 72 {
		t.Error("text matrix X should have advanced")
	}

	if gs.Text.TextMatrix[5] != 706 {
		t.Errorf("expected Y position 706, got %f", gs.Text.TextMatrix[5])
	}
}
