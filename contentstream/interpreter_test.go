package contentstream

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/model"
)

// uniformWidthFont builds a Type1 font dictionary whose printable ASCII
// glyphs all share one width, keeping advance arithmetic exact in tests.
func uniformWidthFont(width int) core.Dict {
	widths := make(core.Array, 95)
	for i := range widths {
		widths[i] = core.Int(width)
	}
	return core.Dict{
		"Type":      core.Name("Font"),
		"Subtype":   core.Name("Type1"),
		"BaseFont":  core.Name("Helvetica"),
		"FirstChar": core.Int(32),
		"LastChar":  core.Int(126),
		"Widths":    widths,
	}
}

// textResources returns page resources with a single 500-unit-wide font
// under /F1. At size 12 every glyph advances exactly 6 points.
func textResources() core.Dict {
	return core.Dict{
		"Font": core.Dict{"F1": uniformWidthFont(500)},
	}
}

func runStream(t *testing.T, content string, resources core.Dict) (*Interpreter, []model.PageItem) {
	t.Helper()
	ip := NewInterpreter(nil)
	items, err := ip.ExecuteFromBytes([]byte(content), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}
	return ip, items
}

func onlyLines(items []model.PageItem) []*model.LineItem {
	var lines []*model.LineItem
	for _, item := range items {
		if line, ok := item.(*model.LineItem); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func onlyText(items []model.PageItem) []*model.TextItem {
	var texts []*model.TextItem
	for _, item := range items {
		if text, ok := item.(*model.TextItem); ok {
			texts = append(texts, text)
		}
	}
	return texts
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNewInterpreter(t *testing.T) {
	ip := NewInterpreter(nil)
	if ip == nil {
		t.Fatal("NewInterpreter returned nil")
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings on a fresh interpreter, got %d", len(ip.Warnings()))
	}
}

func TestInterpreter_HorizontalLine(t *testing.T) {
	_, items := runStream(t, "0 100 m 200 100 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if !line.IsHorizontal(0.1) {
		t.Error("Expected horizontal line")
	}
	if line.Start.X != 0 || line.Start.Y != 100 {
		t.Errorf("Expected start (0, 100), got (%f, %f)", line.Start.X, line.Start.Y)
	}
	if line.End.X != 200 || line.End.Y != 100 {
		t.Errorf("Expected end (200, 100), got (%f, %f)", line.End.X, line.End.Y)
	}
	if line.StrokeWidth != 1.0 {
		t.Errorf("Expected default stroke width 1.0, got %f", line.StrokeWidth)
	}
	if line.Seq != 0 {
		t.Errorf("Expected sequence 0, got %d", line.Seq)
	}
}

func TestInterpreter_VerticalLine(t *testing.T) {
	_, items := runStream(t, "100 0 m 100 200 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if !lines[0].IsVertical(0.1) {
		t.Error("Expected vertical line")
	}
}

func TestInterpreter_StrokedRectangle(t *testing.T) {
	_, items := runStream(t, "100 100 200 150 re S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 rectangle item, got %d", len(lines))
	}

	rect := lines[0]
	if !rect.IsRect {
		t.Error("Expected IsRect=true")
	}
	if rect.Filled {
		t.Error("Expected Filled=false for stroked rectangle")
	}
	if rect.StrokeWidth != 1.0 {
		t.Errorf("Expected stroke width 1.0, got %f", rect.StrokeWidth)
	}

	bounds := rect.Bounds()
	if bounds.X != 100 || bounds.Y != 100 {
		t.Errorf("Expected bounds at (100, 100), got (%f, %f)", bounds.X, bounds.Y)
	}
	if bounds.Width != 200 || bounds.Height != 150 {
		t.Errorf("Expected size (200, 150), got (%f, %f)", bounds.Width, bounds.Height)
	}
}

func TestInterpreter_FilledRectangle(t *testing.T) {
	_, items := runStream(t, "0 1 0 rg 0 0 100 100 re f", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 rectangle item, got %d", len(lines))
	}

	rect := lines[0]
	if !rect.IsRect {
		t.Error("Expected IsRect=true")
	}
	if !rect.Filled {
		t.Error("Expected Filled=true")
	}
	if rect.StrokeWidth != 0 {
		t.Errorf("Expected no stroke width on fill-only rectangle, got %f", rect.StrokeWidth)
	}
	if rect.Color.G != 255 || rect.Color.R != 0 {
		t.Errorf("Expected green fill, got %v", rect.Color)
	}
}

func TestInterpreter_LineAttributes(t *testing.T) {
	_, items := runStream(t, "2.5 w 1 0 0 RG 0 0 m 100 0 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if line.StrokeWidth != 2.5 {
		t.Errorf("Expected stroke width 2.5, got %f", line.StrokeWidth)
	}
	if line.Color.R != 255 || line.Color.G != 0 || line.Color.B != 0 {
		t.Errorf("Expected red stroke, got %v", line.Color)
	}
}

func TestInterpreter_SaveRestore(t *testing.T) {
	content := "1 w q 5 w 0 0 m 100 0 l S Q 0 50 m 100 50 l S"
	ip, items := runStream(t, content, nil)

	lines := onlyLines(items)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	if lines[0].StrokeWidth != 5.0 {
		t.Errorf("First line: expected width 5.0, got %f", lines[0].StrokeWidth)
	}
	if lines[1].StrokeWidth != 1.0 {
		t.Errorf("Second line: expected width 1.0 (restored), got %f", lines[1].StrokeWidth)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings for balanced q/Q, got %v", ip.Warnings())
	}
}

func TestInterpreter_GrayColors(t *testing.T) {
	_, items := runStream(t, "0.5 G 0.75 g 0 0 100 100 re B", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 rectangle item, got %d", len(lines))
	}

	rect := lines[0]
	if !rect.Filled {
		t.Error("Expected Filled=true for B operator")
	}
	if rect.StrokeWidth != 1.0 {
		t.Errorf("Expected stroke width 1.0 for B operator, got %f", rect.StrokeWidth)
	}
	// A filled rectangle reports its fill color: gray 0.75 rounds to 191
	if rect.Color.R != 191 || rect.Color.G != 191 || rect.Color.B != 191 {
		t.Errorf("Expected gray fill (191, 191, 191), got %v", rect.Color)
	}
}

func TestInterpreter_CMYKColors(t *testing.T) {
	// Pure cyan stroke: C=1 M=0 Y=0 K=0 converts to RGB (0, 1, 1)
	_, items := runStream(t, "1 0 0 0 K 0 0 m 100 0 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Color.R != 0 || lines[0].Color.G != 255 || lines[0].Color.B != 255 {
		t.Errorf("Expected cyan (0, 255, 255), got %v", lines[0].Color)
	}

	// CMYK fill: M=1 Y=1 gives red
	_, items = runStream(t, "0 1 1 0 k 0 0 50 50 re f", nil)

	lines = onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 rectangle, got %d", len(lines))
	}
	if lines[0].Color.R != 255 || lines[0].Color.G != 0 || lines[0].Color.B != 0 {
		t.Errorf("Expected red fill (255, 0, 0), got %v", lines[0].Color)
	}
}

func TestInterpreter_CurvesNotEmitted(t *testing.T) {
	_, items := runStream(t, "0 0 m 50 100 100 100 150 0 c S", nil)

	if len(items) != 0 {
		t.Errorf("Expected no items for a stroked curve, got %d", len(items))
	}
}

func TestInterpreter_CurveOperatorsAdvancePoint(t *testing.T) {
	// v ends at (100, 0); the following line starts there
	_, items := runStream(t, "0 0 m 50 50 100 0 v 100 100 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line after v curve, got %d", len(lines))
	}
	if lines[0].Start.X != 100 || lines[0].Start.Y != 0 {
		t.Errorf("Expected line to start at curve end (100, 0), got (%f, %f)",
			lines[0].Start.X, lines[0].Start.Y)
	}

	// y ends at (100, 100); the following line starts there
	_, items = runStream(t, "0 100 m 50 50 100 100 y 200 100 l S", nil)

	lines = onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line after y curve, got %d", len(lines))
	}
	if lines[0].Start.X != 100 || lines[0].Start.Y != 100 {
		t.Errorf("Expected line to start at curve end (100, 100), got (%f, %f)",
			lines[0].Start.X, lines[0].Start.Y)
	}
}

func TestInterpreter_ClosedTriangle(t *testing.T) {
	_, items := runStream(t, "0 0 m 100 0 l 50 100 l s", nil)

	lines := onlyLines(items)
	if len(lines) != 3 {
		t.Errorf("Expected 3 lines for closed triangle, got %d", len(lines))
	}
}

func TestInterpreter_Transform(t *testing.T) {
	// Scale then translate: cm operands apply before the existing CTM, so
	// the translation moves in the scaled space
	content := "2 0 0 2 0 0 cm 1 0 0 1 10 10 cm 0 0 m 100 0 l S"
	_, items := runStream(t, content, nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if line.Start.X != 20 || line.Start.Y != 20 {
		t.Errorf("Expected start (20, 20), got (%f, %f)", line.Start.X, line.Start.Y)
	}
	if line.End.X != 220 || line.End.Y != 20 {
		t.Errorf("Expected end (220, 20), got (%f, %f)", line.End.X, line.End.Y)
	}
}

func TestInterpreter_TransformRestoredByQ(t *testing.T) {
	content := "q 2 0 0 2 0 0 cm 0 0 m 100 0 l S Q 0 0 m 100 0 l S"
	_, items := runStream(t, content, nil)

	lines := onlyLines(items)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].End.X != 200 {
		t.Errorf("Expected scaled end X 200, got %f", lines[0].End.X)
	}
	if lines[1].End.X != 100 {
		t.Errorf("Expected unscaled end X 100 after Q, got %f", lines[1].End.X)
	}
}

func TestInterpreter_AllPaintOperators(t *testing.T) {
	content := strings.Join([]string{
		"0 0 20 20 re f*",
		"30 0 20 20 re B*",
		"60 0 m 80 0 l 70 20 l b",
		"90 0 m 110 0 l 100 20 l b*",
		"0 50 m 100 50 l n",
	}, " ")
	_, items := runStream(t, content, nil)

	var rects, lines int
	for _, item := range onlyLines(items) {
		if item.IsRect {
			rects++
		} else {
			lines++
		}
	}

	// f* and B* produce rectangles; b and b* close their triangles into
	// 3 lines each; n discards its path
	if rects != 2 {
		t.Errorf("Expected 2 rectangles, got %d", rects)
	}
	if lines != 6 {
		t.Errorf("Expected 6 lines (2 triangles), got %d", lines)
	}
}

func TestInterpreter_MalformedOperandsIgnored(t *testing.T) {
	// Wrong operand counts: w with none, rg with 2, K with 3. Each is
	// skipped and the line still draws with default attributes.
	ip, items := runStream(t, "w 1 0 rg 0 0 0 K 0 0 m 100 0 l S", nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].StrokeWidth != 1.0 {
		t.Errorf("Expected default stroke width 1.0, got %f", lines[0].StrokeWidth)
	}
	if lines[0].Color.R != 0 || lines[0].Color.G != 0 || lines[0].Color.B != 0 {
		t.Errorf("Expected default black stroke, got %v", lines[0].Color)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_UnbalancedSaveWarning(t *testing.T) {
	ip, items := runStream(t, "q q 0 0 m 10 0 l S", nil)

	if len(items) != 1 {
		t.Errorf("Expected 1 item despite unbalanced saves, got %d", len(items))
	}

	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "2 saves") {
		t.Errorf("Expected warning about 2 saves, got %q", warnings[0])
	}
}

func TestInterpreter_UnbalancedRestoreWarning(t *testing.T) {
	ip, _ := runStream(t, "Q", nil)

	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "unbalanced Q") {
		t.Errorf("Expected unbalanced Q warning, got %q", warnings[0])
	}
}

func TestInterpreter_ExecuteResetsState(t *testing.T) {
	ip := NewInterpreter(nil)

	if _, err := ip.ExecuteFromBytes([]byte("q 5 w"), nil); err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}
	if len(ip.Warnings()) != 1 {
		t.Fatalf("Expected 1 warning from first run, got %d", len(ip.Warnings()))
	}

	items, err := ip.ExecuteFromBytes([]byte("0 0 m 100 0 l S"), nil)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].StrokeWidth != 1.0 {
		t.Errorf("Expected fresh line width 1.0, got %f", lines[0].StrokeWidth)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected warnings cleared on new Execute, got %v", ip.Warnings())
	}
}

func TestInterpreter_SimpleText(t *testing.T) {
	content := "BT /F1 12 Tf 100 700 Td (Hello) Tj ET"
	ip, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}

	item := texts[0]
	if item.Text != "Hello" {
		t.Errorf("Expected text 'Hello', got %q", item.Text)
	}
	if item.X != 100 || item.Y != 700 {
		t.Errorf("Expected position (100, 700), got (%f, %f)", item.X, item.Y)
	}
	// 5 glyphs at 500/1000 em, size 12: 5 * 6 points
	if !almostEqual(item.Width, 30) {
		t.Errorf("Expected width 30, got %f", item.Width)
	}
	if item.FontName != "F1" {
		t.Errorf("Expected font name F1, got %q", item.FontName)
	}
	if item.FontSize != 12 {
		t.Errorf("Expected font size 12, got %f", item.FontSize)
	}
	if item.Height != 12 {
		t.Errorf("Expected height 12, got %f", item.Height)
	}
	if item.Seq != 0 {
		t.Errorf("Expected sequence 0, got %d", item.Seq)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_TextRenderingColor(t *testing.T) {
	tests := []struct {
		name string
		mode int
		want model.Color
	}{
		{"fill", 0, model.Color{R: 255}},
		{"stroke", 1, model.Color{B: 255}},
		{"fill and stroke", 2, model.Color{R: 255}},
		{"invisible", 3, model.Color{R: 255}},
		{"stroke and clip", 5, model.Color{B: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := fmt.Sprintf("0 0 1 RG 1 0 0 rg BT /F1 12 Tf %d Tr (A) Tj ET", tt.mode)
			_, items := runStream(t, content, textResources())

			texts := onlyText(items)
			if len(texts) != 1 {
				t.Fatalf("Expected 1 text item, got %d", len(texts))
			}
			if texts[0].Color != tt.want {
				t.Errorf("Expected color %v, got %v", tt.want, texts[0].Color)
			}
		})
	}
}

func TestInterpreter_InvisibleTextEmitted(t *testing.T) {
	// Rendering mode 3 paints nothing but still positions text. OCR
	// layers in scanned documents rely on it, so the item is kept.
	_, items := runStream(t, "BT /F1 12 Tf 3 Tr 50 50 Td (hidden) Tj ET", textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item for invisible text, got %d", len(texts))
	}
	if texts[0].Text != "hidden" {
		t.Errorf("Expected text 'hidden', got %q", texts[0].Text)
	}
}

func TestInterpreter_TJKerning(t *testing.T) {
	t.Run("negative adjustment adds space", func(t *testing.T) {
		content := "BT /F1 12 Tf 0 0 Td [(A) -1000 (B)] TJ ET"
		_, items := runStream(t, content, textResources())

		texts := onlyText(items)
		if len(texts) != 2 {
			t.Fatalf("Expected 2 text items, got %d", len(texts))
		}
		if texts[0].X != 0 {
			t.Errorf("Expected first run at X 0, got %f", texts[0].X)
		}
		// A advances 6 points, then -1000 kerns +12 points
		if !almostEqual(texts[1].X, 18) {
			t.Errorf("Expected second run at X 18, got %f", texts[1].X)
		}
	})

	t.Run("positive adjustment tightens", func(t *testing.T) {
		content := "BT /F1 12 Tf 0 0 Td [(A) 500 (B)] TJ ET"
		_, items := runStream(t, content, textResources())

		texts := onlyText(items)
		if len(texts) != 2 {
			t.Fatalf("Expected 2 text items, got %d", len(texts))
		}
		// A advances 6 points, then 500 kerns -6 points back
		if !almostEqual(texts[1].X, 0) {
			t.Errorf("Expected second run at X 0, got %f", texts[1].X)
		}
	})
}

func TestInterpreter_CharAndWordSpacing(t *testing.T) {
	content := "BT /F1 12 Tf 2 Tc 10 Tw 0 0 Td (A B) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	// Glyphs: 3 * 6 = 18. Char spacing: 3 codes * 2 = 6. Word spacing:
	// 1 space * 10 = 10.
	if !almostEqual(texts[0].Width, 34) {
		t.Errorf("Expected width 34, got %f", texts[0].Width)
	}
}

func TestInterpreter_HorizontalScaling(t *testing.T) {
	content := "BT /F1 12 Tf 50 Tz 0 0 Td (AB) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	// 2 glyphs * 6 points, halved by 50% scaling
	if !almostEqual(texts[0].Width, 6) {
		t.Errorf("Expected width 6, got %f", texts[0].Width)
	}
}

func TestInterpreter_TextMatrixScaling(t *testing.T) {
	content := "BT /F1 12 Tf 2 0 0 2 50 50 Tm (A) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}

	item := texts[0]
	if item.X != 50 || item.Y != 50 {
		t.Errorf("Expected position (50, 50), got (%f, %f)", item.X, item.Y)
	}
	if !almostEqual(item.FontSize, 24) {
		t.Errorf("Expected effective font size 24, got %f", item.FontSize)
	}
	if !almostEqual(item.Width, 12) {
		t.Errorf("Expected width 12 (6 points doubled), got %f", item.Width)
	}
}

func TestInterpreter_TextRise(t *testing.T) {
	content := "BT /F1 12 Tf 0 0 Td 5 Ts (A) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].Y != 5 {
		t.Errorf("Expected rise to lift baseline to Y 5, got %f", texts[0].Y)
	}
	if texts[0].Rise != 5 {
		t.Errorf("Expected rise 5, got %f", texts[0].Rise)
	}
}

func TestInterpreter_TdComposes(t *testing.T) {
	content := "BT /F1 12 Tf 10 20 Td 5 5 Td (A) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].X != 15 || texts[0].Y != 25 {
		t.Errorf("Expected position (15, 25), got (%f, %f)", texts[0].X, texts[0].Y)
	}
}

func TestInterpreter_LeadingAndNextLine(t *testing.T) {
	// TD sets leading to 14, T* reuses it
	content := "BT /F1 12 Tf 100 700 Td 0 -14 TD (A) Tj T* (B) Tj ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 2 {
		t.Fatalf("Expected 2 text items, got %d", len(texts))
	}
	if texts[0].X != 100 || texts[0].Y != 686 {
		t.Errorf("Expected first line at (100, 686), got (%f, %f)", texts[0].X, texts[0].Y)
	}
	if texts[1].X != 100 || texts[1].Y != 672 {
		t.Errorf("Expected second line at (100, 672), got (%f, %f)", texts[1].X, texts[1].Y)
	}
}

func TestInterpreter_ApostropheOperator(t *testing.T) {
	content := "BT /F1 12 Tf 14 TL 100 700 Td (A) Tj (B) ' ET"
	_, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 2 {
		t.Fatalf("Expected 2 text items, got %d", len(texts))
	}
	if texts[1].Text != "B" {
		t.Errorf("Expected second item 'B', got %q", texts[1].Text)
	}
	if texts[1].X != 100 || texts[1].Y != 686 {
		t.Errorf("Expected ' to move to next line (100, 686), got (%f, %f)",
			texts[1].X, texts[1].Y)
	}
}

func TestInterpreter_QuoteOperator(t *testing.T) {
	content := `BT /F1 12 Tf 14 TL 100 700 Td 10 2 (C) " ET`
	ip, items := runStream(t, content, textResources())

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].Text != "C" {
		t.Errorf("Expected text 'C', got %q", texts[0].Text)
	}
	if texts[0].X != 100 || texts[0].Y != 686 {
		t.Errorf(`Expected " to move to next line (100, 686), got (%f, %f)`,
			texts[0].X, texts[0].Y)
	}
	if ip.gs.Text.WordSpacing != 10 {
		t.Errorf("Expected word spacing 10, got %f", ip.gs.Text.WordSpacing)
	}
	if ip.gs.Text.CharSpacing != 2 {
		t.Errorf("Expected char spacing 2, got %f", ip.gs.Text.CharSpacing)
	}
}

func TestInterpreter_FontFallback(t *testing.T) {
	// No resources and no Tf: text still decodes and measures through the
	// built-in Helvetica metrics
	ip, items := runStream(t, "BT 100 100 Td (Hi) Tj ET", nil)

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].Text != "Hi" {
		t.Errorf("Expected text 'Hi', got %q", texts[0].Text)
	}
	// Helvetica: H=722, i=222, at size 12
	if !almostEqual(texts[0].Width, 11.328) {
		t.Errorf("Expected width 11.328, got %f", texts[0].Width)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings for missing resources, got %v", ip.Warnings())
	}
}

func TestInterpreter_UnsupportedFontSubtype(t *testing.T) {
	resources := core.Dict{
		"Font": core.Dict{
			"F1": core.Dict{
				"Type":     core.Name("Font"),
				"Subtype":  core.Name("Type3"),
				"BaseFont": core.Name("Glyphs"),
			},
		},
	}
	ip, items := runStream(t, "BT /F1 12 Tf (A) Tj (B) Tj ET", resources)

	texts := onlyText(items)
	if len(texts) != 2 {
		t.Fatalf("Expected 2 text items via fallback font, got %d", len(texts))
	}

	// The fallback is cached per resource name, so the second show does
	// not warn again
	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "unsupported subtype") {
		t.Errorf("Expected unsupported subtype warning, got %q", warnings[0])
	}
}

func TestInterpreter_RestoreRevertsFont(t *testing.T) {
	resources := core.Dict{
		"Font": core.Dict{
			"F1": uniformWidthFont(500),
			"F2": uniformWidthFont(1000),
		},
	}
	content := "BT /F1 12 Tf q /F2 12 Tf Q 0 0 Td (A) Tj ET"
	_, items := runStream(t, content, resources)

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].FontName != "F1" {
		t.Errorf("Expected font F1 after Q, got %q", texts[0].FontName)
	}
	if !almostEqual(texts[0].Width, 6) {
		t.Errorf("Expected width 6 from F1 metrics, got %f", texts[0].Width)
	}
}

func TestInterpreter_IndirectFontResolved(t *testing.T) {
	objects := map[int]core.Object{
		5: core.Dict{"F1": core.IndirectRef{Number: 7}},
		7: uniformWidthFont(500),
	}
	resolver := func(ref core.IndirectRef) (core.Object, error) {
		obj, ok := objects[ref.Number]
		if !ok {
			return nil, fmt.Errorf("object %d not found", ref.Number)
		}
		return obj, nil
	}

	resources := core.Dict{"Font": core.IndirectRef{Number: 5}}

	ip := NewInterpreter(resolver)
	items, err := ip.ExecuteFromBytes([]byte("BT /F1 12 Tf (A) Tj ET"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if !almostEqual(texts[0].Width, 6) {
		t.Errorf("Expected width 6 from resolved font, got %f", texts[0].Width)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_ResolverFailureFallsBack(t *testing.T) {
	resolver := func(ref core.IndirectRef) (core.Object, error) {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	resources := core.Dict{"Font": core.IndirectRef{Number: 9}}

	ip := NewInterpreter(resolver)
	items, err := ip.ExecuteFromBytes([]byte("BT /F1 12 Tf (A) Tj ET"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item via fallback, got %d", len(texts))
	}
	// Helvetica A is 667/1000 em at size 12
	if !almostEqual(texts[0].Width, 8.004) {
		t.Errorf("Expected fallback width 8.004, got %f", texts[0].Width)
	}
}

func TestInterpreter_Type0TextMeasuredByCID(t *testing.T) {
	type0 := core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type0"),
		"BaseFont": core.Name("NotoSans"),
		"Encoding": core.Name("Identity-H"),
		"DescendantFonts": core.Array{
			core.Dict{
				"Type":     core.Name("Font"),
				"Subtype":  core.Name("CIDFontType2"),
				"BaseFont": core.Name("NotoSans"),
				"CIDSystemInfo": core.Dict{
					"Registry":   core.String("Adobe"),
					"Ordering":   core.String("Identity"),
					"Supplement": core.Int(0),
				},
				"DW": core.Int(1000),
				"W":  core.Array{core.Int(65), core.Array{core.Int(600)}},
			},
		},
	}
	resources := core.Dict{"Font": core.Dict{"F1": type0}}

	// Two-byte codes: CID 0x41 then CID 0x20. The 0x20 bytes are code
	// halves, not word-spacing spaces, so Tw must not apply.
	ops := []Operation{
		{Operator: "BT"},
		{Operator: "Tf", Operands: []core.Object{core.Name("F1"), core.Int(12)}},
		{Operator: "Tw", Operands: []core.Object{core.Int(10)}},
		{Operator: "Td", Operands: []core.Object{core.Int(0), core.Int(0)}},
		{Operator: "Tj", Operands: []core.Object{core.String("\x00A\x00 ")}},
		{Operator: "ET"},
	}

	ip := NewInterpreter(nil)
	items := ip.Execute(ops, resources)

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if texts[0].Text != "A " {
		t.Errorf("Expected text 'A ', got %q", texts[0].Text)
	}
	// CID 65 is 600, CID 32 falls back to DW 1000: (600+1000)/1000 * 12
	if !almostEqual(texts[0].Width, 19.2) {
		t.Errorf("Expected width 19.2 without word spacing, got %f", texts[0].Width)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_DoImage(t *testing.T) {
	img := &core.Stream{
		Dict: core.Dict{
			"Type":    core.Name("XObject"),
			"Subtype": core.Name("Image"),
			"Width":   core.Int(2),
			"Height":  core.Int(2),
		},
		Data: []byte{1, 2, 3, 4},
	}
	resources := core.Dict{"XObject": core.Dict{"Im1": img}}

	ip := NewInterpreter(nil)
	var gotName string
	ip.SetImageFunc(func(name string, stream *core.Stream) (*model.ImageItem, error) {
		gotName = name
		return &model.ImageItem{Data: stream.Data, Format: model.ImageFormatRaw}, nil
	})

	items, err := ip.ExecuteFromBytes([]byte("q 100 0 0 50 20 30 cm /Im1 Do Q"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	if gotName != "Im1" {
		t.Errorf("Expected callback name Im1, got %q", gotName)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	image, ok := items[0].(*model.ImageItem)
	if !ok {
		t.Fatalf("Expected ImageItem, got %T", items[0])
	}
	if image.Name != "Im1" {
		t.Errorf("Expected name Im1, got %q", image.Name)
	}
	// The CTM maps the unit square to a 100x50 box at (20, 30)
	if image.X != 20 || image.Y != 30 {
		t.Errorf("Expected placement (20, 30), got (%f, %f)", image.X, image.Y)
	}
	if image.Width != 100 || image.Height != 50 {
		t.Errorf("Expected size (100, 50), got (%f, %f)", image.Width, image.Height)
	}
	if image.Format != model.ImageFormatRaw {
		t.Errorf("Expected format Raw, got %v", image.Format)
	}
	if len(image.Data) != 4 {
		t.Errorf("Expected 4 data bytes, got %d", len(image.Data))
	}
}

func TestInterpreter_ImageSkippedWithoutFunc(t *testing.T) {
	img := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Image")},
		Data: []byte{0xFF},
	}
	resources := core.Dict{"XObject": core.Dict{"Im1": img}}

	ip := NewInterpreter(nil)
	items, err := ip.ExecuteFromBytes([]byte("/Im1 Do"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	if len(items) != 0 {
		t.Errorf("Expected no items without an image callback, got %d", len(items))
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_ImageErrorWarns(t *testing.T) {
	img := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Image")},
		Data: []byte{0xFF},
	}
	resources := core.Dict{"XObject": core.Dict{"Im1": img}}

	ip := NewInterpreter(nil)
	ip.SetImageFunc(func(name string, stream *core.Stream) (*model.ImageItem, error) {
		return nil, fmt.Errorf("unsupported filter")
	})

	items, err := ip.ExecuteFromBytes([]byte("/Im1 Do"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "image Im1") {
		t.Errorf("Expected image warning naming Im1, got %q", warnings[0])
	}
}

func TestInterpreter_ImageNilItemSkipped(t *testing.T) {
	img := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Image")},
		Data: []byte{0xFF},
	}
	resources := core.Dict{"XObject": core.Dict{"Im1": img}}

	ip := NewInterpreter(nil)
	ip.SetImageFunc(func(name string, stream *core.Stream) (*model.ImageItem, error) {
		return nil, nil
	})

	items, err := ip.ExecuteFromBytes([]byte("/Im1 Do"), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	if len(items) != 0 {
		t.Errorf("Expected nil item to be dropped, got %d items", len(items))
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings for a deliberate drop, got %v", ip.Warnings())
	}
}

func TestInterpreter_MissingXObjectWarns(t *testing.T) {
	ip, items := runStream(t, "/Im9 Do", core.Dict{"XObject": core.Dict{}})

	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "Im9") {
		t.Errorf("Expected warning naming Im9, got %q", warnings[0])
	}
}

func TestInterpreter_DoForm(t *testing.T) {
	form := &core.Stream{
		Dict: core.Dict{
			"Type":    core.Name("XObject"),
			"Subtype": core.Name("Form"),
			"Matrix": core.Array{
				core.Int(2), core.Int(0), core.Int(0),
				core.Int(2), core.Int(0), core.Int(0),
			},
		},
		Data: []byte("0 0 m 100 0 l S"),
	}
	resources := core.Dict{"XObject": core.Dict{"Fm1": form}}

	ip, items := runStream(t, "/Fm1 Do 0 0 m 100 0 l S", resources)

	lines := onlyLines(items)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	// The form's Matrix doubles its line
	if lines[0].End.X != 200 {
		t.Errorf("Expected form line end X 200, got %f", lines[0].End.X)
	}
	// The state was restored, so the page line is unscaled
	if lines[1].End.X != 100 {
		t.Errorf("Expected page line end X 100 after form, got %f", lines[1].End.X)
	}
	if lines[0].Seq != 0 || lines[1].Seq != 1 {
		t.Errorf("Expected sequences 0 and 1, got %d and %d", lines[0].Seq, lines[1].Seq)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_FormOwnResources(t *testing.T) {
	// The form's F1 is twice as wide as the page's F1
	form := &core.Stream{
		Dict: core.Dict{
			"Subtype": core.Name("Form"),
			"Resources": core.Dict{
				"Font": core.Dict{"F1": uniformWidthFont(1000)},
			},
		},
		Data: []byte("BT /F1 12 Tf (A) Tj ET"),
	}
	resources := core.Dict{
		"Font":    core.Dict{"F1": uniformWidthFont(500)},
		"XObject": core.Dict{"Fm1": form},
	}

	_, items := runStream(t, "/Fm1 Do BT /F1 12 Tf (A) Tj ET", resources)

	texts := onlyText(items)
	if len(texts) != 2 {
		t.Fatalf("Expected 2 text items, got %d", len(texts))
	}
	if !almostEqual(texts[0].Width, 12) {
		t.Errorf("Expected form text width 12 from its own font, got %f", texts[0].Width)
	}
	if !almostEqual(texts[1].Width, 6) {
		t.Errorf("Expected page text width 6, got %f", texts[1].Width)
	}
}

func TestInterpreter_FormInheritsPageResources(t *testing.T) {
	form := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Form")},
		Data: []byte("BT /F1 12 Tf (A) Tj ET"),
	}
	resources := core.Dict{
		"Font":    core.Dict{"F1": uniformWidthFont(500)},
		"XObject": core.Dict{"Fm1": form},
	}

	ip, items := runStream(t, "/Fm1 Do", resources)

	texts := onlyText(items)
	if len(texts) != 1 {
		t.Fatalf("Expected 1 text item, got %d", len(texts))
	}
	if !almostEqual(texts[0].Width, 6) {
		t.Errorf("Expected width 6 from the page font, got %f", texts[0].Width)
	}
	if len(ip.Warnings()) != 0 {
		t.Errorf("Expected no warnings, got %v", ip.Warnings())
	}
}

func TestInterpreter_FormRecursionLimited(t *testing.T) {
	// A form that draws itself recurses until the depth limit trips
	form := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Form")},
		Data: []byte("/Fm1 Do"),
	}
	resources := core.Dict{"XObject": core.Dict{"Fm1": form}}

	ip, items := runStream(t, "/Fm1 Do", resources)

	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected exactly 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "nesting depth") {
		t.Errorf("Expected nesting depth warning, got %q", warnings[0])
	}
}

func TestInterpreter_InlineImageWarning(t *testing.T) {
	content := "q BI /W 1 /H 1 /BPC 8 ID \x00 EI Q 0 0 m 10 0 l S"
	ip, items := runStream(t, content, nil)

	lines := onlyLines(items)
	if len(lines) != 1 {
		t.Errorf("Expected the line after the inline image, got %d items", len(lines))
	}

	warnings := ip.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0], "inline image") {
		t.Errorf("Expected inline image warning, got %q", warnings[0])
	}
}

func TestInterpreter_DrawingOrderSequence(t *testing.T) {
	img := &core.Stream{
		Dict: core.Dict{"Subtype": core.Name("Image")},
		Data: []byte{0xFF},
	}
	resources := core.Dict{
		"Font":    core.Dict{"F1": uniformWidthFont(500)},
		"XObject": core.Dict{"Im1": img},
	}

	ip := NewInterpreter(nil)
	ip.SetImageFunc(func(name string, stream *core.Stream) (*model.ImageItem, error) {
		return &model.ImageItem{Data: stream.Data, Format: model.ImageFormatRaw}, nil
	})

	content := "BT /F1 12 Tf 0 700 Td (A) Tj ET " +
		"0 0 m 100 0 l S " +
		"q 10 0 0 10 0 0 cm /Im1 Do Q " +
		"BT /F1 12 Tf 0 650 Td (B) Tj ET"
	items, err := ip.ExecuteFromBytes([]byte(content), resources)
	if err != nil {
		t.Fatalf("ExecuteFromBytes failed: %v", err)
	}

	if len(items) != 4 {
		t.Fatalf("Expected 4 items, got %d", len(items))
	}

	for i, item := range items {
		if item.Sequence() != i {
			t.Errorf("Item %d: expected sequence %d, got %d", i, i, item.Sequence())
		}
	}

	if _, ok := items[0].(*model.TextItem); !ok {
		t.Errorf("Item 0: expected TextItem, got %T", items[0])
	}
	if _, ok := items[1].(*model.LineItem); !ok {
		t.Errorf("Item 1: expected LineItem, got %T", items[1])
	}
	if _, ok := items[2].(*model.ImageItem); !ok {
		t.Errorf("Item 2: expected ImageItem, got %T", items[2])
	}
	if _, ok := items[3].(*model.TextItem); !ok {
		t.Errorf("Item 3: expected TextItem, got %T", items[3])
	}
}

// Benchmark

func BenchmarkInterpreter_Execute(b *testing.B) {
	content := []byte("BT /F1 12 Tf 72 720 Td (Quarterly results by region) Tj " +
		"0 -14 Td [(Revenue) -500 (grew) -500 (4%)] TJ ET " +
		"q 0.5 w 72 700 m 540 700 l S 72 540 468 160 re S Q")
	resources := core.Dict{"Font": core.Dict{"F1": uniformWidthFont(500)}}

	operations, err := NewParser(content).Parse()
	if err != nil {
		b.Fatalf("Parse failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ip := NewInterpreter(nil)
		ip.Execute(operations, resources)
	}
}
