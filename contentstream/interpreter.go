package contentstream

import (
	"fmt"
	"math"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/font"
	"github.com/quirepdf/quire/graphicsstate"
	"github.com/quirepdf/quire/model"
)

// maxFormDepth bounds form XObject recursion so a self-referential form
// cannot run forever.
const maxFormDepth = 12

// ImageFunc resolves an image XObject stream into an image item. The
// interpreter fills in the item's name, placement, and sequence number;
// the callback supplies the decoded data and format. Returning a nil item
// without an error drops the image silently.
type ImageFunc func(name string, stream *core.Stream) (*model.ImageItem, error)

// pageFont is the view of a parsed font the interpreter needs: decoding
// raw show-string bytes and measuring decoded characters.
type pageFont interface {
	DecodeString(data []byte) string
	GetWidth(r rune) float64
}

// frame holds the resource context for one content stream. Form XObjects
// execute in their own frame so their resource names cannot collide with
// the page's.
type frame struct {
	res   core.Dict
	fonts map[string]pageFont
}

// Interpreter executes content stream operations against a page's
// resources, emitting every text run, image placement, and painted path
// as page items in drawing order.
//
// Structural problems (unbalanced q/Q, skipped inline images, broken
// forms) degrade the output and are recorded as warnings rather than
// stopping execution.
type Interpreter struct {
	gs    *graphicsstate.GraphicsState
	paths *graphicsstate.PathExtractor

	resolver font.Resolver
	imageFn  ImageFunc

	items    []model.PageItem
	seq      int
	warnings []string
}

// NewInterpreter creates an interpreter. The resolver loads indirect
// objects referenced by font and XObject resources and may be nil when
// the resources are fully direct.
func NewInterpreter(resolver font.Resolver) *Interpreter {
	gs := graphicsstate.NewGraphicsState()
	return &Interpreter{
		gs:       gs,
		paths:    graphicsstate.NewPathExtractor(gs),
		resolver: resolver,
	}
}

// SetImageFunc installs the callback used to decode image XObjects drawn
// by the Do operator. Without one, images are skipped.
func (ip *Interpreter) SetImageFunc(fn ImageFunc) {
	ip.imageFn = fn
}

// Execute runs the operations against the given page resources and
// returns the emitted items in drawing order. Calling Execute again
// resets all state, so one interpreter can process pages sequentially.
func (ip *Interpreter) Execute(operations []Operation, resources core.Dict) []model.PageItem {
	ip.gs = graphicsstate.NewGraphicsState()
	ip.paths = graphicsstate.NewPathExtractor(ip.gs)
	ip.items = nil
	ip.seq = 0
	ip.warnings = nil

	fr := &frame{res: resources, fonts: make(map[string]pageFont)}
	ip.execute(operations, fr, 0)

	if d := ip.gs.Depth(); d > 0 {
		ip.warnf("unbalanced graphics state: %d saves without restore", d)
	}

	return ip.items
}

// ExecuteFromBytes parses and executes raw content stream data.
func (ip *Interpreter) ExecuteFromBytes(data []byte, resources core.Dict) ([]model.PageItem, error) {
	parser := NewParser(data)
	operations, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse content stream: %w", err)
	}
	return ip.Execute(operations, resources), nil
}

// Warnings returns descriptions of every structural problem encountered
// during the last Execute.
func (ip *Interpreter) Warnings() []string {
	return ip.warnings
}

func (ip *Interpreter) warnf(format string, args ...interface{}) {
	ip.warnings = append(ip.warnings, fmt.Sprintf(format, args...))
}

// execute runs a sequence of operations within one resource frame. depth
// counts nested form XObjects.
func (ip *Interpreter) execute(operations []Operation, fr *frame, depth int) {
	for _, op := range operations {
		ip.processOperation(op, fr, depth)
	}
}

// processOperation dispatches a single content stream operation.
func (ip *Interpreter) processOperation(op Operation, fr *frame, depth int) {
	switch op.Operator {
	// Graphics state operators
	case "q":
		ip.gs.Save()
	case "Q":
		if err := ip.gs.Restore(); err != nil {
			ip.warnf("unbalanced Q: %v", err)
		}
	case "cm":
		if len(op.Operands) == 6 {
			ip.gs.Concat(operandsToMatrix(op.Operands))
		}
	case "w":
		if len(op.Operands) == 1 {
			if w, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetLineWidth(w)
			}
		}
	case "J":
		if len(op.Operands) == 1 {
			if c, ok := toInt(op.Operands[0]); ok {
				ip.gs.SetLineCap(c)
			}
		}
	case "j":
		if len(op.Operands) == 1 {
			if jn, ok := toInt(op.Operands[0]); ok {
				ip.gs.SetLineJoin(jn)
			}
		}
	case "M":
		if len(op.Operands) == 1 {
			if limit, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetMiterLimit(limit)
			}
		}
	case "d":
		if len(op.Operands) == 2 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				phase, _ := toFloat(op.Operands[1])
				ip.gs.SetDash(toFloats(arr), phase)
			}
		}

	// Color operators
	case "RG":
		if len(op.Operands) == 3 {
			r, _ := toFloat(op.Operands[0])
			g, _ := toFloat(op.Operands[1])
			b, _ := toFloat(op.Operands[2])
			ip.gs.SetStrokeColorRGB(r, g, b)
		}
	case "rg":
		if len(op.Operands) == 3 {
			r, _ := toFloat(op.Operands[0])
			g, _ := toFloat(op.Operands[1])
			b, _ := toFloat(op.Operands[2])
			ip.gs.SetFillColorRGB(r, g, b)
		}
	case "G":
		if len(op.Operands) == 1 {
			gray, _ := toFloat(op.Operands[0])
			ip.gs.SetStrokeColorGray(gray)
		}
	case "g":
		if len(op.Operands) == 1 {
			gray, _ := toFloat(op.Operands[0])
			ip.gs.SetFillColorGray(gray)
		}
	case "K":
		if len(op.Operands) == 4 {
			c, _ := toFloat(op.Operands[0])
			m, _ := toFloat(op.Operands[1])
			y, _ := toFloat(op.Operands[2])
			k, _ := toFloat(op.Operands[3])
			ip.gs.SetStrokeColorCMYK(c, m, y, k)
		}
	case "k":
		if len(op.Operands) == 4 {
			c, _ := toFloat(op.Operands[0])
			m, _ := toFloat(op.Operands[1])
			y, _ := toFloat(op.Operands[2])
			k, _ := toFloat(op.Operands[3])
			ip.gs.SetFillColorCMYK(c, m, y, k)
		}

	// Text object and state
	case "BT":
		ip.gs.BeginText()
	case "ET":
		ip.gs.EndText()
	case "Tf":
		if len(op.Operands) == 2 {
			if name, ok := op.Operands[0].(core.Name); ok {
				if size, ok := toFloat(op.Operands[1]); ok {
					ip.gs.SetFont(string(name), size)
				}
			}
		}
	case "Tc":
		if len(op.Operands) == 1 {
			if spacing, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetCharSpacing(spacing)
			}
		}
	case "Tw":
		if len(op.Operands) == 1 {
			if spacing, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetWordSpacing(spacing)
			}
		}
	case "Tz":
		if len(op.Operands) == 1 {
			if scale, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetHorizontalScaling(scale)
			}
		}
	case "TL":
		if len(op.Operands) == 1 {
			if leading, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetLeading(leading)
			}
		}
	case "Tr":
		if len(op.Operands) == 1 {
			if mode, ok := toInt(op.Operands[0]); ok {
				ip.gs.SetRenderingMode(mode)
			}
		}
	case "Ts":
		if len(op.Operands) == 1 {
			if rise, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetTextRise(rise)
			}
		}

	// Text positioning
	case "Tm":
		if len(op.Operands) == 6 {
			ip.gs.SetTextMatrix(operandsToMatrix(op.Operands))
		}
	case "Td":
		if len(op.Operands) == 2 {
			tx, _ := toFloat(op.Operands[0])
			ty, _ := toFloat(op.Operands[1])
			ip.gs.TranslateText(tx, ty)
		}
	case "TD":
		if len(op.Operands) == 2 {
			tx, _ := toFloat(op.Operands[0])
			ty, _ := toFloat(op.Operands[1])
			ip.gs.TranslateTextSetLeading(tx, ty)
		}
	case "T*":
		ip.gs.NextLine()

	// Text showing
	case "Tj":
		if len(op.Operands) == 1 {
			if str, ok := op.Operands[0].(core.String); ok {
				ip.showText([]byte(str), fr)
			}
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				ip.showTextArray(arr, fr)
			}
		}
	case "'":
		ip.gs.NextLine()
		if len(op.Operands) == 1 {
			if str, ok := op.Operands[0].(core.String); ok {
				ip.showText([]byte(str), fr)
			}
		}
	case "\"":
		if len(op.Operands) == 3 {
			if wordSpacing, ok := toFloat(op.Operands[0]); ok {
				ip.gs.SetWordSpacing(wordSpacing)
			}
			if charSpacing, ok := toFloat(op.Operands[1]); ok {
				ip.gs.SetCharSpacing(charSpacing)
			}
			ip.gs.NextLine()
			if str, ok := op.Operands[2].(core.String); ok {
				ip.showText([]byte(str), fr)
			}
		}

	// Path construction operators
	case "m":
		if len(op.Operands) == 2 {
			x, _ := toFloat(op.Operands[0])
			y, _ := toFloat(op.Operands[1])
			ip.paths.MoveTo(x, y)
		}
	case "l":
		if len(op.Operands) == 2 {
			x, _ := toFloat(op.Operands[0])
			y, _ := toFloat(op.Operands[1])
			ip.paths.LineTo(x, y)
		}
	case "c":
		if len(op.Operands) == 6 {
			x1, _ := toFloat(op.Operands[0])
			y1, _ := toFloat(op.Operands[1])
			x2, _ := toFloat(op.Operands[2])
			y2, _ := toFloat(op.Operands[3])
			x3, _ := toFloat(op.Operands[4])
			y3, _ := toFloat(op.Operands[5])
			ip.paths.CurveTo(x1, y1, x2, y2, x3, y3)
		}
	case "v":
		if len(op.Operands) == 4 {
			x2, _ := toFloat(op.Operands[0])
			y2, _ := toFloat(op.Operands[1])
			x3, _ := toFloat(op.Operands[2])
			y3, _ := toFloat(op.Operands[3])
			ip.paths.CurveToV(x2, y2, x3, y3)
		}
	case "y":
		if len(op.Operands) == 4 {
			x1, _ := toFloat(op.Operands[0])
			y1, _ := toFloat(op.Operands[1])
			x3, _ := toFloat(op.Operands[2])
			y3, _ := toFloat(op.Operands[3])
			ip.paths.CurveToY(x1, y1, x3, y3)
		}
	case "h":
		ip.paths.ClosePath()
	case "re":
		if len(op.Operands) == 4 {
			x, _ := toFloat(op.Operands[0])
			y, _ := toFloat(op.Operands[1])
			w, _ := toFloat(op.Operands[2])
			h, _ := toFloat(op.Operands[3])
			ip.paths.Rectangle(x, y, w, h)
		}

	// Path painting operators
	case "S":
		ip.paths.Stroke()
		ip.drainPaths()
	case "s":
		ip.paths.CloseAndStroke()
		ip.drainPaths()
	case "f", "F":
		ip.paths.Fill()
		ip.drainPaths()
	case "f*":
		ip.paths.FillEvenOdd()
		ip.drainPaths()
	case "B":
		ip.paths.FillAndStroke()
		ip.drainPaths()
	case "B*":
		ip.paths.FillAndStrokeEvenOdd()
		ip.drainPaths()
	case "b":
		ip.paths.CloseFillAndStroke()
		ip.drainPaths()
	case "b*":
		ip.paths.CloseFillAndStrokeEvenOdd()
		ip.drainPaths()
	case "n":
		ip.paths.EndPath()

	// XObjects
	case "Do":
		if len(op.Operands) == 1 {
			if name, ok := op.Operands[0].(core.Name); ok {
				ip.doXObject(string(name), fr, depth)
			}
		}
	case "BI":
		ip.warnf("inline image skipped")
	}
}

// drainPaths moves items emitted by the last painting operator into the
// page item stream, preserving drawing order.
func (ip *Interpreter) drainPaths() {
	for _, line := range ip.paths.TakeItems() {
		line.Seq = ip.seq
		ip.seq++
		ip.items = append(ip.items, line)
	}
}

// showText emits one text item for a show-string and advances the text
// matrix by its displacement.
func (ip *Interpreter) showText(data []byte, fr *frame) {
	if len(data) == 0 {
		return
	}

	f := ip.currentFont(fr)
	decoded := f.DecodeString(data)

	units, codes, spaces := measureText(f, data, decoded)

	ts := ip.gs.Text
	// Text-space displacement: glyph widths are in thousandths of the
	// font size; character and word spacing apply per code; horizontal
	// scaling stretches the whole run.
	advance := (units/1000.0*ts.FontSize +
		float64(codes)*ts.CharSpacing +
		float64(spaces)*ts.WordSpacing) * ts.HorizontalScaling / 100.0

	if decoded != "" {
		x, y := ip.gs.GetTextPosition()
		combined := ip.gs.GetTextMatrix().Multiply(ip.gs.CTM)
		scaleX := math.Hypot(combined[0], combined[1])
		size := ip.gs.GetEffectiveFontSize()

		item := &model.TextItem{
			Text:     decoded,
			X:        x,
			Y:        y,
			Width:    advance * scaleX,
			Height:   size,
			FontName: ts.FontName,
			FontSize: size,
			Color:    ip.textColor(),
			Rise:     ts.Rise,
			Seq:      ip.seq,
		}
		ip.seq++
		ip.items = append(ip.items, item)
	}

	ip.gs.AdvanceText(advance)
}

// showTextArray processes a TJ array: strings are shown, numbers are
// kerning adjustments in thousandths of the font size.
func (ip *Interpreter) showTextArray(arr core.Array, fr *frame) {
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			ip.showText([]byte(v), fr)
		case core.Int:
			ip.kern(float64(v))
		case core.Real:
			ip.kern(float64(v))
		}
	}
}

// kern applies a TJ numeric adjustment. Positive values move the next
// glyph left, so the displacement is negated.
func (ip *Interpreter) kern(v float64) {
	ts := ip.gs.Text
	ip.gs.AdvanceText(-v / 1000.0 * ts.FontSize * ts.HorizontalScaling / 100.0)
}

// textColor picks the color text renders with: stroke-only modes use the
// stroke color, everything else fills.
func (ip *Interpreter) textColor() model.Color {
	var c [3]float64
	switch ip.gs.Text.RenderingMode {
	case 1, 5:
		c = ip.gs.StrokeColor
	default:
		c = ip.gs.FillColor
	}
	return model.ColorFromFloats(c[0], c[1], c[2])
}

// measureText sums glyph widths in thousandths and counts the codes and
// space codes the spacing parameters apply to. Composite fonts consume
// 2-byte codes and measure by CID; word spacing never applies to them.
func measureText(f pageFont, data []byte, decoded string) (units float64, codes, spaces int) {
	if t0, ok := f.(*font.Type0Font); ok {
		for i := 0; i+1 < len(data); i += 2 {
			cid := int(data[i])<<8 | int(data[i+1])
			units += t0.GetWidth(rune(cid))
			codes++
		}
		return units, codes, 0
	}

	for _, b := range data {
		codes++
		if b == ' ' {
			spaces++
		}
	}
	for _, r := range decoded {
		units += f.GetWidth(r)
	}
	return units, codes, spaces
}

// currentFont returns the parsed font for the state's font name, parsing
// and caching it on first use. Unparseable or missing fonts fall back to
// a built-in face so text still decodes and measures.
func (ip *Interpreter) currentFont(fr *frame) pageFont {
	name := ip.gs.GetFontName()
	if f, ok := fr.fonts[name]; ok {
		return f
	}

	f := ip.loadFont(fr, name)
	if f == nil {
		f = font.NewFont(name, "Helvetica", "Type1")
	}
	fr.fonts[name] = f
	return f
}

// loadFont parses the named font from the frame's resources. A nil
// return means the caller should fall back; the reason has already been
// recorded as a warning where one is useful.
func (ip *Interpreter) loadFont(fr *frame, name string) pageFont {
	if fr.res == nil || name == "" {
		return nil
	}

	fontsDict := asDict(ip.resolve(fr.res.Get("Font")))
	if fontsDict == nil {
		return nil
	}

	fontDict := asDict(ip.resolve(fontsDict.Get(name)))
	if fontDict == nil {
		return nil
	}

	subtype, _ := fontDict.GetName("Subtype")
	switch string(subtype) {
	case "Type1", "MMType1":
		t1, err := font.NewType1Font(fontDict, ip.resolver)
		if err != nil {
			ip.warnf("font %s: %v", name, err)
			return nil
		}
		return t1
	case "TrueType":
		tt, err := font.NewTrueTypeFont(fontDict, ip.resolver)
		if err != nil {
			ip.warnf("font %s: %v", name, err)
			return nil
		}
		return tt
	case "Type0":
		t0, err := font.NewType0Font(fontDict, ip.resolver)
		if err != nil {
			ip.warnf("font %s: %v", name, err)
			return nil
		}
		return t0
	default:
		ip.warnf("font %s: unsupported subtype %q", name, string(subtype))
		return nil
	}
}

// doXObject draws the named XObject: images through the image callback,
// forms by executing their content with the current state seeded.
func (ip *Interpreter) doXObject(name string, fr *frame, depth int) {
	if fr.res == nil {
		ip.warnf("XObject %s: no resources", name)
		return
	}

	xobjects := asDict(ip.resolve(fr.res.Get("XObject")))
	if xobjects == nil {
		ip.warnf("XObject %s: no XObject resources", name)
		return
	}

	stream := asStream(ip.resolve(xobjects.Get(name)))
	if stream == nil {
		ip.warnf("XObject %s not found", name)
		return
	}

	subtype, _ := stream.Dict.GetName("Subtype")
	switch string(subtype) {
	case "Image":
		ip.drawImage(name, stream)
	case "Form":
		ip.runForm(name, stream, fr, depth)
	default:
		ip.warnf("XObject %s: unsupported subtype %q", name, string(subtype))
	}
}

// drawImage emits an image item placed where the CTM maps the unit
// square.
func (ip *Interpreter) drawImage(name string, stream *core.Stream) {
	if ip.imageFn == nil {
		return
	}

	item, err := ip.imageFn(name, stream)
	if err != nil {
		ip.warnf("image %s: %v", name, err)
		return
	}
	if item == nil {
		return
	}

	// An image paints into the unit square in user space
	corners := []model.Point{
		ip.gs.CTM.Transform(model.Point{X: 0, Y: 0}),
		ip.gs.CTM.Transform(model.Point{X: 1, Y: 0}),
		ip.gs.CTM.Transform(model.Point{X: 1, Y: 1}),
		ip.gs.CTM.Transform(model.Point{X: 0, Y: 1}),
	}
	bbox := model.BBoxEnclosing(corners...)

	item.Name = name
	item.X = bbox.X
	item.Y = bbox.Y
	item.Width = bbox.Width
	item.Height = bbox.Height
	item.Seq = ip.seq
	ip.seq++
	ip.items = append(ip.items, item)
}

// runForm executes a form XObject's content stream with the current
// graphics state pushed, the form's /Matrix applied, and the form's own
// resources (falling back to the parent's) in scope.
func (ip *Interpreter) runForm(name string, stream *core.Stream, fr *frame, depth int) {
	if depth >= maxFormDepth {
		ip.warnf("form %s: nesting depth %d exceeded", name, maxFormDepth)
		return
	}

	data, err := stream.Decode()
	if err != nil {
		ip.warnf("form %s: %v", name, err)
		return
	}

	operations, err := NewParser(data).Parse()
	if err != nil {
		ip.warnf("form %s: %v", name, err)
		return
	}

	res := asDict(ip.resolve(stream.Dict.Get("Resources")))
	if res == nil {
		res = fr.res
	}

	ip.gs.Save()
	if arr, ok := stream.Dict.GetArray("Matrix"); ok && len(arr) == 6 {
		var m model.Matrix
		for i, obj := range arr {
			m[i], _ = toFloat(obj)
		}
		ip.gs.Concat(m)
	}

	sub := &frame{res: res, fonts: make(map[string]pageFont)}
	ip.execute(operations, sub, depth+1)

	if err := ip.gs.Restore(); err != nil {
		ip.warnf("form %s: %v", name, err)
	}
}

// resolve follows an indirect reference through the resolver. Unresolvable
// references come back nil.
func (ip *Interpreter) resolve(obj core.Object) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj
	}
	if ip.resolver == nil {
		return nil
	}
	resolved, err := ip.resolver(ref)
	if err != nil {
		return nil
	}
	return resolved
}

// Helper functions

func asDict(obj core.Object) core.Dict {
	if d, ok := obj.(core.Dict); ok {
		return d
	}
	return nil
}

func asStream(obj core.Object) *core.Stream {
	if s, ok := obj.(*core.Stream); ok {
		return s
	}
	return nil
}

func toFloat(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	default:
		return 0, false
	}
}

func toInt(obj core.Object) (int, bool) {
	if i, ok := obj.(core.Int); ok {
		return int(i), true
	}
	return 0, false
}

func toFloats(arr core.Array) []float64 {
	out := make([]float64, 0, len(arr))
	for _, obj := range arr {
		if v, ok := toFloat(obj); ok {
			out = append(out, v)
		}
	}
	return out
}

func operandsToMatrix(operands []core.Object) model.Matrix {
	if len(operands) != 6 {
		return model.Identity()
	}
	var m model.Matrix
	for i, op := range operands {
		m[i], _ = toFloat(op)
	}
	return m
}
