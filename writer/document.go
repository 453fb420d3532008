package writer

import (
	"io"
	"sort"
	"strings"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/font"
	"github.com/quirepdf/quire/model"
)

// Default page size in points (US Letter) for pages that declare no
// dimensions of their own.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// DocumentWriter turns a model.Document into a complete PDF file. It
// owns the registered fonts for the lifetime of one output document
// and accumulates link annotations per target page until WriteTo
// flushes them.
type DocumentWriter struct {
	doc   *model.Document
	fonts *fontSet

	// links queued by 0-based page index, merged into the page's
	// /Annots array during WriteTo, before any offset is recorded.
	links map[int][]*model.Annotation
}

// NewDocumentWriter creates a writer for the given document tree.
func NewDocumentWriter(doc *model.Document) *DocumentWriter {
	return &DocumentWriter{
		doc:   doc,
		fonts: newFontSet(),
		links: make(map[int][]*model.Annotation),
	}
}

// EmbedFont registers a TrueType font program under a family name.
// Text whose font name matches the family is written with the embedded
// font; each family embeds at most once.
func (dw *DocumentWriter) EmbedFont(family string, program []byte) error {
	embedded, err := font.LoadEmbedded(family, program)
	if err != nil {
		return err
	}
	dw.fonts.Embed(embedded)
	return nil
}

// AddLink queues a link annotation for a page. Queued links join the
// page's own annotations in its /Annots array.
func (dw *DocumentWriter) AddLink(pageIndex int, annot *model.Annotation) {
	dw.links[pageIndex] = append(dw.links[pageIndex], annot)
}

// pageContent is one page's built operator stream plus the resource
// names it actually used, so the page's /Resources dictionary declares
// exactly what its content references.
type pageContent struct {
	builder    ContentBuilder
	usedFonts  map[string]bool
	usedImages map[string]bool
}

// WriteTo assembles the document and writes the complete byte stream.
// Content is built for every page first, so embedded font subsets and
// width arrays cover each glyph any page used, then fonts, images,
// streams, pages, and the skeleton objects are emitted in order.
func (dw *DocumentWriter) WriteTo(out io.Writer) error {
	w := NewWriter()
	images := newImageSet()

	contents := make([]*pageContent, len(dw.doc.Pages))
	for i, page := range dw.doc.Pages {
		contents[i] = dw.buildPage(page, images)
	}

	fontRefs, err := dw.fonts.writeObjects(w)
	if err != nil {
		return err
	}
	imageRefs, err := images.writeObjects(w)
	if err != nil {
		return err
	}

	kids := make(core.Array, 0, len(dw.doc.Pages))
	for i, page := range dw.doc.Pages {
		pc := contents[i]

		streamID, err := w.AddObject(MakeCompressedStream(core.Dict{}, pc.builder.Bytes()))
		if err != nil {
			return err
		}

		width, height := page.Width, page.Height
		if width <= 0 || height <= 0 {
			width, height = defaultPageWidth, defaultPageHeight
		}

		pageDict := core.Dict{
			"Type":      core.Name("Page"),
			"Parent":    Ref(PageTreeID),
			"MediaBox":  numberArray(0, 0, width, height),
			"Contents":  Ref(streamID),
			"Resources": pc.resources(fontRefs, imageRefs),
		}

		annots, err := dw.writeAnnotations(w, page, i)
		if err != nil {
			return err
		}
		if len(annots) > 0 {
			pageDict["Annots"] = annots
		}

		pageID, err := w.AddObject(pageDict)
		if err != nil {
			return err
		}
		kids = append(kids, Ref(pageID))
	}

	if err := w.SetObject(PageTreeID, core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  kids,
		"Count": core.Int(len(kids)),
	}); err != nil {
		return err
	}
	if err := w.SetObject(CatalogID, core.Dict{
		"Type":  core.Name("Catalog"),
		"Pages": Ref(PageTreeID),
	}); err != nil {
		return err
	}
	if err := w.SetObject(InfoID, infoDict(dw.doc.Metadata)); err != nil {
		return err
	}

	return w.Flush(out)
}

// resources builds the page's /Resources dictionary from the names its
// content stream used.
func (pc *pageContent) resources(fontRefs, imageRefs map[string]core.IndirectRef) core.Dict {
	res := core.Dict{}
	if len(pc.usedFonts) > 0 {
		fonts := core.Dict{}
		for name := range pc.usedFonts {
			if ref, ok := fontRefs[name]; ok {
				fonts[name] = ref
			}
		}
		res["Font"] = fonts
	}
	if len(pc.usedImages) > 0 {
		xobjects := core.Dict{}
		for name := range pc.usedImages {
			if ref, ok := imageRefs[name]; ok {
				xobjects[name] = ref
			}
		}
		res["XObject"] = xobjects
	}
	return res
}

// writeAnnotations emits the page's annotations plus any queued links
// and returns the /Annots reference array.
func (dw *DocumentWriter) writeAnnotations(w *Writer, page *model.Page, pageIndex int) (core.Array, error) {
	annots := make([]*model.Annotation, 0, len(page.Annotations)+len(dw.links[pageIndex]))
	annots = append(annots, page.Annotations...)
	annots = append(annots, dw.links[pageIndex]...)

	var arr core.Array
	for _, a := range annots {
		dict, err := annotationDict(a)
		if err != nil {
			return nil, err
		}
		id, err := w.AddObject(dict)
		if err != nil {
			return nil, err
		}
		arr = append(arr, Ref(id))
	}
	return arr, nil
}

// buildPage renders one page into operators. Reconstructed elements
// take precedence; a page carrying only raw items (a round-trip of
// interpreter output) renders those instead.
func (dw *DocumentWriter) buildPage(page *model.Page, images *imageSet) *pageContent {
	pc := &pageContent{
		usedFonts:  make(map[string]bool),
		usedImages: make(map[string]bool),
	}
	if len(page.Elements) > 0 {
		elements := make([]model.Element, len(page.Elements))
		copy(elements, page.Elements)
		sort.SliceStable(elements, func(i, j int) bool {
			return elements[i].ZIndex() < elements[j].ZIndex()
		})
		for _, elem := range elements {
			dw.renderElement(pc, elem, images)
		}
		return pc
	}
	for _, item := range page.Items {
		dw.renderItem(pc, item, images)
	}
	return pc
}

func (dw *DocumentWriter) renderElement(pc *pageContent, elem model.Element, images *imageSet) {
	switch e := elem.(type) {
	case *model.Heading:
		style := e.Style
		style.Bold = true
		dw.renderTextBlock(pc, e.Text, e.BBox, e.FontName, e.FontSize, style)
	case *model.Paragraph:
		dw.renderTextBlock(pc, e.Text, e.BBox, e.FontName, e.FontSize, e.Style)
	case *model.Table:
		dw.renderTable(pc, e)
	case *model.Image:
		name := images.Register(e.Data, e.Format)
		pc.usedImages[name] = true
		pc.builder.DrawImage(name, e.BBox.X, e.BBox.Y, e.BBox.Width, e.BBox.Height)
	}
}

func (dw *DocumentWriter) renderItem(pc *pageContent, item model.PageItem, images *imageSet) {
	switch it := item.(type) {
	case *model.TextItem:
		style := model.TextStyle{Underline: it.Underline, Strike: it.Strike, Color: it.Color}
		dw.renderTextRun(pc, it.Text, it.X, it.Y, it.FontName, it.FontSize, it.Rise, style, it.Width)
	case *model.ImageItem:
		name := images.Register(it.Data, it.Format)
		pc.usedImages[name] = true
		pc.builder.DrawImage(name, it.X, it.Y, it.Width, it.Height)
	case *model.LineItem:
		b := &pc.builder
		if it.IsRect {
			box := it.Bounds()
			if it.Filled {
				b.SetFillColor(it.Color)
				b.FillRect(box.X, box.Y, box.Width, box.Height)
			} else {
				b.SetStrokeColor(it.Color)
				b.SetLineWidth(it.StrokeWidth)
				b.StrokeRect(box.X, box.Y, box.Width, box.Height)
			}
			return
		}
		b.SetStrokeColor(it.Color)
		b.SetLineWidth(it.StrokeWidth)
		b.Line(it.Start.X, it.Start.Y, it.End.X, it.End.Y)
	}
}

// selectFont picks the resource to show text with: the embedded font
// registered under the same family when there is one, else the
// standard-14 face closest to the requested name and style.
func (dw *DocumentWriter) selectFont(pc *pageContent, name string, style model.TextStyle) (string, *font.Embedded) {
	family := font.StripSubsetTag(name)
	if embedded, ok := dw.fonts.Embedded(family); ok {
		res := embedded.Resource()
		pc.usedFonts[res] = true
		return res, embedded
	}
	res := dw.fonts.Builtin(standardFace(name, style.Bold, style.Italic))
	pc.usedFonts[res] = true
	return res, nil
}

// renderTextRun writes one positioned run at its baseline origin.
func (dw *DocumentWriter) renderTextRun(pc *pageContent, text string, x, y float64,
	fontName string, size float64, rise float64, style model.TextStyle, width float64) {
	if text == "" {
		return
	}
	if size <= 0 {
		size = 12
	}
	b := &pc.builder
	res, embedded := dw.selectFont(pc, fontName, style)

	b.BeginText()
	b.SetFillColor(style.Color)
	b.SetFont(res, size)
	if rise != 0 {
		b.SetTextRise(rise)
	}
	b.MoveText(x, y)
	if embedded != nil {
		b.ShowGlyphs(embedded.EncodeString(text))
	} else {
		b.ShowString(text)
	}
	b.EndText()

	if style.Underline || style.Strike {
		if width <= 0 {
			width = measureRun(text, embedded, fontName, size)
		}
		b.SetStrokeColor(style.Color)
		b.SetLineWidth(size / 14)
		if style.Underline {
			b.Line(x, y-size*0.12, x+width, y-size*0.12)
		}
		if style.Strike {
			b.Line(x, y+size*0.28, x+width, y+size*0.28)
		}
	}
}

// renderTextBlock writes a multi-line block inside its bounding box,
// first baseline dropped one em below the top edge, following lines
// advanced by a 1.2 em leading.
func (dw *DocumentWriter) renderTextBlock(pc *pageContent, text string, bbox model.BBox,
	fontName string, size float64, style model.TextStyle) {
	if text == "" {
		return
	}
	if size <= 0 {
		size = 12
	}
	b := &pc.builder
	res, embedded := dw.selectFont(pc, fontName, style)

	lines := strings.Split(text, "\n")
	leading := size * 1.2

	b.BeginText()
	b.SetFillColor(style.Color)
	b.SetFont(res, size)
	b.SetLeading(leading)
	b.MoveText(bbox.Left(), bbox.Top()-size)
	for i, line := range lines {
		if i > 0 {
			b.NextLine()
		}
		if embedded != nil {
			b.ShowGlyphs(embedded.EncodeString(line))
		} else {
			b.ShowString(line)
		}
	}
	b.EndText()
}

// renderTable draws cell backgrounds, the borders each cell actually
// has, and cell text.
func (dw *DocumentWriter) renderTable(pc *pageContent, table *model.Table) {
	b := &pc.builder
	const cellFontSize = 10.0
	const cellPadding = 2.0

	for _, row := range table.Rows {
		for i := range row {
			cell := &row[i]
			if cell.BBox.IsEmpty() {
				continue
			}
			if cell.Fill != nil {
				b.SetFillColor(*cell.Fill)
				b.FillRect(cell.BBox.X, cell.BBox.Y, cell.BBox.Width, cell.BBox.Height)
			}
		}
	}

	b.SetStrokeColor(model.Color{})
	b.SetLineWidth(0.75)
	for _, row := range table.Rows {
		for i := range row {
			cell := &row[i]
			if cell.BBox.IsEmpty() {
				continue
			}
			box := cell.BBox
			if cell.Borders.Top {
				b.Line(box.Left(), box.Top(), box.Right(), box.Top())
			}
			if cell.Borders.Bottom {
				b.Line(box.Left(), box.Bottom(), box.Right(), box.Bottom())
			}
			if cell.Borders.Left {
				b.Line(box.Left(), box.Bottom(), box.Left(), box.Top())
			}
			if cell.Borders.Right {
				b.Line(box.Right(), box.Bottom(), box.Right(), box.Top())
			}
		}
	}

	for _, row := range table.Rows {
		for i := range row {
			cell := &row[i]
			if cell.Text == "" || cell.BBox.IsEmpty() {
				continue
			}
			style := model.TextStyle{Bold: cell.IsHeader}
			textBox := model.NewBBox(cell.BBox.X+cellPadding, cell.BBox.Y,
				cell.BBox.Width-2*cellPadding, cell.BBox.Height-cellPadding)
			dw.renderTextBlock(pc, cell.Text, textBox, "Helvetica", cellFontSize, style)
		}
	}
}

// measureRun estimates a run's advance width for underline and
// strikeout geometry when the item does not carry one.
func measureRun(text string, embedded *font.Embedded, fontName string, size float64) float64 {
	if embedded != nil {
		return embedded.MeasureString(text, size)
	}
	f := font.NewFont("", standardFace(fontName, false, false), "Type1")
	return f.GetStringWidth(text) * size / 1000
}

// infoDict builds the document information dictionary from metadata.
// Empty fields stay out of the file.
func infoDict(meta model.Metadata) core.Dict {
	d := core.Dict{}
	if meta.Title != "" {
		d["Title"] = core.String(meta.Title)
	}
	if meta.Author != "" {
		d["Author"] = core.String(meta.Author)
	}
	if meta.Subject != "" {
		d["Subject"] = core.String(meta.Subject)
	}
	if len(meta.Keywords) > 0 {
		d["Keywords"] = core.String(strings.Join(meta.Keywords, ", "))
	}
	if meta.Creator != "" {
		d["Creator"] = core.String(meta.Creator)
	}
	producer := meta.Producer
	if producer == "" {
		producer = "quire"
	}
	d["Producer"] = core.String(producer)
	if !meta.CreationDate.IsZero() {
		d["CreationDate"] = core.String(formatDate(meta.CreationDate))
	}
	if !meta.ModDate.IsZero() {
		d["ModDate"] = core.String(formatDate(meta.ModDate))
	}
	return d
}
