package quire

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quirepdf/quire/export"
	"github.com/quirepdf/quire/layout"
	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/ocr"
	"github.com/quirepdf/quire/pages"
	"github.com/quirepdf/quire/reader"
	"github.com/quirepdf/quire/tables"
	"github.com/quirepdf/quire/text"
)

// extractedPage holds the data extracted from a single page.
type extractedPage struct {
	index int
	runs  []*model.TextItem
	page  *pages.Page
}

// Extractor provides a fluent interface for extracting content from PDF
// files. Each configuration method returns a new Extractor instance,
// making it safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	filename string
	reader   *reader.Reader

	// Lifecycle
	ownsReader   bool // true if we opened the reader and should close it
	readerOpened bool // true if reader has been opened

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
// This ensures immutability: each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:     e.filename,
		reader:       e.reader,
		ownsReader:   e.ownsReader,
		readerOpened: e.readerOpened,
		options:      e.options.clone(),
		err:          e.err,
	}
}

// ensureReader opens the reader if not already open.
func (e *Extractor) ensureReader() error {
	if e.readerOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	r, err := reader.Open(e.filename)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	e.reader = r
	e.ownsReader = true
	e.readerOpened = true
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsReader && e.reader != nil {
		err := e.reader.Close()
		e.reader = nil
		e.ownsReader = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to extract from (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").Pages(1, 3, 5).Text()
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to extract (1-indexed, inclusive).
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").PageRange(5, 10).Text()
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// ExcludeHeaders configures the extractor to exclude detected headers.
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").ExcludeHeaders().Text()
func (e *Extractor) ExcludeHeaders() *Extractor {
	newExt := e.clone()
	newExt.options.excludeHeaders = true
	return newExt
}

// ExcludeFooters configures the extractor to exclude detected footers.
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").ExcludeFooters().Text()
func (e *Extractor) ExcludeFooters() *Extractor {
	newExt := e.clone()
	newExt.options.excludeFooters = true
	return newExt
}

// ExcludeHeadersAndFooters configures the extractor to exclude both
// detected headers and footers. This is a convenience method equivalent
// to calling ExcludeHeaders().ExcludeFooters().
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").ExcludeHeadersAndFooters().Text()
func (e *Extractor) ExcludeHeadersAndFooters() *Extractor {
	newExt := e.clone()
	newExt.options.excludeHeaders = true
	newExt.options.excludeFooters = true
	return newExt
}

// JoinParagraphs configures the extractor to join lines within paragraphs
// using spaces instead of newlines. This produces cleaner text output where
// paragraph breaks are preserved but soft line breaks within paragraphs
// are removed.
//
// Example:
//
//	text, _, err := quire.Open("doc.pdf").JoinParagraphs().Text()
func (e *Extractor) JoinParagraphs() *Extractor {
	newExt := e.clone()
	newExt.options.joinParagraphs = true
	return newExt
}

// ============================================================================
// Terminal Operations (execute extraction and return results)
// ============================================================================

// Text extracts and returns the text content from the configured pages.
// This is a terminal operation that closes the underlying reader.
//
// Returns the extracted text, any warnings encountered during processing,
// and an error if extraction failed. Warnings indicate non-fatal issues
// (repaired structure, dropped streams) where extraction succeeded but
// results may be imperfect.
//
// Example:
//
//	text, warnings, err := quire.Open("document.pdf").Text()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", quire.FormatWarnings(warnings))
//	}
func (e *Extractor) Text() (string, []Warning, error) {
	if e.err != nil {
		return "", nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return "", nil, err
	}
	defer e.Close()

	requestedPages, err := e.collectRequestedPages()
	if err != nil {
		return "", nil, err
	}

	hfResult := e.detectHeaderFooter(requestedPages)

	assembler := text.NewAssembler()

	var result strings.Builder
	for i, pd := range requestedPages {
		runs := pd.runs
		if hfResult != nil {
			height, _ := pd.page.Height()
			runs = hfResult.FilterItems(pd.index, runs, height)
		}

		var pageText string
		if e.options.joinParagraphs {
			pageText = e.extractWithParagraphs(runs, pd.page)
		} else {
			pageText = assembler.Assemble(runs)
		}

		if i > 0 && result.Len() > 0 && len(pageText) > 0 {
			result.WriteString("\n\n")
		}
		result.WriteString(pageText)
	}

	return result.String(), e.collectWarnings(), nil
}

// Fragments extracts and returns the positioned text runs from the
// configured pages, in drawing order.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	runs, warnings, err := quire.Open("document.pdf").Pages(1).Fragments()
func (e *Extractor) Fragments() ([]*model.TextItem, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	requestedPages, err := e.collectRequestedPages()
	if err != nil {
		return nil, nil, err
	}

	var all []*model.TextItem
	for _, pd := range requestedPages {
		all = append(all, pd.runs...)
	}
	return all, e.collectWarnings(), nil
}

// Tables detects and returns tables on the configured pages. Detection
// prefers ruled lines when the page draws any, falling back to
// whitespace clustering otherwise.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	tbls, warnings, err := quire.Open("report.pdf").Tables()
//	for _, t := range tbls {
//	    fmt.Println(t.ToMarkdown())
//	}
func (e *Extractor) Tables() ([]*model.Table, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}

	var all []*model.Table
	for _, pageNum := range pageIndices {
		modelPage, err := e.buildItemPage(pageNum)
		if err != nil {
			return nil, nil, err
		}

		detected, err := tables.Detect(modelPage)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}
		all = append(all, detected...)
	}

	return all, e.collectWarnings(), nil
}

// Images extracts every image on the configured pages. Raster images
// are re-encoded as PNG; JPEG and JPEG 2000 containers pass through
// unchanged.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	images, warnings, err := quire.Open("scan.pdf").Images()
//	for _, img := range images {
//	    os.WriteFile(img.Name+".png", img.Data, 0644)
//	}
func (e *Extractor) Images() ([]*model.ImageItem, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}

	var all []*model.ImageItem
	for _, pageNum := range pageIndices {
		page, err := e.reader.GetPage(pageNum)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		images, err := e.reader.ExtractPageImages(page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}
		all = append(all, images...)
	}

	return all, e.collectWarnings(), nil
}

// Annotations extracts the annotations attached to the configured pages.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	annots, warnings, err := quire.Open("form.pdf").Annotations()
func (e *Extractor) Annotations() ([]*model.Annotation, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}

	var all []*model.Annotation
	for _, pageNum := range pageIndices {
		page, err := e.reader.GetPage(pageNum)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		annots, err := e.reader.ExtractAnnotations(page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}
		all = append(all, annots...)
	}

	return all, e.collectWarnings(), nil
}

// Document extracts content and returns a model.Document structural tree:
// metadata, reconstructed paragraphs, headings, tables, and images per
// page, plus the raw item stream and annotations.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	doc, warnings, err := quire.Open("document.pdf").
//	    ExcludeHeadersAndFooters().
//	    Document()
func (e *Extractor) Document() (*model.Document, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, nil, err
	}
	if len(pageIndices) == 0 {
		return nil, nil, fmt.Errorf("no pages to process")
	}

	doc := model.NewDocument()
	if meta, err := e.reader.Metadata(); err == nil {
		doc.Metadata = meta
	}

	var hfResult *layout.HeaderFooterResult
	if e.options.excludeHeaders || e.options.excludeFooters {
		allPages, err := e.collectAllPages()
		if err == nil && len(allPages) > 0 {
			hfResult = e.runHeaderFooterDetection(allPages)
		}
	}

	analyzer := layout.NewAnalyzer()

	for _, pageNum := range pageIndices {
		page, err := e.reader.GetPage(pageNum)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		items, err := e.reader.Items(page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		width, _ := page.Width()
		height, _ := page.Height()

		modelPage := model.NewPage(width, height)
		modelPage.Number = pageNum + 1
		for _, item := range items {
			modelPage.AddItem(item)
		}

		if annots, err := e.reader.ExtractAnnotations(page); err == nil {
			modelPage.Annotations = annots
		}

		runs := modelPage.TextItems()
		if hfResult != nil {
			runs = hfResult.FilterItems(pageNum, runs, height)
		}

		var elements []model.Element

		result := analyzer.Analyze(runs, width, height)
		elements = append(elements, result.Elements...)

		detected, err := tables.Detect(modelPage)
		if err == nil {
			for _, t := range detected {
				elements = append(elements, t)
			}
		}

		if images, err := e.reader.ExtractPageImages(page); err == nil {
			for _, img := range placeImages(images, modelPage.ImageItems()) {
				elements = append(elements, img)
			}
		}

		sortElementsByPosition(elements)
		for i, el := range elements {
			setZOrder(el, i)
			modelPage.AddElement(el)
		}

		doc.AddPage(modelPage)
	}

	return doc, e.collectWarnings(), nil
}

// Markdown extracts content and returns it as a markdown-formatted
// string, preserving headings, paragraphs and tables.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	md, warnings, err := quire.Open("document.pdf").
//	    ExcludeHeadersAndFooters().
//	    Markdown()
func (e *Extractor) Markdown() (string, []Warning, error) {
	doc, warnings, err := e.Document()
	if err != nil {
		return "", warnings, err
	}
	return export.ToMarkdown(doc), warnings, nil
}

// HTML extracts content and returns it as a standalone HTML document
// with images embedded as data URIs.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	page, warnings, err := quire.Open("document.pdf").HTML()
func (e *Extractor) HTML() (string, []Warning, error) {
	doc, warnings, err := e.Document()
	if err != nil {
		return "", warnings, err
	}
	out, err := export.ToHTML(doc)
	if err != nil {
		return "", warnings, err
	}
	return out, warnings, nil
}

// OCRText runs optical character recognition over every image on the
// configured pages and returns the recognized text. It requires the
// module to be built with the "ocr" tag and Tesseract installed;
// otherwise it returns ocr.ErrOCRNotEnabled.
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	text, warnings, err := quire.Open("scan.pdf").OCRText()
func (e *Extractor) OCRText() (string, []Warning, error) {
	if e.err != nil {
		return "", nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return "", nil, err
	}
	defer e.Close()

	client, err := ocr.New()
	if err != nil {
		return "", nil, err
	}
	defer client.Close()

	pageIndices, err := e.resolvePages()
	if err != nil {
		return "", nil, err
	}

	var parts []string
	for _, pageNum := range pageIndices {
		page, err := e.reader.GetPage(pageNum)
		if err != nil {
			return "", nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		images, err := e.reader.ExtractPageImages(page)
		if err != nil {
			return "", nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		for _, img := range images {
			recognized, err := client.RecognizeItem(img)
			if err != nil {
				continue
			}
			if recognized != "" {
				parts = append(parts, recognized)
			}
		}
	}

	return strings.Join(parts, "\n\n"), e.collectWarnings(), nil
}

// PageCount returns the total number of pages in the document.
// Note: This does NOT close the reader, allowing further operations.
//
// Example:
//
//	ext := quire.Open("document.pdf")
//	defer ext.Close()
//	count, err := ext.PageCount()
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}

	if err := e.ensureReader(); err != nil {
		return 0, err
	}

	return e.reader.PageCount()
}

// Metadata returns the document information dictionary decoded into a
// model.Metadata value.
// Note: This does NOT close the reader, allowing further operations.
//
// Example:
//
//	ext := quire.Open("document.pdf")
//	defer ext.Close()
//	meta, err := ext.Metadata()
func (e *Extractor) Metadata() (model.Metadata, error) {
	if e.err != nil {
		return model.Metadata{}, e.err
	}

	if err := e.ensureReader(); err != nil {
		return model.Metadata{}, err
	}

	return e.reader.Metadata()
}

// ============================================================================
// Internal helpers
// ============================================================================

// resolvePages converts 1-indexed page numbers to 0-indexed and validates them.
// If no pages specified, returns all pages.
func (e *Extractor) resolvePages() ([]int, error) {
	pageCount, err := e.reader.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	if len(e.options.pages) == 0 {
		pageIndices := make([]int, pageCount)
		for i := 0; i < pageCount; i++ {
			pageIndices[i] = i
		}
		return pageIndices, nil
	}

	seen := make(map[int]bool)
	var pageIndices []int
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		zeroIndexed := p - 1
		if !seen[zeroIndexed] {
			seen[zeroIndexed] = true
			pageIndices = append(pageIndices, zeroIndexed)
		}
	}

	sort.Ints(pageIndices)
	return pageIndices, nil
}

// collectRequestedPages loads the configured pages and their text runs.
func (e *Extractor) collectRequestedPages() ([]extractedPage, error) {
	pageIndices, err := e.resolvePages()
	if err != nil {
		return nil, err
	}

	requested := make([]extractedPage, 0, len(pageIndices))
	for _, pageNum := range pageIndices {
		page, err := e.reader.GetPage(pageNum)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		runs, err := e.reader.ExtractTextFragments(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
		}

		requested = append(requested, extractedPage{
			index: pageNum,
			runs:  runs,
			page:  page,
		})
	}
	return requested, nil
}

// collectAllPages collects run data from ALL pages in the document.
// Header/footer detection needs multi-page patterns, so it always sees
// every page regardless of the configured selection.
func (e *Extractor) collectAllPages() ([]extractedPage, error) {
	pageCount, err := e.reader.PageCount()
	if err != nil {
		return nil, err
	}

	allPages := make([]extractedPage, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		page, err := e.reader.GetPage(i)
		if err != nil {
			continue // skip pages that can't be read
		}

		runs, err := e.reader.ExtractTextFragments(page)
		if err != nil {
			continue
		}

		allPages = append(allPages, extractedPage{
			index: i,
			runs:  runs,
			page:  page,
		})
	}

	return allPages, nil
}

// detectHeaderFooter runs header/footer detection when the options ask
// for it, using every page in the document for pattern matching.
func (e *Extractor) detectHeaderFooter(requested []extractedPage) *layout.HeaderFooterResult {
	if !e.options.excludeHeaders && !e.options.excludeFooters {
		return nil
	}

	allPages := requested
	if len(e.options.pages) > 0 {
		if full, err := e.collectAllPages(); err == nil && len(full) > 0 {
			allPages = full
		}
	}
	if len(allPages) == 0 {
		return nil
	}
	return e.runHeaderFooterDetection(allPages)
}

// runHeaderFooterDetection converts page data and runs the detector.
func (e *Extractor) runHeaderFooterDetection(allPages []extractedPage) *layout.HeaderFooterResult {
	pageItems := make([]layout.PageItems, len(allPages))
	for i, pd := range allPages {
		width, _ := pd.page.Width()
		height, _ := pd.page.Height()
		pageItems[i] = layout.PageItems{
			PageIndex:  pd.index,
			Items:      pd.runs,
			PageWidth:  width,
			PageHeight: height,
		}
	}

	detector := layout.NewHeaderFooterDetector()
	return detector.Detect(pageItems)
}

// buildItemPage interprets one page into a model.Page carrying the full
// item stream, the input table detection wants.
func (e *Extractor) buildItemPage(pageNum int) (*model.Page, error) {
	page, err := e.reader.GetPage(pageNum)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
	}

	items, err := e.reader.Items(page)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNum+1, err)
	}

	width, _ := page.Width()
	height, _ := page.Height()

	modelPage := model.NewPage(width, height)
	modelPage.Number = pageNum + 1
	for _, item := range items {
		modelPage.AddItem(item)
	}
	return modelPage, nil
}

// extractWithParagraphs uses paragraph detection to join lines within
// paragraphs with spaces instead of newlines.
func (e *Extractor) extractWithParagraphs(runs []*model.TextItem, page *pages.Page) string {
	if len(runs) == 0 {
		return ""
	}

	width, _ := page.Width()
	height, _ := page.Height()

	lineLayout := layout.NewLineDetector().Detect(runs, width, height)
	if len(lineLayout.Lines) == 0 {
		return text.NewAssembler().Assemble(runs)
	}

	paraLayout := layout.NewParagraphDetector().Detect(lineLayout.Lines, width, height)

	var result strings.Builder
	for i, para := range paraLayout.Paragraphs {
		if i > 0 {
			result.WriteString("\n\n")
		}
		for j, line := range para.Lines {
			if j > 0 {
				result.WriteString(" ")
			}
			result.WriteString(strings.TrimSpace(line.Text))
		}
	}

	return result.String()
}

// collectWarnings converts the reader's recorded repair messages into
// classified warnings.
func (e *Extractor) collectWarnings() []Warning {
	if e.reader == nil {
		return nil
	}

	var warnings []Warning
	for _, msg := range e.reader.Warnings() {
		page, rest := warningPage(msg)
		warnings = append(warnings, Warning{
			Code:    classifyWarning(rest),
			Page:    page,
			Message: rest,
		})
	}
	return warnings
}

// placeImages pairs the decoded page images with their drawn positions.
// ExtractPageImages walks resources in name order while the item stream
// carries placement, so positions are matched by resource name.
func placeImages(decoded []*model.ImageItem, drawn []*model.ImageItem) []*model.Image {
	position := make(map[string]model.BBox, len(drawn))
	for _, item := range drawn {
		if _, ok := position[item.Name]; !ok {
			position[item.Name] = item.Bounds()
		}
	}

	out := make([]*model.Image, 0, len(decoded))
	for _, img := range decoded {
		out = append(out, &model.Image{
			Data:   img.Data,
			Format: img.Format,
			BBox:   position[img.Name],
		})
	}
	return out
}

// sortElementsByPosition orders elements top to bottom, breaking
// near-ties left to right. PDF coordinates grow upward, so higher Y
// comes first.
func sortElementsByPosition(elements []model.Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i].BoundingBox(), elements[j].BoundingBox()
		yDiff := a.Y - b.Y
		if yDiff > 10 || yDiff < -10 {
			return yDiff > 0
		}
		return a.X < b.X
	})
}

// setZOrder stamps an element's position in the page's reading order.
func setZOrder(el model.Element, z int) {
	switch e := el.(type) {
	case *model.Paragraph:
		e.ZOrder = z
	case *model.Heading:
		e.ZOrder = z
	case *model.Table:
		e.ZOrder = z
	case *model.Image:
		e.ZOrder = z
	}
}
