package layout

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/quirepdf/quire/model"
)

// HeaderFooterRegion represents a detected header or footer region
type HeaderFooterRegion struct {
	// Type indicates if this is a header or footer
	Type RegionType

	// BBox is the bounding box of the region
	BBox model.BBox

	// Text is the typical text content (may include page number placeholder)
	Text string

	// IsPageNumber indicates if this region contains page numbers
	IsPageNumber bool

	// Confidence is the detection confidence (0.0 to 1.0)
	Confidence float64

	// PageIndices lists which pages have this header/footer
	PageIndices []int
}

// RegionType indicates whether a region is a header or footer
type RegionType int

const (
	Header RegionType = iota
	Footer
)

func (r RegionType) String() string {
	if r == Header {
		return "header"
	}
	return "footer"
}

// HeaderFooterConfig holds configuration for header/footer detection
type HeaderFooterConfig struct {
	// HeaderRegionHeight is the height from top of page to consider as header zone
	// Default: 72 points (1 inch)
	HeaderRegionHeight float64

	// FooterRegionHeight is the height from bottom of page to consider as footer zone
	// Default: 72 points (1 inch)
	FooterRegionHeight float64

	// MinOccurrenceRatio is the minimum fraction of pages a text must appear on
	// to be considered a header/footer (0.0 to 1.0)
	// Default: 0.5 (50% of pages)
	MinOccurrenceRatio float64

	// PositionTolerance is the maximum Y difference for text to be considered same position
	// Default: 5 points
	PositionTolerance float64

	// XPositionTolerance is the maximum X difference for text to be considered same position
	// Default: 10 points
	XPositionTolerance float64

	// MinPages is the minimum number of pages required for header/footer detection
	// Default: 2
	MinPages int
}

// DefaultHeaderFooterConfig returns sensible default configuration
func DefaultHeaderFooterConfig() HeaderFooterConfig {
	return HeaderFooterConfig{
		HeaderRegionHeight: 72.0, // 1 inch
		FooterRegionHeight: 72.0, // 1 inch
		MinOccurrenceRatio: 0.5,  // 50% of pages
		PositionTolerance:  5.0,  // 5 points
		XPositionTolerance: 10.0, // 10 points
		MinPages:           2,
	}
}

// PageItems holds the text runs from a single page
type PageItems struct {
	PageIndex  int
	PageHeight float64
	PageWidth  float64
	Items      []*model.TextItem
}

// HeaderFooterDetector detects headers and footers across pages
type HeaderFooterDetector struct {
	config HeaderFooterConfig
}

// NewHeaderFooterDetector creates a new detector with default configuration
func NewHeaderFooterDetector() *HeaderFooterDetector {
	return &HeaderFooterDetector{
		config: DefaultHeaderFooterConfig(),
	}
}

// NewHeaderFooterDetectorWithConfig creates a detector with custom configuration
func NewHeaderFooterDetectorWithConfig(config HeaderFooterConfig) *HeaderFooterDetector {
	return &HeaderFooterDetector{
		config: config,
	}
}

// HeaderFooterResult contains the detection results
type HeaderFooterResult struct {
	// Headers contains detected header regions
	Headers []HeaderFooterRegion

	// Footers contains detected footer regions
	Footers []HeaderFooterRegion

	// Config used for detection
	Config HeaderFooterConfig
}

// Detect analyzes text runs from multiple pages to find headers and footers
func (d *HeaderFooterDetector) Detect(pages []PageItems) *HeaderFooterResult {
	if len(pages) < d.config.MinPages {
		return &HeaderFooterResult{Config: d.config}
	}

	// Preprocess pages to handle character-level PDFs
	// Assemble character runs into line-based runs for better pattern matching
	processedPages := d.preprocessPages(pages)

	// Extract header and footer candidates from each page
	headerCandidates := d.extractCandidates(processedPages, Header)
	footerCandidates := d.extractCandidates(processedPages, Footer)

	// Find repeating patterns
	headers := d.findRepeatingPatterns(headerCandidates, processedPages, Header)
	footers := d.findRepeatingPatterns(footerCandidates, processedPages, Footer)

	return &HeaderFooterResult{
		Headers: headers,
		Footers: footers,
		Config:  d.config,
	}
}

// preprocessPages assembles character-level runs into line-based runs.
// This is necessary for character-level PDFs (like Google Docs) where each
// character is a separate run, making pattern detection impossible without
// assembly.
func (d *HeaderFooterDetector) preprocessPages(pages []PageItems) []PageItems {
	processed := make([]PageItems, len(pages))

	for i, page := range pages {
		if isCharacterLevel(page.Items) {
			assembled := assembleItemsIntoLines(page.Items)
			processed[i] = PageItems{
				PageIndex:  page.PageIndex,
				PageHeight: page.PageHeight,
				PageWidth:  page.PageWidth,
				Items:      assembled,
			}
		} else {
			processed[i] = page
		}
	}

	return processed
}

// isCharacterLevel returns true if runs appear to be character-level
// (average run length <= 2 characters)
func isCharacterLevel(items []*model.TextItem) bool {
	if len(items) == 0 {
		return false
	}

	totalChars := 0
	for _, it := range items {
		totalChars += len([]rune(it.Text))
	}

	avgLen := float64(totalChars) / float64(len(items))
	return avgLen <= 2.0
}

// assembleItemsIntoLines groups character runs into line-based runs
func assembleItemsIntoLines(items []*model.TextItem) []*model.TextItem {
	if len(items) == 0 {
		return nil
	}

	// Sort by Y (descending for typical PDF coords) then by X
	sorted := make([]*model.TextItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		yDiff := sorted[i].Y - sorted[j].Y
		if absFloat64(yDiff) > sorted[i].Bounds().Height*0.5 {
			return yDiff > 0 // Higher Y first
		}
		return sorted[i].X < sorted[j].X
	})

	// Group into lines by Y proximity
	var lines [][]*model.TextItem
	var currentLine []*model.TextItem

	for _, it := range sorted {
		if len(currentLine) == 0 {
			currentLine = append(currentLine, it)
			continue
		}

		// Check if same line (Y within tolerance)
		last := currentLine[len(currentLine)-1]
		yDiff := absFloat64(it.Y - last.Y)

		if yDiff <= last.Bounds().Height*0.5 {
			currentLine = append(currentLine, it)
		} else {
			lines = append(lines, currentLine)
			currentLine = []*model.TextItem{it}
		}
	}
	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}

	// Assemble each line into a single run
	var assembled []*model.TextItem
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}

		sort.Slice(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})

		// Build text with smart spacing
		var textBuilder strings.Builder
		var lastEndX float64

		for i, it := range line {
			if i > 0 {
				gap := it.X - lastEndX
				// Add space if gap is significant (> 30% of font size)
				if gap > it.FontSize*0.3 {
					textBuilder.WriteString(" ")
				}
			}
			textBuilder.WriteString(it.Text)
			lastEndX = it.X + it.Width
		}

		// Compute bounding box
		first, last := line[0], line[len(line)-1]
		minY, maxY := first.Y, first.Y
		for _, it := range line {
			if it.Y < minY {
				minY = it.Y
			}
			if top := it.Y + it.Bounds().Height; top > maxY {
				maxY = top
			}
		}

		assembled = append(assembled, &model.TextItem{
			Text:     textBuilder.String(),
			X:        first.X,
			Y:        first.Y,
			Width:    (last.X + last.Width) - first.X,
			Height:   maxY - minY,
			FontSize: first.FontSize,
			FontName: first.FontName,
		})
	}

	return assembled
}

// candidate represents a potential header/footer text
type candidate struct {
	Text      string
	X         float64
	Y         float64 // Normalized Y (distance from top for headers, from bottom for footers)
	Width     float64
	Height    float64
	PageIndex int
}

// extractCandidates extracts header or footer candidates from pages
func (d *HeaderFooterDetector) extractCandidates(pages []PageItems, regionType RegionType) []candidate {
	var candidates []candidate

	for _, page := range pages {
		if len(page.Items) == 0 {
			continue
		}

		// Compute actual content bounds
		minY, maxY := page.Items[0].Y, page.Items[0].Y
		for _, it := range page.Items {
			if it.Y < minY {
				minY = it.Y
			}
			if top := it.Y + it.Bounds().Height; top > maxY {
				maxY = top
			}
		}
		contentHeight := maxY - minY
		if contentHeight <= 0 {
			contentHeight = page.PageHeight
		}

		// Detect coordinate system:
		// - Standard PDF: Y increases upward (high Y = top of page)
		// - Google Docs style: Y increases downward and may exceed page height
		// Heuristic: if maxY > pageHeight, assume inverted coordinates
		invertedCoords := maxY > page.PageHeight

		// Determine reference bounds for header/footer detection
		// Use page bounds when content is within page, otherwise use content bounds
		refMinY, refMaxY := 0.0, page.PageHeight
		headerRegion := d.config.HeaderRegionHeight
		footerRegion := d.config.FooterRegionHeight

		if invertedCoords {
			// Content extends beyond page - use content bounds with scaled regions
			refMinY, refMaxY = minY, maxY
			scale := contentHeight / page.PageHeight
			headerRegion *= scale
			footerRegion *= scale
		}

		for _, it := range page.Items {
			var inRegion bool
			var normalizedY float64

			if regionType == Header {
				if invertedCoords {
					// Inverted: low Y = top of page, so header is near refMinY
					distFromTop := it.Y - refMinY
					inRegion = distFromTop < headerRegion
					normalizedY = distFromTop
				} else {
					// Standard: high Y = top of page, so header is near refMaxY
					distFromTop := refMaxY - (it.Y + it.Bounds().Height)
					inRegion = distFromTop < headerRegion
					normalizedY = distFromTop
				}
			} else {
				if invertedCoords {
					// Inverted: high Y = bottom of page, so footer is near refMaxY
					distFromBottom := refMaxY - (it.Y + it.Bounds().Height)
					inRegion = distFromBottom < footerRegion
					normalizedY = distFromBottom
				} else {
					// Standard: low Y = bottom of page, so footer is near refMinY
					distFromBottom := it.Y - refMinY
					inRegion = distFromBottom < footerRegion
					normalizedY = distFromBottom
				}
			}

			if inRegion {
				candidates = append(candidates, candidate{
					Text:      strings.TrimSpace(it.Text),
					X:         it.X,
					Y:         normalizedY,
					Width:     it.Width,
					Height:    it.Bounds().Height,
					PageIndex: page.PageIndex,
				})
			}
		}
	}

	return candidates
}

// findRepeatingPatterns finds text that repeats across pages
func (d *HeaderFooterDetector) findRepeatingPatterns(candidates []candidate, pages []PageItems, regionType RegionType) []HeaderFooterRegion {
	if len(candidates) == 0 {
		return nil
	}

	// Group candidates by normalized text (ignoring page numbers)
	groups := make(map[string][]candidate)

	for _, c := range candidates {
		normalized := normalizeForComparison(c.Text)
		groups[normalized] = append(groups[normalized], c)
	}

	var regions []HeaderFooterRegion
	minOccurrences := int(float64(len(pages)) * d.config.MinOccurrenceRatio)
	if minOccurrences < 2 {
		minOccurrences = 2
	}

	for normalizedText, group := range groups {
		// Skip very short text that isn't a page number
		// Single letters/characters are likely fragments of larger text
		if len(normalizedText) <= 2 && !isPageNumberPattern(normalizedText) {
			continue
		}

		// Check if this text appears on enough pages
		pageSet := make(map[int]bool)
		for _, c := range group {
			pageSet[c.PageIndex] = true
		}

		if len(pageSet) < minOccurrences {
			continue
		}

		if !d.hasConsistentPosition(group) {
			continue
		}

		bbox := d.calculateGroupBBox(group)
		confidence := d.calculateConfidence(group, len(pages))

		isPageNum := isPageNumberPattern(normalizedText) || containsPageNumberPattern(group)

		representativeText := group[0].Text
		if isPageNum {
			representativeText = "[Page Number]"
		}

		var pageIndices []int
		for idx := range pageSet {
			pageIndices = append(pageIndices, idx)
		}
		sort.Ints(pageIndices)

		regions = append(regions, HeaderFooterRegion{
			Type:         regionType,
			BBox:         bbox,
			Text:         representativeText,
			IsPageNumber: isPageNum,
			Confidence:   confidence,
			PageIndices:  pageIndices,
		})
	}

	// Sort by confidence (highest first)
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})

	return regions
}

// hasConsistentPosition checks if candidates appear at consistent positions
func (d *HeaderFooterDetector) hasConsistentPosition(group []candidate) bool {
	if len(group) < 2 {
		return false
	}

	refY := group[0].Y
	refX := group[0].X

	for _, c := range group[1:] {
		yDiff := absFloat64(c.Y - refY)
		xDiff := absFloat64(c.X - refX)

		if yDiff > d.config.PositionTolerance {
			return false
		}
		if xDiff > d.config.XPositionTolerance {
			return false
		}
	}

	return true
}

// calculateGroupBBox calculates the bounding box for a group of candidates
func (d *HeaderFooterDetector) calculateGroupBBox(group []candidate) model.BBox {
	if len(group) == 0 {
		return model.BBox{}
	}

	minX := group[0].X
	maxX := group[0].X + group[0].Width
	minY := group[0].Y
	maxY := group[0].Y + group[0].Height

	for _, c := range group[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X+c.Width > maxX {
			maxX = c.X + c.Width
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y+c.Height > maxY {
			maxY = c.Y + c.Height
		}
	}

	return model.BBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// calculateConfidence calculates detection confidence
func (d *HeaderFooterDetector) calculateConfidence(group []candidate, totalPages int) float64 {
	if totalPages == 0 {
		return 0
	}

	// Base confidence on occurrence ratio
	pageSet := make(map[int]bool)
	for _, c := range group {
		pageSet[c.PageIndex] = true
	}

	occurrenceRatio := float64(len(pageSet)) / float64(totalPages)

	// Boost confidence for position consistency
	positionBonus := 0.0
	if d.hasConsistentPosition(group) {
		positionBonus = 0.1
	}

	confidence := occurrenceRatio*0.9 + positionBonus
	if confidence > 1.0 {
		confidence = 1.0
	}

	return confidence
}

var digitRunPattern = regexp.MustCompile(`\d+`)

// normalizeForComparison normalizes text for comparison by replacing numbers
func normalizeForComparison(s string) string {
	return digitRunPattern.ReplaceAllString(s, "#")
}

// isPageNumberPattern checks if normalized text looks like a page number
func isPageNumberPattern(normalizedText string) bool {
	// Common page number patterns (after normalization)
	patterns := []string{
		"#",           // Just a number
		"Page #",      // "Page 1"
		"page #",      // "page 1"
		"- # -",       // "- 1 -"
		"# of #",      // "1 of 10"
		"Page # of #", // "Page 1 of 10"
		"#/#",         // "1/10"
		"p. #",        // "p. 1"
		"p.#",         // "p.1"
		"pg #",        // "pg 1"
		"pg. #",       // "pg. 1"
	}

	trimmed := strings.TrimSpace(normalizedText)
	for _, pattern := range patterns {
		if strings.EqualFold(trimmed, pattern) {
			return true
		}
	}

	return false
}

// containsPageNumberPattern checks if any candidate in the group contains page numbers
func containsPageNumberPattern(group []candidate) bool {
	if len(group) < 2 {
		return false
	}

	// Extract just the numbers from each candidate
	var numbers []int
	for _, c := range group {
		matches := digitRunPattern.FindAllString(c.Text, -1)
		for _, match := range matches {
			if num, err := strconv.Atoi(match); err == nil {
				numbers = append(numbers, num)
			}
		}
	}

	if len(numbers) < 2 {
		return false
	}

	sort.Ints(numbers)

	// Check for sequential or near-sequential pattern
	sequential := 0
	for i := 1; i < len(numbers); i++ {
		diff := numbers[i] - numbers[i-1]
		if diff == 1 {
			sequential++
		}
	}

	// If more than half are sequential, it's likely page numbers
	return sequential >= len(numbers)/2
}

// FilterItems removes header/footer runs from a page
func (r *HeaderFooterResult) FilterItems(pageIndex int, items []*model.TextItem, pageHeight float64) []*model.TextItem {
	if r == nil || len(items) == 0 {
		return items
	}

	// Check if this is a character-level PDF
	charLevel := isCharacterLevel(items)

	// Compute content bounds for position checking
	minY, maxY := items[0].Y, items[0].Y
	for _, it := range items {
		if it.Y < minY {
			minY = it.Y
		}
		if top := it.Y + it.Bounds().Height; top > maxY {
			maxY = top
		}
	}
	contentHeight := maxY - minY
	if contentHeight <= 0 {
		contentHeight = pageHeight
	}

	// Detect coordinate system
	invertedCoords := maxY > pageHeight

	// Scale regions if content extends beyond page
	headerRegion := r.Config.HeaderRegionHeight
	footerRegion := r.Config.FooterRegionHeight
	if contentHeight > pageHeight {
		scale := contentHeight / pageHeight
		headerRegion *= scale
		footerRegion *= scale
	}

	var filtered []*model.TextItem

	for _, it := range items {
		if r.isInHeaderFooter(pageIndex, it, minY, maxY, headerRegion, footerRegion, invertedCoords, charLevel) {
			continue
		}
		filtered = append(filtered, it)
	}

	return filtered
}

// isInHeaderFooter checks if a run is in a detected header/footer region
func (r *HeaderFooterResult) isInHeaderFooter(pageIndex int, it *model.TextItem, minY, maxY, headerRegion, footerRegion float64, invertedCoords, charLevel bool) bool {
	// Check headers
	for _, header := range r.Headers {
		if !containsPage(header.PageIndices, pageIndex) {
			continue
		}

		var distFromTop float64
		if invertedCoords {
			distFromTop = it.Y - minY
		} else {
			distFromTop = maxY - (it.Y + it.Bounds().Height)
		}
		if distFromTop < headerRegion {
			// For character-level PDFs, use position-only filtering since
			// individual characters won't match the assembled header text
			if charLevel {
				return true
			}
			if textsMatch(it.Text, header.Text, header.IsPageNumber) {
				return true
			}
		}
	}

	// Check footers
	for _, footer := range r.Footers {
		if !containsPage(footer.PageIndices, pageIndex) {
			continue
		}

		var distFromBottom float64
		if invertedCoords {
			distFromBottom = maxY - (it.Y + it.Bounds().Height)
		} else {
			distFromBottom = it.Y - minY
		}
		if distFromBottom < footerRegion {
			// For character-level PDFs, use position-only filtering
			if charLevel {
				return true
			}
			if textsMatch(it.Text, footer.Text, footer.IsPageNumber) {
				return true
			}
		}
	}

	return false
}

// containsPage checks if a page index is in the list
func containsPage(pages []int, pageIndex int) bool {
	for _, p := range pages {
		if p == pageIndex {
			return true
		}
	}
	return false
}

// textsMatch checks if two texts match (considering page numbers)
func textsMatch(itemText, regionText string, isPageNumber bool) bool {
	itemText = strings.TrimSpace(itemText)
	regionText = strings.TrimSpace(regionText)

	if isPageNumber {
		// For page numbers, just check if it's a number or page number pattern
		normalized := normalizeForComparison(itemText)
		return isPageNumberPattern(normalized)
	}

	// For regular text, check exact match or normalized match
	if itemText == regionText {
		return true
	}

	return normalizeForComparison(itemText) == normalizeForComparison(regionText)
}

// HasHeaders returns true if any headers were detected
func (r *HeaderFooterResult) HasHeaders() bool {
	return r != nil && len(r.Headers) > 0
}

// HasFooters returns true if any footers were detected
func (r *HeaderFooterResult) HasFooters() bool {
	return r != nil && len(r.Footers) > 0
}

// HasHeadersOrFooters returns true if any headers or footers were detected
func (r *HeaderFooterResult) HasHeadersOrFooters() bool {
	return r.HasHeaders() || r.HasFooters()
}

// GetHeaderTexts returns all detected header texts
func (r *HeaderFooterResult) GetHeaderTexts() []string {
	if r == nil {
		return nil
	}

	var texts []string
	for _, h := range r.Headers {
		texts = append(texts, h.Text)
	}
	return texts
}

// GetFooterTexts returns all detected footer texts
func (r *HeaderFooterResult) GetFooterTexts() []string {
	if r == nil {
		return nil
	}

	var texts []string
	for _, f := range r.Footers {
		texts = append(texts, f.Text)
	}
	return texts
}

// Summary returns a human-readable summary of detection results
func (r *HeaderFooterResult) Summary() string {
	if r == nil || !r.HasHeadersOrFooters() {
		return "No headers or footers detected"
	}

	var parts []string

	if len(r.Headers) > 0 {
		headerTexts := make([]string, len(r.Headers))
		for i, h := range r.Headers {
			headerTexts[i] = h.Text
		}
		parts = append(parts, "Headers: "+strings.Join(headerTexts, ", "))
	}

	if len(r.Footers) > 0 {
		footerTexts := make([]string, len(r.Footers))
		for i, f := range r.Footers {
			footerTexts[i] = f.Text
		}
		parts = append(parts, "Footers: "+strings.Join(footerTexts, ", "))
	}

	return strings.Join(parts, "; ")
}
