package layout

import (
	"sort"
	"strings"

	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/text"
)

// LineAlignment represents the horizontal alignment of a line
type LineAlignment int

const (
	AlignUnknown LineAlignment = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustified
)

// String returns a string representation of the alignment
func (a LineAlignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustified:
		return "justified"
	default:
		return "unknown"
	}
}

// Line represents a single line of text on a page
type Line struct {
	// BBox is the bounding box of the line
	BBox model.BBox

	// Items are the text runs that make up this line (in reading order)
	Items []*model.TextItem

	// Text is the assembled text content of the line
	Text string

	// Index is the line's position on the page (0-based, top to bottom)
	Index int

	// Baseline is the Y coordinate of the text baseline
	Baseline float64

	// Height is the line height (max run height)
	Height float64

	// SpacingBefore is the vertical space from the previous line (0 for first line)
	SpacingBefore float64

	// SpacingAfter is the vertical space to the next line (0 for last line)
	SpacingAfter float64

	// Alignment is the detected horizontal alignment
	Alignment LineAlignment

	// Indentation is the left indentation relative to the page/column margin
	Indentation float64

	// AverageFontSize is the average font size of runs in this line
	AverageFontSize float64

	// Direction is the dominant text direction (LTR/RTL)
	Direction text.Direction
}

// LineLayout represents the detected line structure of a page or region
type LineLayout struct {
	// Lines are the detected text lines (sorted top to bottom)
	Lines []Line

	// PageWidth is the width of the page/region
	PageWidth float64

	// PageHeight is the height of the page/region
	PageHeight float64

	// AverageLineSpacing is the average spacing between lines
	AverageLineSpacing float64

	// AverageLineHeight is the average line height
	AverageLineHeight float64

	// Config is the configuration used for detection
	Config LineConfig
}

// LineConfig holds configuration for line detection
type LineConfig struct {
	// LineHeightTolerance is the Y-distance tolerance for grouping runs into lines
	// as a fraction of run height (default: 0.5)
	LineHeightTolerance float64

	// MinLineWidth is the minimum width for a valid line (default: 5 points)
	MinLineWidth float64

	// AlignmentTolerance is the tolerance for alignment detection (default: 10 points)
	AlignmentTolerance float64

	// JustificationThreshold is the minimum line width ratio to consider justified
	// (default: 0.9 = line must be 90% of max width)
	JustificationThreshold float64
}

// DefaultLineConfig returns sensible default configuration
func DefaultLineConfig() LineConfig {
	return LineConfig{
		LineHeightTolerance:    0.5,
		MinLineWidth:           5.0,
		AlignmentTolerance:     10.0,
		JustificationThreshold: 0.9,
	}
}

// xOrderTolerance is the fraction of the font size within which two runs are
// treated as horizontally coincident. Overlapping runs (Word/Quartz emit these
// for accents and re-struck glyphs) keep their stream order instead of being
// reshuffled by an exact X sort.
const xOrderTolerance = 0.25

// LineDetector detects text lines on a page
type LineDetector struct {
	config LineConfig
}

// NewLineDetector creates a new line detector with default configuration
func NewLineDetector() *LineDetector {
	return &LineDetector{
		config: DefaultLineConfig(),
	}
}

// NewLineDetectorWithConfig creates a line detector with custom configuration
func NewLineDetectorWithConfig(config LineConfig) *LineDetector {
	return &LineDetector{
		config: config,
	}
}

// Detect analyzes text runs and detects lines
func (d *LineDetector) Detect(items []*model.TextItem, pageWidth, pageHeight float64) *LineLayout {
	if len(items) == 0 {
		return &LineLayout{
			Lines:      nil,
			PageWidth:  pageWidth,
			PageHeight: pageHeight,
			Config:     d.config,
		}
	}

	// Step 1: Group runs into lines by Y position
	lineGroups := d.groupIntoLines(items)

	// Step 2: Build Line objects with metadata
	lines := d.buildLines(lineGroups)

	// Step 3: Calculate spacing between lines
	d.calculateSpacing(lines)

	// Step 4: Detect alignment
	d.detectAlignment(lines)

	// Step 5: Calculate layout statistics
	avgSpacing, avgHeight := d.calculateStatistics(lines)

	return &LineLayout{
		Lines:              lines,
		PageWidth:          pageWidth,
		PageHeight:         pageHeight,
		AverageLineSpacing: avgSpacing,
		AverageLineHeight:  avgHeight,
		Config:             d.config,
	}
}

// groupIntoLines groups runs into horizontal lines based on Y position
func (d *LineDetector) groupIntoLines(items []*model.TextItem) [][]*model.TextItem {
	if len(items) == 0 {
		return nil
	}

	// Calculate adaptive tolerance based on actual content characteristics.
	// This handles PDFs where CTM scaling compresses coordinates.
	adaptiveTolerance := d.calculateAdaptiveTolerance(items)

	// Sort runs by Y (descending, top to bottom in PDF coords) only.
	// Same-line runs keep their stream order; X ordering happens per line later.
	sorted := make([]*model.TextItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].Y - sorted[j].Y
		if absFloat64(yDiff) > adaptiveTolerance {
			return yDiff > 0 // Higher Y first (top of page)
		}
		return false
	})

	var lines [][]*model.TextItem
	var currentLine []*model.TextItem

	for _, it := range sorted {
		if len(currentLine) == 0 {
			currentLine = append(currentLine, it)
			continue
		}

		// Compare against the average Y of the current line for better accuracy
		avgY := averageItemY(currentLine)

		if absFloat64(it.Y-avgY) <= adaptiveTolerance {
			currentLine = append(currentLine, it)
		} else {
			sortLineItems(currentLine)
			lines = append(lines, currentLine)
			currentLine = []*model.TextItem{it}
		}
	}

	if len(currentLine) > 0 {
		sortLineItems(currentLine)
		lines = append(lines, currentLine)
	}

	return lines
}

// sortLineItems orders the runs of a single line left to right. Runs whose X
// positions are within xOrderTolerance of the font size are treated as equal
// so the stable sort keeps their stream order.
func sortLineItems(line []*model.TextItem) {
	sort.SliceStable(line, func(i, j int) bool {
		xTol := line[i].FontSize * xOrderTolerance
		if absFloat64(line[i].X-line[j].X) < xTol {
			return false
		}
		return line[i].X < line[j].X
	})
}

// calculateAdaptiveTolerance determines the Y tolerance for line grouping based
// on the actual content. When CTM scaling has compressed the coordinate space,
// a tolerance derived from font height would merge distinct lines, so the
// smallest observed inter-line gap takes over.
func (d *LineDetector) calculateAdaptiveTolerance(items []*model.TextItem) float64 {
	if len(items) == 0 {
		return 2.0
	}

	totalHeight := 0.0
	for _, it := range items {
		totalHeight += it.Bounds().Height
	}
	avgHeight := totalHeight / float64(len(items))

	standardTolerance := avgHeight * d.config.LineHeightTolerance

	// Collect unique Y positions (rounded to absorb floating point noise)
	yPositions := make(map[float64]bool)
	for _, it := range items {
		roundedY := float64(int(it.Y*10)) / 10
		yPositions[roundedY] = true
	}

	if len(yPositions) < 3 {
		return standardTolerance // Not enough data
	}

	uniqueYs := make([]float64, 0, len(yPositions))
	for y := range yPositions {
		uniqueYs = append(uniqueYs, y)
	}
	sort.Float64s(uniqueYs)

	gaps := make([]float64, 0, len(uniqueYs)-1)
	for i := 1; i < len(uniqueYs); i++ {
		gap := uniqueYs[i] - uniqueYs[i-1]
		if gap > 0.1 { // Ignore baseline jitter within a line
			gaps = append(gaps, gap)
		}
	}

	if len(gaps) == 0 {
		return standardTolerance
	}

	sort.Float64s(gaps)

	// The 10th percentile gap approximates the tightest real line spacing
	minInterLineGap := gaps[len(gaps)/10]

	if minInterLineGap < avgHeight*0.5 && minInterLineGap > 0.1 {
		// Compressed coordinates: stay well under the observed gap
		adaptiveTolerance := minInterLineGap * 0.2
		if adaptiveTolerance < 0.15 {
			adaptiveTolerance = 0.15
		}
		return adaptiveTolerance
	}

	return standardTolerance
}

// averageItemY returns the average Y coordinate of runs in a line
func averageItemY(items []*model.TextItem) float64 {
	if len(items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range items {
		total += it.Y
	}
	return total / float64(len(items))
}

// buildLines creates Line objects from run groups
func (d *LineDetector) buildLines(lineGroups [][]*model.TextItem) []Line {
	lines := make([]Line, 0, len(lineGroups))

	for i, items := range lineGroups {
		if len(items) == 0 {
			continue
		}

		line := Line{
			Index: i,
			Items: items,
		}

		line.BBox = itemsBBox(items)

		// Baseline is the minimum Y in the line
		line.Baseline = items[0].Y
		for _, it := range items[1:] {
			if it.Y < line.Baseline {
				line.Baseline = it.Y
			}
		}

		// Height is the maximum run height
		line.Height = items[0].Bounds().Height
		for _, it := range items[1:] {
			if h := it.Bounds().Height; h > line.Height {
				line.Height = h
			}
		}

		totalFontSize := 0.0
		for _, it := range items {
			totalFontSize += it.FontSize
		}
		line.AverageFontSize = totalFontSize / float64(len(items))

		line.Direction = detectLineDirection(items)
		line.Text = assembleLineText(items, line.Direction)
		line.Indentation = line.BBox.X

		// Skip lines that are too narrow
		if line.BBox.Width < d.config.MinLineWidth {
			continue
		}

		lines = append(lines, line)
	}

	// Re-index lines
	for i := range lines {
		lines[i].Index = i
	}

	return lines
}

// assembleLineText assembles text from runs with appropriate spacing. Runs are
// visited right to left for RTL lines so the logical order matches the visual
// order.
func assembleLineText(items []*model.TextItem, dir text.Direction) string {
	if len(items) == 0 {
		return ""
	}

	ordered := items
	if dir == text.RTL {
		ordered = make([]*model.TextItem, len(items))
		for i, it := range items {
			ordered[len(items)-1-i] = it
		}
	}

	var sb strings.Builder
	for i, it := range ordered {
		if i > 0 {
			prev := ordered[i-1]
			var gap float64
			if dir == text.RTL {
				gap = prev.X - (it.X + it.Width)
			} else {
				gap = it.X - (prev.X + prev.Width)
			}
			if gap > it.Bounds().Height*0.1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(it.Text)
	}

	return sb.String()
}

// detectLineDirection determines the dominant text direction of a line
func detectLineDirection(items []*model.TextItem) text.Direction {
	ltrCount := 0
	rtlCount := 0

	for _, it := range items {
		switch text.DetectDirection(it.Text) {
		case text.LTR:
			ltrCount++
		case text.RTL:
			rtlCount++
		}
	}

	if rtlCount > ltrCount {
		return text.RTL
	}
	if ltrCount > 0 {
		return text.LTR
	}
	return text.Neutral
}

// calculateSpacing calculates spacing between consecutive lines
func (d *LineDetector) calculateSpacing(lines []Line) {
	for i := range lines {
		if i > 0 {
			// Spacing from previous line's bottom to this line's top
			prevBottom := lines[i-1].Baseline
			thisTop := lines[i].Baseline + lines[i].Height
			lines[i].SpacingBefore = prevBottom - thisTop
			lines[i-1].SpacingAfter = lines[i].SpacingBefore
		}
	}
}

// detectAlignment detects horizontal alignment for each line
func (d *LineDetector) detectAlignment(lines []Line) {
	if len(lines) == 0 {
		return
	}

	// Find content boundaries (leftmost and rightmost positions)
	leftMargin := lines[0].BBox.X
	rightMargin := lines[0].BBox.X + lines[0].BBox.Width
	maxWidth := lines[0].BBox.Width

	for _, line := range lines[1:] {
		if line.BBox.X < leftMargin {
			leftMargin = line.BBox.X
		}
		lineRight := line.BBox.X + line.BBox.Width
		if lineRight > rightMargin {
			rightMargin = lineRight
		}
		if line.BBox.Width > maxWidth {
			maxWidth = line.BBox.Width
		}
	}

	contentWidth := rightMargin - leftMargin
	tolerance := d.config.AlignmentTolerance

	for i := range lines {
		line := &lines[i]
		lineLeft := line.BBox.X
		lineRight := line.BBox.X + line.BBox.Width
		lineCenter := lineLeft + line.BBox.Width/2
		contentCenter := leftMargin + contentWidth/2

		// Justified lines span almost the full content width
		widthRatio := line.BBox.Width / maxWidth
		if widthRatio >= d.config.JustificationThreshold {
			line.Alignment = AlignJustified
			continue
		}

		leftAligned := absFloat64(lineLeft-leftMargin) <= tolerance
		rightAligned := absFloat64(lineRight-rightMargin) <= tolerance
		centerAligned := absFloat64(lineCenter-contentCenter) <= tolerance

		if centerAligned && !leftAligned && !rightAligned {
			line.Alignment = AlignCenter
		} else if rightAligned && !leftAligned {
			line.Alignment = AlignRight
		} else if leftAligned {
			line.Alignment = AlignLeft
		} else {
			line.Alignment = AlignUnknown
		}
	}
}

// calculateStatistics calculates average line spacing and height
func (d *LineDetector) calculateStatistics(lines []Line) (avgSpacing, avgHeight float64) {
	if len(lines) == 0 {
		return 0, 0
	}

	totalHeight := 0.0
	for _, line := range lines {
		totalHeight += line.Height
	}
	avgHeight = totalHeight / float64(len(lines))

	if len(lines) < 2 {
		return 0, avgHeight
	}

	totalSpacing := 0.0
	spacingCount := 0
	for _, line := range lines {
		if line.SpacingBefore > 0 {
			totalSpacing += line.SpacingBefore
			spacingCount++
		}
	}

	if spacingCount > 0 {
		avgSpacing = totalSpacing / float64(spacingCount)
	}

	return avgSpacing, avgHeight
}

// LineLayout methods

// LineCount returns the number of detected lines
func (l *LineLayout) LineCount() int {
	if l == nil {
		return 0
	}
	return len(l.Lines)
}

// GetLine returns a specific line by index
func (l *LineLayout) GetLine(index int) *Line {
	if l == nil || index < 0 || index >= len(l.Lines) {
		return nil
	}
	return &l.Lines[index]
}

// GetText returns all text in line order
func (l *LineLayout) GetText() string {
	if l == nil || len(l.Lines) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, line := range l.Lines {
		sb.WriteString(line.Text)
		if i < len(l.Lines)-1 {
			// Wide gaps read as paragraph breaks
			if line.SpacingAfter > l.AverageLineSpacing*1.5 {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// GetAllItems returns all runs in reading order
func (l *LineLayout) GetAllItems() []*model.TextItem {
	if l == nil {
		return nil
	}

	var result []*model.TextItem
	for _, line := range l.Lines {
		result = append(result, line.Items...)
	}
	return result
}

// FindLinesInRegion returns lines that fall within a bounding box
func (l *LineLayout) FindLinesInRegion(bbox model.BBox) []Line {
	if l == nil {
		return nil
	}

	var result []Line
	for _, line := range l.Lines {
		if line.BBox.Intersects(bbox) {
			result = append(result, line)
		}
	}
	return result
}

// GetLinesByAlignment returns lines with a specific alignment
func (l *LineLayout) GetLinesByAlignment(alignment LineAlignment) []Line {
	if l == nil {
		return nil
	}

	var result []Line
	for _, line := range l.Lines {
		if line.Alignment == alignment {
			result = append(result, line)
		}
	}
	return result
}

// IsParagraphBreak returns true if there's a paragraph break after the given line index
func (l *LineLayout) IsParagraphBreak(lineIndex int) bool {
	if l == nil || lineIndex < 0 || lineIndex >= len(l.Lines)-1 {
		return false
	}

	line := l.Lines[lineIndex]
	return line.SpacingAfter > l.AverageLineSpacing*1.5
}

// Line methods

// IsIndented returns true if the line is indented relative to the margin
func (line *Line) IsIndented(margin, tolerance float64) bool {
	if line == nil {
		return false
	}
	return line.Indentation > margin+tolerance
}

// ContainsPoint returns true if the point is within the line's bounding box
func (line *Line) ContainsPoint(x, y float64) bool {
	if line == nil {
		return false
	}
	return line.BBox.Contains(model.Point{X: x, Y: y})
}

// WordCount returns an approximate word count for the line
func (line *Line) WordCount() int {
	if line == nil || line.Text == "" {
		return 0
	}
	return len(strings.Fields(line.Text))
}

// IsEmpty returns true if the line has no text content
func (line *Line) IsEmpty() bool {
	if line == nil {
		return true
	}
	return strings.TrimSpace(line.Text) == ""
}

// HasLargerFont returns true if this line's font is larger than the given size
func (line *Line) HasLargerFont(size float64) bool {
	if line == nil {
		return false
	}
	return line.AverageFontSize > size
}

// itemsBBox returns the bounding box enclosing a group of runs
func itemsBBox(items []*model.TextItem) model.BBox {
	if len(items) == 0 {
		return model.BBox{}
	}

	bbox := items[0].Bounds()
	for _, it := range items[1:] {
		bbox = bbox.Union(it.Bounds())
	}
	return bbox
}

// absFloat64 returns the absolute value of a float64
func absFloat64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
