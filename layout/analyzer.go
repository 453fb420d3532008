package layout

import (
	"sort"

	"github.com/quirepdf/quire/model"
)

// AnalyzerConfig holds configuration options for the layout analyzer.
// Each detection component has its own sub-configuration.
type AnalyzerConfig struct {
	// Line detection configuration
	LineConfig LineConfig

	// Paragraph detection configuration
	ParagraphConfig ParagraphConfig

	// Heading detection configuration
	HeadingConfig HeadingConfig

	// DetectHeadings enables heading detection
	DetectHeadings bool
}

// DefaultAnalyzerConfig returns a configuration with sensible defaults for
// typical document layout analysis, with heading detection enabled.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		LineConfig:      DefaultLineConfig(),
		ParagraphConfig: DefaultParagraphConfig(),
		HeadingConfig:   DefaultHeadingConfig(),
		DetectHeadings:  true,
	}
}

// AnalysisResult holds the complete results from layout analysis, including
// reconstructed elements, the intermediate analysis structures (lines,
// paragraphs, headings), and statistics about the analysis.
type AnalysisResult struct {
	// Elements are all reconstructed elements in reading order
	Elements []model.Element

	// Lines are all detected lines
	Lines *LineLayout

	// Paragraphs are all detected paragraphs
	Paragraphs *ParagraphLayout

	// Headings are all detected headings
	Headings *HeadingLayout

	// PageWidth and PageHeight
	PageWidth  float64
	PageHeight float64

	// Statistics
	Stats AnalysisStats
}

// AnalysisStats contains counts of detected elements from the layout analysis.
type AnalysisStats struct {
	ItemCount      int
	LineCount      int
	ParagraphCount int
	HeadingCount   int
	ElementCount   int
}

// GetText returns all extracted text concatenated in reading order.
func (r *AnalysisResult) GetText() string {
	if r == nil || r.Paragraphs == nil {
		return ""
	}
	return r.Paragraphs.GetText()
}

// Analyzer orchestrates the layout detection components to reconstruct
// semantic structure from a page's text runs. It combines line, paragraph,
// and heading detection into a unified analysis pipeline.
type Analyzer struct {
	config AnalyzerConfig

	lineDetector      *LineDetector
	paragraphDetector *ParagraphDetector
	headingDetector   *HeadingDetector
}

// NewAnalyzer creates a new layout analyzer with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultAnalyzerConfig())
}

// NewAnalyzerWithConfig creates a new layout analyzer with the specified configuration.
func NewAnalyzerWithConfig(config AnalyzerConfig) *Analyzer {
	return &Analyzer{
		config:            config,
		lineDetector:      NewLineDetectorWithConfig(config.LineConfig),
		paragraphDetector: NewParagraphDetectorWithConfig(config.ParagraphConfig),
		headingDetector:   NewHeadingDetectorWithConfig(config.HeadingConfig),
	}
}

// Analyze performs complete layout analysis on the given text runs. It runs
// through all detection phases: line detection, paragraph detection, heading
// detection (if enabled), and finally builds the element list in reading order.
func (a *Analyzer) Analyze(items []*model.TextItem, pageWidth, pageHeight float64) *AnalysisResult {
	result := &AnalysisResult{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Stats: AnalysisStats{
			ItemCount: len(items),
		},
	}

	if len(items) == 0 {
		return result
	}

	result.Lines = a.lineDetector.Detect(items, pageWidth, pageHeight)
	result.Stats.LineCount = len(result.Lines.Lines)

	result.Paragraphs = a.paragraphDetector.Detect(result.Lines.Lines, pageWidth, pageHeight)
	result.Stats.ParagraphCount = len(result.Paragraphs.Paragraphs)

	if a.config.DetectHeadings {
		result.Headings = a.headingDetector.DetectFromParagraphs(result.Paragraphs.Paragraphs, pageWidth, pageHeight)
		result.Stats.HeadingCount = len(result.Headings.Headings)
	}

	result.Elements = a.buildElements(result)
	result.Stats.ElementCount = len(result.Elements)

	return result
}

// QuickAnalyze runs line and paragraph detection only, skipping heading
// classification. Useful when callers only need text in reading order.
func (a *Analyzer) QuickAnalyze(items []*model.TextItem, pageWidth, pageHeight float64) *AnalysisResult {
	result := &AnalysisResult{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Stats: AnalysisStats{
			ItemCount: len(items),
		},
	}

	if len(items) == 0 {
		return result
	}

	result.Lines = a.lineDetector.Detect(items, pageWidth, pageHeight)
	result.Stats.LineCount = len(result.Lines.Lines)

	result.Paragraphs = a.paragraphDetector.Detect(result.Lines.Lines, pageWidth, pageHeight)
	result.Stats.ParagraphCount = len(result.Paragraphs.Paragraphs)

	result.Elements = a.buildElements(result)
	result.Stats.ElementCount = len(result.Elements)

	return result
}

// AnalyzeWithHeaderFooterFiltering performs layout analysis with automatic
// header and footer detection and removal. This requires multiple pages to
// identify repeated content at the top and bottom of pages.
func (a *Analyzer) AnalyzeWithHeaderFooterFiltering(pages []PageItems, pageIndex int) *AnalysisResult {
	if len(pages) == 0 || pageIndex < 0 || pageIndex >= len(pages) {
		return &AnalysisResult{}
	}

	hfDetector := NewHeaderFooterDetector()
	hfResult := hfDetector.Detect(pages)

	target := pages[pageIndex]

	filtered := target.Items
	if hfResult != nil {
		filtered = hfResult.FilterItems(pageIndex, target.Items, target.PageHeight)
	}

	return a.Analyze(filtered, target.PageWidth, target.PageHeight)
}

// buildElements creates the unified element list from the detected components.
// Headings consume the paragraphs they were classified from, the remaining
// paragraphs come through as paragraph elements, and everything is sorted
// into reading order.
func (a *Analyzer) buildElements(result *AnalysisResult) []model.Element {
	var elements []model.Element

	// Paragraphs already represented by a heading
	consumed := make(map[int]bool)

	if result.Headings != nil {
		for i := range result.Headings.Headings {
			h := &result.Headings.Headings[i]
			elements = append(elements, headingElement(h))

			if result.Paragraphs != nil {
				for j := range result.Paragraphs.Paragraphs {
					para := &result.Paragraphs.Paragraphs[j]
					if h.BBox.OverlapRatio(para.BBox) > 0.5 {
						consumed[j] = true
					}
				}
			}
		}
	}

	if result.Paragraphs != nil {
		for i := range result.Paragraphs.Paragraphs {
			if consumed[i] {
				continue
			}
			elements = append(elements, paragraphElement(&result.Paragraphs.Paragraphs[i]))
		}
	}

	sortElements(elements)

	for i, el := range elements {
		switch e := el.(type) {
		case *model.Heading:
			e.ZOrder = i
		case *model.Paragraph:
			e.ZOrder = i
		}
	}

	return elements
}

// headingElement converts a detected heading to a model element.
func headingElement(h *Heading) *model.Heading {
	fontName, style := styleFromItems(h.Items)
	level := int(h.Level)
	if level < 1 {
		level = 1
	}
	return &model.Heading{
		Text:     h.Text,
		Level:    level,
		BBox:     h.BBox,
		FontSize: h.FontSize,
		FontName: fontName,
		Style:    style,
	}
}

// paragraphElement converts a detected paragraph to a model element.
func paragraphElement(p *Paragraph) *model.Paragraph {
	fontName, style := styleFromItems(paragraphItems(p))
	return &model.Paragraph{
		Text:      p.Text,
		BBox:      p.BBox,
		FontSize:  p.AverageFontSize,
		FontName:  fontName,
		Style:     style,
		Alignment: toModelAlignment(p.Alignment),
	}
}

// paragraphItems collects the text runs across all lines of a paragraph.
func paragraphItems(p *Paragraph) []*model.TextItem {
	var items []*model.TextItem
	for _, line := range p.Lines {
		items = append(items, line.Items...)
	}
	return items
}

// styleFromItems derives the representative font name and text style for a
// group of runs. Bold and italic come from font names, underline and strike
// from the interpreter's decoration flags, and the color from the first run.
func styleFromItems(items []*model.TextItem) (string, model.TextStyle) {
	var style model.TextStyle
	fontName := ""

	for i, it := range items {
		if i == 0 {
			fontName = it.FontName
			style.Color = it.Color
		}
		if isBoldFontName(it.FontName) {
			style.Bold = true
		}
		if isItalicFontName(it.FontName) {
			style.Italic = true
		}
		if it.Underline {
			style.Underline = true
		}
		if it.Strike {
			style.Strike = true
		}
	}

	return fontName, style
}

// toModelAlignment converts a layout LineAlignment to a model.TextAlignment.
func toModelAlignment(align LineAlignment) model.TextAlignment {
	switch align {
	case AlignLeft:
		return model.AlignLeft
	case AlignCenter:
		return model.AlignCenter
	case AlignRight:
		return model.AlignRight
	case AlignJustified:
		return model.AlignJustify
	default:
		return model.AlignLeft
	}
}

// sortElements orders elements top to bottom, breaking near-ties left to
// right. PDF coordinates grow upward, so higher Y comes first.
func sortElements(elements []model.Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i].BoundingBox(), elements[j].BoundingBox()
		yDiff := a.Y - b.Y
		if absFloat64(yDiff) > 10 {
			return yDiff > 0
		}
		return a.X < b.X
	})
}
