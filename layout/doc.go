// Package layout reconstructs semantic structure from the positioned text
// runs of a PDF page.
//
// The package analyzes text runs to detect document structure including
// lines, paragraphs, and headings, and to identify repeated headers and
// footers across pages.
//
// # Layout Analysis
//
// The [Analyzer] orchestrates the detection components:
//
//	analyzer := layout.NewAnalyzer()
//	result := analyzer.Analyze(items, pageWidth, pageHeight)
//
// For faster analysis without heading classification:
//
//	result := analyzer.QuickAnalyze(items, pageWidth, pageHeight)
//
// # Analysis Results
//
// The [AnalysisResult] contains:
//
//   - Elements - reconstructed elements in reading order
//   - Headings, Paragraphs - detected semantic structure
//   - Lines - lower-level text structure
//
// # Detectors
//
// The package includes specialized detectors:
//
//   - [LineDetector] - groups runs into text lines
//   - [ParagraphDetector] - groups lines into paragraphs
//   - [HeadingDetector] - identifies headings by font size and position
//   - [HeaderFooterDetector] - identifies repeated headers/footers
//
// # Configuration
//
// Each detector can be configured independently:
//
//	config := layout.DefaultAnalyzerConfig()
//	config.DetectHeadings = true
//	config.ParagraphConfig.SpacingThreshold = 1.8
//	analyzer := layout.NewAnalyzerWithConfig(config)
//
// # Header/Footer Filtering
//
// For multi-page documents, headers and footers can be detected and filtered:
//
//	result := analyzer.AnalyzeWithHeaderFooterFiltering(pages, pageIndex)
package layout
