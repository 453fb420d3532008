// Package tables provides table detection and extraction from PDF pages.
//
// This package implements algorithms for detecting tabular data in PDFs,
// both from the ruled lines a page draws and from the spatial layout of its
// text when no gridlines exist.
//
// # Detectors
//
// Table detection is performed by types implementing the [Detector]
// interface. The package provides:
//
//   - [GridDetector] - clusters ruled lines into row and column boundaries
//   - [GeometricDetector] - uses spatial analysis of text positions
//
// Detectors are registered globally and can be retrieved by name:
//
//	detector := tables.GetDetector("grid")
//	found, err := detector.Detect(page)
//
// The package-level [Detect] runs both in order: ruled-line grids take
// priority, and whitespace clustering is the fallback for borderless tables.
//
// # Grid Detection
//
// The [GridDetector] works from the page's path items:
//
//  1. Classification of segments into horizontal and vertical rules,
//     including the edges of stroked rectangles
//  2. Clustering of rule positions into boundary groups
//  3. Filtering of boundaries that do not span the grid
//  4. Cell population from text positions, with per-edge border flags and
//     background fills
//
// # Geometric Detection
//
// The [GeometricDetector] uses a multi-step algorithm:
//
//  1. Spatial clustering of text items
//  2. Grid construction from the aligned edges of the text
//  3. Cell assignment based on grid positions
//  4. Confidence scoring
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.MinRows = 3
//	config.MinConfidence = 0.7
//	detector.Configure(config)
//
// Configuration options include:
//
//   - MinRows, MinCols - minimum table dimensions
//   - MinConfidence - confidence threshold (0-1)
//   - UseLines, UseWhitespace - which strategies [Detect] may run
//   - LineTolerance - how straight a segment must be to count as a rule
//   - AlignmentTolerance - tolerance for row/column alignment
//
// # Confidence Scoring
//
// Geometric detection confidence (0-1) is based on:
//
//   - Grid regularity (30%)
//   - Alignment quality (30%)
//   - Line presence (20%)
//   - Cell occupancy (20%)
//
// Grid detection scores cell count, boundary regularity, outer border
// completeness and rule coverage instead.
package tables
