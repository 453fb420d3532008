// Package graphicsstate provides PDF graphics state management.
//
// The PDF graphics state controls how content is rendered, including
// transformation matrices, colors, line properties, and text state.
// This package implements the state stack used during content stream
// processing.
//
// # Graphics State
//
// The main type is GraphicsState, which tracks:
//   - CTM (Current Transformation Matrix) for coordinate transformations
//   - Line properties (width, cap, join, miter limit, dash pattern)
//   - Colors (stroke and fill)
//   - Text state (font, size, spacing, matrices)
//
// Example usage:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()              // Push state (q operator)
//	gs.Concat(matrix)      // Modify CTM (cm operator)
//	gs.SetFont("F1", 12)   // Set font (Tf operator)
//	gs.Restore()           // Pop state (Q operator)
//
// Save copies every field of the state, so changes made between Save
// and Restore never leak into the restored state.
//
// # Text State
//
// Text rendering uses a separate TextState structure that tracks:
//   - Font name and size (Tf operator)
//   - Character and word spacing (Tc, Tw operators)
//   - Horizontal scaling (Tz operator)
//   - Leading for line spacing (TL operator)
//   - Text rise (Ts operator)
//   - Text and text line matrices (Tm, Td operators)
//
// GetTextPosition maps the current text-space origin through the text
// matrix and the CTM, giving the device-space position where the next
// glyph would be placed.
//
// # Path Operations
//
// The package also includes path construction and painting support.
// PathExtractor consumes path operators and, on each painting operator,
// emits model.LineItem values in device space:
//   - MoveTo, LineTo, CurveTo for path construction
//   - Rectangle for the re operator
//   - Stroke, Fill and variants for path painting
//
// Axis-aligned closed quads collapse to a single rect item; other
// stroked subpaths become one item per segment. The content stream
// interpreter drains the emitted items after every painting operator
// so that drawing order is preserved across the whole page.
package graphicsstate
