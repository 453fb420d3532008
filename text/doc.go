// Package text rebuilds plain text from positioned page runs.
//
// The content stream interpreter reports text as isolated runs placed in
// device space. Nothing in the drawing model says where words end: a
// writer may draw "Hello World" as two runs with no space character in
// either. The [Assembler] recovers the lost structure:
//
//	asm := text.NewAssembler()
//	plain := asm.Assemble(runs)
//
// Runs on the same baseline merge into logical lines, each line is put
// in reading order, and spaces are reinserted where the horizontal gaps
// imply a word boundary. Word-level pages compare gaps against the
// font's space width; character-level pages (one glyph per run) adapt to
// the line's own gap distribution instead. Registering fonts with
// [Assembler.RegisterFont] replaces the space-width estimate with real
// metrics.
//
// Lines are joined with newlines; vertical gaps beyond 1.5 times the
// line height become paragraph breaks.
//
// # Text Direction
//
// [DetectDirection] classifies text as left-to-right, right-to-left or
// neutral from its strong directional characters. Pages store
// right-to-left scripts in visual order, so each baseline is assembled
// in its own dominant direction and Arabic or Hebrew lines come out in
// reading order.
package text
