// Package contentstream parses and executes PDF content streams.
//
// Content streams contain the instructions for rendering page content,
// including text display, graphics operations, and image placement.
//
// # Parsing
//
// PDF content streams consist of operators and their operands:
//
//	parser := contentstream.NewParser(streamData)
//	ops, err := parser.Parse()
//	for _, op := range ops {
//	    fmt.Printf("Operator: %s, Operands: %v\n", op.Operator, op.Operands)
//	}
//
// Inline images (BI…ID…EI) are skipped during parsing, surfacing as a
// bare BI operation, because their sample data is raw binary.
//
// # Interpretation
//
// The Interpreter executes parsed operations against one page's resource
// dictionary, tracking the graphics state, and emits every text run,
// placed image, and painted path as model.PageItem values in drawing
// order:
//
//	ip := contentstream.NewInterpreter(resolver)
//	items, err := ip.ExecuteFromBytes(streamData, pageResources)
//
// Text shown by Tj, TJ, ' and " is decoded through the page's fonts and
// positioned by the text matrix and CTM. Form XObjects drawn with Do are
// executed recursively with their own resources; image XObjects are
// delegated to an ImageFunc callback. Structural problems such as
// unbalanced q/Q pairs degrade output and are reported by Warnings
// rather than aborting the page.
//
// # Common Operators
//
// Text operators:
//   - BT, ET - Begin/end text object
//   - Tf - Set font and size
//   - Tm - Set text matrix
//   - Tj, TJ - Show text
//   - Td, TD - Move text position
//
// Graphics state operators:
//   - q, Q - Save/restore graphics state
//   - cm - Modify CTM (current transformation matrix)
//   - w - Set line width
//   - J, j - Set line cap/join style
//
// Path operators:
//   - m, l - Move to, line to
//   - re - Rectangle
//   - S, s, f, f* - Stroke and fill paths
package contentstream
