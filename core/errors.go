package core

import "fmt"

// StructuralError reports damage to the document skeleton: a bad xref, a
// stream with the wrong length, an unbalanced graphics-state stack. The
// reader recovers from these by falling back to scanning and degrading the
// affected page, so callers usually meet this type inside a warning rather
// than a returned error.
type StructuralError struct {
	Offset int64 // byte offset where the damage was found, -1 if unknown
	Msg    string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("structural error at offset %d: %s", e.Offset, e.Msg)
	}
	return "structural error: " + e.Msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

// StreamDecodeError reports a filter that could not decode its payload.
// The item the stream would have produced is dropped and a warning recorded.
type StreamDecodeError struct {
	Filter string
	Err    error
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("stream decode (%s): %v", e.Filter, e.Err)
}

func (e *StreamDecodeError) Unwrap() error { return e.Err }

// FontError reports a font resource that could not be fully understood.
// Text extraction continues with identity decoding and average widths, so
// this type is only ever surfaced as a warning.
type FontError struct {
	Font string
	Err  error
}

func (e *FontError) Error() string {
	return fmt.Sprintf("font %s: %v", e.Font, e.Err)
}

func (e *FontError) Unwrap() error { return e.Err }
