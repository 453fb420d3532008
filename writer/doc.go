// Package writer assembles PDF files. The low-level Writer allocates
// object numbers, serializes objects, and emits the final byte layout:
// header, objects in ascending ID order, classical cross-reference
// table, and trailer. DocumentWriter sits above it and turns a
// model.Document into pages, content streams, fonts, images, and
// annotations.
//
// The write path is strictly sequential: object IDs and byte offsets
// are assigned in allocation order. A violated invariant surfaces as a
// WriterError and aborts the output; the writer never emits bytes it
// cannot guarantee form a structurally valid file.
package writer
