// Package model provides the intermediate representation for document
// content: the raw item stream the content stream interpreter produces, and
// the structural elements layout reconstruction builds from it.
//
// # Document Structure
//
// The [Document] type represents a complete document with metadata and pages:
//
//	doc := model.NewDocument()
//	doc.Metadata.Title = "My Document"
//	doc.AddPage(page)
//
// Each [Page] carries dimensions and rotation, the ordered [PageItem]
// stream, reconstructed [Element] values, and any [Annotation]s.
//
// # Page Items
//
// [PageItem] is a closed union of the three mark kinds a content stream can
// leave on a page:
//
//   - [TextItem] - one positioned run of text
//   - [ImageItem] - one placed image
//   - [LineItem] - one stroked segment or stroked/filled rectangle
//
// Items appear in drawing order and are never mutated once emitted.
//
// # Elements
//
// Reconstructed page content implements the [Element] interface. The
// concrete types are [Paragraph], [Heading], [Table] and [Image].
//
// # Tables
//
// The [Table] type provides a complete table representation with rows and
// columns of [Cell] values, per-edge border flags, background fills, and
// export methods ToMarkdown() and ToCSV().
//
// # Geometry
//
// Geometric primitives support position and layout calculations:
//
//   - [BBox] - bounding box with intersection, union, and overlap calculations
//   - [Point] - 2D point with distance calculation
//   - [Matrix] - 2D affine transformation matrix
package model
