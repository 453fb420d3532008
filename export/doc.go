// Package export renders the reconstructed document tree as portable
// text formats. Markdown output preserves headings, paragraphs, and
// tables; HTML output builds a full document tree and serializes it,
// embedding images as data URIs.
package export
