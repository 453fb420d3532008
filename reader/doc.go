// Package reader opens PDF files and provides access to their objects,
// pages, and extracted content.
//
// [Open] parses the header and cross-reference table and returns a
// [Reader]:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// The reader never refuses a structurally damaged file when it can help
// it: a missing, truncated, or lying xref table (and any cross-reference
// stream, which this package does not parse) is replaced by scanning the
// whole file for "N G obj" headers. Every such repair is recorded and
// available through Warnings.
//
// Objects load lazily through GetObject and are memoized behind a mutex,
// so pages may be read and interpreted from multiple goroutines at once.
// Resolve and ResolveDeep follow indirect references with bounded depth
// and cycle detection.
//
// Per page, the reader exposes four views of the content:
//
//   - Items runs the content-stream interpreter and returns every
//     positioned mark in drawing order.
//   - ExtractTextFragments keeps just the text runs.
//   - ExtractPageImages decodes image XObjects: JPEG and JPEG2000 pass
//     through as complete containers, everything else is re-encoded as
//     PNG.
//   - ExtractAnnotations decodes the page's annotation dictionaries.
//
// Document-level accessors cover the catalog, the information dictionary
// (raw via GetInfo, decoded via Metadata), the trailer, and the page
// tree.
package reader
