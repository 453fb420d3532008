// Package pages flattens the PDF page tree and exposes page attributes.
//
// PDF documents organize pages in a tree of Pages nodes with Page leaves.
// [PageTree] walks the tree depth-first and produces pages in document
// order:
//
//	tree := pages.NewPageTree(pagesDict, resolver)
//	all, _ := tree.Pages()
//	page, _ := tree.GetPage(0)
//
// The walk is defensive about damaged trees: nodes missing /Type are
// classified by shape (a /Kids entry means an intermediate node), cyclic
// kid references are reported as errors rather than looping, and nesting
// deeper than a fixed bound fails.
//
// [Page] resolves the attributes extraction needs: MediaBox and CropBox,
// rotation, resources, annotations, and decoded content stream data.
// MediaBox, CropBox, Resources, and Rotate are inheritable; a page that
// omits one takes the value from its nearest ancestor that sets it, however
// far up the tree that is.
package pages
