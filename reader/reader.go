package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/quirepdf/quire/contentstream"
	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/pages"
	"github.com/quirepdf/quire/resolver"
)

// PDFVersion represents a PDF version number
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var headerPattern = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// Reader reads PDF files and provides access to their objects and pages.
// Object loading is memoized behind a mutex, so independent pages can be
// read and interpreted from multiple goroutines at once.
type Reader struct {
	file     *os.File
	fileSize int64
	version  PDFVersion

	mu       sync.Mutex // guards file access, xref, trailer, objCache, pageTree
	xref     *core.XRefTable
	trailer  core.Dict
	objCache map[int]core.Object
	loading  map[int]bool
	scanned  bool // object scan already performed, do not retry
	pageTree *pages.PageTree

	warnMu   sync.Mutex
	warnings []string
}

// Open opens a PDF file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

// NewReader creates a Reader from an open file. The reader takes ownership
// of the handle; Close releases it.
func NewReader(file *os.File) (*Reader, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r := &Reader{
		file:     file,
		fileSize: info.Size(),
		objCache: make(map[int]core.Object),
		loading:  make(map[int]bool),
	}

	if err := r.parseHeader(); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if err := r.loadXRef(); err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}

	return r, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// parseHeader reads the %PDF-x.y header from the start of the file.
func (r *Reader) parseHeader() error {
	buf := make([]byte, 16)
	n, err := r.file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read header: %w", err)
	}
	buf = buf[:n]

	if !bytes.HasPrefix(buf, []byte("%PDF-")) {
		return fmt.Errorf("not a PDF file: missing %%PDF- header")
	}

	m := headerPattern.FindSubmatch(buf)
	if m == nil {
		return fmt.Errorf("malformed version in header")
	}

	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	r.version = PDFVersion{Major: major, Minor: minor}

	return nil
}

// loadXRef parses the cross-reference table, following /Prev chains so
// incremental updates override older entries. Any failure, including a
// cross-reference stream, falls back to scanning the file for object
// headers rather than refusing the document.
func (r *Reader) loadXRef() error {
	parser := core.NewXRefParser(io.NewSectionReader(r.file, 0, r.fileSize))

	tables, err := parser.ParseAllXRefs()
	if err != nil {
		if errors.Is(err, core.ErrXRefStream) {
			r.warnf("cross-reference stream detected, scanning file for objects")
		} else {
			r.warnf("xref table unusable, scanning file for objects: %v", err)
		}
		if scanErr := r.scanForObjects(); scanErr != nil {
			return fmt.Errorf("failed to recover object table: %w", scanErr)
		}
		return nil
	}

	merged := core.MergeXRefTables(tables...)
	r.xref = merged
	r.trailer = merged.Trailer

	return nil
}

// scanForObjects rebuilds the object table by scanning the whole file for
// "N G obj" headers. When the scan turns up no trailer, the one from the
// original xref attempt, if any, is kept.
func (r *Reader) scanForObjects() error {
	r.scanned = true

	if r.file == nil {
		return fmt.Errorf("reader is closed")
	}

	data := make([]byte, r.fileSize)
	n, err := r.file.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for object scan: %w", err)
	}

	table := core.ScanObjects(data[:n])
	if table.Size() == 0 {
		return fmt.Errorf("no object headers found")
	}

	if len(table.Trailer) == 0 && len(r.trailer) > 0 {
		table.Trailer = r.trailer
	}
	r.xref = table
	r.trailer = table.Trailer

	return nil
}

// Version returns the PDF version from the header.
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary.
func (r *Reader) Trailer() core.Dict {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trailer
}

// XRefTable returns the cross-reference table.
func (r *Reader) XRefTable() *core.XRefTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.xref
}

// FileSize returns the size of the PDF file in bytes.
func (r *Reader) FileSize() int64 {
	return r.fileSize
}

// NumObjects returns the object count declared by the trailer /Size entry,
// or 0 when the trailer does not declare one.
func (r *Reader) NumObjects() int {
	if size, ok := r.Trailer().GetInt("Size"); ok {
		return int(size)
	}
	return 0
}

// Warnings returns descriptions of every repair and degradation recorded
// while reading, in the order they occurred.
func (r *Reader) Warnings() []string {
	r.warnMu.Lock()
	defer r.warnMu.Unlock()

	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

func (r *Reader) warnf(format string, args ...interface{}) {
	r.warnMu.Lock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.warnMu.Unlock()
}

// GetObject loads the object with the given number, parsing it from the
// file on first use and serving the cached value afterwards. When the
// recorded offset does not hold the object, the whole file is rescanned
// for object headers once and the load retried.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getObjectLocked(objNum)
}

func (r *Reader) getObjectLocked(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}
	if r.file == nil {
		return nil, fmt.Errorf("reader is closed")
	}
	if r.loading[objNum] {
		return nil, fmt.Errorf("object %d: circular reference during load", objNum)
	}

	entry, ok := r.xref.Get(objNum)
	if !ok {
		return nil, fmt.Errorf("object %d not found in xref table", objNum)
	}
	if !entry.InUse {
		return nil, fmt.Errorf("object %d is marked as free", objNum)
	}

	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	obj, err := r.parseObjectAt(objNum, entry.Offset)
	if err != nil && !r.scanned {
		// An offset that points into garbage means the table cannot be
		// trusted; rebuild it from the file content and retry once.
		r.warnf("object %d unusable at offset %d, rescanning file: %v", objNum, entry.Offset, err)
		if scanErr := r.scanForObjects(); scanErr == nil {
			if entry, ok := r.xref.Get(objNum); ok && entry.InUse {
				obj, err = r.parseObjectAt(objNum, entry.Offset)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

// parseObjectAt parses the indirect object expected at the given offset.
// Reads go through a SectionReader so a nested load triggered by an
// indirect stream /Length cannot disturb this parse.
func (r *Reader) parseObjectAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= r.fileSize {
		return nil, fmt.Errorf("object %d: offset %d outside file", objNum, offset)
	}

	parser := core.NewParser(io.NewSectionReader(r.file, offset, r.fileSize-offset))
	parser.SetReferenceResolver(lockedResolver{r})

	indirect, err := parser.ParseIndirectObject()
	for _, w := range parser.Warnings() {
		r.warnf("%s", w)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}

	if indirect.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indirect.Ref.Number)
	}

	return indirect.Object, nil
}

// lockedResolver resolves references for a parse that already holds the
// reader lock, so an indirect stream /Length can be followed mid-parse.
type lockedResolver struct {
	r *Reader
}

func (lr lockedResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return lr.r.getObjectLocked(ref.Number)
}

// ResolveReference resolves an indirect reference to its target object.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve follows obj if it is an indirect reference and returns the
// target. Non-references are returned as-is.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	return resolver.NewResolver(r).Resolve(obj)
}

// ResolveDeep resolves obj and every reference nested in dictionaries and
// arrays. Each call uses a fresh resolver, so concurrent page reads never
// share resolution state.
func (r *Reader) ResolveDeep(obj core.Object) (core.Object, error) {
	return resolver.NewResolver(r).ResolveDeep(obj)
}

// ClearCache clears the object cache to free memory.
func (r *Reader) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objCache = make(map[int]core.Object)
}

// CacheSize returns the number of cached objects.
func (r *Reader) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objCache)
}

// GetCatalog returns the document catalog. When a recovered file has no
// trailer /Root, the object table is searched for the catalog instead.
func (r *Reader) GetCatalog() (core.Dict, error) {
	rootObj := r.Trailer().Get("Root")
	if rootObj == nil {
		return r.findCatalog()
	}

	resolved, err := r.Resolve(rootObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Root: %w", err)
	}

	catalog, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid catalog type: %T", resolved)
	}

	return catalog, nil
}

// findCatalog walks the object table in numeric order looking for the
// /Type /Catalog dictionary.
func (r *Reader) findCatalog() (core.Dict, error) {
	r.mu.Lock()
	nums := make([]int, 0, r.xref.Size())
	for num := range r.xref.Entries {
		nums = append(nums, num)
	}
	r.mu.Unlock()
	sort.Ints(nums)

	for _, num := range nums {
		obj, err := r.GetObject(num)
		if err != nil {
			continue
		}
		dict, ok := obj.(core.Dict)
		if !ok {
			continue
		}
		if name, ok := dict.GetName("Type"); ok && name == "Catalog" {
			return dict, nil
		}
	}

	return nil, fmt.Errorf("document catalog not found")
}

// GetInfo returns the document information dictionary, or nil when the
// document has none.
func (r *Reader) GetInfo() (core.Dict, error) {
	infoObj := r.Trailer().Get("Info")
	if infoObj == nil {
		return nil, nil
	}

	resolved, err := r.Resolve(infoObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Info: %w", err)
	}

	info, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid info type: %T", resolved)
	}

	return info, nil
}

// Metadata decodes the information dictionary into document metadata.
// Text strings are decoded (UTF-16 or byte text) and dates parsed; entries
// outside the standard set land in Custom.
func (r *Reader) Metadata() (model.Metadata, error) {
	meta := model.Metadata{Custom: make(map[string]string)}

	info, err := r.GetInfo()
	if err != nil {
		return meta, err
	}
	if info == nil {
		return meta, nil
	}

	for _, key := range info.SortedKeys() {
		resolved, err := r.Resolve(info.Get(key))
		if err != nil {
			r.warnf("info /%s: %v", key, err)
			continue
		}
		str, ok := resolved.(core.String)
		if !ok {
			continue
		}
		value := decodeTextString([]byte(str))

		switch key {
		case "Title":
			meta.Title = value
		case "Author":
			meta.Author = value
		case "Subject":
			meta.Subject = value
		case "Keywords":
			meta.Keywords = splitKeywords(value)
		case "Creator":
			meta.Creator = value
		case "Producer":
			meta.Producer = value
		case "CreationDate":
			meta.CreationDate = parseDate(value)
		case "ModDate":
			meta.ModDate = parseDate(value)
		default:
			meta.Custom[key] = value
		}
	}

	return meta, nil
}

// splitKeywords splits a /Keywords value on commas and semicolons.
func splitKeywords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ensurePageTree builds the flattened page tree on first use. The tree is
// fully loaded before publication, so it is read-only afterwards and safe
// to share between goroutines.
func (r *Reader) ensurePageTree() (*pages.PageTree, error) {
	r.mu.Lock()
	tree := r.pageTree
	r.mu.Unlock()
	if tree != nil {
		return tree, nil
	}

	catalog, err := r.GetCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	pagesObj := catalog.Get("Pages")
	if pagesObj == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}

	resolved, err := r.Resolve(pagesObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}

	pagesDict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", resolved)
	}

	tree = pages.NewPageTree(pagesDict, r)
	if _, err := tree.Pages(); err != nil {
		return nil, fmt.Errorf("failed to load page tree: %w", err)
	}

	r.mu.Lock()
	if r.pageTree == nil {
		r.pageTree = tree
	}
	tree = r.pageTree
	r.mu.Unlock()

	return tree, nil
}

// PageCount returns the number of pages in the document.
func (r *Reader) PageCount() (int, error) {
	tree, err := r.ensurePageTree()
	if err != nil {
		return 0, err
	}

	ps, err := tree.Pages()
	if err != nil {
		return 0, err
	}
	return len(ps), nil
}

// GetPage returns the page at the given index (0-based).
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	tree, err := r.ensurePageTree()
	if err != nil {
		return nil, err
	}
	return tree.GetPage(index)
}

// Pages returns every page in document order.
func (r *Reader) Pages() ([]*pages.Page, error) {
	tree, err := r.ensurePageTree()
	if err != nil {
		return nil, err
	}
	return tree.Pages()
}

// Items interprets the page's content streams and returns the positioned
// marks, text, images and line work, in drawing order. Each call runs a
// fresh interpreter, so pages may be processed concurrently.
func (r *Reader) Items(page *pages.Page) ([]model.PageItem, error) {
	data, err := page.ContentData()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	// A page with no resources can still draw untexted paths
	resources, err := page.Resources()
	if err != nil {
		resources = nil
	}

	ip := contentstream.NewInterpreter(r.ResolveReference)
	ip.SetImageFunc(r.decodeImage)

	items, execErr := ip.ExecuteFromBytes(data, resources)
	for _, w := range ip.Warnings() {
		r.warnf("page %d: %s", page.Index()+1, w)
	}
	if execErr != nil {
		return nil, fmt.Errorf("failed to interpret page content: %w", execErr)
	}

	return items, nil
}

// ExtractTextFragments returns the positioned text runs drawn by the
// page's content streams, in drawing order.
func (r *Reader) ExtractTextFragments(page *pages.Page) ([]*model.TextItem, error) {
	items, err := r.Items(page)
	if err != nil {
		return nil, err
	}

	var fragments []*model.TextItem
	for _, item := range items {
		if t, ok := item.(*model.TextItem); ok {
			fragments = append(fragments, t)
		}
	}
	return fragments, nil
}

var (
	_ pages.ObjectResolver   = (*Reader)(nil)
	_ resolver.ObjectReader  = (*Reader)(nil)
	_ core.ReferenceResolver = (*Reader)(nil)
)
