package pages

import (
	"bytes"
	"fmt"

	"github.com/quirepdf/quire/core"
)

// maxTreeDepth bounds page tree nesting. Real documents stay in single
// digits; anything deeper is damaged or hostile.
const maxTreeDepth = 100

// inheritableKeys are the page attributes a Pages node passes down to its
// descendants.
var inheritableKeys = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// ObjectResolver resolves indirect references for page tree traversal.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
	ResolveDeep(obj core.Object) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// Catalog represents the PDF document catalog, the root of the document
// structure.
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary.
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Type returns the catalog type (should be "Catalog").
func (c *Catalog) Type() string {
	if name, ok := c.dict.GetName("Type"); ok {
		return string(name)
	}
	return ""
}

// Pages returns the page tree root dictionary.
func (c *Catalog) Pages() (core.Dict, error) {
	pagesRef := c.dict.Get("Pages")
	if pagesRef == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}

	pagesObj, err := c.resolver.Resolve(pagesRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}

	pagesDict, ok := pagesObj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", pagesObj)
	}

	return pagesDict, nil
}

// Metadata returns the metadata stream if present.
func (c *Catalog) Metadata() (*core.Stream, error) {
	metadataRef := c.dict.Get("Metadata")
	if metadataRef == nil {
		return nil, nil
	}

	metadataObj, err := c.resolver.Resolve(metadataRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}

	stream, ok := metadataObj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("invalid /Metadata type: %T", metadataObj)
	}

	return stream, nil
}

// Version returns the version entry if present.
func (c *Catalog) Version() string {
	if name, ok := c.dict.GetName("Version"); ok {
		return string(name)
	}
	return ""
}

// PageTree flattens the PDF page tree into an ordered page list.
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page // cached flattened list
}

// NewPageTree creates a new page tree from the root pages dictionary.
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{
		root:     root,
		resolver: resolver,
	}
}

// Count returns the page count declared by the tree root. The flattened
// list is the source of truth when the two disagree.
func (t *PageTree) Count() (int, error) {
	countObj := t.root.Get("Count")
	if countObj == nil {
		return 0, fmt.Errorf("page tree missing /Count entry")
	}

	count, ok := countObj.(core.Int)
	if !ok {
		return 0, fmt.Errorf("invalid /Count type: %T", countObj)
	}

	return int(count), nil
}

// GetPage returns the page at the given index (0-based).
func (t *PageTree) GetPage(index int) (*Page, error) {
	if t.pages == nil {
		if err := t.loadPages(); err != nil {
			return nil, err
		}
	}

	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}

	return t.pages[index], nil
}

// Pages returns all pages in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages == nil {
		if err := t.loadPages(); err != nil {
			return nil, err
		}
	}

	return t.pages, nil
}

// loadPages traverses the page tree depth-first and builds the flattened
// page list.
func (t *PageTree) loadPages() error {
	t.pages = make([]*Page, 0)

	visiting := make(map[int]bool)
	if err := t.traversePageNode(t.root, nil, 0, visiting); err != nil {
		return fmt.Errorf("failed to traverse page tree: %w", err)
	}

	return nil
}

// traversePageNode walks one tree node. inherited carries the inheritable
// attributes accumulated from every ancestor, nearest ancestor winning.
// visiting tracks node object numbers across the whole walk; a repeat means
// the tree has a cycle.
func (t *PageTree) traversePageNode(node core.Dict, inherited core.Dict, depth int, visiting map[int]bool) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
	}

	typeName, _ := node.GetName("Type")
	if typeName == "" {
		// Damaged files omit /Type; infer the node kind from its shape
		if node.Has("Kids") {
			typeName = "Pages"
		} else {
			typeName = "Page"
		}
	}

	switch string(typeName) {
	case "Pages":
		kidsObj := node.Get("Kids")
		if kidsObj == nil {
			return fmt.Errorf("Pages node missing /Kids entry")
		}

		kidsResolved, err := t.resolver.Resolve(kidsObj)
		if err != nil {
			return fmt.Errorf("failed to resolve /Kids: %w", err)
		}

		kids, ok := kidsResolved.(core.Array)
		if !ok {
			return fmt.Errorf("invalid /Kids type: %T", kidsResolved)
		}

		merged := mergeInherited(inherited, node)

		for i, kidObj := range kids {
			if ref, ok := kidObj.(core.IndirectRef); ok {
				if visiting[ref.Number] {
					return fmt.Errorf("page tree cycle at object %d", ref.Number)
				}
				visiting[ref.Number] = true
			}

			kidResolved, err := t.resolver.Resolve(kidObj)
			if err != nil {
				return fmt.Errorf("failed to resolve kid %d: %w", i, err)
			}

			kidDict, ok := kidResolved.(core.Dict)
			if !ok {
				return fmt.Errorf("invalid kid type: %T", kidResolved)
			}

			if err := t.traversePageNode(kidDict, merged, depth+1, visiting); err != nil {
				return err
			}
		}

	case "Page":
		page := NewPage(node, inherited, t.resolver)
		page.index = len(t.pages)
		t.pages = append(t.pages, page)

	default:
		return fmt.Errorf("unexpected page node type: %s", typeName)
	}

	return nil
}

// mergeInherited layers node's inheritable attributes over the accumulated
// ancestor attributes.
func mergeInherited(inherited, node core.Dict) core.Dict {
	merged := make(core.Dict, len(inheritableKeys))
	for key, value := range inherited {
		merged[key] = value
	}
	for _, key := range inheritableKeys {
		if value := node.Get(key); value != nil {
			merged.Set(key, value)
		}
	}
	return merged
}

// Page represents a single PDF page.
type Page struct {
	dict      core.Dict
	inherited core.Dict // attributes accumulated from ancestor Pages nodes
	resolver  ObjectResolver
	index     int
}

// NewPage creates a new page. inherited holds attribute values from the
// page's ancestors and may be nil.
func NewPage(dict core.Dict, inherited core.Dict, resolver ObjectResolver) *Page {
	return &Page{
		dict:      dict,
		inherited: inherited,
		resolver:  resolver,
	}
}

// Index returns the page's 0-based position in the flattened tree.
func (p *Page) Index() int {
	return p.index
}

// Type returns the page type (should be "Page").
func (p *Page) Type() string {
	if name, ok := p.dict.GetName("Type"); ok {
		return string(name)
	}
	return ""
}

// MediaBox returns the page media box [x1 y1 x2 y2], inherited from an
// ancestor when the page omits it.
func (p *Page) MediaBox() ([]float64, error) {
	return p.getBox("MediaBox")
}

// CropBox returns the page crop box, falling back to MediaBox when absent.
func (p *Page) CropBox() ([]float64, error) {
	box, err := p.getBox("CropBox")
	if err != nil {
		return p.MediaBox()
	}
	return box, nil
}

// getInheritable looks an attribute up on the page, then on the accumulated
// ancestor attributes.
func (p *Page) getInheritable(name string) core.Object {
	if obj := p.dict.Get(name); obj != nil {
		return obj
	}
	if p.inherited != nil {
		return p.inherited.Get(name)
	}
	return nil
}

// getBox retrieves an inheritable box attribute as four numbers.
func (p *Page) getBox(name string) ([]float64, error) {
	boxObj := p.getInheritable(name)
	if boxObj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}

	boxResolved, err := p.resolver.Resolve(boxObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	boxArr, ok := boxResolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid %s type: %T", name, boxResolved)
	}

	if len(boxArr) != 4 {
		return nil, fmt.Errorf("invalid %s length: %d (expected 4)", name, len(boxArr))
	}

	box := make([]float64, 4)
	for i, elem := range boxArr {
		num, ok := core.AsNumber(elem)
		if !ok {
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
		box[i] = num
	}

	return box, nil
}

// Resources returns the page resources dictionary, inherited from an
// ancestor when the page omits it.
func (p *Page) Resources() (core.Dict, error) {
	resourcesObj := p.getInheritable("Resources")
	if resourcesObj == nil {
		return nil, fmt.Errorf("resources not found")
	}

	resourcesResolved, err := p.resolver.Resolve(resourcesObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}

	resourcesDict, ok := resourcesResolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resourcesResolved)
	}

	return resourcesDict, nil
}

// Contents returns the page content stream or streams.
func (p *Page) Contents() ([]core.Object, error) {
	contentsObj := p.dict.Get("Contents")
	if contentsObj == nil {
		return nil, nil
	}

	contentsResolved, err := p.resolver.Resolve(contentsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	switch v := contentsResolved.(type) {
	case *core.Stream:
		return []core.Object{v}, nil
	case core.Array:
		streams := make([]core.Object, len(v))
		for i, elem := range v {
			resolved, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
			}
			streams[i] = resolved
		}
		return streams, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", contentsResolved)
	}
}

// ContentData decodes the page's content streams and joins them into one
// buffer. Split streams are fragments of a single logical stream; a newline
// between parts keeps a token ending one part from fusing with the next.
func (p *Page) ContentData() ([]byte, error) {
	contents, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// Annots returns the page's annotation dictionaries. Pages without
// annotations yield nil.
func (p *Page) Annots() ([]core.Dict, error) {
	annotsObj := p.dict.Get("Annots")
	if annotsObj == nil {
		return nil, nil
	}

	resolved, err := p.resolver.Resolve(annotsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Annots: %w", err)
	}

	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid /Annots type: %T", resolved)
	}

	annots := make([]core.Dict, 0, len(arr))
	for i, elem := range arr {
		annotObj, err := p.resolver.Resolve(elem)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve annotation %d: %w", i, err)
		}
		if dict, ok := annotObj.(core.Dict); ok {
			annots = append(annots, dict)
		}
	}

	return annots, nil
}

// Rotate returns the page rotation in degrees (0, 90, 180, or 270),
// inherited from an ancestor when the page omits it.
func (p *Page) Rotate() int {
	rotateObj := p.getInheritable("Rotate")
	if rotateObj == nil {
		return 0
	}

	if rotate, ok := rotateObj.(core.Int); ok {
		return int(rotate)
	}

	return 0
}

// Width returns the page width from the MediaBox.
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height from the MediaBox.
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
