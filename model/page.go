package model

import "strings"

// Page represents a single page in a PDF document
type Page struct {
	Number   int     // 1-indexed page number
	Width    float64 // Page width in points
	Height   float64 // Page height in points
	Rotation int     // Rotation angle (0, 90, 180, 270)

	// Items is the flat stream of positioned marks emitted by the content
	// stream interpreter, in drawing order.
	Items []PageItem

	// Elements is the reconstructed structure, populated by layout
	// reconstruction.
	Elements []Element

	// Annotations attached to the page
	Annotations []*Annotation
}

// NewPage creates a new page with given dimensions
func NewPage(width, height float64) *Page {
	return &Page{
		Width:  width,
		Height: height,
	}
}

// AddItem appends an item, stamping its drawing-order sequence.
func (p *Page) AddItem(item PageItem) {
	switch it := item.(type) {
	case *TextItem:
		it.Seq = len(p.Items)
	case *ImageItem:
		it.Seq = len(p.Items)
	case *LineItem:
		it.Seq = len(p.Items)
	}
	p.Items = append(p.Items, item)
}

// TextItems returns the text items in drawing order.
func (p *Page) TextItems() []*TextItem {
	var out []*TextItem
	for _, item := range p.Items {
		if t, ok := item.(*TextItem); ok {
			out = append(out, t)
		}
	}
	return out
}

// ImageItems returns the image items in drawing order.
func (p *Page) ImageItems() []*ImageItem {
	var out []*ImageItem
	for _, item := range p.Items {
		if i, ok := item.(*ImageItem); ok {
			out = append(out, i)
		}
	}
	return out
}

// LineItems returns the line and rectangle items in drawing order.
func (p *Page) LineItems() []*LineItem {
	var out []*LineItem
	for _, item := range p.Items {
		if l, ok := item.(*LineItem); ok {
			out = append(out, l)
		}
	}
	return out
}

// AddElement adds an element to the page
func (p *Page) AddElement(elem Element) {
	p.Elements = append(p.Elements, elem)
}

// ExtractText concatenates all text elements
func (p *Page) ExtractText() string {
	var sb strings.Builder
	for _, elem := range p.Elements {
		if te, ok := elem.(TextElement); ok {
			sb.WriteString(te.GetText())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// ExtractTables returns all table elements on the page
func (p *Page) ExtractTables() []*Table {
	var tables []*Table
	for _, elem := range p.Elements {
		if table, ok := elem.(*Table); ok {
			tables = append(tables, table)
		}
	}
	return tables
}

// GetElementsInRegion returns elements within a bounding box
func (p *Page) GetElementsInRegion(bbox BBox) []Element {
	var elements []Element
	for _, elem := range p.Elements {
		if bbox.Intersects(elem.BoundingBox()) {
			elements = append(elements, elem)
		}
	}
	return elements
}
