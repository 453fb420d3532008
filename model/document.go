package model

import (
	"strings"
	"time"
)

// Document represents a complete PDF document with extracted structure
type Document struct {
	Metadata Metadata
	Pages    []*Page
}

// Metadata contains document-level information
type Metadata struct {
	Title        string
	Author       string
	Subject      string
	Keywords     []string
	Creator      string
	Producer     string
	CreationDate time.Time
	ModDate      time.Time
	// Custom metadata
	Custom map[string]string
}

// NewDocument creates a new empty document
func NewDocument() *Document {
	return &Document{
		Metadata: Metadata{
			Custom: make(map[string]string),
		},
	}
}

// AddPage adds a page to the document
func (d *Document) AddPage(page *Page) {
	page.Number = len(d.Pages) + 1
	d.Pages = append(d.Pages, page)
}

// GetPage returns a page by number (1-indexed)
func (d *Document) GetPage(number int) *Page {
	if number < 1 || number > len(d.Pages) {
		return nil
	}
	return d.Pages[number-1]
}

// PageCount returns the total number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// ExtractText returns all text content concatenated
func (d *Document) ExtractText() string {
	var sb strings.Builder
	for i, page := range d.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(page.ExtractText())
	}
	return sb.String()
}

// ExtractTables returns all tables from all pages
func (d *Document) ExtractTables() []*Table {
	var tables []*Table
	for _, page := range d.Pages {
		tables = append(tables, page.ExtractTables()...)
	}
	return tables
}

// AllHeadings returns all detected headings across all pages
func (d *Document) AllHeadings() []*Heading {
	var headings []*Heading
	for _, page := range d.Pages {
		for _, elem := range page.Elements {
			if h, ok := elem.(*Heading); ok {
				headings = append(headings, h)
			}
		}
	}
	return headings
}

// AllAnnotations returns all annotations across all pages
func (d *Document) AllAnnotations() []*Annotation {
	var annots []*Annotation
	for _, page := range d.Pages {
		annots = append(annots, page.Annotations...)
	}
	return annots
}

// TableOfContents returns headings organized as a document outline
func (d *Document) TableOfContents() []TOCEntry {
	var toc []TOCEntry
	for _, page := range d.Pages {
		for _, elem := range page.Elements {
			h, ok := elem.(*Heading)
			if !ok {
				continue
			}
			toc = append(toc, TOCEntry{
				Level:    h.Level,
				Text:     h.Text,
				Page:     page.Number,
				BBox:     h.BBox,
				FontSize: h.FontSize,
			})
		}
	}
	return toc
}

// TOCEntry represents an entry in the table of contents
type TOCEntry struct {
	Level    int     // Heading level (1-6)
	Text     string  // Heading text
	Page     int     // Page number (1-indexed)
	BBox     BBox    // Position on page
	FontSize float64 // Font size of heading
}
