package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/quirepdf/quire/model"
)

// HTMLOptions controls HTML rendering.
type HTMLOptions struct {
	// EmbedImages inlines image bytes as data URIs. When false, images
	// are emitted as empty img elements with an alt text.
	EmbedImages bool

	// PageDivs wraps each page's content in a div marking its number.
	PageDivs bool
}

// DefaultHTMLOptions returns the options used by ToHTML.
func DefaultHTMLOptions() HTMLOptions {
	return HTMLOptions{EmbedImages: true}
}

// ToHTML renders the document with default options.
func ToHTML(doc *model.Document) (string, error) {
	return ToHTMLWithOptions(doc, DefaultHTMLOptions())
}

// ToHTMLWithOptions builds an HTML document tree from the
// reconstructed elements and serializes it.
func ToHTMLWithOptions(doc *model.Document, opts HTMLOptions) (string, error) {
	root := elem(atom.Html, "html")

	head := elem(atom.Head, "head")
	meta := elem(atom.Meta, "meta")
	meta.Attr = append(meta.Attr, html.Attribute{Key: "charset", Val: "utf-8"})
	head.AppendChild(meta)
	if doc.Metadata.Title != "" {
		title := elem(atom.Title, "title")
		title.AppendChild(textNode(doc.Metadata.Title))
		head.AppendChild(title)
	}
	root.AppendChild(head)

	body := elem(atom.Body, "body")
	for _, page := range doc.Pages {
		parent := body
		if opts.PageDivs {
			div := elem(atom.Div, "div")
			div.Attr = append(div.Attr,
				html.Attribute{Key: "class", Val: "page"},
				html.Attribute{Key: "data-page", Val: fmt.Sprint(page.Number)})
			body.AppendChild(div)
			parent = div
		}
		appendPageHTML(parent, page, opts)
	}
	root.AppendChild(body)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}

func appendPageHTML(parent *html.Node, page *model.Page, opts HTMLOptions) {
	for _, el := range orderedElements(page) {
		switch e := el.(type) {
		case *model.Heading:
			parent.AppendChild(headingNode(e))
		case *model.Paragraph:
			parent.AppendChild(paragraphNode(e))
		case *model.Table:
			parent.AppendChild(tableNode(e))
		case *model.Image:
			parent.AppendChild(imageNode(e, opts))
		}
	}
}

func headingNode(h *model.Heading) *html.Node {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	tags := []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}
	node := elem(tags[level-1], fmt.Sprintf("h%d", level))
	node.AppendChild(textNode(collapseLines(h.Text)))
	return node
}

func paragraphNode(p *model.Paragraph) *html.Node {
	node := elem(atom.P, "p")
	var inner *html.Node = node
	if p.Style.Bold {
		strong := elem(atom.Strong, "strong")
		node.AppendChild(strong)
		inner = strong
	}
	if p.Style.Italic {
		em := elem(atom.Em, "em")
		inner.AppendChild(em)
		inner = em
	}
	inner.AppendChild(textNode(collapseLines(p.Text)))
	return node
}

func tableNode(t *model.Table) *html.Node {
	table := elem(atom.Table, "table")
	for rowIdx, row := range t.Rows {
		tr := elem(atom.Tr, "tr")
		for _, cell := range row {
			tag, name := atom.Td, "td"
			if rowIdx == 0 || cell.IsHeader {
				tag, name = atom.Th, "th"
			}
			td := elem(tag, name)
			if cell.ColSpan > 1 {
				td.Attr = append(td.Attr, html.Attribute{Key: "colspan", Val: fmt.Sprint(cell.ColSpan)})
			}
			if cell.RowSpan > 1 {
				td.Attr = append(td.Attr, html.Attribute{Key: "rowspan", Val: fmt.Sprint(cell.RowSpan)})
			}
			td.AppendChild(textNode(cell.Text))
			tr.AppendChild(td)
		}
		table.AppendChild(tr)
	}
	return table
}

func imageNode(img *model.Image, opts HTMLOptions) *html.Node {
	node := elem(atom.Img, "img")
	alt := img.AltText
	if alt == "" {
		alt = strings.ToLower(img.Format.String()) + " image"
	}
	node.Attr = append(node.Attr, html.Attribute{Key: "alt", Val: alt})
	if opts.EmbedImages && len(img.Data) > 0 {
		mime := mimeType(img.Format)
		if mime != "" {
			val := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
			node.Attr = append(node.Attr, html.Attribute{Key: "src", Val: val})
		}
	}
	return node
}

func mimeType(f model.ImageFormat) string {
	switch f {
	case model.ImageFormatJPEG:
		return "image/jpeg"
	case model.ImageFormatPNG:
		return "image/png"
	case model.ImageFormatJPEG2000:
		return "image/jp2"
	default:
		return ""
	}
}

func elem(a atom.Atom, name string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: name}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
