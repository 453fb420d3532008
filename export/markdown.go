package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quirepdf/quire/model"
)

// MarkdownOptions controls markdown rendering.
type MarkdownOptions struct {
	// IncludeTitle emits the document title from metadata as a level-1
	// heading before any content.
	IncludeTitle bool

	// IncludePageBreaks separates pages with a horizontal rule.
	IncludePageBreaks bool

	// ImagePlaceholders emits an image marker for each image element.
	// Markdown cannot embed the bytes themselves.
	ImagePlaceholders bool
}

// DefaultMarkdownOptions returns the options used by ToMarkdown.
func DefaultMarkdownOptions() MarkdownOptions {
	return MarkdownOptions{
		IncludeTitle:      true,
		ImagePlaceholders: true,
	}
}

// ToMarkdown renders the document with default options.
func ToMarkdown(doc *model.Document) string {
	return ToMarkdownWithOptions(doc, DefaultMarkdownOptions())
}

// ToMarkdownWithOptions renders the document's reconstructed elements
// as markdown, in reading order.
func ToMarkdownWithOptions(doc *model.Document, opts MarkdownOptions) string {
	var sb strings.Builder

	if opts.IncludeTitle && doc.Metadata.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(doc.Metadata.Title)
		sb.WriteString("\n\n")
	}

	for i, page := range doc.Pages {
		if i > 0 && opts.IncludePageBreaks {
			sb.WriteString("---\n\n")
		}
		writePageMarkdown(&sb, page, opts)
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writePageMarkdown(sb *strings.Builder, page *model.Page, opts MarkdownOptions) {
	for _, elem := range orderedElements(page) {
		switch e := elem.(type) {
		case *model.Heading:
			level := e.Level
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			sb.WriteString(strings.Repeat("#", level))
			sb.WriteString(" ")
			sb.WriteString(collapseLines(e.Text))
			sb.WriteString("\n\n")

		case *model.Paragraph:
			text := collapseLines(e.Text)
			if text == "" {
				continue
			}
			if e.Style.Bold {
				text = "**" + text + "**"
			} else if e.Style.Italic {
				text = "*" + text + "*"
			}
			sb.WriteString(text)
			sb.WriteString("\n\n")

		case *model.Table:
			sb.WriteString(e.ToMarkdown())
			sb.WriteString("\n")

		case *model.Image:
			if opts.ImagePlaceholders {
				fmt.Fprintf(sb, "![%s image]()\n\n", strings.ToLower(e.Format.String()))
			}
		}
	}
}

// orderedElements returns the page's elements in reading order.
func orderedElements(page *model.Page) []model.Element {
	elements := make([]model.Element, len(page.Elements))
	copy(elements, page.Elements)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].ZIndex() < elements[j].ZIndex()
	})
	return elements
}

// collapseLines joins soft line breaks inside an element into single
// spaces; markdown treats adjacent lines as one paragraph anyway, but
// a stray leading "#" after a break would change meaning.
func collapseLines(s string) string {
	parts := strings.Split(s, "\n")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return strings.Join(parts, " ")
}
