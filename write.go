package quire

import (
	"fmt"
	"io"
	"os"

	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/writer"
)

// WriteDocument serializes a structural document tree as a complete PDF
// byte stream. Text is written with the standard 14 fonts; use
// writer.DocumentWriter directly to embed TrueType fonts or queue link
// annotations.
//
// Example:
//
//	doc := model.NewDocument()
//	page := model.NewPage(612, 792)
//	page.AddElement(&model.Paragraph{Text: "Hello", FontSize: 12})
//	doc.AddPage(page)
//	err := quire.WriteDocument(doc, &buf)
func WriteDocument(doc *model.Document, out io.Writer) error {
	return writer.NewDocumentWriter(doc).WriteTo(out)
}

// WriteFile serializes a structural document tree to a PDF file.
//
// Example:
//
//	err := quire.WriteFile(doc, "out.pdf")
func WriteFile(doc *model.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writer.NewDocumentWriter(doc).WriteTo(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
