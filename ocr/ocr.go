//go:build ocr

// Package ocr recognizes text in page images, the fallback for scanned
// documents whose pages carry no text operators at all.
//
// It wraps the Tesseract engine via gosseract and requires Tesseract
// installed on the system, so it sits behind the "ocr" build tag:
//
//	go build -tags ocr
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/quirepdf/quire/model"
)

// Client wraps a Tesseract session. Close it to release the engine.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// Close releases the Tesseract session.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage runs OCR over encoded image bytes (PNG, JPEG, TIFF)
// and returns the recognized text, trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeItem runs OCR over one extracted page image.
func (c *Client) RecognizeItem(item *model.ImageItem) (string, error) {
	if item == nil || len(item.Data) == 0 {
		return "", fmt.Errorf("image item carries no data")
	}
	return c.RecognizeImage(item.Data)
}

// RecognizePage runs OCR over every image on a page, in drawing order,
// and joins the results with blank lines. Images that fail to
// recognize are skipped; an error is returned only when no image on
// the page recognized at all.
func (c *Client) RecognizePage(page *model.Page) (string, error) {
	images := page.ImageItems()
	if len(images) == 0 {
		return "", nil
	}

	var parts []string
	var lastErr error
	for _, item := range images {
		text, err := c.RecognizeItem(item)
		if err != nil {
			lastErr = err
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 && lastErr != nil {
		return "", lastErr
	}
	return strings.Join(parts, "\n\n"), nil
}

// SetLanguage sets the recognition language(s), "+"-separated for
// multiple, "eng" by default.
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// SetPageSegMode sets Tesseract's page segmentation mode.
func (c *Client) SetPageSegMode(mode gosseract.PageSegMode) error {
	return c.client.SetPageSegMode(mode)
}
