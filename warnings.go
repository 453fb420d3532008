package quire

import (
	"fmt"
	"strconv"
	"strings"
)

// WarningCode classifies a non-fatal condition recorded during
// extraction. Extraction continues past all of them; the warning is
// the only trace.
type WarningCode int

const (
	// WarnStructure marks a damaged file structure that was repaired by
	// fallback scanning (bad xref offsets, broken trailers).
	WarnStructure WarningCode = iota

	// WarnStreamDecode marks a content or image stream that failed to
	// decode; the affected run or image was dropped.
	WarnStreamDecode

	// WarnFont marks a font whose metrics or encoding could not be
	// read; widths fell back to the average-width constant.
	WarnFont

	// WarnImage marks an image that could not be converted (unsupported
	// color space, bad sample data, narrowed bit depth).
	WarnImage

	// WarnLayout marks a degraded layout reconstruction (pages skipped
	// during header/footer pattern detection and the like).
	WarnLayout
)

func (c WarningCode) String() string {
	switch c {
	case WarnStructure:
		return "structure"
	case WarnStreamDecode:
		return "stream"
	case WarnFont:
		return "font"
	case WarnImage:
		return "image"
	case WarnLayout:
		return "layout"
	default:
		return "unknown"
	}
}

// Warning is one non-fatal condition encountered during extraction.
type Warning struct {
	// Code classifies the condition.
	Code WarningCode

	// Page is the 1-indexed page the condition occurred on, or 0 when
	// it applies to the document as a whole.
	Page int

	// Message describes what happened and what was done about it.
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("[%s] page %d: %s", w.Code, w.Page, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// FormatWarnings joins warnings into a single display string, one per
// line.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "\n")
}

// classifyWarning maps a reader warning message onto a warning code.
// The reader records free-form repair descriptions; classification is
// by the vocabulary those messages use.
func classifyWarning(msg string) WarningCode {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "font") || strings.Contains(lower, "cmap") ||
		strings.Contains(lower, "encoding") || strings.Contains(lower, "width"):
		return WarnFont
	case strings.Contains(lower, "image") || strings.Contains(lower, "xobject") ||
		strings.Contains(lower, "color space") || strings.Contains(lower, "bit depth"):
		return WarnImage
	case strings.Contains(lower, "stream") || strings.Contains(lower, "decode") ||
		strings.Contains(lower, "filter") || strings.Contains(lower, "decompress"):
		return WarnStreamDecode
	default:
		return WarnStructure
	}
}

// warningPage pulls a leading "page N:" prefix out of a reader warning
// message, returning the page number (or 0) and the remaining text.
func warningPage(msg string) (int, string) {
	const prefix = "page "
	if !strings.HasPrefix(msg, prefix) {
		return 0, msg
	}
	rest := msg[len(prefix):]
	colon := strings.Index(rest, ":")
	if colon < 1 {
		return 0, msg
	}
	n, err := strconv.Atoi(rest[:colon])
	if err != nil || n < 1 {
		return 0, msg
	}
	return n, strings.TrimSpace(rest[colon+1:])
}
