package font

import (
	"fmt"

	"github.com/quirepdf/quire/core"
)

// Resolver dereferences an indirect object reference. Font constructors
// receive one so they can follow references without knowing how the
// document stores its objects.
type Resolver func(core.IndirectRef) (core.Object, error)

// Type1Font represents a simple Type1 font: the original PostScript
// format and the carrier of the fourteen standard faces.
type Type1Font struct {
	*Font

	FirstChar      int
	LastChar       int
	Widths         []float64
	FontDescriptor *FontDescriptor
	ToUnicode      *core.Stream
}

// FontDescriptor carries the metrics and style information shared by
// every font subtype.
type FontDescriptor struct {
	FontName     string
	Flags        int
	FontBBox     [4]float64 // [llx lly urx ury]
	ItalicAngle  float64
	Ascent       float64
	Descent      float64
	CapHeight    float64
	StemV        float64
	StemH        float64
	AvgWidth     float64
	MaxWidth     float64
	MissingWidth float64
	FontFile     *core.Stream // Type1 font program
	FontFile2    *core.Stream // TrueType font program
	FontFile3    *core.Stream // Type1C or CIDFont program
}

// NewType1Font builds a Type1 font from its PDF font dictionary.
// MMType1 (Multiple Master) fonts are handled identically.
func NewType1Font(fontDict core.Dict, resolver Resolver) (*Type1Font, error) {
	name := extractName(fontDict.Get("Name"))
	baseFont := extractName(fontDict.Get("BaseFont"))
	subtype := extractName(fontDict.Get("Subtype"))

	if subtype != "Type1" && subtype != "MMType1" {
		return nil, fmt.Errorf("not a Type1 font: %s", subtype)
	}

	t1 := &Type1Font{
		Font:      NewFont(name, baseFont, subtype),
		FirstChar: 0,
		LastChar:  255,
	}

	if err := t1.parseEncoding(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse encoding: %w", err)
	}

	if err := t1.parseWidths(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse widths: %w", err)
	}

	// The descriptor is optional; the standard fourteen faces ship
	// without one.
	if err := t1.parseFontDescriptor(fontDict, resolver); err != nil {
		_ = err
	}

	if stream := resolveStream(fontDict.Get("ToUnicode"), resolver); stream != nil {
		t1.ToUnicode = stream
		if cmap, err := ParseToUnicodeCMap(stream); err == nil && cmap.HasMappings() {
			t1.Font.ToUnicodeCMap = cmap
		}
	}

	return t1, nil
}

// parseEncoding reads the Encoding entry: a predefined name, or a
// dictionary with a BaseEncoding and a Differences array. Type1 fonts
// without an Encoding entry use the Adobe standard encoding.
func (t1 *Type1Font) parseEncoding(fontDict core.Dict, resolver Resolver) error {
	encodingObj := fontDict.Get("Encoding")
	if ref, ok := encodingObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		encodingObj = obj
	}
	if encodingObj == nil {
		t1.Encoding = "StandardEncoding"
		return nil
	}

	if name, ok := encodingObj.(core.Name); ok {
		t1.Encoding = string(name)
		return nil
	}

	if dict, ok := encodingObj.(core.Dict); ok {
		if base := extractName(dict.Get("BaseEncoding")); base != "" {
			t1.Encoding = base
		} else {
			t1.Encoding = "StandardEncoding"
		}

		diffsObj := dict.Get("Differences")
		if ref, ok := diffsObj.(core.IndirectRef); ok {
			obj, err := resolver(ref)
			if err != nil {
				return err
			}
			diffsObj = obj
		}
		if diffs, ok := diffsObj.(core.Array); ok {
			return t1.applyEncodingDifferences(diffs)
		}
		return nil
	}

	return fmt.Errorf("invalid encoding type: %T", encodingObj)
}

// applyEncodingDifferences overlays a Differences array onto the base
// encoding. The array alternates starting codes with glyph names:
// [code name1 name2 ... code name1 ...].
func (t1 *Type1Font) applyEncodingDifferences(diffs core.Array) error {
	glyphs := make(map[byte]string)
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Real:
			code = int(v)
		case core.Name:
			if code >= 0 && code <= 255 {
				glyphs[byte(code)] = string(v)
			}
			code++
		default:
			return fmt.Errorf("invalid differences array item: %T", item)
		}
	}
	if len(glyphs) > 0 {
		t1.customEncoding = NewCustomEncodingFromGlyphs(GetEncoding(t1.Encoding), glyphs)
	}
	return nil
}

// parseWidths reads FirstChar, LastChar, and the Widths array, keying
// each width by its decoded rune.
func (t1 *Type1Font) parseWidths(fontDict core.Dict, resolver Resolver) error {
	if i, ok := fontDict.GetInt("FirstChar"); ok {
		t1.FirstChar = int(i)
	}
	if i, ok := fontDict.GetInt("LastChar"); ok {
		t1.LastChar = int(i)
	}

	widthsObj := fontDict.Get("Widths")
	if widthsObj == nil {
		return nil
	}

	if ref, ok := widthsObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		widthsObj = obj
	}

	widthsArray, ok := widthsObj.(core.Array)
	if !ok {
		return fmt.Errorf("widths is not an array: %T", widthsObj)
	}

	t1.Widths = make([]float64, len(widthsArray))
	for i, w := range widthsArray {
		switch v := w.(type) {
		case core.Int:
			t1.Widths[i] = float64(v)
		case core.Real:
			t1.Widths[i] = float64(v)
		default:
			return fmt.Errorf("invalid width type at index %d: %T", i, w)
		}
	}

	enc := t1.decoder()
	for i, width := range t1.Widths {
		code := t1.FirstChar + i
		if code > t1.LastChar || code > 255 {
			break
		}
		t1.widths[enc.Decode(byte(code))] = width
	}

	return nil
}

// parseFontDescriptor reads the FontDescriptor dictionary.
func (t1 *Type1Font) parseFontDescriptor(fontDict core.Dict, resolver Resolver) error {
	fd, err := parseFontDescriptorDict(fontDict.Get("FontDescriptor"), resolver)
	if err != nil {
		return err
	}

	t1.FontDescriptor = fd
	t1.Flags = fd.Flags
	if fd.MissingWidth > 0 {
		t1.missingWidth = fd.MissingWidth
	}
	return nil
}

// parseFontDescriptorDict parses a FontDescriptor dictionary, following
// indirect references for the dictionary itself, the bounding box, and
// the embedded font program streams.
func parseFontDescriptorDict(obj core.Object, resolver Resolver) (*FontDescriptor, error) {
	if obj == nil {
		return nil, fmt.Errorf("no font descriptor")
	}

	if ref, ok := obj.(core.IndirectRef); ok {
		resolved, err := resolver(ref)
		if err != nil {
			return nil, err
		}
		obj = resolved
	}

	fdDict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("font descriptor is not a dictionary: %T", obj)
	}

	fd := &FontDescriptor{
		FontName: extractName(fdDict.Get("FontName")),
	}

	if flags, ok := fdDict.GetInt("Flags"); ok {
		fd.Flags = int(flags)
	}

	bboxObj := fdDict.Get("FontBBox")
	if ref, ok := bboxObj.(core.IndirectRef); ok {
		if resolved, err := resolver(ref); err == nil {
			bboxObj = resolved
		}
	}
	if bbox, ok := bboxObj.(core.Array); ok && len(bbox) >= 4 {
		for i := 0; i < 4; i++ {
			fd.FontBBox[i] = getNumber(bbox[i])
		}
	}

	fd.ItalicAngle = getNumber(fdDict.Get("ItalicAngle"))
	fd.Ascent = getNumber(fdDict.Get("Ascent"))
	fd.Descent = getNumber(fdDict.Get("Descent"))
	fd.CapHeight = getNumber(fdDict.Get("CapHeight"))
	fd.StemV = getNumber(fdDict.Get("StemV"))
	fd.StemH = getNumber(fdDict.Get("StemH"))
	fd.AvgWidth = getNumber(fdDict.Get("AvgWidth"))
	fd.MaxWidth = getNumber(fdDict.Get("MaxWidth"))
	fd.MissingWidth = getNumber(fdDict.Get("MissingWidth"))

	fd.FontFile = resolveStream(fdDict.Get("FontFile"), resolver)
	fd.FontFile2 = resolveStream(fdDict.Get("FontFile2"), resolver)
	fd.FontFile3 = resolveStream(fdDict.Get("FontFile3"), resolver)

	return fd, nil
}

// resolveStream returns obj as a stream, following one indirect
// reference if needed. Anything else yields nil.
func resolveStream(obj core.Object, resolver Resolver) *core.Stream {
	if ref, ok := obj.(core.IndirectRef); ok {
		resolved, err := resolver(ref)
		if err != nil {
			return nil
		}
		obj = resolved
	}
	if stream, ok := obj.(*core.Stream); ok {
		return stream
	}
	return nil
}

// differencesToGlyphs collects the code to glyph name assignments from
// a Differences array, ignoring out of range codes.
func differencesToGlyphs(diffs core.Array) map[byte]string {
	glyphs := make(map[byte]string)
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Real:
			code = int(v)
		case core.Name:
			if code >= 0 && code <= 255 {
				glyphs[byte(code)] = string(v)
			}
			code++
		}
	}
	return glyphs
}

// extractName extracts a name or string value from a PDF object.
func extractName(obj core.Object) string {
	switch v := obj.(type) {
	case core.Name:
		return string(v)
	case core.String:
		return string(v)
	}
	return ""
}

// getNumber extracts a numeric value from a PDF object.
func getNumber(obj core.Object) float64 {
	switch v := obj.(type) {
	case core.Int:
		return float64(v)
	case core.Real:
		return float64(v)
	}
	return 0
}
