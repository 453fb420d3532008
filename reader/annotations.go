package reader

import (
	"fmt"
	"strings"
	"time"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/font"
	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/pages"
)

// ExtractAnnotations decodes the page's annotations. Dictionaries that
// cannot be decoded are skipped with a warning.
func (r *Reader) ExtractAnnotations(page *pages.Page) ([]*model.Annotation, error) {
	dicts, err := page.Annots()
	if err != nil {
		return nil, err
	}

	var annots []*model.Annotation
	for i, dict := range dicts {
		annot, err := r.decodeAnnotation(dict)
		if err != nil {
			r.warnf("annotation %d: %v", i, err)
			continue
		}
		annots = append(annots, annot)
	}

	return annots, nil
}

// decodeAnnotation maps one annotation dictionary onto the model form.
// Unknown subtypes decode as AnnotationUnknown rather than failing, so
// callers see every annotation the page declares.
func (r *Reader) decodeAnnotation(dict core.Dict) (*model.Annotation, error) {
	subtype, ok := dict.GetName("Subtype")
	if !ok {
		return nil, fmt.Errorf("missing /Subtype")
	}

	rect, err := r.rectEntry(dict, "Rect")
	if err != nil {
		return nil, err
	}

	annot := model.NewAnnotation(model.ParseAnnotationType(string(subtype)), rect)

	if s, ok := r.stringEntry(dict, "Contents"); ok {
		annot.Contents = s
	}
	if s, ok := r.stringEntry(dict, "T"); ok {
		annot.Author = s
	}
	if s, ok := r.stringEntry(dict, "Subj"); ok {
		annot.Subject = s
	}
	if s, ok := r.stringEntry(dict, "CreationDate"); ok {
		annot.Created = parseDate(s)
	}
	if s, ok := r.stringEntry(dict, "M"); ok {
		annot.Modified = parseDate(s)
	}

	if flags, ok := r.intEntry(dict, "F"); ok {
		annot.Flags = model.DecodeAnnotationFlags(flags)
	}
	if opacity, ok := r.numberEntry(dict, "CA"); ok && opacity >= 0 && opacity <= 1 {
		annot.Opacity = opacity
	}

	annot.Color = r.colorEntry(dict, "C")
	r.decodeBorder(dict, annot)
	r.decodeTarget(dict, annot)

	if annot.Type.IsMarkup() {
		annot.QuadPoints = r.quadPoints(dict)
	}

	return annot, nil
}

// rectEntry resolves a four-number rectangle to a normalized bounding box.
func (r *Reader) rectEntry(dict core.Dict, key string) (model.BBox, error) {
	obj := dict.Get(key)
	if obj == nil {
		return model.BBox{}, fmt.Errorf("missing /%s", key)
	}

	resolved, err := r.Resolve(obj)
	if err != nil {
		return model.BBox{}, fmt.Errorf("failed to resolve /%s: %w", key, err)
	}

	arr, ok := resolved.(core.Array)
	if !ok || len(arr) != 4 {
		return model.BBox{}, fmt.Errorf("invalid /%s", key)
	}

	var nums [4]float64
	for i, elem := range arr {
		n, ok := core.AsNumber(elem)
		if !ok {
			return model.BBox{}, fmt.Errorf("invalid /%s element %d: %T", key, i, elem)
		}
		nums[i] = n
	}

	return model.NewBBoxFromPoints(
		model.Point{X: nums[0], Y: nums[1]},
		model.Point{X: nums[2], Y: nums[3]},
	), nil
}

// stringEntry resolves a dictionary entry to decoded text.
func (r *Reader) stringEntry(dict core.Dict, key string) (string, bool) {
	obj := dict.Get(key)
	if obj == nil {
		return "", false
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return "", false
	}
	if s, ok := resolved.(core.String); ok {
		return decodeTextString([]byte(s)), true
	}
	return "", false
}

// numberEntry resolves a dictionary entry to a float.
func (r *Reader) numberEntry(dict core.Dict, key string) (float64, bool) {
	obj := dict.Get(key)
	if obj == nil {
		return 0, false
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return 0, false
	}
	return core.AsNumber(resolved)
}

// colorEntry decodes a color array: 1 component is gray, 3 RGB, 4 CMYK.
// Absent entries and empty arrays mean no color.
func (r *Reader) colorEntry(dict core.Dict, key string) *model.Color {
	obj := dict.Get(key)
	if obj == nil {
		return nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return nil
	}

	comps := make([]float64, 0, 4)
	for _, elem := range arr {
		if n, ok := core.AsNumber(elem); ok {
			comps = append(comps, n)
		}
	}

	switch len(comps) {
	case 1:
		g := clampColorByte(comps[0])
		return &model.Color{R: g, G: g, B: g}
	case 3:
		return &model.Color{
			R: clampColorByte(comps[0]),
			G: clampColorByte(comps[1]),
			B: clampColorByte(comps[2]),
		}
	case 4:
		k := comps[3]
		return &model.Color{
			R: clampColorByte((1 - comps[0]) * (1 - k)),
			G: clampColorByte((1 - comps[1]) * (1 - k)),
			B: clampColorByte((1 - comps[2]) * (1 - k)),
		}
	}
	return nil
}

// decodeBorder reads the border width and style from /BS, falling back to
// the /Border array. The width defaults to 1 when neither declares one.
func (r *Reader) decodeBorder(dict core.Dict, annot *model.Annotation) {
	annot.BorderWidth = 1

	if bsObj := dict.Get("BS"); bsObj != nil {
		resolved, err := r.Resolve(bsObj)
		if err == nil {
			if bs, ok := resolved.(core.Dict); ok {
				if w, ok := r.numberEntry(bs, "W"); ok {
					annot.BorderWidth = w
				}
				if s, ok := bs.GetName("S"); ok {
					annot.BorderStyle = model.BorderStyle(s)
				}
				return
			}
		}
	}

	if borderObj := dict.Get("Border"); borderObj != nil {
		resolved, err := r.Resolve(borderObj)
		if err != nil {
			return
		}
		if arr, ok := resolved.(core.Array); ok && len(arr) >= 3 {
			if w, ok := core.AsNumber(arr[2]); ok {
				annot.BorderWidth = w
			}
		}
	}
}

// decodeTarget reads the link target from an /A action or a /Dest entry.
// Actions are stored as data only, never executed.
func (r *Reader) decodeTarget(dict core.Dict, annot *model.Annotation) {
	if aObj := dict.Get("A"); aObj != nil {
		resolved, err := r.Resolve(aObj)
		if err != nil {
			return
		}
		action, ok := resolved.(core.Dict)
		if !ok {
			return
		}

		actionType, _ := action.GetName("S")
		switch string(actionType) {
		case "URI":
			if s, ok := r.stringEntry(action, "URI"); ok {
				annot.URI = s
			}
		case "GoTo":
			annot.Dest = r.destName(action.Get("D"))
		}
		return
	}

	if destObj := dict.Get("Dest"); destObj != nil {
		annot.Dest = r.destName(destObj)
	}
}

// destName reduces a destination to its name. Explicit destination arrays
// carry no name and yield the empty string.
func (r *Reader) destName(obj core.Object) string {
	if obj == nil {
		return ""
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return ""
	}

	switch v := resolved.(type) {
	case core.Name:
		return string(v)
	case core.String:
		return decodeTextString([]byte(v))
	}
	return ""
}

// quadPoints decodes /QuadPoints into points, four per quadrilateral.
// Trailing numbers short of a whole quad are dropped.
func (r *Reader) quadPoints(dict core.Dict) []model.Point {
	obj := dict.Get("QuadPoints")
	if obj == nil {
		return nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil
	}
	arr, ok := resolved.(core.Array)
	if !ok || len(arr) < 8 {
		return nil
	}

	count := len(arr) / 8 * 8
	points := make([]model.Point, 0, count/2)
	for i := 0; i+1 < count; i += 2 {
		x, okX := core.AsNumber(arr[i])
		y, okY := core.AsNumber(arr[i+1])
		if !okX || !okY {
			return nil
		}
		points = append(points, model.Point{X: x, Y: y})
	}
	return points
}

// clampColorByte maps a [0,1] component to a byte, clamping out-of-range
// values.
func clampColorByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// decodeTextString decodes a PDF text string: UTF-16 behind a byte order
// mark, otherwise one byte per character.
func decodeTextString(data []byte) string {
	if len(data) >= 2 {
		if data[0] == 0xFE && data[1] == 0xFF {
			return font.NormalizeUnicode(font.DecodeUTF16BE(data[2:]))
		}
		if data[0] == 0xFF && data[1] == 0xFE {
			return font.NormalizeUnicode(font.DecodeUTF16LE(data[2:]))
		}
	}

	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// pdfDateLayouts covers D:YYYYMMDDHHmmSS with its offset variants and the
// truncated forms PDF permits. Apostrophes are stripped before matching.
var pdfDateLayouts = []string{
	"D:20060102150405-0700",
	"D:20060102150405-07",
	"D:20060102150405Z0700",
	"D:20060102150405Z07",
	"D:20060102150405Z",
	"D:20060102150405",
	"D:200601021504",
	"D:2006010215",
	"D:20060102",
	"D:200601",
	"D:2006",
}

// parseDate converts a PDF date string to a time.Time. Unparseable dates
// yield the zero time.
func parseDate(s string) time.Time {
	s = strings.ReplaceAll(strings.TrimSpace(s), "'", "")
	for _, layout := range pdfDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
