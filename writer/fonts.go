package writer

import (
	"fmt"
	"strings"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/font"
)

// registeredFont is one font available to content streams, either a
// standard-14 face named by BaseFont or a prepared embedded program.
type registeredFont struct {
	resource string
	baseFont string
	embedded *font.Embedded
}

// fontSet holds the fonts registered for one output document, at most
// one entry per distinct family, each under an assigned resource name.
type fontSet struct {
	fonts    []*registeredFont
	builtin  map[string]*registeredFont
	embedded map[string]*registeredFont
}

func newFontSet() *fontSet {
	return &fontSet{
		builtin:  make(map[string]*registeredFont),
		embedded: make(map[string]*registeredFont),
	}
}

func (fs *fontSet) nextName() string {
	return fmt.Sprintf("F%d", len(fs.fonts)+1)
}

// Builtin registers one of the standard fourteen faces and returns its
// resource name. Registering the same face twice returns the first
// name.
func (fs *fontSet) Builtin(baseFont string) string {
	if f, ok := fs.builtin[baseFont]; ok {
		return f.resource
	}
	f := &registeredFont{resource: fs.nextName(), baseFont: baseFont}
	fs.builtin[baseFont] = f
	fs.fonts = append(fs.fonts, f)
	return f.resource
}

// Embed registers an embedded font, deduplicating by family name, and
// returns its resource name.
func (fs *fontSet) Embed(e *font.Embedded) string {
	if f, ok := fs.embedded[e.Family()]; ok {
		return f.resource
	}
	f := &registeredFont{resource: fs.nextName(), embedded: e}
	fs.embedded[e.Family()] = f
	fs.fonts = append(fs.fonts, f)
	e.SetResource(f.resource)
	return f.resource
}

// Embedded returns the embedded font registered under a family name.
func (fs *fontSet) Embedded(family string) (*font.Embedded, bool) {
	f, ok := fs.embedded[family]
	if !ok {
		return nil, false
	}
	return f.embedded, true
}

// writeObjects emits every registered font and returns resource-name →
// reference for page resource dictionaries. Embedded fonts must be
// written only after all content is built, so their width runs and
// ToUnicode mappings cover every glyph actually used.
func (fs *fontSet) writeObjects(w *Writer) (map[string]core.IndirectRef, error) {
	refs := make(map[string]core.IndirectRef, len(fs.fonts))
	for _, f := range fs.fonts {
		var (
			id  int
			err error
		)
		if f.embedded != nil {
			id, err = writeEmbeddedFont(w, f.embedded)
		} else {
			id, err = w.AddObject(core.Dict{
				"Type":     core.Name("Font"),
				"Subtype":  core.Name("Type1"),
				"BaseFont": core.Name(f.baseFont),
				"Encoding": core.Name("WinAnsiEncoding"),
			})
		}
		if err != nil {
			return nil, err
		}
		refs[f.resource] = Ref(id)
	}
	return refs, nil
}

// writeEmbeddedFont emits the composite font chain: font program
// stream, descriptor, descendant CID font, ToUnicode CMap, and the
// Type0 parent the page resources reference.
func writeEmbeddedFont(w *Writer, e *font.Embedded) (int, error) {
	program := e.Program()
	fileID, err := w.AddObject(MakeCompressedStream(core.Dict{
		"Length1": core.Int(len(program)),
	}, program))
	if err != nil {
		return 0, err
	}

	m := e.Metrics()
	descID, err := w.AddObject(core.Dict{
		"Type":        core.Name("FontDescriptor"),
		"FontName":    core.Name(e.Family()),
		"Flags":       core.Int(m.Flags),
		"FontBBox":    numberArray(m.BBox[0], m.BBox[1], m.BBox[2], m.BBox[3]),
		"ItalicAngle": core.Real(m.ItalicAngle),
		"Ascent":      core.Real(m.Ascent),
		"Descent":     core.Real(m.Descent),
		"CapHeight":   core.Real(m.CapHeight),
		// Stem hint: a real value needs glyph outline analysis, which
		// metrics extraction does not do. Viewers only use it for
		// synthetic emboldening.
		"StemV":     core.Int(80),
		"FontFile2": Ref(fileID),
	})
	if err != nil {
		return 0, err
	}

	cid := core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("CIDFontType2"),
		"BaseFont": core.Name(e.Family()),
		"CIDSystemInfo": core.Dict{
			"Registry":   core.String("Adobe"),
			"Ordering":   core.String("Identity"),
			"Supplement": core.Int(0),
		},
		"FontDescriptor": Ref(descID),
		"DW":             core.Int(1000),
		"CIDToGIDMap":    core.Name("Identity"),
	}
	if runs := e.WidthRuns(); len(runs) > 0 {
		warr := make(core.Array, 0, len(runs)*2)
		for _, run := range runs {
			widths := make(core.Array, len(run.Widths))
			for i, wd := range run.Widths {
				widths[i] = core.Real(wd)
			}
			warr = append(warr, core.Int(run.First), widths)
		}
		cid["W"] = warr
	}
	cidID, err := w.AddObject(cid)
	if err != nil {
		return 0, err
	}

	tuID, err := w.AddObject(MakeCompressedStream(core.Dict{}, e.ToUnicodeCMap()))
	if err != nil {
		return 0, err
	}

	return w.AddObject(core.Dict{
		"Type":            core.Name("Font"),
		"Subtype":         core.Name("Type0"),
		"BaseFont":        core.Name(e.Family()),
		"Encoding":        core.Name("Identity-H"),
		"DescendantFonts": core.Array{Ref(cidID)},
		"ToUnicode":       Ref(tuID),
	})
}

// standardFace maps an arbitrary font name plus style flags onto one
// of the standard fourteen faces, for text whose font cannot be
// embedded.
func standardFace(name string, bold, italic bool) string {
	lower := strings.ToLower(font.StripSubsetTag(name))
	if !bold {
		bold = strings.Contains(lower, "bold")
	}
	if !italic {
		italic = strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
	}

	switch {
	case strings.Contains(lower, "times"):
		switch {
		case bold && italic:
			return "Times-BoldItalic"
		case bold:
			return "Times-Bold"
		case italic:
			return "Times-Italic"
		default:
			return "Times-Roman"
		}
	case strings.Contains(lower, "courier") || strings.Contains(lower, "mono"):
		switch {
		case bold && italic:
			return "Courier-BoldOblique"
		case bold:
			return "Courier-Bold"
		case italic:
			return "Courier-Oblique"
		default:
			return "Courier"
		}
	default:
		switch {
		case bold && italic:
			return "Helvetica-BoldOblique"
		case bold:
			return "Helvetica-Bold"
		case italic:
			return "Helvetica-Oblique"
		default:
			return "Helvetica"
		}
	}
}

func numberArray(values ...float64) core.Array {
	arr := make(core.Array, len(values))
	for i, v := range values {
		arr[i] = core.Real(v)
	}
	return arr
}
