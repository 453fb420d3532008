package font

import (
	"testing"

	"github.com/quirepdf/quire/core"
)

// stubResolver is for dictionaries built entirely from direct objects.
func stubResolver(ref core.IndirectRef) (core.Object, error) {
	return nil, nil
}

// tableResolver resolves references against a fixed object table.
func tableResolver(objects map[int]core.Object) Resolver {
	return func(ref core.IndirectRef) (core.Object, error) {
		return objects[ref.Number], nil
	}
}

func type1Dict(baseFont string, extra core.Dict) core.Dict {
	d := core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name(baseFont),
	}
	for k, v := range extra {
		d[k] = v
	}
	return d
}

func TestNewType1Font(t *testing.T) {
	f, err := NewType1Font(type1Dict("Helvetica", nil), stubResolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}

	if f.BaseFont != "Helvetica" {
		t.Errorf("Expected BaseFont Helvetica, got %s", f.BaseFont)
	}
	if f.Encoding != "StandardEncoding" {
		t.Errorf("Expected StandardEncoding default, got %s", f.Encoding)
	}
	if !f.IsStandardFont() {
		t.Error("Expected Helvetica to be a standard font")
	}
}

func TestNewType1Font_WrongSubtype(t *testing.T) {
	dict := type1Dict("Arial", nil)
	dict["Subtype"] = core.Name("TrueType")

	if _, err := NewType1Font(dict, stubResolver); err == nil {
		t.Error("Expected error for non-Type1 subtype")
	}
}

func TestType1Font_DeclaredWidths(t *testing.T) {
	f, err := NewType1Font(type1Dict("SomeSerif", core.Dict{
		"FirstChar": core.Int(65),
		"LastChar":  core.Int(67),
		"Widths":    core.Array{core.Int(700), core.Real(600.5), core.Int(650)},
	}), stubResolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}

	if f.FirstChar != 65 || f.LastChar != 67 {
		t.Errorf("Expected char range 65..67, got %d..%d", f.FirstChar, f.LastChar)
	}
	if w := f.GetWidth('A'); w != 700 {
		t.Errorf("Expected declared width 700 for A, got %f", w)
	}
	if w := f.GetWidth('B'); w != 600.5 {
		t.Errorf("Expected declared width 600.5 for B, got %f", w)
	}
	if w := f.GetStringWidth("AC"); w != 1350 {
		t.Errorf("Expected string width 1350, got %f", w)
	}
	// Outside the declared range a non-standard font takes the fallback.
	if w := f.GetWidth('Ω'); w != AverageWidth {
		t.Errorf("Expected fallback width for undeclared rune, got %f", w)
	}
}

func TestType1Font_IndirectWidths(t *testing.T) {
	resolver := tableResolver(map[int]core.Object{
		9: core.Array{core.Int(250), core.Int(333)},
	})

	f, err := NewType1Font(type1Dict("SomeSerif", core.Dict{
		"FirstChar": core.Int(32),
		"LastChar":  core.Int(33),
		"Widths":    core.IndirectRef{Number: 9},
	}), resolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}

	if w := f.GetWidth(' '); w != 250 {
		t.Errorf("Expected width 250 from resolved array, got %f", w)
	}
}

func TestType1Font_InvalidWidthEntry(t *testing.T) {
	_, err := NewType1Font(type1Dict("SomeSerif", core.Dict{
		"FirstChar": core.Int(65),
		"LastChar":  core.Int(66),
		"Widths":    core.Array{core.Int(700), core.Name("bad")},
	}), stubResolver)
	if err == nil {
		t.Error("Expected error for non-numeric width entry")
	}
}

func TestType1Font_NamedEncoding(t *testing.T) {
	for _, name := range []string{"WinAnsiEncoding", "MacRomanEncoding", "StandardEncoding"} {
		f, err := NewType1Font(type1Dict("SomeSerif", core.Dict{
			"Encoding": core.Name(name),
		}), stubResolver)
		if err != nil {
			t.Fatalf("NewType1Font(%s): %v", name, err)
		}
		if f.Encoding != name {
			t.Errorf("Expected encoding %s, got %s", name, f.Encoding)
		}
	}
}

func TestType1Font_EncodingDifferences(t *testing.T) {
	f, err := NewType1Font(type1Dict("SomeSerif", core.Dict{
		"Encoding": core.Dict{
			"Type":         core.Name("Encoding"),
			"BaseEncoding": core.Name("WinAnsiEncoding"),
			"Differences":  core.Array{core.Int(39), core.Name("quotesingle")},
		},
	}), stubResolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}

	if f.Encoding != "WinAnsiEncoding" {
		t.Errorf("Expected base encoding WinAnsiEncoding, got %s", f.Encoding)
	}
	if got := f.DecodeString([]byte{39}); got != "'" {
		t.Errorf("Expected quotesingle for remapped code 39, got %q", got)
	}
	// Codes the differences do not touch keep the base mapping.
	if got := f.DecodeString([]byte{'A'}); got != "A" {
		t.Errorf("Expected base mapping for untouched code, got %q", got)
	}
}

func TestType1Font_Descriptor(t *testing.T) {
	f, err := NewType1Font(type1Dict("Custom-Regular", core.Dict{
		"FontDescriptor": core.Dict{
			"Type":         core.Name("FontDescriptor"),
			"FontName":     core.Name("Custom-Regular"),
			"Flags":        core.Int(FlagNonsymbolic),
			"FontBBox":     core.Array{core.Real(-100), core.Real(-200), core.Real(1000), core.Real(800)},
			"Ascent":       core.Real(750),
			"Descent":      core.Real(-250),
			"CapHeight":    core.Real(700),
			"MissingWidth": core.Real(410),
		},
	}), stubResolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}

	fd := f.FontDescriptor
	if fd == nil {
		t.Fatal("Expected descriptor to be parsed")
	}
	if fd.FontName != "Custom-Regular" {
		t.Errorf("Expected FontName Custom-Regular, got %s", fd.FontName)
	}
	if fd.Ascent != 750 || fd.Descent != -250 || fd.CapHeight != 700 {
		t.Errorf("Unexpected vertical metrics: %f %f %f", fd.Ascent, fd.Descent, fd.CapHeight)
	}
	if fd.FontBBox != [4]float64{-100, -200, 1000, 800} {
		t.Errorf("Unexpected bbox: %v", fd.FontBBox)
	}
	if f.Flags != FlagNonsymbolic {
		t.Errorf("Expected flags copied to the font, got %#x", f.Flags)
	}
	// MissingWidth covers codes the widths array skips.
	if w := f.GetWidth('•'); w != 410 {
		t.Errorf("Expected MissingWidth 410, got %f", w)
	}
}

func TestType1Font_DescriptorOptional(t *testing.T) {
	f, err := NewType1Font(type1Dict("Times-Roman", nil), stubResolver)
	if err != nil {
		t.Fatalf("NewType1Font: %v", err)
	}
	if f.FontDescriptor != nil {
		t.Error("Expected nil descriptor when the dictionary has none")
	}
	if w := f.GetWidth('A'); w == 0 {
		t.Error("Expected builtin metrics without a descriptor")
	}
}

func TestDifferencesToGlyphs(t *testing.T) {
	glyphs := differencesToGlyphs(core.Array{
		core.Int(39),
		core.Name("quotesingle"),
		core.Name("quoteright"), // consecutive names advance the code
		core.Int(96),
		core.Name("grave"),
		core.Int(999), // out of range, following name ignored
		core.Name("oops"),
	})

	want := map[byte]string{39: "quotesingle", 40: "quoteright", 96: "grave"}
	if len(glyphs) != len(want) {
		t.Fatalf("Expected %d glyphs, got %d", len(want), len(glyphs))
	}
	for code, name := range want {
		if glyphs[code] != name {
			t.Errorf("Expected %s at code %d, got %s", name, code, glyphs[code])
		}
	}
}

func TestExtractName(t *testing.T) {
	if got := extractName(core.Name("BaseFont")); got != "BaseFont" {
		t.Errorf("Expected BaseFont, got %q", got)
	}
	if got := extractName(core.String("AsString")); got != "AsString" {
		t.Errorf("Expected AsString, got %q", got)
	}
	if got := extractName(core.Int(5)); got != "" {
		t.Errorf("Expected empty for non-name, got %q", got)
	}
	if got := extractName(nil); got != "" {
		t.Errorf("Expected empty for nil, got %q", got)
	}
}

func TestGetNumber(t *testing.T) {
	if got := getNumber(core.Int(42)); got != 42 {
		t.Errorf("Expected 42, got %f", got)
	}
	if got := getNumber(core.Real(3.5)); got != 3.5 {
		t.Errorf("Expected 3.5, got %f", got)
	}
	if got := getNumber(core.Name("x")); got != 0 {
		t.Errorf("Expected 0 for non-number, got %f", got)
	}
}

func TestResolveStream(t *testing.T) {
	stream := &core.Stream{Dict: core.Dict{}, Data: []byte("abc")}
	resolver := tableResolver(map[int]core.Object{4: stream})

	if got := resolveStream(stream, stubResolver); got != stream {
		t.Error("Expected direct stream to pass through")
	}
	if got := resolveStream(core.IndirectRef{Number: 4}, resolver); got != stream {
		t.Error("Expected reference to resolve to the stream")
	}
	if got := resolveStream(core.Int(7), stubResolver); got != nil {
		t.Error("Expected nil for a non-stream object")
	}
}
