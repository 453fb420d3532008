package font

import (
	"fmt"
	"strings"

	"github.com/quirepdf/quire/core"
)

// Type0Font represents a composite font. Composite fonts address glyphs
// through multi-byte character IDs and carry the large character sets
// used by CJK text and embedded subset fonts.
type Type0Font struct {
	*Font

	Encoding       string
	DescendantFont *CIDFont
	ToUnicode      *core.Stream
	IsVertical     bool // true for Identity-V
}

// CIDFont is the descendant font of a Type0 font, keyed by character ID
// rather than by byte code.
type CIDFont struct {
	BaseFont       string
	Subtype        string // CIDFontType0 or CIDFontType2
	CIDSystemInfo  *CIDSystemInfo
	FontDescriptor *FontDescriptor
	DW             float64           // default width
	W              []WidthRange      // horizontal widths
	DW2            [2]float64        // default vertical metrics [w1y w1]
	W2             []VerticalMetrics // per-CID vertical metrics
	CIDToGIDMap    *core.Stream      // CIDFontType2 only
}

// CIDSystemInfo identifies the character collection a CIDFont indexes
// into, such as Adobe-Japan1.
type CIDSystemInfo struct {
	Registry   string
	Ordering   string
	Supplement int
}

// WidthRange is one entry of the W array: either a single width for a
// CID range or individual widths starting at StartCID.
type WidthRange struct {
	StartCID int
	EndCID   int
	Width    float64
	Widths   []float64
}

// VerticalMetrics is one entry of the W2 array.
type VerticalMetrics struct {
	StartCID int
	EndCID   int
	W1Y      float64
	W1       float64
	Metrics  []Metric
}

// Metric is a single vertical displacement.
type Metric struct {
	W1Y float64
	W1  float64
}

// NewType0Font builds a composite font from its PDF font dictionary.
func NewType0Font(fontDict core.Dict, resolver Resolver) (*Type0Font, error) {
	name := extractName(fontDict.Get("Name"))
	baseFont := extractName(fontDict.Get("BaseFont"))
	subtype := extractName(fontDict.Get("Subtype"))

	if subtype != "Type0" {
		return nil, fmt.Errorf("not a Type0 font: %s", subtype)
	}

	t0 := &Type0Font{
		Font: NewFont(name, baseFont, subtype),
	}

	if encodingObj := fontDict.Get("Encoding"); encodingObj != nil {
		t0.Encoding = extractName(encodingObj)
		t0.IsVertical = t0.Encoding == "Identity-V"
	} else {
		t0.Encoding = "Identity-H"
	}

	if stream := resolveStream(fontDict.Get("ToUnicode"), resolver); stream != nil {
		t0.ToUnicode = stream
		if cmap, err := ParseToUnicodeCMap(stream); err == nil && cmap.HasMappings() {
			t0.Font.ToUnicodeCMap = cmap
		}
	}

	if err := t0.parseDescendantFont(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse descendant font: %w", err)
	}

	return t0, nil
}

// parseDescendantFont parses the single-element DescendantFonts array.
func (t0 *Type0Font) parseDescendantFont(fontDict core.Dict, resolver Resolver) error {
	descendantObj := fontDict.Get("DescendantFonts")
	if descendantObj == nil {
		return fmt.Errorf("missing DescendantFonts")
	}

	if ref, ok := descendantObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		descendantObj = obj
	}

	descendantArray, ok := descendantObj.(core.Array)
	if !ok {
		return fmt.Errorf("DescendantFonts is not an array: %T", descendantObj)
	}
	if len(descendantArray) == 0 {
		return fmt.Errorf("DescendantFonts array is empty")
	}

	// Only the first entry matters; the array never holds more than one
	// font in practice.
	descendantFontObj := descendantArray[0]
	if ref, ok := descendantFontObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		descendantFontObj = obj
	}

	descendantDict, ok := descendantFontObj.(core.Dict)
	if !ok {
		return fmt.Errorf("descendant font is not a dictionary: %T", descendantFontObj)
	}

	cidFont, err := NewCIDFont(descendantDict, resolver)
	if err != nil {
		return fmt.Errorf("failed to parse CIDFont: %w", err)
	}
	t0.DescendantFont = cidFont

	return nil
}

// GetWidth returns the width for a character ID. Composite fonts key
// widths by CID, so the rune value is treated as one.
func (t0 *Type0Font) GetWidth(r rune) float64 {
	if t0.DescendantFont == nil {
		return AverageWidth
	}
	return t0.DescendantFont.GetWidthForCID(int(r))
}

// DecodeString decodes a string of 2-byte codes through the ToUnicode
// CMap when one is present, falling back to the raw code values.
func (t0 *Type0Font) DecodeString(data []byte) string {
	if t0.Font.ToUnicodeCMap != nil {
		return NormalizeUnicode(t0.Font.ToUnicodeCMap.LookupString(data))
	}

	var sb strings.Builder
	for i := 0; i+1 < len(data); i += 2 {
		sb.WriteRune(rune(uint16(data[i])<<8 | uint16(data[i+1])))
	}
	return NormalizeUnicode(sb.String())
}

// NewCIDFont builds a CIDFont from a descendant font dictionary.
func NewCIDFont(fontDict core.Dict, resolver Resolver) (*CIDFont, error) {
	baseFont := extractName(fontDict.Get("BaseFont"))
	subtype := extractName(fontDict.Get("Subtype"))

	if subtype != "CIDFontType0" && subtype != "CIDFontType2" {
		return nil, fmt.Errorf("not a CIDFont: %s", subtype)
	}

	cid := &CIDFont{
		BaseFont: baseFont,
		Subtype:  subtype,
		DW:       1000.0,
	}

	if err := cid.parseCIDSystemInfo(fontDict, resolver); err != nil {
		return nil, fmt.Errorf("failed to parse CIDSystemInfo: %w", err)
	}

	// Descriptor and width arrays are survivable losses: the default
	// width still measures text.
	if err := cid.parseFontDescriptor(fontDict, resolver); err != nil {
		_ = err
	}

	if dwObj := fontDict.Get("DW"); dwObj != nil {
		cid.DW = getNumber(dwObj)
	}

	if err := cid.parseWidthArray(fontDict, resolver); err != nil {
		_ = err
	}

	dw2Obj := fontDict.Get("DW2")
	if ref, ok := dw2Obj.(core.IndirectRef); ok {
		if obj, err := resolver(ref); err == nil {
			dw2Obj = obj
		}
	}
	if arr, ok := dw2Obj.(core.Array); ok && len(arr) >= 2 {
		cid.DW2[0] = getNumber(arr[0])
		cid.DW2[1] = getNumber(arr[1])
	}

	if err := cid.parseW2Array(fontDict, resolver); err != nil {
		_ = err
	}

	if subtype == "CIDFontType2" {
		cid.CIDToGIDMap = resolveStream(fontDict.Get("CIDToGIDMap"), resolver)
	}

	return cid, nil
}

// parseCIDSystemInfo reads the required CIDSystemInfo dictionary.
func (cid *CIDFont) parseCIDSystemInfo(fontDict core.Dict, resolver Resolver) error {
	sysInfoObj := fontDict.Get("CIDSystemInfo")
	if sysInfoObj == nil {
		return fmt.Errorf("missing CIDSystemInfo")
	}

	if ref, ok := sysInfoObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		sysInfoObj = obj
	}

	sysInfoDict, ok := sysInfoObj.(core.Dict)
	if !ok {
		return fmt.Errorf("CIDSystemInfo is not a dictionary: %T", sysInfoObj)
	}

	cid.CIDSystemInfo = &CIDSystemInfo{
		Registry:   extractString(sysInfoDict.Get("Registry")),
		Ordering:   extractString(sysInfoDict.Get("Ordering")),
		Supplement: int(getNumber(sysInfoDict.Get("Supplement"))),
	}

	return nil
}

// parseFontDescriptor reads the FontDescriptor dictionary.
func (cid *CIDFont) parseFontDescriptor(fontDict core.Dict, resolver Resolver) error {
	fd, err := parseFontDescriptorDict(fontDict.Get("FontDescriptor"), resolver)
	if err != nil {
		return err
	}
	cid.FontDescriptor = fd
	return nil
}

// parseWidthArray reads the W array. Entries come in two forms:
// "c [w1 w2 ... wn]" assigns individual widths starting at CID c, and
// "cfirst clast w" assigns one width to a CID range.
func (cid *CIDFont) parseWidthArray(fontDict core.Dict, resolver Resolver) error {
	wObj := fontDict.Get("W")
	if wObj == nil {
		return nil
	}

	if ref, ok := wObj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		wObj = obj
	}

	wArray, ok := wObj.(core.Array)
	if !ok {
		return fmt.Errorf("W is not an array: %T", wObj)
	}

	for i := 0; i < len(wArray); {
		startCID := int(getNumber(wArray[i]))
		i++
		if i >= len(wArray) {
			break
		}

		if widthsArray, ok := wArray[i].(core.Array); ok {
			widths := make([]float64, len(widthsArray))
			for j, w := range widthsArray {
				widths[j] = getNumber(w)
			}
			cid.W = append(cid.W, WidthRange{
				StartCID: startCID,
				EndCID:   startCID + len(widths) - 1,
				Widths:   widths,
			})
			i++
			continue
		}

		endCID := int(getNumber(wArray[i]))
		i++
		if i >= len(wArray) {
			break
		}

		cid.W = append(cid.W, WidthRange{
			StartCID: startCID,
			EndCID:   endCID,
			Width:    getNumber(wArray[i]),
		})
		i++
	}

	return nil
}

// parseW2Array reads the W2 array of vertical metrics. The two entry
// forms mirror the W array.
func (cid *CIDFont) parseW2Array(fontDict core.Dict, resolver Resolver) error {
	w2Obj := fontDict.Get("W2")
	if w2Obj == nil {
		return nil
	}

	if ref, ok := w2Obj.(core.IndirectRef); ok {
		obj, err := resolver(ref)
		if err != nil {
			return err
		}
		w2Obj = obj
	}

	w2Array, ok := w2Obj.(core.Array)
	if !ok {
		return fmt.Errorf("W2 is not an array: %T", w2Obj)
	}

	for i := 0; i < len(w2Array); {
		startCID := int(getNumber(w2Array[i]))
		i++
		if i >= len(w2Array) {
			break
		}

		if metricsArray, ok := w2Array[i].(core.Array); ok {
			metrics := make([]Metric, 0, len(metricsArray)/2)
			for j := 0; j+1 < len(metricsArray); j += 2 {
				metrics = append(metrics, Metric{
					W1Y: getNumber(metricsArray[j]),
					W1:  getNumber(metricsArray[j+1]),
				})
			}
			cid.W2 = append(cid.W2, VerticalMetrics{
				StartCID: startCID,
				EndCID:   startCID + len(metrics) - 1,
				Metrics:  metrics,
			})
			i++
			continue
		}

		endCID := int(getNumber(w2Array[i]))
		i++
		if i+1 >= len(w2Array) {
			break
		}

		w1y := getNumber(w2Array[i])
		i++
		w1 := getNumber(w2Array[i])
		i++

		cid.W2 = append(cid.W2, VerticalMetrics{
			StartCID: startCID,
			EndCID:   endCID,
			W1Y:      w1y,
			W1:       w1,
		})
	}

	return nil
}

// GetWidthForCID returns the width for a CID, falling back to the
// font's default width.
func (cid *CIDFont) GetWidthForCID(cidValue int) float64 {
	for _, wr := range cid.W {
		if cidValue < wr.StartCID || cidValue > wr.EndCID {
			continue
		}
		if wr.Widths != nil {
			if idx := cidValue - wr.StartCID; idx < len(wr.Widths) {
				return wr.Widths[idx]
			}
			continue
		}
		return wr.Width
	}
	return cid.DW
}

// IsJapanese reports whether the font indexes the Adobe-Japan1
// collection.
func (cid *CIDFont) IsJapanese() bool {
	return cid.CIDSystemInfo != nil && cid.CIDSystemInfo.Ordering == "Japan1"
}

// IsChinese reports whether the font indexes a Chinese collection,
// simplified (GB1) or traditional (CNS1).
func (cid *CIDFont) IsChinese() bool {
	if cid.CIDSystemInfo == nil {
		return false
	}
	return cid.CIDSystemInfo.Ordering == "GB1" || cid.CIDSystemInfo.Ordering == "CNS1"
}

// IsKorean reports whether the font indexes the Adobe-Korea1
// collection.
func (cid *CIDFont) IsKorean() bool {
	return cid.CIDSystemInfo != nil && cid.CIDSystemInfo.Ordering == "Korea1"
}

// IsCJK reports whether the font carries a CJK character collection.
func (cid *CIDFont) IsCJK() bool {
	return cid.IsJapanese() || cid.IsChinese() || cid.IsKorean()
}

// GetCharacterCollection returns the Registry-Ordering-Supplement
// identifier, such as "Adobe-Japan1-6".
func (cid *CIDFont) GetCharacterCollection() string {
	if cid.CIDSystemInfo == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%s-%s-%d",
		cid.CIDSystemInfo.Registry,
		cid.CIDSystemInfo.Ordering,
		cid.CIDSystemInfo.Supplement)
}

// extractString extracts a string or name value from a PDF object.
func extractString(obj core.Object) string {
	switch v := obj.(type) {
	case core.String:
		return string(v)
	case core.Name:
		return string(v)
	}
	return ""
}
