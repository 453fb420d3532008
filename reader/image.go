package reader

import (
	"fmt"
	"image/color"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/internal/pngenc"
	"github.com/quirepdf/quire/model"
	"github.com/quirepdf/quire/pages"
)

// colorSpaceInfo is the reduced form of an image color space: enough to
// choose a PNG color type and lay out the samples.
type colorSpaceInfo struct {
	components int // samples per pixel before palette expansion
	colorType  pngenc.ColorType
	palette    []byte // RGB triplets for indexed spaces
	cmyk       bool   // 4-component subtractive data, converted to RGB
}

// ExtractPageImages decodes every image XObject in the page's resources,
// in name order. Images that fail to decode are skipped with a warning so
// one bad image does not lose the rest.
func (r *Reader) ExtractPageImages(page *pages.Page) ([]*model.ImageItem, error) {
	resources, err := page.Resources()
	if err != nil {
		return nil, nil // page has no resources
	}

	xobjObj := resources.Get("XObject")
	if xobjObj == nil {
		return nil, nil
	}

	resolved, err := r.Resolve(xobjObj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve XObject dictionary: %w", err)
	}

	xobjects, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid XObject dictionary type: %T", resolved)
	}

	var images []*model.ImageItem
	for _, name := range xobjects.SortedKeys() {
		entry, err := r.Resolve(xobjects.Get(name))
		if err != nil {
			r.warnf("image %s: %v", name, err)
			continue
		}

		stream, ok := entry.(*core.Stream)
		if !ok {
			continue
		}
		if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Image" {
			continue
		}

		item, err := r.decodeImage(name, stream)
		if err != nil {
			r.warnf("%v", err)
			continue
		}
		images = append(images, item)
	}

	return images, nil
}

// decodeImage converts an image XObject stream into a self-contained
// ImageItem. JPEG and JPEG2000 payloads pass through as complete
// containers; every other filter chain is decoded and the raw samples
// re-encoded as PNG. Placement is left zero for the interpreter to fill.
func (r *Reader) decodeImage(name string, stream *core.Stream) (*model.ImageItem, error) {
	dict := stream.Dict

	if subtype, _ := dict.GetName("Subtype"); subtype != "Image" {
		return nil, fmt.Errorf("image %s: XObject subtype is /%s", name, subtype)
	}

	width, ok := r.intEntry(dict, "Width")
	if !ok || width <= 0 {
		return nil, fmt.Errorf("image %s has no usable /Width", name)
	}
	height, ok := r.intEntry(dict, "Height")
	if !ok || height <= 0 {
		return nil, fmt.Errorf("image %s has no usable /Height", name)
	}

	if stream.IsImagePassthrough() {
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", name, err)
		}
		format := model.ImageFormatJPEG
		if finalFilter(dict) == "JPXDecode" {
			format = model.ImageFormatJPEG2000
		}
		return &model.ImageItem{Name: name, Data: data, Format: format}, nil
	}

	bpc, ok := r.intEntry(dict, "BitsPerComponent")
	if !ok {
		bpc = 8
	}

	var cs colorSpaceInfo
	if csObj := dict.Get("ColorSpace"); csObj != nil {
		var err error
		cs, err = r.resolveColorSpace(csObj)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", name, err)
		}
	} else {
		// Image masks and images without a color space render as gray
		cs = colorSpaceInfo{components: 1, colorType: pngenc.ColorGray}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}

	if bpc == 16 {
		r.warnf("image %s: 16-bit samples narrowed to 8", name)
		data = narrowTo8Bit(data)
		bpc = 8
	}

	if cs.cmyk {
		if bpc != 8 {
			return nil, fmt.Errorf("image %s: unsupported %d-bit CMYK", name, bpc)
		}
		data = cmykDataToRGB(data)
	}

	png, err := pngenc.Encode(&pngenc.Image{
		Width:            width,
		Height:           height,
		BitsPerComponent: bpc,
		ColorType:        cs.colorType,
		Palette:          cs.palette,
		Pixels:           data,
	})
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}

	return &model.ImageItem{Name: name, Data: png, Format: model.ImageFormatPNG}, nil
}

// resolveColorSpace reduces a /ColorSpace entry to sample layout and PNG
// color type. Indexed spaces resolve their base and palette; ICCBased
// spaces reduce to the declared alternate or component count.
func (r *Reader) resolveColorSpace(obj core.Object) (colorSpaceInfo, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return colorSpaceInfo{}, fmt.Errorf("failed to resolve color space: %w", err)
	}

	switch cs := resolved.(type) {
	case core.Name:
		return colorSpaceByName(string(cs))

	case core.Array:
		if len(cs) == 0 {
			return colorSpaceInfo{}, fmt.Errorf("empty color space array")
		}
		name, ok := cs[0].(core.Name)
		if !ok {
			return colorSpaceInfo{}, fmt.Errorf("invalid color space array head: %T", cs[0])
		}
		switch string(name) {
		case "Indexed", "I":
			return r.resolveIndexed(cs)
		case "ICCBased":
			return r.resolveICCBased(cs)
		default:
			return colorSpaceByName(string(name))
		}
	}

	return colorSpaceInfo{}, fmt.Errorf("invalid color space type: %T", resolved)
}

func colorSpaceByName(name string) (colorSpaceInfo, error) {
	switch name {
	case "DeviceGray", "CalGray", "G":
		return colorSpaceInfo{components: 1, colorType: pngenc.ColorGray}, nil
	case "DeviceRGB", "CalRGB", "RGB":
		return colorSpaceInfo{components: 3, colorType: pngenc.ColorRGB}, nil
	case "DeviceCMYK", "CMYK":
		return colorSpaceInfo{components: 4, colorType: pngenc.ColorRGB, cmyk: true}, nil
	}
	return colorSpaceInfo{}, fmt.Errorf("unsupported color space /%s", name)
}

// resolveIndexed handles [/Indexed base hival lookup]: the base space
// determines how lookup entries convert to RGB palette triplets.
func (r *Reader) resolveIndexed(arr core.Array) (colorSpaceInfo, error) {
	if len(arr) != 4 {
		return colorSpaceInfo{}, fmt.Errorf("indexed color space needs 4 elements, got %d", len(arr))
	}

	base, err := r.resolveColorSpace(arr[1])
	if err != nil {
		return colorSpaceInfo{}, fmt.Errorf("indexed base: %w", err)
	}
	if base.palette != nil {
		return colorSpaceInfo{}, fmt.Errorf("indexed base cannot itself be indexed")
	}

	hivalObj, err := r.Resolve(arr[2])
	if err != nil {
		return colorSpaceInfo{}, fmt.Errorf("failed to resolve indexed hival: %w", err)
	}
	hival, ok := hivalObj.(core.Int)
	if !ok {
		return colorSpaceInfo{}, fmt.Errorf("invalid indexed hival type: %T", hivalObj)
	}

	lookupObj, err := r.Resolve(arr[3])
	if err != nil {
		return colorSpaceInfo{}, fmt.Errorf("failed to resolve palette: %w", err)
	}
	var lookup []byte
	switch v := lookupObj.(type) {
	case core.String:
		lookup = []byte(v)
	case *core.Stream:
		lookup, err = v.Decode()
		if err != nil {
			return colorSpaceInfo{}, fmt.Errorf("failed to decode palette stream: %w", err)
		}
	default:
		return colorSpaceInfo{}, fmt.Errorf("invalid palette type: %T", lookupObj)
	}

	palette, err := buildPalette(base, int(hival)+1, lookup)
	if err != nil {
		return colorSpaceInfo{}, err
	}

	return colorSpaceInfo{components: 1, colorType: pngenc.ColorPalette, palette: palette}, nil
}

// resolveICCBased reads the ICC stream dictionary's /Alternate, falling
// back to the /N component count. The profile data itself is not used.
func (r *Reader) resolveICCBased(arr core.Array) (colorSpaceInfo, error) {
	if len(arr) < 2 {
		return colorSpaceInfo{}, fmt.Errorf("ICCBased color space missing stream")
	}

	resolved, err := r.Resolve(arr[1])
	if err != nil {
		return colorSpaceInfo{}, fmt.Errorf("failed to resolve ICC stream: %w", err)
	}
	stream, ok := resolved.(*core.Stream)
	if !ok {
		return colorSpaceInfo{}, fmt.Errorf("invalid ICC stream type: %T", resolved)
	}

	if alt := stream.Dict.Get("Alternate"); alt != nil {
		return r.resolveColorSpace(alt)
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok {
		return colorSpaceInfo{}, fmt.Errorf("ICC stream missing /N")
	}
	switch n {
	case 1:
		return colorSpaceInfo{components: 1, colorType: pngenc.ColorGray}, nil
	case 3:
		return colorSpaceInfo{components: 3, colorType: pngenc.ColorRGB}, nil
	case 4:
		return colorSpaceInfo{components: 4, colorType: pngenc.ColorRGB, cmyk: true}, nil
	}
	return colorSpaceInfo{}, fmt.Errorf("invalid ICC component count %d", n)
}

// buildPalette converts a lookup table to RGB triplets. Entries past the
// end of a short lookup come out black.
func buildPalette(base colorSpaceInfo, count int, lookup []byte) ([]byte, error) {
	if count <= 0 || count > 256 {
		return nil, fmt.Errorf("invalid palette size %d", count)
	}

	out := make([]byte, 0, count*3)
	entry := make([]byte, base.components)
	for i := 0; i < count; i++ {
		offset := i * base.components
		for j := range entry {
			entry[j] = 0
			if offset+j < len(lookup) {
				entry[j] = lookup[offset+j]
			}
		}

		switch {
		case base.cmyk:
			r8, g8, b8 := color.CMYKToRGB(entry[0], entry[1], entry[2], entry[3])
			out = append(out, r8, g8, b8)
		case base.components == 1:
			out = append(out, entry[0], entry[0], entry[0])
		case base.components >= 3:
			out = append(out, entry[0], entry[1], entry[2])
		}
	}

	return out, nil
}

// intEntry resolves a dictionary entry to an integer.
func (r *Reader) intEntry(dict core.Dict, key string) (int, bool) {
	obj := dict.Get(key)
	if obj == nil {
		return 0, false
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return 0, false
	}
	if n, ok := resolved.(core.Int); ok {
		return int(n), true
	}
	return 0, false
}

// finalFilter returns the name of the last filter in the chain.
func finalFilter(dict core.Dict) string {
	switch f := dict.Get("Filter").(type) {
	case core.Name:
		return string(f)
	case core.Array:
		if len(f) > 0 {
			if name, ok := f[len(f)-1].(core.Name); ok {
				return string(name)
			}
		}
	}
	return ""
}

// cmykDataToRGB converts packed 8-bit CMYK samples to RGB triplets.
func cmykDataToRGB(data []byte) []byte {
	out := make([]byte, 0, len(data)/4*3)
	for i := 0; i+3 < len(data); i += 4 {
		r8, g8, b8 := color.CMYKToRGB(data[i], data[i+1], data[i+2], data[i+3])
		out = append(out, r8, g8, b8)
	}
	return out
}

// narrowTo8Bit keeps the high byte of each big-endian 16-bit sample.
func narrowTo8Bit(data []byte) []byte {
	out := make([]byte, len(data)/2)
	for i := range out {
		out[i] = data[i*2]
	}
	return out
}
