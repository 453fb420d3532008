package writer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/model"
)

// registeredImage is one image XObject queued for the output document.
type registeredImage struct {
	resource string
	data     []byte
	format   model.ImageFormat
}

// imageSet holds the images registered for one output document, each
// under an assigned resource name. Identical payloads deduplicate so a
// logo repeated on every page embeds once.
type imageSet struct {
	images []*registeredImage
	byKey  map[string]*registeredImage
}

func newImageSet() *imageSet {
	return &imageSet{byKey: make(map[string]*registeredImage)}
}

// Register queues image bytes and returns the resource name to draw
// them under.
func (is *imageSet) Register(data []byte, format model.ImageFormat) string {
	key := fmt.Sprintf("%d:%d:%x", format, len(data), checksumPrefix(data))
	if img, ok := is.byKey[key]; ok {
		return img.resource
	}
	img := &registeredImage{
		resource: fmt.Sprintf("Im%d", len(is.images)+1),
		data:     data,
		format:   format,
	}
	is.byKey[key] = img
	is.images = append(is.images, img)
	return img.resource
}

// checksumPrefix keys deduplication on the first and last bytes of the
// payload; a full hash would reread megabytes per registration for a
// case that almost never collides.
func checksumPrefix(data []byte) []byte {
	if len(data) <= 32 {
		return data
	}
	key := make([]byte, 0, 32)
	key = append(key, data[:16]...)
	return append(key, data[len(data)-16:]...)
}

// writeObjects emits every registered image and returns resource-name →
// reference for page resource dictionaries.
func (is *imageSet) writeObjects(w *Writer) (map[string]core.IndirectRef, error) {
	refs := make(map[string]core.IndirectRef, len(is.images))
	for _, img := range is.images {
		stream, err := imageStream(img.data, img.format)
		if err != nil {
			return nil, err
		}
		id, err := w.AddObject(stream)
		if err != nil {
			return nil, err
		}
		refs[img.resource] = Ref(id)
	}
	return refs, nil
}

// imageStream builds the image XObject stream. JPEG payloads embed
// unmodified under DCTDecode: they are complete containers. PNG data
// is decoded to raw samples and deflated, since PDF has no PNG filter.
func imageStream(data []byte, format model.ImageFormat) (*core.Stream, error) {
	dict := core.Dict{
		"Type":    core.Name("XObject"),
		"Subtype": core.Name("Image"),
	}

	switch format {
	case model.ImageFormatJPEG:
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, writerErrorf("unreadable JPEG header: %v", err)
		}
		dict["Width"] = core.Int(cfg.Width)
		dict["Height"] = core.Int(cfg.Height)
		dict["BitsPerComponent"] = core.Int(8)
		dict["ColorSpace"] = jpegColorSpace(cfg)
		dict["Filter"] = core.Name("DCTDecode")
		return MakeStream(dict, data), nil

	case model.ImageFormatPNG:
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, writerErrorf("unreadable PNG: %v", err)
		}
		samples, gray := rasterSamples(img)
		bounds := img.Bounds()
		dict["Width"] = core.Int(bounds.Dx())
		dict["Height"] = core.Int(bounds.Dy())
		dict["BitsPerComponent"] = core.Int(8)
		if gray {
			dict["ColorSpace"] = core.Name("DeviceGray")
		} else {
			dict["ColorSpace"] = core.Name("DeviceRGB")
		}
		dict["Filter"] = core.Name("FlateDecode")
		return MakeCompressedStream(dict, samples), nil

	default:
		return nil, writerErrorf("cannot embed image format %s", format)
	}
}

func jpegColorSpace(cfg image.Config) core.Name {
	switch cfg.ColorModel {
	case color.GrayModel:
		return "DeviceGray"
	case color.CMYKModel:
		return "DeviceCMYK"
	default:
		return "DeviceRGB"
	}
}

// rasterSamples flattens a decoded image to 8-bit samples, gray when
// the source is grayscale, RGB otherwise. Alpha is dropped: soft masks
// are out of scope.
func rasterSamples(img image.Image) (samples []byte, gray bool) {
	bounds := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		out := make([]byte, 0, bounds.Dx()*bounds.Dy())
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				out = append(out, g.GrayAt(x, y).Y)
			}
		}
		return out, true
	}

	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return out, false
}
