package pngenc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/quirepdf/quire/internal/filters"
)

// ColorType selects the PNG color model written into the IHDR chunk.
type ColorType byte

const (
	// ColorGray is a single luminance channel.
	ColorGray ColorType = 0
	// ColorRGB is three 8- or 16-bit channels per pixel.
	ColorRGB ColorType = 2
	// ColorPalette indexes into a PLTE chunk of RGB triplets.
	ColorPalette ColorType = 3
)

// pngSignature is the fixed 8-byte header every PNG file starts with.
var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// crcTable is the CRC-32 lookup table used for chunk checksums.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Image describes raw pixel data to be wrapped into a PNG file. Pixels holds
// packed scanlines with no per-row padding, exactly as extracted from a
// decoded image stream.
type Image struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorType        ColorType
	Palette          []byte // RGB triplets, required for ColorPalette
	Pixels           []byte
}

// Encode wraps img into a complete PNG file: signature, IHDR, an optional
// PLTE for palette images, a single IDAT holding all scanlines, and IEND.
// Rows shorter than the expected scanline length are zero-padded so a
// truncated source stream still yields a well-formed file. Output is
// deterministic for identical input.
func Encode(img *Image) ([]byte, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", img.Width, img.Height)
	}
	if err := validateDepth(img.ColorType, img.BitsPerComponent); err != nil {
		return nil, err
	}
	if img.ColorType == ColorPalette {
		if len(img.Palette) == 0 {
			return nil, fmt.Errorf("palette image without palette data")
		}
		if len(img.Palette)%3 != 0 {
			return nil, fmt.Errorf("palette length %d is not a multiple of 3", len(img.Palette))
		}
	}

	var buf bytes.Buffer
	buf.Write(pngSignature)

	writeChunk(&buf, "IHDR", encodeIHDR(img))
	if img.ColorType == ColorPalette {
		writeChunk(&buf, "PLTE", img.Palette)
	}
	writeChunk(&buf, "IDAT", filters.FlateEncode(filterRows(img)))
	writeChunk(&buf, "IEND", nil)

	return buf.Bytes(), nil
}

// validateDepth checks the bit depth against what PNG permits for the color
// type.
func validateDepth(ct ColorType, bpc int) error {
	switch ct {
	case ColorGray:
		switch bpc {
		case 1, 2, 4, 8, 16:
			return nil
		}
	case ColorRGB:
		switch bpc {
		case 8, 16:
			return nil
		}
	case ColorPalette:
		switch bpc {
		case 1, 2, 4, 8:
			return nil
		}
	default:
		return fmt.Errorf("unsupported color type %d", ct)
	}
	return fmt.Errorf("bit depth %d not valid for color type %d", bpc, ct)
}

// encodeIHDR builds the 13-byte IHDR payload.
func encodeIHDR(img *Image) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], uint32(img.Width))
	binary.BigEndian.PutUint32(data[4:8], uint32(img.Height))
	data[8] = byte(img.BitsPerComponent)
	data[9] = byte(img.ColorType)
	data[10] = 0 // compression: deflate
	data[11] = 0 // filter method: adaptive
	data[12] = 0 // interlace: none
	return data
}

// RowSize returns the number of bytes in one packed scanline for the given
// geometry, rounding partial bytes up.
func RowSize(width, bitsPerComponent int, ct ColorType) int {
	samples := 1
	if ct == ColorRGB {
		samples = 3
	}
	return (width*bitsPerComponent*samples + 7) / 8
}

// filterRows lays out the scanlines for the IDAT stream. Every row is
// prefixed with filter type 0 (None); pixel data passes through verbatim.
// Missing trailing bytes read as zero.
func filterRows(img *Image) []byte {
	rowSize := RowSize(img.Width, img.BitsPerComponent, img.ColorType)
	out := make([]byte, 0, img.Height*(rowSize+1))

	for row := 0; row < img.Height; row++ {
		out = append(out, 0)
		start := row * rowSize
		end := start + rowSize
		switch {
		case start >= len(img.Pixels):
			out = append(out, make([]byte, rowSize)...)
		case end > len(img.Pixels):
			out = append(out, img.Pixels[start:]...)
			out = append(out, make([]byte, end-len(img.Pixels))...)
		default:
			out = append(out, img.Pixels[start:end]...)
		}
	}

	return out
}

// writeChunk appends one chunk: big-endian length, four-byte type, payload,
// and a CRC-32 over the type and payload.
func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	buf.Write(header[:])
	buf.WriteString(chunkType)
	buf.Write(data)

	crc := crc32.Update(0, crcTable, []byte(chunkType))
	crc = crc32.Update(crc, crcTable, data)
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], crc)
	buf.Write(trailer[:])
}
