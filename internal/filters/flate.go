package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxOutput caps decompressed stream size. A few kilobytes of
// deflate input can inflate to gigabytes; this bound keeps a hostile file
// from exhausting memory.
const DefaultMaxOutput int64 = 256 << 20 // 256 MiB

// ErrOutputLimit is returned when decompressed data exceeds the output cap.
var ErrOutputLimit = errors.New("decompressed data exceeds size limit")

// FlateDecode decompresses Flate (zlib/deflate) compressed data using the
// default output cap. This is the most common compression filter in PDFs.
// It optionally applies a predictor algorithm afterwards.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	return FlateDecodeLimit(data, params, DefaultMaxOutput)
}

// FlateDecodeLimit is FlateDecode with an explicit output cap in bytes.
func FlateDecodeLimit(data []byte, params Params, maxOutput int64) ([]byte, error) {
	decompressed, err := zlibDecompress(data, maxOutput)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor != 1 {
		decompressed, err = applyPredictor(decompressed, predictor, params)
		if err != nil {
			return nil, fmt.Errorf("predictor failed: %w", err)
		}
	}

	return decompressed, nil
}

// FlateEncode compresses data with zlib at the default level. Used by the
// writer for content streams and by the image encoder for pixel data.
func FlateEncode(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// zlibDecompress decompresses zlib data, failing once output passes maxOutput.
func zlibDecompress(data []byte, maxOutput int64) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	// Read one byte past the cap so overflow is distinguishable from an
	// exact fit
	n, err := io.Copy(&buf, io.LimitReader(reader, maxOutput+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if n > maxOutput {
		return nil, fmt.Errorf("%w (limit %d)", ErrOutputLimit, maxOutput)
	}

	return buf.Bytes(), nil
}

// applyPredictor reverses the prediction transform applied before
// compression. Predictor 1 is identity, 2 is TIFF Predictor 2, and 10-15
// are the PNG row predictors.
func applyPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return applyTIFFPredictor2(data, params)
	case predictor >= 10 && predictor <= 15:
		return applyPNGPredictor(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", predictor)
	}
}

// applyTIFFPredictor2 reverses TIFF Predictor 2, which predicts each sample
// from the sample to its left. Rarely used in PDFs.
func applyTIFFPredictor2(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("TIFF Predictor 2 only supports 8 bits per component, got %d", bpc)
	}

	rowSize := columns * colors
	if rowSize <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	result := make([]byte, len(data))

	for row := 0; row < len(data)/rowSize; row++ {
		rowStart := row * rowSize
		for col := 0; col < rowSize; col++ {
			idx := rowStart + col
			if col < colors {
				result[idx] = data[idx]
			} else {
				result[idx] = data[idx] + result[idx-colors]
			}
		}
	}

	return result, nil
}

// applyPNGPredictor reverses the PNG row predictors. Each row starts with a
// filter byte (0-4) naming the algorithm used for that row.
func applyPNGPredictor(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("PNG predictor only supports 8 bits per component, got %d", bpc)
	}

	bytesPerPixel := colors
	rowLength := columns * colors
	rowSize := rowLength + 1 // +1 for the filter byte

	if rowLength <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	numRows := len(data) / rowSize
	result := make([]byte, numRows*rowLength)

	for row := 0; row < numRows; row++ {
		rowStart := row * rowSize
		filterByte := data[rowStart]
		rowData := data[rowStart+1 : rowStart+rowSize]

		out := result[row*rowLength : (row+1)*rowLength]
		var prev []byte
		if row > 0 {
			prev = result[(row-1)*rowLength : row*rowLength]
		}

		if err := decodePNGRow(out, rowData, prev, filterByte, bytesPerPixel); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", row, err)
		}
	}

	return result, nil
}

// decodePNGRow reverses one predicted row in place.
// Filter types: 0=None, 1=Sub (left), 2=Up (above), 3=Average, 4=Paeth.
func decodePNGRow(out, rowData, prev []byte, filter byte, bytesPerPixel int) error {
	for i := 0; i < len(rowData); i++ {
		var left, up, upLeft byte
		if i >= bytesPerPixel {
			left = out[i-bytesPerPixel]
		}
		if prev != nil {
			up = prev[i]
			if i >= bytesPerPixel {
				upLeft = prev[i-bytesPerPixel]
			}
		}

		var predicted byte
		switch filter {
		case 0:
			predicted = 0
		case 1:
			predicted = left
		case 2:
			predicted = up
		case 3:
			predicted = byte((int(left) + int(up)) / 2)
		case 4:
			predicted = paethPredictor(left, up, upLeft)
		default:
			return fmt.Errorf("unknown PNG filter type: %d", filter)
		}

		out[i] = rowData[i] + predicted
	}

	return nil
}

// paethPredictor implements the Paeth predictor from the PNG specification.
// It selects the neighbor (left, above, or upper-left) closest to a linear
// prediction.
func paethPredictor(a, b, c byte) byte {
	// a = left, b = above, c = upper left
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// abs returns the absolute value of an integer.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
