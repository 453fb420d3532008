package filters

import (
	"bytes"
	"fmt"
)

// ASCIIHexDecode decodes ASCII hexadecimal encoded data. Each pair of hex
// digits (0-9, A-F, a-f) is one byte; whitespace is ignored and '>' marks
// end of data. An odd final digit is padded with zero, as the format
// requires.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var hi byte
	haveHi := false

	for i := 0; i < len(data); i++ {
		c := data[i]
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}

		v, err := hexDigitValue(c)
		if err != nil {
			return nil, err
		}

		if haveHi {
			out.WriteByte(hi<<4 | v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}

	if haveHi {
		out.WriteByte(hi << 4)
	}

	return out.Bytes(), nil
}

// ASCII85Decode decodes ASCII base-85 encoded data. Each group of five
// characters ('!' through 'u') encodes four bytes; 'z' is shorthand for
// four zero bytes and "~>" marks end of data. A final short group of n
// characters yields n-1 bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0

	flush := func(count int) {
		// Pad the group with 'u' (84), then emit count-1 bytes
		for i := count; i < 5; i++ {
			group[i] = 84
		}
		value := uint32(0)
		for _, d := range group {
			value = value*85 + uint32(d)
		}
		for j := 0; j < count-1; j++ {
			out.WriteByte(byte(value >> (24 - j*8)))
		}
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		if isWhitespace(c) {
			continue
		}
		if c == '~' {
			break
		}
		if c == 'z' {
			if n != 0 {
				return nil, fmt.Errorf("'z' inside ASCII85 group")
			}
			out.Write([]byte{0, 0, 0, 0})
			continue
		}
		if c < '!' || c > 'u' {
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		}

		group[n] = c - '!'
		n++
		if n == 5 {
			flush(5)
			n = 0
		}
	}

	if n == 1 {
		return nil, fmt.Errorf("truncated ASCII85 group")
	}
	if n > 1 {
		flush(n)
	}

	return out.Bytes(), nil
}

// hexDigitValue converts a hexadecimal character to its numeric value (0-15).
func hexDigitValue(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit: %c", c)
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
