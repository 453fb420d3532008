package font

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/quirepdf/quire/core"
)

// CMap maps character codes to Unicode text. It holds the mappings
// from a ToUnicode stream: single-code entries, code ranges, and the
// codespace ranges that say how many bytes each code occupies.
type CMap struct {
	// Single character mappings: code -> Unicode string.
	charMappings map[uint32]string

	// Range mappings, walked in declaration order.
	rangeMappings []CMapRange

	// Codespace ranges. Empty when the stream declared none.
	codespaces []codespaceRange
}

// CMapRange maps a contiguous run of codes starting at StartUnicode.
// For each code past StartCode the final character of StartUnicode
// advances by one.
type CMapRange struct {
	StartCode    uint32
	EndCode      uint32
	StartUnicode string
}

type codespaceRange struct {
	low, high uint32
	size      int // bytes per code
}

// NewCMap creates an empty CMap.
func NewCMap() *CMap {
	return &CMap{
		charMappings:  make(map[uint32]string),
		rangeMappings: make([]CMapRange, 0),
	}
}

// ParseToUnicodeCMap parses a ToUnicode CMap stream.
func ParseToUnicodeCMap(stream *core.Stream) (*CMap, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode stream: %w", err)
	}

	return parseCMapData(data)
}

// parseCMapData parses CMap text. Entries that do not parse are
// skipped; damaged ToUnicode data should degrade extraction, not abort
// it.
func parseCMapData(data []byte) (*CMap, error) {
	cmap := NewCMap()
	content := string(data)

	for _, body := range cmapSections(content, "begincodespacerange", "endcodespacerange") {
		cmap.parseCodespaceSection(body)
	}
	for _, body := range cmapSections(content, "beginbfchar", "endbfchar") {
		cmap.parseBfCharSection(body)
	}
	for _, body := range cmapSections(content, "beginbfrange", "endbfrange") {
		cmap.parseBfRangeSection(body)
	}

	return cmap, nil
}

// HasMappings reports whether the CMap defines any mappings. A parsed
// stream that yields none is treated as absent by callers.
func (cm *CMap) HasMappings() bool {
	return cm != nil && (len(cm.charMappings) > 0 || len(cm.rangeMappings) > 0)
}

// Lookup returns the Unicode string for a character code, or "" when
// the CMap does not map it. Callers handle the fallback.
func (cm *CMap) Lookup(code uint32) string {
	if s, ok := cm.charMappings[code]; ok {
		return s
	}

	for _, r := range cm.rangeMappings {
		if code >= r.StartCode && code <= r.EndCode {
			runes := []rune(r.StartUnicode)
			if len(runes) == 0 {
				continue
			}
			runes[len(runes)-1] += rune(code - r.StartCode)
			return string(runes)
		}
	}

	return ""
}

// LookupString decodes a byte string through the CMap. Code lengths
// come from the codespace ranges when declared; otherwise two-byte
// codes are tried before single bytes. Codes the CMap does not map
// fall back to their raw code point.
func (cm *CMap) LookupString(data []byte) string {
	if cm == nil {
		return string(data)
	}

	var sb strings.Builder
	for i := 0; i < len(data); {
		code, size := cm.nextCode(data, i)
		if s := cm.Lookup(code); s != "" {
			sb.WriteString(s)
		} else if code <= 0x10FFFF {
			sb.WriteRune(rune(code))
		}
		i += size
	}
	return sb.String()
}

// nextCode reads one character code starting at data[i] and returns it
// with its byte length.
func (cm *CMap) nextCode(data []byte, i int) (uint32, int) {
	if len(cm.codespaces) > 0 {
		for size := 1; size <= 4 && i+size <= len(data); size++ {
			var code uint32
			for k := 0; k < size; k++ {
				code = code<<8 | uint32(data[i+k])
			}
			for _, cs := range cm.codespaces {
				if cs.size == size && code >= cs.low && code <= cs.high {
					return code, size
				}
			}
		}
		return uint32(data[i]), 1
	}

	// No declared codespaces: prefer a two-byte code when it maps.
	if i+1 < len(data) {
		code := uint32(data[i])<<8 | uint32(data[i+1])
		if cm.hasMapping(code) {
			return code, 2
		}
	}
	return uint32(data[i]), 1
}

func (cm *CMap) hasMapping(code uint32) bool {
	if _, ok := cm.charMappings[code]; ok {
		return true
	}
	for _, r := range cm.rangeMappings {
		if code >= r.StartCode && code <= r.EndCode {
			return true
		}
	}
	return false
}

// parseCodespaceSection reads <low> <high> pairs. The hex digit count
// of the low bound gives the code's byte length.
func (cm *CMap) parseCodespaceSection(body string) {
	toks := cmapTokens(body)
	for i := 0; i+1 < len(toks); i += 2 {
		if toks[i].kind != tokHex || toks[i+1].kind != tokHex {
			break
		}
		low, err1 := parseHexToUint32(toks[i].text)
		high, err2 := parseHexToUint32(toks[i+1].text)
		if err1 != nil || err2 != nil {
			continue
		}
		size := (len(toks[i].text) + 1) / 2
		if size < 1 {
			size = 1
		}
		if size > 4 {
			size = 4
		}
		cm.codespaces = append(cm.codespaces, codespaceRange{low: low, high: high, size: size})
	}
}

// parseBfCharSection reads <src> <dst> pairs.
func (cm *CMap) parseBfCharSection(body string) {
	toks := cmapTokens(body)
	for i := 0; i+1 < len(toks); i += 2 {
		if toks[i].kind != tokHex || toks[i+1].kind != tokHex {
			break
		}
		code, err := parseHexToUint32(toks[i].text)
		if err != nil {
			continue
		}
		if dst, err := hexToUnicode(toks[i+1].text); err == nil {
			cm.charMappings[code] = dst
		}
	}
}

// parseBfRangeSection reads <lo> <hi> <dst> triples and the
// <lo> <hi> [<dst> <dst> ...] array form.
func (cm *CMap) parseBfRangeSection(body string) {
	toks := cmapTokens(body)
	i := 0
	for i+2 < len(toks) {
		if toks[i].kind != tokHex || toks[i+1].kind != tokHex {
			i++
			continue
		}
		lo, err1 := parseHexToUint32(toks[i].text)
		hi, err2 := parseHexToUint32(toks[i+1].text)
		if err1 != nil || err2 != nil || hi < lo {
			i += 2
			continue
		}

		switch toks[i+2].kind {
		case tokHex:
			if dst, err := hexToUnicode(toks[i+2].text); err == nil {
				cm.rangeMappings = append(cm.rangeMappings, CMapRange{
					StartCode:    lo,
					EndCode:      hi,
					StartUnicode: dst,
				})
			}
			i += 3

		case tokArrayOpen:
			// One destination string per code.
			j := i + 3
			code := lo
			for j < len(toks) && toks[j].kind != tokArrayClose {
				if toks[j].kind == tokHex && code <= hi {
					if dst, err := hexToUnicode(toks[j].text); err == nil {
						cm.charMappings[code] = dst
					}
					code++
				}
				j++
			}
			if j < len(toks) {
				j++ // closing bracket
			}
			i = j

		default:
			i += 3
		}
	}
}

type cmapTokenKind int

const (
	tokHex cmapTokenKind = iota
	tokArrayOpen
	tokArrayClose
	tokWord
)

type cmapToken struct {
	kind cmapTokenKind
	text string
}

// cmapTokens splits a section body into tokens. Hex strings lose their
// angle brackets and any interior whitespace, so tightly packed
// operands like <21><21><0052> and split surrogate pairs like
// <d83d dc4b> both come out as single tokens.
func cmapTokens(body string) []cmapToken {
	var toks []cmapToken
	for i := 0; i < len(body); {
		c := body[i]
		switch {
		case c == '<':
			j := strings.IndexByte(body[i+1:], '>')
			if j < 0 {
				return toks
			}
			raw := body[i+1 : i+1+j]
			var sb strings.Builder
			sb.Grow(len(raw))
			for k := 0; k < len(raw); k++ {
				if !isCMapSpace(raw[k]) {
					sb.WriteByte(raw[k])
				}
			}
			toks = append(toks, cmapToken{kind: tokHex, text: sb.String()})
			i += j + 2
		case c == '[':
			toks = append(toks, cmapToken{kind: tokArrayOpen})
			i++
		case c == ']':
			toks = append(toks, cmapToken{kind: tokArrayClose})
			i++
		case isCMapSpace(c):
			i++
		default:
			j := i
			for j < len(body) && !isCMapSpace(body[j]) && body[j] != '<' && body[j] != '[' && body[j] != ']' {
				j++
			}
			toks = append(toks, cmapToken{kind: tokWord, text: body[i:j]})
			i = j
		}
	}
	return toks
}

func isCMapSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

// cmapSections returns the bodies of every begin/end delimited section
// in content.
func cmapSections(content, begin, end string) []string {
	var out []string
	for start := 0; ; {
		i := strings.Index(content[start:], begin)
		if i < 0 {
			break
		}
		i += start + len(begin)
		j := strings.Index(content[i:], end)
		if j < 0 {
			break
		}
		out = append(out, content[i:i+j])
		start = i + j + len(end)
	}
	return out
}

// extractHexString strips the angle brackets from a <...> hex string.
// Returns "" when the brackets are missing or unbalanced.
func extractHexString(s string) string {
	if len(s) < 2 || s[0] != '<' || s[len(s)-1] != '>' {
		return ""
	}
	return s[1 : len(s)-1]
}

// parseHexToUint32 parses a hex string into a code value. Odd-length
// input is left-padded with a zero digit.
func parseHexToUint32(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty hex string")
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex string %q: %w", s, err)
	}
	return uint32(v), nil
}

// hexToUnicode converts a destination hex string to Unicode text. The
// bytes are UTF-16BE, optionally preceded by a byte order mark; a
// single byte is taken as a bare code point.
func hexToUnicode(hexStr string) (string, error) {
	if hexStr == "" {
		return "", fmt.Errorf("empty hex string")
	}
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}

	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", fmt.Errorf("invalid hex string %q: %w", hexStr, err)
	}

	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		raw = raw[2:]
	}

	if len(raw) == 1 {
		return string(rune(raw[0])), nil
	}
	return DecodeUTF16BE(raw), nil
}
