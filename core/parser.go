package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

var endstreamMarker = []byte("endstream")

// ReferenceResolver is an interface for resolving indirect references.
// This allows the parser to resolve indirect stream lengths when needed.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from an io.Reader using a Lexer for tokenization.
// It supports parsing all PDF object types including indirect objects and
// streams. Damage that can be repaired (bad stream lengths, missing endobj)
// is repaired and recorded as a warning rather than failing the parse.
type Parser struct {
	lexer        *Lexer
	currentToken *Token // Current token being processed
	peekToken    *Token // Next token (lookahead)
	resolver     ReferenceResolver
	warnings     []string
}

// SetReferenceResolver sets the reference resolver for the parser.
// This is needed to resolve indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// NewParser creates a new PDF parser for the given reader.
// It initializes the lexer and loads the first two tokens for lookahead.
func NewParser(r io.Reader) *Parser {
	p := &Parser{
		lexer: NewLexer(r),
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Warnings returns descriptions of every repair the parser performed.
func (p *Parser) Warnings() []string {
	return p.warnings
}

func (p *Parser) warnf(format string, args ...interface{}) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// nextToken advances the parser to the next token by shifting the lookahead.
func (p *Parser) nextToken() error {
	p.currentToken = p.peekToken

	// If we just moved "stream" into currentToken, don't try to read the next
	// token because it's binary data that can't be tokenized normally.
	// parseStream reads the payload directly from the lexer.
	if p.currentToken != nil &&
		p.currentToken.Type == TokenKeyword &&
		string(p.currentToken.Value) == "stream" {
		p.peekToken = nil
		return nil
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peekToken = token
	return nil
}

// reloadTokens discards the lookahead and refills it from the lexer's
// current position. Used after reading raw stream bytes.
func (p *Parser) reloadTokens() {
	p.currentToken = nil
	p.peekToken = nil
	p.nextToken()
	p.nextToken()
}

// skipComments skips over any consecutive comment tokens.
func (p *Parser) skipComments() error {
	for p.currentToken != nil && p.currentToken.Type == TokenComment {
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	return nil
}

// ParseObject parses and returns the next PDF object from the input.
// It handles all PDF object types: null, boolean, integer, real, string,
// name, array, dictionary, and indirect references.
func (p *Parser) ParseObject() (Object, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}

	if p.currentToken == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch p.currentToken.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		keyword := string(p.currentToken.Value)
		switch keyword {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("unexpected keyword: %s", keyword)
		}

	case TokenInteger:
		// Could be integer, real, or start of indirect reference
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(p.currentToken.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number: %w", err)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString:
		val := string(p.currentToken.Value)
		p.nextToken()
		return String(val), nil

	case TokenHexString:
		hexStr := string(p.currentToken.Value)
		if len(hexStr)%2 != 0 {
			hexStr += "0" // pad if odd length
		}
		result := make([]byte, len(hexStr)/2)
		for i := 0; i < len(hexStr); i += 2 {
			b, err := strconv.ParseUint(hexStr[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid hex string: %w", err)
			}
			result[i/2] = byte(b)
		}
		p.nextToken()
		return String(result), nil

	case TokenName:
		val := string(p.currentToken.Value)
		p.nextToken()
		return Name(val), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token type: %v at position %d", p.currentToken.Type, p.currentToken.Pos)
	}
}

// parseNumber parses an integer, real number, or indirect reference.
// Indirect references are detected by lookahead: "num gen R" pattern.
func (p *Parser) parseNumber() (Object, error) {
	firstToken := string(p.currentToken.Value)

	firstInt, err := strconv.ParseInt(firstToken, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(firstToken, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", firstToken)
		}
		p.nextToken()
		return Real(f), nil
	}

	// Use lookahead to check if this is an indirect reference (num gen R)
	if p.peekToken != nil && p.peekToken.Type == TokenInteger {
		secondToken := string(p.peekToken.Value)
		secondInt, err := strconv.ParseInt(secondToken, 10, 64)
		if err == nil {
			// We need to consume the second integer to see whether R follows
			p.nextToken()
			if p.peekToken != nil && p.peekToken.Type == TokenIndirectRef {
				p.nextToken() // move to R
				p.nextToken() // move past R
				return IndirectRef{
					Number:     int(firstInt),
					Generation: int(secondInt),
				}, nil
			}
			// Not an indirect ref - we're now at the second integer.
			// Return the first integer as Int.
			return Int(firstInt), nil
		}
	}

	p.nextToken()
	return Int(firstInt), nil
}

// parseArray parses a PDF array "[obj1 obj2 ...]".
func (p *Parser) parseArray() (Object, error) {
	if p.currentToken.Type != TokenArrayStart {
		return nil, fmt.Errorf("expected '[', got %v", p.currentToken.Type)
	}
	p.nextToken()

	var arr Array
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}

		if p.currentToken == nil {
			return nil, fmt.Errorf("unexpected end of input in array")
		}
		if p.currentToken.Type == TokenArrayEnd {
			p.nextToken()
			break
		}
		if p.currentToken.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}

	return arr, nil
}

// parseDict parses a PDF dictionary "<< /Key value ... >>".
func (p *Parser) parseDict() (Object, error) {
	if p.currentToken.Type != TokenDictStart {
		return nil, fmt.Errorf("expected '<<', got %v", p.currentToken.Type)
	}
	p.nextToken()

	dict := make(Dict)
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}

		if p.currentToken == nil {
			return nil, fmt.Errorf("unexpected end of input in dictionary")
		}
		if p.currentToken.Type == TokenDictEnd {
			p.nextToken()
			break
		}
		if p.currentToken.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		}

		if p.currentToken.Type != TokenName {
			return nil, fmt.Errorf("expected name for dictionary key, got %v", p.currentToken.Type)
		}
		key := string(p.currentToken.Value)
		p.nextToken()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}

		dict[key] = value
	}

	return dict, nil
}

// ParseIndirectObject parses an indirect object definition.
// Format: "num gen obj <object> endobj" or "num gen obj <dict> stream ... endstream endobj"
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}

	if p.currentToken == nil || p.currentToken.Type != TokenInteger {
		return nil, fmt.Errorf("expected object number, got %v", p.currentToken)
	}
	num, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid object number: %w", err)
	}
	p.nextToken()

	if p.currentToken == nil || p.currentToken.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation number, got %v", p.currentToken)
	}
	gen, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid generation number: %w", err)
	}
	p.nextToken()

	if p.currentToken.Type != TokenKeyword || string(p.currentToken.Value) != "obj" {
		return nil, fmt.Errorf("expected 'obj' keyword, got %v", p.currentToken)
	}
	p.nextToken()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing indirect object value: %w", err)
	}

	if p.currentToken != nil && p.currentToken.Type == TokenKeyword && string(p.currentToken.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary")
		}
		stream, err := p.parseStream(int(num), dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream: %w", err)
		}
		obj = stream
	}

	// A missing endobj is recoverable: callers position the parser per
	// object, so nothing after this point depends on where we stopped.
	if p.currentToken != nil && p.currentToken.Type == TokenKeyword && string(p.currentToken.Value) == "endobj" {
		p.nextToken()
	} else {
		p.warnf("object %d %d: endobj not found", num, gen)
	}

	return &IndirectObject{
		Ref: IndirectRef{
			Number:     int(num),
			Generation: int(gen),
		},
		Object: obj,
	}, nil
}

// parseStream parses a stream object after the "stream" keyword. The payload
// is read according to the /Length entry when it is present and correct;
// otherwise the payload is recovered by scanning for the endstream keyword
// and trimming the end-of-line that precedes it.
func (p *Parser) parseStream(objNum int, dict Dict) (*Stream, error) {
	if p.currentToken.Type != TokenKeyword || string(p.currentToken.Value) != "stream" {
		return nil, fmt.Errorf("expected 'stream' keyword")
	}

	length := -1
	switch v := dict.Get("Length").(type) {
	case nil:
		p.warnf("object %d: stream has no /Length", objNum)
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver == nil {
			p.warnf("object %d: indirect /Length with no resolver", objNum)
			break
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			p.warnf("object %d: /Length %s unresolvable: %v", objNum, v, err)
			break
		}
		if n, ok := resolved.(Int); ok {
			length = int(n)
		} else {
			p.warnf("object %d: /Length resolved to %T, expected Int", objNum, resolved)
		}
	default:
		p.warnf("object %d: invalid /Length type %T", objNum, v)
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("failed to skip EOL after stream keyword: %w", err)
	}

	var data []byte
	if length < 0 {
		recovered, err := p.recoverStreamData(nil)
		if err != nil {
			return nil, err
		}
		data = recovered
		p.warnf("object %d: stream payload recovered by endstream scan (%d bytes)", objNum, len(data))
	} else {
		read, err := p.lexer.ReadBytes(length)
		if err != nil {
			// Truncated file: keep what we got
			p.warnf("object %d: stream truncated at %d of %d bytes", objNum, len(read), length)
			data = trimStreamEOL(read)
			p.reloadTokens()
			return &Stream{Dict: dict, Data: data}, nil
		}
		data = read

		if !p.consumeEndstream() {
			// Declared length does not land on endstream. Either the
			// declaration was too long (the keyword sits inside what we
			// read) or too short (it lies further ahead).
			if idx := bytes.Index(data, endstreamMarker); idx >= 0 {
				data = trimStreamEOL(data[:idx])
			} else {
				tail, err := p.lexer.ReadUntilMarker(endstreamMarker)
				if err != nil {
					return nil, fmt.Errorf("endstream not found for object %d: %w", objNum, err)
				}
				data = trimStreamEOL(append(data, tail...))
			}
			p.warnf("object %d: declared /Length %d wrong, recovered %d bytes", objNum, length, len(data))
		}
	}

	p.reloadTokens()

	return &Stream{
		Dict: dict,
		Data: data,
	}, nil
}

// consumeEndstream checks whether the next non-whitespace bytes are the
// endstream keyword and consumes them if so. It never tokenizes, so binary
// garbage after a bad length cannot corrupt the lexer state.
func (p *Parser) consumeEndstream() bool {
	p.lexer.skipWhitespace()
	// Peek may return an error alongside enough bytes at EOF; the bytes
	// are what matters
	peeked, _ := p.lexer.peekN(len(endstreamMarker))
	if !bytes.Equal(peeked, endstreamMarker) {
		return false
	}
	p.lexer.ReadBytes(len(endstreamMarker))
	return true
}

// recoverStreamData scans forward for the endstream keyword, returning
// everything before it with the trailing end-of-line removed.
func (p *Parser) recoverStreamData(prefix []byte) ([]byte, error) {
	tail, err := p.lexer.ReadUntilMarker(endstreamMarker)
	if err != nil {
		return nil, fmt.Errorf("endstream not found: %w", err)
	}
	return trimStreamEOL(append(prefix, tail...)), nil
}

// trimStreamEOL removes a single trailing CRLF, LF, or CR. The EOL before
// endstream belongs to the syntax, not the payload.
func trimStreamEOL(data []byte) []byte {
	if n := len(data); n > 0 {
		if data[n-1] == '\n' {
			data = data[:n-1]
			if n := len(data); n > 0 && data[n-1] == '\r' {
				data = data[:n-1]
			}
		} else if data[n-1] == '\r' {
			data = data[:n-1]
		}
	}
	return data
}
