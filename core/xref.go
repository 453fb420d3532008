package core

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrXRefStream reports that the startxref offset points at a
// cross-reference stream (PDF 1.5+) instead of a classical table.
// Callers fall back to scanning the file for object headers.
var ErrXRefStream = errors.New("cross-reference stream not supported")

// XRefEntry represents a single cross-reference table entry
type XRefEntry struct {
	Offset     int64 // Byte offset in file (for in-use objects) or next free object number (for free objects)
	Generation int   // Generation number
	InUse      bool  // true if object is in use, false if free
}

// XRefTable represents a PDF cross-reference table
type XRefTable struct {
	Entries map[int]*XRefEntry // Map from object number to XRef entry
	Trailer Dict               // Trailer dictionary
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// XRefParser parses PDF cross-reference tables
type XRefParser struct {
	reader io.ReadSeeker
}

// NewXRefParser creates a new XRef parser
func NewXRefParser(r io.ReadSeeker) *XRefParser {
	return &XRefParser{
		reader: r,
	}
}

// FindXRef finds the byte offset of the XRef table by scanning from EOF.
// PDFs end with "startxref\n<offset>\n%%EOF".
func (x *XRefParser) FindXRef() (int64, error) {
	fileSize, err := x.reader.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to end: %w", err)
	}

	// The startxref section sits in the last few lines of the file
	readSize := int64(1024)
	if fileSize < readSize {
		readSize = fileSize
	}

	_, err = x.reader.Seek(fileSize-readSize, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to startxref area: %w", err)
	}

	buf := make([]byte, readSize)
	n, err := x.reader.Read(buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("failed to read startxref area: %w", err)
	}
	buf = buf[:n]

	content := string(buf)
	idx := strings.LastIndex(content, "startxref")
	if idx == -1 {
		return 0, fmt.Errorf("startxref not found in PDF")
	}

	afterStartXRef := content[idx+len("startxref"):]
	offsetStr := ""
	for _, line := range strings.Split(afterStartXRef, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			offsetStr = line
			break
		}
	}

	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid xref offset: %w", err)
	}

	return offset, nil
}

// ParseXRef parses the XRef table at the given byte offset. If the offset
// points at an indirect object instead of the xref keyword the file uses a
// cross-reference stream and ErrXRefStream is returned.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	_, err := x.reader.Seek(offset, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to seek to xref: %w", err)
	}

	scanner := bufio.NewScanner(x.reader)

	if !scanner.Scan() {
		return nil, fmt.Errorf("failed to read xref keyword")
	}
	line := strings.TrimSpace(scanner.Text())
	if line != "xref" {
		if objHeaderPattern.MatchString(line) {
			return nil, fmt.Errorf("offset %d: %w", offset, ErrXRefStream)
		}
		return nil, fmt.Errorf("expected 'xref' keyword, got '%s'", line)
	}

	table := NewXRefTable()
	foundTrailer := false

	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "trailer" {
			trailer, err := x.parseTrailer(scanner)
			if err != nil {
				return nil, fmt.Errorf("failed to parse trailer: %w", err)
			}
			table.Trailer = trailer
			foundTrailer = true
			break
		}

		// Subsection header: firstObjNum count
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid subsection header: %s", line)
		}

		firstObjNum, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid first object number: %w", err)
		}

		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid count: %w", err)
		}

		for i := 0; i < count; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("unexpected end of xref subsection")
			}

			entry, err := x.parseEntry(scanner.Text())
			if err != nil {
				return nil, fmt.Errorf("failed to parse xref entry: %w", err)
			}

			table.Set(firstObjNum+i, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	if !foundTrailer {
		return nil, fmt.Errorf("xref table missing trailer")
	}

	return table, nil
}

// parseEntry parses a single XRef entry line.
// Format: "nnnnnnnnnn ggggg n" or "nnnnnnnnnn ggggg f"
// nnnnnnnnnn = 10-digit offset, ggggg = 5-digit generation number,
// n/f = in-use flag.
func (x *XRefParser) parseEntry(line string) (*XRefEntry, error) {
	if len(line) < 18 {
		return nil, fmt.Errorf("xref entry too short: %q", line)
	}

	offsetStr := strings.TrimSpace(line[0:10])
	genStr := strings.TrimSpace(line[10:16])
	flag := strings.TrimSpace(line[16:18])

	offset, err := strconv.ParseInt(offsetStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid offset %q: %w", offsetStr, err)
	}

	generation, err := strconv.Atoi(genStr)
	if err != nil {
		return nil, fmt.Errorf("invalid generation %q: %w", genStr, err)
	}

	var inUse bool
	switch flag {
	case "n":
		inUse = true
	case "f":
		inUse = false
	default:
		return nil, fmt.Errorf("invalid in-use flag: %q", flag)
	}

	return &XRefEntry{
		Offset:     offset,
		Generation: generation,
		InUse:      inUse,
	}, nil
}

// parseTrailer parses the trailer dictionary after the "trailer" keyword.
// Lines are collected until the dictionary nesting balances, then parsed
// with the object parser.
func (x *XRefParser) parseTrailer(scanner *bufio.Scanner) (Dict, error) {
	var dictText strings.Builder
	depth := 0
	started := false

	for scanner.Scan() {
		line := scanner.Text()
		dictText.WriteString(line)
		dictText.WriteString("\n")

		depth += strings.Count(line, "<<") - strings.Count(line, ">>")
		if strings.Contains(line, "<<") {
			started = true
		}
		if started && depth <= 0 {
			break
		}
	}

	parser := NewParser(strings.NewReader(dictText.String()))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trailer dictionary: %w", err)
	}

	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
	}

	return dict, nil
}

// ParseXRefFromEOF finds and parses the XRef table by scanning from EOF
func (x *XRefParser) ParseXRefFromEOF() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, fmt.Errorf("failed to find xref: %w", err)
	}

	table, err := x.ParseXRef(offset)
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref: %w", err)
	}

	return table, nil
}

// ParsePrevXRef checks if the trailer has a /Prev entry and parses that XRef
// table. This handles incremental updates in PDFs.
func (x *XRefParser) ParsePrevXRef(table *XRefTable) (*XRefTable, error) {
	prevObj := table.Trailer.Get("Prev")
	if prevObj == nil {
		return nil, nil // no previous XRef
	}

	prevInt, ok := prevObj.(Int)
	if !ok {
		return nil, fmt.Errorf("invalid /Prev entry type: %T", prevObj)
	}

	prevTable, err := x.ParseXRef(int64(prevInt))
	if err != nil {
		return nil, fmt.Errorf("failed to parse previous xref: %w", err)
	}

	return prevTable, nil
}

// MergeXRefTables merges multiple XRef tables (from incremental updates).
// Later entries override earlier ones.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	if len(tables) == 0 {
		return NewXRefTable()
	}

	merged := NewXRefTable()

	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		merged.Trailer = table.Trailer
	}

	return merged
}

// ParseAllXRefs parses the main XRef table and all previous ones
// (incremental updates). Returns them in order from oldest to newest.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	mainTable, err := x.ParseXRefFromEOF()
	if err != nil {
		return nil, err
	}

	tables := []*XRefTable{mainTable}

	currentTable := mainTable
	for {
		prevTable, err := x.ParsePrevXRef(currentTable)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prev xref: %w", err)
		}
		if prevTable == nil {
			break
		}

		// Oldest first
		tables = append([]*XRefTable{prevTable}, tables...)
		currentTable = prevTable
	}

	return tables, nil
}

var objHeaderPattern = regexp.MustCompile(`^(\d+)\s+(\d+)\s+obj\b`)

var objScanPattern = regexp.MustCompile(`(\d+)\s+(\d+)\s+obj\b`)

// ScanObjects rebuilds a cross-reference table by scanning the whole buffer
// for "N G obj" headers. This is the recovery path for files whose xref is
// missing, damaged, or uses features the table parser does not handle. When
// the same object number appears more than once the last occurrence wins,
// matching how incremental updates append newer versions.
//
// The trailer is reconstructed from the last "trailer" keyword in the
// buffer when one exists; otherwise it is left empty and the caller must
// locate the catalog by inspecting the scanned objects.
func ScanObjects(data []byte) *XRefTable {
	table := NewXRefTable()

	for _, m := range objScanPattern.FindAllSubmatchIndex(data, -1) {
		start := m[2] // first digit of the object number
		if start > 0 && !isScanBoundary(data[start-1]) {
			continue
		}

		num, err := strconv.Atoi(string(data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		gen, err := strconv.Atoi(string(data[m[4]:m[5]]))
		if err != nil {
			continue
		}

		table.Set(num, &XRefEntry{
			Offset:     int64(start),
			Generation: gen,
			InUse:      true,
		})
	}

	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		parser := NewParser(bytes.NewReader(data[idx+len("trailer"):]))
		if obj, err := parser.ParseObject(); err == nil {
			if dict, ok := obj.(Dict); ok {
				table.Trailer = dict
			}
		}
	}

	return table
}

// isScanBoundary reports whether b can legally precede an object header.
func isScanBoundary(b byte) bool {
	return isWhitespace(b) || isDelimiter(b)
}
