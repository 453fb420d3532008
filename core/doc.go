// Package core provides low-level PDF parsing primitives and object types.
//
// This package implements the fundamental building blocks for working with PDF
// files, including all eight PDF object types (null, boolean, integer, real,
// string, name, array, and dictionary), as well as streams, indirect
// references, and cross-reference tables.
//
// # Object Types
//
// PDF defines eight basic object types, all implemented as types satisfying the
// Object interface:
//
//   - [Null] - represents the PDF null object
//   - [Bool] - represents PDF boolean values (true/false)
//   - [Int] - represents PDF integers
//   - [Real] - represents PDF real numbers (floating point)
//   - [String] - represents PDF string objects (literal or hexadecimal)
//   - [Name] - represents PDF name objects (e.g., /Type, /Font)
//   - [Array] - represents PDF arrays
//   - [Dict] - represents PDF dictionaries
//
// Additionally, [Stream] represents a PDF stream (dictionary + binary data),
// and [IndirectRef] represents a reference to an indirect object. The
// [ObjectType] tag identifies each kind, so consumers can switch over the
// complete set.
//
// # Parsing
//
// The [Parser] type handles parsing PDF syntax from an io.Reader. It can parse
// individual objects or complete indirect object definitions, and repairs
// recoverable damage (wrong stream lengths, missing endobj keywords) while
// recording what it repaired in [Parser.Warnings].
//
// The [Lexer] type provides tokenization of PDF input, converting raw bytes
// into tokens that the parser consumes.
//
// # Cross-Reference Tables
//
// The [XRefTable] type represents a PDF cross-reference table, which maps
// object numbers to their locations in the file. The [XRefParser] type handles
// classical xref tables, including /Prev chains from incremental updates.
// When no usable table exists, [ScanObjects] rebuilds one by scanning the
// raw buffer for object headers.
//
// # Stream Decoding
//
// Streams can be compressed using various filters. The [Stream.Decode] method
// handles decompression, supporting FlateDecode, ASCIIHexDecode,
// ASCII85Decode, CCITTFaxDecode, and filter chains. Decompressed size is
// capped to keep hostile files from exhausting memory.
//
// # Errors
//
// [StructuralError], [StreamDecodeError], and [FontError] classify the
// recoverable failure modes. All three normally surface as warnings beside a
// degraded result rather than as hard errors.
package core
