// Package font handles PDF fonts on both sides of the document: decoding
// text drawn with Type1, TrueType, and composite fonts during extraction,
// and preparing TrueType fonts for embedding when writing.
//
// # Font Types
//
// Fonts are built from PDF font dictionaries with a [Resolver] supplied
// by the document reader:
//
//	t1, err := font.NewType1Font(fontDict, resolver)
//	tt, err := font.NewTrueTypeFont(fontDict, resolver)
//	t0, err := font.NewType0Font(fontDict, resolver)
//
// [Type1Font] covers the fourteen standard faces, which need neither a
// descriptor nor a widths array. [Type0Font] wraps a descendant
// [CIDFont] and decodes 2-byte character IDs, the usual shape of CJK
// and embedded subset fonts.
//
// # Text Decoding
//
// [Font.DecodeString] turns raw string bytes into text. A ToUnicode
// CMap always wins; otherwise the font's encoding applies, with
// WinAnsiEncoding filling the 0x80-0x9F range and every other byte
// decoding as itself. Output is NFC-normalized.
//
// # Character Widths
//
// Widths come from the font dictionary when declared, from built-in
// tables for the standard faces, and from [AverageWidth] as the final
// fallback, so measurement never collapses to zero:
//
//	w := f.GetWidth('A')        // thousandths of an em
//	w := f.GetStringWidth("Hi")
//
// # Embedding
//
// [LoadEmbedded] parses a TrueType program once via [ParseMetrics] and
// produces everything a writer needs for a composite font: 2-byte
// glyph ID strings from [Embedded.EncodeString], width runs for the W
// array, and a generated ToUnicode CMap so the written text can be
// extracted again.
package font
