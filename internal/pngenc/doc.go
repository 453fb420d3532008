// Package pngenc wraps raw pixel data extracted from image streams into
// standalone PNG files.
//
// The encoder writes the minimal chunk sequence a PNG viewer needs:
// signature, IHDR, PLTE for palette images, one IDAT holding every scanline,
// and IEND. Scanlines use filter type None so the pixel bytes survive
// unchanged, which keeps output reproducible across runs. Natively encoded
// streams (JPEG, JPEG 2000) never pass through this package; their bytes are
// extracted verbatim upstream.
package pngenc
