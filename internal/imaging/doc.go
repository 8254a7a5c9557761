// Package imaging provides the raster stages of the document scanner.
//
// It holds the pixel-level work: decoding photos into a Raster, resizing
// and smoothing (Preprocess), Canny edge detection with dilation
// (BuildEdgeMap), perspective resampling (WarpPerspective), scan-style
// enhancement (Enhance) and the corner overlay used for previews (DrawQuad).
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Sub-pixel positions use
// the same axes, so pixel (x, y) is centered at exactly (x, y).
//
// # Rasters
//
// A Raster is an 8-bit interleaved, row-major buffer with 1, 3 or 4
// channels. Stages never modify their input; each returns a new Raster.
// Binary masks are single-channel with values 0 and 255 only.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and can be called concurrently, including on the same input
// Raster.
//
// # Error Handling
//
// Malformed input (nil, zero-sized, unsupported channel count, truncated
// buffer or undecodable bytes) is reported as an invalid_image error from
// the internal/errors package. Bad parameters are invalid_config errors.
package imaging
