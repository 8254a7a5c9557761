// Package detection finds the document outline in an edge mask.
//
// It covers the contour half of the scanner:
//
//   - FindContours traces every outer and hole border of a binary mask
//     (Suzuki-Abe border following, 8-connectivity) and chain-compresses it
//   - Contour.Area, Contour.Perimeter and ApproxPolygon (closed
//     Douglas-Peucker) measure and simplify the traced borders
//   - SelectQuadrilateral ranks contours by area and greedily accepts the
//     first large 4-vertex polygon, falling back to the image frame
//   - OrderCorners puts the four corners in top-left, top-right,
//     bottom-right, bottom-left order
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Contours carry integer pixel positions; corners are returned as
// geometry.Point so later stages can work in floating point.
//
// # Determinism
//
// Every function here is a pure function of its arguments. Contours are
// reported in raster-scan order of their first pixel, ranking is a stable
// sort, and corner ties are broken by fixed secondary keys, so the same mask
// always yields the same corners.
package detection
