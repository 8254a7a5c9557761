package detection

import (
	"fmt"
	"sort"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// SelectOptions parameterizes SelectQuadrilateral.
type SelectOptions struct {
	// Depth is how many of the largest contours are examined (K).
	Depth int

	// MinAreaFraction is the share of the image area a quadrilateral must
	// exceed to be accepted as the document.
	MinAreaFraction float64

	// Epsilon is the Douglas-Peucker tolerance as a fraction of each
	// contour's perimeter.
	Epsilon float64
}

// Candidate records how one of the examined contours fared.
type Candidate struct {
	// Index of the contour in the list passed to SelectQuadrilateral.
	Index int `json:"index"`

	// Area is the shoelace area of the contour itself.
	Area float64 `json:"area"`

	Perimeter float64 `json:"perimeter"`

	// Vertices is the vertex count of the simplified polygon.
	Vertices int `json:"vertices"`

	// PolygonArea is the area of the simplified polygon.
	PolygonArea float64 `json:"polygon_area"`

	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Selection is the outcome of SelectQuadrilateral.
//
// When Found is false no contour qualified and Points holds the full image
// frame (0,0), (w-1,0), (w-1,h-1), (0,h-1).
type Selection struct {
	Points     [4]geometry.Point `json:"points"`
	Found      bool              `json:"found"`
	Candidates []Candidate       `json:"candidates"`
}

// Err returns a NoQualifyingQuadrilateral error for a fallback selection
// and nil otherwise.
func (s Selection) Err() error {
	if s.Found {
		return nil
	}
	return scanerr.NewNoQuadError("select", fmt.Sprintf("none of %d examined contours is a large enough quadrilateral", len(s.Candidates)))
}

// SelectQuadrilateral picks the document outline from traced contours.
//
// Contours are ranked by area, largest first; contours of equal area keep
// their tracing order. The top opts.Depth are simplified with ApproxPolygon
// at opts.Epsilon times their perimeter, and the first whose polygon has
// exactly 4 vertices and an area above opts.MinAreaFraction of
// width*height wins. A later, better-shaped candidate never displaces it.
//
// The returned points are the polygon's vertices in tracing order; use
// OrderCorners to canonicalize them.
func SelectQuadrilateral(contours []Contour, width, height int, opts SelectOptions) Selection {
	type ranked struct {
		index int
		area  float64
	}
	order := make([]ranked, len(contours))
	for i, c := range contours {
		order[i] = ranked{i, c.Area()}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].area > order[j].area
	})
	if opts.Depth >= 0 && len(order) > opts.Depth {
		order = order[:opts.Depth]
	}

	minArea := opts.MinAreaFraction * float64(width) * float64(height)
	sel := Selection{Candidates: make([]Candidate, 0, len(order))}

	for _, r := range order {
		c := contours[r.index]
		perimeter := c.Perimeter()
		poly := ApproxPolygon(c, opts.Epsilon*perimeter)

		cand := Candidate{
			Index:       r.index,
			Area:        r.area,
			Perimeter:   perimeter,
			Vertices:    len(poly),
			PolygonArea: poly.Area(),
		}
		switch {
		case len(poly) != 4:
			cand.Reason = fmt.Sprintf("%d vertices", len(poly))
		case cand.PolygonArea <= minArea:
			cand.Reason = fmt.Sprintf("area %.0f below %.0f", cand.PolygonArea, minArea)
		default:
			cand.Accepted = true
			cand.Reason = "accepted"
		}
		sel.Candidates = append(sel.Candidates, cand)

		if cand.Accepted {
			copy(sel.Points[:], poly.Points())
			sel.Found = true
			return sel
		}
	}

	sel.Points = FullFrame(width, height)
	return sel
}

// FullFrame returns the corners of the whole image in canonical order.
func FullFrame(width, height int) [4]geometry.Point {
	return geometry.Rectangle(width, height)
}
