package detection

import "github.com/ironsheep/docscan-mcp/internal/geometry"

// OrderCorners returns the four points as top-left, top-right,
// bottom-right, bottom-left.
//
//   - top-left has the smallest x+y (ties: smaller y, then smaller x)
//   - bottom-right has the largest x+y of the rest (ties: larger y, then
//     larger x)
//   - top-right has the smaller y-x of the remaining two (ties: smaller y,
//     then larger x)
//   - bottom-left is the point left over
//
// The result depends only on the set of points, never on their input order,
// so OrderCorners(OrderCorners(p)) == OrderCorners(p).
func OrderCorners(points [4]geometry.Point) geometry.Quad {
	rest := append([]geometry.Point(nil), points[:]...)

	var tl, br, tr geometry.Point
	tl, rest = takeMin(rest, func(p geometry.Point) [3]float64 {
		return [3]float64{p.X + p.Y, p.Y, p.X}
	})
	br, rest = takeMin(rest, func(p geometry.Point) [3]float64 {
		return [3]float64{-(p.X + p.Y), -p.Y, -p.X}
	})
	tr, rest = takeMin(rest, func(p geometry.Point) [3]float64 {
		return [3]float64{p.Y - p.X, p.Y, -p.X}
	})

	return geometry.Quad{tl, tr, br, rest[0]}
}

// takeMin removes and returns the point with the lexicographically
// smallest key.
func takeMin(points []geometry.Point, key func(geometry.Point) [3]float64) (geometry.Point, []geometry.Point) {
	best := 0
	bestKey := key(points[0])
	for i := 1; i < len(points); i++ {
		k := key(points[i])
		if lexLess(k, bestKey) {
			best, bestKey = i, k
		}
	}
	chosen := points[best]
	rest := make([]geometry.Point, 0, len(points)-1)
	rest = append(rest, points[:best]...)
	rest = append(rest, points[best+1:]...)
	return chosen, rest
}

func lexLess(a, b [3]float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
