// Package geometry provides the planar primitives of the scanner: points,
// ordered quadrilaterals and the projective transform between two planes.
//
// Coordinates follow the image convention used throughout the module:
// origin at the top-left pixel, X grows rightward, Y grows downward.
package geometry

import "math"

// Point is a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cross returns the z component of (b-a) x (c-a). Zero means a, b and c are
// collinear.
func Cross(a, b, c Point) float64 {
	u, v := b.Sub(a), c.Sub(a)
	return u.X*v.Y - u.Y*v.X
}

// Quad is a quadrilateral in canonical order: top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// Corner indexes into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// TL returns the top-left corner.
func (q Quad) TL() Point { return q[TopLeft] }

// TR returns the top-right corner.
func (q Quad) TR() Point { return q[TopRight] }

// BR returns the bottom-right corner.
func (q Quad) BR() Point { return q[BottomRight] }

// BL returns the bottom-left corner.
func (q Quad) BL() Point { return q[BottomLeft] }

// Area returns the unsigned area of the quadrilateral by the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}
