package detection

import (
	"math"

	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// Area returns the absolute polygon area of a closed contour by the
// shoelace formula. Contours with fewer than 3 points have area 0.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the length of the closed contour, including the
// segment from the last point back to the first.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var sum float64
	for i := range c {
		sum += geometry.Distance(c[i].float(), c[(i+1)%len(c)].float())
	}
	return sum
}

// Points converts the contour to floating point coordinates.
func (c Contour) Points() []geometry.Point {
	out := make([]geometry.Point, len(c))
	for i, p := range c {
		out[i] = p.float()
	}
	return out
}

func (p Point) float() geometry.Point {
	return geometry.Pt(float64(p.X), float64(p.Y))
}

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm. Every point of the contour lies within epsilon of the returned
// polygon, whose vertices are a subset of the contour's points in the same
// order.
//
// The closed curve is first split at two points far apart on it, found by
// jumping to the farthest point a few times; on a document outline these
// land on opposite corners. Both halves are then simplified. Recursion is
// replaced by an explicit stack of index ranges so very long contours cannot
// exhaust the goroutine stack.
func ApproxPolygon(c Contour, epsilon float64) Contour {
	n := len(c)
	if n <= 2 {
		out := make(Contour, n)
		copy(out, c)
		return out
	}

	first, second := splitPoints(c)
	if first == second {
		// Every point coincides with the first.
		return Contour{c[0]}
	}

	keep := make([]bool, n)
	keep[first], keep[second] = true, true

	// Indices are taken modulo n so the second half can wrap past the end.
	type span struct{ from, to int }
	stack := []span{{first, second}, {second, first + n}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.to-s.from < 2 {
			continue
		}

		a, b := c[s.from%n].float(), c[s.to%n].float()
		split := -1
		var maxDist float64
		for i := s.from + 1; i < s.to; i++ {
			if d := lineDistance(c[i%n].float(), a, b); d > maxDist {
				split, maxDist = i, d
			}
		}
		if split < 0 || maxDist <= epsilon {
			continue
		}
		keep[split%n] = true
		stack = append(stack, span{s.from, split}, span{split, s.to})
	}

	out := make(Contour, 0, 8)
	for i, k := range keep {
		if k {
			out = append(out, c[i])
		}
	}
	return out
}

// splitIterations bounds the farthest-point search in splitPoints.
const splitIterations = 3

// splitPoints returns two indices of c, in increasing order, whose points are
// far apart. Both are 0 when all points coincide.
func splitPoints(c Contour) (int, int) {
	pivot, other := 0, 0
	var best float64
	for iter := 0; iter < splitIterations; iter++ {
		far := pivot
		var farDist float64
		for i := range c {
			if d := geometry.Distance(c[pivot].float(), c[i].float()); d > farDist {
				far, farDist = i, d
			}
		}
		if farDist <= best {
			break
		}
		best = farDist
		pivot, other = far, pivot
	}
	return min(pivot, other), max(pivot, other)
}

// lineDistance returns the distance from p to the line through a and b, or
// to a itself when a and b coincide.
func lineDistance(p, a, b geometry.Point) float64 {
	length := geometry.Distance(a, b)
	if length == 0 {
		return geometry.Distance(p, a)
	}
	return math.Abs(geometry.Cross(a, b, p)) / length
}
