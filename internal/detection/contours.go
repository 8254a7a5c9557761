package detection

import (
	"fmt"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is a closed border of a foreground region, in tracing order.
// The segment from the last point back to the first closes it.
type Contour []Point

// neighbours lists the 8-neighbourhood offsets. Index order runs
// counter-clockwise on screen (Y grows downward): E, NE, N, NW, W, SW, S, SE.
var neighbours = [8]Point{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1},
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

func direction(from, to Point) int {
	d := Point{to.X - from.X, to.Y - from.Y}
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return -1
}

// FindContours traces every border in a binary mask and returns them as a
// flat list.
//
// Any non-zero sample is foreground; foreground is 8-connected. Both outer
// borders and hole borders are reported, each exactly once, in the order
// their first pixel is met by a top-to-bottom, left-to-right raster scan.
// Pixels outside the mask are treated as background.
//
// # Algorithm
//
// Topological border following (Suzuki and Abe, 1985). A working label
// plane carries 0 for background, 1 for unvisited foreground and ±NBD for
// pixels already on border NBD. A border starts at a foreground pixel whose
// west neighbour is background (outer border) or whose east neighbour is
// background (hole border). The border is then followed by repeatedly
// searching the neighbourhood of the current pixel counter-clockwise,
// starting just after the pixel it was entered from. A pixel whose east
// neighbour is examined and found to be background is labeled -NBD, which
// keeps the raster scan from starting a second trace along the same border.
//
// Each contour is chain-compressed: runs of pixels along the same one of
// the 8 directions keep only their end points.
func FindContours(mask *imaging.Raster) ([]Contour, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	if mask.Channels != 1 {
		return nil, scanerr.NewInvalidImageError("contours", fmt.Sprintf("contour tracing needs a 1-channel mask, got %d channels", mask.Channels), nil)
	}

	t := newTracer(mask)
	contours := make([]Contour, 0)
	nbd := 1

	for y := 1; y <= mask.Height; y++ {
		for x := 1; x <= mask.Width; x++ {
			v := t.at(x, y)
			var from Point
			switch {
			case v == 1 && t.at(x-1, y) == 0:
				from = Point{x - 1, y}
			case v >= 1 && t.at(x+1, y) == 0:
				from = Point{x + 1, y}
			default:
				continue
			}

			nbd++
			raw := t.follow(Point{x, y}, from, int32(nbd))
			contours = append(contours, compress(raw))
		}
	}
	return contours, nil
}

// tracer holds the label plane, padded by one background pixel on every
// side so neighbour lookups never leave the buffer.
type tracer struct {
	width  int
	labels []int32
}

func newTracer(mask *imaging.Raster) *tracer {
	t := &tracer{
		width:  mask.Width + 2,
		labels: make([]int32, (mask.Width+2)*(mask.Height+2)),
	}
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.Pix[y*mask.Width+x] != 0 {
				t.labels[(y+1)*t.width+x+1] = 1
			}
		}
	}
	return t
}

func (t *tracer) at(x, y int) int32 {
	return t.labels[y*t.width+x]
}

func (t *tracer) set(p Point, v int32) {
	t.labels[p.Y*t.width+p.X] = v
}

func step(p Point, dir int) Point {
	n := neighbours[dir&7]
	return Point{p.X + n.X, p.Y + n.Y}
}

// follow traces the border through start, entered from the background
// pixel from, labels it nbd and returns its points in mask coordinates.
func (t *tracer) follow(start, from Point, nbd int32) Contour {
	// Clockwise search for the last pixel of the border before start.
	d0 := direction(start, from)
	first := Point{-1, -1}
	for i := 0; i < 8; i++ {
		p := step(start, d0-i+8)
		if t.at(p.X, p.Y) != 0 {
			first = p
			break
		}
	}
	if first.X < 0 {
		t.set(start, -nbd)
		return Contour{{start.X - 1, start.Y - 1}}
	}

	points := Contour{{start.X - 1, start.Y - 1}}
	prev, cur := first, start
	for {
		// Counter-clockwise search starting just after prev.
		dPrev := direction(cur, prev)
		eastIsBackground := false
		var next Point
		for i := 1; i <= 8; i++ {
			dir := (dPrev + i) & 7
			p := step(cur, dir)
			if t.at(p.X, p.Y) != 0 {
				next = p
				break
			}
			if dir == 0 {
				eastIsBackground = true
			}
		}

		if eastIsBackground {
			t.set(cur, -nbd)
		} else if t.at(cur.X, cur.Y) == 1 {
			t.set(cur, nbd)
		}

		if next == start && cur == first {
			return points
		}
		points = append(points, Point{next.X - 1, next.Y - 1})
		prev, cur = cur, next
	}
}

// compress drops every point whose incoming and outgoing steps share a
// direction.
func compress(raw Contour) Contour {
	n := len(raw)
	if n < 3 {
		return raw
	}
	out := make(Contour, 0, n/2+1)
	for i := 0; i < n; i++ {
		prev := raw[(i+n-1)%n]
		next := raw[(i+1)%n]
		if direction(prev, raw[i]) != direction(raw[i], next) {
			out = append(out, raw[i])
		}
	}
	return out
}
