package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Homography is a 3x3 projective matrix in row-major order, scale-normalized
// so that the last entry is 1.
type Homography [9]float64

// Apply maps p through h in homogeneous coordinates. The boolean is false
// when the projective scale is zero, i.e. p maps to infinity.
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return Point{}, false
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the inverse transform, normalized like h.
func (h Homography) Inverse() (Homography, error) {
	data := make([]float64, 9)
	copy(data, h[:])
	m := mat.NewDense(3, 3, data)

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, scanerr.NewDegenerateHomographyError("homography", "matrix is not invertible", err)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	return out.normalized(), nil
}

func (h Homography) normalized() Homography {
	s := h[8]
	if math.Abs(s) < 1e-12 {
		return h
	}
	for i := range h {
		h[i] /= s
	}
	return h
}

// Rectangle returns the canonical corners of a width x height pixel grid:
// (0,0), (width-1,0), (width-1,height-1), (0,height-1).
func Rectangle(width, height int) Quad {
	w := float64(width - 1)
	hh := float64(height - 1)
	return Quad{Pt(0, 0), Pt(w, 0), Pt(w, hh), Pt(0, hh)}
}

// DestinationSize returns the pixel size of the rectified document. Each
// side uses the longer of the two opposite edges so content is never
// compressed. Sizes count pixels, so an edge spanning d pixels between
// corner centres yields round(d)+1.
func DestinationSize(q Quad) (width, height int) {
	top := Distance(q.TL(), q.TR())
	bottom := Distance(q.BL(), q.BR())
	left := Distance(q.TL(), q.BL())
	right := Distance(q.TR(), q.BR())

	width = int(math.Round(math.Max(top, bottom))) + 1
	height = int(math.Round(math.Max(left, right))) + 1
	return width, height
}

// SolveHomography computes the projective transform that maps each src
// corner onto the matching dst corner.
//
// The eight unknowns (h33 fixed to 1) satisfy, for every correspondence
// (x,y) -> (u,v):
//
//	x*h11 + y*h12 + h13 - x*u*h31 - y*u*h32 = u
//	x*h21 + y*h22 + h23 - x*v*h31 - y*v*h32 = v
//
// The 8x8 system is solved by LU decomposition. A DegenerateHomography error
// is returned when either quadrilateral has coincident or collinear corners
// or the system is singular.
func SolveHomography(src, dst Quad) (Homography, error) {
	if err := checkNonDegenerate(src, "source"); err != nil {
		return Homography{}, err
	}
	if err := checkNonDegenerate(dst, "destination"); err != nil {
		return Homography{}, err
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, scanerr.NewDegenerateHomographyError("homography", "correspondence system is singular", err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		v := sol.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, scanerr.NewDegenerateHomographyError("homography", "solution is not finite", nil)
		}
		h[i] = v
	}
	h[8] = 1
	return h, nil
}

// Rectify sizes the destination rectangle for corners and solves the
// transform onto it.
func Rectify(corners Quad) (h Homography, width, height int, err error) {
	width, height = DestinationSize(corners)
	if width < 2 || height < 2 {
		return Homography{}, 0, 0, scanerr.NewDegenerateHomographyError("homography",
			fmt.Sprintf("destination %dx%d has no area", width, height), nil)
	}
	h, err = SolveHomography(corners, Rectangle(width, height))
	if err != nil {
		return Homography{}, 0, 0, err
	}
	return h, width, height, nil
}

// checkNonDegenerate rejects quads where any three corners are collinear
// (which covers coincident corners). The tolerance scales with the square
// of the quad's extent so it is independent of image resolution.
func checkNonDegenerate(q Quad, which string) error {
	var extent float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			extent = math.Max(extent, Distance(q[i], q[j]))
		}
	}
	if extent < 1e-9 {
		return scanerr.NewDegenerateHomographyError("homography", which+" corners coincide", nil)
	}

	tol := 1e-6 * extent * extent
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(Cross(q[i], q[j], q[k])) <= tol {
					return scanerr.NewDegenerateHomographyError("homography",
						fmt.Sprintf("%s corners %d, %d and %d are collinear", which, i, j, k), nil)
				}
			}
		}
	}
	return nil
}
