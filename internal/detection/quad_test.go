package detection

import (
	"errors"
	"testing"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

var defaultSelect = SelectOptions{Depth: 10, MinAreaFraction: 0.10, Epsilon: 0.02}

func rectContour(x1, y1, x2, y2 int) Contour {
	return Contour{{x1, y1}, {x1, y2}, {x2, y2}, {x2, y1}}
}

func TestSelectQuadrilateral_PicksLargestQualifying(t *testing.T) {
	small := rectContour(10, 10, 110, 110) // 10000 px²
	large := rectContour(50, 50, 450, 350) // 120000 px²
	sel := SelectQuadrilateral([]Contour{small, large}, 500, 400, defaultSelect)

	if !sel.Found {
		t.Fatal("expected a document to be found")
	}
	if sel.Err() != nil {
		t.Errorf("Err: got %v, want nil", sel.Err())
	}
	want := [4]geometry.Point{{X: 50, Y: 50}, {X: 50, Y: 350}, {X: 450, Y: 350}, {X: 450, Y: 50}}
	if sel.Points != want {
		t.Errorf("points: got %v, want %v", sel.Points, want)
	}
	if len(sel.Candidates) != 1 || sel.Candidates[0].Index != 1 || !sel.Candidates[0].Accepted {
		t.Errorf("candidates: got %+v", sel.Candidates)
	}
}

func TestSelectQuadrilateral_GreedyNotBest(t *testing.T) {
	// A large triangle outranks the quadrilateral, is rejected, and the
	// first qualifying quadrilateral wins even though a later one exists.
	triangle := Contour{{0, 0}, {490, 0}, {0, 390}}
	first := rectContour(20, 20, 300, 300)
	second := rectContour(30, 30, 290, 290)

	sel := SelectQuadrilateral([]Contour{second, triangle, first}, 500, 400, defaultSelect)
	if !sel.Found {
		t.Fatal("expected a document to be found")
	}
	if len(sel.Candidates) != 2 {
		t.Fatalf("expected 2 examined candidates, got %d", len(sel.Candidates))
	}
	if sel.Candidates[0].Index != 1 || sel.Candidates[0].Accepted || sel.Candidates[0].Vertices != 3 {
		t.Errorf("first candidate should be the rejected triangle: %+v", sel.Candidates[0])
	}
	if sel.Candidates[1].Index != 2 || !sel.Candidates[1].Accepted {
		t.Errorf("second candidate should be the accepted quad: %+v", sel.Candidates[1])
	}
}

func TestSelectQuadrilateral_EqualAreasKeepTracingOrder(t *testing.T) {
	a := rectContour(10, 10, 210, 210)
	b := rectContour(250, 150, 450, 350)

	sel := SelectQuadrilateral([]Contour{a, b}, 500, 400, defaultSelect)
	if !sel.Found || sel.Candidates[0].Index != 0 {
		t.Errorf("expected the first traced contour to win a tie: %+v", sel.Candidates)
	}
}

func TestSelectQuadrilateral_Fallback(t *testing.T) {
	tests := []struct {
		name     string
		contours []Contour
		opts     SelectOptions
	}{
		{"no contours", nil, defaultSelect},
		{"quad too small", []Contour{rectContour(10, 10, 60, 60)}, defaultSelect},
		{"only triangles", []Contour{{{0, 0}, {400, 0}, {0, 300}}}, defaultSelect},
		{
			"quad beyond depth",
			[]Contour{{{0, 0}, {490, 0}, {0, 390}}, rectContour(20, 20, 300, 300)},
			SelectOptions{Depth: 1, MinAreaFraction: 0.10, Epsilon: 0.02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := SelectQuadrilateral(tt.contours, 500, 400, tt.opts)
			if sel.Found {
				t.Fatal("expected fallback")
			}
			want := [4]geometry.Point{{X: 0, Y: 0}, {X: 499, Y: 0}, {X: 499, Y: 399}, {X: 0, Y: 399}}
			if sel.Points != want {
				t.Errorf("points: got %v, want %v", sel.Points, want)
			}
			err := sel.Err()
			if !errors.Is(err, scanerr.ErrNoQualifyingQuadrilateral) {
				t.Errorf("Err: got %v, want no_qualifying_quadrilateral", err)
			}
		})
	}
}

func TestSelectQuadrilateral_AreaThresholdIsStrict(t *testing.T) {
	// A 10x100 quad in a 100x100 image covers exactly 10%.
	exact := rectContour(0, 0, 10, 100) // 1000 px² == 0.10 * 10000
	sel := SelectQuadrilateral([]Contour{exact}, 100, 100, defaultSelect)
	if sel.Found {
		t.Error("a quadrilateral of exactly the minimum area must not qualify")
	}
}

func TestSelectQuadrilateral_NoisyContour(t *testing.T) {
	// A densely sampled, slightly jittered rectangle simplifies to 4 vertices.
	c := sampledRect(300, 200, 5, 1)
	sel := SelectQuadrilateral([]Contour{c}, 400, 300, defaultSelect)
	if !sel.Found {
		t.Fatalf("expected the noisy rectangle to qualify: %+v", sel.Candidates)
	}
	if sel.Candidates[0].Vertices != 4 {
		t.Errorf("vertices: got %d, want 4", sel.Candidates[0].Vertices)
	}
}
