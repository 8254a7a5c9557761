package imaging

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
)

// boundsEpsilon absorbs floating-point noise when a destination pixel maps
// exactly onto the source border.
const boundsEpsilon = 1e-6

// WarpPerspective resamples src into a width x height raster through the
// projective transform h (which maps source coordinates to destination
// coordinates).
//
// Every destination pixel is mapped back through the inverse of h and
// re-normalized by the homogeneous scale. The source is sampled there with
// bilinear interpolation over the 4 nearest pixels. Destination pixels whose
// source position falls outside the source image receive border in every
// channel.
//
// Rows are distributed over GOMAXPROCS goroutines; each output pixel is
// written by exactly one goroutine, so the result is deterministic.
func WarpPerspective(src *Raster, h geometry.Homography, width, height int, border uint8) (*Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, scanerr.NewInternalError("warp", fmt.Sprintf("invalid destination size %dx%d", width, height), nil)
	}

	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	out := NewRaster(width, height, src.Channels)
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(first int) {
			defer wg.Done()
			for y := first; y < height; y += workers {
				warpRow(src, out, inv, y, border)
			}
		}(w)
	}
	wg.Wait()

	return out, nil
}

func warpRow(src, out *Raster, inv geometry.Homography, y int, border uint8) {
	ch := src.Channels
	maxX := float64(src.Width - 1)
	maxY := float64(src.Height - 1)

	for x := 0; x < out.Width; x++ {
		dst := out.Pix[(y*out.Width+x)*ch : (y*out.Width+x+1)*ch]

		p, ok := inv.Apply(geometry.Pt(float64(x), float64(y)))
		if !ok || p.X < -boundsEpsilon || p.Y < -boundsEpsilon || p.X > maxX+boundsEpsilon || p.Y > maxY+boundsEpsilon {
			for c := range dst {
				dst[c] = border
			}
			continue
		}

		sampleBilinear(src, math.Min(math.Max(p.X, 0), maxX), math.Min(math.Max(p.Y, 0), maxY), dst)
	}
}

// sampleBilinear writes the interpolated value at (sx, sy) into dst.
// The coordinate must lie inside the source.
func sampleBilinear(src *Raster, sx, sy float64, dst []uint8) {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	x1 := x0 + 1
	if x1 >= src.Width {
		x1 = src.Width - 1
	}
	y1 := y0 + 1
	if y1 >= src.Height {
		y1 = src.Height - 1
	}
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	ch := src.Channels
	i00 := (y0*src.Width + x0) * ch
	i10 := (y0*src.Width + x1) * ch
	i01 := (y1*src.Width + x0) * ch
	i11 := (y1*src.Width + x1) * ch

	for c := 0; c < ch; c++ {
		top := float64(src.Pix[i00+c])*(1-fx) + float64(src.Pix[i10+c])*fx
		bottom := float64(src.Pix[i01+c])*(1-fx) + float64(src.Pix[i11+c])*fx
		dst[c] = clampByte(top*(1-fy) + bottom*fy)
	}
}
