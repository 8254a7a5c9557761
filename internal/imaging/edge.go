package imaging

import (
	"fmt"
	"math"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// EdgeOptions parameterizes BuildEdgeMap.
type EdgeOptions struct {
	// Low and High are the hysteresis thresholds on Sobel gradient magnitude
	// (0-255 intensity scale). Typical values: 50 and 150.
	Low  float64
	High float64

	// DilateKernel is the side of the square structuring element used to
	// close gaps after edge detection. 1 disables dilation.
	DilateKernel int

	// DilateIterations is the number of dilation passes.
	DilateIterations int
}

// BuildEdgeMap produces a binary edge mask (0 or 255) from a smoothed
// single-channel image.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: thin ridges to 1-pixel width by keeping only
//     local maxima along the gradient direction
//
//  3. Hysteresis thresholding:
//     - Pixels above High are strong edges (always kept)
//     - Pixels above Low are kept only when 8-connected to a strong edge,
//     directly or through other kept pixels
//
//  4. Dilation with a square structuring element so document borders form
//     closed loops
func BuildEdgeMap(gray *Raster, opts EdgeOptions) (*Raster, error) {
	if err := gray.Validate(); err != nil {
		return nil, err
	}
	if gray.Channels != 1 {
		return nil, scanerr.NewInvalidImageError("edges", fmt.Sprintf("edge detection needs 1 channel, got %d", gray.Channels), nil)
	}
	if opts.Low > opts.High {
		return nil, scanerr.NewInvalidConfigError(fmt.Sprintf("low threshold %g exceeds high threshold %g", opts.Low, opts.High))
	}

	edges := Canny(gray, opts.Low, opts.High)
	if opts.DilateKernel > 1 && opts.DilateIterations > 0 {
		edges = Dilate(edges, opts.DilateKernel, opts.DilateIterations)
	}
	return edges, nil
}

// Canny runs gradient, non-maximum suppression and hysteresis on a
// single-channel raster and returns the thin edge mask.
func Canny(gray *Raster, low, high float64) *Raster {
	width, height := gray.Width, gray.Height
	magnitude, direction := sobel(gray)
	suppressed := suppressNonMaxima(magnitude, direction, width, height)
	return hysteresis(suppressed, width, height, low, high)
}

func sobel(gray *Raster) (magnitude, direction []float64) {
	width, height := gray.Width, gray.Height
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([]float64, width*height)
	direction = make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := float64(gray.Pix[py*width+px])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppressNonMaxima keeps a pixel only when it is a maximum along its
// gradient direction, quantized to 0, 45, 90 or 135 degrees. Y grows
// downward, so a 45 degree gradient points toward (x+1, y+1). The
// asymmetric comparison (> one side, >= the other) keeps exactly one pixel
// of a flat-topped ridge. Border pixels are never edges.
func suppressNonMaxima(magnitude, direction []float64, width, height int) []float64 {
	out := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			angle := direction[i]
			if angle < 0 {
				angle += math.Pi
			}

			var n1, n2 float64
			switch {
			case angle < math.Pi/8 || angle >= 7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case angle < 3*math.Pi/8:
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case angle < 5*math.Pi/8:
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				out[i] = mag
			}
		}
	}
	return out
}

// hysteresis grows edges from strong pixels through weak ones. It uses an
// explicit stack rather than recursion so long edges cannot overflow.
func hysteresis(suppressed []float64, width, height int, low, high float64) *Raster {
	out := NewRaster(width, height, 1)
	stack := make([]int, 0, 1024)

	for i, v := range suppressed {
		if v > high {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width

		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
					continue
				}
				j := ny*width + nx
				if out.Pix[j] == 0 && suppressed[j] > low {
					out.Pix[j] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// Dilate grows the foreground of a binary mask with a size x size square
// structuring element, iterations times. A square element is separable, so
// each pass is a horizontal then a vertical running maximum. For even sizes
// the anchor sits at size/2 like odd ones.
func Dilate(mask *Raster, size, iterations int) *Raster {
	width, height := mask.Width, mask.Height
	before := size / 2
	after := size - 1 - before

	cur := mask.Clone()
	tmp := NewRaster(width, height, 1)
	for it := 0; it < iterations; it++ {
		for y := 0; y < height; y++ {
			row := cur.Pix[y*width : (y+1)*width]
			for x := 0; x < width; x++ {
				var m uint8
				for k := x - before; k <= x+after; k++ {
					if k >= 0 && k < width && row[k] > m {
						m = row[k]
					}
				}
				tmp.Pix[y*width+x] = m
			}
		}

		next := NewRaster(width, height, 1)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				var m uint8
				for k := y - before; k <= y+after; k++ {
					if k >= 0 && k < height && tmp.Pix[k*width+x] > m {
						m = tmp.Pix[k*width+x]
					}
				}
				next.Pix[y*width+x] = m
			}
		}
		cur = next
	}
	return cur
}
