package imaging

import "math"

// gaussianKernel returns a normalized 1D Gaussian of odd length size.
//
// The standard deviation is derived from the size the same way common
// computer-vision toolkits do when none is given:
//
//	sigma = 0.3*((size-1)*0.5 - 1) + 0.8
//
// which gives sigma 1.1 for size 5 and sigma 2.0 for size 11.
func gaussianKernel(size int) []float64 {
	if size <= 1 {
		return []float64{1}
	}
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveSeparable applies kernel horizontally then vertically to a
// width x height float plane. Border pixels use clamped (replicated) edge
// values.
func convolveSeparable(src []float64, width, height int, kernel []float64) []float64 {
	half := len(kernel) / 2
	tmp := make([]float64, len(src))
	for y := 0; y < height; y++ {
		row := src[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += row[clamp(x+k-half, 0, width-1)] * w
			}
			tmp[y*width+x] = sum
		}
	}

	out := make([]float64, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += tmp[clamp(y+k-half, 0, height-1)*width+x] * w
			}
			out[y*width+x] = sum
		}
	}
	return out
}

// GaussianBlur smooths a single-channel raster with a size x size separable
// Gaussian kernel.
func GaussianBlur(gray *Raster, size int) *Raster {
	blurred := convolveSeparable(toFloat(gray), gray.Width, gray.Height, gaussianKernel(size))
	return fromFloat(blurred, gray.Width, gray.Height)
}

func toFloat(gray *Raster) []float64 {
	out := make([]float64, len(gray.Pix))
	for i, v := range gray.Pix {
		out[i] = float64(v)
	}
	return out
}

func fromFloat(plane []float64, width, height int) *Raster {
	out := NewRaster(width, height, 1)
	for i, v := range plane {
		out.Pix[i] = clampByte(v)
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
