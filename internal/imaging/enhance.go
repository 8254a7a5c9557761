package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/convolution"

	"github.com/ironsheep/docscan-mcp/internal/config"
	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Enhance post-processes a warped document for a scan-like look.
//
// Modes:
//   - config.EnhanceAdaptive: AdaptiveThreshold(luminance, blockSize, c),
//     output is strictly binary (0 or 255)
//   - config.EnhanceSharpen: Sharpen(luminance)
//   - config.EnhanceNone: luminance only
//
// The result is always single-channel.
func Enhance(warped *Raster, mode config.EnhanceMode, blockSize int, c float64) (*Raster, error) {
	if err := warped.Validate(); err != nil {
		return nil, err
	}
	gray := warped.Luminance()

	switch mode {
	case config.EnhanceAdaptive, "":
		return AdaptiveThreshold(gray, blockSize, c)
	case config.EnhanceSharpen:
		return Sharpen(gray), nil
	case config.EnhanceNone:
		return gray, nil
	}
	return nil, scanerr.NewInvalidConfigError(fmt.Sprintf("unknown enhance mode %q", mode))
}

// AdaptiveThreshold binarizes a single-channel raster against a
// Gaussian-weighted local mean.
//
// For each pixel the mean of its blockSize x blockSize neighbourhood is
// computed with Gaussian weights (replicated borders) and rounded to the
// 8-bit scale; the pixel becomes 255 when its value exceeds mean - c and 0
// otherwise. With the usual positive c, flat paper turns white and ink
// darker than its surroundings turns black.
func AdaptiveThreshold(gray *Raster, blockSize int, c float64) (*Raster, error) {
	if gray.Channels != 1 {
		return nil, scanerr.NewInvalidImageError("enhance", fmt.Sprintf("adaptive threshold needs 1 channel, got %d", gray.Channels), nil)
	}
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, scanerr.NewInvalidConfigError(fmt.Sprintf("block size must be odd and >= 3 (got %d)", blockSize))
	}

	mean := convolveSeparable(toFloat(gray), gray.Width, gray.Height, gaussianKernel(blockSize))
	out := NewRaster(gray.Width, gray.Height, 1)
	for i, v := range gray.Pix {
		if float64(v) > float64(clampByte(mean[i]))-c {
			out.Pix[i] = 255
		}
	}
	return out, nil
}

// Sharpen applies the 3x3 kernel
//
//	-1 -1 -1
//	-1  9 -1
//	-1 -1 -1
//
// to a single-channel raster. Results are clamped to 0-255 and borders are
// extended.
func Sharpen(gray *Raster) *Raster {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	})

	sharpened := convolution.Convolve(gray.ToImage(), k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})

	out := NewRaster(gray.Width, gray.Height, 1)
	bounds := sharpened.Bounds()
	for y := 0; y < gray.Height; y++ {
		for x := 0; x < gray.Width; x++ {
			out.Pix[y*gray.Width+x] = sharpened.Pix[sharpened.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)]
		}
	}
	return out
}
