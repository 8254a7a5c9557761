package imaging

import (
	"fmt"

	"github.com/disintegration/imaging"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Preprocessed is the output of Preprocess.
type Preprocessed struct {
	// Color is the (possibly downscaled) input with its original channels.
	// Later stages warp this raster.
	Color *Raster

	// Gray is the smoothed luminance of Color, the input to edge detection.
	Gray *Raster

	// Scale is Color's size relative to the input (1 when not resized).
	Scale float64
}

// Preprocess normalizes a photo for detection.
//
// Parameters:
//   - src: Decoded photo. Must pass Raster.Validate.
//   - maxDimension: Cap on the longer side. Larger photos are scaled down
//     uniformly with a box (area-averaging) filter.
//   - blurKernel: Odd Gaussian kernel size applied to the luminance.
//
// Returns an InvalidImage error for empty or malformed input.
func Preprocess(src *Raster, maxDimension, blurKernel int) (*Preprocessed, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if blurKernel < 1 || blurKernel%2 == 0 {
		return nil, scanerr.NewInvalidConfigError(fmt.Sprintf("blur kernel must be odd and >= 1 (got %d)", blurKernel))
	}

	resized, scale := ResizeToFit(src, maxDimension)

	return &Preprocessed{
		Color: resized,
		Gray:  GaussianBlur(resized.Luminance(), blurKernel),
		Scale: scale,
	}, nil
}

// ResizeToFit scales src down so its longer side is at most maxDimension,
// preserving aspect ratio. Rasters already within the cap are returned as a
// copy with scale 1.
func ResizeToFit(src *Raster, maxDimension int) (*Raster, float64) {
	longer := src.Width
	if src.Height > longer {
		longer = src.Height
	}
	if maxDimension <= 0 || longer <= maxDimension {
		return src.Clone(), 1
	}

	scale := float64(maxDimension) / float64(longer)
	newWidth := int(float64(src.Width) * scale)
	newHeight := int(float64(src.Height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	resized := imaging.Resize(src.ToImage(), newWidth, newHeight, imaging.Box)
	return fromNRGBA(resized, src.Channels), scale
}
