package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Raster is an 8-bit interleaved pixel buffer.
//
// Pixels are stored row-major; the sample for channel c of pixel (x, y) is
// Pix[(y*Width+x)*Channels+c]. Channel order is R, G, B (and A when Channels
// is 4). A single-channel Raster holds luminance or a binary mask.
//
// Pipeline stages never modify a Raster they receive; each returns a new one.
type Raster struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Channels int     `json:"channels"`
	Pix      []uint8 `json:"-"`
}

// NewRaster allocates a zeroed Raster.
func NewRaster(width, height, channels int) *Raster {
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Validate reports an InvalidImage error for empty, zero-sized or
// inconsistent buffers.
func (r *Raster) Validate() error {
	if r == nil {
		return scanerr.NewInvalidImageError("validate", "image is nil", nil)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return scanerr.NewInvalidImageError("validate", fmt.Sprintf("image has zero dimension (%dx%d)", r.Width, r.Height), nil)
	}
	switch r.Channels {
	case 1, 3, 4:
	default:
		return scanerr.NewInvalidImageError("validate", fmt.Sprintf("unsupported channel count %d", r.Channels), nil)
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return scanerr.NewInvalidImageError("validate",
			fmt.Sprintf("buffer holds %d bytes, want %d", len(r.Pix), r.Width*r.Height*r.Channels), nil)
	}
	return nil
}

// At returns channel c of pixel (x, y). No bounds checking is performed.
func (r *Raster) At(x, y, c int) uint8 {
	return r.Pix[(y*r.Width+x)*r.Channels+c]
}

// Area returns Width*Height.
func (r *Raster) Area() int {
	return r.Width * r.Height
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: make([]uint8, len(r.Pix))}
	copy(out.Pix, r.Pix)
	return out
}

// Equal reports whether two rasters have the same shape and samples.
func (r *Raster) Equal(o *Raster) bool {
	if r.Width != o.Width || r.Height != o.Height || r.Channels != o.Channels || len(r.Pix) != len(o.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Luminance returns a single-channel copy using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B). Alpha is ignored. A single-channel input
// is copied unchanged.
func (r *Raster) Luminance() *Raster {
	if r.Channels == 1 {
		return r.Clone()
	}
	out := NewRaster(r.Width, r.Height, 1)
	for i := 0; i < r.Width*r.Height; i++ {
		p := r.Pix[i*r.Channels:]
		out.Pix[i] = clampByte(0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2]))
	}
	return out
}

// FromImage converts any image.Image to a Raster. Gray images become
// single-channel; everything else becomes 3-channel RGB with alpha
// discarded (colors are un-premultiplied first).
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		out := NewRaster(width, height, 1)
		for y := 0; y < height; y++ {
			off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(out.Pix[y*width:(y+1)*width], g.Pix[off:off+width])
		}
		return out
	}

	out := NewRaster(width, height, 3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			i += 3
		}
	}
	return out
}

// fromNRGBA converts an NRGBA image back to a Raster with the given
// channel count. Single-channel output takes the red sample, which is exact
// for images that were gray before resampling.
func fromNRGBA(img *image.NRGBA, channels int) *Raster {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := NewRaster(width, height, channels)
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			src := row[x*4 : x*4+4]
			dst := out.Pix[(y*width+x)*channels:]
			switch channels {
			case 1:
				dst[0] = src[0]
			case 3:
				dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			case 4:
				dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], src[3]
			}
		}
	}
	return out
}

// ToImage returns a standard library image sharing no memory with r.
// Single-channel rasters become *image.Gray, others *image.NRGBA.
func (r *Raster) ToImage() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		copy(g.Pix, r.Pix)
		return g
	}

	img := image.NewNRGBA(rect)
	for i := 0; i < r.Width*r.Height; i++ {
		src := r.Pix[i*r.Channels:]
		dst := img.Pix[i*4:]
		dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		dst[3] = 255
		if r.Channels == 4 {
			dst[3] = src[3]
		}
	}
	return img
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
