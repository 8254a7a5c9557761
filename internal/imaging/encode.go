package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// ImageResult is an image encoded as base64 PNG for transport.
type ImageResult struct {
	// Width of the image in pixels.
	Width int `json:"width"`

	// Height of the image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the PNG-encoded image, base64 (standard alphabet).
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG ImageResult.
func EncodePNG(img image.Image) (*ImageResult, error) {
	data, err := PNGBytes(img)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &ImageResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodeRaster encodes r as a base64 PNG ImageResult.
func EncodeRaster(r *Raster) (*ImageResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return EncodePNG(r.ToImage())
}

// PNGBytes encodes img as PNG.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
