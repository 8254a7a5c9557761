// Package config holds the scanner's tunable parameters.
//
// Pipeline is a plain value: it is copied into each scan and never mutated
// while a scan runs, so one Pipeline may be shared by any number of
// concurrent scans.
package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// EnhanceMode selects how the warped document is post-processed.
type EnhanceMode string

const (
	// EnhanceAdaptive binarizes with a Gaussian adaptive threshold.
	EnhanceAdaptive EnhanceMode = "adaptive"
	// EnhanceSharpen applies a 3x3 sharpening kernel to the luminance.
	EnhanceSharpen EnhanceMode = "sharpen"
	// EnhanceNone returns the luminance of the warped image.
	EnhanceNone EnhanceMode = "none"
)

// ParseEnhanceMode converts a user-supplied name to an EnhanceMode.
// An empty string selects EnhanceAdaptive.
func ParseEnhanceMode(s string) (EnhanceMode, error) {
	switch EnhanceMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EnhanceAdaptive:
		return EnhanceAdaptive, nil
	case EnhanceSharpen:
		return EnhanceSharpen, nil
	case EnhanceNone:
		return EnhanceNone, nil
	}
	return "", scanerr.NewInvalidConfigError(fmt.Sprintf("unknown enhance mode %q (want adaptive, sharpen or none)", s))
}

// Pipeline contains every parameter of the document scanning pipeline.
type Pipeline struct {
	// MaxDimension caps the longer image side before processing.
	MaxDimension int `json:"max_dimension"`

	// BlurKernel is the odd Gaussian kernel size used before edge detection.
	BlurKernel int `json:"blur_kernel"`

	// CannyLow and CannyHigh are the hysteresis thresholds on gradient magnitude.
	CannyLow  float64 `json:"canny_low"`
	CannyHigh float64 `json:"canny_high"`

	// DilateKernel is the side of the square structuring element.
	DilateKernel     int `json:"dilate_kernel"`
	DilateIterations int `json:"dilate_iterations"`

	// CandidateDepth is how many of the largest contours are examined.
	CandidateDepth int `json:"candidate_depth"`

	// MinAreaFraction is the minimum quadrilateral area as a fraction of the image.
	MinAreaFraction float64 `json:"min_area_fraction"`

	// ApproxEpsilon is the polygon tolerance as a fraction of contour perimeter.
	ApproxEpsilon float64 `json:"approx_epsilon"`

	// BlockSize and ThresholdC parameterize the adaptive threshold.
	BlockSize  int     `json:"block_size"`
	ThresholdC float64 `json:"threshold_c"`

	// BorderValue fills warped pixels that map outside the source.
	BorderValue uint8 `json:"border_value"`

	EnhanceMode EnhanceMode `json:"enhance_mode"`
}

// DefaultPipeline returns the stock parameters.
func DefaultPipeline() Pipeline {
	return Pipeline{
		MaxDimension:     1000,
		BlurKernel:       5,
		CannyLow:         50,
		CannyHigh:        150,
		DilateKernel:     5,
		DilateIterations: 1,
		CandidateDepth:   10,
		MinAreaFraction:  0.10,
		ApproxEpsilon:    0.02,
		BlockSize:        11,
		ThresholdC:       2,
		BorderValue:      0,
		EnhanceMode:      EnhanceAdaptive,
	}
}

// Validate reports the first invalid parameter as an invalid_config error.
func (p Pipeline) Validate() error {
	switch {
	case p.MaxDimension < 1:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("max dimension must be >= 1 (got %d)", p.MaxDimension))
	case p.BlurKernel < 1 || p.BlurKernel%2 == 0:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("blur kernel must be odd and >= 1 (got %d)", p.BlurKernel))
	case !finite(p.CannyLow, p.CannyHigh, p.MinAreaFraction, p.ApproxEpsilon, p.ThresholdC):
		return scanerr.NewInvalidConfigError("thresholds, area fraction and epsilon must be finite numbers")
	case p.CannyLow < 0 || p.CannyHigh < 0:
		return scanerr.NewInvalidConfigError("canny thresholds must be >= 0")
	case p.CannyLow > p.CannyHigh:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("canny low (%g) must not exceed canny high (%g)", p.CannyLow, p.CannyHigh))
	case p.DilateKernel < 1:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("dilate kernel must be >= 1 (got %d)", p.DilateKernel))
	case p.DilateIterations < 0:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("dilate iterations must be >= 0 (got %d)", p.DilateIterations))
	case p.CandidateDepth < 1:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("candidate depth must be >= 1 (got %d)", p.CandidateDepth))
	case p.MinAreaFraction < 0 || p.MinAreaFraction >= 1:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("min area fraction must be in [0, 1) (got %g)", p.MinAreaFraction))
	case p.ApproxEpsilon <= 0 || p.ApproxEpsilon >= 1:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("approx epsilon must be in (0, 1) (got %g)", p.ApproxEpsilon))
	case p.BlockSize < 3 || p.BlockSize%2 == 0:
		return scanerr.NewInvalidConfigError(fmt.Sprintf("block size must be odd and >= 3 (got %d)", p.BlockSize))
	}
	if _, err := ParseEnhanceMode(string(p.EnhanceMode)); err != nil {
		return err
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Service is the process-level configuration of the MCP server.
type Service struct {
	LogLevel string
	DBPath   string
	Workers  int

	// CacheEntries bounds how many decoded photos the server keeps.
	CacheEntries int

	Pipeline Pipeline
}

// DefaultService returns a Service with default pipeline parameters.
func DefaultService() Service {
	return Service{
		LogLevel: "info",
		Workers:      runtime.GOMAXPROCS(0),
		CacheEntries: 16,
		Pipeline:     DefaultPipeline(),
	}
}

// Validate checks the service settings and the embedded pipeline.
func (s Service) Validate() error {
	if s.Workers < 1 {
		return scanerr.NewInvalidConfigError(fmt.Sprintf("workers must be >= 1 (got %d)", s.Workers))
	}
	if s.CacheEntries < 1 {
		return scanerr.NewInvalidConfigError(fmt.Sprintf("cache entries must be >= 1 (got %d)", s.CacheEntries))
	}
	return s.Pipeline.Validate()
}
