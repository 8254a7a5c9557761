package config

import (
	"fmt"

	"github.com/peterbourgon/ff/v4"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Flags binds Service fields to an ff flag set. Call Service after ff.Parse.
type Flags struct {
	logLevel *string
	dbPath   *string
	workers  *int
	cache    *int

	maxDimension     *int
	blurKernel       *int
	cannyLow         *float64
	cannyHigh        *float64
	dilateKernel     *int
	dilateIterations *int
	candidateDepth   *int
	minAreaFraction  *float64
	approxEpsilon    *float64
	blockSize        *int
	thresholdC       *float64
	borderValue      *int
	enhanceMode      *string
}

// RegisterFlags declares every configurable setting on fs with its default.
// With ff.WithEnvVarPrefix("DOCSCAN") each flag is also read from the
// environment, e.g. --canny-low from DOCSCAN_CANNY_LOW.
func RegisterFlags(fs *ff.FlagSet) *Flags {
	d := DefaultService()
	p := d.Pipeline
	return &Flags{
		logLevel: fs.StringLong("log-level", d.LogLevel, "log level: debug, info, warn, error"),
		dbPath:   fs.StringLong("db", "", "scan history database path (empty disables history)"),
		workers:  fs.IntLong("workers", d.Workers, "concurrent scans for batch requests"),
		cache:    fs.IntLong("cache-entries", d.CacheEntries, "decoded photos kept in memory"),

		maxDimension:     fs.IntLong("max-dimension", p.MaxDimension, "cap on the longer image side before detection"),
		blurKernel:       fs.IntLong("blur-kernel", p.BlurKernel, "Gaussian kernel size (odd)"),
		cannyLow:         fs.Float64Long("canny-low", p.CannyLow, "hysteresis low threshold"),
		cannyHigh:        fs.Float64Long("canny-high", p.CannyHigh, "hysteresis high threshold"),
		dilateKernel:     fs.IntLong("dilate-kernel", p.DilateKernel, "square dilation element size"),
		dilateIterations: fs.IntLong("dilate-iterations", p.DilateIterations, "dilation passes"),
		candidateDepth:   fs.IntLong("candidates", p.CandidateDepth, "number of largest contours examined"),
		minAreaFraction:  fs.Float64Long("min-area", p.MinAreaFraction, "minimum document area as a fraction of the image"),
		approxEpsilon:    fs.Float64Long("approx-epsilon", p.ApproxEpsilon, "polygon tolerance as a fraction of perimeter"),
		blockSize:        fs.IntLong("block-size", p.BlockSize, "adaptive threshold neighbourhood (odd)"),
		thresholdC:       fs.Float64Long("threshold-c", p.ThresholdC, "constant subtracted from the local mean"),
		borderValue:      fs.IntLong("border-value", int(p.BorderValue), "fill value for pixels warped from outside the photo"),
		enhanceMode:      fs.StringLong("enhance", string(p.EnhanceMode), "enhancement: adaptive, sharpen or none"),
	}
}

// Service assembles and validates the parsed settings.
func (f *Flags) Service() (Service, error) {
	mode, err := ParseEnhanceMode(*f.enhanceMode)
	if err != nil {
		return Service{}, err
	}
	border := *f.borderValue
	if border < 0 || border > 255 {
		return Service{}, scanerr.NewInvalidConfigError(fmt.Sprintf("border value must be in [0, 255] (got %d)", border))
	}

	s := Service{
		LogLevel:     *f.logLevel,
		DBPath:       *f.dbPath,
		Workers:      *f.workers,
		CacheEntries: *f.cache,
		Pipeline: Pipeline{
			MaxDimension:     *f.maxDimension,
			BlurKernel:       *f.blurKernel,
			CannyLow:         *f.cannyLow,
			CannyHigh:        *f.cannyHigh,
			DilateKernel:     *f.dilateKernel,
			DilateIterations: *f.dilateIterations,
			CandidateDepth:   *f.candidateDepth,
			MinAreaFraction:  *f.minAreaFraction,
			ApproxEpsilon:    *f.approxEpsilon,
			BlockSize:        *f.blockSize,
			ThresholdC:       *f.thresholdC,
			BorderValue:      uint8(border),
			EnhanceMode:      mode,
		},
	}
	if err := s.Validate(); err != nil {
		return Service{}, err
	}
	return s, nil
}
