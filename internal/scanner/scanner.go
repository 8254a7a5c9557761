// Package scanner runs the document scanning pipeline end to end.
//
// A Scanner holds an immutable config.Pipeline and applies, in order:
// preprocessing, edge detection, contour tracing, quadrilateral selection,
// corner ordering, homography solving, perspective warp and enhancement.
// When no document outline qualifies, the whole frame is used and the result
// is marked degraded rather than failing.
//
// Scanners hold no mutable state and are safe for concurrent use.
package scanner

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/detection"
	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/logger"
)

// Status reports how a document outline was obtained.
type Status string

const (
	// StatusDetected means a qualifying quadrilateral was found.
	StatusDetected Status = "detected"
	// StatusDegraded means the image frame was used as the outline.
	StatusDegraded Status = "degraded"
	// StatusFailed is only used for batch outcomes that produced no result.
	StatusFailed Status = "failed"
)

// Detection is the output of the locating half of the pipeline.
type Detection struct {
	// Corners in top-left, top-right, bottom-right, bottom-left order, in
	// the coordinates of Resized.
	Corners geometry.Quad `json:"corners"`

	Status Status `json:"status"`

	// Scale is Resized's size relative to the input.
	Scale float64 `json:"scale"`

	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`

	// ContourCount is the number of borders traced in the edge map.
	ContourCount int `json:"contour_count"`

	// Candidates lists the contours examined during selection.
	Candidates []detection.Candidate `json:"candidates"`

	Resized *imaging.Raster `json:"-"`
	EdgeMap *imaging.Raster `json:"-"`
}

// Result is a complete scan.
type Result struct {
	Detection

	// Homography maps Resized coordinates onto the Warped raster.
	Homography geometry.Homography `json:"homography"`

	// Width and Height of the rectified document.
	Width  int `json:"width"`
	Height int `json:"height"`

	Warped   *imaging.Raster `json:"-"`
	Enhanced *imaging.Raster `json:"-"`

	Duration time.Duration `json:"duration"`
}

// Scanner runs the pipeline with a fixed configuration.
type Scanner struct {
	cfg     config.Pipeline
	workers int
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithWorkers bounds the number of images ScanBatch processes at once.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// New validates cfg and returns a Scanner using it.
func New(cfg config.Pipeline, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scanner{cfg: cfg, workers: config.DefaultService().Workers}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns a copy of the scanner's configuration.
func (s *Scanner) Config() config.Pipeline {
	return s.cfg
}

// WithEnhanceMode returns a Scanner identical to s but enhancing with mode.
func (s *Scanner) WithEnhanceMode(mode config.EnhanceMode) (*Scanner, error) {
	cfg := s.cfg
	cfg.EnhanceMode = mode
	return New(cfg, WithWorkers(s.workers))
}

// WithMaxDimension returns a Scanner identical to s but with a different
// resize cap.
func (s *Scanner) WithMaxDimension(dimension int) (*Scanner, error) {
	cfg := s.cfg
	cfg.MaxDimension = dimension
	return New(cfg, WithWorkers(s.workers))
}

// EdgeMap runs preprocessing and edge detection only.
func (s *Scanner) EdgeMap(ctx context.Context, src *imaging.Raster) (*imaging.Raster, error) {
	pre, err := s.preprocess(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.edges(ctx, pre)
}

// Detect locates the document without rectifying it.
func (s *Scanner) Detect(ctx context.Context, src *imaging.Raster) (*Detection, error) {
	pre, err := s.preprocess(ctx, src)
	if err != nil {
		return nil, err
	}
	edges, err := s.edges(ctx, pre)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "contours"); err != nil {
		return nil, err
	}
	contours, err := detection.FindContours(edges)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "select"); err != nil {
		return nil, err
	}
	sel := detection.SelectQuadrilateral(contours, pre.Color.Width, pre.Color.Height, detection.SelectOptions{
		Depth:           s.cfg.CandidateDepth,
		MinAreaFraction: s.cfg.MinAreaFraction,
		Epsilon:         s.cfg.ApproxEpsilon,
	})

	d := &Detection{
		Corners:      detection.OrderCorners(sel.Points),
		Status:       StatusDetected,
		Scale:        pre.Scale,
		SourceWidth:  src.Width,
		SourceHeight: src.Height,
		ContourCount: len(contours),
		Candidates:   sel.Candidates,
		Resized:      pre.Color,
		EdgeMap:      edges,
	}

	log := logger.WithFields(logrus.Fields{
		"stage":      "select",
		"contours":   len(contours),
		"candidates": len(sel.Candidates),
	})
	if !sel.Found {
		d.Status = StatusDegraded
		log.WithError(sel.Err()).Warn("no document outline found, using full frame")
	} else {
		log.WithField("corners", d.Corners).Debug("document outline selected")
	}
	return d, nil
}

// Scan runs the full pipeline on src.
//
// Errors are ScanErrors: invalid_image for malformed input,
// degenerate_homography when the corners cannot be rectified and canceled
// when ctx ends between stages. A missing document outline is not an error;
// the result's Status is StatusDegraded instead.
func (s *Scanner) Scan(ctx context.Context, src *imaging.Raster) (*Result, error) {
	start := time.Now()

	d, err := s.Detect(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "homography"); err != nil {
		return nil, err
	}
	h, width, height, err := geometry.Rectify(d.Corners)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "warp"); err != nil {
		return nil, err
	}
	warped, err := imaging.WarpPerspective(d.Resized, h, width, height, s.cfg.BorderValue)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "enhance"); err != nil {
		return nil, err
	}
	enhanced, err := imaging.Enhance(warped, s.cfg.EnhanceMode, s.cfg.BlockSize, s.cfg.ThresholdC)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Detection:  *d,
		Homography: h,
		Width:      width,
		Height:     height,
		Warped:     warped,
		Enhanced:   enhanced,
		Duration:   time.Since(start),
	}
	logger.WithFields(logrus.Fields{
		"status":   res.Status,
		"width":    width,
		"height":   height,
		"enhance":  s.cfg.EnhanceMode,
		"duration": res.Duration.String(),
	}).Debug("scan complete")
	return res, nil
}

func (s *Scanner) preprocess(ctx context.Context, src *imaging.Raster) (*imaging.Preprocessed, error) {
	if err := checkContext(ctx, "preprocess"); err != nil {
		return nil, err
	}
	pre, err := imaging.Preprocess(src, s.cfg.MaxDimension, s.cfg.BlurKernel)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"stage":  "preprocess",
		"width":  pre.Color.Width,
		"height": pre.Color.Height,
		"scale":  pre.Scale,
	}).Debug("image preprocessed")
	return pre, nil
}

func (s *Scanner) edges(ctx context.Context, pre *imaging.Preprocessed) (*imaging.Raster, error) {
	if err := checkContext(ctx, "edges"); err != nil {
		return nil, err
	}
	return imaging.BuildEdgeMap(pre.Gray, imaging.EdgeOptions{
		Low:              s.cfg.CannyLow,
		High:             s.cfg.CannyHigh,
		DilateKernel:     s.cfg.DilateKernel,
		DilateIterations: s.cfg.DilateIterations,
	})
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return scanerr.NewCanceledError(stage, err)
	}
	return nil
}
