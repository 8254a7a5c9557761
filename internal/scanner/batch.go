package scanner

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/logger"
)

// Item is one image of a batch. Load is called on a worker goroutine, so
// decoding runs in parallel with other items.
type Item struct {
	Name string
	Load func() (*imaging.Raster, error)
}

// Outcome is the result of scanning one Item.
type Outcome struct {
	Name   string  `json:"name"`
	Status Status  `json:"status"`
	Result *Result `json:"-"`
	Err    error   `json:"-"`
}

// Summary counts outcomes by status.
type Summary struct {
	Total    int `json:"total"`
	Detected int `json:"detected"`
	Degraded int `json:"degraded"`
	Failed   int `json:"failed"`
}

// ScanBatch scans every item with a bounded pool of workers and returns one
// Outcome per item, in input order. A failing item never stops the others;
// its Outcome carries the error and StatusFailed. Items not yet started when
// ctx ends fail with a canceled error.
func (s *Scanner) ScanBatch(ctx context.Context, items []Item) []Outcome {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	workers := s.workers
	if workers > len(items) {
		workers = len(items)
	}
	pool := newWorkerPool(workers)
	pool.Start()
	defer pool.Close()

	for i := range items {
		pool.Submit(func() {
			outcomes[i] = s.scanItem(ctx, items[i])
		})
	}
	pool.Wait()

	sum := Summarize(outcomes)
	logger.WithFields(logrus.Fields{
		"total":    sum.Total,
		"detected": sum.Detected,
		"degraded": sum.Degraded,
		"failed":   sum.Failed,
	}).Info("batch complete")
	return outcomes
}

func (s *Scanner) scanItem(ctx context.Context, item Item) Outcome {
	out := Outcome{Name: item.Name, Status: StatusFailed}

	if err := checkContext(ctx, "load"); err != nil {
		out.Err = err
		return out
	}
	src, err := item.Load()
	if err != nil {
		out.Err = err
		logger.WithError(err).WithField("item", item.Name).Warn("batch item could not be loaded")
		return out
	}

	res, err := s.Scan(ctx, src)
	if err != nil {
		out.Err = err
		logger.WithError(err).WithField("item", item.Name).Warn("batch item failed")
		return out
	}
	out.Result = res
	out.Status = res.Status
	return out
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	sum := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusDetected:
			sum.Detected++
		case StatusDegraded:
			sum.Degraded++
		default:
			sum.Failed++
		}
	}
	return sum
}
