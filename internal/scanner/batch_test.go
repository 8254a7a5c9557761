package scanner

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironsheep/docscan-mcp/internal/config"
	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

func rasterItem(name string, r *imaging.Raster) Item {
	return Item{Name: name, Load: func() (*imaging.Raster, error) { return r, nil }}
}

var _ = Describe("ScanBatch", func() {
	var (
		s        *Scanner
		items    []Item
		outcomes []Outcome
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		s, err = New(config.DefaultPipeline(), WithWorkers(2))
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	JustBeforeEach(func() {
		outcomes = s.ScanBatch(ctx, items)
	})

	When("the batch mixes good and bad images", func() {
		var loadErr = errors.New("file vanished")

		BeforeEach(func() {
			items = []Item{
				rasterItem("receipt.png", documentPhoto(420, 360, skewedDocument)),
				rasterItem("wall.png", gradientPhoto(300, 200)),
				{Name: "missing.png", Load: func() (*imaging.Raster, error) { return nil, loadErr }},
				rasterItem("empty.png", &imaging.Raster{Channels: 3}),
			}
		})

		It("returns one outcome per item in input order", func() {
			Expect(outcomes).To(HaveLen(4))
			for i, o := range outcomes {
				Expect(o.Name).To(Equal(items[i].Name))
			}
		})

		It("reports the status of each item", func() {
			Expect(outcomes[0].Status).To(Equal(StatusDetected))
			Expect(outcomes[0].Result).NotTo(BeNil())
			Expect(outcomes[0].Err).NotTo(HaveOccurred())

			Expect(outcomes[1].Status).To(Equal(StatusDegraded))
			Expect(outcomes[1].Result).NotTo(BeNil())
		})

		It("keeps going after a failure", func() {
			Expect(outcomes[2].Status).To(Equal(StatusFailed))
			Expect(outcomes[2].Err).To(MatchError(loadErr))
			Expect(outcomes[2].Result).To(BeNil())

			Expect(outcomes[3].Status).To(Equal(StatusFailed))
			Expect(errors.Is(outcomes[3].Err, scanerr.ErrInvalidImage)).To(BeTrue())
		})

		It("summarizes the batch", func() {
			Expect(Summarize(outcomes)).To(Equal(Summary{Total: 4, Detected: 1, Degraded: 1, Failed: 2}))
		})
	})

	When("the batch has more items than workers", func() {
		BeforeEach(func() {
			items = nil
			for i := 0; i < 7; i++ {
				items = append(items, rasterItem(fmt.Sprintf("wall-%d.png", i), gradientPhoto(60+i, 40)))
			}
		})

		It("scans every item", func() {
			Expect(outcomes).To(HaveLen(7))
			for i, o := range outcomes {
				Expect(o.Status).To(Equal(StatusDegraded))
				Expect(o.Result.Width).To(Equal(60 + i))
			}
		})
	})

	When("the batch is empty", func() {
		BeforeEach(func() {
			items = nil
		})

		It("returns no outcomes", func() {
			Expect(outcomes).To(BeEmpty())
		})
	})

	When("the context is canceled", func() {
		BeforeEach(func() {
			items = []Item{
				rasterItem("a.png", gradientPhoto(50, 50)),
				rasterItem("b.png", gradientPhoto(50, 50)),
			}
			canceled, cancel := context.WithCancel(context.Background())
			cancel()
			ctx = canceled
		})

		It("fails every item with a canceled error", func() {
			for _, o := range outcomes {
				Expect(o.Status).To(Equal(StatusFailed))
				Expect(errors.Is(o.Err, scanerr.ErrCanceled)).To(BeTrue())
			}
		})
	})
})

var _ = Describe("Summarize", func() {
	It("counts unknown statuses as failures", func() {
		sum := Summarize([]Outcome{{Status: StatusDetected}, {Status: ""}, {Status: StatusDegraded}})
		Expect(sum).To(Equal(Summary{Total: 3, Detected: 1, Degraded: 1, Failed: 1}))
	})
})
