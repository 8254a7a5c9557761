package scanner

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironsheep/docscan-mcp/internal/config"
	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

func isBinary(r *imaging.Raster) bool {
	for _, v := range r.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

var _ = Describe("Scanner", func() {
	var (
		s   *Scanner
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		s, err = New(config.DefaultPipeline())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("New", func() {
		It("rejects an invalid configuration", func() {
			cfg := config.DefaultPipeline()
			cfg.BlockSize = 4
			_, err := New(cfg)
			Expect(errors.Is(err, scanerr.ErrInvalidConfig)).To(BeTrue())
		})

		It("keeps its own copy of the configuration", func() {
			cfg := s.Config()
			cfg.CannyLow = 1
			Expect(s.Config().CannyLow).To(Equal(50.0))
		})
	})

	Describe("Scan", func() {
		var (
			src    *imaging.Raster
			result *Result
			err    error
		)

		JustBeforeEach(func() {
			result, err = s.Scan(ctx, src)
		})

		When("the photo shows a skewed document", func() {
			BeforeEach(func() {
				src = documentPhoto(420, 360, skewedDocument)
			})

			It("detects the document", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(StatusDetected))
				Expect(result.Scale).To(Equal(1.0))
				Expect(result.Candidates).NotTo(BeEmpty())
			})

			It("finds each corner within 5 pixels", func() {
				Expect(result.Corners).To(beWithinPixels(skewedDocument, 5))
			})

			It("maps the corners onto the output rectangle", func() {
				Expect(result.Corners).To(beWithinPixels(skewedDocument, 5))
				dst := geometry.Rectangle(result.Width, result.Height)
				for i, c := range result.Corners {
					p, ok := result.Homography.Apply(c)
					Expect(ok).To(BeTrue())
					Expect(p.X).To(BeNumerically("~", dst[i].X, 1e-6))
					Expect(p.Y).To(BeNumerically("~", dst[i].Y, 1e-6))
				}
				Expect(result.Homography[8]).To(Equal(1.0))
			})

			It("sizes the output from the longest opposite edges", func() {
				w, h := geometry.DestinationSize(result.Corners)
				Expect(result.Width).To(Equal(w))
				Expect(result.Height).To(Equal(h))
				Expect(result.Width).To(BeNumerically("~", 342, 10))
				Expect(result.Height).To(BeNumerically("~", 223, 10))
				Expect(result.Warped.Width).To(Equal(result.Width))
				Expect(result.Warped.Height).To(Equal(result.Height))
			})

			It("rectifies the sheet", func() {
				c := result.Warped
				Expect(c.Channels).To(Equal(3))
				Expect(c.At(c.Width/2, c.Height/5, 0)).To(BeNumerically(">", 200))
			})

			It("binarizes the enhanced output", func() {
				e := result.Enhanced
				Expect(e.Channels).To(Equal(1))
				Expect(isBinary(e)).To(BeTrue())
				Expect(e.Pix).To(ContainElement(uint8(0)))
				Expect(e.Pix).To(ContainElement(uint8(255)))
			})

			It("does not modify the input", func() {
				again := documentPhoto(420, 360, skewedDocument)
				Expect(src.Equal(again)).To(BeTrue())
			})

			It("is deterministic", func() {
				second, err2 := s.Scan(ctx, src)
				Expect(err2).NotTo(HaveOccurred())
				Expect(second.Corners).To(Equal(result.Corners))
				Expect(second.Homography).To(Equal(result.Homography))
				Expect(second.Enhanced.Equal(result.Enhanced)).To(BeTrue())
			})
		})

		When("the photo is larger than the resize cap", func() {
			BeforeEach(func() {
				src = documentPhoto(1680, 1440, scaleQuad(skewedDocument, 4))
			})

			It("reports corners in resized coordinates", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(StatusDetected))
				Expect(result.SourceWidth).To(Equal(1680))
				Expect(result.Resized.Width).To(Equal(1000))
				Expect(result.Resized.Height).To(Equal(857))
				Expect(result.Corners).To(beWithinPixels(scaleQuad(skewedDocument, result.Scale*4), 5))
			})
		})

		When("the photo contains no document", func() {
			BeforeEach(func() {
				src = gradientPhoto(300, 200)
			})

			It("falls back to the full frame", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(StatusDegraded))
				Expect(result.Corners).To(Equal(geometry.Rectangle(300, 200)))
				Expect(result.Width).To(Equal(300))
				Expect(result.Height).To(Equal(200))
			})

			It("warps to a copy of the resized input", func() {
				Expect(result.Warped.Equal(result.Resized)).To(BeTrue())
			})

			It("still enhances the output", func() {
				Expect(isBinary(result.Enhanced)).To(BeTrue())
			})
		})

		When("a document-free photo is larger than the resize cap", func() {
			BeforeEach(func() {
				src = gradientPhoto(1500, 1000)
			})

			It("warps to a copy of the resized input", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(StatusDegraded))
				Expect(result.Resized.Width).To(Equal(1000))
				Expect(result.Resized.Height).To(Equal(666))
				Expect(result.Warped.Equal(result.Resized)).To(BeTrue())
			})
		})

		When("the image is empty", func() {
			BeforeEach(func() {
				src = &imaging.Raster{Width: 0, Height: 10, Channels: 3}
			})

			It("returns an invalid image error", func() {
				Expect(errors.Is(err, scanerr.ErrInvalidImage)).To(BeTrue())
				Expect(result).To(BeNil())
			})
		})

		When("the image is nil", func() {
			BeforeEach(func() {
				src = nil
			})

			It("returns an invalid image error", func() {
				Expect(errors.Is(err, scanerr.ErrInvalidImage)).To(BeTrue())
			})
		})

		When("the image is a single row", func() {
			BeforeEach(func() {
				src = gradientPhoto(5, 1)
			})

			It("returns a degenerate homography error", func() {
				Expect(errors.Is(err, scanerr.ErrDegenerateHomography)).To(BeTrue())
			})
		})

		When("the context is already canceled", func() {
			BeforeEach(func() {
				src = documentPhoto(420, 360, skewedDocument)
				canceled, cancel := context.WithCancel(context.Background())
				cancel()
				ctx = canceled
			})

			It("stops before the first stage", func() {
				Expect(errors.Is(err, scanerr.ErrCanceled)).To(BeTrue())
				Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			})
		})

		When("sharpening instead of binarizing", func() {
			BeforeEach(func() {
				var err error
				s, err = s.WithEnhanceMode(config.EnhanceSharpen)
				Expect(err).NotTo(HaveOccurred())
				src = documentPhoto(420, 360, skewedDocument)
			})

			It("returns a single-channel enhanced image", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Enhanced.Channels).To(Equal(1))
				Expect(result.Enhanced.Width).To(Equal(result.Width))
			})
		})
	})

	Describe("Detect", func() {
		It("locates the document without warping", func() {
			d, err := s.Detect(ctx, documentPhoto(420, 360, skewedDocument))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status).To(Equal(StatusDetected))
			Expect(d.Corners).To(beWithinPixels(skewedDocument, 5))
			Expect(d.ContourCount).To(BeNumerically(">=", 2))
			Expect(d.EdgeMap.Channels).To(Equal(1))
		})
	})

	Describe("EdgeMap", func() {
		It("returns a binary mask the size of the resized image", func() {
			edges, err := s.EdgeMap(ctx, documentPhoto(420, 360, skewedDocument))
			Expect(err).NotTo(HaveOccurred())
			Expect(edges.Width).To(Equal(420))
			Expect(edges.Height).To(Equal(360))
			Expect(isBinary(edges)).To(BeTrue())
			Expect(edges.Pix).To(ContainElement(uint8(255)))
		})
	})

	Describe("WithEnhanceMode", func() {
		It("rejects unknown modes", func() {
			_, err := s.WithEnhanceMode("sepia")
			Expect(errors.Is(err, scanerr.ErrInvalidConfig)).To(BeTrue())
		})
	})

	Describe("WithMaxDimension", func() {
		It("changes only the resize cap", func() {
			smaller, err := s.WithMaxDimension(200)
			Expect(err).NotTo(HaveOccurred())
			Expect(smaller.Config().MaxDimension).To(Equal(200))
			Expect(s.Config().MaxDimension).To(Equal(1000))
		})
	})
})
