package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

var base = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

var identity = geometry.Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

func detectedResult() *scanner.Result {
	return &scanner.Result{
		Detection: scanner.Detection{
			Corners:      geometry.Quad{{X: 10, Y: 12}, {X: 300, Y: 8}, {X: 310, Y: 410}, {X: 4, Y: 400}},
			Status:       scanner.StatusDetected,
			Scale:        0.5,
			SourceWidth:  800,
			SourceHeight: 900,
		},
		Homography: identity,
		Width:      307,
		Height:     404,
		Duration:   1500 * time.Millisecond,
	}
}

var _ = Describe("NewRecord", func() {
	It("summarizes a successful scan", func() {
		rec := NewRecord("/photos/receipt.jpg", detectedResult(), nil, base)

		Expect(rec.ID).To(Equal(fmt.Sprintf("%d-receipt.jpg", base.UnixNano())))
		Expect(rec.Source).To(Equal("/photos/receipt.jpg"))
		Expect(rec.Status).To(Equal(scanner.StatusDetected))
		Expect(*rec.Corners).To(Equal(detectedResult().Corners))
		Expect(*rec.Homography).To(Equal(identity))
		Expect(rec.Width).To(Equal(307))
		Expect(rec.SourceHeight).To(Equal(900))
		Expect(rec.DurationMS).To(Equal(int64(1500)))
		Expect(rec.Error).To(BeEmpty())
		Expect(rec.CreatedAt).To(Equal(base))
	})

	It("records the error of a failed scan", func() {
		err := scanerr.NewInvalidImageError("decode", "unsupported format", nil)
		rec := NewRecord("broken.bin", nil, err, base)

		Expect(rec.Status).To(Equal(scanner.StatusFailed))
		Expect(rec.ErrorType).To(Equal("invalid_image"))
		Expect(rec.Error).To(ContainSubstring("unsupported format"))
		Expect(rec.Corners).To(BeNil())
	})

	It("classifies foreign errors as internal", func() {
		rec := NewRecord("x.png", nil, errors.New("disk on fire"), base)
		Expect(rec.ErrorType).To(Equal("internal"))
	})
})

var _ = Describe("BoltStore", func() {
	var (
		dbPath string
		db     *BoltStore
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "scans.db")
		var err error
		db, err = Open(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("Save and Get", func() {
		var rec *Record

		BeforeEach(func() {
			rec = NewRecord("receipt.jpg", detectedResult(), nil, base)
			Expect(db.Save(rec)).To(Succeed())
		})

		It("round-trips the record", func() {
			got, err := db.Get(rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(scanner.StatusDetected))
			Expect(*got.Corners).To(Equal(*rec.Corners))
			Expect(*got.Homography).To(Equal(*rec.Homography))
			Expect(got.CreatedAt.Equal(base)).To(BeTrue())
		})

		It("persists across reopening", func() {
			Expect(db.Close()).To(Succeed())
			var err error
			db, err = Open(dbPath)
			Expect(err).NotTo(HaveOccurred())

			got, err := db.Get(rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Source).To(Equal("receipt.jpg"))
		})

		It("rejects records without an id", func() {
			Expect(db.Save(&Record{})).To(MatchError("record has no id"))
		})
	})

	Describe("Get", func() {
		When("the record does not exist", func() {
			It("returns a not found error", func() {
				rec, err := db.Get("nonexistent")
				Expect(err).To(MatchError("record not found: nonexistent"))
				Expect(rec).To(BeNil())
			})
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			// Saved out of order on purpose.
			for _, offset := range []time.Duration{2, 0, 3, 1} {
				rec := NewRecord("page.png", detectedResult(), nil, base.Add(offset*time.Second))
				Expect(db.Save(rec)).To(Succeed())
			}
		})

		It("returns every record newest first", func() {
			records, err := db.List(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(4))
			for i := 1; i < len(records); i++ {
				Expect(records[i-1].CreatedAt.After(records[i].CreatedAt)).To(BeTrue())
			}
			Expect(records[0].CreatedAt.Equal(base.Add(3 * time.Second))).To(BeTrue())
		})

		It("honors the limit", func() {
			records, err := db.List(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[1].CreatedAt.Equal(base.Add(2 * time.Second))).To(BeTrue())
		})
	})

	Describe("List on an empty store", func() {
		It("returns an empty slice", func() {
			records, err := db.List(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).NotTo(BeNil())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes the record", func() {
			rec := NewRecord("gone.png", nil, errors.New("boom"), base)
			Expect(db.Save(rec)).To(Succeed())
			Expect(db.Delete(rec.ID)).To(Succeed())

			_, err := db.Get(rec.ID)
			Expect(err).To(HaveOccurred())
		})

		It("ignores missing records", func() {
			Expect(db.Delete("nonexistent")).To(Succeed())
		})
	})
})
