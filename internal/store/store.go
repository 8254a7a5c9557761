// Package store persists summaries of completed scans in a bbolt database.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

const bucketName = "scans"

// Record is the stored summary of one scan. Rasters are not stored.
type Record struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Status scanner.Status `json:"status"`

	Corners    *geometry.Quad       `json:"corners,omitempty"`
	Homography *geometry.Homography `json:"homography,omitempty"`

	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	SourceWidth  int     `json:"source_width,omitempty"`
	SourceHeight int     `json:"source_height,omitempty"`
	Scale        float64 `json:"scale,omitempty"`

	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`

	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecord summarizes the outcome of scanning source. Exactly one of res and
// scanErr is expected to be non-nil.
func NewRecord(source string, res *scanner.Result, scanErr error, now time.Time) *Record {
	rec := &Record{
		ID:        fmt.Sprintf("%019d-%s", now.UnixNano(), filepath.Base(source)),
		Source:    source,
		Status:    scanner.StatusFailed,
		CreatedAt: now.UTC(),
	}
	if scanErr != nil {
		rec.ErrorType = string(scanerr.TypeOf(scanErr))
		rec.Error = scanErr.Error()
		return rec
	}
	if res == nil {
		return rec
	}

	corners, h := res.Corners, res.Homography
	rec.Status = res.Status
	rec.Corners = &corners
	rec.Homography = &h
	rec.Width, rec.Height = res.Width, res.Height
	rec.SourceWidth, rec.SourceHeight = res.SourceWidth, res.SourceHeight
	rec.Scale = res.Scale
	rec.DurationMS = res.Duration.Milliseconds()
	return rec
}

// Store defines the record operations the server needs
type Store interface {
	// Save stores a record, replacing any record with the same ID
	Save(rec *Record) error

	// Get retrieves a record by ID
	Get(id string) (*Record, error)

	// List returns up to limit records, newest first. A limit of 0 or
	// less returns every record.
	List(limit int) ([]*Record, error)

	// Delete removes a record
	Delete(id string) error

	// Close closes the database
	Close() error
}

// BoltStore implements Store using bbolt
type BoltStore struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save stores a record
func (b *BoltStore) Save(rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record has no id")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(rec.ID), data)
	})
}

// Get retrieves a record by ID
func (b *BoltStore) Get(id string) (*Record, error) {
	var rec *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records newest first. IDs start with a zero-padded timestamp,
// so walking the keys backwards is reverse chronological order.
func (b *BoltStore) List(limit int) ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshaling record %s: %w", k, err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (b *BoltStore) Delete(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(id))
	})
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}
