package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
)

// Decoded is a decoded photo plus what the codec learned about it.
type Decoded struct {
	Raster *Raster

	// Format is the decoder name ("png", "jpeg", "heic", ...).
	Format string

	// MimeType is the sniffed content type of the encoded bytes.
	MimeType string
}

// Decode turns encoded image bytes into a Raster.
//
// The content type is sniffed from the bytes, not taken from a file name.
// HEIC/HEIF photos (the default iPhone format) go through a pure Go HEIC
// decoder; PNG, JPEG, GIF, BMP, TIFF and WebP go through the registered
// image decoders.
//
// Any failure, including an empty buffer or an image with zero width or
// height, is reported as an InvalidImage error.
func Decode(data []byte) (*Decoded, error) {
	if len(data) == 0 {
		return nil, scanerr.NewInvalidImageError("decode", "image buffer is empty", nil)
	}

	mime := mimetype.Detect(data)

	var (
		img    image.Image
		format string
		err    error
	)
	if mime.Is("image/heic") || mime.Is("image/heif") {
		img, err = heic.Decode(bytes.NewReader(data))
		format = "heic"
	} else {
		img, format, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, scanerr.NewInvalidImageError("decode", fmt.Sprintf("cannot decode %s image", mime.String()), err)
	}

	r := FromImage(img)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &Decoded{Raster: r, Format: format, MimeType: mime.String()}, nil
}

// DefaultCacheEntries is the cache capacity used when none is given.
const DefaultCacheEntries = 16

// ImageCache provides thread-safe caching of decoded photos to avoid
// redundant disk reads and decodes.
//
// Entries are keyed by the exact path string and remember the file's size
// and modification time; a file that changed on disk is decoded again. The
// cache holds at most its capacity and drops the least recently used photo
// first. Cached rasters are shared between callers and must be treated as
// read-only, which every pipeline stage already does.
type ImageCache struct {
	mu         sync.Mutex
	maxEntries int
	images     map[string]*cacheEntry
	order      []string // least recently used first
}

type cacheEntry struct {
	decoded *Decoded
	size    int64
	modTime time.Time
}

func (e *cacheEntry) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// NewImageCache creates an empty cache holding up to maxEntries photos.
// A maxEntries of 0 or less selects DefaultCacheEntries.
func NewImageCache(maxEntries int) *ImageCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &ImageCache{
		maxEntries: maxEntries,
		images:     make(map[string]*cacheEntry),
	}
}

// Load retrieves a decoded photo from the cache or reads and decodes it.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns an InvalidImage error if the bytes cannot be decoded
//
// A failed load also drops any cached decode of path.
func (c *ImageCache) Load(path string) (*Decoded, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	if e, ok := c.images[path]; ok && e.matches(info) {
		c.touch(path)
		c.mu.Unlock()
		return e.decoded, nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	d, err := Decode(data)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = &cacheEntry{decoded: d, size: info.Size(), modTime: info.ModTime()}
	c.touch(path)
	for len(c.order) > c.maxEntries {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
	c.mu.Unlock()

	return d, nil
}

// touch moves path to the most recently used end. c.mu must be held.
func (c *ImageCache) touch(path string) {
	c.removeOrder(path)
	c.order = append(c.order, path)
}

func (c *ImageCache) removeOrder(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.removeOrder(path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is 1 for grayscale sources and 3 for color sources.
	Channels int `json:"channels"`

	// Format is the decoder that read the file: "png", "jpeg", "heic", ...
	Format string `json:"format"`

	// MimeType is sniffed from the file contents.
	MimeType string `json:"mime_type"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	d, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         d.Raster.Width,
		Height:        d.Raster.Height,
		Channels:      d.Raster.Channels,
		Format:        d.Format,
		MimeType:      d.MimeType,
		FileSizeBytes: stat.Size(),
	}, nil
}
