package imaging

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Source is a loadable reference to encoded image bytes: a file path, an
// http(s) URL, a data: URL or an in-memory blob.
type Source interface {
	// Open returns a reader over the encoded image. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// String identifies the source in errors, logs and cache keys.
	String() string
}

// FileSource reads an image from the local filesystem.
type FileSource string

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

func (f FileSource) String() string { return string(f) }

// BytesSource serves an image that is already in memory.
type BytesSource struct {
	Name string
	Data []byte
}

func (b *BytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

func (b *BytesSource) String() string {
	if b.Name == "" {
		return "<memory>"
	}
	return b.Name
}

// URLSource downloads an image over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

func (u *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (u *URLSource) String() string { return u.URL }

// ParseSource turns a caller-supplied reference into a Source.
//
// Supported forms:
//   - "data:<mime>;base64,<payload>" is decoded into a BytesSource
//   - "http://..." and "https://..." become a URLSource using client
//   - anything else is treated as a file path
func ParseSource(ref string, client *http.Client) (Source, error) {
	switch {
	case ref == "":
		return nil, fmt.Errorf("empty image reference")
	case strings.HasPrefix(ref, "data:"):
		parts := strings.SplitN(ref, ",", 2)
		if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
			return nil, fmt.Errorf("invalid base64 data URL")
		}
		data, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		sum := sha256.Sum256(data)
		name := parts[0] + " sha256:" + hex.EncodeToString(sum[:8])
		return &BytesSource{Name: name, Data: data}, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return &URLSource{URL: ref, Client: client}, nil
	default:
		return FileSource(ref), nil
	}
}

// readSource reads all bytes of src. A positive limit caps the accepted size.
func readSource(ctx context.Context, src Source, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return data, nil
}

// SourceCache keeps the encoded bytes of recently used sources so repeated
// preview renders of the same image skip disk and network reads.
//
// Only encoded bytes are cached; decoded pixel buffers are always built fresh
// by each pipeline run. In-memory sources are returned as is and never cached.
// File entries are revalidated against the file's size and modification time
// on every Load. URL entries are kept until Evict or Clear; the cache does not
// shrink on its own. SourceCache is safe for concurrent use.
type SourceCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	maxBytes int64
}

type cacheEntry struct {
	src     *BytesSource
	size    int64
	modTime time.Time
}

// NewSourceCache creates an empty cache. A positive maxBytes rejects sources
// larger than that many bytes.
func NewSourceCache(maxBytes int64) *SourceCache {
	return &SourceCache{
		entries:  make(map[string]*cacheEntry),
		maxBytes: maxBytes,
	}
}

// Load returns the cached bytes for src, reading them on first use.
func (c *SourceCache) Load(ctx context.Context, src Source) (*BytesSource, error) {
	if b, ok := src.(*BytesSource); ok {
		if c.maxBytes > 0 && int64(len(b.Data)) > c.maxBytes {
			return nil, &DecodeError{Source: b.String(), Err: fmt.Errorf("image exceeds %d bytes", c.maxBytes)}
		}
		return b, nil
	}

	key := src.String()

	var stat os.FileInfo
	if f, ok := src.(FileSource); ok {
		fi, err := os.Stat(string(f))
		if err != nil {
			c.Evict(key)
			return nil, &DecodeError{Source: key, Err: err}
		}
		stat = fi
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && (stat == nil || (e.size == stat.Size() && e.modTime.Equal(stat.ModTime()))) {
		return e.src, nil
	}

	data, err := readSource(ctx, src, c.maxBytes)
	if err != nil {
		return nil, &DecodeError{Source: key, Err: err}
	}

	e = &cacheEntry{src: &BytesSource{Name: key, Data: data}}
	if stat != nil {
		e.size, e.modTime = stat.Size(), stat.ModTime()
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	return e.src, nil
}

// Evict drops a single source from the cache.
func (c *SourceCache) Evict(ref string) {
	c.mu.Lock()
	delete(c.entries, ref)
	c.mu.Unlock()
}

// Clear drops every cached source.
func (c *SourceCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Len reports the number of cached sources.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ImageInfo describes a source image without decoding its pixels.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the registered decoder name, e.g. "png", "jpeg", "gif", "webp".
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Probe reads src and reports its dimensions and format from the header,
// without decoding pixels. The whole encoded payload is read to report its size.
//
// Dimensions are those stored in the file; EXIF orientation is not applied.
func Probe(ctx context.Context, src Source) (*ImageInfo, error) {
	data, err := readSource(ctx, src, 0)
	if err != nil {
		return nil, &DecodeError{Source: src.String(), Err: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Source: src.String(), Err: err}
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch cfg.ColorModel {
	case color.RGBAModel, color.NRGBAModel:
		hasAlpha = true
	case color.RGBA64Model, color.NRGBA64Model:
		hasAlpha = true
		colorDepth = "16-bit"
	case color.Gray16Model:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: int64(len(data)),
	}, nil
}
