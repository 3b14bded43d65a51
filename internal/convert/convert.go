package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/ledongthuc/pdf"

	"ats-expert/internal/shared/telemetry"
)

const (
	// MimeJPEG is the only mime type the converter produces.
	MimeJPEG = "image/jpeg"

	DefaultMaxBytes    int64 = 10 << 20
	DefaultJPEGQuality       = 75
)

// ImagePart is an inline image ready to be sent to the model.
type ImagePart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64, standard encoding
}

// Rasterizer renders the first page of a PDF document.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdf []byte) (image.Image, error)
}

// Converter turns an uploaded PDF into a single JPEG image part.
type Converter struct {
	Rasterizer Rasterizer
	MaxBytes   int64
	Quality    int
}

// New constructs a Converter with defaults applied for zero values.
func New(r Rasterizer, maxBytes int64, quality int) *Converter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Converter{Rasterizer: r, MaxBytes: maxBytes, Quality: quality}
}

// Convert reads the whole PDF, rasterizes page one and returns it as a
// one-element list. Nothing is returned on failure.
func (c *Converter) Convert(ctx context.Context, r io.Reader) ([]ImagePart, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if c.Rasterizer == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrRasterize)
	}

	data, err := readLimited(r, c.maxBytes())
	if err != nil {
		return nil, err
	}

	if !hasHeader(data) {
		return nil, ErrInvalidPDF
	}

	// Parser failures are not fatal; only a parsed document with zero pages is.
	pages, countErr := PageCount(data)
	if countErr == nil && pages == 0 {
		return nil, ErrNoPages
	}
	if countErr != nil {
		pages = -1
		telemetry.Warn("convert.page_count", map[string]any{"error": countErr})
	}

	img, err := c.Rasterizer.FirstPage(ctx, data)
	if err != nil {
		if countErr != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: empty image", ErrRasterize)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality()}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrRasterize, err)
	}

	bounds := img.Bounds()
	telemetry.Info("convert.complete", map[string]any{
		"pdf_bytes":  len(data),
		"pages":      pages,
		"width":      bounds.Dx(),
		"height":     bounds.Dy(),
		"jpeg_bytes": buf.Len(),
	})

	return []ImagePart{{
		MimeType: MimeJPEG,
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}}, nil
}

// PageCount parses the document and returns its page count. The parser is
// stricter than poppler, so an error here does not mean the file is unusable.
func PageCount(data []byte) (n int, err error) {
	if !hasHeader(data) {
		return 0, ErrInvalidPDF
	}
	defer func() {
		// the parser panics on some malformed xref tables
		if rec := recover(); rec != nil {
			n = 0
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return reader.NumPage(), nil
}

// headerScanBytes matches how far poppler looks for the %PDF- marker.
const headerScanBytes = 1024

func headerOffset(data []byte) int {
	return bytes.Index(data[:min(len(data), headerScanBytes)], []byte("%PDF-"))
}

func hasHeader(data []byte) bool {
	return headerOffset(data) >= 0
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (c *Converter) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

func (c *Converter) quality() int {
	if c.Quality <= 0 || c.Quality > 100 {
		return DefaultJPEGQuality
	}
	return c.Quality
}
