package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os/exec"
	"strings"
	"testing"

	"ats-expert/internal/convert/converttest"
)

type fakeRasterizer struct {
	calls int
	got   []byte
	err   error
}

func (f *fakeRasterizer) FirstPage(ctx context.Context, data []byte) (image.Image, error) {
	f.calls++
	f.got = data
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 12))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.Black)
	}
	return img, nil
}

func TestConvertSinglePageReturnsOneJPEGPart(t *testing.T) {
	raster := &fakeRasterizer{}
	c := New(raster, 0, 0)

	parts, err := c.Convert(context.Background(), bytes.NewReader(converttest.PDF(1)))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].MimeType != MimeJPEG {
		t.Fatalf("expected %s, got %s", MimeJPEG, parts[0].MimeType)
	}
	raw, err := base64.StdEncoding.DecodeString(parts[0].Data)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 12 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestConvertMultiPageRendersFirstPageOnce(t *testing.T) {
	raster := &fakeRasterizer{}
	c := New(raster, 0, 0)
	doc := converttest.PDF(3)

	parts, err := c.Convert(context.Background(), bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected exactly 1 part for a 3 page pdf, got %d", len(parts))
	}
	if raster.calls != 1 {
		t.Fatalf("expected one rasterizer call, got %d", raster.calls)
	}
	if !bytes.Equal(raster.got, doc) {
		t.Fatalf("rasterizer received altered bytes")
	}
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		maxBytes int64
		rastErr  error
		want     error
		rastered bool
	}{
		{name: "empty", input: []byte{}, want: ErrInvalidPDF},
		{name: "not a pdf", input: []byte("hello, this is a text file"), want: ErrInvalidPDF},
		{name: "header past scan window", input: append(bytes.Repeat([]byte(" "), 1024), converttest.PDF(1)...), want: ErrInvalidPDF},
		{name: "corrupt xref rejected by rasterizer", input: converttest.Corrupt(), rastErr: errors.New("Syntax Error: Couldn't read xref table"), want: ErrInvalidPDF, rastered: true},
		{name: "zero pages", input: converttest.PDF(0), want: ErrNoPages},
		{name: "too large", input: converttest.PDF(1), maxBytes: 64, want: ErrTooLarge},
		{name: "rasterizer fails", input: converttest.PDF(1), rastErr: errors.New("boom"), want: ErrRasterize, rastered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raster := &fakeRasterizer{err: tt.rastErr}
			c := New(raster, tt.maxBytes, 0)
			parts, err := c.Convert(context.Background(), bytes.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if parts != nil {
				t.Fatalf("expected no parts on failure, got %d", len(parts))
			}
			if got := raster.calls > 0; got != tt.rastered {
				t.Fatalf("rasterizer called=%v, want %v", got, tt.rastered)
			}
		})
	}
}

func TestConvertAcceptsDocumentsTheParserRejects(t *testing.T) {
	tests := map[string][]byte{
		"pdf 2.0 header":    bytes.Replace(converttest.PDF(1), []byte("%PDF-1.4"), []byte("%PDF-2.0"), 1),
		"padding after eof": append(converttest.PDF(1), make([]byte, 256)...),
		"leading junk":      append([]byte("\xef\xbb\xbf\r\n"), converttest.PDF(1)...),
		"corrupt xref":      converttest.Corrupt(),
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			raster := &fakeRasterizer{}
			parts, err := New(raster, 0, 0).Convert(context.Background(), bytes.NewReader(input))
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if raster.calls != 1 {
				t.Fatalf("expected one rasterizer call, got %d", raster.calls)
			}
			if !bytes.Equal(raster.got, input) {
				t.Fatalf("rasterizer received altered bytes")
			}
			if len(parts) != 1 || parts[0].MimeType != MimeJPEG {
				t.Fatalf("expected one %s part, got %+v", MimeJPEG, parts)
			}
		})
	}
}

func TestConvertCancelledRenderIsNotInvalidPDF(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	raster := &fakeRasterizer{err: context.Canceled}

	_, err := New(raster, 0, 0).Convert(ctx, bytes.NewReader(converttest.Corrupt()))
	if !errors.Is(err, ErrRasterize) {
		t.Fatalf("expected ErrRasterize, got %v", err)
	}
}

func TestConvertNilReader(t *testing.T) {
	c := New(&fakeRasterizer{}, 0, 0)
	if _, err := c.Convert(context.Background(), nil); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if ErrNoFile.Error() != "file not found" {
		t.Fatalf("unexpected message %q", ErrNoFile.Error())
	}
}

func TestPageCount(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		got, err := PageCount(converttest.PDF(n))
		if err != nil {
			t.Fatalf("PageCount(%d pages): %v", n, err)
		}
		if got != n {
			t.Fatalf("expected %d pages, got %d", n, got)
		}
	}
}

func TestPdftoppmArgsLimitToFirstPage(t *testing.T) {
	args := strings.Join(pdftoppmArgs(150, "/tmp/in.pdf", "/tmp/out/page"), " ")
	for _, want := range []string{"-f 1", "-l 1", "-r 150", "-png", "-singlefile", "/tmp/in.pdf /tmp/out/page"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestPdftoppmRendersFirstPage(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	raster := NewPdftoppm("", 36)
	img, err := raster.FirstPage(context.Background(), converttest.PDF(2))
	if err != nil {
		t.Fatalf("FirstPage: %v", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= b.Dx() {
		t.Fatalf("expected a portrait page, got %v", b)
	}
}
