package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const DefaultDPI = 200

// Pdftoppm rasterizes with poppler's pdftoppm binary.
type Pdftoppm struct {
	Path string
	DPI  int
}

// NewPdftoppm returns a rasterizer using the given binary path and resolution.
func NewPdftoppm(path string, dpi int) Pdftoppm {
	if strings.TrimSpace(path) == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return Pdftoppm{Path: path, DPI: dpi}
}

// FirstPage renders page one to PNG in a scratch directory and decodes it.
// The directory and everything in it is removed before returning.
func (p Pdftoppm) FirstPage(ctx context.Context, data []byte) (image.Image, error) {
	dir, err := os.MkdirTemp("", "ats-page-*")
	if err != nil {
		return nil, fmt.Errorf("mkdir temp: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	outRoot := filepath.Join(dir, "page")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary(), pdftoppmArgs(p.dpi(), input, outRoot)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	f, err := os.Open(outRoot + ".png")
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

// pdftoppmArgs limits rendering to page one and writes a single file
// named outRoot.png.
func pdftoppmArgs(dpi int, input, outRoot string) []string {
	return []string{
		"-f", "1",
		"-l", "1",
		"-r", strconv.Itoa(dpi),
		"-png",
		"-singlefile",
		input,
		outRoot,
	}
}

func (p Pdftoppm) binary() string {
	if strings.TrimSpace(p.Path) == "" {
		return "pdftoppm"
	}
	return p.Path
}

func (p Pdftoppm) dpi() int {
	if p.DPI <= 0 {
		return DefaultDPI
	}
	return p.DPI
}
