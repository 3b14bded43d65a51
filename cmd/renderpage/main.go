package main

// Render the first page of a PDF the way assessments see it:
//   go run ./cmd/renderpage -in cv.pdf -out ./out/page.jpg

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"ats-expert/internal/convert"
	"ats-expert/internal/shared/config"
)

func main() {
	cfg := config.Load()

	inPath := flag.String("in", "", "Path to a PDF")
	outPath := flag.String("out", "./out/page.jpg", "Output path for the JPEG")
	dpi := flag.Int("dpi", cfg.RenderDPI, "Render resolution")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "-in is required")
		os.Exit(1)
	}

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	conv := convert.New(convert.NewPdftoppm(cfg.PdftoppmPath, *dpi), cfg.MaxUploadBytes, cfg.JPEGQuality)
	parts, err := conv.Convert(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "convert failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutput(*outPath, parts[0]); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s\n", *outPath)
}

func writeOutput(outPath string, part convert.ImagePart) error {
	data, err := base64.StdEncoding.DecodeString(part.Data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
