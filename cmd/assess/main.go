package main

// Run one assessment from the command line:
//   go run ./cmd/assess -resume cv.pdf -jd job.txt -variant match

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"ats-expert/internal/assessments"
	"ats-expert/internal/convert"
	"ats-expert/internal/llm/gemini"
	"ats-expert/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume PDF")
	jdPath := flag.String("jd", "", "Path to job description file (optional)")
	variantName := flag.String("variant", string(assessments.VariantOverview), "One of overview, improve, match")
	outPath := flag.String("out", "", "Path to write the response (optional)")
	model := flag.String("model", cfg.GenAIModel, "Gemini model")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	variant, err := assessments.ParseVariant(*variantName)
	if err != nil {
		exitErr(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		exitErr(err.Error())
	}

	jobDescription := ""
	if strings.TrimSpace(*jdPath) != "" {
		jdBytes, err := os.ReadFile(*jdPath)
		if err != nil {
			exitErr(fmt.Sprintf("read job description: %v", err))
		}
		jobDescription = string(jdBytes)
	}

	ctx := context.Background()
	client, err := gemini.NewClient(ctx, cfg.GenAIAPIKey, *model, cfg.GenAITimeout)
	if err != nil {
		exitErr(err.Error())
	}

	f, err := os.Open(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("open resume: %v", err))
	}
	defer f.Close()

	svc := &assessments.Service{
		Converter: convert.New(convert.NewPdftoppm(cfg.PdftoppmPath, cfg.RenderDPI), cfg.MaxUploadBytes, cfg.JPEGQuality),
		LLM:       client,
		Model:     client.Model(),
	}
	a, err := svc.Assess(ctx, assessments.Request{
		Variant:        variant,
		JobDescription: jobDescription,
		Resume:         f,
		FileName:       *resumePath,
	})
	if err != nil {
		message, detail := assessments.Describe(err)
		if detail != "" {
			message += "\n" + detail
		}
		exitErr(message)
	}

	out := a.Response
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(out), 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.WriteString(out); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
