package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/internal/common"
	"github.com/joseph-ayodele/inspection-wizard/internal/extract"
	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/llm/openai"
	"github.com/joseph-ayodele/inspection-wizard/internal/ocr"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func usage() {
	printError("usage: runocr [-country MX] [-remote] identity <front> [back]\n")
	printError("       runocr [-country MX] plate <image>\n")
	printError("       runocr vin <image>\n")
}

func main() {
	var (
		country = flag.String("country", "PA", "ISO country code selecting document and plate formats")
		remote  = flag.Bool("remote", false, "try the OpenAI extractor before OCR (identity only)")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
		OEM:         cfg.OCR.OEM,
	}, logger)
	opts := []extract.Option{extract.WithLogger(logger)}
	if *remote {
		if cfg.LLM.APIKey == "" {
			printError("Error: -remote needs OPENAI_API_KEY\n")
			os.Exit(2)
		}
		opts = append(opts, extract.WithRemote(openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)))
	}
	x := extract.New(engine, opts...)
	prep := imageprep.NewService(imageprep.Options{MaxWidth: 2000, MaxHeight: 2000, Quality: 90}, logger)

	load := func(path string) []byte {
		raw, err := os.ReadFile(path)
		if err != nil {
			printError("Error: reading %s: %v\n", path, err)
			os.Exit(1)
		}
		img, err := prep.Prepare(ctx, raw)
		if err != nil {
			printError("Error: preparing %s: %v\n", path, err)
			os.Exit(1)
		}
		return img.JPEG
	}

	start := time.Now()
	var out any
	switch args[0] {
	case "identity":
		var back []byte
		if len(args) > 2 {
			back = load(args[2])
		}
		out = x.ExtractIdentity(ctx, load(args[1]), back, *country)
	case "plate":
		out = x.ExtractVehicleIdentifier(ctx, load(args[1]), extract.KindPlate, *country)
	case "vin":
		out = x.ExtractVehicleIdentifier(ctx, load(args[1]), extract.KindVIN, *country)
	default:
		usage()
		os.Exit(2)
	}
	logger.Info("extraction finished", "kind", args[0], "country", *country, "duration_ms", time.Since(start).Milliseconds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		printError("Error: encoding result: %v\n", err)
		os.Exit(1)
	}
}
