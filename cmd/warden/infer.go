package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/warden/internal/config"
	"github.com/crimson-sun/warden/internal/logging"
	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/output"
	"github.com/crimson-sun/warden/internal/output/csvout"
	"github.com/crimson-sun/warden/internal/output/file"
	"github.com/crimson-sun/warden/internal/output/stdout"
	"github.com/crimson-sun/warden/internal/pipeline"
	"github.com/crimson-sun/warden/internal/source"
	"github.com/crimson-sun/warden/internal/source/httpsrc"

	// Register input readers.
	_ "github.com/crimson-sun/warden/internal/source/csvfile"
	_ "github.com/crimson-sun/warden/internal/source/jsonl"
)

func newInferCmd() *cobra.Command {
	var (
		configPath string
		inputPath  string
		inputForm  string
		token      string
		outPath    string
		outForm    string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Classify a batch of request records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Init(outPath == "", logging.ParseLevel(cfg.Logging.Level))

			stats, err := runBatch(cmd.Context(), cfg, inputPath, inputForm, token, outPath, outForm, pretty)
			if err != nil {
				return err
			}
			slog.Info("inference complete",
				"records", stats.Total,
				"degraded", stats.Degraded,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&inputPath, "input", "", "Input file or http(s) URL (JSONL or CSV)")
	cmd.Flags().StringVar(&inputForm, "format", "", "Input format: jsonl or csv (default: by extension)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for http(s) inputs")
	cmd.Flags().StringVar(&outPath, "output", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&outForm, "out-format", "jsonl", "Output format: jsonl or csv")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	return cmd
}

// runBatch reads, triages, and writes one batch.
func runBatch(ctx context.Context, cfg config.Config, inputPath, inputForm, token, outPath, outForm string, pretty bool) (pipeline.Stats, error) {
	eng, closeScorer, err := buildEngine(cfg)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer closeScorer()

	out, err := openOutput(outPath, outForm, pretty)
	if err != nil {
		return pipeline.Stats{}, err
	}

	records, err := readRecords(ctx, inputPath, inputForm, token)
	if err != nil {
		return pipeline.Stats{}, err
	}

	p := pipeline.New(eng, out)
	defer p.Close()

	return p.Run(ctx, records)
}

// readRecords loads the input batch from a local file or an HTTP endpoint.
func readRecords(ctx context.Context, inputPath, inputForm, token string) ([]model.RawRecord, error) {
	if httpsrc.IsURL(inputPath) {
		var opts []httpsrc.Option
		if token != "" {
			opts = append(opts, httpsrc.WithToken(token))
		}
		return httpsrc.New(opts...).Fetch(ctx, inputPath)
	}

	if inputForm == "" {
		inputForm = source.ForPath(inputPath)
	}
	ctor, err := source.Get(inputForm)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return ctor().Read(ctx, f)
}

func openOutput(path, format string, pretty bool) (output.Output, error) {
	switch format {
	case "csv":
		if path == "" {
			return csvout.NewTo(os.Stdout), nil
		}
		return csvout.New(path)
	case "jsonl", "":
		if path == "" {
			return stdout.New(pretty), nil
		}
		return file.New(path)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
