package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/warden/internal/config"
	"github.com/crimson-sun/warden/internal/dedup"
	"github.com/crimson-sun/warden/internal/logging"
	"github.com/crimson-sun/warden/internal/model"
)

var levelRank = map[model.SeverityLevel]int{
	model.SeveritySafe:     0,
	model.SeverityLow:      1,
	model.SeverityMedium:   2,
	model.SeverityHigh:     3,
	model.SeverityCritical: 4,
}

func newAlertCmd() *cobra.Command {
	var (
		configPath  string
		inputPath   string
		inputForm   string
		token       string
		outPath     string
		outForm     string
		minLevel    string
		dedupWindow time.Duration
	)

	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Triage a log file and emit records at or above a severity level",
		Long: `Triage a batch of records and emit only the ones at or above the
severity threshold. Repeated alerts from the same source against the same URL
are collapsed within the dedup window; the merged alert carries a repeat
count and the group's highest severity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}
			threshold, ok := levelRank[model.SeverityLevel(strings.ToUpper(minLevel))]
			if !ok {
				return fmt.Errorf("unknown severity level %q", minLevel)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Init(outPath == "", logging.ParseLevel(cfg.Logging.Level))

			eng, closeScorer, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer closeScorer()

			records, err := readRecords(cmd.Context(), inputPath, inputForm, token)
			if err != nil {
				return err
			}

			verdicts := eng.ProcessBatch(cmd.Context(), records)

			degraded := 0
			alerts := make([]model.Verdict, 0, len(verdicts))
			for _, v := range verdicts {
				if v.Degraded {
					degraded++
				}
				if levelRank[v.SeverityLevel] < threshold {
					continue
				}
				if v.Timestamp.IsZero() {
					v.Timestamp = time.Now().UTC()
				}
				alerts = append(alerts, v)
			}

			emitted := alerts
			if dedupWindow > 0 {
				emitted = dedup.New(dedup.Config{Window: dedupWindow}).Collapse(alerts)
			}

			out, err := openOutput(outPath, outForm, false)
			if err != nil {
				return err
			}
			defer out.Close()
			for _, v := range emitted {
				if err := out.Write(cmd.Context(), v); err != nil {
					return fmt.Errorf("write alert: %w", err)
				}
			}

			slog.Info("alert run complete",
				"records", len(verdicts),
				"degraded", degraded,
				"alerts", len(alerts),
				"emitted", len(emitted),
				"min_level", strings.ToUpper(minLevel),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&inputPath, "input", "", "Input log file or http(s) URL (JSONL or CSV)")
	cmd.Flags().StringVar(&inputForm, "format", "", "Input format: jsonl or csv (default: by extension)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token for http(s) inputs")
	cmd.Flags().StringVar(&outPath, "output", "", "Alert output file (default: stdout)")
	cmd.Flags().StringVar(&outForm, "out-format", "jsonl", "Output format: jsonl or csv")
	cmd.Flags().StringVar(&minLevel, "min-level", "MEDIUM", "Severity level that counts as an alert")
	cmd.Flags().DurationVar(&dedupWindow, "dedup-window", dedup.DefaultWindow, "Window for collapsing repeated alerts (0 disables)")

	return cmd
}
