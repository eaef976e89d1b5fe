package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/gates"
)

// runGateCommand runs one validation gate standalone. The report path
// is printed to stdout for machine consumption; the exit code is 0 iff
// the pass rate meets the threshold and no fatal issue was recorded.
func runGateCommand(ctx context.Context, cfg *common.Config, logger arbor.ILogger, args []string) int {
	if len(args) < 2 || args[0] != "run" {
		fmt.Fprintln(os.Stderr, "usage: verto gate run <preflight|harvest|ocr|translation> [-input <path>] [-threshold <rate>]")
		return 2
	}
	stage := args[1]

	fs := flag.NewFlagSet("gate run", flag.ExitOnError)
	input := fs.String("input", "", "Input file for the gate (records or extraction samples)")
	threshold := fs.Float64("threshold", -1, "Pass-rate threshold (overrides config)")
	fs.Parse(args[2:])

	gate, gateThreshold, code := buildGate(ctx, cfg, logger, stage, *input)
	if gate == nil {
		return code
	}
	if *threshold >= 0 {
		gateThreshold = *threshold
	}

	report, err := gate.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str("stage", stage).Msg("Gate error")
		return 1
	}

	path, err := gates.WriteReport(cfg.Gates.ReportsDir, report)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to write report")
		return 1
	}
	fmt.Println(path)

	if !report.Passed(gateThreshold) {
		logger.Warn().
			Str("stage", stage).
			Float64("pass_rate", report.PassRate).
			Float64("threshold", gateThreshold).
			Bool("fatal", report.HasFatal()).
			Msg("Gate failed")
		return 1
	}
	return 0
}

// buildGate constructs the named gate with its configured threshold.
// Returns a nil gate and an exit code on setup failure.
func buildGate(ctx context.Context, cfg *common.Config, logger arbor.ILogger, stage, input string) (gates.Gate, float64, int) {
	switch stage {
	case "preflight":
		return gates.NewPreflightGate(cfg, logger), 1.0, 0

	case "harvest":
		path := input
		if path == "" {
			path = cfg.Pipeline.RecordsPath
		}
		records, err := gates.LoadRecords(path)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load records")
			return nil, 0, 1
		}
		return gates.NewHarvestGate(records, logger), cfg.Gates.HarvestThreshold, 0

	case "ocr":
		path := input
		if path == "" {
			path = cfg.Pipeline.OCRInputPath
		}
		samples, err := gates.LoadExtractionSamples(path)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load extraction samples")
			return nil, 0, 1
		}
		return gates.NewOCRGate(samples, cfg.Gates.OCRThreshold, logger), cfg.Gates.OCRThreshold, 0

	case "translation":
		storage, err := openStorage(ctx, cfg, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open storage")
			return nil, 0, 1
		}
		// Leaked handle is fine here: the process exits after the gate.
		return gates.NewTranslationGate(storage.Artifacts(), logger), cfg.Gates.TranslationThreshold, 0

	default:
		fmt.Fprintf(os.Stderr, "unknown gate stage: %s\n", stage)
		return nil, 0, 2
	}
}
