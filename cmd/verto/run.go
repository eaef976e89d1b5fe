package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/pipeline"
)

// runPipelineCommand executes the full pipeline. The process exit code
// reflects overall success for CI integration: 0 on success, 1 when a
// gate blocked the run or a stage errored.
func runPipelineCommand(ctx context.Context, cfg *common.Config, logger arbor.ILogger) int {
	deps, cleanup, err := buildWorkerDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize pipeline")
		return 1
	}
	defer cleanup()

	orch := pipeline.NewOrchestrator(cfg, deps)
	if err := orch.Run(ctx); err != nil {
		var gateErr *pipeline.GateFailureError
		if errors.As(err, &gateErr) {
			// Surface the failing report for the operator
			fmt.Println(gateErr.ReportPath)
		}
		logger.Error().Err(err).Msg("Pipeline halted")
		return 1
	}

	logger.Info().Msg("Pipeline completed successfully")
	return 0
}
