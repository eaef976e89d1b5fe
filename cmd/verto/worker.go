package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/queue"
)

func runWorkerCommand(ctx context.Context, cfg *common.Config, logger arbor.ILogger, args []string) int {
	if len(args) == 0 || args[0] != "start" {
		fmt.Fprintln(os.Stderr, "usage: verto worker start [-count N]")
		return 2
	}

	fs := flag.NewFlagSet("worker start", flag.ExitOnError)
	count := fs.Int("count", 0, "Number of workers (overrides config)")
	fs.Parse(args[1:])

	if *count > 0 {
		cfg.Worker.Count = *count
	}

	deps, cleanup, err := buildWorkerDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize worker fleet")
		return 1
	}
	defer cleanup()

	pool := queue.NewPool(cfg, deps)
	completed, err := pool.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Worker fleet failed")
		return 1
	}

	fmt.Printf("workers finished, %d jobs completed\n", completed)
	return 0
}
