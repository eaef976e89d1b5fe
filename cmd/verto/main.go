package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	storagePath  = flag.String("storage", "", "Storage path (overrides config)")
	workerCount  = flag.Int("workers", 0, "Worker count (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: verto [flags] <command>

Commands:
  queue init                      Initialize the job store
  queue enqueue [-input records.json] [record-ids...]
                                  Enqueue jobs for harvested records
  queue stats                     Print queue statistics as JSON
  worker start                    Run the worker fleet until the queue drains
  gate run <stage>                Run one validation gate (preflight|harvest|ocr|translation)
  run                             Run the full pipeline
  version                         Print version information

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Verto version %s\n", common.GetVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	if len(configFiles) == 0 {
		if _, err := os.Stat("verto.toml"); err == nil {
			configFiles = append(configFiles, "verto.toml")
		} else if _, err := os.Stat("deployments/local/verto.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/verto.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Strs("paths", configFiles).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *storagePath, *workerCount)

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	// Cooperative cancellation: first signal stops claiming new work,
	// in-flight persists still finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exitCode int
	switch args[0] {
	case "queue":
		exitCode = runQueueCommand(ctx, config, logger, args[1:])
	case "worker":
		exitCode = runWorkerCommand(ctx, config, logger, args[1:])
	case "gate":
		exitCode = runGateCommand(ctx, config, logger, args[1:])
	case "run":
		exitCode = runPipelineCommand(ctx, config, logger)
	case "version":
		fmt.Printf("Verto version %s\n", common.GetFullVersion())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		usage()
		exitCode = 2
	}

	os.Exit(exitCode)
}
