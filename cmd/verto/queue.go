package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/gates"
	"github.com/ternarybob/verto/internal/models"
)

func runQueueCommand(ctx context.Context, cfg *common.Config, logger arbor.ILogger, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: verto queue <init|enqueue|stats>")
		return 2
	}

	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open storage")
		return 1
	}
	defer storage.Close()

	switch args[0] {
	case "init":
		// Opening the store creates it; nothing else to do.
		logger.Info().Str("path", cfg.Storage.Badger.Path).Msg("Job store initialized")
		return 0

	case "enqueue":
		fs := flag.NewFlagSet("queue enqueue", flag.ExitOnError)
		input := fs.String("input", "", "Harvested records JSON file; its records are saved and enqueued")
		fs.Parse(args[1:])

		ids := fs.Args()
		if *input != "" {
			records, err := gates.LoadRecords(*input)
			if err != nil {
				logger.Error().Err(err).Str("path", *input).Msg("Failed to load records")
				return 1
			}
			if _, err := storage.Records().SaveRecords(ctx, records); err != nil {
				logger.Error().Err(err).Msg("Failed to save records")
				return 1
			}
			for _, record := range records {
				ids = append(ids, record.ID)
			}
		}
		if len(ids) == 0 {
			fmt.Fprintln(os.Stderr, "usage: verto queue enqueue [-input records.json] [record-ids...]")
			return 2
		}

		jobs := make([]*models.Job, 0, len(ids))
		for _, id := range ids {
			jobs = append(jobs, models.NewJob(common.JobIDForRecord(id)))
		}
		added, err := storage.Jobs().Enqueue(ctx, jobs)
		if err != nil {
			logger.Error().Err(err).Msg("Enqueue failed")
			return 1
		}
		fmt.Printf("enqueued %d of %d jobs (%d already present)\n", added, len(ids), len(ids)-added)
		return 0

	case "stats":
		stats, err := storage.Jobs().Stats(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Stats query failed")
			return 1
		}
		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to encode stats")
			return 1
		}
		fmt.Println(string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown queue subcommand: %s\n", args[0])
		return 2
	}
}
