package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/qa"
	"github.com/ternarybob/verto/internal/queue"
	"github.com/ternarybob/verto/internal/services/translator"
	storagebadger "github.com/ternarybob/verto/internal/storage/badger"
)

// openStorage opens the Badger-backed stores and starts the value-log
// GC loop for the life of ctx.
func openStorage(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.StorageManager, error) {
	manager, err := storagebadger.NewManager(logger, &cfg.Storage.Badger, cfg.Queue.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if m, ok := manager.(*storagebadger.Manager); ok {
		go m.DB().RunGC(ctx, time.Hour)
	}
	return manager, nil
}

// buildWorkerDeps wires the collaborators shared by the worker fleet:
// storage, the configured translator, quality filter, retry policy and
// the call audit log. The returned cleanup closes them in order.
func buildWorkerDeps(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*queue.WorkerDeps, func(), error) {
	storage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	tr, err := translator.NewTranslator(cfg, logger)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}

	audit, err := translator.NewAuditLogger(cfg.Translator.AuditLogPath)
	if err != nil {
		tr.Close()
		storage.Close()
		return nil, nil, err
	}

	glossary, err := common.LoadGlossary(cfg.Pipeline.GlossaryPath)
	if err != nil {
		audit.Close()
		tr.Close()
		storage.Close()
		return nil, nil, err
	}

	policy := translator.NewDefaultRetryPolicy()
	if cfg.Worker.CallMaxRetries > 0 {
		policy.MaxRetries = cfg.Worker.CallMaxRetries
	}

	deps := &queue.WorkerDeps{
		Storage:    storage,
		Translator: tr,
		Filter:     qa.NewFilter(&cfg.QA),
		Policy:     policy,
		Audit:      audit,
		Logger:     logger,
		Glossary:   glossary,
	}

	cleanup := func() {
		audit.Close()
		tr.Close()
		storage.Close()
	}
	return deps, cleanup, nil
}
