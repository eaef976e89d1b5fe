package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/ternarybob/verto/internal/qa"
	"github.com/ternarybob/verto/internal/queue"
	"github.com/ternarybob/verto/internal/services/translator"
	storagebadger "github.com/ternarybob/verto/internal/storage/badger"
)

type scriptedTranslator struct {
	mu    sync.Mutex
	calls int
	fn    func(req *interfaces.TranslationRequest) (string, error)
}

func (s *scriptedTranslator) Translate(ctx context.Context, req *interfaces.TranslationRequest) (*interfaces.TranslationResult, error) {
	s.mu.Lock()
	s.calls++
	fn := s.fn
	s.mu.Unlock()

	text, err := fn(req)
	if err != nil {
		return nil, err
	}
	return &interfaces.TranslationResult{Text: text, Provider: "fake", Model: "fake-1"}, nil
}

func (s *scriptedTranslator) Provider() string { return "fake" }
func (s *scriptedTranslator) Close() error     { return nil }

func (s *scriptedTranslator) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func cleanEnglish(req *interfaces.TranslationRequest) (string, error) {
	if utf8.RuneCountInString(req.Text) < 30 {
		return "Research on Deep Learning Methods for Image Classification", nil
	}
	return "This paper proposes a new deep learning method for image classification tasks. Experimental results show the method outperforms existing baselines on several benchmarks.", nil
}

func writeRecordsFile(t *testing.T, records []*models.Record) string {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRecord(id string) *models.Record {
	return &models.Record{
		ID:         id,
		Title:      "深度学习图像分类方法研究",
		Abstract:   "本文提出了一种新的深度学习方法，用于图像分类任务。实验结果表明该方法在多个基准数据集上优于现有基线方法。",
		Creators:   []string{"张伟"},
		Subjects:   []string{"计算机科学"},
		Date:       "2024-01-01",
		SourceURL:  "https://example.org/paper/" + id,
		ContentURL: "https://example.org/paper/" + id + ".pdf",
	}
}

func newOrchestrator(t *testing.T, fake *scriptedTranslator, records []*models.Record) (*Orchestrator, *common.Config, interfaces.StorageManager) {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = t.TempDir()
	cfg.Gates.ReportsDir = t.TempDir()
	cfg.Gemini.APIKey = "test-key"
	cfg.Pipeline.RecordsPath = writeRecordsFile(t, records)
	cfg.Pipeline.OCRInputPath = "" // no extraction samples in these tests
	cfg.Worker.Count = 2
	cfg.Worker.HeartbeatInterval = "50ms"
	cfg.Worker.IdleBackoff = "10ms"
	cfg.Worker.IdleExitThreshold = 3
	cfg.Worker.StuckSweepSchedule = ""

	logger := arbor.NewLogger()
	manager, err := storagebadger.NewManager(logger, &cfg.Storage.Badger, cfg.Queue.MaxRetries)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { manager.Close() })

	audit, err := translator.NewAuditLogger("")
	if err != nil {
		t.Fatal(err)
	}

	deps := &queue.WorkerDeps{
		Storage:    manager,
		Translator: fake,
		Filter:     qa.NewFilter(&cfg.QA),
		Policy: &translator.RetryPolicy{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2.0,
		},
		Audit:  audit,
		Logger: logger,
	}

	return NewOrchestrator(cfg, deps), cfg, manager
}

func TestOrchestratorHappyPath(t *testing.T) {
	fake := &scriptedTranslator{fn: cleanEnglish}
	orch, cfg, manager := newOrchestrator(t, fake, []*models.Record{testRecord("a"), testRecord("b")})

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	ctx := context.Background()
	stats, err := manager.Jobs().Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Completed != 2 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	passed, err := manager.Artifacts().PassedArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(passed) != 2 {
		t.Errorf("PassedArtifacts = %d, want 2", len(passed))
	}

	// One report per stage: preflight, harvest, translation
	entries, err := os.ReadDir(cfg.Gates.ReportsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 reports, found %d", len(entries))
	}
}

func TestOrchestratorHaltsOnPreflight(t *testing.T) {
	fake := &scriptedTranslator{fn: cleanEnglish}
	orch, cfg, manager := newOrchestrator(t, fake, []*models.Record{testRecord("a")})
	cfg.Gemini.APIKey = ""

	err := orch.Run(context.Background())
	var gateErr *GateFailureError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected GateFailureError, got %v", err)
	}
	if gateErr.Stage != "preflight" || !gateErr.Fatal {
		t.Errorf("unexpected gate error: %+v", gateErr)
	}
	if fake.totalCalls() != 0 {
		t.Errorf("translator must not be called after preflight failure, got %d calls", fake.totalCalls())
	}

	stats, err := manager.Jobs().Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 {
		t.Errorf("no jobs must be enqueued after preflight failure, got %+v", stats)
	}
}

func TestOrchestratorHaltsOnHarvestThreshold(t *testing.T) {
	bad := testRecord("bad")
	bad.Abstract = ""
	records := []*models.Record{testRecord("ok"), bad}

	fake := &scriptedTranslator{fn: cleanEnglish}
	orch, cfg, manager := newOrchestrator(t, fake, records)
	cfg.Gates.HarvestThreshold = 0.9 // 1 of 2 passing is 0.5

	err := orch.Run(context.Background())
	var gateErr *GateFailureError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected GateFailureError, got %v", err)
	}
	if gateErr.Stage != "harvest" {
		t.Errorf("Stage = %s, want harvest", gateErr.Stage)
	}
	if !strings.Contains(err.Error(), gateErr.ReportPath) {
		t.Errorf("error should surface the report path: %v", err)
	}

	stats, statsErr := manager.Jobs().Stats(context.Background())
	if statsErr != nil {
		t.Fatal(statsErr)
	}
	if stats.Total != 0 {
		t.Errorf("jobs must not be enqueued after harvest failure, got %+v", stats)
	}
}

func TestOrchestratorTranslationGateFailure(t *testing.T) {
	// Translations keep heavy source-script residue, so every artifact
	// is flagged and the translation gate blocks publication.
	fake := &scriptedTranslator{fn: func(req *interfaces.TranslationRequest) (string, error) {
		if utf8.RuneCountInString(req.Text) < 30 {
			return "Research on Deep Learning Methods", nil
		}
		return "This paper proposes 一种新的深度学习方法 for classification. More filler text keeps the overall ratio under the hard threshold for this field length.", nil
	}}
	orch, _, manager := newOrchestrator(t, fake, []*models.Record{testRecord("a")})

	err := orch.Run(context.Background())
	var gateErr *GateFailureError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected GateFailureError, got %v", err)
	}
	if gateErr.Stage != "translation" {
		t.Errorf("Stage = %s, want translation", gateErr.Stage)
	}

	// The jobs themselves completed; QA flags are not job failures.
	stats, statsErr := manager.Jobs().Stats(context.Background())
	if statsErr != nil {
		t.Fatal(statsErr)
	}
	if stats.Completed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	passed, pErr := manager.Artifacts().PassedArtifacts(context.Background())
	if pErr != nil {
		t.Fatal(pErr)
	}
	if len(passed) != 0 {
		t.Errorf("flagged artifacts must not be publishable, got %d", len(passed))
	}
}
