package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveArtifactUpsertOverwrites(t *testing.T) {
	store := NewArtifactStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	first := &models.Artifact{
		JobID:              "job_1",
		TitleTranslated:    "First attempt",
		AbstractTranslated: "Left some residue behind.",
		QA: &models.QAResult{
			JobID:  "job_1",
			Status: models.QAStatusFlagLanguagePurity,
		},
	}
	if err := store.SaveArtifact(ctx, first); err != nil {
		t.Fatal(err)
	}

	// A newer successful completion overwrites cleanly
	second := &models.Artifact{
		JobID:              "job_1",
		TitleTranslated:    "Second attempt",
		AbstractTranslated: "Clean translation this time.",
		QA: &models.QAResult{
			JobID:  "job_1",
			Status: models.QAStatusPass,
		},
	}
	if err := store.SaveArtifact(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetArtifact(ctx, "job_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TitleTranslated != "Second attempt" {
		t.Errorf("TitleTranslated = %q, want the later write", got.TitleTranslated)
	}
	if got.QAStatus != models.QAStatusPass {
		t.Errorf("QAStatus = %s, want %s (denormalized from QA)", got.QAStatus, models.QAStatusPass)
	}

	all, err := store.ListArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single row after upsert, got %d", len(all))
	}
}

func TestPassedArtifactsIsPublicationBoundary(t *testing.T) {
	store := NewArtifactStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	saves := []*models.Artifact{
		{JobID: "job_1", QA: &models.QAResult{JobID: "job_1", Status: models.QAStatusPass}},
		{JobID: "job_2", QA: &models.QAResult{JobID: "job_2", Status: models.QAStatusFlagLanguagePurity}},
		{JobID: "job_3", QA: &models.QAResult{JobID: "job_3", Status: models.QAStatusPass}},
		{JobID: "job_4", QA: &models.QAResult{JobID: "job_4", Status: models.QAStatusFlagLength}},
	}
	for _, a := range saves {
		if err := store.SaveArtifact(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	passed, err := store.PassedArtifacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(passed) != 2 {
		t.Fatalf("PassedArtifacts = %d, want 2", len(passed))
	}
	for _, a := range passed {
		if a.QAStatus != models.QAStatusPass {
			t.Errorf("non-passing artifact leaked into publication set: %+v", a)
		}
	}
}
