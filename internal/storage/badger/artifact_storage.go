package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ArtifactStorage implements the ArtifactStore interface on badgerhold.
type ArtifactStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArtifactStorage creates a new ArtifactStorage instance
func NewArtifactStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArtifactStore {
	return &ArtifactStorage{
		db:     db,
		logger: logger,
	}
}

// SaveArtifact upserts an artifact keyed by job ID. Upsert makes the
// write idempotent: a duplicate or late write simply overwrites, which
// is the contract that keeps at-least-once job delivery safe.
func (s *ArtifactStorage) SaveArtifact(ctx context.Context, artifact *models.Artifact) error {
	if artifact.JobID == "" {
		return fmt.Errorf("artifact job ID is required")
	}
	if artifact.QA != nil {
		artifact.QAStatus = artifact.QA.Status
	}
	if err := s.db.Store().Upsert(artifact.JobID, artifact); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// GetArtifact returns the artifact for a job.
func (s *ArtifactStorage) GetArtifact(ctx context.Context, jobID string) (*models.Artifact, error) {
	var artifact models.Artifact
	if err := s.db.Store().Get(jobID, &artifact); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("artifact not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return &artifact, nil
}

// ListArtifacts returns all artifacts.
func (s *ArtifactStorage) ListArtifacts(ctx context.Context) ([]*models.Artifact, error) {
	var artifacts []models.Artifact
	if err := s.db.Store().Find(&artifacts, badgerhold.Where("JobID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	result := make([]*models.Artifact, len(artifacts))
	for i := range artifacts {
		result[i] = &artifacts[i]
	}
	return result, nil
}

// PassedArtifacts returns only artifacts whose QA status is pass.
// This is the publication boundary: the renderer reads nothing else.
func (s *ArtifactStorage) PassedArtifacts(ctx context.Context) ([]*models.Artifact, error) {
	var artifacts []models.Artifact
	if err := s.db.Store().Find(&artifacts, badgerhold.Where("QAStatus").Eq(models.QAStatusPass)); err != nil {
		return nil, fmt.Errorf("failed to query passed artifacts: %w", err)
	}
	result := make([]*models.Artifact, len(artifacts))
	for i := range artifacts {
		result[i] = &artifacts[i]
	}
	return result, nil
}
