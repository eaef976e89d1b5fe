package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/common"
	"github.com/ternarybob/verto/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	jobs      interfaces.JobStore
	artifacts interfaces.ArtifactStore
	records   interfaces.RecordStore
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, maxRetries int) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		jobs:      NewJobStorage(db, maxRetries, logger),
		artifacts: NewArtifactStorage(db, logger),
		records:   NewRecordStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Jobs returns the job store
func (m *Manager) Jobs() interfaces.JobStore {
	return m.jobs
}

// Artifacts returns the artifact store
func (m *Manager) Artifacts() interfaces.ArtifactStore {
	return m.artifacts
}

// Records returns the record store
func (m *Manager) Records() interfaces.RecordStore {
	return m.records
}

// DB returns the underlying database connection
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
