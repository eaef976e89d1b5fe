package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verto/internal/interfaces"
	"github.com/ternarybob/verto/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RecordStorage implements the RecordStore interface on badgerhold.
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStore {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecords upserts harvested records and returns the count written.
func (s *RecordStorage) SaveRecords(ctx context.Context, records []*models.Record) (int, error) {
	saved := 0
	now := time.Now().UTC()
	for _, record := range records {
		if record.ID == "" {
			return saved, fmt.Errorf("record ID is required")
		}
		if record.HarvestedAt.IsZero() {
			record.HarvestedAt = now
		}
		if err := s.db.Store().Upsert(record.ID, record); err != nil {
			return saved, fmt.Errorf("failed to save record %s: %w", record.ID, err)
		}
		saved++
	}
	return saved, nil
}

// GetRecord returns the record with the given ID.
func (s *RecordStorage) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var record models.Record
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &record, nil
}

// ListRecords returns all stored records.
func (s *RecordStorage) ListRecords(ctx context.Context) ([]*models.Record, error) {
	var records []models.Record
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	result := make([]*models.Record, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}
