package storage

import (
	"context"

	"property-scraper/models"
)

// PropertyWriter is the persistence boundary for extracted records.
type PropertyWriter interface {
	Upsert(ctx context.Context, records []*models.ListingRecord, mode models.Mode) (UpsertStats, error)
	Close() error
}

// ComparableSource serves ranked comparable lookups for the valuators.
type ComparableSource interface {
	QueryKNearest(ctx context.Context, q models.NearestQuery) ([]*models.PropertyRow, error)
}

// RecordWriter is the interface for the raw audit trail of extracted records.
type RecordWriter interface {
	WriteRecords(records []*models.ListingRecord) error
	Close() error
}
