package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"property-scraper/geocode"
	"property-scraper/models"
	"property-scraper/utils"
)

// ErrUnresolvableLocation means the query origin address could not be
// geocoded, so no comparables can be ranked.
var ErrUnresolvableLocation = errors.New("query origin could not be resolved")

// SpatialStore owns the PostGIS schema, the dedup/upsert path and the
// k-nearest comparable query.
type SpatialStore struct {
	db       *sql.DB
	geocoder geocode.Resolver
	logger   *utils.Logger
}

// NewSpatialStore opens a connection to PostgreSQL, runs schema migrations
// (tables, indexes and the nearest-neighbour function) and returns a
// ready-to-use store.
func NewSpatialStore(dsn string, geocoder geocode.Resolver, logger *utils.Logger) (*SpatialStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	store := &SpatialStore{db: db, geocoder: geocoder, logger: logger}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return store, nil
}

func (s *SpatialStore) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return err
	}
	_, err := s.db.Exec(kNearestFunctionSQL)
	return err
}

// Close releases the underlying connection pool.
func (s *SpatialStore) Close() error {
	return s.db.Close()
}

// UpsertStats summarises one Upsert batch.
type UpsertStats struct {
	Inserted        int
	Refreshed       int
	SkippedNoCoords int
	Failed          int
}

// upsertSQL creates a row on first sighting and only touches
// last_recorded_date on a repeat sighting of the same identity key. The
// (xmax = 0) trick reports which of the two happened.
const upsertSQL = `
	INSERT INTO %s (
		postcode, unit, street_address,
		bedroom_num, bathroom_num, parking_num,
		price, property_type,
		record_date, last_recorded_date, inactive,
		latitude, longitude, geom, description
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		CURRENT_DATE, CURRENT_DATE, FALSE,
		$9, $10, ST_SetSRID(ST_MakePoint($10, $9), 4326), $11
	)
	ON CONFLICT (postcode, unit, street_address,
	             bedroom_num, bathroom_num, parking_num,
	             property_type, latitude, longitude)
	DO UPDATE SET last_recorded_date = CURRENT_DATE
	RETURNING (xmax = 0) AS inserted
`

// Upsert persists the records into the mode's table. Records without
// coordinates are skipped; a record that fails is logged and the batch
// continues. Safe to call repeatedly with overlapping data.
func (s *SpatialStore) Upsert(ctx context.Context, records []*models.ListingRecord, mode models.Mode) (UpsertStats, error) {
	var stats UpsertStats
	query := fmt.Sprintf(upsertSQL, mode.TableName())

	var lastErr error
	for _, rec := range records {
		if !rec.HasCoordinates {
			stats.SkippedNoCoords++
			continue
		}

		var inserted bool
		err := s.db.QueryRowContext(ctx, query,
			rec.Postcode, rec.Unit, rec.StreetAddress,
			rec.BedroomCount, rec.BathroomCount, rec.ParkingCount,
			rec.Price, int(rec.PropertyType),
			rec.Latitude, rec.Longitude, rec.Description,
		).Scan(&inserted)
		if err != nil {
			stats.Failed++
			lastErr = err
			s.logger.Error("[storage] Upsert failed for %q (%04d): %v",
				rec.StreetAddress, rec.Postcode, err)
			continue
		}

		if inserted {
			stats.Inserted++
		} else {
			stats.Refreshed++
		}
	}

	s.logger.Info("[storage] Upsert into %s — %d inserted, %d refreshed, %d skipped (no coordinates), %d failed",
		mode.TableName(), stats.Inserted, stats.Refreshed, stats.SkippedNoCoords, stats.Failed)

	attempted := stats.Inserted + stats.Refreshed + stats.Failed
	if attempted > 0 && stats.Failed == attempted {
		return stats, fmt.Errorf("postgres: every upsert failed: %w", lastErr)
	}
	return stats, nil
}

// QueryKNearest resolves the origin address and returns at most q.K rows
// ordered by distance from it, closest first.
func (s *SpatialStore) QueryKNearest(ctx context.Context, q models.NearestQuery) ([]*models.PropertyRow, error) {
	coords, err := s.geocoder.Resolve(ctx, geocode.Query{
		StreetAddress: q.Address,
		AreaName:      q.AreaName,
		State:         q.State,
		Postcode:      q.Postcode,
	})
	if err != nil {
		s.logger.Warn("[storage] Origin %q did not resolve: %v", q.Address, err)
		return nil, fmt.Errorf("origin %q: %w", q.Address, ErrUnresolvableLocation)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT * FROM get_k_nearest_properties($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		coords.Longitude, coords.Latitude, q.K, int(q.Mode), int(q.PropertyType),
		q.BedroomCount, q.BathroomCount, q.ParkingCount, q.RangePercentage,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: k-nearest query: %w", err)
	}
	defer rows.Close()

	var result []*models.PropertyRow
	for rows.Next() {
		row := &models.PropertyRow{}
		if err := rows.Scan(
			&row.ID, &row.Postcode, &row.Unit, &row.StreetAddress,
			&row.BedroomCount, &row.BathroomCount, &row.ParkingCount,
			&row.Price, &row.PropertyType,
			&row.RecordDate, &row.LastRecordedDate, &row.Inactive,
			&row.Latitude, &row.Longitude, &row.Description,
			&row.DistanceMeters,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan comparable: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// FetchAll retrieves every stored row for one mode — used by the insight
// service.
func (s *SpatialStore) FetchAll(ctx context.Context, mode models.Mode) ([]*models.PropertyRow, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, postcode, unit, street_address,
		       bedroom_num, bathroom_num, parking_num,
		       price, property_type,
		       record_date, last_recorded_date, inactive,
		       latitude, longitude, description
		FROM %s
		ORDER BY id
	`, mode.TableName()))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var result []*models.PropertyRow
	for rows.Next() {
		row := &models.PropertyRow{}
		if err := rows.Scan(
			&row.ID, &row.Postcode, &row.Unit, &row.StreetAddress,
			&row.BedroomCount, &row.BathroomCount, &row.ParkingCount,
			&row.Price, &row.PropertyType,
			&row.RecordDate, &row.LastRecordedDate, &row.Inactive,
			&row.Latitude, &row.Longitude, &row.Description,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
