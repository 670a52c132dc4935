package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"property-scraper/geocode"
	"property-scraper/models"
	"property-scraper/utils"
)

type stubResolver struct {
	coords geocode.Coordinates
	err    error
}

func (s stubResolver) Resolve(ctx context.Context, q geocode.Query) (geocode.Coordinates, error) {
	return s.coords, s.err
}

func newMockStore(t *testing.T, resolver geocode.Resolver) (*SpatialStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &SpatialStore{db: db, geocoder: resolver, logger: utils.NewLogger()}, mock
}

func locatedRecord(street string) *models.ListingRecord {
	return &models.ListingRecord{
		Postcode:       3121,
		StreetAddress:  street,
		BedroomCount:   2,
		BathroomCount:  1,
		ParkingCount:   1,
		Price:          550,
		PropertyType:   models.TypeApartment,
		Latitude:       -37.8230,
		Longitude:      144.9980,
		HasCoordinates: true,
	}
}

func TestUpsertSkipsRecordsWithoutCoordinates(t *testing.T) {
	store, mock := newMockStore(t, stubResolver{})

	rec := locatedRecord("45 Smith St")
	rec.HasCoordinates = false

	stats, err := store.Upsert(context.Background(), []*models.ListingRecord{rec}, models.ModeRental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SkippedNoCoords != 1 || stats.Inserted != 0 || stats.Refreshed != 0 {
		t.Errorf("stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for coordinate-less records: %v", err)
	}
}

func TestUpsertDistinguishesInsertFromRefresh(t *testing.T) {
	store, mock := newMockStore(t, stubResolver{})

	mock.ExpectQuery(`INSERT INTO rental_properties`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO rental_properties`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))

	records := []*models.ListingRecord{
		locatedRecord("45 Smith St"),
		locatedRecord("45 Smith St"), // same identity key, second sighting
	}

	stats, err := store.Upsert(context.Background(), records, models.ModeRental)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Inserted != 1 || stats.Refreshed != 1 {
		t.Errorf("stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertContinuesAfterRecordFailure(t *testing.T) {
	store, mock := newMockStore(t, stubResolver{})

	mock.ExpectQuery(`INSERT INTO sold_properties`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectQuery(`INSERT INTO sold_properties`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	records := []*models.ListingRecord{
		locatedRecord("1 Bad St"),
		locatedRecord("2 Good St"),
	}

	stats, err := store.Upsert(context.Background(), records, models.ModeSold)
	if err != nil {
		t.Fatalf("a partial failure must not fail the batch: %v", err)
	}
	if stats.Failed != 1 || stats.Inserted != 1 {
		t.Errorf("stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertReportsTotalFailure(t *testing.T) {
	store, mock := newMockStore(t, stubResolver{})

	mock.ExpectQuery(`INSERT INTO rental_properties`).
		WillReturnError(errors.New("relation does not exist"))

	_, err := store.Upsert(context.Background(),
		[]*models.ListingRecord{locatedRecord("45 Smith St")}, models.ModeRental)
	if err == nil {
		t.Fatal("expected an error when every record fails")
	}
}

func TestQueryKNearestUnresolvableOrigin(t *testing.T) {
	store, mock := newMockStore(t, stubResolver{err: geocode.ErrNoMatch})

	_, err := store.QueryKNearest(context.Background(), models.NearestQuery{
		Address: "nowhere", AreaName: "Atlantis", State: "VIC", Postcode: 3000, K: 5,
	})
	if !errors.Is(err, ErrUnresolvableLocation) {
		t.Fatalf("expected ErrUnresolvableLocation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for an unresolvable origin: %v", err)
	}
}

func TestQueryKNearest(t *testing.T) {
	origin := geocode.Coordinates{Latitude: -37.8230, Longitude: 144.9980}
	store, mock := newMockStore(t, stubResolver{coords: origin})

	today := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "postcode", "unit", "street_address",
		"bedroom_num", "bathroom_num", "parking_num",
		"price", "property_type", "record_date", "last_recorded_date",
		"inactive", "latitude", "longitude", "description", "distance_m",
	}).
		AddRow(1, 3121, "7", "21 Queen St", 2, 1, 1, 550, 0, today, today, false, -37.8231, 144.9981, "", 12.5).
		AddRow(2, 3121, "", "45 Smith St", 2, 1, 1, 580, 0, today, today, false, -37.8240, 144.9990, "", 140.0)

	mock.ExpectQuery(`SELECT \* FROM get_k_nearest_properties`).
		WithArgs(origin.Longitude, origin.Latitude, 5, 0, 0, 2, 1, 1, -1.0).
		WillReturnRows(rows)

	result, err := store.QueryKNearest(context.Background(), models.NearestQuery{
		Address:         "10 Example St",
		AreaName:        "Richmond",
		State:           "VIC",
		Postcode:        3121,
		K:               5,
		Mode:            models.ModeRental,
		PropertyType:    models.TypeApartment,
		BedroomCount:    2,
		BathroomCount:   1,
		ParkingCount:    1,
		RangePercentage: -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result))
	}

	if result[0].StreetAddress != "21 Queen St" || result[0].DistanceMeters != 12.5 {
		t.Errorf("first comparable: %+v", result[0])
	}
	for i := 1; i < len(result); i++ {
		if result[i].DistanceMeters < result[i-1].DistanceMeters {
			t.Errorf("rows out of distance order at %d", i)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
