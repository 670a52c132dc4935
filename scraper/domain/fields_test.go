package domain

import (
	"errors"
	"testing"

	"property-scraper/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"$2,500 per week", 2500, false},
		{"$650 pw", 650, false},
		{"$1,250,000", 1250000, false},
		{"Price Withheld", 0, true},
		{"Contact agent", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parsePrice(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrNoPrice) {
				t.Errorf("parsePrice(%q): expected ErrNoPrice, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePrice(%q): unexpected error %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parsePrice(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParsePropertyType(t *testing.T) {
	tests := []struct {
		raw  string
		want models.PropertyType
	}{
		{"Apartment / Unit / Flat", models.TypeApartment},
		{"House", models.TypeHouse},
		{"Townhouse", models.TypeTownhouse},
		{"Studio", models.TypeStudio},
		{"Carspace", models.TypeCarSpace},
		{"Villa", models.TypeUnknown},
		{"", models.TypeUnknown},
	}

	for _, tt := range tests {
		if got := parsePropertyType(tt.raw); got != tt.want {
			t.Errorf("parsePropertyType(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSplitAddressWithUnit(t *testing.T) {
	unit, street := splitAddress("12/45 Smith St", models.TypeApartment)
	if unit != "12" || street != "45 Smith St" {
		t.Errorf("apartment split: got unit=%q street=%q", unit, street)
	}

	unit, street = splitAddress("3/9 High St,", models.TypeTownhouse)
	if unit != "3" || street != "9 High St" {
		t.Errorf("townhouse split: got unit=%q street=%q", unit, street)
	}
}

func TestSplitAddressWithoutUnit(t *testing.T) {
	// Houses never carry a unit, even when the raw string has a slash.
	unit, street := splitAddress("45 Smith St", models.TypeHouse)
	if unit != "" || street != "45 Smith St" {
		t.Errorf("house split: got unit=%q street=%q", unit, street)
	}

	unit, street = splitAddress("12/45 Smith St", models.TypeHouse)
	if unit != "" || street != "12/45 Smith St" {
		t.Errorf("house with slash: got unit=%q street=%q", unit, street)
	}
}

func TestParseFeatures(t *testing.T) {
	bed, bath, park := parseFeatures([]string{"3 Beds", "2 Baths", "1 Parking"})
	if bed != 3 || bath != 2 || park != 1 {
		t.Errorf("got %d/%d/%d; want 3/2/1", bed, bath, park)
	}

	// Dash labels keep the defaults.
	bed, bath, park = parseFeatures([]string{"− Beds", "− Baths", "− Parking"})
	if bed != 1 || bath != 1 || park != 0 {
		t.Errorf("default fallback: got %d/%d/%d; want 1/1/0", bed, bath, park)
	}

	bed, bath, park = parseFeatures(nil)
	if bed != 1 || bath != 1 || park != 0 {
		t.Errorf("missing labels: got %d/%d/%d; want 1/1/0", bed, bath, park)
	}
}

func TestSplitAreaInfo(t *testing.T) {
	area, state, err := splitAreaInfo("Melbourne VIC 3000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area != "Melbourne" || state != "VIC" {
		t.Errorf("got area=%q state=%q", area, state)
	}

	if _, _, err := splitAreaInfo("Melbourne"); !errors.Is(err, ErrNoAreaInfo) {
		t.Errorf("expected ErrNoAreaInfo, got %v", err)
	}
}

func TestExtractRecord(t *testing.T) {
	card := &rawCard{
		Price:    "$550 per week",
		Type:     "Apartment / Unit / Flat",
		Address:  "7/21 Queen St,",
		Area:     "Melbourne VIC 3000",
		Features: []string{"2 Beds", "1 Bath", "1 Parking"},
	}

	rec, err := extractRecord(card, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Unit != "7" || rec.StreetAddress != "21 Queen St" {
		t.Errorf("address: got unit=%q street=%q", rec.Unit, rec.StreetAddress)
	}
	if rec.Price != 550 {
		t.Errorf("price: got %d, want 550", rec.Price)
	}
	if rec.PropertyType != models.TypeApartment {
		t.Errorf("type: got %v, want apartment", rec.PropertyType)
	}
	if rec.BedroomCount != 2 || rec.BathroomCount != 1 || rec.ParkingCount != 1 {
		t.Errorf("features: got %d/%d/%d", rec.BedroomCount, rec.BathroomCount, rec.ParkingCount)
	}
	if rec.HasCoordinates {
		t.Error("extraction must not set coordinates")
	}
}

func TestExtractRecordCarSpaceZeroesRooms(t *testing.T) {
	card := &rawCard{
		Price:    "$90 per week",
		Type:     "Carspace",
		Address:  "300 Collins St",
		Area:     "Melbourne VIC 3000",
		Features: []string{"1 Bed", "1 Bath", "1 Parking"},
	}

	rec, err := extractRecord(card, 3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.BedroomCount != 0 || rec.BathroomCount != 0 {
		t.Errorf("car space rooms: got %d/%d, want 0/0", rec.BedroomCount, rec.BathroomCount)
	}
	if rec.ParkingCount != 1 {
		t.Errorf("car space parking: got %d, want 1", rec.ParkingCount)
	}
}

func TestExtractRecordDropsWithheldPrice(t *testing.T) {
	card := &rawCard{
		Price:   "Price Withheld",
		Type:    "House",
		Address: "45 Smith St",
		Area:    "Richmond VIC 3121",
	}

	if _, err := extractRecord(card, 3121); !errors.Is(err, ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}
}
