package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"property-scraper/models"
)

// Extraction faults. errStaleRecord is the only transient one: the container
// set was replaced under us and the positional index no longer resolves, so
// the record is worth re-reading. Everything else drops the record.
var (
	errStaleRecord         = errors.New("listing container went stale")
	ErrNoPrice             = errors.New("no price found in listing")
	ErrNoAddress           = errors.New("no street address found in listing")
	ErrNoAreaInfo          = errors.New("no area/state line found in listing")
	ErrUnknownPropertyType = errors.New("unmapped property type")
)

// digitRunRegexp captures the first run of digits with optional thousands commas.
var digitRunRegexp = regexp.MustCompile(`\d+(?:,\d+)*`)

// rawCard is the untyped text pulled out of one listing container by the
// in-page script. All parsing happens Go-side so it can be tested without
// a browser.
type rawCard struct {
	Price    string   `json:"price"`
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Area     string   `json:"area"`
	Features []string `json:"features"`
}

// parsePrice extracts an integer price from the card's price line.
// Examples:
//
//	"$2,500 per week" → 2500
//	"$650,000"        → 650000
//	"Price Withheld"  → ErrNoPrice
func parsePrice(raw string) (int, error) {
	// Qualifiers like "per week" follow the first space.
	head := strings.TrimSpace(raw)
	if idx := strings.IndexByte(head, ' '); idx >= 0 {
		head = head[:idx]
	}

	match := digitRunRegexp.FindString(head)
	if match == "" {
		return 0, ErrNoPrice
	}

	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, ErrNoPrice
	}
	return n, nil
}

// parsePropertyType maps the card's type label ("Apartment / Unit / Flat",
// "House", ...) to a PropertyType via its first character.
func parsePropertyType(raw string) models.PropertyType {
	label := strings.TrimSpace(strings.SplitN(raw, "/", 2)[0])
	if label == "" {
		return models.TypeUnknown
	}
	return models.PropertyTypeFromCode(rune(label[0]))
}

// splitAddress separates an optional unit number from the street address.
// "12/45 Smith St" is unit 12 at 45 Smith St only for types that carry a
// sub-unit; for a house the whole string is the street address.
func splitAddress(raw string, propertyType models.PropertyType) (unit, street string) {
	processed := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))

	parts := strings.SplitN(processed, "/", 2)
	if len(parts) == 2 && propertyType.HasUnit() {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", processed
}

// parseFeatures reads the bedroom, bathroom and parking labels, in that
// order. A label whose first character is not a digit keeps the default
// (1 bed, 1 bath, 0 parking).
func parseFeatures(labels []string) (bedrooms, bathrooms, parking int) {
	counts := [3]int{1, 1, 0}

	for i := 0; i < 3 && i < len(labels); i++ {
		text := strings.TrimSpace(labels[i])
		if text == "" {
			continue
		}
		if c := rune(text[0]); unicode.IsDigit(c) {
			counts[i] = int(c - '0')
		}
	}
	return counts[0], counts[1], counts[2]
}

// splitAreaInfo splits the secondary address line ("Melbourne VIC 3000")
// into area name and state abbreviation; the trailing postcode text is
// discarded.
func splitAreaInfo(raw string) (areaName, state string, err error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return "", "", ErrNoAreaInfo
	}
	return fields[0], fields[1], nil
}

// extractRecord turns a raw card into a typed ListingRecord, without
// coordinates. Returns a typed extraction fault when a required field is
// missing or unusable.
func extractRecord(card *rawCard, postcode int) (*models.ListingRecord, error) {
	areaName, state, err := splitAreaInfo(card.Area)
	if err != nil {
		return nil, err
	}

	propertyType := parsePropertyType(card.Type)
	if propertyType == models.TypeUnknown {
		return nil, ErrUnknownPropertyType
	}

	unit, street := splitAddress(card.Address, propertyType)
	if street == "" {
		return nil, ErrNoAddress
	}

	price, err := parsePrice(card.Price)
	if err != nil {
		return nil, err
	}

	bedrooms, bathrooms, parking := parseFeatures(card.Features)
	if propertyType == models.TypeCarSpace {
		bedrooms, bathrooms = 0, 0
	}

	return &models.ListingRecord{
		Postcode:      postcode,
		Unit:          unit,
		StreetAddress: street,
		BedroomCount:  bedrooms,
		BathroomCount: bathrooms,
		ParkingCount:  parking,
		Price:         price,
		PropertyType:  propertyType,
		AreaName:      areaName,
		State:         state,
		ScrapedAt:     time.Now(),
	}, nil
}
