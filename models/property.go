package models

import "time"

// PropertyType classifies a listing. The numeric values match the codes
// persisted in the property tables.
type PropertyType int

const (
	TypeUnknown   PropertyType = -1
	TypeApartment PropertyType = 0
	TypeStudio    PropertyType = 1
	TypeTownhouse PropertyType = 2
	TypeHouse     PropertyType = 3
	TypeCarSpace  PropertyType = 4
)

// propertyTypeCodes maps the first character of the listing-card label
// ("Apartment / Unit / Flat", "House", ...) to a PropertyType.
var propertyTypeCodes = map[rune]PropertyType{
	'A': TypeApartment,
	'S': TypeStudio,
	'T': TypeTownhouse,
	'H': TypeHouse,
	'C': TypeCarSpace,
}

// PropertyTypeFromCode maps a single label character to its PropertyType,
// returning TypeUnknown for anything unmapped.
func PropertyTypeFromCode(c rune) PropertyType {
	if t, ok := propertyTypeCodes[c]; ok {
		return t
	}
	return TypeUnknown
}

func (t PropertyType) String() string {
	switch t {
	case TypeApartment:
		return "apartment"
	case TypeStudio:
		return "studio"
	case TypeTownhouse:
		return "townhouse"
	case TypeHouse:
		return "house"
	case TypeCarSpace:
		return "car space"
	default:
		return "unknown"
	}
}

// HasUnit reports whether a sub-unit number is meaningful for this type.
func (t PropertyType) HasUnit() bool {
	return t == TypeApartment || t == TypeTownhouse
}

// Mode selects which market a scrape or query targets.
type Mode int

const (
	ModeRental Mode = 0
	ModeSold   Mode = 1
)

func (m Mode) String() string {
	if m == ModeSold {
		return "sold"
	}
	return "rental"
}

// TableName returns the table holding rows for this mode.
func (m Mode) TableName() string {
	if m == ModeSold {
		return "sold_properties"
	}
	return "rental_properties"
}

// ListingRecord is one extracted listing, not yet persisted. Latitude and
// Longitude are zero until geocoding succeeds; HasCoordinates guards the
// storage boundary.
type ListingRecord struct {
	Postcode       int
	Unit           string // empty when the type has no sub-unit
	StreetAddress  string
	BedroomCount   int
	BathroomCount  int
	ParkingCount   int
	Price          int
	PropertyType   PropertyType
	AreaName       string
	State          string
	Latitude       float64
	Longitude      float64
	HasCoordinates bool
	Description    string
	ScrapedAt      time.Time
}

// PropertyRow is one persisted observation of a physical property.
type PropertyRow struct {
	ID               int64
	Postcode         int
	Unit             string
	StreetAddress    string
	BedroomCount     int
	BathroomCount    int
	ParkingCount     int
	Price            int
	PropertyType     PropertyType
	RecordDate       time.Time
	LastRecordedDate time.Time
	Inactive         bool
	Latitude         float64
	Longitude        float64
	Description      string
	// DistanceMeters is populated by the k-nearest query only.
	DistanceMeters float64
}

// NearestQuery describes a k-nearest-comparables lookup. Bedroom, bathroom
// and parking counts are minimum thresholds. RangePercentage < 0 disables
// the price band; otherwise returned prices lie within that percentage of
// the candidate set's median.
type NearestQuery struct {
	Address         string
	AreaName        string
	State           string
	Postcode        int
	K               int
	Mode            Mode
	PropertyType    PropertyType
	BedroomCount    int
	BathroomCount   int
	ParkingCount    int
	RangePercentage float64
}

// MarketReport holds the computed summary over one mode's stored rows.
type MarketReport struct {
	Mode            Mode
	TotalProperties int
	AveragePrice    float64
	MinPrice        int
	MaxPrice        int
	MostExpensive   *PropertyRow
	ByPostcode      map[int]int
	ByPropertyType  map[PropertyType]int
}
