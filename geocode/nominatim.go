// Package geocode resolves free-text property addresses to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"property-scraper/utils"
)

// ErrNoMatch means the provider returned no usable candidate for the query.
var ErrNoMatch = errors.New("no geocoding match for query")

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Query identifies one address to resolve.
type Query struct {
	StreetAddress string
	AreaName      string
	State         string
	Postcode      int
}

// FreeText renders the query the way the provider expects it.
func (q Query) FreeText() string {
	return fmt.Sprintf("%s, %s, %s %04d, Australia",
		q.StreetAddress, q.AreaName, q.State, q.Postcode)
}

// Resolver turns an address query into coordinates. Both the ingestion and
// the valuation query paths receive one by injection.
type Resolver interface {
	Resolve(ctx context.Context, q Query) (Coordinates, error)
}

// candidate is one provider match.
type candidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimResolver resolves addresses against a Nominatim instance.
type NominatimResolver struct {
	client *resty.Client
	logger *utils.Logger
}

// NewNominatim creates a resolver for the given Nominatim base URL. The
// email, when set, is sent along per the public instance's usage policy.
func NewNominatim(baseURL string, timeout time.Duration, email string, logger *utils.Logger) *NominatimResolver {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "property-scraper/1.0").
		SetHeader("Accept", "application/json")
	if email != "" {
		client.SetQueryParam("email", email)
	}

	return &NominatimResolver{client: client, logger: logger}
}

// Resolve fetches all candidate matches and applies the disambiguation
// policy: prefer a formatted address containing the postcode text, then one
// containing both area and state, then the provider's first candidate.
func (n *NominatimResolver) Resolve(ctx context.Context, q Query) (Coordinates, error) {
	var candidates []candidate

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      q.FreeText(),
			"format": "json",
			"limit":  "10",
		}).
		SetResult(&candidates).
		Get("/search")
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", q.FreeText(), err)
	}
	if resp.IsError() {
		return Coordinates{}, fmt.Errorf("geocode %q: provider returned %s", q.FreeText(), resp.Status())
	}

	best := selectCandidate(candidates, q)
	if best == nil {
		return Coordinates{}, ErrNoMatch
	}

	lat, latErr := strconv.ParseFloat(best.Lat, 64)
	lon, lonErr := strconv.ParseFloat(best.Lon, 64)
	if latErr != nil || lonErr != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: unparsable coordinates %q/%q",
			q.FreeText(), best.Lat, best.Lon)
	}

	n.logger.Debug("[geocode] %q → (%f, %f)", q.FreeText(), lat, lon)
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

// selectCandidate picks the best provider match for the query, or nil when
// there are none.
func selectCandidate(candidates []candidate, q Query) *candidate {
	if len(candidates) == 0 {
		return nil
	}

	postcodeText := fmt.Sprintf("%04d", q.Postcode)
	for i := range candidates {
		if strings.Contains(candidates[i].DisplayName, postcodeText) {
			return &candidates[i]
		}
	}

	area := strings.ToLower(q.AreaName)
	state := strings.ToLower(q.State)
	for i := range candidates {
		name := strings.ToLower(candidates[i].DisplayName)
		if strings.Contains(name, area) && strings.Contains(name, state) {
			return &candidates[i]
		}
	}

	return &candidates[0]
}
