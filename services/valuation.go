package services

import (
	"context"
	"errors"
	"sort"

	"property-scraper/models"
	"property-scraper/storage"
	"property-scraper/utils"
)

// ErrInsufficientData means too few comparables exist near the subject for
// an estimate. It is a normal negative outcome, not a failure of the query.
var ErrInsufficientData = errors.New("not enough comparables for a valuation")

const (
	incomeComparables    = 10
	minIncomeComparables = 3
	salesComparables     = 20
	minSalesComparables  = 5

	defaultCapRate = 0.05
)

// Subject describes the property being valued.
type Subject struct {
	Address       string
	AreaName      string
	State         string
	Postcode      int
	PropertyType  models.PropertyType
	BedroomCount  int
	BathroomCount int
	ParkingCount  int
}

// Valuator produces heuristic value estimates from nearby comparables.
// Neither estimator is authoritative; both simply summarise market evidence.
type Valuator struct {
	source  storage.ComparableSource
	logger  *utils.Logger
	capRate float64
}

// NewValuator creates a Valuator. A non-positive capRate falls back to the
// default capitalisation rate.
func NewValuator(source storage.ComparableSource, logger *utils.Logger, capRate float64) *Valuator {
	if capRate <= 0 {
		capRate = defaultCapRate
	}
	return &Valuator{source: source, logger: logger, capRate: capRate}
}

// IncomeEstimate values the subject by rental capitalisation: the median
// weekly rent of the nearest comparable rentals, annualised and divided by
// the capitalisation rate.
func (v *Valuator) IncomeEstimate(ctx context.Context, subject Subject) (float64, error) {
	comparables, err := v.comparables(ctx, subject, models.ModeRental, incomeComparables)
	if err != nil {
		return 0, err
	}
	if len(comparables) < minIncomeComparables {
		v.logger.Warn("[valuation] Only %d rental comparables near %q — need %d",
			len(comparables), subject.Address, minIncomeComparables)
		return 0, ErrInsufficientData
	}

	medianRent := medianPrice(comparables)
	estimate := medianRent * 12 / v.capRate

	v.logger.Info("[valuation] Income estimate for %q: %.0f (median rent %.0f/week, cap rate %.2f)",
		subject.Address, estimate, medianRent, v.capRate)
	return estimate, nil
}

// SalesComparisonEstimate values the subject as the median price of the
// nearest comparable sold properties.
func (v *Valuator) SalesComparisonEstimate(ctx context.Context, subject Subject) (float64, error) {
	comparables, err := v.comparables(ctx, subject, models.ModeSold, salesComparables)
	if err != nil {
		return 0, err
	}
	if len(comparables) < minSalesComparables {
		v.logger.Warn("[valuation] Only %d sold comparables near %q — need %d",
			len(comparables), subject.Address, minSalesComparables)
		return 0, ErrInsufficientData
	}

	estimate := medianPrice(comparables)
	v.logger.Info("[valuation] Sales-comparison estimate for %q: %.0f (%d comparables)",
		subject.Address, estimate, len(comparables))
	return estimate, nil
}

func (v *Valuator) comparables(ctx context.Context, subject Subject, mode models.Mode, k int) ([]*models.PropertyRow, error) {
	return v.source.QueryKNearest(ctx, models.NearestQuery{
		Address:         subject.Address,
		AreaName:        subject.AreaName,
		State:           subject.State,
		Postcode:        subject.Postcode,
		K:               k,
		Mode:            mode,
		PropertyType:    subject.PropertyType,
		BedroomCount:    subject.BedroomCount,
		BathroomCount:   subject.BathroomCount,
		ParkingCount:    subject.ParkingCount,
		RangePercentage: -1, // all comparables count, no price band
	})
}

// medianPrice returns the median of the rows' prices; the mean of the two
// middle values when the count is even.
func medianPrice(rows []*models.PropertyRow) float64 {
	prices := make([]int, len(rows))
	for i, r := range rows {
		prices[i] = r.Price
	}
	sort.Ints(prices)

	n := len(prices)
	if n%2 == 1 {
		return float64(prices[n/2])
	}
	return float64(prices[n/2-1]+prices[n/2]) / 2
}
