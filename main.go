package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"property-scraper/config"
	"property-scraper/geocode"
	"property-scraper/models"
	"property-scraper/postcodes"
	"property-scraper/scraper/domain"
	"property-scraper/services"
	"property-scraper/storage"
	"property-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Property Listing Pipeline starting ===")
	logger.Info("Config — state: %s | mode: %s | page limit: %d | geocoder: %s",
		cfg.State, cfg.Mode, cfg.PageLimit, cfg.GeocoderBaseURL)

	codes := cfg.Postcodes
	if cfg.PostcodesXLSX != "" {
		fromSheet, err := postcodes.ByState(cfg.PostcodesXLSX, cfg.State)
		if err != nil {
			logger.Error("Failed to read postcode workbook: %v", err)
			os.Exit(1)
		}
		codes = fromSheet
	}
	logger.Info("Target postcodes (%d): %v", len(codes), codes)

	resolver := geocode.NewCached(geocode.NewNominatim(
		cfg.GeocoderBaseURL,
		time.Duration(cfg.GeocoderTimeoutS)*time.Second,
		cfg.GeocoderEmail,
		logger,
	))

	store, err := storage.NewSpatialStore(cfg.DSN(), resolver, logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure a PostGIS-enabled database is running")
		os.Exit(1)
	}
	defer store.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()

	scraper := domain.New(cfg, logger, resolver)
	insightSvc := services.NewInsightService(logger)
	ctx := context.Background()

	for _, mode := range modesFor(cfg.Mode, logger) {
		records, err := scraper.Collect(ctx, mode, codes)
		if err != nil {
			logger.Error("%s collection failed: %v", mode, err)
			continue
		}
		if len(records) == 0 {
			logger.Warn("No %s records were collected", mode)
			continue
		}

		if err := csvWriter.WriteRecords(records); err != nil {
			logger.Error("CSV write failed: %v", err)
		} else {
			logger.Info("Raw records appended to %s", cfg.CSVOutputPath)
		}

		stats, err := store.Upsert(ctx, records, mode)
		if err != nil {
			logger.Error("Upsert into %s failed: %v", mode.TableName(), err)
			continue
		}
		logger.Info("%s upsert complete — %d new, %d refreshed", mode, stats.Inserted, stats.Refreshed)

		rows, err := store.FetchAll(ctx, mode)
		if err != nil {
			logger.Error("Failed to fetch %s rows for insights: %v", mode, err)
			continue
		}
		insightSvc.Print(insightSvc.Generate(mode, rows))
	}

	if cfg.ValuationAddress != "" {
		runValuation(ctx, cfg, store, logger)
	}

	fmt.Printf("  Done. Raw CSV → %s | Properties → PostgreSQL (%s)\n\n",
		cfg.CSVOutputPath, cfg.PostgresDB)
}

// modesFor maps the configured mode string to the ingestion passes to run.
func modesFor(mode string, logger *utils.Logger) []models.Mode {
	switch strings.ToLower(mode) {
	case "rental":
		return []models.Mode{models.ModeRental}
	case "sold":
		return []models.Mode{models.ModeSold}
	case "both":
		return []models.Mode{models.ModeRental, models.ModeSold}
	default:
		logger.Warn("Unknown MODE %q — defaulting to rental", mode)
		return []models.Mode{models.ModeRental}
	}
}

// runValuation estimates the configured subject address with both
// approaches. Insufficient comparables is reported, not treated as failure.
func runValuation(ctx context.Context, cfg *config.Config, store *storage.SpatialStore, logger *utils.Logger) {
	subjectType := models.TypeHouse
	if cfg.ValuationType != "" {
		subjectType = models.PropertyTypeFromCode(rune(strings.ToUpper(cfg.ValuationType)[0]))
	}
	if subjectType == models.TypeUnknown {
		logger.Error("Unknown VALUATION_TYPE %q — skipping valuation", cfg.ValuationType)
		return
	}

	subject := services.Subject{
		Address:       cfg.ValuationAddress,
		AreaName:      cfg.ValuationArea,
		State:         cfg.State,
		Postcode:      cfg.ValuationPostcode,
		PropertyType:  subjectType,
		BedroomCount:  cfg.ValuationBedrooms,
		BathroomCount: cfg.ValuationBathrooms,
		ParkingCount:  cfg.ValuationParking,
	}

	valuator := services.NewValuator(store, logger, cfg.CapRate)

	income, err := valuator.IncomeEstimate(ctx, subject)
	switch {
	case err == nil:
		fmt.Printf("  Income-approach estimate for %s: $%.0f\n", subject.Address, income)
	case errors.Is(err, services.ErrInsufficientData):
		fmt.Printf("  Income-approach estimate for %s: insufficient rental comparables\n", subject.Address)
	default:
		logger.Error("Income valuation failed: %v", err)
	}

	sales, err := valuator.SalesComparisonEstimate(ctx, subject)
	switch {
	case err == nil:
		fmt.Printf("  Sales-comparison estimate for %s: $%.0f\n", subject.Address, sales)
	case errors.Is(err, services.ErrInsufficientData):
		fmt.Printf("  Sales-comparison estimate for %s: insufficient sold comparables\n", subject.Address)
	default:
		logger.Error("Sales-comparison valuation failed: %v", err)
	}
}
