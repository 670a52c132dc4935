package services

import (
	"fmt"
	"sort"
	"strings"

	"property-scraper/models"
	"property-scraper/utils"
)

// InsightService summarises one mode's stored rows after an ingestion run.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(mode models.Mode, rows []*models.PropertyRow) *models.MarketReport {
	report := &models.MarketReport{
		Mode:           mode,
		ByPostcode:     make(map[int]int),
		ByPropertyType: make(map[models.PropertyType]int),
	}

	if len(rows) == 0 {
		return report
	}

	report.TotalProperties = len(rows)
	report.MinPrice = rows[0].Price
	report.MaxPrice = rows[0].Price

	var total int
	for _, r := range rows {
		total += r.Price
		if r.Price < report.MinPrice {
			report.MinPrice = r.Price
		}
		if r.Price >= report.MaxPrice {
			report.MaxPrice = r.Price
			report.MostExpensive = r
		}
		report.ByPostcode[r.Postcode]++
		report.ByPropertyType[r.PropertyType]++
	}
	report.AveragePrice = float64(total) / float64(len(rows))

	return report
}

func (s *InsightService) Print(r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	unit := priceUnit(r.Mode)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  PROPERTY MARKET SUMMARY — %s\033[0m\n", strings.ToUpper(r.Mode.String()))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Stored properties : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Println()

	fmt.Printf("\033[1;33m  Price Statistics%s\033[0m\n", unit)
	fmt.Printf("  %s\n", thin)
	if r.TotalProperties > 0 {
		fmt.Printf("  Average price : \033[1;32m$%.0f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m$%d\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m$%d\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Property\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s (%s)\n", fullAddress(r.MostExpensive), r.MostExpensive.PropertyType)
		fmt.Printf("  Price : \033[1;31m$%d%s\033[0m\n", r.MostExpensive.Price, unit)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Properties by Postcode\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByPostcode) == 0 {
		fmt.Printf("  No data\n")
	} else {
		for _, pc := range sortedPostcodes(r.ByPostcode) {
			printCountBar(fmt.Sprintf("%04d", pc), r.ByPostcode[pc])
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Properties by Type\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByPropertyType) == 0 {
		fmt.Printf("  No data\n")
	} else {
		for _, pt := range sortedTypes(r.ByPropertyType) {
			printCountBar(pt.String(), r.ByPropertyType[pt])
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func priceUnit(mode models.Mode) string {
	if mode == models.ModeRental {
		return " (per week)"
	}
	return ""
}

func fullAddress(r *models.PropertyRow) string {
	if r.Unit != "" {
		return r.Unit + "/" + r.StreetAddress
	}
	return r.StreetAddress
}

func printCountBar(label string, count int) {
	bar := strings.Repeat("█", count)
	fmt.Printf("  %-14s %s (%d)\n", label, bar, count)
}

func sortedPostcodes(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedTypes(m map[models.PropertyType]int) []models.PropertyType {
	keys := make([]models.PropertyType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
