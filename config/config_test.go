package config

import "testing"

func TestLoadValuationSubject(t *testing.T) {
	t.Setenv("VALUATION_ADDRESS", "12 Example Ave")
	t.Setenv("VALUATION_AREA", "Camberwell")
	t.Setenv("VALUATION_POSTCODE", "3124")
	t.Setenv("POSTCODES", "3000,3121")

	cfg := Load()

	if cfg.ValuationPostcode != 3124 {
		t.Errorf("ValuationPostcode = %d, want 3124", cfg.ValuationPostcode)
	}
	if cfg.ValuationAddress != "12 Example Ave" || cfg.ValuationArea != "Camberwell" {
		t.Errorf("subject address not carried: %q / %q", cfg.ValuationAddress, cfg.ValuationArea)
	}
}

func TestLoadValuationPostcodeDefault(t *testing.T) {
	t.Setenv("VALUATION_POSTCODE", "")

	cfg := Load()

	// The subject's postcode has its own default and does not follow the
	// scrape postcode list.
	if cfg.ValuationPostcode != 3000 {
		t.Errorf("ValuationPostcode default = %d, want 3000", cfg.ValuationPostcode)
	}
}
