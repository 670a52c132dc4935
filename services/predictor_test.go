package services

import (
	"errors"
	"testing"

	"property-scraper/utils"
)

type constantPredictor float64

func (c constantPredictor) Predict(features []float64) (float64, error) {
	return float64(c), nil
}

func TestModelRegistryLoadsLazilyAndCaches(t *testing.T) {
	loads := 0
	loader := func(name string) (Predictor, error) {
		loads++
		return constantPredictor(650000), nil
	}

	registry := NewModelRegistry(loader, utils.NewLogger())
	if loads != 0 {
		t.Fatal("registry must not load anything before first use")
	}

	for i := 0; i < 3; i++ {
		got, err := registry.Predict(RegressionModel, []float64{3000, 2, 1, 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 650000 {
			t.Errorf("prediction: got %.0f, want 650000", got)
		}
	}

	if loads != 1 {
		t.Errorf("expected 1 load, got %d", loads)
	}
}

func TestModelRegistryLoadFailure(t *testing.T) {
	loader := func(name string) (Predictor, error) {
		return nil, errors.New("artifact missing on disk")
	}

	registry := NewModelRegistry(loader, utils.NewLogger())
	if _, err := registry.Predict(ClassificationModel, nil); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
