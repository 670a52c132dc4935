package services

import (
	"errors"
	"fmt"
	"sync"

	"property-scraper/utils"
)

// Fixed logical names for externally trained model artifacts.
const (
	RegressionModel     = "property_regression_model"
	ClassificationModel = "property_classification_model"
)

// ErrModelUnavailable means no artifact could be loaded for the requested
// logical name.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// Predictor is a trained model capable of scoring one feature vector.
// Training and artifact encoding happen outside this module.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// PredictorLoader materialises a Predictor from its persisted artifact.
type PredictorLoader func(name string) (Predictor, error)

// ModelRegistry hands out predictors by logical name, loading each artifact
// lazily on first use and caching it for the rest of the process lifetime.
type ModelRegistry struct {
	loader PredictorLoader
	logger *utils.Logger

	mu     sync.Mutex
	loaded map[string]Predictor
}

// NewModelRegistry creates a registry backed by the given loader.
func NewModelRegistry(loader PredictorLoader, logger *utils.Logger) *ModelRegistry {
	return &ModelRegistry{
		loader: loader,
		logger: logger,
		loaded: make(map[string]Predictor),
	}
}

// Predict scores the features with the named model, loading it first if this
// is its first use.
func (r *ModelRegistry) Predict(name string, features []float64) (float64, error) {
	predictor, err := r.get(name)
	if err != nil {
		return 0, err
	}
	return predictor.Predict(features)
}

func (r *ModelRegistry) get(name string) (Predictor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.loaded[name]; ok {
		return p, nil
	}

	p, err := r.loader(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrModelUnavailable, name, err)
	}

	r.logger.Info("[models] Loaded %q", name)
	r.loaded[name] = p
	return p, nil
}
