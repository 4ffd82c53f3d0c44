// Package extraction selects and wraps the document extraction provider.
package extraction

import (
	"fmt"
	"sync"

	"invoicedash/internal/config"
	"invoicedash/internal/extraction/mock"
	"invoicedash/internal/port"
)

// ProviderFactory creates an ExtractionProvider from the extraction config.
type ProviderFactory func(cfg *config.ExtractionConfig) (port.ExtractionProvider, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{
		"mock": newMockProvider,
	}
)

// RegisterProvider registers an extraction provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// NewProvider creates an ExtractionProvider using the factory registered for cfg.Provider.
func NewProvider(cfg *config.ExtractionConfig) (port.ExtractionProvider, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

func newMockProvider(cfg *config.ExtractionConfig) (port.ExtractionProvider, error) {
	if cfg.FailureRate < 0 || cfg.FailureRate > 1 {
		return nil, fmt.Errorf("extraction failure rate must be within [0,1], got %v", cfg.FailureRate)
	}
	return mock.NewProvider(mock.Options{
		UploadLatency:   cfg.UploadLatency,
		ExtractLatency:  cfg.ExtractLatency,
		ValidateLatency: cfg.ValidateDelay,
		FailureRate:     cfg.FailureRate,
		Seed:            cfg.Seed,
	}), nil
}
