package service

import (
	"context"

	"github.com/rs/zerolog"

	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

// SettingsService reads and changes the runtime routing thresholds.
type SettingsService interface {
	Thresholds(ctx context.Context) (*domain.ConfidenceThresholds, error)
	SetThresholds(ctx context.Context, t domain.ConfidenceThresholds, actor string) (*domain.ConfidenceThresholds, error)
}

type settingsService struct {
	repo port.InvoiceRepository
	log  zerolog.Logger
}

// NewSettingsService creates a new SettingsService implementation.
func NewSettingsService(repo port.InvoiceRepository, log zerolog.Logger) SettingsService {
	return &settingsService{repo: repo, log: log.With().Str("component", "settings_service").Logger()}
}

func (s *settingsService) Thresholds(_ context.Context) (*domain.ConfidenceThresholds, error) {
	t := s.repo.Thresholds()
	return &t, nil
}

func (s *settingsService) SetThresholds(_ context.Context, t domain.ConfidenceThresholds, actor string) (*domain.ConfidenceThresholds, error) {
	previous := s.repo.Thresholds()
	if err := s.repo.SetThresholds(t); err != nil {
		return nil, err
	}
	s.log.Info().
		Float64("auto_approve", t.AutoApprove).
		Float64("review", t.Review).
		Float64("previous_auto_approve", previous.AutoApprove).
		Float64("previous_review", previous.Review).
		Str("actor", actor).
		Msg("settingsService.SetThresholds: thresholds changed")
	return &t, nil
}
