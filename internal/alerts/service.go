package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

// StoreKey is where the alert list lives in the key-value store
const StoreKey = "stockgpt_alerts"

var (
	ErrInvalidSymbol = errors.New("symbol is required")
	ErrInvalidPrice  = errors.New("prices must be positive")
)

// Service manages the persisted alert list. Every mutation is a
// load-modify-save under one lock so concurrent callers never lose updates.
type Service struct {
	store    models.KeyValueStore
	notifier models.Notifier
	now      func() time.Time
	mu       sync.Mutex
	logger   zerolog.Logger
}

// NewService creates an alert service. notifier may be nil.
func NewService(store models.KeyValueStore, notifier models.Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		logger:   log.With().Str("component", "alerts").Logger(),
	}
}

// List returns the alerts, newest first
func (s *Service) List(ctx context.Context) ([]models.PriceAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add creates an alert that fires when the price moves from current to target
func (s *Service) Add(ctx context.Context, symbol string, target, current float64) (models.PriceAlert, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.PriceAlert{}, ErrInvalidSymbol
	}
	if target <= 0 || current <= 0 {
		return models.PriceAlert{}, ErrInvalidPrice
	}

	condition := models.ConditionBelow
	if target > current {
		condition = models.ConditionAbove
	}
	alert := models.PriceAlert{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		TargetPrice:  target,
		InitialPrice: current,
		Condition:    condition,
		Status:       models.AlertActive,
		CreatedAt:    s.now().UnixMilli(),
	}

	err := s.update(ctx, func(list []models.PriceAlert) ([]models.PriceAlert, bool) {
		return append([]models.PriceAlert{alert}, list...), true
	})
	if err != nil {
		return models.PriceAlert{}, err
	}

	s.logger.Info().Str("id", alert.ID).Str("symbol", symbol).Str("condition", condition).Float64("target", target).Msg("Alert set")
	if s.notifier != nil {
		body := fmt.Sprintf("We'll notify you when %s goes %s %s.", symbol, strings.ToLower(condition), formatPrice(target))
		if err := s.notifier.Notify(ctx, "Alert Set: "+symbol, body); err != nil {
			s.logger.Warn().Err(err).Str("id", alert.ID).Msg("Failed to confirm alert")
		}
	}
	return alert, nil
}

// Remove deletes the alert with id and reports whether it existed
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.update(ctx, func(list []models.PriceAlert) ([]models.PriceAlert, bool) {
		out := list[:0]
		for _, a := range list {
			if a.ID == id {
				removed = true
				continue
			}
			out = append(out, a)
		}
		return out, removed
	})
	return removed, err
}

// update applies fn to the stored list and saves the result when fn reports
// a change
func (s *Service) update(ctx context.Context, fn func([]models.PriceAlert) ([]models.PriceAlert, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	updated, changed := fn(list)
	if !changed {
		return nil
	}
	return database.SetJSON(ctx, s.store, StoreKey, updated)
}

func (s *Service) load(ctx context.Context) ([]models.PriceAlert, error) {
	var list []models.PriceAlert
	if _, err := database.GetJSON(ctx, s.store, StoreKey, &list); err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	return list, nil
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}
