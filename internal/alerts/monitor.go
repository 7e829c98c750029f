package alerts

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/stockgpt/models"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultVolatility   = 0.015
)

// MonitorOptions configures a Monitor. Zero values take the defaults.
type MonitorOptions struct {
	Interval   time.Duration
	Volatility float64
	// Rand returns a uniform value in [0, 1)
	Rand func() float64
}

// Monitor watches active alerts against a simulated price. Each check moves
// the price to initial * (1 + u) with u uniform in [-v, v).
type Monitor struct {
	alerts     *Service
	notifier   models.Notifier
	interval   time.Duration
	volatility float64
	rand       func() float64
	logger     zerolog.Logger
}

func NewMonitor(alerts *Service, notifier models.Notifier, opts MonitorOptions) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Volatility <= 0 {
		opts.Volatility = DefaultVolatility
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Monitor{
		alerts:     alerts,
		notifier:   notifier,
		interval:   opts.Interval,
		volatility: opts.Volatility,
		rand:       opts.Rand,
		logger:     log.With().Str("component", "alert_monitor").Logger(),
	}
}

// Run checks alerts on every tick until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("Alert monitor started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Alert monitor stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil {
				m.logger.Error().Err(err).Msg("Alert check failed")
			}
		}
	}
}

// Check runs one simulation step and returns the alerts it triggered. The
// list is only saved when something triggered.
func (m *Monitor) Check(ctx context.Context) ([]models.PriceAlert, error) {
	var triggered []models.PriceAlert
	err := m.alerts.update(ctx, func(list []models.PriceAlert) ([]models.PriceAlert, bool) {
		for i := range list {
			if list[i].Status != models.AlertActive {
				continue
			}
			price := m.simulate(list[i].InitialPrice)
			if list[i].Crossed(price) {
				list[i].Status = models.AlertTriggered
				triggered = append(triggered, list[i])
			}
		}
		return list, len(triggered) > 0
	})
	if err != nil {
		return nil, err
	}

	for _, a := range triggered {
		m.logger.Info().Str("id", a.ID).Str("symbol", a.Symbol).Float64("target", a.TargetPrice).Msg("Alert triggered")
		if m.notifier == nil {
			continue
		}
		body := fmt.Sprintf("Target Reached! %s has crossed %s", a.Symbol, formatPrice(a.TargetPrice))
		if err := m.notifier.Notify(ctx, "Price Alert: "+a.Symbol, body); err != nil {
			m.logger.Warn().Err(err).Str("id", a.ID).Msg("Failed to deliver alert")
		}
	}
	return triggered, nil
}

func (m *Monitor) simulate(initial float64) float64 {
	move := m.rand()*m.volatility*2 - m.volatility
	return initial * (1 + move)
}
