package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/stockgpt/internal/alerts"
	"github.com/Alias1177/stockgpt/internal/notify"
	"github.com/Alias1177/stockgpt/internal/render"
	"github.com/Alias1177/stockgpt/models"
)

func newAlertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage simulated price alerts",
	}
	cmd.AddCommand(
		newAlertsAddCmd(a),
		newAlertsListCmd(a),
		newAlertsRemoveCmd(a),
		newAlertsWatchCmd(a),
	)
	return cmd
}

func newAlertsAddCmd(a *app) *cobra.Command {
	var current float64
	cmd := &cobra.Command{
		Use:   "add [symbol] [target]",
		Short: "Set an alert for when symbol crosses target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("target %q is not a number", args[1])
			}
			alert, err := alerts.NewService(a.store, a.notifier()).Add(cmd.Context(), args[0], target, current)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Alert %s set: %s %s %.2f\n", alert.ID, alert.Symbol, alert.Condition, alert.TargetPrice)
			return nil
		},
	}
	cmd.Flags().Float64Var(&current, "price", 0, "current price of the symbol")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAlertsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := alerts.NewService(a.store, nil).List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, render.Alerts(list))
			return nil
		},
	}
}

func newAlertsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [id]",
		Short: "Remove an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := alerts.NewService(a.store, nil).Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no alert with id %s", args[0])
			}
			fmt.Fprintf(a.out, "Alert %s removed\n", args[0])
			return nil
		},
	}
}

func newAlertsWatchCmd(a *app) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the alert monitor until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			notifier := a.notifier()
			monitor := alerts.NewMonitor(alerts.NewService(a.store, notifier), notifier, alerts.MonitorOptions{
				Interval:   a.cfg.PollInterval(),
				Volatility: a.cfg.AlertVolatility,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return monitor.Run(ctx)
			})
			if duration > 0 {
				g.Go(func() error {
					select {
					case <-time.After(duration):
						cancel()
					case <-ctx.Done():
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

// notifier logs every notification and also sends it to Telegram when a bot
// is configured
func (a *app) notifier() models.Notifier {
	n := notify.Multi{notify.NewLog(log.Logger)}
	if a.cfg.TelegramBotToken == "" || a.cfg.TelegramChatID == 0 {
		return n
	}
	tg, err := notify.NewTelegram(a.cfg.TelegramBotToken, a.cfg.TelegramChatID)
	if err != nil {
		log.Warn().Err(err).Msg("Telegram notifications disabled")
		return n
	}
	return append(n, tg)
}
