package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/stockgpt/internal/analyze"
	"github.com/Alias1177/stockgpt/internal/config"
	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

// errReported marks a failure that was already printed for the user
var errReported = errors.New("reported")

// app carries the dependencies shared by every command. Tests fill in cfg,
// store and gen up front; otherwise they are built on first use.
type app struct {
	cfg   *config.Config
	store models.KeyValueStore
	gen   analyze.Generator
	out   io.Writer
	close func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout}
	err := newRootCmd(a).ExecuteContext(ctx)
	if a.close != nil {
		if cerr := a.close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to close store")
		}
	}
	if err != nil {
		if !errors.Is(err, errReported) {
			log.Error().Err(err).Msg("Command failed")
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stockgpt",
		Short: "AI stock analysis grounded in live web search",
		Long: `StockGPT asks a search-grounded Gemini model for a structured analysis of a
stock, company or market question, repairs and validates the reply, and
renders it in the terminal.

Examples:
  stockgpt auth login --email you@example.com --password secret1
  stockgpt analyze AAPL "NVIDIA vs AMD" RELIANCE.NS
  stockgpt alerts add TSLA 250 --price 238.4`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.AddCommand(
		newAnalyzeCmd(a),
		newAlertsCmd(a),
		newAuthCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	setupLogger(a.cfg.LogLevel)

	if a.store == nil {
		db, err := database.New(a.cfg.StorePath)
		if err != nil {
			return err
		}
		a.store = db
		a.close = db.Close
	}
	return nil
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
