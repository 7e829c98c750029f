package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/stockgpt/internal/analyze"
	"github.com/Alias1177/stockgpt/internal/api/gemini"
	"github.com/Alias1177/stockgpt/internal/auth"
	"github.com/Alias1177/stockgpt/internal/history"
	stockhttp "github.com/Alias1177/stockgpt/internal/platform/http"
	"github.com/Alias1177/stockgpt/internal/render"
	"github.com/Alias1177/stockgpt/models"
)

// maxConcurrentQueries bounds parallel analyses from one invocation
const maxConcurrentQueries = 4

type outcome struct {
	Query  string
	Result *models.AnalysisResult
	Error  *analyze.ClassifiedError
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var asJSON bool
	var style string

	cmd := &cobra.Command{
		Use:   "analyze [query]...",
		Short: "Analyze one or more stocks, companies or market questions",
		Long: `Runs a grounded analysis for every query. Queries run concurrently and are
printed in the order given. Requires a signed-in user.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := auth.NewService(a.store).Require(ctx); err != nil {
				fmt.Fprintf(a.out, "%v Run `stockgpt auth login` first.\n", err)
				return errReported
			}

			analyzer, err := a.analyzer(ctx)
			if err != nil {
				fmt.Fprintln(a.out, render.Error("config", err))
				return errReported
			}

			outcomes := runQueries(ctx, analyzer, args)

			hist := history.NewStore(a.store)
			failed := false
			for _, o := range outcomes {
				var failure error
				if o.Error != nil {
					failed = true
					failure = o.Error
				}
				if err := hist.Record(ctx, o.Query, o.Result, failure); err != nil {
					log.Warn().Err(err).Msg("Failed to record history")
				}
			}

			if asJSON {
				if err := printJSON(a, outcomes); err != nil {
					return err
				}
			} else if err := printReports(a, style, outcomes); err != nil {
				return err
			}

			if failed {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&style, "style", "dark", "markdown style: dark, light, notty or ascii")
	return cmd
}

// analyzer wires the Gemini client, the rate-limited transport and the
// connectivity probe into an Analyzer
func (a *app) analyzer(ctx context.Context) (*analyze.Analyzer, error) {
	gen := a.gen
	if gen == nil {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:         a.cfg.GeminiAPIKey,
			Model:          a.cfg.GeminiModel,
			ThinkingBudget: int32(a.cfg.ThinkingBudget),
			HTTPClient:     stockhttp.NewClient(stockhttp.ClientOptions{RequestsPerMinute: a.cfg.RequestsPerMinute}),
		})
		if err != nil {
			return nil, err
		}
		gen = client
	}

	var opts []analyze.Option
	if a.cfg.ConnectivityProbe != "" {
		opts = append(opts, analyze.WithConnectivity(analyze.DialProbe{Address: a.cfg.ConnectivityProbe}))
	}
	return analyze.New(analyze.Options{
		APIKey:         a.cfg.GeminiAPIKey,
		RequestTimeout: a.cfg.Timeout(),
		MaxAttempts:    a.cfg.MaxAttempts,
		InitialBackoff: a.cfg.InitialBackoff(),
		MinQueryLength: a.cfg.MinQueryLength,
	}, gen, opts...)
}

// runQueries analyses every query concurrently. One failing query never
// cancels the others.
func runQueries(ctx context.Context, analyzer *analyze.Analyzer, queries []string) []outcome {
	outcomes := make([]outcome, len(queries))
	var g errgroup.Group
	g.SetLimit(maxConcurrentQueries)

	for i, q := range queries {
		g.Go(func() error {
			outcomes[i].Query = q
			result, err := analyzer.Analyze(ctx, q)
			if err != nil {
				var classified *analyze.ClassifiedError
				if !errors.As(err, &classified) {
					classified = &analyze.ClassifiedError{Code: analyze.Classify(err), Message: err.Error(), Err: err}
				}
				outcomes[i].Error = classified
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func printReports(a *app, style string, outcomes []outcome) error {
	r, err := render.New(render.Options{Style: style})
	if err != nil {
		return err
	}
	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		if o.Error != nil {
			fmt.Fprintln(a.out, render.Error(o.Query, o.Error))
			continue
		}
		report, err := r.Analysis(o.Result)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, report)
	}
	return nil
}

type jsonError struct {
	Code      analyze.Code `json:"code"`
	Message   string       `json:"message"`
	Retryable bool         `json:"retryable"`
	Attempts  int          `json:"attempts"`
}

type jsonOutcome struct {
	Query  string                 `json:"query"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  *jsonError             `json:"error,omitempty"`
}

func printJSON(a *app, outcomes []outcome) error {
	out := make([]jsonOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		j := jsonOutcome{Query: o.Query, Result: o.Result}
		if o.Error != nil {
			j.Error = &jsonError{Code: o.Error.Code, Message: o.Error.Message, Retryable: o.Error.Retryable, Attempts: o.Error.Attempts}
		}
		out = append(out, j)
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
