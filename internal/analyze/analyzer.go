package analyze

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/stockgpt/models"
)

// Defaults used when Options leaves a field zero
const (
	DefaultRequestTimeout = 120 * time.Second
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
)

// Options configures an Analyzer. APIKey is only checked for presence here;
// the Generator owns the actual credential.
type Options struct {
	APIKey         string
	RequestTimeout time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MinQueryLength int
}

// Analyzer turns a free-text query into a validated AnalysisResult.
// It holds no mutable state and may serve concurrent requests.
type Analyzer struct {
	gen    Generator
	opts   Options
	probe  Connectivity
	timer  func() backoff.Timer
	logger zerolog.Logger
}

// Option customises an Analyzer
type Option func(*Analyzer)

// WithConnectivity sets the pre-flight connectivity check
func WithConnectivity(probe Connectivity) Option {
	return func(a *Analyzer) {
		if probe != nil {
			a.probe = probe
		}
	}
}

// WithTimer sets the factory for the timer used between attempts
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(a *Analyzer) {
		a.timer = newTimer
	}
}

// WithLogger replaces the component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New validates the configuration and builds an Analyzer
func New(opts Options, gen Generator, options ...Option) (*Analyzer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, newClassified(CodeMissingCredential, errors.New("no API credential configured"))
	}
	if gen == nil {
		return nil, errors.New("analyze: generator is required")
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}

	a := &Analyzer{
		gen:    gen,
		opts:   opts,
		probe:  assumeOnline{},
		logger: log.With().Str("component", "analyzer").Logger(),
	}
	for _, option := range options {
		option(a)
	}
	return a, nil
}

// Analyze runs the whole pipeline for one query. Every failure comes back
// as a *ClassifiedError.
func (a *Analyzer) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	req, err := a.preflight(ctx, query)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(req.Query)
	a.logger.Debug().Str("query", req.Query).Str("system_instruction", prompt.SystemInstruction).Msg("Built analysis prompt")

	r := &retrier{
		maxAttempts: a.opts.MaxAttempts,
		initial:     a.opts.InitialBackoff,
		newTimer:    a.timer,
		logger:      a.logger,
	}

	start := time.Now()
	var result *models.AnalysisResult
	attempts, err := r.run(ctx, func(ctx context.Context) error {
		var attemptErr error
		result, attemptErr = a.attempt(ctx, prompt)
		return attemptErr
	})
	if err != nil {
		classified := classify(err)
		classified.Attempts = attempts
		a.logger.Error().
			Err(err).
			Str("query", req.Query).
			Str("code", string(classified.Code)).
			Bool("retryable", classified.Retryable).
			Int("attempts", attempts).
			Msg("Analysis failed")
		return nil, classified
	}

	a.logger.Info().
		Str("symbol", result.Symbol).
		Str("recommendation", result.Signal.Recommendation).
		Int("attempts", attempts).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis completed")
	return result, nil
}

// attempt is one invocation followed by the response pipeline
func (a *Analyzer) attempt(ctx context.Context, prompt Prompt) (*models.AnalysisResult, error) {
	reply, err := invoke(ctx, a.gen, prompt, a.opts.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return Process(reply)
}

// Process extracts, repairs, validates and types a successful reply
func Process(reply *Reply) (*models.AnalysisResult, error) {
	tree, err := extract(reply.Text)
	if err != nil {
		return nil, err
	}

	repair(tree)
	if err := validateTree(tree); err != nil {
		return nil, err
	}

	result := toResult(tree)
	if err := checkResult(result); err != nil {
		return nil, err
	}

	if reply.Grounding != nil {
		result.Grounding = reply.Grounding
	}
	return result, nil
}
