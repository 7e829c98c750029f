package analyze

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// retrier runs an attempt up to maxAttempts times. Delays start at initial
// and double each time without jitter; non-retryable causes stop at once.
type retrier struct {
	maxAttempts int
	initial     time.Duration
	newTimer    func() backoff.Timer
	logger      zerolog.Logger
}

func (r *retrier) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxDelay(r.initial, r.maxAttempts)
	b.MaxElapsedTime = 0

	retries := r.maxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// maxDelay is initial doubled once per attempt, saturating well below the
// time.Duration range so the cap never wraps negative
func maxDelay(initial time.Duration, attempts int) time.Duration {
	d := initial
	for i := 0; i < attempts && d <= math.MaxInt64/4; i++ {
		d *= 2
	}
	return d
}

// run returns the number of attempts made and the last error
func (r *retrier) run(ctx context.Context, attempt func(ctx context.Context) error) (int, error) {
	attempts := 0
	operation := func() error {
		attempts++
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !Classify(err).Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("code", string(Classify(err))).
			Int("attempt", attempts).
			Dur("delay", delay).
			Msg("Analysis attempt failed, retrying")
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}
	err := backoff.RetryNotifyWithTimer(operation, r.policy(ctx), notify, timer)
	return attempts, err
}
