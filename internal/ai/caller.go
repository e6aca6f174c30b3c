package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// Options configure the call policy shared by the grader and the generator.
type Options struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	RatePerSecond float64
	Burst         int
	ModelName     string
}

// caller runs a prompt through a TextGenerator with a per-call timeout,
// a client-side rate limit and bounded retries on transient failures.
type caller struct {
	gen     TextGenerator
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}
	return o
}

// MaxCallDuration bounds one call including rate-limit waits, retries and backoff.
func (o Options) MaxCallDuration() time.Duration {
	o = o.withDefaults()
	return o.Timeout*time.Duration(o.MaxRetries+1) + o.RetryBackoff*time.Duration(o.MaxRetries)
}

func newCaller(gen TextGenerator, opts Options, logger *slog.Logger) caller {
	opts = opts.withDefaults()

	limit := rate.Inf
	burst := opts.Burst
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return caller{
		gen:     gen,
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
		logger:  logger,
	}
}

// call returns the raw model output and the number of calls made.
func (c caller) call(ctx context.Context, operation, prompt string) (string, int, error) {
	for attempt := 1; ; attempt++ {
		// The limiter wait counts against the per-call timeout.
		callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		var text string
		err := c.limiter.Wait(callCtx)
		limited := err != nil
		if !limited {
			text, err = c.gen.Generate(callCtx, prompt)
		}
		timedOut := limited || errors.Is(callCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			return text, attempt, nil
		}
		if ctx.Err() != nil {
			return "", attempt, ctx.Err()
		}
		if timedOut && !errors.Is(err, ErrTimeout) {
			err = errors.Join(ErrTimeout, err)
		}

		if !IsTransient(err) || attempt > c.opts.MaxRetries {
			return "", attempt, err
		}

		c.logger.Warn("Retrying generative model call",
			"operation", operation,
			"attempt", attempt,
			"error", err)

		select {
		case <-time.After(c.opts.RetryBackoff):
		case <-ctx.Done():
			return "", attempt, ctx.Err()
		}
	}
}

func reasonFor(err error) DegradedReason {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return ReasonNotConfigured
	case errors.Is(err, ErrRefused):
		return ReasonRefused
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}
