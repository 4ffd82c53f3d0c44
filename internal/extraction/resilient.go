package extraction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

// Policy configures retries and the circuit breaker around a provider.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Timeout bounds each individual attempt. Zero disables it.
	Timeout time.Duration

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
	BreakerHalfOpenMax  uint32
}

// DefaultPolicy returns the policy used when fields are left zero.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:         3,
		InitialBackoff:      200 * time.Millisecond,
		MaxBackoff:          2 * time.Second,
		Multiplier:          2.0,
		BreakerEnabled:      true,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  30 * time.Second,
		BreakerHalfOpenMax:  1,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = def.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if p.BreakerOpenTimeout <= 0 {
		p.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if p.BreakerHalfOpenMax == 0 {
		p.BreakerHalfOpenMax = def.BreakerHalfOpenMax
	}
	return p
}

// RetryObserver is told about every retried attempt, e.g. to count it in metrics.
type RetryObserver func(operation string)

// ResilientProvider wraps an ExtractionProvider with per-attempt timeouts,
// retries of temporary network errors and one circuit breaker per operation.
type ResilientProvider struct {
	next    port.ExtractionProvider
	policy  Policy
	log     zerolog.Logger
	onRetry RetryObserver

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

var _ port.ExtractionProvider = (*ResilientProvider)(nil)

// NewResilientProvider wraps next. A nil onRetry is ignored.
func NewResilientProvider(next port.ExtractionProvider, policy Policy, log zerolog.Logger, onRetry RetryObserver) *ResilientProvider {
	return &ResilientProvider{
		next:     next,
		policy:   policy.normalize(),
		log:      log.With().Str("component", "extraction").Logger(),
		onRetry:  onRetry,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *ResilientProvider) Upload(ctx context.Context, doc port.Document) (*port.UploadResult, error) {
	return call(ctx, r, "upload", func(ctx context.Context) (*port.UploadResult, error) {
		return r.next.Upload(ctx, doc)
	})
}

func (r *ResilientProvider) Extract(ctx context.Context, invoiceID, fileName string) (*port.ExtractionResult, error) {
	return call(ctx, r, "extract", func(ctx context.Context) (*port.ExtractionResult, error) {
		return r.next.Extract(ctx, invoiceID, fileName)
	})
}

func (r *ResilientProvider) Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error) {
	return call(ctx, r, "validate", func(ctx context.Context) (*domain.ValidationResult, error) {
		return r.next.Validate(ctx, invoiceID)
	})
}

// State reports the breaker state for an operation; "closed" if it never ran.
func (r *ResilientProvider) State(operation string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[operation]; ok {
		return b.State().String()
	}
	return gobreaker.StateClosed.String()
}

func call[T any](ctx context.Context, r *ResilientProvider, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := func() error {
		return r.retry(ctx, op, func(ctx context.Context) error {
			v, err := fn(ctx)
			if err == nil {
				out = v
			}
			return err
		})
	}

	if !r.policy.BreakerEnabled {
		return out, attempt()
	}

	_, err := r.breaker(op).Execute(func() (any, error) {
		return nil, attempt()
	})
	if isCircuitOpen(err) {
		var zero T
		return zero, &domain.NetworkError{Op: op, Err: err, Temporary: true}
	}
	return out, err
}

func (r *ResilientProvider) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := r.policy.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.once(ctx, fn)
		if err == nil {
			return nil
		}
		if !domain.IsTemporary(err) || attempt >= r.policy.MaxAttempts {
			return err
		}

		r.log.Warn().Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("backoff", backoff).
			Msg("retrying extraction call")
		if r.onRetry != nil {
			r.onRetry(op)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * r.policy.Multiplier)
		if backoff > r.policy.MaxBackoff {
			backoff = r.policy.MaxBackoff
		}
	}
}

func (r *ResilientProvider) once(ctx context.Context, fn func(context.Context) error) error {
	if r.policy.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()
	return fn(ctx)
}

func (r *ResilientProvider) breaker(op string) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[op]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: r.policy.BreakerHalfOpenMax,
		Timeout:     r.policy.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.policy.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= r.policy.BreakerFailureRatio
		},
		// Only network failures count against the provider; cancellations do not.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var netErr *domain.NetworkError
			return !errors.As(err, &netErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn().Str("operation", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	r.breakers[op] = b
	return b
}

func isCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
