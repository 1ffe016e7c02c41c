package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/pagemill/pagemill/internal/domain"
)

// Sleeper waits for d or until ctx is cancelled. Injectable so tests can
// observe backoff without waiting.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryPolicy runs one model call through the shared retry state machine:
// up to maxAttempts attempts; an HTTP-status failure at or above 400 is
// retried after backoffBase**attempt seconds, a status below 400 or any
// non-HTTP failure aborts immediately, and exhausting the budget raises
// an error carrying the last status. Every failure names the batch.
type retryPolicy struct {
	maxAttempts int
	backoffBase int
	sleep       Sleeper
}

func (p retryPolicy) do(ctx context.Context, batchNum int, op func() error) error {
	var lastStatus int
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var se *domain.StatusError
		if !errors.As(err, &se) {
			return &domain.ModelCallError{BatchNum: batchNum, Kind: domain.CallFatal, Err: err}
		}
		if se.Code < 400 {
			return &domain.ModelCallError{BatchNum: batchNum, Kind: domain.CallFatal, Status: se.Code, Err: err}
		}

		lastStatus = se.Code
		if attempt == p.maxAttempts-1 {
			break
		}

		wait := time.Duration(math.Pow(float64(p.backoffBase), float64(attempt))) * time.Second
		if serr := p.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return &domain.ModelCallError{
		BatchNum: batchNum,
		Kind:     domain.CallExhausted,
		Status:   lastStatus,
		Err:      &domain.StatusError{Code: lastStatus},
	}
}
