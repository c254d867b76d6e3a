package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Hell1213/Oss-Dev/internal/app"
	"github.com/Hell1213/Oss-Dev/internal/application/port/output"
	"github.com/Hell1213/Oss-Dev/internal/domain/conversation"
)

// RetryingGateway wraps another gateway with bounded exponential
// backoff. Only transient failures are retried; permanent faults
// surface immediately. Exhausting the budget yields
// output.ErrOracleUnavailable so the loop halts resumably.
type RetryingGateway struct {
	inner       output.OracleGateway
	maxAttempts int
	initialWait time.Duration
	logger      app.Logger
}

// NewRetryingGateway wraps inner with up to maxAttempts tries
func NewRetryingGateway(inner output.OracleGateway, maxAttempts int, logger app.Logger) *RetryingGateway {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &RetryingGateway{
		inner:       inner,
		maxAttempts: maxAttempts,
		initialWait: 500 * time.Millisecond,
		logger:      logger,
	}
}

func (g *RetryingGateway) Name() string { return g.inner.Name() }

// Invoke delegates to the wrapped gateway, retrying transient failures
func (g *RetryingGateway) Invoke(ctx context.Context, messages []conversation.Message, tools []output.ToolSchema) (*output.OracleResponse, error) {
	var resp *output.OracleResponse
	attempt := 0

	operation := func() error {
		attempt++
		r, err := g.inner.Invoke(ctx, messages, tools)
		if err != nil {
			if !output.IsTransient(err) {
				return backoff.Permanent(err)
			}
			g.logger.Warn("oracle attempt %d/%d failed: %v", attempt, g.maxAttempts, err)
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.initialWait
	bounded := backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(g.maxAttempts-1)), ctx)

	if err := backoff.Retry(operation, bounded); err != nil {
		if output.IsTransient(err) {
			return nil, fmt.Errorf("%w: %d attempts: %v", output.ErrOracleUnavailable, attempt, err)
		}
		return nil, err
	}
	return resp, nil
}
