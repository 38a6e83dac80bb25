package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/blissify/internal/shared"
)

// Reconnector keeps one player connection alive across commands.
//
// Before each command it pings the connection and redials on failure, at most Attempts times.
// The command itself is run once; a failed command is never repeated.
type Reconnector struct {
	dial     DialFunc
	attempts int
	timeout  time.Duration
	logger   *log.Logger
	client   mpdClient
}

// NewReconnector creates a Reconnector. A non-positive attempts value allows a single redial.
func NewReconnector(dial DialFunc, attempts int, timeout time.Duration, logger *log.Logger) *Reconnector {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconnector{dial: dial, attempts: attempts, timeout: timeout, logger: logger}
}

// Do runs fn against a live connection.
//
// Failures to connect and command errors are wrapped with [shared.ErrQueueUnavailable] and keep their cause, so timeouts
// still match [shared.ErrTimeout] and cancellation matches the context error.
func (r *Reconnector) Do(ctx context.Context, name string, fn func(mpdClient) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := r.connection()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrQueueUnavailable, name, err)
	}

	if err := r.run(ctx, client, fn); err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrQueueUnavailable, name, err)
	}
	return nil
}

// Close drops the current connection.
func (r *Reconnector) Close() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *Reconnector) connection() (mpdClient, error) {
	if r.client != nil {
		err := r.client.Ping()
		if err == nil {
			return r.client, nil
		}
		r.logger.Warn("player connection lost", "error", err)
		r.client.Close()
		r.client = nil
	}

	var lastErr error
	for i := 0; i < r.attempts; i++ {
		c, err := r.dial()
		if err == nil {
			r.client = c
			return c, nil
		}
		lastErr = err
		r.logger.Debug("dial failed", "attempt", i+1, "error", err)
	}
	return nil, fmt.Errorf("connect failed after %d attempt(s): %w", r.attempts, lastErr)
}

// run executes fn with the per-command timeout; a timed out connection is dropped.
func (r *Reconnector) run(ctx context.Context, client mpdClient, fn func(mpdClient) error) error {
	if r.timeout <= 0 {
		return fn(client)
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(client)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		r.Close()
		return ctx.Err()
	case <-time.After(r.timeout):
		r.Close()
		return shared.ErrTimeout
	}
}
