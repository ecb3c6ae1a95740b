package retry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fastConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

var errFlaky = errors.New("connection reset")

func TestExecuteSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := New(fastConfig(), quietLogger()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteGivesUp(t *testing.T) {
	calls := 0
	err := New(fastConfig(), quietLogger()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 4, calls)
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("record is terminal")
	cfg := fastConfig()
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	err := New(cfg, quietLogger()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := New(fastConfig(), quietLogger()).Execute(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDelayIsCapped(t *testing.T) {
	r := New(Config{BaseDelay: 50 * time.Millisecond, MaxDelay: 2 * time.Second, Multiplier: 2}, quietLogger())

	assert.Equal(t, 50*time.Millisecond, r.delay(0))
	assert.Equal(t, 400*time.Millisecond, r.delay(3))
	assert.Equal(t, 2*time.Second, r.delay(10))
}
