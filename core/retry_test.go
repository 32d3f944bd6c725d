package core

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryWith(t *testing.T) {
	errDown := errors.New("down")
	tests := []struct {
		name      string
		attempts  int
		failures  int
		wantErr   bool
		wantCalls int
		wantWaits []time.Duration
	}{
		{"first try", 3, 0, false, 1, nil},
		{"succeeds on last", 3, 2, false, 3, []time.Duration{time.Second, 2 * time.Second}},
		{"always fails", 3, 99, true, 3, []time.Duration{time.Second, 2 * time.Second}},
		{"at least once", 0, 99, true, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			var waits []time.Duration
			sleep := func(_ context.Context, d time.Duration) error {
				waits = append(waits, d)
				return nil
			}
			err := RetryWith(context.Background(), tt.attempts, time.Second, sleep, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errDown
				}
				return nil
			})
			if tt.wantErr {
				assert.Equal(t, errDown, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantWaits, waits)
		})
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{"first", time.Second, 0, time.Second},
		{"doubles", time.Second, 3, 8 * time.Second},
		{"negative attempt", time.Second, -2, time.Second},
		{"capped", time.Second, 9, MaxBackoff},
		{"no overflow", time.Second, 200, MaxBackoff},
		{"large base", time.Hour, 1, MaxBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Backoff(tt.base, tt.attempt))
		})
	}
}

func TestRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	err := Retry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
