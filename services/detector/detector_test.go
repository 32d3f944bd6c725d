package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/services/httpclient"
	"github.com/trezcool/masomo-portal/tests"
)

// flakyBackend fails its first `failures` health checks.
type flakyBackend struct {
	failures int32
	probes   int32
}

func (b *flakyBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&b.probes, 1)
	if n <= atomic.LoadInt32(&b.failures) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
		return
	}
	_, _ = w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
}

func newDetector(t *testing.T, handler http.Handler) (*Detector, *[]time.Duration) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := testutil.NewConfig(t)
	conf.API.BaseURL = srv.URL
	client := httpclient.New(conf, testutil.NewStorage(), testutil.NopLogger{})

	d := New(client, conf, testutil.NopLogger{})
	var waits []time.Duration
	d.sleep = func(_ context.Context, dur time.Duration) error {
		waits = append(waits, dur)
		return nil
	}
	return d, &waits
}

func TestCheckOnce(t *testing.T) {
	backend := &flakyBackend{failures: 1}
	d, _ := newDetector(t, backend)
	assert.Equal(t, StateUnknown, d.State())
	_, ok := d.Status()
	assert.False(t, ok)

	var notified []bool
	d.Subscribe(func(available bool) { notified = append(notified, available) })

	assert.False(t, d.CheckOnce(context.Background()))
	status, ok := d.Status()
	require.True(t, ok)
	assert.False(t, status.Available)
	assert.Equal(t, "maintenance", status.Error)
	assert.Equal(t, StateUnavailable, d.State())

	assert.True(t, d.CheckOnce(context.Background()))
	assert.True(t, d.CheckOnce(context.Background()))
	status, _ = d.Status()
	assert.True(t, status.Available)
	assert.Empty(t, status.Error)
	assert.Equal(t, StateAvailable, d.State())

	assert.Equal(t, []bool{false, true}, notified, "notified on change only")
}

func TestCheckWithRetry(t *testing.T) {
	t.Run("fails n-1 times", func(t *testing.T) {
		backend := &flakyBackend{failures: 3}
		d, waits := newDetector(t, backend)

		assert.True(t, d.CheckWithRetry(context.Background(), 4))
		assert.EqualValues(t, 4, backend.probes)
		require.Len(t, *waits, 3)
		for i := 1; i < len(*waits); i++ {
			assert.Greater(t, int64((*waits)[i]), int64((*waits)[i-1]))
		}
	})

	t.Run("always fails", func(t *testing.T) {
		backend := &flakyBackend{failures: 1000}
		d, waits := newDetector(t, backend)

		assert.False(t, d.CheckWithRetry(context.Background(), 3))
		assert.EqualValues(t, 3, backend.probes)
		assert.Len(t, *waits, 2)
	})

	t.Run("first success", func(t *testing.T) {
		backend := &flakyBackend{}
		d, waits := newDetector(t, backend)

		assert.True(t, d.CheckWithRetry(context.Background(), 3))
		assert.EqualValues(t, 1, backend.probes)
		assert.Empty(t, *waits)
	})
}

func TestErrorClassification(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		d, _ := newDetector(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		d.timeout = 20 * time.Millisecond
		assert.False(t, d.CheckOnce(context.Background()))
		status, _ := d.Status()
		assert.Equal(t, "Timeout", status.Error)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		conf := testutil.NewConfig(t)
		conf.API.BaseURL = srv.URL
		d := New(httpclient.New(conf, testutil.NewStorage(), testutil.NopLogger{}), conf, testutil.NopLogger{})

		assert.False(t, d.CheckOnce(context.Background()))
		status, _ := d.Status()
		assert.Equal(t, "Network error", status.Error)
	})

	assert.Equal(t, "boom", describe(&core.HTTPError{Status: 500, Message: "boom"}))
}

func TestListeners(t *testing.T) {
	logger := new(testutil.RecordingLogger)
	d, _ := newDetector(t, &flakyBackend{})
	d.listeners = core.NewEmitter[bool]("detector", logger)

	var calls []string
	d.Subscribe(func(bool) { calls = append(calls, "first") })
	d.Subscribe(func(bool) { panic("listener bug") })
	unsubscribe := d.Subscribe(func(bool) { calls = append(calls, "removed") })
	d.Subscribe(func(bool) { calls = append(calls, "last") })
	unsubscribe()

	assert.True(t, d.CheckOnce(context.Background()))
	assert.Equal(t, []string{"first", "last"}, calls)
	require.Len(t, logger.Messages(), 1)
	assert.Contains(t, logger.Messages()[0], "detector listener failed")

	d.ClearListeners()
	d.state = StateUnknown
	d.CheckOnce(context.Background())
	assert.Len(t, calls, 2)
}

func TestStartPeriodic(t *testing.T) {
	backend := &flakyBackend{}
	d, _ := newDetector(t, backend)
	d.interval = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.StartPeriodic(ctx))
	require.NoError(t, d.StartPeriodic(ctx), "already running")

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&backend.probes) >= 1 }, 3*time.Second, 50*time.Millisecond)
	d.Stop()
	assert.Equal(t, StateAvailable, d.State())
}
