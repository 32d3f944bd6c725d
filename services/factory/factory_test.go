package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/services/detector"
	"github.com/trezcool/masomo-portal/services/httpclient"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
	"github.com/trezcool/masomo-portal/tests"
)

var ctx = context.Background()

type fakeProber struct {
	available   bool
	once, retry int
	attempts    int
}

func (p *fakeProber) CheckOnce(context.Context) bool {
	p.once++
	return p.available
}

func (p *fakeProber) CheckWithRetry(_ context.Context, maxAttempts int) bool {
	p.retry++
	p.attempts = maxAttempts
	return p.available
}

func setup(t *testing.T, prober Prober, mockMode bool) (*Factory, *mockstore.Stores, *mockstore.Stores) {
	conf := testutil.NewConfig(t)
	conf.MockMode = mockMode
	real := mockstore.New(testutil.NewStorage(), conf, testutil.NewValidator())
	mock := mockstore.New(testutil.NewStorage(), conf, testutil.NewValidator())
	return New(prober, MockBackend(real), MockBackend(mock), conf, testutil.NopLogger{}), real, mock
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		mockMode  bool
		available bool
		wantMode  Mode
		wantProbe int
	}{
		{"forced mock mode never probes", true, true, ModeMock, 0},
		{"backend available", false, true, ModeReal, 1},
		{"backend unavailable", false, false, ModeMock, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &fakeProber{available: tt.available}
			f, _, _ := setup(t, prober, tt.mockMode)
			assert.False(t, f.IsInitialized())
			assert.Equal(t, ModeReal, f.Mode(), "REAL until initialized")

			f.Initialize(ctx)
			assert.True(t, f.IsInitialized())
			assert.Equal(t, tt.wantMode, f.Mode())
			assert.Equal(t, tt.wantMode == ModeMock, f.IsMockMode())
			assert.Equal(t, tt.wantProbe, prober.retry)
			assert.Equal(t, 0, prober.once)

			// idempotent
			prober.available = !prober.available
			f.Initialize(ctx)
			assert.Equal(t, tt.wantMode, f.Mode())
			assert.Equal(t, tt.wantProbe, prober.retry)
		})
	}
}

func TestInitialize_UsesConfiguredAttempts(t *testing.T) {
	prober := &fakeProber{available: true}
	f, _, _ := setup(t, prober, false)
	f.Initialize(ctx)
	assert.Equal(t, f.maxAttempts, prober.attempts)
}

func TestSwitch(t *testing.T) {
	prober := &fakeProber{available: true}
	f, _, _ := setup(t, prober, false)
	f.Initialize(ctx)

	var changes []Mode
	unsubscribe := f.OnModeChange(func(m Mode) { changes = append(changes, m) })

	f.SwitchToMock()
	assert.True(t, f.IsMockMode())
	f.SwitchToMock()

	prober.available = false
	assert.False(t, f.SwitchToReal(ctx))
	assert.True(t, f.IsMockMode(), "unchanged on failure")
	assert.Equal(t, 1, prober.once)

	prober.available = true
	assert.True(t, f.SwitchToReal(ctx))
	assert.Equal(t, ModeReal, f.Mode())
	assert.Equal(t, 2, prober.once)

	assert.Equal(t, []Mode{ModeMock, ModeReal}, changes)

	unsubscribe()
	f.SwitchToMock()
	assert.Len(t, changes, 2)
}

// blockingProber holds CheckWithRetry until released.
type blockingProber struct {
	fakeProber
	started, release chan struct{}
}

func (p *blockingProber) CheckWithRetry(ctx context.Context, maxAttempts int) bool {
	close(p.started)
	<-p.release
	return p.fakeProber.CheckWithRetry(ctx, maxAttempts)
}

func TestSwitchToMock_DuringInitialize(t *testing.T) {
	prober := &blockingProber{
		fakeProber: fakeProber{available: true},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	f, _, _ := setup(t, prober, false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Initialize(ctx)
	}()
	<-prober.started

	f.SwitchToMock()
	require.True(t, f.IsInitialized())
	close(prober.release)
	<-done

	assert.Equal(t, ModeMock, f.Mode(), "explicit switch wins over the probe")
	assert.Equal(t, 1, prober.retry)
}

func TestDispatcher_ResolvesPerCall(t *testing.T) {
	prober := &fakeProber{available: true}
	f, real, mock := setup(t, prober, false)

	// held before the mode is known
	svc := f.Services().News()
	f.Initialize(ctx)

	created, err := svc.CreateNews(ctx, news.NewNews{Title: "real", Content: "c", Category: "misc"})
	require.NoError(t, err)
	_, err = real.News.GetNewsByID(ctx, created.ID)
	assert.NoError(t, err)

	f.SwitchToMock()
	_, err = svc.GetNewsByID(ctx, created.ID)
	assert.True(t, core.IsNotFound(err), "routed to the mock backend")

	created, err = svc.CreateNews(ctx, news.NewNews{Title: "mock", Content: "c", Category: "misc"})
	require.NoError(t, err)
	_, err = mock.News.GetNewsByID(ctx, created.ID)
	assert.NoError(t, err)
}

func TestDispatcher_MockLogin(t *testing.T) {
	f, _, _ := setup(t, &fakeProber{}, true)
	f.Initialize(ctx)

	for _, c := range mockstore.Credentials {
		grant, err := f.Services().Login(ctx, user.Credentials{Username: c.Username, Password: c.Password})
		require.NoError(t, err)
		assert.Equal(t, c.Role, grant.User.Role)
	}
	_, err := f.Services().Login(ctx, user.Credentials{Username: "admin", Password: "nope"})
	assert.Equal(t, core.ErrInvalidCredentials, err)
	assert.False(t, core.IsNetwork(err))
}

func TestForcedMockMode_NoNetwork(t *testing.T) {
	var probes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { probes++ }))
	t.Cleanup(srv.Close)

	conf := testutil.NewConfig(t)
	conf.API.BaseURL = srv.URL
	client := httpclient.New(conf, testutil.NewStorage(), testutil.NopLogger{})
	prober := detector.New(client, conf, testutil.NopLogger{})
	f, _, _ := setup(t, prober, true)

	f.Initialize(ctx)
	assert.True(t, f.IsMockMode())
	assert.Equal(t, 0, probes)
	assert.Equal(t, detector.StateUnknown, prober.State())
}
