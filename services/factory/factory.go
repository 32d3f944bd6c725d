package factory

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/calendar"
	"github.com/trezcool/masomo-portal/core/news"
	"github.com/trezcool/masomo-portal/core/notice"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
	restsvc "github.com/trezcool/masomo-portal/services/rest"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
)

type Mode string

const (
	ModeReal Mode = "REAL"
	ModeMock Mode = "MOCK"
)

// Prober reports whether the backend is reachable.
type Prober interface {
	CheckOnce(ctx context.Context) bool
	CheckWithRetry(ctx context.Context, maxAttempts int) bool
}

// Backend is one complete set of services.
type Backend struct {
	Auth     session.Authenticator
	News     news.Service
	Notices  notice.Service
	Calendar calendar.Service
	Users    user.Service
}

func RESTBackend(s *restsvc.Services) Backend {
	return Backend{Auth: s.Auth, News: s.News, Notices: s.Notices, Calendar: s.Calendar, Users: s.Users}
}

func MockBackend(s *mockstore.Stores) Backend {
	return Backend{Auth: s.Auth, News: s.News, Notices: s.Notices, Calendar: s.Calendar, Users: s.Users}
}

// Factory selects between the real and the mock services.
// The mode only changes through Initialize and the explicit switches.
type Factory struct {
	prober      Prober
	mockMode    bool
	maxAttempts int
	real, mock  Backend
	logger      core.Logger

	initMu sync.Mutex // serializes Initialize & SwitchToReal probes

	mu          sync.RWMutex
	mode        Mode
	initialized bool

	modeChanges *core.Emitter[Mode]
	dispatcher  *Dispatcher
}

func New(prober Prober, real, mock Backend, conf *core.Config, logger core.Logger) *Factory {
	f := &Factory{
		prober:      prober,
		mockMode:    conf.MockMode,
		maxAttempts: conf.Detector.MaxAttempts,
		real:        real,
		mock:        mock,
		logger:      logger,
		mode:        ModeReal,
		modeChanges: core.NewEmitter[Mode]("factory", logger),
	}
	f.dispatcher = &Dispatcher{f: f}
	return f
}

// Initialize selects the mode once: MOCK when forced by configuration, otherwise REAL if the
// backend answers within the configured attempts, MOCK if not. Later calls are no-ops.
func (f *Factory) Initialize(ctx context.Context) {
	f.initMu.Lock()
	defer f.initMu.Unlock()

	if f.IsInitialized() {
		return
	}
	if f.mockMode {
		f.logger.Info("mock mode forced by configuration")
		f.setMode(ModeMock)
		return
	}
	if f.prober.CheckWithRetry(ctx, f.maxAttempts) {
		f.initMode(ModeReal)
		return
	}
	f.logger.Warn("backend unavailable, falling back to mock services")
	f.initMode(ModeMock)
}

// initMode applies the probe outcome unless an explicit switch happened while probing.
func (f *Factory) initMode(mode Mode) {
	if !f.applyMode(mode, true) {
		f.logger.Info("mode switched while probing, ignoring probe outcome")
	}
}

// SwitchToMock always succeeds.
func (f *Factory) SwitchToMock() {
	f.setMode(ModeMock)
}

// SwitchToReal probes the backend once and switches only if it is available.
func (f *Factory) SwitchToReal(ctx context.Context) bool {
	f.initMu.Lock()
	defer f.initMu.Unlock()

	if !f.prober.CheckOnce(ctx) {
		f.logger.Warn("backend unavailable, staying in " + string(f.Mode()) + " mode")
		return false
	}
	f.setMode(ModeReal)
	return true
}

func (f *Factory) setMode(mode Mode) {
	f.applyMode(mode, false)
}

// applyMode sets mode and marks the factory initialized. With onlyFirst, nothing changes
// once the factory is initialized. Listeners are notified outside the lock.
func (f *Factory) applyMode(mode Mode, onlyFirst bool) bool {
	f.mu.Lock()
	if onlyFirst && f.initialized {
		f.mu.Unlock()
		return false
	}
	prev := f.mode
	f.mode = mode
	f.initialized = true
	f.mu.Unlock()

	if prev != mode {
		f.logger.Info("service mode changed to " + string(mode))
		f.modeChanges.Emit(mode)
	}
	return true
}

func (f *Factory) Mode() Mode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

func (f *Factory) IsMockMode() bool { return f.Mode() == ModeMock }

func (f *Factory) IsInitialized() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.initialized
}

func (f *Factory) OnModeChange(fn func(Mode)) (unsubscribe func()) {
	return f.modeChanges.Subscribe(fn)
}

// Services returns the dispatcher routing every call to the active backend.
func (f *Factory) Services() *Dispatcher { return f.dispatcher }

func (f *Factory) active() Backend {
	if f.IsMockMode() {
		return f.mock
	}
	return f.real
}
