package detector

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/services/httpclient"
)

type State string

const (
	StateUnknown     State = "UNKNOWN"
	StateAvailable   State = "AVAILABLE"
	StateUnavailable State = "UNAVAILABLE"
)

// Status is the outcome of the last probe. It is replaced on every probe.
type Status struct {
	Available    bool          `json:"available"`
	LastChecked  time.Time     `json:"lastChecked"`
	ResponseTime time.Duration `json:"responseTime,omitempty"`
	Error        string        `json:"error,omitempty"`
}

var errUnavailable = errors.New("backend unavailable")

// Detector probes the backend health endpoint and tracks its availability.
// Subscribers are notified only when the availability changes.
type Detector struct {
	client      *httpclient.Client
	path        string
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	interval    time.Duration
	logger      core.Logger

	// overridable in tests
	sleep core.SleepFunc
	now   func() time.Time

	mu     sync.Mutex
	state  State
	status *Status

	listeners *core.Emitter[bool]

	cronMu sync.Mutex
	cron   *cron.Cron
}

func New(client *httpclient.Client, conf *core.Config, logger core.Logger) *Detector {
	return &Detector{
		client:      client,
		path:        conf.API.HealthPath,
		timeout:     conf.API.HealthCheckTimeout,
		maxAttempts: conf.Detector.MaxAttempts,
		baseDelay:   conf.Detector.BaseDelay,
		interval:    conf.Detector.Interval,
		logger:      logger,
		sleep:       core.Sleep,
		now:         func() time.Time { return time.Now().UTC() },
		state:       StateUnknown,
		listeners:   core.NewEmitter[bool]("detector", logger),
	}
}

// CheckOnce probes the health endpoint once and records the outcome.
func (d *Detector) CheckOnce(ctx context.Context) bool {
	start := d.now()
	_, err := d.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    d.path,
		Timeout: d.timeout,
		NoAuth:  true,
	})
	status := Status{Available: err == nil, LastChecked: d.now()}
	status.ResponseTime = status.LastChecked.Sub(start)
	if err != nil {
		status.Error = describe(err)
	}

	next := StateUnavailable
	if status.Available {
		next = StateAvailable
	}

	d.mu.Lock()
	changed := d.state != next
	d.state = next
	d.status = &status
	d.mu.Unlock()

	if changed {
		d.logger.Info("backend is now "+string(next), map[string]interface{}{"error": status.Error})
		d.listeners.Emit(status.Available)
	}
	return status.Available
}

// CheckWithRetry probes up to maxAttempts times, backing off exponentially between failures.
// It stops at the first success and never fails.
func (d *Detector) CheckWithRetry(ctx context.Context, maxAttempts int) bool {
	if maxAttempts < 1 {
		maxAttempts = d.maxAttempts
	}
	err := core.RetryWith(ctx, maxAttempts, d.baseDelay, d.sleep, func(ctx context.Context) error {
		if d.CheckOnce(ctx) {
			return nil
		}
		return errUnavailable
	})
	if err != nil {
		d.logger.Debug("backend check failed", err)
		return false
	}
	return true
}

// describe classifies a probe failure.
func describe(err error) string {
	switch {
	case core.IsTimeout(err):
		return "Timeout"
	case core.IsNetwork(err):
		return "Network error"
	default:
		return err.Error()
	}
}

func (d *Detector) Subscribe(fn func(available bool)) (unsubscribe func()) {
	return d.listeners.Subscribe(fn)
}

func (d *Detector) ClearListeners() {
	d.listeners.Clear()
}

// Status returns the last probe outcome; false if no probe ran yet.
func (d *Detector) Status() (Status, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == nil {
		return Status{}, false
	}
	return *d.status, true
}

func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// StartPeriodic probes the backend every configured interval until Stop or ctx is done.
func (d *Detector) StartPeriodic(ctx context.Context) error {
	d.cronMu.Lock()
	defer d.cronMu.Unlock()
	if d.cron != nil {
		return nil
	}
	if d.interval <= 0 {
		return errors.New("detector.interval must be positive")
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+d.interval.String(), func() { d.CheckOnce(ctx) }); err != nil {
		return errors.Wrap(err, "scheduling health checks")
	}
	c.Start()
	d.cron = c

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
	return nil
}

func (d *Detector) Stop() {
	d.cronMu.Lock()
	c := d.cron
	d.cron = nil
	d.cronMu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
