package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/storage/local"
)

// NewConfig loads the TEST configuration: memory storage, no mock latency, no rollbar.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}
	return conf
}

func NewStorage() *local.Memory {
	return local.NewMemory(NopLogger{})
}

// NewValidator returns a validator with every domain validation registered.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	return v
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// RecordingLogger keeps every message, prefixed by its level.
type RecordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

var _ core.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		msg = fmt.Sprintf("%s %v", msg, args)
	}
	l.msgs = append(l.msgs, level+": "+msg)
}

func (l *RecordingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.record("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...interface{})  { l.record("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...interface{})  { l.record("warn", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.record("error", msg, args) }
func (l *RecordingLogger) Fatal(msg string, args ...interface{}) { l.record("fatal", msg, args) }
