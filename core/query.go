package core

import (
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Query string helpers shared by the API client and server.

func SetString(q url.Values, key, s string) {
	if s != "" {
		q.Set(key, s)
	}
}

func SetBool(q url.Values, key string, b *bool) {
	if b != nil {
		q.Set(key, strconv.FormatBool(*b))
	}
}

func SetTime(q url.Values, key string, t time.Time) {
	if !t.IsZero() {
		q.Set(key, t.UTC().Format(time.RFC3339Nano))
	}
}

// QueryBool returns nil when key is absent.
func QueryBool(q url.Values, key string) (*bool, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, queryError(key, "must be a boolean")
	}
	return &b, nil
}

// QueryTime accepts RFC 3339 timestamps and plain dates (YYYY-MM-DD, UTC).
func QueryTime(q url.Values, key string) (time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, queryError(key, "must be a RFC 3339 timestamp or a date")
}

func queryError(key, msg string) error {
	return NewValidationError(errors.Errorf("%s %s", key, msg), FieldError{Field: key, Error: msg})
}
