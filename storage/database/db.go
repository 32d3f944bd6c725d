package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Open connects to the postgres database at conf.Storage.DSN and creates the kv_store table if absent.
func Open(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if conf.Storage.DSN == "" {
		return nil, errors.New("storage.dsn is required by the postgres driver")
	}
	db, err := sqlx.Open("postgres", conf.Storage.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating kv_store")
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if sErr := core.Sleep(ctx, time.Duration(attempts)*100*time.Millisecond); sErr != nil {
			break
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}
