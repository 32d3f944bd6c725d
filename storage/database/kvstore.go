package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

// KVStore is a core.Storage backed by the kv_store table, scoped to one namespace.
type KVStore struct {
	db        *sqlx.DB
	namespace string
	timeout   time.Duration
	changes   *core.Emitter[core.StorageChange]
}

var _ core.Storage = (*KVStore)(nil)

type kvRow struct {
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewKVStore(db *sqlx.DB, conf *core.Config, logger core.Logger) *KVStore {
	return &KVStore{
		db:        db,
		namespace: conf.Storage.Namespace,
		timeout:   5 * time.Second,
		changes:   core.NewEmitter[core.StorageChange]("storage", logger),
	}
}

func (s *KVStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *KVStore) Get(key string) (string, bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var row kvRow
	err := s.db.GetContext(ctx, &row,
		`SELECT value, updated_at FROM kv_store WHERE namespace = $1 AND key = $2`, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return row.Value, true, nil
}

func (s *KVStore) Set(key, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (namespace, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.namespace, key, value)
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	s.changes.Emit(core.StorageChange{Key: key, Value: value})
	return nil
}

func (s *KVStore) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE namespace = $1 AND key = $2`, s.namespace, key)
	if err != nil {
		return errors.Wrapf(err, "removing %s", key)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.changes.Emit(core.StorageChange{Key: key, Removed: true})
	}
	return nil
}

func (s *KVStore) Watch(fn func(core.StorageChange)) func() {
	return s.changes.Subscribe(fn)
}

// Keys lists the keys of the namespace, sorted.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv_store WHERE namespace = $1 ORDER BY key`, s.namespace)
	return keys, errors.Wrap(err, "listing keys")
}
