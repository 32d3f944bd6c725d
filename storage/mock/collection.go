package mockstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

type entity interface {
	GetID() string
}

// collection is a list of records persisted as one JSON array under a fixed key.
// It is seeded on first access.
type collection[T entity] struct {
	storage  core.Storage
	key      string
	resource string
	latency  time.Duration
	pageSize int
	seed     func(now time.Time) ([]T, error)
	now      func() time.Time

	mu sync.Mutex
}

type collectionConfig struct {
	storage core.Storage
	conf    *core.Config
	now     func() time.Time
}

func newCollection[T entity](cc collectionConfig, name, resource string, seed func(time.Time) ([]T, error)) *collection[T] {
	return &collection[T]{
		storage:  cc.storage,
		key:      cc.conf.Storage.Namespace + ".mock." + name,
		resource: resource,
		latency:  cc.conf.Mock.Latency,
		pageSize: cc.conf.Mock.PageSize,
		seed:     seed,
		now:      cc.now,
	}
}

// delay simulates a network round-trip.
func (c *collection[T]) delay(ctx context.Context) error {
	return core.Sleep(ctx, c.latency)
}

// load must be called with mu held.
func (c *collection[T]) load() ([]T, error) {
	raw, ok, err := c.storage.Get(c.key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", c.key)
	}
	if !ok {
		items, err := c.seed(c.now())
		if err != nil {
			return nil, errors.Wrapf(err, "seeding %s", c.key)
		}
		if err = c.save(items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var items []T
	if err = json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c.key)
	}
	return items, nil
}

// save must be called with mu held.
func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", c.key)
	}
	return errors.Wrapf(c.storage.Set(c.key, string(b)), "saving %s", c.key)
}

// all returns a copy of the collection after the simulated latency.
func (c *collection[T]) all(ctx context.Context) ([]T, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

func (c *collection[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.all(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.GetID() == id {
			return item, nil
		}
	}
	return zero, core.NewNotFoundError(c.resource, id)
}

func (c *collection[T]) filter(ctx context.Context, match func(T) bool) ([]T, error) {
	items, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if match == nil || match(item) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// page filters, sorts & paginates the collection.
func (c *collection[T]) page(ctx context.Context, match func(T) bool, pr core.PageRequest, sorting sorting[T]) (core.Page[T], error) {
	cmp, order, err := sorting.resolve(pr)
	if err != nil {
		return core.Page[T]{}, err
	}
	items, err := c.filter(ctx, match)
	if err != nil {
		return core.Page[T]{}, err
	}
	core.SortBy(items, cmp, order, func(item T) string { return item.GetID() })
	return core.Paginate(items, pr.Normalize(c.pageSize)), nil
}

// mutate applies fn to the whole collection and saves the result, after the simulated latency.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	if err := c.delay(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	if items, err = fn(items); err != nil {
		return err
	}
	return c.save(items)
}

func (c *collection[T]) insert(ctx context.Context, item T) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
}

// update applies fn to the record id and returns the result.
func (c *collection[T]) update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var updated T
	err := c.mutate(ctx, func(items []T) ([]T, error) {
		for i := range items {
			if items[i].GetID() == id {
				if err := fn(&items[i]); err != nil {
					return nil, err
				}
				updated = items[i]
				return items, nil
			}
		}
		return nil, core.NewNotFoundError(c.resource, id)
	})
	return updated, err
}

func (c *collection[T]) remove(ctx context.Context, id string) error {
	return c.mutate(ctx, func(items []T) ([]T, error) {
		for i := range items {
			if items[i].GetID() == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, core.NewNotFoundError(c.resource, id)
	})
}

// reset drops the persisted records; the next access seeds them again.
func (c *collection[T]) reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrapf(c.storage.Remove(c.key), "removing %s", c.key)
}

// touch returns now, strictly after prev.
func touch(now, prev time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

// sorting resolves the comparator of a page request.
type sorting[T any] struct {
	comparators  map[string]core.Comparator[T]
	defaultField string
	defaultOrder core.SortOrder
}

func (s sorting[T]) resolve(pr core.PageRequest) (core.Comparator[T], core.SortOrder, error) {
	field := core.CleanString(pr.SortBy)
	order := pr.SortOrder
	if field == "" {
		field = s.defaultField
		if order == "" {
			order = s.defaultOrder
		}
	}
	if order != core.SortDesc {
		order = core.SortAsc
	}
	cmp, ok := s.comparators[field]
	if !ok {
		return nil, "", core.NewValidationError(nil, core.FieldError{Field: "sortBy", Error: "unsupported sort field " + field})
	}
	return cmp, order, nil
}
