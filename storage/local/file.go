package local

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

// File is a core.Storage persisted as one JSON object in <dir>/<namespace>.json.
// Every write replaces the file atomically.
//
// The file is read once, in NewFile. Watch only reports writes made through the same
// *File, so changes made by another process (or another File on the same path) are
// neither seen nor signalled until the next NewFile.
type File struct {
	mu      sync.Mutex
	path    string
	data    map[string]string
	changes *core.Emitter[core.StorageChange]
}

var _ core.Storage = (*File)(nil)

func NewFile(conf *core.Config, logger core.Logger) (*File, error) {
	dir := conf.Storage.Path
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "creating storage dir %s", dir)
	}
	f := &File{
		path:    filepath.Join(dir, conf.Storage.Namespace+".json"),
		data:    make(map[string]string),
		changes: core.NewEmitter[core.StorageChange]("storage", logger),
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading %s", f.path)
	}
	if len(b) == 0 {
		return nil
	}
	if err = json.Unmarshal(b, &f.data); err != nil {
		return errors.Wrapf(err, "decoding %s", f.path)
	}
	return nil
}

// flush must be called with mu held.
func (f *File) flush() error {
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding storage")
	}
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, f.path), "replacing %s", f.path)
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.changes.Emit(core.StorageChange{Key: key, Value: value})
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	prev, ok := f.data[key]
	if !ok {
		f.mu.Unlock()
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.changes.Emit(core.StorageChange{Key: key, Removed: true})
	return nil
}

func (f *File) Watch(fn func(core.StorageChange)) func() {
	return f.changes.Subscribe(fn)
}

func (f *File) Path() string { return f.path }
