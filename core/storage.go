package core

// StorageChange is emitted after every write to a Storage.
type StorageChange struct {
	Key     string
	Value   string
	Removed bool
}

// Storage is a string key-value store for state persisted across restarts
// (session, settings, mock collections).
type Storage interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error and emits nothing.
	Remove(key string) error
	// Watch registers fn for every change made through any handle sharing this store.
	Watch(fn func(StorageChange)) (unsubscribe func())
}
