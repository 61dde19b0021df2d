// Package kv defines the key-value medium the persistence layer writes
// through, with file, in-memory and SQLite implementations.
package kv

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Store is a string key-value medium. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes the key; removing a missing key is not an error.
	Remove(key string) error
}

// Driver names accepted by Open
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open creates the medium for the configured driver
func Open(driver, path string, logger *logrus.Logger) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverFile:
		return NewFileStore(path, logger), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Close releases the medium if it holds resources
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
