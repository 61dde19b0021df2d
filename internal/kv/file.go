package kv

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileStore keeps all keys in one JSON object file
type FileStore struct {
	filename string
	data     map[string]string
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewFileStore creates a file-backed store and loads existing data
func NewFileStore(filename string, logger *logrus.Logger) *FileStore {
	s := &FileStore{
		filename: filename,
		data:     make(map[string]string),
		logger:   logger,
	}

	if err := s.Load(); err != nil {
		logger.Warnf("Failed to load storage file: %v", err)
	}

	return s
}

// Load reads data from the JSON file
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filename)
	if os.IsNotExist(err) {
		s.logger.Info("Storage file does not exist, starting with empty data")
		return nil
	}
	if err != nil {
		return err
	}

	loaded := make(map[string]string)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}
	s.data = loaded
	return nil
}

// Get returns the value stored under key
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	return value, ok, nil
}

// Set stores value under key and writes the file
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if existed {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Remove deletes key and writes the file
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.save()
}

// save writes data atomically; the mutex must be held
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpFile, s.filename)
}
