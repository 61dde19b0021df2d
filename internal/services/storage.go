package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/kv"
	"github.com/talha7k/qrcode-magic/internal/models"
	"github.com/talha7k/qrcode-magic/internal/validation"
)

// ErrEntryNotFound is returned when an entry id is unknown
var ErrEntryNotFound = errors.New("entry not found")

// StorageService persists saved entries, the session snapshot and render
// settings through a key-value medium. Medium failures are logged and
// surface as safe defaults to readers.
type StorageService struct {
	store  kv.Store
	logger *logrus.Logger
	// mu serializes read-modify-write of the entries record
	mu  sync.Mutex
	now func() time.Time
}

// NewStorageService creates a new storage service
func NewStorageService(store kv.Store, logger *logrus.Logger) *StorageService {
	return &StorageService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ListEntries returns all saved entries in insertion order
func (s *StorageService) ListEntries() []models.QREntry {
	entries, err := s.loadEntries()
	if err != nil {
		s.logger.Errorf("Failed to load saved entries: %v", err)
		return []models.QREntry{}
	}
	return entries
}

// GetEntriesByType returns the saved entries of type t
func (s *StorageService) GetEntriesByType(t models.QRType) []models.QREntry {
	all := s.ListEntries()
	entries := make([]models.QREntry, 0, len(all))
	for _, e := range all {
		if e.Type == t {
			entries = append(entries, e)
		}
	}
	return entries
}

// GetEntry returns the entry with the given id
func (s *StorageService) GetEntry(id string) (models.QREntry, bool) {
	for _, e := range s.ListEntries() {
		if e.ID == id {
			return e, true
		}
	}
	return models.QREntry{}, false
}

// SaveEntry stores a new named entry and returns it
func (s *StorageService) SaveEntry(name string, t models.QRType, data models.FormState) (models.QREntry, error) {
	name, err := validation.ValidateEntryName(name)
	if err != nil {
		return models.QREntry{}, err
	}
	if err := validation.ValidateEntryData(t, data); err != nil {
		return models.QREntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries()
	if err != nil {
		s.logger.Warnf("Replacing unreadable saved entries: %v", err)
		entries = []models.QREntry{}
	}

	now := s.now()
	entry := models.QREntry{
		ID:        s.newEntryID(now, entries),
		Name:      name,
		Type:      t,
		Data:      data.Clone(),
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
	}

	entries = append(entries, entry)
	if err := s.writeEntries(entries); err != nil {
		return models.QREntry{}, err
	}

	s.logger.Debugf("Saved entry %s (%s, %q)", entry.ID, entry.Type, entry.Name)
	return entry.Clone(), nil
}

// UpdateEntry merges the non-empty fields of update into the entry
func (s *StorageService) UpdateEntry(id string, update models.EntryUpdate) (models.QREntry, error) {
	patch := struct {
		Name string
		Data models.FormState
	}{}

	if update.Name != nil {
		name, err := validation.ValidateEntryName(*update.Name)
		if err != nil {
			return models.QREntry{}, err
		}
		patch.Name = name
	}
	if update.Data != nil {
		patch.Data = update.Data.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries()
	if err != nil {
		s.logger.Errorf("Failed to load saved entries: %v", err)
		return models.QREntry{}, err
	}

	for i := range entries {
		if entries[i].ID != id {
			continue
		}

		if err := copier.CopyWithOption(&entries[i], &patch, copier.Option{IgnoreEmpty: true}); err != nil {
			return models.QREntry{}, fmt.Errorf("failed to merge entry %s: %w", id, err)
		}
		if entries[i].Data != nil {
			entries[i].Type = entries[i].Data.Type()
		}
		entries[i].UpdatedAt = s.now().UnixMilli()

		if err := s.writeEntries(entries); err != nil {
			return models.QREntry{}, err
		}
		return entries[i].Clone(), nil
	}

	return models.QREntry{}, fmt.Errorf("update %s: %w", id, ErrEntryNotFound)
}

// DeleteEntry removes the entry with the given id. It reports false when the
// id is unknown or the medium failed.
func (s *StorageService) DeleteEntry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries()
	if err != nil {
		s.logger.Errorf("Failed to load saved entries: %v", err)
		return false
	}

	for i, e := range entries {
		if e.ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			if err := s.writeEntries(entries); err != nil {
				return false
			}
			s.logger.Debugf("Deleted entry %s", id)
			return true
		}
	}
	return false
}

// GetSessionSnapshot returns the stored snapshot, or nil when absent or unreadable
func (s *StorageService) GetSessionSnapshot() *models.SessionSnapshot {
	var snapshot models.SessionSnapshot
	if !s.readJSON(constants.SessionDataKey, &snapshot) {
		return nil
	}
	if !snapshot.ActiveType.Valid() {
		s.logger.Warnf("Ignoring session snapshot with unknown type %q", snapshot.ActiveType)
		return nil
	}
	return &snapshot
}

// SaveSessionSnapshot stores the snapshot, replacing the previous one
func (s *StorageService) SaveSessionSnapshot(snapshot models.SessionSnapshot) error {
	return s.writeJSON(constants.SessionDataKey, snapshot)
}

// GetSettings returns the stored settings, or nil when absent or unreadable
func (s *StorageService) GetSettings() *models.RenderSettings {
	var settings models.RenderSettings
	if !s.readJSON(constants.SettingsKey, &settings) {
		return nil
	}
	return &settings
}

// SaveSettings stores the render settings
func (s *StorageService) SaveSettings(settings models.RenderSettings) error {
	return s.writeJSON(constants.SettingsKey, settings)
}

// ClearAll removes every record the application owns
func (s *StorageService) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range []string{constants.SavedEntriesKey, constants.SessionDataKey, constants.SettingsKey} {
		if err := s.store.Remove(key); err != nil {
			serr := &apperrors.StorageError{Op: "remove", Key: key, Err: err}
			s.logger.Error(serr)
			errs = append(errs, serr)
		}
	}
	return errors.Join(errs...)
}

// loadEntries reads the entries record; a missing record is an empty list
func (s *StorageService) loadEntries() ([]models.QREntry, error) {
	raw, ok, err := s.store.Get(constants.SavedEntriesKey)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "get", Key: constants.SavedEntriesKey, Err: err}
	}
	if !ok || raw == "" {
		return []models.QREntry{}, nil
	}

	var entries []models.QREntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, &apperrors.StorageError{Op: "decode", Key: constants.SavedEntriesKey, Err: err}
	}
	if entries == nil {
		entries = []models.QREntry{}
	}
	return entries, nil
}

// writeEntries assumes mu is held
func (s *StorageService) writeEntries(entries []models.QREntry) error {
	return s.writeJSON(constants.SavedEntriesKey, entries)
}

func (s *StorageService) readJSON(key string, v interface{}) bool {
	raw, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Error(&apperrors.StorageError{Op: "get", Key: key, Err: err})
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn(&apperrors.StorageError{Op: "decode", Key: key, Err: err})
		return false
	}
	return true
}

func (s *StorageService) writeJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		serr := &apperrors.StorageError{Op: "encode", Key: key, Err: err}
		s.logger.Error(serr)
		return serr
	}
	if err := s.store.Set(key, string(data)); err != nil {
		serr := &apperrors.StorageError{Op: "set", Key: key, Err: err}
		s.logger.Error(serr)
		return serr
	}
	return nil
}

// newEntryID builds a millisecond timestamp followed by a random suffix,
// retrying until it does not collide with an existing id.
func (s *StorageService) newEntryID(now time.Time, existing []models.QREntry) string {
	taken := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		taken[e.ID] = struct{}{}
	}

	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:constants.EntryIDSuffixLen]
		id := fmt.Sprintf("%d%s", now.UnixMilli(), suffix)
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}
