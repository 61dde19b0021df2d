package models

import (
	"encoding/json"
	"fmt"
)

// QREntry is a named, saved form
type QREntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      QRType    `json:"type"`
	Data      FormState `json:"data"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// EntryUpdate holds the fields to merge into an entry; nil fields are kept
type EntryUpdate struct {
	Name *string
	Data FormState
}

type entryJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      QRType          `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
}

// UnmarshalJSON decodes the data object according to the entry type
func (e *QREntry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	form, err := DecodeForm(raw.Type, raw.Data)
	if err != nil {
		return fmt.Errorf("entry %s: %w", raw.ID, err)
	}

	*e = QREntry{
		ID:        raw.ID,
		Name:      raw.Name,
		Type:      raw.Type,
		Data:      form,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}

// Clone returns a deep copy of the entry
func (e QREntry) Clone() QREntry {
	if e.Data != nil {
		e.Data = e.Data.Clone()
	}
	return e
}
