package models

import (
	"encoding/json"
	"fmt"
)

// SessionSnapshot is the process-wide working state restored at startup
type SessionSnapshot struct {
	ActiveType      QRType         `json:"activeType"`
	CurrentFormData FormState      `json:"currentFormData"`
	Settings        RenderSettings `json:"settings"`
}

type sessionJSON struct {
	ActiveType      QRType          `json:"activeType"`
	CurrentFormData json.RawMessage `json:"currentFormData"`
	Settings        json.RawMessage `json:"settings"`
}

// UnmarshalJSON decodes the form according to the active type
func (s *SessionSnapshot) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	form, err := DecodeForm(raw.ActiveType, raw.CurrentFormData)
	if err != nil {
		return fmt.Errorf("session form: %w", err)
	}

	settings := DefaultRenderSettings()
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		if err := json.Unmarshal(raw.Settings, &settings); err != nil {
			return fmt.Errorf("session settings: %w", err)
		}
	}

	*s = SessionSnapshot{
		ActiveType:      raw.ActiveType,
		CurrentFormData: form,
		Settings:        settings,
	}
	return nil
}
