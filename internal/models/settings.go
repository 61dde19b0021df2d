package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/talha7k/qrcode-magic/internal/constants"
)

// LogoShape is the outline of the reserved logo area
type LogoShape string

const (
	ShapeCircle LogoShape = "circle"
	ShapeSquare LogoShape = "square"
)

// RenderSettings controls how a payload is drawn
type RenderSettings struct {
	Resolution        int
	LogoSpace         bool
	LogoSizePercent   int
	LogoShape         LogoShape
	ShowBorder        bool
	BorderThicknessPx int
}

// DefaultRenderSettings returns the settings used before anything is stored
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		Resolution:        constants.DefaultResolution,
		LogoSpace:         false,
		LogoSizePercent:   constants.DefaultLogoSizePercent,
		LogoShape:         ShapeCircle,
		ShowBorder:        true,
		BorderThicknessPx: constants.DefaultBorderThickness,
	}
}

// Normalize returns s with every field forced into its allowed range
func (s RenderSettings) Normalize() RenderSettings {
	if !ValidResolution(s.Resolution) {
		s.Resolution = constants.DefaultResolution
	}
	s.LogoSizePercent = clamp(s.LogoSizePercent, constants.MinLogoSizePercent, constants.MaxLogoSizePercent)
	s.BorderThicknessPx = clamp(s.BorderThicknessPx, constants.MinBorderThickness, constants.MaxBorderThickness)
	if s.LogoShape != ShapeSquare {
		s.LogoShape = ShapeCircle
	}
	return s
}

// LogoChanged reports whether the logo reservation differs between s and other
func (s RenderSettings) LogoChanged(other RenderSettings) bool {
	return s.LogoSpace != other.LogoSpace ||
		s.LogoSizePercent != other.LogoSizePercent ||
		s.LogoShape != other.LogoShape ||
		s.ShowBorder != other.ShowBorder ||
		s.BorderThicknessPx != other.BorderThicknessPx
}

// ValidResolution reports whether px is one of the supported output sizes
func ValidResolution(px int) bool {
	for _, r := range constants.Resolutions {
		if r == px {
			return true
		}
	}
	return false
}

// ParseResolution parses "256" or "256x256"
func ParseResolution(s string) (int, error) {
	s = strings.TrimSpace(s)
	if w, h, ok := strings.Cut(s, "x"); ok {
		if w != h {
			return 0, fmt.Errorf("resolution must be square, got %q", s)
		}
		s = w
	}
	px, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid resolution %q", s)
	}
	if !ValidResolution(px) {
		return 0, fmt.Errorf("unsupported resolution %d", px)
	}
	return px, nil
}

// ParseLogoShape parses a logo shape name
func ParseLogoShape(s string) (LogoShape, error) {
	switch LogoShape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeCircle:
		return ShapeCircle, nil
	case ShapeSquare:
		return ShapeSquare, nil
	}
	return "", fmt.Errorf("unknown logo shape %q", s)
}

// settingsJSON is the persisted shape; slider values are one-element arrays
type settingsJSON struct {
	Resolution      json.RawMessage `json:"resolution"`
	LogoSpace       bool            `json:"logoSpace"`
	LogoSize        []int           `json:"logoSize"`
	LogoShape       string          `json:"logoShape"`
	ShowBorder      bool            `json:"showBorder"`
	BorderThickness []int           `json:"borderThickness"`
}

// MarshalJSON writes the persisted settings shape
func (s RenderSettings) MarshalJSON() ([]byte, error) {
	s = s.Normalize()
	res, err := json.Marshal(strconv.Itoa(s.Resolution))
	if err != nil {
		return nil, err
	}
	return json.Marshal(settingsJSON{
		Resolution:      res,
		LogoSpace:       s.LogoSpace,
		LogoSize:        []int{s.LogoSizePercent},
		LogoShape:       string(s.LogoShape),
		ShowBorder:      s.ShowBorder,
		BorderThickness: []int{s.BorderThicknessPx},
	})
}

// UnmarshalJSON reads the persisted settings shape. Missing values fall back
// to defaults and the result is normalized.
func (s *RenderSettings) UnmarshalJSON(data []byte) error {
	var raw settingsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := DefaultRenderSettings()
	if len(raw.Resolution) > 0 {
		var str string
		if err := json.Unmarshal(raw.Resolution, &str); err == nil {
			if px, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
				out.Resolution = px
			}
		} else {
			var px int
			if err := json.Unmarshal(raw.Resolution, &px); err == nil {
				out.Resolution = px
			}
		}
	}
	out.LogoSpace = raw.LogoSpace
	if len(raw.LogoSize) > 0 {
		out.LogoSizePercent = raw.LogoSize[0]
	}
	if raw.LogoShape != "" {
		out.LogoShape = LogoShape(raw.LogoShape)
	}
	out.ShowBorder = raw.ShowBorder
	if len(raw.BorderThickness) > 0 {
		out.BorderThicknessPx = raw.BorderThickness[0]
	}

	*s = out.Normalize()
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
