package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/models"
)

// ValidateEntryName validates and trims a saved entry name
func ValidateEntryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &apperrors.ValidationError{Field: "name", Message: "name must not be empty"}
	}

	if utf8.RuneCountInString(name) > constants.MaxEntryNameLength {
		return "", &apperrors.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name cannot exceed %d characters", constants.MaxEntryNameLength),
		}
	}

	for _, r := range name {
		if !isValidNameChar(r) {
			return "", &apperrors.ValidationError{Field: "name", Message: "name contains control characters"}
		}
	}

	return name, nil
}

// ValidateEntryData checks that data is present and matches the declared type
func ValidateEntryData(t models.QRType, data models.FormState) error {
	if !t.Valid() {
		return &apperrors.ValidationError{Field: "type", Message: fmt.Sprintf("unknown QR type %q", t)}
	}
	if data == nil {
		return &apperrors.ValidationError{Field: "data", Message: "form data is required"}
	}
	if data.Type() != t {
		return &apperrors.ValidationError{
			Field:   "data",
			Message: fmt.Sprintf("form data is %s, entry type is %s", data.Type(), t),
		}
	}
	return nil
}

// ValidatePercent parses a logo size percentage within the supported range
func ValidatePercent(s string) (int, error) {
	return parseBounded("logoSize", s, constants.MinLogoSizePercent, constants.MaxLogoSizePercent)
}

// ValidateBorderThickness parses a border thickness in pixels
func ValidateBorderThickness(s string) (int, error) {
	return parseBounded("borderThickness", s, constants.MinBorderThickness, constants.MaxBorderThickness)
}

// ParseToggle parses on/off style booleans
func ParseToggle(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, &apperrors.ValidationError{Field: "toggle", Message: fmt.Sprintf("expected on or off, got %q", s)}
}

func parseBounded(field, s string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, &apperrors.ValidationError{Field: field, Message: "must be a number"}
	}
	if v < lo || v > hi {
		return 0, &apperrors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d", lo, hi),
		}
	}
	return v, nil
}

// isValidNameChar rejects control characters
func isValidNameChar(r rune) bool {
	return !unicode.IsControl(r)
}
