package models

import (
	"fmt"
	"strings"
)

// QRType identifies the content kind encoded into a QR code
type QRType string

const (
	TypeText    QRType = "text"
	TypeURL     QRType = "url"
	TypeContact QRType = "contact"
	TypeWiFi    QRType = "wifi"
	TypeSMS     QRType = "sms"
	TypeEmail   QRType = "email"
)

// AllTypes returns the supported types in display order
func AllTypes() []QRType {
	return []QRType{TypeText, TypeURL, TypeContact, TypeWiFi, TypeSMS, TypeEmail}
}

// ParseQRType parses a type tag, case-insensitively
func ParseQRType(s string) (QRType, error) {
	t := QRType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown QR type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported types
func (t QRType) Valid() bool {
	switch t {
	case TypeText, TypeURL, TypeContact, TypeWiFi, TypeSMS, TypeEmail:
		return true
	}
	return false
}

// Title returns the human readable name of the type
func (t QRType) Title() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeURL:
		return "Website URL"
	case TypeContact:
		return "Contact Info"
	case TypeWiFi:
		return "WiFi Password"
	case TypeSMS:
		return "SMS Message"
	case TypeEmail:
		return "Email"
	default:
		return string(t)
	}
}

// Description returns a one-line description of the type
func (t QRType) Description() string {
	switch t {
	case TypeText:
		return "Convert any text into a QR code"
	case TypeURL:
		return "Link to any website or webpage"
	case TypeContact:
		return "Share contact details and vCard"
	case TypeWiFi:
		return "Share WiFi credentials easily"
	case TypeSMS:
		return "Pre-filled text message"
	case TypeEmail:
		return "Pre-filled email with subject"
	default:
		return ""
	}
}
