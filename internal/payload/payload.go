// Package payload turns typed form state into the canonical strings that
// phone scanners understand: vCard 3.0, the WIFI: schema, sms: and mailto:
// URIs, raw text and https URLs.
//
// Encode returns the empty string when the form does not carry enough data
// to be worth rendering. Callers treat "" as "nothing to render".
//
// Field values are emitted verbatim. Characters reserved by a format (for
// example ';' in a vCard ORG or a WiFi SSID) are not escaped.
package payload

import (
	"fmt"
	"strings"

	"github.com/talha7k/qrcode-magic/internal/models"
)

// Encode maps a form to its payload string
func Encode(form models.FormState) string {
	switch f := form.(type) {
	case *models.TextForm:
		return encodeText(f)
	case *models.URLForm:
		return encodeURL(f)
	case *models.ContactForm:
		return encodeContact(f)
	case *models.WiFiForm:
		return encodeWiFi(f)
	case *models.SMSForm:
		return encodeSMS(f)
	case *models.EmailForm:
		return encodeEmail(f)
	default:
		return ""
	}
}

func encodeText(f *models.TextForm) string {
	if f.IsBlank() {
		return ""
	}
	return f.Text
}

func encodeURL(f *models.URLForm) string {
	url := strings.TrimSpace(f.URL)
	if url == "" {
		return ""
	}
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	return "https://" + url
}

func encodeWiFi(f *models.WiFiForm) string {
	if strings.TrimSpace(f.SSID) == "" {
		return ""
	}
	security := f.Security
	if security == "" {
		security = models.SecurityWPA
	}
	return fmt.Sprintf("WIFI:T:%s;S:%s;P:%s;H:%t;;", security, f.SSID, f.Password, f.Hidden)
}

func encodeSMS(f *models.SMSForm) string {
	if f.IsBlank() {
		return ""
	}
	return fmt.Sprintf("sms:%s?body=%s", f.Phone, EncodeURIComponent(f.Message))
}

func encodeEmail(f *models.EmailForm) string {
	if f.IsBlank() {
		return ""
	}
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		f.To, EncodeURIComponent(f.Subject), EncodeURIComponent(f.Body))
}
