package payload

import (
	"strings"

	"github.com/talha7k/qrcode-magic/internal/models"
)

const (
	defaultPhoneKind   = "cell"
	defaultEmailKind   = "work"
	defaultAddressKind = "home"
)

// encodeContact emits a vCard 3.0 block. A card needs a way to reach the
// person: without a phone or an email the payload stays empty.
func encodeContact(f *models.ContactForm) string {
	phones := nonEmpty(f.Phones)
	emails := nonEmpty(f.Emails)
	if len(phones) == 0 && len(emails) == 0 {
		return ""
	}

	var sb strings.Builder
	line := func(s string) {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	line("BEGIN:VCARD")
	line("VERSION:3.0")
	line("FN:" + strings.TrimSpace(f.FirstName+" "+f.LastName))
	line("N:" + f.LastName + ";" + f.FirstName + ";;;")
	if strings.TrimSpace(f.Title) != "" {
		line("TITLE:" + f.Title)
	}
	for _, p := range phones {
		line("TEL;TYPE=" + kindOr(p.Type, defaultPhoneKind) + ":" + p.Value)
	}
	for _, e := range emails {
		line("EMAIL;TYPE=" + kindOr(e.Type, defaultEmailKind) + ":" + e.Value)
	}
	line("ORG:" + f.Organization)
	line("URL:" + f.Website)
	for _, a := range f.Addresses {
		if a.IsBlank() {
			continue
		}
		line("ADR;TYPE=" + kindOr(a.Type, defaultAddressKind) + ":;;" +
			strings.Join([]string{a.Street, a.City, a.State, a.Zip, a.Country}, ";"))
	}
	sb.WriteString("END:VCARD")

	return sb.String()
}

func nonEmpty(values []models.TypedValue) []models.TypedValue {
	out := make([]models.TypedValue, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v.Value) != "" {
			out = append(out, v)
		}
	}
	return out
}

func kindOr(kind, fallback string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return fallback
	}
	return kind
}
