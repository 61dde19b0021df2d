package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
)

// FormState is the typed input of one QR content type.
// Implementations are the *TextForm ... *EmailForm variants below.
type FormState interface {
	Type() QRType
	// IsBlank reports whether every field is empty or whitespace only.
	IsBlank() bool
	Clone() FormState
}

// TypedValue is a repeated contact field (phone or email) with its sub-type tag
type TypedValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Address is a postal address of a contact
type Address struct {
	Type    string `json:"type"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// IsBlank reports whether every address component is empty
func (a Address) IsBlank() bool {
	return blank(a.Street, a.City, a.State, a.Zip, a.Country)
}

// TextForm holds free text
type TextForm struct {
	Text string `json:"text"`
}

// URLForm holds a website address
type URLForm struct {
	URL string `json:"url"`
}

// ContactForm holds vCard contact details
type ContactForm struct {
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Title        string       `json:"title"`
	Organization string       `json:"organization"`
	Website      string       `json:"website"`
	Phones       []TypedValue `json:"phones"`
	Emails       []TypedValue `json:"emails"`
	Addresses    []Address    `json:"addresses"`
}

// WiFi security types
const (
	SecurityWPA    = "WPA"
	SecurityWEP    = "WEP"
	SecurityNoPass = "nopass"
)

// WiFiForm holds network credentials
type WiFiForm struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Security string `json:"security"`
	Hidden   bool   `json:"hidden"`
}

// SMSForm holds a pre-filled text message
type SMSForm struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// EmailForm holds a pre-filled email
type EmailForm struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (f *TextForm) Type() QRType    { return TypeText }
func (f *URLForm) Type() QRType     { return TypeURL }
func (f *ContactForm) Type() QRType { return TypeContact }
func (f *WiFiForm) Type() QRType    { return TypeWiFi }
func (f *SMSForm) Type() QRType     { return TypeSMS }
func (f *EmailForm) Type() QRType   { return TypeEmail }

func (f *TextForm) IsBlank() bool { return blank(f.Text) }
func (f *URLForm) IsBlank() bool  { return blank(f.URL) }
func (f *WiFiForm) IsBlank() bool { return blank(f.SSID, f.Password) && !f.Hidden }
func (f *SMSForm) IsBlank() bool  { return blank(f.Phone, f.Message) }
func (f *EmailForm) IsBlank() bool {
	return blank(f.To, f.Subject, f.Body)
}

func (f *ContactForm) IsBlank() bool {
	if !blank(f.FirstName, f.LastName, f.Title, f.Organization, f.Website) {
		return false
	}
	for _, p := range f.Phones {
		if !blank(p.Value) {
			return false
		}
	}
	for _, e := range f.Emails {
		if !blank(e.Value) {
			return false
		}
	}
	for _, a := range f.Addresses {
		if !a.IsBlank() {
			return false
		}
	}
	return true
}

func (f *TextForm) Clone() FormState  { c := *f; return &c }
func (f *URLForm) Clone() FormState   { c := *f; return &c }
func (f *WiFiForm) Clone() FormState  { c := *f; return &c }
func (f *SMSForm) Clone() FormState   { c := *f; return &c }
func (f *EmailForm) Clone() FormState { c := *f; return &c }

func (f *ContactForm) Clone() FormState {
	c := *f
	c.Phones = append([]TypedValue(nil), f.Phones...)
	c.Emails = append([]TypedValue(nil), f.Emails...)
	c.Addresses = append([]Address(nil), f.Addresses...)
	return &c
}

// EmptyForm returns the zero form of the given type
func EmptyForm(t QRType) FormState {
	switch t {
	case TypeURL:
		return &URLForm{}
	case TypeContact:
		return &ContactForm{}
	case TypeWiFi:
		return &WiFiForm{Security: SecurityWPA}
	case TypeSMS:
		return &SMSForm{}
	case TypeEmail:
		return &EmailForm{}
	default:
		return &TextForm{}
	}
}

// DecodeForm decodes the JSON object of a form of type t
func DecodeForm(t QRType, data []byte) (FormState, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown QR type %q", t)
	}
	form := EmptyForm(t)
	if len(data) == 0 || string(data) == "null" {
		return form, nil
	}
	if err := json.Unmarshal(data, form); err != nil {
		return nil, fmt.Errorf("failed to decode %s form: %w", t, err)
	}
	return form, nil
}

// SetField applies a single raw field edit and returns the updated copy.
// Contact repeated fields take a kind suffix: "phone.work", "email.home",
// "address.home" (value "street;city;state;zip;country"). Setting "phones",
// "emails" or "addresses" to an empty value clears the list.
func SetField(form FormState, field, value string) (FormState, error) {
	out := form.Clone()
	name, kind, _ := strings.Cut(strings.TrimSpace(field), ".")
	name = strings.ToLower(name)

	unknown := &apperrors.ValidationError{Field: field, Message: fmt.Sprintf("unknown field for %s form", form.Type())}

	switch f := out.(type) {
	case *TextForm:
		if name != "text" {
			return nil, unknown
		}
		f.Text = value
	case *URLForm:
		if name != "url" {
			return nil, unknown
		}
		f.URL = value
	case *ContactForm:
		switch name {
		case "firstname":
			f.FirstName = value
		case "lastname":
			f.LastName = value
		case "title":
			f.Title = value
		case "organization", "org":
			f.Organization = value
		case "website":
			f.Website = value
		case "phone":
			f.Phones = append(f.Phones, TypedValue{Type: kind, Value: value})
		case "email":
			f.Emails = append(f.Emails, TypedValue{Type: kind, Value: value})
		case "address":
			f.Addresses = append(f.Addresses, parseAddress(kind, value))
		case "phones", "emails", "addresses":
			if strings.TrimSpace(value) != "" {
				return nil, &apperrors.ValidationError{Field: field, Message: "only clearing is supported"}
			}
			switch name {
			case "phones":
				f.Phones = nil
			case "emails":
				f.Emails = nil
			default:
				f.Addresses = nil
			}
		default:
			return nil, unknown
		}
	case *WiFiForm:
		switch name {
		case "ssid":
			f.SSID = value
		case "password":
			f.Password = value
		case "security":
			sec, err := ParseSecurity(value)
			if err != nil {
				return nil, err
			}
			f.Security = sec
		case "hidden":
			hidden, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return nil, &apperrors.ValidationError{Field: field, Message: "must be true or false"}
			}
			f.Hidden = hidden
		default:
			return nil, unknown
		}
	case *SMSForm:
		switch name {
		case "phone":
			f.Phone = value
		case "message":
			f.Message = value
		default:
			return nil, unknown
		}
	case *EmailForm:
		switch name {
		case "to":
			f.To = value
		case "subject":
			f.Subject = value
		case "body":
			f.Body = value
		default:
			return nil, unknown
		}
	default:
		return nil, fmt.Errorf("unsupported form %T", form)
	}

	return out, nil
}

// ParseSecurity normalizes a WiFi security type
func ParseSecurity(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wpa", "wpa2", "wpa/wpa2":
		return SecurityWPA, nil
	case "wep":
		return SecurityWEP, nil
	case "nopass", "none", "":
		return SecurityNoPass, nil
	}
	return "", &apperrors.ValidationError{Field: "security", Message: "must be WPA, WEP or nopass"}
}

func parseAddress(kind, value string) Address {
	parts := strings.Split(value, ";")
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	return Address{
		Type:    kind,
		Street:  strings.TrimSpace(parts[0]),
		City:    strings.TrimSpace(parts[1]),
		State:   strings.TrimSpace(parts[2]),
		Zip:     strings.TrimSpace(parts[3]),
		Country: strings.TrimSpace(parts[4]),
	}
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
