package models_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/models"
)

func TestParseQRType(t *testing.T) {
	typ, err := models.ParseQRType(" WiFi ")
	require.NoError(t, err)
	assert.Equal(t, models.TypeWiFi, typ)

	_, err = models.ParseQRType("fax")
	assert.Error(t, err)
}

func TestEmptyForm_MatchesType(t *testing.T) {
	for _, typ := range models.AllTypes() {
		form := models.EmptyForm(typ)
		assert.Equal(t, typ, form.Type())
		assert.True(t, form.IsBlank(), "type %s", typ)
	}
	assert.Equal(t, models.SecurityWPA, models.EmptyForm(models.TypeWiFi).(*models.WiFiForm).Security)
}

func TestDecodeForm(t *testing.T) {
	form, err := models.DecodeForm(models.TypeWiFi, []byte(`{"ssid":"Home","password":"pw","security":"WEP","hidden":true}`))
	require.NoError(t, err)
	assert.Equal(t, &models.WiFiForm{SSID: "Home", Password: "pw", Security: "WEP", Hidden: true}, form)

	form, err = models.DecodeForm(models.TypeText, nil)
	require.NoError(t, err)
	assert.Equal(t, &models.TextForm{}, form)

	_, err = models.DecodeForm("fax", []byte(`{}`))
	assert.Error(t, err)

	_, err = models.DecodeForm(models.TypeSMS, []byte(`{"phone":1}`))
	assert.Error(t, err)
}

func TestSetField_ContactRepeatedFields(t *testing.T) {
	form := models.EmptyForm(models.TypeContact)

	form, err := models.SetField(form, "firstName", "Ada")
	require.NoError(t, err)
	form, err = models.SetField(form, "phone.work", "+44 20 0000")
	require.NoError(t, err)
	form, err = models.SetField(form, "phone", "+44 77 0000")
	require.NoError(t, err)
	form, err = models.SetField(form, "address.home", "1 Loop Rd; London;;N1;UK")
	require.NoError(t, err)

	c := form.(*models.ContactForm)
	assert.Equal(t, "Ada", c.FirstName)
	assert.Equal(t, []models.TypedValue{{Type: "work", Value: "+44 20 0000"}, {Type: "", Value: "+44 77 0000"}}, c.Phones)
	assert.Equal(t, []models.Address{{Type: "home", Street: "1 Loop Rd", City: "London", Zip: "N1", Country: "UK"}}, c.Addresses)

	form, err = models.SetField(form, "phones", "")
	require.NoError(t, err)
	assert.Empty(t, form.(*models.ContactForm).Phones)
}

func TestSetField_DoesNotMutateInput(t *testing.T) {
	orig := &models.ContactForm{Phones: []models.TypedValue{{Value: "1"}}}

	_, err := models.SetField(orig, "phone", "2")

	require.NoError(t, err)
	assert.Len(t, orig.Phones, 1)
}

func TestSetField_WiFiValidation(t *testing.T) {
	form := models.EmptyForm(models.TypeWiFi)

	form, err := models.SetField(form, "security", "wpa2")
	require.NoError(t, err)
	assert.Equal(t, models.SecurityWPA, form.(*models.WiFiForm).Security)

	form, err = models.SetField(form, "hidden", "true")
	require.NoError(t, err)
	assert.True(t, form.(*models.WiFiForm).Hidden)

	_, err = models.SetField(form, "hidden", "maybe")
	var verr *apperrors.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = models.SetField(form, "security", "WPA3-enterprise")
	assert.Error(t, err)
}

func TestSetField_UnknownField(t *testing.T) {
	_, err := models.SetField(models.EmptyForm(models.TypeSMS), "subject", "x")

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "subject", verr.Field)
}

func TestQREntry_JSONRoundTrip(t *testing.T) {
	entry := models.QREntry{
		ID:        "1700000000000abc123def",
		Name:      "Office",
		Type:      models.TypeWiFi,
		Data:      &models.WiFiForm{SSID: "Office", Password: "pw", Security: "WPA"},
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000001,
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "1700000000000abc123def",
		"name": "Office",
		"type": "wifi",
		"data": {"ssid": "Office", "password": "pw", "security": "WPA", "hidden": false},
		"createdAt": 1700000000000,
		"updatedAt": 1700000000001
	}`, string(data))

	var back models.QREntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, entry, back)
}

func TestSessionSnapshot_Unmarshal(t *testing.T) {
	raw := `{
		"activeType": "email",
		"currentFormData": {"to": "a@b.com", "subject": "Hi", "body": ""},
		"settings": {"resolution": "1024", "logoSpace": true, "logoSize": [30], "logoShape": "square", "showBorder": false, "borderThickness": [2]}
	}`

	var snap models.SessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	assert.Equal(t, models.TypeEmail, snap.ActiveType)
	assert.Equal(t, &models.EmailForm{To: "a@b.com", Subject: "Hi"}, snap.CurrentFormData)
	assert.Equal(t, 1024, snap.Settings.Resolution)
	assert.Equal(t, 30, snap.Settings.LogoSizePercent)
	assert.Equal(t, models.ShapeSquare, snap.Settings.LogoShape)
}
