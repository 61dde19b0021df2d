package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talha7k/qrcode-magic/internal/models"
)

func TestRenderSettings_NormalizeClamps(t *testing.T) {
	s := models.RenderSettings{
		Resolution:        300,
		LogoSizePercent:   500,
		BorderThicknessPx: 0,
		LogoShape:         "hexagon",
	}.Normalize()

	assert.Equal(t, 256, s.Resolution)
	assert.Equal(t, 40, s.LogoSizePercent)
	assert.Equal(t, 1, s.BorderThicknessPx)
	assert.Equal(t, models.ShapeCircle, s.LogoShape)

	s = models.RenderSettings{Resolution: 1024, LogoSizePercent: 3, BorderThicknessPx: 99, LogoShape: models.ShapeSquare}.Normalize()
	assert.Equal(t, 1024, s.Resolution)
	assert.Equal(t, 10, s.LogoSizePercent)
	assert.Equal(t, 28, s.BorderThicknessPx)
	assert.Equal(t, models.ShapeSquare, s.LogoShape)
}

func TestRenderSettings_PersistedShape(t *testing.T) {
	s := models.RenderSettings{
		Resolution:        512,
		LogoSpace:         true,
		LogoSizePercent:   25,
		LogoShape:         models.ShapeSquare,
		ShowBorder:        true,
		BorderThicknessPx: 6,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"resolution": "512",
		"logoSpace": true,
		"logoSize": [25],
		"logoShape": "square",
		"showBorder": true,
		"borderThickness": [6]
	}`, string(data))

	var back models.RenderSettings
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestRenderSettings_UnmarshalNormalizes(t *testing.T) {
	var s models.RenderSettings
	err := json.Unmarshal([]byte(`{"resolution":"999","logoSize":[500],"borderThickness":[0],"logoShape":"blob"}`), &s)

	require.NoError(t, err)
	assert.Equal(t, 256, s.Resolution)
	assert.Equal(t, 40, s.LogoSizePercent)
	assert.Equal(t, 1, s.BorderThicknessPx)
	assert.Equal(t, models.ShapeCircle, s.LogoShape)
}

func TestRenderSettings_UnmarshalNumericResolution(t *testing.T) {
	var s models.RenderSettings
	require.NoError(t, json.Unmarshal([]byte(`{"resolution":128}`), &s))
	assert.Equal(t, 128, s.Resolution)
	assert.Equal(t, 20, s.LogoSizePercent)
}

func TestRenderSettings_LogoChanged(t *testing.T) {
	base := models.DefaultRenderSettings()

	res := base
	res.Resolution = 1024
	assert.False(t, base.LogoChanged(res))

	logo := base
	logo.LogoSizePercent = 30
	assert.True(t, base.LogoChanged(logo))

	shape := base
	shape.LogoShape = models.ShapeSquare
	assert.True(t, base.LogoChanged(shape))
}

func TestParseResolution(t *testing.T) {
	px, err := models.ParseResolution("512x512")
	require.NoError(t, err)
	assert.Equal(t, 512, px)

	px, err = models.ParseResolution("128")
	require.NoError(t, err)
	assert.Equal(t, 128, px)

	_, err = models.ParseResolution("256x128")
	assert.Error(t, err)
	_, err = models.ParseResolution("300")
	assert.Error(t, err)
}
