package models

import (
	"encoding/base64"
	"image"
)

// LogoReservation describes the blanked center area of a rendered code
type LogoReservation struct {
	Shape   LogoShape `json:"shape"`
	CenterX float64   `json:"centerX"`
	CenterY float64   `json:"centerY"`
	// Size is the diameter (circle) or side (square) of the logo area.
	Size float64 `json:"size"`
	// HoleSize includes the border ring on both sides.
	HoleSize float64 `json:"holeSize"`
	Border   float64 `json:"border"`
}

// Raster is the result of one render pass
type Raster struct {
	Image           *image.RGBA
	PNG             []byte
	Width           int
	Height          int
	ErrorCorrection string
	Reservation     *LogoReservation
}

// Empty reports whether the pass had nothing to render
func (r Raster) Empty() bool {
	return len(r.PNG) == 0
}

// DataURL returns the PNG as a data URI for direct embedding
func (r Raster) DataURL() string {
	if r.Empty() {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(r.PNG)
}
