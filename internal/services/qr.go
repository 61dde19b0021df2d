package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/bmp"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/models"
)

var (
	darkColor  = color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	lightColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// QRService renders payloads into QR rasters on a shared output surface
type QRService struct {
	logger  *logrus.Logger
	mu      sync.Mutex
	surface *image.RGBA
}

// NewQRService creates a new QR code service
func NewQRService(logger *logrus.Logger) *QRService {
	return &QRService{
		logger: logger,
	}
}

// Render draws payload with the given settings. An empty payload clears the
// surface and returns an empty raster without error.
func (s *QRService) Render(payload string, settings models.RenderSettings) (models.Raster, error) {
	settings = settings.Normalize()

	if payload == "" {
		s.Clear()
		s.logger.Debug("Nothing to render, surface cleared")
		return models.Raster{}, nil
	}

	level := recoveryLevel(settings)
	s.logger.Debugf("Generating QR code (%dpx, level %s, logo space %v)", settings.Resolution, levelName(level), settings.LogoSpace)

	qr, err := qrcode.New(payload, level)
	if err != nil {
		s.logger.Errorf("Failed to generate QR code: %v", err)
		return models.Raster{}, &apperrors.RenderError{Stage: "generate", Err: err}
	}
	qr.DisableBorder = true

	light := color.Color(lightColor)
	if settings.LogoSpace {
		light = color.Transparent
	}

	img, err := drawModules(qr.Bitmap(), settings.Resolution, constants.QuietZoneModules, darkColor, light)
	if err != nil {
		s.logger.Errorf("Failed to draw QR code: %v", err)
		return models.Raster{}, &apperrors.RenderError{Stage: "draw", Err: err}
	}

	var reservation *models.LogoReservation
	if settings.LogoSpace {
		r := LogoReservationFor(img.Bounds().Dx(), img.Bounds().Dy(), settings)
		punchLogoSpace(img, r, darkColor)
		reservation = &r
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.logger.Errorf("Failed to encode QR code: %v", err)
		return models.Raster{}, &apperrors.RenderError{Stage: "encode", Err: err}
	}

	s.mu.Lock()
	s.surface = img
	s.mu.Unlock()

	return models.Raster{
		Image:           img,
		PNG:             buf.Bytes(),
		Width:           img.Bounds().Dx(),
		Height:          img.Bounds().Dy(),
		ErrorCorrection: levelName(level),
		Reservation:     reservation,
	}, nil
}

// Clear drops the shared surface
func (s *QRService) Clear() {
	s.mu.Lock()
	s.surface = nil
	s.mu.Unlock()
}

// Surface returns a copy of the last successfully rendered image, or nil
func (s *QRService) Surface() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return nil
	}
	out := image.NewRGBA(s.surface.Bounds())
	copy(out.Pix, s.surface.Pix)
	return out
}

// EncodeBMP re-encodes a rendered raster as BMP
func EncodeBMP(raster models.Raster) ([]byte, error) {
	if raster.Image == nil {
		return nil, errors.New("no image to encode")
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, raster.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recoveryLevel raises redundancy when the center will be blanked
func recoveryLevel(settings models.RenderSettings) qrcode.RecoveryLevel {
	if settings.LogoSpace {
		return qrcode.Medium
	}
	return qrcode.Low
}

func levelName(level qrcode.RecoveryLevel) string {
	switch level {
	case qrcode.Low:
		return "L"
	case qrcode.Medium:
		return "M"
	case qrcode.High:
		return "Q"
	case qrcode.Highest:
		return "H"
	default:
		return "?"
	}
}

// drawModules scales the module matrix onto a width x width image with a
// quiet zone of margin modules. Pixels map to modules by floor division, so
// the symbol fills the requested width exactly. A width below one pixel per
// module falls back to FallbackModuleScale pixels per module and the image
// grows past the requested width.
func drawModules(bitmap [][]bool, width, margin int, dark, light color.Color) (*image.RGBA, error) {
	n := len(bitmap)
	if n == 0 {
		return nil, errors.New("empty module matrix")
	}
	if width < n+2*margin {
		width = (n + 2*margin) * constants.FallbackModuleScale
	}

	scale := float64(width) / float64(n+2*margin)
	offset := float64(margin) * scale
	img := image.NewRGBA(image.Rect(0, 0, width, width))

	for py := 0; py < width; py++ {
		for px := 0; px < width; px++ {
			c := light
			x, y := float64(px), float64(py)
			if x >= offset && y >= offset && x < float64(width)-offset && y < float64(width)-offset {
				row := int(math.Floor((y - offset) / scale))
				col := int(math.Floor((x - offset) / scale))
				if row < n && col < n && bitmap[row][col] {
					c = dark
				}
			}
			img.Set(px, py, c)
		}
	}

	return img, nil
}
