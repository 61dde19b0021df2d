package services

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/talha7k/qrcode-magic/internal/models"
)

// kappa places cubic control points for a quarter-circle approximation
const kappa = 0.5522847498

// LogoReservationFor computes the centered logo area of a width x height symbol
func LogoReservationFor(width, height int, settings models.RenderSettings) models.LogoReservation {
	settings = settings.Normalize()
	shorter := math.Min(float64(width), float64(height))
	size := shorter * float64(settings.LogoSizePercent) / 100

	border := 0.0
	if settings.ShowBorder {
		border = float64(settings.BorderThicknessPx)
	}

	return models.LogoReservation{
		Shape:    settings.LogoShape,
		CenterX:  float64(width) / 2,
		CenterY:  float64(height) / 2,
		Size:     size,
		HoleSize: size + 2*border,
		Border:   border,
	}
}

// punchLogoSpace erases the hole to transparent and, when a border is set,
// fills the ring between the logo edge and the hole edge with dark.
func punchLogoSpace(img *image.RGBA, r models.LogoReservation, dark color.Color) {
	b := img.Bounds()

	hole := vector.NewRasterizer(b.Dx(), b.Dy())
	addShape(hole, r, r.HoleSize/2, false)
	mask := image.NewAlpha(b)
	hole.Draw(mask, b, image.Opaque, image.Point{})
	eraseMasked(img, mask)

	if r.Border <= 0 {
		return
	}

	// Inner outline is wound the other way so it cancels out of the fill.
	ring := vector.NewRasterizer(b.Dx(), b.Dy())
	addShape(ring, r, r.HoleSize/2, false)
	addShape(ring, r, r.Size/2, true)
	ring.DrawOp = draw.Over
	ring.Draw(img, b, image.NewUniform(dark), image.Point{})
}

// eraseMasked scales every pixel down by its mask coverage, so fully covered
// pixels end up transparent and anti-aliased edges fade out.
func eraseMasked(img *image.RGBA, mask *image.Alpha) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m := mask.AlphaAt(x, y).A
			if m == 0 {
				continue
			}
			keep := 255 - uint32(m)
			i := img.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				img.Pix[i+c] = uint8(uint32(img.Pix[i+c]) * keep / 255)
			}
		}
	}
}

func addShape(z *vector.Rasterizer, r models.LogoReservation, half float64, reverse bool) {
	if r.Shape == models.ShapeSquare {
		addSquare(z, r.CenterX, r.CenterY, half, reverse)
		return
	}
	addCircle(z, r.CenterX, r.CenterY, half, reverse)
}

func addSquare(z *vector.Rasterizer, cx, cy, half float64, reverse bool) {
	x0, y0 := float32(cx-half), float32(cy-half)
	x1, y1 := float32(cx+half), float32(cy+half)

	z.MoveTo(x0, y0)
	if reverse {
		z.LineTo(x0, y1)
		z.LineTo(x1, y1)
		z.LineTo(x1, y0)
	} else {
		z.LineTo(x1, y0)
		z.LineTo(x1, y1)
		z.LineTo(x0, y1)
	}
	z.ClosePath()
}

func addCircle(z *vector.Rasterizer, cx, cy, radius float64, reverse bool) {
	k := radius * kappa
	f := func(v float64) float32 { return float32(v) }

	z.MoveTo(f(cx+radius), f(cy))
	if reverse {
		z.CubeTo(f(cx+radius), f(cy-k), f(cx+k), f(cy-radius), f(cx), f(cy-radius))
		z.CubeTo(f(cx-k), f(cy-radius), f(cx-radius), f(cy-k), f(cx-radius), f(cy))
		z.CubeTo(f(cx-radius), f(cy+k), f(cx-k), f(cy+radius), f(cx), f(cy+radius))
		z.CubeTo(f(cx+k), f(cy+radius), f(cx+radius), f(cy+k), f(cx+radius), f(cy))
	} else {
		z.CubeTo(f(cx+radius), f(cy+k), f(cx+k), f(cy+radius), f(cx), f(cy+radius))
		z.CubeTo(f(cx-k), f(cy+radius), f(cx-radius), f(cy+k), f(cx-radius), f(cy))
		z.CubeTo(f(cx-radius), f(cy-k), f(cx-k), f(cy-radius), f(cx), f(cy-radius))
		z.CubeTo(f(cx+k), f(cy-radius), f(cx+radius), f(cy-k), f(cx+radius), f(cy))
	}
	z.ClosePath()
}
