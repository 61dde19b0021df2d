package helpers

import (
	"fmt"

	"github.com/talha7k/qrcode-magic/internal/constants"
	"github.com/talha7k/qrcode-magic/internal/models"
)

// ExportFileName formats the download name of a code,
// e.g. ExportFileName("wifi", 512, "png") -> "qr-code-wifi-512x512.png"
func ExportFileName(t models.QRType, resolution int, ext string) string {
	return fmt.Sprintf("%s-%s-%dx%d.%s", constants.ExportFilePrefix, t, resolution, resolution, ext)
}
