package constants

import "time"

const (
	// Storage keys
	SavedEntriesKey = "qr_saved_entries"
	SessionDataKey  = "qr_session_data"
	SettingsKey     = "qr_settings"

	// Session constants
	DefaultDebounce = 300 * time.Millisecond

	// Render constants
	QuietZoneModules    = 2
	FallbackModuleScale = 4
	DarkColorHex        = "#1a1a1a"
	LightColorHex       = "#ffffff"

	// Render settings bounds
	DefaultResolution      = 256
	MinLogoSizePercent     = 10
	MaxLogoSizePercent     = 40
	DefaultLogoSizePercent = 20
	MinBorderThickness     = 1
	MaxBorderThickness     = 28
	DefaultBorderThickness = 4

	// Entry constants
	MaxEntryNameLength   = 64
	MaxNameDisplayLength = 20
	EntryIDSuffixLen     = 9

	// Export constants
	ExportFilePrefix = "qr-code"
	PNGMimeType      = "image/png"
	BMPMimeType      = "image/bmp"

	// Cache constants
	StateExpiration      = 30 // minutes
	StateCleanupInterval = 10 // minutes

	// Formatting constants
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)

// Resolutions lists the supported square output sizes in pixels.
var Resolutions = []int{128, 256, 512, 1024}
