package helpers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/talha7k/qrcode-magic/internal/constants"
	"github.com/talha7k/qrcode-magic/internal/models"
)

// FormatEntryList formats saved entries as a numbered table for chat replies
func FormatEntryList(t models.QRType, entries []models.QREntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("📭 <b>No saved %s codes</b>\n\nUse /save &lt;name&gt; to keep the current one.", t)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💾 <b>Saved %s codes (%d):</b>\n", t.Title(), len(entries)))
	sb.WriteString("<pre>\n")
	sb.WriteString(" #  | Name                 | Updated\n")
	sb.WriteString("----|----------------------|-----------\n")

	for i, e := range entries {
		sb.WriteString(FormatEntryLine(i+1, e))
	}

	sb.WriteString("</pre>\n")
	sb.WriteString("Use /load &lt;#&gt; or /delete &lt;#&gt;.")
	return sb.String()
}

// FormatEntryLine formats a single row of the entry table
func FormatEntryLine(index int, e models.QREntry) string {
	name := e.Name
	if len([]rune(name)) > constants.MaxNameDisplayLength {
		name = string([]rune(name)[:constants.MaxNameDisplayLength-3]) + "..."
	}
	updated := time.UnixMilli(e.UpdatedAt).Format(constants.DateFormat)
	return fmt.Sprintf("%3d | %-20s | %s\n", index, html.EscapeString(name), updated)
}

// FormatSettingsSummary lists the render settings for chat replies
func FormatSettingsSummary(s models.RenderSettings) string {
	var sb strings.Builder
	sb.WriteString("⚙️ <b>Render settings</b>\n\n")
	sb.WriteString(fmt.Sprintf("Resolution: %dx%d\n", s.Resolution, s.Resolution))
	sb.WriteString(fmt.Sprintf("Logo space: %s\n", onOff(s.LogoSpace)))
	if s.LogoSpace {
		sb.WriteString(fmt.Sprintf("Logo size: %d%%\n", s.LogoSizePercent))
		sb.WriteString(fmt.Sprintf("Logo shape: %s\n", s.LogoShape))
		sb.WriteString(fmt.Sprintf("Border: %s", onOff(s.ShowBorder)))
		if s.ShowBorder {
			sb.WriteString(fmt.Sprintf(" (%dpx)", s.BorderThicknessPx))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatTypeList lists the supported QR types with their descriptions
func FormatTypeList(active models.QRType) string {
	var sb strings.Builder
	sb.WriteString("<b>QR types:</b>\n")
	for _, t := range models.AllTypes() {
		marker := "▫️"
		if t == active {
			marker = "▪️"
		}
		sb.WriteString(fmt.Sprintf("%s <code>%s</code> %s: %s\n", marker, t, t.Title(), t.Description()))
	}
	return sb.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// fieldHelp lists the /set fields of each form
var fieldHelp = map[models.QRType][]string{
	models.TypeText:    {"text"},
	models.TypeURL:     {"url"},
	models.TypeContact: {"firstName", "lastName", "title", "organization", "website", "phone.&lt;kind&gt;", "email.&lt;kind&gt;", "address.&lt;kind&gt; street;city;state;zip;country"},
	models.TypeWiFi:    {"ssid", "password", "security WPA|WEP|nopass", "hidden true|false"},
	models.TypeSMS:     {"phone", "message"},
	models.TypeEmail:   {"to", "subject", "body"},
}

// FormatFieldHelp lists the editable fields of a form type
func FormatFieldHelp(t models.QRType) string {
	fields, ok := fieldHelp[t]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s fields:</b>\n", t.Title()))
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("• <code>/set %s</code>\n", f))
	}
	return sb.String()
}
