package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"github.com/talha7k/qrcode-magic/internal/commands"
	"github.com/talha7k/qrcode-magic/internal/config"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
	"github.com/talha7k/qrcode-magic/internal/helpers"
	"github.com/talha7k/qrcode-magic/internal/models"
	"github.com/talha7k/qrcode-magic/internal/permissions"
	"github.com/talha7k/qrcode-magic/internal/services"
	"github.com/talha7k/qrcode-magic/internal/validation"
)

// OwnerHandler drives the shared session from Telegram
type OwnerHandler struct {
	BaseHandler
	commandHandlers map[string]func(telebot.Context, string) error
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(
	controller *services.SessionController,
	stateService *services.UserStateService,
	config *config.Config,
	logger *logrus.Logger,
) *OwnerHandler {
	handler := &OwnerHandler{
		BaseHandler: NewBaseHandler(controller, stateService, config, logger),
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *OwnerHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Owner
}

// Handle handles a message from Telegram
func (h *OwnerHandler) Handle(ctx context.Context, c telebot.Context) error {
	// Get user ID
	userID := c.Sender().ID

	// Get user state
	userState, err := h.stateService.GetState(userID)
	if err != nil {
		h.logger.Errorf("Failed to get user state: %v", err)
		return err
	}

	command, args := parseCommand(c.Text())

	// Commands always win over a pending conversation
	if command != "" && command != commands.Confirm {
		if userState.State != models.Default {
			_ = h.stateService.ClearState(userID)
		}
		return h.handleCommand(c, command, args)
	}

	// Handle based on state
	switch userState.State {
	case models.AwaitingEntryName:
		return h.handleEntryNameInput(c)
	case models.AwaitingConfirmReset:
		return h.handleResetConfirmation(c)
	default:
		return h.handlePlainText(c)
	}
}

// initializeCommands initializes the command handlers
func (h *OwnerHandler) initializeCommands() {
	h.commandHandlers = map[string]func(telebot.Context, string) error{
		commands.Start:    h.handleStart,
		commands.Help:     h.handleStart,
		commands.Type:     h.handleType,
		commands.Set:      h.handleSet,
		commands.Settings: h.handleSettings,
		commands.Generate: h.handleGenerate,
		commands.Save:     h.handleSave,
		commands.Saved:    h.handleSaved,
		commands.Load:     h.handleLoad,
		commands.Delete:   h.handleDelete,
		commands.Reset:    h.handleReset,
		commands.Cancel:   h.handleCancel,
	}
}

func (h *OwnerHandler) handleCommand(c telebot.Context, command, args string) error {
	if handler, ok := h.commandHandlers[command]; ok {
		return handler(c, args)
	}
	return h.sendTextMessage(c, fmt.Sprintf("Unknown command %s. Send /help for the list.", html.EscapeString(command)), h.createMainKeyboard())
}

// handleStart handles the /start command
func (h *OwnerHandler) handleStart(c telebot.Context, _ string) error {
	// Clear user state
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
		return err
	}

	state := h.controller.State()
	text := `<b>QR Magic</b>

Build a QR code step by step:
• <b>/type &lt;type&gt;</b> - switch the content type
• <b>/set &lt;field&gt; &lt;value&gt;</b> - edit a field of the current form
• <b>/settings [key value]</b> - show or change render settings
• <b>/generate</b> - render and send the code
• <b>/save [name]</b>, <b>/saved</b>, <b>/load &lt;#&gt;</b>, <b>/delete &lt;#&gt;</b> - saved codes
• <b>/reset</b> - clear everything

For text and URL codes you can also just send the content.

` + helpers.FormatTypeList(state.ActiveType) + "\n" + helpers.FormatFieldHelp(state.ActiveType)

	return h.sendTextMessage(c, text, h.createMainKeyboard())
}

// handleType handles the /type command
func (h *OwnerHandler) handleType(c telebot.Context, args string) error {
	if args == "" {
		return h.sendTextMessage(c, helpers.FormatTypeList(h.controller.State().ActiveType), h.createMainKeyboard())
	}

	t, err := models.ParseQRType(args)
	if err != nil {
		return h.sendTextMessage(c, html.EscapeString(err.Error()), nil)
	}
	if err := h.controller.SwitchType(t); err != nil {
		return h.replyError(c, err)
	}

	text := fmt.Sprintf("Switched to <b>%s</b>.\n\n%s", t.Title(), helpers.FormatFieldHelp(t))
	return h.sendTextMessage(c, text, h.createMainKeyboard())
}

// handleSet handles the /set command
func (h *OwnerHandler) handleSet(c telebot.Context, args string) error {
	field, value, _ := strings.Cut(args, " ")
	if field == "" {
		return h.sendTextMessage(c, helpers.FormatFieldHelp(h.controller.State().ActiveType), nil)
	}

	if err := h.controller.SetField(field, strings.TrimSpace(value)); err != nil {
		return h.replyError(c, err)
	}
	return h.sendTextMessage(c, fmt.Sprintf("✏️ Updated <code>%s</code>. Send /generate when ready.", html.EscapeString(field)), nil)
}

// handleSettings handles the /settings command
func (h *OwnerHandler) handleSettings(c telebot.Context, args string) error {
	settings := h.controller.State().Settings
	if args == "" {
		return h.sendTextMessage(c, helpers.FormatSettingsSummary(settings), h.createMainKeyboard())
	}

	key, value, _ := strings.Cut(args, " ")
	updated, err := applySetting(settings, strings.ToLower(key), strings.TrimSpace(value))
	if err != nil {
		return h.replyError(c, err)
	}

	updated = h.controller.UpdateSettings(updated)
	return h.sendTextMessage(c, helpers.FormatSettingsSummary(updated), h.createMainKeyboard())
}

// handleGenerate handles the /generate command
func (h *OwnerHandler) handleGenerate(c telebot.Context, _ string) error {
	if err := h.controller.Generate(); err != nil {
		return h.replyError(c, err)
	}
	return h.sendQRCode(c)
}

// handleSave handles the /save command
func (h *OwnerHandler) handleSave(c telebot.Context, args string) error {
	if args == "" {
		if err := h.stateService.AwaitEntryName(c.Sender().ID); err != nil {
			return err
		}
		return h.sendTextMessage(c, "Send a name for this code, or /cancel.", nil)
	}
	return h.saveEntry(c, args)
}

// handleEntryNameInput handles the name sent after a bare /save
func (h *OwnerHandler) handleEntryNameInput(c telebot.Context) error {
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
	}
	return h.saveEntry(c, c.Text())
}

func (h *OwnerHandler) saveEntry(c telebot.Context, name string) error {
	entry, err := h.controller.SaveEntry(name)
	if err != nil {
		return h.replyError(c, err)
	}
	return h.sendTextMessage(c, fmt.Sprintf("💾 Saved <b>%s</b>.", html.EscapeString(entry.Name)), h.createMainKeyboard())
}

// handleSaved handles the /saved command
func (h *OwnerHandler) handleSaved(c telebot.Context, _ string) error {
	h.controller.SetSavedPanelOpen(true)
	state := h.controller.State()
	return h.sendTextMessage(c, helpers.FormatEntryList(state.ActiveType, state.Entries), h.createMainKeyboard())
}

// handleLoad handles the /load command
func (h *OwnerHandler) handleLoad(c telebot.Context, args string) error {
	id, err := resolveEntryID(h.controller.Entries(), args)
	if err != nil {
		return h.replyError(c, err)
	}

	entry, err := h.controller.LoadEntry(id)
	if err != nil {
		return h.replyError(c, err)
	}

	if err := h.controller.Generate(); err != nil {
		return h.replyError(c, err)
	}
	if err := h.sendTextMessage(c, fmt.Sprintf("📂 Loaded <b>%s</b>.", html.EscapeString(entry.Name)), nil); err != nil {
		return err
	}
	return h.sendQRCode(c)
}

// handleDelete handles the /delete command
func (h *OwnerHandler) handleDelete(c telebot.Context, args string) error {
	id, err := resolveEntryID(h.controller.Entries(), args)
	if err != nil {
		return h.replyError(c, err)
	}

	if !h.controller.DeleteEntry(id) {
		return h.replyError(c, services.ErrEntryNotFound)
	}
	state := h.controller.State()
	return h.sendTextMessage(c, "🗑 Deleted.\n\n"+helpers.FormatEntryList(state.ActiveType, state.Entries), h.createMainKeyboard())
}

// handleReset handles the /reset command
func (h *OwnerHandler) handleReset(c telebot.Context, _ string) error {
	if err := h.stateService.AwaitResetConfirmation(c.Sender().ID); err != nil {
		return err
	}
	return h.sendTextMessage(c, "⚠️ This deletes every saved code and the current session. Reply <b>yes</b> to confirm.", h.createConfirmKeyboard())
}

// handleResetConfirmation handles the reply after /reset
func (h *OwnerHandler) handleResetConfirmation(c telebot.Context) error {
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
	}

	if strings.ToLower(strings.TrimSpace(c.Text())) != commands.Confirm {
		return h.sendTextMessage(c, "Reset cancelled.", h.createMainKeyboard())
	}

	if err := h.controller.Reset(); err != nil {
		return h.replyError(c, err)
	}
	return h.sendTextMessage(c, "✅ Everything was cleared.", h.createMainKeyboard())
}

// handleCancel handles the /cancel command
func (h *OwnerHandler) handleCancel(c telebot.Context, _ string) error {
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
	}
	return h.sendTextMessage(c, "Cancelled.", h.createMainKeyboard())
}

// handlePlainText treats free text as the content of single-field forms
func (h *OwnerHandler) handlePlainText(c telebot.Context) error {
	field := ""
	switch h.controller.State().ActiveType {
	case models.TypeText:
		field = "text"
	case models.TypeURL:
		field = "url"
	default:
		return h.sendTextMessage(c, "Use /set &lt;field&gt; &lt;value&gt; for this type.\n\n"+helpers.FormatFieldHelp(h.controller.State().ActiveType), nil)
	}

	if err := h.controller.SetField(field, c.Text()); err != nil {
		return h.replyError(c, err)
	}
	return h.handleGenerate(c, "")
}

// replyError reports a domain error to the user
func (h *OwnerHandler) replyError(c telebot.Context, err error) error {
	var (
		verr *apperrors.ValidationError
		eerr *apperrors.ExportError
		rerr *apperrors.RenderError
	)

	var text string
	switch {
	case errors.As(err, &verr):
		text = "❌ " + verr.Message
	case errors.Is(err, services.ErrNothingToRender):
		text = "📭 Nothing to render yet. Fill in the form first."
	case errors.Is(err, services.ErrEntryNotFound):
		text = "❌ Saved code not found. Send /saved for the list."
	case errors.As(err, &eerr):
		text = "❌ " + eerr.Suggestion()
	case errors.As(err, &rerr):
		h.logger.Errorf("Render failed: %v", err)
		text = "❌ Could not render the code. Please try again."
	default:
		h.logger.Errorf("Command failed: %v", err)
		text = "An error occurred. Please try again later."
	}
	return h.sendTextMessage(c, html.EscapeString(text), nil)
}

// parseCommand splits "/cmd@bot args" into the command and its arguments.
// Plain text returns an empty command, except for the confirmation reply.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, commands.Confirm) {
		return commands.Confirm, ""
	}
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	command, args, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(args)
}

// resolveEntryID accepts a 1-based position in entries or an entry id
func resolveEntryID(entries []models.QREntry, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", &apperrors.ValidationError{Field: "entry", Message: "give the number from /saved"}
	}

	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1].ID, nil
	}
	for _, e := range entries {
		if e.ID == arg {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("entry %s: %w", arg, services.ErrEntryNotFound)
}

// applySetting changes one render setting from its chat form
func applySetting(s models.RenderSettings, key, value string) (models.RenderSettings, error) {
	var err error
	switch key {
	case "resolution", "res":
		s.Resolution, err = models.ParseResolution(value)
		if err != nil {
			return s, &apperrors.ValidationError{Field: "resolution", Message: err.Error()}
		}
	case "logo":
		s.LogoSpace, err = validation.ParseToggle(value)
	case "size":
		s.LogoSizePercent, err = validation.ValidatePercent(value)
	case "shape":
		s.LogoShape, err = models.ParseLogoShape(value)
		if err != nil {
			return s, &apperrors.ValidationError{Field: "shape", Message: err.Error()}
		}
	case "border":
		if px, perr := validation.ValidateBorderThickness(value); perr == nil {
			s.ShowBorder = true
			s.BorderThicknessPx = px
		} else {
			s.ShowBorder, err = validation.ParseToggle(value)
		}
	default:
		return s, &apperrors.ValidationError{Field: key, Message: "unknown setting, use resolution, logo, size, shape or border"}
	}
	return s, err
}
