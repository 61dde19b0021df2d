package handlers

import (
	"bytes"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"github.com/talha7k/qrcode-magic/internal/commands"
	"github.com/talha7k/qrcode-magic/internal/config"
	"github.com/talha7k/qrcode-magic/internal/constants"
	"github.com/talha7k/qrcode-magic/internal/permissions"
	"github.com/talha7k/qrcode-magic/internal/services"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	controller   *services.SessionController
	stateService *services.UserStateService
	config       *config.Config
	logger       *logrus.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(
	controller *services.SessionController,
	stateService *services.UserStateService,
	config *config.Config,
	logger *logrus.Logger,
) BaseHandler {
	return BaseHandler{
		controller:   controller,
		stateService: stateService,
		config:       config,
		logger:       logger,
	}
}

// CanHandle checks if the handler can handle the given access type
func (h *BaseHandler) CanHandle(accessType permissions.AccessType) bool {
	// Base handler can't handle any access type directly
	return false
}

// sendTextMessage sends a text message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	}

	if markup != nil {
		opts.ReplyMarkup = markup
	}

	_, err := c.Bot().Send(c.Recipient(), text, opts)
	if err != nil {
		h.logger.Errorf("Failed to send message: %v", err)
	}
	return err
}

// sendQRCode sends the current code. A code with a logo reservation goes out
// as a PNG document so the transparent center survives.
func (h *BaseHandler) sendQRCode(c telebot.Context) error {
	name, data, err := h.controller.ExportPNG()
	if err != nil {
		h.logger.Errorf("Failed to export QR code: %v", err)
		return err
	}

	file := telebot.FromReader(bytes.NewReader(data))

	var what interface{}
	if h.controller.State().Settings.LogoSpace {
		what = &telebot.Document{File: file, FileName: name, MIME: constants.PNGMimeType, Caption: name}
	} else {
		what = &telebot.Photo{File: file, Caption: name}
	}

	_, err = c.Bot().Send(c.Recipient(), what, h.createMainKeyboard())
	if err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return err
}

// createMainKeyboard creates the main keyboard
func (h *BaseHandler) createMainKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.Generate},
			telebot.Btn{Text: commands.Saved},
		},
		telebot.Row{
			telebot.Btn{Text: commands.Type},
			telebot.Btn{Text: commands.Settings},
		},
	)

	return markup
}

// createConfirmKeyboard creates a keyboard with confirm/cancel buttons
func (h *BaseHandler) createConfirmKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.Confirm},
			telebot.Btn{Text: commands.Cancel},
		},
	)

	return markup
}
