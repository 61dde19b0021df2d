package handlers

import (
	"context"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"github.com/talha7k/qrcode-magic/internal/config"
	"github.com/talha7k/qrcode-magic/internal/permissions"
	"github.com/talha7k/qrcode-magic/internal/services"
)

// MessageHandler defines the interface for handling Telegram messages
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// HandlerFactory creates message handlers
type HandlerFactory struct {
	controller   *services.SessionController
	stateService *services.UserStateService
	config       *config.Config
	logger       *logrus.Logger
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(
	controller *services.SessionController,
	stateService *services.UserStateService,
	config *config.Config,
	logger *logrus.Logger,
) *HandlerFactory {
	return &HandlerFactory{
		controller:   controller,
		stateService: stateService,
		config:       config,
		logger:       logger,
	}
}

// CreateHandler creates a message handler for the given access type. Users
// without access get no handler.
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	switch accessType {
	case permissions.Owner:
		return NewOwnerHandler(f.controller, f.stateService, f.config, f.logger)
	default:
		f.logger.Warnf("No handler for access type: %d", accessType)
		return nil
	}
}
