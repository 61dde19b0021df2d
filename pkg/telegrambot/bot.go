package telegrambot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"github.com/talha7k/qrcode-magic/internal/commands"
	"github.com/talha7k/qrcode-magic/internal/config"
	"github.com/talha7k/qrcode-magic/internal/handlers"
	"github.com/talha7k/qrcode-magic/internal/permissions"
	"github.com/talha7k/qrcode-magic/internal/services"
)

// Bot represents a Telegram bot
type Bot struct {
	bot          *telebot.Bot
	config       *config.Config
	handlers     map[permissions.AccessType]handlers.MessageHandler
	stateService *services.UserStateService
	permCtrl     *permissions.PermissionController
	logger       *logrus.Logger
}

// NewBot creates a new Telegram bot driving the shared session
func NewBot(
	cfg *config.Config,
	controller *services.SessionController,
	stateService *services.UserStateService,
	permCtrl *permissions.PermissionController,
	logger *logrus.Logger,
) (*Bot, error) {
	// Create bot settings
	settings := telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			logger.Errorf("Telegram bot error: %v", err)
			if c != nil {
				_ = c.Send("An error occurred. Please try again later.")
			}
		},
	}

	// Create bot instance
	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	factory := handlers.NewHandlerFactory(controller, stateService, cfg, logger)

	bot := &Bot{
		bot:          b,
		config:       cfg,
		handlers:     make(map[permissions.AccessType]handlers.MessageHandler),
		stateService: stateService,
		permCtrl:     permCtrl,
		logger:       logger,
	}

	if h := factory.CreateHandler(permissions.Owner); h != nil {
		bot.handlers[permissions.Owner] = h
	}

	bot.setupMiddleware()

	return bot, nil
}

// Start starts the bot and blocks until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting Telegram bot")

	go func() {
		<-ctx.Done()
		b.logger.Info("Stopping Telegram bot")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

// setupMiddleware sets up the bot middleware
func (b *Bot) setupMiddleware() {
	b.bot.Use(func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			b.logger.Debugf("Received message from %d: %s", c.Sender().ID, c.Text())
			return next(c)
		}
	})

	b.bot.Handle(telebot.OnText, b.handleUpdate)
	for _, cmd := range []string{
		commands.Start, commands.Help, commands.Type, commands.Set, commands.Settings,
		commands.Generate, commands.Save, commands.Saved, commands.Load, commands.Delete,
		commands.Reset, commands.Cancel,
	} {
		b.bot.Handle(cmd, b.handleUpdate)
	}
}

// handleUpdate handles an update from Telegram
func (b *Bot) handleUpdate(c telebot.Context) error {
	userID := c.Sender().ID
	accessType := b.permCtrl.GetAccessType(userID)

	handler, ok := b.handlers[accessType]
	if !ok {
		b.logger.Warnf("No handler for access type %d (user %d)", accessType, userID)
		return c.Send("You don't have permission to use this bot.")
	}

	return handler.Handle(context.Background(), c)
}
