package commands

// TelegramCommands contains all commands for the Telegram bot
const (
	// Main commands
	Start = "/start"
	Help  = "/help"

	// Form commands
	Type     = "/type"
	Set      = "/set"
	Settings = "/settings"
	Generate = "/generate"

	// Saved entry commands
	Save   = "/save"
	Saved  = "/saved"
	Load   = "/load"
	Delete = "/delete"

	// Session commands
	Reset = "/reset"

	// Confirmation replies
	Confirm = "yes"
	Cancel  = "/cancel"
)
