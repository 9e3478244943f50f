package telegram

import "context"

// Bot interface abstracts telegram bot operations (for dependency injection)
type Bot interface {
	// Start starts the bot polling loop
	Start(ctx context.Context) error

	// Stop stops the bot
	Stop()

	// SetHandler sets update handler
	SetHandler(handler func(Update))

	// SendMessage sends a text message
	SendMessage(chatID int64, text string) error

	// SendMessageWithKeyboard sends message with inline keyboard
	SendMessageWithKeyboard(chatID int64, text string, keyboard InlineKeyboardMarkup) error

	// SendTyping shows the typing indicator while a slow reply is prepared
	SendTyping(chatID int64) error

	// AnswerCallback answers callback query
	AnswerCallback(callbackQueryID string, text string, showAlert bool) error
}

// ValidationError represents validation failure of user input
type ValidationError struct {
	Field   string
	Message string
}

// Error implements error interface
func (v ValidationError) Error() string {
	return v.Message
}
