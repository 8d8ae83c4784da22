package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending messages via a Telegram bot.
// This helps in decoupling the application logic from the specific bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
	// SendPhoto delivers an in-memory PNG with an optional caption.
	SendPhoto(recipientChatID int64, png []byte, caption string) error
	// SendDocument delivers an in-memory file under the given filename.
	SendDocument(recipientChatID int64, data []byte, filename, caption string) error
}
