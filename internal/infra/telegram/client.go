// internal/infra/telegram/client.go
package telegram

import (
	"bytes"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.Chat{ID: recipientChatID}
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// SendPhoto sends an in-memory PNG to the specified recipient.
func (tba *TelebotAdapter) SendPhoto(recipientChatID int64, png []byte, caption string) error {
	photo := &telebot.Photo{
		File:    telebot.FromReader(bytes.NewReader(png)),
		Caption: caption,
	}
	_, err := tba.bot.Send(&telebot.Chat{ID: recipientChatID}, photo)
	return err
}

// SendDocument sends an in-memory file to the specified recipient.
func (tba *TelebotAdapter) SendDocument(recipientChatID int64, data []byte, filename, caption string) error {
	doc := &telebot.Document{
		File:     telebot.FromReader(bytes.NewReader(data)),
		FileName: filename,
		Caption:  caption,
	}
	_, err := tba.bot.Send(&telebot.Chat{ID: recipientChatID}, doc)
	return err
}
