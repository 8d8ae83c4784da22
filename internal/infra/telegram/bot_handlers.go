// internal/infra/telegram/bot_handlers.go
package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"interaction_log_bot/internal/app"
)

// RegisterBotHandlers wires the bot commands and the free-text dispatcher
// to the flow engine. Commands always take precedence over pending flows;
// the engine handles the discard.
func RegisterBotHandlers(
	ctx context.Context,
	b *telebot.Bot,
	engine *app.FlowEngine,
	baseLogger *logrus.Entry,
) {
	b.Handle("/start", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/start",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Send("Hi! I turn your messages into customer interaction records. Use /help to see how.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/help",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Send(engine.Help())
	})

	b.Handle("/customers", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/customers",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		}).Info("Command received")
		return c.Send(engine.StartCustomerListFlow(c.Chat().ID, c.Sender().ID))
	})

	b.Handle("/report", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/report",
			"sender_id": c.Sender().ID,
			"chat_id":   c.Chat().ID,
		}).Info("Command received")
		return c.Send(engine.StartReportRangeFlow(c.Chat().ID, c.Sender().ID))
	})

	b.Handle("/cancel", func(c telebot.Context) error {
		baseLogger.WithFields(logrus.Fields{
			"handler":   "/cancel",
			"sender_id": c.Sender().ID,
		}).Info("Command received")
		return c.Send(engine.Cancel(c.Sender().ID))
	})

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		chatID := c.Chat().ID
		senderID := c.Sender().ID
		messageID := fmt.Sprintf("%d:%d", chatID, c.Message().ID)

		baseLogger.WithFields(logrus.Fields{
			"handler":    "on_text",
			"sender_id":  senderID,
			"chat_id":    chatID,
			"message_id": messageID,
		}).Debug("Message received")

		reply := engine.HandleText(ctx, chatID, senderID, messageID, c.Text())
		if reply == "" {
			return nil
		}
		return c.Send(reply)
	})
}
