package alert

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers alerts to a Telegram chat via the Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot token and returns a Telegram sink.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Notify(_ context.Context, msg Message) error {
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, msg.Format())); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
