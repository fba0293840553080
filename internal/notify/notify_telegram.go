package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotSender is the part of *tgbotapi.BotAPI the destination uses.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramDestination struct {
	bot   BotSender
	chats map[Audience][]int64
}

func NewTelegramDestination(bot BotSender, chats map[Audience][]int64) *TelegramDestination {
	return &TelegramDestination{bot: bot, chats: chats}
}

func (d *TelegramDestination) Name() string { return "telegram" }

// Send posts msg to every chat subscribed to its audience. A failing chat
// does not stop delivery to the rest.
func (d *TelegramDestination) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, chatID := range d.chats[msg.Audience] {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		m := tgbotapi.NewMessage(chatID, msg.Text)
		m.ParseMode = tgbotapi.ModeMarkdown
		m.DisableWebPagePreview = true
		if _, err := d.bot.Send(m); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}
