package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Alias1177/stockgpt/models"
)

// Log writes notifications to a zerolog logger
type Log struct {
	logger zerolog.Logger
}

var _ models.Notifier = (*Log)(nil)

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notifier").Logger()}
}

func (l *Log) Notify(_ context.Context, title, body string) error {
	l.logger.Info().Str("title", title).Msg(body)
	return nil
}

// Sender is the part of tgbotapi.BotAPI the Telegram notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notifications to one chat through a bot
type Telegram struct {
	sender Sender
	chatID int64
}

var _ models.Notifier = (*Telegram)(nil)

// NewTelegram authorises the bot token and binds it to chatID
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram: bot token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorise bot: %w", err)
	}
	return NewTelegramWithSender(bot, chatID), nil
}

func NewTelegramWithSender(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

func (t *Telegram) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s\n\n%s", title, body))
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// Multi fans a notification out to every notifier and joins their errors
type Multi []models.Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
