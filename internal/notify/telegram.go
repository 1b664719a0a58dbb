package notify

import (
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram pushes reports to a single chat. Nil-safe: a nil receiver or a
// failed send is silently dropped, the report is only ever best-effort.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegram connects the bot API for the configured chat.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

// Send delivers the report, swallowing any failure.
func (t *Telegram) Send(subject, body string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := tgbot.NewMessage(t.chatID, subject+"\n\n"+body)
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn().Err(err).Str("subject", subject).Msg("report delivery failed")
	}
}
