package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender posts Markdown messages to one chat.
type Sender struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// NewSender authenticates the bot against the public Bot API.
func NewSender(token string, chatID int64, log *slog.Logger) (*Sender, error) {
	return NewSenderWithEndpoint(token, tgbotapi.APIEndpoint, http.DefaultClient, chatID, log)
}

// NewSenderWithEndpoint is NewSender against a custom Bot API endpoint
// (format "https://host/bot%s/%s").
func NewSenderWithEndpoint(token, endpoint string, client *http.Client, chatID int64, log *slog.Logger) (*Sender, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sender{api: api, chatID: chatID, log: log}, nil
}

// Send delivers text with Markdown parsing and link previews disabled.
func (s *Sender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	sent, err := s.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	s.log.Info("digest sent", slog.Int64("chat_id", s.chatID), slog.Int("message_id", sent.MessageID))
	return nil
}
