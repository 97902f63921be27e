package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"quickscreen/internal/domain/ports/adapter"
)

// Ensure interface compliance:
var _ adapter.RecruiterNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes new-submission notices to recruiters who linked
// a Telegram chat. The recruiter-ref to chat-id mapping comes from config;
// unlinked recruiters are simply skipped.
type TelegramNotifier struct {
	bot   *tgbotapi.BotAPI
	chats map[string]int64
	log   *zerolog.Logger
}

func NewTelegramNotifier(token string, chats map[string]int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	l.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier ready")
	return &TelegramNotifier{bot: bot, chats: chats, log: &l}, nil
}

func (n *TelegramNotifier) NotifyNewSubmission(ctx context.Context, recruiterRef, jobTitle string, questionIndex int) error {
	chatID, ok := n.chats[recruiterRef]
	if !ok {
		return nil // recruiter has no linked chat
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("New video answer for %q (question %d) is waiting for review.", jobTitle, questionIndex+1)
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// NoopNotifier is used when no bot token is configured.
type NoopNotifier struct{}

var _ adapter.RecruiterNotifier = (*NoopNotifier)(nil)

func (NoopNotifier) NotifyNewSubmission(context.Context, string, string, int) error { return nil }
