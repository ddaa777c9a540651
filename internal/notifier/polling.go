package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PivotSentinel/internal/logger"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling begins long-polling for Telegram commands. Only messages from
// the configured chat are handled. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Infof("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Text == "" || msg.Chat == nil {
				continue
			}
			if msg.Chat.ID != t.chatID {
				logger.Warnf("ignoring message from chat %d", msg.Chat.ID)
				continue
			}
			text := strings.TrimSpace(msg.Text)
			logger.Infof("received command: %s", text)
			if reply := handler(ctx, text); reply != "" {
				if err := t.SendWithRetry(ctx, reply, 2); err != nil {
					logger.Errorf("send reply: %v", err)
				}
			}
		}
	}
}
