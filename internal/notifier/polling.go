package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Reply is a command answer. Photo is optional.
type Reply struct {
	Text      string
	Photo     []byte
	PhotoName string
}

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) Reply

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.log.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			chatID := update.Message.Chat.ID
			t.log.Info("received command", zap.String("text", text), zap.Int64("chat_id", chatID))

			reply := handler(ctx, text)
			if len(reply.Photo) > 0 {
				if err := t.SendPhoto(chatID, reply.PhotoName, reply.Photo, reply.Text); err != nil {
					t.log.Error("send photo reply", zap.Error(err))
				}
				continue
			}
			if reply.Text != "" {
				if err := t.sendTo(chatID, reply.Text); err != nil {
					t.log.Error("send reply", zap.Error(err))
				}
			}
		}
	}
}
