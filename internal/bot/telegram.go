package bot

import (
	"context"

	"github.com/fortuna/services/player-stats-service/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
	log     *logger.Logger
}

func NewTelegramBot(token string, stats StatsQuerier, log *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &TelegramBot{
		bot:     bot,
		handler: NewHandler(stats),
		log:     log,
	}, nil
}

// Start answers commands until ctx is cancelled
func (t *TelegramBot) Start(ctx context.Context) error {
	t.log.Info("authorized on telegram", "username", t.bot.Self.UserName)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			msg := t.handler.HandleCommand(ctx, update)
			if _, err := t.bot.Send(msg); err != nil {
				t.log.Error("error sending message", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
