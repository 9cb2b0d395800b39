package service

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// pollRetryDelay is the pause after a failed getUpdates call.
var pollRetryDelay = 3 * time.Second

// UpdatesGetter is the long polling part of the Telegram Bot API.
type UpdatesGetter interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// PollUpdates long-polls Telegram until ctx is cancelled and then closes the channel.
// Failed calls are retried after a short pause.
func PollUpdates(ctx context.Context, bot UpdatesGetter, config tgbotapi.UpdateConfig, buffer int) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, buffer)

	go func() {
		defer close(ch)
		for {
			if ctx.Err() != nil {
				return
			}
			updates, err := bot.GetUpdates(config)
			if err != nil {
				logrus.WithError(err).Warnf("Failed to get updates, retrying in %v...", pollRetryDelay)
				select {
				case <-ctx.Done():
					return
				case <-time.After(pollRetryDelay):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case ch <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}

// Run dispatches updates until ctx is cancelled or the channel is closed, then waits for
// the updates already accepted to be handled.
func (b *TgBotServices) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	dispatcher := NewDispatcher(b.UpdateProcessing)
	defer dispatcher.Wait()

	// Accepted updates finish even when shutdown starts.
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stopping update loop...")
			return nil
		case update, ok := <-updates:
			if !ok {
				logrus.Info("Updates channel closed")
				return nil
			}
			dispatcher.Dispatch(handlerCtx, update)
		}
	}
}
