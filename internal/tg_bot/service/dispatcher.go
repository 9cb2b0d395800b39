package service

import (
	"context"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// UpdateHandler processes one update to completion.
type UpdateHandler func(ctx context.Context, update *tgbotapi.Update)

type queuedUpdate struct {
	ctx    context.Context
	update tgbotapi.Update
}

// Dispatcher runs updates of one chat strictly in arrival order while different chats
// are processed concurrently. A chat's queue lives only while it has pending updates.
type Dispatcher struct {
	handle UpdateHandler

	mu     sync.Mutex
	queues map[int64][]queuedUpdate // Pending updates per chat, present while a worker runs
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher calling handle for every update.
func NewDispatcher(handle UpdateHandler) *Dispatcher {
	return &Dispatcher{
		handle: handle,
		queues: make(map[int64][]queuedUpdate),
	}
}

// Dispatch enqueues the update behind the earlier updates of the same chat.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	chatID := updateChatID(&update)

	d.mu.Lock()
	pending, running := d.queues[chatID]
	d.queues[chatID] = append(pending, queuedUpdate{ctx: ctx, update: update})
	if !running {
		d.wg.Add(1)
		go d.work(chatID)
	}
	d.mu.Unlock()
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// work drains the chat's queue and removes it once empty. Removal happens under the same
// lock as Dispatch appends, so an update is never left behind in a reaped queue.
func (d *Dispatcher) work(chatID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		pending := d.queues[chatID]
		if len(pending) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		next := pending[0]
		pending[0] = queuedUpdate{}
		d.queues[chatID] = pending[1:]
		d.mu.Unlock()

		d.run(chatID, next)
	}
}

func (d *Dispatcher) run(chatID int64, item queuedUpdate) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("chatID", chatID).Errorf("Panic while processing update %d: %v\n%s", item.update.UpdateID, r, debug.Stack())
		}
	}()
	d.handle(item.ctx, &item.update)
}

// activeChats reports how many chats have a live queue.
func (d *Dispatcher) activeChats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// updateChatID finds the chat an update belongs to. Updates without a chat share queue 0.
func updateChatID(update *tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	default:
		return 0
	}
}
