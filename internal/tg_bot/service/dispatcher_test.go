package service

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatUpdate(chatID int64, updateID int) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message:  &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "x"},
	}
}

func TestDispatcher_KeepsPerChatOrder(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64][]int)
	d := NewDispatcher(func(_ context.Context, u *tgbotapi.Update) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[u.Message.Chat.ID] = append(seen[u.Message.Chat.ID], u.UpdateID)
		mu.Unlock()
	})

	for i := 0; i < 60; i++ {
		d.Dispatch(context.Background(), chatUpdate(int64(i%3), i))
	}
	d.Wait()

	require.Len(t, seen, 3)
	for chatID, ids := range seen {
		assert.Len(t, ids, 20)
		assert.IsIncreasing(t, ids, "chat %d", chatID)
	}
	assert.Zero(t, d.activeChats(), "idle queues are reaped")
}

func TestDispatcher_ChatsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	otherDone := make(chan struct{})
	d := NewDispatcher(func(_ context.Context, u *tgbotapi.Update) {
		if u.Message.Chat.ID == 1 {
			<-release
			return
		}
		close(otherDone)
	})

	d.Dispatch(context.Background(), chatUpdate(1, 1))
	d.Dispatch(context.Background(), chatUpdate(2, 2))

	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("a blocked chat held up another chat")
	}
	close(release)
	d.Wait()
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	var handled []int
	d := NewDispatcher(func(_ context.Context, u *tgbotapi.Update) {
		if u.UpdateID == 1 {
			panic("boom")
		}
		handled = append(handled, u.UpdateID)
	})

	d.Dispatch(context.Background(), chatUpdate(5, 1))
	d.Dispatch(context.Background(), chatUpdate(5, 2))
	d.Wait()

	assert.Equal(t, []int{2}, handled)
}

func TestUpdateChatID(t *testing.T) {
	assert.Equal(t, int64(3), updateChatID(&tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 3}}}))
	assert.Equal(t, int64(4), updateChatID(&tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 4}},
	}}))
	assert.Equal(t, int64(5), updateChatID(&tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 5}}}))
	assert.Zero(t, updateChatID(&tgbotapi.Update{}))
}
