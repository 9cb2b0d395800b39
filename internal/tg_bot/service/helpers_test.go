package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/api"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

// fakeSender records everything the bot sends to Telegram.
type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	documents []sentDocument
}

type sentDocument struct {
	path    string
	existed bool // The file was on disk while it was being uploaded
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := c.(tgbotapi.DocumentConfig); ok {
		path := string(doc.File.(tgbotapi.FilePath))
		_, err := os.Stat(path)
		f.documents = append(f.documents, sentDocument{path: path, existed: err == nil})
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSender) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs, "nothing was sent")
	return msgs[len(msgs)-1]
}

func (f *fakeSender) markupEdits() []tgbotapi.EditMessageReplyMarkupConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageReplyMarkupConfig
	for _, c := range f.requests {
		if edit, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			out = append(out, edit)
		}
	}
	return out
}

type testBot struct {
	bot    *TgBotServices
	sender *fakeSender
	store  *repository.RecordStore
	engine *flow.Engine
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	store, err := repository.OpenRecordStore(context.Background(), repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := flow.NewEngine(repository.NewSessionStore(), nil, flow.Flows(flow.Deps{
		Repo:     store,
		Renderer: api.NewPDFReport(t.TempDir()),
	})...)
	require.NoError(t, err)

	sender := &fakeSender{}
	return &testBot{
		bot:    NewTgBot(sender, engine),
		sender: sender,
		store:  store,
		engine: engine,
	}
}

func (tb *testBot) register(t *testing.T, chatID int64, name string) {
	t.Helper()
	require.NoError(t, tb.store.CreateUserProfile(context.Background(), models.UserProfile{
		ChatID: chatID, Name: name, Role: "Mecânico", Level: "Pleno", Department: "Usinagem",
		RegistrationCode: "EMP-" + name,
	}))
}

// text delivers a text message; a leading slash makes it a command.
func (tb *testBot) text(chatID int64, text string) {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	tb.bot.UpdateProcessing(context.Background(), &tgbotapi.Update{Message: msg})
}

// press delivers an inline button press on message 7 of the chat.
func (tb *testBot) press(chatID int64, data string) {
	tb.bot.UpdateProcessing(context.Background(), &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}})
}

func inlineMarkup(t *testing.T, msg tgbotapi.MessageConfig) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "expected an inline keyboard, got %T", msg.ReplyMarkup)
	return markup
}

func replyMarkup(t *testing.T, msg tgbotapi.MessageConfig) tgbotapi.ReplyKeyboardMarkup {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok, "expected a reply keyboard, got %T", msg.ReplyMarkup)
	return markup
}

func callbackData(b tgbotapi.InlineKeyboardButton) string {
	if b.CallbackData == nil {
		return ""
	}
	return *b.CallbackData
}

func fileGone(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}
