package tbot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/config"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSender struct{}

func (nopSender) Send(tgbotapi.Chattable) (tgbotapi.Message, error) { return tgbotapi.Message{}, nil }
func (nopSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestProvider(t *testing.T) *ServiceProvider {
	t.Helper()
	s := NewServiceProvider(&config.Config{
		EnvDBDriver:     "sqlite",
		EnvDBDSN:        ":memory:",
		EnvReportTmpDir: t.TempDir(),
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestServiceProvider_BuildsOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestProvider(t)

	store, err := s.RecordStore(ctx)
	require.NoError(t, err)
	again, err := s.RecordStore(ctx)
	require.NoError(t, err)
	assert.Same(t, store, again)

	engine, err := s.Engine(ctx)
	require.NoError(t, err)
	bot, err := s.BotService(ctx, nopSender{})
	require.NoError(t, err)
	assert.Same(t, engine, bot.Engine)
	assert.Same(t, s.SessionStore(), s.SessionStore())
}

func TestServiceProvider_EngineReportsMetrics(t *testing.T) {
	ctx := context.Background()
	s := newTestProvider(t)
	engine, err := s.Engine(ctx)
	require.NoError(t, err)

	_, err = engine.Start(ctx, 1, flow.FlowRegistration)
	require.NoError(t, err)

	handler, err := s.Handler(ctx)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kraflo_flows_started_total{flow="registration"} 1`)
	assert.Contains(t, rec.Body.String(), "kraflo_active_sessions 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServiceProvider_BadDriver(t *testing.T) {
	s := NewServiceProvider(&config.Config{EnvDBDriver: "oracle", EnvDBDSN: "x"})

	_, err := s.RecordStore(context.Background())
	assert.Error(t, err)
	_, err = s.Engine(context.Background())
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
