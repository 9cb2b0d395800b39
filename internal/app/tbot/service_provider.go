// Package tbot provides dependency injection and service management for Telegram bot components.
// It initializes and provides access to the stores, the flow engine, the transport and
// the ops endpoints required for bot operations.
package tbot

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/api"
	botHand "github.com/DenisKhanov/KrafloBot/internal/tg_bot/api/http"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/config"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/metrics"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/KrafloBot/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	cfg *config.Config

	// Storage
	recordStore    *repository.RecordStore
	recordStoreErr error
	sessionStore *repository.SessionStore

	// Flows
	renderer *api.PDFReport
	registry *prometheus.Registry
	engine   *flow.Engine

	// Handler
	handler http.Handler

	// Bot API
	botAPI    *tgbotapi.BotAPI
	botAPIErr error

	// Bot service
	botService *botServ.TgBotServices

	recordStoreOnce  sync.Once
	sessionStoreOnce sync.Once
	rendererOnce     sync.Once
	registryOnce     sync.Once
	engineOnce       sync.Once
	handlerOnce      sync.Once
	botAPIOnce       sync.Once
	botServiceOnce   sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{cfg: cfg}
}

// RecordStore returns the SQL store of profiles and work orders.
func (s *ServiceProvider) RecordStore(ctx context.Context) (*repository.RecordStore, error) {
	s.recordStoreOnce.Do(func() {
		s.recordStore, s.recordStoreErr = repository.OpenRecordStore(ctx, s.cfg.EnvDBDriver, s.cfg.EnvDBDSN)
		if s.recordStoreErr != nil {
			logrus.Errorf("Failed to initialize RecordStore: %v", s.recordStoreErr)
			s.recordStore = nil
		}
	})
	if s.recordStore == nil {
		return nil, fmt.Errorf("record store not initialized: %w", s.recordStoreErr)
	}
	return s.recordStore, nil
}

// SessionStore returns the in-memory store of live conversations.
func (s *ServiceProvider) SessionStore() *repository.SessionStore {
	s.sessionStoreOnce.Do(func() {
		s.sessionStore = repository.NewSessionStore()
		logrus.Info("SessionStore initialized")
	})
	return s.sessionStore
}

// Renderer returns the PDF report renderer.
func (s *ServiceProvider) Renderer() *api.PDFReport {
	s.rendererOnce.Do(func() {
		s.renderer = api.NewPDFReport(s.cfg.EnvReportTmpDir)
		logrus.Infof("Report renderer initialized (dir %s)", s.cfg.EnvReportTmpDir)
	})
	return s.renderer
}

// Registry returns the Prometheus registry exposed on /metrics.
func (s *ServiceProvider) Registry() *prometheus.Registry {
	s.registryOnce.Do(func() {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return s.registry
}

// Engine returns the flow engine with every flow of the bot.
func (s *ServiceProvider) Engine(ctx context.Context) (*flow.Engine, error) {
	store, err := s.RecordStore(ctx)
	if err != nil {
		return nil, err
	}
	s.engineOnce.Do(func() {
		sessions := s.SessionStore()
		observer := metrics.NewFlowMetrics(s.Registry(), sessions.Len)
		s.engine, err = flow.NewEngine(sessions, observer, flow.Flows(flow.Deps{
			Repo:     store,
			Renderer: s.Renderer(),
		})...)
		if err != nil {
			logrus.Errorf("Failed to initialize flow engine: %v", err)
			s.engine = nil
			return
		}
		logrus.Info("Flow engine initialized")
	})
	if s.engine == nil {
		return nil, fmt.Errorf("flow engine not initialized")
	}
	return s.engine, nil
}

// Handler returns the HTTP handler of the ops endpoints.
func (s *ServiceProvider) Handler(ctx context.Context) (http.Handler, error) {
	store, err := s.RecordStore(ctx)
	if err != nil {
		return nil, err
	}
	s.handlerOnce.Do(func() {
		s.handler = botHand.NewHandler(store, s.Registry()).Routes()
		logrus.Info("Handler initialized")
	})
	return s.handler, nil
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.cfg.EnvBotToken)
		if s.botAPIErr != nil {
			logrus.Errorf("Failed to initialize BotAPI: %v", s.botAPIErr)
			s.botAPI = nil
			return
		}
		s.botAPI.Debug = s.cfg.EnvBotDebug
	})
	if s.botAPI == nil {
		return nil, fmt.Errorf("bot API not initialized: %w", s.botAPIErr)
	}

	logrus.Info("BotApi initialized")
	return s.botAPI, nil
}

// BotService returns the main Telegram bot service.
func (s *ServiceProvider) BotService(ctx context.Context, bot botServ.Sender) (*botServ.TgBotServices, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		logrus.Errorf("Failed to get flow engine: %v", err)
		return nil, fmt.Errorf("bot service not initialized")
	}

	s.botServiceOnce.Do(func() {
		s.botService = botServ.NewTgBot(bot, engine)
		logrus.Info("BotService initialized")
	})
	return s.botService, nil
}

// Close releases the record store if it was opened.
func (s *ServiceProvider) Close() error {
	if s.recordStore == nil {
		return nil
	}
	return s.recordStore.Close()
}
