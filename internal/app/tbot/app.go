package tbot

import (
	"context"
	"fmt"

	"github.com/DenisKhanov/KrafloBot/internal/logcfg"
	botHand "github.com/DenisKhanov/KrafloBot/internal/tg_bot/api/http"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/config"
	botServ "github.com/DenisKhanov/KrafloBot/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts the Telegram bot and the ops server and blocks until ctx is cancelled
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.serviceProvider.Close(); err != nil {
			logrus.Errorf("Failed to close record store: %v", err)
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.runTelegramBot(ctx)
	})
	if a.config.EnvHTTPAddr != "" {
		group.Go(func() error {
			return a.runHTTPServer(ctx)
		})
	}
	return group.Wait()
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig(config.DefaultEnvFile)
	if err != nil {
		return err
	}
	a.config = cfg
	logcfg.RunLoggerConfig(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	return nil
}

// initServiceProvider initializes the service provider and opens the record store,
// so a broken database stops the process before it starts polling.
func (a *App) initServiceProvider(ctx context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config)
	if _, err := a.serviceProvider.RecordStore(ctx); err != nil {
		return err
	}
	return nil
}

// runTelegramBot polls Telegram and processes updates until ctx is cancelled.
func (a *App) runTelegramBot(ctx context.Context) error {
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return fmt.Errorf("can't make telegram bot: %w", err)
	}
	logrus.Infof("Bot API created successfully for %s", botAPI.Self.UserName)

	myBot, err := a.serviceProvider.BotService(ctx, botAPI)
	if err != nil {
		return err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(a.config.EnvUpdateTimeout.Seconds())
	updates := botServ.PollUpdates(ctx, botAPI, updateConfig, botAPI.Buffer)

	err = myBot.Run(ctx, updates)
	logrus.Info("Telegram bot stopped")
	return err
}

// runHTTPServer serves the health and metrics endpoints until ctx is cancelled.
func (a *App) runHTTPServer(ctx context.Context) error {
	handler, err := a.serviceProvider.Handler(ctx)
	if err != nil {
		return err
	}
	logrus.Infof("Ops server listening on %s", a.config.EnvHTTPAddr)
	return botHand.Serve(ctx, a.config.EnvHTTPAddr, handler)
}
