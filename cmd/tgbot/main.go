package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DenisKhanov/KrafloBot/internal/app/tbot"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := tbot.NewApp(ctx)
	if err != nil {
		logrus.Fatalf("failed to init app: %v", err)
	}

	logrus.Info("Kraflo bot started")
	if err = app.Run(ctx); err != nil {
		logrus.Errorf("Bot stopped with error: %v", err)
		stop()
		os.Exit(1)
	}
	logrus.Info("Kraflo bot stopped gracefully")
}
