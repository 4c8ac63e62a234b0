package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/pidfile"
	"github.com/JhihJian/SUMM-Daemon/internal/daemon/server"
	"github.com/JhihJian/SUMM-Daemon/logging"
	"github.com/JhihJian/SUMM-Daemon/pkg/tmux"
	"github.com/JhihJian/SUMM-Daemon/version"
)

func main() {
	logger := logging.NewLogger("summ-daemon")
	if err := run(logger); err != nil {
		logger.WithError(err).Error("Daemon exited with error")
		os.Exit(1)
	}
}

func run(logger *logrus.Entry) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.WithField("version", version.Version).Info("SUMM daemon starting...")
	logger.WithField("base", cfg.BaseDir).Debug("Base directory resolved")

	mux, err := tmux.NewClient()
	if err != nil {
		return err
	}

	if err := pidfile.Acquire(cfg.PidFilePath()); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(cfg.PidFilePath()); err != nil {
			logger.WithError(err).Warn("Failed to remove pid file")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon := server.New(cfg, mux, logger)
	if err := daemon.Run(ctx); err != nil {
		return err
	}
	logger.Info("Daemon stopped")
	return nil
}
