package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"attestbot/internal/attestation"
	"attestbot/internal/config"
	"attestbot/internal/keylock"
	"attestbot/internal/ledger"
	"attestbot/internal/logger"
	"attestbot/internal/messaging"
	"attestbot/internal/notify"
	"attestbot/internal/rates"
	"attestbot/internal/reward"
	"attestbot/internal/server"
	"attestbot/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.Initialize(logger.Configuration{
		LogFile:   cfg.LogFile,
		ErrorFile: cfg.ErrorLogFile,
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	store := storage.NewSqliteStorage(cfg.DatabasePath)

	gateway := ledger.NewRPCGateway(cfg.WalletRPCURL)
	msg := messaging.NewRPCMessenger(cfg.WalletRPCURL)
	notifier := notify.LogNotifier{}
	locks := keylock.New()
	feed := rates.NewFeed()

	rewards := reward.NewEngine(cfg, store, gateway, msg, feed, notifier, locks, gateway, cfg.DistributionAddress)
	bot := attestation.NewBot(cfg, store, gateway, msg, notifier, locks, rewards, cfg.AttestorAddress)

	go runSweeps(ctx, cfg, bot, rewards)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(bot, feed).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening for events", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server stopped", zap.Error(err))
		cancel()
	case <-waitForInterrupt():
		logger.Info("received interrupt signal")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

// runSweeps periodically retries unposted attestations and unpaid rewards and
// consolidates received payments to the attestor address.
func runSweeps(ctx context.Context, cfg *config.Config, bot *attestation.Bot, rewards *reward.Engine) {
	retryTicker := time.NewTicker(cfg.RetryInterval)
	defer retryTicker.Stop()
	consolidationTicker := time.NewTicker(cfg.ConsolidationInterval)
	defer consolidationTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-retryTicker.C:
			bot.RetryPostingAttestations()
			rewards.RetrySendingRewards()
		case <-consolidationTicker.C:
			bot.ConsolidateFunds()
		}
	}
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
