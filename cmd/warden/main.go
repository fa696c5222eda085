package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warden-automod/internal/analytics"
	"warden-automod/internal/bot"
	"warden-automod/internal/censor"
	"warden-automod/internal/config"
	"warden-automod/internal/messaging"
	"warden-automod/internal/metrics"
	"warden-automod/internal/modules/audit"
	"warden-automod/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	logger.Info("storage ready", zap.String("dialect", store.Dialect()))

	wordlist, err := censor.LoadWordList(cfg.Automod.WordlistPath)
	if err != nil {
		logger.Fatal("wordlist load failed", zap.Error(err))
	}
	if !cfg.Production() {
		wordlist = wordlist.Extend(1, censor.Freeform, censor.TestToken)
	}
	filter, err := censor.FromWordList(wordlist)
	if err != nil {
		logger.Fatal("wordlist compile failed", zap.Error(err))
	}
	logger.Info("censor ready", zap.Int("tiers", filter.Tiers()), zap.String("environment", cfg.Environment))

	deps := bot.Deps{
		Censor:    filter,
		Store:     store,
		Audit:     audit.NewLogger(store, logger),
		Analytics: analytics.New(store),
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, invite cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = client.Close()
		} else {
			defer client.Close()
			deps.Redis = client
		}
	}

	if cfg.NATS.Enabled {
		natsCfg := messaging.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = cfg.NATS.Name
		client, err := messaging.NewNATSClient(natsCfg, logger)
		if err != nil {
			logger.Warn("nats unavailable, violation events disabled", zap.Error(err))
		} else {
			defer client.Close()
			deps.Publisher = client
		}
	}

	botSvc, err := bot.New(cfg, logger, deps)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("mode", cfg.Mode), zap.Int("strike_threshold", cfg.Strikes.Threshold))

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("/metrics", metrics.Handler())
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	retentionCtx, stopRetention := context.WithCancel(context.Background())
	go runRetention(retentionCtx, store, cfg.RetentionDays, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	stopRetention()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(ctx)
	}
	botSvc.Close(ctx)
}

// runRetention drops old audit entries and long-expired warnings once an hour.
func runRetention(ctx context.Context, store *storage.Store, retentionDays int, logger *zap.Logger) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		pruned, pruneErr := store.PruneWarnings(ctx, cutoff)
		err := multierr.Append(store.CleanupAuditLogs(ctx, retentionDays), pruneErr)
		if err != nil {
			logger.Warn("retention cleanup failed", zap.Error(err))
		} else if pruned > 0 {
			logger.Info("expired warnings pruned", zap.Int64("count", pruned))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
