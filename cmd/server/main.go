package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wavechat/internal/config"
	"wavechat/internal/httpserver"
	"wavechat/internal/metrics"
	"wavechat/internal/presence"
	"wavechat/internal/security"
	"wavechat/internal/store/sqlite"
	"wavechat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	var log *zap.Logger
	if cfg.Debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("open_database_failed", zap.Error(err))
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		log.Fatal("migrate_failed", zap.Error(err))
	}

	store, err := presence.Open(cfg.PresencePath)
	if err != nil {
		log.Fatal("open_presence_store_failed", zap.Error(err))
	}
	defer store.Close()

	tokenSvc := security.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour,
	)
	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey))
	if err != nil {
		log.Fatal("init_encryptor_failed", zap.Error(err))
	}

	hub := ws.NewHub()
	m := metrics.New()

	router := httpserver.NewRouter(cfg, db, store, hub, tokenSvc, encryptor, m, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server_starting", zap.String("addr", cfg.HTTPAddr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server_error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("server_shutting_down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful_shutdown_failed", zap.Error(err))
	}
}
