package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mung-manager/internal/adapters/auth/jwtauth"
	"mung-manager/internal/adapters/auth/kakao"
	"mung-manager/internal/adapters/search/naver"
	"mung-manager/internal/adapters/storage/postgres"
	s3adapter "mung-manager/internal/adapters/storage/s3"
	"mung-manager/internal/config"
	"mung-manager/internal/platform/httpclient"
	"mung-manager/internal/platform/logger"
	"mung-manager/internal/router"
	"mung-manager/migrations"

	"github.com/pressly/goose/v3"
)

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		db, err = postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := runMigrations(db); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	} else {
		log.Warn("no postgres dsn configured, using in-memory repositories")
	}

	opts := router.Options{
		Logger:         log,
		DB:             db,
		MetricsEnabled: cfg.Metrics.Enabled,
	}

	if cfg.Auth.JWTSecret != "" {
		mgr, err := jwtauth.NewManager(
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute,
			time.Duration(cfg.Auth.RefreshTokenTTL)*time.Minute,
		)
		if err != nil {
			log.Error("jwt manager init failed", "err", err)
			os.Exit(1)
		}
		opts.Verifier = mgr
		opts.Issuer = mgr
	} else {
		log.Warn("no jwt secret configured, running in debug-auth mode")
	}

	if cfg.Auth.Kakao.ClientID != "" {
		flow, err := kakao.NewClient(httpclient.New(0), cfg.Auth.Kakao.ClientID, cfg.Auth.Kakao.ClientSecret)
		if err != nil {
			log.Error("kakao client init failed", "err", err)
			os.Exit(1)
		}
		opts.Flow = flow
	}

	if cfg.Naver.ClientID != "" {
		hc, err := httpclient.NewWithBaseURL(cfg.Naver.BaseURL, 0)
		if err != nil {
			log.Error("naver base url invalid", "err", err)
			os.Exit(1)
		}
		places, err := naver.NewClient(hc, cfg.Naver.ClientID, cfg.Naver.ClientSecret)
		if err != nil {
			log.Error("naver client init failed", "err", err)
			os.Exit(1)
		}
		opts.Places = places
	}

	if cfg.AWS.Bucket != "" {
		up, err := s3adapter.NewUploader(context.Background(), cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.S3URL)
		if err != nil {
			log.Error("s3 uploader init failed", "err", err)
			os.Exit(1)
		}
		opts.Uploader = up
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.New(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("http server started", "addr", cfg.HTTP.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
		return
	}
	log.Info("graceful shutdown complete")
}
