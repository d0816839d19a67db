package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ocastrobeltran/gestio-qa-backend/config"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/bootstrap"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	publisher := notify.NewRedisPublisher(redisClient, cfg.Redis.Channel)

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Println("EMAIL_HOST not set, logging notifications instead of sending")
		mailer = notify.LogMailer{}
	}
	dispatcher := notify.NewDispatcher(redisClient, cfg.Redis.Channel, mailer)
	go dispatcher.Run(ctx)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "gestio-qa-backend",
		Version:        cfg.App.Version,
		FrontendOrigin: cfg.Server.FrontendOrigin,
		DB:             db,
		UnitTimeout:    cfg.Database.UnitTimeout,
		JWTSecret:      cfg.JWT.Secret,
		JWTExpiresIn:   cfg.JWT.ExpiresIn,
		Publisher:      publisher,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
