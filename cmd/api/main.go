package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NassaQ/server/internal/audit"
	"github.com/NassaQ/server/internal/auth"
	"github.com/NassaQ/server/internal/config"
	"github.com/NassaQ/server/internal/httpapi"
	"github.com/NassaQ/server/internal/obs"
	"github.com/NassaQ/server/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SDMS_COMMIT"))

	// Configuration is read and validated exactly once; everything
	// downstream receives it by reference.
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.PostgresDSN == "" {
		log.Fatalf("config: %s is required", config.EnvPostgresDSN)
	}
	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	codec, err := auth.NewCodec(cfg.SigningSecret, cfg.SigningAlgorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	storeSink, err := audit.NewStoreSink(store.Audit())
	if err != nil {
		log.Fatalf("audit sink: %v", err)
	}
	sink := audit.Fanout{storeSink, audit.LogSink{}}

	creds, err := auth.NewService(store, codec, auth.WithAuditSink(sink))
	if err != nil {
		log.Fatalf("credential service: %v", err)
	}
	resolver, err := auth.NewResolver(store)
	if err != nil {
		log.Fatalf("permission resolver: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: store.DB()}, version, creds, codec, resolver, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting sdms-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
