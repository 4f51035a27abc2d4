package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docintake/internal/config"
	"docintake/internal/credential"
	"docintake/internal/handler"
	"docintake/internal/intake"
	"docintake/internal/interaction"
	"docintake/internal/oracle"
	"docintake/internal/server"
	"docintake/internal/session"
	"docintake/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sessions := session.NewFromEnv(cfg.SessionPath)
	sessions.EnsureLoaded()
	defer sessions.Close()

	uploads := buildUploadStore(cfg)
	cli, forKey := buildOracle(cfg)
	defer cli.Close()

	registry := interaction.NewRegistry()
	vault := credential.NewVault()

	svc := intake.New(cli, forKey, uploads, sessions, registry, vault, intake.Options{
		Model:           cfg.Oracle.Model,
		MaxDepth:        cfg.Negotiation.MaxDepth,
		MaxOutputTokens: cfg.Oracle.MaxOutputTokens,
	})

	mux := server.NewMux(
		handler.NewIntakeHandler(svc),
		handler.NewCredentialHandler(svc),
		handler.NewWatchHandler(svc, registry),
	)
	srv := server.New(cfg.Port, mux)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// buildOracle builds the shared default client plus a factory for clients
// bound to user-supplied credentials (OpenAI-compatible providers only).
func buildOracle(cfg *config.Config) (oracle.Client, intake.ClientFactory) {
	var (
		base   oracle.Client
		forKey intake.ClientFactory
	)
	switch cfg.Oracle.Provider {
	case "gemini":
		g, err := oracle.NewGeminiClient(context.Background(), cfg.Oracle.Model)
		if err != nil {
			log.Fatalf("init gemini client: %v", err)
		}
		base = g
	case "fake":
		base = oracle.NewFakeClient()
	default:
		oc := oracle.NewOpenAIClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model)
		base = oc
		forKey = func(apiKey string) oracle.Client {
			return oc.WithCredential(apiKey)
		}
	}

	mws := []oracle.Middleware{oracle.WithLogging(nil)}
	if cfg.Oracle.RPS > 0 {
		mws = append(mws, oracle.RateLimit(cfg.Oracle.RPS, cfg.Oracle.Burst))
	}
	if cfg.Oracle.UsageLedgerPath != "" {
		mws = append(mws, oracle.WithUsageLedger(cfg.Oracle.UsageLedgerPath))
	}
	return oracle.Wrap(base, mws...), forKey
}

func buildUploadStore(cfg *config.Config) upload.Store {
	if !cfg.Upload.Enabled {
		log.Printf("upload archive: in-memory (no endpoint configured)")
		return upload.NewMemoryStore()
	}
	s3, err := upload.NewS3Store(upload.S3Config{
		Endpoint:  cfg.Upload.Endpoint,
		Region:    cfg.Upload.Region,
		AccessKey: cfg.Upload.AccessKey,
		SecretKey: cfg.Upload.SecretKey,
		Bucket:    cfg.Upload.Bucket,
		UseSSL:    cfg.Upload.UseSSL,
	})
	if err != nil {
		log.Printf("upload archive: falling back to in-memory: %v", err)
		return upload.NewMemoryStore()
	}
	return s3
}
