package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditlog "storefront/backend/internal/audit"
	audithandler "storefront/backend/internal/audit/handler"
	auditrepo "storefront/backend/internal/audit/repository"
	authhandler "storefront/backend/internal/auth/handler"
	authservice "storefront/backend/internal/auth/service"
	"storefront/backend/internal/config"
	"storefront/backend/internal/db"
	"storefront/backend/internal/security"
	"storefront/backend/internal/server"
	sessionrepo "storefront/backend/internal/session/repository"
	"storefront/backend/internal/telemetry"
	"storefront/backend/internal/telemetry/otel"
	userrepo "storefront/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "storefront-auth", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	metrics := telemetry.MustNewMetrics(providers.MeterProvider)
	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := auditlog.NewLogger(auditRepo)

	authSvc := authservice.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		sessionrepo.NewPostgresRepository(conn),
		security.NewHasher(),
		tokens,
		cfg.MaxActiveSessions,
		auditLogger,
		metrics,
	)

	router := server.NewRouter(server.Deps{
		Auth:         authhandler.NewHandler(authSvc, tokens, cfg.IsProduction()),
		Audit:        audithandler.NewHandler(auditRepo),
		Tokens:       tokens,
		HealthPinger: conn,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("http server stopped")
}
