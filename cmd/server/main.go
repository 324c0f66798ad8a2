// Package main initializes and starts the CRM sync HTTPS server, setting up
// configuration, logging, the database, the CRM session, services, the
// background sweeper, handlers, and TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/crmsync/internal/config"
	"github.com/atinyakov/crmsync/internal/crm"
	"github.com/atinyakov/crmsync/internal/db"
	"github.com/atinyakov/crmsync/internal/logger"
	"github.com/atinyakov/crmsync/internal/repository"
	"github.com/atinyakov/crmsync/internal/server/handler/http"
	"github.com/atinyakov/crmsync/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	memberRepo := repository.NewPostgresMemberRepository(postgresDB)
	vehicleRepo := repository.NewPostgresVehicleRepository(postgresDB)

	// CRM session, REST client and per-entity sync operations.
	crmHTTP := &nethttp.Client{Timeout: time.Duration(options.CRM.Timeout)}
	sessions := crm.NewSessionStore()
	authenticator := crm.NewAuthenticator(options.CRMCredential(), sessions, crmHTTP, zapLogger)
	crmClient := crm.NewClient(sessions, crmHTTP, options.CRMClientConfig())
	memberSync := crm.NewMemberSync(crmClient, authenticator, zapLogger)
	vehicleSync := crm.NewVehicleSync(crmClient, authenticator, zapLogger)
	poller := crm.NewPoller(options.Sweep.Concurrency, zapLogger)

	// Initialize business-logic services.
	memberService := service.NewMemberService(memberRepo, memberSync, zapLogger)
	vehicleService := service.NewVehicleService(vehicleRepo, memberRepo, vehicleSync, zapLogger)
	maintenanceService := service.NewMaintenanceService(memberService, vehicleService, poller,
		service.SweepConfig{Concurrency: options.Sweep.Concurrency, Batch: options.Sweep.Batch},
		zapLogger,
	)

	// Authenticate eagerly; on failure keep serving and let the first CRM
	// write re-authenticate.
	if _, err := authenticator.Authenticate(ctx); err != nil {
		zapLogger.Error("initial crm authentication failed", zap.Error(err))
	}

	service.StartSweeper(ctx, time.Duration(options.Sweep.Interval), maintenanceService.Sweep, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.MemberHandler{MemberService: memberService},
		&http.VehicleHandler{VehicleService: vehicleService},
		&http.MaintenanceHandler{MaintenanceService: maintenanceService, Log: zapLogger},
		zapLogger,
	)

	// Load server TLS certificate and key.
	cert, err := tls.LoadX509KeyPair(options.TLSCert, options.TLSKey)
	if err != nil {
		zapLogger.Fatal("failed to load server TLS cert/key", zap.Error(err))
	}

	// Load and append CA certificate for operator cert verification.
	caCert, err := os.ReadFile(options.TLSCA)
	if err != nil {
		zapLogger.Fatal("failed to read CA cert", zap.Error(err))
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		zapLogger.Fatal("failed to append CA cert to pool")
	}

	// Health probes come without a certificate, so it is verified only if given.
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.VerifyClientCertIfGiven,
		ClientCAs:    caCertPool,
		MinVersion:   tls.VersionTLS12,
	}

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
	if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
	}
}
