// main wires the time clock service: configuration, the record store, the
// verification channels, the clock and admin services, and the HTTP router.
// Business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mattrav05/timeclock-app/internal/admin"
	"github.com/mattrav05/timeclock-app/internal/attendance"
	"github.com/mattrav05/timeclock-app/internal/auth"
	"github.com/mattrav05/timeclock-app/internal/netverify"
	"github.com/mattrav05/timeclock-app/internal/platform/config"
	"github.com/mattrav05/timeclock-app/internal/platform/httpserver"
	"github.com/mattrav05/timeclock-app/internal/platform/logger"
	"github.com/mattrav05/timeclock-app/internal/platform/metrics"
	"github.com/mattrav05/timeclock-app/internal/platform/middleware"
	platformredis "github.com/mattrav05/timeclock-app/internal/platform/redis"
	"github.com/mattrav05/timeclock-app/internal/sheets"
	"github.com/mattrav05/timeclock-app/internal/store"
	"github.com/mattrav05/timeclock-app/internal/timecard"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Record store: the spreadsheet in production, in-memory for local
	// development without credentials.
	var sheetStore sheets.Store
	if cfg.SpreadsheetID != "" {
		google, err := sheets.NewGoogle(ctx, cfg)
		if err != nil {
			return err
		}
		sheetStore = google
	} else {
		log.Warn("SPREADSHEET_ID not set, using in-memory record store")
		memory := sheets.NewMemory()
		if err := store.EnsureSchema(ctx, memory); err != nil {
			return err
		}
		sheetStore = memory
	}
	sheetStore = sheets.Instrument(sheetStore, sheets.NewMetrics())

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Typed stores.
	employees, err := store.NewEmployees(sheetStore)
	if err != nil {
		return err
	}
	entries, err := store.NewTimeEntries(sheetStore)
	if err != nil {
		return err
	}
	networks, err := store.NewNetworks(sheetStore)
	if err != nil {
		return err
	}
	settings, err := store.NewSettings(sheetStore)
	if err != nil {
		return err
	}
	sites, err := store.NewSites(sheetStore, settings)
	if err != nil {
		return err
	}
	auditLog, err := store.NewAudit(sheetStore)
	if err != nil {
		return err
	}

	// Services.
	ipLookup, err := netverify.NewPublicIPLookup(cfg.IPLookupURL, cfg.IPLookupTimeout)
	if err != nil {
		return err
	}
	verifier, err := netverify.New(networks, ipLookup,
		netverify.WithLogger(log),
		netverify.WithCache(redisClient, cfg.Redis.RuleCacheTTL))
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSigningKey)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(employees, tokens, cfg.AdminPassword, auth.WithLogger(log))
	if err != nil {
		return err
	}

	engine, err := attendance.NewEngine(employees, entries, sites, verifier,
		attendance.WithLogger(log),
		attendance.WithMetrics(attendance.NewMetrics(prometheus.DefaultRegisterer)))
	if err != nil {
		return err
	}

	timecardService, err := timecard.NewService(entries, employees, auditLog, timecard.WithLogger(log))
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(employees, entries, networks, admin.WithLogger(log))
	if err != nil {
		return err
	}

	router := newRouter(log, tokens, redisClient,
		auth.NewHandler(authService),
		attendance.NewHandler(engine),
		timecard.NewHandler(timecardService),
		admin.NewHandler(adminService))

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting timeclock server", "addr", cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(log *slog.Logger, tokens *auth.TokenService, redisClient *platformredis.Client,
	authHandler, clockHandler, timecardHandler, adminHandler registrar) http.Handler {

	httpMetrics := metrics.NewHTTP(prometheus.DefaultRegisterer)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				log.WarnContext(req.Context(), "redis unhealthy", "error", err)
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		authHandler.Register(public)
	})
	r.Group(func(employee chi.Router) {
		employee.Use(middleware.RequireEmployee(tokens, log))
		clockHandler.Register(employee)
	})
	r.Group(func(adminOnly chi.Router) {
		adminOnly.Use(middleware.RequireAdmin(tokens, log))
		timecardHandler.Register(adminOnly)
		adminHandler.Register(adminOnly)
	})
	return r
}
