package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	api "github.com/mind-engage/mindengage-portal/internal/api/http"
	auth "github.com/mind-engage/mindengage-portal/internal/auth/middleware"
	"github.com/mind-engage/mindengage-portal/internal/catalog"
	"github.com/mind-engage/mindengage-portal/internal/config"
	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	"github.com/mind-engage/mindengage-portal/internal/storage"
	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
	"github.com/mind-engage/mindengage-portal/internal/users"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		dbh, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()

		h, err := newRouter(cfg, dbh)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shCtx)
		}()

		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Printf("shut down")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
}

// newRouter wires the stores and mounts the API.
func newRouter(cfg config.Config, dbh *sql.DB) (http.Handler, error) {
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return nil, err
	}
	var base []catalog.Entry
	if cfg.CatalogPath != "" {
		if base, err = catalog.LoadBase(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}

	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	bank := exam.NewSQLBank(dbh)
	ps := progress.NewSQLStore(dbh)
	ledger := exam.NewSQLLedger(dbh, events)
	policy := progress.Policy{
		PassThreshold:      cfg.PassThreshold,
		UnlockThreshold:    cfg.UnlockThreshold,
		UnlockMinQuestions: cfg.UnlockMinQuestions,
	}
	us := users.NewStore(dbh, users.WithBootstrapAdmin(cfg.AdminUser, cfg.AdminPassHash))
	deps := api.Deps{
		Bank:      bank,
		Progress:  ps,
		Ledger:    ledger,
		Evaluator: exam.NewEvaluator(bank, ps, ledger, exam.WithPolicy(policy)),
		Catalog:   catalog.NewService(base, catalog.NewSQLPatches(dbh)),
		Blobs:     bs,
		Users:     us,
		Events:    events,
	}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, us))
	}

	r.Route("/api", func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.TrustClaimedRole, cfg.AdminUser))
		api.Mount(pr, deps)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := dbh.PingContext(ctx); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r, nil
}
