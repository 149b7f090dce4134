// cmd/web/main.go
//
// SiteWright – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (server-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load configuration (conf/global.yaml + SITEWRIGHT_ env overrides).
//
//  4. Resolve `vault:` secret URIs (10Web API key, Stripe key).
//
//  5. Open Postgres and ping it.
//
//  6. Wire site store → workflow engine → billing → API handler.
//
//  7. Expose Prometheus /metrics, wrap the router in security headers
//     (plus ForceHTTPS when configured), serve until SIGINT/SIGTERM,
//     then drain connections.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sitewright/sitewright/internal/api"
	"github.com/sitewright/sitewright/internal/billing"
	"github.com/sitewright/sitewright/internal/config"
	"github.com/sitewright/sitewright/internal/database"
	"github.com/sitewright/sitewright/internal/logger"
	"github.com/sitewright/sitewright/internal/middleware"
	"github.com/sitewright/sitewright/internal/server"
	"github.com/sitewright/sitewright/internal/site"
	"github.com/sitewright/sitewright/internal/tenweb"
	"github.com/sitewright/sitewright/internal/vault"
	"github.com/sitewright/sitewright/internal/workflow"
)

const serverEnvPath = "/usr/local/etc/sitewright/global.env"

// loadEnv prefers the server-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if _, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY()); err != nil {
		log.Fatalf("start logger: %v", err)
	}
	zap.S().Infow("sitewright starting", "listen", cfg.HTTP.ListenAddr)

	//
	// ── 2.  Secret resolution ───────────────────────────────────────────
	//
	apiKey, stripeKey, err := resolveSecrets(ctx, cfg)
	if err != nil {
		zap.S().Fatalw("resolve secrets", "err", err)
	}

	//
	// ── 3.  Postgres connect ────────────────────────────────────────────
	//
	dsn, err := resolveOne(ctx, cfg.Database.DSN)
	if err != nil {
		zap.S().Fatalw("resolve database dsn", "err", err)
	}
	db, err := database.OpenWithOptions(ctx, dsn, database.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		zap.S().Fatalw("connect database", "err", err)
	}
	defer db.Close()

	// Early sanity check: site count surfaces schema drift immediately.
	var total int
	_ = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sites`)
	zap.S().Infow("database online", "sites", total)

	//
	// ── 4.  Upstream + workflow + billing wiring ────────────────────────
	//
	upstream := tenweb.New(cfg.TenWeb.BaseURL, apiKey, cfg.TenWeb.Region, tenweb.Timeouts{
		Check:    cfg.TenWeb.Timeouts.Check,
		Admin:    cfg.TenWeb.Timeouts.Admin,
		Sitemap:  cfg.TenWeb.Timeouts.Sitemap,
		Create:   cfg.TenWeb.Timeouts.Create,
		Generate: cfg.TenWeb.Timeouts.Generate,
	})
	store := site.NewStore(db)
	engine := workflow.NewEngine(upstream, store, workflow.Limits{
		CreateAttempts:    cfg.Retry.CreateAttempts,
		SubdomainAttempts: cfg.Retry.SubdomainAttempts,
		StepAttempts:      cfg.Retry.StepAttempts,
	})
	biller := billing.NewService(
		billing.NewGateway(stripeKey), store,
		cfg.Billing.SuccessURL, cfg.Billing.CancelURL,
	)

	//
	// ── 5.  Routes ──────────────────────────────────────────────────────
	//
	handler := api.NewHandler(engine, biller, db.PingContext)

	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.Handler())
	root.Mount("/", handler.Router())

	var h http.Handler = middleware.Security(root)
	if cfg.HTTP.ForceHTTPS {
		h = middleware.ForceHTTPS(h)
	}

	//
	// ── 6.  Serve + drain ───────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, h)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("serve", "err", err)
		}
	}()
	zap.S().Infow("sitewright online", "addr", cfg.HTTP.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// In-flight provisioning calls can hold a request open for minutes;
	// the drain window matches the longest upstream timeout.
	drainCtx, cancel := context.WithTimeout(ctx, cfg.TenWeb.Timeouts.Create+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		zap.S().Warnw("shutdown incomplete", "err", err)
	}
	zap.S().Infow("sitewright stopped")
}

/*──────────────────────────── secret plumbing ─────────────────────────────*/

// resolveSecrets turns the two `vault:` URIs (or literals) into usable keys.
// The Vault client is only built when at least one value needs it, so dev
// setups with literal keys never touch Vault.
func resolveSecrets(ctx context.Context, cfg *config.Config) (apiKey, stripeKey string, err error) {
	cli, err := vaultIfNeeded(ctx, cfg.TenWeb.APIKey, cfg.Billing.StripeKey, cfg.Database.DSN)
	if err != nil {
		return "", "", err
	}
	if apiKey, err = resolveWith(ctx, cli, cfg.TenWeb.APIKey); err != nil {
		return "", "", err
	}
	if stripeKey, err = resolveWith(ctx, cli, cfg.Billing.StripeKey); err != nil {
		return "", "", err
	}
	return apiKey, stripeKey, nil
}

var vaultClient *vault.Client

func vaultIfNeeded(ctx context.Context, values ...string) (*vault.Client, error) {
	needed := false
	for _, v := range values {
		if strings.HasPrefix(v, vault.URIPrefix) {
			needed = true
			break
		}
	}
	if !needed || vaultClient != nil {
		return vaultClient, nil
	}
	cli, err := vault.New(ctx, zap.S().Infow)
	if err != nil {
		return nil, err
	}
	vaultClient = cli
	return cli, nil
}

func resolveWith(ctx context.Context, cli *vault.Client, v string) (string, error) {
	if cli == nil {
		return v, nil
	}
	return cli.ResolveURI(ctx, v)
}

func resolveOne(ctx context.Context, v string) (string, error) {
	cli, err := vaultIfNeeded(ctx, v)
	if err != nil {
		return "", err
	}
	return resolveWith(ctx, cli, v)
}
