// Command server runs the citygate multi-tenant lead API.
//
// Configuration is loaded from a YAML file (see -config) with CITYGATE_*
// environment overrides:
//
//	CITYGATE_CONFIG           - Config file path
//	CITYGATE_PORT             - Listen port (default: 8080)
//	CITYGATE_STORAGE          - Storage type: "memory" or "postgres" (default: "memory")
//	CITYGATE_POSTGRES_DSN     - PostgreSQL connection string
//	CITYGATE_AUTH_SECRET      - HMAC token secret (or CITYGATE_AUTH_SECRET_FILE)
//	CITYGATE_ACCOUNT_CHECK    - "snapshot" or "live" (default: "snapshot")
//	CITYGATE_DEBUG            - Debug categories (auth, storage, transport, config, all)
//	CITYGATE_LOG_LEVEL        - DEBUG, INFO, WARN, ERROR or TRACE
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/auth/jwt"
	"github.com/rhuss/citygate/pkg/config"
	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/storage"
	"github.com/rhuss/citygate/pkg/storage/memory"
	"github.com/rhuss/citygate/pkg/storage/postgres"
	transporthttp "github.com/rhuss/citygate/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Log.Debug, cfg.Log.Level, cfg.Log.Format)
	debug.Log("config", "configuration loaded",
		"storage", cfg.Storage.Type,
		"account_check", string(cfg.Auth.AccountCheck),
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	verifier, err := jwt.New(jwt.Config{
		Secret:       []byte(cfg.Auth.Secret),
		PublicKeyPEM: cfg.Auth.PublicKeyPEM,
		Issuer:       cfg.Auth.Issuer,
		Audience:     cfg.Auth.Audience,
		TokenType:    cfg.Auth.TokenType,
	})
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}

	gate := &auth.Gate{
		Verifier: verifier,
		Resolver: &auth.Resolver{
			Check:    cfg.Auth.AccountCheck,
			Accounts: store,
		},
	}

	limiter, err := newLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.MaxBodySize = cfg.Server.MaxBodySize
	adapterCfg.Limiter = limiter
	adapterCfg.Policies = transporthttp.Policies{
		List:   cfg.Policies[config.OpListLeads],
		Read:   cfg.Policies[config.OpReadLead],
		Create: cfg.Policies[config.OpCreateLead],
		Delete: cfg.Policies[config.OpDeleteLead],
	}
	adapter := transporthttp.NewAdapter(store, gate, adapterCfg)

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithHealthChecker(store),
	)

	slog.Info("citygate starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"account_check", string(cfg.Auth.AccountCheck),
		"metrics", metricsPath != "",
	)
	return srv.ListenAndServe()
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return s, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}

// newLimiter returns nil when every budget is unlimited, which disables
// the rate-limit middleware entirely.
func newLimiter(cfg config.RateLimitConfig) (auth.RateLimiter, error) {
	perRole, err := cfg.PerRole()
	if err != nil {
		return nil, fmt.Errorf("rate_limit.roles: %w", err)
	}

	limited := cfg.DefaultRPM > 0
	for _, rpm := range perRole {
		if rpm > 0 {
			limited = true
		}
	}
	if !limited {
		return nil, nil
	}
	return auth.NewRoleLimiter(perRole, cfg.DefaultRPM), nil
}
