package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sawpanic/cascade/internal/application/cascade"
	"github.com/sawpanic/cascade/internal/config"
	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/domain/nutrition"
	"github.com/sawpanic/cascade/internal/domain/timing"
	"github.com/sawpanic/cascade/internal/metrics"
	"github.com/sawpanic/cascade/internal/persistence"
	"github.com/sawpanic/cascade/internal/persistence/redis"
	"github.com/sawpanic/cascade/internal/persistence/sqlkv"
	"github.com/sawpanic/cascade/internal/secrets"
)

type globalOptions struct {
	configPath  string
	policyPath  string
	profilePath string
	catalogPath string
	logLevel    string
	store       storeOptions
}

// storeOptions are the backend flags shared by every command.
type storeOptions struct {
	fs        *pflag.FlagSet
	driver    string
	dsn       string
	redisAddr string
	redisDB   int
	namespace string
	timeout   time.Duration
}

func (s *storeOptions) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("store", pflag.ContinueOnError)
	fs.StringVar(&s.driver, "store", config.StoreSQLite, "History store (memory|sqlite|postgres|redis)")
	fs.StringVar(&s.dsn, "dsn", "cascade.db", "SQLite path or PostgreSQL URL")
	fs.StringVar(&s.redisAddr, "redis-addr", "127.0.0.1:6379", "Redis address")
	fs.IntVar(&s.redisDB, "redis-db", 0, "Redis database")
	fs.StringVar(&s.namespace, "namespace", "cascade", "History key namespace")
	fs.DurationVar(&s.timeout, "store-timeout", 2*time.Second, "Per-call storage timeout")
	s.fs = fs
	return fs
}

// apply copies explicitly set flags over cfg.
func (s *storeOptions) apply(cfg *config.StoreConfig) {
	if s.fs == nil {
		return
	}
	if s.fs.Changed("store") {
		cfg.Driver = s.driver
	}
	if s.fs.Changed("dsn") {
		cfg.DSN = s.dsn
	}
	if s.fs.Changed("redis-addr") {
		cfg.Addr = s.redisAddr
	}
	if s.fs.Changed("redis-db") {
		cfg.DB = s.redisDB
	}
	if s.fs.Changed("namespace") {
		cfg.Namespace = s.namespace
	}
	if s.fs.Changed("store-timeout") {
		cfg.Timeout = s.timeout
	}
}

// runtime is everything a command needs, loaded once.
type runtime struct {
	cfg     *config.AppConfig
	policy  *config.Policy
	profile day.Profile
	catalog nutrition.Catalog
	repo    *persistence.HistoryRepo
	metrics *metrics.Registry
	closeKV func() error
}

func (o *globalOptions) load(ctx context.Context) (*runtime, error) {
	cfg := config.DefaultAppConfig()
	if o.configPath != "" {
		loaded, err := config.LoadAppConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	o.store.apply(&cfg.Store)
	for _, p := range []struct {
		flag string
		dst  *string
	}{
		{o.policyPath, &cfg.Policy},
		{o.profilePath, &cfg.Profile},
		{o.catalogPath, &cfg.Catalog},
	} {
		if p.flag != "" {
			*p.dst = p.flag
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rt := &runtime{
		cfg:     cfg,
		policy:  config.DefaultPolicy(),
		profile: day.DefaultProfile(),
		metrics: metrics.New(nil),
	}
	if cfg.Policy != "" {
		p, err := config.LoadPolicy(cfg.Policy)
		if err != nil {
			return nil, err
		}
		rt.policy = p
	}
	if cfg.Profile != "" {
		p, err := config.LoadProfile(cfg.Profile)
		if err != nil {
			return nil, err
		}
		rt.profile = p
	}
	if cfg.Catalog != "" {
		c, err := nutrition.LoadCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		rt.catalog = c
	}

	kv, closeKV, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	rt.closeKV = closeKV
	rt.repo = persistence.NewHistoryRepo(kv, rt.policy.HistoryVersion, cfg.Store.Namespace, rt.policy.History.RetentionDays)

	purged, err := rt.repo.Migrate(ctx)
	if err != nil {
		// The engine degrades to empty history on its own; only warn.
		log.Warn().Err(err).Msg("history migration failed")
		rt.metrics.RecordStorageError("migrate")
	}
	rt.metrics.RecordPurge(len(purged))

	log.Debug().
		Str("store", cfg.Store.Driver).
		Str("dsn", secrets.RedactDSN(cfg.Store.DSN)).
		Str("key", rt.repo.Key()).
		Bool("catalog", rt.catalog != nil).
		Msg("runtime loaded")
	return rt, nil
}

// engine builds an engine over the runtime's store.
func (rt *runtime) engine() *cascade.Engine {
	opts := []cascade.Option{
		cascade.WithAnalyzer(timing.NewWaveAnalyzer()),
		cascade.WithMetrics(rt.metrics),
	}
	if rt.catalog != nil {
		opts = append(opts, cascade.WithLookup(rt.catalog))
	}
	return cascade.NewEngine(rt.policy, rt.repo, opts...)
}

func (rt *runtime) Close() error {
	if rt.closeKV == nil {
		return nil
	}
	return rt.closeKV()
}

// openStore connects the configured backend and returns its closer.
func openStore(ctx context.Context, cfg config.StoreConfig) (persistence.KV, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.StoreMemory:
		return persistence.NewMemory(), noop, nil
	case config.StoreSQLite, config.StorePostgres:
		kv, err := sqlkv.Open(ctx, cfg.Driver, cfg.DSN, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s store %s: %w", cfg.Driver, secrets.RedactDSN(cfg.DSN), err)
		}
		return kv, kv.Close, nil
	case config.StoreRedis:
		kv := redis.New(redis.Options{
			Addr:             cfg.Addr,
			DB:               cfg.DB,
			Timeout:          cfg.Timeout,
			FailureThreshold: cfg.Circuit.FailureThreshold,
			OpenFor:          cfg.Circuit.OpenFor,
		})
		if err := kv.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, history will degrade")
		}
		return kv, kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
