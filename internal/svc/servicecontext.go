package svc

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "stocksim-api/internal/cache"
	"stocksim-api/internal/config"
	"stocksim-api/internal/model"
	pricepersist "stocksim-api/internal/persistence/price"
	calendarpkg "stocksim-api/pkg/calendar"
	"stocksim-api/pkg/confkit"
	"stocksim-api/pkg/pricecache"
	quotepkg "stocksim-api/pkg/quote"
	_ "stocksim-api/pkg/quote/sources/chart"
	_ "stocksim-api/pkg/quote/sources/sim"
	refresherpkg "stocksim-api/pkg/refresher"
)

type ServiceContext struct {
	Config config.Config

	Calendar *calendarpkg.Calendar

	QuoteConfig   *quotepkg.Config
	QuoteSources  map[string]quotepkg.Source
	DefaultSource quotepkg.Source
	Limiter       *quotepkg.Limiter

	PriceCache *pricecache.Cache
	Scheduler  *refresherpkg.Scheduler

	// Durable layer, present only when Postgres and Redis are configured.
	DBConn           sqlx.SqlConn
	Redis            *redis.Redis
	SymbolsModel     model.SymbolsModel
	PriceLatestModel model.PriceLatestModel
	Store            *pricepersist.Store
}

func NewServiceContext(c config.Config, mainConfigPath string) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
	}

	baseDir := confkit.BaseDir(mainConfigPath)

	// Trading calendar: hydrated section, explicit file, or built-in default.
	calendarCfg := c.Calendar.Value
	if calendarCfg == nil && c.Calendar.File != "" {
		cfg, err := calendarpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Calendar.File))
		if err != nil {
			log.Fatalf("failed to load calendar config: %v", err)
		}
		calendarCfg = cfg
	}
	if calendarCfg == nil {
		cfg := calendarpkg.Default()
		calendarCfg = &cfg
	}
	cal, err := calendarpkg.New(*calendarCfg)
	if err != nil {
		log.Fatalf("failed to build calendar: %v", err)
	}
	svc.Calendar = cal

	// Quote sources.
	quoteCfg := c.Quote.Value
	if quoteCfg == nil && c.Quote.File != "" {
		cfg, err := quotepkg.LoadConfig(confkit.ResolvePath(baseDir, c.Quote.File))
		if err != nil {
			log.Fatalf("failed to load quote config: %v", err)
		}
		quoteCfg = cfg
	}
	if quoteCfg == nil {
		log.Fatalf("quote config is required (set Quote.File in the main config)")
	}
	// Test environment defaults: prefer the simulated source when defined so
	// nothing reaches out to a real chart API.
	if c.IsTestEnv() {
		if _, ok := quoteCfg.Sources["sim"]; ok {
			quoteCfg.Default = "sim"
		}
	}
	sources, err := quoteCfg.BuildSources()
	if err != nil {
		log.Fatalf("failed to build quote sources: %v", err)
	}
	svc.QuoteConfig = quoteCfg
	svc.QuoteSources = sources
	if quoteCfg.Default != "" {
		svc.DefaultSource = sources[quoteCfg.Default]
	}
	if svc.DefaultSource == nil {
		log.Fatalf("default quote source %q not found", quoteCfg.Default)
	}

	limiter, err := quotepkg.NewLimiter(quoteCfg.RateLimit.MaxCalls, quoteCfg.RateLimit.Window())
	if err != nil {
		log.Fatalf("failed to build rate limiter: %v", err)
	}
	svc.Limiter = limiter

	// Durable layer only when both Postgres and Redis are configured; the
	// service runs memory-only without them.
	if c.Postgres.DSN != "" && c.Redis.Host != "" {
		db, err := newPostgresDB(c.Postgres)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		conn := sqlx.NewSqlConnFromDB(db)
		cacheConf := gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}}
		rds := redis.MustNewRedis(c.Redis)

		svc.DBConn = conn
		svc.Redis = rds
		svc.SymbolsModel = model.NewSymbolsModel(conn, cacheConf)
		svc.PriceLatestModel = model.NewPriceLatestModel(conn, cacheConf)
		svc.Store = pricepersist.NewStore(pricepersist.Config{
			PriceModel:   svc.PriceLatestModel,
			SymbolsModel: svc.SymbolsModel,
			Redis:        rds,
			TTL:          cachekeys.NewTTLSet(c.TTL),
		})
	}

	// Price cache over the default source.
	cacheOpts := []pricecache.Option{pricecache.WithLimiter(limiter)}
	if svc.Store != nil {
		cacheOpts = append(cacheOpts, pricecache.WithStore(svc.Store))
	}
	priceCache, err := pricecache.New(svc.DefaultSource, cal, pricecache.Config{
		TTL: pricecache.TTLByKind{
			Regular:   cachekeys.NewTTLSet(c.TTL).Short,
			PreMarket: cachekeys.NewTTLSet(c.TTL).Medium,
			Closed:    cachekeys.NewTTLSet(c.TTL).Long,
		},
	}, cacheOpts...)
	if err != nil {
		log.Fatalf("failed to build price cache: %v", err)
	}
	svc.PriceCache = priceCache

	if svc.Store != nil && c.WarmLimit > 0 {
		seeded := priceCache.Warm(context.Background(), c.WarmLimit)
		log.Printf("price cache warmed with %d symbols", seeded)
	}

	// Background refresh loop.
	refresherCfg := c.Refresher.Value
	if refresherCfg == nil && c.Refresher.File != "" {
		cfg, err := refresherpkg.LoadConfig(confkit.ResolvePath(baseDir, c.Refresher.File))
		if err != nil {
			log.Fatalf("failed to load refresher config: %v", err)
		}
		refresherCfg = cfg
	}
	if refresherCfg == nil {
		cfg := refresherpkg.Default()
		refresherCfg = &cfg
	}
	batchSize := 0
	if sc := quoteCfg.Sources[quoteCfg.Default]; sc != nil {
		batchSize = sc.BatchSize
	}
	if err := refresherCfg.CheckBudget(refresherpkg.Budget{
		MaxCalls:      quoteCfg.RateLimit.MaxCalls,
		WindowSeconds: quoteCfg.RateLimit.WindowSeconds,
		BatchSize:     batchSize,
	}); err != nil {
		log.Fatalf("refresher config exceeds quote budget: %v", err)
	}
	schedOpts := []refresherpkg.SchedulerOption{}
	if svc.Store != nil {
		schedOpts = append(schedOpts, refresherpkg.WithSymbolLister(svc.Store))
	}
	scheduler, err := refresherpkg.NewScheduler(priceCache, cal, *refresherCfg, schedOpts...)
	if err != nil {
		log.Fatalf("failed to build scheduler: %v", err)
	}
	svc.Scheduler = scheduler

	return svc
}

// newPostgresDB opens the pgx pool with the configured connection limits.
// sql.Open does not dial; the first query does.
func newPostgresDB(cfg config.PostgresConf) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	return db, nil
}
