package cli

import (
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/codec"
	"github.com/unkn0wn-root/qrcache/counter"
	"github.com/unkn0wn-root/qrcache/genstore"
	asynchook "github.com/unkn0wn-root/qrcache/hooks/async"
	"github.com/unkn0wn-root/qrcache/provider"
	bigcacheprovider "github.com/unkn0wn-root/qrcache/provider/bigcache"
	"github.com/unkn0wn-root/qrcache/provider/memory"
	"github.com/unkn0wn-root/qrcache/raster"
	redisprovider "github.com/unkn0wn-root/qrcache/provider/redis"
	ristrettoprovider "github.com/unkn0wn-root/qrcache/provider/ristretto"
	"github.com/unkn0wn-root/qrcache/service"
	"github.com/unkn0wn-root/qrcache/sloghooks"
	"github.com/unkn0wn-root/qrcache/store"
	"github.com/unkn0wn-root/qrcache/store/sqlite"
	"github.com/unkn0wn-root/qrcache/symbol"
)

const (
	backendMemory    = "memory"
	backendRistretto = "ristretto"
	backendBigcache  = "bigcache"
	backendRedis     = "redis"

	storeMemory = "memory"
	storeSQLite = "sqlite"

	// redisGenNamespace prefixes epoch keys so replicas sharing a redis agree.
	redisGenNamespace = "qrcache"
)

// config holds values shared by every command.
type config struct {
	logFormat string
	logLevel  string

	cacheBackend string
	cacheCodec   string
	cacheTTL     time.Duration
	cacheMaxItem int64
	cacheEvents  bool
	eventSample  int64
	redisAddr    string

	storeKind  string
	sqlitePath string

	countedReads   bool
	ecLevel        string
	pngCompression string
}

func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format: console, json or text",
			Value:       formatConsole,
			Sources:     cli.EnvVars("QRCACHE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level: debug, info, warn or error",
			Value:       "info",
			Sources:     cli.EnvVars("QRCACHE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "cache",
			Usage:       "Cache backend: memory, ristretto, bigcache or redis",
			Value:       backendMemory,
			Sources:     cli.EnvVars("QRCACHE_CACHE"),
			Destination: &cfg.cacheBackend,
		},
		&cli.StringFlag{
			Name:        "cache-codec",
			Usage:       "Record codec: cbor, msgpack or json",
			Value:       codec.NameCBOR,
			Sources:     cli.EnvVars("QRCACHE_CACHE_CODEC"),
			Destination: &cfg.cacheCodec,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "Entry TTL; 0 keeps entries until cleared or evicted",
			Sources:     cli.EnvVars("QRCACHE_CACHE_TTL"),
			Destination: &cfg.cacheTTL,
		},
		&cli.IntFlag{
			Name:        "cache-max-entry",
			Usage:       "Largest cached entry in bytes served on read; 0 disables",
			Sources:     cli.EnvVars("QRCACHE_CACHE_MAX_ENTRY"),
			Destination: &cfg.cacheMaxItem,
		},
		&cli.BoolFlag{
			Name:        "cache-events",
			Usage:       "Log cache self-heal and clear events",
			Sources:     cli.EnvVars("QRCACHE_CACHE_EVENTS"),
			Destination: &cfg.cacheEvents,
		},
		&cli.IntFlag{
			Name:        "cache-event-sample",
			Usage:       "Log one in N self-heal events",
			Value:       1,
			Sources:     cli.EnvVars("QRCACHE_CACHE_EVENT_SAMPLE"),
			Destination: &cfg.eventSample,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address for the redis cache backend",
			Value:       "localhost:6379",
			Sources:     cli.EnvVars("QRCACHE_REDIS_ADDR"),
			Destination: &cfg.redisAddr,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Record store: memory or sqlite",
			Value:       storeMemory,
			Sources:     cli.EnvVars("QRCACHE_STORE"),
			Destination: &cfg.storeKind,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file",
			Value:       "qrcache.db",
			Sources:     cli.EnvVars("QRCACHE_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.BoolFlag{
			Name:        "counted-reads",
			Usage:       "Count request counter reads as requests",
			Sources:     cli.EnvVars("QRCACHE_COUNTED_READS"),
			Destination: &cfg.countedReads,
		},
		&cli.StringFlag{
			Name:        "ec-level",
			Usage:       "Error correction level: L, M, Q or H",
			Value:       string(symbol.LevelL),
			Sources:     cli.EnvVars("QRCACHE_EC_LEVEL"),
			Destination: &cfg.ecLevel,
		},
		&cli.StringFlag{
			Name:        "png-compression",
			Usage:       "PNG compression: default, speed, best or none",
			Value:       "default",
			Sources:     cli.EnvVars("QRCACHE_PNG_COMPRESSION"),
			Destination: &cfg.pngCompression,
		},
	}
}

// app is a configured service plus everything it must release.
type app struct {
	svc     *service.Service
	log     *logger
	closers []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.log.sync()
	return errors.Join(errs...)
}

func (cfg *config) newApp(ctx context.Context, w io.Writer) (*app, error) {
	if w == nil {
		w = os.Stderr
	}
	log, err := newLogger(cfg.logFormat, cfg.logLevel, w)
	if err != nil {
		return nil, err
	}
	a := &app{log: log}

	level, err := symbol.ParseLevel(cfg.ecLevel)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ec-level")
	}
	compression, err := parseCompression(cfg.pngCompression)
	if err != nil {
		return nil, err
	}

	st, err := cfg.newStore()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return st.Close() })

	var hooks qrcache.Hooks
	if cfg.cacheEvents {
		ah := asynchook.New(sloghooks.New(log.slog, sloghooks.Options{
			SelfHealEvery: uint64(max(cfg.eventSample, 1)),
		}), 1, 1024)
		a.closers = append(a.closers, func(context.Context) error { ah.Close(); return nil })
		hooks = ah
	}

	p, gen, err := cfg.newProvider(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	caches, err := service.NewCaches(service.CacheConfig{
		Provider:      p,
		GenStore:      gen,
		Codec:         cfg.cacheCodec,
		TTL:           cfg.cacheTTL,
		MaxEntryBytes: int(cfg.cacheMaxItem),
		Logger:        log,
		Hooks:         hooks,
	})
	if err != nil {
		_ = p.Close(ctx)
		_ = a.Close(ctx)
		return nil, goerr.Wrap(err, "failed to create caches")
	}

	var counterOpts []counter.Option
	if cfg.countedReads {
		counterOpts = append(counterOpts, counter.WithCountedReads())
	}

	svc, err := service.New(st,
		service.WithEncoder(symbol.NewQREncoder(symbol.WithLevel(level))),
		service.WithRasterizer(raster.New(raster.WithCompression(compression))),
		service.WithCounter(counter.New(counterOpts...)),
		service.WithCaches(caches),
		service.WithLogger(log),
	)
	if err != nil {
		_ = caches.Close(ctx)
		_ = a.Close(ctx)
		return nil, err
	}
	a.svc = svc
	a.closers = append(a.closers, svc.Close)
	return a, nil
}

func parseCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	}
	return 0, goerr.New("invalid png compression", goerr.V("png-compression", s))
}

func (cfg *config) newStore() (store.Store, error) {
	switch strings.ToLower(cfg.storeKind) {
	case "", storeMemory:
		return store.NewMemory(), nil
	case storeSQLite:
		db, err := sqlite.New(cfg.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open sqlite store", goerr.V("path", cfg.sqlitePath))
		}
		return db, nil
	}
	return nil, goerr.New("invalid store", goerr.V("store", cfg.storeKind))
}

// newProvider returns the cache backend. A nil GenStore lets the caches use
// a process-local one; redis shares epochs through the same client.
func (cfg *config) newProvider(ctx context.Context) (provider.Provider, genstore.GenStore, error) {
	switch strings.ToLower(cfg.cacheBackend) {
	case "", backendMemory:
		return memory.New(), nil, nil

	case backendRistretto:
		p, err := ristrettoprovider.New(ristrettoprovider.DefaultConfig())
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create ristretto cache")
		}
		return p, nil, nil

	case backendBigcache:
		life := cfg.cacheTTL
		if life <= 0 {
			life = 10 * time.Minute
		}
		p, err := bigcacheprovider.New(ctx, bigcacheprovider.Config{
			LifeWindow:         life,
			HardMaxCacheSizeMB: 64,
		})
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create bigcache")
		}
		return p, nil, nil

	case backendRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, goerr.Wrap(err, "failed to reach redis", goerr.V("addr", cfg.redisAddr))
		}
		p, err := redisprovider.New(redisprovider.Config{Client: client, CloseClient: true})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return p, genstore.NewRedisGenStore(client, redisGenNamespace), nil
	}
	return nil, nil, goerr.New("invalid cache backend", goerr.V("cache", cfg.cacheBackend))
}
