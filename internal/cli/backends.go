package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/mrt/pkg/adapters/file"
	redisadapter "github.com/aretw0/mrt/pkg/adapters/redis"
	"github.com/aretw0/mrt/pkg/adapters/sqlite"
	"github.com/aretw0/mrt/pkg/adapters/webhook"
	"github.com/aretw0/mrt/pkg/config"
	"github.com/aretw0/mrt/pkg/dispatch"
	"github.com/aretw0/mrt/pkg/persistence/middleware"
	"github.com/aretw0/mrt/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultDataDir holds local sessions and the default database.
const DefaultDataDir = ".mrt"

// Backends are the opened persistence and result adapters.
type Backends struct {
	// Store is nil when sessions are ephemeral.
	Store ports.StateStore
	// Locker is set for stores shared between processes.
	Locker ports.DistributedLocker
	Sinks  dispatch.Multi

	closers []io.Closer
}

// OpenBackends opens the adapters selected by opts. Result sinks are always
// collected: the configured web app, the JSONL log and any store that also
// records results.
func OpenBackends(opts BackendOptions, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	switch strings.ToLower(opts.Store) {
	case StoreFile:
		dir := opts.StoreDir
		if dir == "" {
			dir = filepath.Join(DefaultDataDir, "sessions")
		}
		b.Store = file.New(dir)
		logger.Debug("file store", "dir", dir)

	case StoreSQLite:
		dsn := opts.SQLiteDSN
		if dsn == "" {
			dsn = filepath.Join(DefaultDataDir, "mrt.db")
		}
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		b.Store = db
		b.Sinks = append(b.Sinks, db)
		b.closers = append(b.closers, db)
		logger.Debug("sqlite store", "dsn", dsn)

	case StoreRedis:
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(ropts)
		store := redisadapter.NewFromClient(client)
		b.Store = store
		b.Locker = redisadapter.NewLocker(client, redisadapter.DefaultPrefix)
		b.Sinks = append(b.Sinks, redisadapter.NewSink(client, redisadapter.DefaultPrefix))
		b.closers = append(b.closers, store)
		logger.Debug("redis store", "addr", ropts.Addr)
	}

	if b.Store != nil {
		store, err := secureStore(b.Store, opts.StoreKey)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = store
	} else if opts.StoreKey != "" {
		logger.Warn("store key ignored without --store")
	}

	if cfg.SheetsConfigured() {
		b.Sinks = append(b.Sinks, webhook.New(cfg.SheetsURL))
		logger.Debug("web app sink enabled")
	} else {
		logger.Info("web app URL not configured; results stay local")
	}

	if opts.ResultsLog != "" {
		log, err := file.OpenJSONL(opts.ResultsLog)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Sinks = append(b.Sinks, log)
		b.closers = append(b.closers, log)
	}
	return b, nil
}

// secureStore masks credential-like overrides and, with a key, seals the
// sessions before they reach store.
func secureStore(store ports.StateStore, key string) (ports.StateStore, error) {
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultRedactPatterns)
	if err != nil {
		return nil, err
	}
	mws := []middleware.Middleware{pii}
	if key != "" {
		k, err := middleware.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("--store-key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: k})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}

// Sink returns the combined result sink, or nil when there is none.
func (b *Backends) Sink() ports.Sink {
	switch len(b.Sinks) {
	case 0:
		return nil
	case 1:
		return b.Sinks[0]
	}
	return b.Sinks
}

// Close releases every opened adapter.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
