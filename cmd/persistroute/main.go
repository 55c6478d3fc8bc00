package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/adamluzsi/persistroute/config"
	"github.com/adamluzsi/persistroute/controllers"
	"github.com/adamluzsi/persistroute/internal/catalog"
	"github.com/adamluzsi/persistroute/pkg/env"
	"github.com/adamluzsi/persistroute/pkg/errorutil"
	"github.com/adamluzsi/persistroute/pkg/logger"
	"github.com/adamluzsi/persistroute/pkg/tasker"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/adamluzsi/persistroute/storages/boltstorage"
	"github.com/adamluzsi/persistroute/storages/memorystorage"
	"github.com/adamluzsi/persistroute/storages/pgstorage"
)

type Env struct {
	ConfigPath  string        `env:"PERSISTROUTE_CONFIG" default:"routes.yaml"`
	Addr        string        `env:"PERSISTROUTE_ADDR" default:":8080"`
	BoltPath    string        `env:"PERSISTROUTE_BOLT_PATH"`
	DatabaseURL string        `env:"DATABASE_URL"`
	ReadTimeout time.Duration `env:"PERSISTROUTE_READ_TIMEOUT" default:"30s"`
}

func main() {
	ctx := logger.ContextWith(context.Background(), logger.Field("app", "persistroute"))
	if err := Main(ctx); err != nil {
		logger.Fatal(ctx, "error in main", logger.ErrField(err))
	}
}

func Main(ctx context.Context) error {
	var e Env
	if err := env.Load(&e); err != nil {
		return err
	}
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	// environment wins over the file, so secrets stay out of it
	if e.BoltPath != "" {
		cfg.Storage.BoltPath = e.BoltPath
	}
	if e.DatabaseURL != "" {
		cfg.Storage.DatabaseURL = e.DatabaseURL
	}

	store, closer, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Error(ctx, "closing the store failed", logger.ErrField(err))
		}
	}()

	registry, err := catalog.Registry()
	if err != nil {
		return err
	}
	router, err := controllers.NewRouter(cfg, controllers.Dependencies{Store: store, Registry: registry})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        e.Addr,
		Handler:     router,
		ReadTimeout: e.ReadTimeout,
	}
	logger.Info(ctx, "serving", logger.Field("addr", e.Addr), logger.Field("storage", cfg.Storage.Driver))
	return tasker.Main(ctx, tasker.HTTPServerTask(srv))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func OpenStore(ctx context.Context, c config.Storage) (storages.Store, io.Closer, error) {
	switch c.Driver {
	case config.StorageMemory:
		return memorystorage.NewMemory(), nopCloser{}, nil
	case config.StorageBolt:
		path := c.BoltPath
		if path == "" {
			path = "persistroute.db"
		}
		s, err := boltstorage.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoragePostgres:
		if c.DatabaseURL == "" {
			return nil, nil, errorutil.With{Err: config.ErrInvalid}.Detail("postgres storage needs a database url")
		}
		s, err := pgstorage.Open(c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, errorutil.With{Err: config.ErrInvalid}.Detailf("unknown storage driver: %s", c.Driver)
	}
}
