package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	redisClient    *redis.Client
	cleanups       []func()
	queueConsumers []func(context.Context) error
}

// Storages groups the primary book storage with its optional replication
// pipeline and the functions releasing the underlying clients.
type Storages struct {
	storage     BookStorage
	queue       Queuer
	redisClient *redis.Client
	consumers   []func(context.Context) error
	cleanups    []func()
}

// NewApp provides an instance of App.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	logFile, closer, err := OpenLogFile(config.LogFile)
	if err != nil {
		return nil, err
	}
	logger, flusher := SetupLogging(config, logFile)

	views, err := NewHTMLRenderer()
	if err != nil {
		closer()
		return nil, fmt.Errorf("failed to load views: %s", err)
	}

	stores, err := SetupStorages(config, logger)
	if err != nil {
		closer()
		return nil, fmt.Errorf("failed to setup %s book storage: %s", config.Store.Driver, err)
	}

	clock := NewClock()
	ids := NewIDsHandler()
	validator := NewBookValidator(config.Catalog.RatingMin, config.Catalog.RatingMax)
	bookService := NewBookService(logger, clock, ids, validator, stores.storage, stores.queue)

	stats := &Statistics{
		version:   config.GitTag,
		container: IsAppRunningInDocker(),
		started:   clock.Now(),
		runtime:   runtime.Version(),
		platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		stats.version = config.GitCommit
	}
	apiService := NewAPIHandler(logger, config, stats, clock, ids, views, bookService)

	public, ops := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	srv := &http.Server{
		Addr:           net.JoinHostPort(config.Server.Host, config.Server.Port),
		Handler:        http.TimeoutHandler(router, config.Server.RequestTimeout, "Timeout. The catalog is taking too long. Please try again later."),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	cleanups := append(stores.cleanups,
		func() {
			if ferr := flusher(); ferr != nil {
				fmt.Println(ferr)
			}
		},
		closer,
	)

	return &App{
		logger:         logger,
		config:         config,
		server:         srv,
		redisClient:    stores.redisClient,
		cleanups:       cleanups,
		queueConsumers: stores.consumers,
	}, nil
}

// SetupStorages opens the primary book storage selected by the config. With
// redis and replication enabled, writes are queued then mirrored into bolt.
func SetupStorages(config *Config, logger *zap.Logger) (*Storages, error) {
	stores := &Storages{}
	switch config.Store.Driver {
	case StoreRedis:
		redisClient, err := GetRedisClient(config)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		stores.redisClient = redisClient
		stores.storage = NewRedisBookStorage(logger, redisClient)
		if !config.Store.Replicate {
			return stores, nil
		}
		boltDBClient, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to open boltDB replica: %s", err)
		}
		replica := NewBoltBookStorage(logger, &config.BoltDB, boltDBClient)
		stores.queue = NewRedisQueue(redisClient)
		consumer := NewReplicaConsumer(logger, stores.queue, replica)
		stores.consumers = append(stores.consumers, func(ctx context.Context) error {
			return consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
		})
		stores.cleanups = append(stores.cleanups, closeWithLog(logger, "boltdb replica", replica.Close))

	case StoreBolt:
		boltDBClient, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltDB: %s", err)
		}
		storage := NewBoltBookStorage(logger, &config.BoltDB, boltDBClient)
		stores.storage = storage
		stores.cleanups = append(stores.cleanups, closeWithLog(logger, "boltdb", storage.Close))

	case StoreSqlite:
		db, err := GetSqliteClient(&config.Sqlite)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %s", err)
		}
		storage := NewSqliteBookStorage(logger, db)
		stores.storage = storage
		stores.cleanups = append(stores.cleanups, closeWithLog(logger, "sqlite", storage.Close))

	default:
		return nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
	return stores, nil
}

func closeWithLog(logger *zap.Logger, name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error("failed to close storage", zap.String("storage", name), zap.Error(err))
		}
	}
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
			zap.String("app.store", app.config.Store.Driver),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// We proceed with a brutal shutdown if the graceful did not complete successfully.
// Closing the redis client releases the consumers blocked on the queues. We
// explicitly return `nil` to allow the errorgroup catches only the `Serve` result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		if app.redisClient != nil {
			_ = app.redisClient.Close()
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
