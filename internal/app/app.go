package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/memory"
	"github.com/niksmo/storefront/internal/adapter/redisstore"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/adapter/token"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

type storages struct {
	products port.ProductsStorage
	orders   port.OrdersStorage
	carts    port.CartStorage
	sqlDB    *storage.SQLDB
	redis    *redis.Client
}

type broker struct {
	tlsConfig   *tls.Config
	orderSerde  schema.Serde
	producer    *kafka.OrdersProducer
	historyProc *kafka.OrderHistoryProcessor
	historyView *kafka.OrderHistoryView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	storages   storages
	broker     broker
	service    *service.Service
	httpServer httphandler.HTTPServer
	wg         sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorages()
	if cfg.Broker.Enabled {
		app.initSerdes()
		app.initBrokerAdapters()
	}
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorages() {
	const op = "App.initStorages"
	ctx := app.ctx
	cfg := app.cfg

	switch cfg.Storage {
	case config.StoragePostgres:
		sqlDB, err := storage.NewSQLDB(ctx, cfg.SQLDB)
		if err != nil {
			app.fallDown(op, err)
		}
		app.storages.sqlDB = &sqlDB
		app.storages.products = storage.NewProductsRepository(sqlDB)
		app.storages.orders = storage.NewOrdersRepository(sqlDB)
	default:
		app.storages.products = memory.NewProductsStorage(
			memory.SeedProducts(), cfg.MockLatency,
		)
		app.storages.orders = memory.NewOrdersStorage(cfg.MockLatency)
	}

	switch cfg.CartStorage {
	case config.CartStorageRedis:
		client, err := redisstore.NewClient(ctx, redisstore.Config{
			URL:          cfg.Redis.URL,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			DialTimeout:  cfg.Redis.DialTimeout,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		app.storages.redis = client
		app.storages.carts = redisstore.NewCartStorage(client, cfg.CartTTL)
	case config.CartStorageMemory:
		app.storages.carts = memory.NewCartStorage()
	}
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	ctx := app.ctx
	bcfg := app.cfg.Broker

	srOpts := []sr.ClientOpt{sr.URLs(bcfg.SchemaRegistryURLs...)}
	if bcfg.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			bcfg.TLS.CA, bcfg.TLS.Cert, bcfg.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.tlsConfig = tlsConfig
		srOpts = append(srOpts, sr.DialTLSConfig(app.broker.tlsConfig))
		kafka.UseTLS(app.broker.tlsConfig)
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	orderSS := bcfg.Topics.Orders + "-value"
	orderSerde, err := schema.NewSerdeOrderV1(
		ctx,
		schema.SubjectOpt(orderSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.broker.orderSerde = orderSerde
}

func (app *App) initBrokerAdapters() {
	const op = "App.initBrokerAdapters"

	ctx := app.ctx
	bcfg := app.cfg.Broker
	seedBrokers := bcfg.SeedBrokers
	ordersTopic := bcfg.Topics.Orders
	historyGroup := bcfg.Consumers.OrderHistoryGroup

	producer, err := kafka.NewOrdersProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, ordersTopic, app.broker.tlsConfig),
		kafka.ProducerEncoderOpt(app.broker.orderSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.producer = &producer

	historyProc, err := kafka.NewOrderHistoryProc(
		seedBrokers, ordersTopic, historyGroup, app.broker.orderSerde,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.historyProc = historyProc

	if bcfg.OrderHistoryView {
		historyView, err := kafka.NewOrderHistoryView(seedBrokers, historyGroup)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.historyView = historyView
	}
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	tokens, err := token.NewIssuer(app.cfg.Auth.Secret, app.cfg.Auth.TokenTTL)
	if err != nil {
		app.fallDown(op, err)
	}

	var opts []service.Opt
	if app.storages.carts != nil {
		opts = append(opts, service.WithCarts(cart.NewCarts(app.storages.carts)))
	}
	if app.broker.producer != nil {
		opts = append(opts, service.WithOrderEvents(app.broker.producer))
	}
	if app.broker.historyView != nil {
		opts = append(opts, service.WithOrdersReader(app.broker.historyView))
	}

	app.service = service.New(
		app.storages.products,
		app.storages.orders,
		tokens,
		opts...,
	)
}

func (app *App) initInboundAdapters() {
	var carts port.SessionCarts
	if app.storages.carts != nil {
		carts = app.service
	}

	handler := httphandler.NewRouter(app.service, app.service, carts)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, handler, app.cfg.RequestTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	if p := app.broker.historyProc; p != nil {
		app.wg.Add(1)
		p.Run(app.ctx, stopFn, &app.wg)
	}
	if v := app.broker.historyView; v != nil {
		app.wg.Add(1)
		v.Run(app.ctx, stopFn, &app.wg)
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if p := app.broker.producer; p != nil {
		p.Close()
	}
	if p := app.broker.historyProc; p != nil {
		p.Close()
	}
	app.waitRunners(ctx)

	if db := app.storages.sqlDB; db != nil {
		db.Close()
	}
	if client := app.storages.redis; client != nil {
		if err := client.Close(); err != nil {
			slog.Error("failed to close redis client", "err", err)
		}
	}

	slog.Info("application is closed")
}

func (app *App) waitRunners(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("runners are not stopped in time", "err", ctx.Err())
	}
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
