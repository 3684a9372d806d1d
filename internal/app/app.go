package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/foodex/config"
	"github.com/niksmo/foodex/internal/adapter"
	"github.com/niksmo/foodex/internal/adapter/httphandler"
	"github.com/niksmo/foodex/internal/adapter/kafka"
	"github.com/niksmo/foodex/internal/adapter/storage"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"github.com/niksmo/foodex/internal/core/service"
	"github.com/niksmo/foodex/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/sr"
)

type repositories struct {
	catalog  storage.CatalogRepository
	accounts storage.AccountsRepository
	carts    storage.CartsRepository
}

// A broker groups the streaming adapters,
// all of them are nil when no seed brokers are configured.
type broker struct {
	tlsConfig      *tls.Config
	cartEventSerde schema.Serde
	producer       *kafka.CartEventsProducer
	consumer       *kafka.CartSnapshotsConsumer
	popularityProc *kafka.PopularityProcessor
	popularityView *kafka.PopularityView
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	sqldb      storage.SQLDB
	repos      repositories
	broker     broker
	service    service.Service
	httpServer httphandler.HTTPServer
	wg         sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	if cfg.Broker.Enabled() {
		app.initBroker()
	}
	app.initCoreService()
	if cfg.Broker.Enabled() {
		app.initConsumers()
	}
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sqldb = sqldb
	app.repos = repositories{
		catalog:  storage.NewCatalogRepository(sqldb),
		accounts: storage.NewAccountsRepository(sqldb, app.cfg.AvatarBaseURL),
		carts:    storage.NewCartsRepository(sqldb),
	}
}

func (app *App) initBroker() {
	const op = "App.initBroker"

	ctx := app.ctx
	bcfg := app.cfg.Broker

	if bcfg.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			bcfg.TLS.CA, bcfg.TLS.Cert, bcfg.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.tlsConfig = tlsConfig
		kafka.ApplyGokaTLS(tlsConfig)
	}

	srOpts := []sr.ClientOpt{sr.URLs(bcfg.SchemaRegistryURLs...)}
	if app.broker.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.broker.tlsConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeCartEventV1(
		ctx,
		schema.SubjectOpt(bcfg.Topics.CartEvents+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.cartEventSerde = serde

	producer, err := kafka.NewCartEventsProducer(
		kafka.ProducerClientOpt(
			ctx, bcfg.SeedBrokers, bcfg.Topics.CartEvents,
			kafka.TLSOpts(app.broker.tlsConfig)...,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.producer = &producer

	view, err := kafka.NewPopularityView(
		bcfg.SeedBrokers, bcfg.Consumers.PopularityGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.popularityView = &view
}

func (app *App) initCoreService() {
	var (
		events     port.CartEventsProducer
		popularity port.PopularityReader
	)
	if app.broker.producer != nil {
		events = app.broker.producer
	}
	if app.broker.popularityView != nil {
		popularity = app.broker.popularityView
	}

	app.service = service.New(
		domain.Pricing{
			DeliveryFee: app.cfg.Pricing.DeliveryFee,
			Discount:    app.cfg.Pricing.Discount,
		},
		app.repos.catalog,
		app.repos.accounts,
		events,
		app.repos.carts,
		popularity,
	)
}

func (app *App) initConsumers() {
	const op = "App.initConsumers"

	bcfg := app.cfg.Broker
	tlsOpts := kafka.TLSOpts(app.broker.tlsConfig)

	consumer, err := kafka.NewCartSnapshotsConsumer(
		kafka.ConsumerClientOpt(
			bcfg.SeedBrokers,
			bcfg.Topics.CartEvents,
			bcfg.Consumers.CartSnapshotsGroup,
			tlsOpts...,
		),
		kafka.ConsumerDecoderOpt(app.broker.cartEventSerde),
		kafka.CartSnapshotSaverOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.consumer = &consumer

	proc, err := kafka.NewPopularityProc(
		bcfg.SeedBrokers,
		bcfg.Topics.CartEvents,
		bcfg.Consumers.PopularityGroup,
		app.broker.cartEventSerde,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.popularityProc = proc
}

func (app *App) initInboundAdapters() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httphandler.NewMetrics(reg)

	mux := http.NewServeMux()
	auth := httphandler.NewAuthenticator(app.service)
	httphandler.RegisterAccounts(mux, app.service, auth)
	httphandler.RegisterMenu(mux, app.service)
	httphandler.RegisterCart(mux, app.service, auth)
	httphandler.RegisterMetrics(mux, metrics)

	handler := metrics.Instrument(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServer.Addr, handler, app.cfg.HTTPServer.RequestTimeout,
	)
}

// Run starts the broker adapters, waits for the processor
// to be ready and then starts serving HTTP.
func (app *App) Run(stopFn context.CancelFunc) {
	if app.broker.popularityProc != nil {
		app.wg.Add(1)
		go app.broker.popularityProc.Run(app.ctx, stopFn, &app.wg)
		app.wg.Wait()

		go app.broker.popularityView.Run(app.ctx)
		go app.broker.consumer.Run(app.ctx)
	}

	go app.service.RunCartEviction(app.ctx, app.cfg.Carts.IdleTimeout)

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.broker.consumer != nil {
		app.broker.consumer.Close()
	}
	if app.broker.popularityProc != nil {
		app.broker.popularityProc.Close()
	}
	if app.broker.producer != nil {
		app.broker.producer.Close()
	}

	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
