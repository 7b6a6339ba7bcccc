package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"smartorder/config"
	httpapi "smartorder/shop-svc/internal/api/http"
	"smartorder/shop-svc/internal/events"
	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/menuparse"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/service"
	"smartorder/shop-svc/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type app struct {
	cfg      config.Config
	store    *storage.Store
	hub      *notify.Hub
	registry *prometheus.Registry
	links    *service.LinkService
	router   http.Handler
	closers  []func() error
}

func openApp(cfg config.Config) (*app, error) {
	backend, closer, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	a := newApp(cfg, backend)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

func openBackend(cfg config.Config) (storage.Backend, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Println("Using in-memory store; data is lost on exit")
		return storage.NewMemoryBackend(), nil, nil
	case config.BackendRedis:
		client := config.MustInitRedis()
		return storage.NewRedisBackend(client), client.Close, nil
	case config.BackendPostgres:
		db := config.MustInitPostgres()
		backend := storage.NewPostgresBackend(db)
		if err := backend.EnsureSchema(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("create records table: %w", err)
		}
		return backend, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func newApp(cfg config.Config, backend storage.Backend) *app {
	store := storage.NewStore(backend)
	hub := notify.NewHub(cfg.InstanceID)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	auth := newAuthenticator(cfg)
	links := service.NewLinkService(store, auth, service.DefaultQRGenerator{}, cfg.PublicBaseURL)

	menus := service.NewMenuService(store, hub, newParser(cfg), metrics)
	menus.ParseTimeout = cfg.MenuParseTimeout

	handler := httpapi.NewHandler(
		service.NewUserService(store),
		service.NewShopService(store, hub),
		menus,
		service.NewOrderService(store, hub, auth, metrics),
		service.NewReservationService(store, hub),
		links,
		hub,
	)

	return &app{
		cfg:      cfg,
		store:    store,
		hub:      hub,
		registry: registry,
		links:    links,
		router:   httpapi.NewRouter(handler, registry),
	}
}

func newAuthenticator(cfg config.Config) linkauth.Authenticator {
	if cfg.LinkSecret != "" {
		log.Println("Table links signed with LINK_SECRET")
		return linkauth.NewHMACAuthenticator(cfg.LinkSecret)
	}
	return linkauth.NewFingerprintAuthenticator()
}

// newParser returns nil without an API key, so every import uses the
// placeholder menu.
func newParser(cfg config.Config) menuparse.Parser {
	if cfg.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set; menu imports will use the placeholder menu")
		return nil
	}
	return menuparse.NewGeminiParser(cfg.GeminiAPIKey, cfg.GeminiModel)
}

// startEventBridge relays hub events through Kafka when a broker is set.
func (a *app) startEventBridge(ctx context.Context) {
	if a.cfg.KafkaBroker == "" {
		return
	}

	writer := config.NewKafkaWriter(a.cfg.KafkaBroker, a.cfg.KafkaTopic)
	a.closers = append(a.closers, writer.Close)
	publisher := events.NewKafkaPublisher(writer, a.cfg.InstanceID)
	publisher.Attach(a.hub)
	go publisher.Start(ctx)

	reader := config.NewKafkaReader(a.cfg.KafkaBroker, a.cfg.KafkaTopic, appName+"-"+a.cfg.InstanceID)
	a.closers = append(a.closers, reader.Close)
	go events.NewConsumer(reader, a.hub, a.cfg.InstanceID).Start(ctx)

	log.Printf("Event bridge on %s topic %s", a.cfg.KafkaBroker, a.cfg.KafkaTopic)
}

func (a *app) Serve(ctx context.Context) error {
	return httpapi.StartServer(ctx, a.cfg.HTTPAddr, a.router, a.cfg.ShutdownTimeout)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
}
