package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/menuparse"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/service"
	"smartorder/shop-svc/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

var testNow = time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)

type testEnv struct {
	store   *storage.Store
	hub     *notify.Hub
	auth    *linkauth.FingerprintAuthenticator
	metrics *service.Metrics
	events  []notify.Event

	users        *service.UserService
	shops        *service.ShopService
	menus        *service.MenuService
	orders       *service.OrderService
	reservations *service.ReservationService
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestEnv(t *testing.T, parser menuparse.Parser) *testEnv {
	t.Helper()
	return newTestEnvOn(t, parser, storage.NewMemoryBackend())
}

func newTestEnvOn(t *testing.T, parser menuparse.Parser, backend storage.Backend) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   storage.NewStore(backend),
		hub:     notify.NewHub("test"),
		auth:    &linkauth.FingerprintAuthenticator{Now: func() time.Time { return testNow }, Location: time.UTC},
		metrics: service.NewMetrics(prometheus.NewRegistry()),
	}
	env.hub.Subscribe(notify.AllTopics, func(evt notify.Event) { env.events = append(env.events, evt) })

	clock := func() time.Time { return testNow }

	env.users = service.NewUserService(env.store)
	env.users.NewID = sequence("user")

	env.shops = service.NewShopService(env.store, env.hub)
	env.shops.Now, env.shops.NewID = clock, sequence("shop")

	env.menus = service.NewMenuService(env.store, env.hub, parser, env.metrics)
	env.menus.NewID = sequence("menu")

	env.orders = service.NewOrderService(env.store, env.hub, env.auth, env.metrics)
	env.orders.Now, env.orders.NewID = clock, sequence("order")

	env.reservations = service.NewReservationService(env.store, env.hub)
	env.reservations.Now, env.reservations.NewID = clock, sequence("reservation")
	return env
}

func (env *testEnv) eventTypes() []string {
	types := make([]string, 0, len(env.events))
	for _, evt := range env.events {
		types = append(types, evt.Type)
	}
	return types
}

// conflictBackend makes the next update of key lose a race once armed: the
// same change lands first as another writer's commit, then the update is
// retried on top of it.
type conflictBackend struct {
	*storage.MemoryBackend
	key   string
	armed bool
}

func (b *conflictBackend) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if key == b.key && b.armed {
		b.armed = false
		if err := b.MemoryBackend.Update(ctx, key, fn); err != nil {
			return err
		}
	}
	return b.MemoryBackend.Update(ctx, key, fn)
}

// rejectingBackend fails every update of key.
type rejectingBackend struct {
	*storage.MemoryBackend
	key string
}

func (b *rejectingBackend) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if key == b.key {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Update(ctx, key, fn)
}
