package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/storage"

	"github.com/google/uuid"
)

type OrderService struct {
	store   *storage.Store
	hub     notify.Publisher
	auth    linkauth.Authenticator
	metrics *Metrics
	Now     func() time.Time
	NewID   func() string
}

func NewOrderService(store *storage.Store, hub notify.Publisher, auth linkauth.Authenticator, metrics *Metrics) *OrderService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &OrderService{
		store:   store,
		hub:     hub,
		auth:    auth,
		metrics: metrics,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// OpenTable checks a customer link and returns the menu to order from.
func (s *OrderService) OpenTable(ctx context.Context, shopID, tableNo, token, fingerprint string) (domain.ShopMenu, error) {
	if !s.auth.Validate(fingerprint, tableNo, token) {
		return domain.ShopMenu{}, ErrLinkExpired
	}
	return s.publishedMenu(ctx, shopID)
}

func (s *OrderService) SubmitFromLink(ctx context.Context, shopID, tableNo, token, fingerprint string, cart *Cart) (domain.Order, error) {
	if !s.auth.Validate(fingerprint, tableNo, token) {
		return domain.Order{}, ErrLinkExpired
	}
	return s.Submit(ctx, shopID, tableNo, cart)
}

// Submit turns the cart into a new order. Names and prices are copied from
// the menu as it is now; later menu edits do not touch the order.
func (s *OrderService) Submit(ctx context.Context, shopID, tableNo string, cart *Cart) (domain.Order, error) {
	tableNo = strings.TrimSpace(tableNo)
	if strings.TrimSpace(shopID) == "" || tableNo == "" {
		return domain.Order{}, ErrMissingIdentifiers
	}
	menu, err := s.publishedMenu(ctx, shopID)
	if err != nil {
		return domain.Order{}, err
	}
	if cart == nil {
		return domain.Order{}, ErrEmptyCart
	}

	items := cart.lines(menu)
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	order := domain.Order{
		ID:         s.NewID(),
		ShopID:     shopID,
		TableNo:    tableNo,
		Items:      items,
		TotalPrice: cart.Total(menu),
		Status:     domain.OrderNew,
		CreatedAt:  s.Now(),
	}
	if err := storage.Upsert(ctx, s.store, storage.OrdersKey, order); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.metrics.OrdersSubmitted.Inc()
	log.Printf("Order %s submitted for shop %s table %s: %.2f", order.ID, shopID, tableNo, order.TotalPrice)
	s.hub.Publish(notify.Event{Type: notify.OrderSubmitted, ShopID: shopID, RecordID: order.ID})
	return order, nil
}

// Advance moves an order one step forward. A paid order is returned as is.
func (s *OrderService) Advance(ctx context.Context, orderID string) (domain.Order, error) {
	var advanced bool
	order, found, err := storage.Modify(ctx, s.store, storage.OrdersKey, orderID, func(order *domain.Order) bool {
		advanced = false
		next, ok := order.Status.Next()
		if !ok {
			return false
		}
		order.Status = next
		advanced = true
		return true
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}
	if !found {
		return domain.Order{}, ErrOrderNotFound
	}

	if advanced {
		s.hub.Publish(notify.Event{Type: notify.OrderAdvanced, ShopID: order.ShopID, RecordID: order.ID})
	}
	return order, nil
}

// List returns the shop's orders, newest first.
func (s *OrderService) List(ctx context.Context, shopID string) []domain.Order {
	orders := storage.Filter(ctx, s.store, storage.OrdersKey, func(order domain.Order) bool {
		return order.ShopID == shopID
	})
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (s *OrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	order, ok := storage.FindBy(ctx, s.store, storage.OrdersKey, func(order domain.Order) bool {
		return order.ID == orderID
	})
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) publishedMenu(ctx context.Context, shopID string) (domain.ShopMenu, error) {
	menu, ok := storage.FindBy(ctx, s.store, storage.MenusKey, byShop(shopID))
	if !ok || !menu.IsPublished {
		return domain.ShopMenu{}, ErrMenuNotFound
	}
	return menu, nil
}
