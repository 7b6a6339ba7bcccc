package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/storage"

	"github.com/google/uuid"
)

type ShopService struct {
	store *storage.Store
	hub   notify.Publisher
	Now   func() time.Time
	NewID func() string
}

func NewShopService(store *storage.Store, hub notify.Publisher) *ShopService {
	return &ShopService{store: store, hub: hub, Now: time.Now, NewID: uuid.NewString}
}

func (s *ShopService) Create(ctx context.Context, name, ownerID string) (domain.Shop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Shop{}, ErrInvalidShopName
	}

	shop := domain.Shop{
		ID:        s.NewID(),
		Name:      name,
		CreatedAt: s.Now(),
		OwnerID:   ownerID,
	}
	if err := storage.Upsert(ctx, s.store, storage.ShopsKey, shop); err != nil {
		return domain.Shop{}, fmt.Errorf("save shop: %w", err)
	}

	s.hub.Publish(notify.Event{Type: notify.ShopCreated, ShopID: shop.ID, RecordID: shop.ID})
	return shop, nil
}

func (s *ShopService) List(ctx context.Context) []domain.Shop {
	return storage.GetCollection[domain.Shop](ctx, s.store, storage.ShopsKey)
}

func (s *ShopService) Get(ctx context.Context, shopID string) (domain.Shop, error) {
	shop, ok := storage.FindBy(ctx, s.store, storage.ShopsKey, func(shop domain.Shop) bool {
		return shop.ID == shopID
	})
	if !ok {
		return domain.Shop{}, ErrShopNotFound
	}
	return shop, nil
}
