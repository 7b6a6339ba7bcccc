package service

import (
	"context"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/menuparse"
	"smartorder/shop-svc/internal/notify"
)

type UserServiceInterface interface {
	Current(ctx context.Context) domain.User
}

type ShopServiceInterface interface {
	Create(ctx context.Context, name, ownerID string) (domain.Shop, error)
	List(ctx context.Context) []domain.Shop
	Get(ctx context.Context, shopID string) (domain.Shop, error)
}

type MenuServiceInterface interface {
	Get(ctx context.Context, shopID string) (domain.ShopMenu, error)
	Import(ctx context.Context, shopID string, image []byte, mimeType string) (domain.ShopMenu, error)
	Rename(ctx context.Context, shopID, brandName string) (domain.ShopMenu, error)
	AddItem(ctx context.Context, shopID string, item domain.MenuItem) (domain.ShopMenu, error)
	UpdateItem(ctx context.Context, shopID string, item domain.MenuItem) (domain.ShopMenu, error)
	DeleteItem(ctx context.Context, shopID, itemID string) (domain.ShopMenu, error)
	ClearItems(ctx context.Context, shopID string) (domain.ShopMenu, error)
	Publish(ctx context.Context, shopID string, tableNumbers []string) (domain.ShopMenu, error)
	Tables(ctx context.Context, shopID string) []domain.Table
}

type OrderServiceInterface interface {
	OpenTable(ctx context.Context, shopID, tableNo, token, fingerprint string) (domain.ShopMenu, error)
	Submit(ctx context.Context, shopID, tableNo string, cart *Cart) (domain.Order, error)
	SubmitFromLink(ctx context.Context, shopID, tableNo, token, fingerprint string, cart *Cart) (domain.Order, error)
	Advance(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, shopID string) []domain.Order
	Get(ctx context.Context, orderID string) (domain.Order, error)
}

type ReservationServiceInterface interface {
	Create(ctx context.Context, input ReservationInput) (domain.Reservation, error)
	CheckIn(ctx context.Context, reservationID string) (domain.Reservation, error)
	List(ctx context.Context, shopID string) []domain.Reservation
}

type LinkServiceInterface interface {
	Link(ctx context.Context, shopID, tableNo, fingerprint string) (domain.TableLink, error)
	Links(ctx context.Context, shopID, fingerprint string) []domain.TableLink
	QRCode(ctx context.Context, shopID, tableNo, fingerprint string) ([]byte, error)
}

var (
	_ UserServiceInterface        = (*UserService)(nil)
	_ ShopServiceInterface        = (*ShopService)(nil)
	_ MenuServiceInterface        = (*MenuService)(nil)
	_ OrderServiceInterface       = (*OrderService)(nil)
	_ ReservationServiceInterface = (*ReservationService)(nil)
	_ LinkServiceInterface        = (*LinkService)(nil)

	_ QRRenderer       = DefaultQRGenerator{}
	_ menuparse.Parser = (*menuparse.GeminiParser)(nil)
	_ notify.Publisher = (*notify.Hub)(nil)

	_ linkauth.Authenticator = (*linkauth.FingerprintAuthenticator)(nil)
	_ linkauth.Authenticator = (*linkauth.HMACAuthenticator)(nil)
)
