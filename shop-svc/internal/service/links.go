package service

import (
	"context"
	"fmt"
	"strings"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/storage"
)

// LinkService hands staff the per-table customer links. The fingerprint is
// that of the device the links are generated on.
type LinkService struct {
	store   *storage.Store
	auth    linkauth.Authenticator
	qr      QRRenderer
	BaseURL string
}

func NewLinkService(store *storage.Store, auth linkauth.Authenticator, qr QRRenderer, baseURL string) *LinkService {
	return &LinkService{store: store, auth: auth, qr: qr, BaseURL: baseURL}
}

func (s *LinkService) Link(ctx context.Context, shopID, tableNo, fingerprint string) (domain.TableLink, error) {
	tableNo = strings.TrimSpace(tableNo)
	if shopID == "" || tableNo == "" {
		return domain.TableLink{}, ErrMissingIdentifiers
	}
	_, ok := storage.FindBy(ctx, s.store, storage.ShopsKey, func(shop domain.Shop) bool {
		return shop.ID == shopID
	})
	if !ok {
		return domain.TableLink{}, ErrShopNotFound
	}
	return s.link(shopID, tableNo, fingerprint), nil
}

// Links returns one link per table in the shop's current table set.
func (s *LinkService) Links(ctx context.Context, shopID, fingerprint string) []domain.TableLink {
	tables := storage.Filter(ctx, s.store, storage.TablesKey, func(table domain.Table) bool {
		return table.ShopID == shopID
	})
	links := make([]domain.TableLink, 0, len(tables))
	for _, table := range tables {
		links = append(links, s.link(shopID, table.TableNo, fingerprint))
	}
	return links
}

func (s *LinkService) QRCode(ctx context.Context, shopID, tableNo, fingerprint string) ([]byte, error) {
	link, err := s.Link(ctx, shopID, tableNo, fingerprint)
	if err != nil {
		return nil, err
	}
	png, err := s.qr.Render(link.URL)
	if err != nil {
		return nil, fmt.Errorf("render qr for table %s: %w", tableNo, err)
	}
	return png, nil
}

func (s *LinkService) link(shopID, tableNo, fingerprint string) domain.TableLink {
	token := s.auth.Generate(fingerprint, tableNo)
	return domain.TableLink{
		TableNo: tableNo,
		Token:   token,
		URL:     linkauth.OrderLink(s.BaseURL, shopID, tableNo, token),
	}
}
