package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/menuparse"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/storage"

	"github.com/google/uuid"
)

const DefaultParseTimeout = 30 * time.Second

type MenuService struct {
	store        *storage.Store
	hub          notify.Publisher
	parser       menuparse.Parser
	metrics      *Metrics
	ParseTimeout time.Duration
	NewID        func() string
}

// NewMenuService accepts a nil parser; every import then uses the
// placeholder menu.
func NewMenuService(store *storage.Store, hub notify.Publisher, parser menuparse.Parser, metrics *Metrics) *MenuService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &MenuService{
		store:        store,
		hub:          hub,
		parser:       parser,
		metrics:      metrics,
		ParseTimeout: DefaultParseTimeout,
		NewID:        uuid.NewString,
	}
}

func (s *MenuService) Get(ctx context.Context, shopID string) (domain.ShopMenu, error) {
	menu, ok := storage.FindBy(ctx, s.store, storage.MenusKey, byShop(shopID))
	if !ok {
		return domain.ShopMenu{}, ErrMenuNotFound
	}
	return menu, nil
}

// Import parses a menu photo into a fresh unpublished draft, replacing
// whatever menu the shop had. It never fails because of the parser.
func (s *MenuService) Import(ctx context.Context, shopID string, image []byte, mimeType string) (domain.ShopMenu, error) {
	shop, ok := storage.FindBy(ctx, s.store, storage.ShopsKey, func(shop domain.Shop) bool {
		return shop.ID == shopID
	})
	if !ok {
		return domain.ShopMenu{}, ErrShopNotFound
	}

	parsed := s.parse(ctx, image, mimeType, shop.Name)
	menu := s.draftFrom(shop, parsed)
	if err := storage.UpsertBy(ctx, s.store, storage.MenusKey, menu, byShop(shopID)); err != nil {
		return domain.ShopMenu{}, fmt.Errorf("save menu: %w", err)
	}
	log.Printf("Imported menu for shop %s with %d items", shopID, len(menu.Items))
	return menu, nil
}

type parseResult struct {
	menu *menuparse.ParsedMenu
	err  error
}

func (s *MenuService) parse(ctx context.Context, image []byte, mimeType, shopName string) *menuparse.ParsedMenu {
	if s.parser == nil {
		s.metrics.MenuParseFallbacks.Inc()
		return menuparse.Fallback(shopName)
	}

	timeout := s.ParseTimeout
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so a parser that outlives the timeout can still finish.
	done := make(chan parseResult, 1)
	go func() {
		menu, err := s.parser.ParseMenu(ctx, image, mimeType, shopName)
		done <- parseResult{menu: menu, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && usable(res.menu) {
			return res.menu
		}
		if res.err == nil {
			res.err = fmt.Errorf("no usable items")
		}
		log.Printf("Menu parse failed for %q, using placeholder: %v", shopName, res.err)
	case <-ctx.Done():
		log.Printf("Menu parse for %q gave up after %s, using placeholder", shopName, timeout)
	}

	s.metrics.MenuParseFallbacks.Inc()
	return menuparse.Fallback(shopName)
}

func usable(menu *menuparse.ParsedMenu) bool {
	if menu == nil {
		return false
	}
	for _, item := range menu.Items {
		if strings.TrimSpace(item.Name) != "" {
			return true
		}
	}
	return false
}

func (s *MenuService) draftFrom(shop domain.Shop, parsed *menuparse.ParsedMenu) domain.ShopMenu {
	menu := domain.ShopMenu{
		ID:         s.NewID(),
		ShopID:     shop.ID,
		BrandName:  strings.TrimSpace(parsed.BrandName),
		Categories: []string{},
		Items:      []domain.MenuItem{},
	}
	if menu.BrandName == "" {
		menu.BrandName = shop.Name
	}

	for _, category := range parsed.Categories {
		menu.Categories = appendCategory(menu.Categories, category)
	}
	for _, item := range parsed.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		price := item.Price
		if price < 0 {
			price = 0
		}
		category := strings.TrimSpace(item.Category)
		menu.Items = append(menu.Items, domain.MenuItem{
			ID:       s.NewID(),
			Name:     name,
			Price:    price,
			Category: category,
		})
		menu.Categories = appendCategory(menu.Categories, category)
	}
	return menu
}

func (s *MenuService) Rename(ctx context.Context, shopID, brandName string) (domain.ShopMenu, error) {
	brandName = strings.TrimSpace(brandName)
	if brandName == "" {
		return domain.ShopMenu{}, ErrInvalidItem
	}
	return s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		menu.BrandName = brandName
		return nil
	})
}

func (s *MenuService) AddItem(ctx context.Context, shopID string, item domain.MenuItem) (domain.ShopMenu, error) {
	item, err := normalizeItem(item)
	if err != nil {
		return domain.ShopMenu{}, err
	}
	item.ID = s.NewID()
	return s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		menu.Items = append(menu.Items, item)
		menu.Categories = appendCategory(menu.Categories, item.Category)
		return nil
	})
}

func (s *MenuService) UpdateItem(ctx context.Context, shopID string, item domain.MenuItem) (domain.ShopMenu, error) {
	item, err := normalizeItem(item)
	if err != nil {
		return domain.ShopMenu{}, err
	}
	return s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		for i := range menu.Items {
			if menu.Items[i].ID == item.ID {
				menu.Items[i] = item
				menu.Categories = appendCategory(menu.Categories, item.Category)
				return nil
			}
		}
		return ErrItemNotFound
	})
}

func (s *MenuService) DeleteItem(ctx context.Context, shopID, itemID string) (domain.ShopMenu, error) {
	return s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		for i := range menu.Items {
			if menu.Items[i].ID == itemID {
				menu.Items = append(menu.Items[:i], menu.Items[i+1:]...)
				return nil
			}
		}
		return ErrItemNotFound
	})
}

// ClearItems empties the item list but keeps brand and categories.
func (s *MenuService) ClearItems(ctx context.Context, shopID string) (domain.ShopMenu, error) {
	return s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		menu.Items = []domain.MenuItem{}
		return nil
	})
}

// Publish makes tableNumbers the shop's complete table set and then marks
// the menu live. Publishing again replaces the set. A publish that fails
// to save the tables leaves the menu as it was.
func (s *MenuService) Publish(ctx context.Context, shopID string, tableNumbers []string) (domain.ShopMenu, error) {
	tableNumbers = cleanTableNumbers(tableNumbers)
	if len(tableNumbers) == 0 {
		return domain.ShopMenu{}, ErrNoTables
	}
	if _, err := s.Get(ctx, shopID); err != nil {
		return domain.ShopMenu{}, err
	}

	tables := make([]domain.Table, 0, len(tableNumbers))
	for _, tableNo := range tableNumbers {
		tables = append(tables, domain.Table{ID: s.NewID(), ShopID: shopID, TableNo: tableNo})
	}
	err := storage.ReplaceWhere(ctx, s.store, storage.TablesKey, func(table domain.Table) bool {
		return table.ShopID == shopID
	}, tables)
	if err != nil {
		return domain.ShopMenu{}, fmt.Errorf("save tables: %w", err)
	}

	menu, err := s.edit(ctx, shopID, func(menu *domain.ShopMenu) error {
		menu.IsPublished = true
		return nil
	})
	if err != nil {
		return domain.ShopMenu{}, err
	}

	s.hub.Publish(notify.Event{Type: notify.MenuPublished, ShopID: shopID, RecordID: menu.ID})
	return menu, nil
}

func (s *MenuService) Tables(ctx context.Context, shopID string) []domain.Table {
	return storage.Filter(ctx, s.store, storage.TablesKey, func(table domain.Table) bool {
		return table.ShopID == shopID
	})
}

// ParseTableList splits staff input such as "A1, A2" into table numbers.
func ParseTableList(input string) []string {
	return cleanTableNumbers(strings.Split(input, ","))
}

func cleanTableNumbers(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tableNo := range raw {
		tableNo = strings.TrimSpace(tableNo)
		if tableNo == "" || seen[tableNo] {
			continue
		}
		seen[tableNo] = true
		out = append(out, tableNo)
	}
	return out
}

// edit applies fn to the shop's menu in one atomic write.
func (s *MenuService) edit(ctx context.Context, shopID string, fn func(*domain.ShopMenu) error) (domain.ShopMenu, error) {
	var (
		result  domain.ShopMenu
		editErr error
	)
	err := storage.UpdateBy(ctx, s.store, storage.MenusKey, byShop(shopID), func(menu *domain.ShopMenu) bool {
		if editErr = fn(menu); editErr != nil {
			return false
		}
		result = *menu
		return true
	})
	if err != nil {
		return domain.ShopMenu{}, fmt.Errorf("save menu: %w", err)
	}
	if editErr != nil {
		return domain.ShopMenu{}, editErr
	}
	if result.ID == "" {
		return domain.ShopMenu{}, ErrMenuNotFound
	}
	return result, nil
}

func normalizeItem(item domain.MenuItem) (domain.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	if item.Name == "" || item.Price < 0 {
		return domain.MenuItem{}, ErrInvalidItem
	}
	return item, nil
}

func appendCategory(categories []string, category string) []string {
	category = strings.TrimSpace(category)
	if category == "" {
		return categories
	}
	for _, existing := range categories {
		if existing == category {
			return categories
		}
	}
	return append(categories, category)
}

func byShop(shopID string) func(domain.ShopMenu) bool {
	return func(menu domain.ShopMenu) bool { return menu.ShopID == shopID }
}
