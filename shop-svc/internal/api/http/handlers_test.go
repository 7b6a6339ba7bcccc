package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/linkauth"
	"smartorder/shop-svc/internal/menuparse"
	"smartorder/shop-svc/internal/mocks"
	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/service"
	"smartorder/shop-svc/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	staffAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5)"
	customerAgent = "Mozilla/5.0 (Linux; Android 14; Pixel 8)"
)

type testAPI struct {
	router http.Handler
	hub    *notify.Hub
	auth   linkauth.Authenticator
	parser *mocks.MenuParser
	qr     *mocks.QRRenderer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryBackend())
	hub := notify.NewHub("test")
	auth := linkauth.NewFingerprintAuthenticator()
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)
	parser := mocks.NewMenuParser(t)
	qr := mocks.NewQRRenderer(t)

	handler := NewHandler(
		service.NewUserService(store),
		service.NewShopService(store, hub),
		service.NewMenuService(store, hub, parser, metrics),
		service.NewOrderService(store, hub, auth, metrics),
		service.NewReservationService(store, hub),
		service.NewLinkService(store, auth, qr, "http://shop.test"),
		hub,
	)
	return &testAPI{router: NewRouter(handler, reg), hub: hub, auth: auth, parser: parser, qr: qr}
}

func (api *testAPI) do(t *testing.T, method, path string, body interface{}, agent string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", agent)
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func menuUpload(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="menu.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// seedPublishedShop creates "Cafe" with Tea at 60, published for A1 and A2.
func (api *testAPI) seedPublishedShop(t *testing.T) (domain.Shop, domain.ShopMenu) {
	t.Helper()
	api.parser.On("ParseMenu", mock.Anything, mock.Anything, "image/jpeg", "Cafe").Return(&menuparse.ParsedMenu{
		BrandName: "Cafe",
		Items:     []menuparse.ParsedItem{{Name: "Tea", Price: 60, Category: "Drinks"}},
	}, nil).Maybe()

	rr := api.do(t, http.MethodPost, "/api/shops", map[string]string{"name": "Cafe"}, staffAgent)
	require.Equal(t, http.StatusCreated, rr.Code)
	shop := decode[domain.Shop](t, rr)

	body, contentType := menuUpload(t, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/shops/"+shop.ID+"/menu/import", body)
	req.Header.Set("Content-Type", contentType)
	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/shops/"+shop.ID+"/menu/publish", map[string]string{"tables": "A1, A2"}, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return shop, decode[domain.ShopMenu](t, rr)
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/health", nil, staffAgent)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "shop-svc", body["service"])
}

func TestShopsAPI(t *testing.T) {
	api := newTestAPI(t)

	me := decode[domain.User](t, api.do(t, http.MethodGet, "/api/me", nil, staffAgent))
	assert.True(t, me.IsAnonymous)

	rr := api.do(t, http.MethodPost, "/api/shops", map[string]string{"name": "Cafe"}, staffAgent)
	require.Equal(t, http.StatusCreated, rr.Code)
	shop := decode[domain.Shop](t, rr)
	assert.Equal(t, me.ID, shop.OwnerID)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{name: "list", method: http.MethodGet, path: "/api/shops", wantStatus: http.StatusOK},
		{name: "get", method: http.MethodGet, path: "/api/shops/" + shop.ID, wantStatus: http.StatusOK},
		{name: "get missing", method: http.MethodGet, path: "/api/shops/nope", wantStatus: http.StatusNotFound},
		{name: "blank name", method: http.MethodPost, path: "/api/shops", body: map[string]string{"name": " "}, wantStatus: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, path: "/api/shops", body: "{", wantStatus: http.StatusBadRequest},
		{name: "menu missing", method: http.MethodGet, path: "/api/shops/" + shop.ID + "/menu", wantStatus: http.StatusNotFound},
		{name: "analytics stub", method: http.MethodGet, path: "/api/shops/" + shop.ID + "/analytics", wantStatus: http.StatusNotImplemented},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			rr := api.do(t, testCase.method, testCase.path, testCase.body, staffAgent)
			assert.Equal(t, testCase.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestImportMenu_RejectsUnsupportedType(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodPost, "/api/shops", map[string]string{"name": "Cafe"}, staffAgent)
	shop := decode[domain.Shop](t, rr)

	body, contentType := menuUpload(t, "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/shops/"+shop.ID+"/menu/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportMenu_FallbackOnParserError(t *testing.T) {
	api := newTestAPI(t)
	api.parser.On("ParseMenu", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("model overloaded"))
	shop := decode[domain.Shop](t, api.do(t, http.MethodPost, "/api/shops", map[string]string{"name": "Bistro"}, staffAgent))

	body, contentType := menuUpload(t, "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/shops/"+shop.ID+"/menu/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	menu := decode[domain.ShopMenu](t, rec)
	assert.Equal(t, "Bistro", menu.BrandName)
	assert.Len(t, menu.Items, 2)
}

func TestMenuEditingAPI(t *testing.T) {
	api := newTestAPI(t)
	shop, menu := api.seedPublishedShop(t)
	base := "/api/shops/" + shop.ID + "/menu"

	rr := api.do(t, http.MethodPost, base+"/items", domain.MenuItem{Name: "Cake", Price: 90, Category: "Desserts"}, staffAgent)
	require.Equal(t, http.StatusCreated, rr.Code)
	menu = decode[domain.ShopMenu](t, rr)
	require.Len(t, menu.Items, 2)
	cake := menu.Items[1]

	rr = api.do(t, http.MethodPut, base+"/items/"+cake.ID, domain.MenuItem{Name: "Cheesecake", Price: 95, Category: "Desserts"}, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Cheesecake", decode[domain.ShopMenu](t, rr).Items[1].Name)

	rr = api.do(t, http.MethodPut, base+"/items/nope", domain.MenuItem{Name: "X", Price: 1}, staffAgent)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodPost, base+"/items", domain.MenuItem{Name: "Bad", Price: -1}, staffAgent)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPut, base+"/brand", map[string]string{"brandName": "Cafe 2"}, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Cafe 2", decode[domain.ShopMenu](t, rr).BrandName)

	rr = api.do(t, http.MethodDelete, base+"/items/"+cake.ID, nil, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[domain.ShopMenu](t, rr).Items, 1)

	rr = api.do(t, http.MethodDelete, base+"/items", nil, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[domain.ShopMenu](t, rr).Items)
}

func TestPublishAPI(t *testing.T) {
	api := newTestAPI(t)
	shop, menu := api.seedPublishedShop(t)
	assert.True(t, menu.IsPublished)

	tables := decode[[]domain.Table](t, api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/tables", nil, staffAgent))
	require.Len(t, tables, 2)
	assert.Equal(t, "A1", tables[0].TableNo)

	rr := api.do(t, http.MethodPost, "/api/shops/"+shop.ID+"/menu/publish", map[string][]string{"tableNumbers": {"B1"}}, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	tables = decode[[]domain.Table](t, api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/tables", nil, staffAgent))
	require.Len(t, tables, 1)
	assert.Equal(t, "B1", tables[0].TableNo)

	rr = api.do(t, http.MethodPost, "/api/shops/"+shop.ID+"/menu/publish", map[string]string{"tables": " , "}, staffAgent)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTableLinksAPI(t *testing.T) {
	api := newTestAPI(t)
	shop, _ := api.seedPublishedShop(t)

	links := decode[[]domain.TableLink](t, api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/links", nil, staffAgent))
	require.Len(t, links, 2)
	assert.Equal(t, fmt.Sprintf("http://shop.test/order/%s/A1/%s", shop.ID, links[0].Token), links[0].URL)
	assert.Equal(t, api.auth.Generate(staffAgent, "A1"), links[0].Token)

	link := decode[domain.TableLink](t, api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/tables/A2/link?fingerprint="+customerAgent[:10], nil, staffAgent))
	assert.Equal(t, api.auth.Generate(customerAgent[:10], "A2"), link.Token)

	api.qr.On("Render", fmt.Sprintf("http://shop.test/order/%s/A1/%s", shop.ID, links[0].Token)).Return([]byte("\x89PNG"), nil)
	rr := api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/tables/A1/qrcode", nil, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rr.Body.String())

	rr = api.do(t, http.MethodGet, "/api/shops/nope/tables/A1/link", nil, staffAgent)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCustomerOrderFlow(t *testing.T) {
	api := newTestAPI(t)
	shop, menu := api.seedPublishedShop(t)
	tea := menu.Items[0]
	token := api.auth.Generate(customerAgent, "A1")
	orderPath := fmt.Sprintf("/order/%s/A1/%s", shop.ID, token)

	rr := api.do(t, http.MethodGet, orderPath, nil, customerAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Cafe", decode[domain.ShopMenu](t, rr).BrandName)

	rr = api.do(t, http.MethodGet, orderPath, nil, staffAgent)
	assert.Equal(t, http.StatusGone, rr.Code)
	rr = api.do(t, http.MethodGet, fmt.Sprintf("/order/%s/A2/%s", shop.ID, token), nil, customerAgent)
	assert.Equal(t, http.StatusGone, rr.Code)

	rr = api.do(t, http.MethodPost, orderPath, map[string]map[string]int{"items": {tea.ID: 0}}, customerAgent)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, orderPath, map[string]map[string]int{"items": {tea.ID: 2}}, customerAgent)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	order := decode[domain.Order](t, rr)
	assert.Equal(t, float64(120), order.TotalPrice)
	assert.Equal(t, domain.OrderNew, order.Status)

	orders := decode[[]domain.Order](t, api.do(t, http.MethodGet, "/api/shops/"+shop.ID+"/orders", nil, staffAgent))
	require.Len(t, orders, 1)

	for _, want := range []domain.OrderStatus{domain.OrderServed, domain.OrderPaid, domain.OrderPaid} {
		rr = api.do(t, http.MethodPost, "/api/orders/"+order.ID+"/advance", nil, staffAgent)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, want, decode[domain.Order](t, rr).Status)
	}

	rr = api.do(t, http.MethodGet, "/api/orders/"+order.ID, nil, staffAgent)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = api.do(t, http.MethodPost, "/api/orders/nope/advance", nil, staffAgent)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCustomerLink_DraftMenuIsNotFound(t *testing.T) {
	api := newTestAPI(t)
	api.parser.On("ParseMenu", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	shop := decode[domain.Shop](t, api.do(t, http.MethodPost, "/api/shops", map[string]string{"name": "Cafe"}, staffAgent))
	body, contentType := menuUpload(t, "image/jpeg")
	req := httptest.NewRequest(http.MethodPost, "/api/shops/"+shop.ID+"/menu/import", body)
	req.Header.Set("Content-Type", contentType)
	api.router.ServeHTTP(httptest.NewRecorder(), req)

	token := api.auth.Generate(customerAgent, "A1")
	rr := api.do(t, http.MethodGet, fmt.Sprintf("/order/%s/A1/%s", shop.ID, token), nil, customerAgent)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReservationsAPI(t *testing.T) {
	api := newTestAPI(t)
	base := "/api/shops/s1/reservations"

	rr := api.do(t, http.MethodPost, base, map[string]string{"time": "19:30", "tableNo": "A1", "phone": "0912", "source": "booked"}, staffAgent)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reservation := decode[domain.Reservation](t, rr)
	assert.Equal(t, "s1", reservation.ShopID)
	assert.Equal(t, domain.ReservationWaiting, reservation.Status)

	rr = api.do(t, http.MethodPost, base, map[string]string{"tableNo": "A1"}, staffAgent)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/reservations/"+reservation.ID+"/checkin", nil, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	seated := decode[domain.Reservation](t, rr)
	assert.Equal(t, domain.ReservationSeated, seated.Status)
	assert.NotNil(t, seated.CheckInTime)

	rr = api.do(t, http.MethodPost, "/api/reservations/nope/checkin", nil, staffAgent)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	list := decode[[]domain.Reservation](t, api.do(t, http.MethodGet, base, nil, staffAgent))
	require.Len(t, list, 1)
	assert.Equal(t, domain.ReservationSeated, list[0].Status)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodGet, "/health", nil, staffAgent)

	rr := api.do(t, http.MethodGet, "/metrics", nil, staffAgent)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `smartorder_http_request_duration_seconds_count{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, rr.Body.String(), "smartorder_orders_submitted_total 0")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrLinkExpired, want: http.StatusGone},
		{err: fmt.Errorf("lookup: %w", service.ErrMenuNotFound), want: http.StatusNotFound},
		{err: service.ErrReservationNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("%w: time", service.ErrInvalidReservation), want: http.StatusBadRequest},
		{err: service.ErrEmptyCart, want: http.StatusBadRequest},
		{err: errors.New("disk full"), want: http.StatusInternalServerError},
	}

	for _, testCase := range tests {
		t.Run(testCase.err.Error(), func(t *testing.T) {
			assert.Equal(t, testCase.want, statusFor(testCase.err))
		})
	}
}

func TestStreamEvents(t *testing.T) {
	api := newTestAPI(t)
	server := httptest.NewServer(api.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/shops/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)

	api.hub.Publish(notify.Event{Type: notify.OrderSubmitted, ShopID: "other", RecordID: "skip"})
	api.hub.Publish(notify.Event{Type: notify.OrderSubmitted, ShopID: "s1", RecordID: "o1"})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: order.submitted\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"recordId":"o1"`)

	cancel()
	assert.Eventually(t, func() bool { return api.hub.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
