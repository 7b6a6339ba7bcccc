package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"smartorder/shop-svc/internal/notify"
	"smartorder/shop-svc/internal/service"

	"github.com/gorilla/mux"
)

// Subscriber is the part of the notification hub the event stream needs.
type Subscriber interface {
	Subscribe(topic string, handler notify.Handler) func()
}

type Handler struct {
	Users        service.UserServiceInterface
	Shops        service.ShopServiceInterface
	Menus        service.MenuServiceInterface
	Orders       service.OrderServiceInterface
	Reservations service.ReservationServiceInterface
	Links        service.LinkServiceInterface
	Events       Subscriber
}

func NewHandler(
	userSvc service.UserServiceInterface,
	shopSvc service.ShopServiceInterface,
	menuSvc service.MenuServiceInterface,
	orderSvc service.OrderServiceInterface,
	reservationSvc service.ReservationServiceInterface,
	linkSvc service.LinkServiceInterface,
	events Subscriber,
) *Handler {
	return &Handler{
		Users:        userSvc,
		Shops:        shopSvc,
		Menus:        menuSvc,
		Orders:       orderSvc,
		Reservations: reservationSvc,
		Links:        linkSvc,
		Events:       events,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/me", h.getCurrentUser).Methods("GET")

	r.HandleFunc("/api/shops", h.createShop).Methods("POST")
	r.HandleFunc("/api/shops", h.getShops).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}", h.getShop).Methods("GET")

	r.HandleFunc("/api/shops/{shopId}/menu", h.getMenu).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/menu/import", h.importMenu).Methods("POST")
	r.HandleFunc("/api/shops/{shopId}/menu/brand", h.renameMenu).Methods("PUT")
	r.HandleFunc("/api/shops/{shopId}/menu/items", h.addMenuItem).Methods("POST")
	r.HandleFunc("/api/shops/{shopId}/menu/items", h.clearMenuItems).Methods("DELETE")
	r.HandleFunc("/api/shops/{shopId}/menu/items/{itemId}", h.updateMenuItem).Methods("PUT")
	r.HandleFunc("/api/shops/{shopId}/menu/items/{itemId}", h.deleteMenuItem).Methods("DELETE")
	r.HandleFunc("/api/shops/{shopId}/menu/publish", h.publishMenu).Methods("POST")

	r.HandleFunc("/api/shops/{shopId}/tables", h.getTables).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/links", h.getTableLinks).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/tables/{tableNo}/link", h.getTableLink).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/tables/{tableNo}/qrcode", h.getTableQRCode).Methods("GET")

	r.HandleFunc("/api/shops/{shopId}/reservations", h.getReservations).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/reservations", h.createReservation).Methods("POST")
	r.HandleFunc("/api/reservations/{id}/checkin", h.checkInReservation).Methods("POST")

	r.HandleFunc("/api/shops/{shopId}/orders", h.getShopOrders).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/advance", h.advanceOrder).Methods("POST")

	r.HandleFunc("/api/shops/{shopId}/events", h.streamEvents).Methods("GET")
	r.HandleFunc("/api/shops/{shopId}/analytics", h.getAnalytics).Methods("GET")

	r.HandleFunc("/order/{shopId}/{tableNo}/{token}", h.openTable).Methods("GET")
	r.HandleFunc("/order/{shopId}/{tableNo}/{token}", h.submitOrder).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "shop-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Users.Current(r.Context()))
}

type createShopRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createShop(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner := h.Users.Current(r.Context())
	shop, err := h.Shops.Create(r.Context(), req.Name, owner.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shop)
}

func (h *Handler) getShops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Shops.List(r.Context()))
}

func (h *Handler) getShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Shops.Get(r.Context(), mux.Vars(r)["shopId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shop)
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Analytics are not available yet", http.StatusNotImplemented)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrLinkExpired):
		return http.StatusGone
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrMenuNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidShopName),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrNoTables),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMissingIdentifiers),
		errors.Is(err, service.ErrInvalidReservation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
