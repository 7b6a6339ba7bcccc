package httpapi

import (
	"encoding/json"
	"net/http"

	"smartorder/shop-svc/internal/service"

	"github.com/gorilla/mux"
)

func (h *Handler) getShopOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Orders.List(r.Context(), mux.Vars(r)["shopId"]))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Advance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reservations.List(r.Context(), mux.Vars(r)["shopId"]))
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var input service.ReservationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.ShopID = mux.Vars(r)["shopId"]

	reservation, err := h.Reservations.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) checkInReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.Reservations.CheckIn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}
