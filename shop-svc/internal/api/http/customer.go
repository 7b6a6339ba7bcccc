package httpapi

import (
	"encoding/json"
	"net/http"

	"smartorder/shop-svc/internal/service"

	"github.com/gorilla/mux"
)

// customerOrderRequest maps menu item ids to quantities.
type customerOrderRequest struct {
	Items map[string]int `json:"items"`
}

func (h *Handler) openTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menu, err := h.Orders.OpenTable(r.Context(), vars["shopId"], vars["tableNo"], vars["token"], r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req customerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := h.Orders.SubmitFromLink(r.Context(), vars["shopId"], vars["tableNo"], vars["token"], r.UserAgent(), service.CartFrom(req.Items))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
