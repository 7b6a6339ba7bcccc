package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"smartorder/shop-svc/internal/domain"
	"smartorder/shop-svc/internal/service"

	"github.com/gorilla/mux"
)

const maxMenuPhoto = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.Menus.Get(r.Context(), mux.Vars(r)["shopId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) importMenu(w http.ResponseWriter, r *http.Request) {
	shopID := mux.Vars(r)["shopId"]

	if err := r.ParseMultipartForm(maxMenuPhoto); err != nil {
		http.Error(w, "File too large", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Error retrieving the file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedImageTypes[mimeType] {
		http.Error(w, "Invalid file type. Only JPEG, PNG, GIF, WebP allowed", http.StatusBadRequest)
		return
	}
	image, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	menu, err := h.Menus.Import(r.Context(), shopID, image, mimeType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, menu)
}

type renameRequest struct {
	BrandName string `json:"brandName"`
}

func (h *Handler) renameMenu(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	menu, err := h.Menus.Rename(r.Context(), mux.Vars(r)["shopId"], req.BrandName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	var item domain.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	menu, err := h.Menus.AddItem(r.Context(), mux.Vars(r)["shopId"], item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, menu)
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var item domain.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	item.ID = vars["itemId"]
	menu, err := h.Menus.UpdateItem(r.Context(), vars["shopId"], item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menu, err := h.Menus.DeleteItem(r.Context(), vars["shopId"], vars["itemId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) clearMenuItems(w http.ResponseWriter, r *http.Request) {
	menu, err := h.Menus.ClearItems(r.Context(), mux.Vars(r)["shopId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

// publishRequest takes either the raw staff input or an explicit list.
type publishRequest struct {
	Tables       string   `json:"tables"`
	TableNumbers []string `json:"tableNumbers"`
}

func (h *Handler) publishMenu(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tables := req.TableNumbers
	if len(tables) == 0 {
		tables = service.ParseTableList(req.Tables)
	}

	menu, err := h.Menus.Publish(r.Context(), mux.Vars(r)["shopId"], tables)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) getTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Menus.Tables(r.Context(), mux.Vars(r)["shopId"]))
}

func (h *Handler) getTableLinks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Links.Links(r.Context(), mux.Vars(r)["shopId"], fingerprint(r)))
}

func (h *Handler) getTableLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	link, err := h.Links.Link(r.Context(), vars["shopId"], vars["tableNo"], fingerprint(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *Handler) getTableQRCode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	png, err := h.Links.QRCode(r.Context(), vars["shopId"], vars["tableNo"], fingerprint(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "table-"+vars["tableNo"]+".png"))
	w.Write(png)
}

// fingerprint identifies the requesting device. Staff may pass the
// fingerprint of another device explicitly.
func fingerprint(r *http.Request) string {
	if fp := r.URL.Query().Get("fingerprint"); fp != "" {
		return fp
	}
	return r.UserAgent()
}
