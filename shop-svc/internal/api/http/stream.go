package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"smartorder/shop-svc/internal/notify"

	"github.com/gorilla/mux"
)

const (
	streamBuffer    = 32
	streamKeepAlive = 25 * time.Second
)

// streamEvents pushes the shop's events to a back-office view as
// Server-Sent Events until the client goes away.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	shopID := mux.Vars(r)["shopId"]

	events := make(chan notify.Event, streamBuffer)
	unsubscribe := h.Events.Subscribe(notify.AllTopics, func(evt notify.Event) {
		if evt.ShopID != shopID && evt.Type != notify.ShopCreated {
			return
		}
		select {
		case events <- evt:
		default:
			log.Printf("Dropping %s event for slow stream of shop %s", evt.Type, shopID)
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-events:
			data, err := json.Marshal(evt)
			if err != nil {
				log.Printf("Error encoding event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
