package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jobrie31/trailers-contremaitres/db"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 25 * time.Second

type StreamHandler struct {
	db *db.FirestoreDB
}

func NewStreamHandler(firestoreDB *db.FirestoreDB) *StreamHandler {
	return &StreamHandler{db: firestoreDB}
}

// StreamCatalog pushes a server-sent event whenever the global categories
// or the equipment bank change. Events carry no payload; the client
// re-fetches the catalog view.
func (h *StreamHandler) StreamCatalog(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.db.WatchCatalog(r.Context()))
}

// StreamTrailer pushes a server-sent event whenever one trailer's mirrors
// or repair rows change
func (h *StreamHandler) StreamTrailer(w http.ResponseWriter, r *http.Request) {
	trailerID := requireTrailer(w, r)
	if trailerID == "" {
		return
	}
	h.stream(w, r, h.db.WatchTrailer(r.Context(), trailerID))
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, events <-chan db.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
