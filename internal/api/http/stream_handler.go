package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dealhub/dealhub/internal/infrastructure/sse"
)

const keepAliveInterval = 25 * time.Second

// streamEndpoint streams deal request notifications addressed to one account.
func (s *Server) streamEndpoint(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseUUIDParam(r, "accountId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid accountId")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	// Every connection gets its own id so reconnects never close a live stream.
	client := sse.NewClient(uuid.NewString(), accountID)
	s.hub.Register(client)
	defer s.hub.Unregister(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case msg, ok := <-client.Messages:
			if !ok || msg == nil {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("event: " + msg.Event + "\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
