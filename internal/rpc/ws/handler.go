// Package ws offers ReceiveMessage as a long-poll alternative transport
// over a websocket, for clients that want push-shaped delivery instead of
// repeatedly calling the gRPC ReceiveMessage RPC. Adapted from the
// teacher's internal/handler/ws.WSHandler pump-loop shape: upgrade, run a
// loop until the context is done, write one frame per delivery. The
// teacher subscribes to a live fan-out channel; this spec has no
// subscription primitive, so the loop instead re-polls the dispatcher on
// an interval and writes only newly seen messages.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatrelay/chat-relay/gen/chatrelay"
)

// Receiver is the subset of chatrelay.ChatRelayServer the websocket
// bridge needs.
type Receiver interface {
	ReceiveMessage(ctx context.Context, req *chatrelay.ReceiveMessageRequest) (*chatrelay.ReceiveMessageResponse, error)
}

// Handler upgrades a connection and pumps ReceiveMessage results to it
// until the client disconnects.
type Handler struct {
	logger   *slog.Logger
	receiver Receiver
	upgrader websocket.Upgrader
	interval time.Duration
}

// NewHandler returns a Handler polling receiver every interval
// (interval<=0 defaults to one second).
func NewHandler(logger *slog.Logger, receiver Receiver, interval time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Handler{
		logger:   logger,
		receiver: receiver,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user query parameter", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("ws: opened", "user", user)

	seen := map[uint64]bool{}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			resp, err := h.receiver.ReceiveMessage(r.Context(), &chatrelay.ReceiveMessageRequest{User: user})
			if err != nil {
				h.logger.Warn("ws: receive failed", "error", err)
				continue
			}
			if resp.Status != chatrelay.StatusOk {
				continue
			}
			for _, msg := range resp.Messages {
				if msg.HasMessageUID && seen[msg.MessageUID] {
					continue
				}
				if msg.HasMessageUID {
					seen[msg.MessageUID] = true
				}
				data, err := json.Marshal(msg)
				if err != nil {
					h.logger.Error("ws: marshal failed", "error", err)
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					h.logger.Warn("ws: write failed", "error", err)
					return
				}
			}
		}
	}
}
