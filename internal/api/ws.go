package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"codecollab/internal/session"
)

// CollabWS upgrades the connection and feeds every inbound frame to the
// dispatcher until the socket closes.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := session.NewClient(conn, h.cfg.SendBuffer)
	pumpDone := make(chan struct{})
	go func() {
		client.WritePump()
		close(pumpDone)
	}()
	client.PrepareRead(h.cfg.MaxMessageBytes)

	h.log.Debug("connection opened",
		zap.String("connection_id", client.ID),
		zap.String("remote_addr", r.RemoteAddr))

	defer func() {
		h.dispatcher.Disconnect(client)
		client.Close()
		<-pumpDone
		_ = conn.Close()
		h.log.Debug("connection closed", zap.String("connection_id", client.ID))
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.log.Warn("websocket read failed", zap.String("connection_id", client.ID), zap.Error(err))
			}
			return
		}
		h.dispatcher.HandleFrame(client, msg)
	}
}
