// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/panel"
)

// writeWait bounds one outbound frame. Inbound frames have no size limit:
// message text is opaque and any length is relayed.
const writeWait = 10 * time.Second

// socketView posts panel messages as JSON text frames.
type socketView struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (v *socketView) PostMessage(msg panel.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return v.conn.WriteJSON(msg)
}

// handlePanelSocket is the panel's message channel. Closing the socket is
// closing the surface, so the panel is disposed when the read loop ends.
func (s *Server) handlePanelSocket(w http.ResponseWriter, r *http.Request) {
	p := panelFrom(r)
	logger := s.logger.With(zap.String("panel_id", p.ID()))

	if p.Attached() {
		writeError(w, http.StatusConflict, panel.ErrAlreadyAttached.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	detach, err := p.Attach(&socketView{conn: conn})
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		return
	}
	defer detach()
	logger.Info("surface attached")

	// Disposal from elsewhere (DELETE, shutdown) closes the socket, which
	// ends the read loop below.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-p.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "panel closed"),
				time.Now().Add(writeWait))
			conn.Close()
		case <-readDone:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read failed", zap.Error(err))
			}
			break
		}

		msg, ok := panel.DecodeMessage(data)
		if !ok {
			logger.Debug("ignoring malformed message", zap.Int("bytes", len(data)))
			continue
		}
		if err := p.Receive(msg); err != nil {
			break
		}
	}

	logger.Info("surface closed")
	p.Dispose()
}
