// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/registry"
	"github.com/AleutianAI/AleutianTune/services/tuner/stats"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// writeWait bounds a single frame write.
const writeWait = 5 * time.Second

// WatchFrame is one message on the stats WebSocket.
type WatchFrame struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Stats     stats.Summary `json:"stats"`
	Counts    []int         `json:"counts"`
	Values    []float64     `json:"values"`
	Timestamp time.Time     `json:"timestamp"`
	Removed   bool          `json:"removed,omitempty"`
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// HandleWatchBandit handles GET /v1/bandit/:id/watch.
//
// Description:
//
//	Upgrades to a WebSocket and pushes a WatchFrame every watch interval.
//	When the bandit is removed a final frame with removed=true is sent and
//	the connection is closed. Messages from the client are discarded.
//
// Response:
//
//	101 Switching Protocols
//	400 Bad Request: INVALID_ARGUMENT (malformed id)
//	404 Not Found: NOT_FOUND (checked before the upgrade)
func (h *Handlers) HandleWatchBandit(c *gin.Context) {
	logger := requestLogger(c, "HandleWatchBandit")
	id, ok := pathID(c, logger)
	if !ok {
		return
	}

	if !h.bandits.Exists(id) {
		writeError(c, logger, registry.ErrNotFound)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()
	logger.Info("Watch client connected", "bandit_id", id)

	// Reader drains control frames and notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	for {
		frame, gone := h.watchFrame(id)
		if err := sendJSON(ws, frame); err != nil {
			return
		}
		if gone {
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bandit removed"),
				time.Now().Add(writeWait))
			logger.Info("Watched bandit removed", "bandit_id", id)
			return
		}

		select {
		case <-closed:
			logger.Info("Watch client disconnected", "bandit_id", id)
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// watchFrame builds the next frame. gone reports the bandit no longer exists.
func (h *Handlers) watchFrame(id string) (WatchFrame, bool) {
	frame := WatchFrame{ID: id, Timestamp: time.Now().UTC()}

	snap, err := h.bandits.Snapshot(id)
	if errors.Is(err, registry.ErrNotFound) {
		frame.Removed = true
		return frame, true
	}
	summary, err := h.bandits.Stats(id)
	if errors.Is(err, registry.ErrNotFound) {
		frame.Removed = true
		return frame, true
	}

	frame.Kind = snap.Kind.String()
	frame.Counts = snap.Counts
	frame.Values = snap.Values
	frame.Stats = summary
	return frame, false
}
