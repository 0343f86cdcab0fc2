package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dusk-indust/archgraph/internal/graph"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// SnapshotMessage is pushed to live-update clients.
type SnapshotMessage struct {
	Type       string          `json:"type"`
	Generation uint64          `json:"generation"`
	Graph      *graph.Snapshot `json:"graph"`
}

// handleWebSocket sends the current snapshot on connect, then every newly
// published one. Client messages are read only to notice disconnects.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	s.metrics.wsClients.Inc()
	defer s.metrics.wsClients.Dec()

	updates, cancel := s.graphs.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadLimit(4096)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap := s.graphs.Snapshot(); snap != nil {
		if err := s.push(ws, snap); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := s.push(ws, snap); err != nil {
				return
			}
		case <-ping.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) push(ws *websocket.Conn, snap *graph.Snapshot) error {
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	err := ws.WriteJSON(SnapshotMessage{
		Type:       "snapshot",
		Generation: s.graphs.Generation(),
		Graph:      snap,
	})
	if err != nil {
		s.logger.Warn("websocket write failed", "error", err)
	}
	return err
}
