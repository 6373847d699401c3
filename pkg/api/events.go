package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// HandleEvents upgrades to a WebSocket, sends an init message with the
// current round and then forwards every round event as JSON.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	first := EventsInit{Type: "init"}
	if round := s.coordinator.Current(); round != nil {
		snap := round.Snapshot()
		first.Round = &snap
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(first); err != nil {
		s.logger.Debugf("websocket init: %v", err)
		return
	}

	// Clients never send anything meaningful; reading is how a close is seen.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	s.logger.Debugf("events listener %d connected from %s", id, r.RemoteAddr)
	for {
		select {
		case <-gone:
			s.logger.Debugf("events listener %d disconnected", id)
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debugf("events listener %d: %v", id, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
