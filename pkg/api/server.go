// Package api exposes search rounds over HTTP and streams their progress
// over WebSocket.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/rubiojr/gsuggest/pkg/metrics"
	"github.com/rubiojr/gsuggest/pkg/realtime"
	"github.com/rubiojr/gsuggest/pkg/storage"
)

type Server struct {
	coordinator *coordinator.Coordinator
	hub         *realtime.Hub
	history     *storage.History
	logger      *log.Logger
	upgrader    websocket.Upgrader

	pingInterval time.Duration
}

// NewServer wires the handlers. history may be nil, in which case the
// history endpoints answer 503.
func NewServer(coord *coordinator.Coordinator, hub *realtime.Hub, history *storage.History) *Server {
	return &Server{
		coordinator: coord,
		hub:         hub,
		history:     history,
		logger:      log.ForService("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingInterval: 30 * time.Second,
	}
}

// Handler returns the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(metrics.Middleware())
	r.Use(CorsMiddleware)
	s.RegisterRoutes(r)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warnf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
