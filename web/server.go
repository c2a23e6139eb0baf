package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/ianlintner/instrument-to-midi/logging"
)

// Server exposes the hub over HTTP: a status document at / and a server-sent
// event stream at /events.
type Server struct {
	hub     *Hub
	session string
	started time.Time
	httpSrv *http.Server
}

// statusResponse is the / document.
type statusResponse struct {
	Session     string `json:"session"`
	Subscribers int    `json:"subscribers"`
	UptimeSecs  int64  `json:"uptime_secs"`
}

// NewServer creates a monitoring server on the given port.
func NewServer(hub *Hub, session string, port int) *Server {
	s := &Server{hub: hub, session: session, started: time.Now()}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/", s.handleStatus).Methods("GET")
	router.HandleFunc("/events", s.handleEvents).Methods("GET")

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: cors.AllowAll().Handler(router),
	}
	return s
}

// Start serves until Shutdown. It blocks; run it on its own goroutine.
func (s *Server) Start() error {
	logging.Info("monitoring server listening", logging.Fields{"addr": s.httpSrv.Addr})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Session:     s.session,
		Subscribers: s.hub.SubscriberCount(),
		UptimeSecs:  int64(time.Since(s.started).Seconds()),
	})
}

// handleEvents streams hub events to the client as server-sent events until
// the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				logging.Warn("failed to encode monitor event", logging.Fields{"error": err.Error()})
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
