package internalhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/nightpulse/eventbot/internal/app"
	"github.com/nightpulse/eventbot/internal/storage"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type Server struct {
	srv  *http.Server
	addr string
	app  *app.App
}

func NewServer(config Config, application *app.App) *Server {
	s := &Server{
		addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		app:  application,
	}

	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	if len(config.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/events", s.handleCreateEvent)
		r.Post("/events/{id}/rsvp", s.handleRsvp)
	})

	s.srv = &http.Server{Addr: s.addr, Handler: r}
	return s
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handleCreateEvent is the publisher's push-registration path: the
// wizard commits its collected event here and the reminder index picks
// it up synchronously. Timestamps must carry a zone offset (RFC 3339);
// zone-less input fails JSON decoding and is rejected.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event storage.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	id, err := s.app.CreateEvent(r.Context(), event)
	switch {
	case errors.Is(err, storage.ErrIncorrectEventTime):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, storage.ErrDuplicateEventID):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Errorf("failed to create event: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRsvp(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	result, err := s.app.Rsvp(r.Context(), eventID, body.UserID)
	switch {
	case errors.Is(err, storage.ErrNotFoundEvent):
		writeError(w, http.StatusNotFound, "event not found")
		return
	case err != nil:
		log.Errorf("failed to register rsvp: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result.String()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
