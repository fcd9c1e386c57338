package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/emotune/emotune/internal/history"
	"github.com/emotune/emotune/internal/notify"
)

type generationService interface {
	GenerateFromEmotion(ctx context.Context, emotion string, instrumental bool) (string, string, error)
	Reconcile(ctx context.Context, ids []string) ([]notify.Record, []string)
}

type historyReader interface {
	ListTracks(ctx context.Context, limit int) ([]history.Track, error)
}

type Server struct {
	store    *notify.Store
	registry *notify.Registry
	broker   *notify.Broker
	svc      generationService

	history historyReader

	keepAliveInterval time.Duration

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithHistory(h historyReader) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithKeepAliveInterval overrides the SSE keep-alive comment cadence.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(s *Server) {
		s.keepAliveInterval = d
	}
}

func NewServer(store *notify.Store, registry *notify.Registry, broker *notify.Broker, svc generationService, opts ...Option) *Server {
	s := &Server{
		store:             store,
		registry:          registry,
		broker:            broker,
		svc:               svc,
		keepAliveInterval: 15 * time.Second,
		mux:               http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/suno/callback", s.handleCallback)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/generate-from-emotion", s.handleGenerate)
	s.mux.HandleFunc("/history", s.handleHistory)
}
