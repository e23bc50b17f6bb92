package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/denysyudin/captionize/internal/jobs"
)

type Server struct {
	queue *jobs.Queue

	mux    *http.ServeMux
	server *http.Server
}

func NewServer(queue *jobs.Queue) *Server {
	s := &Server{
		queue: queue,
		mux:   http.NewServeMux(),
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
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobByID)
}
