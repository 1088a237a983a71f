package web

import (
	"context"
	"net/http"

	"spotmeta/internal/logger"
	"spotmeta/internal/provider/spotify"
)

// Catalog is the lookup surface served over HTTP. *spotify.Client
// implements it.
type Catalog interface {
	SearchEntity(ctx context.Context, kind spotify.Kind, query, artist string) (string, error)
	EntityDetails(ctx context.Context, kind spotify.Kind, id string) (map[string]interface{}, error)
}

type Server struct {
	ctx     context.Context
	jobMgr  *JobManager
	catalog Catalog
	logger  *logger.Logger
}

// NewServer creates a server. Batch jobs run under ctx and stop when it is
// cancelled.
func NewServer(ctx context.Context, jobMgr *JobManager, catalog Catalog, log *logger.Logger) *Server {
	return &Server{
		ctx:     ctx,
		jobMgr:  jobMgr,
		catalog: catalog,
		logger:  log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Catalog lookups
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/artists/", s.handleDetails(spotify.KindArtist))
	mux.HandleFunc("/api/albums/", s.handleDetails(spotify.KindAlbum))
	mux.HandleFunc("/api/tracks/", s.handleDetails(spotify.KindTrack))

	// Batch jobs
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
