package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"spotmeta/internal/provider/spotify"
)

const maxBatchQueries = 100

type SearchResponse struct {
	ID string `json:"id"`
}

type BatchRequest struct {
	Queries []BatchQuery `json:"queries"`
}

type JobResponse struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	Progress    int           `json:"progress"`
	Total       int           `json:"total"`
	Results     []BatchResult `json:"results"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   string        `json:"created_at"`
	StartedAt   *string       `json:"started_at,omitempty"`
	CompletedAt *string       `json:"completed_at,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	kind, err := spotify.ParseKind(q.Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	id, err := s.catalog.SearchEntity(r.Context(), kind, query, q.Get("artist"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{ID: id})
}

func (s *Server) handleDetails(kind spotify.Kind) http.HandlerFunc {
	prefix := "/api/" + string(kind) + "s/"
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			http.Error(w, "ID required", http.StatusBadRequest)
			return
		}

		details, err := s.catalog.EntityDetails(r.Context(), kind, id)
		if err != nil {
			s.writeLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, details)
	}
}

// writeLookupError maps catalog errors to status codes. Configuration
// problems are the server's fault, upstream failures are reported as a bad
// gateway.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spotify.ErrUnsupportedKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case spotify.IsConfigurationError(err):
		s.logger.Error("Catalog is misconfigured: %v", err)
		http.Error(w, "catalog credentials are not configured", http.StatusInternalServerError)
	case errors.Is(err, spotify.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		http.Error(w, "upstream lookup failed", http.StatusBadGateway)
	}
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Queries) == 0 {
		http.Error(w, "queries are required", http.StatusBadRequest)
		return
	}
	if len(req.Queries) > maxBatchQueries {
		http.Error(w, "too many queries", http.StatusBadRequest)
		return
	}
	for _, q := range req.Queries {
		if _, err := spotify.ParseKind(q.Kind); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(q.Query) == "" {
			http.Error(w, "every query needs a non-empty query string", http.StatusBadRequest)
			return
		}
	}

	job := s.jobMgr.CreateJob(req.Queries)
	s.logger.Info("Created job %s with %d queries", job.ID, job.Total)

	ctx, cancel := context.WithCancel(s.ctx)
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
	})
	go s.processJob(ctx, cancel, job.ID, req.Queries)

	writeJSON(w, http.StatusAccepted, s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// Handle GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, s.jobToResponse(job))
		return
	}

	// Handle POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		if job.Cancel != nil {
			job.Cancel()
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

// processJob runs queries one by one. Unmatched queries are recorded and
// the job moves on; a configuration error fails the whole job since every
// remaining query would hit it too.
func (s *Server) processJob(ctx context.Context, cancel context.CancelFunc, jobID string, queries []BatchQuery) {
	defer cancel()

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Status = StatusRunning
	})

	s.logger.Info("Starting job %s", jobID)

	markCancelled := func() {
		s.logger.Info("Job %s cancelled", jobID)
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})
	}

	for _, q := range queries {
		if ctx.Err() != nil {
			markCancelled()
			return
		}

		result := BatchResult{BatchQuery: q}
		kind, _ := spotify.ParseKind(q.Kind)
		id, err := s.catalog.SearchEntity(ctx, kind, q.Query, q.Artist)
		if ctx.Err() != nil {
			markCancelled()
			return
		}
		if err != nil {
			if spotify.IsConfigurationError(err) {
				s.logger.Error("Job %s failed: %v", jobID, err)
				s.jobMgr.UpdateJob(jobID, func(j *Job) {
					j.Status = StatusFailed
					j.Error = err.Error()
				})
				return
			}
			result.Error = lookupFailure(err)
		} else {
			result.ID = id
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Results = append(j.Results, result)
			j.Progress++
		})
	}

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Status = StatusCompleted
	})

	s.logger.Info("Job %s completed", jobID)
}

func lookupFailure(err error) string {
	if errors.Is(err, spotify.ErrNotFound) {
		return "not found"
	}
	return err.Error()
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Results:   job.Results,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format("2006-01-02 15:04:05")
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format("2006-01-02 15:04:05")
		resp.CompletedAt = &completed
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
