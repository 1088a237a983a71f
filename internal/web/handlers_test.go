package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"spotmeta/internal/logger"
	"spotmeta/internal/provider/spotify"
)

// fakeCatalog answers searches from a fixed table keyed by "kind:query".
type fakeCatalog struct {
	mu      sync.Mutex
	ids     map[string]string
	err     error
	block   chan struct{}
	queries []string
}

func (f *fakeCatalog) SearchEntity(ctx context.Context, kind spotify.Kind, query, artist string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, string(kind)+":"+query)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.ids[string(kind)+":"+query]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s %q", spotify.ErrNotFound, kind, query)
}

func (f *fakeCatalog) EntityDetails(ctx context.Context, kind spotify.Kind, id string) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id == "missing" {
		return nil, &spotify.APIError{Path: "/" + string(kind) + "s/" + id, StatusCode: http.StatusNotFound}
	}
	return map[string]interface{}{"id": id, "type": string(kind)}, nil
}

func newTestServer(t *testing.T, catalog Catalog) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(ctx, NewJobManager(), catalog, logger.Discard())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHandleSearch(t *testing.T) {
	catalog := &fakeCatalog{ids: map[string]string{"album:OK Computer": "alb1"}}
	_, ts := newTestServer(t, catalog)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantID     string
	}{
		{"found", "kind=album&q=OK+Computer&artist=Radiohead", http.StatusOK, "alb1"},
		{"plural kind", "kind=albums&q=OK+Computer", http.StatusOK, "alb1"},
		{"not found", "kind=album&q=Nope", http.StatusNotFound, ""},
		{"bad kind", "kind=playlist&q=x", http.StatusBadRequest, ""},
		{"missing query", "kind=album", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/search?" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantID == "" {
				return
			}
			var body SearchResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.ID != tt.wantID {
				t.Errorf("id = %q, want %q", body.ID, tt.wantID)
			}
		})
	}
}

func TestHandleSearchErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "missing credentials",
			err:        &spotify.MissingCredentialsError{Provider: "dotenv", Names: []string{"spotify_client_id"}},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "token unavailable",
			err:        fmt.Errorf("%w: boom", spotify.ErrTokenUnavailable),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upstream error",
			err:        &spotify.APIError{Path: "/search", StatusCode: http.StatusServiceUnavailable},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, &fakeCatalog{err: tt.err})

			resp, err := http.Get(ts.URL + "/api/search?kind=artist&q=x")
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHandleDetails(t *testing.T) {
	_, ts := newTestServer(t, &fakeCatalog{})

	resp, err := http.Get(ts.URL + "/api/tracks/trk1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["id"] != "trk1" || body["type"] != "track" {
		t.Errorf("unexpected body: %v", body)
	}

	for path, want := range map[string]int{
		"/api/artists/missing": http.StatusNotFound,
		"/api/albums/":         http.StatusBadRequest,
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET %s: status = %d, want %d", path, resp.StatusCode, want)
		}
	}
}

func postBatch(t *testing.T, ts *httptest.Server, queries []BatchQuery) *JobResponse {
	t.Helper()
	body, _ := json.Marshal(BatchRequest{Queries: queries})
	resp, err := http.Post(ts.URL+"/api/batch", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var job JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	return &job
}

func waitForJob(t *testing.T, srv *Server, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := srv.jobMgr.GetJob(id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestBatchJob(t *testing.T) {
	catalog := &fakeCatalog{ids: map[string]string{
		"artist:Radiohead":   "art1",
		"track:Karma Police": "trk1",
	}}
	srv, ts := newTestServer(t, catalog)

	created := postBatch(t, ts, []BatchQuery{
		{Kind: "artist", Query: "Radiohead"},
		{Kind: "track", Query: "Karma Police", Artist: "Radiohead"},
		{Kind: "album", Query: "Unknown"},
	})
	if created.Total != 3 {
		t.Errorf("total = %d, want 3", created.Total)
	}

	job := waitForJob(t, srv, created.ID)
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed (error %q)", job.Status, job.Error)
	}
	if job.Progress != 3 || len(job.Results) != 3 {
		t.Fatalf("progress = %d, results = %d", job.Progress, len(job.Results))
	}
	if job.Results[0].ID != "art1" || job.Results[1].ID != "trk1" {
		t.Errorf("unexpected results: %+v", job.Results)
	}
	if job.Results[2].ID != "" || job.Results[2].Error != "not found" {
		t.Errorf("expected unmatched third query, got %+v", job.Results[2])
	}

	resp, err := http.Get(ts.URL + "/api/jobs/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted || got.CompletedAt == nil {
		t.Errorf("unexpected job response: %+v", got)
	}
}

func TestBatchJobConfigurationErrorFails(t *testing.T) {
	catalog := &fakeCatalog{err: &spotify.MissingCredentialsError{Provider: "dotenv", Names: []string{"spotify_client_id"}}}
	srv, ts := newTestServer(t, catalog)

	created := postBatch(t, ts, []BatchQuery{
		{Kind: "artist", Query: "a"},
		{Kind: "artist", Query: "b"},
	})

	job := waitForJob(t, srv, created.ID)
	if job.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "spotify_client_id") {
		t.Errorf("error = %q, want missing credential name", job.Error)
	}
	if len(catalog.queries) != 1 {
		t.Errorf("expected the job to stop after the first query, got %d", len(catalog.queries))
	}
}

func TestBatchValidation(t *testing.T) {
	_, ts := newTestServer(t, &fakeCatalog{})

	bodies := []string{
		`not json`,
		`{"queries":[]}`,
		`{"queries":[{"kind":"show","query":"x"}]}`,
		`{"queries":[{"kind":"track","query":"  "}]}`,
	}
	for _, body := range bodies {
		resp, err := http.Post(ts.URL+"/api/batch", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestCancelJob(t *testing.T) {
	catalog := &fakeCatalog{block: make(chan struct{})}
	srv, ts := newTestServer(t, catalog)

	created := postBatch(t, ts, []BatchQuery{{Kind: "artist", Query: "a"}})

	resp, err := http.Post(ts.URL+"/api/jobs/"+created.ID+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	job := waitForJob(t, srv, created.ID)
	if job.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", job.Status)
	}

	resp, err = http.Post(ts.URL+"/api/jobs/job_missing/cancel", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job: status = %d, want 404", resp.StatusCode)
	}
}

func TestListJobs(t *testing.T) {
	srv, ts := newTestServer(t, &fakeCatalog{})
	srv.jobMgr.CreateJob(testQueries)
	srv.jobMgr.CreateJob(testQueries)

	resp, err := http.Get(ts.URL + "/api/jobs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var jobs []JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestWebSocketStreamsUntilDone(t *testing.T) {
	catalog := &fakeCatalog{
		ids:   map[string]string{"artist:a": "id-a"},
		block: make(chan struct{}),
	}
	srv, ts := newTestServer(t, catalog)

	job := srv.jobMgr.CreateJob([]BatchQuery{{Kind: "artist", Query: "a"}})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?job_id=" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var initial JobResponse
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	if initial.Status != StatusPending {
		t.Errorf("initial status = %s, want pending", initial.Status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.processJob(ctx, cancel, job.ID, job.Queries)
	close(catalog.block)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var last JobResponse
	for {
		var update JobResponse
		if err := conn.ReadJSON(&update); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) || closeErr.Code != websocket.CloseNormalClosure {
				t.Fatalf("read: %v", err)
			}
			break
		}
		last = update
	}

	if last.Status != StatusCompleted {
		t.Errorf("last status = %s, want completed", last.Status)
	}
	if len(last.Results) != 1 || last.Results[0].ID != "id-a" {
		t.Errorf("unexpected results: %+v", last.Results)
	}
}

func TestWebSocketUnknownJob(t *testing.T) {
	_, ts := newTestServer(t, &fakeCatalog{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?job_id=job_missing"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("expected policy violation close, got %v", err)
	}
}
