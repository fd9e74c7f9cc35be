package mockapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Segment scripts one poll response. Zero values are served as-is, so the
// zero Segment is a valid empty, not-done response.
type Segment struct {
	// Events are the events of this segment.
	Events []map[string]any

	// Done marks the job complete as of this segment.
	Done bool

	// Cancelled marks the job cancelled as of this segment.
	Cancelled bool

	// IsAggregate marks the result as an aggregate snapshot.
	IsAggregate bool

	// WorkDone and TotalWork report query progress.
	WorkDone  int
	TotalWork int

	// PollAfter is the minimum delay before the next poll, in milliseconds.
	PollAfter int

	// Extra is merged into the metaData object verbatim.
	Extra map[string]any

	// Status, when non-zero and not 2xx, makes the poll fail with this
	// HTTP status and Body instead of serving a segment.
	Status int

	// Body is the response body served alongside a failing Status.
	Body string
}

// Request is one recorded HTTP request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
	Time   time.Time
}

// job is the server-side state of one query job.
type job struct {
	repository string
	live       bool
	segments   []Segment
	next       int
	polls      int
	deleted    bool
}

// Server is a scripted, in-memory LogLens API. The zero value is not usable;
// create one with [New].
//
// A Server is safe for concurrent use.
type Server struct {
	mux *http.ServeMux

	mu            sync.Mutex
	jobs          map[string]*job
	queued        [][]Segment
	defaultScript []Segment
	requests      []Request
	token         string
	statusText    string
	serverVersion string
}

// New creates a Server with no jobs, no required token, and a healthy
// status endpoint.
func New() *Server {
	s := &Server{
		jobs:          make(map[string]*job),
		statusText:    "OK",
		serverVersion: "1.183.0",
	}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/v1/dataspaces/{repository}/queryjobs", s.handleCreate)
	s.mux.HandleFunc("GET /api/v1/dataspaces/{repository}/queryjobs/{id}", s.handlePoll)
	s.mux.HandleFunc("DELETE /api/v1/dataspaces/{repository}/queryjobs/{id}", s.handleDelete)
}

// ServeHTTP records the request and dispatches it to the API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
		Time:   time.Now(),
	})
	s.mu.Unlock()

	s.mux.ServeHTTP(w, r)
}

// RequireToken makes the server reject requests whose Authorization header
// is not "Bearer " followed by token. An empty token disables the check.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetStatus overrides what the status endpoint reports.
func (s *Server) SetStatus(status, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusText = status
	s.serverVersion = version
}

// AddJob registers a job with a scripted poll sequence and returns its id.
// Successive polls walk the segments in order; the final segment repeats
// once reached. With no segments the job serves a single done segment.
func (s *Server) AddJob(repository string, segments ...Segment) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.jobs[id] = &job{repository: repository, segments: normalizeSegments(segments)}
	return id
}

// QueueJob scripts the poll sequence of the next job created through the
// API. Queued scripts are consumed in order; a creation with nothing queued
// falls back to the default script.
func (s *Server) QueueJob(segments ...Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, normalizeSegments(segments))
}

// SetDefaultJob scripts the poll sequence served to jobs created through the
// API when nothing is queued. Without a default, such jobs serve a single
// done segment.
func (s *Server) SetDefaultJob(segments ...Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultScript = normalizeSegments(segments)
}

// Requests returns a copy of every request received so far, in arrival
// order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Polls returns how many poll requests the given job has served.
func (s *Server) Polls(queryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[queryID]; ok {
		return j.polls
	}
	return 0
}

// Deleted reports whether the given job has been deleted through the API.
func (s *Server) Deleted(queryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[queryID]; ok {
		return j.deleted
	}
	return false
}

func normalizeSegments(segments []Segment) []Segment {
	if len(segments) == 0 {
		return []Segment{{Done: true}}
	}
	return slices.Clone(segments)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := map[string]string{"status": s.statusText, "version": s.serverVersion}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
		return
	}

	var req struct {
		QueryString string `json:"queryString"`
		IsLive      bool   `json:"isLive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.QueryString == "" {
		http.Error(w, "queryString is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	segments := []Segment{{Done: true}}
	switch {
	case len(s.queued) > 0:
		segments = s.queued[0]
		s.queued = s.queued[1:]
	case s.defaultScript != nil:
		segments = s.defaultScript
	}
	id := uuid.NewString()
	s.jobs[id] = &job{
		repository: r.PathValue("repository"),
		live:       req.IsLive,
		segments:   segments,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	j, ok := s.jobs[r.PathValue("id")]
	if !ok || j.deleted || j.repository != r.PathValue("repository") {
		s.mu.Unlock()
		http.Error(w, "query job not found", http.StatusNotFound)
		return
	}
	j.polls++
	segment := j.segments[j.next]
	if j.next < len(j.segments)-1 {
		j.next++
	}
	s.mu.Unlock()

	if segment.Status != 0 && (segment.Status < 200 || segment.Status >= 300) {
		http.Error(w, segment.Body, segment.Status)
		return
	}
	writeJSON(w, http.StatusOK, segmentResponse(segment))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	j, ok := s.jobs[r.PathValue("id")]
	if !ok || j.deleted || j.repository != r.PathValue("repository") {
		s.mu.Unlock()
		http.Error(w, "query job not found", http.StatusNotFound)
		return
	}
	j.deleted = true
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// segmentResponse builds the wire envelope of a segment.
func segmentResponse(segment Segment) map[string]any {
	meta := map[string]any{
		"pollAfter":   segment.PollAfter,
		"isAggregate": segment.IsAggregate,
		"workDone":    segment.WorkDone,
		"totalWork":   segment.TotalWork,
	}
	for key, value := range segment.Extra {
		meta[key] = value
	}

	events := segment.Events
	if events == nil {
		events = []map[string]any{}
	}
	return map[string]any{
		"events":    events,
		"done":      segment.Done,
		"cancelled": segment.Cancelled,
		"metaData":  meta,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
