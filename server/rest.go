package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/jobimport/pkg/domain"
	"github.com/umputun/jobimport/pkg/scheduler"
	"github.com/umputun/jobimport/pkg/worker"
)

const recentRuns = 10

type statsResponse struct {
	Totals     domain.AggregateStats `json:"totals"`
	RecentRuns []domain.ImportRun    `json:"recentRuns"`
	Queue      *domain.QueueStats    `json:"queue,omitempty"`
}

type triggerRequest struct {
	URL string `json:"url"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.Version,
		"time":    time.Now().UTC(),
	})
}

// statsHandler returns aggregate import totals, the most recent runs and queue depth.
// Queue depth is omitted if the broker is unavailable.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := s.Runs.GetAggregateStats(ctx)
	if err != nil {
		lgr.Printf("[ERROR] failed to get aggregate stats: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	runs, err := s.Runs.ListRuns(ctx, recentRuns)
	if err != nil {
		lgr.Printf("[ERROR] failed to list runs: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []domain.ImportRun{}
	}

	// queue depth is best effort
	resp := statsResponse{Totals: totals, RecentRuns: runs}
	if qs, err := s.Queue.Stats(ctx); err != nil {
		lgr.Printf("[WARN] failed to get queue stats: %v", err)
	} else {
		resp.Queue = &qs
	}
	renderJSON(w, r, http.StatusOK, resp)
}

// triggerHandler enqueues an import of a single feed url
func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		renderError(w, r, fmt.Errorf("url is required"), http.StatusBadRequest)
		return
	}
	// only absolute http(s) urls can be fetched
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		renderError(w, r, fmt.Errorf("invalid url %q", req.URL), http.StatusBadRequest)
		return
	}

	id, err := s.Queue.Add(r.Context(), worker.TaskName, worker.TaskData{URL: req.URL})
	if err != nil {
		lgr.Printf("[ERROR] failed to enqueue %s: %v", req.URL, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	lgr.Printf("[INFO] import of %s queued as task %s", req.URL, id)
	renderJSON(w, r, http.StatusAccepted, map[string]string{"taskId": id, "url": req.URL})
}

// triggerBulkHandler runs a manual sweep, 409 if a sweep is already running
func (s *Server) triggerBulkHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.Sweeper.TriggerManual(r.Context())
	switch {
	case errors.Is(err, scheduler.ErrSweepInProgress):
		renderError(w, r, err, http.StatusConflict)
		return
	case err != nil:
		lgr.Printf("[ERROR] manual sweep failed: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusAccepted, map[string]int{"queued": count})
}
