// Package api wires the job-submission HTTP surface described in
// SPEC_FULL.md §4.14: submit a grid and dictionary, poll job status, and
// stream the solve's Event Log over a WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tcstacks/crosscsp/internal/cache"
	"github.com/tcstacks/crosscsp/internal/csp"
	"github.com/tcstacks/crosscsp/internal/middleware"
	"github.com/tcstacks/crosscsp/internal/realtime"
	"github.com/tcstacks/crosscsp/internal/store"
)

// Handlers holds the dependencies every job-related route needs.
type Handlers struct {
	store *store.Store
	cache *cache.Cache
	hub   *realtime.Hub
}

func NewHandlers(s *store.Store, c *cache.Cache, hub *realtime.Hub) *Handlers {
	return &Handlers{store: s, cache: c, hub: hub}
}

// SubmitJobRequest is the body of POST /api/jobs.
type SubmitJobRequest struct {
	Grid       []string `json:"grid" binding:"required"`
	Dictionary []string `json:"dictionary" binding:"required"`
	Seed       int64    `json:"seed"`
	HonorPrefilled bool `json:"honorPrefilled"`
	TimeoutSeconds int  `json:"timeoutSeconds"`
}

// SubmitJobResponse is returned immediately; the solve itself runs async.
type SubmitJobResponse struct {
	JobID  string          `json:"jobId"`
	Status store.JobStatus `json:"status"`
}

// JobResponse is the body of GET /api/jobs/:id.
type JobResponse struct {
	JobID      string          `json:"jobId"`
	Status     store.JobStatus `json:"status"`
	Grid       []string        `json:"grid,omitempty"`
	Assignment json.RawMessage `json:"assignment,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// SubmitJob creates a job record and kicks off the solve in a goroutine,
// mirroring the teacher's async-room-then-websocket shape.
func (h *Handlers) SubmitJob(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID := uuid.New()
	dictKey := cache.GridDictKey(req.Grid, req.Dictionary, req.Seed)

	job := &store.Job{
		ID:            jobID.String(),
		GridText:      joinLines(req.Grid),
		DictionaryKey: dictKey,
		Seed:          req.Seed,
		Status:        store.StatusQueued,
		CreatedAt:     time.Now(),
	}
	if err := h.store.CreateJob(c.Request.Context(), job); err != nil {
		log.Printf("SubmitJob: failed to create job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	go h.runJob(jobID, dictKey, req.Grid, req.Dictionary, req.Seed, req.HonorPrefilled, timeout)

	c.JSON(http.StatusAccepted, SubmitJobResponse{JobID: jobID.String(), Status: store.StatusQueued})
}

// runJob executes the solve and persists its outcome. It never touches
// gin.Context: it outlives the request that created it. A cache hit on
// cacheKey short-circuits the Search Engine entirely (§4.11).
func (h *Handlers) runJob(jobID uuid.UUID, cacheKey string, grid, dictionary []string, seed int64, honorPrefilled bool, timeout time.Duration) {
	ctx := context.Background()
	start := time.Now()

	if err := h.store.UpdateJobStatus(ctx, jobID.String(), store.StatusRunning, nil, nil, ""); err != nil {
		log.Printf("runJob %s: failed to mark running: %v", jobID, err)
	}

	sink := h.persistingEventSink(ctx, jobID)

	if cached, hit, err := h.cache.Get(ctx, cacheKey); err != nil {
		log.Printf("runJob %s: cache lookup failed: %v", jobID, err)
	} else if hit {
		sink("Cache hit, replaying stored assignment")
		h.finishJob(ctx, jobID, store.StatusSolved, json.RawMessage(cached), marshalEventLog([]string{"Cache hit, replaying stored assignment"}), "")
		return
	}

	cfg := csp.Config{
		HonorPrefilled: honorPrefilled,
		Seed:           seed,
		Timeout:        timeout,
		EventSink:      sink,
	}

	res, err := csp.Solve(ctx, grid, dictionary, cfg)

	var status store.JobStatus
	var assignment json.RawMessage
	var jobErr string

	switch {
	case err == nil:
		status = store.StatusSolved
		filled := csp.Render(grid, res.Assignment)
		assignment, jobErr = marshalAssignment(filled)
		if jobErr == "" {
			if setErr := h.cache.Set(ctx, cacheKey, string(assignment), cache.DefaultTTL); setErr != nil {
				log.Printf("runJob %s: cache set failed: %v", jobID, setErr)
			}
		}
	case errors.Is(err, csp.ErrTimeout):
		status = store.StatusTimedOut
		jobErr = err.Error()
	case errors.Is(err, csp.ErrUnsolvable):
		status = store.StatusFailed
		jobErr = err.Error()
	default:
		status = store.StatusFailed
		jobErr = err.Error()
	}

	var eventLog json.RawMessage
	if res != nil {
		eventLog = marshalEventLog(res.Log.Entries())
	}

	h.finishJob(ctx, jobID, status, assignment, eventLog, jobErr)
	middleware.RecordSolveOutcome(string(status), time.Since(start))
}

func (h *Handlers) finishJob(ctx context.Context, jobID uuid.UUID, status store.JobStatus, assignment, eventLog json.RawMessage, jobErr string) {
	if err := h.store.UpdateJobStatus(ctx, jobID.String(), status, assignment, eventLog, jobErr); err != nil {
		log.Printf("runJob %s: failed to record outcome: %v", jobID, err)
	}
	h.hub.BroadcastDone(jobID, string(status))
}

// persistingEventSink forwards Event Log lines to the realtime hub as
// they're produced and periodically snapshots them into the store via
// AppendEventLog, so a client polling GetJob while the solve is still
// running sees progress instead of an empty log.
func (h *Handlers) persistingEventSink(ctx context.Context, jobID uuid.UUID) func(string) {
	broadcast := h.hub.EventSink(jobID)
	var entries []string
	return func(line string) {
		entries = append(entries, line)
		broadcast(line)
		if len(entries)%20 == 0 {
			if data, err := json.Marshal(entries); err == nil {
				if err := h.store.AppendEventLog(ctx, jobID.String(), data); err != nil {
					log.Printf("runJob %s: failed to append event log: %v", jobID, err)
				}
			}
		}
	}
}

func marshalEventLog(lines []string) json.RawMessage {
	data, err := json.Marshal(lines)
	if err != nil {
		return nil
	}
	return data
}

func marshalAssignment(filled []string) (json.RawMessage, string) {
	data, err := json.Marshal(filled)
	if err != nil {
		return nil, err.Error()
	}
	return data, ""
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// GetJob reports a job's current status and, once solved, its filled grid.
// Auth is optional here (job ids are unguessable UUIDs, shareable like a
// link); when a caller does present a valid token, its client id is
// logged against the lookup for audit purposes.
func (h *Handlers) GetJob(c *gin.Context) {
	id := c.Param("id")
	if claims := middleware.GetAuthUser(c); claims != nil {
		log.Printf("GetJob %s: accessed by client %s", id, claims.ClientID)
	}

	job, err := h.store.GetJob(c.Request.Context(), id)
	if err != nil {
		log.Printf("GetJob: database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	resp := jobResponse(job)
	c.JSON(http.StatusOK, resp)
}

// ListJobs reports the most recently submitted jobs, newest first,
// exercising the store's ListRecentJobs.
func (h *Handlers) ListJobs(c *gin.Context) {
	limit := 20
	if q := c.Query("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, err := h.store.ListRecentJobs(c.Request.Context(), limit)
	if err != nil {
		log.Printf("ListJobs: database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, jobResponse(job))
	}
	c.JSON(http.StatusOK, resp)
}

func jobResponse(job *store.Job) JobResponse {
	resp := JobResponse{
		JobID:      job.ID,
		Status:     job.Status,
		Assignment: job.Assignment,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
	}
	if job.GridText != "" {
		resp.Grid = splitLines(job.GridText)
	}
	return resp
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	lines = append(lines, text[start:])
	return lines
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
