// Package approval tracks optimizer recommendations until a caller approves
// one of their paths or rejects them outright.
package approval

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/workflow"
)

// Registry is the concurrent table of approval requests. Pending requests
// can be resolved exactly once; resolved requests stay readable through Get.
type Registry struct {
	mu       sync.Mutex
	pending  map[string]Request
	resolved map[string]Request
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// Option customizes the registry.
type Option func(*Registry)

// WithClock overrides the time source used for resolution timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records approval transitions.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Registry) {
		r.metrics = rec
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pending:  map[string]Request{},
		resolved: map[string]Request{},
		clock:    time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register stores a new pending request, assigning an id and creation time
// when absent.
func (r *Registry) Register(req Request) (Request, error) {
	if req.Status == "" {
		req.Status = StatusPending
	}
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("approval: register %s with status %s: %w", req.ID, req.Status, workflow.ErrInvalidTransition)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, ok := r.pending[req.ID]; ok {
		return Request{}, fmt.Errorf("approval: request %s already registered: %w", req.ID, workflow.ErrInvalidTransition)
	}
	if _, ok := r.resolved[req.ID]; ok {
		return Request{}, fmt.Errorf("approval: request %s already resolved: %w", req.ID, workflow.ErrInvalidTransition)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = r.clock().UTC()
	}
	stored := req.Clone()
	r.pending[req.ID] = stored
	r.metrics.ObserveApproval(string(StatusPending))
	r.logger.Info("approval registered", "request", req.ID, "project", req.ProjectID, "paths", len(req.Paths))
	return stored.Clone(), nil
}

// Get returns a pending or resolved request.
func (r *Registry) Get(id string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.pending[id]; ok {
		return req.Clone(), nil
	}
	if req, ok := r.resolved[id]; ok {
		return req.Clone(), nil
	}
	return Request{}, fmt.Errorf("approval: %s: %w", id, workflow.ErrRequestNotFound)
}

// Pending lists unresolved requests ordered by creation time.
func (r *Registry) Pending() []Request {
	r.mu.Lock()
	out := make([]Request, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req.Clone())
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Approve binds pathID as the execution choice and resolves the request.
func (r *Registry) Approve(id, pathID, by string) (Request, error) {
	return r.resolve(id, by, func(req *Request) error {
		if _, ok := req.Path(pathID); !ok {
			return fmt.Errorf("approval: request %s has no path %s: %w", id, pathID, workflow.ErrPathNotFound)
		}
		req.Status = StatusApproved
		req.ChosenPathID = pathID
		return nil
	})
}

// Reject resolves the request without choosing a path.
func (r *Registry) Reject(id, reason, by string) (Request, error) {
	return r.resolve(id, by, func(req *Request) error {
		req.Status = StatusRejected
		req.Reason = reason
		return nil
	})
}

func (r *Registry) resolve(id, by string, apply func(*Request) error) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[id]
	if !ok {
		if prior, done := r.resolved[id]; done {
			return Request{}, fmt.Errorf("approval: request %s already %s: %w", id, prior.Status, workflow.ErrInvalidTransition)
		}
		return Request{}, fmt.Errorf("approval: %s: %w", id, workflow.ErrRequestNotFound)
	}
	if err := apply(&req); err != nil {
		return Request{}, err
	}
	now := r.clock().UTC()
	req.ResolvedAt = &now
	req.ResolvedBy = by
	delete(r.pending, id)
	r.resolved[id] = req
	r.metrics.ObserveApproval(string(req.Status))
	r.logger.Info("approval resolved", "request", id, "status", req.Status, "path", req.ChosenPathID, "by", by)
	return req.Clone(), nil
}
