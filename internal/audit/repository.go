// Package audit records who did what to which entity, and serves the
// history back for the /audit endpoint.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entity types recorded in the trail.
const (
	EntityUser = "user"
	EntityItem = "item"
)

// Actions recorded in the trail.
const (
	ActionSignup        = "signup"
	ActionLogin         = "login"
	ActionLoginFailed   = "login_failed"
	ActionRefresh       = "refresh"
	ActionRefreshFailed = "refresh_failed"
	ActionCreate        = "create"
	ActionUpdate        = "update"
	ActionDelete        = "delete"
)

// Page size bounds for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// AuditLog represents a single audit trail entry.
type AuditLog struct { //nolint:revive // audit.AuditLog is clearer than audit.Log in calling code
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Username   string         `json:"username,omitempty"`
	Source     string         `json:"source"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter controls which audit logs to return.
type Filter struct {
	Action     string // optional: signup, login, create, ...
	EntityType string // optional: user or item
	EntityID   string // optional: specific entity
	Limit      int    // default 50, max 200
	Offset     int    // pagination offset
}

// ListResult contains the paginated audit log results.
type ListResult struct {
	Logs   []AuditLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Repository defines the interface for audit log operations.
type Repository interface {
	Create(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// normalize clamps limit and offset into range.
func (f Filter) normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) matches(log *AuditLog) bool {
	return (f.Action == "" || log.Action == f.Action) &&
		(f.EntityType == "" || log.EntityType == f.EntityType) &&
		(f.EntityID == "" || log.EntityID == f.EntityID)
}

// prepare fills in a missing ID and timestamp.
func prepare(log *AuditLog, now time.Time) {
	if log.ID == "" {
		log.ID = "aud-" + uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now.UTC()
	}
}

// page filters logs, orders them newest first and slices out one page.
func page(logs []AuditLog, filter Filter) *ListResult {
	filter = filter.normalize()

	matched := make([]AuditLog, 0, len(logs))
	for i := range logs {
		if filter.matches(&logs[i]) {
			matched = append(matched, logs[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)

	return &ListResult{
		Logs:   matched[start:end],
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
}

// DefaultCapacity bounds the audit trail when no capacity is given.
const DefaultCapacity = 10000

// MemoryRepository keeps a bounded audit trail in memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	logs     []AuditLog
	capacity int
}

// NewMemoryRepository creates an in-memory trail holding at most capacity
// entries; the oldest are dropped first. A capacity <= 0 uses
// DefaultCapacity.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryRepository{capacity: capacity}
}

// Create appends log to the trail.
func (r *MemoryRepository) Create(_ context.Context, log *AuditLog) error {
	prepare(log, time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, *log)
	if len(r.logs) > r.capacity {
		r.logs = r.logs[len(r.logs)-r.capacity:]
	}
	return nil
}

// List returns audit logs matching the filter, most recent first.
func (r *MemoryRepository) List(_ context.Context, filter Filter) (*ListResult, error) {
	r.mu.RLock()
	snapshot := make([]AuditLog, len(r.logs))
	for i, log := range r.logs {
		snapshot[len(r.logs)-1-i] = log // newest first
	}
	r.mu.RUnlock()

	return page(snapshot, filter), nil
}
