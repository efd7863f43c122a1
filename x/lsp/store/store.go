// Package store keeps a bounded history of LSP deployment attempts.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sx-network/lsp-deployer/x/lsp"
)

// Status of a recorded deployment.
type Status string

const (
	StatusDeployed  Status = "deployed"
	StatusSimulated Status = "simulated"
	StatusFailed    Status = "failed"
)

// ErrNotFound is returned for ids that were never recorded or have been evicted.
var ErrNotFound = errors.New("deployment not found")

// Record is one deployment attempt.
type Record struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Status    Status            `json:"status"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Request   lsp.DeployRequest `json:"request"`
	*lsp.Deployment
}

// Store is the history consumed by the HTTP API.
type Store interface {
	Add(req lsp.DeployRequest, d *lsp.Deployment, err error) Record
	Get(id string) (Record, error)
	List(limit int) []Record
}

var _ Store = (*Memory)(nil)

// Memory holds the most recent records; the oldest is evicted once size is reached.
type Memory struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Record]
	now   func() time.Time
}

// NewMemory returns a history holding at most size records.
func NewMemory(size int) (*Memory, error) {
	c, err := lru.New[string, Record](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment history: %w", err)
	}
	return &Memory{cache: c, now: time.Now}, nil
}

// Add records the outcome of a Deploy call. The mnemonic is never stored.
func (m *Memory) Add(req lsp.DeployRequest, d *lsp.Deployment, err error) Record {
	rec := Record{
		ID:         uuid.NewString(),
		CreatedAt:  m.now().UTC(),
		Request:    req.Redacted(),
		Deployment: d,
	}
	switch {
	case err != nil:
		rec.Status = StatusFailed
		rec.Error = err.Error()
		if kind, ok := lsp.KindOf(err); ok {
			rec.ErrorKind = kind.String()
		}
	case d != nil && d.Simulated:
		rec.Status = StatusSimulated
	default:
		rec.Status = StatusDeployed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(rec.ID, rec)
	return rec
}

// Get returns a record without touching its recency.
func (m *Memory) Get(id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.cache.Peek(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// List returns up to limit records, newest first. limit <= 0 returns all of them.
func (m *Memory) List(limit int) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.cache.Keys()
	if limit <= 0 || limit > len(keys) {
		limit = len(keys)
	}
	out := make([]Record, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if rec, ok := m.cache.Peek(keys[i]); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records held.
func (m *Memory) Len() int {
	return m.cache.Len()
}
