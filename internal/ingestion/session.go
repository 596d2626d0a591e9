package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/intelboard/api/internal/domain"
)

// defaultProcessedRetention bounds how many upload content hashes one
// session remembers. Oldest entries fall out first.
const defaultProcessedRetention = 64

// StoreFactory builds the reconciler for one (session, dataset) pair.
// Wiring the row store and upload log per dataset lives in the caller.
type StoreFactory func(sessionID string, schema domain.DatasetSchema) *StagingStore

// Manager owns per-session reconciler state, keyed by session identifier.
// Sessions never share or contend over staged rows.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	schemas   []domain.DatasetSchema
	factory   StoreFactory
	retention int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithProcessedRetention overrides the replay-cache bound.
func WithProcessedRetention(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// NewManager creates a session registry over the given dataset schemas.
func NewManager(schemas []domain.DatasetSchema, factory StoreFactory, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		schemas:   schemas,
		factory:   factory,
		retention: defaultProcessedRetention,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the state for one session identifier, creating it on
// first use.
func (m *Manager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[id]; ok {
		return existing
	}

	session := &Session{
		id:        id,
		stores:    make(map[string]*StagingStore, len(m.schemas)),
		processed: make(map[string]map[string]struct{}),
		order:     make(map[string][]string),
		retention: m.retention,
	}
	for _, schema := range m.schemas {
		session.stores[schema.Name] = m.factory(id, schema)
	}
	m.sessions[id] = session
	return session
}

// Drop discards all state for a session.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Session holds one user session's staging state. Operations within a
// session are serialized; the UI drives them strictly sequentially, but
// the mutex keeps overlapping requests safe.
type Session struct {
	id     string
	mu     sync.Mutex
	stores map[string]*StagingStore

	// processed upload content hashes per dataset, with insertion order
	// kept for bounded FIFO eviction.
	processed map[string]map[string]struct{}
	order     map[string][]string
	retention int
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Store returns the reconciler for a dataset.
func (s *Session) Store(dataset string) (*StagingStore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[dataset]
	return store, ok
}

// ProcessUpload runs the reconciler for one uploaded payload, skipping
// files this session already processed. Identical content re-submitted by
// a page refresh is a no-op instead of a double insert.
func (s *Session) ProcessUpload(ctx context.Context, dataset string, fileName string, payload []byte) domain.UploadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, ok := s.stores[dataset]
	if !ok {
		return domain.UploadOutcome{Message: "Unknown dataset: " + dataset}
	}

	hash := contentHash(dataset, payload)
	if s.alreadyProcessed(dataset, hash) {
		return domain.UploadOutcome{
			OK:      true,
			Message: "File already processed; skipping re-upload",
		}
	}

	outcome := store.handlePayload(ctx, fileName, payload)
	if outcome.OK {
		s.markProcessed(dataset, hash)
	}
	return outcome
}

// AddManualRow forwards to the dataset's reconciler under the session lock.
func (s *Session) AddManualRow(dataset string, input map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[dataset]
	if !ok {
		return false
	}
	return store.AddManualRow(input)
}

// DeleteAt forwards to the dataset's reconciler under the session lock.
func (s *Session) DeleteAt(dataset string, bucket Bucket, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[dataset]
	if !ok {
		return false
	}
	return store.DeleteAt(bucket, index)
}

// Clear drops a dataset's staged rows and its replay cache, so the user
// can intentionally re-upload a previously processed file.
func (s *Session) Clear(dataset string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.stores[dataset]
	if !ok {
		return
	}
	store.ClearAll()
	delete(s.processed, dataset)
	delete(s.order, dataset)
}

func (s *Session) alreadyProcessed(dataset, hash string) bool {
	seen, ok := s.processed[dataset]
	if !ok {
		return false
	}
	_, done := seen[hash]
	return done
}

func (s *Session) markProcessed(dataset, hash string) {
	seen, ok := s.processed[dataset]
	if !ok {
		seen = make(map[string]struct{})
		s.processed[dataset] = seen
	}
	if _, done := seen[hash]; done {
		return
	}
	seen[hash] = struct{}{}
	s.order[dataset] = append(s.order[dataset], hash)

	for len(s.order[dataset]) > s.retention {
		oldest := s.order[dataset][0]
		s.order[dataset] = s.order[dataset][1:]
		delete(seen, oldest)
	}
}

func contentHash(dataset string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(dataset))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
