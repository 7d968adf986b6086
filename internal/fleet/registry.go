package fleet

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode is how a session talks to its audience.
type Mode string

const (
	ModeMail Mode = "mail"
	ModeChat Mode = "chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// Session is one managed profile. Owned exclusively by the Registry; all
// mutation goes through Registry methods.
type Session struct {
	ID           string    `json:"id"`
	DisplayID    string    `json:"display_id"`
	Position     int       `json:"position"` // 1-based insertion order
	Segment      string    `json:"segment"`
	UsedAI       bool      `json:"used_ai"` // an AI-generated text is pending send
	Draft        string    `json:"draft,omitempty"`
	TranslatorID int64     `json:"translator_id"`
	Mode         Mode      `json:"mode"`
	Connected    bool      `json:"connected"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStore is the save-on-change persistence hook. May be nil (tests,
// dry runs); save errors are logged, never fatal.
type SessionStore interface {
	SaveSession(s Session) error
}

// Registry owns the live session map and composes proxy assignment, segment
// cycling and the disabled-segment set for the whole fleet.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string // session ids in insertion order

	pool         []ProxySlot
	segmentOrder []string
	disabled     map[string]bool

	store SessionStore
}

func NewRegistry(pool []ProxySlot, segmentOrder []string, disabled map[string]bool, store SessionStore) *Registry {
	if len(segmentOrder) == 0 {
		segmentOrder = DefaultSegmentOrder
	}
	if disabled == nil {
		disabled = map[string]bool{}
	}
	return &Registry{
		sessions:     make(map[string]*Session),
		pool:         pool,
		segmentOrder: segmentOrder,
		disabled:     disabled,
		store:        store,
	}
}

// Add registers a new session at the end of the order. displayID is the
// external profile identifier on the site.
func (r *Registry) Add(displayID string, translatorID int64, mode Mode) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.DisplayID == displayID {
			return Session{}, ErrSessionExists
		}
	}

	if mode == "" {
		mode = ModeMail
	}

	s := &Session{
		ID:           uuid.NewString(),
		DisplayID:    displayID,
		Segment:      r.segmentOrder[0],
		TranslatorID: translatorID,
		Mode:         mode,
		CreatedAt:    time.Now(),
	}
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)

	out := r.viewLocked(s)
	r.saveLocked(out)
	return out, nil
}

// Restore re-inserts a persisted session keeping its saved field values.
// Callers must restore in position order.
func (r *Registry) Restore(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := s
	r.sessions[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
}

// Remove drops a session. Later sessions shift down one position, which
// re-bands their proxy assignment on the next lookup.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the session with its derived position filled in.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return r.viewLocked(s), nil
}

// GetByDisplayID looks a session up by its external profile id.
func (r *Registry) GetByDisplayID(displayID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.DisplayID == displayID {
			return r.viewLocked(s), nil
		}
	}
	return Session{}, ErrSessionNotFound
}

// List returns copies of all sessions in insertion order.
func (r *Registry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.sessions[id]; ok {
			out = append(out, r.viewLocked(s))
		}
	}
	return out
}

// SnapshotIDs returns the session ids in registry order. Fan-out passes
// operate over this stable snapshot so structural mutation cannot interleave
// with iteration.
func (r *Registry) SnapshotIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ProxyFor derives the session's proxy slot from its current position.
// nil means direct egress.
func (r *Registry) ProxyFor(id string) *ProxySlot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos := r.positionLocked(id)
	if pos == 0 {
		return nil
	}
	return AssignProxy(pos, r.pool)
}

// AdvanceSegment moves the session to its next audience segment and returns
// the new one. The decision itself is pure; this applies and persists it.
func (r *Registry) AdvanceSegment(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	s.Segment = NextSegment(s.Segment, r.segmentOrder, r.disabled)
	r.saveLocked(r.viewLocked(s))
	return s.Segment, nil
}

// MarkAIUsed flags the session as holding a pending AI draft. Called by the
// generator on success only.
func (r *Registry) MarkAIUsed(id, draft string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.UsedAI = true
	s.Draft = draft
	r.saveLocked(r.viewLocked(s))
	return nil
}

// ClearAIUsed resets the flag after the site layer confirms the send.
func (r *Registry) ClearAIUsed(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.UsedAI = false
	s.Draft = ""
	r.saveLocked(r.viewLocked(s))
	return nil
}

// SetConnected records the site layer's connection state for the session.
func (r *Registry) SetConnected(id string, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Connected = connected
	r.saveLocked(r.viewLocked(s))
	return nil
}

// SetPhotoURL stores the processed profile photo location.
func (r *Registry) SetPhotoURL(id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.PhotoURL = url
	r.saveLocked(r.viewLocked(s))
	return nil
}

// SetMode switches the session between mail and chat handling.
func (r *Registry) SetMode(id string, mode Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Mode = mode
	r.saveLocked(r.viewLocked(s))
	return nil
}

// SegmentOrder exposes the configured cycle order.
func (r *Registry) SegmentOrder() []string {
	out := make([]string, len(r.segmentOrder))
	copy(out, r.segmentOrder)
	return out
}

// DisabledSegments exposes the configured exclusion set.
func (r *Registry) DisabledSegments() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.disabled))
	for k, v := range r.disabled {
		out[k] = v
	}
	return out
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) positionLocked(id string) int {
	for i, oid := range r.order {
		if oid == id {
			return i + 1
		}
	}
	return 0
}

func (r *Registry) viewLocked(s *Session) Session {
	out := *s
	out.Position = r.positionLocked(s.ID)
	return out
}

func (r *Registry) saveLocked(s Session) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveSession(s); err != nil {
		log.Printf("[FLEET] Warning: failed to save session %s: %v", s.ID, err)
	}
}
