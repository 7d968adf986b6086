package fleet

import (
	"sync"
	"time"

	"amorbot/internal/ws"
)

// EventKind enumerates what happened on a session.
type EventKind string

const (
	EventMail        EventKind = "mail"
	EventChat        EventKind = "chat"
	EventChatRequest EventKind = "chat-request"
	EventVIPOnline   EventKind = "vip-online"
	EventBday        EventKind = "bday"
	EventPlain       EventKind = "plain"
)

const (
	// EventLogCapacity bounds the in-memory buffer.
	EventLogCapacity = 300
	// FreshWindow is how long an entry counts as "fresh" when rendered.
	FreshWindow = 60 * time.Second
)

// Notification cues, keyed by event kind. The UI/sound layer decides what
// each cue actually sounds like.
const (
	CueMail      = "new_mail"
	CueChat      = "new_chat"
	CueAttention = "attention"
)

// CueForKind maps an event kind to its notification cue. Kinds without a cue
// (plain, unknown) return "".
func CueForKind(kind EventKind) string {
	switch kind {
	case EventMail:
		return CueMail
	case EventChat, EventChatRequest:
		return CueChat
	case EventBday, EventVIPOnline:
		return CueAttention
	default:
		return ""
	}
}

// LogEntry is immutable once created. ID is the creation timestamp in unix
// nanoseconds and doubles as the sort key.
type LogEntry struct {
	ID          int64     `json:"id"`
	Kind        EventKind `json:"kind"`
	SessionID   string    `json:"session_id"`
	PartnerID   string    `json:"partner_id,omitempty"`
	PartnerName string    `json:"partner_name,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	At          time.Time `json:"at"`
}

// RenderedEntry is a LogEntry plus render-time freshness. Freshness is never
// stored; it is recomputed on every render pass.
type RenderedEntry struct {
	LogEntry
	Fresh bool `json:"fresh"`
}

// Archiver receives every entry for durable storage; failures are the
// archiver's problem, the buffer never blocks on it.
type Archiver interface {
	ArchiveEntry(entry LogEntry)
}

// EventLog is a bounded, newest-first event buffer. Writers serialize on the
// internal mutex so insertion order holds under concurrent Add calls.
type EventLog struct {
	mu       sync.Mutex
	entries  []LogEntry
	rt       ws.RealtimePublisher
	archiver Archiver
}

func NewEventLog(rt ws.RealtimePublisher) *EventLog {
	return &EventLog{rt: rt}
}

// SetArchiver attaches durable archival; optional.
func (l *EventLog) SetArchiver(a Archiver) {
	l.mu.Lock()
	l.archiver = a
	l.mu.Unlock()
}

// Record creates and adds an entry for the given session event, returning
// the stored entry.
func (l *EventLog) Record(kind EventKind, sessionID, partnerID, partnerName, excerpt string) LogEntry {
	now := time.Now()
	entry := LogEntry{
		ID:          now.UnixNano(),
		Kind:        kind,
		SessionID:   sessionID,
		PartnerID:   partnerID,
		PartnerName: partnerName,
		Excerpt:     excerpt,
		At:          now,
	}
	l.Add(entry)
	return entry
}

// Add prepends the entry, truncates to capacity and dispatches the
// notification cue. The prepend copies the buffer, bounded by the 300-entry
// cap.
func (l *EventLog) Add(entry LogEntry) {
	l.mu.Lock()
	l.entries = append([]LogEntry{entry}, l.entries...)
	if len(l.entries) > EventLogCapacity {
		l.entries = l.entries[:EventLogCapacity]
	}
	archiver := l.archiver
	l.mu.Unlock()

	if archiver != nil {
		archiver.ArchiveEntry(entry)
	}

	if l.rt != nil {
		l.rt.Publish(ws.WsEvent{
			Event:     ws.EventFleetEvent,
			Timestamp: entry.At.UTC(),
			Data: ws.FleetEventData{
				EntryID:     entry.ID,
				Kind:        string(entry.Kind),
				SessionID:   entry.SessionID,
				PartnerID:   entry.PartnerID,
				PartnerName: entry.PartnerName,
				Excerpt:     entry.Excerpt,
				Cue:         CueForKind(entry.Kind),
				Timestamp:   entry.At.UTC(),
			},
		})
	}
}

// Entries returns a copy of the buffer, newest first.
func (l *EventLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Render classifies every entry against now. Idempotent; safe to call as
// often as the dashboard repaints.
func (l *EventLog) Render(now time.Time) []RenderedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]RenderedEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, RenderedEntry{
			LogEntry: e,
			Fresh:    now.Sub(e.At) < FreshWindow,
		})
	}
	return out
}

// Len reports the current buffer size.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
