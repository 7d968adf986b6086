package ws

import "time"

// Event names pushed to the dashboard feed.
const (
	EventFleetEvent           = "fleet.event"
	EventSessionStatusChanged = "session.status_changed"
	EventControlFlagsChanged  = "control.flags_changed"
	EventBulkGenerationDone   = "generation.bulk_done"
)

// WsEvent is the envelope for every message on the feed.
type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FleetEventData mirrors one event-log entry, plus the notification cue the
// UI/sound layer should play ("" means no cue).
type FleetEventData struct {
	EntryID     int64     `json:"entry_id"`
	Kind        string    `json:"kind"`
	SessionID   string    `json:"session_id"`
	PartnerID   string    `json:"partner_id,omitempty"`
	PartnerName string    `json:"partner_name,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Cue         string    `json:"cue,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SessionStatusChangedData is published when a session changes audience
// segment or connection state.
type SessionStatusChangedData struct {
	SessionID string `json:"session_id"`
	DisplayID string `json:"display_id"`
	Segment   string `json:"segment"`
	Status    string `json:"status"`
}

// ControlFlagsChangedData is published after a control refresh.
type ControlFlagsChangedData struct {
	PanicMode      bool      `json:"panic_mode"`
	StopSpam       bool      `json:"stop_spam"`
	MailingEnabled bool      `json:"mailing_enabled"`
	MachineEnabled bool      `json:"machine_enabled"`
	LastCheck      time.Time `json:"last_check"`
}

// BulkGenerationDoneData summarizes a finished fan-out pass.
type BulkGenerationDoneData struct {
	Action    string `json:"action"`
	Requested int    `json:"requested"`
	Skipped   int    `json:"skipped"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}
