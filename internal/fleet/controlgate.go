package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ActionKind classifies what a session is about to do, for gate checks.
type ActionKind string

const (
	ActionSend         ActionKind = "send"
	ActionGenerate     ActionKind = "generate"
	ActionStatusChange ActionKind = "status-change"
)

// isSendType reports whether the action pushes outbound content and is
// therefore subject to the mailing/stop-spam switches.
func (a ActionKind) isSendType() bool {
	return a == ActionSend || a == ActionGenerate
}

// ControlFlags are the fleet-wide switches issued by the remote authority.
type ControlFlags struct {
	PanicMode      bool `json:"panic_mode"`
	StopSpam       bool `json:"stop_spam"`
	MailingEnabled bool `json:"mailing_enabled"`
	MachineEnabled bool `json:"machine_enabled"`
}

// ProfilePermission is the per-profile answer of the remote authority used
// to gate single-session generation.
type ProfilePermission struct {
	AIEnabled bool   `json:"ai_enabled"`
	Reason    string `json:"reason,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
}

// ControlSource fetches the current flags from the remote authority.
type ControlSource interface {
	FetchControlFlags(ctx context.Context) (ControlFlags, error)
}

// ControlGate is the single source of truth for fleet-wide permission to
// act. Only Refresh writes the flags; everything else reads.
type ControlGate struct {
	mu        sync.RWMutex
	flags     ControlFlags
	lastCheck time.Time
	source    ControlSource
}

// NewControlGate starts permissive (mailing and machine enabled, no panic):
// the design favors continuity over spurious halts until the first refresh
// lands.
func NewControlGate(source ControlSource) *ControlGate {
	return &ControlGate{
		flags: ControlFlags{
			MailingEnabled: true,
			MachineEnabled: true,
		},
		source: source,
	}
}

// CanAct reports whether the fleet is currently allowed to perform kind.
// PanicMode overrides everything else.
func (g *ControlGate) CanAct(kind ActionKind) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.flags.PanicMode {
		return false
	}
	if !g.flags.MachineEnabled {
		return false
	}
	if kind.isSendType() && (g.flags.StopSpam || !g.flags.MailingEnabled) {
		return false
	}
	return true
}

// Refresh pulls the current flags from the remote authority. On failure the
// last-known flags are retained (a stale "enabled" beats a spurious halt)
// and the error is returned for observability. lastCheck advances either
// way.
func (g *ControlGate) Refresh(ctx context.Context) error {
	flags, err := g.source.FetchControlFlags(ctx)

	g.mu.Lock()
	g.lastCheck = time.Now()
	if err == nil {
		g.flags = flags
	}
	g.mu.Unlock()

	if err != nil {
		return fmt.Errorf("control refresh: %w", err)
	}
	return nil
}

// Snapshot returns the current flags and the time of the last refresh
// attempt.
func (g *ControlGate) Snapshot() (ControlFlags, time.Time) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.flags, g.lastCheck
}
