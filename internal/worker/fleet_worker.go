// internal/worker/fleet_worker.go
package worker

import (
	"context"
	"log"
	"time"

	"amorbot/internal/fleet"
	"amorbot/internal/ws"
)

// FleetWorker drives the periodic fleet work: control-flag refresh and
// audience-status cycling. Both loops are plain tickers with a cancellation
// context so tests can stop them deterministically.
type FleetWorker struct {
	registry *fleet.Registry
	gate     *fleet.ControlGate
	hub      ws.RealtimePublisher

	controlInterval time.Duration
	cycleInterval   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewFleetWorker(registry *fleet.Registry, gate *fleet.ControlGate, hub ws.RealtimePublisher, controlInterval, cycleInterval time.Duration) *FleetWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &FleetWorker{
		registry:        registry,
		gate:            gate,
		hub:             hub,
		controlInterval: controlInterval,
		cycleInterval:   cycleInterval,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start launches both loops in background goroutines.
func (w *FleetWorker) Start() {
	log.Println("🤖 Fleet worker started")
	go w.runControlRefresh()
	go w.runStatusCycle()
}

// Stop cancels both loops.
func (w *FleetWorker) Stop() {
	w.cancel()
	log.Println("Fleet worker stopped")
}

func (w *FleetWorker) runControlRefresh() {
	ticker := time.NewTicker(w.controlInterval)
	defer ticker.Stop()

	// first refresh right away so the gate is warm before any action
	w.refreshControl()

	for {
		select {
		case <-ticker.C:
			w.refreshControl()
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *FleetWorker) refreshControl() {
	ctx, cancel := context.WithTimeout(w.ctx, 15*time.Second)
	defer cancel()

	if err := w.gate.Refresh(ctx); err != nil {
		// stale flags are retained; just surface the failure
		log.Printf("[CONTROL] ❌ refresh failed: %v", err)
		return
	}

	flags, lastCheck := w.gate.Snapshot()
	if w.hub != nil {
		w.hub.Publish(ws.WsEvent{
			Event:     ws.EventControlFlagsChanged,
			Timestamp: time.Now().UTC(),
			Data: ws.ControlFlagsChangedData{
				PanicMode:      flags.PanicMode,
				StopSpam:       flags.StopSpam,
				MailingEnabled: flags.MailingEnabled,
				MachineEnabled: flags.MachineEnabled,
				LastCheck:      lastCheck,
			},
		})
	}
}

func (w *FleetWorker) runStatusCycle() {
	ticker := time.NewTicker(w.cycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.cycleOnce()
		case <-w.ctx.Done():
			return
		}
	}
}

// cycleOnce advances every session one segment, gated per tick. The snapshot
// keeps structural registry changes from interleaving with the pass.
func (w *FleetWorker) cycleOnce() {
	if !w.gate.CanAct(fleet.ActionStatusChange) {
		return
	}

	for _, id := range w.registry.SnapshotIDs() {
		segment, err := w.registry.AdvanceSegment(id)
		if err != nil {
			continue // removed mid-pass
		}

		sess, err := w.registry.Get(id)
		if err != nil {
			continue
		}

		if w.hub != nil {
			w.hub.Publish(ws.WsEvent{
				Event:     ws.EventSessionStatusChanged,
				Timestamp: time.Now().UTC(),
				Data: ws.SessionStatusChangedData{
					SessionID: sess.ID,
					DisplayID: sess.DisplayID,
					Segment:   segment,
					Status:    "cycled",
				},
			})
		}
	}
}
