package fleet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"amorbot/internal/ws"
)

// GenerateAction selects which prompt the generator builds.
type GenerateAction string

const (
	ActionImprove  GenerateAction = "rewrite-improve"
	ActionNew      GenerateAction = "generate-new"
	ActionTemplate GenerateAction = "custom-template"
)

var (
	ErrNoCredential   = errors.New("generation credential not configured")
	ErrGateDenied     = errors.New("action denied by control gate")
	ErrNoPrompt       = errors.New("no prompt template configured")
	ErrEmptyDraft     = errors.New("no current text to improve")
	ErrBulkInProgress = errors.New("bulk generation already running")
)

// TextGenerator is the generation capability. proxyURL may be empty for
// direct egress.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error)
}

// PermissionSource answers the per-profile AI permission query of the remote
// authority, used to gate single-session generation.
type PermissionSource interface {
	FetchProfilePermission(ctx context.Context, displayID string) (ProfilePermission, error)
}

// GeneratorConfig carries the knobs the generator needs; filled from config
// in main, passed explicitly so tests can drive it.
type GeneratorConfig struct {
	Credential        string
	CustomTemplate    string
	SingleTemperature float64       // default 0.7
	BulkTemperature   float64       // default 0.9, keeps fan-out texts from converging
	PacingDelay       time.Duration // between bulk calls, default 300ms
	CallTimeout       time.Duration // per generation call, default 45s
}

func (c *GeneratorConfig) applyDefaults() {
	if c.SingleTemperature == 0 {
		c.SingleTemperature = 0.7
	}
	if c.BulkTemperature == 0 {
		c.BulkTemperature = 0.9
	}
	if c.PacingDelay == 0 {
		c.PacingDelay = 300 * time.Millisecond
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = 45 * time.Second
	}
}

// BulkReport aggregates one fan-out pass.
type BulkReport struct {
	Action    GenerateAction `json:"action"`
	Requested int            `json:"requested"`
	Skipped   int            `json:"skipped"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// Generator serializes AI-generation calls. Single-mode calls for different
// sessions may run concurrently; the bulk fan-out is strictly sequential and
// only one fan-out may run at a time.
type Generator struct {
	registry *Registry
	gate     *ControlGate
	provider TextGenerator
	perms    PermissionSource
	rt       ws.RealtimePublisher
	cfg      GeneratorConfig

	bulk chan struct{} // size-1 token guarding the fan-out
}

func NewGenerator(registry *Registry, gate *ControlGate, provider TextGenerator, perms PermissionSource, rt ws.RealtimePublisher, cfg GeneratorConfig) *Generator {
	cfg.applyDefaults()
	return &Generator{
		registry: registry,
		gate:     gate,
		provider: provider,
		perms:    perms,
		rt:       rt,
		cfg:      cfg,
		bulk:     make(chan struct{}, 1),
	}
}

// Generate issues exactly one generation call for the session. On success
// the session's usedAi flag is set and the draft stored; on failure the
// session is left untouched.
func (g *Generator) Generate(ctx context.Context, sessionID string, action GenerateAction, currentText string) (string, error) {
	if err := g.precheck(); err != nil {
		return "", err
	}

	sess, err := g.registry.Get(sessionID)
	if err != nil {
		return "", err
	}

	// Per-profile permission from the remote authority. A refusal is a
	// normal negative result, reported with the authority's reason
	// ("disabled by administrator", "no owner assigned", ...).
	if g.perms != nil {
		perm, err := g.perms.FetchProfilePermission(ctx, sess.DisplayID)
		if err != nil {
			return "", fmt.Errorf("profile permission check: %w", err)
		}
		if !perm.AIEnabled {
			reason := perm.Reason
			if reason == "" {
				reason = "ai disabled for this profile"
			}
			return "", fmt.Errorf("%w: %s", ErrGateDenied, reason)
		}
	}

	text, err := g.generateOne(ctx, sess, action, currentText, g.cfg.SingleTemperature)
	if err != nil {
		return "", err
	}

	if err := g.registry.MarkAIUsed(sessionID, text); err != nil {
		return "", err
	}
	return text, nil
}

// GenerateForAll runs one generation call per registered session, strictly
// sequentially over a snapshot taken at the start, with PacingDelay between
// calls regardless of outcome. Per-session failures are logged and do not
// abort the pass.
func (g *Generator) GenerateForAll(ctx context.Context, action GenerateAction) (BulkReport, error) {
	report := BulkReport{Action: action}

	if err := g.precheck(); err != nil {
		return report, err
	}

	select {
	case g.bulk <- struct{}{}:
		defer func() { <-g.bulk }()
	default:
		return report, ErrBulkInProgress
	}

	ids := g.registry.SnapshotIDs()
	report.Requested = len(ids)

	for i, id := range ids {
		// Pacing between calls; backpressure against the rate-limited
		// downstream, not an oversight.
		if i > 0 {
			select {
			case <-time.After(g.cfg.PacingDelay):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}

		sess, err := g.registry.Get(id)
		if err != nil {
			// removed mid-pass, skip
			report.Skipped++
			continue
		}

		if action == ActionImprove && strings.TrimSpace(sess.Draft) == "" {
			report.Skipped++
			continue
		}

		text, err := g.generateOne(ctx, sess, action, sess.Draft, g.cfg.BulkTemperature)
		if err != nil {
			report.Failed++
			log.Printf("[AI] bulk %s failed for session %s: %v", action, sess.DisplayID, err)
			continue
		}

		if err := g.registry.MarkAIUsed(id, text); err != nil {
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	log.Printf("[AI] bulk %s done: %d ok, %d failed, %d skipped of %d",
		action, report.Succeeded, report.Failed, report.Skipped, report.Requested)

	if g.rt != nil {
		g.rt.Publish(ws.WsEvent{
			Event:     ws.EventBulkGenerationDone,
			Timestamp: time.Now().UTC(),
			Data: ws.BulkGenerationDoneData{
				Action:    string(action),
				Requested: report.Requested,
				Skipped:   report.Skipped,
				Succeeded: report.Succeeded,
				Failed:    report.Failed,
			},
		})
	}

	return report, nil
}

// precheck fails fast before any network call: credential present and the
// fleet-wide gate open.
func (g *Generator) precheck() error {
	if g.cfg.Credential == "" {
		return ErrNoCredential
	}
	if !g.gate.CanAct(ActionGenerate) {
		return ErrGateDenied
	}
	return nil
}

func (g *Generator) generateOne(ctx context.Context, sess Session, action GenerateAction, currentText string, temperature float64) (string, error) {
	systemRole, prompt, err := g.buildPrompt(sess, action, currentText)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	proxyURL := g.registry.ProxyFor(sess.ID).URL()

	text, err := g.provider.GenerateText(callCtx, systemRole, prompt, temperature, proxyURL)
	if err != nil {
		return "", fmt.Errorf("generation call: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) buildPrompt(sess Session, action GenerateAction, currentText string) (systemRole, prompt string, err error) {
	systemRole = "You write warm, personal outbound messages for a dating profile. " +
		"Stay in character, keep it short, never mention being an assistant."

	switch action {
	case ActionImprove:
		if strings.TrimSpace(currentText) == "" {
			return "", "", ErrEmptyDraft
		}
		prompt = "Rewrite and improve the following message, keeping its meaning and tone:\n\n" + currentText
	case ActionNew:
		prompt = fmt.Sprintf("Write a fresh opening message for the %q audience. Mode: %s.", sess.Segment, sess.Mode)
	case ActionTemplate:
		if strings.TrimSpace(g.cfg.CustomTemplate) == "" {
			return "", "", ErrNoPrompt
		}
		prompt = strings.ReplaceAll(g.cfg.CustomTemplate, "{CURRENT_TEXT}", currentText)
		prompt = strings.ReplaceAll(prompt, "{SEGMENT}", sess.Segment)
	default:
		return "", "", fmt.Errorf("unknown generate action %q", action)
	}

	return systemRole, prompt, nil
}
