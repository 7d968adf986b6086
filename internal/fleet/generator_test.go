package fleet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amorbot/internal/ws"
)

type fakeProvider struct {
	mu        sync.Mutex
	callTimes []time.Time
	prompts   []string
	proxies   []string
	temps     []float64
	reply     string
	failFor   map[string]error // keyed by substring of the prompt
	block     chan struct{}    // when set, calls wait here
}

func (f *fakeProvider) GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error) {
	f.mu.Lock()
	f.callTimes = append(f.callTimes, time.Now())
	f.prompts = append(f.prompts, prompt)
	f.proxies = append(f.proxies, proxyURL)
	f.temps = append(f.temps, temperature)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	for sub, err := range f.failFor {
		if strings.Contains(prompt, sub) {
			return "", err
		}
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "generated text", nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.callTimes)
}

type fakePerms struct {
	perm ProfilePermission
	err  error
}

func (f *fakePerms) FetchProfilePermission(ctx context.Context, displayID string) (ProfilePermission, error) {
	return f.perm, f.err
}

func permissiveGate() *ControlGate {
	return NewControlGate(&fakeControlSource{})
}

func deniedGate(t *testing.T) *ControlGate {
	t.Helper()
	gate := NewControlGate(&fakeControlSource{flags: ControlFlags{
		StopSpam:       true,
		MailingEnabled: true,
		MachineEnabled: true,
	}})
	require.NoError(t, gate.Refresh(context.Background()))
	return gate
}

func newTestGenerator(reg *Registry, gate *ControlGate, provider TextGenerator, perms PermissionSource, rt ws.RealtimePublisher, cfg GeneratorConfig) *Generator {
	if cfg.Credential == "" {
		cfg.Credential = "test-key"
	}
	if cfg.PacingDelay == 0 {
		cfg.PacingDelay = time.Millisecond
	}
	return NewGenerator(reg, gate, provider, perms, rt, cfg)
}

func TestGenerateRequiresCredential(t *testing.T) {
	reg := newTestRegistry(nil)
	gen := NewGenerator(reg, permissiveGate(), &fakeProvider{}, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), "any", ActionNew, "")
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestGenerateDeniedByGate(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	gen := newTestGenerator(reg, deniedGate(t), &fakeProvider{}, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	assert.True(t, errors.Is(err, ErrGateDenied))
}

func TestGenerateDeniedPerProfileCarriesReason(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	perms := &fakePerms{perm: ProfilePermission{AIEnabled: false, Reason: "disabled by administrator"}}
	gen := newTestGenerator(reg, permissiveGate(), &fakeProvider{}, perms, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	require.True(t, errors.Is(err, ErrGateDenied))
	assert.Contains(t, err.Error(), "disabled by administrator")
}

func TestGenerateUnknownSession(t *testing.T) {
	reg := newTestRegistry(nil)
	gen := newTestGenerator(reg, permissiveGate(), &fakeProvider{}, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), "missing", ActionNew, "")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestGenerateSuccessMarksSession(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	provider := &fakeProvider{reply: "  hello there  "}
	perms := &fakePerms{perm: ProfilePermission{AIEnabled: true}}
	gen := newTestGenerator(reg, permissiveGate(), provider, perms, nil, GeneratorConfig{})

	text, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	got, _ := reg.Get(s.ID)
	assert.True(t, got.UsedAI)
	assert.Equal(t, "hello there", got.Draft)
	assert.InDelta(t, 0.7, provider.temps[0], 0.0001)
}

func TestGenerateFailureLeavesSessionUntouched(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	provider := &fakeProvider{failFor: map[string]error{"": errors.New("upstream 500")}}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	require.Error(t, err)

	got, _ := reg.Get(s.ID)
	assert.False(t, got.UsedAI)
	assert.Empty(t, got.Draft)
}

func TestGenerateImproveRequiresText(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	gen := newTestGenerator(reg, permissiveGate(), &fakeProvider{}, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionImprove, "   ")
	assert.True(t, errors.Is(err, ErrEmptyDraft))
}

func TestGenerateTemplateRequiresConfiguredPrompt(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	gen := newTestGenerator(reg, permissiveGate(), &fakeProvider{}, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionTemplate, "text")
	assert.True(t, errors.Is(err, ErrNoPrompt))
}

func TestGenerateTemplateSubstitution(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	provider := &fakeProvider{}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{
		CustomTemplate: "Rework {CURRENT_TEXT} for {SEGMENT}",
	})

	_, err := gen.Generate(context.Background(), s.ID, ActionTemplate, "my draft")
	require.NoError(t, err)
	assert.Equal(t, "Rework my draft for payers", provider.prompts[0])
}

func TestGeneratePassesBandedProxy(t *testing.T) {
	pool := testPool(2)
	reg := NewRegistry(pool, nil, nil, nil)
	s, _ := reg.Add("a", 1, ModeMail)
	provider := &fakeProvider{}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	_, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	require.NoError(t, err)
	assert.Equal(t, pool[0].URL(), provider.proxies[0])
}

func TestGenerateForAllSkipsEmptyDraftOnImprove(t *testing.T) {
	reg := newTestRegistry(nil)
	s1, _ := reg.Add("a", 1, ModeMail)
	reg.Add("b", 1, ModeMail) // no draft
	require.NoError(t, reg.MarkAIUsed(s1.ID, "existing draft"))

	provider := &fakeProvider{}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	report, err := gen.GenerateForAll(context.Background(), ActionImprove)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Requested)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, provider.calls())
}

func TestGenerateForAllContinuesPastFailures(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("alpha", 1, ModeMail)
	reg.Add("beta", 1, ModeMail)
	reg.Add("gamma", 1, ModeMail)

	// fail only the second call of the pass
	provider := &sequenceProvider{failAt: map[int]error{2: errors.New("boom")}}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	report, err := gen.GenerateForAll(context.Background(), ActionNew)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Requested)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
}

type sequenceProvider struct {
	mu     sync.Mutex
	n      int
	times  []time.Time
	failAt map[int]error
}

func (p *sequenceProvider) GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error) {
	p.mu.Lock()
	p.n++
	n := p.n
	p.times = append(p.times, time.Now())
	p.mu.Unlock()

	if err := p.failAt[n]; err != nil {
		return "", err
	}
	return "text", nil
}

func TestGenerateForAllPacesBetweenCalls(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("a", 1, ModeMail)
	reg.Add("b", 1, ModeMail)
	reg.Add("c", 1, ModeMail)

	provider := &sequenceProvider{}
	pacing := 30 * time.Millisecond
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{PacingDelay: pacing})

	_, err := gen.GenerateForAll(context.Background(), ActionNew)
	require.NoError(t, err)

	require.Len(t, provider.times, 3)
	for i := 1; i < len(provider.times); i++ {
		gap := provider.times[i].Sub(provider.times[i-1])
		assert.GreaterOrEqual(t, gap, pacing, "calls must be paced, not fanned out")
	}
}

func TestGenerateForAllUsesBulkTemperature(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("a", 1, ModeMail)

	provider := &fakeProvider{}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	_, err := gen.GenerateForAll(context.Background(), ActionNew)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, provider.temps[0], 0.0001)
}

func TestGenerateForAllRejectsConcurrentRun(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("a", 1, ModeMail)

	block := make(chan struct{})
	provider := &fakeProvider{block: block}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{})

	done := make(chan struct{})
	go func() {
		gen.GenerateForAll(context.Background(), ActionNew)
		close(done)
	}()

	// wait for the first pass to grab the token and enter the provider
	require.Eventually(t, func() bool { return provider.calls() == 1 }, time.Second, time.Millisecond)

	_, err := gen.GenerateForAll(context.Background(), ActionNew)
	assert.True(t, errors.Is(err, ErrBulkInProgress))

	close(block)
	<-done

	// token released, a new pass may start
	_, err = gen.GenerateForAll(context.Background(), ActionNew)
	assert.NoError(t, err)
}

func TestGenerateForAllPublishesCompletionEvent(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("a", 1, ModeMail)

	pub := &fakePublisher{}
	gen := newTestGenerator(reg, permissiveGate(), &fakeProvider{}, nil, pub, GeneratorConfig{})

	_, err := gen.GenerateForAll(context.Background(), ActionNew)
	require.NoError(t, err)

	evt := pub.last()
	assert.Equal(t, ws.EventBulkGenerationDone, evt.Event)
	data, ok := evt.Data.(ws.BulkGenerationDoneData)
	require.True(t, ok)
	assert.Equal(t, 1, data.Succeeded)
}

// hangingProvider never answers; it returns only when the call context
// expires.
type hangingProvider struct{}

func (hangingProvider) GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateTimesOutHangingCall(t *testing.T) {
	reg := newTestRegistry(nil)
	s, _ := reg.Add("a", 1, ModeMail)
	gen := newTestGenerator(reg, permissiveGate(), hangingProvider{}, nil, nil, GeneratorConfig{
		CallTimeout: 50 * time.Millisecond,
	})

	start := time.Now()
	_, err := gen.Generate(context.Background(), s.ID, ActionNew, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second, "timeout must cut the call, not hang")

	got, _ := reg.Get(s.ID)
	assert.False(t, got.UsedAI)
	assert.Empty(t, got.Draft)
}

// hangFirstProvider hangs the first call until its context expires and
// answers every later call normally.
type hangFirstProvider struct {
	mu sync.Mutex
	n  int
}

func (p *hangFirstProvider) GenerateText(ctx context.Context, systemRole, prompt string, temperature float64, proxyURL string) (string, error) {
	p.mu.Lock()
	p.n++
	n := p.n
	p.mu.Unlock()

	if n == 1 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "text", nil
}

func TestGenerateForAllTimedOutCallDoesNotAbortPass(t *testing.T) {
	reg := newTestRegistry(nil)
	s1, _ := reg.Add("a", 1, ModeMail)
	s2, _ := reg.Add("b", 1, ModeMail)

	gen := newTestGenerator(reg, permissiveGate(), &hangFirstProvider{}, nil, nil, GeneratorConfig{
		CallTimeout: 50 * time.Millisecond,
	})

	report, err := gen.GenerateForAll(context.Background(), ActionNew)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)

	first, _ := reg.Get(s1.ID)
	assert.False(t, first.UsedAI, "timed-out session must stay unmarked")
	second, _ := reg.Get(s2.ID)
	assert.True(t, second.UsedAI)
}

func TestGenerateForAllCancelledContext(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Add("a", 1, ModeMail)
	reg.Add("b", 1, ModeMail)

	ctx, cancel := context.WithCancel(context.Background())
	provider := &sequenceProvider{}
	gen := newTestGenerator(reg, permissiveGate(), provider, nil, nil, GeneratorConfig{PacingDelay: time.Hour})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := gen.GenerateForAll(ctx, ActionNew)
	assert.True(t, errors.Is(err, context.Canceled))
}
