package dashboard

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type countingLoader struct {
	mu      sync.Mutex
	calls   int
	records []Record
	err     error
	block   chan struct{}
}

func (l *countingLoader) Load(ctx context.Context, req LoadRequest) ([]Record, error) {
	l.mu.Lock()
	l.calls++
	block := l.block
	l.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return l.records, l.err
}

func (l *countingLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type viewMessage struct {
	level MessageLevel
	text  string
}

type recordingView struct {
	mu        sync.Mutex
	narrow    bool
	active    map[string]bool
	titles    []string
	mounted   map[string]Node
	mounts    []string
	busy      []string
	messages  []viewMessage
	sidebar   []bool
	overlay   []bool
	indicator string
	priced    []string
}

func newRecordingView() *recordingView {
	return &recordingView{active: map[string]bool{}, mounted: map[string]Node{}}
}

func (v *recordingView) SetActive(id string, active bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active[id] = active
}

func (v *recordingView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.titles = append(v.titles, title)
}

func (v *recordingView) SetSidebarOpen(open bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sidebar = append(v.sidebar, open)
}

func (v *recordingView) IsNarrow() bool { return v.narrow }

func (v *recordingView) Mount(id string, content Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted[id] = content
	v.mounts = append(v.mounts, id)
}

func (v *recordingView) ShowBusy(control string, busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := "off"
	if busy {
		state = "on"
	}
	v.busy = append(v.busy, control+":"+state)
}

func (v *recordingView) ShowOverlay(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overlay = append(v.overlay, visible)
}

func (v *recordingView) ShowMessage(level MessageLevel, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, viewMessage{level: level, text: text})
}

func (v *recordingView) ShowCurrencyIndicator(currency string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.indicator = currency
}

func (v *recordingView) PricesUpdated(id string, _ Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.priced = append(v.priced, id)
}

func (v *recordingView) mountCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.mounts)
}

func (v *recordingView) pricedIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.priced...)
}

func (v *recordingView) lastMessage() (viewMessage, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.messages) == 0 {
		return viewMessage{}, false
	}
	return v.messages[len(v.messages)-1], true
}

func (v *recordingView) activeIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var ids []string
	for id, on := range v.active {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

type scriptedPrompter struct {
	answer   bool
	err      error
	messages []string
}

func (p *scriptedPrompter) Confirm(_ context.Context, message string) (bool, error) {
	p.messages = append(p.messages, message)
	return p.answer, p.err
}

type recordingRedirector struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingRedirector) Redirect(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (t *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, recordedEvent{name: event, payload: payload})
}

func (t *recordingTelemetry) count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events {
		if e.name == name {
			n++
		}
	}
	return n
}

type fakeConverter struct {
	mu    sync.Mutex
	calls [][]ConversionPair
	err   error
	// format renders a converted pair; defaults to "<target> <amount*2>".
	format func(target string, pair ConversionPair) string
}

func (c *fakeConverter) ConvertBatch(_ context.Context, _ string, target string, pairs []ConversionPair) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]ConversionPair(nil), pairs...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([]string, len(pairs))
	for i, pair := range pairs {
		if c.format != nil {
			out[i] = c.format(target, pair)
			continue
		}
		out[i] = target + " " + pair.Amount.Mul(decimal.NewFromInt(2)).StringFixed(2)
	}
	return out, nil
}

func (c *fakeConverter) Calls() [][]ConversionPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeMutator struct {
	mu        sync.Mutex
	mutations []Mutation
	result    MutationResult
	err       error
	onMutate  func(m Mutation)
}

func (m *fakeMutator) Mutate(_ context.Context, _ string, mutation Mutation) (MutationResult, error) {
	m.mu.Lock()
	m.mutations = append(m.mutations, mutation)
	hook := m.onMutate
	m.mu.Unlock()
	if hook != nil {
		hook(mutation)
	}
	return m.result, m.err
}

func (m *fakeMutator) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mutations)
}
