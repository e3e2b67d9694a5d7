package reconcile

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-insights/internal/domain/entities"
)

// Ledger is the in-memory registry of workstreams for a run. It hands out
// per-workstream locks so batches apply one at a time per workstream while
// other workstreams proceed.
type Ledger struct {
	mu          sync.Mutex
	workstreams map[string]*entities.Workstream // keyed by lowercased name
	locks       map[string]*sync.Mutex
}

// NewLedger builds a ledger from previously persisted workstreams
func NewLedger(existing []*entities.Workstream) *Ledger {
	l := &Ledger{
		workstreams: make(map[string]*entities.Workstream),
		locks:       make(map[string]*sync.Mutex),
	}
	for _, ws := range existing {
		key := strings.ToLower(ws.Name)
		l.workstreams[key] = ws
		l.locks[key] = &sync.Mutex{}
	}
	return l
}

// Labels returns a snapshot of the known workstream labels and aliases
func (l *Ledger) Labels() []*entities.Workstream {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*entities.Workstream, 0, len(l.workstreams))
	for _, ws := range l.workstreams {
		copied := &entities.Workstream{Name: ws.Name}
		copied.Aliases = append(copied.Aliases, ws.Aliases...)
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve maps a label to the canonical name of an existing workstream,
// case-insensitively and alias-aware
func (l *Ledger) Resolve(label string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(label))
	if ws, ok := l.workstreams[key]; ok {
		return ws.Name, true
	}
	for _, ws := range l.workstreams {
		if ws.MatchesLabel(label) {
			return ws.Name, true
		}
	}
	return "", false
}

// Ensure returns the canonical name for the label, creating a new workstream
// on first encounter of a novel label
func (l *Ledger) Ensure(label string) (string, bool) {
	label = strings.TrimSpace(label)

	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(label)
	if ws, ok := l.workstreams[key]; ok {
		return ws.Name, false
	}
	for _, ws := range l.workstreams {
		if ws.MatchesLabel(label) {
			return ws.Name, false
		}
	}

	ws := entities.NewWorkstream(label)
	l.workstreams[key] = ws
	l.locks[key] = &sync.Mutex{}
	return ws.Name, true
}

// AddAlias records a label variant against an existing workstream
func (l *Ledger) AddAlias(canonical, alias string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ws, ok := l.workstreams[strings.ToLower(canonical)]; ok {
		ws.AddAlias(alias)
	}
}

// Snapshot returns all workstreams sorted by name, for persistence and
// aggregation. Callers must not mutate outside a held batch lock.
func (l *Ledger) Snapshot() []*entities.Workstream {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*entities.Workstream, 0, len(l.workstreams))
	for _, ws := range l.workstreams {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// get returns the workstream and its lock, creating neither
func (l *Ledger) get(name string) (*entities.Workstream, *sync.Mutex) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(name)
	return l.workstreams[key], l.locks[key]
}

// touch advances the workstream's bookkeeping timestamp
func (l *Ledger) touch(ws *entities.Workstream) {
	ws.UpdatedAt = time.Now()
}
