package draft

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrSaveInFlight is returned by Save when a previous Save on the same engine
// has not yet settled. Callers refuse the request instead of overlapping two
// save cycles over the same draft state.
var ErrSaveInFlight = errors.New("draft: save already in flight")

// Record is one entity as loaded from the collection source: its identifier
// and the raw attribute tokens the server returned for it.
type Record struct {
	ID     string
	Tokens []string
}

// DispatchFunc persists one entity's edited token set. A nil error marks the
// entity reconciled; any error leaves it dirty for a later retry.
type DispatchFunc func(ctx context.Context, id string, tokens []string) error

// Report aggregates the outcome of one Save call. Per-entity failures are
// collected here rather than returned as errors so a caller can surface one
// message for the whole batch.
type Report struct {
	Attempted int
	Succeeded []string
	Failed    map[string]error
}

// AllSucceeded reports whether no dispatch failed. An empty save (nothing
// dirty) counts as success.
func (r *Report) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// NoOp reports whether the save had nothing to dispatch.
func (r *Report) NoOp() bool {
	return r.Attempted == 0
}

// FailedIDs returns the ids whose dispatch failed, sorted.
func (r *Report) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Engine tracks a baseline and a draft token set per entity for one editing
// view. Baseline holds the last value known to match the server and is
// written only by Seed and by Save's reconciliation step. Draft holds the
// locally edited value and is written only by Seed and Toggle. Dirtiness is
// always derived by comparing the two, never stored.
type Engine struct {
	mu       sync.Mutex
	vocab    Vocabulary
	baseline map[string]TokenSet
	draft    map[string]TokenSet
	saving   bool
	gen      uint64
}

// NewEngine creates an empty engine bound to a fixed token vocabulary.
func NewEngine(vocab Vocabulary) *Engine {
	return &Engine{
		vocab:    vocab,
		baseline: make(map[string]TokenSet),
		draft:    make(map[string]TokenSet),
	}
}

// Seed replaces both maps from a freshly fetched collection. Tokens outside
// the vocabulary are dropped; the returned count says how many. Entities
// absent from records are dropped from both maps, unsaved edits included.
// Seeding never fails: empty input yields empty maps.
func (e *Engine) Seed(records []Record) (discarded int) {
	baseline := make(map[string]TokenSet, len(records))
	draft := make(map[string]TokenSet, len(records))
	for _, rec := range records {
		set, dropped := e.vocab.Normalize(rec.Tokens)
		discarded += dropped
		// Independent copies: Toggle must never reach the baseline set.
		baseline[rec.ID] = set
		draft[rec.ID] = set.Clone()
	}

	e.mu.Lock()
	e.baseline = baseline
	e.draft = draft
	e.gen++
	e.mu.Unlock()
	return discarded
}

// Toggle flips token membership in the entity's draft set: present tokens are
// removed, absent ones added. Unseeded ids are a benign no-op; the caller's
// contract is to toggle only rows it has on screen.
func (e *Engine) Toggle(id, token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.draft[id]
	if !ok {
		return
	}
	if d.Has(token) {
		d.Remove(token)
	} else {
		d.Add(token)
	}
}

// Draft returns a copy of the entity's draft tokens in vocabulary order, and
// whether the id is tracked.
func (e *Engine) Draft(id string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.draft[id]
	if !ok {
		return nil, false
	}
	return e.vocab.Order(d), true
}

// Baseline returns a copy of the entity's baseline tokens in vocabulary
// order, and whether the id is tracked.
func (e *Engine) Baseline(id string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.baseline[id]
	if !ok {
		return nil, false
	}
	return e.vocab.Order(b), true
}

// IsDirty reports whether the entity's draft differs from its baseline.
func (e *Engine) IsDirty(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.draft[id]
	if !ok {
		return false
	}
	b, ok := e.baseline[id]
	return !ok || !d.Equal(b)
}

// Len returns the number of tracked entities.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.draft)
}

// Saving reports whether a Save is currently in flight.
func (e *Engine) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// DirtyIDs returns every id whose draft set differs from its baseline set,
// sorted. It is recomputed from current state on every call.
func (e *Engine) DirtyIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirtyIDsLocked()
}

func (e *Engine) dirtyIDsLocked() []string {
	ids := make([]string, 0)
	for id, d := range e.draft {
		if b, ok := e.baseline[id]; !ok || !d.Equal(b) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Save dispatches every dirty entity concurrently and reconciles per-entity
// outcomes: a successful dispatch advances that entity's baseline to the
// value that was sent; a failed one leaves both maps untouched so the entity
// stays dirty for the next Save. Dispatch errors never propagate as Save's
// error; they are collected in the report. The only error Save returns is
// ErrSaveInFlight when a previous Save has not settled. An empty dirty set
// returns an empty all-succeeded report without calling dispatch.
func (e *Engine) Save(ctx context.Context, dispatch DispatchFunc) (*Report, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	pending := make(map[string]TokenSet)
	for _, id := range e.dirtyIDsLocked() {
		pending[id] = e.draft[id].Clone()
	}
	if len(pending) == 0 {
		e.mu.Unlock()
		return &Report{Failed: map[string]error{}}, nil
	}
	e.saving = true
	startGen := e.gen
	e.mu.Unlock()

	type outcome struct {
		id  string
		err error
	}
	results := make(chan outcome, len(pending))
	var wg sync.WaitGroup
	for id, tokens := range pending {
		wg.Add(1)
		go func(id string, tokens TokenSet) {
			defer wg.Done()
			results <- outcome{id: id, err: dispatch(ctx, id, e.vocab.Order(tokens))}
		}(id, tokens)
	}
	wg.Wait()
	close(results)

	report := &Report{Attempted: len(pending), Failed: make(map[string]error)}
	e.mu.Lock()
	for res := range results {
		if res.err != nil {
			report.Failed[res.id] = res.err
			continue
		}
		report.Succeeded = append(report.Succeeded, res.id)
		// A reseed during the save already replaced both maps atomically;
		// stale outcomes must not write through it.
		if e.gen == startGen {
			e.baseline[res.id] = pending[res.id]
		}
	}
	e.saving = false
	e.mu.Unlock()

	sort.Strings(report.Succeeded)
	return report, nil
}
