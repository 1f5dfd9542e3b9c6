package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testVocab = NewVocabulary("mon", "tue", "wed", "thu", "fri", "sat", "sun")

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSeedIsIdempotent(t *testing.T) {
	e := NewEngine(testVocab)
	records := []Record{
		{ID: "1", Tokens: []string{"mon", "wed"}},
		{ID: "2", Tokens: []string{}},
	}

	for i := 0; i < 2; i++ {
		e.Seed(records)
		if dirty := e.DirtyIDs(); len(dirty) != 0 {
			t.Fatalf("seed %d: expected no dirty ids, got %v", i+1, dirty)
		}
		d, ok := e.Draft("1")
		if !ok || !equalStrings(d, []string{"mon", "wed"}) {
			t.Fatalf("seed %d: unexpected draft for 1: %v ok=%v", i+1, d, ok)
		}
		b, ok := e.Baseline("1")
		if !ok || !equalStrings(b, []string{"mon", "wed"}) {
			t.Fatalf("seed %d: unexpected baseline for 1: %v ok=%v", i+1, b, ok)
		}
	}
}

func TestToggleTwiceRestoresDraft(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{"mon", "fri"}}})

	before, _ := e.Draft("1")
	e.Toggle("1", "tue")
	e.Toggle("1", "tue")
	after, _ := e.Draft("1")

	if !equalStrings(before, after) {
		t.Errorf("double toggle changed draft: before=%v after=%v", before, after)
	}
	if e.IsDirty("1") {
		t.Error("entity dirty after symmetric toggles")
	}

	// Same symmetry when the token starts present.
	e.Toggle("1", "mon")
	e.Toggle("1", "mon")
	restored, _ := e.Draft("1")
	if !equalStrings(before, restored) {
		t.Errorf("double toggle of existing token changed draft: %v", restored)
	}
}

func TestDraftRendersInVocabularyOrder(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{"wed", "mon"}}})
	e.Toggle("1", "fri")

	d, _ := e.Draft("1")
	if !equalStrings(d, []string{"mon", "wed", "fri"}) {
		t.Errorf("draft not in weekday order: %v", d)
	}

	var dispatched []string
	if _, err := e.Save(context.Background(), func(_ context.Context, _ string, tokens []string) error {
		dispatched = tokens
		return nil
	}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if !equalStrings(dispatched, []string{"mon", "wed", "fri"}) {
		t.Errorf("dispatch not in weekday order: %v", dispatched)
	}
	b, _ := e.Baseline("1")
	if !equalStrings(b, []string{"mon", "wed", "fri"}) {
		t.Errorf("baseline not in weekday order: %v", b)
	}
}

func TestDirtyDetectionIgnoresTokenOrder(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{"mon", "tue"}}})

	// Rebuild the same membership in reverse insertion order.
	e.Toggle("1", "mon")
	e.Toggle("1", "tue")
	e.Toggle("1", "tue")
	e.Toggle("1", "mon")

	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("expected no dirty ids for same membership, got %v", dirty)
	}
}

func TestSaveReconcilesOnlySuccessfulIDs(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "a", Tokens: []string{"mon"}},
		{ID: "b", Tokens: []string{"tue"}},
		{ID: "c", Tokens: []string{"wed"}},
	})
	e.Toggle("b", "fri")
	e.Toggle("c", "sat")

	report, err := e.Save(context.Background(), func(_ context.Context, id string, _ []string) error {
		if id == "c" {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if report.Attempted != 2 {
		t.Errorf("expected 2 attempted, got %d", report.Attempted)
	}
	if report.AllSucceeded() {
		t.Error("report claims success despite a failed dispatch")
	}
	if !equalStrings(report.Succeeded, []string{"b"}) {
		t.Errorf("unexpected succeeded set: %v", report.Succeeded)
	}
	if !equalStrings(report.FailedIDs(), []string{"c"}) {
		t.Errorf("unexpected failed set: %v", report.FailedIDs())
	}

	// a untouched and clean.
	if e.IsDirty("a") {
		t.Error("untouched entity became dirty")
	}
	// b reconciled: baseline caught up with draft.
	bBase, _ := e.Baseline("b")
	if !equalStrings(bBase, []string{"tue", "fri"}) {
		t.Errorf("baseline for b not reconciled: %v", bBase)
	}
	if e.IsDirty("b") {
		t.Error("successfully saved entity still dirty")
	}
	// c untouched by the failure: draft keeps the edit, baseline keeps the
	// original, still dirty for retry.
	cDraft, _ := e.Draft("c")
	if !equalStrings(cDraft, []string{"wed", "sat"}) {
		t.Errorf("failed entity lost its edit: %v", cDraft)
	}
	cBase, _ := e.Baseline("c")
	if !equalStrings(cBase, []string{"wed"}) {
		t.Errorf("failed entity's baseline moved: %v", cBase)
	}
	if !equalStrings(e.DirtyIDs(), []string{"c"}) {
		t.Errorf("expected only c dirty, got %v", e.DirtyIDs())
	}
}

func TestSaveSkipsDispatchWhenNothingDirty(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{"mon"}}})

	calls := 0
	report, err := e.Save(context.Background(), func(context.Context, string, []string) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if calls != 0 {
		t.Errorf("dispatch invoked %d times for an empty dirty set", calls)
	}
	if !report.NoOp() || !report.AllSucceeded() {
		t.Errorf("expected no-op success report, got %+v", report)
	}
}

func TestSaveAllSucceededScenario(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "1", Tokens: []string{"mon"}},
		{ID: "2", Tokens: []string{}},
	})
	e.Toggle("2", "tue")

	if dirty := e.DirtyIDs(); !equalStrings(dirty, []string{"2"}) {
		t.Fatalf("expected dirty ids [2], got %v", dirty)
	}

	var dispatched []string
	var mu sync.Mutex
	report, err := e.Save(context.Background(), func(_ context.Context, id string, tokens []string) error {
		mu.Lock()
		dispatched = append(dispatched, fmt.Sprintf("%s=%v", id, tokens))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if !report.AllSucceeded() || report.Attempted != 1 {
		t.Errorf("expected all-succeeded report for one id, got %+v", report)
	}
	if len(dispatched) != 1 || dispatched[0] != "2=[tue]" {
		t.Errorf("unexpected dispatches: %v", dispatched)
	}
	base, _ := e.Baseline("2")
	if !equalStrings(base, []string{"tue"}) {
		t.Errorf("baseline for 2 not advanced: %v", base)
	}
	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("expected no dirty ids after full success, got %v", dirty)
	}
}

func TestSaveRejectionKeepsEditScenario(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "1", Tokens: []string{"mon"}},
		{ID: "2", Tokens: []string{}},
	})
	e.Toggle("2", "tue")

	report, err := e.Save(context.Background(), func(_ context.Context, id string, _ []string) error {
		return fmt.Errorf("update %s failed", id)
	})
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if report.AllSucceeded() {
		t.Error("report claims success despite rejection")
	}
	if dirty := e.DirtyIDs(); !equalStrings(dirty, []string{"2"}) {
		t.Errorf("expected 2 still dirty, got %v", dirty)
	}
	d, _ := e.Draft("2")
	if !equalStrings(d, []string{"tue"}) {
		t.Errorf("draft edit lost on rejection: %v", d)
	}
	b, _ := e.Baseline("2")
	if !equalStrings(b, []string{}) {
		t.Errorf("baseline moved on rejection: %v", b)
	}
}

func TestSeedDropsUnknownTokens(t *testing.T) {
	e := NewEngine(testVocab)
	discarded := e.Seed([]Record{
		{ID: "1", Tokens: []string{"mon", "noday", "tue", "XYZ"}},
	})

	if discarded != 2 {
		t.Errorf("expected 2 discarded tokens, got %d", discarded)
	}
	d, _ := e.Draft("1")
	if !equalStrings(d, []string{"mon", "tue"}) {
		t.Errorf("unexpected normalized draft: %v", d)
	}
	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("normalization made entities dirty: %v", dirty)
	}
}

func TestReseedDropsAbsentEntities(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "1", Tokens: []string{"mon"}},
		{ID: "2", Tokens: []string{"tue"}},
	})
	e.Toggle("2", "wed") // unsaved edit, about to be discarded

	e.Seed([]Record{{ID: "1", Tokens: []string{"mon"}}})

	if _, ok := e.Draft("2"); ok {
		t.Error("orphan entity retained in draft after reseed")
	}
	if _, ok := e.Baseline("2"); ok {
		t.Error("orphan entity retained in baseline after reseed")
	}
	if e.Len() != 1 {
		t.Errorf("expected 1 tracked entity, got %d", e.Len())
	}
	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("reseed left dirty state: %v", dirty)
	}
}

func TestToggleUnseededIDIsNoOp(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{"mon"}}})

	e.Toggle("ghost", "mon")

	if _, ok := e.Draft("ghost"); ok {
		t.Error("toggle created an entry for an unseeded id")
	}
	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("toggle on unseeded id produced dirty state: %v", dirty)
	}
}

func TestSaveRefusedWhileInFlight(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{}}})
	e.Toggle("1", "mon")

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := e.Save(context.Background(), func(context.Context, string, []string) error {
			close(started)
			<-release
			return nil
		})
		if err != nil {
			t.Errorf("first save failed: %v", err)
		}
	}()

	<-started
	if !e.Saving() {
		t.Error("engine does not report in-flight save")
	}
	if _, err := e.Save(context.Background(), func(context.Context, string, []string) error { return nil }); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("expected ErrSaveInFlight, got %v", err)
	}

	close(release)
	<-done

	if e.Saving() {
		t.Error("engine still reports saving after settlement")
	}
	// The guard lifts once the first save settles.
	if _, err := e.Save(context.Background(), func(context.Context, string, []string) error { return nil }); err != nil {
		t.Errorf("save after settlement failed: %v", err)
	}
}

func TestSaveDispatchesConcurrently(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "1", Tokens: []string{}},
		{ID: "2", Tokens: []string{}},
		{ID: "3", Tokens: []string{}},
	})
	e.Toggle("1", "mon")
	e.Toggle("2", "tue")
	e.Toggle("3", "wed")

	// Every dispatch blocks until all three have started. Serialized
	// dispatch would deadlock here and trip the timeout.
	var barrier sync.WaitGroup
	barrier.Add(3)
	done := make(chan *Report, 1)
	go func() {
		report, _ := e.Save(context.Background(), func(context.Context, string, []string) error {
			barrier.Done()
			barrier.Wait()
			return nil
		})
		done <- report
	}()

	select {
	case report := <-done:
		if !report.AllSucceeded() || report.Attempted != 3 {
			t.Errorf("unexpected report: %+v", report)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("save did not settle; dispatches are not concurrent")
	}
}

func TestReseedDuringSaveWins(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{{ID: "1", Tokens: []string{}}})
	e.Toggle("1", "mon")

	fresh := []Record{{ID: "1", Tokens: []string{"sun"}}}
	report, err := e.Save(context.Background(), func(context.Context, string, []string) error {
		// A refresh lands while the save is still out.
		e.Seed(fresh)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if !report.AllSucceeded() {
		t.Errorf("dispatch succeeded but report disagrees: %+v", report)
	}

	// The reseed replaced both maps; the stale outcome must not override it.
	b, _ := e.Baseline("1")
	if !equalStrings(b, []string{"sun"}) {
		t.Errorf("stale save overwrote reseeded baseline: %v", b)
	}
	d, _ := e.Draft("1")
	if !equalStrings(d, []string{"sun"}) {
		t.Errorf("stale save disturbed reseeded draft: %v", d)
	}
	if dirty := e.DirtyIDs(); len(dirty) != 0 {
		t.Errorf("reseeded engine reports dirty ids: %v", dirty)
	}
}

func TestDirtyIDsRecomputedEachCall(t *testing.T) {
	e := NewEngine(testVocab)
	e.Seed([]Record{
		{ID: "1", Tokens: []string{"mon"}},
		{ID: "2", Tokens: []string{"tue"}},
	})

	e.Toggle("1", "fri")
	e.Toggle("2", "fri")
	if dirty := e.DirtyIDs(); !equalStrings(dirty, []string{"1", "2"}) {
		t.Fatalf("expected both dirty, got %v", dirty)
	}

	// Undo one edit; the derived set must shrink accordingly.
	e.Toggle("1", "fri")
	if dirty := e.DirtyIDs(); !equalStrings(dirty, []string{"2"}) {
		t.Errorf("expected only 2 dirty after undo, got %v", dirty)
	}
}
