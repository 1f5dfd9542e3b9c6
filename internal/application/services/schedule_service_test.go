package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
)

type scheduleHarness struct {
	*testEnv
	service *ScheduleService
}

func newScheduleHarness(t *testing.T) *scheduleHarness {
	t.Helper()
	env := newTestEnv(t)
	return &scheduleHarness{
		testEnv: env,
		service: NewScheduleService(env.logger, performance.NewTracker(nil), env.events),
	}
}

func (h *scheduleHarness) storeSpecial(t *testing.T, id string, created time.Time, days ...string) {
	t.Helper()
	special := &catalog.SpecialNode{
		ID:       id,
		Title:    "Special " + id,
		NodeType: "Special",
		Slug:     id,
		Active:   true,
		Days:     days,
		Created:  created,
	}
	if err := h.tenantCtx.SpecialRepo().Store(h.tenantCtx.TenantID, special); err != nil {
		t.Fatalf("store special %s: %v", id, err)
	}
}

// seedThree loads the standard fixture: soup on mon+wed, fish on fri, ribs
// unscheduled. Created timestamps are staggered so page order is stable.
func (h *scheduleHarness) seedThree(t *testing.T) {
	t.Helper()
	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	h.storeSpecial(t, "sp-soup", base, "mon", "wed")
	h.storeSpecial(t, "sp-fish", base.Add(time.Minute), "fri")
	h.storeSpecial(t, "sp-ribs", base.Add(2*time.Minute))
}

func (h *scheduleHarness) open(t *testing.T) *ScheduleSessionView {
	t.Helper()
	view, err := h.service.OpenSession(h.tenantCtx, repositories.SpecialQuery{})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return view
}

func (h *scheduleHarness) toggle(t *testing.T, sessionID, specialID, day string) *ScheduleToggleResult {
	t.Helper()
	res, err := h.service.Toggle(h.tenantCtx, sessionID, specialID, day)
	if err != nil {
		t.Fatalf("toggle %s %s: %v", specialID, day, err)
	}
	return res
}

// storedDays reads the persisted weekday set straight from the table,
// bypassing the repository cache.
func (h *scheduleHarness) storedDays(t *testing.T, id string) []string {
	t.Helper()
	var raw string
	if err := h.db.QueryRow(`SELECT days FROM specials WHERE id = ?`, id).Scan(&raw); err != nil {
		t.Fatalf("read days for %s: %v", id, err)
	}
	var days []string
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		t.Fatalf("decode days %q: %v", raw, err)
	}
	return days
}

func rowByID(t *testing.T, view *ScheduleSessionView, id string) ScheduleRow {
	t.Helper()
	for _, row := range view.Items {
		if row.ID == id {
			return row
		}
	}
	t.Fatalf("row %s not in view", id)
	return ScheduleRow{}
}

func sameStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestOpenSessionSeedsCleanRows(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	// Stale codes in stored data must not survive seeding.
	h.storeSpecial(t, "sp-stale", time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC), "sun", "xmas", "mon")

	view := h.open(t)

	if view.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if view.Total != 4 || len(view.Items) != 4 {
		t.Fatalf("expected 4 rows, got total=%d items=%d", view.Total, len(view.Items))
	}
	if view.Page != 1 || view.Pages != 1 {
		t.Fatalf("unexpected paging: page=%d pages=%d", view.Page, view.Pages)
	}
	for _, row := range view.Items {
		if row.Dirty {
			t.Fatalf("row %s dirty straight after seeding", row.ID)
		}
	}
	if got := rowByID(t, view, "sp-stale").Days; !sameStrings(got, []string{"mon", "sun"}) {
		t.Fatalf("expected stale code dropped and days normalized, got %v", got)
	}
	if got := rowByID(t, view, "sp-ribs").Days; len(got) != 0 {
		t.Fatalf("expected no days for sp-ribs, got %v", got)
	}
}

func TestToggleFlipsDraftOnly(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	res := h.toggle(t, view.SessionID, "sp-soup", "fri")
	if !res.Dirty {
		t.Fatal("expected row dirty after toggle")
	}
	if !sameStrings(res.Days, []string{"mon", "wed", "fri"}) {
		t.Fatalf("unexpected draft days: %v", res.Days)
	}
	// The stored value is untouched until a save.
	if got := h.storedDays(t, "sp-soup"); !sameStrings(got, []string{"mon", "wed"}) {
		t.Fatalf("toggle leaked into storage: %v", got)
	}

	res = h.toggle(t, view.SessionID, "sp-soup", "fri")
	if res.Dirty {
		t.Fatal("expected row clean after toggling back")
	}
	if !sameStrings(res.Days, []string{"mon", "wed"}) {
		t.Fatalf("unexpected draft days after round trip: %v", res.Days)
	}
}

func TestToggleRejectsUnknownDay(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	if _, err := h.service.Toggle(h.tenantCtx, view.SessionID, "sp-soup", "someday"); err == nil {
		t.Fatal("expected an error for an unknown day code")
	}
	if res := h.toggle(t, view.SessionID, "sp-soup", "mon"); !res.Dirty {
		t.Fatal("session should still accept valid toggles")
	}
}

func TestToggleOutsideSessionIsInert(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	res := h.toggle(t, view.SessionID, "ghost", "mon")
	if res.Dirty || len(res.Days) != 0 {
		t.Fatalf("expected inert result for unseeded id, got %+v", res)
	}

	// The phantom row must not surface in a save either.
	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.NoOp {
		t.Fatalf("expected no-op save, got %+v", result)
	}
}

func TestSessionLookupFailures(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)

	if _, err := h.service.Toggle(h.tenantCtx, "missing", "sp-soup", "mon"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("toggle: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := h.service.Save(context.Background(), h.tenantCtx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("save: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := h.service.Refresh(h.tenantCtx, "missing", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("refresh: expected ErrSessionNotFound, got %v", err)
	}
	if n := len(h.events.saveReports()); n != 0 {
		t.Fatalf("failed lookups must not emit save reports, got %d", n)
	}
}

func TestSaveNothingDirtyShortCircuits(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.NoOp || result.Attempted != 0 || !result.AllSucceeded {
		t.Fatalf("expected a no-op save, got %+v", result)
	}

	reports := h.events.saveReports()
	if len(reports) != 1 {
		t.Fatalf("expected exactly one save report, got %d", len(reports))
	}
	if reports[0].Status != "noop" || reports[0].SessionID != view.SessionID {
		t.Fatalf("unexpected report: %+v", reports[0])
	}
}

func TestSavePersistsDirtyRows(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	h.toggle(t, view.SessionID, "sp-soup", "fri")
	h.toggle(t, view.SessionID, "sp-ribs", "sat")

	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.Attempted != 2 || !result.AllSucceeded || result.NoOp {
		t.Fatalf("unexpected result: %+v", result)
	}
	succeeded := append([]string(nil), result.Succeeded...)
	sort.Strings(succeeded)
	if !sameStrings(succeeded, []string{"sp-ribs", "sp-soup"}) {
		t.Fatalf("unexpected succeeded ids: %v", result.Succeeded)
	}

	if got := h.storedDays(t, "sp-soup"); !sameStrings(got, []string{"mon", "wed", "fri"}) {
		t.Fatalf("sp-soup days not persisted: %v", got)
	}
	if got := h.storedDays(t, "sp-ribs"); !sameStrings(got, []string{"sat"}) {
		t.Fatalf("sp-ribs days not persisted: %v", got)
	}

	// The baseline advanced, so an immediate second save has nothing to do.
	result, err = h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if !result.NoOp {
		t.Fatalf("expected follow-up save to be a no-op, got %+v", result)
	}

	reports := h.events.saveReports()
	if len(reports) != 2 {
		t.Fatalf("expected one report per save call, got %d", len(reports))
	}
	if reports[0].Status != "success" || reports[0].Attempted != 2 || reports[0].Succeeded != 2 {
		t.Fatalf("unexpected first report: %+v", reports[0])
	}
	if reports[1].Status != "noop" {
		t.Fatalf("unexpected second report: %+v", reports[1])
	}
}

func TestSavePartialFailureKeepsRowDirty(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	h.toggle(t, view.SessionID, "sp-soup", "fri")
	h.toggle(t, view.SessionID, "sp-fish", "sun")

	// The row vanishes under the open session, so its write must fail.
	if _, err := h.db.Exec(`DELETE FROM specials WHERE id = ?`, "sp-fish"); err != nil {
		t.Fatalf("delete sp-fish: %v", err)
	}

	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.AllSucceeded || result.NoOp || result.Attempted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !sameStrings(result.Succeeded, []string{"sp-soup"}) {
		t.Fatalf("unexpected succeeded ids: %v", result.Succeeded)
	}
	if _, ok := result.Failed["sp-fish"]; !ok {
		t.Fatalf("expected sp-fish among failures, got %v", result.Failed)
	}

	reports := h.events.saveReports()
	if len(reports) != 1 || reports[0].Status != "partial" {
		t.Fatalf("expected a single partial report, got %+v", reports)
	}
	if !sameStrings(reports[0].FailedIDs, []string{"sp-fish"}) {
		t.Fatalf("unexpected failed ids in report: %v", reports[0].FailedIDs)
	}

	// The successful row advanced, the failed one stayed dirty: a retry
	// dispatches it again, alone.
	result, err = h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if result.Attempted != 1 || len(result.Failed) != 1 {
		t.Fatalf("expected only the failed row to retry, got %+v", result)
	}
}

func TestRefreshDiscardsEdits(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	h.toggle(t, view.SessionID, "sp-soup", "fri")

	refreshed, err := h.service.Refresh(h.tenantCtx, view.SessionID, nil)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.SessionID != view.SessionID {
		t.Fatal("refresh must keep the session id")
	}
	row := rowByID(t, refreshed, "sp-soup")
	if row.Dirty || !sameStrings(row.Days, []string{"mon", "wed"}) {
		t.Fatalf("expected edits discarded, got %+v", row)
	}

	// The engine forgot the edit for the next save too.
	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.NoOp {
		t.Fatalf("expected nothing dirty after refresh, got %+v", result)
	}
}

func TestRefreshRepages(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	narrow := &repositories.SpecialQuery{PageQuery: repositories.PageQuery{Page: 1, Limit: 1}}
	refreshed, err := h.service.Refresh(h.tenantCtx, view.SessionID, narrow)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(refreshed.Items) != 1 || refreshed.Total != 3 || refreshed.Pages != 3 {
		t.Fatalf("unexpected paging after refresh: items=%d total=%d pages=%d",
			len(refreshed.Items), refreshed.Total, refreshed.Pages)
	}
}

func TestReseedOpenSessionsAfterDelete(t *testing.T) {
	h := newScheduleHarness(t)
	h.seedThree(t)
	view := h.open(t)

	h.toggle(t, view.SessionID, "sp-soup", "fri")

	if _, err := h.db.Exec(`DELETE FROM specials WHERE id = ?`, "sp-fish"); err != nil {
		t.Fatalf("delete sp-fish: %v", err)
	}
	h.service.ReseedOpenSessions(h.tenantCtx)

	// The deleted row fell out of the session entirely.
	res := h.toggle(t, view.SessionID, "sp-fish", "mon")
	if res.Dirty || len(res.Days) != 0 {
		t.Fatalf("expected deleted special to be inert, got %+v", res)
	}

	// And the reseed discarded the pending edit.
	result, err := h.service.Save(context.Background(), h.tenantCtx, view.SessionID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !result.NoOp {
		t.Fatalf("expected nothing dirty after reseed, got %+v", result)
	}
}
