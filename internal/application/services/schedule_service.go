// Package services provides schedule draft session orchestration
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/domain/draft"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/security"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// ErrSessionNotFound is returned when a schedule session ID does not match
// any open session, typically because the cleanup worker purged it.
var ErrSessionNotFound = errors.New("schedule session not found")

// scheduleDays is the weekday vocabulary shared by every schedule session.
var scheduleDays = draft.NewVocabulary(catalog.ScheduleDayCodes...)

// ScheduleRow is one special as rendered in the scheduling view.
type ScheduleRow struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Days  []string `json:"days"`
	Dirty bool     `json:"dirty"`
}

// ScheduleSessionView is the scheduling view payload: the session handle
// plus one page of rows.
type ScheduleSessionView struct {
	SessionID string        `json:"sessionId"`
	Items     []ScheduleRow `json:"items"`
	Total     int           `json:"total"`
	Page      int           `json:"page"`
	Pages     int           `json:"pages"`
}

// ScheduleToggleResult reports the row state after one toggle.
type ScheduleToggleResult struct {
	ID    string   `json:"id"`
	Days  []string `json:"days"`
	Dirty bool     `json:"dirty"`
}

// ScheduleSaveResult summarizes one save call for the HTTP response. The
// same numbers go out on the SSE channel as a SaveReportEvent.
type ScheduleSaveResult struct {
	Attempted    int               `json:"attempted"`
	Succeeded    []string          `json:"succeeded"`
	Failed       map[string]string `json:"failed,omitempty"`
	AllSucceeded bool              `json:"allSucceeded"`
	NoOp         bool              `json:"noOp"`
}

// ScheduleService owns the draft engine sessions behind the specials
// scheduling view. Each open view gets its own engine seeded from one page
// of specials; toggles mutate only the draft side, and a save dispatches the
// dirty rows concurrently and reconciles per row.
type ScheduleService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	broadcaster messaging.Broadcaster
}

// NewScheduleService creates a new schedule service singleton
func NewScheduleService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, broadcaster messaging.Broadcaster) *ScheduleService {
	return &ScheduleService{
		logger:      logger,
		perfTracker: perfTracker,
		broadcaster: broadcaster,
	}
}

// OpenSession fetches one page of specials, seeds a fresh engine from their
// stored day codes, and registers the session. Unknown day codes in stored
// data are dropped during seeding.
func (s *ScheduleService) OpenSession(tenantCtx *tenant.Context, query repositories.SpecialQuery) (*ScheduleSessionView, error) {
	start := time.Now()
	query.Normalize()

	specialRepo := tenantCtx.SpecialRepo()
	specials, total, err := specialRepo.FindPage(tenantCtx.TenantID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load specials for schedule session: %w", err)
	}

	engine := draft.NewEngine(scheduleDays)
	if discarded := engine.Seed(seedRecords(specials)); discarded > 0 {
		s.logger.Drafts().Warn("Dropped unknown day codes while seeding schedule session", "tenantId", tenantCtx.TenantID, "discarded", discarded)
	}

	now := time.Now().UTC()
	session := &types.DraftSession{
		SessionID:    security.GenerateULID(),
		Engine:       engine,
		Query:        query,
		CreatedAt:    now,
		LastActivity: now,
	}
	tenantCtx.CacheManager.SetDraftSession(tenantCtx.TenantID, session)

	view := s.buildView(session, specials, total)

	s.logger.Drafts().Info("Successfully opened schedule session", "tenantId", tenantCtx.TenantID, "sessionId", session.SessionID, "items", len(specials), "total", total, "duration", time.Since(start))

	return view, nil
}

// Toggle flips one day code on one special's draft. The baseline is
// untouched, so a second toggle of the same day makes the row clean again.
// Toggling a special that is not part of the session is a silent no-op.
func (s *ScheduleService) Toggle(tenantCtx *tenant.Context, sessionID, specialID, day string) (*ScheduleToggleResult, error) {
	if !scheduleDays.Contains(day) {
		return nil, fmt.Errorf("unknown day code %q", day)
	}

	session, ok := tenantCtx.CacheManager.GetDraftSession(tenantCtx.TenantID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Engine.Toggle(specialID, day)

	days, seeded := session.Engine.Draft(specialID)
	if !seeded {
		s.logger.Drafts().Debug("Toggle targeted a special outside the session", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "specialId", specialID)
		days = []string{}
	}

	return &ScheduleToggleResult{
		ID:    specialID,
		Days:  days,
		Dirty: session.Engine.IsDirty(specialID),
	}, nil
}

// Save dispatches every dirty row's draft days to the database, one
// concurrent write per row, and reconciles per row: a successful write
// advances that row's baseline, a failed one leaves the row dirty for a
// retry. Exactly one save report goes out on the SSE channel per call, the
// no-change case included. A save already in flight for this session
// surfaces as draft.ErrSaveInFlight.
func (s *ScheduleService) Save(ctx context.Context, tenantCtx *tenant.Context, sessionID string) (*ScheduleSaveResult, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("drafts:save", tenantCtx.TenantID)
	defer marker.Complete()

	session, ok := tenantCtx.CacheManager.GetDraftSession(tenantCtx.TenantID, sessionID)
	if !ok {
		marker.SetError(ErrSessionNotFound)
		return nil, ErrSessionNotFound
	}

	specialRepo := tenantCtx.SpecialRepo()
	dispatch := func(_ context.Context, id string, tokens []string) error {
		return specialRepo.UpdateSchedule(tenantCtx.TenantID, id, tokens)
	}

	report, err := session.Engine.Save(ctx, dispatch)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	event := messaging.SaveReportEvent{
		SessionID: sessionID,
		Attempted: report.Attempted,
		Succeeded: len(report.Succeeded),
		Failed:    len(report.Failed),
		FailedIDs: report.FailedIDs(),
		At:        time.Now().UTC(),
	}
	switch {
	case report.NoOp():
		event.Status = "noop"
		event.Message = "No schedule changes to save"
	case report.AllSucceeded():
		event.Status = "success"
		event.Message = "Schedule saved"
	default:
		event.Status = "partial"
		event.Message = fmt.Sprintf("%d of %d schedule changes failed", len(report.Failed), report.Attempted)
	}
	s.broadcaster.BroadcastSaveReport(tenantCtx.TenantID, sessionID, event)

	s.logger.LogDraftSave(tenantCtx.TenantID, sessionID, report.Attempted, len(report.Failed), time.Since(start))
	marker.SetSuccess(report.AllSucceeded())

	result := &ScheduleSaveResult{
		Attempted:    report.Attempted,
		Succeeded:    report.Succeeded,
		AllSucceeded: report.AllSucceeded(),
		NoOp:         report.NoOp(),
	}
	if len(report.Failed) > 0 {
		result.Failed = make(map[string]string, len(report.Failed))
		for id, dispatchErr := range report.Failed {
			result.Failed[id] = dispatchErr.Error()
		}
	}
	return result, nil
}

// Refresh refetches the session's page and reseeds the engine, discarding
// any unsaved edits in one step. A non-nil query replaces the session's
// stored one, which is how the view changes page or filters.
func (s *ScheduleService) Refresh(tenantCtx *tenant.Context, sessionID string, query *repositories.SpecialQuery) (*ScheduleSessionView, error) {
	start := time.Now()

	session, ok := tenantCtx.CacheManager.GetDraftSession(tenantCtx.TenantID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	if query != nil {
		query.Normalize()
		session.Query = *query
	}

	specialRepo := tenantCtx.SpecialRepo()
	specials, total, err := specialRepo.FindPage(tenantCtx.TenantID, session.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to reload specials for schedule session: %w", err)
	}

	if discarded := session.Engine.Seed(seedRecords(specials)); discarded > 0 {
		s.logger.Drafts().Warn("Dropped unknown day codes while reseeding schedule session", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "discarded", discarded)
	}

	view := s.buildView(session, specials, total)

	s.logger.Drafts().Info("Successfully refreshed schedule session", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "items", len(specials), "total", total, "duration", time.Since(start))

	return view, nil
}

// ReseedOpenSessions reloads every open session of a tenant from the
// database. Catalog mutations that bypass the sessions (deleting a special)
// call this so no engine keeps editing rows that no longer exist. Unsaved
// edits in those sessions are discarded.
func (s *ScheduleService) ReseedOpenSessions(tenantCtx *tenant.Context) {
	sessionIDs := tenantCtx.CacheManager.GetAllDraftSessionIDs(tenantCtx.TenantID)
	if len(sessionIDs) == 0 {
		return
	}

	specialRepo := tenantCtx.SpecialRepo()
	reseeded := 0
	for _, sessionID := range sessionIDs {
		session, ok := tenantCtx.CacheManager.GetDraftSession(tenantCtx.TenantID, sessionID)
		if !ok {
			continue
		}
		specials, _, err := specialRepo.FindPage(tenantCtx.TenantID, session.Query)
		if err != nil {
			s.logger.Drafts().Error("Failed to reseed schedule session", "error", err, "tenantId", tenantCtx.TenantID, "sessionId", sessionID)
			continue
		}
		session.Engine.Seed(seedRecords(specials))
		reseeded++
	}

	s.logger.Drafts().Info("Reseeded open schedule sessions", "tenantId", tenantCtx.TenantID, "sessions", reseeded)
}

// seedRecords maps one page of specials to engine seed records.
func seedRecords(specials []*catalog.SpecialNode) []draft.Record {
	records := make([]draft.Record, 0, len(specials))
	for _, sp := range specials {
		records = append(records, draft.Record{ID: sp.ID, Tokens: sp.Days})
	}
	return records
}

// buildView renders the session rows in repository page order. Days come
// from the engine draft so they reflect normalization and unsaved edits.
func (s *ScheduleService) buildView(session *types.DraftSession, specials []*catalog.SpecialNode, total int) *ScheduleSessionView {
	rows := make([]ScheduleRow, 0, len(specials))
	for _, sp := range specials {
		days, _ := session.Engine.Draft(sp.ID)
		if days == nil {
			days = []string{}
		}
		rows = append(rows, ScheduleRow{
			ID:    sp.ID,
			Title: sp.Title,
			Days:  days,
			Dirty: session.Engine.IsDirty(sp.ID),
		})
	}

	pages := 0
	if session.Query.Limit > 0 {
		pages = (total + session.Query.Limit - 1) / session.Query.Limit
	}

	return &ScheduleSessionView{
		SessionID: session.SessionID,
		Items:     rows,
		Total:     total,
		Page:      session.Query.Page,
		Pages:     pages,
	}
}
