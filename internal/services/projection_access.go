package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type projectionAudit struct {
	sink AuditSink
}

// NewProjectionAudit records projection access as PROJECTION_ACCESSED events.
func NewProjectionAudit(sink AuditSink) projection.AuditRecorder {
	return &projectionAudit{sink: sink}
}

func (p *projectionAudit) RecordProjectionAccess(ctx context.Context, rec projection.AccessRecord) error {
	sources := make([]string, 0, len(rec.Sources))
	for _, s := range rec.Sources {
		sources = append(sources, string(s))
	}
	_, err := p.sink.Append(dbctx.Context{Ctx: ctx}, AuditEntry{
		UserID:    uuidPtr(rec.UserID),
		SessionID: rec.SessionID,
		EventType: audit.EventProjectionAccessed,
		Meta: map[string]any{
			"projection": rec.Projection,
			"inputsHash": rec.InputsHash,
			"sources":    sources,
			"occurredAt": rec.OccurredAt.UTC().Format(isoMillis),
		},
		At: rec.OccurredAt,
	})
	return err
}

type projectionPause struct {
	pause PauseChecker
}

// NewProjectionPause exposes the effective pause to the projection guard.
func NewProjectionPause(pause PauseChecker) projection.PauseLookup {
	return &projectionPause{pause: pause}
}

func (p *projectionPause) EffectivePause(ctx context.Context, userID uuid.UUID) (bool, string, error) {
	ep, err := p.pause.GetEffectivePause(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return false, "", err
	}
	if !ep.IsPaused {
		return false, "", nil
	}
	reason := ""
	if ep.Reason != nil {
		reason = *ep.Reason
	}
	return true, reason, nil
}
