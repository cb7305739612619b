package defs

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type SessionTimelineEntry struct {
	Session *types.Session      `json:"session"`
	Events  []*types.AuditEvent `json:"events"`
}

type SessionTimelineOutput struct {
	UserID   string                  `json:"userId"`
	Sessions []*SessionTimelineEntry `json:"sessions"`
}

// SessionTimeline lists the user's sessions with their audit trail, oldest first.
func SessionTimeline() projection.Contract {
	return projection.Definition[*SessionTimelineOutput]{
		ProjectionName: projection.NameSessionTimeline,
		Reads:          []projection.Source{projection.SourceSession, projection.SourceAuditEvent},
		RunFunc:        runSessionTimeline,
	}
}

func runSessionTimeline(ctx context.Context, pc projection.Context, in projection.Input) (*SessionTimelineOutput, error) {
	q := projection.Query{
		Filters: []projection.Filter{projection.Eq("user_id", in.UserID)},
		Order:   projection.Ascending("created_at", "id"),
	}
	if in.SessionID != nil {
		q.Filters = append(q.Filters, projection.Eq("id", *in.SessionID))
	}
	var sessions []*types.Session
	if err := pc.DB.Find(ctx, projection.SourceSession, &sessions, q.Within(in.TimeRange)); err != nil {
		return nil, err
	}

	out := &SessionTimelineOutput{UserID: in.UserID, Sessions: make([]*SessionTimelineEntry, 0, len(sessions))}
	if len(sessions) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	var events []*types.AuditEvent
	if err := pc.DB.Find(ctx, projection.SourceAuditEvent, &events, projection.Query{
		Filters: []projection.Filter{projection.In("session_id", ids...)},
		Order:   projection.Ascending("created_at", "id"),
	}); err != nil {
		return nil, err
	}

	bySession := make(map[uuid.UUID][]*types.AuditEvent, len(sessions))
	for _, ev := range events {
		if ev.SessionID != nil {
			bySession[*ev.SessionID] = append(bySession[*ev.SessionID], ev)
		}
	}
	for _, s := range sessions {
		evs := bySession[s.ID]
		if evs == nil {
			evs = []*types.AuditEvent{}
		}
		out.Sessions = append(out.Sessions, &SessionTimelineEntry{Session: s, Events: evs})
	}
	return out, nil
}
