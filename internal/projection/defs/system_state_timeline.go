package defs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type StateTransition struct {
	SessionID *uuid.UUID    `json:"sessionId"`
	From      session.State `json:"from"`
	To        session.State `json:"to"`
	At        time.Time     `json:"at"`
}

type SessionState struct {
	SessionID uuid.UUID     `json:"sessionId"`
	Phase     session.Phase `json:"phase"`
	State     session.State `json:"state"`
}

type SystemStateTimelineOutput struct {
	Transitions []StateTransition `json:"transitions"`
	Current     []SessionState    `json:"current"`
}

// SystemStateTimeline replays recorded state transitions next to the
// sessions' current states.
func SystemStateTimeline() projection.Contract {
	return projection.Definition[*SystemStateTimelineOutput]{
		ProjectionName: projection.NameSystemStateTimeline,
		Reads:          []projection.Source{projection.SourceSession, projection.SourceAuditEvent},
		RunFunc:        runSystemStateTimeline,
	}
}

func runSystemStateTimeline(ctx context.Context, pc projection.Context, in projection.Input) (*SystemStateTimelineOutput, error) {
	eventQuery := projection.Query{
		Filters: []projection.Filter{
			projection.Eq("user_id", in.UserID),
			projection.Eq("event_type", audit.EventSystemStateTransition),
		},
		Order: projection.Ascending("created_at", "id"),
	}
	sessionQuery := projection.Query{
		Filters: []projection.Filter{projection.Eq("user_id", in.UserID)},
		Order:   projection.Ascending("created_at", "id"),
	}
	if in.SessionID != nil {
		eventQuery.Filters = append(eventQuery.Filters, projection.Eq("session_id", *in.SessionID))
		sessionQuery.Filters = append(sessionQuery.Filters, projection.Eq("id", *in.SessionID))
	}

	var (
		events   []*types.AuditEvent
		sessions []*types.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pc.DB.Find(gctx, projection.SourceAuditEvent, &events, eventQuery.Within(in.TimeRange))
	})
	g.Go(func() error {
		return pc.DB.Find(gctx, projection.SourceSession, &sessions, sessionQuery)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SystemStateTimelineOutput{
		Transitions: make([]StateTransition, 0, len(events)),
		Current:     make([]SessionState, 0, len(sessions)),
	}
	for _, ev := range events {
		var meta struct {
			From session.State `json:"from"`
			To   session.State `json:"to"`
		}
		if len(ev.Meta) > 0 {
			if err := json.Unmarshal(ev.Meta, &meta); err != nil {
				return nil, err
			}
		}
		out.Transitions = append(out.Transitions, StateTransition{
			SessionID: ev.SessionID,
			From:      meta.From,
			To:        meta.To,
			At:        ev.CreatedAt,
		})
	}
	for _, s := range sessions {
		out.Current = append(out.Current, SessionState{SessionID: s.ID, Phase: s.Phase, State: s.State})
	}
	return out, nil
}
