package projection

import (
	"context"

	"github.com/google/uuid"
)

type GuardResult struct {
	OK      bool      `json:"ok"`
	Code    GuardCode `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

func guardOK() GuardResult { return GuardResult{OK: true} }

func guardFail(code GuardCode, message string) GuardResult {
	return GuardResult{OK: false, Code: code, Message: message}
}

// PauseLookup resolves the effective pause for a user.
type PauseLookup interface {
	EffectivePause(ctx context.Context, userID uuid.UUID) (paused bool, reason string, err error)
}

// Guard runs before any contract logic. It never writes. Policy refusals
// come back as results; the error return is for lookup failures only.
// A nil pause lookup or nil db disables that check.
type Guard struct {
	pause PauseLookup
	db    ReadDB
}

func NewGuard(pause PauseLookup, db ReadDB) *Guard {
	return &Guard{pause: pause, db: db}
}

func (g *Guard) Check(ctx context.Context, _ Contract, in Input) (GuardResult, error) {
	userID, err := uuid.Parse(in.UserID)
	if in.UserID == "" || err != nil {
		return guardFail(CodeInvalidInput, "Missing or invalid userId."), nil
	}
	sessionID, ok := optionalID(in.SessionID)
	if !ok {
		return guardFail(CodeInvalidInput, "Invalid sessionId."), nil
	}
	modelSetID, ok := optionalID(in.ModelSetID)
	if !ok {
		return guardFail(CodeInvalidInput, "Invalid modelSetId."), nil
	}
	if tr := in.TimeRange; tr != nil {
		if tr.From == nil || tr.To == nil {
			return guardFail(CodeInvalidInput, "timeRange.from and timeRange.to must be Date."), nil
		}
		if tr.From.IsZero() || tr.To.IsZero() {
			return guardFail(CodeInvalidInput, "timeRange bounds must be valid dates."), nil
		}
		if tr.From.After(*tr.To) {
			return guardFail(CodeInvalidInput, "timeRange.from must be <= timeRange.to."), nil
		}
	}

	if g.pause != nil {
		paused, reason, err := g.pause.EffectivePause(ctx, userID)
		if err != nil {
			return GuardResult{}, err
		}
		if paused {
			if reason == "" {
				reason = "System is paused."
			}
			return guardFail(CodePaused, reason), nil
		}
	}

	if g.db != nil {
		if sessionID != nil {
			ok, err := g.owns(ctx, SourceSession, *sessionID, userID)
			if err != nil {
				return GuardResult{}, err
			}
			if !ok {
				return guardFail(CodeUnauthorized, "Session is not accessible to user."), nil
			}
		}
		if modelSetID != nil {
			ok, err := g.owns(ctx, SourceModelSet, *modelSetID, userID)
			if err != nil {
				return GuardResult{}, err
			}
			if !ok {
				return guardFail(CodeUnauthorized, "ModelSet is not accessible to user."), nil
			}
		}
	}
	return guardOK(), nil
}

// owns treats a missing row like a foreign one so that existence is not leaked.
func (g *Guard) owns(ctx context.Context, src Source, id, userID uuid.UUID) (bool, error) {
	n, err := g.db.Count(ctx, src, Query{Filters: []Filter{Eq("id", id), Eq("user_id", userID)}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func optionalID(raw *string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// canonicalIDs rewrites the ids the guard accepted into their canonical
// lowercase form so contracts can compare them against stored columns.
func canonicalIDs(in Input) Input {
	if id, err := uuid.Parse(in.UserID); err == nil {
		in.UserID = id.String()
	}
	if id, ok := optionalID(in.SessionID); ok && id != nil {
		s := id.String()
		in.SessionID = &s
	}
	if id, ok := optionalID(in.ModelSetID); ok && id != nil {
		s := id.String()
		in.ModelSetID = &s
	}
	return in
}
