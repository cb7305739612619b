// Package projection runs named, read-only recomputations over the
// governance tables. Every execution goes through Executor: registry
// lookup, guard, contract validation, run on a read-only surface, then
// exactly one access audit.
package projection

import (
	"time"
)

// Name is the closed set of projection identifiers.
type Name string

const (
	NameSessionTimeline         Name = "session.timeline"
	NameIdentityVersionTimeline Name = "identity.versionTimeline"
	NameConfidenceSeries        Name = "confidence.series"
	NamePressureSeries          Name = "pressure.series"
	NameControlFlagsTimeline    Name = "controlFlags.timeline"
	NameSystemStateTimeline     Name = "systemState.timeline"
)

var knownNames = map[Name]struct{}{
	NameSessionTimeline:         {},
	NameIdentityVersionTimeline: {},
	NameConfidenceSeries:        {},
	NamePressureSeries:          {},
	NameControlFlagsTimeline:    {},
	NameSystemStateTimeline:     {},
}

func (n Name) Valid() bool {
	_, ok := knownNames[n]
	return ok
}

// Source is a table a projection may read. Anything not listed is
// unreachable through ReadDB.
type Source string

const (
	SourceUser                 Source = "User"
	SourceSession              Source = "Session"
	SourceUserContext          Source = "UserContext"
	SourceModelSet             Source = "ModelSet"
	SourceIdentityModelVersion Source = "IdentityModelVersion"
	SourceConfidenceState      Source = "ConfidenceState"
	SourcePressureState        Source = "PressureState"
	SourceControlFlag          Source = "ControlFlag"
	SourceAuditEvent           Source = "AuditEvent"
)

// TimeRange bounds are never inferred; a range given with one side
// missing is rejected by the guard.
type TimeRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// Input is the explicit input of every projection. Ids are kept as the
// caller supplied them; the guard rejects malformed ones.
type Input struct {
	UserID     string     `json:"userId"`
	SessionID  *string    `json:"sessionId,omitempty"`
	ModelSetID *string    `json:"modelSetId,omitempty"`
	TimeRange  *TimeRange `json:"timeRange,omitempty"`
	// Extra carries contract-specific filters. It is not part of the
	// inputs fingerprint.
	Extra map[string]any `json:"extra,omitempty"`
}

// ExtraString returns Extra[key] when it is a non-empty string.
func (in Input) ExtraString(key string) (string, bool) {
	if in.Extra == nil {
		return "", false
	}
	s, ok := in.Extra[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
