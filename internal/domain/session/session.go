package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Phase string

const (
	PhaseOpening    Phase = "OPENING"
	PhaseEngagement Phase = "ENGAGEMENT"
	PhaseSynthesis  Phase = "SYNTHESIS"
	PhaseClosure    Phase = "CLOSURE"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseOpening, PhaseEngagement, PhaseSynthesis, PhaseClosure:
		return true
	}
	return false
}

type State string

const (
	StateUninitialized        State = "UNINITIALIZED"
	StateAssessing            State = "ASSESSING"
	StateModeled              State = "MODELED"
	StateInsightDelivery      State = "INSIGHT_DELIVERY"
	StateLongitudinalTracking State = "LONGITUDINAL_TRACKING"
	StatePaused               State = "PAUSED"
)

func (s State) Valid() bool {
	switch s {
	case StateUninitialized, StateAssessing, StateModeled, StateInsightDelivery, StateLongitudinalTracking, StatePaused:
		return true
	}
	return false
}

type Type string

const (
	TypeAssessment Type = "ASSESSMENT"
	TypeReflection Type = "REFLECTION"
	TypeCheckIn    Type = "CHECK_IN"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAssessment, TypeReflection, TypeCheckIn:
		return true
	}
	return false
}

// Session is one bounded interaction arc owned by a single user. Phase,
// State and ClosedAt change only through the guarded session service.
type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      Type       `gorm:"column:type;type:text;not null" json:"type"`
	Purpose   string     `gorm:"column:purpose;type:text" json:"purpose"`
	Phase     Phase      `gorm:"column:phase;type:text;not null" json:"phase"`
	State     State      `gorm:"column:state;type:text;not null" json:"state"`
	ClosedAt  *time.Time `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsClosed reports the CLOSED invariant: phase CLOSURE and closed_at set.
func IsClosed(s *Session) bool {
	return s != nil && s.Phase == PhaseClosure && s.ClosedAt != nil
}
