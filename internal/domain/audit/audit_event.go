package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventSystemPaused                 EventType = "SYSTEM_PAUSED"
	EventSystemResumed                EventType = "SYSTEM_RESUMED"
	EventMutationBlocked              EventType = "MUTATION_BLOCKED"
	EventActionBlockedPaused          EventType = "ACTION_BLOCKED_PAUSED"
	EventUserContextCreated           EventType = "USER_CONTEXT_CREATED"
	EventUserContextLastSessionSet    EventType = "USER_CONTEXT_LAST_SESSION_SET"
	EventUserContextModelSetActivated EventType = "USER_CONTEXT_MODELSET_ACTIVATED"
	EventUserContextModelSetCleared   EventType = "USER_CONTEXT_MODELSET_CLEARED"
	EventUserContextReset             EventType = "USER_CONTEXT_RESET"
	EventIdentityVersionCreated       EventType = "IDENTITY_VERSION_CREATED"
	EventConfidenceRecorded           EventType = "CONFIDENCE_RECORDED"
	EventConfidenceMutationBlocked    EventType = "CONFIDENCE_MUTATION_BLOCKED"
	EventPressureRecorded             EventType = "PRESSURE_RECORDED"
	EventPressureMutationBlocked      EventType = "PRESSURE_MUTATION_BLOCKED"
	EventSessionOpened                EventType = "SESSION_OPENED"
	EventSessionPhaseAdvanced         EventType = "SESSION_PHASE_ADVANCED"
	EventSessionClosed                EventType = "SESSION_CLOSED"
	EventSystemStateTransition        EventType = "SYSTEM_STATE_TRANSITION"
	EventModelSetCreated              EventType = "MODEL_SET_CREATED"
	EventBootstrapCreated             EventType = "BOOTSTRAP_CREATED"
	EventProjectionAccessed           EventType = "PROJECTION_ACCESSED"
)

var knownEventTypes = map[EventType]struct{}{
	EventSystemPaused: {}, EventSystemResumed: {}, EventMutationBlocked: {}, EventActionBlockedPaused: {},
	EventUserContextCreated: {}, EventUserContextLastSessionSet: {}, EventUserContextModelSetActivated: {},
	EventUserContextModelSetCleared: {}, EventUserContextReset: {}, EventIdentityVersionCreated: {},
	EventConfidenceRecorded: {}, EventConfidenceMutationBlocked: {}, EventPressureRecorded: {},
	EventPressureMutationBlocked: {}, EventSessionOpened: {}, EventSessionPhaseAdvanced: {}, EventSessionClosed: {},
	EventSystemStateTransition: {}, EventModelSetCreated: {}, EventBootstrapCreated: {}, EventProjectionAccessed: {},
}

func (t EventType) Valid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// AuditEvent is append-only and structural. UserID is nil for system-scope
// control actions.
type AuditEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;column:user_id;index:idx_audit_user_created,priority:1" json:"user_id,omitempty"`
	SessionID *uuid.UUID     `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`
	EventType EventType      `gorm:"column:event_type;type:text;not null;index" json:"event_type"`
	Meta      datatypes.JSON `gorm:"column:meta" json:"meta"`
	CreatedAt time.Time      `gorm:"not null;index:idx_audit_user_created,priority:2" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
