package control

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Scope string

const (
	ScopeSystem Scope = "SYSTEM"
	ScopeUser   Scope = "USER"
)

func (s Scope) Valid() bool {
	return s == ScopeSystem || s == ScopeUser
}

// ControlFlag is an immutable pause/resume decision. Rows are never updated
// or deleted; the effective state of a scope key is its most recent row.
type ControlFlag struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Scope     Scope      `gorm:"column:scope;type:text;not null;index:idx_control_flag_scope,priority:1" json:"scope"`
	ScopeID   *uuid.UUID `gorm:"type:uuid;column:scope_id;index:idx_control_flag_scope,priority:2" json:"scope_id,omitempty"`
	Paused    bool       `gorm:"column:paused;not null" json:"paused"`
	Reason    *string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index:idx_control_flag_scope,priority:3" json:"created_at"`
}

func (ControlFlag) TableName() string { return "control_flag" }

func (f *ControlFlag) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ControlFlagHead points at the latest flag of a scope key. It is upserted in
// the same transaction as the flag insert, giving O(1) latest lookups that do
// not depend on timestamp resolution.
type ControlFlagHead struct {
	ScopeKey  string    `gorm:"column:scope_key;type:text;primaryKey" json:"scope_key"`
	FlagID    uuid.UUID `gorm:"type:uuid;column:flag_id;not null" json:"flag_id"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ControlFlagHead) TableName() string { return "control_flag_head" }

// ScopeKey is "system" for the system scope and "user:<id>" for a user.
// The system scope ignores scopeID.
func ScopeKey(scope Scope, scopeID *uuid.UUID) string {
	if scope == ScopeSystem {
		return "system"
	}
	if scopeID == nil {
		return "user:"
	}
	return "user:" + scopeID.String()
}
