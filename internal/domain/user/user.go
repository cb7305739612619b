package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserContext is the single mutable anchor row per user. It stores
// references only; ownership and validity are enforced by the service layer.
//
// LastClosedSessionID, when set, points at a session in phase CLOSURE with a
// non-null closed_at. ContextVersion starts at 1 and only ever increments.
type UserContext struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	ActiveModelSetID    *uuid.UUID `gorm:"type:uuid;column:active_model_set_id" json:"active_model_set_id,omitempty"`
	LastClosedSessionID *uuid.UUID `gorm:"type:uuid;column:last_closed_session_id" json:"last_closed_session_id,omitempty"`
	ContextVersion      int        `gorm:"column:context_version;not null" json:"context_version"`
	CreatedAt           time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null" json:"updated_at"`
}

func (UserContext) TableName() string { return "user_context" }

func (c *UserContext) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ContextVersion < 1 {
		c.ContextVersion = 1
	}
	return nil
}
