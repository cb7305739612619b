package signal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConfidenceDomain string

const (
	DomainIdentityModel ConfidenceDomain = "IDENTITY_MODEL"
	DomainSystem        ConfidenceDomain = "SYSTEM"
	DomainSession       ConfidenceDomain = "SESSION"
)

func (d ConfidenceDomain) Valid() bool {
	switch d {
	case DomainIdentityModel, DomainSystem, DomainSession:
		return true
	}
	return false
}

const (
	MinConfidence = 0.0
	MaxConfidence = 1.0
)

// ConfidenceState is an append-only descriptive value in [0, 1]. The latest
// row per (user_id, domain, key) by created_at is the current value.
type ConfidenceState struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_confidence_partition,priority:1" json:"user_id"`
	Domain     ConfidenceDomain `gorm:"column:domain;type:text;not null;index:idx_confidence_partition,priority:2" json:"domain"`
	Key        string           `gorm:"column:signal_key;type:text;not null;index:idx_confidence_partition,priority:3" json:"key"`
	Value      float64          `gorm:"column:value;not null" json:"value"`
	Reason     *string          `gorm:"column:reason;type:text" json:"reason,omitempty"`
	ModelSetID *uuid.UUID       `gorm:"type:uuid;column:model_set_id" json:"model_set_id,omitempty"`
	SessionID  *uuid.UUID       `gorm:"type:uuid;column:session_id" json:"session_id,omitempty"`
	CreatedAt  time.Time        `gorm:"not null;index:idx_confidence_partition,priority:4" json:"created_at"`
}

func (ConfidenceState) TableName() string { return "confidence_state" }

func (c *ConfidenceState) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
