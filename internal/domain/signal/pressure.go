package signal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
)

type PressureLevel string

const (
	PressureLow      PressureLevel = "LOW"
	PressureModerate PressureLevel = "MODERATE"
	PressureHigh     PressureLevel = "HIGH"
	PressureCritical PressureLevel = "CRITICAL"
)

const (
	MinDPI = 0.0
	MaxDPI = 100.0
)

// DeriveLevel buckets a DPI: <25 LOW, <50 MODERATE, <75 HIGH, else CRITICAL.
func DeriveLevel(dpi float64) (PressureLevel, error) {
	if dpi < MinDPI || dpi > MaxDPI || dpi != dpi {
		return "", governance.NewError(governance.CodeValidation, "pressure.level", "DPI must be between 0 and 100.", nil)
	}
	switch {
	case dpi < 25:
		return PressureLow, nil
	case dpi < 50:
		return PressureModerate, nil
	case dpi < 75:
		return PressureHigh, nil
	default:
		return PressureCritical, nil
	}
}

// PressureState is an append-only Developmental Pressure Index sample.
type PressureState struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;index:idx_pressure_user_created,priority:1" json:"user_id"`
	DPI       float64       `gorm:"column:dpi;not null" json:"dpi"`
	Level     PressureLevel `gorm:"column:level;type:text;not null" json:"level"`
	Reason    *string       `gorm:"column:reason;type:text" json:"reason,omitempty"`
	SessionID *uuid.UUID    `gorm:"type:uuid;column:session_id" json:"session_id,omitempty"`
	CreatedAt time.Time     `gorm:"not null;index:idx_pressure_user_created,priority:2" json:"created_at"`
}

func (PressureState) TableName() string { return "pressure_state" }

func (p *PressureState) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
