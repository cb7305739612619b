package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ModelSetStatus string

const (
	ModelSetDraft    ModelSetStatus = "DRAFT"
	ModelSetActive   ModelSetStatus = "ACTIVE"
	ModelSetArchived ModelSetStatus = "ARCHIVED"
)

// ModelSet is a user-owned container of identity versions. Status is
// informational only.
type ModelSet struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status    ModelSetStatus `gorm:"column:status;type:text;not null" json:"status"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (ModelSet) TableName() string { return "model_set" }

func (m *ModelSet) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type ModelType string

const (
	ModelTypeCIM ModelType = "CIM"
	ModelTypeFIM ModelType = "FIM"
)

func (t ModelType) Valid() bool {
	return t == ModelTypeCIM || t == ModelTypeFIM
}

// IdentityModelVersion is write-once. Version is the previous maximum for
// (model_set_id, type) plus one, starting at 1; the unique index rejects a
// concurrent writer that computed the same number.
type IdentityModelVersion struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ModelSetID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_identity_version_partition,priority:1" json:"model_set_id"`
	Type       ModelType      `gorm:"column:type;type:text;not null;uniqueIndex:idx_identity_version_partition,priority:2" json:"type"`
	Version    int            `gorm:"column:version;not null;uniqueIndex:idx_identity_version_partition,priority:3" json:"version"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (IdentityModelVersion) TableName() string { return "identity_model_version" }

func (v *IdentityModelVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
