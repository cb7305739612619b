package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos/audit"
	"github.com/yungbote/aaos-backend/internal/data/repos/control"
	"github.com/yungbote/aaos-backend/internal/data/repos/identity"
	"github.com/yungbote/aaos-backend/internal/data/repos/session"
	"github.com/yungbote/aaos-backend/internal/data/repos/signal"
	"github.com/yungbote/aaos-backend/internal/data/repos/user"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserContextRepo = user.UserContextRepo

type SessionRepo = session.SessionRepo

type ControlFlagRepo = control.ControlFlagRepo

type ModelSetRepo = identity.ModelSetRepo
type IdentityVersionRepo = identity.IdentityVersionRepo

type ConfidenceRepo = signal.ConfidenceRepo
type PressureRepo = signal.PressureRepo

type AuditEventRepo = audit.AuditEventRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserContextRepo(db *gorm.DB, baseLog *logger.Logger) UserContextRepo {
	return user.NewUserContextRepo(db, baseLog)
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return session.NewSessionRepo(db, baseLog)
}

func NewControlFlagRepo(db *gorm.DB, baseLog *logger.Logger) ControlFlagRepo {
	return control.NewControlFlagRepo(db, baseLog)
}

func NewModelSetRepo(db *gorm.DB, baseLog *logger.Logger) ModelSetRepo {
	return identity.NewModelSetRepo(db, baseLog)
}
func NewIdentityVersionRepo(db *gorm.DB, baseLog *logger.Logger) IdentityVersionRepo {
	return identity.NewIdentityVersionRepo(db, baseLog)
}

func NewConfidenceRepo(db *gorm.DB, baseLog *logger.Logger) ConfidenceRepo {
	return signal.NewConfidenceRepo(db, baseLog)
}
func NewPressureRepo(db *gorm.DB, baseLog *logger.Logger) PressureRepo {
	return signal.NewPressureRepo(db, baseLog)
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return audit.NewAuditEventRepo(db, baseLog)
}
