package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type Repos struct {
	Users        repos.UserRepo
	UserContexts repos.UserContextRepo
	Sessions     repos.SessionRepo
	ControlFlags repos.ControlFlagRepo
	ModelSets    repos.ModelSetRepo
	Versions     repos.IdentityVersionRepo
	Confidence   repos.ConfidenceRepo
	Pressure     repos.PressureRepo
	AuditEvents  repos.AuditEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Users:        repos.NewUserRepo(db, log),
		UserContexts: repos.NewUserContextRepo(db, log),
		Sessions:     repos.NewSessionRepo(db, log),
		ControlFlags: repos.NewControlFlagRepo(db, log),
		ModelSets:    repos.NewModelSetRepo(db, log),
		Versions:     repos.NewIdentityVersionRepo(db, log),
		Confidence:   repos.NewConfidenceRepo(db, log),
		Pressure:     repos.NewPressureRepo(db, log),
		AuditEvents:  repos.NewAuditEventRepo(db, log),
	}
}
