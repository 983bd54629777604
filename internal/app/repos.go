package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/repos"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type Repos struct {
	Debate            repos.DebateRepo
	Division          repos.DivisionRepo
	VectorStoreWindow repos.VectorStoreWindowRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Debate:            repos.NewDebateRepo(db, log),
		Division:          repos.NewDivisionRepo(db, log),
		VectorStoreWindow: repos.NewVectorStoreWindowRepo(db, log),
	}
}
