package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/repos/debates"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type DebateRepo = debates.DebateRepo
type DivisionRepo = debates.DivisionRepo
type VectorStoreWindowRepo = debates.VectorStoreWindowRepo

func NewDebateRepo(db *gorm.DB, baseLog *logger.Logger) DebateRepo {
	return debates.NewDebateRepo(db, baseLog)
}
func NewDivisionRepo(db *gorm.DB, baseLog *logger.Logger) DivisionRepo {
	return debates.NewDivisionRepo(db, baseLog)
}
func NewVectorStoreWindowRepo(db *gorm.DB, baseLog *logger.Logger) VectorStoreWindowRepo {
	return debates.NewVectorStoreWindowRepo(db, baseLog)
}
