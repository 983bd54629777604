package debates

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type VectorStoreWindowRepo interface {
	GetByStartDate(dbc dbctx.Context, startDate string) (*types.VectorStoreWindow, error)
	// Create inserts the window unless one already exists for its start date,
	// and returns the stored row either way.
	Create(dbc dbctx.Context, row *types.VectorStoreWindow) (*types.VectorStoreWindow, error)
}

type vectorStoreWindowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVectorStoreWindowRepo(db *gorm.DB, baseLog *logger.Logger) VectorStoreWindowRepo {
	return &vectorStoreWindowRepo{
		db:  db,
		log: baseLog.With("repo", "VectorStoreWindowRepo"),
	}
}

func (r *vectorStoreWindowRepo) GetByStartDate(dbc dbctx.Context, startDate string) (*types.VectorStoreWindow, error) {
	startDate = strings.TrimSpace(startDate)
	if startDate == "" {
		return nil, nil
	}
	var row types.VectorStoreWindow
	err := dbc.DB(r.db).Where("start_date = ?", startDate).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *vectorStoreWindowRepo) Create(dbc dbctx.Context, row *types.VectorStoreWindow) (*types.VectorStoreWindow, error) {
	if row == nil || strings.TrimSpace(row.StartDate) == "" {
		return nil, errors.New("vector store window start date required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "start_date"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByStartDate(dbc, row.StartDate)
}
