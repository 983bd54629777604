package debates

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type DivisionRepo interface {
	GetByDebateExtID(dbc dbctx.Context, debateExtID string) ([]*types.DivisionRecord, error)
	UpsertByExtID(dbc dbctx.Context, rows []*types.DivisionRecord) error
}

type divisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDivisionRepo(db *gorm.DB, baseLog *logger.Logger) DivisionRepo {
	return &divisionRepo{
		db:  db,
		log: baseLog.With("repo", "DivisionRepo"),
	}
}

func (r *divisionRepo) GetByDebateExtID(dbc dbctx.Context, debateExtID string) ([]*types.DivisionRecord, error) {
	var out []*types.DivisionRecord
	if strings.TrimSpace(debateExtID) == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("debate_ext_id = ?", debateExtID).
		Order("number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *divisionRepo) UpsertByExtID(dbc dbctx.Context, rows []*types.DivisionRecord) error {
	clean := make([]*types.DivisionRecord, 0, len(rows))
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil || strings.TrimSpace(row.ExtID) == "" {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		clean = append(clean, row)
	}
	if len(clean) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ext_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"debate_ext_id",
				"number",
				"date",
				"house",
				"aye_count",
				"no_count",
				"text_before_vote",
				"text_after_vote",
				"ayes",
				"noes",
				"question",
				"topic",
				"context",
				"arguments_for",
				"arguments_against",
				"updated_at",
			}),
		}).
		Create(&clean).Error
}
