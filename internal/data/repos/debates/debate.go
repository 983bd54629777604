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

// pipelineColumns is the update set of an upsert. Editor-curated columns
// (editor_notes, featured, hidden) and index_file_id are absent.
var pipelineColumns = []string{
	"title",
	"date",
	"house",
	"location",
	"type",
	"parent_ext_id",
	"prev_ext_id",
	"next_ext_id",
	"contribution_count",
	"speaker_count",
	"word_count",
	"party_counts",
	"speakers",
	"interest_score",
	"interest_factors",
	"ai_title",
	"ai_overview",
	"ai_summary",
	"ai_tone",
	"ai_key_themes",
	"ai_question",
	"ai_question_topic",
	"ai_question_context",
	"ai_topics",
	"ai_key_points",
	"ai_comments",
	"processed_at",
	"updated_at",
}

type DebateRepo interface {
	GetByExtID(dbc dbctx.Context, extID string) (*types.DebateRecord, error)
	UpsertByExtID(dbc dbctx.Context, row *types.DebateRecord) error
	SetIndexFileID(dbc dbctx.Context, extID string, fileID string) error
}

type debateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDebateRepo(db *gorm.DB, baseLog *logger.Logger) DebateRepo {
	return &debateRepo{
		db:  db,
		log: baseLog.With("repo", "DebateRepo"),
	}
}

// GetByExtID returns nil, nil when no row exists.
func (r *debateRepo) GetByExtID(dbc dbctx.Context, extID string) (*types.DebateRecord, error) {
	extID = strings.TrimSpace(extID)
	if extID == "" {
		return nil, nil
	}
	var row types.DebateRecord
	err := dbc.DB(r.db).Where("ext_id = ?", extID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *debateRepo) UpsertByExtID(dbc dbctx.Context, row *types.DebateRecord) error {
	if row == nil || strings.TrimSpace(row.ExtID) == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ext_id"}},
			DoUpdates: clause.AssignmentColumns(pipelineColumns),
		}).
		Create(row).Error
}

// SetIndexFileID records the index file currently holding the debate's document.
func (r *debateRepo) SetIndexFileID(dbc dbctx.Context, extID string, fileID string) error {
	extID = strings.TrimSpace(extID)
	if extID == "" {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.DebateRecord{}).
		Where("ext_id = ?", extID).
		Updates(map[string]interface{}{
			"index_file_id": strings.TrimSpace(fileID),
			"updated_at":    time.Now().UTC(),
		}).Error
}
