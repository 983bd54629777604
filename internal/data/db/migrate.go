package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/hansard-backend/internal/domain/debates"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// EnsureIndexes creates the Postgres-only indexes AutoMigrate cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_debates_date_interest ON debates(date, interest_score DESC);`).Error; err != nil {
		return fmt.Errorf("create idx_debates_date_interest: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_debates_ai_topics ON debates USING GIN (ai_topics);`).Error; err != nil {
		return fmt.Errorf("create idx_debates_ai_topics: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_divisions_debate_number ON divisions(debate_ext_id, number);`).Error; err != nil {
		return fmt.Errorf("create idx_divisions_debate_number: %w", err)
	}
	return nil
}
