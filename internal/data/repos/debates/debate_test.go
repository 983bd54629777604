package debates

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/hansard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
)

func TestDebateRepoUpsertIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDebateRepo(db, testutil.Logger(t))

	row := &types.DebateRecord{
		ExtID:         "ABC-123",
		Title:         "Fuel Prices",
		Date:          "2024-03-12",
		House:         "Commons",
		Type:          "Westminster Hall",
		InterestScore: 0.4,
		AIKeyThemes:   datatypes.JSON([]byte(`["energy"]`)),
	}
	if err := repo.UpsertByExtID(dbc, row); err != nil {
		t.Fatalf("UpsertByExtID: %v", err)
	}
	if err := repo.UpsertByExtID(dbc, &types.DebateRecord{
		ExtID:         "ABC-123",
		Title:         "Fuel Prices (Amended)",
		Date:          "2024-03-12",
		House:         "Commons",
		Type:          "Westminster Hall",
		InterestScore: 0.6,
	}); err != nil {
		t.Fatalf("UpsertByExtID again: %v", err)
	}

	var count int64
	if err := tx.Model(&types.DebateRecord{}).Where("ext_id = ?", "ABC-123").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("want one row, got %d", count)
	}

	got, err := repo.GetByExtID(dbc, "ABC-123")
	if err != nil || got == nil {
		t.Fatalf("GetByExtID: got=%v err=%v", got, err)
	}
	if got.Title != "Fuel Prices (Amended)" || got.InterestScore != 0.6 {
		t.Fatalf("upsert did not update: %+v", got)
	}
	if got.ID != row.ID {
		t.Fatalf("row identity changed: want=%s got=%s", row.ID, got.ID)
	}
}

func TestDebateRepoUpsertKeepsEditorFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDebateRepo(db, testutil.Logger(t))

	if err := repo.UpsertByExtID(dbc, &types.DebateRecord{ExtID: "X1", Title: "First", Date: "2024-03-12"}); err != nil {
		t.Fatalf("UpsertByExtID: %v", err)
	}
	if err := tx.Model(&types.DebateRecord{}).Where("ext_id = ?", "X1").Updates(map[string]interface{}{
		"editor_notes": "pinned for the weekly digest",
		"featured":     true,
	}).Error; err != nil {
		t.Fatalf("editor update: %v", err)
	}
	if err := repo.SetIndexFileID(dbc, "X1", "file_9"); err != nil {
		t.Fatalf("SetIndexFileID: %v", err)
	}
	if err := repo.UpsertByExtID(dbc, &types.DebateRecord{ExtID: "X1", Title: "Second", Date: "2024-03-12"}); err != nil {
		t.Fatalf("UpsertByExtID again: %v", err)
	}

	got, err := repo.GetByExtID(dbc, "X1")
	if err != nil || got == nil {
		t.Fatalf("GetByExtID: got=%v err=%v", got, err)
	}
	if got.Title != "Second" {
		t.Fatalf("title: got=%q", got.Title)
	}
	if !got.Featured || got.EditorNotes != "pinned for the weekly digest" {
		t.Fatalf("editor fields overwritten: %+v", got)
	}
	if got.IndexFileID != "file_9" {
		t.Fatalf("index file id overwritten: %q", got.IndexFileID)
	}
}

func TestDebateRepoGetByExtIDMissing(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewDebateRepo(db, testutil.Logger(t))

	if got, err := repo.GetByExtID(dbc, "missing"); err != nil || got != nil {
		t.Fatalf("GetByExtID missing: got=%v err=%v", got, err)
	}
	if err := repo.SetIndexFileID(dbc, "missing", "file_1"); err != nil {
		t.Fatalf("SetIndexFileID on missing row: %v", err)
	}
}
