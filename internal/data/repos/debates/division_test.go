package debates

import (
	"context"
	"testing"

	"github.com/yungbote/hansard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
)

func TestDivisionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDivisionRepo(db, testutil.Logger(t))

	rows := []*types.DivisionRecord{
		{ExtID: "d2", DebateExtID: "deb", Number: 2, AyeCount: 300, NoCount: 200, Question: "Q2"},
		{ExtID: "d1", DebateExtID: "deb", Number: 1, AyeCount: 10, NoCount: 20, Question: "Q1"},
		{ExtID: "other", DebateExtID: "deb-2", Number: 1},
		nil,
	}
	if err := repo.UpsertByExtID(dbc, rows); err != nil {
		t.Fatalf("UpsertByExtID: %v", err)
	}
	if err := repo.UpsertByExtID(dbc, []*types.DivisionRecord{
		{ExtID: "d1", DebateExtID: "deb", Number: 1, AyeCount: 11, NoCount: 20, Question: "Q1 revised"},
	}); err != nil {
		t.Fatalf("UpsertByExtID again: %v", err)
	}

	got, err := repo.GetByDebateExtID(dbc, "deb")
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByDebateExtID: len=%d err=%v", len(got), err)
	}
	if got[0].ExtID != "d1" || got[0].AyeCount != 11 || got[0].Question != "Q1 revised" {
		t.Fatalf("first division: %+v", got[0])
	}
	if err := repo.UpsertByExtID(dbc, nil); err != nil {
		t.Fatalf("empty upsert: %v", err)
	}
}
