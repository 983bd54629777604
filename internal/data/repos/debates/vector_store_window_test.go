package debates

import (
	"context"
	"testing"

	"github.com/yungbote/hansard-backend/internal/data/repos/testutil"
	types "github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
)

func TestVectorStoreWindowRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewVectorStoreWindowRepo(db, testutil.Logger(t))

	if got, err := repo.GetByStartDate(dbc, "2024-03-11"); err != nil || got != nil {
		t.Fatalf("GetByStartDate empty: got=%v err=%v", got, err)
	}

	first, err := repo.Create(dbc, &types.VectorStoreWindow{StartDate: "2024-03-11", VectorStoreID: "vs_1", AssistantID: "asst_1"})
	if err != nil || first == nil || first.VectorStoreID != "vs_1" {
		t.Fatalf("Create: got=%v err=%v", first, err)
	}
	second, err := repo.Create(dbc, &types.VectorStoreWindow{StartDate: "2024-03-11", VectorStoreID: "vs_2", AssistantID: "asst_2"})
	if err != nil || second == nil {
		t.Fatalf("Create duplicate: got=%v err=%v", second, err)
	}
	if second.VectorStoreID != "vs_1" || second.ID != first.ID {
		t.Fatalf("duplicate window replaced the first: %+v", second)
	}
	if _, err := repo.Create(dbc, &types.VectorStoreWindow{}); err == nil {
		t.Fatalf("want error for missing start date")
	}
}
