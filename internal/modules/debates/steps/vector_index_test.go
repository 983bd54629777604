package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/hansard-backend/internal/data/repos"
	"github.com/yungbote/hansard-backend/internal/data/repos/testutil"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

// fakeStores is an in-memory index provider. polls lists the statuses
// returned by successive GetFileBatch calls.
type fakeStores struct {
	mu         sync.Mutex
	stores     int
	assistants int
	uploads    []string
	batches    map[string][][]string
	polls      []openai.FileBatch
	pollCalls  int
	detached   map[string][]string
	deleted    []string
}

func (f *fakeStores) UploadFile(_ context.Context, filename string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return fmt.Sprintf("file_%d", len(f.uploads)), nil
}

func (f *fakeStores) CreateVectorStore(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	return fmt.Sprintf("vs_%d", f.stores), nil
}

func (f *fakeStores) CreateAssistant(_ context.Context, _ string, _ string, vectorStoreID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistants++
	return "asst_" + vectorStoreID, nil
}

func (f *fakeStores) CreateFileBatch(_ context.Context, vectorStoreID string, fileIDs []string) (openai.FileBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batches == nil {
		f.batches = map[string][][]string{}
	}
	f.batches[vectorStoreID] = append(f.batches[vectorStoreID], append([]string(nil), fileIDs...))
	return openai.FileBatch{ID: "vsfb_" + vectorStoreID, VectorStoreID: vectorStoreID, Status: openai.BatchStatusInProgress}, nil
}

func (f *fakeStores) GetFileBatch(_ context.Context, vectorStoreID string, batchID string) (openai.FileBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	if len(f.polls) == 0 {
		return openai.FileBatch{ID: batchID, VectorStoreID: vectorStoreID, Status: openai.BatchStatusCompleted}, nil
	}
	b := f.polls[0]
	if len(f.polls) > 1 {
		f.polls = f.polls[1:]
	}
	b.ID = batchID
	return b, nil
}

func (f *fakeStores) DeleteVectorStoreFile(_ context.Context, vectorStoreID string, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached == nil {
		f.detached = map[string][]string{}
	}
	f.detached[vectorStoreID] = append(f.detached[vectorStoreID], fileID)
	return nil
}

func (f *fakeStores) DeleteFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

// live lists the files registered in a store and not detached since.
func (f *fakeStores) live(vectorStoreID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	gone := map[string]bool{}
	for _, id := range f.detached[vectorStoreID] {
		gone[id] = true
	}
	var out []string
	for _, batch := range f.batches[vectorStoreID] {
		for _, id := range batch {
			if !gone[id] {
				out = append(out, id)
			}
		}
	}
	return out
}

func newWindowManager(t *testing.T, stores *fakeStores) (*WindowManager, repos.VectorStoreWindowRepo) {
	t.Helper()
	repo := repos.NewVectorStoreWindowRepo(testutil.DB(t), logger.Nop())
	return NewWindowManager(logger.Nop(), repo, stores), repo
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2024-03-04": "2024-03-04",
		"2024-03-06": "2024-03-04",
		"2024-03-10": "2024-03-04",
		"2024-03-11": "2024-03-11",
		"2024-01-03": "2024-01-01",
	}
	for in, want := range cases {
		got, err := WeekStart(in)
		if err != nil || got != want {
			t.Fatalf("WeekStart(%s): want=%s got=%s err=%v", in, want, got, err)
		}
	}
	if _, err := WeekStart("04/03/2024"); err == nil {
		t.Fatalf("want parse error")
	}
}

func TestEnsureWindowSameWeekSharesOneWindow(t *testing.T) {
	stores := &fakeStores{}
	m, _ := newWindowManager(t, stores)

	dates := []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-05"}
	ids := make([]string, len(dates))
	var wg sync.WaitGroup
	errs := make(chan error, len(dates))
	for i, date := range dates {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()
			w, err := m.EnsureWindow(context.Background(), date)
			if err != nil {
				errs <- err
				return
			}
			ids[i] = w.ID.String()
		}(i, date)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("EnsureWindow: %v", err)
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("window ids differ: %v", ids)
		}
	}
	if stores.stores != 1 || stores.assistants != 1 {
		t.Fatalf("creations: stores=%d assistants=%d", stores.stores, stores.assistants)
	}
}

func TestEnsureWindowDifferentWeeks(t *testing.T) {
	stores := &fakeStores{}
	m, _ := newWindowManager(t, stores)
	ctx := context.Background()

	a, err := m.EnsureWindow(ctx, "2024-03-08")
	if err != nil {
		t.Fatalf("EnsureWindow: %v", err)
	}
	b, err := m.EnsureWindow(ctx, "2024-03-11")
	if err != nil {
		t.Fatalf("EnsureWindow: %v", err)
	}
	if a.ID == b.ID || a.StartDate != "2024-03-04" || b.StartDate != "2024-03-11" {
		t.Fatalf("windows: %+v %+v", a, b)
	}
	if b.AssistantID != "asst_"+b.VectorStoreID {
		t.Fatalf("assistant not bound to store: %+v", b)
	}
}

func TestEnsureWindowReusesStoredWindow(t *testing.T) {
	stores := &fakeStores{}
	repo := repos.NewVectorStoreWindowRepo(testutil.DB(t), logger.Nop())
	ctx := context.Background()

	first, err := NewWindowManager(logger.Nop(), repo, stores).EnsureWindow(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("EnsureWindow: %v", err)
	}
	// A fresh manager with an empty cache finds the row by start date.
	second, err := NewWindowManager(logger.Nop(), repo, stores).EnsureWindow(ctx, "2024-03-07")
	if err != nil {
		t.Fatalf("EnsureWindow: %v", err)
	}
	if first.ID != second.ID || stores.stores != 1 {
		t.Fatalf("stored window not reused: %v %v stores=%d", first.ID, second.ID, stores.stores)
	}
}

func testDocs() []Document {
	return []Document{
		{Name: "a.txt", Date: "2024-03-05", Content: []byte("a")},
		{Name: "b.txt", Date: "2024-03-06", Content: []byte("b")},
		{Name: "c.txt", Date: "2024-03-12", Content: []byte("c")},
	}
}

func TestIndexRegistersInPermanentAndWeeklyStores(t *testing.T) {
	stores := &fakeStores{polls: []openai.FileBatch{{Status: openai.BatchStatusInProgress}, {Status: openai.BatchStatusCompleted}}}
	m, _ := newWindowManager(t, stores)
	x := NewIndexer(logger.Nop(), stores, m, nil, "vs_perm")
	x.pollInterval = 0

	if err := x.Index(context.Background(), testDocs()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(stores.uploads) != 3 {
		t.Fatalf("uploads: %v", stores.uploads)
	}
	if got := stores.batches["vs_perm"]; len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("permanent batches: %v", got)
	}
	if got := stores.batches["vs_1"]; len(got) != 1 || strings.Join(got[0], ",") != "file_1,file_2" {
		t.Fatalf("first week batches: %v", got)
	}
	if got := stores.batches["vs_2"]; len(got) != 1 || strings.Join(got[0], ",") != "file_3" {
		t.Fatalf("second week batches: %v", got)
	}
}

func TestIndexChunksLargeBatches(t *testing.T) {
	stores := &fakeStores{}
	m, _ := newWindowManager(t, stores)
	x := NewIndexer(logger.Nop(), stores, m, nil, "vs_perm")
	x.pollInterval = 0
	x.chunkSize = 2

	if err := x.Index(context.Background(), testDocs()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if got := stores.batches["vs_perm"]; len(got) != 2 || len(got[0]) != 2 || len(got[1]) != 1 {
		t.Fatalf("chunks: %v", got)
	}
}

func TestIndexFailedFileCountIsHardFailure(t *testing.T) {
	stores := &fakeStores{polls: []openai.FileBatch{{
		Status:     openai.BatchStatusCompleted,
		FileCounts: openai.FileCounts{Completed: 2, Failed: 1, Total: 3},
	}}}
	m, _ := newWindowManager(t, stores)
	x := NewIndexer(logger.Nop(), stores, m, nil, "vs_perm")
	x.pollInterval = 0

	err := x.Index(context.Background(), testDocs())
	if !errors.Is(err, ErrIndexBatchFailed) {
		t.Fatalf("want batch failure, got %v", err)
	}
}

func TestIndexCancelledBatchFails(t *testing.T) {
	stores := &fakeStores{polls: []openai.FileBatch{{Status: openai.BatchStatusCancelled}}}
	m, _ := newWindowManager(t, stores)
	x := NewIndexer(logger.Nop(), stores, m, nil, "vs_perm")
	x.pollInterval = 0

	if err := x.Index(context.Background(), testDocs()); !errors.Is(err, ErrIndexBatchFailed) {
		t.Fatalf("want batch failure, got %v", err)
	}
}

func TestIndexPollCeilingIsTimeout(t *testing.T) {
	stores := &fakeStores{polls: []openai.FileBatch{{Status: openai.BatchStatusInProgress}}}
	m, _ := newWindowManager(t, stores)
	x := NewIndexer(logger.Nop(), stores, m, nil, "vs_perm")
	x.pollInterval = 0
	x.maxPolls = 4

	err := x.Index(context.Background(), testDocs())
	if !errors.Is(err, ErrIndexTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
	if stores.pollCalls != 3 {
		t.Fatalf("polls: want=3 got=%d", stores.pollCalls)
	}
}

func TestIndexSameDebateTwiceKeepsOneFilePerStore(t *testing.T) {
	stores := &fakeStores{}
	gdb := testutil.DB(t)
	debateRepo := repos.NewDebateRepo(gdb, logger.Nop())
	m := NewWindowManager(logger.Nop(), repos.NewVectorStoreWindowRepo(gdb, logger.Nop()), stores)
	x := NewIndexer(logger.Nop(), stores, m, debateRepo, "vs_perm")
	x.pollInterval = 0
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	in := persistInput("Members debated flood funding.", "Funding must rise")
	if err := debateRepo.UpsertByExtID(dbc, &debates.DebateRecord{ExtID: "D1", Title: "Flood Defences", Date: "2024-03-04"}); err != nil {
		t.Fatalf("UpsertByExtID: %v", err)
	}
	for run := 1; run <= 2; run++ {
		if err := x.Index(ctx, []Document{BuildDocument(in)}); err != nil {
			t.Fatalf("Index run %d: %v", run, err)
		}
	}

	for _, store := range []string{"vs_perm", "vs_1"} {
		if got := stores.live(store); len(got) != 1 || got[0] != "file_2" {
			t.Fatalf("%s holds %v, want only file_2", store, got)
		}
	}
	if strings.Join(stores.deleted, ",") != "file_1" {
		t.Fatalf("deleted: %v", stores.deleted)
	}
	row, err := debateRepo.GetByExtID(dbc, "D1")
	if err != nil || row == nil || row.IndexFileID != "file_2" {
		t.Fatalf("row index file: %+v %v", row, err)
	}
}

func TestBuildDocumentSections(t *testing.T) {
	in := persistInput("Members debated flood funding.", "Funding must rise")
	in.Stats.Speakers = []debates.Speaker{{Name: "Jane Smith", Party: "Labour"}}
	in.Content.Topics = []debates.Topic{{Name: "Environment and Natural Resources", Subtopics: []string{"Water and Flooding"}}}
	in.Divisions[0].Number = 42
	in.Divisions[0].Question = "Should A?"

	doc := BuildDocument(in)
	text := string(doc.Content)
	for _, want := range []string{"## Metadata", "ID: D1", "## Speakers", "- Jane Smith (Labour)", "## Summary", "## Topics", "## Key Points", "## Divisions", "Division 42", "Question: Should A?"} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q:\n%s", want, text)
		}
	}
	if doc.Name != "2024-03-04_commons_D1.txt" || doc.Date != "2024-03-04" || doc.ExtID != "D1" {
		t.Fatalf("document name/date: %s %s", doc.Name, doc.Date)
	}
}
