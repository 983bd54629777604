package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/hansard-backend/internal/data/repos"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/httpx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

const (
	IndexChunkSize    = 100
	IndexPollInterval = 2 * time.Second
	IndexMaxPolls     = 60
)

var (
	ErrIndexBatchFailed = errors.New("index batch failed")
	ErrIndexTimeout     = errors.New("index batch timed out")
)

const assistantInstructions = "You answer questions about UK parliamentary debates. Use file search over the debate documents and cite the debate title and date."

// WeekStart returns the Monday of the week containing date (YYYY-MM-DD).
func WeekStart(date string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("week start: %w", err)
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format("2006-01-02"), nil
}

// WindowManager resolves the weekly index window for a date, creating the
// backing store and its assistant the first time a week is seen. Concurrent
// callers for the same week share one lookup or creation.
type WindowManager struct {
	log      *logger.Logger
	repo     repos.VectorStoreWindowRepo
	provider openai.VectorStores

	mu      sync.Mutex
	windows map[string]*debates.VectorStoreWindow
	group   singleflight.Group
}

func NewWindowManager(baseLog *logger.Logger, repo repos.VectorStoreWindowRepo, provider openai.VectorStores) *WindowManager {
	return &WindowManager{
		log:      baseLog.With("service", "WindowManager"),
		repo:     repo,
		provider: provider,
		windows:  map[string]*debates.VectorStoreWindow{},
	}
}

func (m *WindowManager) cached(week string) *debates.VectorStoreWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[week]
}

func (m *WindowManager) EnsureWindow(ctx context.Context, date string) (*debates.VectorStoreWindow, error) {
	week, err := WeekStart(date)
	if err != nil {
		return nil, err
	}
	if w := m.cached(week); w != nil {
		return w, nil
	}
	v, err, _ := m.group.Do(week, func() (interface{}, error) {
		if w := m.cached(week); w != nil {
			return w, nil
		}
		w, err := m.resolve(ctx, week)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.windows[week] = w
		m.mu.Unlock()
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*debates.VectorStoreWindow), nil
}

func (m *WindowManager) resolve(ctx context.Context, week string) (*debates.VectorStoreWindow, error) {
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := m.repo.GetByStartDate(dbc, week)
	if err != nil {
		return nil, fmt.Errorf("lookup window %s: %w", week, err)
	}
	if existing != nil {
		return existing, nil
	}

	name := "hansard-week-" + week
	storeID, err := m.provider.CreateVectorStore(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create vector store for %s: %w", week, err)
	}
	assistantID, err := m.provider.CreateAssistant(ctx, "Hansard week of "+week, assistantInstructions, storeID)
	if err != nil {
		return nil, fmt.Errorf("create assistant for %s: %w", week, err)
	}
	stored, err := m.repo.Create(dbc, &debates.VectorStoreWindow{
		StartDate:     week,
		VectorStoreID: storeID,
		AssistantID:   assistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("persist window %s: %w", week, err)
	}
	if stored.VectorStoreID != storeID {
		m.log.Warn("Window created concurrently elsewhere, using stored window",
			"week", week,
			"stored_vector_store_id", stored.VectorStoreID,
			"orphaned_vector_store_id", storeID,
		)
	} else {
		m.log.Info("Created weekly index window", "week", week, "vector_store_id", storeID, "assistant_id", assistantID)
	}
	return stored, nil
}

// Indexer uploads debate documents and registers them in the permanent store
// and in the weekly window for each document's date. Each debate keeps at most
// one indexed file: the one recorded on its row is retired before a new upload.
type Indexer struct {
	log          *logger.Logger
	provider     openai.VectorStores
	windows      *WindowManager
	debates      repos.DebateRepo
	permanentID  string
	chunkSize    int
	pollInterval time.Duration
	maxPolls     int
}

func NewIndexer(baseLog *logger.Logger, provider openai.VectorStores, windows *WindowManager, debateRepo repos.DebateRepo, permanentStoreID string) *Indexer {
	return &Indexer{
		log:          baseLog.With("service", "Indexer"),
		provider:     provider,
		windows:      windows,
		debates:      debateRepo,
		permanentID:  strings.TrimSpace(permanentStoreID),
		chunkSize:    IndexChunkSize,
		pollInterval: IndexPollInterval,
		maxPolls:     IndexMaxPolls,
	}
}

func (x *Indexer) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	byWeek := map[string][]string{}
	storeOf := map[string]string{}
	var weeks []string
	all := make([]string, 0, len(docs))
	fileOf := make([]string, len(docs))
	for i, doc := range docs {
		week, err := WeekStart(doc.Date)
		if err != nil {
			return fmt.Errorf("index %s: %w", doc.Name, err)
		}
		w, err := x.windows.EnsureWindow(ctx, week)
		if err != nil {
			return err
		}
		if err := x.retire(ctx, doc, w.VectorStoreID); err != nil {
			return fmt.Errorf("retire previous file of %s: %w", doc.Name, err)
		}
		fileID, err := x.provider.UploadFile(ctx, doc.Name, doc.Content)
		if err != nil {
			return fmt.Errorf("upload %s: %w", doc.Name, err)
		}
		if _, ok := byWeek[week]; !ok {
			weeks = append(weeks, week)
			storeOf[week] = w.VectorStoreID
		}
		byWeek[week] = append(byWeek[week], fileID)
		all = append(all, fileID)
		fileOf[i] = fileID
	}

	if x.permanentID != "" {
		if err := x.register(ctx, x.permanentID, all); err != nil {
			return fmt.Errorf("permanent index: %w", err)
		}
	} else {
		x.log.Warn("No permanent vector store configured, skipping", "files", len(all))
	}

	for _, week := range weeks {
		if err := x.register(ctx, storeOf[week], byWeek[week]); err != nil {
			return fmt.Errorf("weekly index %s: %w", week, err)
		}
	}

	for i, doc := range docs {
		if x.debates == nil || doc.ExtID == "" {
			continue
		}
		if err := x.debates.SetIndexFileID(dbctx.Context{Ctx: ctx}, doc.ExtID, fileOf[i]); err != nil {
			return fmt.Errorf("record index file of %s: %w", doc.Name, err)
		}
	}
	return nil
}

// retire detaches the debate's previously indexed file from both stores and
// deletes it, then clears it from the row.
func (x *Indexer) retire(ctx context.Context, doc Document, weekStoreID string) error {
	if x.debates == nil || doc.ExtID == "" {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := x.debates.GetByExtID(dbc, doc.ExtID)
	if err != nil {
		return err
	}
	if row == nil || row.IndexFileID == "" {
		return nil
	}
	prev := row.IndexFileID
	if x.permanentID != "" {
		if err := x.provider.DeleteVectorStoreFile(ctx, x.permanentID, prev); err != nil {
			return fmt.Errorf("detach %s from permanent store: %w", prev, err)
		}
	}
	if err := x.provider.DeleteVectorStoreFile(ctx, weekStoreID, prev); err != nil {
		return fmt.Errorf("detach %s from weekly store: %w", prev, err)
	}
	if err := x.provider.DeleteFile(ctx, prev); err != nil {
		return fmt.Errorf("delete %s: %w", prev, err)
	}
	if err := x.debates.SetIndexFileID(dbc, doc.ExtID, ""); err != nil {
		return err
	}
	x.log.Debug("Retired previous index file", "debate_ext_id", doc.ExtID, "file_id", prev)
	return nil
}

// register adds fileIDs to a store in chunks, waiting on each batch.
func (x *Indexer) register(ctx context.Context, storeID string, fileIDs []string) error {
	size := x.chunkSize
	if size <= 0 {
		size = IndexChunkSize
	}
	for start := 0; start < len(fileIDs); start += size {
		end := start + size
		if end > len(fileIDs) {
			end = len(fileIDs)
		}
		batch, err := x.provider.CreateFileBatch(ctx, storeID, fileIDs[start:end])
		if err != nil {
			return fmt.Errorf("create file batch: %w", err)
		}
		if err := x.wait(ctx, storeID, batch); err != nil {
			return err
		}
	}
	return nil
}

func (x *Indexer) wait(ctx context.Context, storeID string, batch openai.FileBatch) error {
	for attempt := 1; ; attempt++ {
		if batch.FileCounts.Failed > 0 {
			return fmt.Errorf("%w: batch %s has %d failed files", ErrIndexBatchFailed, batch.ID, batch.FileCounts.Failed)
		}
		if batch.Terminal() {
			if batch.Status == openai.BatchStatusCompleted {
				return nil
			}
			return fmt.Errorf("%w: batch %s %s", ErrIndexBatchFailed, batch.ID, batch.Status)
		}
		if attempt >= x.maxPolls {
			return fmt.Errorf("%w: batch %s still %s after %d polls", ErrIndexTimeout, batch.ID, batch.Status, attempt)
		}
		if err := httpx.Sleep(ctx, x.pollInterval); err != nil {
			return err
		}
		next, err := x.provider.GetFileBatch(ctx, storeID, batch.ID)
		if err != nil {
			return fmt.Errorf("poll file batch %s: %w", batch.ID, err)
		}
		batch = next
	}
}
