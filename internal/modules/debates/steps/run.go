package steps

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/db"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/observability"
	"github.com/yungbote/hansard-backend/internal/platform/ctxutil"
	"github.com/yungbote/hansard-backend/internal/platform/httpx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 2 * time.Second
)

// RecordsSource is the parliamentary records API as the runner uses it.
type RecordsSource interface {
	DivisionSource
	MemberFetcher
	LastSittingDay(ctx context.Context, house debates.House) (string, error)
	ListSittingDay(ctx context.Context, date string, house debates.House) ([]debates.Summary, error)
	GetDebate(ctx context.Context, extID string) (*debates.Debate, error)
}

// Notifier receives the summary of every finished run.
type Notifier interface {
	PublishRunSummary(ctx context.Context, summary debates.RunSummary) error
}

type RunnerDeps struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Records   RecordsSource
	AI        openai.Client
	Persister *Persister
	Indexer   *Indexer
	Notifier  Notifier
}

type RunnerConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// RunRequest selects debates by sitting day, by ext id, or both. Latest adds
// the most recent sitting day of each house.
type RunRequest struct {
	Dates     []string
	Houses    []debates.House
	DebateIDs []string
	Latest    bool
	Options   ProcessOptions
}

type RunResult struct {
	RunID    string
	Success  int
	Failed   int
	Skipped  int
	Outcomes []DebateOutcome
}

type Runner struct {
	log  *logger.Logger
	deps RunnerDeps
	cfg  RunnerConfig
}

func NewRunner(deps RunnerDeps, cfg RunnerConfig) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	return &Runner{log: deps.Log.With("service", "Runner"), deps: deps, cfg: cfg}
}

// Run processes every selected debate in sequential batches of concurrent
// debates. Only a listing failure or an unreachable datastore is returned as
// an error; per-debate failures are counted in the result.
func (r *Runner) Run(ctx context.Context, req RunRequest) (res RunResult, err error) {
	res.RunID = uuid.NewString()
	started := time.Now().UTC()
	log := r.log.With("run_id", res.RunID)

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("run.id", res.RunID),
		attribute.Bool("run.dry_run", req.Options.DryRun),
	)
	defer func() {
		span.SetAttributes(
			attribute.Int("run.success", res.Success),
			attribute.Int("run.failed", res.Failed),
			attribute.Int("run.skipped", res.Skipped),
		)
		observability.EndSpan(span, err)
	}()
	ctx = ctxutil.WithRunData(ctx, &ctxutil.RunData{
		RunID:   res.RunID,
		TraceID: span.SpanContext().TraceID().String(),
	})

	if r.deps.Records == nil {
		return res, fmt.Errorf("run: missing records source")
	}
	if !req.Options.DryRun {
		if err := db.Ping(ctx, r.deps.DB); err != nil {
			return res, fmt.Errorf("run: datastore unreachable: %w", err)
		}
	}

	dates, ids, err := r.targets(ctx, req)
	if err != nil {
		return res, err
	}
	log.Info("Run started", "dates", strings.Join(dates, ","), "debates", len(ids), "dry_run", req.Options.DryRun, "skip_ai", req.Options.SkipAI)

	members := NewMemberCache(r.deps.Log, r.deps.Records)
	pdeps := ProcessDeps{
		Log:       r.deps.Log,
		Divisions: r.deps.Records,
		AI:        r.deps.AI,
		Persister: r.deps.Persister,
		Indexer:   r.deps.Indexer,
	}

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	record := func(o DebateOutcome) {
		mu.Lock()
		defer mu.Unlock()
		res.Outcomes = append(res.Outcomes, o)
		switch o.Status {
		case StatusSuccess:
			res.Success++
		case StatusSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}
	claim := func(extID string) bool {
		mu.Lock()
		defer mu.Unlock()
		if seen[extID] {
			return false
		}
		seen[extID] = true
		return true
	}

	for start := 0; start < len(ids); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		bctx, bspan := observability.StartSpan(ctx, "pipeline.batch",
			attribute.Int("batch.start", start),
			attribute.Int("batch.size", len(batch)),
		)

		var g errgroup.Group
		for _, extID := range batch {
			extID := extID
			g.Go(func() error {
				d, err := r.deps.Records.GetDebate(bctx, extID)
				if err == nil && d == nil {
					err = fmt.Errorf("debate %s not found", extID)
				}
				if err != nil {
					log.Warn("Debate fetch failed", "debate_ext_id", extID, "error", err)
					record(DebateOutcome{ExtID: extID, Status: StatusFailed, Err: fmt.Errorf("fetch: %w", err)})
					return nil
				}
				// Each flattened debate gets its own task in the batch's group.
				// This task is still running, so the group stays open while it adds them.
				for _, item := range d.Flatten() {
					if !claim(item.Overview.ExtID) {
						continue
					}
					item := item
					g.Go(func() error {
						record(ProcessDebate(bctx, pdeps, req.Options, members, item))
						return nil
					})
				}
				return nil
			})
		}
		_ = g.Wait()
		observability.EndSpan(bspan, nil)

		if end < len(ids) {
			if err := httpx.Sleep(ctx, r.cfg.BatchDelay); err != nil {
				log.Warn("Run interrupted between batches", "error", err)
				break
			}
		}
	}

	for _, o := range res.Outcomes {
		if o.Status == StatusFailed {
			log.Warn("Debate failed", "debate_ext_id", o.ExtID, "title", o.Title, "error", o.Err)
		}
	}
	log.Info("Run finished",
		"success", res.Success,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"members_cached", members.Len(),
		"elapsed", time.Since(started).String(),
	)
	r.notify(ctx, log, debates.RunSummary{
		RunID:      res.RunID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Dates:      dates,
		DebateIDs:  ids,
		Success:    res.Success,
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		DryRun:     req.Options.DryRun,
	})
	return res, nil
}

// targets resolves the request into sitting days and root debate ext ids,
// in request order without duplicates.
func (r *Runner) targets(ctx context.Context, req RunRequest) ([]string, []string, error) {
	houses := req.Houses
	if len(houses) == 0 {
		houses = []debates.House{debates.HouseCommons, debates.HouseLords}
	}

	type day struct {
		date  string
		house debates.House
	}
	var days []day
	for _, date := range req.Dates {
		for _, h := range houses {
			days = append(days, day{date: date, house: h})
		}
	}
	if req.Latest {
		for _, h := range houses {
			date, err := r.deps.Records.LastSittingDay(ctx, h)
			if err != nil {
				return nil, nil, fmt.Errorf("run: last sitting day for %s: %w", h, err)
			}
			days = append(days, day{date: date, house: h})
		}
	}

	seenDate := map[string]bool{}
	seenID := map[string]bool{}
	var dates, ids []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seenID[id] {
			seenID[id] = true
			ids = append(ids, id)
		}
	}
	for _, dd := range days {
		if !seenDate[dd.date] {
			seenDate[dd.date] = true
			dates = append(dates, dd.date)
		}
		listed, err := r.deps.Records.ListSittingDay(ctx, dd.date, dd.house)
		if err != nil {
			return nil, nil, fmt.Errorf("run: %w", err)
		}
		for _, s := range listed {
			add(s.ExtID)
		}
	}
	for _, id := range req.DebateIDs {
		add(id)
	}
	return dates, ids, nil
}

func (r *Runner) notify(ctx context.Context, log *logger.Logger, summary debates.RunSummary) {
	if r.deps.Notifier == nil {
		return
	}
	if err := r.deps.Notifier.PublishRunSummary(ctx, summary); err != nil {
		log.Warn("Run summary notification failed", "error", err)
	}
}
