package steps

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/repos"
	"github.com/yungbote/hansard-backend/internal/data/repos/testutil"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

type fakeRecords struct {
	*fakeDivisions
	*fakeMembers

	mu        sync.Mutex
	lastDay   string
	listing   map[string][]debates.Summary
	listErr   error
	debates   map[string]debates.Debate
	listCalls int
}

func (f *fakeRecords) LastSittingDay(_ context.Context, _ debates.House) (string, error) {
	return f.lastDay, nil
}

func (f *fakeRecords) ListSittingDay(_ context.Context, date string, house debates.House) ([]debates.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listing[date+"|"+string(house)], nil
}

func (f *fakeRecords) GetDebate(_ context.Context, extID string) (*debates.Debate, error) {
	d, ok := f.debates[extID]
	if !ok {
		return nil, errors.New("records api 500")
	}
	return &d, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []debates.RunSummary
}

func (f *fakeNotifier) PublishRunSummary(_ context.Context, s debates.RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
	return nil
}

type runFixture struct {
	runner   *Runner
	records  *fakeRecords
	ai       *fakeAI
	notifier *fakeNotifier
	debates  repos.DebateRepo
	db       *gorm.DB
}

func sittingDebates() map[string]debates.Debate {
	return map[string]debates.Debate{
		"P": {
			Overview: debates.Overview{ExtID: "P", Title: "Prayers", Date: "2024-03-04", House: debates.HouseCommons},
			Items:    []debates.Contribution{contribution(1, "<p>Amen</p>")},
		},
		"C1": {
			Overview: debates.Overview{ExtID: "C1", Title: "Flood Defences", Date: "2024-03-04", House: debates.HouseCommons, Location: "Commons Chamber"},
			Items: []debates.Contribution{
				contribution(1, "<p>The Minister must fund flood defences.</p>"),
				contribution(2, "<p>The Bill does not go far enough.</p>"),
			},
		},
		"ROOT": {
			Overview: debates.Overview{ExtID: "ROOT", Title: "Education", Date: "2024-03-04", House: debates.HouseCommons, HRSTag: "hs_3MainHdg"},
			ChildDebates: []debates.Debate{{
				Overview: debates.Overview{ExtID: "C2", Title: "School Funding"},
				Items:    []debates.Contribution{contribution(2, "<p>Schools need more money.</p>")},
			}},
		},
		"L1": {
			Overview: debates.Overview{ExtID: "L1", Title: "Arts Council", Date: "2024-03-05", House: debates.HouseLords, Location: "Grand Committee"},
			Items:    []debates.Contribution{contribution(3, "<p>My Lords, the arts matter.</p>")},
		},
	}
}

func newRunFixture(t *testing.T) runFixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := logger.Nop()
	records := &fakeRecords{
		fakeDivisions: &fakeDivisions{},
		fakeMembers: &fakeMembers{members: map[int]debates.Member{
			1: {ID: 1, DisplayName: "Jane Smith", Party: "Labour"},
			2: {ID: 2, DisplayName: "John Jones", Party: "Conservative"},
			3: {ID: 3, DisplayName: "Lord Brown", Party: "Crossbench"},
		}},
		lastDay: "2024-03-04",
		listing: map[string][]debates.Summary{
			"2024-03-04|Commons": {{ExtID: "P"}, {ExtID: "C1"}, {ExtID: "ROOT"}, {ExtID: "MISSING"}},
		},
		debates: sittingDebates(),
	}
	ai := &fakeAI{responses: cannedResponses()}
	notifier := &fakeNotifier{}
	debateRepo := repos.NewDebateRepo(gdb, log)
	runner := NewRunner(RunnerDeps{
		Log:       log,
		DB:        gdb,
		Records:   records,
		AI:        ai,
		Persister: NewPersister(log, gdb, debateRepo, repos.NewDivisionRepo(gdb, log)),
		Notifier:  notifier,
	}, RunnerConfig{BatchSize: 2, BatchDelay: time.Millisecond})
	return runFixture{runner: runner, records: records, ai: ai, notifier: notifier, debates: debateRepo, db: gdb}
}

func (f runFixture) row(t *testing.T, extID string) *debates.DebateRecord {
	t.Helper()
	row, err := f.debates.GetByExtID(dbctx.Context{Ctx: context.Background()}, extID)
	if err != nil {
		t.Fatalf("GetByExtID(%s): %v", extID, err)
	}
	return row
}

func TestRunSkipsPrayersWithoutDownstreamCalls(t *testing.T) {
	f := newRunFixture(t)

	res, err := f.runner.Run(context.Background(), RunRequest{DebateIDs: []string{"P"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 || res.Success != 0 || res.Failed != 0 {
		t.Fatalf("counts: %+v", res)
	}
	o := res.Outcomes[0]
	if o.Reason != ReasonPrayers || !errors.Is(o.Err, ErrIneligible) {
		t.Fatalf("outcome: %+v", o)
	}
	if f.ai.totalCalls() != 0 || f.records.fakeDivisions.listCalls != 0 || len(f.records.fakeMembers.calls) != 0 {
		t.Fatalf("downstream calls made: ai=%d divisions=%d members=%v", f.ai.totalCalls(), f.records.fakeDivisions.listCalls, f.records.fakeMembers.calls)
	}
	if f.row(t, "P") != nil {
		t.Fatalf("skipped debate persisted")
	}
}

func TestRunGrandCommitteeDebate(t *testing.T) {
	f := newRunFixture(t)

	res, err := f.runner.Run(context.Background(), RunRequest{DebateIDs: []string{"L1"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success != 1 {
		t.Fatalf("counts: %+v", res)
	}
	row := f.row(t, "L1")
	if row == nil || row.Type != TypeGrandCommittee || row.House != "Lords" {
		t.Fatalf("row: %+v", row)
	}
	if row.AITone != debates.ToneContentious || row.InterestScore <= 0 || row.SpeakerCount != 1 {
		t.Fatalf("analysis not stored: tone=%q score=%v speakers=%d", row.AITone, row.InterestScore, row.SpeakerCount)
	}
}

func TestRunAggregatesOutcomes(t *testing.T) {
	f := newRunFixture(t)

	res, err := f.runner.Run(context.Background(), RunRequest{
		Dates:     []string{"2024-03-04"},
		Houses:    []debates.House{debates.HouseCommons},
		DebateIDs: []string{"C1"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// P and ROOT skipped, C1 and the child C2 processed, MISSING failed.
	if res.Success != 2 || res.Skipped != 2 || res.Failed != 1 || len(res.Outcomes) != 5 {
		t.Fatalf("counts: success=%d skipped=%d failed=%d outcomes=%d", res.Success, res.Skipped, res.Failed, len(res.Outcomes))
	}
	child := f.row(t, "C2")
	if child == nil || child.ParentExtID != "ROOT" || child.Date != "2024-03-04" {
		t.Fatalf("child row: %+v", child)
	}

	if len(f.notifier.summaries) != 1 {
		t.Fatalf("notifications: %d", len(f.notifier.summaries))
	}
	s := f.notifier.summaries[0]
	if s.RunID != res.RunID || s.Success != 2 || s.Failed != 1 || s.Skipped != 2 || len(s.DebateIDs) != 4 {
		t.Fatalf("summary: %+v", s)
	}
}

func TestRunRefusalFailsDebate(t *testing.T) {
	f := newRunFixture(t)
	f.ai.errs = map[string]error{"comment_thread": &openai.RefusalError{Reason: "no"}}

	res, err := f.runner.Run(context.Background(), RunRequest{DebateIDs: []string{"C1"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || !errors.Is(res.Outcomes[0].Err, openai.ErrRefusal) {
		t.Fatalf("outcome: %+v", res.Outcomes)
	}
	if f.row(t, "C1") != nil {
		t.Fatalf("refused debate persisted")
	}
}

func TestRunSkipAIKeepsStatsOnly(t *testing.T) {
	f := newRunFixture(t)

	res, err := f.runner.Run(context.Background(), RunRequest{
		DebateIDs: []string{"C1"},
		Options:   ProcessOptions{AIMode: AIModeReplace, SkipAI: true},
	})
	if err != nil || res.Success != 1 {
		t.Fatalf("Run: %+v %v", res, err)
	}
	if f.ai.totalCalls() != 0 {
		t.Fatalf("AI called with SkipAI")
	}
	row := f.row(t, "C1")
	if row == nil || row.AISummary != "" || row.ContributionCount != 2 {
		t.Fatalf("row: %+v", row)
	}
}

func TestRunSkipAIAfterAnalysisKeepsStoredAnalysis(t *testing.T) {
	f := newRunFixture(t)
	ctx := context.Background()

	if _, err := f.runner.Run(ctx, RunRequest{DebateIDs: []string{"C1"}}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	analysed := f.row(t, "C1")
	if analysed == nil || analysed.AISummary == "" {
		t.Fatalf("first run stored no analysis: %+v", analysed)
	}

	res, err := f.runner.Run(ctx, RunRequest{
		DebateIDs: []string{"C1"},
		Options:   ProcessOptions{AIMode: AIModeReplace, SkipAI: true},
	})
	if err != nil || res.Success != 1 {
		t.Fatalf("skip-ai run: %+v %v", res, err)
	}
	row := f.row(t, "C1")
	if row.AISummary != analysed.AISummary || string(row.AIKeyPoints) != string(analysed.AIKeyPoints) {
		t.Fatalf("analysis erased: summary=%q key_points=%s", row.AISummary, row.AIKeyPoints)
	}
}

// gateAI holds every summary call until want of them are in flight at once,
// or until a timeout when they never overlap.
type gateAI struct {
	*fakeAI
	want    int
	mu      sync.Mutex
	arrived int
	open    chan struct{}
}

func (g *gateAI) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "debate_summary" {
		g.mu.Lock()
		g.arrived++
		if g.arrived == g.want {
			close(g.open)
		}
		g.mu.Unlock()
		select {
		case <-g.open:
		case <-time.After(2 * time.Second):
		}
	}
	return g.fakeAI.GenerateJSON(ctx, system, user, schemaName, schema)
}

func TestRunProcessesChildDebatesConcurrently(t *testing.T) {
	f := newRunFixture(t)
	root := f.records.debates["ROOT"]
	root.ChildDebates = append(root.ChildDebates, debates.Debate{
		Overview: debates.Overview{ExtID: "C3", Title: "School Meals"},
		Items:    []debates.Contribution{contribution(1, "<p>Free meals for every pupil.</p>")},
	})
	f.records.debates["ROOT"] = root
	gate := &gateAI{fakeAI: f.ai, want: 2, open: make(chan struct{})}
	f.runner.deps.AI = gate

	res, err := f.runner.Run(context.Background(), RunRequest{DebateIDs: []string{"ROOT"}})
	if err != nil || res.Success != 2 || res.Skipped != 1 {
		t.Fatalf("Run: %+v %v", res, err)
	}
	select {
	case <-gate.open:
	default:
		t.Fatalf("child debates were not processed concurrently")
	}
}

func TestRunDryRunPersistsNothing(t *testing.T) {
	f := newRunFixture(t)

	res, err := f.runner.Run(context.Background(), RunRequest{Latest: true, Houses: []debates.House{debates.HouseCommons}, Options: ProcessOptions{DryRun: true}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success != 2 || f.ai.totalCalls() != 0 {
		t.Fatalf("dry run: %+v calls=%d", res, f.ai.totalCalls())
	}
	if f.row(t, "C1") != nil {
		t.Fatalf("dry run persisted")
	}
	if !f.notifier.summaries[0].DryRun {
		t.Fatalf("summary not marked dry run")
	}
}

func TestRunListingFailureEscapes(t *testing.T) {
	f := newRunFixture(t)
	f.records.listErr = errors.New("records api down")

	_, err := f.runner.Run(context.Background(), RunRequest{Dates: []string{"2024-03-04"}})
	if err == nil {
		t.Fatalf("want listing error")
	}
	if len(f.notifier.summaries) != 0 {
		t.Fatalf("failed run notified")
	}
}

func TestRunUnreachableDatastoreEscapes(t *testing.T) {
	f := newRunFixture(t)
	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	_ = sqlDB.Close()

	if _, err := f.runner.Run(context.Background(), RunRequest{DebateIDs: []string{"C1"}}); err == nil {
		t.Fatalf("want ping error")
	}
	if f.records.listCalls != 0 {
		t.Fatalf("listing attempted before ping")
	}
}
