package steps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/observability"
	"github.com/yungbote/hansard-backend/internal/platform/ctxutil"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ReasonDataLossGuard marks a debate skipped because a merge read-back failed.
const ReasonDataLossGuard = "data_loss_guard"

var ErrIneligible = errors.New("debate ineligible")

type DebateOutcome struct {
	ExtID     string
	Title     string
	Status    Status
	Reason    string
	Type      string
	Score     float64
	Defaulted []string
	Err       error
}

type ProcessOptions struct {
	AIMode    AIMode
	SkipAI    bool
	SkipIndex bool
	DryRun    bool
}

type ProcessDeps struct {
	Log       *logger.Logger
	Divisions DivisionSource
	AI        openai.Client
	Persister *Persister
	// Indexer is nil when indexing is disabled.
	Indexer *Indexer
}

// ProcessDebate takes one debate from classification to the index. An
// ineligible debate is skipped before any downstream call is made.
func ProcessDebate(ctx context.Context, deps ProcessDeps, opts ProcessOptions, members *MemberCache, d debates.Debate) (out DebateOutcome) {
	ov := d.Overview
	out = DebateOutcome{ExtID: ov.ExtID, Title: ov.Title}

	ctx, span := observability.StartSpan(ctx, "debate.process",
		attribute.String("debate.ext_id", ov.ExtID),
		attribute.String("debate.house", string(ov.House)),
	)
	defer func() {
		span.SetAttributes(attribute.String("debate.status", string(out.Status)))
		var spanErr error
		if out.Status == StatusFailed {
			spanErr = out.Err
		}
		observability.EndSpan(span, spanErr)
	}()

	if deps.Log == nil {
		return failed(out, fmt.Errorf("process_debate: missing deps"))
	}
	log := deps.Log.With("debate_ext_id", ov.ExtID)
	if rd := ctxutil.GetRunData(ctx); rd != nil {
		log = log.With("run_id", rd.RunID)
	}

	c := ClassifyDebate(d)
	out.Type = c.Type
	if !c.Eligible {
		out.Status = StatusSkipped
		out.Reason = c.Reason
		out.Err = fmt.Errorf("%w: %s", ErrIneligible, c.Reason)
		log.Debug("Skipping ineligible debate", "title", ov.Title, "reason", c.Reason)
		return out
	}

	var divisions []debates.Division
	if opts.DryRun {
		members.Load(ctx, MemberIDs(d))
	} else {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			members.Load(ctx, MemberIDs(d))
		}()
		go func() {
			defer wg.Done()
			if deps.Divisions == nil {
				return
			}
			divs, err := FetchDivisions(ctx, FetchDivisionsDeps{Log: log, Records: deps.Divisions}, ov)
			if err != nil {
				log.Warn("Division lookup failed, continuing without divisions", "error", err)
				return
			}
			divisions = divs
		}()
		wg.Wait()
	}
	if err := ctx.Err(); err != nil {
		return failed(out, err)
	}

	stats := ComputeStats(d, members)
	if opts.DryRun {
		out.Status = StatusSuccess
		out.Score = ComputeInterestScore(InterestInput{
			SpeakerCount:      stats.SpeakerCount,
			ContributionCount: stats.ContributionCount,
			PartyCounts:       stats.PartyCounts,
		}).Score
		log.Info("Dry run", "title", ov.Title, "type", c.Type, "speakers", stats.SpeakerCount, "words", stats.WordCount)
		return out
	}

	var content *debates.AIContent
	if !opts.SkipAI {
		if deps.AI == nil {
			return failed(out, fmt.Errorf("process_debate: missing AI client"))
		}
		res, err := Analyze(ctx, AnalyzeDeps{Log: log, AI: deps.AI}, AnalyzeInput{
			Debate:    d,
			Type:      c.Type,
			Speakers:  stats.Speakers,
			Members:   members,
			Divisions: divisions,
		})
		if err != nil {
			return failed(out, fmt.Errorf("analyze: %w", err))
		}
		content = &res.Content
		divisions = res.Divisions
		out.Defaulted = res.Content.Defaulted
	}

	in := InterestInput{
		SpeakerCount:      stats.SpeakerCount,
		ContributionCount: stats.ContributionCount,
		PartyCounts:       stats.PartyCounts,
	}
	if content != nil {
		in.Tone = content.Summary.Tone
		in.KeyPoints = content.KeyPoints
	}
	score := ComputeInterestScore(in)
	out.Score = score.Score

	pin := PersistInput{
		Debate:    d,
		Type:      c.Type,
		Stats:     stats,
		Score:     score,
		Content:   content,
		Divisions: divisions,
	}
	if deps.Persister == nil {
		return failed(out, fmt.Errorf("process_debate: missing persister"))
	}
	if err := deps.Persister.Upsert(ctx, pin, opts.AIMode); err != nil {
		var dlr *DataLossRiskError
		if errors.As(err, &dlr) {
			log.Warn("Skipping write to protect stored analysis", "guard", ReasonDataLossGuard, "error", err)
			out.Status = StatusSkipped
			out.Reason = ReasonDataLossGuard
			out.Err = err
			return out
		}
		return failed(out, fmt.Errorf("persist: %w", err))
	}

	if deps.Indexer != nil && !opts.SkipIndex {
		if err := deps.Indexer.Index(ctx, []Document{BuildDocument(pin)}); err != nil {
			return failed(out, fmt.Errorf("index: %w", err))
		}
	}

	out.Status = StatusSuccess
	log.Info("Processed debate", "title", ov.Title, "type", c.Type, "interest_score", score.Score, "divisions", len(divisions))
	return out
}

func failed(out DebateOutcome, err error) DebateOutcome {
	out.Status = StatusFailed
	out.Err = err
	return out
}
