package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hansard-backend/internal/data/db"
	"github.com/yungbote/hansard-backend/internal/data/repos"
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/dbctx"
	"github.com/yungbote/hansard-backend/internal/platform/httpx"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type AIMode string

const (
	// AIModeReplace writes the freshly computed AI fields as they are.
	AIModeReplace AIMode = "replace"
	// AIModeMerge keeps stored AI fields for any generator not recomputed.
	AIModeMerge AIMode = "merge"
)

func ParseAIMode(s string) (AIMode, bool) {
	switch AIMode(strings.ToLower(strings.TrimSpace(s))) {
	case AIModeReplace, "":
		return AIModeReplace, true
	case AIModeMerge:
		return AIModeMerge, true
	default:
		return "", false
	}
}

const (
	persistAttempts = 3
	persistDelay    = 2 * time.Second
)

// DataLossRiskError aborts a merge write whose read-back failed. Writing
// without the stored row would drop AI fields that were not recomputed.
type DataLossRiskError struct {
	ExtID string
	Err   error
}

func (e *DataLossRiskError) Error() string {
	return fmt.Sprintf("data loss guard: read-back of %s failed: %v", e.ExtID, e.Err)
}

func (e *DataLossRiskError) Unwrap() error { return e.Err }

type PersistInput struct {
	Debate debates.Debate
	Type   string
	Stats  debates.Stats
	Score  debates.InterestScore
	// Content is nil when analysis was skipped for this run.
	Content   *debates.AIContent
	Divisions []debates.Division
}

type Persister struct {
	log       *logger.Logger
	db        *gorm.DB
	tx        db.TxRunner
	debates   repos.DebateRepo
	divisions repos.DivisionRepo
	attempts  int
	delay     time.Duration
}

func NewPersister(baseLog *logger.Logger, gdb *gorm.DB, debateRepo repos.DebateRepo, divisionRepo repos.DivisionRepo) *Persister {
	return &Persister{
		log:       baseLog.With("service", "Persister"),
		db:        gdb,
		tx:        db.NewGormTxRunner(gdb),
		debates:   debateRepo,
		divisions: divisionRepo,
		attempts:  persistAttempts,
		delay:     persistDelay,
	}
}

// Upsert writes the debate and its divisions in one transaction, keyed by
// ext id. Transient timeouts are retried. Without fresh content the write
// always merges over the stored row.
func (p *Persister) Upsert(ctx context.Context, in PersistInput, mode AIMode) error {
	extID := strings.TrimSpace(in.Debate.Overview.ExtID)
	if extID == "" {
		return fmt.Errorf("persist: missing ext id")
	}
	row, err := BuildDebateRecord(in, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("persist %s: %w", extID, err)
	}
	divRows, err := BuildDivisionRecords(in.Divisions)
	if err != nil {
		return fmt.Errorf("persist %s: %w", extID, err)
	}

	// A run that skipped analysis recomputed no AI field, so whatever the mode
	// the stored analysis is read back and kept.
	if mode == AIModeMerge || in.Content == nil {
		if err := p.mergeStored(ctx, extID, in.Content, row, divRows); err != nil {
			return err
		}
	}

	return p.retry(ctx, "upsert", extID, func() error {
		return p.tx.InTx(ctx, func(dbc dbctx.Context) error {
			if err := p.debates.UpsertByExtID(dbc, row); err != nil {
				return fmt.Errorf("upsert debate: %w", err)
			}
			if err := p.divisions.UpsertByExtID(dbc, divRows); err != nil {
				return fmt.Errorf("upsert divisions: %w", err)
			}
			return nil
		})
	})
}

// mergeStored lays the stored AI fields under the fresh row for every
// generator that did not produce new output.
func (p *Persister) mergeStored(ctx context.Context, extID string, content *debates.AIContent, row *debates.DebateRecord, divRows []*debates.DivisionRecord) error {
	keep := notRecomputed(content)
	if len(keep) == 0 {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}

	var stored *debates.DebateRecord
	err := p.retry(ctx, "read-back", extID, func() error {
		var err error
		stored, err = p.debates.GetByExtID(dbc, extID)
		return err
	})
	if err != nil {
		return &DataLossRiskError{ExtID: extID, Err: err}
	}
	if stored == nil {
		return nil
	}
	mergeDebateRecord(row, stored, keep)

	if !keep[GeneratorDivisionQuestions] || len(divRows) == 0 {
		return nil
	}
	var storedDivs []*debates.DivisionRecord
	err = p.retry(ctx, "read-back divisions", extID, func() error {
		var err error
		storedDivs, err = p.divisions.GetByDebateExtID(dbc, extID)
		return err
	})
	if err != nil {
		return &DataLossRiskError{ExtID: extID, Err: err}
	}
	mergeDivisionRecords(divRows, storedDivs)
	return nil
}

func (p *Persister) retry(ctx context.Context, op, extID string, fn func() error) error {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !db.IsTransientTimeout(err) || attempt == attempts {
			break
		}
		p.log.Warn("Datastore timeout, retrying",
			"op", op,
			"debate_ext_id", extID,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err.Error(),
		)
		if sErr := httpx.Sleep(ctx, p.delay); sErr != nil {
			return sErr
		}
	}
	return err
}

// notRecomputed returns the generators whose stored output must survive.
func notRecomputed(content *debates.AIContent) map[string]bool {
	keep := map[string]bool{}
	if content == nil {
		for _, name := range generatorOrder {
			keep[name] = true
		}
		return keep
	}
	for _, name := range content.Defaulted {
		keep[name] = true
	}
	return keep
}

func mergeDebateRecord(row, stored *debates.DebateRecord, keep map[string]bool) {
	if keep[GeneratorSummary] {
		row.AITitle = stored.AITitle
		row.AIOverview = stored.AIOverview
		row.AISummary = stored.AISummary
		row.AITone = stored.AITone
		row.AIKeyThemes = stored.AIKeyThemes
	}
	if keep[GeneratorQuestion] {
		row.AIQuestion = stored.AIQuestion
		row.AIQuestionTopic = stored.AIQuestionTopic
		row.AIQuestionContext = stored.AIQuestionContext
	}
	if keep[GeneratorTopics] {
		row.AITopics = stored.AITopics
	}
	if keep[GeneratorKeyPoints] {
		row.AIKeyPoints = stored.AIKeyPoints
	}
	if keep[GeneratorComments] {
		row.AIComments = stored.AIComments
	}
	// The score is derived from the summary tone and key points.
	if keep[GeneratorSummary] && keep[GeneratorKeyPoints] {
		row.InterestScore = stored.InterestScore
		row.InterestFactors = stored.InterestFactors
	}
}

func mergeDivisionRecords(rows, stored []*debates.DivisionRecord) {
	byExtID := make(map[string]*debates.DivisionRecord, len(stored))
	for _, s := range stored {
		byExtID[s.ExtID] = s
	}
	for _, r := range rows {
		s, ok := byExtID[r.ExtID]
		if !ok || s.Question == "" || s.Question == debates.PlaceholderQuestion {
			continue
		}
		r.Question = s.Question
		r.Topic = s.Topic
		r.Context = s.Context
		r.ArgumentsFor = s.ArgumentsFor
		r.ArgumentsAgainst = s.ArgumentsAgainst
	}
}

// BuildDebateRecord flattens a processed debate into its stored row.
func BuildDebateRecord(in PersistInput, processedAt time.Time) (*debates.DebateRecord, error) {
	ov := in.Debate.Overview
	row := &debates.DebateRecord{
		ExtID:             strings.TrimSpace(ov.ExtID),
		Title:             ov.Title,
		Date:              ov.Date,
		House:             string(ov.House),
		Location:          ov.Location,
		Type:              in.Type,
		ParentExtID:       ov.ParentExtID,
		PrevExtID:         ov.PreviousDebateExtID,
		NextExtID:         ov.NextDebateExtID,
		ContributionCount: in.Stats.ContributionCount,
		SpeakerCount:      in.Stats.SpeakerCount,
		WordCount:         in.Stats.WordCount,
		InterestScore:     in.Score.Score,
		ProcessedAt:       processedAt,
	}

	var err error
	if row.PartyCounts, err = jsonColumn(in.Stats.PartyCounts, "{}"); err != nil {
		return nil, err
	}
	if row.Speakers, err = jsonColumn(in.Stats.Speakers, "[]"); err != nil {
		return nil, err
	}
	if row.InterestFactors, err = jsonColumn(in.Score.Factors, "{}"); err != nil {
		return nil, err
	}

	c := in.Content
	if c == nil {
		c = &debates.AIContent{}
	}
	row.AITitle = c.Summary.Title
	row.AIOverview = c.Summary.Overview
	row.AISummary = c.Summary.Summary
	row.AITone = c.Summary.Tone
	row.AIQuestion = c.Question.Question
	row.AIQuestionTopic = c.Question.Topic
	row.AIQuestionContext = c.Question.Context
	if row.AIKeyThemes, err = jsonColumn(c.Summary.KeyThemes, "[]"); err != nil {
		return nil, err
	}
	if row.AITopics, err = jsonColumn(c.Topics, "[]"); err != nil {
		return nil, err
	}
	if row.AIKeyPoints, err = jsonColumn(c.KeyPoints, "[]"); err != nil {
		return nil, err
	}
	if row.AIComments, err = jsonColumn(c.Comments, "[]"); err != nil {
		return nil, err
	}
	return row, nil
}

func BuildDivisionRecords(divs []debates.Division) ([]*debates.DivisionRecord, error) {
	out := make([]*debates.DivisionRecord, 0, len(divs))
	for _, d := range divs {
		row := &debates.DivisionRecord{
			ExtID:          d.ExtID,
			DebateExtID:    d.DebateExtID,
			Number:         d.Number,
			Date:           d.Date,
			House:          string(d.House),
			AyeCount:       d.AyeCount,
			NoCount:        d.NoCount,
			TextBeforeVote: d.TextBeforeVote,
			TextAfterVote:  d.TextAfterVote,
			Question:       d.Question,
			Topic:          d.Topic,
			Context:        d.Context,
		}
		var err error
		if row.Ayes, err = jsonColumn(d.Ayes, "[]"); err != nil {
			return nil, err
		}
		if row.Noes, err = jsonColumn(d.Noes, "[]"); err != nil {
			return nil, err
		}
		if row.ArgumentsFor, err = jsonColumn(d.ArgumentsFor, "[]"); err != nil {
			return nil, err
		}
		if row.ArgumentsAgainst, err = jsonColumn(d.ArgumentsAgainst, "[]"); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// jsonColumn encodes v, storing empty instead of null for nil values.
func jsonColumn(v any, empty string) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		raw = []byte(empty)
	}
	return datatypes.JSON(raw), nil
}
