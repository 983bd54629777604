package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/modules/debates/prompts"
	"github.com/yungbote/hansard-backend/internal/modules/debates/taxonomy"
	"github.com/yungbote/hansard-backend/internal/normalization"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
	"github.com/yungbote/hansard-backend/internal/platform/openai"
)

const (
	GeneratorSummary           = "summary"
	GeneratorQuestion          = "question"
	GeneratorTopics            = "topics"
	GeneratorKeyPoints         = "key_points"
	GeneratorDivisionQuestions = "division_questions"
	GeneratorComments          = "comments"
)

var generatorOrder = []string{
	GeneratorSummary,
	GeneratorQuestion,
	GeneratorTopics,
	GeneratorKeyPoints,
	GeneratorDivisionQuestions,
	GeneratorComments,
}

type AnalyzeDeps struct {
	Log *logger.Logger
	AI  openai.Client
}

type AnalyzeInput struct {
	Debate    debates.Debate
	Type      string
	Speakers  []debates.Speaker
	Members   *MemberCache
	Divisions []debates.Division
}

type AnalyzeOutput struct {
	Content debates.AIContent
	// Divisions is a copy of the input divisions with AI content applied.
	Divisions []debates.Division
	Outcomes  map[string]OutcomeKind
	Truncated bool
}

// Analyze runs the six generators concurrently and waits for all of them.
// Schema violations and provider errors become marked defaults; a refusal
// from any generator fails the whole debate with an error matching
// openai.ErrRefusal.
func Analyze(ctx context.Context, deps AnalyzeDeps, in AnalyzeInput) (AnalyzeOutput, error) {
	out := AnalyzeOutput{Outcomes: map[string]OutcomeKind{}}
	if deps.Log == nil || deps.AI == nil {
		return out, fmt.Errorf("analyze: missing deps")
	}
	log := deps.Log.With("debate_ext_id", in.Debate.Overview.ExtID)

	lines := TranscriptLines(in.Debate, in.Members)
	transcript, truncated := BuildTranscript(lines, TranscriptWordLimit)
	if transcript == "" {
		return out, fmt.Errorf("analyze: empty transcript")
	}
	out.Truncated = truncated
	if truncated {
		log.Info("Transcript truncated for analysis", "word_limit", TranscriptWordLimit)
	}

	pin := prompts.Input{
		Title:      in.Debate.Overview.Title,
		Date:       in.Debate.Overview.Date,
		House:      string(in.Debate.Overview.House),
		Type:       in.Type,
		Location:   in.Debate.Overview.Location,
		Transcript: transcript,
		Speakers:   renderSpeakers(in.Speakers),
		Taxonomy:   renderTaxonomy(),
	}
	if len(in.Divisions) > 0 {
		pin.DivisionsJSON = renderDivisions(in.Divisions)
	}

	var (
		summary   Outcome[debates.DebateSummary]
		question  Outcome[debates.SurveyQuestion]
		topics    Outcome[[]debates.Topic]
		keyPoints Outcome[[]debates.KeyPoint]
		divQs     Outcome[[]debates.DivisionQuestion]
		comments  Outcome[[]debates.Comment]
	)

	// No shared cancellation: every generator settles before the join.
	var g errgroup.Group
	g.Go(func() error {
		summary = generate(ctx, deps.AI, prompts.PromptDebateSummary, pin, decodeSummary)
		return refusalErr(GeneratorSummary, summary.Kind, summary.Err)
	})
	g.Go(func() error {
		question = generate(ctx, deps.AI, prompts.PromptSurveyQuestion, pin, decodeQuestion)
		return refusalErr(GeneratorQuestion, question.Kind, question.Err)
	})
	g.Go(func() error {
		topics = generate(ctx, deps.AI, prompts.PromptDebateTopics, pin, decodeTopics)
		return refusalErr(GeneratorTopics, topics.Kind, topics.Err)
	})
	g.Go(func() error {
		keyPoints = generate(ctx, deps.AI, prompts.PromptKeyPoints, pin, decodeKeyPoints)
		return refusalErr(GeneratorKeyPoints, keyPoints.Kind, keyPoints.Err)
	})
	g.Go(func() error {
		if len(in.Divisions) == 0 {
			divQs = Outcome[[]debates.DivisionQuestion]{Kind: OutcomeNotRequested}
			return nil
		}
		divQs = generate(ctx, deps.AI, prompts.PromptDivisionQuestions, pin, decodeDivisionQuestions)
		return refusalErr(GeneratorDivisionQuestions, divQs.Kind, divQs.Err)
	})
	g.Go(func() error {
		comments = generate(ctx, deps.AI, prompts.PromptCommentThread, pin, decodeComments)
		return refusalErr(GeneratorComments, comments.Kind, comments.Err)
	})
	joinErr := g.Wait()

	errs := map[string]error{
		GeneratorSummary:           summary.Err,
		GeneratorQuestion:          question.Err,
		GeneratorTopics:            topics.Err,
		GeneratorKeyPoints:         keyPoints.Err,
		GeneratorDivisionQuestions: divQs.Err,
		GeneratorComments:          comments.Err,
	}
	out.Outcomes[GeneratorSummary] = summary.Kind
	out.Outcomes[GeneratorQuestion] = question.Kind
	out.Outcomes[GeneratorTopics] = topics.Kind
	out.Outcomes[GeneratorKeyPoints] = keyPoints.Kind
	out.Outcomes[GeneratorDivisionQuestions] = divQs.Kind
	out.Outcomes[GeneratorComments] = comments.Kind
	if joinErr != nil {
		log.Warn("Analysis refused", "error", joinErr)
		return out, joinErr
	}

	content := debates.AIContent{
		Summary:           summary.Or(defaultSummary(in.Debate.Overview.Title)),
		Question:          question.Or(debates.SurveyQuestion{}),
		Topics:            topics.Or([]debates.Topic{}),
		KeyPoints:         keyPoints.Or([]debates.KeyPoint{}),
		DivisionQuestions: divQs.Or([]debates.DivisionQuestion{}),
		Comments:          comments.Or([]debates.Comment{}),
	}
	for _, name := range generatorOrder {
		kind := out.Outcomes[name]
		if kind == OutcomeOK || kind == OutcomeNotRequested {
			continue
		}
		content.Defaulted = append(content.Defaulted, name)
		log.Warn("Generator fell back to defaults", "generator", name, "outcome", string(kind), "error", errString(errs[name]))
	}

	postProcess(log, &content, in.Members)

	out.Divisions = make([]debates.Division, len(in.Divisions))
	copy(out.Divisions, in.Divisions)
	if len(out.Divisions) > 0 {
		ApplyDivisionQuestions(log, out.Divisions, content.DivisionQuestions)
	}
	out.Content = content
	return out, nil
}

func refusalErr(generator string, kind OutcomeKind, err error) error {
	if kind != OutcomeRefusal {
		return nil
	}
	return fmt.Errorf("%s generator: %w", generator, err)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NormalizeTone maps anything outside the three known tones to neutral.
func NormalizeTone(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case debates.ToneContentious:
		return debates.ToneContentious
	case debates.ToneCollaborative:
		return debates.ToneCollaborative
	default:
		return debates.ToneNeutral
	}
}

func postProcess(log *logger.Logger, c *debates.AIContent, members *MemberCache) {
	c.Summary.Tone = NormalizeTone(c.Summary.Tone)

	repaired, n := taxonomy.Repair(c.Topics)
	if n > 0 {
		log.Info("Repaired topics against taxonomy", "changes", n)
	}
	c.Topics = repaired
	if _, ok := taxonomy.Lookup(c.Question.Topic); !ok {
		c.Question.Topic = ""
	}

	c.Summary.Title = normalization.ToBritish(c.Summary.Title)
	c.Summary.Overview = normalization.ToBritish(c.Summary.Overview)
	c.Summary.Summary = normalization.ToBritish(c.Summary.Summary)
	normalization.ToBritishAll(c.Summary.KeyThemes)

	c.Question.Question = normalization.ToBritish(c.Question.Question)
	c.Question.Context = normalization.ToBritish(c.Question.Context)

	for i := range c.KeyPoints {
		kp := &c.KeyPoints[i]
		kp.Point = normalization.ToBritish(kp.Point)
		kp.Context = normalization.ToBritish(kp.Context)
		normalization.ToBritishAll(kp.Keywords)
		kp.Speaker = enrichSpeaker(kp.Speaker, members)
		for j := range kp.Support {
			kp.Support[j] = enrichSpeaker(kp.Support[j], members)
		}
		for j := range kp.Opposition {
			kp.Opposition[j] = enrichSpeaker(kp.Opposition[j], members)
		}
	}

	for i := range c.DivisionQuestions {
		q := &c.DivisionQuestions[i]
		q.Question = normalization.ToBritish(q.Question)
		q.Topic = normalization.ToBritish(q.Topic)
		q.Context = normalization.ToBritish(q.Context)
		normalization.ToBritishAll(q.ArgumentsFor)
		normalization.ToBritishAll(q.ArgumentsAgainst)
	}

	for i := range c.Comments {
		cm := &c.Comments[i]
		cm.Content = normalization.ToBritish(cm.Content)
		normalization.ToBritishAll(cm.Tags)
		cm.Author = enrichSpeaker(cm.Author, members)
	}
}

// enrichSpeaker fills party and constituency from the member cache when the
// model supplied a member id but left them out.
func enrichSpeaker(sp debates.Speaker, members *MemberCache) debates.Speaker {
	if sp.MemberID <= 0 || members == nil {
		return sp
	}
	m, ok := members.Get(sp.MemberID)
	if !ok {
		return sp
	}
	if sp.Party == "" {
		sp.Party = m.Party
	}
	if sp.Constituency == "" {
		sp.Constituency = m.Constituency
	}
	return sp
}

func renderSpeakers(sps []debates.Speaker) string {
	var b strings.Builder
	for _, sp := range sps {
		b.WriteString(sp.Name)
		var meta []string
		if sp.Party != "" {
			meta = append(meta, sp.Party)
		}
		if sp.Constituency != "" {
			meta = append(meta, sp.Constituency)
		}
		if len(meta) > 0 {
			b.WriteString(" (" + strings.Join(meta, ", ") + ")")
		}
		if sp.MemberID > 0 {
			fmt.Fprintf(&b, " [%d]", sp.MemberID)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func renderTaxonomy() string {
	var b strings.Builder
	for _, e := range taxonomy.All() {
		b.WriteString(e.Name + ": " + strings.Join(e.Subtopics, ", ") + "\n")
	}
	return strings.TrimSpace(b.String())
}

type promptDivision struct {
	ExtID          string `json:"ext_id"`
	Number         int    `json:"number"`
	AyeCount       int    `json:"aye_count"`
	NoCount        int    `json:"no_count"`
	TextBeforeVote string `json:"text_before_vote"`
	TextAfterVote  string `json:"text_after_vote"`
}

func renderDivisions(divs []debates.Division) string {
	slim := make([]promptDivision, 0, len(divs))
	for _, d := range divs {
		slim = append(slim, promptDivision{
			ExtID:          d.ExtID,
			Number:         d.Number,
			AyeCount:       d.AyeCount,
			NoCount:        d.NoCount,
			TextBeforeVote: d.TextBeforeVote,
			TextAfterVote:  d.TextAfterVote,
		})
	}
	raw, err := json.Marshal(slim)
	if err != nil {
		return ""
	}
	return string(raw)
}
