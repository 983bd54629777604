package steps

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/hansard"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type DivisionSource interface {
	ListDivisions(ctx context.Context, debateExtID string) ([]hansard.DivisionListing, error)
	GetDivision(ctx context.Context, divisionExtID string) (*hansard.DivisionDetail, error)
}

type FetchDivisionsDeps struct {
	Log     *logger.Logger
	Records DivisionSource
}

// FetchDivisions returns the normalised divisions of a debate, or nil when it
// has none. Listings that belong to another debate are dropped. A failed
// detail lookup keeps the division with counts only.
func FetchDivisions(ctx context.Context, deps FetchDivisionsDeps, ov debates.Overview) ([]debates.Division, error) {
	if deps.Log == nil || deps.Records == nil {
		return nil, fmt.Errorf("fetch_divisions: missing deps")
	}
	log := deps.Log.With("debate_ext_id", ov.ExtID)

	listed, err := deps.Records.ListDivisions(ctx, ov.ExtID)
	if err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}

	var valid []hansard.DivisionListing
	for _, l := range listed {
		if strings.TrimSpace(l.ExtID) == "" {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(l.DebateExtID), strings.TrimSpace(ov.ExtID)) {
			log.Info("Dropping division from another debate", "division_ext_id", l.ExtID, "division_debate_ext_id", l.DebateExtID)
			continue
		}
		valid = append(valid, l)
	}
	if len(valid) == 0 {
		return nil, nil
	}

	out := make([]debates.Division, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, l := range valid {
		i, l := i, l
		g.Go(func() error {
			div := normaliseDivision(l, ov)
			detail, err := deps.Records.GetDivision(gctx, l.ExtID)
			if err != nil {
				log.Warn("Division detail lookup failed", "division_ext_id", l.ExtID, "error", err)
			} else if detail != nil {
				div.Ayes = voters(detail.AyeMembers)
				div.Noes = voters(detail.NoeMembers)
				if div.TextBeforeVote == "" {
					div.TextBeforeVote = strings.TrimSpace(detail.TextBeforeVote)
				}
				if div.TextAfterVote == "" {
					div.TextAfterVote = strings.TrimSpace(detail.TextAfterVote)
				}
			}
			out[i] = div
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func normaliseDivision(l hansard.DivisionListing, ov debates.Overview) debates.Division {
	house := ov.House
	if h, ok := debates.ParseHouse(l.House); ok {
		house = h
	}
	date := ov.Date
	if len(l.Date) >= 10 {
		date = l.Date[:10]
	}
	div := debates.Division{
		ExtID:          strings.TrimSpace(l.ExtID),
		DebateExtID:    ov.ExtID,
		Number:         l.Number,
		Date:           date,
		House:          house,
		AyeCount:       l.AyeCount,
		NoCount:        l.NoCount,
		TextBeforeVote: strings.TrimSpace(l.TextBeforeVote),
		TextAfterVote:  strings.TrimSpace(l.TextAfterVote),
		Ayes:           []debates.DivisionVoter{},
		Noes:           []debates.DivisionVoter{},
	}
	div.WithPlaceholders()
	return div
}

func voters(in []hansard.DivisionMember) []debates.DivisionVoter {
	out := make([]debates.DivisionVoter, 0, len(in))
	for _, m := range in {
		out = append(out, debates.DivisionVoter{
			MemberID: m.MemberID,
			Name:     strings.TrimSpace(m.Name),
			Party:    strings.TrimSpace(m.Party),
		})
	}
	return out
}

// ApplyDivisionQuestions lays AI-authored questions over divs in place.
// Entries are matched by division ext id first; entries that carry no id
// fill the remaining divisions by position. Divisions left unmatched keep
// placeholder text. It returns the number of divisions that received content
// and never fails.
func ApplyDivisionQuestions(log *logger.Logger, divs []debates.Division, qs []debates.DivisionQuestion) (matched int) {
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.Error("Division reconciliation panicked", "panic", fmt.Sprint(r))
			}
		}
	}()
	if len(divs) == 0 {
		return 0
	}

	byID := make(map[string]int, len(divs))
	for i := range divs {
		byID[strings.ToLower(strings.TrimSpace(divs[i].ExtID))] = i
	}

	filled := make([]bool, len(divs))
	used := make([]bool, len(qs))
	for qi, q := range qs {
		i, ok := byID[strings.ToLower(strings.TrimSpace(q.DivisionID))]
		if !ok || filled[i] {
			continue
		}
		applyQuestion(&divs[i], q)
		filled[i] = true
		used[qi] = true
		matched++
	}
	// Only entries without an id fall back to position; an id that matched
	// nothing or repeated an earlier entry names no division here.
	for qi, q := range qs {
		if used[qi] || strings.TrimSpace(q.DivisionID) != "" || qi >= len(divs) || filled[qi] {
			continue
		}
		applyQuestion(&divs[qi], q)
		filled[qi] = true
		matched++
	}
	if matched < len(divs) && log != nil {
		log.Warn("Divisions left with placeholder content", "divisions", len(divs), "matched", matched, "ai_entries", len(qs))
	}
	return matched
}

func applyQuestion(d *debates.Division, q debates.DivisionQuestion) {
	if s := strings.TrimSpace(q.Question); s != "" {
		d.Question = s
	}
	if s := strings.TrimSpace(q.Topic); s != "" {
		d.Topic = s
	}
	if s := strings.TrimSpace(q.Context); s != "" {
		d.Context = s
	}
	if args := nonEmpty(q.ArgumentsFor); len(args) > 0 {
		d.ArgumentsFor = args
	}
	if args := nonEmpty(q.ArgumentsAgainst); len(args) > 0 {
		d.ArgumentsAgainst = args
	}
}

func nonEmpty(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}
