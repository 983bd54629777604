package steps

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/hansard"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

type fakeDivisions struct {
	mu        sync.Mutex
	listing   []hansard.DivisionListing
	listErr   error
	details   map[string]*hansard.DivisionDetail
	detailErr map[string]error
	listCalls int
}

func (f *fakeDivisions) ListDivisions(_ context.Context, _ string) ([]hansard.DivisionListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.listing, f.listErr
}

func (f *fakeDivisions) GetDivision(_ context.Context, id string) (*hansard.DivisionDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.detailErr[id]; err != nil {
		return nil, err
	}
	return f.details[id], nil
}

func TestFetchDivisionsNilWhenNone(t *testing.T) {
	deps := FetchDivisionsDeps{Log: logger.Nop(), Records: &fakeDivisions{}}
	divs, err := FetchDivisions(context.Background(), deps, debates.Overview{ExtID: "D"})
	if err != nil || divs != nil {
		t.Fatalf("want nil, nil; got %v, %v", divs, err)
	}

	deps.Records = &fakeDivisions{listing: []hansard.DivisionListing{{ExtID: "x", DebateExtID: "OTHER"}}}
	divs, err = FetchDivisions(context.Background(), deps, debates.Overview{ExtID: "D"})
	if err != nil || divs != nil {
		t.Fatalf("foreign division: want nil, nil; got %v, %v", divs, err)
	}
}

func TestFetchDivisionsListingError(t *testing.T) {
	deps := FetchDivisionsDeps{Log: logger.Nop(), Records: &fakeDivisions{listErr: errors.New("down")}}
	if _, err := FetchDivisions(context.Background(), deps, debates.Overview{ExtID: "D"}); err == nil {
		t.Fatalf("want listing error")
	}
}

func TestFetchDivisionsNormalises(t *testing.T) {
	src := &fakeDivisions{
		listing: []hansard.DivisionListing{
			{ExtID: "div-1", DebateExtID: "D", Number: 1, AyeCount: 300, NoCount: 200, Date: "2024-03-12T16:00:00"},
			{ExtID: "div-2", DebateExtID: "d", Number: 2, AyeCount: 10, NoCount: 5},
			{ExtID: "div-x", DebateExtID: "E"},
		},
		details: map[string]*hansard.DivisionDetail{
			"div-1": {
				AyeMembers: []hansard.DivisionMember{{MemberID: 1, Name: " Jane ", Party: "Labour"}},
				NoeMembers: []hansard.DivisionMember{{MemberID: 2, Name: "John", Party: "Conservative"}},
			},
		},
		detailErr: map[string]error{"div-2": errors.New("timeout")},
	}
	divs, err := FetchDivisions(context.Background(), FetchDivisionsDeps{Log: logger.Nop(), Records: src},
		debates.Overview{ExtID: "D", House: debates.HouseCommons, Date: "2024-03-12"})
	if err != nil {
		t.Fatalf("FetchDivisions: %v", err)
	}
	if len(divs) != 2 {
		t.Fatalf("want 2 divisions, got %d", len(divs))
	}
	if divs[0].ExtID != "div-1" || len(divs[0].Ayes) != 1 || divs[0].Ayes[0].Name != "Jane" || divs[0].Date != "2024-03-12" {
		t.Fatalf("first division: %+v", divs[0])
	}
	if divs[1].AyeCount != 10 || len(divs[1].Ayes) != 0 {
		t.Fatalf("second division kept without detail: %+v", divs[1])
	}
	if divs[1].Question != debates.PlaceholderQuestion {
		t.Fatalf("placeholder missing: %q", divs[1].Question)
	}
}

func threeDivisions() []debates.Division {
	divs := []debates.Division{{ExtID: "a"}, {ExtID: "b"}, {ExtID: "c"}}
	for i := range divs {
		divs[i].WithPlaceholders()
	}
	return divs
}

func TestApplyDivisionQuestionsFewerEntries(t *testing.T) {
	divs := threeDivisions()
	matched := ApplyDivisionQuestions(logger.Nop(), divs, []debates.DivisionQuestion{
		{DivisionID: "a", Question: "Should A?"},
		{DivisionID: "b", Question: "Should B?"},
	})
	if matched != 2 || len(divs) != 3 {
		t.Fatalf("matched=%d len=%d", matched, len(divs))
	}
	if divs[0].Question != "Should A?" || divs[1].Question != "Should B?" {
		t.Fatalf("matched content: %+v", divs[:2])
	}
	if divs[2].Question != debates.PlaceholderQuestion || divs[2].Context != debates.PlaceholderContext {
		t.Fatalf("third division should keep placeholders: %+v", divs[2])
	}
}

func TestApplyDivisionQuestionsPrefersExtID(t *testing.T) {
	divs := threeDivisions()
	ApplyDivisionQuestions(logger.Nop(), divs, []debates.DivisionQuestion{
		{DivisionID: "c", Question: "Should C?"},
		{DivisionID: "", Question: "Positional?"},
	})
	if divs[2].Question != "Should C?" {
		t.Fatalf("ext id match lost: %+v", divs[2])
	}
	if divs[1].Question != "Positional?" {
		t.Fatalf("positional fallback: %+v", divs[1])
	}
	if divs[0].Question != debates.PlaceholderQuestion {
		t.Fatalf("first division should be a placeholder: %+v", divs[0])
	}
}

func TestApplyDivisionQuestionsIgnoresUnknownAndRepeatedIDs(t *testing.T) {
	divs := threeDivisions()
	matched := ApplyDivisionQuestions(logger.Nop(), divs, []debates.DivisionQuestion{
		{DivisionID: "a", Question: "Should A?"},
		{DivisionID: "a", Question: "Should A again?"},
		{DivisionID: "zzz", Question: "Should Z?"},
	})
	if matched != 1 {
		t.Fatalf("matched: want=1 got=%d", matched)
	}
	if divs[0].Question != "Should A?" {
		t.Fatalf("first match overwritten: %+v", divs[0])
	}
	if divs[1].Question != debates.PlaceholderQuestion || divs[2].Question != debates.PlaceholderQuestion {
		t.Fatalf("stray entries applied by position: %q %q", divs[1].Question, divs[2].Question)
	}
}

func TestApplyDivisionQuestionsEmptyInputs(t *testing.T) {
	if n := ApplyDivisionQuestions(nil, nil, []debates.DivisionQuestion{{Question: "x"}}); n != 0 {
		t.Fatalf("no divisions: matched=%d", n)
	}
	divs := threeDivisions()
	if n := ApplyDivisionQuestions(logger.Nop(), divs, nil); n != 0 {
		t.Fatalf("no questions: matched=%d", n)
	}
}
