package steps

import (
	"math"
	"testing"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

func TestInterestScoreBounds(t *testing.T) {
	engaged := debates.KeyPoint{Point: "p", Support: []debates.Speaker{{Name: "A"}}}
	inputs := []InterestInput{
		{},
		{Tone: "contentious", SpeakerCount: 500, ContributionCount: 9000, PartyCounts: map[string]int{"A": 1, "B": 1, "C": 1, "D": 1, "E": 1, "F": 1, "G": 1, "H": 1}, KeyPoints: []debates.KeyPoint{engaged, engaged, engaged, engaged, engaged, engaged}},
		{Tone: "collaborative", SpeakerCount: -3, ContributionCount: -1, PartyCounts: map[string]int{"A": -4, "B": 0}},
		{Tone: "???", PartyCounts: map[string]int{}},
	}
	for i, in := range inputs {
		s := ComputeInterestScore(in)
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			t.Fatalf("input %d: score out of range %v", i, s.Score)
		}
		for _, f := range []float64{s.Factors.Controversy, s.Factors.Participation, s.Factors.Diversity, s.Factors.Discussion} {
			if math.IsNaN(f) || f < 0 || f > 1 {
				t.Fatalf("input %d: factor out of range %+v", i, s.Factors)
			}
		}
	}
}

func TestInterestScoreEmptyPartyMap(t *testing.T) {
	s := ComputeInterestScore(InterestInput{Tone: "neutral", PartyCounts: map[string]int{}})
	if s.Factors.Diversity != 0 {
		t.Fatalf("diversity: want 0 got %v", s.Factors.Diversity)
	}
	if s.Factors.Controversy != 0.6 {
		t.Fatalf("neutral controversy: got %v", s.Factors.Controversy)
	}
	if math.Abs(s.Score-0.18) > 1e-9 {
		t.Fatalf("score: want 0.18 got %v", s.Score)
	}
}

func TestInterestScoreWeights(t *testing.T) {
	kp := debates.KeyPoint{Opposition: []debates.Speaker{{Name: "B"}}}
	s := ComputeInterestScore(InterestInput{
		Tone:              "contentious",
		SpeakerCount:      10,
		ContributionCount: 25,
		PartyCounts:       map[string]int{"Labour": 2, "Conservative": 2},
		KeyPoints:         []debates.KeyPoint{kp, {}},
	})
	wantParticipation := 0.4*0.5 + 0.6*0.5
	wantDiversity := 0.4*(2.0/6.0) + 0.6*0.5
	wantDiscussion := 0.2
	want := 0.3*1.0 + 0.2*wantParticipation + 0.2*wantDiversity + 0.3*wantDiscussion
	if math.Abs(s.Score-want) > 1e-9 {
		t.Fatalf("score: want %v got %v (%+v)", want, s.Score, s.Factors)
	}
}

func TestShannonEntropy(t *testing.T) {
	if h := ShannonEntropy(map[string]int{"Labour": 12}); h != 0 {
		t.Fatalf("single party: want 0 got %v", h)
	}
	if h := ShannonEntropy(nil); h != 0 {
		t.Fatalf("nil map: want 0 got %v", h)
	}
	// Fixed party count, shares moving towards even.
	shares := []map[string]int{
		{"A": 9, "B": 1},
		{"A": 7, "B": 3},
		{"A": 6, "B": 4},
		{"A": 5, "B": 5},
	}
	prev := -1.0
	for _, m := range shares {
		h := ShannonEntropy(m)
		if h <= prev {
			t.Fatalf("entropy not increasing: %v after %v for %v", h, prev, m)
		}
		prev = h
	}
	if math.Abs(prev-1) > 1e-9 {
		t.Fatalf("even split of two parties: want 1 got %v", prev)
	}
}
