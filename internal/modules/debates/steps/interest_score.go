package steps

import (
	"math"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

const (
	weightControversy   = 0.3
	weightParticipation = 0.2
	weightDiversity     = 0.2
	weightDiscussion    = 0.3
)

type InterestInput struct {
	Tone              string
	SpeakerCount      int
	ContributionCount int
	PartyCounts       map[string]int
	KeyPoints         []debates.KeyPoint
}

func ComputeInterestScore(in InterestInput) debates.InterestScore {
	f := debates.InterestFactors{
		Controversy:   controversy(in.Tone),
		Participation: 0.4*ratio(float64(in.SpeakerCount), 20) + 0.6*ratio(float64(in.ContributionCount), 50),
		Diversity:     diversity(in.PartyCounts),
		Discussion:    discussion(in.KeyPoints),
	}
	score := weightControversy*f.Controversy +
		weightParticipation*f.Participation +
		weightDiversity*f.Diversity +
		weightDiscussion*f.Discussion
	return debates.InterestScore{Score: clamp01(score), Factors: f}
}

func controversy(tone string) float64 {
	switch NormalizeTone(tone) {
	case debates.ToneContentious:
		return 1.0
	case debates.ToneCollaborative:
		return 0.3
	default:
		return 0.6
	}
}

func diversity(partyCounts map[string]int) float64 {
	parties := 0
	for _, n := range partyCounts {
		if n > 0 {
			parties++
		}
	}
	return 0.4*ratio(float64(parties), 6) + 0.6*ratio(ShannonEntropy(partyCounts), 2)
}

func discussion(points []debates.KeyPoint) float64 {
	engaged := 0
	for _, kp := range points {
		if kp.Engaged() {
			engaged++
		}
	}
	return ratio(float64(engaged), 5)
}

// ShannonEntropy is the base-2 entropy of the shares in counts. Empty or
// single-party maps yield 0.
func ShannonEntropy(counts map[string]int) float64 {
	total := 0
	for _, n := range counts {
		if n > 0 {
			total += n
		}
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, n := range counts {
		if n <= 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	if h < 0 || math.IsNaN(h) {
		return 0
	}
	return h
}

// ratio is min(v/max, 1), 0 for non-positive or non-finite input.
func ratio(v, max float64) float64 {
	if max <= 0 || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(v/max, 1)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
