package steps

import (
	"strconv"
	"strings"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/normalization"
)

// MemberIDs lists the distinct member ids attributed to contributions, in order.
func MemberIDs(d debates.Debate) []int {
	var out []int
	seen := map[int]bool{}
	for _, it := range d.Items {
		if !it.IsContribution() || it.MemberID <= 0 || seen[it.MemberID] {
			continue
		}
		seen[it.MemberID] = true
		out = append(out, it.MemberID)
	}
	return out
}

// SpeakerFor resolves the speaker of a contribution through the cache,
// falling back to the free-text attribution.
func SpeakerFor(it debates.Contribution, members *MemberCache) debates.Speaker {
	sp := debates.Speaker{Name: strings.TrimSpace(it.AttributedTo), MemberID: it.MemberID}
	if it.MemberID > 0 && members != nil {
		if m, ok := members.Get(it.MemberID); ok {
			if m.DisplayName != "" {
				sp.Name = m.DisplayName
			}
			sp.Party = m.Party
			sp.Constituency = m.Constituency
		}
	}
	if sp.Name == "" {
		sp.Name = "Unknown speaker"
	}
	return sp
}

// ComputeStats counts contributions, distinct speakers, words and the number
// of distinct speakers per party.
func ComputeStats(d debates.Debate, members *MemberCache) debates.Stats {
	st := debates.Stats{PartyCounts: map[string]int{}, Speakers: []debates.Speaker{}}
	seen := map[string]bool{}
	for _, it := range d.Items {
		if !it.IsContribution() {
			continue
		}
		text := normalization.StripHTML(it.Value)
		if text == "" {
			continue
		}
		st.ContributionCount++
		st.WordCount += normalization.WordCount(text)

		sp := SpeakerFor(it, members)
		key := speakerKey(it, sp)
		if seen[key] {
			continue
		}
		seen[key] = true
		st.Speakers = append(st.Speakers, sp)
		if sp.Party != "" {
			st.PartyCounts[sp.Party]++
		}
	}
	st.SpeakerCount = len(st.Speakers)
	return st
}

func speakerKey(it debates.Contribution, sp debates.Speaker) string {
	if it.MemberID > 0 {
		return "id:" + strconv.Itoa(it.MemberID)
	}
	return "name:" + strings.ToLower(sp.Name)
}
