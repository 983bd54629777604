package steps

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/normalization"
)

// TranscriptWordLimit is the size above which a transcript is cut down
// before it is sent for analysis.
const TranscriptWordLimit = 8000

// leadingShare of the word budget always goes to the opening of the debate.
const leadingShare = 0.2

var (
	ministerialRe = regexp.MustCompile(`(?i)\b(minister|secretary of state|chancellor|prime minister|attorney general)\b`)
	numericRe     = regexp.MustCompile(`(?i)(£|\$|€|%|\b\d[\d,.]*\b|\b(million|billion|thousand|per cent|percent)\b)`)
	legislativeRe = regexp.MustCompile(`(?i)\b(bill|act|amendment|clause|legislation|regulations?|statutory|second reading|third reading)\b`)
)

type TranscriptLine struct {
	Speaker debates.Speaker
	Text    string
	Words   int
}

// TranscriptLines renders each non-empty contribution as one attributed line.
func TranscriptLines(d debates.Debate, members *MemberCache) []TranscriptLine {
	out := make([]TranscriptLine, 0, len(d.Items))
	for _, it := range d.Items {
		if !it.IsContribution() {
			continue
		}
		text := normalization.StripHTML(it.Value)
		if text == "" {
			continue
		}
		out = append(out, TranscriptLine{
			Speaker: SpeakerFor(it, members),
			Text:    text,
			Words:   normalization.WordCount(text),
		})
	}
	return out
}

func (l TranscriptLine) String() string {
	if l.Speaker.Party != "" {
		return l.Speaker.Name + " (" + l.Speaker.Party + "): " + l.Text
	}
	return l.Speaker.Name + ": " + l.Text
}

// BuildTranscript joins lines, cutting the transcript down to limit words when
// it is longer. The opening is always kept, clipped when the first lines alone
// overrun the leading allowance; the rest of the budget goes to the highest
// scoring lines, emitted in debate order. A line that does not fit the
// remaining budget is clipped rather than dropped when it carries any signal.
func BuildTranscript(lines []TranscriptLine, limit int) (text string, truncated bool) {
	total := 0
	for _, l := range lines {
		total += l.Words
	}
	if limit <= 0 || total <= limit {
		return joinLines(lines, nil, nil), false
	}

	keep := make([]bool, len(lines))
	// clip[i] > 0 keeps only the first clip[i] words of line i.
	clip := make([]int, len(lines))
	budget := limit
	leading := int(float64(limit) * leadingShare)
	if leading < 1 {
		leading = 1
	}
	clippedLead := -1
	i := 0
	for ; i < len(lines) && leading > 0; i++ {
		keep[i] = true
		if lines[i].Words > budget {
			clip[i] = leading
			clippedLead = i
			budget -= leading
			i++
			break
		}
		leading -= lines[i].Words
		budget -= lines[i].Words
	}

	type candidate struct {
		idx   int
		score int
	}
	cands := make([]candidate, 0, len(lines)-i)
	for j := i; j < len(lines); j++ {
		cands = append(cands, candidate{idx: j, score: lineScore(lines[j].Text)})
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })
	for _, c := range cands {
		if budget <= 0 {
			break
		}
		w := lines[c.idx].Words
		if w > budget {
			if c.score == 0 {
				continue
			}
			keep[c.idx] = true
			clip[c.idx] = budget
			budget = 0
			break
		}
		keep[c.idx] = true
		budget -= w
	}

	// Budget the rest of the debate did not use goes back to a clipped opening.
	if clippedLead >= 0 && budget > 0 {
		clip[clippedLead] += budget
	}
	return joinLines(lines, keep, clip), true
}

func clipWords(text string, n int) string {
	words := strings.Fields(text)
	if n <= 0 || n >= len(words) {
		return text
	}
	return strings.Join(words[:n], " ") + " [...]"
}

// lineScore ranks a line by the signals that carry most of a debate's substance.
func lineScore(text string) int {
	score := 0
	if ministerialRe.MatchString(text) {
		score += 3
	}
	if numericRe.MatchString(text) {
		score += 2
	}
	if legislativeRe.MatchString(text) {
		score += 2
	}
	if strings.Contains(text, "?") {
		score++
	}
	return score
}

func joinLines(lines []TranscriptLine, keep []bool, clip []int) string {
	var b strings.Builder
	gap := false
	for i, l := range lines {
		if keep != nil && !keep[i] {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteString("[...]\n")
		}
		gap = false
		if clip != nil && clip[i] > 0 {
			l.Text = clipWords(l.Text, clip[i])
		}
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
