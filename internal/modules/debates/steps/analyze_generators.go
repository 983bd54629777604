package steps

import (
	"fmt"
	"strings"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

type wireSpeaker struct {
	Name         string  `json:"name"`
	MemberID     *int    `json:"member_id"`
	Party        *string `json:"party"`
	Constituency *string `json:"constituency"`
}

func (w wireSpeaker) speaker() debates.Speaker {
	sp := debates.Speaker{Name: strings.TrimSpace(w.Name)}
	if w.MemberID != nil && *w.MemberID > 0 {
		sp.MemberID = *w.MemberID
	}
	if w.Party != nil {
		sp.Party = strings.TrimSpace(*w.Party)
	}
	if w.Constituency != nil {
		sp.Constituency = strings.TrimSpace(*w.Constituency)
	}
	return sp
}

func speakers(in []wireSpeaker) []debates.Speaker {
	out := make([]debates.Speaker, 0, len(in))
	for _, w := range in {
		if sp := w.speaker(); sp.Name != "" {
			out = append(out, sp)
		}
	}
	return out
}

func decodeSummary(obj map[string]any) (debates.DebateSummary, error) {
	s, err := decodeInto[debates.DebateSummary](obj)
	if err != nil {
		return s, err
	}
	if strings.TrimSpace(s.Summary) == "" {
		return s, fmt.Errorf("summary: empty summary")
	}
	s.KeyThemes = nonEmpty(s.KeyThemes)
	return s, nil
}

func defaultSummary(title string) debates.DebateSummary {
	return debates.DebateSummary{Title: title, Tone: debates.ToneNeutral, KeyThemes: []string{}}
}

func decodeQuestion(obj map[string]any) (debates.SurveyQuestion, error) {
	q, err := decodeInto[debates.SurveyQuestion](obj)
	if err != nil {
		return q, err
	}
	if strings.TrimSpace(q.Question) == "" {
		return q, fmt.Errorf("question: empty question")
	}
	return q, nil
}

type wireTopics struct {
	Topics []debates.Topic `json:"topics"`
}

func decodeTopics(obj map[string]any) ([]debates.Topic, error) {
	w, err := decodeInto[wireTopics](obj)
	if err != nil {
		return nil, err
	}
	if w.Topics == nil {
		return nil, fmt.Errorf("topics: missing topics")
	}
	for _, t := range w.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("topics: unnamed topic")
		}
	}
	return w.Topics, nil
}

type wireKeyPoint struct {
	Point      string        `json:"point"`
	Speaker    wireSpeaker   `json:"speaker"`
	Support    []wireSpeaker `json:"support"`
	Opposition []wireSpeaker `json:"opposition"`
	Context    *string       `json:"context"`
	Keywords   []string      `json:"keywords"`
}

type wireKeyPoints struct {
	KeyPoints []wireKeyPoint `json:"key_points"`
}

const maxKeywords = 5

func decodeKeyPoints(obj map[string]any) ([]debates.KeyPoint, error) {
	w, err := decodeInto[wireKeyPoints](obj)
	if err != nil {
		return nil, err
	}
	if w.KeyPoints == nil {
		return nil, fmt.Errorf("key_points: missing key_points")
	}
	out := make([]debates.KeyPoint, 0, len(w.KeyPoints))
	for _, kp := range w.KeyPoints {
		point := strings.TrimSpace(kp.Point)
		sp := kp.Speaker.speaker()
		if point == "" || sp.Name == "" {
			continue
		}
		keywords := nonEmpty(kp.Keywords)
		if len(keywords) > maxKeywords {
			keywords = keywords[:maxKeywords]
		}
		item := debates.KeyPoint{
			Point:      point,
			Speaker:    sp,
			Support:    speakers(kp.Support),
			Opposition: speakers(kp.Opposition),
			Keywords:   keywords,
		}
		if kp.Context != nil {
			item.Context = strings.TrimSpace(*kp.Context)
		}
		out = append(out, item)
	}
	if len(out) == 0 && len(w.KeyPoints) > 0 {
		return nil, fmt.Errorf("key_points: no usable entries in %d", len(w.KeyPoints))
	}
	return out, nil
}

type wireDivisionQuestions struct {
	Questions []debates.DivisionQuestion `json:"questions"`
}

func decodeDivisionQuestions(obj map[string]any) ([]debates.DivisionQuestion, error) {
	w, err := decodeInto[wireDivisionQuestions](obj)
	if err != nil {
		return nil, err
	}
	if w.Questions == nil {
		return nil, fmt.Errorf("division_questions: missing questions")
	}
	return w.Questions, nil
}

type wireComment struct {
	ID       string               `json:"id"`
	ParentID *string              `json:"parent_id"`
	Author   wireSpeaker          `json:"author"`
	Content  string               `json:"content"`
	Votes    debates.CommentVotes `json:"votes"`
	Tags     []string             `json:"tags"`
}

type wireComments struct {
	Comments []wireComment `json:"comments"`
}

func decodeComments(obj map[string]any) ([]debates.Comment, error) {
	w, err := decodeInto[wireComments](obj)
	if err != nil {
		return nil, err
	}
	if w.Comments == nil {
		return nil, fmt.Errorf("comments: missing comments")
	}
	ids := map[string]bool{}
	out := make([]debates.Comment, 0, len(w.Comments))
	for _, c := range w.Comments {
		id := strings.TrimSpace(c.ID)
		content := strings.TrimSpace(c.Content)
		if id == "" || content == "" || ids[id] {
			continue
		}
		ids[id] = true
		item := debates.Comment{
			ID:      id,
			Author:  c.Author.speaker(),
			Content: content,
			Votes:   c.Votes,
			Tags:    nonEmpty(c.Tags),
		}
		// Replies must point at an earlier comment.
		if c.ParentID != nil && ids[strings.TrimSpace(*c.ParentID)] && strings.TrimSpace(*c.ParentID) != id {
			item.ParentID = strings.TrimSpace(*c.ParentID)
		}
		if item.Votes.UpSpeakers == nil {
			item.Votes.UpSpeakers = []string{}
		}
		if item.Votes.DownSpeakers == nil {
			item.Votes.DownSpeakers = []string{}
		}
		out = append(out, item)
	}
	if len(out) == 0 && len(w.Comments) > 0 {
		return nil, fmt.Errorf("comments: no usable entries in %d", len(w.Comments))
	}
	return out, nil
}
