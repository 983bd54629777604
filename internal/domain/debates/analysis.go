package debates

const (
	ToneNeutral       = "neutral"
	ToneContentious   = "contentious"
	ToneCollaborative = "collaborative"
)

type Speaker struct {
	Name         string `json:"name"`
	MemberID     int    `json:"member_id,omitempty"`
	Party        string `json:"party,omitempty"`
	Constituency string `json:"constituency,omitempty"`
}

type KeyPoint struct {
	Point      string    `json:"point"`
	Speaker    Speaker   `json:"speaker"`
	Support    []Speaker `json:"support"`
	Opposition []Speaker `json:"opposition"`
	Context    string    `json:"context,omitempty"`
	Keywords   []string  `json:"keywords"`
}

// Engaged reports whether anyone else took a side on the point.
func (k KeyPoint) Engaged() bool {
	return len(k.Support) > 0 || len(k.Opposition) > 0
}

type Topic struct {
	Name      string   `json:"name"`
	Subtopics []string `json:"subtopics"`
	Speakers  []string `json:"speakers,omitempty"`
}

type DebateSummary struct {
	Title     string   `json:"title"`
	Overview  string   `json:"overview"`
	Summary   string   `json:"summary"`
	Tone      string   `json:"tone"`
	KeyThemes []string `json:"key_themes"`
}

// SurveyQuestion is a yes/no question put to readers about the debate.
type SurveyQuestion struct {
	Question string `json:"question"`
	Topic    string `json:"topic"`
	Context  string `json:"context"`
}

type DivisionQuestion struct {
	DivisionID       string   `json:"division_id"`
	Question         string   `json:"question"`
	Topic            string   `json:"topic"`
	Context          string   `json:"context"`
	ArgumentsFor     []string `json:"arguments_for"`
	ArgumentsAgainst []string `json:"arguments_against"`
}

type CommentVotes struct {
	Up           int      `json:"up"`
	Down         int      `json:"down"`
	UpSpeakers   []string `json:"up_speakers"`
	DownSpeakers []string `json:"down_speakers"`
}

// Comment is one entry of the debate re-told as a discussion thread.
type Comment struct {
	ID       string       `json:"id"`
	ParentID string       `json:"parent_id,omitempty"`
	Author   Speaker      `json:"author"`
	Content  string       `json:"content"`
	Votes    CommentVotes `json:"votes"`
	Tags     []string     `json:"tags"`
}

// AIContent is the merged output of every analysis generator for one debate.
type AIContent struct {
	Summary           DebateSummary      `json:"summary"`
	Question          SurveyQuestion     `json:"question"`
	Topics            []Topic            `json:"topics"`
	KeyPoints         []KeyPoint         `json:"key_points"`
	DivisionQuestions []DivisionQuestion `json:"division_questions"`
	Comments          []Comment          `json:"comments"`
	// Defaulted lists generators whose output was replaced by a safe default.
	Defaulted []string `json:"defaulted,omitempty"`
}

type InterestFactors struct {
	Controversy   float64 `json:"controversy"`
	Participation float64 `json:"participation"`
	Diversity     float64 `json:"diversity"`
	Discussion    float64 `json:"discussion"`
}

type InterestScore struct {
	Score   float64         `json:"score"`
	Factors InterestFactors `json:"factors"`
}

// Stats are the quantitative signals derived from a transcript.
type Stats struct {
	ContributionCount int            `json:"contribution_count"`
	SpeakerCount      int            `json:"speaker_count"`
	WordCount         int            `json:"word_count"`
	PartyCounts       map[string]int `json:"party_counts"`
	Speakers          []Speaker      `json:"speakers"`
}
