package debates

const (
	PlaceholderQuestion = "Question unavailable"
	PlaceholderTopic    = "Unknown"
	PlaceholderContext  = "No additional context available."
)

type DivisionVoter struct {
	MemberID int    `json:"member_id"`
	Name     string `json:"name"`
	Party    string `json:"party"`
}

// Division is a normalised vote attached to a debate.
type Division struct {
	ExtID          string          `json:"ext_id"`
	DebateExtID    string          `json:"debate_ext_id"`
	Number         int             `json:"number"`
	Date           string          `json:"date"`
	House          House           `json:"house"`
	AyeCount       int             `json:"aye_count"`
	NoCount        int             `json:"no_count"`
	TextBeforeVote string          `json:"text_before_vote"`
	TextAfterVote  string          `json:"text_after_vote"`
	Ayes           []DivisionVoter `json:"ayes"`
	Noes           []DivisionVoter `json:"noes"`

	Question         string   `json:"question"`
	Topic            string   `json:"topic"`
	Context          string   `json:"context"`
	ArgumentsFor     []string `json:"arguments_for"`
	ArgumentsAgainst []string `json:"arguments_against"`
}

// WithPlaceholders fills the AI-authored fields with marked placeholder text.
func (d *Division) WithPlaceholders() {
	d.Question = PlaceholderQuestion
	d.Topic = PlaceholderTopic
	d.Context = PlaceholderContext
	d.ArgumentsFor = []string{}
	d.ArgumentsAgainst = []string{}
}
