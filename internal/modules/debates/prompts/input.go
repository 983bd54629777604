package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	Title    string
	Date     string
	House    string
	Type     string
	Location string
	// Transcript lines are "Speaker (Party): text".
	Transcript string
	// One "Name (Party, Constituency) [member_id]" per line.
	Speakers string
	// Divisions rendered for the division-question prompt; empty when none.
	DivisionsJSON string
	// Topic catalogue rendered as "Topic: sub, sub" lines.
	Taxonomy string
}
