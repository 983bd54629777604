package debates

import "strings"

type House string

const (
	HouseCommons House = "Commons"
	HouseLords   House = "Lords"
)

// ParseHouse accepts the records-source spelling and a few common aliases.
func ParseHouse(s string) (House, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "commons", "house of commons", "lower":
		return HouseCommons, true
	case "lords", "house of lords", "upper":
		return HouseLords, true
	default:
		return "", false
	}
}

const ItemTypeContribution = "Contribution"

// Overview is the header block of a records-source debate.
type Overview struct {
	ExtID               string `json:"ExtId"`
	Title               string `json:"Title"`
	HRSTag              string `json:"HRSTag"`
	Date                string `json:"Date"`
	Location            string `json:"Location"`
	House               House  `json:"House"`
	Source              int    `json:"Source"`
	ParentExtID         string `json:"ParentExtId"`
	PreviousDebateExtID string `json:"PreviousDebateExtId"`
	NextDebateExtID     string `json:"NextDebateExtId"`
}

// Contribution is one item of a debate transcript.
type Contribution struct {
	ItemType       string `json:"ItemType"`
	ItemID         int    `json:"ItemId"`
	MemberID       int    `json:"MemberId"`
	AttributedTo   string `json:"AttributedTo"`
	Value          string `json:"Value"`
	OrderInSection int    `json:"OrderInSection"`
	Timecode       string `json:"Timecode"`
	ExternalID     string `json:"ExternalId"`
	HRSTag         string `json:"HRSTag"`
}

func (c Contribution) IsContribution() bool {
	return c.ItemType == ItemTypeContribution
}

// Debate is a full records-source debate with its transcript items.
type Debate struct {
	Overview     Overview       `json:"Overview"`
	Items        []Contribution `json:"Items"`
	ChildDebates []Debate       `json:"ChildDebates"`
}

// Summary is a lightweight listing entry for a sitting day.
type Summary struct {
	ExtID    string `json:"ExternalId"`
	Title    string `json:"Title"`
	House    House  `json:"House"`
	Date     string `json:"Date"`
	Location string `json:"Location"`
}

type Member struct {
	ID           int    `json:"id"`
	DisplayName  string `json:"display_name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency"`
}

// Flatten returns d followed by every descendant debate, depth first. Children
// without a parent link inherit the ext id of the debate that contains them.
func (d Debate) Flatten() []Debate {
	out := []Debate{d}
	for _, child := range d.ChildDebates {
		if strings.TrimSpace(child.Overview.ParentExtID) == "" {
			child.Overview.ParentExtID = d.Overview.ExtID
		}
		if child.Overview.House == "" {
			child.Overview.House = d.Overview.House
		}
		if strings.TrimSpace(child.Overview.Date) == "" {
			child.Overview.Date = d.Overview.Date
		}
		out = append(out, child.Flatten()...)
	}
	return out
}
