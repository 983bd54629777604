package steps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

// Document is one derived text file handed to the index.
type Document struct {
	ExtID   string
	Name    string
	Date    string
	Content []byte
}

// BuildDocument renders a processed debate as labelled plain-text sections.
func BuildDocument(in PersistInput) Document {
	ov := in.Debate.Overview
	var b strings.Builder

	section(&b, "Metadata")
	fmt.Fprintf(&b, "ID: %s\nTitle: %s\nDate: %s\nHouse: %s\n", ov.ExtID, ov.Title, ov.Date, ov.House)
	if ov.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", ov.Location)
	}
	if in.Type != "" {
		fmt.Fprintf(&b, "Type: %s\n", in.Type)
	}
	fmt.Fprintf(&b, "Contributions: %d\nSpeakers: %d\nWords: %d\n", in.Stats.ContributionCount, in.Stats.SpeakerCount, in.Stats.WordCount)

	if len(in.Stats.Speakers) > 0 {
		section(&b, "Speakers")
		for _, sp := range in.Stats.Speakers {
			b.WriteString("- " + speakerLabel(sp) + "\n")
		}
	}
	if len(in.Stats.PartyCounts) > 0 {
		parties := make([]string, 0, len(in.Stats.PartyCounts))
		for p := range in.Stats.PartyCounts {
			parties = append(parties, p)
		}
		sort.Strings(parties)
		b.WriteString("Parties: ")
		for i, p := range parties {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%d)", p, in.Stats.PartyCounts[p])
		}
		b.WriteString("\n")
	}

	if c := in.Content; c != nil {
		if c.Summary.Summary != "" {
			section(&b, "Summary")
			if c.Summary.Title != "" {
				b.WriteString(c.Summary.Title + "\n\n")
			}
			if c.Summary.Overview != "" {
				b.WriteString(c.Summary.Overview + "\n\n")
			}
			b.WriteString(c.Summary.Summary + "\n")
			fmt.Fprintf(&b, "Tone: %s\n", c.Summary.Tone)
			if len(c.Summary.KeyThemes) > 0 {
				b.WriteString("Themes: " + strings.Join(c.Summary.KeyThemes, ", ") + "\n")
			}
		}
		if len(c.Topics) > 0 {
			section(&b, "Topics")
			for _, t := range c.Topics {
				b.WriteString("- " + t.Name + ": " + strings.Join(t.Subtopics, ", ") + "\n")
			}
		}
		if len(c.KeyPoints) > 0 {
			section(&b, "Key Points")
			for _, kp := range c.KeyPoints {
				b.WriteString("- " + kp.Point + " (" + speakerLabel(kp.Speaker) + ")\n")
				if len(kp.Support) > 0 {
					b.WriteString("  Supported by: " + speakerNames(kp.Support) + "\n")
				}
				if len(kp.Opposition) > 0 {
					b.WriteString("  Opposed by: " + speakerNames(kp.Opposition) + "\n")
				}
			}
		}
	}

	if len(in.Divisions) > 0 {
		section(&b, "Divisions")
		for _, d := range in.Divisions {
			fmt.Fprintf(&b, "- Division %d: Ayes %d, Noes %d\n", d.Number, d.AyeCount, d.NoCount)
			if d.Question != "" && d.Question != debates.PlaceholderQuestion {
				b.WriteString("  Question: " + d.Question + "\n")
			}
		}
	}

	return Document{
		ExtID:   strings.TrimSpace(ov.ExtID),
		Name:    documentName(ov),
		Date:    ov.Date,
		Content: []byte(strings.TrimSpace(b.String()) + "\n"),
	}
}

func section(b *strings.Builder, name string) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("## " + name + "\n")
}

func speakerLabel(sp debates.Speaker) string {
	var meta []string
	if sp.Party != "" {
		meta = append(meta, sp.Party)
	}
	if sp.Constituency != "" {
		meta = append(meta, sp.Constituency)
	}
	if len(meta) == 0 {
		return sp.Name
	}
	return sp.Name + " (" + strings.Join(meta, ", ") + ")"
}

func speakerNames(sps []debates.Speaker) string {
	names := make([]string, 0, len(sps))
	for _, sp := range sps {
		names = append(names, sp.Name)
	}
	return strings.Join(names, ", ")
}

func documentName(ov debates.Overview) string {
	return fmt.Sprintf("%s_%s_%s.txt", ov.Date, strings.ToLower(string(ov.House)), ov.ExtID)
}
