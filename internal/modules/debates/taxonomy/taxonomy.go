package taxonomy

import (
	"strings"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
)

type Entry struct {
	Name      string
	Subtopics []string
}

var catalogue = []Entry{
	{
		Name:      "Environment and Natural Resources",
		Subtopics: []string{"Climate Change", "Energy", "Agriculture and Food", "Water and Flooding", "Wildlife and Conservation"},
	},
	{
		Name:      "Healthcare and Social Welfare",
		Subtopics: []string{"NHS Services", "Mental Health", "Social Care", "Benefits and Pensions", "Public Health"},
	},
	{
		Name:      "Economy, Business, and Infrastructure",
		Subtopics: []string{"Taxation", "Public Spending", "Trade", "Transport", "Housing"},
	},
	{
		Name:      "Science, Technology, and Communications",
		Subtopics: []string{"Research and Innovation", "Digital Economy", "Telecommunications", "Data Protection"},
	},
	{
		Name:      "Legal Affairs and Public Safety",
		Subtopics: []string{"Policing", "Criminal Justice", "Courts and Legal Aid", "Immigration", "Counter-Terrorism"},
	},
	{
		Name:      "International Affairs and Defence",
		Subtopics: []string{"Foreign Relations", "Armed Forces", "International Development", "Treaties and Sanctions"},
	},
	{
		Name:      "Parliamentary Affairs and Governance",
		Subtopics: []string{"Constitutional Reform", "Devolution", "Elections", "Parliamentary Procedure", "Local Government"},
	},
	{
		Name:      "Education, Culture, and Society",
		Subtopics: []string{"Schools", "Higher Education", "Arts and Heritage", "Sport", "Equality and Rights"},
	},
}

var byKey map[string]int

func init() {
	byKey = make(map[string]int, len(catalogue))
	for i, e := range catalogue {
		byKey[key(e.Name)] = i
	}
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// All returns a copy of the catalogue in its fixed order.
func All() []Entry {
	out := make([]Entry, len(catalogue))
	for i, e := range catalogue {
		out[i] = Entry{Name: e.Name, Subtopics: append([]string(nil), e.Subtopics...)}
	}
	return out
}

func Names() []string {
	out := make([]string, len(catalogue))
	for i, e := range catalogue {
		out[i] = e.Name
	}
	return out
}

func AllSubtopics() []string {
	var out []string
	for _, e := range catalogue {
		out = append(out, e.Subtopics...)
	}
	return out
}

// Lookup resolves a topic name case- and whitespace-insensitively.
func Lookup(name string) (Entry, bool) {
	i, ok := byKey[key(name)]
	if !ok {
		return Entry{}, false
	}
	return catalogue[i], true
}

// canonicalSubtopic returns the catalogue spelling of sub under e.
func canonicalSubtopic(e Entry, sub string) (string, bool) {
	k := key(sub)
	for _, s := range e.Subtopics {
		if key(s) == k {
			return s, true
		}
	}
	return "", false
}

func IsValid(topic, subtopic string) bool {
	e, ok := Lookup(topic)
	if !ok {
		return false
	}
	_, ok = canonicalSubtopic(e, subtopic)
	return ok
}

// Repair validates AI topics against the catalogue. Unknown topics are
// dropped, duplicate topics are merged, subtopics outside the topic's permitted
// set are removed and a topic left with none gets its first permitted
// subtopic. repaired counts every change made.
func Repair(in []debates.Topic) (out []debates.Topic, repaired int) {
	index := map[string]int{}
	for _, t := range in {
		e, ok := Lookup(t.Name)
		if !ok {
			repaired++
			continue
		}
		if t.Name != e.Name {
			repaired++
		}

		pos, seen := index[e.Name]
		if !seen {
			out = append(out, debates.Topic{Name: e.Name, Subtopics: []string{}})
			pos = len(out) - 1
			index[e.Name] = pos
		} else {
			repaired++
		}
		cur := &out[pos]

		for _, sub := range t.Subtopics {
			canon, ok := canonicalSubtopic(e, sub)
			if !ok {
				repaired++
				continue
			}
			if !contains(cur.Subtopics, canon) {
				cur.Subtopics = append(cur.Subtopics, canon)
			}
		}
		for _, sp := range t.Speakers {
			sp = strings.TrimSpace(sp)
			if sp != "" && !contains(cur.Speakers, sp) {
				cur.Speakers = append(cur.Speakers, sp)
			}
		}
	}
	for i := range out {
		if len(out[i].Subtopics) == 0 {
			e, _ := Lookup(out[i].Name)
			out[i].Subtopics = []string{e.Subtopics[0]}
			repaired++
		}
	}
	if out == nil {
		out = []debates.Topic{}
	}
	return out, repaired
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
