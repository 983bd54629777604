package steps

import (
	"strings"
	"unicode"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/normalization"
)

const (
	ReasonPrayers           = "prayers"
	ReasonProceduralHeading = "procedural_heading"
	ReasonEmptyText         = "empty_text"
	ReasonNoMemberSpeakers  = "no_member_speakers"
)

const (
	TypeGrandCommittee      = "Grand Committee"
	TypeLordsChamber        = "Lords Chamber"
	TypePMQs                = "Prime Minister's Questions"
	TypePublicBillCommittee = "Public Bill Committee"
	TypeWestminsterHall     = "Westminster Hall"
	TypeGeneralCommittee    = "General Committee"
	TypeGeneralDebate       = "General Debate"
)

type Classification struct {
	Eligible bool
	Reason   string
	Type     string
}

// Tags that mark headings or business taken without debate.
var proceduralTags = map[string]bool{
	"hs_6bboldheading":     true,
	"hs_2businesswodebate": true,
}

const mainHeadingTag = "hs_3mainhdg"

// Tags whose readable form says nothing about the kind of debate.
var genericTypeLabels = map[string]bool{
	"":                true,
	"heading":         true,
	"main heading":    true,
	"bold heading":    true,
	"generic heading": true,
	"new debate":      true,
	"para":            true,
	"member":          true,
	"time":            true,
}

var tagAbbreviations = []struct{ from, to string }{
	{"Hdg", "Heading"},
	{"WO", "Without"},
	{"West Hall", "Westminster Hall"},
	{"Qn", "Question"},
	{"Qns", "Questions"},
	{"Wms", "Written Ministerial Statement"},
	{"PBC", "Public Bill Committee"},
	{"Pmqs", TypePMQs},
}

var locationTypes = []struct{ match, typ string }{
	{"Public Bill Committees", TypePublicBillCommittee},
	{"Westminster Hall", TypeWestminsterHall},
	{"General Committees", TypeGeneralCommittee},
}

// ClassifyDebate decides whether d is worth processing and derives its type.
// It is pure: the same debate always yields the same classification.
func ClassifyDebate(d debates.Debate) Classification {
	ov := d.Overview
	if strings.Contains(strings.ToLower(ov.Title), "prayer") {
		return Classification{Reason: ReasonPrayers}
	}

	tag := strings.ToLower(strings.TrimSpace(ov.HRSTag))
	if proceduralTags[tag] || (tag == mainHeadingTag && !hasContributions(d)) {
		return Classification{Reason: ReasonProceduralHeading}
	}

	if ContributionText(d) == "" {
		return Classification{Reason: ReasonEmptyText}
	}

	if ov.House != debates.HouseLords {
		if !hasMemberSpeaker(d) && strings.TrimSpace(ov.PreviousDebateExtID) == "" {
			return Classification{Reason: ReasonNoMemberSpeakers}
		}
	}

	return Classification{Eligible: true, Type: DeriveType(ov)}
}

// DeriveType maps a debate header to a readable type label.
func DeriveType(ov debates.Overview) string {
	if ov.House == debates.HouseLords {
		switch {
		case strings.Contains(ov.Location, "Grand Committee"):
			return TypeGrandCommittee
		case strings.Contains(ov.Location, "Lords Chamber"):
			return TypeLordsChamber
		}
	}
	if strings.Contains(ov.Title, "Prime Minister") {
		return TypePMQs
	}
	if label := NormalizeHRSTag(ov.HRSTag); !genericTypeLabels[strings.ToLower(label)] {
		return label
	}
	for _, lt := range locationTypes {
		if strings.Contains(ov.Location, lt.match) {
			return lt.typ
		}
	}
	if ov.House == debates.HouseLords {
		return TypeLordsChamber
	}
	return TypeGeneralDebate
}

// NormalizeHRSTag turns a tag such as "hs_2cDebatedMotion" into "Debated Motion".
func NormalizeHRSTag(tag string) string {
	s := strings.TrimSpace(tag)
	if len(s) >= 3 && strings.EqualFold(s[:3], "hs_") {
		s = s[3:]
	}
	// Numeric section code with an optional lowercase letter ("2c", "6b", "8").
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(s) && s[i] >= 'a' && s[i] <= 'z' && s[i+1] >= 'A' && s[i+1] <= 'Z' {
		i++
	}
	s = strings.Trim(s[i:], "_- ")
	if s == "" {
		return ""
	}

	words := strings.Fields(splitCaseTransitions(strings.ReplaceAll(s, "_", " ")))
	out := strings.Join(words, " ")
	for _, ab := range tagAbbreviations {
		out = replaceWord(out, ab.from, ab.to)
	}
	return out
}

func splitCaseTransitions(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// replaceWord swaps whole space-separated word sequences equal to from.
func replaceWord(s, from, to string) string {
	padded := " " + s + " "
	padded = strings.ReplaceAll(padded, " "+from+" ", " "+to+" ")
	return strings.TrimSpace(padded)
}

func hasContributions(d debates.Debate) bool {
	for _, it := range d.Items {
		if it.IsContribution() {
			return true
		}
	}
	return false
}

func hasMemberSpeaker(d debates.Debate) bool {
	for _, it := range d.Items {
		if it.IsContribution() && it.MemberID > 0 {
			return true
		}
	}
	return false
}

// ContributionText joins the markup-stripped text of every contribution.
func ContributionText(d debates.Debate) string {
	parts := make([]string, 0, len(d.Items))
	for _, it := range d.Items {
		if !it.IsContribution() {
			continue
		}
		if txt := normalization.StripHTML(it.Value); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}
