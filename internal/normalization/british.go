package normalization

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// izeStems take -ize/-ise endings and their usual inflections.
var izeStems = []string{
	"apologi", "authori", "capitali", "categori", "centrali", "characteri", "civili",
	"critici", "decentrali", "emphasi", "finali", "globali", "harmoni", "industriali",
	"itemi", "legali", "liberali", "maximi", "memori", "minimi", "mobili", "moderni",
	"moneti", "nationali", "neutrali", "normali", "optimi", "organi", "penali",
	"prioriti", "privati", "reali", "recogni", "revitali", "scrutini", "speciali",
	"stabili", "standardi", "subsidi", "summari", "synchroni", "urbani", "utili",
	"visuali",
}

// ourStems take the -or/-our spelling.
var ourStems = []string{
	"armo", "behavio", "colo", "endeavo", "favo", "flavo", "harbo", "hono",
	"humo", "labo", "neighbo", "rumo", "savo", "splendo", "valo", "vapo", "vigo",
}

var fixedSpellings = map[string]string{
	"aluminum":       "aluminium",
	"analyze":        "analyse",
	"analyzed":       "analysed",
	"analyzes":       "analyses",
	"analyzing":      "analysing",
	"paralyze":       "paralyse",
	"paralyzed":      "paralysed",
	"catalog":        "catalogue",
	"catalogs":       "catalogues",
	"center":         "centre",
	"centers":        "centres",
	"centered":       "centred",
	"theater":        "theatre",
	"theaters":       "theatres",
	"fiber":          "fibre",
	"liter":          "litre",
	"liters":         "litres",
	"somber":         "sombre",
	"defense":        "defence",
	"defenses":       "defences",
	"offense":        "offence",
	"offenses":       "offences",
	"pretense":       "pretence",
	"dialog":         "dialogue",
	"program":        "programme",
	"programs":       "programmes",
	"gray":           "grey",
	"fulfill":        "fulfil",
	"fulfillment":    "fulfilment",
	"enrollment":     "enrolment",
	"installment":    "instalment",
	"skillful":       "skilful",
	"canceled":       "cancelled",
	"canceling":      "cancelling",
	"traveled":       "travelled",
	"traveling":      "travelling",
	"traveler":       "traveller",
	"travelers":      "travellers",
	"labeled":        "labelled",
	"labeling":       "labelling",
	"modeling":       "modelling",
	"fueled":         "fuelled",
	"fueling":        "fuelling",
	"counselor":      "counsellor",
	"counselors":     "counsellors",
	"jewelry":        "jewellery",
	"pediatric":      "paediatric",
	"maneuver":       "manoeuvre",
	"maneuvers":      "manoeuvres",
	"favorable":      "favourable",
	"favorite":       "favourite",
	"favorites":      "favourites",
	"honorable":      "honourable",
	"colorful":       "colourful",
	"neighborhood":   "neighbourhood",
	"neighborhoods":  "neighbourhoods",
	"behavioral":     "behavioural",
	"judgment":       "judgement",
	"judgments":      "judgements",
	"acknowledgment": "acknowledgement",
	"mold":           "mould",
	"plow":           "plough",
	"cozy":           "cosy",
}

var (
	britishTable   map[string]string
	britishPattern *regexp.Regexp
)

func init() {
	britishTable = buildBritishTable()
	keys := make([]string, 0, len(britishTable))
	for k := range britishTable {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// Longest first so alternation never settles on a prefix.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	britishPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(keys, "|") + `)\b`)
}

func buildBritishTable() map[string]string {
	t := make(map[string]string, len(fixedSpellings)+len(izeStems)*8+len(ourStems)*4)
	for _, stem := range izeStems {
		for _, suffix := range []string{"ze", "zed", "zes", "zing", "zer", "zers", "zation", "zations"} {
			t[stem+suffix] = stem + "s" + suffix[1:]
		}
	}
	for _, stem := range ourStems {
		for _, suffix := range []string{"r", "rs", "red", "ring"} {
			t[stem+suffix] = stem + "u" + suffix
		}
	}
	for us, uk := range fixedSpellings {
		t[us] = uk
	}
	return t
}

// ToBritish rewrites American spellings from a fixed table into British ones.
// Matching is whole-word and case-insensitive; the case shape of each match
// (lower, Title or UPPER) is kept. Applying it twice equals applying it once.
func ToBritish(s string) string {
	if s == "" {
		return s
	}
	return britishPattern.ReplaceAllStringFunc(s, func(match string) string {
		uk, ok := britishTable[strings.ToLower(match)]
		if !ok {
			return match
		}
		return matchCase(match, uk)
	})
}

// ToBritishAll applies ToBritish to every element in place and returns xs.
func ToBritishAll(xs []string) []string {
	for i := range xs {
		xs[i] = ToBritish(xs[i])
	}
	return xs
}

// matchCase builds a fresh Caser per call; Casers are not safe for concurrent use.
func matchCase(original, replacement string) string {
	if utf8.RuneCountInString(original) > 1 && strings.ToUpper(original) == original {
		return cases.Upper(language.BritishEnglish).String(replacement)
	}
	first, _ := utf8.DecodeRuneInString(original)
	if unicode.IsUpper(first) {
		return cases.Title(language.BritishEnglish).String(replacement)
	}
	return replacement
}
