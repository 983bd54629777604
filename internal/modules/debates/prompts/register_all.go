package prompts

import "sync"

var registerOnce sync.Once

func init() {
	RegisterAll()
}

// RegisterAll registers every debate-analysis prompt. Safe to call repeatedly.
func RegisterAll() {
	registerOnce.Do(registerAll)
}

const debateHeader = `
Debate: {{.Title}}
Date: {{.Date}}
House: {{.House}}
Type: {{.Type}}
Location: {{.Location}}

Speakers:
{{.Speakers}}

Transcript:
{{.Transcript}}`

func registerAll() {
	RegisterSpec(Spec{
		Name:       PromptDebateSummary,
		Version:    1,
		SchemaName: "debate_summary",
		Schema:     DebateSummarySchema,
		System: `
You summarise UK parliamentary debates for a general audience.
Stay neutral and attribute positions to the members who took them.
Use British English spelling.
Return JSON only.`,
		User: debateHeader + `

Output rules:
- title: short plain-English headline (max 12 words).
- overview: one sentence on what was debated.
- summary: 3-6 sentences covering the main arguments and outcome.
- tone: neutral|contentious|collaborative.
- key_themes: 3-6 short phrases.`,
		Validators: []Validator{requireTranscript},
	})

	RegisterSpec(Spec{
		Name:       PromptSurveyQuestion,
		Version:    1,
		SchemaName: "survey_question",
		Schema:     SurveyQuestionSchema,
		System: `
You write one balanced yes/no question that lets readers give their view on the central issue of a parliamentary debate.
The question must be answerable without reading the debate and must not lead the reader.
Use British English spelling.
Return JSON only.`,
		User: debateHeader + `

Topics:
{{.Taxonomy}}

Output rules:
- question: a single yes/no question ending in "?".
- topic: the best-fitting topic from the list.
- context: one or two sentences of neutral background.`,
		Validators: []Validator{requireTranscript},
	})

	RegisterSpec(Spec{
		Name:       PromptDebateTopics,
		Version:    1,
		SchemaName: "debate_topics",
		Schema:     DebateTopicsSchema,
		System: `
You classify parliamentary debates against a fixed topic catalogue.
Only use topics and subtopics from the catalogue; a subtopic must belong to its topic.
Return JSON only.`,
		User: debateHeader + `

Catalogue (Topic: subtopics):
{{.Taxonomy}}

Output rules:
- topics: 1-3 topics, most relevant first.
- subtopics: 1-3 per topic, taken from that topic's line only.
- speakers: names of members who spoke to that topic.`,
		Validators: []Validator{
			requireTranscript,
			RequireNonEmpty("Taxonomy", func(in Input) string { return in.Taxonomy }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptKeyPoints,
		Version:    1,
		SchemaName: "key_points",
		Schema:     KeyPointsSchema,
		System: `
You extract the key points made in a parliamentary debate.
Every point must be attributed to the member who made it, using the speaker list for member ids, parties and constituencies.
Support and opposition list other members who explicitly agreed or disagreed.
Use British English spelling.
Return JSON only.`,
		User: debateHeader + `

Output rules:
- key_points: 3-8 points in debate order.
- speaker.member_id / party / constituency: null when unknown.
- context: null unless a short clarification is needed.
- keywords: 3-5 lowercase keywords.`,
		Validators: []Validator{requireTranscript},
	})

	RegisterSpec(Spec{
		Name:       PromptDivisionQuestions,
		Version:    1,
		SchemaName: "division_questions",
		Schema:     DivisionQuestionsSchema,
		System: `
You explain parliamentary divisions (recorded votes) to the public.
For each division write the question members were effectively voting on, phrased so that "Aye" means yes.
Use British English spelling.
Return JSON only.`,
		User: debateHeader + `

Divisions (JSON):
{{.DivisionsJSON}}

Output rules:
- questions: one entry per division, in the same order, division_id copied exactly from ext_id.
- question: a yes/no question.
- topic: 2-5 word topic label.
- context: 1-2 sentences on what the vote decided.
- arguments_for / arguments_against: 1-3 short arguments each, drawn from the debate.`,
		Validators: []Validator{
			requireTranscript,
			RequireNonEmpty("DivisionsJSON", func(in Input) string { return in.DivisionsJSON }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptCommentThread,
		Version:    1,
		SchemaName: "comment_thread",
		Schema:     CommentThreadSchema,
		System: `
You retell a parliamentary debate as a threaded discussion.
Each comment is a faithful paraphrase of something a member said; replies respond to the comment they follow.
Votes reflect which other members agreed (up) or disagreed (down) in the debate.
Use British English spelling.
Return JSON only.`,
		User: debateHeader + `

Output rules:
- comments: 4-12 comments; ids "c1", "c2", ...
- parent_id: null for top-level comments, otherwise an earlier id.
- author: the speaking member, with null member_id/party/constituency when unknown.
- tags: 1-3 lowercase tags.`,
		Validators: []Validator{requireTranscript},
	})
}
