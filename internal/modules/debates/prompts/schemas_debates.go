package prompts

import (
	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/modules/debates/taxonomy"
)

func speakerSchema() map[string]any {
	return StrictObject(map[string]any{
		"name":         StringSchema(),
		"member_id":    IntOrNullSchema(),
		"party":        StringOrNullSchema(),
		"constituency": StringOrNullSchema(),
	})
}

func DebateSummarySchema() map[string]any {
	return StrictObject(map[string]any{
		"title":      StringSchema(),
		"overview":   StringSchema(),
		"summary":    StringSchema(),
		"tone":       EnumSchema(debates.ToneNeutral, debates.ToneContentious, debates.ToneCollaborative),
		"key_themes": StringArraySchema(),
	})
}

func SurveyQuestionSchema() map[string]any {
	return StrictObject(map[string]any{
		"question": StringSchema(),
		"topic":    EnumSchema(taxonomy.Names()...),
		"context":  StringSchema(),
	})
}

func DebateTopicsSchema() map[string]any {
	topic := StrictObject(map[string]any{
		"name":      EnumSchema(taxonomy.Names()...),
		"subtopics": ArrayOf(EnumSchema(taxonomy.AllSubtopics()...)),
		"speakers":  StringArraySchema(),
	})
	return StrictObject(map[string]any{
		"topics": ArrayOf(topic),
	})
}

func KeyPointsSchema() map[string]any {
	point := StrictObject(map[string]any{
		"point":      StringSchema(),
		"speaker":    speakerSchema(),
		"support":    ArrayOf(speakerSchema()),
		"opposition": ArrayOf(speakerSchema()),
		"context":    StringOrNullSchema(),
		"keywords":   StringArraySchema(),
	})
	return StrictObject(map[string]any{
		"key_points": ArrayOf(point),
	})
}

func DivisionQuestionsSchema() map[string]any {
	q := StrictObject(map[string]any{
		"division_id":       StringSchema(),
		"question":          StringSchema(),
		"topic":             StringSchema(),
		"context":           StringSchema(),
		"arguments_for":     StringArraySchema(),
		"arguments_against": StringArraySchema(),
	})
	return StrictObject(map[string]any{
		"questions": ArrayOf(q),
	})
}

func CommentThreadSchema() map[string]any {
	votes := StrictObject(map[string]any{
		"up":            IntSchema(),
		"down":          IntSchema(),
		"up_speakers":   StringArraySchema(),
		"down_speakers": StringArraySchema(),
	})
	comment := StrictObject(map[string]any{
		"id":        StringSchema(),
		"parent_id": StringOrNullSchema(),
		"author":    speakerSchema(),
		"content":   StringSchema(),
		"votes":     votes,
		"tags":      StringArraySchema(),
	})
	return StrictObject(map[string]any{
		"comments": ArrayOf(comment),
	})
}
