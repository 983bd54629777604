package prompts

type PromptName string

const (
	PromptDebateSummary     PromptName = "debate_summary"
	PromptSurveyQuestion    PromptName = "survey_question"
	PromptDebateTopics      PromptName = "debate_topics"
	PromptKeyPoints         PromptName = "key_points"
	PromptDivisionQuestions PromptName = "division_questions"
	PromptCommentThread     PromptName = "comment_thread"
)
