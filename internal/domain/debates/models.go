package debates

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DebateRecord is the stored, enriched debate keyed by its external id.
type DebateRecord struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExtID string    `gorm:"column:ext_id;not null;uniqueIndex" json:"ext_id"`

	Title       string `gorm:"column:title;type:text;not null" json:"title"`
	Date        string `gorm:"column:date;index" json:"date"`
	House       string `gorm:"column:house;index" json:"house"`
	Location    string `gorm:"column:location" json:"location"`
	Type        string `gorm:"column:type;index" json:"type"`
	ParentExtID string `gorm:"column:parent_ext_id" json:"parent_ext_id"`
	PrevExtID   string `gorm:"column:prev_ext_id" json:"prev_ext_id"`
	NextExtID   string `gorm:"column:next_ext_id" json:"next_ext_id"`

	ContributionCount int            `gorm:"column:contribution_count" json:"contribution_count"`
	SpeakerCount      int            `gorm:"column:speaker_count" json:"speaker_count"`
	WordCount         int            `gorm:"column:word_count" json:"word_count"`
	PartyCounts       datatypes.JSON `gorm:"type:jsonb;column:party_counts" json:"party_counts"`
	Speakers          datatypes.JSON `gorm:"type:jsonb;column:speakers" json:"speakers"`

	InterestScore   float64        `gorm:"column:interest_score;index" json:"interest_score"`
	InterestFactors datatypes.JSON `gorm:"type:jsonb;column:interest_factors" json:"interest_factors"`

	AITitle           string         `gorm:"column:ai_title;type:text" json:"ai_title"`
	AIOverview        string         `gorm:"column:ai_overview;type:text" json:"ai_overview"`
	AISummary         string         `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	AITone            string         `gorm:"column:ai_tone" json:"ai_tone"`
	AIKeyThemes       datatypes.JSON `gorm:"type:jsonb;column:ai_key_themes" json:"ai_key_themes"`
	AIQuestion        string         `gorm:"column:ai_question;type:text" json:"ai_question"`
	AIQuestionTopic   string         `gorm:"column:ai_question_topic" json:"ai_question_topic"`
	AIQuestionContext string         `gorm:"column:ai_question_context;type:text" json:"ai_question_context"`
	AITopics          datatypes.JSON `gorm:"type:jsonb;column:ai_topics" json:"ai_topics"`
	AIKeyPoints       datatypes.JSON `gorm:"type:jsonb;column:ai_key_points" json:"ai_key_points"`
	AIComments        datatypes.JSON `gorm:"type:jsonb;column:ai_comments" json:"ai_comments"`

	// Curated by editors; never part of a pipeline upsert.
	EditorNotes string `gorm:"column:editor_notes;type:text" json:"editor_notes"`
	Featured    bool   `gorm:"column:featured" json:"featured"`
	Hidden      bool   `gorm:"column:hidden" json:"hidden"`

	// IndexFileID is the provider file holding the debate's indexed document.
	IndexFileID string `gorm:"column:index_file_id" json:"index_file_id"`

	ProcessedAt time.Time `gorm:"column:processed_at" json:"processed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (DebateRecord) TableName() string { return "debates" }

type DivisionRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExtID       string    `gorm:"column:ext_id;not null;uniqueIndex" json:"ext_id"`
	DebateExtID string    `gorm:"column:debate_ext_id;not null;index" json:"debate_ext_id"`

	Number         int            `gorm:"column:number" json:"number"`
	Date           string         `gorm:"column:date" json:"date"`
	House          string         `gorm:"column:house" json:"house"`
	AyeCount       int            `gorm:"column:aye_count" json:"aye_count"`
	NoCount        int            `gorm:"column:no_count" json:"no_count"`
	TextBeforeVote string         `gorm:"column:text_before_vote;type:text" json:"text_before_vote"`
	TextAfterVote  string         `gorm:"column:text_after_vote;type:text" json:"text_after_vote"`
	Ayes           datatypes.JSON `gorm:"type:jsonb;column:ayes" json:"ayes"`
	Noes           datatypes.JSON `gorm:"type:jsonb;column:noes" json:"noes"`

	Question         string         `gorm:"column:question;type:text" json:"question"`
	Topic            string         `gorm:"column:topic" json:"topic"`
	Context          string         `gorm:"column:context;type:text" json:"context"`
	ArgumentsFor     datatypes.JSON `gorm:"type:jsonb;column:arguments_for" json:"arguments_for"`
	ArgumentsAgainst datatypes.JSON `gorm:"type:jsonb;column:arguments_against" json:"arguments_against"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DivisionRecord) TableName() string { return "divisions" }

// VectorStoreWindow records the weekly index and its paired assistant.
type VectorStoreWindow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StartDate     string    `gorm:"column:start_date;not null;uniqueIndex" json:"start_date"`
	VectorStoreID string    `gorm:"column:vector_store_id;not null" json:"vector_store_id"`
	AssistantID   string    `gorm:"column:assistant_id;not null" json:"assistant_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (VectorStoreWindow) TableName() string { return "vector_store_windows" }

// AllModels lists every table the pipeline owns, in migration order.
func AllModels() []any {
	return []any{
		&DebateRecord{},
		&DivisionRecord{},
		&VectorStoreWindow{},
	}
}
