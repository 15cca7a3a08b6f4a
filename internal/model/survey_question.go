package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

// Closed set. Rating, slider, NPS, Likert and sentiment scales all map to
// QuestionNumeric with min/max bounds.
const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionRankedChoice QuestionType = "ranked_choice"
	QuestionNumeric      QuestionType = "numeric"
	QuestionBoolean      QuestionType = "boolean"
	QuestionFreeText     QuestionType = "free_text"
	QuestionDate         QuestionType = "date"
	QuestionTime         QuestionType = "time"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionRankedChoice,
		QuestionNumeric, QuestionBoolean, QuestionFreeText,
		QuestionDate, QuestionTime:
		return true
	default:
		return false
	}
}

type SurveyQuestion struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	TenantID   uuid.UUID    `db:"tenant_id" json:"tenant_id"`
	CouponID   *uuid.UUID   `db:"coupon_id" json:"coupon_id,omitempty"`
	Position   int          `db:"position" json:"position"`
	Type       QuestionType `db:"question_type" json:"question_type"`
	Prompt     string       `db:"prompt" json:"prompt"`
	Options    []string     `db:"options" json:"options,omitempty"`
	MinValue   *float64     `db:"min_value" json:"min_value,omitempty"`
	MaxValue   *float64     `db:"max_value" json:"max_value,omitempty"`
	IsRequired bool         `db:"is_required" json:"is_required"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// Survey is a loaded question set. Zero questions is a valid survey and
// means there is nothing to ask.
type Survey struct {
	TenantID  uuid.UUID        `json:"tenant_id"`
	CouponID  *uuid.UUID       `json:"coupon_id,omitempty"`
	Questions []SurveyQuestion `json:"questions"`
}

func (s *Survey) Empty() bool {
	return s == nil || len(s.Questions) == 0
}
