package model

import (
	"time"

	"github.com/google/uuid"
)

// SurveyResponse is created once per completed submission and never
// mutated afterward.
type SurveyResponse struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	TenantID    uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	CouponID    *uuid.UUID     `db:"coupon_id" json:"coupon_id,omitempty"`
	Email       *string        `db:"email" json:"email,omitempty"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submitted_at"`
	Answers     []SurveyAnswer `db:"-" json:"answers,omitempty"`
}

type SurveyAnswer struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	ResponseID uuid.UUID   `db:"response_id" json:"response_id"`
	QuestionID uuid.UUID   `db:"question_id" json:"question_id"`
	Answer     AnswerValue `db:"answer" json:"answer"`
}

// SurveyAnswerInput is one submitted answer before validation.
type SurveyAnswerInput struct {
	QuestionID uuid.UUID   `json:"question_id"`
	Answer     AnswerValue `json:"answer"`
}
