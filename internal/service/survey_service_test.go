package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"perkgate-hub/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func requiredQuestion(questionType model.QuestionType, options ...string) model.SurveyQuestion {
	return model.SurveyQuestion{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		Type:       questionType,
		Prompt:     "How was it?",
		Options:    options,
		IsRequired: true,
	}
}

func answerFor(question model.SurveyQuestion, answer model.AnswerValue) []model.SurveyAnswerInput {
	return []model.SurveyAnswerInput{{QuestionID: question.ID, Answer: answer}}
}

func TestValidateAndStoreRejectsInvalidAnswers(t *testing.T) {
	t.Parallel()

	single := requiredQuestion(model.QuestionSingleChoice, "red", "blue")
	ranked := requiredQuestion(model.QuestionRankedChoice, "a", "b", "c")
	numeric := requiredQuestion(model.QuestionNumeric)
	numeric.MinValue = floatPtr(1)
	numeric.MaxValue = floatPtr(5)
	multi := requiredQuestion(model.QuestionMultiChoice, "x", "y")
	date := requiredQuestion(model.QuestionDate)
	clock := requiredQuestion(model.QuestionTime)

	cases := []struct {
		name     string
		question model.SurveyQuestion
		answers  []model.SurveyAnswerInput
		message  string
	}{
		{
			name:     "required question unanswered",
			question: single,
			answers:  nil,
			message:  "answer required",
		},
		{
			name:     "type mismatch",
			question: single,
			answers:  answerFor(single, model.AnswerValue{Type: model.QuestionFreeText, Text: "red"}),
			message:  "does not match",
		},
		{
			name:     "choice outside options",
			question: single,
			answers:  answerFor(single, model.AnswerValue{Type: model.QuestionSingleChoice, Choice: "green"}),
			message:  "not an offered option",
		},
		{
			name:     "ranking misses an option",
			question: ranked,
			answers:  answerFor(ranked, model.AnswerValue{Type: model.QuestionRankedChoice, Ranking: []string{"a", "b"}}),
			message:  "order every option",
		},
		{
			name:     "ranking repeats an option",
			question: ranked,
			answers:  answerFor(ranked, model.AnswerValue{Type: model.QuestionRankedChoice, Ranking: []string{"a", "a", "b"}}),
			message:  "ranked twice",
		},
		{
			name:     "numeric above bound",
			question: numeric,
			answers:  answerFor(numeric, model.AnswerValue{Type: model.QuestionNumeric, Number: 9}),
			message:  "above maximum",
		},
		{
			name:     "numeric below bound",
			question: numeric,
			answers:  answerFor(numeric, model.AnswerValue{Type: model.QuestionNumeric, Number: 0}),
			message:  "below minimum",
		},
		{
			name:     "multi choice duplicate",
			question: multi,
			answers:  answerFor(multi, model.AnswerValue{Type: model.QuestionMultiChoice, Choices: []string{"x", "x"}}),
			message:  "selected twice",
		},
		{
			name:     "malformed date",
			question: date,
			answers:  answerFor(date, model.AnswerValue{Type: model.QuestionDate, Date: "06/01/2025"}),
			message:  "not a valid date",
		},
		{
			name:     "malformed time",
			question: clock,
			answers:  answerFor(clock, model.AnswerValue{Type: model.QuestionTime, Time: "6pm"}),
			message:  "not a valid time",
		},
		{
			name:     "answer to unknown question",
			question: single,
			answers: append(
				answerFor(single, model.AnswerValue{Type: model.QuestionSingleChoice, Choice: "red"}),
				model.SurveyAnswerInput{
					QuestionID: uuid.New(),
					Answer:     model.AnswerValue{Type: model.QuestionBoolean, Bool: true},
				},
			),
			message: "unknown question",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			surveyRepo := newFakeSurveyRepo()
			surveyRepo.tenantQuestions = []model.SurveyQuestion{tc.question}
			svc := NewSurveyService(surveyRepo, nil, nil)

			_, err := svc.ValidateAndStore(context.Background(), tc.question.TenantID, nil, "a@example.com", tc.answers)

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(validationErr.Fields) == 0 {
				t.Fatal("expected at least one field error")
			}
			found := false
			for _, field := range validationErr.Fields {
				if strings.Contains(field.Message, tc.message) {
					found = true
				}
			}
			if !found {
				t.Fatalf("no field error mentioning %q in %+v", tc.message, validationErr.Fields)
			}
			if len(surveyRepo.stored) != 0 {
				t.Fatal("invalid submission must not be persisted")
			}
		})
	}
}

func TestValidateAndStorePersistsValidSubmission(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	single := requiredQuestion(model.QuestionSingleChoice, "red", "blue")
	optional := requiredQuestion(model.QuestionFreeText)
	optional.IsRequired = false

	surveyRepo := newFakeSurveyRepo()
	surveyRepo.tenantQuestions = []model.SurveyQuestion{single, optional}
	svc := NewSurveyService(surveyRepo, nil, nil)

	response, err := svc.ValidateAndStore(
		context.Background(),
		tenantID,
		nil,
		"a@example.com",
		answerFor(single, model.AnswerValue{Type: model.QuestionSingleChoice, Choice: "blue"}),
	)
	if err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}
	if len(surveyRepo.stored) != 1 {
		t.Fatalf("expected one stored response, got %d", len(surveyRepo.stored))
	}
	if response.Email == nil || *response.Email != "a@example.com" {
		t.Fatalf("email not attached: %+v", response.Email)
	}
	if len(response.Answers) != 1 {
		t.Fatalf("optional unanswered question must not produce an answer row, got %d", len(response.Answers))
	}
}

func TestLoadSurveyCouponOverridesTenant(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	couponID := uuid.New()
	couponQuestion := requiredQuestion(model.QuestionBoolean)
	tenantQuestion := requiredQuestion(model.QuestionFreeText)

	surveyRepo := newFakeSurveyRepo()
	surveyRepo.couponQuestions[couponID] = []model.SurveyQuestion{couponQuestion}
	surveyRepo.tenantQuestions = []model.SurveyQuestion{tenantQuestion}
	svc := NewSurveyService(surveyRepo, nil, nil)

	withCoupon, err := svc.LoadSurvey(context.Background(), tenantID, &couponID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(withCoupon.Questions) != 1 || withCoupon.Questions[0].ID != couponQuestion.ID {
		t.Fatalf("coupon-specific set should win: %+v", withCoupon.Questions)
	}

	otherCoupon := uuid.New()
	fallback, err := svc.LoadSurvey(context.Background(), tenantID, &otherCoupon)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(fallback.Questions) != 1 || fallback.Questions[0].ID != tenantQuestion.ID {
		t.Fatalf("tenant-wide set should back-fill: %+v", fallback.Questions)
	}
}

func TestSaveQuestionValidatesContract(t *testing.T) {
	t.Parallel()

	svc := NewSurveyService(newFakeSurveyRepo(), nil, nil)
	tenantID := uuid.New()

	cases := []struct {
		name     string
		question model.SurveyQuestion
		wantErr  bool
	}{
		{
			name: "choice question needs options",
			question: model.SurveyQuestion{
				TenantID: tenantID,
				Type:     model.QuestionSingleChoice,
				Prompt:   "Pick one",
				Options:  []string{"only"},
			},
			wantErr: true,
		},
		{
			name: "numeric bounds must be ordered",
			question: model.SurveyQuestion{
				TenantID: tenantID,
				Type:     model.QuestionNumeric,
				Prompt:   "Rate us",
				MinValue: floatPtr(5),
				MaxValue: floatPtr(1),
			},
			wantErr: true,
		},
		{
			name: "blank prompt",
			question: model.SurveyQuestion{
				TenantID: tenantID,
				Type:     model.QuestionBoolean,
				Prompt:   "   ",
			},
			wantErr: true,
		},
		{
			name: "valid boolean",
			question: model.SurveyQuestion{
				TenantID: tenantID,
				Type:     model.QuestionBoolean,
				Prompt:   "Would you return?",
			},
			wantErr: false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			question := tc.question
			err := svc.SaveQuestion(context.Background(), &question)
			if tc.wantErr && !errors.Is(err, ErrInvalidQuestion) {
				t.Fatalf("expected ErrInvalidQuestion, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
