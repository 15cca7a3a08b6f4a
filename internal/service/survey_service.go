package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/event"
	"perkgate-hub/internal/metrics"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// FieldError pins a rejection to one question so the form can highlight it.
type FieldError struct {
	QuestionID uuid.UUID `json:"question_id"`
	Message    string    `json:"message"`
}

// ValidationError rejects a submission wholesale: one invalid answer means
// nothing is persisted.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("invalid answer for question %s: %s", e.Fields[0].QuestionID, e.Fields[0].Message)
	}
	return fmt.Sprintf("%d invalid answers", len(e.Fields))
}

type SurveyService struct {
	surveyRepo repository.SurveyRepository
	eventBus   *event.Bus
	logger     *zap.Logger
}

func NewSurveyService(surveyRepo repository.SurveyRepository, eventBus *event.Bus, logger *zap.Logger) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SurveyService{
		surveyRepo: surveyRepo,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// LoadSurvey resolves the question set for a flow: a coupon-specific set
// overrides the tenant-wide set for that coupon. A survey with zero
// questions is a valid outcome meaning there is nothing to ask.
func (s *SurveyService) LoadSurvey(ctx context.Context, tenantID uuid.UUID, couponID *uuid.UUID) (*model.Survey, error) {
	survey := &model.Survey{TenantID: tenantID, CouponID: couponID}

	if couponID != nil {
		questions, err := s.surveyRepo.QuestionsForCoupon(ctx, tenantID, *couponID)
		if err != nil {
			return nil, err
		}
		if len(questions) > 0 {
			survey.Questions = questions
			return survey, nil
		}
	}

	questions, err := s.surveyRepo.QuestionsForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	survey.Questions = questions
	survey.CouponID = nil
	if couponID != nil {
		survey.CouponID = couponID
	}
	return survey, nil
}

// ValidateAndStore checks every answer against its question's type
// contract and persists the whole submission atomically. When an email is
// attached, the implied opt-in rides the same transaction: completing a
// survey is opting in.
func (s *SurveyService) ValidateAndStore(
	ctx context.Context,
	tenantID uuid.UUID,
	couponID *uuid.UUID,
	email string,
	answers []model.SurveyAnswerInput,
) (*model.SurveyResponse, error) {
	survey, err := s.LoadSurvey(ctx, tenantID, couponID)
	if err != nil {
		return nil, err
	}

	validated, validationErr := validateAnswers(survey.Questions, answers)
	if validationErr != nil {
		metrics.ObserveSurveySubmission(false)
		return nil, validationErr
	}

	response := &model.SurveyResponse{
		TenantID:    tenantID,
		CouponID:    couponID,
		SubmittedAt: time.Now().UTC(),
		Answers:     validated,
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		response.Email = &trimmed
	}

	if err := s.surveyRepo.StoreResponse(ctx, response); err != nil {
		return nil, err
	}

	metrics.ObserveSurveySubmission(true)
	if s.eventBus != nil {
		payloadEmail := ""
		if response.Email != nil {
			payloadEmail = *response.Email
		}
		s.eventBus.Publish(event.EventSurveyCompleted, event.SurveyCompletedPayload{
			TenantID:   tenantID,
			CouponID:   couponID,
			ResponseID: response.ID,
			Email:      payloadEmail,
			Answers:    len(response.Answers),
		})
	}
	return response, nil
}

var ErrInvalidQuestion = errors.New("invalid survey question")

// SaveQuestion creates or updates a question after checking the type
// contract is coherent: choice types need options, numeric bounds must be
// ordered.
func (s *SurveyService) SaveQuestion(ctx context.Context, question *model.SurveyQuestion) error {
	question.Prompt = strings.TrimSpace(question.Prompt)
	if question.TenantID == uuid.Nil || question.Prompt == "" || !question.Type.Valid() {
		return ErrInvalidQuestion
	}

	switch question.Type {
	case model.QuestionSingleChoice, model.QuestionMultiChoice, model.QuestionRankedChoice:
		if len(question.Options) < 2 {
			return ErrInvalidQuestion
		}
	case model.QuestionNumeric:
		if question.MinValue != nil && question.MaxValue != nil && *question.MinValue > *question.MaxValue {
			return ErrInvalidQuestion
		}
	}

	if question.ID == uuid.Nil {
		return s.surveyRepo.CreateQuestion(ctx, question)
	}
	return s.surveyRepo.UpdateQuestion(ctx, question)
}

func (s *SurveyService) DeleteQuestion(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.surveyRepo.DeleteQuestion(ctx, tenantID, id)
}

func (s *SurveyService) ListResponses(
	ctx context.Context,
	tenantID uuid.UUID,
	couponID *uuid.UUID,
	page repository.Pagination,
) ([]*model.SurveyResponse, int64, error) {
	return s.surveyRepo.ListResponses(ctx, tenantID, couponID, page)
}

// validateAnswers enforces each question's type contract. All failures are
// collected so the caller sees every problem at once; any failure rejects
// the submission wholesale.
func validateAnswers(
	questions []model.SurveyQuestion,
	answers []model.SurveyAnswerInput,
) ([]model.SurveyAnswer, error) {
	byQuestion := make(map[uuid.UUID]model.AnswerValue, len(answers))
	for _, input := range answers {
		byQuestion[input.QuestionID] = input.Answer
	}

	var fields []FieldError
	validated := make([]model.SurveyAnswer, 0, len(questions))

	for _, question := range questions {
		answer, answered := byQuestion[question.ID]
		if !answered {
			if question.IsRequired {
				fields = append(fields, FieldError{QuestionID: question.ID, Message: "answer required"})
			}
			continue
		}
		delete(byQuestion, question.ID)

		if answer.Type != question.Type {
			fields = append(fields, FieldError{
				QuestionID: question.ID,
				Message:    fmt.Sprintf("answer type %q does not match question type %q", answer.Type, question.Type),
			})
			continue
		}

		if message := checkAnswer(question, answer); message != "" {
			fields = append(fields, FieldError{QuestionID: question.ID, Message: message})
			continue
		}

		validated = append(validated, model.SurveyAnswer{
			QuestionID: question.ID,
			Answer:     answer,
		})
	}

	for questionID := range byQuestion {
		fields = append(fields, FieldError{QuestionID: questionID, Message: "unknown question"})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return validated, nil
}

func checkAnswer(question model.SurveyQuestion, answer model.AnswerValue) string {
	switch question.Type {
	case model.QuestionSingleChoice:
		if !containsOption(question.Options, answer.Choice) {
			return fmt.Sprintf("%q is not an offered option", answer.Choice)
		}

	case model.QuestionMultiChoice:
		if question.IsRequired && len(answer.Choices) == 0 {
			return "at least one option required"
		}
		seen := make(map[string]struct{}, len(answer.Choices))
		for _, choice := range answer.Choices {
			if !containsOption(question.Options, choice) {
				return fmt.Sprintf("%q is not an offered option", choice)
			}
			if _, dup := seen[choice]; dup {
				return fmt.Sprintf("%q selected twice", choice)
			}
			seen[choice] = struct{}{}
		}

	case model.QuestionRankedChoice:
		if len(answer.Ranking) != len(question.Options) {
			return "ranking must order every option exactly once"
		}
		seen := make(map[string]struct{}, len(answer.Ranking))
		for _, choice := range answer.Ranking {
			if !containsOption(question.Options, choice) {
				return fmt.Sprintf("%q is not an offered option", choice)
			}
			if _, dup := seen[choice]; dup {
				return fmt.Sprintf("%q ranked twice", choice)
			}
			seen[choice] = struct{}{}
		}

	case model.QuestionNumeric:
		if question.MinValue != nil && answer.Number < *question.MinValue {
			return fmt.Sprintf("value %v below minimum %v", answer.Number, *question.MinValue)
		}
		if question.MaxValue != nil && answer.Number > *question.MaxValue {
			return fmt.Sprintf("value %v above maximum %v", answer.Number, *question.MaxValue)
		}

	case model.QuestionBoolean:
		// Any boolean is valid.

	case model.QuestionFreeText:
		if question.IsRequired && strings.TrimSpace(answer.Text) == "" {
			return "text required"
		}

	case model.QuestionDate:
		if _, err := time.Parse(dateLayout, answer.Date); err != nil {
			return fmt.Sprintf("%q is not a valid date (expected YYYY-MM-DD)", answer.Date)
		}

	case model.QuestionTime:
		if _, err := time.Parse(timeLayout, answer.Time); err != nil {
			return fmt.Sprintf("%q is not a valid time (expected HH:MM)", answer.Time)
		}

	default:
		return fmt.Sprintf("unsupported question type %q", question.Type)
	}

	return ""
}

func containsOption(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
