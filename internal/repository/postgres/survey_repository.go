package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

type surveyRepository struct {
	scope *Scope
}

func NewSurveyRepository(scope *Scope) repository.SurveyRepository {
	return &surveyRepository{scope: scope}
}

var _ repository.SurveyRepository = (*surveyRepository)(nil)

const questionColumns = `
	id,
	tenant_id,
	coupon_id,
	position,
	question_type,
	prompt,
	options,
	min_value,
	max_value,
	is_required,
	created_at
`

func (r *surveyRepository) QuestionsForCoupon(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
) ([]model.SurveyQuestion, error) {
	return r.loadQuestions(ctx, tenantID, `coupon_id = $1`, couponID)
}

func (r *surveyRepository) QuestionsForTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) ([]model.SurveyQuestion, error) {
	return r.loadQuestions(ctx, tenantID, `coupon_id IS NULL`)
}

func (r *surveyRepository) loadQuestions(
	ctx context.Context,
	tenantID uuid.UUID,
	where string,
	args ...any,
) ([]model.SurveyQuestion, error) {
	var questions []model.SurveyQuestion
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, queryErr := tx.Query(
			ctx,
			`SELECT `+questionColumns+`
			   FROM survey_questions
			  WHERE `+where+`
			  ORDER BY position ASC, created_at ASC`,
			args...,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			question, scanErr := scanQuestion(rows)
			if scanErr != nil {
				return scanErr
			}
			questions = append(questions, *question)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// StoreResponse writes the response row, every answer and, when the
// response carries an email, the implied opt-in inside one transaction.
// Either everything lands or nothing does.
func (r *surveyRepository) StoreResponse(ctx context.Context, response *model.SurveyResponse) error {
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	if response.SubmittedAt.IsZero() {
		response.SubmittedAt = time.Now().UTC()
	}

	return r.scope.WithTenant(ctx, response.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO survey_responses (id, tenant_id, coupon_id, email, submitted_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			response.ID,
			response.TenantID,
			response.CouponID,
			response.Email,
			response.SubmittedAt,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i := range response.Answers {
			answer := &response.Answers[i]
			if answer.ID == uuid.Nil {
				answer.ID = uuid.New()
			}
			answer.ResponseID = response.ID

			encoded, err := json.Marshal(answer.Answer)
			if err != nil {
				return err
			}
			batch.Queue(
				`INSERT INTO survey_answers (id, response_id, question_id, answer)
				 VALUES ($1, $2, $3, $4)`,
				answer.ID,
				answer.ResponseID,
				answer.QuestionID,
				encoded,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for range response.Answers {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}

		if response.Email != nil && *response.Email != "" {
			if _, err := tx.Exec(
				ctx,
				`INSERT INTO email_opt_ins (id, tenant_id, email, consented_at)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (tenant_id, email) DO NOTHING`,
				uuid.New(),
				response.TenantID,
				*response.Email,
				response.SubmittedAt,
			); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *surveyRepository) CreateQuestion(ctx context.Context, question *model.SurveyQuestion) error {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}

	options, err := encodeOptions(question.Options)
	if err != nil {
		return err
	}

	return r.scope.WithTenant(ctx, question.TenantID, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(
			ctx,
			`INSERT INTO survey_questions (
				id, tenant_id, coupon_id, position, question_type,
				prompt, options, min_value, max_value, is_required, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			question.ID,
			question.TenantID,
			question.CouponID,
			question.Position,
			question.Type,
			question.Prompt,
			options,
			question.MinValue,
			question.MaxValue,
			question.IsRequired,
			question.CreatedAt,
		)
		return execErr
	})
}

func (r *surveyRepository) UpdateQuestion(ctx context.Context, question *model.SurveyQuestion) error {
	options, err := encodeOptions(question.Options)
	if err != nil {
		return err
	}

	return r.scope.WithTenant(ctx, question.TenantID, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(
			ctx,
			`UPDATE survey_questions
			    SET position = $2,
			        question_type = $3,
			        prompt = $4,
			        options = $5,
			        min_value = $6,
			        max_value = $7,
			        is_required = $8
			  WHERE id = $1`,
			question.ID,
			question.Position,
			question.Type,
			question.Prompt,
			options,
			question.MinValue,
			question.MaxValue,
			question.IsRequired,
		)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *surveyRepository) DeleteQuestion(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM survey_questions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *surveyRepository) ListResponses(
	ctx context.Context,
	tenantID uuid.UUID,
	couponID *uuid.UUID,
	page repository.Pagination,
) ([]*model.SurveyResponse, int64, error) {
	limit, offset := normalizePagination(page)

	var (
		responses []*model.SurveyResponse
		total     int64
	)
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		query := `
			SELECT id, tenant_id, coupon_id, email, submitted_at
			  FROM survey_responses`
		countQuery := `SELECT COUNT(*) FROM survey_responses`
		args := []any{}
		if couponID != nil {
			query += ` WHERE coupon_id = $1`
			countQuery += ` WHERE coupon_id = $1`
			args = append(args, *couponID)
		}
		query += ` ORDER BY submitted_at DESC`

		listArgs := append(append([]any{}, args...), limit, offset)
		if couponID != nil {
			query += ` LIMIT $2 OFFSET $3`
		} else {
			query += ` LIMIT $1 OFFSET $2`
		}

		rows, queryErr := tx.Query(ctx, query, listArgs...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		ids := make([]uuid.UUID, 0, limit)
		for rows.Next() {
			response := &model.SurveyResponse{}
			if scanErr := rows.Scan(
				&response.ID,
				&response.TenantID,
				&response.CouponID,
				&response.Email,
				&response.SubmittedAt,
			); scanErr != nil {
				return scanErr
			}
			responses = append(responses, response)
			ids = append(ids, response.ID)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}

		if len(ids) > 0 {
			if err := attachAnswers(ctx, tx, responses, ids); err != nil {
				return err
			}
		}

		return tx.QueryRow(ctx, countQuery, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

func attachAnswers(ctx context.Context, tx pgx.Tx, responses []*model.SurveyResponse, ids []uuid.UUID) error {
	rows, err := tx.Query(
		ctx,
		`SELECT id, response_id, question_id, answer
		   FROM survey_answers
		  WHERE response_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]*model.SurveyResponse, len(responses))
	for _, response := range responses {
		byID[response.ID] = response
	}

	for rows.Next() {
		var (
			answer model.SurveyAnswer
			raw    []byte
		)
		if err := rows.Scan(&answer.ID, &answer.ResponseID, &answer.QuestionID, &raw); err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &answer.Answer); err != nil {
			return err
		}
		if response, ok := byID[answer.ResponseID]; ok {
			response.Answers = append(response.Answers, answer)
		}
	}
	return rows.Err()
}

func scanQuestion(src scanTarget) (*model.SurveyQuestion, error) {
	question := &model.SurveyQuestion{}
	var options []byte
	err := src.Scan(
		&question.ID,
		&question.TenantID,
		&question.CouponID,
		&question.Position,
		&question.Type,
		&question.Prompt,
		&options,
		&question.MinValue,
		&question.MaxValue,
		&question.IsRequired,
		&question.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, err
		}
	}
	return question, nil
}

func encodeOptions(options []string) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	return json.Marshal(options)
}
