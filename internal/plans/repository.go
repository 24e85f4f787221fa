package plans

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileNotFound = errors.New("user profile not found")

// Plan is one stored training plan.
type Plan struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	PlanType        string          `json:"planType"`
	PlanData        json.RawMessage `json:"planData"`
	IsActive        bool            `json:"isActive"`
	GeneratedBy     string          `json:"generatedBy"`
	ExperienceLevel string          `json:"experienceLevel"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Feedback is one user comment about a plan.
type Feedback struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PlanType     string
	FeedbackText string
	Status       string
	CreatedAt    time.Time
}

// Profile carries the user attributes the plan prompts personalize on.
type Profile struct {
	FullName            string
	Age                 int
	Height              float64
	CurrentWeight       float64
	TargetWeight        float64
	GoalType            string
	ActivityLevel       string
	DietaryRestrictions string
}

// Repository provides data access for training plans and plan feedback.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new plans repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile loads the profile fields the generation prompts use.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var (
		profile             Profile
		fullName            *string
		age                 *int
		height              *float64
		currentWeight       *float64
		targetWeight        *float64
		goalType            *string
		activityLevel       *string
		dietaryRestrictions *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT full_name, age, height, current_weight, target_weight, goal_type, activity_level, dietary_restrictions
		FROM user_profiles
		WHERE user_id = $1
	`, userID).Scan(&fullName, &age, &height, &currentWeight, &targetWeight, &goalType, &activityLevel, &dietaryRestrictions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, err
	}

	if fullName != nil {
		profile.FullName = *fullName
	}
	if age != nil {
		profile.Age = *age
	}
	if height != nil {
		profile.Height = *height
	}
	if currentWeight != nil {
		profile.CurrentWeight = *currentWeight
	}
	if targetWeight != nil {
		profile.TargetWeight = *targetWeight
	}
	if goalType != nil {
		profile.GoalType = *goalType
	}
	if activityLevel != nil {
		profile.ActivityLevel = *activityLevel
	}
	if dietaryRestrictions != nil {
		profile.DietaryRestrictions = *dietaryRestrictions
	}
	return profile, nil
}

// DeactivatePlans flags every active plan of the given type as inactive.
// Runs before an insert so at most one plan per type stays active.
func (r *Repository) DeactivatePlans(ctx context.Context, userID uuid.UUID, planType string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_training_plans
		SET is_active = false
		WHERE user_id = $1 AND plan_type = $2 AND is_active = true
	`, userID, planType)
	return err
}

// InsertPlan stores a freshly generated plan as the active one.
func (r *Repository) InsertPlan(ctx context.Context, userID uuid.UUID, planType string, planData json.RawMessage, experienceLevel string) (Plan, error) {
	var plan Plan
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_training_plans (user_id, plan_type, plan_data, is_active, generated_by, experience_level)
		VALUES ($1, $2, $3, true, 'ai_coach', $4)
		RETURNING id, user_id, plan_type, plan_data, is_active, generated_by, experience_level, created_at
	`, userID, planType, planData, experienceLevel).Scan(
		&plan.ID, &plan.UserID, &plan.PlanType, &plan.PlanData,
		&plan.IsActive, &plan.GeneratedBy, &plan.ExperienceLevel, &plan.CreatedAt,
	)
	return plan, err
}

// ActivePlans returns the user's currently active plans.
func (r *Repository) ActivePlans(ctx context.Context, userID uuid.UUID) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, plan_type, plan_data, is_active, generated_by, experience_level, created_at
		FROM user_training_plans
		WHERE user_id = $1 AND is_active = true
		ORDER BY plan_type
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(
			&plan.ID, &plan.UserID, &plan.PlanType, &plan.PlanData,
			&plan.IsActive, &plan.GeneratedBy, &plan.ExperienceLevel, &plan.CreatedAt,
		); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// PendingFeedback returns unprocessed feedback for a plan type, newest first.
func (r *Repository) PendingFeedback(ctx context.Context, userID uuid.UUID, planType string) ([]Feedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, plan_type, feedback_text, status, created_at
		FROM plan_feedback
		WHERE user_id = $1 AND plan_type = $2 AND status = 'pending'
		ORDER BY created_at DESC
	`, userID, planType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []Feedback
	for rows.Next() {
		var fb Feedback
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.PlanType, &fb.FeedbackText, &fb.Status, &fb.CreatedAt); err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, fb)
	}
	return feedbacks, rows.Err()
}

// MarkFeedbackProcessed closes the given feedback entries after their plan
// was regenerated.
func (r *Repository) MarkFeedbackProcessed(ctx context.Context, ids []uuid.UUID, aiResponse string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE plan_feedback
		SET status = 'processed', processed_at = now(), plan_updated = true, ai_response = $2
		WHERE id = ANY($1)
	`, ids, aiResponse)
	return err
}

// InsertFeedback records a user's plan feedback for the next regeneration.
func (r *Repository) InsertFeedback(ctx context.Context, userID uuid.UUID, planType, feedbackText string) (Feedback, error) {
	var fb Feedback
	err := r.pool.QueryRow(ctx, `
		INSERT INTO plan_feedback (user_id, plan_type, feedback_text, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, user_id, plan_type, feedback_text, status, created_at
	`, userID, planType, feedbackText).Scan(&fb.ID, &fb.UserID, &fb.PlanType, &fb.FeedbackText, &fb.Status, &fb.CreatedAt)
	return fb, err
}

// RecordRegenerationFeedback logs a regeneration triggered from chat as an
// already-processed feedback entry.
func (r *Repository) RecordRegenerationFeedback(ctx context.Context, userID uuid.UUID, planType, feedbackText string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO plan_feedback (user_id, plan_type, feedback_text, status, processed_at, plan_updated, ai_response)
		VALUES ($1, $2, $3, 'processed', now(), true, 'Regenerado automaticamente pela IA Coach')
	`, userID, planType, feedbackText)
	return err
}
