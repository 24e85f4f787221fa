package coach

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

// ClientStage is the persisted funnel position of a user.
type ClientStage struct {
	UserID    uuid.UUID
	SessionID string
	Stage     Stage
	Tracker   ProgressionTracker
	UpdatedAt time.Time
}

// Repository provides data access for the coaching conversation state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new coach repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile loads the profile fields the prompt builder needs.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (UserProfile, error) {
	var (
		profile       UserProfile
		fullName      *string
		age           *int
		gender        *string
		goalType      *string
		activityLevel *string
		currentWeight *float64
		targetWeight  *float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, full_name, age, gender, goal_type, activity_level, current_weight, target_weight, created_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID).Scan(
		&profile.ID, &fullName, &age, &gender, &goalType, &activityLevel,
		&currentWeight, &targetWeight, &profile.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserProfile{}, ErrProfileNotFound
	}
	if err != nil {
		return UserProfile{}, err
	}

	if fullName != nil {
		profile.FullName = *fullName
	}
	if age != nil {
		profile.Age = *age
	}
	if gender != nil {
		profile.Gender = *gender
	}
	if goalType != nil {
		profile.GoalType = *goalType
	}
	if activityLevel != nil {
		profile.ActivityLevel = *activityLevel
	}
	if currentWeight != nil {
		profile.CurrentWeight = *currentWeight
	}
	if targetWeight != nil {
		profile.TargetWeight = *targetWeight
	}
	return profile, nil
}

// GetStage loads the user's stage for a session, defaulting to SDR with an
// empty tracker when no row exists yet.
func (r *Repository) GetStage(ctx context.Context, userID uuid.UUID, sessionID string) (ClientStage, error) {
	var (
		stage      ClientStage
		rawStage   string
		rawTracker []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, session_id, stage, stage_metadata, updated_at
		FROM client_stages
		WHERE user_id = $1 AND session_id = $2
	`, userID, sessionID).Scan(&stage.UserID, &stage.SessionID, &rawStage, &rawTracker, &stage.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClientStage{
			UserID:    userID,
			SessionID: sessionID,
			Stage:     StageSDR,
			Tracker:   ProgressionTracker{Stage: StageSDR},
		}, nil
	}
	if err != nil {
		return ClientStage{}, err
	}

	stage.Stage = ParseStage(rawStage)
	if len(rawTracker) > 0 {
		if err := json.Unmarshal(rawTracker, &stage.Tracker); err != nil {
			stage.Tracker = ProgressionTracker{Stage: stage.Stage}
		}
	}
	return stage, nil
}

// SaveStage upserts the user's stage and progression tracker.
func (r *Repository) SaveStage(ctx context.Context, state ClientStage) error {
	rawTracker, err := json.Marshal(state.Tracker)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO client_stages (user_id, session_id, stage, stage_metadata, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, session_id)
		DO UPDATE SET stage = EXCLUDED.stage, stage_metadata = EXCLUDED.stage_metadata, updated_at = now()
	`, state.UserID, state.SessionID, string(state.Stage), rawTracker)
	return err
}

// GetHistory returns the most recent interactions oldest-first.
func (r *Repository) GetHistory(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, content
		FROM interactions
		WHERE user_id = $1 AND session_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, err
		}
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// SaveInteraction appends one turn to the conversation log.
func (r *Repository) SaveInteraction(ctx context.Context, userID uuid.UUID, sessionID, role, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interactions (user_id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
	`, userID, sessionID, role, content)
	return err
}

// CountRecentCheckins counts daily activities completed in the last 7 days.
func (r *Repository) CountRecentCheckins(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM daily_activities
		WHERE user_id = $1 AND completed_at >= now() - interval '7 days'
	`, userID).Scan(&count)
	return count, err
}

// LoadMemory reads the structured conversation memory for a session,
// returning empty entities when none exists.
func (r *Repository) LoadMemory(ctx context.Context, userID uuid.UUID, sessionID string) (MemoryEntities, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT entities
		FROM conversation_memory
		WHERE user_id = $1 AND session_id = $2
	`, userID, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return NewMemoryEntities(), nil
	}
	if err != nil {
		return NewMemoryEntities(), err
	}

	entities := NewMemoryEntities()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entities); err != nil {
			return NewMemoryEntities(), err
		}
	}
	return entities, nil
}

// SaveMemory upserts the merged conversation memory.
func (r *Repository) SaveMemory(ctx context.Context, userID uuid.UUID, sessionID string, entities MemoryEntities) error {
	raw, err := json.Marshal(entities)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversation_memory (user_id, session_id, entities, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, session_id)
		DO UPDATE SET entities = EXCLUDED.entities, updated_at = now()
	`, userID, sessionID, raw)
	return err
}

// GuardMetric is one conversation guard observation.
type GuardMetric struct {
	UserID      uuid.UUID
	SessionID   string
	StageBefore Stage
	StageAfter  Stage
	Issues      []string
	Hints       []string
	Action      string
	Metadata    map[string]any
}

// RecordMetric inserts a guard observation. Callers treat failures as
// non-fatal; the conversation must not break over telemetry.
func (r *Repository) RecordMetric(ctx context.Context, metric GuardMetric) error {
	metadata := metric.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO conversation_metrics (user_id, session_id, stage_before, stage_after, issues, hints, guard_action, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, metric.UserID, metric.SessionID, string(metric.StageBefore), string(metric.StageAfter),
		metric.Issues, metric.Hints, metric.Action, rawMetadata)
	return err
}
