package proactive

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides the activity reads and message bookkeeping for the
// trigger engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new proactive repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetUserContext loads the evaluation context for one user.
func (r *Repository) GetUserContext(ctx context.Context, userID uuid.UUID) (UserContext, error) {
	user := UserContext{UserID: userID}
	var fullName, phone *string
	var totalXP, streak *int
	err := r.pool.QueryRow(ctx, `
		SELECT p.full_name, p.phone, g.total_xp, g.current_streak
		FROM user_profiles p
		LEFT JOIN user_gamification g ON g.user_id = p.user_id
		WHERE p.user_id = $1
	`, userID).Scan(&fullName, &phone, &totalXP, &streak)
	if err != nil {
		return UserContext{}, err
	}
	if fullName != nil {
		user.FirstName = firstWord(*fullName)
	}
	if phone != nil {
		user.Phone = *phone
	}
	if totalXP != nil {
		user.TotalXP = *totalXP
	}
	if streak != nil {
		user.CurrentStreak = *streak
	}
	return user, nil
}

// SweepUserIDs returns every user with a WhatsApp phone on file.
func (r *Repository) SweepUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM user_profiles WHERE phone IS NOT NULL AND phone <> ''
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LastUserMessageAt returns when the user last wrote to the coach.
func (r *Repository) LastUserMessageAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT created_at FROM interactions
		WHERE user_id = $1 AND role = 'user'
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// LastCompletedActivityAt returns the most recent completed activity.
func (r *Repository) LastCompletedActivityAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT completed_at FROM daily_activities
		WHERE user_id = $1 AND is_completed = true
		ORDER BY completed_at DESC
		LIMIT 1
	`, userID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// HasActivitySince reports whether the user completed anything after the
// given instant.
func (r *Repository) HasActivitySince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM daily_activities
			WHERE user_id = $1 AND completed_at >= $2
		)
	`, userID, since).Scan(&exists)
	return exists, err
}

// RecentFeedback returns plan feedback newer than the given instant,
// newest first.
func (r *Repository) RecentFeedback(ctx context.Context, userID uuid.UUID, since time.Time) ([]FeedbackEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT feedback_text, COALESCE(plan_type, '')
		FROM plan_feedback
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var entry FeedbackEntry
		if err := rows.Scan(&entry.Feedback, &entry.Pillar); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// HasRecentRedemption reports whether the user redeemed a reward after the
// given instant.
func (r *Repository) HasRecentRedemption(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reward_redemptions
			WHERE user_id = $1 AND created_at >= $2
		)
	`, userID, since).Scan(&exists)
	return exists, err
}

// CanSend runs the database-side cooldown check for one message type.
func (r *Repository) CanSend(ctx context.Context, userID uuid.UUID, messageType string) (bool, error) {
	var allowed bool
	err := r.pool.QueryRow(ctx, `
		SELECT can_send_proactive_message($1, $2)
	`, userID, messageType).Scan(&allowed)
	return allowed, err
}

// Record stores a sent proactive message.
func (r *Repository) Record(ctx context.Context, userID uuid.UUID, msg *Message) error {
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO proactive_messages (user_id, message_type, message_content, metadata)
		VALUES ($1, $2, $3, $4)
	`, userID, msg.Type, msg.Content, metadata)
	return err
}

// MarkResponded flips the most recent unanswered message, optionally
// restricted to one type, as responded.
func (r *Repository) MarkResponded(ctx context.Context, userID uuid.UUID, messageType string) error {
	query := `
		SELECT id FROM proactive_messages
		WHERE user_id = $1 AND response_received = false
	`
	args := []any{userID}
	if messageType != "" {
		query += ` AND message_type = $2`
		args = append(args, messageType)
	}
	query += ` ORDER BY sent_at DESC LIMIT 1`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE proactive_messages
		SET response_received = true, response_at = now()
		WHERE id = $1
	`, id)
	return err
}

func firstWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
