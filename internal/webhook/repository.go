package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchedUser is a registered user found by phone.
type MatchedUser struct {
	ID    uuid.UUID
	Phone string
}

// Repository provides data access for inbound WhatsApp traffic.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindUserByPhone looks up a user by any of the phone candidates. Returns
// nil when no profile matches.
func (r *Repository) FindUserByPhone(ctx context.Context, candidates []string) (*MatchedUser, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var user MatchedUser
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, phone
		FROM user_profiles
		WHERE phone = ANY($1)
		LIMIT 1
	`, candidates).Scan(&user.ID, &user.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LogMessage appends one inbound message to the audit log. userID is nil
// for unregistered senders.
func (r *Repository) LogMessage(ctx context.Context, userID *uuid.UUID, phone, message, event string, receivedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO whatsapp_messages (user_id, phone, message, event, received_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, phone, message, event, receivedAt)
	return err
}

// InsertEmergencyAlert records a crisis detection for follow-up.
func (r *Repository) InsertEmergencyAlert(ctx context.Context, userID *uuid.UUID, phone, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_alerts (user_id, phone_number, message_content)
		VALUES ($1, $2, $3)
	`, userID, phone, message)
	return err
}
