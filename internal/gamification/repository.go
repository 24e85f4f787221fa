package gamification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRedemptionNotFound = errors.New("redemption not found")
)

// Summary is a user's gamification standing.
type Summary struct {
	UserID           uuid.UUID  `json:"userId"`
	TotalXP          int        `json:"totalXp"`
	Level            int        `json:"level"`
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate,omitempty"`
}

// Reward is a redeemable catalog entry.
type Reward struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PartnerName string    `json:"partnerName"`
	ImageURL    string    `json:"imageUrl"`
	XPCost      int       `json:"xpCost"`
	IsActive    bool      `json:"isActive"`
}

// Redemption is one reward redemption.
type Redemption struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	RewardID    uuid.UUID  `json:"rewardId"`
	XPSpent     int        `json:"xpSpent"`
	Status      string     `json:"status"`
	CouponCode  string     `json:"couponCode"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Validation is the outcome of the redemption precheck.
type Validation struct {
	IsValid      bool
	ErrorMessage string
	UserXP       int
	RewardCost   int
}

// Repository provides data access for gamification state. Validation and
// XP debit run through SQL functions so the balance checks stay atomic in
// the database.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new gamification repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSummary returns the user's XP and streak, zeroed when no row exists.
func (r *Repository) GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	summary := Summary{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT total_xp, current_streak, longest_streak, last_activity_date
		FROM user_gamification
		WHERE user_id = $1
	`, userID).Scan(&summary.TotalXP, &summary.CurrentStreak, &summary.LongestStreak, &summary.LastActivityDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, err
	}
	summary.Level = Level(summary.TotalXP)
	return summary, nil
}

// ListRewards returns the active reward catalog, cheapest first.
func (r *Repository) ListRewards(ctx context.Context) ([]Reward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, category, partner_name, image_url, xp_cost, is_active
		FROM rewards
		WHERE is_active = true
		ORDER BY xp_cost
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []Reward
	for rows.Next() {
		var reward Reward
		if err := rows.Scan(
			&reward.ID, &reward.Title, &reward.Description, &reward.Category,
			&reward.PartnerName, &reward.ImageURL, &reward.XPCost, &reward.IsActive,
		); err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

// GetReward returns one catalog entry.
func (r *Repository) GetReward(ctx context.Context, rewardID uuid.UUID) (Reward, error) {
	var reward Reward
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, description, category, partner_name, image_url, xp_cost, is_active
		FROM rewards
		WHERE id = $1
	`, rewardID).Scan(
		&reward.ID, &reward.Title, &reward.Description, &reward.Category,
		&reward.PartnerName, &reward.ImageURL, &reward.XPCost, &reward.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reward{}, ErrRewardNotFound
	}
	return reward, err
}

// ListRedemptions returns the user's redemptions, newest first.
func (r *Repository) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]Redemption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, reward_id, xp_spent, status, coupon_code, expires_at, processed_at, created_at
		FROM reward_redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []Redemption
	for rows.Next() {
		var redemption Redemption
		if err := rows.Scan(
			&redemption.ID, &redemption.UserID, &redemption.RewardID, &redemption.XPSpent,
			&redemption.Status, &redemption.CouponCode, &redemption.ExpiresAt,
			&redemption.ProcessedAt, &redemption.CreatedAt,
		); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, redemption)
	}
	return redemptions, rows.Err()
}

// ValidateRedemption runs the database-side balance and availability check.
func (r *Repository) ValidateRedemption(ctx context.Context, userID, rewardID uuid.UUID) (Validation, error) {
	var validation Validation
	err := r.pool.QueryRow(ctx, `
		SELECT is_valid, error_message, user_xp, reward_cost
		FROM validate_reward_redemption($1, $2)
	`, userID, rewardID).Scan(
		&validation.IsValid, &validation.ErrorMessage, &validation.UserXP, &validation.RewardCost,
	)
	return validation, err
}

// InsertRedemption creates a pending redemption.
func (r *Repository) InsertRedemption(ctx context.Context, userID, rewardID uuid.UUID, xpSpent int, couponCode string, deliveryInfo json.RawMessage, expiresAt time.Time) (Redemption, error) {
	var redemption Redemption
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reward_redemptions (user_id, reward_id, xp_spent, status, coupon_code, delivery_info, expires_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6)
		RETURNING id, user_id, reward_id, xp_spent, status, coupon_code, expires_at, processed_at, created_at
	`, userID, rewardID, xpSpent, couponCode, deliveryInfo, expiresAt).Scan(
		&redemption.ID, &redemption.UserID, &redemption.RewardID, &redemption.XPSpent,
		&redemption.Status, &redemption.CouponCode, &redemption.ExpiresAt,
		&redemption.ProcessedAt, &redemption.CreatedAt,
	)
	return redemption, err
}

// UpdateRedemptionStatus sets the status of a redemption.
func (r *Repository) UpdateRedemptionStatus(ctx context.Context, redemptionID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reward_redemptions SET status = $2 WHERE id = $1
	`, redemptionID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRedemptionNotFound
	}
	return nil
}

// ApproveRedemption finalizes a redemption and stamps its processing time.
func (r *Repository) ApproveRedemption(ctx context.Context, redemptionID uuid.UUID, processedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reward_redemptions SET status = 'approved', processed_at = $2 WHERE id = $1
	`, redemptionID, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRedemptionNotFound
	}
	return nil
}

// DebitXP runs the database-side XP debit, which fails when the balance
// is insufficient.
func (r *Repository) DebitXP(ctx context.Context, userID uuid.UUID, amount int) error {
	_, err := r.pool.Exec(ctx, `SELECT debit_user_xp($1, $2)`, userID, amount)
	return err
}

// InsertCoupon stores the generated coupon for partner validation.
func (r *Repository) InsertCoupon(ctx context.Context, redemptionID, rewardID uuid.UUID, code string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reward_coupons (redemption_id, reward_id, code, expires_at)
		VALUES ($1, $2, $3, $4)
	`, redemptionID, rewardID, code, expiresAt)
	return err
}

// InsertEvent appends one gamification ledger entry.
func (r *Repository) InsertEvent(ctx context.Context, userID uuid.UUID, eventType string, eventData map[string]any, pointsChange int) error {
	rawData, err := json.Marshal(eventData)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO gamification_events (user_id, event_type, event_data, points_change)
		VALUES ($1, $2, $3, $4)
	`, userID, eventType, rawData, pointsChange)
	return err
}
