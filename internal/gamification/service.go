package gamification

import (
	"context"
	"encoding/json"
	"time"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/apperr"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

const couponValidity = 30 * 24 * time.Hour

// RewardStore is the persistence surface the service needs. Satisfied by
// *Repository.
type RewardStore interface {
	GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error)
	ListRewards(ctx context.Context) ([]Reward, error)
	GetReward(ctx context.Context, rewardID uuid.UUID) (Reward, error)
	ListRedemptions(ctx context.Context, userID uuid.UUID) ([]Redemption, error)
	ValidateRedemption(ctx context.Context, userID, rewardID uuid.UUID) (Validation, error)
	InsertRedemption(ctx context.Context, userID, rewardID uuid.UUID, xpSpent int, couponCode string, deliveryInfo json.RawMessage, expiresAt time.Time) (Redemption, error)
	UpdateRedemptionStatus(ctx context.Context, redemptionID uuid.UUID, status string) error
	ApproveRedemption(ctx context.Context, redemptionID uuid.UUID, processedAt time.Time) error
	DebitXP(ctx context.Context, userID uuid.UUID, amount int) error
	InsertCoupon(ctx context.Context, redemptionID, rewardID uuid.UUID, code string, expiresAt time.Time) error
	InsertEvent(ctx context.Context, userID uuid.UUID, eventType string, eventData map[string]any, pointsChange int) error
}

// RedeemResult is the successful redemption response.
type RedeemResult struct {
	Redemption  Redemption `json:"redemption"`
	Reward      Reward     `json:"reward"`
	UserXPAfter int        `json:"userXPAfter"`
}

// Service orchestrates reward redemption.
type Service struct {
	store    RewardStore
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates the gamification service.
func NewService(store RewardStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log, now: time.Now}
}

// GetSummary returns the user's XP, level and streak.
func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	return s.store.GetSummary(ctx, userID)
}

// ListRewards returns the active catalog.
func (s *Service) ListRewards(ctx context.Context) ([]Reward, error) {
	return s.store.ListRewards(ctx)
}

// ListRedemptions returns the user's redemption history.
func (s *Service) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]Redemption, error) {
	return s.store.ListRedemptions(ctx, userID)
}

// Redeem exchanges XP for a reward: validate, create a pending redemption
// with a coupon, debit the XP (cancelling the redemption when the debit
// fails), then approve and record the ledger event.
func (s *Service) Redeem(ctx context.Context, userID, rewardID uuid.UUID, deliveryInfo json.RawMessage) (RedeemResult, error) {
	validation, err := s.store.ValidateRedemption(ctx, userID, rewardID)
	if err != nil {
		return RedeemResult{}, apperr.Wrap(apperr.KindInternal, "Erro ao validar resgate", err)
	}
	if !validation.IsValid {
		return RedeemResult{}, apperr.Validation(validation.ErrorMessage).WithDetails(map[string]int{
			"userXP":     validation.UserXP,
			"rewardCost": validation.RewardCost,
		})
	}

	couponCode, err := GenerateCouponCode()
	if err != nil {
		return RedeemResult{}, apperr.Wrap(apperr.KindInternal, "Erro ao gerar cupom", err)
	}
	expiresAt := s.now().Add(couponValidity)

	redemption, err := s.store.InsertRedemption(ctx, userID, rewardID, validation.RewardCost, couponCode, deliveryInfo, expiresAt)
	if err != nil {
		return RedeemResult{}, apperr.Wrap(apperr.KindInternal, "Erro ao criar resgate", err)
	}

	if err := s.store.DebitXP(ctx, userID, validation.RewardCost); err != nil {
		if cancelErr := s.store.UpdateRedemptionStatus(ctx, redemption.ID, "cancelled"); cancelErr != nil {
			s.log.DatabaseError("update", "reward_redemptions", cancelErr)
		}
		return RedeemResult{}, apperr.Wrap(apperr.KindInternal, "Erro ao debitar XP", err)
	}

	// Non-fatal: the redemption already holds the coupon code.
	if err := s.store.InsertCoupon(ctx, redemption.ID, rewardID, couponCode, expiresAt); err != nil {
		s.log.DatabaseError("insert", "reward_coupons", err)
	}

	processedAt := s.now()
	if err := s.store.ApproveRedemption(ctx, redemption.ID, processedAt); err != nil {
		return RedeemResult{}, apperr.Wrap(apperr.KindInternal, "Erro ao confirmar resgate", err)
	}
	redemption.Status = "approved"
	redemption.ProcessedAt = &processedAt

	reward, err := s.store.GetReward(ctx, rewardID)
	if err != nil {
		s.log.DatabaseError("select", "rewards", err)
		reward = Reward{ID: rewardID}
	}

	if err := s.store.InsertEvent(ctx, userID, "reward_redeemed", map[string]any{
		"reward_id":    rewardID.String(),
		"reward_title": reward.Title,
		"xp_spent":     validation.RewardCost,
		"coupon_code":  couponCode,
	}, -validation.RewardCost); err != nil {
		s.log.DatabaseError("insert", "gamification_events", err)
	}

	s.eventBus.Publish(ctx, events.RewardRedeemed{
		BaseEvent:    events.NewBaseEvent(),
		UserID:       userID,
		RewardID:     rewardID,
		RedemptionID: redemption.ID,
		XPSpent:      validation.RewardCost,
		XPAfter:      validation.UserXP - validation.RewardCost,
	})

	return RedeemResult{
		Redemption:  redemption,
		Reward:      reward,
		UserXPAfter: validation.UserXP - validation.RewardCost,
	}, nil
}
