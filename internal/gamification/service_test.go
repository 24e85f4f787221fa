package gamification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/apperr"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	validation       Validation
	validationErr    error
	debitErr         error
	couponErr        error
	approveErr       error
	statusUpdates    map[uuid.UUID]string
	insertedEvents   []string
	insertedCoupons  int
	redemptionStatus string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		validation:    Validation{IsValid: true, UserXP: 5000, RewardCost: 1500},
		statusUpdates: make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) GetSummary(_ context.Context, userID uuid.UUID) (Summary, error) {
	return Summary{UserID: userID, TotalXP: f.validation.UserXP, Level: Level(f.validation.UserXP)}, nil
}

func (f *fakeStore) ListRewards(context.Context) ([]Reward, error) {
	return nil, nil
}

func (f *fakeStore) GetReward(_ context.Context, rewardID uuid.UUID) (Reward, error) {
	return Reward{ID: rewardID, Title: "Desconto Academia", XPCost: f.validation.RewardCost}, nil
}

func (f *fakeStore) ListRedemptions(context.Context, uuid.UUID) ([]Redemption, error) {
	return nil, nil
}

func (f *fakeStore) ValidateRedemption(context.Context, uuid.UUID, uuid.UUID) (Validation, error) {
	return f.validation, f.validationErr
}

func (f *fakeStore) InsertRedemption(_ context.Context, userID, rewardID uuid.UUID, xpSpent int, couponCode string, _ json.RawMessage, expiresAt time.Time) (Redemption, error) {
	f.redemptionStatus = "pending"
	return Redemption{
		ID:         uuid.New(),
		UserID:     userID,
		RewardID:   rewardID,
		XPSpent:    xpSpent,
		Status:     "pending",
		CouponCode: couponCode,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}, nil
}

func (f *fakeStore) UpdateRedemptionStatus(_ context.Context, redemptionID uuid.UUID, status string) error {
	f.statusUpdates[redemptionID] = status
	f.redemptionStatus = status
	return nil
}

func (f *fakeStore) ApproveRedemption(_ context.Context, _ uuid.UUID, _ time.Time) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.redemptionStatus = "approved"
	return nil
}

func (f *fakeStore) DebitXP(context.Context, uuid.UUID, int) error {
	return f.debitErr
}

func (f *fakeStore) InsertCoupon(context.Context, uuid.UUID, uuid.UUID, string, time.Time) error {
	if f.couponErr != nil {
		return f.couponErr
	}
	f.insertedCoupons++
	return nil
}

func (f *fakeStore) InsertEvent(_ context.Context, _ uuid.UUID, eventType string, _ map[string]any, _ int) error {
	f.insertedEvents = append(f.insertedEvents, eventType)
	return nil
}

func newTestService(store RewardStore) *Service {
	log := logger.New("test")
	return NewService(store, events.NewInMemoryBus(log), log)
}

func TestRedeemSuccess(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, err := svc.Redeem(context.Background(), uuid.New(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	if result.Redemption.Status != "approved" {
		t.Errorf("redemption status = %q, want approved", result.Redemption.Status)
	}
	if result.Redemption.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}
	if result.UserXPAfter != 3500 {
		t.Errorf("UserXPAfter = %d, want 3500", result.UserXPAfter)
	}
	if result.Reward.Title != "Desconto Academia" {
		t.Errorf("reward title = %q", result.Reward.Title)
	}
	if store.insertedCoupons != 1 {
		t.Errorf("inserted coupons = %d, want 1", store.insertedCoupons)
	}
	if len(store.insertedEvents) != 1 || store.insertedEvents[0] != "reward_redeemed" {
		t.Errorf("ledger events = %v", store.insertedEvents)
	}
}

func TestRedeemInvalidValidation(t *testing.T) {
	store := newFakeStore()
	store.validation = Validation{IsValid: false, ErrorMessage: "XP insuficiente", UserXP: 300, RewardCost: 1500}
	svc := newTestService(store)

	_, err := svc.Redeem(context.Background(), uuid.New(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected error for invalid redemption")
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if appErr.Kind != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", appErr.Kind)
	}
	if !strings.Contains(appErr.Message, "XP insuficiente") {
		t.Errorf("message = %q", appErr.Message)
	}
	if store.redemptionStatus != "" {
		t.Error("no redemption should be created when validation fails")
	}
}

func TestRedeemDebitFailureCancelsRedemption(t *testing.T) {
	store := newFakeStore()
	store.debitErr = errors.New("insufficient balance")
	svc := newTestService(store)

	_, err := svc.Redeem(context.Background(), uuid.New(), uuid.New(), nil)
	if err == nil {
		t.Fatal("expected error when debit fails")
	}
	if !strings.Contains(err.Error(), "Erro ao debitar XP") {
		t.Errorf("err = %v", err)
	}
	if store.redemptionStatus != "cancelled" {
		t.Errorf("redemption status = %q, want cancelled", store.redemptionStatus)
	}
}

func TestRedeemCouponInsertFailureNonFatal(t *testing.T) {
	store := newFakeStore()
	store.couponErr = errors.New("duplicate code")
	svc := newTestService(store)

	result, err := svc.Redeem(context.Background(), uuid.New(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Redeem should tolerate coupon insert failure: %v", err)
	}
	if result.Redemption.Status != "approved" {
		t.Errorf("redemption status = %q, want approved", result.Redemption.Status)
	}
	if result.Redemption.CouponCode == "" {
		t.Error("coupon code should still be present on the redemption")
	}
}
