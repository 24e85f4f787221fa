package proactive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeSource struct {
	lastUserMessageAt   time.Time
	hasUserMessage      bool
	lastCompletedAt     time.Time
	hasCompleted        bool
	activeToday         bool
	feedbacks           []FeedbackEntry
	hasRecentRedemption bool
}

func (f *fakeSource) LastUserMessageAt(context.Context, uuid.UUID) (time.Time, bool, error) {
	return f.lastUserMessageAt, f.hasUserMessage, nil
}

func (f *fakeSource) LastCompletedActivityAt(context.Context, uuid.UUID) (time.Time, bool, error) {
	return f.lastCompletedAt, f.hasCompleted, nil
}

func (f *fakeSource) HasActivitySince(context.Context, uuid.UUID, time.Time) (bool, error) {
	return f.activeToday, nil
}

func (f *fakeSource) RecentFeedback(context.Context, uuid.UUID, time.Time) ([]FeedbackEntry, error) {
	return f.feedbacks, nil
}

func (f *fakeSource) HasRecentRedemption(context.Context, uuid.UUID, time.Time) (bool, error) {
	return f.hasRecentRedemption, nil
}

// newTestEngine pins the clock to 10:00 local so evening-only rules stay
// quiet unless a test moves it.
func newTestEngine(src Source) *Engine {
	engine := NewEngine(src, time.UTC)
	engine.now = func() time.Time {
		return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	}
	return engine
}

func quietUser() UserContext {
	return UserContext{UserID: uuid.New(), FirstName: "Maria", Phone: "+5511999990000"}
}

func TestEvaluateNoTriggers(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)

	msg, err := engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message, got %q", msg.Type)
	}
}

func TestStreakAtRiskWinsPriority(t *testing.T) {
	// Both streak_at_risk and inactive_24h qualify; streak must win.
	src := &fakeSource{
		hasUserMessage:    true,
		lastUserMessageAt: time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
	}
	engine := newTestEngine(src)
	user := quietUser()
	user.CurrentStreak = 9

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeStreakAtRisk {
		t.Fatalf("expected streak_at_risk, got %+v", msg)
	}
	if !strings.Contains(msg.Content, "sequência de 9 dias") {
		t.Errorf("message should mention the streak: %q", msg.Content)
	}
}

func TestStreakAtRiskSkippedWhenActiveToday(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)
	user := quietUser()
	user.CurrentStreak = 9

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message, got %q", msg.Type)
	}
}

func TestMilestoneAchieved(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)
	user := quietUser()
	user.TotalXP = 3050

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeMilestoneAchieved {
		t.Fatalf("expected milestone_achieved, got %+v", msg)
	}
	if msg.Metadata["milestone"] != 3000 {
		t.Errorf("milestone metadata = %v, want 3000", msg.Metadata["milestone"])
	}
}

func TestMilestoneNotRecent(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)
	user := quietUser()
	user.TotalXP = 3400

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message far past the milestone, got %q", msg.Type)
	}
}

func TestXPThresholdSuggestsRewards(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)
	user := quietUser()
	user.TotalXP = 6200

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeXPThreshold {
		t.Fatalf("expected xp_threshold, got %+v", msg)
	}
	if !strings.Contains(msg.Content, "6200 XP") {
		t.Errorf("message should mention the balance: %q", msg.Content)
	}
}

func TestXPThresholdSkippedAfterRecentRedemption(t *testing.T) {
	src := &fakeSource{activeToday: true, hasRecentRedemption: true}
	engine := newTestEngine(src)
	user := quietUser()
	user.TotalXP = 6200

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message, got %q", msg.Type)
	}
}

func TestCheckinMissedOnlyInTheEvening(t *testing.T) {
	src := &fakeSource{}
	engine := newTestEngine(src)

	msg, err := engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("expected no message at 10:00, got %q", msg.Type)
	}

	engine.now = func() time.Time {
		return time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	}
	msg, err = engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeCheckinMissed {
		t.Fatalf("expected checkin_missed at 21:00, got %+v", msg)
	}
	if !strings.Contains(msg.Content, "ainda dá tempo") {
		t.Errorf("unexpected message: %q", msg.Content)
	}
}

func TestSuccessPatternStreakMilestones(t *testing.T) {
	src := &fakeSource{activeToday: true}
	engine := newTestEngine(src)

	for _, streak := range []int{7, 14, 21, 30} {
		user := quietUser()
		user.CurrentStreak = streak
		msg, err := engine.Evaluate(context.Background(), user)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if msg == nil || msg.Type != TypeSuccessPattern {
			t.Fatalf("streak %d: expected success_pattern, got %+v", streak, msg)
		}
	}

	user := quietUser()
	user.CurrentStreak = 15
	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("streak 15 is not a milestone, got %q", msg.Type)
	}
}

func TestRepeatedDifficultiesOnSamePillar(t *testing.T) {
	src := &fakeSource{
		activeToday: true,
		feedbacks: []FeedbackEntry{
			{Feedback: "Muito difícil esse treino", Pillar: "physical"},
			{Feedback: "Não consigo terminar a série", Pillar: "physical"},
			{Feedback: "Pesado demais para mim", Pillar: "physical"},
			{Feedback: "Gostei do cardápio", Pillar: "nutritional"},
		},
	}
	engine := newTestEngine(src)

	msg, err := engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeRepeatedDifficulties {
		t.Fatalf("expected repeated_difficulties, got %+v", msg)
	}
	if !strings.Contains(msg.Content, "pilar físico") {
		t.Errorf("message should name the pillar in Portuguese: %q", msg.Content)
	}
}

func TestRepeatedDifficultiesNeedsThreeOnOnePillar(t *testing.T) {
	src := &fakeSource{
		activeToday: true,
		feedbacks: []FeedbackEntry{
			{Feedback: "Muito difícil", Pillar: "physical"},
			{Feedback: "Complicado", Pillar: "nutritional"},
			{Feedback: "Pesado", Pillar: "emotional"},
		},
	}
	engine := newTestEngine(src)

	msg, err := engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg != nil {
		t.Fatalf("difficulties spread over pillars should not fire, got %q", msg.Type)
	}
}

func TestProgressStagnant(t *testing.T) {
	src := &fakeSource{
		activeToday:     true,
		hasCompleted:    true,
		lastCompletedAt: time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	engine := newTestEngine(src)

	msg, err := engine.Evaluate(context.Background(), quietUser())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeProgressStagnant {
		t.Fatalf("expected progress_stagnant, got %+v", msg)
	}
	if msg.Metadata["days_stagnant"] != 5 {
		t.Errorf("days_stagnant = %v, want 5", msg.Metadata["days_stagnant"])
	}
}

func TestInactive24hUsesDefaultName(t *testing.T) {
	src := &fakeSource{
		activeToday:       true,
		hasUserMessage:    true,
		lastUserMessageAt: time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
	}
	engine := newTestEngine(src)
	user := quietUser()
	user.FirstName = ""

	msg, err := engine.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if msg == nil || msg.Type != TypeInactive24h {
		t.Fatalf("expected inactive_24h, got %+v", msg)
	}
	if !strings.Contains(msg.Content, "Oi amigo(a)!") {
		t.Errorf("expected default name fallback: %q", msg.Content)
	}
}
