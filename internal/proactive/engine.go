// Package proactive evaluates contextual triggers against stored user
// activity and produces at most one outbound nudge per evaluation.
package proactive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message types, ordered here for reference. Evaluation priority lives in
// Engine.rules.
const (
	TypeStreakAtRisk         = "streak_at_risk"
	TypeMilestoneAchieved    = "milestone_achieved"
	TypeXPThreshold          = "xp_threshold"
	TypeCheckinMissed        = "checkin_missed"
	TypeSuccessPattern       = "success_pattern"
	TypeRepeatedDifficulties = "repeated_difficulties"
	TypeProgressStagnant     = "progress_stagnant"
	TypeInactive24h          = "inactive_24h"
)

const (
	defaultFirstName    = "amigo(a)"
	feedbackLookback    = 7 * 24 * time.Hour
	redemptionLookback  = 7 * 24 * time.Hour
	inactivityThreshold = 24 * time.Hour
	stagnationDays      = 3
	minStreakAtRisk     = 7
	xpThreshold         = 5000
	eveningHour         = 20
)

var difficultyKeywords = []string{"difícil", "não consigo", "complicado", "pesado", "cansativo", "muito"}

var pillarNames = map[string]string{
	"physical":    "físico",
	"nutritional": "nutricional",
	"emotional":   "emocional",
	"spiritual":   "espiritual",
}

var streakMilestones = []int{7, 14, 21, 30}

// UserContext carries the per-user data every rule can see without extra
// queries.
type UserContext struct {
	UserID        uuid.UUID
	FirstName     string
	Phone         string
	TotalXP       int
	CurrentStreak int
}

// FeedbackEntry is one plan feedback row used for difficulty detection.
type FeedbackEntry struct {
	Feedback string
	Pillar   string
}

// Source is the activity data the rules query lazily. Satisfied by
// *Repository.
type Source interface {
	LastUserMessageAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
	LastCompletedActivityAt(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
	HasActivitySince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error)
	RecentFeedback(ctx context.Context, userID uuid.UUID, since time.Time) ([]FeedbackEntry, error)
	HasRecentRedemption(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error)
}

// Message is an eligible proactive message, before the cooldown gate.
type Message struct {
	Type     string
	Content  string
	Metadata map[string]any
}

type rule func(ctx context.Context, user UserContext) (*Message, error)

// Engine runs the trigger rules in priority order and returns the first
// match. Cooldown enforcement is the caller's job.
type Engine struct {
	src   Source
	loc   *time.Location
	now   func() time.Time
	rules []rule
}

// NewEngine creates the trigger engine. loc is the timezone used for
// day-boundary and evening checks.
func NewEngine(src Source, loc *time.Location) *Engine {
	e := &Engine{src: src, loc: loc, now: time.Now}
	e.rules = []rule{
		e.streakAtRisk,
		e.milestoneAchieved,
		e.xpThresholdReached,
		e.checkinMissed,
		e.successPattern,
		e.repeatedDifficulties,
		e.progressStagnant,
		e.inactive24h,
	}
	return e
}

// Evaluate returns the highest-priority eligible message, or nil when no
// rule fires.
func (e *Engine) Evaluate(ctx context.Context, user UserContext) (*Message, error) {
	for _, r := range e.rules {
		msg, err := r(ctx, user)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
	}
	return nil, nil
}

func (e *Engine) firstName(user UserContext) string {
	if name := strings.TrimSpace(user.FirstName); name != "" {
		return name
	}
	return defaultFirstName
}

// startOfDay returns midnight of the current day in the engine timezone.
func (e *Engine) startOfDay() time.Time {
	now := e.now().In(e.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
}

func (e *Engine) streakAtRisk(ctx context.Context, user UserContext) (*Message, error) {
	if user.CurrentStreak < minStreakAtRisk {
		return nil, nil
	}
	active, err := e.src.HasActivitySince(ctx, user.UserID, e.startOfDay())
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}
	return &Message{
		Type:     TypeStreakAtRisk,
		Content:  fmt.Sprintf("🔥 %s! Sua sequência de %d dias está em risco! 😱 Não deixe todo esse progresso escapar. Uma atividade simples já mantém sua chama acesa! 💪", e.firstName(user), user.CurrentStreak),
		Metadata: map[string]any{"current_streak": user.CurrentStreak},
	}, nil
}

func (e *Engine) milestoneAchieved(_ context.Context, user UserContext) (*Message, error) {
	// Fires only while within 100 XP past a 1000 XP milestone.
	if user.TotalXP < 1000 || user.TotalXP%1000 >= 100 {
		return nil, nil
	}
	milestone := user.TotalXP / 1000 * 1000
	return &Message{
		Type:     TypeMilestoneAchieved,
		Content:  fmt.Sprintf("🎉 INCRÍVEL, %s! Você acabou de atingir %d XP! 🏆 Sua dedicação está transformando sua vida. Continue assim, você é uma inspiração! 💫", e.firstName(user), milestone),
		Metadata: map[string]any{"milestone": milestone, "total_xp": user.TotalXP},
	}, nil
}

func (e *Engine) xpThresholdReached(ctx context.Context, user UserContext) (*Message, error) {
	if user.TotalXP < xpThreshold {
		return nil, nil
	}
	redeemed, err := e.src.HasRecentRedemption(ctx, user.UserID, e.now().Add(-redemptionLookback))
	if err != nil {
		return nil, err
	}
	if redeemed {
		return nil, nil
	}
	return &Message{
		Type:     TypeXPThreshold,
		Content:  fmt.Sprintf("✨ %s, você tem %d XP acumulados! 🎁 Que tal trocar por uma recompensa incrível? Consultas, e-books, descontos... Você merece! 🌟", e.firstName(user), user.TotalXP),
		Metadata: map[string]any{"total_xp": user.TotalXP},
	}, nil
}

func (e *Engine) checkinMissed(ctx context.Context, user UserContext) (*Message, error) {
	if e.now().In(e.loc).Hour() < eveningHour {
		return nil, nil
	}
	active, err := e.src.HasActivitySince(ctx, user.UserID, e.startOfDay())
	if err != nil {
		return nil, err
	}
	if active {
		return nil, nil
	}
	return &Message{
		Type:     TypeCheckinMissed,
		Content:  fmt.Sprintf("%s, ainda dá tempo! ⏰ Que tal registrar pelo menos uma atividade hoje? Mesmo pequenos passos contam para manter seu ritmo! 🌟", e.firstName(user)),
		Metadata: map[string]any{"date": e.startOfDay().Format("2006-01-02")},
	}, nil
}

func (e *Engine) successPattern(_ context.Context, user UserContext) (*Message, error) {
	matched := false
	for _, m := range streakMilestones {
		if user.CurrentStreak == m {
			matched = true
			break
		}
	}
	if !matched {
		return nil, nil
	}
	return &Message{
		Type:     TypeSuccessPattern,
		Content:  fmt.Sprintf("🌟 %s, %d dias consecutivos! 🎊 Você está provando que transformação real acontece com consistência. Seu futuro eu está muito orgulhoso! 💚", e.firstName(user), user.CurrentStreak),
		Metadata: map[string]any{"streak": user.CurrentStreak},
	}, nil
}

func (e *Engine) repeatedDifficulties(ctx context.Context, user UserContext) (*Message, error) {
	feedbacks, err := e.src.RecentFeedback(ctx, user.UserID, e.now().Add(-feedbackLookback))
	if err != nil {
		return nil, err
	}
	if len(feedbacks) < 3 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, fb := range feedbacks {
		if fb.Pillar == "" {
			continue
		}
		lowered := strings.ToLower(fb.Feedback)
		for _, kw := range difficultyKeywords {
			if strings.Contains(lowered, kw) {
				counts[fb.Pillar]++
				break
			}
		}
	}

	var worstPillar string
	var worstCount int
	for pillar, count := range counts {
		if count > worstCount || (count == worstCount && pillar < worstPillar) {
			worstPillar, worstCount = pillar, count
		}
	}
	if worstCount < 3 {
		return nil, nil
	}

	pillarName := pillarNames[worstPillar]
	if pillarName == "" {
		pillarName = worstPillar
	}
	return &Message{
		Type:     TypeRepeatedDifficulties,
		Content:  fmt.Sprintf("%s, notei que você está com dificuldades no pilar %s. 💙 Que tal ajustarmos seu plano para algo mais adequado? Vamos juntos encontrar o que funciona melhor para você! ✨", e.firstName(user), pillarName),
		Metadata: map[string]any{"difficult_pillar": worstPillar, "count": worstCount},
	}, nil
}

func (e *Engine) progressStagnant(ctx context.Context, user UserContext) (*Message, error) {
	lastCompletion, found, err := e.src.LastCompletedActivityAt(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	days := e.now().Sub(lastCompletion).Hours() / 24
	if days < stagnationDays {
		return nil, nil
	}
	return &Message{
		Type:     TypeProgressStagnant,
		Content:  fmt.Sprintf("%s, percebi que faz alguns dias sem registrar atividades. 🤔 Quer que eu ajuste seu plano para algo mais compatível com sua rotina atual? Estou aqui para te apoiar! 🌟", e.firstName(user)),
		Metadata: map[string]any{"days_stagnant": int(days)},
	}, nil
}

func (e *Engine) inactive24h(ctx context.Context, user UserContext) (*Message, error) {
	lastMessage, found, err := e.src.LastUserMessageAt(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	inactive := e.now().Sub(lastMessage)
	if inactive < inactivityThreshold {
		return nil, nil
	}
	return &Message{
		Type:     TypeInactive24h,
		Content:  fmt.Sprintf("Oi %s! 👋 Notei que você está um pouco afastado(a). Como estão as coisas? Lembre-se: pequenos passos todo dia fazem toda a diferença! 💪", e.firstName(user)),
		Metadata: map[string]any{"hours_inactive": int(inactive.Hours())},
	}, nil
}
