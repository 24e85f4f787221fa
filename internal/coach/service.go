package coach

import (
	"context"
	"errors"
	"strings"
	"time"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/ai/openaichat"
	"vida_smart_backend/platform/apperr"
	"vida_smart_backend/platform/breaker"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

// ChatCompleter is the LLM surface the coach needs. Satisfied by
// openaichat.Client.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openaichat.Message) (string, error)
}

// PlanRegenerator lets the coach trigger plan regeneration when the user
// asks for it mid-conversation. Implemented by the plans service.
type PlanRegenerator interface {
	RegenerateFromChat(ctx context.Context, userID uuid.UUID, message string) (string, error)
}

// fallbackReply is sent when the LLM is unavailable so the user never
// faces silence.
const fallbackReply = "Estou com uma instabilidade técnica agora, mas já volto! Enquanto isso, que tal registrar seu check-in em https://appvidasmart.com/dashboard? 💙"

const defaultHistoryLimit = 20

// TurnInput is one inbound user message.
type TurnInput struct {
	UserID    uuid.UUID
	SessionID string
	Message   string
}

// TurnResult is the outcome of processing a turn.
type TurnResult struct {
	Reply        string `json:"reply"`
	Stage        Stage  `json:"stage"`
	StageChanged bool   `json:"stageChanged"`
	Blocked      bool   `json:"blocked"`
	FromFallback bool   `json:"fromFallback"`
}

// Service orchestrates the coaching turn pipeline.
type Service struct {
	repo        *Repository
	llm         ChatCompleter
	regenerator PlanRegenerator
	circuit     *breaker.Breaker
	eventBus    events.Bus
	log         *logger.Logger
	now         func() time.Time
}

// NewService creates the coach service. regenerator may be nil; plan
// adjustment requests then flow through the normal conversation.
func NewService(repo *Repository, llm ChatCompleter, regenerator PlanRegenerator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		llm:         llm,
		regenerator: regenerator,
		circuit:     breaker.New(5, 30*time.Second),
		eventBus:    eventBus,
		log:         log,
		now:         time.Now,
	}
}

// ProcessTurn runs the full pipeline for one user message: stage detection,
// conversation guard, forced progression, reply generation, stage routing
// and memory update.
func (s *Service) ProcessTurn(ctx context.Context, input TurnInput) (TurnResult, error) {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	profile, err := s.repo.GetProfile(ctx, input.UserID)
	if err != nil {
		return TurnResult{}, apperr.Wrap(apperr.KindNotFound, "perfil do usuário não encontrado", err)
	}

	state, err := s.repo.GetStage(ctx, input.UserID, sessionID)
	if err != nil {
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "falha ao carregar estágio", err)
	}

	history, err := s.repo.GetHistory(ctx, input.UserID, sessionID, defaultHistoryLimit)
	if err != nil {
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "falha ao carregar histórico", err)
	}

	detection := DetectStage(input.Message, len(history))
	guard := EvaluateGuard(input.Message, history, detection, state.Stage)
	forced := ShouldForceProgression(state.Tracker, input.Message, s.now())

	if guard.BlockReply {
		s.recordMetric(ctx, state, state.Stage, guard, "block_reply", detection)
		return TurnResult{Stage: state.Stage, Blocked: true}, nil
	}

	processingStage := state.Stage
	switch {
	case guard.ForceStage != "":
		processingStage = guard.ForceStage
	case forced:
		processingStage = state.Stage.Next()
	}

	reply, fromFallback, err := s.generateReply(ctx, input, profile, history, guard, detection)
	if err != nil {
		return TurnResult{}, err
	}

	newStage := transitionFromReply(reply, processingStage)

	if err := s.repo.SaveInteraction(ctx, input.UserID, sessionID, "user", input.Message); err != nil {
		s.log.DatabaseError("insert", "interactions", err)
	}
	if err := s.repo.SaveInteraction(ctx, input.UserID, sessionID, "assistant", reply); err != nil {
		s.log.DatabaseError("insert", "interactions", err)
	}

	s.persistStage(ctx, state, newStage, guard)
	s.updateMemory(ctx, input.UserID, sessionID, input.Message, reply)
	s.recordMetric(ctx, state, newStage, guard, guardAction(guard, forced), detection)

	if newStage != state.Stage {
		s.eventBus.Publish(ctx, events.StageChanged{
			BaseEvent: events.NewBaseEvent(),
			UserID:    input.UserID,
			SessionID: sessionID,
			From:      string(state.Stage),
			To:        string(newStage),
			Forced:    forced || guard.ForceStage != "",
		})
	}

	s.log.CoachTurn(input.UserID.String(), string(state.Stage), string(newStage), forced || guard.ForceStage != "", fromFallback)

	return TurnResult{
		Reply:        reply,
		Stage:        newStage,
		StageChanged: newStage != state.Stage,
		FromFallback: fromFallback,
	}, nil
}

// ResetStage puts a conversation back at first contact. Used by support
// when a funnel gets stuck.
func (s *Service) ResetStage(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return s.repo.SaveStage(ctx, ClientStage{
		UserID:    userID,
		SessionID: sessionID,
		Stage:     StageSDR,
		Tracker:   ProgressionTracker{Stage: StageSDR, LastProgressAt: s.now()},
	})
}

// Memory returns the stored conversation memory for a session.
func (s *Service) Memory(ctx context.Context, userID uuid.UUID, sessionID string) (MemoryEntities, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return s.repo.LoadMemory(ctx, userID, sessionID)
}

func (s *Service) generateReply(ctx context.Context, input TurnInput, profile UserProfile, history []ChatMessage, guard GuardDecision, detection Detection) (string, bool, error) {
	// A plan adjustment request short-circuits the conversation and goes
	// straight to regeneration.
	if detection.Signals.PlanAdjustmentIntent && s.regenerator != nil {
		reply, err := s.regenerator.RegenerateFromChat(ctx, input.UserID, input.Message)
		if err == nil {
			return reply, false, nil
		}
		s.log.Error("chat plan regeneration failed", "user_id", input.UserID.String(), "error", err)
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr.Message, false, nil
		}
		return "Não consegui regenerar seus planos agora. Tenta de novo em alguns minutos, por favor!", false, nil
	}

	checkins, err := s.repo.CountRecentCheckins(ctx, input.UserID)
	if err != nil {
		checkins = 0
	}

	messages := []openaichat.Message{{
		Role: openaichat.RoleSystem,
		Content: BuildSystemPrompt(profile, PromptContext{
			CheckinsLast7Days: checkins,
			HistoryLen:        len(history),
			Now:               s.now(),
		}),
	}}
	if hints := guardHintsBlock(guard.Hints); hints != "" {
		messages = append(messages, openaichat.Message{Role: openaichat.RoleSystem, Content: hints})
	}
	for _, msg := range recentHistory(history) {
		messages = append(messages, openaichat.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, openaichat.Message{Role: openaichat.RoleUser, Content: input.Message})

	result, err := breaker.Execute(ctx, s.circuit,
		func(ctx context.Context) (string, error) { return s.llm.Complete(ctx, messages) },
		func(ctx context.Context) (string, error) { return fallbackReply, nil },
	)
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindUnavailable, "falha ao gerar resposta", err)
	}
	return result.Value, result.FromFallback, nil
}

func (s *Service) persistStage(ctx context.Context, state ClientStage, newStage Stage, guard GuardDecision) {
	tracker := state.Tracker
	tracker.Stage = newStage
	if newStage != state.Stage {
		tracker.Substage = 0
		tracker.LastProgressAt = s.now()
		tracker.StagnationCount = 0
	} else if len(guard.Issues) > 0 {
		tracker.StagnationCount++
	}
	if tracker.LastProgressAt.IsZero() {
		tracker.LastProgressAt = s.now()
	}

	state.Stage = newStage
	state.Tracker = tracker
	if err := s.repo.SaveStage(ctx, state); err != nil {
		s.log.DatabaseError("upsert", "client_stages", err)
	}
}

func (s *Service) updateMemory(ctx context.Context, userID uuid.UUID, sessionID, message, reply string) {
	current, err := s.repo.LoadMemory(ctx, userID, sessionID)
	if err != nil {
		s.log.DatabaseError("select", "conversation_memory", err)
		return
	}
	incoming := ExtractMemorySignals(message + "\n" + reply)
	if err := s.repo.SaveMemory(ctx, userID, sessionID, MergeEntities(current, incoming)); err != nil {
		s.log.DatabaseError("upsert", "conversation_memory", err)
	}
}

func (s *Service) recordMetric(ctx context.Context, state ClientStage, after Stage, guard GuardDecision, action string, detection Detection) {
	err := s.repo.RecordMetric(ctx, GuardMetric{
		UserID:      state.UserID,
		SessionID:   state.SessionID,
		StageBefore: state.Stage,
		StageAfter:  after,
		Issues:      guard.Issues,
		Hints:       guard.Hints,
		Action:      action,
		Metadata: map[string]any{
			"signals":    detection.Signals,
			"confidence": detection.Confidence,
		},
	})
	if err != nil {
		s.log.DatabaseError("insert", "conversation_metrics", err)
	}
}

func guardAction(guard GuardDecision, forced bool) string {
	switch {
	case guard.ForceStage != "":
		return "force_stage"
	case forced:
		return "forced_progression"
	case len(guard.Issues) > 0:
		return "hint"
	default:
		return "none"
	}
}

// transitionFromReply advances the stage when the generated reply contains
// one of the handoff phrases.
func transitionFromReply(reply string, current Stage) Stage {
	lower := strings.ToLower(reply)

	switch current {
	case StageSDR:
		if strings.Contains(lower, "vou te conectar com nosso especialista") ||
			strings.Contains(lower, "specialist") {
			return StageSpecialist
		}
	case StageSpecialist:
		if strings.Contains(lower, "testar gratuitamente") ||
			strings.Contains(lower, "seller") ||
			strings.Contains(lower, "planos foram gerados") {
			return StageSeller
		}
	case StageSeller:
		if strings.Contains(lower, "bem-vindo ao vida smart coach") ||
			strings.Contains(lower, "partner") ||
			strings.Contains(lower, "cadastro confirmado") {
			return StagePartner
		}
	}
	return current
}
