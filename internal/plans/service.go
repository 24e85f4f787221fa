package plans

import (
	"context"
	"fmt"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/apperr"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

// PlanStore is the persistence surface the service needs. Satisfied by
// *Repository.
type PlanStore interface {
	DeactivatePlans(ctx context.Context, userID uuid.UUID, planType string) error
	ActivePlans(ctx context.Context, userID uuid.UUID) ([]Plan, error)
	InsertFeedback(ctx context.Context, userID uuid.UUID, planType, feedbackText string) (Feedback, error)
	RecordRegenerationFeedback(ctx context.Context, userID uuid.UUID, planType, feedbackText string) error
}

// PlanGenerator produces and persists one plan. Satisfied by *Generator.
type PlanGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, planType string, overrides Overrides) (Plan, int, error)
}

// RegenerateResult reports a completed regeneration batch.
type RegenerateResult struct {
	PlanTypes []string `json:"planTypes"`
	Message   string   `json:"message"`
}

// Service orchestrates plan generation and regeneration.
type Service struct {
	store    PlanStore
	gen      PlanGenerator
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the plans service.
func NewService(store PlanStore, gen PlanGenerator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, gen: gen, eventBus: eventBus, log: log}
}

// Regenerate rebuilds the given plan types in order, deactivating the old
// plan before generating its replacement. The batch aborts on the first
// failure; earlier pillars keep their fresh plans.
func (s *Service) Regenerate(ctx context.Context, userID uuid.UUID, planTypes []string, overrides Overrides, summary, trigger string) (RegenerateResult, error) {
	types := FilterValidPlanTypes(planTypes)

	var done []string
	for _, planType := range types {
		if err := s.regenerateOne(ctx, userID, planType, overrides, summary, trigger); err != nil {
			s.log.Error("plan regeneration aborted",
				"user_id", userID.String(),
				"plan_type", planType,
				"error", err,
			)
			return RegenerateResult{}, apperr.Wrap(apperr.KindInternal,
				fmt.Sprintf("Erro ao regenerar plano %s: %s", planType, err.Error()), err)
		}
		done = append(done, planType)
	}

	return RegenerateResult{
		PlanTypes: done,
		Message:   fmt.Sprintf("✅ Pronto! Regerei automaticamente %s. Confere na aba \"Meu Plano\".", FormatResultLabel(done)),
	}, nil
}

func (s *Service) regenerateOne(ctx context.Context, userID uuid.UUID, planType string, overrides Overrides, summary, trigger string) error {
	if err := s.store.DeactivatePlans(ctx, userID, planType); err != nil {
		return err
	}
	if _, _, err := s.gen.Generate(ctx, userID, planType, overrides); err != nil {
		return err
	}
	if summary != "" {
		if err := s.store.RecordRegenerationFeedback(ctx, userID, planType, summary); err != nil {
			return err
		}
	}

	s.eventBus.Publish(ctx, events.PlanRegenerated{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		PlanType:  planType,
		Trigger:   trigger,
	})
	return nil
}

// RegenerateFromChat implements the coach's plan regeneration hook: the
// message picks the pillars and doubles as the feedback summary.
func (s *Service) RegenerateFromChat(ctx context.Context, userID uuid.UUID, message string) (string, error) {
	result, err := s.Regenerate(ctx, userID, PlanTypesFromMessage(message), Overrides{}, message, "chat_intent")
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// Generate builds one plan without touching the others. Used by the
// explicit generation endpoint and the scheduler.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, planType string, overrides Overrides) (Plan, int, error) {
	valid := FilterValidPlanTypes([]string{planType})
	if len(valid) != 1 || valid[0] != planType {
		return Plan{}, 0, apperr.Validation(fmt.Sprintf("tipo de plano inválido: %s", planType))
	}
	if err := s.store.DeactivatePlans(ctx, userID, planType); err != nil {
		return Plan{}, 0, apperr.Wrap(apperr.KindInternal, "falha ao desativar plano atual", err)
	}
	plan, processed, err := s.gen.Generate(ctx, userID, planType, overrides)
	if err != nil {
		return Plan{}, 0, apperr.Wrap(apperr.KindInternal, "Erro ao gerar plano", err)
	}
	return plan, processed, nil
}

// ActivePlans returns the user's active plan per pillar.
func (s *Service) ActivePlans(ctx context.Context, userID uuid.UUID) ([]Plan, error) {
	return s.store.ActivePlans(ctx, userID)
}

// SubmitFeedback stores plan feedback for the next regeneration cycle.
func (s *Service) SubmitFeedback(ctx context.Context, userID uuid.UUID, planType, text string) (Feedback, error) {
	valid := FilterValidPlanTypes([]string{planType})
	if len(valid) != 1 || valid[0] != planType {
		return Feedback{}, apperr.Validation(fmt.Sprintf("tipo de plano inválido: %s", planType))
	}
	return s.store.InsertFeedback(ctx, userID, planType, text)
}
