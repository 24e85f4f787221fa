package plans

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vida_smart_backend/platform/events"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	deactivated []string
	feedbacks   []string
}

func (f *fakeStore) DeactivatePlans(_ context.Context, _ uuid.UUID, planType string) error {
	f.deactivated = append(f.deactivated, planType)
	return nil
}

func (f *fakeStore) ActivePlans(context.Context, uuid.UUID) ([]Plan, error) { return nil, nil }

func (f *fakeStore) InsertFeedback(_ context.Context, userID uuid.UUID, planType, text string) (Feedback, error) {
	return Feedback{UserID: userID, PlanType: planType, FeedbackText: text, Status: "pending"}, nil
}

func (f *fakeStore) RecordRegenerationFeedback(_ context.Context, _ uuid.UUID, planType, _ string) error {
	f.feedbacks = append(f.feedbacks, planType)
	return nil
}

type fakeGenerator struct {
	generated []string
	failOn    string
}

func (f *fakeGenerator) Generate(_ context.Context, _ uuid.UUID, planType string, _ Overrides) (Plan, int, error) {
	if planType == f.failOn {
		return Plan{}, 0, errors.New("llm indisponível")
	}
	f.generated = append(f.generated, planType)
	return Plan{PlanType: planType, IsActive: true}, 0, nil
}

func newTestService(store *fakeStore, gen *fakeGenerator) *Service {
	log := logger.New("test")
	return NewService(store, gen, events.NewInMemoryBus(log), log)
}

func TestRegenerateAllPillars(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{}
	svc := newTestService(store, gen)

	result, err := svc.Regenerate(context.Background(), uuid.New(), AllPlanTypes, Overrides{}, "", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.PlanTypes) != 4 {
		t.Errorf("expected 4 regenerated plans, got %v", result.PlanTypes)
	}
	if !strings.Contains(result.Message, "todos os seus planos") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if len(store.deactivated) != 4 || len(gen.generated) != 4 {
		t.Errorf("expected every pillar deactivated and regenerated, got %v / %v", store.deactivated, gen.generated)
	}
}

func TestRegenerateAbortsOnFirstFailure(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{failOn: TypeEmotional}
	svc := newTestService(store, gen)

	_, err := svc.Regenerate(context.Background(), uuid.New(), AllPlanTypes, Overrides{}, "", "manual")
	if err == nil {
		t.Fatal("expected error when a pillar fails")
	}
	if !strings.Contains(err.Error(), "Erro ao regenerar plano emotional") {
		t.Errorf("error must name the failed pillar, got %q", err.Error())
	}

	// Earlier pillars keep their fresh plans; later ones are untouched.
	if len(gen.generated) != 2 {
		t.Errorf("expected physical and nutritional regenerated before abort, got %v", gen.generated)
	}
	for _, planType := range store.deactivated {
		if planType == TypeSpiritual {
			t.Error("spiritual must not be touched after the abort")
		}
	}
}

func TestRegenerateRecordsSummaryFeedback(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{}
	svc := newTestService(store, gen)

	_, err := svc.Regenerate(context.Background(), uuid.New(), []string{TypePhysical}, Overrides{}, "treino muito pesado", "chat_intent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.feedbacks) != 1 || store.feedbacks[0] != TypePhysical {
		t.Errorf("expected one feedback record for physical, got %v", store.feedbacks)
	}
}

func TestRegenerateFromChatPicksPillarsFromMessage(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{}
	svc := newTestService(store, gen)

	reply, err := svc.RegenerateFromChat(context.Background(), uuid.New(), "quero mudar minha dieta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "o plano nutritional") {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(gen.generated) != 1 || gen.generated[0] != TypeNutritional {
		t.Errorf("expected only nutritional regenerated, got %v", gen.generated)
	}
}
