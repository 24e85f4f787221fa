package coach

import (
	"reflect"
	"testing"
)

func TestExtractCompositeGoals(t *testing.T) {
	entities := ExtractMemorySignals("Quero perder peso, ganhar massa e melhorar alimentação")

	want := []string{"perder peso", "ganhar massa", "melhorar alimentacao"}
	if !reflect.DeepEqual(entities.UserGoals, want) {
		t.Errorf("goals = %v, want %v", entities.UserGoals, want)
	}
}

func TestExtractGoalKeepsNonVerbContinuation(t *testing.T) {
	entities := ExtractMemorySignals("quero ganhar massa e definição")

	want := []string{"ganhar massa e definicao"}
	if !reflect.DeepEqual(entities.UserGoals, want) {
		t.Errorf("goals = %v, want %v", entities.UserGoals, want)
	}
}

func TestExtractStripsLeadingPreposition(t *testing.T) {
	entities := ExtractMemorySignals("preciso de mais foco no trabalho")

	if len(entities.UserGoals) != 1 || entities.UserGoals[0] != "mais foco no trabalho" {
		t.Errorf("goals = %v, want [mais foco no trabalho]", entities.UserGoals)
	}
}

func TestExtractPainPoints(t *testing.T) {
	entities := ExtractMemorySignals("não consigo acordar cedo, é um problema com minha rotina")

	if len(entities.PainPoints) == 0 || entities.PainPoints[0] != "acordar cedo" {
		t.Errorf("pains = %v, want first entry acordar cedo", entities.PainPoints)
	}
}

func TestExtractPreferenceAndRestrictionInOneSentence(t *testing.T) {
	entities := ExtractMemorySignals("gosto de yoga e evito açúcar")

	if entities.Preferences["yoga"] != "preferred" {
		t.Errorf("preferences = %v, want yoga marked preferred", entities.Preferences)
	}
	if len(entities.Restrictions) != 1 || entities.Restrictions[0] != "acucar" {
		t.Errorf("restrictions = %v, want [acucar]", entities.Restrictions)
	}
	if len(entities.MentionedActivities) != 1 || entities.MentionedActivities[0] != "yoga" {
		t.Errorf("activities = %v, want [yoga]", entities.MentionedActivities)
	}
}

func TestExtractEmotionalState(t *testing.T) {
	entities := ExtractMemorySignals("Estou muito ansioso com a semana")

	if entities.EmotionalState != "ansioso" {
		t.Errorf("emotional state = %q, want ansioso", entities.EmotionalState)
	}
}

func TestExtractFromEmptyText(t *testing.T) {
	entities := ExtractMemorySignals("")

	if len(entities.UserGoals) != 0 || len(entities.PainPoints) != 0 ||
		len(entities.Restrictions) != 0 || len(entities.Preferences) != 0 {
		t.Errorf("expected empty entities, got %+v", entities)
	}
}

func TestMergeEntitiesDeduplicates(t *testing.T) {
	current := NewMemoryEntities()
	current.UserGoals = []string{"perder peso"}
	current.EmotionalState = "cansado"

	incoming := NewMemoryEntities()
	incoming.UserGoals = []string{"Perder Peso", "dormir melhor"}

	merged := MergeEntities(current, incoming)

	want := []string{"perder peso", "dormir melhor"}
	if !reflect.DeepEqual(merged.UserGoals, want) {
		t.Errorf("goals = %v, want %v", merged.UserGoals, want)
	}
	if merged.EmotionalState != "cansado" {
		t.Errorf("empty incoming emotion must keep stored one, got %q", merged.EmotionalState)
	}
}

func TestMergeEntitiesIncomingEmotionWins(t *testing.T) {
	current := NewMemoryEntities()
	current.EmotionalState = "cansado"
	current.Preferences["yoga"] = "preferred"

	incoming := NewMemoryEntities()
	incoming.EmotionalState = "motivado"
	incoming.Preferences["corrida"] = "preferred"

	merged := MergeEntities(current, incoming)

	if merged.EmotionalState != "motivado" {
		t.Errorf("emotional state = %q, want motivado", merged.EmotionalState)
	}
	if len(merged.Preferences) != 2 {
		t.Errorf("preferences = %v, want both entries", merged.Preferences)
	}
}
