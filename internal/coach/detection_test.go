package coach

import (
	"math"
	"testing"
)

func TestDetectStageGreeting(t *testing.T) {
	d := DetectStage("Oi, bom dia", 0)

	if d.Stage != StageSDR {
		t.Fatalf("expected sdr, got %q", d.Stage)
	}
	if d.Confidence < 0.99 {
		t.Errorf("expected full confidence for three signals, got %f", d.Confidence)
	}
}

func TestDetectStagePartnerCheckIn(t *testing.T) {
	d := DetectStage("Fiz o treino e bebi água hoje, segui o plano direitinho", 0)

	if d.Stage != StagePartner {
		t.Fatalf("expected partner, got %q", d.Stage)
	}
	if d.Signals.Partner < 3 {
		t.Errorf("expected at least 3 partner signals, got %d", d.Signals.Partner)
	}
}

func TestDetectStageHistoryCountsAsPartnerSignal(t *testing.T) {
	d := DetectStage("consegui manter a rotina essa semana", 6)

	if d.Stage != StagePartner {
		t.Fatalf("expected partner for engaged history, got %q", d.Stage)
	}
}

func TestDetectStageSellerPricing(t *testing.T) {
	d := DetectStage("Quanto custa? Qual o preço para assinar?", 0)

	if d.Stage != StageSeller {
		t.Fatalf("expected seller, got %q", d.Stage)
	}
}

func TestDetectStageSpecialistDifficulty(t *testing.T) {
	d := DetectStage("Preciso de ajuda, estou com dificuldade com meu peso", 0)

	if d.Stage != StageSpecialist {
		t.Fatalf("expected specialist, got %q", d.Stage)
	}
}

func TestDetectStagePlanAdjustmentFallsBackToSpecialist(t *testing.T) {
	d := DetectStage("quero ajustar meu plano de treino", 0)

	if d.Stage != StageSpecialist {
		t.Fatalf("expected specialist via plan adjustment, got %q", d.Stage)
	}
	if !d.Signals.PlanAdjustmentIntent {
		t.Error("expected plan adjustment intent to be flagged")
	}
	if math.Abs(d.Confidence-0.2) > 1e-9 {
		t.Errorf("expected heuristic confidence 0.2, got %f", d.Confidence)
	}
}

func TestDetectStageNewPlanPhrase(t *testing.T) {
	d := DetectStage("pode gerar um novo plano pra mim considerando minha rotina atual de trabalho", 0)

	if d.Stage != StageSpecialist {
		t.Fatalf("expected specialist for novo plano, got %q", d.Stage)
	}
}

func TestDetectStageNoSignals(t *testing.T) {
	d := DetectStage("A reunião de amanhã foi remarcada para depois do almoço, não se preocupe com isso agora", 0)

	if d.Stage != "" {
		t.Fatalf("expected no detection, got %q", d.Stage)
	}
	if d.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", d.Confidence)
	}
}

func TestExtractPainLevel(t *testing.T) {
	cases := []struct {
		message string
		want    int
	}{
		{"minha dor está 8/10", 8},
		{"uns 6 de 10 eu diria", 6},
		{"nível 9 de desconforto", 9},
		{"dói muito quando corro", 8},
		{"incomoda bastante", 7},
		{"só um pouco desconfortável", 4},
		{"sinto algo no joelho", 5},
	}

	for _, tc := range cases {
		if got := ExtractPainLevel(tc.message); got != tc.want {
			t.Errorf("ExtractPainLevel(%q) = %d, want %d", tc.message, got, tc.want)
		}
	}
}
