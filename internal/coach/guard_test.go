package coach

import "testing"

func confidentDetection(stage Stage) Detection {
	return Detection{Stage: stage, Confidence: 0.8}
}

func TestGuardRepeatedAssistantEscalates(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "oi"},
		{Role: "assistant", Content: "Como posso ajudar você hoje?"},
		{Role: "user", Content: "não sei"},
		{Role: "assistant", Content: "  como posso ajudar   você hoje? "},
	}

	decision := EvaluateGuard("quero saber mais", history, confidentDetection(StageSDR), StageSDR)

	if !containsIssue(decision.Issues, IssueRepeatedAssistantPrompt) {
		t.Fatal("expected repeated assistant prompt issue")
	}
	if decision.ForceStage != StageSpecialist {
		t.Errorf("expected escalation from sdr to specialist, got %q", decision.ForceStage)
	}
	if decision.BlockReply {
		t.Error("repeated prompt must not block the reply")
	}
}

func TestGuardEscalationUsesCurrentStageWhenDetectionEmpty(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "ok"},
		{Role: "assistant", Content: "resposta"},
		{Role: "user", Content: "ok"},
		{Role: "assistant", Content: "resposta"},
	}

	decision := EvaluateGuard("ok", history, Detection{}, StageSeller)

	if decision.ForceStage != StagePartner {
		t.Errorf("expected escalation from seller to partner, got %q", decision.ForceStage)
	}
}

func TestGuardEscalationCapsAtPartner(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "ok"},
		{Role: "assistant", Content: "mesma resposta"},
		{Role: "user", Content: "ok"},
		{Role: "assistant", Content: "mesma resposta"},
	}

	decision := EvaluateGuard("ok", history, confidentDetection(StagePartner), StagePartner)

	if decision.ForceStage != StagePartner {
		t.Errorf("expected partner to stay terminal, got %q", decision.ForceStage)
	}
}

func TestGuardLowConfidenceFlagsStagnantStage(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "mensagem anterior"},
		{Role: "assistant", Content: "resposta"},
	}

	decision := EvaluateGuard("tudo bem", history, Detection{Stage: StageSDR, Confidence: 0.1}, StageSDR)

	if !containsIssue(decision.Issues, IssueStagnantStage) {
		t.Fatal("expected stagnant stage issue for low confidence")
	}
	if decision.ForceStage != "" {
		t.Errorf("low confidence alone must not force a stage, got %q", decision.ForceStage)
	}
}

func TestGuardEmptyMessageBlocksReply(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "oi"},
		{Role: "assistant", Content: "resposta"},
	}

	decision := EvaluateGuard("   ", history, confidentDetection(StageSDR), StageSDR)

	if !containsIssue(decision.Issues, IssueMissingUserResponse) {
		t.Fatal("expected missing user response issue")
	}
	if !decision.BlockReply {
		t.Error("expected reply to be blocked")
	}
}

func TestGuardFirstContactIsNotBlocked(t *testing.T) {
	decision := EvaluateGuard("olá, tudo bem?", nil, confidentDetection(StageSDR), StageSDR)

	if decision.BlockReply {
		t.Error("first contact with real content must not be blocked")
	}
	if containsIssue(decision.Issues, IssueMissingUserResponse) {
		t.Errorf("unexpected missing user response issue: %v", decision.Issues)
	}
}

func TestGuardEscalationNeverMovesBackward(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "oi"},
		{Role: "assistant", Content: "mesma pergunta"},
		{Role: "user", Content: "oi"},
		{Role: "assistant", Content: "mesma pergunta"},
	}

	// A short greeting detects as sdr; a seller-stage user must not be
	// pushed back to specialist.
	decision := EvaluateGuard("oi bom dia", history, confidentDetection(StageSDR), StageSeller)

	if decision.ForceStage != StagePartner {
		t.Errorf("expected forward escalation from seller to partner, got %q", decision.ForceStage)
	}
}

func TestGuardCleanTurnHasNoIssues(t *testing.T) {
	history := []ChatMessage{
		{Role: "user", Content: "quero começar"},
		{Role: "assistant", Content: "ótimo, vamos lá"},
		{Role: "user", Content: "como funciona?"},
		{Role: "assistant", Content: "funciona assim"},
	}

	decision := EvaluateGuard("quanto custa o plano?", history, confidentDetection(StageSeller), StageSDR)

	if len(decision.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", decision.Issues)
	}
	if decision.BlockReply || decision.ForceStage != "" {
		t.Errorf("unexpected guard action: %+v", decision)
	}
}
