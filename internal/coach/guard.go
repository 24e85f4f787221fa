package coach

import "strings"

// Guard issue codes, persisted in conversation_metrics.
const (
	IssueRepeatedAssistantPrompt = "repeated_assistant_prompt"
	IssueStagnantStage           = "stagnant_stage"
	IssueMissingUserResponse     = "missing_user_response"
)

// ChatMessage is one turn of stored conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GuardDecision is the outcome of the conversation guard for one turn.
type GuardDecision struct {
	Issues []string
	Hints  []string
	// ForceStage, when non-empty, escalates the conversation past a loop.
	ForceStage Stage
	// BlockReply suppresses the assistant reply for empty user input.
	BlockReply bool
}

// EvaluateGuard inspects the conversation for degenerate patterns: the
// assistant repeating itself, low-confidence stage detection, and empty
// user input.
func EvaluateGuard(message string, history []ChatMessage, detection Detection, currentStage Stage) GuardDecision {
	var decision GuardDecision

	assistant := lastByRole(history, "assistant", 2)
	if len(assistant) == 2 && sanitizeText(assistant[0].Content) == sanitizeText(assistant[1].Content) {
		decision.Issues = append(decision.Issues, IssueRepeatedAssistantPrompt)
		decision.Hints = append(decision.Hints, "As duas últimas respostas da IA foram idênticas; necessário mudar de abordagem.")
	}

	if detection.Stage == "" || detection.Confidence < 0.2 {
		decision.Issues = append(decision.Issues, IssueStagnantStage)
		decision.Hints = append(decision.Hints, "Detecção de estágio com baixa confiança; considere heurísticas adicionais.")
	}

	// The inbound message is the user's response for this turn; history is
	// only what came before it.
	if sanitizeText(message) == "" {
		decision.Issues = append(decision.Issues, IssueMissingUserResponse)
		decision.Hints = append(decision.Hints, "Usuário não enviou conteúdo útil; aguardar confirmação antes de seguir.")
		decision.BlockReply = true
	}

	if containsIssue(decision.Issues, IssueRepeatedAssistantPrompt) {
		// Escalate from the detected stage, but never behind the current
		// one: stage transitions are forward-only.
		base := detection.Stage
		if base == "" || base.index() < currentStage.index() {
			base = currentStage
		}
		decision.ForceStage = base.Next()
	}

	return decision
}

func lastByRole(history []ChatMessage, role string, n int) []ChatMessage {
	var matched []ChatMessage
	for _, msg := range history {
		if msg.Role == role {
			matched = append(matched, msg)
		}
	}
	if len(matched) > n {
		matched = matched[len(matched)-n:]
	}
	return matched
}

func containsIssue(issues []string, issue string) bool {
	for _, item := range issues {
		if item == issue {
			return true
		}
	}
	return false
}

func sanitizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
