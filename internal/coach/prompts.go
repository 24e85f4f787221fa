package coach

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the slice of the user record the coach needs to build a
// personalized prompt.
type UserProfile struct {
	ID            uuid.UUID
	FullName      string
	Age           int
	Gender        string
	GoalType      string
	ActivityLevel string
	CurrentWeight float64
	TargetWeight  float64
	CreatedAt     time.Time
}

// PromptContext carries everything the prompt builder derives outside the
// profile itself.
type PromptContext struct {
	CheckinsLast7Days int
	HistoryLen        int
	Now               time.Time
}

const historyWindow = 6

// BuildSystemPrompt assembles the coach persona prompt with the client's
// name, psychological profile, journey moment and activity context.
func BuildSystemPrompt(profile UserProfile, pctx PromptContext) string {
	name := profile.FullName
	if name == "" {
		name = "querido(a)"
	}
	greetName := profile.FullName
	if greetName == "" {
		greetName = "querido"
	}

	return fmt.Sprintf(`Você é a IA Coach do Vida Smart Coach. Você é uma pessoa brasileira real, calorosa e consultiva.

IMPORTANTE: Você NUNCA usa listas com "-" ou bullets. Você conversa naturalmente como no WhatsApp.

NOME DO CLIENTE: %s

COMO VOCÊ CONVERSA:
Oi %s! Como você está hoje?
Nossa, que legal saber mais sobre você!
Que tal me contar o que te trouxe até aqui?
Qual é o seu maior desafio no momento?

NUNCA FAÇA ASSIM:
- Primeiro, vamos conversar sobre seus objetivos
- Segundo, vou te ajudar com um plano
- Terceiro, vamos começar juntos

SEMPRE FAÇA ASSIM:
Oi João! Que massa ter você aqui! Me conta, o que mais te incomoda hoje na sua rotina de saúde? Quero entender bem pra poder te ajudar de verdade.

PERFIL DO CLIENTE: %s
MOMENTO: %s
CONTEXTO: %s

SUA MISSÃO:
1. Descobrir a dor específica da pessoa
2. Conectar essa dor às soluções do Vida Smart Coach
3. Fazer perguntas curiosas que importam
4. Direcionar para ações no sistema quando apropriado
5. Ser genuinamente interessada na vida da pessoa

LINKS ÚTEIS:
- Perfil: https://appvidasmart.com/dashboard?tab=profile
- Planos: https://appvidasmart.com/dashboard?tab=plan
- Check-in: https://appvidasmart.com/dashboard

REGRA DE OURO: Conversa natural, curiosa, sem listas. Como uma amiga brasileira que realmente se importa.`,
		name,
		greetName,
		identifyPsychProfile(profile),
		identifyClientMoment(profile, pctx),
		buildUserContext(profile, pctx),
	)
}

func buildUserContext(profile UserProfile, pctx PromptContext) string {
	name := profile.FullName
	if name == "" {
		name = "Usuário"
	}
	age := "idade não informada"
	if profile.Age > 0 {
		age = fmt.Sprintf("%d", profile.Age)
	}
	goal := profile.GoalType
	if goal == "" {
		goal = "saúde geral"
	}

	return fmt.Sprintf("Nome: %s, %s, objetivo: %s, check-ins últimos 7 dias: %d, tempo no app: %d dias",
		name, age, goal, pctx.CheckinsLast7Days, daysSinceRegistration(profile, pctx.Now))
}

func identifyClientMoment(profile UserProfile, pctx PromptContext) string {
	days := daysSinceRegistration(profile, pctx.Now)
	if days <= 1 {
		return "Cliente novo"
	}
	if days > 7 && pctx.HistoryLen == 0 {
		return "Cliente inativo"
	}
	return "Cliente ativo"
}

func identifyPsychProfile(profile UserProfile) string {
	if profile.Age > 0 && profile.CurrentWeight > 0 && profile.TargetWeight > 0 {
		return "Perfil analítico - gosta de detalhes"
	}
	return "Perfil expressivo - gosta de conexão emocional"
}

func daysSinceRegistration(profile UserProfile, now time.Time) int {
	if profile.CreatedAt.IsZero() {
		return 0
	}
	days := int(now.Sub(profile.CreatedAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// recentHistory trims stored history to the window sent to the model.
func recentHistory(history []ChatMessage) []ChatMessage {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	out := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		role := "assistant"
		if msg.Role == "user" {
			role = "user"
		}
		out = append(out, ChatMessage{Role: role, Content: msg.Content})
	}
	return out
}

// guardHintsBlock renders guard hints as an extra system instruction.
func guardHintsBlock(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return "ATENÇÃO DO SISTEMA:\n" + strings.Join(hints, "\n")
}
