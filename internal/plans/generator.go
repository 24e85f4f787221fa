package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"vida_smart_backend/platform/ai/openaichat"

	"github.com/google/uuid"
)

// Overrides are user-supplied adjustments to the stored profile, sent by
// the regeneration dialogs.
type Overrides struct {
	Goal         string `json:"goal"`
	Experience   string `json:"experience"`
	Limitations  string `json:"limitations"`
	Restrictions string `json:"restrictions"`
	Preferences  string `json:"preferences"`
	Challenges   string `json:"challenges"`
	Stressors    string `json:"stressors"`
	Practices    string `json:"practices"`
	Interests    string `json:"interests"`
	Time         string `json:"time"`
}

// JSONCompleter is the LLM surface the generator needs. Satisfied by
// openaichat.Client.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, messages []openaichat.Message, out interface{}) error
}

// Generator produces plan content via the LLM and persists it.
type Generator struct {
	repo *Repository
	llm  JSONCompleter
}

// NewGenerator creates a plan generator.
func NewGenerator(repo *Repository, llm JSONCompleter) *Generator {
	return &Generator{repo: repo, llm: llm}
}

const generationTimeout = 25 * time.Second

var (
	experienceBeginnerRe     = regexp.MustCompile(`(inic|begin|start|baixo|low)`)
	experienceIntermediateRe = regexp.MustCompile(`(inter|m[eé]dio|moderado)`)
	experienceAdvancedRe     = regexp.MustCompile(`(avan|alto|high|experiente|pro)`)

	goalMuscleRe    = regexp.MustCompile(`(massa|hipertrof|ganhar|aumentar m[úu]sculo)`)
	goalFatLossRe   = regexp.MustCompile(`(perder|emagre|defin|gordura|fat)`)
	goalEnduranceRe = regexp.MustCompile(`(resist|enduran|cardio)`)
	goalStrengthRe  = regexp.MustCompile(`(for[çc]a|strength)`)
	goalHealthRe    = regexp.MustCompile(`(equil[ií]brio|bem-estar|sa[úu]de)`)
)

// Generate builds a plan of the given type, saves it as the active plan
// and closes any pending feedback it incorporated. Returns the stored plan
// and the number of feedback entries processed.
func (g *Generator) Generate(ctx context.Context, userID uuid.UUID, planType string, overrides Overrides) (Plan, int, error) {
	profile, err := g.repo.GetProfile(ctx, userID)
	if err != nil {
		return Plan{}, 0, err
	}
	applyOverrides(&profile, overrides)

	pending, err := g.repo.PendingFeedback(ctx, userID, planType)
	if err != nil {
		// Feedback lookup failure must not block generation.
		pending = nil
	}

	prompt, err := buildPlanPrompt(planType, profile, overrides, pending)
	if err != nil {
		return Plan{}, 0, err
	}

	llmCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	var planData json.RawMessage
	err = g.llm.CompleteJSON(llmCtx, []openaichat.Message{
		{Role: openaichat.RoleSystem, Content: "Especialista que retorna APENAS JSON válido, sem texto adicional."},
		{Role: openaichat.RoleUser, Content: prompt},
	}, &planData)
	if err != nil {
		return Plan{}, 0, err
	}

	experienceLevel := profile.ActivityLevel
	if experienceLevel == "" {
		experienceLevel = "beginner"
	}
	plan, err := g.repo.InsertPlan(ctx, userID, planType, planData, experienceLevel)
	if err != nil {
		return Plan{}, 0, err
	}

	if len(pending) > 0 {
		ids := make([]uuid.UUID, 0, len(pending))
		for _, fb := range pending {
			ids = append(ids, fb.ID)
		}
		response := fmt.Sprintf("Plano %s regenerado incorporando feedback do usuário", planType)
		// Non-fatal: the plan is already saved.
		_ = g.repo.MarkFeedbackProcessed(ctx, ids, response)
	}

	return plan, len(pending), nil
}

func applyOverrides(profile *Profile, overrides Overrides) {
	if level := mapExperience(overrides.Experience); level != "" {
		profile.ActivityLevel = level
	}
	if goal := mapGoal(overrides.Goal); goal != "" {
		profile.GoalType = goal
	}
}

func mapExperience(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ""
	case experienceBeginnerRe.MatchString(value):
		return "beginner"
	case experienceIntermediateRe.MatchString(value):
		return "intermediate"
	case experienceAdvancedRe.MatchString(value):
		return "advanced"
	default:
		return ""
	}
}

func mapGoal(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case value == "":
		return ""
	case goalMuscleRe.MatchString(value):
		return "gain_muscle"
	case goalFatLossRe.MatchString(value):
		return "fat_loss"
	case goalEnduranceRe.MatchString(value):
		return "endurance"
	case goalStrengthRe.MatchString(value):
		return "strength"
	case goalHealthRe.MatchString(value):
		return "general_health"
	default:
		return ""
	}
}

func buildPlanPrompt(planType string, profile Profile, overrides Overrides, pending []Feedback) (string, error) {
	extra := buildExtraSection(overrides) + buildFeedbackSection(pending)

	name := orDefault(profile.FullName, "Usuário")
	age := "?"
	if profile.Age > 0 {
		age = fmt.Sprintf("%d", profile.Age)
	}
	weight := "?"
	if profile.CurrentWeight > 0 {
		weight = fmt.Sprintf("%.0f", profile.CurrentWeight)
	}
	target := "?"
	if profile.TargetWeight > 0 {
		target = fmt.Sprintf("%.0f", profile.TargetWeight)
	}
	height := "?"
	if profile.Height > 0 {
		height = fmt.Sprintf("%.0f", profile.Height)
	}
	goal := orDefault(profile.GoalType, "saúde")
	level := orDefault(profile.ActivityLevel, "iniciante")

	switch planType {
	case TypePhysical:
		return fmt.Sprintf(`Personal Trainer (NSCA/ACSM). Gere plano de treino JSON estruturado.

PERFIL: %s, %sanos, %skg, %scm, objetivo: %s, nível: %s, limitações: %s

%s

DIRETRIZES:
- 4 semanas progressivas (adaptação→progressão→consolidação)
- 3x/semana (Seg/Qua/Sex), 5-7 exercícios/treino
- Padrões: empurrar, puxar, joelhos/quadris, core
- Reps por objetivo: força 3-6, hipertrofia 6-12, resistência 12-20
- Respeite limitações, ajuste exercícios
- Progresso semanal em notes

FORMATO JSON (RETORNE SOMENTE O JSON VÁLIDO):
{
  "title": "Plano de Treino %s",
  "description": "Plano de %s focado em %s com progressão semanal",
  "duration_weeks": 4,
  "weeks": [
    {
      "week": 1,
      "focus": "Adaptação técnica e mobilidade",
      "workouts": [
        {
          "day": "Segunda",
          "name": "Treino A - Peito/Tríceps e Core",
          "exercises": [
            { "name": "Supino reto", "sets": 3, "reps": "8-10", "rest_seconds": 90, "notes": "Técnica; RPE 6-7" }
          ]
        }
      ]
    }
  ]
}`, name, age, weight, height, goal, level, orDefault(overrides.Limitations, "nenhuma"), extra,
			orDefault(profile.GoalType, "Personalizado"), level, goal), nil

	case TypeNutritional:
		return fmt.Sprintf(`Nutricionista. Plano alimentar JSON.

PERFIL: %s, %sanos, peso: %skg → %skg, objetivo: %s, restrições: %s

%s

ESTRUTURA JSON (IMPORTANTE: retorne APENAS o JSON, sem texto adicional):
{
  "title": "Plano Nutricional Personalizado",
  "description": "Descrição do plano",
  "daily_calories": 1800,
  "macronutrients": {
    "protein": 130,
    "carbs": 180,
    "fat": 60
  },
  "water_intake_liters": 3,
  "meals": [
    {
      "name": "Café da Manhã",
      "time": "08:00",
      "calories": 350,
      "items": ["Ovos mexidos", "Pão integral", "Fruta"]
    }
  ],
  "tips": ["Dica 1", "Dica 2"]
}`, name, age, weight, target, goal, orDefault(profile.DietaryRestrictions, "nenhuma"), extra), nil

	case TypeEmotional:
		return fmt.Sprintf(`Psicólogo especialista. Plano emocional JSON.

PERFIL: %s, %sanos, objetivo: %s

%s

JSON:
{
  "title": "Plano Emocional",
  "description": "Rotinas para equilíbrio",
  "focus_areas": ["Reduzir ansiedade", "Autoestima"],
  "daily_routines": [{"time": "Manhã", "duration_minutes": 10, "activity": "Check-in e respiração"}],
  "techniques": [{"name": "Respiração 4-7-8", "description": "Acalmar sistema nervoso"}],
  "weekly_goals": ["Meta 1", "Meta 2"]
}`, name, age, goal, extra), nil

	case TypeSpiritual:
		return fmt.Sprintf(`Coach espiritual. Plano de crescimento JSON.

PERFIL: %s, %sanos

%s

JSON:
{
  "title": "Plano Espiritual",
  "description": "Práticas para conexão e propósito",
  "focus_areas": ["Propósito", "Gratidão"],
  "daily_practices": [{"time": "Manhã", "activity": "Silêncio e intenção"}],
  "weekly_reflection_prompts": ["Propósito esta semana?", "Lições aprendidas?"],
  "monthly_goals": ["Meta relevante"]
}`, name, age, extra), nil

	default:
		return "", fmt.Errorf("tipo de plano inválido: %s", planType)
	}
}

func buildExtraSection(overrides Overrides) string {
	var notes []string
	add := func(label, value string) {
		if value != "" {
			notes = append(notes, label+": "+value)
		}
	}
	add("Objetivo específico informado", overrides.Goal)
	add("Nível de experiência informado", overrides.Experience)
	add("Limitações/restrições físicas", overrides.Limitations)
	add("Restrições alimentares", overrides.Restrictions)
	add("Preferências alimentares", overrides.Preferences)
	add("Desafios emocionais", overrides.Challenges)
	add("Fontes de estresse", overrides.Stressors)
	add("Práticas espirituais atuais", overrides.Practices)
	add("Interesses espirituais", overrides.Interests)
	add("Tempo diário disponível", overrides.Time)

	if len(notes) == 0 {
		return ""
	}
	return "\n\nINFORMAÇÕES ADICIONAIS FORNECIDAS PELO USUÁRIO:\n- " + strings.Join(notes, "\n- ")
}

func buildFeedbackSection(pending []Feedback) string {
	if len(pending) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n🔄 FEEDBACKS PENDENTES DO USUÁRIO (IMPORTANTE - INCORPORAR NO PLANO):\n")
	for i, fb := range pending {
		fmt.Fprintf(&b, "\n%d. [%s] %q\n   (Submetido em: %s)",
			i+1, strings.ToUpper(fb.PlanType), fb.FeedbackText, fb.CreatedAt.Format("02/01/2006"))
	}
	b.WriteString("\n\n⚠️ INSTRUÇÃO: Ajuste o plano considerando TODOS os feedbacks acima. Seja específico nas mudanças e valide as sugestões do usuário com empatia.\n")
	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
