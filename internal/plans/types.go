// Package plans provides the training plan bounded context: AI plan
// generation across the four wellness pillars, plan feedback and
// regeneration.
package plans

import (
	"strings"
)

// Plan types, one per wellness pillar.
const (
	TypePhysical    = "physical"
	TypeNutritional = "nutritional"
	TypeEmotional   = "emotional"
	TypeSpiritual   = "spiritual"
)

// AllPlanTypes is the canonical pillar order.
var AllPlanTypes = []string{TypePhysical, TypeNutritional, TypeEmotional, TypeSpiritual}

var validPlanTypes = map[string]bool{
	TypePhysical:    true,
	TypeNutritional: true,
	TypeEmotional:   true,
	TypeSpiritual:   true,
}

// NormalizePlanTypes turns a flexible plan type input into a lowercase
// list: a list is lowered element-wise, the string "all" (or anything
// non-string) expands to every pillar, and any other string becomes a
// single-element list.
func NormalizePlanTypes(raw interface{}) []string {
	switch value := raw.(type) {
	case []string:
		out := make([]string, 0, len(value))
		for _, item := range value {
			out = append(out, strings.ToLower(item))
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if text, ok := item.(string); ok {
				out = append(out, strings.ToLower(text))
			}
		}
		return out
	case string:
		normalized := strings.ToLower(value)
		if normalized == "all" {
			return append([]string{}, AllPlanTypes...)
		}
		return []string{normalized}
	default:
		return append([]string{}, AllPlanTypes...)
	}
}

// FilterValidPlanTypes drops unknown types; an empty result falls back to
// every pillar so a typo never leaves the user with nothing.
func FilterValidPlanTypes(planTypes []string) []string {
	filtered := make([]string, 0, len(planTypes))
	for _, planType := range planTypes {
		if validPlanTypes[planType] {
			filtered = append(filtered, planType)
		}
	}
	if len(filtered) == 0 {
		return append([]string{}, AllPlanTypes...)
	}
	return filtered
}

// FormatResultLabel names the regenerated set in the confirmation message.
func FormatResultLabel(planTypes []string) string {
	switch len(planTypes) {
	case len(AllPlanTypes):
		return "todos os seus planos"
	case 1:
		return "o plano " + planTypes[0]
	default:
		return "os planos " + strings.Join(planTypes, ", ")
	}
}

// messageTypeKeywords maps chat vocabulary to pillars for regeneration
// requests made in conversation.
var messageTypeKeywords = []struct {
	keywords []string
	planType string
}{
	{[]string{"treino", "exercicio", "exercício", "musculação", "musculacao"}, TypePhysical},
	{[]string{"dieta", "cardapio", "cardápio", "alimenta", "nutri"}, TypeNutritional},
	{[]string{"emocional", "ansiedade", "estresse"}, TypeEmotional},
	{[]string{"espiritual", "meditação", "meditacao", "proposito", "propósito"}, TypeSpiritual},
}

// PlanTypesFromMessage extracts the pillars a chat message refers to.
// A message naming no pillar regenerates everything.
func PlanTypesFromMessage(message string) []string {
	lower := strings.ToLower(message)
	var out []string
	for _, entry := range messageTypeKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				out = append(out, entry.planType)
				break
			}
		}
	}
	if len(out) == 0 {
		return append([]string{}, AllPlanTypes...)
	}
	return out
}
