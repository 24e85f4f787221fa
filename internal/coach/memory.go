package coach

import (
	"regexp"
	"strings"

	"vida_smart_backend/platform/sanitize"
)

// MemoryEntities is the structured memory extracted from conversation text.
// Stored as JSONB in conversation_memory.entities.
type MemoryEntities struct {
	UserGoals           []string          `json:"user_goals"`
	PainPoints          []string          `json:"pain_points"`
	Preferences         map[string]string `json:"preferences"`
	MentionedActivities []string          `json:"mentioned_activities"`
	Restrictions        []string          `json:"restrictions"`
	EmotionalState      string            `json:"emotional_state,omitempty"`
}

// NewMemoryEntities returns an empty, fully initialized entity set.
func NewMemoryEntities() MemoryEntities {
	return MemoryEntities{
		UserGoals:           []string{},
		PainPoints:          []string{},
		Preferences:         map[string]string{},
		MentionedActivities: []string{},
		Restrictions:        []string{},
	}
}

// DefaultSessionID groups memory for users without an explicit session.
const DefaultSessionID = "default"

// Extraction patterns run against accent-stripped lowercase text.
var (
	goalsRe        = regexp.MustCompile(`(quero|preciso|gostaria de)\s+([^.\n]+)`)
	painsRe        = regexp.MustCompile(`(dificuldade|problema|nao consigo|luto com)\s+([^.,;]+)`)
	restrictionsRe = regexp.MustCompile(`(nao como|evito|intolerancia|alergia a)\s+([^.,;]+)`)
	preferencesRe  = regexp.MustCompile(`(prefiro|gosto de|adoro)\s+([^.,;]+)`)
	activitiesRe   = regexp.MustCompile(`(treino|corrida|meditacao|yoga|respiracao)`)
	emotionsRe     = regexp.MustCompile(`(ansioso|motivado|cansado|frustrado|feliz|esgotado|animado)`)

	// "gosto de yoga e evito acucar" carries two independent clauses; a
	// break before the second verb keeps the first capture from swallowing it.
	clauseBreakRe = regexp.MustCompile(`\s+e\s+(adoro|prefiro|gosto de|evito|nao como)`)
)

// ExtractMemorySignals mines goals, pains, restrictions, preferences,
// activities and emotional state from a stretch of conversation text.
func ExtractMemorySignals(text string) MemoryEntities {
	normalized := sanitize.Normalize(text)
	prepared := clauseBreakRe.ReplaceAllString(normalized, ". ${1}")
	entities := NewMemoryEntities()

	for _, match := range goalsRe.FindAllStringSubmatch(prepared, -1) {
		for _, part := range splitCompositeGoals(match[2]) {
			entities.UserGoals = appendEntity(entities.UserGoals, part)
		}
	}
	for _, match := range painsRe.FindAllStringSubmatch(prepared, -1) {
		entities.PainPoints = appendEntity(entities.PainPoints, match[2])
	}
	for _, match := range restrictionsRe.FindAllStringSubmatch(prepared, -1) {
		entities.Restrictions = appendEntity(entities.Restrictions, match[2])
	}
	for _, match := range preferencesRe.FindAllStringSubmatch(prepared, -1) {
		if value := sanitizeValue(match[2]); value != "" {
			entities.Preferences[value] = "preferred"
		}
	}
	for _, match := range activitiesRe.FindAllStringSubmatch(prepared, -1) {
		entities.MentionedActivities = appendEntity(entities.MentionedActivities, match[0])
	}

	if emotion := emotionsRe.FindString(normalized); emotion != "" {
		entities.EmotionalState = emotion
	}

	return entities
}

// MergeEntities folds a new extraction into the stored memory. Arrays are
// set-unioned in insertion order, preferences are map-merged, and a fresh
// emotional state replaces the stored one.
func MergeEntities(current, incoming MemoryEntities) MemoryEntities {
	merged := MemoryEntities{
		UserGoals:           mergeValues(current.UserGoals, incoming.UserGoals),
		PainPoints:          mergeValues(current.PainPoints, incoming.PainPoints),
		MentionedActivities: mergeValues(current.MentionedActivities, incoming.MentionedActivities),
		Restrictions:        mergeValues(current.Restrictions, incoming.Restrictions),
		Preferences:         map[string]string{},
		EmotionalState:      current.EmotionalState,
	}
	for key, value := range current.Preferences {
		merged.Preferences[key] = value
	}
	for key, value := range incoming.Preferences {
		merged.Preferences[key] = value
	}
	if incoming.EmotionalState != "" {
		merged.EmotionalState = incoming.EmotionalState
	}
	return merged
}

func mergeValues(current, incoming []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, value := range append(append([]string{}, current...), incoming...) {
		normalized := sanitizeValue(value)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

func appendEntity(target []string, raw string) []string {
	normalized := sanitizeValue(raw)
	if normalized == "" {
		return target
	}
	for _, existing := range target {
		if existing == normalized {
			return target
		}
	}
	return append(target, normalized)
}

// goalVerbs mark the start of a new objective inside a composite phrase
// like "perder peso, ganhar massa e melhorar alimentacao".
var goalVerbs = []string{
	"perder", "ganhar", "melhorar", "reduzir", "aumentar", "dormir", "comer",
	"beber", "treinar", "caminhar", "correr", "meditar", "focar", "organizar",
}

var (
	commaSplitRe = regexp.MustCompile(`\s*,\s*`)
	andSplitRe   = regexp.MustCompile(`\s+e\s+`)
)

func splitCompositeGoals(raw string) []string {
	value := sanitizeValue(raw)
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range commaSplitRe.Split(value, -1) {
		segments := andSplitRe.Split(part, -1)
		if len(segments) == 1 {
			out = append(out, segments[0])
			continue
		}

		// Keep "massa e definicao" together; split only before a new verb.
		buffer := segments[0]
		for _, segment := range segments[1:] {
			if startsWithGoalVerb(segment) {
				out = append(out, buffer)
				buffer = segment
			} else {
				buffer = buffer + " e " + segment
			}
		}
		out = append(out, buffer)
	}

	cleaned := make([]string, 0, len(out))
	for _, goal := range out {
		if goal = sanitize.Clean(goal); goal != "" {
			cleaned = append(cleaned, goal)
		}
	}
	return cleaned
}

func startsWithGoalVerb(segment string) bool {
	for _, verb := range goalVerbs {
		if strings.HasPrefix(segment, verb+" ") {
			return true
		}
	}
	return false
}

var leadingStopwords = []string{"em", "de", "da", "do", "no", "na", "ao", "a"}

// sanitizeValue normalizes an extracted value and drops a single leading
// preposition so "de peso" and "peso" dedupe to the same entry.
func sanitizeValue(value string) string {
	sanitized := sanitize.Clean(sanitize.Normalize(value))
	for _, stopword := range leadingStopwords {
		if strings.HasPrefix(sanitized, stopword+" ") {
			sanitized = sanitized[len(stopword)+1:]
			break
		}
	}
	return strings.TrimSpace(sanitized)
}
