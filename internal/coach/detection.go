package coach

import (
	"regexp"
	"strings"
)

// SignalSnapshot records the per-stage signal counts behind a detection.
// Persisted in conversation_metrics metadata for later tuning.
type SignalSnapshot struct {
	Partner              int  `json:"partner"`
	Seller               int  `json:"seller"`
	Specialist           int  `json:"specialist"`
	SDR                  int  `json:"sdr"`
	PlanAdjustmentIntent bool `json:"planAdjustmentIntent"`
	InterestKeywords     bool `json:"interestKeywords"`
	PlanKeywords         bool `json:"planKeywords"`
}

// Detection is the outcome of analyzing one inbound message.
type Detection struct {
	// Stage is the detected stage, or empty when no stage reached the
	// signal threshold.
	Stage      Stage
	Confidence float64
	Signals    SignalSnapshot
	PainLevel  int
}

var partnerSignals = []string{
	"check-in",
	"como foi",
	"consegui",
	"fiz o treino",
	"bebi água",
	"segui o plano",
	"como estou",
}

var sellerSignals = []string{
	"quero testar",
	"teste grátis",
	"como funciona",
	"quanto custa",
	"preço",
	"assinar",
	"começar",
	"cadastro",
	"quero começar",
}

var specialistSignals = []string{
	"preciso de ajuda",
	"estou com dificuldade",
	"não consigo",
	"problema com",
	"tenho lutado",
	"ansiedade",
	"depressão",
	"peso",
	"alimentação",
	"físico",
	"emocional",
}

var sdrSignals = []string{
	"oi",
	"olá",
	"bom dia",
	"boa tarde",
	"boa noite",
	"o que é",
	"me fale sobre",
}

var (
	interestKeywordsRe = regexp.MustCompile(`(quero|preciso|ajuda|ajudar|melhorar|arrumar|corrigir)`)
	planKeywordsRe     = regexp.MustCompile(`(plano|treino|dieta|rotina|cardapio)`)
	planAdjustmentRe   = regexp.MustCompile(`\b(ajustar|ajuste|mudar|alterar|regenerar|refazer|recriar)\b`)
	newPlanRe          = regexp.MustCompile(`\bnovo\s+plano\b`)
	painLevelRe        = regexp.MustCompile(`(?i)(\d+)/10|(\d+) de 10|nível (\d+)`)
)

const signalThreshold = 2

// DetectStage scores the message against per-stage signal lists and returns
// the strongest stage. Ties break toward the later funnel stage. When no
// stage reaches the threshold, plan-adjustment heuristics can still route
// the message to the specialist.
func DetectStage(message string, historyLen int) Detection {
	msgLower := strings.ToLower(message)
	painLevel := ExtractPainLevel(message)

	partnerCount := countSignals(msgLower, partnerSignals)
	if historyLen >= 5 {
		partnerCount++
	}

	sellerCount := countSignals(msgLower, sellerSignals)

	specialistCount := countSignals(msgLower, specialistSignals)
	if painLevel >= 7 {
		specialistCount++
	}

	sdrCount := countSignals(msgLower, sdrSignals)
	if len(message) < 50 && !strings.Contains(msgLower, "não") {
		sdrCount++
	}

	interest := interestKeywordsRe.MatchString(msgLower)
	plan := planKeywordsRe.MatchString(msgLower)
	planAdjustment := (planAdjustmentRe.MatchString(msgLower) && plan) || newPlanRe.MatchString(msgLower)

	var detected Stage
	switch {
	case partnerCount >= signalThreshold:
		detected = StagePartner
	case sellerCount >= signalThreshold:
		detected = StageSeller
	case specialistCount >= signalThreshold:
		detected = StageSpecialist
	case sdrCount >= signalThreshold:
		detected = StageSDR
	}

	if detected == "" && (planAdjustment || (specialistCount >= 1 && interest && plan)) {
		detected = StageSpecialist
	}

	signals := SignalSnapshot{
		Partner:              partnerCount,
		Seller:               sellerCount,
		Specialist:           specialistCount,
		SDR:                  sdrCount,
		PlanAdjustmentIntent: planAdjustment,
		InterestKeywords:     interest,
		PlanKeywords:         plan,
	}

	return Detection{
		Stage:      detected,
		Confidence: computeConfidence(detected, signals),
		Signals:    signals,
		PainLevel:  painLevel,
	}
}

func countSignals(msgLower string, signals []string) int {
	count := 0
	for _, signal := range signals {
		if strings.Contains(msgLower, signal) {
			count++
		}
	}
	return count
}

func computeConfidence(stage Stage, signals SignalSnapshot) float64 {
	if stage == "" {
		return 0
	}

	var strength int
	switch stage {
	case StagePartner:
		strength = signals.Partner
	case StageSeller:
		strength = signals.Seller
	case StageSpecialist:
		strength = signals.Specialist
	case StageSDR:
		strength = signals.SDR
	}

	normalized := float64(strength) / 3
	if normalized > 1 {
		normalized = 1
	}
	if signals.PlanAdjustmentIntent && stage == StageSpecialist {
		normalized += 0.2
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// ExtractPainLevel reads an explicit 0-10 pain score from the message, or
// estimates one from intensity words. The neutral default is 5.
func ExtractPainLevel(message string) int {
	if match := painLevelRe.FindStringSubmatch(message); match != nil {
		for _, group := range match[1:] {
			if group != "" {
				return atoiSafe(group)
			}
		}
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "muito") || strings.Contains(lower, "demais"):
		return 8
	case strings.Contains(lower, "bastante") || strings.Contains(lower, "bem"):
		return 7
	case strings.Contains(lower, "um pouco") || strings.Contains(lower, "às vezes"):
		return 4
	default:
		return 5
	}
}

func atoiSafe(digits string) int {
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
