package webhook

import (
	"strings"

	"vida_smart_backend/platform/sanitize"
)

// EmergencyReply is the CVV support message sent when a crisis keyword is
// detected. CVV is Brazil's suicide prevention hotline.
const EmergencyReply = "Percebi que você pode estar passando por um momento muito difícil. " +
	"Por favor, saiba que você não está só e que ajuda está disponível. " +
	"O Centro de Valorização da Vida (CVV) oferece apoio emocional gratuito e sigiloso, 24 horas por dia. " +
	"Ligue para 188 ou acesse cvv.org.br. Sua vida é muito importante."

// Keywords are matched on accent-stripped lowercase text, so both "suicídio"
// and "suicidio" hit the same entry.
var emergencyKeywords = []string{
	"me matar",
	"me suicidar",
	"quero morrer",
	"quero desaparecer",
	"nao aguento mais",
	"nao vejo saida",
	"me cortar",
	"automutilacao",
	"suicidio",
	"desistir de tudo",
}

// IsEmergency reports whether the message contains a crisis keyword.
func IsEmergency(message string) bool {
	normalized := sanitize.Normalize(message)
	for _, keyword := range emergencyKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
