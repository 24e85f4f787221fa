// Package webhook provides the Evolution API inbound bounded context.
// It receives WhatsApp message events, maps phones to users and routes
// messages through the coach.
package webhook

import "strings"

// NormalizePhone turns an Evolution JID or raw phone into E.164-ish form.
// The "@s.whatsapp.net" suffix is dropped, everything but digits and a
// leading plus is stripped, and Brazilian numbers keep their country code.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	if at := strings.Index(raw, "@"); at >= 0 {
		raw = raw[:at]
	}

	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	return "+" + cleaned
}

// PhoneCandidates returns the lookup variants for a normalized phone: the
// normalized form itself and its digits-only form, since older rows were
// stored without the plus.
func PhoneCandidates(normalized string) []string {
	if normalized == "" {
		return nil
	}
	digits := strings.TrimPrefix(normalized, "+")
	if digits == normalized {
		return []string{normalized}
	}
	return []string{normalized, digits}
}
