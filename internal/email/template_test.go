package email

import (
	"strings"
	"testing"
	"time"
)

func TestRenderEmergencyAlert(t *testing.T) {
	content, err := renderEmergencyAlert(EmergencyAlertData{
		UserID:     "7b0d1a2e-55f1-4f2e-9a31-0f6f2f1c9d10",
		Phone:      "+5511999990000",
		Message:    "não aguento mais",
		DetectedAt: time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("renderEmergencyAlert: %v", err)
	}

	// html/template escapes the leading plus sign.
	for _, want := range []string{"&#43;5511999990000", "não aguento mais", "10/03/2026 21:30", "7b0d1a2e"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered alert missing %q", want)
		}
	}
}

func TestRenderEmergencyAlertUnregisteredUser(t *testing.T) {
	content, err := renderEmergencyAlert(EmergencyAlertData{
		Phone:      "+5511999990000",
		Message:    "quero desaparecer",
		DetectedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("renderEmergencyAlert: %v", err)
	}
	if !strings.Contains(content, "não cadastrado") {
		t.Error("missing user should be rendered as não cadastrado")
	}
}
