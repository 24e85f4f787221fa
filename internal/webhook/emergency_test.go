package webhook

import "testing"

func TestIsEmergency(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"não aguento mais, quero sumir", true},
		{"nao aguento mais", true},
		{"Estou pensando em me matar", true},
		{"tenho pensado em suicídio", true},
		{"tenho pensado em suicidio", true},
		{"NÃO VEJO SAÍDA", true},
		{"hoje o treino foi pesado demais", false},
		{"quero melhorar minha alimentação", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEmergency(tt.message); got != tt.want {
			t.Errorf("IsEmergency(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}
