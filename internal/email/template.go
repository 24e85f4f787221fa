package email

import (
	"bytes"
	"html/template"
	"time"
)

const subjectEmergencyAlert = "🚨 Alerta de emergência - protocolo CVV ativado"

// EmergencyAlertData feeds the ops alert template.
type EmergencyAlertData struct {
	UserID     string
	Phone      string
	Message    string
	DetectedAt time.Time
}

var emergencyAlertTmpl = template.Must(template.New("emergency_alert").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #b91c1c;">Protocolo de emergência ativado</h2>
  <p>Uma mensagem recebida pelo WhatsApp acionou as palavras-chave de crise.
     A resposta automática com os contatos do CVV já foi enviada.</p>
  <table cellpadding="6" style="border-collapse: collapse;">
    <tr><td><strong>Usuário</strong></td><td>{{if .UserID}}{{.UserID}}{{else}}não cadastrado{{end}}</td></tr>
    <tr><td><strong>Telefone</strong></td><td>{{.Phone}}</td></tr>
    <tr><td><strong>Recebida em</strong></td><td>{{.DetectedAt.Format "02/01/2006 15:04"}}</td></tr>
  </table>
  <p><strong>Mensagem:</strong></p>
  <blockquote style="border-left: 4px solid #b91c1c; padding-left: 12px; color: #374151;">{{.Message}}</blockquote>
  <p>Por favor, faça o acompanhamento humano deste caso o quanto antes.</p>
</body>
</html>`))

func renderEmergencyAlert(data EmergencyAlertData) (string, error) {
	var buf bytes.Buffer
	if err := emergencyAlertTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
