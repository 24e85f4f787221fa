package email

import (
	"context"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/logger"
)

// SubscribeEmergencyAlerts wires the ops mailer to emergency detections.
// With a nil sender the subscription is skipped entirely.
func SubscribeEmergencyAlerts(bus events.Bus, sender *SMTPSender, log *logger.Logger) {
	if sender == nil {
		return
	}

	bus.Subscribe(events.EmergencyDetected{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		detected, ok := event.(events.EmergencyDetected)
		if !ok {
			return nil
		}

		data := EmergencyAlertData{
			Phone:      detected.Phone,
			Message:    detected.Message,
			DetectedAt: detected.DetectedAt,
		}
		if detected.UserID != nil {
			data.UserID = detected.UserID.String()
		}

		if err := sender.SendEmergencyAlert(ctx, data); err != nil {
			log.Error("emergency alert email failed", "error", err)
			return err
		}
		log.Info("emergency alert email sent", "phone", detected.Phone)
		return nil
	}))
}
