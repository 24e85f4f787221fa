package scheduler

import (
	"encoding/json"

	"vida_smart_backend/internal/plans"

	"github.com/hibiken/asynq"
)

const TaskProactiveSweep = "proactive.sweep"

const TaskGeneratePlan = "plans.generate"

const TaskSendWhatsApp = "whatsapp.send"

// GeneratePlanPayload asks the worker to generate one plan type for a user.
type GeneratePlanPayload struct {
	UserID    string          `json:"userId"`
	PlanType  string          `json:"planType"`
	Overrides plans.Overrides `json:"overrides"`
}

// SendWhatsAppPayload is a deferred outbound message.
type SendWhatsAppPayload struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

func NewProactiveSweepTask() *asynq.Task {
	return asynq.NewTask(TaskProactiveSweep, nil)
}

func NewGeneratePlanTask(payload GeneratePlanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeneratePlan, data), nil
}

func ParseGeneratePlanPayload(task *asynq.Task) (GeneratePlanPayload, error) {
	var payload GeneratePlanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GeneratePlanPayload{}, err
	}
	return payload, nil
}

func NewSendWhatsAppTask(payload SendWhatsAppPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendWhatsApp, data), nil
}

func ParseSendWhatsAppPayload(task *asynq.Task) (SendWhatsAppPayload, error) {
	var payload SendWhatsAppPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SendWhatsAppPayload{}, err
	}
	return payload, nil
}
