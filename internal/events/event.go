// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"vida_smart_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Coach Domain Events
// =============================================================================

// StageChanged is published when a conversation transitions between coaching
// stages.
type StageChanged struct {
	BaseEvent
	UserID    uuid.UUID `json:"userId"`
	SessionID string    `json:"sessionId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Forced    bool      `json:"forced"`
}

func (e StageChanged) EventName() string { return "coach.stage.changed" }

// EmergencyDetected is published when an inbound message matches the
// emergency keyword protocol. The email module subscribes to alert the
// operations team.
type EmergencyDetected struct {
	BaseEvent
	UserID     *uuid.UUID `json:"userId,omitempty"`
	Phone      string     `json:"phone"`
	Message    string     `json:"message"`
	DetectedAt time.Time  `json:"detectedAt"`
}

func (e EmergencyDetected) EventName() string { return "coach.emergency.detected" }

// =============================================================================
// Plans Domain Events
// =============================================================================

// PlanRegenerated is published after a training plan has been regenerated
// for a user.
type PlanRegenerated struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	PlanType string    `json:"planType"`
	Trigger  string    `json:"trigger"` // "chat_intent", "feedback", "manual"
}

func (e PlanRegenerated) EventName() string { return "plans.plan.regenerated" }

// =============================================================================
// Gamification Domain Events
// =============================================================================

// RewardRedeemed is published when a user successfully redeems a reward.
type RewardRedeemed struct {
	BaseEvent
	UserID       uuid.UUID `json:"userId"`
	RewardID     uuid.UUID `json:"rewardId"`
	RedemptionID uuid.UUID `json:"redemptionId"`
	XPSpent      int       `json:"xpSpent"`
	XPAfter      int       `json:"xpAfter"`
}

func (e RewardRedeemed) EventName() string { return "gamification.reward.redeemed" }

// =============================================================================
// Proactive Domain Events
// =============================================================================

// ProactiveMessageSent is published after a proactive nudge has been
// delivered over WhatsApp.
type ProactiveMessageSent struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	MessageType string    `json:"messageType"`
}

func (e ProactiveMessageSent) EventName() string { return "proactive.message.sent" }
