package webhook

import (
	"context"
	"time"

	"vida_smart_backend/internal/coach"
	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/breaker"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	eventMessagesUpsert    = "messages.upsert"
	unsupportedMessageText = "Mensagem nao suportada"

	registrationInvite = "Oi! 👋 Ainda não encontrei seu cadastro por aqui. " +
		"Crie sua conta em https://appvidasmart.com para começar sua jornada com o Vida Smart Coach! 💙"
)

// Processing outcomes reported back to Evolution.
const (
	StatusIgnored     = "ignored"
	StatusSkipped     = "skipped"
	StatusRateLimited = "rate_limited"
	StatusEmergency   = "emergency"
	StatusReceived    = "received"
	StatusReplied     = "replied"
)

// InboundPayload is the Evolution webhook body for message events.
type InboundPayload struct {
	Event       string       `json:"event"`
	Instance    string       `json:"instance"`
	Destination string       `json:"destination"`
	Data        *MessageData `json:"data"`
}

// MessageData carries the message itself.
type MessageData struct {
	Key     MessageKey  `json:"key"`
	Message *MessageBox `json:"message"`
}

// MessageKey identifies sender and direction.
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	ID        string `json:"id"`
	FromMe    bool   `json:"fromMe"`
}

// MessageBox holds the supported text variants.
type MessageBox struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

// Phone returns the sender phone, preferring the JID.
func (p *InboundPayload) Phone() string {
	if p.Data != nil && p.Data.Key.RemoteJid != "" {
		return p.Data.Key.RemoteJid
	}
	return p.Destination
}

// Content extracts the message text, with a placeholder for unsupported
// media types.
func (p *InboundPayload) Content() string {
	if p.Data != nil && p.Data.Message != nil {
		if p.Data.Message.Conversation != "" {
			return p.Data.Message.Conversation
		}
		if p.Data.Message.ExtendedTextMessage != nil && p.Data.Message.ExtendedTextMessage.Text != "" {
			return p.Data.Message.ExtendedTextMessage.Text
		}
	}
	return unsupportedMessageText
}

// Result is the processing outcome returned to the caller.
type Result struct {
	Status string `json:"status"`
	Reply  string `json:"reply,omitempty"`
}

// CoachEngine runs one conversation turn. Satisfied by *coach.Service.
type CoachEngine interface {
	ProcessTurn(ctx context.Context, in coach.TurnInput) (coach.TurnResult, error)
}

// Sender delivers outbound WhatsApp messages.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// ProactiveTracker closes the loop on pending proactive messages when the
// user writes back.
type ProactiveTracker interface {
	NoteUserReply(ctx context.Context, userID uuid.UUID)
}

// Queue defers failed outbound sends for retried delivery. Satisfied by
// the scheduler client.
type Queue interface {
	EnqueueWhatsAppSend(ctx context.Context, phone, text string) error
}

// Store is the persistence surface the service needs. Satisfied by
// *Repository.
type Store interface {
	FindUserByPhone(ctx context.Context, candidates []string) (*MatchedUser, error)
	LogMessage(ctx context.Context, userID *uuid.UUID, phone, message, event string, receivedAt time.Time) error
	InsertEmergencyAlert(ctx context.Context, userID *uuid.UUID, phone, message string) error
}

// Limiter is the per-phone rate gate.
type Limiter interface {
	Allow(ctx context.Context, phone string, isRegistered bool) bool
}

// Service turns an Evolution webhook event into a coach conversation turn.
type Service struct {
	store     Store
	coach     CoachEngine
	sender    Sender
	proactive ProactiveTracker
	limiter   Limiter
	queue     Queue
	circuit   *breaker.Breaker
	eventBus  events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates the webhook service. proactive may be nil.
func NewService(store Store, coachEngine CoachEngine, sender Sender, proactive ProactiveTracker, limiter Limiter, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		coach:     coachEngine,
		sender:    sender,
		proactive: proactive,
		limiter:   limiter,
		circuit:   breaker.New(5, 30*time.Second),
		eventBus:  eventBus,
		log:       log,
		now:       time.Now,
	}
}

// Process handles one inbound event end to end. Errors that only degrade
// the experience (audit log, proactive bookkeeping) are logged and
// swallowed so the webhook always answers Evolution quickly.
func (s *Service) Process(ctx context.Context, payload InboundPayload) (Result, error) {
	if payload.Event != eventMessagesUpsert || payload.Data == nil {
		return Result{Status: StatusIgnored}, nil
	}
	if payload.Data.Key.FromMe {
		return Result{Status: StatusSkipped}, nil
	}

	rawPhone := payload.Phone()
	normalized := NormalizePhone(rawPhone)
	content := payload.Content()

	user, err := s.store.FindUserByPhone(ctx, PhoneCandidates(normalized))
	if err != nil {
		s.log.DatabaseError("select", "user_profiles", err)
		user = nil
	}

	if !s.limiter.Allow(ctx, normalized, user != nil) {
		notice := LimitMessage(user != nil)
		s.send(ctx, rawPhone, notice)
		return Result{Status: StatusRateLimited, Reply: notice}, nil
	}

	var userID *uuid.UUID
	if user != nil {
		userID = &user.ID
	}
	if err := s.store.LogMessage(ctx, userID, rawPhone, content, eventMessagesUpsert, s.now()); err != nil {
		s.log.DatabaseError("insert", "whatsapp_messages", err)
	}

	if IsEmergency(content) {
		s.send(ctx, rawPhone, EmergencyReply)
		if err := s.store.InsertEmergencyAlert(ctx, userID, rawPhone, content); err != nil {
			s.log.DatabaseError("insert", "emergency_alerts", err)
		}
		s.eventBus.Publish(ctx, events.EmergencyDetected{
			BaseEvent:  events.NewBaseEvent(),
			UserID:     userID,
			Phone:      rawPhone,
			Message:    content,
			DetectedAt: s.now(),
		})
		return Result{Status: StatusEmergency, Reply: EmergencyReply}, nil
	}

	if content == unsupportedMessageText {
		return Result{Status: StatusReceived}, nil
	}

	if user == nil {
		s.send(ctx, rawPhone, registrationInvite)
		return Result{Status: StatusReplied, Reply: registrationInvite}, nil
	}

	if s.proactive != nil {
		s.proactive.NoteUserReply(ctx, user.ID)
	}

	turn, err := s.coach.ProcessTurn(ctx, coach.TurnInput{
		UserID:  user.ID,
		Message: content,
	})
	if err != nil {
		return Result{}, err
	}
	if turn.Blocked || turn.Reply == "" {
		return Result{Status: StatusReceived}, nil
	}

	s.send(ctx, rawPhone, turn.Reply)
	return Result{Status: StatusReplied, Reply: turn.Reply}, nil
}

// SetQueue enables queued retry for sends that fail or hit an open circuit.
func (s *Service) SetQueue(queue Queue) {
	s.queue = queue
}

// send pushes a message through the Evolution circuit breaker. Failures are
// logged, never propagated; with a queue configured the message is handed
// to the worker for retried delivery instead of being dropped.
func (s *Service) send(ctx context.Context, phone, text string) {
	_, err := breaker.Execute(ctx, s.circuit, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.sender.SendText(ctx, phone, text)
	}, nil)
	if err != nil {
		s.log.WhatsAppSend(phone, false, err.Error())
		if s.queue != nil {
			if qerr := s.queue.EnqueueWhatsAppSend(ctx, phone, text); qerr != nil {
				s.log.Error("failed to queue whatsapp retry", "phone", phone, "error", qerr)
			}
		}
		return
	}
	s.log.WhatsAppSend(phone, true, "")
}
