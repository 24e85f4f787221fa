package proactive

import (
	"context"
	"sync/atomic"

	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const sweepConcurrency = 8

// Sender delivers the proactive message over WhatsApp. Satisfied by the
// whatsapp client.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Store is the persistence surface the service needs. Satisfied by
// *Repository.
type Store interface {
	Source
	GetUserContext(ctx context.Context, userID uuid.UUID) (UserContext, error)
	SweepUserIDs(ctx context.Context) ([]uuid.UUID, error)
	CanSend(ctx context.Context, userID uuid.UUID, messageType string) (bool, error)
	Record(ctx context.Context, userID uuid.UUID, msg *Message) error
	MarkResponded(ctx context.Context, userID uuid.UUID, messageType string) error
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Evaluated int `json:"evaluated"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// Service evaluates users and dispatches at most one message each.
type Service struct {
	store    Store
	engine   *Engine
	sender   Sender
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the proactive service.
func NewService(store Store, engine *Engine, sender Sender, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, engine: engine, sender: sender, eventBus: eventBus, log: log}
}

// EvaluateUser runs the trigger rules for one user and sends the winning
// message. A trigger that fires but fails its cooldown ends the evaluation
// without probing lower-priority triggers. Returns the sent message, or nil
// when nothing went out.
func (s *Service) EvaluateUser(ctx context.Context, userID uuid.UUID) (*Message, error) {
	user, err := s.store.GetUserContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Phone == "" {
		return nil, nil
	}

	msg, err := s.engine.Evaluate(ctx, user)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}

	allowed, err := s.store.CanSend(ctx, userID, msg.Type)
	if err != nil {
		s.log.DatabaseError("select", "proactive_messages", err)
		return nil, nil
	}
	if !allowed {
		return nil, nil
	}

	if err := s.sender.SendText(ctx, user.Phone, msg.Content); err != nil {
		s.log.WhatsAppSend(user.Phone, false, err.Error())
		return nil, err
	}
	s.log.WhatsAppSend(user.Phone, true, "")

	if err := s.store.Record(ctx, userID, msg); err != nil {
		s.log.DatabaseError("insert", "proactive_messages", err)
	}

	s.eventBus.Publish(ctx, events.ProactiveMessageSent{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      userID,
		MessageType: msg.Type,
	})
	s.log.ProactiveSent(userID.String(), msg.Type)

	return msg, nil
}

// Sweep evaluates every user with a phone on file with a bounded fan-out.
// A failure for one user never aborts the rest of the sweep.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := s.store.SweepUserIDs(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			msg, err := s.EvaluateUser(gctx, id)
			if err != nil {
				failed.Add(1)
				return nil
			}
			if msg != nil {
				sent.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	return SweepResult{
		Evaluated: len(ids),
		Sent:      int(sent.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

// NoteUserReply marks the most recent unanswered proactive message, of any
// type, as responded. Called when an inbound WhatsApp message arrives.
func (s *Service) NoteUserReply(ctx context.Context, userID uuid.UUID) {
	if err := s.store.MarkResponded(ctx, userID, ""); err != nil {
		s.log.DatabaseError("update", "proactive_messages", err)
	}
}
