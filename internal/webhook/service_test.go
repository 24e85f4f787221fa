package webhook

import (
	"context"
	"strings"
	"testing"
	"time"

	"vida_smart_backend/internal/coach"
	"vida_smart_backend/internal/events"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeWebhookStore struct {
	user       *MatchedUser
	logged     []string
	alerts     []string
	candidates []string
}

func (f *fakeWebhookStore) FindUserByPhone(_ context.Context, candidates []string) (*MatchedUser, error) {
	f.candidates = candidates
	return f.user, nil
}

func (f *fakeWebhookStore) LogMessage(_ context.Context, _ *uuid.UUID, phone, message, _ string, _ time.Time) error {
	f.logged = append(f.logged, phone+"|"+message)
	return nil
}

func (f *fakeWebhookStore) InsertEmergencyAlert(_ context.Context, _ *uuid.UUID, _, message string) error {
	f.alerts = append(f.alerts, message)
	return nil
}

type fakeCoach struct {
	called bool
	input  coach.TurnInput
	result coach.TurnResult
}

func (f *fakeCoach) ProcessTurn(_ context.Context, in coach.TurnInput) (coach.TurnResult, error) {
	f.called = true
	f.input = in
	return f.result, nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendText(_ context.Context, phone, text string) error {
	f.sent = append(f.sent, phone+"|"+text)
	return nil
}

type fakeProactiveTracker struct {
	replies []uuid.UUID
}

func (f *fakeProactiveTracker) NoteUserReply(_ context.Context, userID uuid.UUID) {
	f.replies = append(f.replies, userID)
}

type allowAllLimiter struct{ denied bool }

func (l allowAllLimiter) Allow(context.Context, string, bool) bool { return !l.denied }

func textPayload(text string) InboundPayload {
	return InboundPayload{
		Event: "messages.upsert",
		Data: &MessageData{
			Key:     MessageKey{RemoteJid: "5511999990000@s.whatsapp.net"},
			Message: &MessageBox{Conversation: text},
		},
	}
}

func newWebhookService(store Store, engine CoachEngine, sender Sender, tracker ProactiveTracker, limiter Limiter) *Service {
	log := logger.New("test")
	return NewService(store, engine, sender, tracker, limiter, events.NewInMemoryBus(log), log)
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	store := &fakeWebhookStore{}
	sender := &fakeSender{}
	svc := newWebhookService(store, &fakeCoach{}, sender, nil, allowAllLimiter{})

	result, err := svc.Process(context.Background(), InboundPayload{Event: "connection.update"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusIgnored {
		t.Errorf("status = %q, want ignored", result.Status)
	}
	if len(store.logged) != 0 || len(sender.sent) != 0 {
		t.Error("ignored events must not write or send anything")
	}
}

func TestProcessSkipsOwnMessages(t *testing.T) {
	store := &fakeWebhookStore{}
	svc := newWebhookService(store, &fakeCoach{}, &fakeSender{}, nil, allowAllLimiter{})

	payload := textPayload("oi")
	payload.Data.Key.FromMe = true

	result, err := svc.Process(context.Background(), payload)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusSkipped {
		t.Errorf("status = %q, want skipped", result.Status)
	}
	if len(store.logged) != 0 {
		t.Error("own messages must not be logged")
	}
}

func TestProcessRateLimited(t *testing.T) {
	store := &fakeWebhookStore{}
	sender := &fakeSender{}
	engine := &fakeCoach{}
	svc := newWebhookService(store, engine, sender, nil, allowAllLimiter{denied: true})

	result, err := svc.Process(context.Background(), textPayload("oi"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusRateLimited {
		t.Errorf("status = %q, want rate_limited", result.Status)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "muito rápido") {
		t.Errorf("expected rate limit notice, got %v", sender.sent)
	}
	if engine.called {
		t.Error("coach must not run for rate limited messages")
	}
	if len(store.logged) != 0 {
		t.Error("rate limited messages are not persisted")
	}
}

func TestProcessEmergencyProtocol(t *testing.T) {
	userID := uuid.New()
	store := &fakeWebhookStore{user: &MatchedUser{ID: userID, Phone: "+5511999990000"}}
	sender := &fakeSender{}
	engine := &fakeCoach{}
	svc := newWebhookService(store, engine, sender, nil, allowAllLimiter{})

	result, err := svc.Process(context.Background(), textPayload("não aguento mais, quero desaparecer"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusEmergency {
		t.Errorf("status = %q, want emergency", result.Status)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "CVV") {
		t.Errorf("expected CVV reply, got %v", sender.sent)
	}
	if len(store.alerts) != 1 {
		t.Errorf("expected one emergency alert, got %d", len(store.alerts))
	}
	if engine.called {
		t.Error("coach must not run for emergency messages")
	}
	if len(store.logged) != 1 {
		t.Error("emergency messages still go to the audit log")
	}
}

func TestProcessUnknownUserGetsInvite(t *testing.T) {
	store := &fakeWebhookStore{}
	sender := &fakeSender{}
	engine := &fakeCoach{}
	svc := newWebhookService(store, engine, sender, nil, allowAllLimiter{})

	result, err := svc.Process(context.Background(), textPayload("oi, quem é você?"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusReplied {
		t.Errorf("status = %q, want replied", result.Status)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "appvidasmart.com") {
		t.Errorf("expected registration invite, got %v", sender.sent)
	}
	if engine.called {
		t.Error("coach must not run without a registered user")
	}
}

func TestProcessRegisteredUserCoachTurn(t *testing.T) {
	userID := uuid.New()
	store := &fakeWebhookStore{user: &MatchedUser{ID: userID, Phone: "+5511999990000"}}
	sender := &fakeSender{}
	tracker := &fakeProactiveTracker{}
	engine := &fakeCoach{result: coach.TurnResult{Reply: "Que bom te ver por aqui!", Stage: coach.StageSDR}}
	svc := newWebhookService(store, engine, sender, tracker, allowAllLimiter{})

	result, err := svc.Process(context.Background(), textPayload("oi, bom dia"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusReplied {
		t.Errorf("status = %q, want replied", result.Status)
	}
	if !engine.called || engine.input.UserID != userID {
		t.Errorf("coach should run for user %s, input %+v", userID, engine.input)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "Que bom te ver") {
		t.Errorf("reply should be sent, got %v", sender.sent)
	}
	if len(tracker.replies) != 1 || tracker.replies[0] != userID {
		t.Error("a user reply should close pending proactive messages")
	}

	want := []string{"+5511999990000", "5511999990000"}
	if len(store.candidates) != 2 || store.candidates[0] != want[0] || store.candidates[1] != want[1] {
		t.Errorf("lookup candidates = %v, want %v", store.candidates, want)
	}
}

func TestProcessUnsupportedMediaLoggedOnly(t *testing.T) {
	userID := uuid.New()
	store := &fakeWebhookStore{user: &MatchedUser{ID: userID, Phone: "+5511999990000"}}
	sender := &fakeSender{}
	engine := &fakeCoach{}
	svc := newWebhookService(store, engine, sender, nil, allowAllLimiter{})

	payload := InboundPayload{
		Event: "messages.upsert",
		Data: &MessageData{
			Key: MessageKey{RemoteJid: "5511999990000@s.whatsapp.net"},
		},
	}
	result, err := svc.Process(context.Background(), payload)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Status != StatusReceived {
		t.Errorf("status = %q, want received", result.Status)
	}
	if len(store.logged) != 1 {
		t.Error("unsupported media should still be logged")
	}
	if engine.called || len(sender.sent) != 0 {
		t.Error("no reply is generated for unsupported media")
	}
}
