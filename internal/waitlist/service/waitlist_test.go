package service

import (
	"context"
	"testing"
	"time"

	"vitrii/internal/notify"
	"vitrii/internal/waitlist/validator"
	"vitrii/pkg/config"
	mongotx "vitrii/pkg/db/mongo"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/logger"
	"vitrii/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testRequestID    = "507f1f77bcf86cd799439033"
	testAdvertiserID = "anunciante-1"
)

type mockWaitlistRepository struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.WaitlistRequest, error)
	markApprovedFunc func(ctx context.Context, id string, eventID string) error
	markRejectedFunc func(ctx context.Context, id string, reason string, suggestedDate string, suggestedTime string) error
	created          *model.WaitlistRequest
}

func (m *mockWaitlistRepository) Create(ctx context.Context, request *model.WaitlistRequest) error {
	m.created = request
	request.ID = testRequestID
	return nil
}

func (m *mockWaitlistRepository) FindByID(ctx context.Context, id string) (*model.WaitlistRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockWaitlistRepository) FindByAdvertiser(ctx context.Context, advertiserID string, status string) ([]*model.WaitlistRequest, error) {
	return []*model.WaitlistRequest{}, nil
}

func (m *mockWaitlistRepository) MarkApproved(ctx context.Context, id string, eventID string) error {
	if m.markApprovedFunc != nil {
		return m.markApprovedFunc(ctx, id, eventID)
	}
	return nil
}

func (m *mockWaitlistRepository) MarkRejected(ctx context.Context, id string, reason string, suggestedDate string, suggestedTime string) error {
	if m.markRejectedFunc != nil {
		return m.markRejectedFunc(ctx, id, reason, suggestedDate, suggestedTime)
	}
	return nil
}

func (m *mockWaitlistRepository) MarkCanceled(ctx context.Context, id string) error {
	return nil
}

func (m *mockWaitlistRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockEventCreator struct {
	created    *model.Event
	createFunc func(ctx context.Context, event *model.Event) error
}

func (m *mockEventCreator) Create(ctx context.Context, event *model.Event) error {
	m.created = event
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	event.ID = "507f1f77bcf86cd799439044"
	return nil
}

func (m *mockEventCreator) FindByID(ctx context.Context, id string) (*model.Event, error) {
	return nil, nil
}

func (m *mockEventCreator) FindByAdvertiser(ctx context.Context, advertiserID string, limit int, offset int64) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockEventCreator) CountByAdvertiser(ctx context.Context, advertiserID string) (int64, error) {
	return 0, nil
}

func (m *mockEventCreator) Update(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockEventCreator) Delete(ctx context.Context, id string) error { return nil }

func (m *mockEventCreator) DeleteByAdvertiser(ctx context.Context, advertiserID string) ([]string, error) {
	return nil, nil
}

func (m *mockEventCreator) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:               log,
		DefaultEventColor: "#3b82f6",
	}
}

func newTestService(repo *mockWaitlistRepository, events *mockEventCreator) WaitlistService {
	cfg := testConfig()
	return NewWaitlistService(
		repo,
		events,
		validator.NewWaitlistValidator(cfg.Log),
		notify.NewNopNotifier(),
		cfg,
	)
}

func pendingRequest() *model.WaitlistRequest {
	now := time.Now().UTC()
	return &model.WaitlistRequest{
		ID:           testRequestID,
		AdvertiserID: testAdvertiserID,
		Title:        "Horário alternativo",
		StartTime:    now.Add(48 * time.Hour),
		EndTime:      now.Add(49 * time.Hour),
		Requester:    model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
		Status:       model.FilaPendente,
	}
}

func TestSubmit_StartsPendente(t *testing.T) {
	mockRepo := &mockWaitlistRepository{}
	svc := newTestService(mockRepo, &mockEventCreator{})

	now := time.Now().UTC()
	request, err := svc.Submit(context.Background(), "user-1", &CreateWaitlistInput{
		AdvertiserID: testAdvertiserID,
		Title:        "  Horário alternativo  ",
		StartTime:    now.Add(48 * time.Hour),
		EndTime:      now.Add(49 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if request.Status != model.FilaPendente {
		t.Errorf("expected pendente, got %s", request.Status)
	}
	if request.Title != "Horário alternativo" {
		t.Errorf("title not trimmed: %q", request.Title)
	}
	if request.Requester.UserID != "user-1" {
		t.Errorf("expected requester user-1, got %s", request.Requester.UserID)
	}
}

func TestSubmit_EndBeforeStartFails(t *testing.T) {
	svc := newTestService(&mockWaitlistRepository{}, &mockEventCreator{})

	now := time.Now().UTC()
	_, err := svc.Submit(context.Background(), "user-1", &CreateWaitlistInput{
		AdvertiserID: testAdvertiserID,
		Title:        "Horário inválido",
		StartTime:    now.Add(49 * time.Hour),
		EndTime:      now.Add(48 * time.Hour),
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestApprove_CreatesPrivateEventAndLinksIt(t *testing.T) {
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return pendingRequest(), nil
		},
	}
	mockEvents := &mockEventCreator{}
	svc := newTestService(mockRepo, mockEvents)

	request, err := svc.Approve(context.Background(), testAdvertiserID, testRequestID)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	if request.Status != model.FilaAprovada {
		t.Errorf("expected aprovada, got %s", request.Status)
	}
	if mockEvents.created == nil {
		t.Fatal("approval did not create an event")
	}
	if mockEvents.created.Privacy != model.PrivacyPrivado {
		t.Errorf("materialized event must be privado, got %s", mockEvents.created.Privacy)
	}
	if mockEvents.created.WaitlistRequestID != testRequestID {
		t.Errorf("event not linked back to the request")
	}
	if request.EventID != mockEvents.created.ID {
		t.Errorf("request not linked to the created event")
	}
}

func TestApprove_EventInsertFailureLeavesRequestPendente(t *testing.T) {
	approved := false
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return pendingRequest(), nil
		},
		markApprovedFunc: func(ctx context.Context, id string, eventID string) error {
			approved = true
			return nil
		},
	}
	mockEvents := &mockEventCreator{
		createFunc: func(ctx context.Context, event *model.Event) error {
			return context.DeadlineExceeded
		},
	}
	svc := newTestService(mockRepo, mockEvents)

	_, err := svc.Approve(context.Background(), testAdvertiserID, testRequestID)
	if err == nil {
		t.Fatal("expected Approve() to fail")
	}
	if approved {
		t.Error("request must not be marked aprovada when the event insert fails")
	}
}

func TestApprove_OnlyTargetAdvertiser(t *testing.T) {
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return pendingRequest(), nil
		},
	}
	svc := newTestService(mockRepo, &mockEventCreator{})

	_, err := svc.Approve(context.Background(), "outro-anunciante", testRequestID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN error, got %v", err)
	}
}

func TestApprove_AlreadyDecidedFails(t *testing.T) {
	decided := pendingRequest()
	decided.Status = model.FilaAprovada
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return decided, nil
		},
	}
	svc := newTestService(mockRepo, &mockEventCreator{})

	_, err := svc.Approve(context.Background(), testAdvertiserID, testRequestID)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE error, got %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	svc := newTestService(&mockWaitlistRepository{}, &mockEventCreator{})

	_, err := svc.Reject(context.Background(), testAdvertiserID, testRequestID, &RejectWaitlistInput{})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestReject_CarriesSuggestions(t *testing.T) {
	var gotDate, gotTime string
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return pendingRequest(), nil
		},
		markRejectedFunc: func(ctx context.Context, id string, reason string, suggestedDate string, suggestedTime string) error {
			gotDate, gotTime = suggestedDate, suggestedTime
			return nil
		},
	}
	svc := newTestService(mockRepo, &mockEventCreator{})

	request, err := svc.Reject(context.Background(), testAdvertiserID, testRequestID, &RejectWaitlistInput{
		Reason:        "agenda lotada",
		SuggestedDate: "2026-09-15",
		SuggestedTime: "14:30",
	})
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if gotDate != "2026-09-15" || gotTime != "14:30" {
		t.Errorf("suggestions not persisted: %s %s", gotDate, gotTime)
	}
	if request.Status != model.FilaRejeitada {
		t.Errorf("expected rejeitada, got %s", request.Status)
	}
}

func TestCancel_RequesterOnly(t *testing.T) {
	mockRepo := &mockWaitlistRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.WaitlistRequest, error) {
			return pendingRequest(), nil
		},
	}
	svc := newTestService(mockRepo, &mockEventCreator{})

	if _, err := svc.Cancel(context.Background(), "user-1", testRequestID); err != nil {
		t.Fatalf("Cancel() by requester failed: %v", err)
	}

	_, err := svc.Cancel(context.Background(), "intruso", testRequestID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN error, got %v", err)
	}
}
