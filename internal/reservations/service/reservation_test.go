package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vitrii/internal/notify"
	"vitrii/internal/reservations/repository"
	"vitrii/internal/reservations/validator"
	"vitrii/pkg/config"
	mongotx "vitrii/pkg/db/mongo"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/logger"
	"vitrii/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testEventID       = "507f1f77bcf86cd799439011"
	testReservationID = "507f1f77bcf86cd799439022"
	testAdvertiserID  = "anunciante-1"
)

type mockReservationRepository struct {
	createFunc       func(ctx context.Context, reservation *model.Reservation) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	updateStatusFunc func(ctx context.Context, id string, status string, reason string) error
	captured         *model.Reservation
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reservation)
	}
	m.captured = reservation
	reservation.ID = testReservationID
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindByEvent(ctx context.Context, eventID string) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, status string, reason string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, reason)
	}
	return nil
}

func (m *mockReservationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) DeleteByEvents(ctx context.Context, eventIDs []string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockCounterRepository struct {
	next int
}

func (m *mockCounterRepository) Next(ctx context.Context, eventID string) (int, error) {
	m.next++
	return m.next, nil
}

type mockEventRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Event, error)
}

func (m *mockEventRepository) Create(ctx context.Context, event *model.Event) error { return nil }

func (m *mockEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockEventRepository) FindByAdvertiser(ctx context.Context, advertiserID string, limit int, offset int64) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockEventRepository) CountByAdvertiser(ctx context.Context, advertiserID string) (int64, error) {
	return 0, nil
}

func (m *mockEventRepository) Update(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockEventRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *mockEventRepository) DeleteByAdvertiser(ctx context.Context, advertiserID string) ([]string, error) {
	return nil, nil
}

func (m *mockEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
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

func publicEvent() *model.Event {
	now := time.Now().UTC()
	return &model.Event{
		ID:           testEventID,
		AdvertiserID: testAdvertiserID,
		Title:        "Visita ao apartamento",
		StartTime:    now.Add(24 * time.Hour),
		EndTime:      now.Add(25 * time.Hour),
		Privacy:      model.PrivacyPublico,
		Color:        "#3b82f6",
	}
}

func newTestService(reservations *mockReservationRepository, counters repository.PositionCounterRepository, events *mockEventRepository) ReservationService {
	cfg := testConfig()
	return NewReservationService(
		reservations,
		counters,
		events,
		validator.NewReservationValidator(cfg.Log),
		notify.NewNopNotifier(),
		cfg,
	)
}

func TestCreate_ReservaStartsPendente(t *testing.T) {
	mockRepo := &mockReservationRepository{}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	reservation, err := svc.Create(context.Background(), "", &CreateReservationInput{
		EventID: testEventID,
		Kind:    model.KindReserva,
		Name:    "Maria Silva",
		Email:   "MARIA@Example.com",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if reservation.Status != model.ReservaPendente {
		t.Errorf("expected status pendente, got %s", reservation.Status)
	}
	if reservation.Position != 0 {
		t.Errorf("direct reserva must not carry a position, got %d", reservation.Position)
	}
	if reservation.Requester.Kind != model.RequesterVisitante {
		t.Errorf("expected visitante requester, got %s", reservation.Requester.Kind)
	}
	if reservation.Requester.Email != "maria@example.com" {
		t.Errorf("email not normalized: %s", reservation.Requester.Email)
	}
}

func TestCreate_AuthenticatedCallerBecomesUsuario(t *testing.T) {
	mockRepo := &mockReservationRepository{}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	reservation, err := svc.Create(context.Background(), "user-9", &CreateReservationInput{
		EventID: testEventID,
		Kind:    model.KindReserva,
		Name:    "ignored",
		Email:   "ignored@example.com",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if reservation.Requester.Kind != model.RequesterUsuario {
		t.Fatalf("expected usuario requester, got %s", reservation.Requester.Kind)
	}
	if reservation.Requester.UserID != "user-9" {
		t.Errorf("expected user id user-9, got %s", reservation.Requester.UserID)
	}
	if reservation.Requester.Name != "" || reservation.Requester.Email != "" {
		t.Error("usuario requester must not carry visitor contact fields")
	}
}

func TestCreate_VisitorWithoutContactFails(t *testing.T) {
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(&mockReservationRepository{}, &mockCounterRepository{}, mockEvents)

	_, err := svc.Create(context.Background(), "", &CreateReservationInput{
		EventID: testEventID,
		Kind:    model.KindReserva,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestCreate_WaitlistAllocatesSequentialPositions(t *testing.T) {
	mockRepo := &mockReservationRepository{}
	mockCounters := &mockCounterRepository{}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, mockCounters, mockEvents)

	for want := 1; want <= 3; want++ {
		reservation, err := svc.Create(context.Background(), "user-1", &CreateReservationInput{
			EventID: testEventID,
			Kind:    model.KindListaEspera,
		})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if reservation.Position != want {
			t.Errorf("expected position %d, got %d", want, reservation.Position)
		}
	}
}

func TestCreate_ConcurrentWaitlistPositionsAreUnique(t *testing.T) {
	mockRepo := &mockReservationRepository{
		createFunc: func(ctx context.Context, reservation *model.Reservation) error {
			reservation.ID = testReservationID
			return nil
		},
	}
	mockCounters := &atomicCounterRepository{}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, mockCounters, mockEvents)

	const n = 50
	positions := make(chan int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			reservation, err := svc.Create(context.Background(), "user-1", &CreateReservationInput{
				EventID: testEventID,
				Kind:    model.KindListaEspera,
			})
			if err != nil {
				t.Errorf("Create() failed: %v", err)
				return
			}
			positions <- reservation.Position
		}()
	}
	wg.Wait()
	close(positions)

	seen := map[int]bool{}
	for pos := range positions {
		if pos < 1 || pos > n {
			t.Errorf("position %d out of range [1,%d]", pos, n)
		}
		if seen[pos] {
			t.Errorf("duplicate position %d", pos)
		}
		seen[pos] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique positions, got %d", n, len(seen))
	}
}

type atomicCounterRepository struct {
	seq int64
}

func (m *atomicCounterRepository) Next(ctx context.Context, eventID string) (int, error) {
	return int(atomic.AddInt64(&m.seq, 1)), nil
}

func TestConfirm_OwnerConfirmsPendente(t *testing.T) {
	pending := &model.Reservation{
		ID:        testReservationID,
		EventID:   testEventID,
		Requester: model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
		Kind:      model.KindReserva,
		Status:    model.ReservaPendente,
	}
	mockRepo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return pending, nil
		},
	}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	reservation, err := svc.Confirm(context.Background(), testAdvertiserID, testReservationID)
	if err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}
	if reservation.Status != model.ReservaConfirmada {
		t.Errorf("expected confirmada, got %s", reservation.Status)
	}
}

func TestConfirm_NonOwnerForbidden(t *testing.T) {
	mockRepo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:        testReservationID,
				EventID:   testEventID,
				Requester: model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
				Kind:      model.KindReserva,
				Status:    model.ReservaPendente,
			}, nil
		},
	}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	// The requester themselves cannot confirm, only the advertiser.
	_, err := svc.Confirm(context.Background(), "user-1", testReservationID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN error, got %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockCounterRepository{}, &mockEventRepository{})

	_, err := svc.Reject(context.Background(), testAdvertiserID, testReservationID, "")
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestReject_PersistsReason(t *testing.T) {
	var gotStatus, gotReason string
	mockRepo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:        testReservationID,
				EventID:   testEventID,
				Requester: model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
				Kind:      model.KindReserva,
				Status:    model.ReservaPendente,
			}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string, reason string) error {
			gotStatus, gotReason = status, reason
			return nil
		},
	}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	reservation, err := svc.Reject(context.Background(), testAdvertiserID, testReservationID, "horário indisponível")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if gotStatus != model.ReservaRejeitada || gotReason != "horário indisponível" {
		t.Errorf("unexpected update: status=%s reason=%s", gotStatus, gotReason)
	}
	if reservation.RejectionReason != "horário indisponível" {
		t.Errorf("reason not reflected on the returned reserva")
	}
}

func TestCancel_RequesterCancelsOwnReservation(t *testing.T) {
	mockRepo := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return &model.Reservation{
				ID:        testReservationID,
				EventID:   testEventID,
				Requester: model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
				Kind:      model.KindReserva,
				Status:    model.ReservaConfirmada,
			}, nil
		},
	}
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return publicEvent(), nil
		},
	}
	svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

	reservation, err := svc.Cancel(context.Background(), "user-1", testReservationID)
	if err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	if reservation.Status != model.ReservaCancelada {
		t.Errorf("expected cancelada, got %s", reservation.Status)
	}
}

func TestTransitions_TerminalStatesRejectChanges(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"rejeitada is terminal", model.ReservaRejeitada},
		{"cancelada is terminal", model.ReservaCancelada},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockReservationRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
					return &model.Reservation{
						ID:        testReservationID,
						EventID:   testEventID,
						Requester: model.Requester{Kind: model.RequesterUsuario, UserID: "user-1"},
						Kind:      model.KindReserva,
						Status:    tt.status,
					}, nil
				},
			}
			mockEvents := &mockEventRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
					return publicEvent(), nil
				},
			}
			svc := newTestService(mockRepo, &mockCounterRepository{}, mockEvents)

			_, err := svc.Confirm(context.Background(), testAdvertiserID, testReservationID)
			if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
				t.Fatalf("expected INVALID_STATE error, got %v", err)
			}
		})
	}
}

func TestCreate_PrivateEventHiddenFromVisitors(t *testing.T) {
	private := publicEvent()
	private.Privacy = model.PrivacyPrivado
	mockEvents := &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return private, nil
		},
	}
	svc := newTestService(&mockReservationRepository{}, &mockCounterRepository{}, mockEvents)

	_, err := svc.Create(context.Background(), "", &CreateReservationInput{
		EventID: testEventID,
		Kind:    model.KindReserva,
		Name:    "Maria",
		Email:   "maria@example.com",
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND error, got %v", err)
	}
}
