package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"vitrii/internal/notify"
	"vitrii/pkg/config"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/logger"
	"vitrii/pkg/model"
)

const testAdID = "anuncio-1"

type mockPaymentRepository struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.Payment, error)
	findByAdFunc     func(ctx context.Context, adID string) ([]*model.Payment, error)
	updateStatusFunc func(ctx context.Context, id string, status string, paidAt *time.Time) error
	created          *model.Payment
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	m.created = payment
	return nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockPaymentRepository) FindByAd(ctx context.Context, adID string) ([]*model.Payment, error) {
	if m.findByAdFunc != nil {
		return m.findByAdFunc(ctx, adID)
	}
	return []*model.Payment{}, nil
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id string, status string, paidAt *time.Time) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, paidAt)
	}
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:           log,
		PaymentExpiry: 30 * time.Minute,
		PixKey:        "pagamentos@vitrii.com.br",
	}
}

func newTestService(repo *mockPaymentRepository) *paymentService {
	return NewPaymentService(repo, notify.NewNopNotifier(), testConfig()).(*paymentService)
}

func TestCreate_GeneratesPixCharge(t *testing.T) {
	mockRepo := &mockPaymentRepository{}
	svc := newTestService(mockRepo)

	payment, err := svc.Create(context.Background(), "user-1", &CreatePaymentInput{
		AdID:   testAdID,
		Amount: 4990,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if payment.Status != model.PagamentoPendente {
		t.Errorf("expected pendente, got %s", payment.Status)
	}
	if payment.ID == "" || payment.PixTxID == "" {
		t.Error("id and txid must be generated")
	}
	if len(payment.PixTxID) > 25 {
		t.Errorf("txid exceeds 25 chars: %d", len(payment.PixTxID))
	}
	if !strings.Contains(payment.PixCode, "br.gov.bcb.pix") {
		t.Errorf("copia e cola missing Pix GUI: %s", payment.PixCode)
	}
	if !strings.Contains(payment.PixCode, "49.90") {
		t.Errorf("copia e cola missing amount: %s", payment.PixCode)
	}
	if remaining := time.Until(payment.ExpiresAt); remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expiration not ~30min out: %v", remaining)
	}
}

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(&mockPaymentRepository{})

	_, err := svc.Create(context.Background(), "user-1", &CreatePaymentInput{
		AdID:   testAdID,
		Amount: 0,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestCreate_SecondActiveChargeConflicts(t *testing.T) {
	mockRepo := &mockPaymentRepository{
		findByAdFunc: func(ctx context.Context, adID string) ([]*model.Payment, error) {
			return []*model.Payment{
				{ID: "p1", AdID: adID, Status: model.PagamentoPendente, ExpiresAt: time.Now().UTC().Add(10 * time.Minute)},
			}, nil
		},
	}
	svc := newTestService(mockRepo)

	_, err := svc.Create(context.Background(), "user-1", &CreatePaymentInput{
		AdID:   testAdID,
		Amount: 4990,
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT error, got %v", err)
	}
}

func TestCreate_ExpiredChargeDoesNotBlockNewOne(t *testing.T) {
	mockRepo := &mockPaymentRepository{
		findByAdFunc: func(ctx context.Context, adID string) ([]*model.Payment, error) {
			return []*model.Payment{
				{ID: "p1", AdID: adID, Status: model.PagamentoPendente, ExpiresAt: time.Now().UTC().Add(-time.Hour)},
			}, nil
		},
	}
	svc := newTestService(mockRepo)

	if _, err := svc.Create(context.Background(), "user-1", &CreatePaymentInput{
		AdID:   testAdID,
		Amount: 4990,
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
}

func TestListByAd_NoChargesNotFound(t *testing.T) {
	svc := newTestService(&mockPaymentRepository{})

	_, err := svc.ListByAd(context.Background(), testAdID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND error, got %v", err)
	}
}

func TestListByAd_DerivesExpiredStatus(t *testing.T) {
	now := time.Now().UTC()
	mockRepo := &mockPaymentRepository{
		findByAdFunc: func(ctx context.Context, adID string) ([]*model.Payment, error) {
			return []*model.Payment{
				{ID: "p1", AdID: adID, Status: model.PagamentoPendente, ExpiresAt: now.Add(-time.Minute)},
				{ID: "p2", AdID: adID, Status: model.PagamentoProcessando, ExpiresAt: now.Add(-time.Minute)},
				{ID: "p3", AdID: adID, Status: model.PagamentoPendente, ExpiresAt: now.Add(10 * time.Minute)},
				{ID: "p4", AdID: adID, Status: model.PagamentoPago, ExpiresAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	svc := newTestService(mockRepo)

	payments, err := svc.ListByAd(context.Background(), testAdID)
	if err != nil {
		t.Fatalf("ListByAd() failed: %v", err)
	}

	want := map[string]string{
		"p1": model.PagamentoExpirado,
		"p2": model.PagamentoExpirado,
		"p3": model.PagamentoPendente,
		"p4": model.PagamentoPago,
	}
	for _, p := range payments {
		if p.Status != want[p.ID] {
			t.Errorf("%s: expected %s, got %s", p.ID, want[p.ID], p.Status)
		}
	}
}

func TestCancel_ExpiredChargeFails(t *testing.T) {
	mockRepo := &mockPaymentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{
				ID:        id,
				AdID:      testAdID,
				Status:    model.PagamentoPendente,
				ExpiresAt: time.Now().UTC().Add(-time.Minute),
			}, nil
		},
	}
	svc := newTestService(mockRepo)

	_, err := svc.Cancel(context.Background(), "user-1", "p1")
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE error, got %v", err)
	}
}

func TestConfirm_AdminOnly(t *testing.T) {
	svc := newTestService(&mockPaymentRepository{})

	_, err := svc.Confirm(context.Background(), false, "p1")
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN error, got %v", err)
	}
}

func TestConfirm_SettlesExpiredCharge(t *testing.T) {
	// Pix settlements can land after the QR expired; admin confirmation is
	// the source of truth.
	var gotPaidAt *time.Time
	mockRepo := &mockPaymentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{
				ID:        id,
				AdID:      testAdID,
				Status:    model.PagamentoPendente,
				ExpiresAt: time.Now().UTC().Add(-time.Hour),
			}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string, paidAt *time.Time) error {
			gotPaidAt = paidAt
			return nil
		},
	}
	svc := newTestService(mockRepo)

	payment, err := svc.Confirm(context.Background(), true, "p1")
	if err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}
	if payment.Status != model.PagamentoPago {
		t.Errorf("expected pago, got %s", payment.Status)
	}
	if gotPaidAt == nil || payment.PaidAt == nil {
		t.Error("pago_em must be set on confirmation")
	}
}

func TestConfirm_AlreadyPaidFails(t *testing.T) {
	mockRepo := &mockPaymentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{
				ID:     id,
				AdID:   testAdID,
				Status: model.PagamentoPago,
			}, nil
		},
	}
	svc := newTestService(mockRepo)

	_, err := svc.Confirm(context.Background(), true, "p1")
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE error, got %v", err)
	}
}

func TestProcess_OnlyFreshPendente(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		expiresAt time.Time
		wantErr   bool
	}{
		{"fresh pendente", model.PagamentoPendente, time.Now().UTC().Add(10 * time.Minute), false},
		{"expired pendente", model.PagamentoPendente, time.Now().UTC().Add(-time.Minute), true},
		{"already processando", model.PagamentoProcessando, time.Now().UTC().Add(10 * time.Minute), true},
		{"cancelado", model.PagamentoCancelado, time.Now().UTC().Add(10 * time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockPaymentRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Payment, error) {
					return &model.Payment{
						ID:        id,
						AdID:      testAdID,
						Status:    tt.status,
						ExpiresAt: tt.expiresAt,
					}, nil
				},
			}
			svc := newTestService(mockRepo)

			_, err := svc.Process(context.Background(), "p1")
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
					t.Fatalf("expected INVALID_STATE error, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("Process() failed: %v", err)
			}
		})
	}
}
