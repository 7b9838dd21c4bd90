package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vitrii/internal/notify"
	paymentserrors "vitrii/internal/payments/errors"
	"vitrii/internal/payments/pix"
	"vitrii/internal/payments/repository"
	"vitrii/pkg/config"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/model"

	"github.com/google/uuid"
)

const (
	merchantName = "Vitrii"
	merchantCity = "SAO PAULO"
)

// CreatePaymentInput is the request body of a new Pix charge for publishing
// an ad.
type CreatePaymentInput struct {
	AdID   string `json:"anuncioId"`
	Amount int64  `json:"valorCentavos"`
}

type PaymentService interface {
	Create(ctx context.Context, callerID string, input *CreatePaymentInput) (*model.Payment, error)
	ListByAd(ctx context.Context, adID string) ([]*model.Payment, error)
	Cancel(ctx context.Context, callerID string, id string) (*model.Payment, error)
	Confirm(ctx context.Context, isAdmin bool, id string) (*model.Payment, error)
	Process(ctx context.Context, id string) (*model.Payment, error)
}

type paymentService struct {
	repo     repository.PaymentRepository
	notifier notify.Notifier
	cfg      *config.Config
	now      func() time.Time
}

func NewPaymentService(
	repo repository.PaymentRepository,
	notifier notify.Notifier,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *paymentService) Create(ctx context.Context, callerID string, input *CreatePaymentInput) (*model.Payment, error) {
	if callerID == "" {
		return nil, apperrors.Unauthorized("autenticação necessária para criar pagamentos")
	}
	if input.AdID == "" {
		return nil, apperrors.InvalidInput("anuncioId não pode ser vazio")
	}
	if input.Amount < 1 {
		return nil, apperrors.Validation("valorCentavos deve ser positivo", map[string]any{
			"valorCentavos": input.Amount,
		})
	}

	now := s.now().UTC()

	existing, err := s.repo.FindByAd(ctx, input.AdID)
	if err != nil {
		s.cfg.Log.Error("Failed to check pagamentos of anuncio", "anuncio_id", input.AdID, "error", err)
		return nil, apperrors.Internal("Falha ao verificar pagamentos do anúncio", err)
	}
	for _, p := range existing {
		// One live charge per ad. Expired and terminal charges don't count.
		if st := p.EffectiveStatus(now); st == model.PagamentoPendente || st == model.PagamentoProcessando {
			return nil, apperrors.Conflict("já existe um pagamento ativo para este anúncio")
		}
	}

	txid := pix.NewTxID()
	payment := &model.Payment{
		ID:        uuid.NewString(),
		AdID:      input.AdID,
		Amount:    input.Amount,
		Status:    model.PagamentoPendente,
		PixTxID:   txid,
		PixCode:   pix.BuildBRCode(s.cfg.PixKey, merchantName, merchantCity, input.Amount, txid),
		ExpiresAt: now.Add(s.cfg.PaymentExpiry).Truncate(time.Millisecond),
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		s.cfg.Log.Error("Failed to create pagamento", "anuncio_id", input.AdID, "error", err)
		return nil, apperrors.Internal("Falha ao criar pagamento", err)
	}

	s.cfg.Log.Info("Pagamento created successfully",
		"id", payment.ID,
		"anuncio_id", payment.AdID,
		"valor_centavos", payment.Amount,
		"expira_em", payment.ExpiresAt,
	)
	return payment, nil
}

// ListByAd returns the charges of an ad with the lazily derived status: rows
// stored as pendente/processando past their expiration read as expirado.
func (s *paymentService) ListByAd(ctx context.Context, adID string) ([]*model.Payment, error) {
	if adID == "" {
		return nil, apperrors.InvalidInput("anuncioId não pode ser vazio")
	}

	payments, err := s.repo.FindByAd(ctx, adID)
	if err != nil {
		s.cfg.Log.Error("Failed to list pagamentos", "anuncio_id", adID, "error", err)
		return nil, apperrors.Internal("Falha ao listar pagamentos", err)
	}
	if len(payments) == 0 {
		return nil, apperrors.NotFoundWithID("Pagamento do anúncio", adID)
	}

	now := s.now().UTC()
	for _, p := range payments {
		p.Status = p.EffectiveStatus(now)
	}

	return payments, nil
}

func (s *paymentService) Cancel(ctx context.Context, callerID string, id string) (*model.Payment, error) {
	if callerID == "" {
		return nil, apperrors.Unauthorized("autenticação necessária")
	}

	payment, err := s.findPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if !payment.Cancelable(now) {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("pagamento %s não pode ser cancelado", payment.EffectiveStatus(now)),
			map[string]any{"status": payment.EffectiveStatus(now)},
		)
	}

	if err := s.updateStatus(ctx, id, model.PagamentoCancelado, nil); err != nil {
		return nil, err
	}

	payment.Status = model.PagamentoCancelado
	s.cfg.Log.Info("Pagamento canceled", "id", id)
	return payment, nil
}

// Confirm settles a charge manually. Admin-only: the operator reconciles the
// bank statement and confirms even charges whose QR already expired.
func (s *paymentService) Confirm(ctx context.Context, isAdmin bool, id string) (*model.Payment, error) {
	if !isAdmin {
		return nil, apperrors.Forbidden("apenas administradores podem confirmar pagamentos")
	}

	payment, err := s.findPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !payment.Confirmable() {
		return nil, apperrors.InvalidState(
			"pagamento já está pago",
			map[string]any{"status": payment.Status},
		)
	}

	paidAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.updateStatus(ctx, id, model.PagamentoPago, &paidAt); err != nil {
		return nil, err
	}

	payment.Status = model.PagamentoPago
	payment.PaidAt = &paidAt

	s.cfg.Log.Info("Pagamento confirmed", "id", id, "anuncio_id", payment.AdID)
	s.notifier.Publish(ctx, notify.EventPagamentoPago, payment.ID, payment)
	return payment, nil
}

// Process moves a fresh charge to processando when the PSP signals the payer
// scanned the code. Only an unexpired pendente charge qualifies.
func (s *paymentService) Process(ctx context.Context, id string) (*model.Payment, error) {
	payment, err := s.findPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if payment.EffectiveStatus(now) != model.PagamentoPendente {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("pagamento %s não pode entrar em processamento", payment.EffectiveStatus(now)),
			map[string]any{"status": payment.EffectiveStatus(now)},
		)
	}

	if err := s.updateStatus(ctx, id, model.PagamentoProcessando, nil); err != nil {
		return nil, err
	}

	payment.Status = model.PagamentoProcessando
	s.cfg.Log.Info("Pagamento processing", "id", id)
	return payment, nil
}

func (s *paymentService) findPayment(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("ID do pagamento não pode ser vazio")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Pagamento", id)
		}
		return nil, apperrors.Internal("Falha ao buscar pagamento", err)
	}

	return payment, nil
}

func (s *paymentService) updateStatus(ctx context.Context, id string, status string, paidAt *time.Time) error {
	if err := s.repo.UpdateStatus(ctx, id, status, paidAt); err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Pagamento", id)
		}
		s.cfg.Log.Error("Failed to update pagamento status", "id", id, "destino", status, "error", err)
		return apperrors.Internal("Falha ao atualizar status do pagamento", err)
	}
	return nil
}
