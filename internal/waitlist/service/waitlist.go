package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventsrepo "vitrii/internal/events/repository"
	"vitrii/internal/notify"
	waitlisterrors "vitrii/internal/waitlist/errors"
	"vitrii/internal/waitlist/repository"
	"vitrii/internal/waitlist/validator"
	"vitrii/pkg/config"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/model"
	"vitrii/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// CreateWaitlistInput is the flat request body of a waitlist submission:
// the advertiser being asked, the desired timeslot and the requester contact
// for anonymous visitors.
type CreateWaitlistInput struct {
	AdvertiserID string    `json:"anuncianteId"`
	Title        string    `json:"titulo"`
	Description  string    `json:"descricao"`
	StartTime    time.Time `json:"inicio"`
	EndTime      time.Time `json:"fim"`
	Name         string    `json:"nomeSolicitante"`
	Email        string    `json:"emailSolicitante"`
	Phone        string    `json:"telefoneSolicitante"`
}

// RejectWaitlistInput carries the mandatory reason plus optional alternative
// slot suggestions the advertiser can offer back.
type RejectWaitlistInput struct {
	Reason        string `json:"motivo"`
	SuggestedDate string `json:"dataSugestao"`
	SuggestedTime string `json:"horaSugestao"`
}

type WaitlistService interface {
	Submit(ctx context.Context, callerID string, input *CreateWaitlistInput) (*model.WaitlistRequest, error)
	GetByID(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error)
	ListForAdvertiser(ctx context.Context, callerID string, status string) ([]*model.WaitlistRequest, error)
	Approve(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error)
	Reject(ctx context.Context, callerID string, id string, input *RejectWaitlistInput) (*model.WaitlistRequest, error)
	Cancel(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error)
}

type waitlistService struct {
	repo      repository.WaitlistRepository
	events    eventsrepo.EventRepository
	validator *validator.WaitlistValidator
	notifier  notify.Notifier
	cfg       *config.Config
}

func NewWaitlistService(
	repo repository.WaitlistRepository,
	events eventsrepo.EventRepository,
	validator *validator.WaitlistValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) WaitlistService {
	return &waitlistService{
		repo:      repo,
		events:    events,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *waitlistService) Submit(ctx context.Context, callerID string, input *CreateWaitlistInput) (*model.WaitlistRequest, error) {
	if input.AdvertiserID == "" {
		return nil, apperrors.InvalidInput("anuncianteId não pode ser vazio")
	}

	requester, err := model.NewRequester(callerID, input.Name, input.Email, input.Phone)
	if err != nil {
		return nil, err
	}

	request := &model.WaitlistRequest{
		AdvertiserID: input.AdvertiserID,
		Title:        sanitizer.NormalizeTitle(input.Title),
		Description:  sanitizer.NormalizeDescription(input.Description),
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Requester:    requester,
		Status:       model.FilaPendente,
	}

	if err := s.validate(request); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, request); err != nil {
		s.cfg.Log.Error("Failed to create fila de espera", "anunciante_id", input.AdvertiserID, "error", err)
		return nil, apperrors.Internal("Falha ao criar solicitação de fila de espera", err)
	}

	s.cfg.Log.Info("Fila de espera created successfully",
		"id", request.ID,
		"anunciante_id", request.AdvertiserID,
		"inicio", request.StartTime,
	)
	return request, nil
}

func (s *waitlistService) GetByID(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error) {
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.AdvertiserID != callerID && !request.Requester.Matches(callerID) {
		return nil, apperrors.Forbidden("apenas o solicitante ou o anunciante podem ver esta solicitação")
	}

	return request, nil
}

func (s *waitlistService) ListForAdvertiser(ctx context.Context, callerID string, status string) ([]*model.WaitlistRequest, error) {
	if callerID == "" {
		return nil, apperrors.Unauthorized("autenticação necessária")
	}
	if status != "" && !validStatusFilter(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("status de filtro inválido: %s", status))
	}

	requests, err := s.repo.FindByAdvertiser(ctx, callerID, status)
	if err != nil {
		s.cfg.Log.Error("Failed to list filas de espera", "anunciante_id", callerID, "error", err)
		return nil, apperrors.Internal("Falha ao listar filas de espera", err)
	}

	return requests, nil
}

// Approve materializes the requested slot as a private Event and marks the
// request aprovada. Both writes commit in one transaction so a half-approved
// request can never exist.
func (s *waitlistService) Approve(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error) {
	request, err := s.pendingOwnedBy(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	event := request.ToEvent(s.cfg.DefaultEventColor)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.events.Create(sessCtx, event); err != nil {
			return apperrors.Internal("Falha ao criar evento da aprovação", err)
		}
		if err := s.repo.MarkApproved(sessCtx, id, event.ID); err != nil {
			return apperrors.Internal("Falha ao aprovar fila de espera", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to approve fila de espera", "id", id, "error", err)
		return nil, err
	}

	request.Status = model.FilaAprovada
	request.EventID = event.ID

	s.cfg.Log.Info("Fila de espera approved", "id", id, "evento_id", event.ID)
	s.notifier.Publish(ctx, notify.EventFilaAprovada, request.ID, request)
	return request, nil
}

func (s *waitlistService) Reject(ctx context.Context, callerID string, id string, input *RejectWaitlistInput) (*model.WaitlistRequest, error) {
	if input.Reason == "" {
		return nil, apperrors.Validation("motivo é obrigatório para rejeitar uma solicitação", map[string]any{
			"motivo": "obrigatório",
		})
	}

	request, err := s.pendingOwnedBy(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkRejected(ctx, id, input.Reason, input.SuggestedDate, input.SuggestedTime); err != nil {
		s.cfg.Log.Error("Failed to reject fila de espera", "id", id, "error", err)
		return nil, apperrors.Internal("Falha ao rejeitar fila de espera", err)
	}

	request.Status = model.FilaRejeitada
	request.RejectionReason = input.Reason
	request.SuggestedDate = input.SuggestedDate
	request.SuggestedTime = input.SuggestedTime

	s.cfg.Log.Info("Fila de espera rejected", "id", id)
	s.notifier.Publish(ctx, notify.EventFilaRejeitada, request.ID, request)
	return request, nil
}

func (s *waitlistService) Cancel(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error) {
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.AdvertiserID != callerID && !request.Requester.Matches(callerID) {
		return nil, apperrors.Forbidden("você não tem permissão para cancelar esta solicitação")
	}
	if !request.IsPendente() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("solicitação %s não pode ser cancelada", request.Status),
			map[string]any{"status": request.Status},
		)
	}

	if err := s.repo.MarkCanceled(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to cancel fila de espera", "id", id, "error", err)
		return nil, apperrors.Internal("Falha ao cancelar fila de espera", err)
	}

	request.Status = model.FilaCancelada

	s.cfg.Log.Info("Fila de espera canceled", "id", id)
	return request, nil
}

// --- Helpers ---

func (s *waitlistService) pendingOwnedBy(ctx context.Context, callerID string, id string) (*model.WaitlistRequest, error) {
	request, err := s.findRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.AdvertiserID != callerID {
		return nil, apperrors.Forbidden("apenas o anunciante alvo pode decidir esta solicitação")
	}
	if !request.IsPendente() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("solicitação %s não pode ser decidida novamente", request.Status),
			map[string]any{"status": request.Status},
		)
	}

	return request, nil
}

func (s *waitlistService) findRequest(ctx context.Context, id string) (*model.WaitlistRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("ID da solicitação não pode ser vazio")
	}

	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, waitlisterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Fila de espera", id)
		}
		if errors.Is(err, waitlisterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Formato de ID de solicitação inválido")
		}
		return nil, apperrors.Internal("Falha ao buscar solicitação", err)
	}

	return request, nil
}

func validStatusFilter(status string) bool {
	switch status {
	case model.FilaPendente, model.FilaAprovada, model.FilaRejeitada, model.FilaCancelada:
		return true
	}
	return false
}

func (s *waitlistService) validate(request *model.WaitlistRequest) error {
	if err := s.validator.Validate(request); err != nil {
		s.cfg.Log.Warn("Fila de espera validation failed", "error", err)
		return apperrors.Validation("Dados da solicitação inválidos", map[string]any{"error": err.Error()})
	}
	return nil
}
