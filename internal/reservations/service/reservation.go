package service

import (
	"context"
	"errors"
	"fmt"

	eventserrors "vitrii/internal/events/errors"
	eventsrepo "vitrii/internal/events/repository"
	"vitrii/internal/notify"
	reservationserrors "vitrii/internal/reservations/errors"
	"vitrii/internal/reservations/repository"
	"vitrii/internal/reservations/validator"
	"vitrii/pkg/config"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// CreateReservationInput is the flat request body of a reservation or waitlist
// join. Contact fields matter only for anonymous visitors; authenticated
// callers are identified by their header identity.
type CreateReservationInput struct {
	EventID string `json:"eventoId"`
	Kind    string `json:"tipo"`
	Name    string `json:"nomeSolicitante"`
	Email   string `json:"emailSolicitante"`
	Phone   string `json:"telefoneSolicitante"`
}

type ReservationService interface {
	Create(ctx context.Context, callerID string, input *CreateReservationInput) (*model.Reservation, error)
	GetByID(ctx context.Context, callerID string, id string) (*model.Reservation, error)
	ListForEvent(ctx context.Context, callerID string, eventID string) ([]*model.Reservation, error)
	Confirm(ctx context.Context, callerID string, id string) (*model.Reservation, error)
	Reject(ctx context.Context, callerID string, id string, reason string) (*model.Reservation, error)
	Cancel(ctx context.Context, callerID string, id string) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	counters  repository.PositionCounterRepository
	events    eventsrepo.EventRepository
	validator *validator.ReservationValidator
	notifier  notify.Notifier
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	counters repository.PositionCounterRepository,
	events eventsrepo.EventRepository,
	validator *validator.ReservationValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		counters:  counters,
		events:    events,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, callerID string, input *CreateReservationInput) (*model.Reservation, error) {
	event, err := s.findEvent(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if !s.eventVisibleTo(event, callerID) {
		return nil, apperrors.NotFoundWithID("Evento", input.EventID)
	}

	requester, err := model.NewRequester(callerID, input.Name, input.Email, input.Phone)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		EventID:   event.ID,
		Requester: requester,
		Kind:      input.Kind,
		Status:    model.ReservaPendente,
	}

	if reservation.IsWaitlist() {
		// Position allocation and insert commit together so an insert
		// failure never burns a position.
		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			position, err := s.counters.Next(sessCtx, event.ID)
			if err != nil {
				return apperrors.Internal("Falha ao alocar posição na lista de espera", err)
			}
			reservation.Position = position

			if err := s.validate(reservation); err != nil {
				return err
			}
			if err := s.repo.Create(sessCtx, reservation); err != nil {
				return apperrors.Internal("Falha ao criar reserva", err)
			}
			return nil
		})
	} else {
		if err = s.validate(reservation); err != nil {
			return nil, err
		}
		if err = s.repo.Create(ctx, reservation); err != nil {
			err = apperrors.Internal("Falha ao criar reserva", err)
		}
	}
	if err != nil {
		s.cfg.Log.Error("Failed to create reserva", "evento_id", event.ID, "tipo", input.Kind, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reserva created successfully",
		"id", reservation.ID,
		"evento_id", event.ID,
		"tipo", reservation.Kind,
		"posicao", reservation.Position,
	)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, callerID string, id string) (*model.Reservation, error) {
	reservation, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	if !reservation.Requester.Matches(callerID) {
		event, err := s.findEvent(ctx, reservation.EventID)
		if err != nil {
			return nil, err
		}
		if !event.OwnedBy(callerID) {
			return nil, apperrors.Forbidden("apenas o solicitante ou o anunciante podem ver esta reserva")
		}
	}

	return reservation, nil
}

func (s *reservationService) ListForEvent(ctx context.Context, callerID string, eventID string) ([]*model.Reservation, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.OwnedBy(callerID) {
		return nil, apperrors.Forbidden("apenas o anunciante dono do evento pode listar suas reservas")
	}

	reservations, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservas", "evento_id", eventID, "error", err)
		return nil, apperrors.Internal("Falha ao listar reservas", err)
	}

	return reservations, nil
}

func (s *reservationService) Confirm(ctx context.Context, callerID string, id string) (*model.Reservation, error) {
	reservation, err := s.transition(ctx, callerID, id, model.ReservaConfirmada, "", ownerOnly)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.EventReservaConfirmada, reservation.ID, reservation)
	return reservation, nil
}

func (s *reservationService) Reject(ctx context.Context, callerID string, id string, reason string) (*model.Reservation, error) {
	if reason == "" {
		return nil, apperrors.Validation("motivo é obrigatório para rejeitar uma reserva", map[string]any{
			"motivo": "obrigatório",
		})
	}

	reservation, err := s.transition(ctx, callerID, id, model.ReservaRejeitada, reason, ownerOnly)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.EventReservaRejeitada, reservation.ID, reservation)
	return reservation, nil
}

func (s *reservationService) Cancel(ctx context.Context, callerID string, id string) (*model.Reservation, error) {
	reservation, err := s.transition(ctx, callerID, id, model.ReservaCancelada, "", ownerOrRequester)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, notify.EventReservaCancelada, reservation.ID, reservation)
	return reservation, nil
}

type actorRule int

const (
	ownerOnly actorRule = iota
	ownerOrRequester
)

func (s *reservationService) transition(ctx context.Context, callerID string, id string, target string, reason string, rule actorRule) (*model.Reservation, error) {
	reservation, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := s.findEvent(ctx, reservation.EventID)
	if err != nil {
		return nil, err
	}

	allowed := event.OwnedBy(callerID)
	if rule == ownerOrRequester {
		allowed = allowed || reservation.Requester.Matches(callerID)
	}
	if !allowed {
		return nil, apperrors.Forbidden("você não tem permissão para alterar esta reserva")
	}

	if !reservation.CanTransitionTo(target) {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("reserva %s não pode mudar para %s", reservation.Status, target),
			map[string]any{"status": reservation.Status, "destino": target},
		)
	}

	if err := s.repo.UpdateStatus(ctx, id, target, reason); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reserva", id)
		}
		s.cfg.Log.Error("Failed to update reserva status", "id", id, "destino", target, "error", err)
		return nil, apperrors.Internal("Falha ao atualizar status da reserva", err)
	}

	reservation.Status = target
	if reason != "" {
		reservation.RejectionReason = reason
	}

	s.cfg.Log.Info("Reserva status updated", "id", id, "status", target)
	return reservation, nil
}

func (s *reservationService) findReservation(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("ID da reserva não pode ser vazio")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reserva", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Formato de ID de reserva inválido")
		}
		return nil, apperrors.Internal("Falha ao buscar reserva", err)
	}

	return reservation, nil
}

func (s *reservationService) findEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("eventoId não pode ser vazio")
	}

	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Evento", id)
		}
		if errors.Is(err, eventserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Formato de ID de evento inválido")
		}
		return nil, apperrors.Internal("Falha ao buscar evento", err)
	}

	return event, nil
}

func (s *reservationService) eventVisibleTo(event *model.Event, callerID string) bool {
	if event.OwnedBy(callerID) {
		return true
	}
	switch event.Privacy {
	case model.PrivacyPublico:
		return true
	case model.PrivacyPrivadoUsuarios:
		return callerID != ""
	}
	return false
}

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reserva validation failed", "error", err)
		return apperrors.Validation("Dados da reserva inválidos", map[string]any{"error": err.Error()})
	}
	return nil
}
