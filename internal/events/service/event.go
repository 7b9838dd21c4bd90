package service

import (
	"context"
	"errors"
	"sync"

	eventserrors "vitrii/internal/events/errors"
	"vitrii/internal/events/repository"
	"vitrii/internal/events/validator"
	"vitrii/pkg/config"
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/model"
	"vitrii/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReservationPurger cascades event deletion into the reservations collection.
// Implemented by the reservations repository.
type ReservationPurger interface {
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
	DeleteByEvents(ctx context.Context, eventIDs []string) (int64, error)
}

type EventService interface {
	Create(ctx context.Context, callerID string, event *model.Event) error
	GetByID(ctx context.Context, callerID string, id string) (*model.Event, error)
	ListByAdvertiser(ctx context.Context, callerID string, limit int, offset int64) ([]*model.Event, int64, error)
	Update(ctx context.Context, callerID string, id string, updates *model.EventUpdate) (*model.Event, error)
	Delete(ctx context.Context, callerID string, id string) error
	DeleteAgenda(ctx context.Context, callerID string) (int64, error)
}

type eventService struct {
	repo      repository.EventRepository
	purger    ReservationPurger
	validator *validator.EventValidator
	cfg       *config.Config
}

func NewEventService(
	repo repository.EventRepository,
	purger ReservationPurger,
	validator *validator.EventValidator,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		purger:    purger,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *eventService) Create(ctx context.Context, callerID string, event *model.Event) error {
	if callerID == "" {
		return apperrors.Unauthorized("autenticação necessária para criar eventos")
	}

	event.AdvertiserID = callerID
	s.applyDefaults(event)
	s.sanitize(event)
	if err := s.validate(event); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to create evento", "error", err)
		return apperrors.Internal("Falha ao criar evento", err)
	}

	s.cfg.Log.Info("Evento created successfully",
		"id", event.ID,
		"anunciante_id", event.AdvertiserID,
		"inicio", event.StartTime,
	)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, callerID string, id string) (*model.Event, error) {
	event, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.visibleTo(event, callerID) {
		// Privacy-hidden events read as absent, not forbidden.
		return nil, apperrors.NotFoundWithID("Evento", id)
	}

	return event, nil
}

func (s *eventService) ListByAdvertiser(ctx context.Context, callerID string, limit int, offset int64) ([]*model.Event, int64, error) {
	if callerID == "" {
		return nil, 0, apperrors.Unauthorized("autenticação necessária")
	}

	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByAdvertiser(ctx, callerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count eventos", "anunciante_id", callerID, "error", errCount)
			errCount = apperrors.Internal("Falha ao contar eventos", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		events, errFind = s.repo.FindByAdvertiser(ctx, callerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list eventos", "anunciante_id", callerID, "error", errFind)
			errFind = apperrors.Internal("Falha ao listar eventos", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return events, count, nil
}

func (s *eventService) Update(ctx context.Context, callerID string, id string, updates *model.EventUpdate) (*model.Event, error) {
	existing, err := s.findEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.OwnedBy(callerID) {
		return nil, apperrors.Forbidden("apenas o anunciante dono do evento pode alterá-lo")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Evento update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Dados de atualização inválidos", map[string]any{"error": err.Error()})
	}

	merged := s.mergeEventUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Evento", id)
		}
		s.cfg.Log.Error("Failed to update evento", "id", id, "error", err)
		return nil, apperrors.Internal("Falha ao atualizar evento", err)
	}

	s.cfg.Log.Info("Evento updated successfully", "id", id)
	return merged, nil
}

func (s *eventService) Delete(ctx context.Context, callerID string, id string) error {
	existing, err := s.findEvent(ctx, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(callerID) {
		return apperrors.Forbidden("apenas o anunciante dono do evento pode excluí-lo")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, eventserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Evento", id)
			}
			return apperrors.Internal("Falha ao excluir evento", err)
		}
		if _, err := s.purger.DeleteByEvent(sessCtx, id); err != nil {
			return apperrors.Internal("Falha ao excluir reservas do evento", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete evento", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Evento deleted successfully", "id", id, "anunciante_id", callerID)
	return nil
}

// DeleteAgenda removes every event owned by the caller plus their
// reservations. Destructive and irreversible; the UI asks for explicit
// confirmation before calling it.
func (s *eventService) DeleteAgenda(ctx context.Context, callerID string) (int64, error) {
	if callerID == "" {
		return 0, apperrors.Unauthorized("autenticação necessária")
	}

	var deleted int64
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		ids, err := s.repo.DeleteByAdvertiser(sessCtx, callerID)
		if err != nil {
			return apperrors.Internal("Falha ao excluir agenda", err)
		}
		deleted = int64(len(ids))
		if len(ids) == 0 {
			return nil
		}
		if _, err := s.purger.DeleteByEvents(sessCtx, ids); err != nil {
			return apperrors.Internal("Falha ao excluir reservas da agenda", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete agenda", "anunciante_id", callerID, "error", err)
		return 0, err
	}

	s.cfg.Log.Info("Agenda deleted successfully", "anunciante_id", callerID, "eventos_removidos", deleted)
	return deleted, nil
}

// --- Helpers ---

func (s *eventService) findEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("ID do evento não pode ser vazio")
	}

	event, err := s.repo.FindByID(ctx, id)
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

func (s *eventService) visibleTo(event *model.Event, callerID string) bool {
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

func (s *eventService) applyDefaults(e *model.Event) {
	if e.Privacy == "" {
		e.Privacy = model.PrivacyPublico
	}
	if e.Color == "" {
		e.Color = s.cfg.DefaultEventColor
	}
}

func (s *eventService) sanitize(e *model.Event) {
	e.Title = sanitizer.NormalizeTitle(e.Title)
	e.Description = sanitizer.NormalizeDescription(e.Description)
}

func (s *eventService) mergeEventUpdates(existing *model.Event, updates *model.EventUpdate) *model.Event {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}
	if updates.Privacy != "" {
		merged.Privacy = updates.Privacy
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}

	return &merged
}

func (s *eventService) validate(event *model.Event) error {
	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Evento validation failed", "error", err)
		return apperrors.Validation("Dados do evento inválidos", map[string]any{"error": err.Error()})
	}
	return nil
}
