package model

import "time"

const (
	FilaPendente  = "pendente"
	FilaAprovada  = "aprovada"
	FilaRejeitada = "rejeitada"
	FilaCancelada = "cancelada"
)

// WaitlistRequest ("fila de espera") asks an advertiser for a brand-new
// timeslot when no existing Event fits. Approval materializes a private Event
// from the requested bounds; all three non-pendente states are terminal.
type WaitlistRequest struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AdvertiserID    string    `json:"anuncianteId" bson:"anunciante_id" validate:"required"`
	Title           string    `json:"titulo" bson:"titulo" validate:"required,min=2,max=100"`
	Description     string    `json:"descricao,omitempty" bson:"descricao,omitempty" validate:"omitempty,max=1000"`
	StartTime       time.Time `json:"inicio" bson:"inicio" validate:"required"`
	EndTime         time.Time `json:"fim" bson:"fim" validate:"required,gtfield=StartTime"`
	Requester       Requester `json:"solicitante" bson:"solicitante" validate:"required"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pendente aprovada rejeitada cancelada"`
	RejectionReason string    `json:"motivoRejeicao,omitempty" bson:"motivo_rejeicao,omitempty"`
	SuggestedDate   string    `json:"dataSugestao,omitempty" bson:"data_sugestao,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SuggestedTime   string    `json:"horaSugestao,omitempty" bson:"hora_sugestao,omitempty" validate:"omitempty,datetime=15:04"`
	EventID         string    `json:"eventoId,omitempty" bson:"evento_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt       time.Time `json:"criadoEm" bson:"criado_em" validate:"omitempty"`
}

func (w *WaitlistRequest) IsPendente() bool {
	return w.Status == FilaPendente
}

// ToEvent builds the private Event an approval materializes: title and time
// bounds copied, owned by the target advertiser, linked back to the request.
func (w *WaitlistRequest) ToEvent(color string) *Event {
	return &Event{
		AdvertiserID:      w.AdvertiserID,
		Title:             w.Title,
		Description:       w.Description,
		StartTime:         w.StartTime,
		EndTime:           w.EndTime,
		Privacy:           PrivacyPrivado,
		Color:             color,
		WaitlistRequestID: w.ID,
	}
}
