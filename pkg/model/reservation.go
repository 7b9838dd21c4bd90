package model

import "time"

const (
	KindReserva     = "reserva"
	KindListaEspera = "lista_espera"
)

const (
	ReservaPendente   = "pendente"
	ReservaConfirmada = "confirmada"
	ReservaRejeitada  = "rejeitada"
	ReservaCancelada  = "cancelada"
)

// Reservation is a request to occupy an Event, either a direct booking
// ("reserva") or a waitlist entry ("lista_espera") carrying a position.
//
// Status moves only along:
//
//	pendente -> confirmada | rejeitada | cancelada
//	confirmada -> cancelada
//
// confirmada/rejeitada are advertiser-driven; cancelamento is open to the
// requester as well. rejeitada and cancelada are terminal.
type Reservation struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID         string    `json:"eventoId" bson:"evento_id" validate:"required,mongodb"`
	Requester       Requester `json:"solicitante" bson:"solicitante" validate:"required"`
	Kind            string    `json:"tipo" bson:"tipo" validate:"required,oneof=reserva lista_espera"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pendente confirmada rejeitada cancelada"`
	Position        int       `json:"posicao,omitempty" bson:"posicao,omitempty" validate:"omitempty,min=1"`
	RejectionReason string    `json:"motivoRejeicao,omitempty" bson:"motivo_rejeicao,omitempty"`
	CreatedAt       time.Time `json:"criadoEm" bson:"criado_em" validate:"omitempty"`
}

var reservaTransitions = map[string][]string{
	ReservaPendente:   {ReservaConfirmada, ReservaRejeitada, ReservaCancelada},
	ReservaConfirmada: {ReservaCancelada},
}

// CanTransitionTo reports whether moving to the target status is a declared
// edge. Illegal moves surface as INVALID_STATE and leave the row unchanged.
func (r *Reservation) CanTransitionTo(target string) bool {
	for _, next := range reservaTransitions[r.Status] {
		if next == target {
			return true
		}
	}
	return false
}

func (r *Reservation) IsWaitlist() bool {
	return r.Kind == KindListaEspera
}
