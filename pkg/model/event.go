package model

import "time"

const (
	PrivacyPublico         = "publico"
	PrivacyPrivadoUsuarios = "privado_usuarios"
	PrivacyPrivado         = "privado"
)

// Event is a bookable calendar entry owned by an advertiser's agenda.
type Event struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AdvertiserID      string    `json:"anuncianteId" bson:"anunciante_id" validate:"required"`
	Title             string    `json:"titulo" bson:"titulo" validate:"required,min=2,max=100"`
	Description       string    `json:"descricao,omitempty" bson:"descricao,omitempty" validate:"omitempty,max=1000"`
	StartTime         time.Time `json:"inicio" bson:"inicio" validate:"required"`
	EndTime           time.Time `json:"fim" bson:"fim" validate:"required,gtfield=StartTime"`
	Privacy           string    `json:"privacidade" bson:"privacidade" validate:"required,oneof=publico privado_usuarios privado"`
	Color             string    `json:"cor" bson:"cor" validate:"required,hexcolor"`
	WaitlistRequestID string    `json:"filaEsperaId,omitempty" bson:"fila_espera_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt         time.Time `json:"criadoEm" bson:"criado_em" validate:"omitempty"`
}

type EventUpdate struct {
	Title       string     `json:"titulo,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string    `json:"descricao,omitempty" validate:"omitempty,max=1000"`
	StartTime   *time.Time `json:"inicio,omitempty" validate:"omitempty"`
	EndTime     *time.Time `json:"fim,omitempty" validate:"omitempty"`
	Privacy     string     `json:"privacidade,omitempty" validate:"omitempty,oneof=publico privado_usuarios privado"`
	Color       string     `json:"cor,omitempty" validate:"omitempty,hexcolor"`
}

// OwnedBy reports whether the given caller is the owning advertiser.
func (e *Event) OwnedBy(callerID string) bool {
	return callerID != "" && e.AdvertiserID == callerID
}
