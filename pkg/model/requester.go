package model

import (
	apperrors "vitrii/pkg/errors"
	"vitrii/pkg/sanitizer"
)

type RequesterKind string

const (
	RequesterUsuario   RequesterKind = "usuario"
	RequesterVisitante RequesterKind = "visitante"
)

// Requester identifies who asked for a reservation or waitlist slot: either an
// authenticated user id or a free-text contact (visitor without an account).
// Exactly one variant is populated; the constructors below are the only way to
// build one, so the mutual-exclusivity check lives in a single place.
type Requester struct {
	Kind   RequesterKind `json:"tipoSolicitante" bson:"tipo_solicitante" validate:"required,oneof=usuario visitante"`
	UserID string        `json:"usuarioId,omitempty" bson:"usuario_id,omitempty"`
	Name   string        `json:"nomeSolicitante,omitempty" bson:"nome_solicitante,omitempty"`
	Email  string        `json:"emailSolicitante,omitempty" bson:"email_solicitante,omitempty"`
	Phone  string        `json:"telefoneSolicitante,omitempty" bson:"telefone_solicitante,omitempty"`
}

func NewUsuarioRequester(userID string) (Requester, error) {
	if userID == "" {
		return Requester{}, apperrors.Validation("usuarioId é obrigatório para solicitante autenticado", nil)
	}
	return Requester{
		Kind:   RequesterUsuario,
		UserID: userID,
	}, nil
}

func NewVisitanteRequester(name, email, phone string) (Requester, error) {
	name = sanitizer.NormalizeName(name)
	email = sanitizer.NormalizeEmail(email)

	details := map[string]any{}
	if name == "" {
		details["nomeSolicitante"] = "obrigatório"
	}
	if email == "" {
		details["emailSolicitante"] = "obrigatório"
	}
	if len(details) > 0 {
		return Requester{}, apperrors.Validation("nome e email são obrigatórios para solicitante sem conta", details)
	}

	return Requester{
		Kind:  RequesterVisitante,
		Name:  name,
		Email: email,
		Phone: sanitizer.NormalizePhone(phone),
	}, nil
}

// NewRequester resolves the variant from a caller identity plus the optional
// contact fields of the request body. An authenticated caller always wins;
// contact fields are only consulted for anonymous visitors.
func NewRequester(callerID, name, email, phone string) (Requester, error) {
	if callerID != "" {
		return NewUsuarioRequester(callerID)
	}
	return NewVisitanteRequester(name, email, phone)
}

func (r Requester) IsUsuario() bool {
	return r.Kind == RequesterUsuario
}

// Matches reports whether the given caller id is the requester. Visitors have
// no identity, so only authenticated requesters ever match.
func (r Requester) Matches(callerID string) bool {
	return r.Kind == RequesterUsuario && callerID != "" && r.UserID == callerID
}

// Valid re-checks the union invariant on entities loaded from storage.
func (r Requester) Valid() bool {
	switch r.Kind {
	case RequesterUsuario:
		return r.UserID != "" && r.Name == "" && r.Email == ""
	case RequesterVisitante:
		return r.UserID == "" && r.Name != "" && r.Email != ""
	}
	return false
}
