package model

import "time"

const (
	PagamentoPendente    = "pendente"
	PagamentoProcessando = "processando"
	PagamentoPago        = "pago"
	PagamentoCancelado   = "cancelado"
	PagamentoExpirado    = "expirado"
)

// Payment is a Pix charge for publishing an ad. The stored status never flips
// to expirado by itself; expiration is derived lazily from DataExpiracao on
// every read, so stale pendente rows still report the truth.
type Payment struct {
	ID        string     `json:"id" bson:"_id" validate:"required,uuid4"`
	AdID      string     `json:"anuncioId" bson:"anuncio_id" validate:"required"`
	Amount    int64      `json:"valorCentavos" bson:"valor_centavos" validate:"required,min=1"`
	Status    string     `json:"status" bson:"status" validate:"required,oneof=pendente processando pago cancelado expirado"`
	PixTxID   string     `json:"pixTxid" bson:"pix_txid" validate:"required"`
	PixCode   string     `json:"pixCopiaECola" bson:"pix_copia_e_cola" validate:"required"`
	ExpiresAt time.Time  `json:"dataExpiracao" bson:"data_expiracao" validate:"required"`
	PaidAt    *time.Time `json:"pagoEm,omitempty" bson:"pago_em,omitempty"`
	CreatedAt time.Time  `json:"criadoEm" bson:"criado_em" validate:"omitempty"`
}

// EffectiveStatus derives the status a reader should see at the given instant:
// a pendente/processando charge past its expiration reads as expirado even
// though the stored field is untouched.
func (p *Payment) EffectiveStatus(now time.Time) string {
	if (p.Status == PagamentoPendente || p.Status == PagamentoProcessando) && now.After(p.ExpiresAt) {
		return PagamentoExpirado
	}
	return p.Status
}

// Cancelable reports whether the charge can still move to cancelado.
func (p *Payment) Cancelable(now time.Time) bool {
	s := p.EffectiveStatus(now)
	return s == PagamentoPendente || s == PagamentoProcessando
}

// Confirmable reports whether an administrator can still settle the charge.
// Anything not yet pago qualifies: Pix settlements can land after the QR
// expired, and the admin confirmation is the source of truth.
func (p *Payment) Confirmable() bool {
	return p.Status != PagamentoPago
}
