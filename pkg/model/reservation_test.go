package model

import "testing"

func TestReservation_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		wantOK bool
	}{
		{"pendente to confirmada", ReservaPendente, ReservaConfirmada, true},
		{"pendente to rejeitada", ReservaPendente, ReservaRejeitada, true},
		{"pendente to cancelada", ReservaPendente, ReservaCancelada, true},
		{"confirmada to cancelada", ReservaConfirmada, ReservaCancelada, true},
		{"confirmada to rejeitada", ReservaConfirmada, ReservaRejeitada, false},
		{"confirmada to confirmada", ReservaConfirmada, ReservaConfirmada, false},
		{"rejeitada is terminal", ReservaRejeitada, ReservaCancelada, false},
		{"cancelada is terminal", ReservaCancelada, ReservaConfirmada, false},
		{"rejeitada to confirmada", ReservaRejeitada, ReservaConfirmada, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reservation{Status: tt.from}
			if got := r.CanTransitionTo(tt.to); got != tt.wantOK {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.wantOK)
			}
		})
	}
}
