package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
	"depenses/internal/services"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request carries the HX-Request header the page
// script sends.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNothingToAdd),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrResetNotConfirmed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the French message shown to the user.
func messageForError(err error) string {
	switch {
	case errors.Is(err, core.ErrUnknownAccount):
		return "Compte inconnu"
	case errors.Is(err, core.ErrNothingToAdd):
		return "Saisissez au moins un montant"
	case errors.Is(err, core.ErrNegativeAmount), errors.Is(err, core.ErrInvalidAmount):
		return "Montant invalide"
	case errors.Is(err, services.ErrResetNotConfirmed):
		return "Confirmation requise pour remettre à zéro"
	default:
		return "Erreur interne"
	}
}

// bodyErrorStatus is 413 for an oversized body and 400 otherwise.
func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func bodyErrorMessage(err error) string {
	if bodyErrorStatus(err) == http.StatusRequestEntityTooLarge {
		return "Requête trop volumineuse"
	}
	return "Format de requête invalide"
}

const saveDeferredMessage = "Enregistrement différé, nouvel essai automatique"

type accountJSON struct {
	Commune     decimal.Decimal `json:"commune"`
	Personnelle decimal.Decimal `json:"personnelle"`
}

type settlementJSON struct {
	Balance   decimal.Decimal `json:"balance"`
	Amount    string          `json:"amount"`
	Direction string          `json:"direction"`
	Debtor    string          `json:"debtor,omitempty"`
	Phrase    string          `json:"phrase"`
	CSSClass  string          `json:"cssClass"`
}

// ledgerJSON is the JSON view of the ledger. Amounts are decimal strings.
type ledgerJSON struct {
	Julie       accountJSON     `json:"julie"`
	Paul        accountJSON     `json:"paul"`
	SharedTotal decimal.Decimal `json:"sharedTotal"`
	Settlement  settlementJSON  `json:"settlement"`
	LastSaved   *time.Time      `json:"lastSaved,omitempty"`
	SaveError   string          `json:"saveError,omitempty"`
}

func newLedgerJSON(v services.View, saveErr error) ledgerJSON {
	out := ledgerJSON{
		Julie:       accountJSON{Commune: v.Totals.Julie.Commune, Personnelle: v.Totals.Julie.Personnelle},
		Paul:        accountJSON{Commune: v.Totals.Paul.Commune, Personnelle: v.Totals.Paul.Personnelle},
		SharedTotal: v.SharedTotal(),
		Settlement: settlementJSON{
			Balance:   v.Settlement.Balance,
			Amount:    v.Amount(),
			Direction: v.Settlement.Direction.String(),
			Phrase:    v.Phrase(),
			CSSClass:  v.CSSClass(),
		},
	}
	if debtor, ok := v.Settlement.Debtor(core.Julie, core.Paul); ok {
		out.Settlement.Debtor = string(debtor)
	}
	if !v.LastSaved.IsZero() {
		t := v.LastSaved.UTC()
		out.LastSaved = &t
	}
	if saveErr != nil {
		out.SaveError = saveDeferredMessage
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
