package services

import (
	"time"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
)

// View is what the page and the JSON API render: both accounts, the global
// shared total and the settlement between Julie (first) and Paul (second).
type View struct {
	Totals     core.Totals
	Settlement core.Settlement
	LastSaved  time.Time
}

// AccountView is one account formatted for display.
type AccountView struct {
	ID          core.AccountID
	Name        string
	Commune     string
	Personnelle string
}

func NewView(t core.Totals, lastSaved time.Time) View {
	return View{
		Totals:     t,
		Settlement: core.Settle(t.Julie, t.Paul),
		LastSaved:  lastSaved,
	}
}

// Accounts lists both accounts in display order.
func (v View) Accounts() []AccountView {
	ids := core.Accounts()
	out := make([]AccountView, 0, len(ids))
	for _, id := range ids {
		a, _ := v.Totals.Get(id)
		out = append(out, AccountView{
			ID:          id,
			Name:        id.Name(),
			Commune:     core.FormatAmount(a.Commune),
			Personnelle: core.FormatAmount(a.Personnelle),
		})
	}
	return out
}

func (v View) SharedTotal() decimal.Decimal {
	return v.Totals.SharedTotal()
}

func (v View) FormattedSharedTotal() string {
	return core.FormatAmount(v.SharedTotal())
}

// Amount is the absolute balance, e.g. "12,50".
func (v View) Amount() string {
	return v.Settlement.FormattedMagnitude()
}

func (v View) Phrase() string {
	return v.Settlement.Phrase(core.Julie, core.Paul)
}

func (v View) CSSClass() string {
	return v.Settlement.CSSClass(core.Julie, core.Paul)
}
