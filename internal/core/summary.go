package core

import "github.com/shopspring/decimal"

// Direction tells which way money flows between the first (A) and second (B)
// account of a settlement.
type Direction int

const (
	Balanced Direction = iota
	SecondOwesFirst
	FirstOwesSecond
)

// Tolerance absorbs one cent of drift: balances within ±0.01 are balanced.
var Tolerance = decimal.New(1, -2)

var two = decimal.NewFromInt(2)

// Settlement is the derived, never stored, answer to "who owes whom".
type Settlement struct {
	TotalShared     decimal.Decimal
	FairShare       decimal.Decimal
	SharedBalance   decimal.Decimal // positive: A overpaid shared costs
	PersonalBalance decimal.Decimal // positive: B owes A personal expenses
	Balance         decimal.Decimal // positive: B owes A
	Direction       Direction
}

// Settle splits shared expenses 50/50 and refunds personal ones at 100%.
// It is pure and satisfies Settle(a, b) == Settle(b, a).Neg().
func Settle(a, b Account) Settlement {
	totalShared := a.Commune.Add(b.Commune)
	fairShare := totalShared.Div(two)
	shared := a.Commune.Sub(fairShare)
	personal := a.Personnelle.Sub(b.Personnelle)
	final := shared.Add(personal)

	return Settlement{
		TotalShared:     totalShared,
		FairShare:       fairShare,
		SharedBalance:   shared,
		PersonalBalance: personal,
		Balance:         final,
		Direction:       Classify(final),
	}
}

// Classify maps a signed balance to a direction using Tolerance.
func Classify(balance decimal.Decimal) Direction {
	switch {
	case balance.GreaterThan(Tolerance):
		return SecondOwesFirst
	case balance.LessThan(Tolerance.Neg()):
		return FirstOwesSecond
	default:
		return Balanced
	}
}

// Neg returns the settlement seen from the other side.
func (s Settlement) Neg() Settlement {
	d := Balanced
	switch s.Direction {
	case SecondOwesFirst:
		d = FirstOwesSecond
	case FirstOwesSecond:
		d = SecondOwesFirst
	}
	return Settlement{
		TotalShared:     s.TotalShared,
		FairShare:       s.FairShare,
		SharedBalance:   s.SharedBalance.Neg(),
		PersonalBalance: s.PersonalBalance.Neg(),
		Balance:         s.Balance.Neg(),
		Direction:       d,
	}
}

// Magnitude is the absolute amount to transfer.
func (s Settlement) Magnitude() decimal.Decimal {
	return s.Balance.Abs()
}

// FormattedMagnitude is Magnitude rendered for display.
func (s Settlement) FormattedMagnitude() string {
	return FormatAmount(s.Magnitude())
}

// Phrase is the fixed French sentence shown under the amount, for a
// settlement computed with first as A and second as B.
func (s Settlement) Phrase(first, second AccountID) string {
	switch s.Direction {
	case SecondOwesFirst:
		return second.Name() + " doit envoyer à " + first.Name()
	case FirstOwesSecond:
		return first.Name() + " doit envoyer à " + second.Name()
	default:
		return "Parfaitement équilibré"
	}
}

// CSSClass names the style of the balance card, e.g. "owes-julie".
func (s Settlement) CSSClass(first, second AccountID) string {
	switch s.Direction {
	case SecondOwesFirst:
		return "owes-" + string(first)
	case FirstOwesSecond:
		return "owes-" + string(second)
	default:
		return "balanced"
	}
}

// Debtor returns who pays, and false when balanced.
func (s Settlement) Debtor(first, second AccountID) (AccountID, bool) {
	switch s.Direction {
	case SecondOwesFirst:
		return second, true
	case FirstOwesSecond:
		return first, true
	default:
		return "", false
	}
}

func (d Direction) String() string {
	switch d {
	case SecondOwesFirst:
		return "second_owes_first"
	case FirstOwesSecond:
		return "first_owes_second"
	default:
		return "balanced"
	}
}
