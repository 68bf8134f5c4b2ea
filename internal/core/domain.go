package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Julie AccountID = "julie"
	Paul  AccountID = "paul"
)

type (
	// AccountID names one of the two ledger accounts. It doubles as the JSON
	// key of the account in the persisted document.
	AccountID string

	// Account holds the running totals of one person.
	//
	// Commune is what the person paid for shared expenses. Personnelle is what
	// the other person spent on this person's account and owes back in full.
	Account struct {
		Commune     decimal.Decimal
		Personnelle decimal.Decimal
	}

	// Totals is an immutable copy of both accounts.
	Totals struct {
		Julie Account
		Paul  Account
	}

	// Ledger is the owned in-memory state. It is a value: every operation
	// returns a new Ledger and leaves the receiver untouched.
	Ledger struct {
		totals Totals
	}
)

var (
	// ErrNothingToAdd is a validation hint, not a failure: both deltas were zero.
	ErrNothingToAdd   = errors.New("nothing to add")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrUnknownAccount = errors.New("unknown account")
)

// Accounts lists the accounts in display order; the first one is primary.
func Accounts() []AccountID {
	return []AccountID{Julie, Paul}
}

// ParseAccountID maps a raw identifier (case-insensitive) to an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	id := AccountID(strings.ToLower(strings.TrimSpace(s)))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

func (id AccountID) Validate() error {
	switch id {
	case Julie, Paul:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAccount, string(id))
	}
}

// Name returns the display name.
func (id AccountID) Name() string {
	switch id {
	case Julie:
		return "Julie"
	case Paul:
		return "Paul"
	default:
		return string(id)
	}
}

// Other returns the counterpart account.
func (id AccountID) Other() AccountID {
	if id == Julie {
		return Paul
	}
	return Julie
}

// Add returns the account with both deltas applied.
func (a Account) Add(commune, personnelle decimal.Decimal) Account {
	return Account{
		Commune:     a.Commune.Add(commune),
		Personnelle: a.Personnelle.Add(personnelle),
	}
}

func (a Account) Equal(b Account) bool {
	return a.Commune.Equal(b.Commune) && a.Personnelle.Equal(b.Personnelle)
}

func (a Account) IsZero() bool {
	return a.Commune.IsZero() && a.Personnelle.IsZero()
}

// Get returns the totals of the given account.
func (t Totals) Get(id AccountID) (Account, error) {
	switch id {
	case Julie:
		return t.Julie, nil
	case Paul:
		return t.Paul, nil
	default:
		return Account{}, id.Validate()
	}
}

func (t Totals) Equal(o Totals) bool {
	return t.Julie.Equal(o.Julie) && t.Paul.Equal(o.Paul)
}

func (t Totals) IsZero() bool {
	return t.Julie.IsZero() && t.Paul.IsZero()
}

// SharedTotal is the sum of both accounts' shared expenses.
func (t Totals) SharedTotal() decimal.Decimal {
	return t.Julie.Commune.Add(t.Paul.Commune)
}

// NewLedger returns a ledger with every total at zero.
func NewLedger() Ledger {
	return Ledger{}
}

// LedgerFromTotals hydrates a ledger from persisted totals. Stored values are
// taken as they are, negative ones included.
func LedgerFromTotals(t Totals) Ledger {
	return Ledger{totals: t}
}

// AddExpense returns a ledger where the account's totals grew by the given
// deltas. When both deltas are zero the ledger is returned unchanged together
// with ErrNothingToAdd.
func (l Ledger) AddExpense(id AccountID, commune, personnelle decimal.Decimal) (Ledger, error) {
	if err := id.Validate(); err != nil {
		return l, err
	}
	if commune.IsNegative() || personnelle.IsNegative() {
		return l, ErrNegativeAmount
	}
	if commune.IsZero() && personnelle.IsZero() {
		return l, ErrNothingToAdd
	}

	next := l.totals
	switch id {
	case Julie:
		next.Julie = next.Julie.Add(commune, personnelle)
	case Paul:
		next.Paul = next.Paul.Add(commune, personnelle)
	}
	return Ledger{totals: next}, nil
}

// Reset returns a zeroed ledger. Confirmation is the caller's job.
func (l Ledger) Reset() Ledger {
	return NewLedger()
}

// Snapshot returns a copy of the current totals.
func (l Ledger) Snapshot() Totals {
	return l.totals
}

// Settle computes the settlement with Julie as the first account.
func (l Ledger) Settle() Settlement {
	return Settle(l.totals.Julie, l.totals.Paul)
}
