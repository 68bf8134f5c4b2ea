package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseAccountID(t *testing.T) {
	cases := []struct {
		in  string
		out AccountID
		ok  bool
	}{
		{"julie", Julie, true},
		{" Paul ", Paul, true},
		{"JULIE", Julie, true},
		{"marc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAccountID(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrUnknownAccount) {
			t.Fatalf("%q expected ErrUnknownAccount, got %v", tc.in, err)
		}
	}
}

func TestAddExpenseGrowsOnlyTargetAccount(t *testing.T) {
	cases := []struct {
		account     AccountID
		commune     string
		personnelle string
	}{
		{Julie, "60", "0"},
		{Paul, "0", "12.34"},
		{Julie, "0.01", "99999.99"},
		{Paul, "40", "5"},
	}
	for _, tc := range cases {
		start := LedgerFromTotals(Totals{
			Julie: Account{Commune: d("10"), Personnelle: d("1")},
			Paul:  Account{Commune: d("20"), Personnelle: d("2")},
		})
		next, err := start.AddExpense(tc.account, d(tc.commune), d(tc.personnelle))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.account, err)
		}
		before, _ := start.Snapshot().Get(tc.account)
		after, _ := next.Snapshot().Get(tc.account)
		if !after.Commune.Sub(before.Commune).Equal(d(tc.commune)) {
			t.Fatalf("%s: commune grew by %s, want %s", tc.account, after.Commune.Sub(before.Commune), tc.commune)
		}
		if !after.Personnelle.Sub(before.Personnelle).Equal(d(tc.personnelle)) {
			t.Fatalf("%s: personnelle grew by %s, want %s", tc.account, after.Personnelle.Sub(before.Personnelle), tc.personnelle)
		}
		otherBefore, _ := start.Snapshot().Get(tc.account.Other())
		otherAfter, _ := next.Snapshot().Get(tc.account.Other())
		if !otherBefore.Equal(otherAfter) {
			t.Fatalf("%s: other account changed: %+v -> %+v", tc.account, otherBefore, otherAfter)
		}
		// The receiver is a value and must not move.
		if !start.Snapshot().Julie.Commune.Equal(d("10")) {
			t.Fatalf("receiver ledger was mutated")
		}
	}
}

func TestAddExpenseNothingToAdd(t *testing.T) {
	l := LedgerFromTotals(Totals{Julie: Account{Commune: d("5")}})
	next, err := l.AddExpense(Paul, decimal.Zero, decimal.Zero)
	if !errors.Is(err, ErrNothingToAdd) {
		t.Fatalf("expected ErrNothingToAdd, got %v", err)
	}
	if !next.Snapshot().Equal(l.Snapshot()) {
		t.Fatalf("ledger changed on no-op add")
	}
}

func TestAddExpenseRejects(t *testing.T) {
	l := NewLedger()
	if _, err := l.AddExpense(Julie, d("-1"), decimal.Zero); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := l.AddExpense(AccountID("marc"), d("1"), decimal.Zero); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestResetZeroesEverything(t *testing.T) {
	l := NewLedger()
	l, _ = l.AddExpense(Julie, d("60"), d("3"))
	l, _ = l.AddExpense(Paul, d("40"), d("7"))
	if l.Snapshot().IsZero() {
		t.Fatalf("expected non-zero ledger before reset")
	}
	snap := l.Reset().Snapshot()
	if !snap.IsZero() {
		t.Fatalf("expected zero totals after reset, got %+v", snap)
	}
}

func TestSharedTotal(t *testing.T) {
	tot := Totals{Julie: Account{Commune: d("60")}, Paul: Account{Commune: d("40.5")}}
	if !tot.SharedTotal().Equal(d("100.5")) {
		t.Fatalf("shared total = %s", tot.SharedTotal())
	}
}
