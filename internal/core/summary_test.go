package core

import "testing"

func TestSettleEndToEndShared(t *testing.T) {
	l := NewLedger()
	l, _ = l.AddExpense(Julie, d("60"), d("0"))
	l, _ = l.AddExpense(Paul, d("40"), d("0"))

	s := l.Settle()
	if !s.TotalShared.Equal(d("100")) || !s.FairShare.Equal(d("50")) {
		t.Fatalf("shared=%s fair=%s", s.TotalShared, s.FairShare)
	}
	if !s.SharedBalance.Equal(d("10")) {
		t.Fatalf("shared balance = %s, want 10", s.SharedBalance)
	}
	if !s.Balance.Equal(d("10")) || s.Direction != SecondOwesFirst {
		t.Fatalf("balance = %s (%s)", s.Balance, s.Direction)
	}
	if got := s.Phrase(Julie, Paul); got != "Paul doit envoyer à Julie" {
		t.Fatalf("phrase = %q", got)
	}
	if got := s.FormattedMagnitude(); got != "10,00" {
		t.Fatalf("magnitude = %q", got)
	}
	if got := s.CSSClass(Julie, Paul); got != "owes-julie" {
		t.Fatalf("class = %q", got)
	}
}

func TestSettleEndToEndPersonal(t *testing.T) {
	l := NewLedger()
	l, _ = l.AddExpense(Julie, d("0"), d("50"))

	s := l.Settle()
	if !s.SharedBalance.IsZero() || !s.PersonalBalance.Equal(d("50")) {
		t.Fatalf("shared=%s personal=%s", s.SharedBalance, s.PersonalBalance)
	}
	if s.Phrase(Julie, Paul) != "Paul doit envoyer à Julie" || s.FormattedMagnitude() != "50,00" {
		t.Fatalf("got %q %q", s.Phrase(Julie, Paul), s.FormattedMagnitude())
	}
}

func TestSettleJulieOwesPaul(t *testing.T) {
	s := Settle(Account{Commune: d("10")}, Account{Commune: d("30"), Personnelle: d("5")})
	// shared: 10 - 20 = -10, personal: 0 - 5 = -5
	if !s.Balance.Equal(d("-15")) || s.Direction != FirstOwesSecond {
		t.Fatalf("balance = %s (%s)", s.Balance, s.Direction)
	}
	if s.Phrase(Julie, Paul) != "Julie doit envoyer à Paul" {
		t.Fatalf("phrase = %q", s.Phrase(Julie, Paul))
	}
	if s.CSSClass(Julie, Paul) != "owes-paul" {
		t.Fatalf("class = %q", s.CSSClass(Julie, Paul))
	}
	if who, ok := s.Debtor(Julie, Paul); !ok || who != Julie {
		t.Fatalf("debtor = %q %v", who, ok)
	}
	if s.FormattedMagnitude() != "15,00" {
		t.Fatalf("magnitude = %q", s.FormattedMagnitude())
	}
}

func TestSettleAntisymmetric(t *testing.T) {
	pairs := [][2]Account{
		{{Commune: d("60")}, {Commune: d("40")}},
		{{Commune: d("0.03"), Personnelle: d("7")}, {Commune: d("1234.56"), Personnelle: d("0.5")}},
		{{}, {Personnelle: d("50")}},
		{{Commune: d("33.33")}, {Commune: d("33.34")}},
	}
	for i, p := range pairs {
		ab := Settle(p[0], p[1])
		ba := Settle(p[1], p[0]).Neg()
		if !ab.Balance.Equal(ba.Balance) || ab.Direction != ba.Direction {
			t.Fatalf("case %d: settle(A,B)=%s/%s, -settle(B,A)=%s/%s", i, ab.Balance, ab.Direction, ba.Balance, ba.Direction)
		}
		if !ab.SharedBalance.Equal(ba.SharedBalance) || !ab.PersonalBalance.Equal(ba.PersonalBalance) {
			t.Fatalf("case %d: component mismatch", i)
		}
	}
}

func TestSettleIdenticalAccountsIsZero(t *testing.T) {
	a := Account{Commune: d("42.42"), Personnelle: d("7.5")}
	s := Settle(a, a)
	if !s.Balance.IsZero() || s.Direction != Balanced {
		t.Fatalf("balance = %s (%s)", s.Balance, s.Direction)
	}
	if s.Phrase(Julie, Paul) != "Parfaitement équilibré" || s.CSSClass(Julie, Paul) != "balanced" {
		t.Fatalf("unexpected balanced rendering")
	}
	if _, ok := s.Debtor(Julie, Paul); ok {
		t.Fatalf("balanced settlement has no debtor")
	}
}

func TestSettleIdempotent(t *testing.T) {
	l := LedgerFromTotals(Totals{Julie: Account{Commune: d("12.5")}, Paul: Account{Personnelle: d("3")}})
	first := l.Settle()
	for i := 0; i < 3; i++ {
		again := l.Settle()
		if !again.Balance.Equal(first.Balance) || again.Direction != first.Direction {
			t.Fatalf("settle is not idempotent")
		}
	}
}

func TestClassifyToleranceBand(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
	}{
		{"0", Balanced},
		{"0.01", Balanced},
		{"-0.01", Balanced},
		{"0.005", Balanced},
		{"0.011", SecondOwesFirst},
		{"-0.011", FirstOwesSecond},
		{"0.02", SecondOwesFirst},
	}
	for _, tc := range cases {
		if got := Classify(d(tc.in)); got != tc.want {
			t.Fatalf("%s classified %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSettleToleranceFromAccounts(t *testing.T) {
	// shared balance of 0.01 (0.02 vs 0) is inside the band
	s := Settle(Account{Commune: d("0.02")}, Account{})
	if !s.Balance.Equal(d("0.01")) || s.Direction != Balanced {
		t.Fatalf("balance = %s (%s)", s.Balance, s.Direction)
	}
	if s.FormattedMagnitude() != "0,01" {
		t.Fatalf("magnitude = %q", s.FormattedMagnitude())
	}
}
