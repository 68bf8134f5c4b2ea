package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse %q: %v", body, err)
	}
	return p
}

func TestRequestBodyParser_FormAndJSON(t *testing.T) {
	form := newParser(t, "application/x-www-form-urlencoded", "commune=12%2C50&personnelle=+3+")
	if form.IsJSON() {
		t.Fatalf("form body parsed as JSON")
	}
	if got := form.Get("commune"); got != "12,50" {
		t.Errorf("commune = %q", got)
	}
	if got := form.Get("personnelle"); got != "3" {
		t.Errorf("personnelle = %q", got)
	}

	js := newParser(t, "", `{"account":"paul","commune":12.5,"confirm":true}`)
	if !js.IsJSON() {
		t.Fatalf("JSON body not detected without content type")
	}
	if got := js.Get("commune"); got != "12.5" {
		t.Errorf("commune = %q", got)
	}
	if got := js.Get("confirm"); got != "true" {
		t.Errorf("confirm = %q", got)
	}
	if got := js.Get("missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"account":`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err == nil {
		t.Fatalf("expected an error for truncated JSON")
	}
	// Parse is memoized.
	if err := p.Parse(); err == nil {
		t.Fatalf("second Parse lost the error")
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "commune=1&note=" + strings.Repeat("x", maxBodyBytes)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse()
	if err == nil {
		t.Fatalf("oversized body parsed without error")
	}
	if got := bodyErrorStatus(err); got != http.StatusRequestEntityTooLarge {
		t.Fatalf("bodyErrorStatus = %d, want 413", got)
	}
	if got := bodyErrorStatus(errors.New("bad json")); got != http.StatusBadRequest {
		t.Fatalf("bodyErrorStatus = %d, want 400", got)
	}
}

func TestParseFormAmounts(t *testing.T) {
	tests := []struct {
		body        string
		commune     string
		personnelle string
	}{
		{"commune=10&personnelle=2.5", "10", "2.5"},
		{"commune=1%E2%80%AF234%2C50", "1234.5", "0"},
		{"commune=&personnelle=", "0", "0"},
		{"commune=abc&personnelle=-4", "0", "0"},
		{"", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			c, p := ParseFormAmounts(newParser(t, "application/x-www-form-urlencoded", tt.body))
			if !c.Equal(decimal.RequireFromString(tt.commune)) || !p.Equal(decimal.RequireFromString(tt.personnelle)) {
				t.Fatalf("got %s/%s, want %s/%s", c, p, tt.commune, tt.personnelle)
			}
		})
	}
}

func TestParseExpenseJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    ExpenseInput
		wantErr error
	}{
		{
			name: "numbers and strings",
			body: `{"account":"julie","commune":"12,50","personnelle":3}`,
			want: ExpenseInput{Account: core.Julie, Commune: decimal.RequireFromString("12.5"), Personnelle: decimal.NewFromInt(3)},
		},
		{
			name: "missing amounts are zero",
			body: `{"account":"PAUL"}`,
			want: ExpenseInput{Account: core.Paul},
		},
		{name: "unknown account", body: `{"account":"marc","commune":1}`, wantErr: core.ErrUnknownAccount},
		{name: "missing account", body: `{"commune":1}`, wantErr: core.ErrUnknownAccount},
		{name: "typo in amount", body: `{"account":"julie","commune":"1O"}`, wantErr: core.ErrInvalidAmount},
		{
			name: "exponent numbers",
			body: `{"account":"julie","commune":1e2,"personnelle":2.5E1}`,
			want: ExpenseInput{Account: core.Julie, Commune: decimal.NewFromInt(100), Personnelle: decimal.NewFromInt(25)},
		},
		{name: "negative number", body: `{"account":"julie","personnelle":-1}`, wantErr: core.ErrNegativeAmount},
		{name: "negative string", body: `{"account":"julie","personnelle":"-1"}`, wantErr: core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpenseJSON(newParser(t, "application/json", tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Account != tt.want.Account || !got.Commune.Equal(tt.want.Commune) || !got.Personnelle.Equal(tt.want.Personnelle) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseConfirm(t *testing.T) {
	tests := []struct {
		contentType string
		body        string
		want        bool
	}{
		{"application/x-www-form-urlencoded", "confirm=yes", true},
		{"application/x-www-form-urlencoded", "confirm=YES", true},
		{"application/x-www-form-urlencoded", "confirm=true", false},
		{"application/x-www-form-urlencoded", "", false},
		{"application/json", `{"confirm":true}`, true},
		{"application/json", `{"confirm":"yes"}`, false},
		{"application/json", `{"confirm":false}`, false},
		{"application/json", `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			if got := ParseConfirm(newParser(t, tt.contentType, tt.body)); got != tt.want {
				t.Fatalf("ParseConfirm(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  12\x00,5\x07 "); got != "12,5" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
