package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"depenses/internal/core"
	"depenses/internal/services"
)

func decodeTriggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%q)", err, w.Header().Get("HX-Trigger"))
	}
	return triggers
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerLedgerUpdated().
		TriggerFormReset(core.Paul).
		TriggerWarningNotification("attention").
		Status(http.StatusNoContent).
		Write(w)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	triggers := decodeTriggers(t, w)
	if string(triggers[EventLedgerUpdated]) != "{}" {
		t.Errorf("%s = %s", EventLedgerUpdated, triggers[EventLedgerUpdated])
	}
	if string(triggers[EventFormReset]) != `{"account":"paul"}` {
		t.Errorf("%s = %s", EventFormReset, triggers[EventFormReset])
	}
	var n struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(triggers[EventNotification], &n); err != nil {
		t.Fatalf("notification: %v", err)
	}
	if n.Type != "warning" || n.Message != "attention" || n.Duration != 5000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestHTMXResponseBuilder_NoTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("X-Test", "1").Write(w)
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("unexpected HX-Trigger header")
	}
	if w.Header().Get("X-Test") != "1" {
		t.Errorf("custom header lost")
	}
}

func TestErrorResponse_EscapesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusUnprocessableEntity, "<b>montant</b>").
		TriggerFormShake(core.Julie).
		Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	if want := `<div class="error">&lt;b&gt;montant&lt;/b&gt;</div>`; w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
	if got := string(decodeTriggers(t, w)[EventFormShake]); got != `{"account":"julie"}` {
		t.Errorf("shake = %s", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnknownAccount, http.StatusNotFound},
		{fmt.Errorf("add: %w", core.ErrNothingToAdd), http.StatusUnprocessableEntity},
		{core.ErrNegativeAmount, http.StatusUnprocessableEntity},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{services.ErrResetNotConfirmed, http.StatusBadRequest},
		{errors.New("disk"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
		if messageForError(tt.err) == "" {
			t.Errorf("messageForError(%v) is empty", tt.err)
		}
	}
}
