package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"depenses/internal/core"
	"depenses/internal/log"
	"depenses/internal/services"
)

// handleIndex renders the whole page with the current totals.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", http.StatusOK)
}

// handleTotals renders the totals partial the page swaps in.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, "totals.html", http.StatusOK)
}

// handleResetConfirm is the confirmation step of the reset form when the
// page script is not running.
func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, "reset.html", http.StatusOK)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, s.ledger.View()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name, log.FieldOperation, log.OpRender)
		http.Error(w, "Erreur d'affichage", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleAddExpense adds the form amounts to one account. htmx requests get
// HX-Trigger events; plain form posts are redirected back to the page.
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		s.writeFormError(w, r, "", err)
		return
	}

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorResponse(bodyErrorStatus(err), bodyErrorMessage(err)).Write(w)
		return
	}
	commune, personnelle := ParseFormAmounts(p)

	res, err := s.ledger.AddExpense(r.Context(), id, commune, personnelle)
	if err != nil {
		s.writeFormError(w, r, id, err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	b := NewHTMXResponse().
		TriggerLedgerUpdated().
		TriggerFormReset(id).
		Status(http.StatusNoContent)
	if res.SaveErr != nil {
		b.TriggerWarningNotification(saveDeferredMessage)
	}
	b.Write(w)
}

// handleReset zeroes the ledger when the request carries confirm=yes. A
// plain form post without it is sent to the confirmation page.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		ErrorResponse(bodyErrorStatus(err), bodyErrorMessage(err)).Write(w)
		return
	}

	res, err := s.ledger.Reset(r.Context(), ParseConfirm(p))
	if errors.Is(err, services.ErrResetNotConfirmed) && !isHTMX(r) {
		http.Redirect(w, r, "/reset", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.writeFormError(w, r, "", err)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	b := NewHTMXResponse().
		TriggerLedgerUpdated().
		TriggerFormReset("").
		Status(http.StatusNoContent)
	if res.SaveErr != nil {
		b.TriggerWarningNotification(saveDeferredMessage)
	}
	b.Write(w)
}

func (s *Server) writeFormError(w http.ResponseWriter, r *http.Request, id core.AccountID, err error) {
	status := statusForError(err)
	msg := messageForError(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger mutation failed", log.FieldError, err)
	}

	b := ErrorResponse(status, msg)
	if errors.Is(err, core.ErrNothingToAdd) && id != "" {
		b.TriggerFormShake(id)
	} else {
		b.TriggerErrorNotification(msg)
	}
	b.Write(w)
}

// handleAPILedger returns the totals and settlement as JSON.
func (s *Server) handleAPILedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newLedgerJSON(s.ledger.View(), nil))
}

// handleAPIAddExpense accepts {"account":"julie","commune":"12.50","personnelle":0}.
func (s *Server) handleAPIAddExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, bodyErrorStatus(err), err.Error())
		return
	}
	in, err := ParseExpenseJSON(p)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}

	res, err := s.ledger.AddExpense(r.Context(), in.Account, in.Commune, in.Personnelle)
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newLedgerJSON(res.View, res.SaveErr))
}

// handleAPIReset requires {"confirm": true}.
func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, bodyErrorStatus(err), err.Error())
		return
	}
	res, err := s.ledger.Reset(r.Context(), ParseConfirm(p))
	if err != nil {
		writeJSONError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newLedgerJSON(res.View, res.SaveErr))
}

// handleServiceWorker renders the offline cache script for the configured
// cache version.
func (s *Server) handleServiceWorker(w http.ResponseWriter, r *http.Request) {
	data := struct {
		CacheVersion string
		URLs         []string
		Bypass       []string
	}{
		CacheVersion: s.cacheVersion,
		URLs:         PrecacheURLs,
		Bypass:       bypassPrefixes,
	}

	var buf bytes.Buffer
	if err := s.swTemplate.ExecuteTemplate(&buf, "service-worker.js", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Service worker render failed", log.FieldError, err)
		http.Error(w, "service worker unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Service-Worker-Allowed", "/")
	_, _ = w.Write(buf.Bytes())
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok"}
	status := "ready"
	code := http.StatusOK

	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_configured"
	}

	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

var _ Ledger = (*services.LedgerService)(nil)
