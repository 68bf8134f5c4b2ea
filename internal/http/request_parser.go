// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data. Forms and JSON bodies go through the same RequestBodyParser so the
// page and the JSON API share one set of rules.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
)

// maxBodyBytes bounds request bodies; expense and reset requests are tiny.
// Larger bodies fail Parse with *http.MaxBytesError.
const maxBodyBytes = 16 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// number returns the JSON number stored under key, if the body was JSON
// and the value is a bare number.
func (p *RequestBodyParser) number(key string) (json.Number, bool) {
	if p.jsonData == nil {
		return "", false
	}
	n, ok := p.jsonData[key].(json.Number)
	return n, ok
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ExpenseInput is an add-expense request after parsing.
type ExpenseInput struct {
	Account     core.AccountID
	Commune     decimal.Decimal
	Personnelle decimal.Decimal
}

// ParseFormAmounts reads the two amounts of an add form. Empty or
// unparsable fields count as zero, like an untouched input.
func ParseFormAmounts(p *RequestBodyParser) (commune, personnelle decimal.Decimal) {
	return core.ParseAmountOrZero(p.Get("commune")), core.ParseAmountOrZero(p.Get("personnelle"))
}

// ParseExpenseJSON reads an API add request. Missing amounts are zero;
// present ones must parse, so typos are reported instead of dropped. Bare
// JSON numbers follow JSON syntax (1e2 is 100); strings follow the form
// rules (12,50).
func ParseExpenseJSON(p *RequestBodyParser) (ExpenseInput, error) {
	id, err := core.ParseAccountID(p.Get("account"))
	if err != nil {
		return ExpenseInput{}, err
	}
	in := ExpenseInput{Account: id}
	for _, f := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"commune", &in.Commune},
		{"personnelle", &in.Personnelle},
	} {
		if n, ok := p.number(f.key); ok {
			d, err := core.ParseAmountNumber(n.String())
			if err != nil {
				return ExpenseInput{}, fmt.Errorf("%s %s: %w", f.key, n, err)
			}
			*f.dst = d
			continue
		}
		raw := p.Get(f.key)
		if raw == "" {
			continue
		}
		d, err := core.ParseAmount(raw)
		if err != nil {
			return ExpenseInput{}, fmt.Errorf("%s %q: %w", f.key, raw, err)
		}
		*f.dst = d
	}
	return in, nil
}

// ParseConfirm reports whether a reset was explicitly confirmed: confirm=yes
// from a form, "confirm": true from JSON.
func ParseConfirm(p *RequestBodyParser) bool {
	v := strings.ToLower(p.Get("confirm"))
	if p.IsJSON() {
		return v == "true"
	}
	return v == "yes"
}
