// Package persistence loads and saves the ledger as one JSON document in a
// key-value store.
//
// Two document shapes exist. The legacy shape predates the two-account model
// and only carries a single pair of totals:
//
//	{"totalCommune": 100, "totalPersonnelle": 40}
//
// The current shape carries both accounts and a timestamp:
//
//	{"julie": {"commune": 60, "personnelle": 0},
//	 "paul":  {"commune": 40, "personnelle": 0},
//	 "lastUpdated": "2025-01-02T15:04:05.000Z"}
//
// Decode returns one of the two as a Document; Migrate turns a legacy
// document into a current one. Documents are only ever written in the
// current shape.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
)

// DefaultKey is the store key the ledger document lives under.
const DefaultKey = "depenses-data"

// legacyDiscriminator is the key whose presence marks a legacy document.
const legacyDiscriminator = "totalCommune"

// lastUpdatedLayout matches the millisecond ISO-8601 form browsers write.
const lastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

// Document is either a LegacyDocument or a CurrentDocument.
type Document interface {
	// Totals returns the ledger totals the document describes.
	Totals() core.Totals
	isDocument()
}

// LegacyDocument is the single-account shape.
type LegacyDocument struct {
	TotalCommune     decimal.Decimal `json:"totalCommune"`
	TotalPersonnelle decimal.Decimal `json:"totalPersonnelle"`
}

// CurrentDocument is the two-account shape.
type CurrentDocument struct {
	Julie       AccountDocument `json:"julie"`
	Paul        AccountDocument `json:"paul"`
	LastUpdated time.Time       `json:"-"`
}

type AccountDocument struct {
	Commune     decimal.Decimal `json:"commune"`
	Personnelle decimal.Decimal `json:"personnelle"`
}

func (LegacyDocument) isDocument()  {}
func (CurrentDocument) isDocument() {}

// Totals assigns the legacy totals to the primary account.
func (d LegacyDocument) Totals() core.Totals {
	return Migrate(d).Totals()
}

func (d CurrentDocument) Totals() core.Totals {
	return core.Totals{
		Julie: core.Account{Commune: d.Julie.Commune, Personnelle: d.Julie.Personnelle},
		Paul:  core.Account{Commune: d.Paul.Commune, Personnelle: d.Paul.Personnelle},
	}
}

// Migrate converts a legacy document: its totals belong to the primary
// account and the secondary account starts at zero. The result has no
// timestamp until it is saved.
func Migrate(d LegacyDocument) CurrentDocument {
	return CurrentDocument{
		Julie: AccountDocument{Commune: d.TotalCommune, Personnelle: d.TotalPersonnelle},
	}
}

// NewCurrentDocument builds the document written on save.
func NewCurrentDocument(t core.Totals, at time.Time) CurrentDocument {
	return CurrentDocument{
		Julie:       AccountDocument{Commune: t.Julie.Commune, Personnelle: t.Julie.Personnelle},
		Paul:        AccountDocument{Commune: t.Paul.Commune, Personnelle: t.Paul.Personnelle},
		LastUpdated: at,
	}
}

// Decode parses raw bytes into a Document. Anything that is not a JSON
// object, or whose totals are not numbers, wraps ErrCorruptSnapshot. Missing
// or null totals read as zero.
func Decode(raw []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: document is null", ErrCorruptSnapshot)
	}

	if _, ok := fields[legacyDiscriminator]; ok {
		var doc LegacyDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: legacy document: %v", ErrCorruptSnapshot, err)
		}
		return doc, nil
	}

	var doc CurrentDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if ts, ok := fields["lastUpdated"]; ok {
		var s string
		if err := json.Unmarshal(ts, &s); err == nil {
			if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
				doc.LastUpdated = at
			}
		}
	}
	return doc, nil
}

// wireAccount and wireDocument pin the encoded form: totals as bare JSON
// numbers and lastUpdated as an ISO-8601 UTC string.
type wireAccount struct {
	Commune     json.Number `json:"commune"`
	Personnelle json.Number `json:"personnelle"`
}

type wireDocument struct {
	Julie       wireAccount `json:"julie"`
	Paul        wireAccount `json:"paul"`
	LastUpdated string      `json:"lastUpdated"`
}

// Encode serializes a current document.
func Encode(doc CurrentDocument) ([]byte, error) {
	w := wireDocument{
		Julie: wireAccount{
			Commune:     json.Number(doc.Julie.Commune.String()),
			Personnelle: json.Number(doc.Julie.Personnelle.String()),
		},
		Paul: wireAccount{
			Commune:     json.Number(doc.Paul.Commune.String()),
			Personnelle: json.Number(doc.Paul.Personnelle.String()),
		},
		LastUpdated: doc.LastUpdated.UTC().Format(lastUpdatedLayout),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encode ledger document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
