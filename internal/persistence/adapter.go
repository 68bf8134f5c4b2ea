package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"depenses/internal/core"
	"depenses/internal/storage"
)

// Origin records what Load found in the store.
type Origin string

const (
	OriginEmpty   Origin = "empty"
	OriginLegacy  Origin = "legacy"
	OriginCurrent Origin = "current"
)

// Loaded is the outcome of a successful Load.
type Loaded struct {
	Ledger      core.Ledger
	Origin      Origin
	LastUpdated time.Time // zero for empty and legacy documents
}

// Adapter reads and writes the ledger document under a fixed key.
type Adapter struct {
	store storage.KeyValueStore
	key   string
	now   func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithClock overrides the timestamp source used on save.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAdapter(store storage.KeyValueStore, opts ...Option) *Adapter {
	a := &Adapter{
		store: store,
		key:   DefaultKey,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the store key in use.
func (a *Adapter) Key() string {
	return a.key
}

// Load hydrates a ledger from the store. An absent document yields a zero
// ledger. A legacy document is migrated in memory only; the store keeps the
// legacy bytes until the next Save. A malformed document returns an error
// wrapping ErrCorruptSnapshot and is left untouched in the store.
func (a *Adapter) Load(ctx context.Context) (Loaded, error) {
	raw, found, err := a.store.Get(ctx, a.key)
	if err != nil {
		return Loaded{Ledger: core.NewLedger()}, fmt.Errorf("read %q: %w", a.key, err)
	}
	if !found || len(raw) == 0 {
		return Loaded{Ledger: core.NewLedger(), Origin: OriginEmpty}, nil
	}

	doc, err := Decode(raw)
	if err != nil {
		return Loaded{Ledger: core.NewLedger()}, fmt.Errorf("decode %q: %w", a.key, err)
	}

	switch doc := doc.(type) {
	case LegacyDocument:
		slog.InfoContext(ctx, "Migrating legacy ledger document",
			"key", a.key,
			"total_commune", doc.TotalCommune.String(),
			"total_personnelle", doc.TotalPersonnelle.String())
		return Loaded{
			Ledger: core.LedgerFromTotals(Migrate(doc).Totals()),
			Origin: OriginLegacy,
		}, nil
	case CurrentDocument:
		return Loaded{
			Ledger:      core.LedgerFromTotals(doc.Totals()),
			Origin:      OriginCurrent,
			LastUpdated: doc.LastUpdated,
		}, nil
	default:
		return Loaded{Ledger: core.NewLedger()}, fmt.Errorf("%w: unexpected document type %T", ErrCorruptSnapshot, doc)
	}
}

// Save overwrites the document with the given totals stamped with the
// current time. Saving is idempotent; the last write wins.
func (a *Adapter) Save(ctx context.Context, t core.Totals) (time.Time, error) {
	at := a.now()
	raw, err := Encode(NewCurrentDocument(t, at))
	if err != nil {
		return time.Time{}, err
	}
	if err := a.store.Put(ctx, a.key, raw); err != nil {
		return time.Time{}, fmt.Errorf("write %q: %w", a.key, err)
	}
	return at, nil
}

// Import writes raw bytes after checking they decode, migrating legacy
// documents to the current shape on the way in.
func (a *Adapter) Import(ctx context.Context, raw []byte) (Origin, error) {
	doc, err := Decode(raw)
	if err != nil {
		return "", err
	}
	origin := OriginCurrent
	if _, ok := doc.(LegacyDocument); ok {
		origin = OriginLegacy
	}
	if _, err := a.Save(ctx, doc.Totals()); err != nil {
		return "", err
	}
	return origin, nil
}

// Export returns the stored bytes as they are, or nil when absent.
func (a *Adapter) Export(ctx context.Context) ([]byte, error) {
	raw, found, err := a.store.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", a.key, err)
	}
	if !found {
		return nil, nil
	}
	return raw, nil
}
