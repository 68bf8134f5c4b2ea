package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"depenses/internal/core"
	"depenses/internal/log"
	"depenses/internal/metrics"
	"depenses/internal/persistence"
)

// Save triggers, used as log and metric labels.
const (
	TriggerMutation = "mutation"
	TriggerAutosave = "autosave"
	TriggerShutdown = "shutdown"
	TriggerManual   = "manual"
)

// ErrResetNotConfirmed is returned when a reset arrives without an explicit
// confirmation.
var ErrResetNotConfirmed = errors.New("reset requires confirmation")

// Store is the persistence side of the service. *persistence.Adapter
// satisfies it.
type Store interface {
	Load(ctx context.Context) (persistence.Loaded, error)
	Save(ctx context.Context, t core.Totals) (time.Time, error)
	Key() string
}

// MutationResult is the state after a mutation. SaveErr is set when the
// mutation was applied in memory but could not be persisted; the next save
// retries.
type MutationResult struct {
	View    View
	SaveErr error
}

// LedgerService owns the in-memory ledger and serializes every mutation and
// save behind one mutex, so at most one save is in flight and each save
// writes the latest state.
type LedgerService struct {
	mu        sync.Mutex
	ledger    core.Ledger
	origin    persistence.Origin
	lastSaved time.Time
	// held is set when Load failed; background saves leave the stored
	// document alone until the first mutation.
	held bool

	store  Store
	logger *log.StructuredLogger
}

func NewLedgerService(store Store, logger *log.Logger) *LedgerService {
	return &LedgerService{
		ledger: core.NewLedger(),
		store:  store,
		logger: log.NewStructuredLogger(logger),
	}
}

// Load hydrates the ledger from the store. On a corrupt document the service
// keeps a zero ledger and returns the error so the caller can report it; the
// stored document is not touched until the next save.
func (s *LedgerService) Load(ctx context.Context) (persistence.Origin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.store.Load(ctx)
	s.ledger = loaded.Ledger
	s.origin = loaded.Origin
	s.lastSaved = loaded.LastUpdated
	s.held = err != nil
	if err != nil {
		fields := log.NewFields()
		fields[log.FieldStoreKey] = s.store.Key()
		s.logger.LogError(ctx, "Ledger load failed, starting from zero", err, log.OpLoad, fields)
		return loaded.Origin, fmt.Errorf("load ledger: %w", err)
	}
	metrics.Balance.Set(s.ledger.Settle().Balance.InexactFloat64())
	return loaded.Origin, nil
}

// AddExpense applies the deltas to one account and saves. Both deltas zero
// returns core.ErrNothingToAdd and leaves the ledger unchanged.
func (s *LedgerService) AddExpense(ctx context.Context, id core.AccountID, commune, personnelle decimal.Decimal) (MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.ledger.AddExpense(id, commune, personnelle)
	if errors.Is(err, core.ErrNothingToAdd) {
		s.logger.LogNothingToAdd(ctx, string(id))
		metrics.NothingToAdd.Inc()
		return MutationResult{View: s.viewLocked()}, err
	}
	if err != nil {
		return MutationResult{View: s.viewLocked()}, err
	}

	s.ledger = next
	s.logger.LogExpenseAdded(ctx, string(id), commune.String(), personnelle.String())
	metrics.ExpensesAdded.WithLabelValues(string(id)).Inc()

	return s.afterMutationLocked(ctx), nil
}

// Reset zeroes every total. confirmed must be true; boundaries pass through
// what the user explicitly confirmed.
func (s *LedgerService) Reset(ctx context.Context, confirmed bool) (MutationResult, error) {
	if !confirmed {
		return MutationResult{View: s.View()}, ErrResetNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = s.ledger.Reset()
	s.logger.LogReset(ctx)
	metrics.Resets.Inc()

	return s.afterMutationLocked(ctx), nil
}

// Save persists the current state. Failures are logged as warnings and
// returned; the in-memory ledger stays authoritative. After a failed Load
// nothing is written until the ledger is mutated.
func (s *LedgerService) Save(ctx context.Context, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		log.FromContext(ctx).DebugContext(ctx, "Skipping save of unloaded ledger",
			log.FieldTrigger, trigger, log.FieldStoreKey, s.store.Key())
		return nil
	}
	return s.saveLocked(ctx, trigger)
}

// View returns a consistent snapshot for rendering.
func (s *LedgerService) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Origin reports what the last Load found.
func (s *LedgerService) Origin() persistence.Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

func (s *LedgerService) afterMutationLocked(ctx context.Context) MutationResult {
	settlement := s.ledger.Settle()
	s.logger.LogSettlement(ctx, settlement.Balance.String(), settlement.Direction.String())
	metrics.Balance.Set(settlement.Balance.InexactFloat64())

	s.held = false
	err := s.saveLocked(ctx, TriggerMutation)
	return MutationResult{View: s.viewLocked(), SaveErr: err}
}

func (s *LedgerService) saveLocked(ctx context.Context, trigger string) error {
	at, err := s.store.Save(ctx, s.ledger.Snapshot())
	metrics.ObserveSave(trigger, err)
	if err != nil {
		s.logger.LogSaveFailed(ctx, s.store.Key(), trigger, err)
		return err
	}
	s.lastSaved = at
	return nil
}

func (s *LedgerService) viewLocked() View {
	return NewView(s.ledger.Snapshot(), s.lastSaved)
}
