package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)

			logger := FromContext(r.Context()).With(FieldRequestID, requestID)

			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger provides domain logging helpers on top of Logger
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = FromContext(context.Background())
	}
	return &StructuredLogger{
		logger: logger.WithComponent(ComponentLedger),
	}
}

// LogExpenseAdded logs a successful add-expense operation
func (sl *StructuredLogger) LogExpenseAdded(ctx context.Context, account, commune, personnelle string) {
	fields := NewFields().
		WithExpense(account, commune, personnelle).
		WithOperation(OpAddExpense)
	sl.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
}

// LogNothingToAdd logs an add-expense call with two zero deltas
func (sl *StructuredLogger) LogNothingToAdd(ctx context.Context, account string) {
	sl.logger.DebugContext(ctx, "Nothing to add", FieldAccount, account, FieldOperation, OpAddExpense)
}

// LogReset logs a confirmed ledger reset
func (sl *StructuredLogger) LogReset(ctx context.Context) {
	sl.logger.WarnContext(ctx, "Ledger reset to zero", FieldOperation, OpReset)
}

// LogSettlement logs the settlement after a change
func (sl *StructuredLogger) LogSettlement(ctx context.Context, balance, direction string) {
	fields := NewFields().
		WithSettlement(balance, direction).
		WithOperation(OpSettle)
	sl.logger.DebugContext(ctx, "Settlement computed", fields.ToSlice()...)
}

// LogSaveFailed logs a non-fatal persistence failure
func (sl *StructuredLogger) LogSaveFailed(ctx context.Context, key, trigger string, err error) {
	fields := NewFields().
		WithError(err).
		WithOperation(OpSave)
	fields[FieldStoreKey] = key
	fields[FieldTrigger] = trigger
	sl.logger.WarnContext(ctx, "Ledger save failed, in-memory state kept", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
