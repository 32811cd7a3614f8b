package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ShareCodeKey is the context key for the share code a portal request
	// authenticated with
	ShareCodeKey contextKey = "share_code"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithShareCode adds the share code to context and returns enriched logger.
// Every portal log line carries the share code so a supplier session can be
// traced end to end.
func WithShareCode(ctx context.Context, logger *zap.Logger, shareCode string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ShareCodeKey, shareCode)
	enrichedLogger := logger.With(zap.String("share_code", shareCode))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetShareCode retrieves the share code from context
func GetShareCode(ctx context.Context) string {
	if shareCode, ok := ctx.Value(ShareCodeKey).(string); ok {
		return shareCode
	}
	return ""
}
