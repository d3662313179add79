// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	pageIDKey    contextKey = "ctxutil.pageID"
	requestIDKey contextKey = "ctxutil.requestID"
	eventKindKey contextKey = "ctxutil.eventKind"
)

// WithUserID adds a user ID to the context.
// The user ID is the page-scoped sender id of a Messenger event and keys
// the conversation state.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns the user ID if found, empty string otherwise.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok && userID != "" {
			return userID
		}
	}
	return ""
}

// MustGetUserID retrieves the user ID from the context.
// Panics if the user ID is not found.
func MustGetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		panic("ctxutil: userID not found")
	}
	return userID
}

// WithPageID adds the receiving page ID to the context.
func WithPageID(ctx context.Context, pageID string) context.Context {
	return context.WithValue(ctx, pageIDKey, pageID)
}

// GetPageID retrieves the page ID from the context.
func GetPageID(ctx context.Context) string {
	if v := ctx.Value(pageIDKey); v != nil {
		if pageID, ok := v.(string); ok && pageID != "" {
			return pageID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithEventKind adds the classified event kind (message, postback, ...) to the context.
func WithEventKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, eventKindKey, kind)
}

// GetEventKind retrieves the event kind from the context.
func GetEventKind(ctx context.Context) string {
	if v := ctx.Value(eventKindKey); v != nil {
		if kind, ok := v.(string); ok {
			return kind
		}
	}
	return ""
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// Use for webhook processing that continues after the HTTP response is sent.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if userID := GetUserID(ctx); userID != "" {
		newCtx = WithUserID(newCtx, userID)
	}
	if pageID := GetPageID(ctx); pageID != "" {
		newCtx = WithPageID(newCtx, pageID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if kind := GetEventKind(ctx); kind != "" {
		newCtx = WithEventKind(newCtx, kind)
	}

	return newCtx
}
