package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxActor         ContextKey = "ctx_actor"
	CtxDBTransaction ContextKey = "ctx_db_transaction"
)

// GetUserID returns the id of the authenticated actor, or 0 for anonymous requests
func GetUserID(ctx context.Context) int64 {
	if actor := GetActor(ctx); actor != nil {
		return actor.UserID
	}
	return 0
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetActor returns the authenticated actor, nil when the request is anonymous
func GetActor(ctx context.Context) *Actor {
	if actor, ok := ctx.Value(CtxActor).(*Actor); ok {
		return actor
	}
	return nil
}

// SetActor stores the authenticated actor in the context
func SetActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, CtxActor, actor)
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}
