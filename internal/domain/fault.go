package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Crash is a structured crash report tied to a session.
type Crash struct {
	ID            uuid.UUID `json:"id"`
	SessionID     string    `json:"sessionId"`
	Timestamp     time.Time `json:"timestamp"`
	ExceptionName string    `json:"exceptionName"`
	Reason        string    `json:"reason,omitempty"`
	StackTrace    string    `json:"stackTrace,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// ANR is an application-not-responding occurrence.
type ANR struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"sessionId"`
	Timestamp   time.Time `json:"timestamp"`
	DurationMs  int64     `json:"durationMs"`
	ThreadState string    `json:"threadState,omitempty"`
	StackTrace  string    `json:"stackTrace,omitempty"`
	Status      string    `json:"status,omitempty"`
}

// AppError is a handled or unhandled error reported by the SDK.
type AppError struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"sessionId"`
	Timestamp  time.Time `json:"timestamp"`
	ErrorType  string    `json:"errorType,omitempty"`
	ErrorName  string    `json:"errorName"`
	Message    string    `json:"message,omitempty"`
	StackTrace string    `json:"stackTrace,omitempty"`
	ScreenName string    `json:"screenName,omitempty"`
}

// FaultRepository reads fault records scoped to a session, oldest first.
type FaultRepository interface {
	ListCrashes(ctx context.Context, sessionID string) ([]*Crash, error)
	ListANRs(ctx context.Context, sessionID string) ([]*ANR, error)
	ListErrors(ctx context.Context, sessionID string) ([]*AppError, error)
}
