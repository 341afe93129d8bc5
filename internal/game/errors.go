package game

import (
	"errors"
	"fmt"
)

// Rule violations. Each is returned unchanged from the worker to the
// caller so it can be shown to the player.
var (
	ErrNotYourTurn                 = errors.New("not your turn")
	ErrCardNotInHand               = errors.New("card not in hand")
	ErrCantPlayDecreasingCardValue = errors.New("can't play a card lower than the top of its column")
	ErrCantRedrawCardJustPlayed    = errors.New("can't redraw the card just discarded")
	ErrNeutralDrawPileEmpty        = errors.New("discard pile is empty")
)

// Lookup and lifecycle failures caused by the caller's input.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("game already exists")
	ErrGameAlreadyMatched = errors.New("game already has a guest")
	ErrMalformedRequest   = errors.New("malformed request")
)

// ErrInternal matches every *InternalError with errors.Is.
var ErrInternal = errors.New("internal error")

// ErrEngineUnavailable is the cause of an InternalError raised when a
// worker's queue is shut down or a reply never arrives.
var ErrEngineUnavailable = errors.New("game engine unavailable")

// userFaults lists every error a caller can fix by sending different input.
var userFaults = []error{
	ErrNotYourTurn,
	ErrCardNotInHand,
	ErrCantPlayDecreasingCardValue,
	ErrCantRedrawCardJustPlayed,
	ErrNeutralDrawPileEmpty,
	ErrNotFound,
	ErrAlreadyExists,
	ErrGameAlreadyMatched,
	ErrMalformedRequest,
}

// IsUserFault reports whether err is a rejection of the caller's input
// rather than a system failure.
func IsUserFault(err error) bool {
	for _, target := range userFaults {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRuleViolation reports whether err is one of the rules engine's
// validation failures.
func IsRuleViolation(err error) bool {
	for _, target := range userFaults[:5] {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NotFound wraps ErrNotFound with the thing that was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// InternalKind classifies system faults.
type InternalKind string

const (
	// KindStorage is a session store failure
	KindStorage InternalKind = "storage"
	// KindImpossible is a broken invariant, e.g. an empty pile that validation said was not
	KindImpossible InternalKind = "impossible"
	// KindUnavailable is a closed worker queue or a dropped reply
	KindUnavailable InternalKind = "unavailable"
)

// InternalError is a system fault. It carries the cause for logging; the
// HTTP layer never shows it to players.
type InternalError struct {
	Cause error
	Kind  InternalKind
	Op    string
}

func (e *InternalError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("internal %s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("internal %s error: %s: %v", e.Kind, e.Op, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// Is makes every InternalError match ErrInternal.
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// StorageError wraps a session store failure.
func StorageError(op string, cause error) error {
	return &InternalError{Kind: KindStorage, Op: op, Cause: cause}
}

// Impossible reports a broken invariant.
func Impossible(op string) error {
	return &InternalError{Kind: KindImpossible, Op: op}
}

// Unavailable reports that the worker serving a request is gone.
func Unavailable(op string) error {
	return &InternalError{Kind: KindUnavailable, Op: op, Cause: ErrEngineUnavailable}
}
