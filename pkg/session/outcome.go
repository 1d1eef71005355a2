package session

import (
	"context"
	"time"

	"github.com/germanamz/gridrop/pkg/game"
)

// OutcomeStatus classifies the effect of a move request.
type OutcomeStatus int

const (
	// Accepted: the move was applied and persisted.
	Accepted OutcomeStatus = iota
	// Rejected: the move was illegal; nothing changed.
	Rejected
	// NoOp: there was nothing to do, e.g. the AI was not due to move.
	NoOp
)

func (s OutcomeStatus) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case NoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// RejectReason tells the caller why a move was rejected.
type RejectReason string

const (
	ReasonNone              RejectReason = ""
	ReasonGameOver          RejectReason = "game_over"
	ReasonColumnUnavailable RejectReason = "column_unavailable"
	ReasonAITurn            RejectReason = "ai_turn"
)

// Outcome reports what a move request did.
type Outcome struct {
	Status OutcomeStatus
	Reason RejectReason
	Actor  game.Token
	ByAI   bool
	Column int
	Letter game.Letter
	// Result is the session result after the request.
	Result game.Result
}

// Accepted reports whether the move was applied.
func (o Outcome) Accepted() bool { return o.Status == Accepted }

// Turn is the full effect of one UI move event: the player's move and the AI
// reply it triggered, if any.
type Turn struct {
	Player Outcome
	AI     Outcome
}

// Result returns the session result after the whole turn.
func (t Turn) Result() game.Result {
	if t.AI.Accepted() {
		return t.AI.Result
	}

	return t.Player.Result
}

// EventKind identifies a controller event.
type EventKind string

const (
	EventSessionStarted  EventKind = "session_started"
	EventSessionRestored EventKind = "session_restored"
	EventMoveAccepted    EventKind = "move_accepted"
	EventMoveRejected    EventKind = "move_rejected"
	EventGameOver        EventKind = "game_over"
	EventError           EventKind = "error"
)

// Event is an immutable notification of controller activity.
type Event struct {
	Kind      EventKind
	Game      game.Kind
	SessionID string
	Outcome   Outcome
	// Elapsed is the AI search time for AI moves.
	Elapsed time.Duration
	Err     error
}

// Observer receives controller events synchronously. Implementations must
// not call back into the Controller.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

// Observe calls the underlying function.
func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }

// Observers fans an event out to several observers in order.
type Observers []Observer

// Observe calls every observer.
func (os Observers) Observe(ctx context.Context, e Event) {
	for _, o := range os {
		o.Observe(ctx, e)
	}
}
