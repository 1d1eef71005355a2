package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
	"github.com/germanamz/gridrop/pkg/kv"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithObserver registers an observer for controller events.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithKeyPrefix namespaces the persisted records, e.g. "gridrop:".
func WithKeyPrefix(prefix string) Option {
	return func(c *Controller) { c.prefix = prefix }
}

// WithRules overrides the rules derived from the engine's kind.
func WithRules(r game.Rules) Option {
	return func(c *Controller) { c.rules = r }
}

// WithAIMiddleware wraps every AI search, e.g. with engine.Timeout.
func WithAIMiddleware(mw ...engine.Middleware) Option {
	return func(c *Controller) { c.aiMiddleware = append(c.aiMiddleware, mw...) }
}

// Controller sequences turns for sessions of one game kind. All operations
// on a Controller are serialized: a move and the AI reply it triggers run to
// completion before the next operation starts.
type Controller struct {
	eng       engine.Engine
	rules     game.Rules
	persister *Persister
	log       *slog.Logger
	observers Observers
	prefix    string

	aiMiddleware []engine.Middleware

	mu sync.Mutex
}

// NewController creates a Controller for eng's game kind, persisting sessions
// to store.
func NewController(eng engine.Engine, store kv.Store, opts ...Option) (*Controller, error) {
	if eng == nil {
		return nil, fmt.Errorf("session: engine is required: %w", game.ErrInvalidArgument)
	}
	if store == nil {
		return nil, fmt.Errorf("session: store is required: %w", game.ErrInvalidArgument)
	}

	c := &Controller{eng: eng}
	for _, opt := range opts {
		opt(c)
	}

	if c.rules == nil {
		rules, err := game.RulesFor(eng.Kind())
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		c.rules = rules
	}

	if c.rules.Kind() != eng.Kind() {
		return nil, fmt.Errorf("session: rules for %q do not match engine %q: %w", c.rules.Kind(), eng.Kind(), game.ErrInvalidArgument)
	}

	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.log = c.log.With("game", string(c.rules.Kind()))

	c.aiMiddleware = append([]engine.Middleware{engine.Recovery()}, c.aiMiddleware...)

	c.persister = NewPersister(store, eng, c.rules, c.prefix, c.log)

	return c, nil
}

// Kind returns the game kind this controller serves.
func (c *Controller) Kind() game.Kind { return c.rules.Kind() }

// Persister returns the persister used for checkpoints.
func (c *Controller) Persister() *Persister { return c.persister }

// Start creates a new session and persists it immediately, replacing any
// saved session of this kind. first selects the human's side where the game
// lets the human choose (Toot & Otto); that side moves first. NoToken picks
// the default.
func (c *Controller) Start(ctx context.Context, size game.BoardSize, mode game.Difficulty, first game.Token) (*Session, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("session: start: board size %v: %w", size, game.ErrInvalidArgument)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("session: start: mode %v: %w", mode, game.ErrInvalidArgument)
	}

	player, err := c.rules.PlayerToken(first)
	if err != nil {
		return nil, fmt.Errorf("session: start: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Session{
		id:     uuid.NewString(),
		kind:   c.rules.Kind(),
		size:   size,
		mode:   mode,
		turn:   player,
		result: game.Ongoing,
		player: player,
		board:  c.eng.NewBoard(size),
	}
	attachAI(s, c.eng, c.rules)

	if err := c.persister.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("session: start: %w", err)
	}

	c.log.InfoContext(ctx, "session started",
		"session", s.id,
		"size", size.String(),
		"mode", mode.String(),
		"player", player.String(),
	)
	c.emit(ctx, Event{Kind: EventSessionStarted, SessionID: s.id})

	return s, nil
}

// Restore rehydrates the saved session. It reports false when nothing usable
// is saved; callers then Start a new session.
func (c *Controller) Restore(ctx context.Context) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.persister.Load(ctx)
	if !ok {
		return nil, false
	}

	c.log.InfoContext(ctx, "session restored", "session", s.id, "turn", s.turn.String(), "result", s.result.String())
	c.emit(ctx, Event{Kind: EventSessionRestored, SessionID: s.id, Outcome: Outcome{Status: NoOp, Result: s.result}})

	return s, true
}

// Resume restores the saved session or, when there is none, starts a new one
// with the given settings. The boolean reports whether the session was
// restored.
func (c *Controller) Resume(ctx context.Context, size game.BoardSize, mode game.Difficulty, first game.Token) (*Session, bool, error) {
	if s, ok := c.Restore(ctx); ok {
		return s, true, nil
	}

	s, err := c.Start(ctx, size, mode, first)

	return s, false, err
}

// Discard deletes the saved session of this kind.
func (c *Controller) Discard(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.persister.Delete(ctx)
}

// ApplyMove plays a human move in column. letter is required for Toot & Otto
// and must be NoLetter for Connect Four.
//
// A move into a full or nonexistent column, a move on a finished game, or a
// human move while the AI owns the turn is Rejected: nothing changes and
// nothing is written. An accepted move is persisted exactly once.
func (c *Controller) ApplyMove(ctx context.Context, s *Session, column int, letter game.Letter) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.applyMove(ctx, s, column, letter)
}

// MaybeRequestAIMove lets the AI play exactly one move when the session is in
// progress, has an AI and the AI owns the turn. Otherwise it is a NoOp.
func (c *Controller) MaybeRequestAIMove(ctx context.Context, s *Session) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.maybeRequestAIMove(ctx, s)
}

// Play handles one UI move event: the human move followed, when the game is
// still running, by at most one AI reply.
func (c *Controller) Play(ctx context.Context, s *Session, column int, letter game.Letter) (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t Turn

	player, err := c.applyMove(ctx, s, column, letter)
	t.Player = player
	if err != nil || !player.Accepted() || player.Result.Terminal() {
		t.AI = Outcome{Status: NoOp, Result: s.result}
		return t, err
	}

	t.AI, err = c.maybeRequestAIMove(ctx, s)

	return t, err
}

// ResolveTerminal returns the session result, asking the engine only while
// the game is still running. Once terminal, the result is cached and the
// engine is never queried again for this session.
func (c *Controller) ResolveTerminal(s *Session) (game.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(s); err != nil {
		return s.result, err
	}

	res, err := c.resolve(s)
	if err != nil {
		return s.result, c.fail(context.Background(), s, err)
	}

	return res, nil
}

func (c *Controller) check(s *Session) error {
	if s == nil {
		return fmt.Errorf("session: nil session: %w", game.ErrInvalidArgument)
	}
	if s.kind != c.rules.Kind() {
		return fmt.Errorf("session: %q session on %q controller: %w", s.kind, c.rules.Kind(), game.ErrInvalidArgument)
	}

	return s.failed
}

func (c *Controller) applyMove(ctx context.Context, s *Session, column int, letter game.Letter) (Outcome, error) {
	if err := c.check(s); err != nil {
		return Outcome{}, err
	}

	if s.result.Terminal() {
		return c.reject(ctx, s, column, letter, ReasonGameOver), nil
	}

	if err := c.rules.CheckLetter(letter); err != nil {
		return Outcome{}, fmt.Errorf("session: apply move: %w", err)
	}

	if s.ai != nil && s.turn == s.aiToken {
		return c.reject(ctx, s, column, letter, ReasonAITurn), nil
	}

	if !c.eng.AllowsMove(s.board, column) {
		return c.reject(ctx, s, column, letter, ReasonColumnUnavailable), nil
	}

	return c.place(ctx, s, engine.Move{Column: column, Letter: letter}, false, 0)
}

func (c *Controller) maybeRequestAIMove(ctx context.Context, s *Session) (Outcome, error) {
	if err := c.check(s); err != nil {
		return Outcome{}, err
	}

	noop := Outcome{Status: NoOp, Result: s.result}
	if s.result.Terminal() || s.ai == nil || s.turn != s.aiToken {
		return noop, nil
	}

	ai := engine.Chain(s.ai, c.aiMiddleware...)

	start := time.Now()
	m, err := ai.BestMove(ctx, s.board, s.aiToken)
	elapsed := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return noop, fmt.Errorf("session: ai move: %w", ctxErr)
		}
		// A search cut short by its time budget leaves the turn with the AI.
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.WarnContext(ctx, "ai move timed out", "session", s.id, "elapsed", elapsed)
			return noop, fmt.Errorf("session: ai move: %w", err)
		}
		return Outcome{}, c.fail(ctx, s, fmt.Errorf("ai search failed: %w", err))
	}

	if err := c.rules.CheckLetter(m.Letter); err != nil {
		return Outcome{}, c.fail(ctx, s, fmt.Errorf("ai move shape: %w", err))
	}

	if !c.eng.AllowsMove(s.board, m.Column) {
		return Outcome{}, c.fail(ctx, s, fmt.Errorf("ai chose unavailable column %d", m.Column))
	}

	return c.place(ctx, s, m, true, elapsed)
}

// place applies an allowed move for the side owning the turn, advances the
// turn, resolves the result and writes one checkpoint.
func (c *Controller) place(ctx context.Context, s *Session, m engine.Move, byAI bool, elapsed time.Duration) (Outcome, error) {
	actor := s.turn

	if err := c.eng.PerformMove(s.board, m, actor); err != nil {
		return Outcome{}, c.fail(ctx, s, fmt.Errorf("allowed move refused: %w", err))
	}

	s.turn = c.rules.Opponent(actor)

	res, err := c.resolve(s)
	if err != nil {
		return Outcome{}, c.fail(ctx, s, err)
	}

	out := Outcome{
		Status: Accepted,
		Actor:  actor,
		ByAI:   byAI,
		Column: m.Column,
		Letter: m.Letter,
		Result: res,
	}

	if err := c.persister.Save(ctx, s); err != nil {
		c.log.ErrorContext(ctx, "checkpoint failed", "session", s.id, "error", err)
		c.emit(ctx, Event{Kind: EventError, SessionID: s.id, Outcome: out, Err: err})
		return out, err
	}

	c.emit(ctx, Event{Kind: EventMoveAccepted, SessionID: s.id, Outcome: out, Elapsed: elapsed})

	if res.Terminal() {
		c.log.InfoContext(ctx, "game over", "session", s.id, "result", res.String())
		c.emit(ctx, Event{Kind: EventGameOver, SessionID: s.id, Outcome: out})
	}

	return out, nil
}

func (c *Controller) resolve(s *Session) (game.Result, error) {
	if s.result.Terminal() {
		return s.result, nil
	}

	if !c.eng.IsTerminal(s.board) {
		return game.Ongoing, nil
	}

	res, err := c.rules.MapResult(c.eng.Result(s.board))
	if err != nil {
		return game.Ongoing, err
	}

	s.result = res

	return res, nil
}

func (c *Controller) reject(ctx context.Context, s *Session, column int, letter game.Letter, reason RejectReason) Outcome {
	out := Outcome{
		Status: Rejected,
		Reason: reason,
		Actor:  s.turn,
		Column: column,
		Letter: letter,
		Result: s.result,
	}

	c.log.DebugContext(ctx, "move rejected", "session", s.id, "column", column, "reason", string(reason))
	c.emit(ctx, Event{Kind: EventMoveRejected, SessionID: s.id, Outcome: out})

	return out
}

// fail marks s as unusable and reports err as an engine inconsistency.
func (c *Controller) fail(ctx context.Context, s *Session, err error) error {
	if !errors.Is(err, game.ErrEngineInconsistency) {
		err = fmt.Errorf("%w: %w", game.ErrEngineInconsistency, err)
	}
	err = fmt.Errorf("session %s: %w", s.id, err)
	s.failed = err

	c.log.ErrorContext(ctx, "engine inconsistency", "session", s.id, "error", err)
	c.emit(ctx, Event{Kind: EventError, SessionID: s.id, Outcome: Outcome{Status: NoOp, Result: s.result}, Err: err})

	return err
}

func (c *Controller) emit(ctx context.Context, e Event) {
	if len(c.observers) == 0 {
		return
	}

	e.Game = c.rules.Kind()
	c.observers.Observe(ctx, e)
}
