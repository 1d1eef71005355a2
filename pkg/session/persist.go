package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/germanamz/gridrop/pkg/engine"
	"github.com/germanamz/gridrop/pkg/game"
	"github.com/germanamz/gridrop/pkg/kv"
)

// record is the metadata persisted under the game key. The board travels
// separately under the paired board key; BoardSum pairs the two.
type record struct {
	ID          string          `json:"id,omitempty"`
	Size        game.BoardSize  `json:"size"`
	Mode        game.Difficulty `json:"mode"`
	Turn        game.Token      `json:"turn"`
	Result      game.Status     `json:"result"`
	Winner      game.Token      `json:"winner,omitempty"`
	PlayerToken game.Token      `json:"playerToken,omitempty"`
	BoardSum    string          `json:"boardSum"`
}

// boardSum fingerprints a serialized board.
func boardSum(data string) string {
	return strconv.FormatUint(xxhash.Sum64String(data), 16)
}

// Persister round-trips sessions of one game kind through a kv.Store. The
// metadata lives under "<prefix><kind>" and the engine-serialized board under
// "<prefix><kind>board".
type Persister struct {
	store  kv.Store
	eng    engine.Engine
	rules  game.Rules
	prefix string
	log    *slog.Logger
}

// NewPersister creates a Persister. A nil logger discards log output.
func NewPersister(store kv.Store, eng engine.Engine, rules game.Rules, prefix string, log *slog.Logger) *Persister {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Persister{store: store, eng: eng, rules: rules, prefix: prefix, log: log}
}

// MetaKey returns the key holding session metadata.
func (p *Persister) MetaKey() string { return p.prefix + string(p.rules.Kind()) }

// BoardKey returns the key holding the serialized board.
func (p *Persister) BoardKey() string { return p.MetaKey() + "board" }

// Save writes both records for s, board first. The metadata carries the
// board's fingerprint, so a save that fails between the two writes leaves a
// pair that Load refuses.
func (p *Persister) Save(ctx context.Context, s *Session) error {
	board, err := p.eng.Serialize(s.board)
	if err != nil {
		return fmt.Errorf("session: serialize board: %w", err)
	}

	rec := record{
		ID:          s.id,
		Size:        s.size,
		Mode:        s.mode,
		Turn:        s.turn,
		Result:      s.result.Status,
		Winner:      s.result.Winner,
		PlayerToken: s.player,
		BoardSum:    boardSum(board),
	}

	meta, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: encode metadata: %w", err)
	}

	if err := p.store.Set(ctx, p.BoardKey(), board); err != nil {
		return fmt.Errorf("session: save board: %w", err)
	}

	if err := p.store.Set(ctx, p.MetaKey(), string(meta)); err != nil {
		return fmt.Errorf("session: save metadata: %w", err)
	}

	return nil
}

// Load rehydrates the saved session. It reports false when either record is
// missing, unreadable or inconsistent; the caller should then start fresh.
// Load never returns an error.
func (p *Persister) Load(ctx context.Context) (*Session, bool) {
	meta, ok := p.read(ctx, p.MetaKey())
	if !ok {
		return nil, false
	}

	data, ok := p.read(ctx, p.BoardKey())
	if !ok {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal([]byte(meta), &rec); err != nil {
		p.log.WarnContext(ctx, "discarding saved session: bad metadata", "game", p.rules.Kind(), "error", err)
		return nil, false
	}

	rec, err := p.normalize(rec)
	if err != nil {
		p.log.WarnContext(ctx, "discarding saved session: invalid metadata", "game", p.rules.Kind(), "error", err)
		return nil, false
	}

	if rec.BoardSum != boardSum(data) {
		p.log.WarnContext(ctx, "discarding saved session: metadata and board do not match",
			"game", p.rules.Kind(),
			"session", rec.ID,
		)
		return nil, false
	}

	board, err := p.eng.Deserialize(rec.Size, data)
	if err != nil {
		p.log.WarnContext(ctx, "discarding saved session: bad board",
			"game", p.rules.Kind(),
			"error", errors.Join(game.ErrEngineInconsistency, err),
		)
		return nil, false
	}

	s := &Session{
		id:     rec.ID,
		kind:   p.rules.Kind(),
		size:   rec.Size,
		mode:   rec.Mode,
		turn:   rec.Turn,
		result: game.Result{Status: rec.Result, Winner: rec.Winner},
		player: rec.PlayerToken,
		board:  board,
	}
	attachAI(s, p.eng, p.rules)

	return s, true
}

// Delete removes both records.
func (p *Persister) Delete(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.MetaKey()); err != nil {
		return fmt.Errorf("session: delete metadata: %w", err)
	}

	if err := p.store.Delete(ctx, p.BoardKey()); err != nil {
		return fmt.Errorf("session: delete board: %w", err)
	}

	return nil
}

func (p *Persister) read(ctx context.Context, key string) (string, bool) {
	v, err := p.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		p.log.DebugContext(ctx, "no saved record", "key", key)
		return "", false
	}
	if err != nil {
		p.log.WarnContext(ctx, "reading saved record failed", "key", key, "error", err)
		return "", false
	}

	return v, true
}

func (p *Persister) normalize(rec record) (record, error) {
	if !rec.Size.Valid() || !rec.Mode.Valid() {
		return rec, fmt.Errorf("size %v mode %v: %w", rec.Size, rec.Mode, game.ErrInvalidArgument)
	}

	if !hasToken(p.rules, rec.Turn) {
		return rec, fmt.Errorf("turn %q: %w", rec.Turn, game.ErrInvalidArgument)
	}

	// Records written before the player side was stored fall back to the
	// default side.
	player, err := p.rules.PlayerToken(rec.PlayerToken)
	if err != nil {
		return rec, err
	}
	rec.PlayerToken = player

	if rec.Result == game.Win && !hasToken(p.rules, rec.Winner) {
		return rec, fmt.Errorf("winner %q: %w", rec.Winner, game.ErrInvalidArgument)
	}

	return rec, nil
}

// hasToken reports whether t is one of the sides of rules' game.
func hasToken(rules game.Rules, t game.Token) bool {
	for _, side := range rules.Tokens() {
		if side == t {
			return true
		}
	}

	return false
}

// attachAI builds the AI handle from mode and the opponent of the player's
// side. The handle is never persisted.
func attachAI(s *Session, eng engine.Engine, rules game.Rules) {
	if !s.mode.HasAI() {
		s.ai = nil
		s.aiToken = game.NoToken
		return
	}

	s.aiToken = rules.Opponent(s.player)
	s.ai = eng.NewAI(s.mode, s.aiToken)
}
