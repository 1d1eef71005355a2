package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/germanamz/gridrop/pkg/engine/enginetest"
	"github.com/germanamz/gridrop/pkg/game"
	"github.com/germanamz/gridrop/pkg/kv"
	"github.com/stretchr/testify/require"
)

// countingStore wraps kv.Memory and counts writes. failSet, when set, fails
// writes to failKey, or every write when failKey is empty.
type countingStore struct {
	kv.Memory

	mu      sync.Mutex
	sets    int
	failSet error
	failKey string
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failSet
	if s.failKey != "" && s.failKey != key {
		fail = nil
	}
	s.sets++
	s.mu.Unlock()

	if fail != nil {
		return fail
	}

	return s.Memory.Set(ctx, key, value)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sets
}

// recorder collects controller events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}

	return out
}

type fixture struct {
	ctrl  *Controller
	eng   *enginetest.Engine
	store *countingStore
	rec   *recorder
}

func newFixture(t *testing.T, kind game.Kind, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		eng:   enginetest.New(kind),
		store: &countingStore{},
		rec:   &recorder{},
	}

	opts = append([]Option{WithObserver(f.rec)}, opts...)

	ctrl, err := NewController(f.eng, f.store, opts...)
	require.NoError(t, err)
	f.ctrl = ctrl

	return f
}

func (f *fixture) start(t *testing.T, size game.BoardSize, mode game.Difficulty, first game.Token) *Session {
	t.Helper()

	s, err := f.ctrl.Start(context.Background(), size, mode, first)
	require.NoError(t, err)

	return s
}

func (f *fixture) board(s *Session) *enginetest.Board {
	return s.Board().(*enginetest.Board)
}

func (f *fixture) serialized(t *testing.T, s *Session) string {
	t.Helper()

	data, err := f.eng.Serialize(s.Board())
	require.NoError(t, err)

	return data
}

// letterFor returns the letter a test move carries for kind.
func letterFor(kind game.Kind) game.Letter {
	if kind == game.TootOtto {
		return game.LetterT
	}

	return game.NoLetter
}

var errBoom = errors.New("boom")
