package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/gridrop/pkg/game"
)

// Middleware wraps an AI, returning a new AI with added behaviour.
type Middleware func(next AI) AI

// Chain applies mw to ai so that the first middleware is the outermost.
func Chain(ai AI, mw ...Middleware) AI {
	for i := len(mw) - 1; i >= 0; i-- {
		ai = mw[i](ai)
	}

	return ai
}

// --- Timeout middleware ---

// Timeout returns a Middleware that bounds each search with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next AI) AI {
		return AIFunc(func(ctx context.Context, b Board, actor game.Token) (Move, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.BestMove(ctx, b, actor)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next AI) AI {
		return AIFunc(func(ctx context.Context, b Board, actor game.Token) (m Move, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("engine: ai panicked: %v", r)
				}
			}()

			return next.BestMove(ctx, b, actor)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs every search with its duration.
func Logger(log *slog.Logger) Middleware {
	return func(next AI) AI {
		return AIFunc(func(ctx context.Context, b Board, actor game.Token) (Move, error) {
			start := time.Now()

			m, err := next.BestMove(ctx, b, actor)

			duration := time.Since(start)

			if err != nil {
				log.WarnContext(ctx, "ai search failed",
					"actor", actor.String(),
					"duration", duration,
					"error", err,
				)
			} else {
				log.DebugContext(ctx, "ai search finished",
					"actor", actor.String(),
					"column", m.Column,
					"duration", duration,
				)
			}

			return m, err
		})
	}
}
