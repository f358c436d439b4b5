// Package events defines the typed domain events the matching core
// emits and the emitter contract consumers register against. Emission
// is fire-and-forget: a failed emit never rolls back the state that
// produced it, and downstream consumers can re-derive match state
// idempotently if a delivery is lost.
package events

import (
	"context"
	"log/slog"
	"time"
)

// MatchCreated is published exactly when a mutual positive swipe pair
// is promoted to a match.
type MatchCreated struct {
	MatchID   string    `json:"match_id"`
	UserAID   uint64    `json:"user_a_id"`
	UserBID   uint64    `json:"user_b_id"`
	MatchedAt time.Time `json:"matched_at"`
}

// Emitter delivers domain events to a notification collaborator.
// Implementations must be fast or internally asynchronous; the swipe
// path calls this on the request thread of control.
type Emitter interface {
	EmitMatchCreated(ctx context.Context, ev MatchCreated)
}

// LogEmitter writes events to the log. It is the default when no
// broker is configured.
type LogEmitter struct {
	Logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{Logger: logger}
}

func (e *LogEmitter) EmitMatchCreated(ctx context.Context, ev MatchCreated) {
	e.Logger.Info("match created",
		"match_id", ev.MatchID,
		"user_a", ev.UserAID,
		"user_b", ev.UserBID,
	)
}

// ChannelEmitter pushes events onto a buffered channel for embedding
// callers. A full channel drops the event rather than blocking the
// swipe path; consumers needing at-least-once should use the AMQP
// emitter instead.
type ChannelEmitter struct {
	C chan MatchCreated
}

func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{C: make(chan MatchCreated, buffer)}
}

func (e *ChannelEmitter) EmitMatchCreated(ctx context.Context, ev MatchCreated) {
	select {
	case e.C <- ev:
	default:
	}
}
