package auth

import (
	"context"

	"go.uber.org/zap"
)

// Status is the outcome of a cold-start session attempt.
type Status int

const (
	StatusNotEstablished Status = iota
	StatusEstablished
)

func (s Status) String() string {
	if s == StatusEstablished {
		return "established"
	}
	return "not established"
}

// Bootstrap restores a remembered session on startup by trading the
// session cookie for a fresh access token.
type Bootstrap struct {
	tokens    *TokenStore
	refresher *Refresher
	logger    *zap.SugaredLogger
}

func NewBootstrap(tokens *TokenStore, refresher *Refresher, logger *zap.SugaredLogger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bootstrap{tokens: tokens, refresher: refresher, logger: logger}
}

// Run decides whether a session exists, refreshing at most once.
// A failed refresh is logged and reported as StatusNotEstablished.
func (b *Bootstrap) Run(ctx context.Context) Status {
	if b.tokens.Get() != nil {
		return StatusEstablished
	}
	if !b.tokens.Remember() {
		return StatusNotEstablished
	}
	if _, err := b.refresher.Refresh(ctx); err != nil {
		b.logger.Infow("session not restored", "err", err)
		return StatusNotEstablished
	}
	return StatusEstablished
}

// Start runs the bootstrap in the background. report is called with the
// outcome only if ctx is still live when it completes; the returned
// channel always receives the outcome and is then closed.
func (b *Bootstrap) Start(ctx context.Context, report func(Status)) <-chan Status {
	done := make(chan Status, 1)
	go func() {
		defer close(done)
		st := b.Run(ctx)
		if ctx.Err() == nil && report != nil {
			report(st)
		}
		done <- st
	}()
	return done
}
