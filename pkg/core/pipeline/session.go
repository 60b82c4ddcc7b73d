package pipeline

import (
	"context"
	"errors"
	"sync"

	"fre_viewer/pkg/models"
)

// ErrSuperseded is returned for a result that completed after a newer request began.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Session serializes one user's interactive requests: starting a request cancels the
// one in flight, and a late result from an older request is discarded.
type Session struct {
	o *Orchestrator

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSession starts a session on o.
func (o *Orchestrator) NewSession() *Session {
	return &Session{o: o}
}

// GetDocument is Orchestrator.GetDocument under the supersede guard.
func (s *Session) GetDocument(ctx context.Context, company string, item models.ReportItem) (*models.Artifact, error) {
	return guarded(s, ctx, func(ctx context.Context) (*models.Artifact, error) {
		return s.o.GetDocument(ctx, company, item)
	})
}

// Summarize is Orchestrator.Summarize under the supersede guard.
func (s *Session) Summarize(ctx context.Context, artifact *models.Artifact) (*models.Summary, error) {
	return guarded(s, ctx, func(ctx context.Context) (*models.Summary, error) {
		return s.o.Summarize(ctx, artifact)
	})
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Cancel aborts the request in flight, if any. Its result is discarded.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Session) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// finish reports whether gen is still current and releases its context.
func (s *Session) finish(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

func guarded[T any](s *Session, parent context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, gen := s.begin(parent)
	res, err := fn(ctx)
	if !s.finish(gen) {
		var zero T
		return zero, ErrSuperseded
	}
	return res, err
}
