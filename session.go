// Package symlower lowers expression graphs from package expr into the
// symbolic backend of package sx.
//
// A Session owns one set of bindings and the cache that maps every source
// node it has lowered to its backend form. Each distinct source node is
// lowered once per session; later references return the cached *sx.Matrix,
// so the lowered graph shares exactly what the source graph shares.
package symlower

import (
	"log/slog"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/sx"
)

// Observer is told about every node a session resolves, and whether the
// answer came from the cache.
type Observer func(n expr.Node, cached bool)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger lowering passes report to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver installs an observer.
func WithObserver(o Observer) Option { return func(s *Session) { s.observer = o } }

// Session lowers graphs under one set of bindings. It is not safe for
// concurrent use; overlapping calls fail with ErrConcurrentUse.
type Session struct {
	bindings Bindings
	cache    *Cache
	tables   map[*expr.Callable]*sx.Table
	logger   *slog.Logger
	observer Observer
}

func NewSession(b Bindings, opts ...Option) *Session {
	s := &Session{
		bindings: b,
		cache:    newCache(),
		tables:   map[*expr.Callable]*sx.Table{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bindings returns the bindings the session lowers with.
func (s *Session) Bindings() Bindings { return s.bindings }

// Cache exposes the session's cache for inspection.
func (s *Session) Cache() *Cache { return s.cache }

// Rebind replaces the bindings and empties the cache.
func (s *Session) Rebind(b Bindings) error {
	if !s.cache.acquire() {
		return ErrConcurrentUse
	}
	defer s.cache.release()
	s.bindings = b
	s.cache.reset()
	s.logger.Debug("session rebound")
	return nil
}

// Lower returns the backend form of root. On failure it returns a nil
// matrix; the cache keeps the sub-nodes lowered before the failure.
func (s *Session) Lower(root expr.Node) (*sx.Matrix, error) {
	if !s.cache.acquire() {
		return nil, ErrConcurrentUse
	}
	defer s.cache.release()

	hits, misses := s.cache.hits, s.cache.misses
	s.logger.Debug("lowering graph", "root", root.ID(), "kind", root.Kind())
	m, err := s.lower(root)
	if err != nil {
		s.logger.Debug("lowering failed", "root", root.ID(), "error", err)
		return nil, err
	}
	s.logger.Debug("lowered graph",
		"root", root.ID(),
		"shape", m.Shape().String(),
		"lowered", s.cache.misses-misses,
		"reused", s.cache.hits-hits,
	)
	return m, nil
}

// Lower lowers root in a fresh session.
func Lower(root expr.Node, b Bindings, opts ...Option) (*sx.Matrix, error) {
	return NewSession(b, opts...).Lower(root)
}
