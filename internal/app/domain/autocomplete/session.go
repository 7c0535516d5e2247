// Package autocomplete drives the location search box: debounced suggestion
// lookups and the session token shared with the final place-details call.
package autocomplete

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
)

// State is the phase of the suggestion pipeline.
type State int

const (
	Idle State = iota
	Debouncing
	AwaitingSuggestions
	SuggestionsReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case AwaitingSuggestions:
		return "awaiting_suggestions"
	case SuggestionsReady:
		return "suggestions_ready"
	}
	return "unknown"
}

const (
	DefaultDebounce  = 400 * time.Millisecond
	DefaultMinLength = 3
)

type Config struct {
	Debounce  time.Duration
	MinLength int
	Countries []string
}

// Handlers receive the session's outputs. They are called without the
// session lock held and may call back into the session.
type Handlers struct {
	Suggestions func([]places.Suggestion)
	Place       func(models.GeoPoint)
	Error       func(error)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the timer source.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithRunner replaces how provider calls are dispatched. The default runs each
// call on its own goroutine.
func WithRunner(run func(func())) Option {
	return func(s *Session) { s.run = run }
}

// WithReady installs the precondition checked before place details are
// requested.
func WithReady(ready func() bool) Option {
	return func(s *Session) { s.ready = ready }
}

func WithTokenSource(next func() places.SessionToken) Option {
	return func(s *Session) { s.newToken = next }
}

// Session is one location search box. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg      Config
	provider places.Provider
	handlers Handlers
	logger   *zap.Logger
	clock    clock.Clock
	run      func(func())
	ready    func() bool
	newToken func() places.SessionToken

	ctx    context.Context
	cancel context.CancelFunc

	state       State
	input       string
	suggestions []places.Suggestion
	token       places.SessionToken
	timer       clock.Timer
	inputSeq    uint64
	selectSeq   uint64
	closed      bool
}

func NewSession(provider places.Provider, cfg Config, handlers Handlers, logger *zap.Logger, opts ...Option) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:      cfg,
		provider: provider,
		handlers: handlers,
		logger:   logger,
		clock:    clock.New(),
		run:      func(f func()) { go f() },
		newToken: places.NewSessionToken,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnFocus creates the session token if none is live.
func (s *Session) OnFocus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ensureToken()
}

// OnInput restarts the debounce window for text.
func (s *Session) OnInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.input = text
	s.inputSeq++
	seq := s.inputSeq
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = Debouncing
	s.timer = s.clock.AfterFunc(s.cfg.Debounce, func() { s.fire(seq) })
}

func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.inputSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	if utf8.RuneCountInString(s.input) < s.cfg.MinLength {
		emit := s.clearLocked()
		s.mu.Unlock()
		emit()
		return
	}

	s.ensureToken()
	req := places.SuggestRequest{
		Input:     s.input,
		Countries: s.cfg.Countries,
		Token:     s.token,
	}
	s.state = AwaitingSuggestions
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Debug("Requesting place suggestions", zap.String("input", req.Input))
	s.run(func() {
		out, err := s.provider.Suggest(ctx, req)
		s.applySuggestions(seq, out, err)
	})
}

func (s *Session) applySuggestions(seq uint64, out []places.Suggestion, err error) {
	s.mu.Lock()
	if s.closed || seq != s.inputSeq {
		s.mu.Unlock()
		return
	}

	if err != nil || len(out) == 0 {
		emit := s.clearLocked()
		s.mu.Unlock()
		emit()
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("Place suggestions failed", zap.Error(err))
			s.emitError(err)
		}
		return
	}

	s.suggestions = append([]places.Suggestion(nil), out...)
	s.state = SuggestionsReady
	list := s.snapshotLocked()
	s.mu.Unlock()

	if s.handlers.Suggestions != nil {
		s.handlers.Suggestions(list)
	}
}

// OnSelect resolves the picked suggestion into a search origin. Suggestions
// are cleared at once and any suggestion response still in flight is
// dropped. It returns places.ErrMapNotReady synchronously when the map
// surface does not exist yet; nothing is requested in that case.
func (s *Session) OnSelect(placeID string) error {
	ready := s.ready == nil || s.ready()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.inputSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	emit := s.clearLocked()

	if !ready {
		s.mu.Unlock()
		emit()
		return places.ErrMapNotReady
	}

	s.ensureToken()
	token := s.token
	s.token = ""
	s.selectSeq++
	seq := s.selectSeq
	ctx := s.ctx
	s.mu.Unlock()
	emit()

	s.run(func() {
		pt, err := s.provider.Details(ctx, placeID, token)
		s.applyPlace(seq, pt, err)
	})
	return nil
}

func (s *Session) applyPlace(seq uint64, pt models.GeoPoint, err error) {
	s.mu.Lock()
	stale := s.closed || seq != s.selectSeq
	s.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("Place details failed", zap.Error(err))
		s.emitError(err)
		return
	}
	if s.handlers.Place != nil {
		s.handlers.Place(pt)
	}
}

// Close aborts in-flight requests and pending timers. No handler runs after
// Close returns, except one already executing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	s.suggestions = nil
	s.state = Idle
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Suggestions() []places.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the live session token, or "" when none exists.
func (s *Session) Token() places.SessionToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) ensureToken() {
	if s.token == "" {
		s.token = s.newToken()
	}
}

// clearLocked resets to idle and returns the notification to send once the
// lock is released.
func (s *Session) clearLocked() func() {
	hadSuggestions := len(s.suggestions) > 0
	s.suggestions = nil
	s.state = Idle
	return func() {
		if hadSuggestions && s.handlers.Suggestions != nil {
			s.handlers.Suggestions(nil)
		}
	}
}

func (s *Session) snapshotLocked() []places.Suggestion {
	if len(s.suggestions) == 0 {
		return nil
	}
	return append([]places.Suggestion(nil), s.suggestions...)
}

func (s *Session) emitError(err error) {
	if s.handlers.Error != nil {
		s.handlers.Error(err)
	}
}
