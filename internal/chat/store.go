// Package chat owns the conversation session: the ordered message list, the
// pending flag and the queue of sends waiting for the in-flight reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diogo/agi/internal/api"
	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/views"
)

// FallbackReply is appended in place of a reply whenever generation fails
const FallbackReply = "Critical system failure in cognitive module."

// DefaultTimeout bounds a single gateway call
const DefaultTimeout = 120 * time.Second

// ErrSessionReset is returned to a blocking send that was still queued when
// the session was reset
var ErrSessionReset = errors.New("session reset before the send was dispatched")

// Navigator is the part of views.Controller the store drives
type Navigator interface {
	Navigate(v views.View)
}

// SettingsFunc returns the settings a new request should be sent with
type SettingsFunc func() config.AppSettings

// Request is one gateway call in flight. History is the session as it was
// before Prompt was appended.
type Request struct {
	ID       string
	Epoch    uint64
	Prompt   string
	History  []models.Message
	Settings config.AppSettings
}

// queuedSend is a send waiting for the in-flight request. ready is set for
// blocking callers: Settle hands the started request over on it, and
// ResetSession closes it.
type queuedSend struct {
	text  string
	ready chan *Request
}

// Store is the conversation session. All methods are safe for concurrent use.
//
// A send is split into Begin (append the user entry, raise pending), Execute
// (the gateway call, run off the UI loop) and Settle (append the reply or the
// fallback, clear pending). SendMessage composes the three for blocking callers.
type Store struct {
	gateway  api.Gateway
	settings SettingsFunc
	nav      Navigator
	logger   zerolog.Logger
	timeout  time.Duration

	mu        sync.Mutex
	messages  []models.Message
	pending   bool
	queue     []*queuedSend
	epoch     uint64
	sessionID string
	lastErr   error
}

// Option configures a Store
type Option func(*Store)

// WithNavigator sets the view controller that sends and resets switch to the
// conversation view
func WithNavigator(n Navigator) Option {
	return func(s *Store) {
		s.nav = n
	}
}

// WithLogger sets the store logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTimeout bounds each gateway call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewStore creates an empty session
func NewStore(gateway api.Gateway, settings SettingsFunc, opts ...Option) *Store {
	if settings == nil {
		settings = config.DefaultSettings
	}
	s := &Store{
		gateway:   gateway,
		settings:  settings,
		logger:    zerolog.Nop(),
		timeout:   DefaultTimeout,
		messages:  []models.Message{},
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin starts a send. The conversation view becomes active immediately.
//
// If no reply is outstanding the user entry is appended, pending is raised and
// the returned Request must be passed to Execute and then Settle. If a reply is
// outstanding the text is queued and Begin returns (nil, nil); it is dispatched
// by the Settle of the request ahead of it.
func (s *Store) Begin(text string) (*Request, error) {
	req, _, err := s.begin(text, false)
	return req, err
}

// begin starts text or queues it. With wait set, a queued send gets its own
// handoff entry instead of being run by whoever settles the request ahead.
func (s *Store) begin(text string, wait bool) (*Request, *queuedSend, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, apierrors.ErrEmptyPrompt
	}
	s.navigate()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return s.startLocked(text), nil, nil
	}
	q := &queuedSend{text: text}
	if wait {
		q.ready = make(chan *Request, 1)
	}
	s.queue = append(s.queue, q)
	s.logger.Debug().Int("queued", len(s.queue)).Msg("send queued behind in-flight request")
	return nil, q, nil
}

// startLocked appends the user entry and builds its request.
// MUST be called with s.mu held
func (s *Store) startLocked(text string) *Request {
	req := &Request{
		ID:       uuid.NewString(),
		Epoch:    s.epoch,
		Prompt:   text,
		History:  models.CloneMessages(s.messages),
		Settings: s.settings(),
	}
	s.messages = append(s.messages, models.UserMessage(text))
	s.pending = true
	return req
}

// Execute performs the gateway call for req. A panicking gateway is reported
// as ErrGatewayPanic.
func (s *Store) Execute(ctx context.Context, req *Request) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = "", fmt.Errorf("%w: %v", apierrors.ErrGatewayPanic, r)
		}
	}()

	if s.gateway == nil {
		return "", fmt.Errorf("%w: no gateway configured", apierrors.ErrUnknownProvider)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err = s.gateway.Generate(ctx, req.Prompt, req.History, req.Settings)
	s.logger.Debug().
		Str("request_id", req.ID).
		Str("provider", req.Settings.Provider).
		Str("model", req.Settings.Model).
		Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).
		Msg("gateway call finished")
	return reply, err
}

// Settle records the outcome of req and clears pending. A failed call appends
// FallbackReply. Outcomes for a session that has since been reset are dropped.
// When sends were queued behind req, the next one is started. It is returned
// to the caller unless a blocking sender is waiting for it.
func (s *Store) Settle(req *Request, reply string, err error) *Request {
	if req == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Epoch != s.epoch {
		s.logger.Debug().Str("request_id", req.ID).Msg("discarding reply for a reset session")
		return nil
	}

	s.lastErr = err
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("kind", apierrors.Kind(err)).
			Str("request_id", req.ID).
			Str("provider", req.Settings.Provider).
			Msg("generation failed")
		reply = FallbackReply
	}
	s.messages = append(s.messages, models.ModelMessage(reply))
	s.pending = false

	if len(s.queue) == 0 {
		return nil
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.logger.Debug().Int("remaining", len(s.queue)).Msg("dispatching queued send")
	started := s.startLocked(next.text)
	if next.ready != nil {
		next.ready <- started
		return nil
	}
	return started
}

// SendMessage runs a full send and returns once its reply has settled. A send
// made while another is in flight waits for its turn and then runs under ctx.
// Sends queued through Begin behind it are run before returning.
//
// Gateway failures are not returned; they surface as FallbackReply in the
// session and through LastError. ctx ending while the send is still queued
// withdraws it and returns ctx.Err().
func (s *Store) SendMessage(ctx context.Context, text string) error {
	req, q, err := s.begin(text, true)
	if err != nil {
		return err
	}
	if q != nil {
		if req, err = s.await(ctx, q); err != nil {
			return err
		}
	}
	for req != nil {
		req = s.run(ctx, req)
	}
	return nil
}

// await blocks until q is dispatched, withdrawn or dropped by a reset
func (s *Store) await(ctx context.Context, q *queuedSend) (*Request, error) {
	select {
	case req, ok := <-q.ready:
		if !ok {
			return nil, ErrSessionReset
		}
		return req, nil
	case <-ctx.Done():
	}

	if s.withdraw(q) {
		return nil, ctx.Err()
	}
	// Dispatched or reset concurrently; a dispatched request still has to
	// settle so pending clears.
	req, ok := <-q.ready
	if !ok {
		return nil, ErrSessionReset
	}
	return req, nil
}

// withdraw removes q from the queue and reports whether it was still there
func (s *Store) withdraw(q *queuedSend) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, queued := range s.queue {
		if queued == q {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) run(ctx context.Context, req *Request) (next *Request) {
	reply := ""
	err := fmt.Errorf("%w: request interrupted", apierrors.ErrGatewayPanic)
	defer func() {
		next = s.Settle(req, reply, err)
	}()
	reply, err = s.Execute(ctx, req)
	return next
}

// ResetSession empties the session, clears pending and the queue, and shows
// the conversation view. Replies still in flight will be discarded.
func (s *Store) ResetSession() {
	s.mu.Lock()
	s.messages = []models.Message{}
	s.pending = false
	for _, q := range s.queue {
		if q.ready != nil {
			close(q.ready)
		}
	}
	s.queue = nil
	s.epoch++
	s.sessionID = uuid.NewString()
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info().Msg("session reset")
	s.navigate()
}

func (s *Store) navigate() {
	if s.nav != nil {
		s.nav.Navigate(views.Conversation)
	}
}

// Messages returns a copy of the session
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneMessages(s.messages)
}

// Len returns the number of messages in the session
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Pending reports whether a reply is outstanding
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Queued returns how many sends wait behind the in-flight request
func (s *Store) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SessionID identifies the current session; it changes on every reset
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// LastReply returns the text of the last entry if it came from the model
func (s *Store) LastReply() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == models.RoleModel {
		return s.messages[n-1].Text, true
	}
	return "", false
}

// LastError returns the gateway error behind the most recent settled request,
// or nil if it succeeded
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
