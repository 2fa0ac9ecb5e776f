package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/session"
	"github.com/frantai/folio/pkg/sse"
	"github.com/frantai/folio/pkg/transcript"
	"github.com/frantai/folio/pkg/utils"
)

// Backend is the part of the backend client the runner needs.
// *client.Client implements it.
type Backend interface {
	CreateSession(ctx context.Context) (*client.Session, error)
	SendMessage(ctx context.Context, message string, sessionID uuid.UUID, opts ...sse.StreamOption) (*client.MessageStream, error)
}

// Recorder accepts finished exchanges. It must not block;
// *worker.Pool implements it.
type Recorder interface {
	Enqueue(ex transcript.Exchange) bool
}

// Runner sends questions to the backend and keeps the conversation and the
// stored session id up to date. Only one reply streams at a time.
type Runner struct {
	backend  Backend
	store    session.Store
	conv     *Conversation
	recorder Recorder
	tee      io.Writer
	logger   *zap.Logger

	busy atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder records every finished exchange.
func WithRecorder(r Recorder) Option {
	return func(rn *Runner) {
		rn.recorder = r
	}
}

// WithTee copies every raw reply byte to w.
func WithTee(w io.Writer) Option {
	return func(rn *Runner) {
		rn.tee = w
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *zap.Logger) Option {
	return func(rn *Runner) {
		rn.logger = l
	}
}

// WithSubject greets the visitor with a line about subject.
func WithSubject(subject string) Option {
	return func(rn *Runner) {
		rn.conv = NewConversation(Greeting(subject))
	}
}

// NewRunner creates a Runner and opens its conversation.
func NewRunner(backend Backend, store session.Store, opts ...Option) *Runner {
	r := &Runner{
		backend: backend,
		store:   store,
		conv:    NewConversation(""),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.conv.Open()
	return r
}

// Conversation returns the runner's conversation.
func (r *Runner) Conversation() *Conversation {
	return r.conv
}

// SessionID returns the stored session id, uuid.Nil when none is held.
func (r *Runner) SessionID() (uuid.UUID, error) {
	return r.store.Get()
}

// Ask sends text and streams the reply into the conversation, calling
// onEvent for each event received. Invalid input leaves the conversation
// untouched. On any failure the reply is replaced with FailureText and the
// error is returned.
func (r *Runner) Ask(ctx context.Context, text string, onEvent func(sse.Event)) (Message, error) {
	if err := client.ValidateMessage(text); err != nil {
		return Message{}, err
	}
	if !r.busy.CompareAndSwap(false, true) {
		return Message{}, ErrBusy
	}
	defer r.busy.Store(false)

	sessionID, err := r.store.Get()
	if err != nil {
		if !errors.Is(err, session.ErrInvalidStoredID) {
			return Message{}, fmt.Errorf("reading session id: %w", err)
		}
		r.logger.Warn("ignoring stored session id", zap.Error(err))
		sessionID = uuid.Nil
	}

	r.conv.Begin(text)
	ex := transcript.Exchange{SessionID: sessionID, Question: text}

	err = r.stream(ctx, text, &ex, onEvent)
	if err != nil {
		ex.Answer = r.conv.Fail()
		ex.Failed = true
		r.logger.Debug("reply failed",
			zap.Stringer("session_id", ex.SessionID),
			zap.String("question", utils.Truncate(ex.Question, 40)),
			zap.Error(err),
		)
	} else {
		r.conv.Finish()
	}

	r.record(ex)

	reply, _ := r.conv.Last()
	return reply, err
}

// stream pulls one reply, filling in ex as events arrive.
func (r *Runner) stream(ctx context.Context, text string, ex *transcript.Exchange, onEvent func(sse.Event)) error {
	var opts []sse.StreamOption
	if r.tee != nil {
		opts = append(opts, sse.WithTee(r.tee))
	}

	stream, err := r.backend.SendMessage(ctx, text, ex.SessionID, opts...)
	if err != nil {
		return err
	}
	defer stream.Close()

	done := false
	for {
		ev, err := stream.Next()
		if err != nil {
			// The reply is complete once done arrived; a broken tail does
			// not undo it.
			if done {
				r.logger.Debug("ignoring stream error after done",
					zap.Stringer("session_id", ex.SessionID),
					zap.Error(err),
				)
				return nil
			}
			return err
		}
		if ev == nil {
			return nil
		}
		// Anything after done is read off the wire and dropped.
		if done {
			continue
		}
		if onEvent != nil {
			onEvent(ev)
		}

		switch e := ev.(type) {
		case sse.SessionEvent:
			r.adopt(ex, e.SessionID)
		case sse.ErrorEvent:
			return &BackendError{Message: e.Message}
		case sse.TokenEvent:
			r.conv.Apply(e)
			ex.Answer += e.Token
		case sse.DoneEvent:
			r.conv.Apply(e)
			if e.HasResponseTime {
				ex.ResponseTime = e.ResponseTime
			}
			done = true
		}
	}
}

// adopt takes the session id announced by the backend when none is held.
func (r *Runner) adopt(ex *transcript.Exchange, id uuid.UUID) {
	if ex.SessionID != uuid.Nil {
		if id != ex.SessionID {
			r.logger.Warn("backend answered under a different session",
				zap.Stringer("held", ex.SessionID),
				zap.Stringer("announced", id),
			)
		}
		return
	}

	ex.SessionID = id
	if err := r.store.Set(id); err != nil {
		r.logger.Warn("failed to persist session id", zap.Stringer("session_id", id), zap.Error(err))
	}
}

// record hands a finished exchange to the recorder. Exchanges without a
// session are dropped.
func (r *Runner) record(ex transcript.Exchange) {
	if r.recorder == nil || ex.SessionID == uuid.Nil {
		return
	}
	ex.CreatedAt = time.Now()
	if !r.recorder.Enqueue(ex) {
		r.logger.Warn("transcript queue full, exchange dropped", zap.Stringer("session_id", ex.SessionID))
	}
}

// NewChat forgets the current session and conversation, then opens a new
// session on the backend and stores its id.
func (r *Runner) NewChat(ctx context.Context) (*client.Session, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.busy.Store(false)

	if err := r.store.Clear(); err != nil {
		return nil, fmt.Errorf("clearing session id: %w", err)
	}
	r.conv.Reset()

	s, err := r.backend.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.store.Set(s.SessionID); err != nil {
		return nil, fmt.Errorf("storing session id: %w", err)
	}

	r.logger.Debug("started new chat", zap.Stringer("session_id", s.SessionID))
	return s, nil
}
