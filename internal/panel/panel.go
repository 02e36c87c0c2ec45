// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/events"
	"github.com/jeranaias/chatpanel/internal/model"
	"github.com/jeranaias/chatpanel/internal/relay"
	"github.com/jeranaias/chatpanel/internal/util"
)

// Panel identity shown by the host.
const (
	ViewType = "chatWithAI"
	Title    = "Chat with AI"
)

// DefaultQueueSize is the inbound queue length when none is configured.
const DefaultQueueSize = 32

// previewWidth bounds message text in debug logs.
const previewWidth = 60

var (
	// ErrDisposed is returned by operations on a closed panel.
	ErrDisposed = errors.New("panel disposed")

	// ErrAlreadyAttached is returned when a second view attaches.
	ErrAlreadyAttached = errors.New("panel already has a view attached")
)

// View is the display side of a panel. PostMessage is only ever called from
// the panel's worker goroutine.
type View interface {
	PostMessage(msg Message) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(msg Message) error

// PostMessage calls f.
func (f ViewFunc) PostMessage(msg Message) error {
	return f(msg)
}

// Info is a point-in-time description of a panel.
type Info struct {
	ID        string    `json:"id"`
	ViewType  string    `json:"view_type"`
	Title     string    `json:"title"`
	Turns     int       `json:"turns"`
	Attached  bool      `json:"attached"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// PANEL
// =============================================================================

// Panel is one chat surface session. It owns a Relay and a single worker
// goroutine that handles inbound messages strictly in arrival order.
type Panel struct {
	id        string
	createdAt time.Time
	relay     *relay.Relay
	logger    *zap.Logger
	publisher events.Publisher

	inbound chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{} // worker exited
	done    chan struct{} // disposal finished

	lastActive atomic.Int64 // unix nanos

	mu        sync.Mutex
	view      View
	viewSeq   uint64
	onDispose []func()
	once      sync.Once
}

// Option configures a Panel.
type Option func(*Panel)

// WithQueueSize sets the inbound queue length.
func WithQueueSize(n int) Option {
	return func(p *Panel) {
		if n > 0 {
			p.inbound = make(chan Message, n)
		}
	}
}

// WithLogger sets the panel logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Panel) { p.logger = logger }
}

// WithPublisher sets where turn events go.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Panel) { p.publisher = pub }
}

// New creates a panel around r and starts its worker.
func New(r *relay.Relay, opts ...Option) *Panel {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Panel{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		relay:     r,
		logger:    zap.NewNop(),
		publisher: events.Nop{},
		inbound:   make(chan Message, DefaultQueueSize),
		ctx:       ctx,
		cancel:    cancel,
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("panel_id", p.id))
	p.touch()

	go p.run()
	return p
}

// ID returns the unique panel identifier.
func (p *Panel) ID() string { return p.id }

// ViewType returns the fixed view type.
func (p *Panel) ViewType() string { return ViewType }

// Title returns the fixed panel title.
func (p *Panel) Title() string { return Title }

// CreatedAt returns when the panel was opened.
func (p *Panel) CreatedAt() time.Time { return p.createdAt }

// Receive queues an inbound message. It blocks while the queue is full and
// returns ErrDisposed once the panel is closed.
func (p *Panel) Receive(msg Message) error {
	if p.ctx.Err() != nil {
		return ErrDisposed
	}
	select {
	case p.inbound <- msg:
		p.touch()
		return nil
	case <-p.ctx.Done():
		return ErrDisposed
	}
}

// Post sends msg to the attached view. Without a view, or after disposal,
// the message is dropped.
func (p *Panel) Post(msg Message) {
	p.mu.Lock()
	view := p.view
	p.mu.Unlock()

	if view == nil || p.ctx.Err() != nil {
		p.logger.Debug("post dropped", zap.String("command", msg.Command))
		return
	}
	if err := view.PostMessage(msg); err != nil {
		p.logger.Debug("post failed", zap.Error(err))
	}
}

// Attach connects v as the panel's view. The returned function detaches it;
// calling it more than once is harmless.
func (p *Panel) Attach(v View) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		return nil, ErrDisposed
	}
	if p.view != nil {
		return nil, ErrAlreadyAttached
	}
	p.view = v
	p.viewSeq++
	seq := p.viewSeq
	p.touch()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.viewSeq == seq {
			p.view = nil
			p.touch()
		}
	}, nil
}

// Attached reports whether a view is connected.
func (p *Panel) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view != nil
}

// IdleTime returns how long since the panel last received a message or
// gained or lost a view.
func (p *Panel) IdleTime() time.Duration {
	return time.Since(time.Unix(0, p.lastActive.Load()))
}

func (p *Panel) touch() {
	p.lastActive.Store(time.Now().UnixNano())
}

// Model returns the model name the panel's relay calls.
func (p *Panel) Model() string {
	return p.relay.Model()
}

// Transcript returns a snapshot of the conversation so far.
func (p *Panel) Transcript() []model.Turn {
	return p.relay.History()
}

// Info describes the panel.
func (p *Panel) Info() Info {
	return Info{
		ID:        p.id,
		ViewType:  ViewType,
		Title:     Title,
		Turns:     p.relay.Len(),
		Attached:  p.Attached(),
		CreatedAt: p.createdAt,
	}
}

// OnDispose registers fn to run when the panel is disposed. Hooks run in
// reverse registration order. On a disposed panel fn runs immediately.
func (p *Panel) OnDispose(fn func()) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		fn()
		return
	default:
	}
	p.onDispose = append(p.onDispose, fn)
	p.mu.Unlock()
}

// Dispose closes the panel: the worker stops, any in-flight service call is
// cancelled, the view is detached and dispose hooks run. Safe to call more
// than once. It must not be called from a View.
func (p *Panel) Dispose() {
	p.once.Do(func() {
		p.cancel()
		<-p.stopped

		p.mu.Lock()
		p.view = nil
		hooks := p.onDispose
		p.onDispose = nil
		close(p.done)
		p.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
		p.logger.Debug("panel disposed", zap.Int("turns", p.relay.Len()))
	})
}

// Done is closed once the panel has been disposed.
func (p *Panel) Done() <-chan struct{} {
	return p.done
}

// =============================================================================
// WORKER
// =============================================================================

func (p *Panel) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.ctx.Done():
			return
		case msg := <-p.inbound:
			p.handle(msg)
		}
	}
}

func (p *Panel) handle(msg Message) {
	if msg.Command != CommandSendMessage {
		p.logger.Debug("ignoring inbound message", zap.String("command", msg.Command))
		return
	}

	p.logger.Debug("message received",
		zap.String("preview", util.Preview(msg.Text, previewWidth)),
	)

	user := model.UserTurn(msg.Text)
	p.Post(ShowResponse(user.Label()))

	outcome := p.relay.Submit(p.ctx, msg.Text)
	if p.ctx.Err() != nil {
		return
	}
	reply := outcome.Turn()
	p.Post(ShowResponse(reply.Label()))
	p.touch()

	p.publishTurn(user, false)
	p.publishTurn(reply, outcome.Failed)
}

func (p *Panel) publishTurn(turn model.Turn, failed bool) {
	err := p.publisher.Publish(events.TurnCompleted, events.TurnEvent{
		PanelID:   p.id,
		Role:      turn.Role.String(),
		Failed:    failed,
		Chars:     len(turn.Content),
		Timestamp: events.Now(),
	})
	if err != nil {
		p.logger.Debug("publish failed", zap.String("event", events.TurnCompleted), zap.Error(err))
	}
}
