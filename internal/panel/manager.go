// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatpanel/internal/events"
	"github.com/jeranaias/chatpanel/internal/relay"
)

// ErrManagerClosed is returned by Open after Dispose.
var ErrManagerClosed = errors.New("panel manager closed")

// ManagerConfig holds the settings every new panel is built with.
type ManagerConfig struct {
	// Model is the chat model name sent with every call
	Model string

	// Timeout bounds each service call; zero means unbounded
	Timeout time.Duration

	// QueueSize is the inbound queue length per panel
	QueueSize int

	Logger    *zap.Logger
	Publisher events.Publisher
}

// Manager tracks the open panels of one host.
type Manager struct {
	completer relay.Completer
	cfg       ManagerConfig
	logger    *zap.Logger

	mu     sync.RWMutex
	panels map[string]*Panel
	closed bool
}

// NewManager creates a manager whose panels talk to c.
func NewManager(c relay.Completer, cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Manager{
		completer: c,
		cfg:       cfg,
		logger:    cfg.Logger.Named("panel"),
		panels:    make(map[string]*Panel),
	}
}

// Open creates a panel with its own relay and transcript.
func (m *Manager) Open(ctx context.Context) (*Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	relayOpts := []relay.Option{
		relay.WithTimeout(m.cfg.Timeout),
		relay.WithLogger(m.cfg.Logger.Named("relay")),
	}
	if m.cfg.Model != "" {
		relayOpts = append(relayOpts, relay.WithModel(m.cfg.Model))
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	p := New(relay.New(m.completer, relayOpts...),
		WithQueueSize(m.cfg.QueueSize),
		WithLogger(m.logger),
		WithPublisher(m.cfg.Publisher),
	)
	m.panels[p.ID()] = p
	m.mu.Unlock()

	p.OnDispose(func() {
		m.mu.Lock()
		delete(m.panels, p.ID())
		m.mu.Unlock()
		m.publish(events.PanelClosed, p)
	})

	m.logger.Info("panel opened", zap.String("panel_id", p.ID()))
	m.publish(events.PanelOpened, p)
	return p, nil
}

// Get returns the open panel with id.
func (m *Manager) Get(id string) (*Panel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.panels[id]
	return p, ok
}

// List returns the open panels, oldest first.
func (m *Manager) List() []*Panel {
	m.mu.RLock()
	list := make([]*Panel, 0, len(m.panels))
	for _, p := range m.panels {
		list = append(list, p)
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].createdAt.Equal(list[j].createdAt) {
			return list[i].id < list[j].id
		}
		return list[i].createdAt.Before(list[j].createdAt)
	})
	return list
}

// Len returns the number of open panels.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.panels)
}

// Close disposes the panel with id. It reports whether the panel was open.
func (m *Manager) Close(id string) bool {
	p, ok := m.Get(id)
	if !ok {
		return false
	}
	p.Dispose()
	return true
}

// Dispose closes every panel and refuses new ones.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	for _, p := range m.List() {
		p.Dispose()
	}
}

func (m *Manager) publish(name string, p *Panel) {
	err := m.cfg.Publisher.Publish(name, events.PanelEvent{
		PanelID:   p.ID(),
		Turns:     p.relay.Len(),
		Timestamp: events.Now(),
	})
	if err != nil {
		m.logger.Debug("publish failed", zap.String("event", name), zap.Error(err))
	}
}
