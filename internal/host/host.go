// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package host provides the activation context shared by everything that
// plugs into the chatpanel host: subscriptions registered during activation
// are released together at deactivation.
package host

import "sync"

// Disposable is a resource the host releases at deactivation.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable.
type DisposableFunc func()

// Dispose calls f.
func (f DisposableFunc) Dispose() {
	f()
}

// Once wraps fn so that disposing more than once runs it a single time.
func Once(fn func()) Disposable {
	var once sync.Once
	return DisposableFunc(func() { once.Do(fn) })
}

// Context is the activation context. Subscriptions are disposed in reverse
// registration order, exactly once.
type Context struct {
	mu            sync.Mutex
	subscriptions []Disposable
	disposed      bool
}

// NewContext creates an empty activation context.
func NewContext() *Context {
	return &Context{}
}

// Push registers subscriptions. Pushing onto a disposed context disposes the
// subscriptions immediately.
func (c *Context) Push(ds ...Disposable) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		for _, d := range ds {
			d.Dispose()
		}
		return
	}
	c.subscriptions = append(c.subscriptions, ds...)
	c.mu.Unlock()
}

// Len returns the number of live subscriptions.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscriptions)
}

// Disposed reports whether Dispose has run.
func (c *Context) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose releases all subscriptions, newest first.
func (c *Context) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	subs := c.subscriptions
	c.subscriptions = nil
	c.mu.Unlock()

	for i := len(subs) - 1; i >= 0; i-- {
		subs[i].Dispose()
	}
}
