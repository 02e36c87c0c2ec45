// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"reflect"
	"testing"
)

func TestContext_DisposeReverseOrder(t *testing.T) {
	c := NewContext()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		c.Push(DisposableFunc(func() { order = append(order, i) }))
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	c.Dispose()
	c.Dispose()

	if !reflect.DeepEqual(order, []int{3, 2, 1}) {
		t.Errorf("dispose order = %v, want [3 2 1]", order)
	}
	if !c.Disposed() || c.Len() != 0 {
		t.Error("context should be disposed and empty")
	}
}

func TestContext_PushAfterDispose(t *testing.T) {
	c := NewContext()
	c.Dispose()

	called := false
	c.Push(DisposableFunc(func() { called = true }))

	if !called {
		t.Error("subscription pushed after dispose should be released immediately")
	}
}

func TestOnce(t *testing.T) {
	n := 0
	d := Once(func() { n++ })
	d.Dispose()
	d.Dispose()

	if n != 1 {
		t.Errorf("disposed %d times, want 1", n)
	}
}
