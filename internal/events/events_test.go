// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"chatpanel", PanelOpened, "chatpanel.panel.opened"},
		{"", TurnCompleted, "turn.completed"},
		{"swarm.chatpanel", PanelClosed, "swarm.chatpanel.panel.closed"},
	}

	for _, tc := range tests {
		if got := Subject(tc.prefix, tc.name); got != tc.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tc.prefix, tc.name, got, tc.want)
		}
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(PanelOpened, PanelEvent{PanelID: "x"}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	p.Close()
}

func TestTurnEvent_HasNoContent(t *testing.T) {
	data, err := json.Marshal(TurnEvent{PanelID: "p", Role: "assistant", Chars: 5, Timestamp: Now()})
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["content"]; ok {
		t.Error("turn events must not carry message content")
	}
	if _, err := time.Parse(time.RFC3339, fields["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
}
