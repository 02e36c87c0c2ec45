// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package panel

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/chatpanel/internal/ui/styles"
)

// Commands carried in Message.Command.
const (
	// CommandSendMessage travels from the surface to the host.
	CommandSendMessage = "sendMessage"

	// CommandShowResponse travels from the host to the surface.
	CommandShowResponse = "showResponse"
)

// Message is the envelope exchanged between a panel and its surface.
type Message struct {
	Command string `json:"command"`
	Text    string `json:"text"`
}

// SendMessage builds an inbound message.
func SendMessage(text string) Message {
	return Message{Command: CommandSendMessage, Text: text}
}

// ShowResponse builds an outbound message.
func ShowResponse(text string) Message {
	return Message{Command: CommandShowResponse, Text: text}
}

// DecodeMessage parses a raw envelope. It reports false when data is not a
// JSON object with string command and text fields.
func DecodeMessage(data []byte) (Message, bool) {
	var raw struct {
		Command *string `json:"command"`
		Text    *string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Message{}, false
	}
	if raw.Command == nil || raw.Text == nil {
		return Message{}, false
	}
	return Message{Command: *raw.Command, Text: *raw.Text}, true
}

// SpeakerClass returns the card class a surface gives to an entry: text
// starting with "User:" is a user entry, "Assistant:" an assistant entry,
// anything else gets no speaker class.
func SpeakerClass(text string) string {
	switch {
	case strings.HasPrefix(text, "User:"):
		return styles.ClassUser
	case strings.HasPrefix(text, "Assistant:"):
		return styles.ClassAssistant
	default:
		return ""
	}
}
