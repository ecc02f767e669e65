package domain

import (
	"fmt"
	"time"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	// SenderUser marks a message typed by the user.
	SenderUser Sender = "user"
	// SenderBot marks a reply from the assistant.
	SenderBot Sender = "bot"
)

// MaxUserMessageLength is the character limit for user-authored messages.
const MaxUserMessageLength = 500

// TimestampLayout is the ISO-8601 layout used for message timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is a single entry in the assistant conversation.
type Message struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewMessage stamps a message with t in UTC.
func NewMessage(sender Sender, text string, t time.Time) Message {
	return Message{
		Sender:    sender,
		Text:      text,
		Timestamp: t.UTC().Format(TimestampLayout),
	}
}

// Time parses the message timestamp.
func (m Message) Time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse message timestamp %q: %w", m.Timestamp, err)
	}
	return t, nil
}
