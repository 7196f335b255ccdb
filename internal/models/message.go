package models

import "time"

// Sender identifies who authored a transcript entry.
type Sender int

const (
	User Sender = iota
	Assistant
	System
)

func (s Sender) String() string {
	switch s {
	case User:
		return "You"
	case Assistant:
		return "Assistant"
	case System:
		return "System"
	default:
		return "Unknown"
	}
}

// ChatMessage is a single transcript entry. Values are never mutated after creation.
type ChatMessage struct {
	Sender    Sender
	Text      string
	Timestamp time.Time
}

func NewChatMessage(sender Sender, text string) ChatMessage {
	return ChatMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// PendingRequest is user input waiting for (or undergoing) inference.
type PendingRequest struct {
	ID         string
	Text       string
	EnqueuedAt time.Time
}
