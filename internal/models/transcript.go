package models

// Transcript is the append-only list of messages shown to the user.
// It is owned by the UI goroutine and is not safe for concurrent use.
type Transcript struct {
	messages []ChatMessage
}

func NewTranscript() *Transcript {
	return &Transcript{messages: make([]ChatMessage, 0)}
}

func (t *Transcript) Append(msg ChatMessage) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy so callers cannot rewrite history.
func (t *Transcript) Messages() []ChatMessage {
	result := make([]ChatMessage, len(t.messages))
	copy(result, t.messages)
	return result
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) Last() (ChatMessage, bool) {
	if len(t.messages) == 0 {
		return ChatMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}
