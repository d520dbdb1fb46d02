package convo

// perMessageOverhead is the estimated token overhead for each message (role,
// structure delimiters, etc.).
const perMessageOverhead = 4

// Transcript is a mutable ordered conversation. The zero value is ready to use.
// Transcript is not safe for concurrent use; callers must synchronize externally.
type Transcript struct {
	messages []Message
}

// New creates a Transcript pre-populated with the given messages.
func New(msgs ...Message) *Transcript {
	return &Transcript{messages: msgs}
}

// Append adds one or more messages to the conversation.
func (t *Transcript) Append(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

// Len returns the number of messages in the conversation.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// At returns the message at the given index.
// It panics if the index is out of range.
func (t *Transcript) At(index int) Message {
	return t.messages[index]
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Messages returns a copy of all messages in the conversation.
func (t *Transcript) Messages() []Message {
	cp := make([]Message, len(t.messages))
	copy(cp, t.messages)
	return cp
}

// SystemPrompt returns the text of the first system message, or an empty
// string if there is none.
func (t *Transcript) SystemPrompt() string {
	for _, m := range t.messages {
		if m.Role == System {
			return m.Text
		}
	}
	return ""
}

// FirstUser returns the earliest user message and true, or a zero Message and
// false if there is none.
func (t *Transcript) FirstUser() (Message, bool) {
	for _, m := range t.messages {
		if m.Role == User {
			return m, true
		}
	}
	return Message{}, false
}

// LastAssistant returns the most recent assistant message and true, or a zero
// Message and false if there is none.
func (t *Transcript) LastAssistant() (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == Assistant {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// TrimForRetry returns a compacted copy of the conversation for use between
// retry attempts. It keeps every system turn, the first user turn, the most
// recent user turn and the most recent assistant turn, in original order.
// The receiver is not modified.
func (t *Transcript) TrimForRetry() *Transcript {
	firstUser, lastUser, lastAssistant := -1, -1, -1
	keep := make(map[int]bool, len(t.messages))

	for i, m := range t.messages {
		switch m.Role {
		case System:
			keep[i] = true
		case User:
			if firstUser == -1 {
				firstUser = i
			}
			lastUser = i
		case Assistant:
			lastAssistant = i
		}
	}

	for _, i := range []int{firstUser, lastUser, lastAssistant} {
		if i >= 0 {
			keep[i] = true
		}
	}

	out := &Transcript{messages: make([]Message, 0, len(keep))}
	for i, m := range t.messages {
		if keep[i] {
			out.messages = append(out.messages, m)
		}
	}
	return out
}

// EstimateTokens estimates the input tokens the conversation will consume.
// It uses a character-to-token heuristic (approximately 1 token per 4
// characters) plus a per-message structural overhead.
func (t *Transcript) EstimateTokens() int {
	tokens := 0
	for _, m := range t.messages {
		tokens += perMessageOverhead + charsToTokens(len(m.Text))
	}
	return tokens
}

// charsToTokens converts a character count to an estimated token count using
// the 1-token-per-4-characters heuristic.
func charsToTokens(chars int) int {
	return (chars + 3) / 4 // round up
}
