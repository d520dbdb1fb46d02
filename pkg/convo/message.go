package convo

// Message is a single text turn in a conversation.
type Message struct {
	Role Role
	Text string
}

// NewMessage creates a message with the given role and text.
func NewMessage(r Role, text string) Message {
	return Message{Role: r, Text: text}
}
