package negotiate

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the negotiation timeline.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Memory is the append-only conversation log. Insertion order is the
// negotiation timeline; entries are never reordered or deleted within a
// session. Owned exclusively by the Controller.
type Memory struct {
	msgs []Message
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(msg Message) {
	m.msgs = append(m.msgs, msg)
}

// All returns a copy of the log in insertion order.
func (m *Memory) All() []Message {
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

func (m *Memory) Len() int { return len(m.msgs) }

// Replace reloads the log wholesale, used only when restoring a persisted
// session snapshot.
func (m *Memory) Replace(msgs []Message) {
	m.msgs = append(m.msgs[:0:0], msgs...)
}

func (m *Memory) reset() { m.msgs = nil }
