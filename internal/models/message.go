package models

// Role tags a message as user-authored or service-generated
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is one of the two known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Label is the display name used by the TUI and exports
func (r Role) Label() string {
	if r == RoleUser {
		return "You"
	}
	return "AGI"
}

// Message is a single immutable entry of a conversation
type Message struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// UserMessage builds a user-role message
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ModelMessage builds a model-role message
func ModelMessage(text string) Message {
	return Message{Role: RoleModel, Text: text}
}

// CloneMessages returns an independent copy of msgs. A nil input yields an empty slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
