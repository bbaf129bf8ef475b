package ws

// MessageType tags one outbound frame.
type MessageType string

const (
	MessageChunk           MessageType = "chunk"
	MessageStatus          MessageType = "status"
	MessageSetCode         MessageType = "setCode"
	MessageError           MessageType = "error"
	MessageVariantComplete MessageType = "variantComplete"
	MessageVariantError    MessageType = "variantError"
	MessageVariantCount    MessageType = "variantCount"
)

// Message is one outbound frame. Messages for a given variant index reach
// the client in the order they were sent for that index; there is no
// cross-index ordering guarantee.
type Message struct {
	Type         MessageType `json:"type"`
	Value        string      `json:"value"`
	VariantIndex int         `json:"variantIndex"`
}

// AppErrorCloseCode is the close status used after a session-fatal error
// message, distinguishing it from a normal teardown for the client.
const AppErrorCloseCode = 4332
