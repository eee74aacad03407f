// Package chatrelay holds the logical wire types for the chat delivery
// service's three-RPC surface (spec.md §6). spec.md deliberately specifies
// only the logical call surface, not the on-wire schema or framing, so
// these are hand-authored plain Go structs rather than protoc-generated
// protobuf messages — see DESIGN.md for why a real .proto toolchain run
// was not an option here. They travel over gRPC using the JSON codec
// registered in codec.go instead of the default protobuf codec.
package chatrelay

// Status is the outcome of an RPC call, per spec.md §6.
type Status int32

const (
	StatusOk Status = iota
	StatusError
)

// Message is the wire form of the record described in spec.md §6.
type Message struct {
	Sender        string   `json:"sender"`
	To            []string `json:"to"`
	SendTS        uint64   `json:"send_ts"`
	Body          string   `json:"message"`
	Reply         string   `json:"reply,omitempty"`
	HasReply      bool     `json:"has_reply,omitempty"`
	MessageUID    uint64   `json:"message_uid,omitempty"`
	HasMessageUID bool     `json:"has_message_uid,omitempty"`
}

// SendMessageRequest carries the message to store.
type SendMessageRequest struct {
	Message Message `json:"message"`
	// ReplyToUID optionally resolves to the sender's reply field, per
	// SPEC_FULL.md §8's supplemented reply-field plumbing.
	ReplyToUID    uint64 `json:"reply_to_uid,omitempty"`
	HasReplyToUID bool   `json:"has_reply_to_uid,omitempty"`
}

// SendMessageResponse is SendMessage's result.
type SendMessageResponse struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReceiveMessageRequest asks for messages addressed to User.
type ReceiveMessageRequest struct {
	User string `json:"user"`
}

// ReceiveMessageResponse is ReceiveMessage's result.
type ReceiveMessageResponse struct {
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// SentMessagesRequest asks for messages sent by User.
type SentMessagesRequest struct {
	User string `json:"user"`
}

// SentMessagesResponse is SentMessages's result.
type SentMessagesResponse struct {
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}
