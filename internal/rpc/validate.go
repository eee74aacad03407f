package rpc

import (
	"github.com/chatrelay/chat-relay/gen/chatrelay"
	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
)

// validateSendMessage enforces the two rules SPEC_FULL.md's domain-stack
// table assigns to request validation: non-empty `to`, non-empty
// `message`. Hand-written in place of protovalidate — see DESIGN.md.
func validateSendMessage(req *chatrelay.SendMessageRequest) error {
	if len(req.Message.To) == 0 {
		return errs.New("validate: message.to must not be empty")
	}
	if req.Message.Body == "" {
		return errs.New("validate: message.message must not be empty")
	}
	return nil
}
