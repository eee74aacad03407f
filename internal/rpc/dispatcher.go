package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/chatrelay/chat-relay/gen/chatrelay"
	"github.com/chatrelay/chat-relay/internal/concurrent/async"
	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
	"github.com/chatrelay/chat-relay/internal/concurrent/pool"
	"github.com/chatrelay/chat-relay/internal/group"
	"github.com/chatrelay/chat-relay/internal/rpc/notify"
	"github.com/chatrelay/chat-relay/internal/storage"
)

// callTimeout bounds how long a dispatcher method waits on its pool-
// submitted storage work before failing the RPC with an Error status —
// spec.md's RPC layer has no notion of an unbounded wait, since a worker
// blocked forever would starve its completion queue.
const callTimeout = 30 * time.Second

// Dispatcher implements chatrelay.ChatRelayServer. Each method plays out
// spec.md §4.R's Create -> Process -> Finish sequence explicitly: a Call
// is created and registered in the completion map, the actual storage
// work is submitted onto pool (offloading blocking I/O the way the
// spec's worker-per-queue model would), and the call is retired from the
// map once the response is ready — whether or not the RPC itself
// succeeded.
type Dispatcher struct {
	storage  storage.Accessor
	expander *group.Expander
	pool     pool.Pool
	notifier *notify.Notifier // may be nil: notification is optional
	log      *slog.Logger
	calls    completionMap
}

// NewDispatcher wires a Dispatcher. notifier may be nil to disable the
// "message stored" fan-out. storage may be a bare *storage.Wrapper or a
// *storage.BreakerWrapper — anything satisfying storage.Accessor.
func NewDispatcher(st storage.Accessor, exp *group.Expander, p pool.Pool, notifier *notify.Notifier, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{storage: st, expander: exp, pool: p, notifier: notifier, log: log}
}

// InFlight reports how many calls are currently being processed, for the
// admin introspection surface.
func (d *Dispatcher) InFlight() int { return d.calls.InFlight() }

func (d *Dispatcher) SendMessage(ctx context.Context, req *chatrelay.SendMessageRequest) (*chatrelay.SendMessageResponse, error) {
	call := d.calls.create(CallSendMessage)
	d.calls.process(call)
	defer d.calls.finish(call)

	if err := validateSendMessage(req); err != nil {
		return &chatrelay.SendMessageResponse{Status: chatrelay.StatusError, Error: err.Error()}, nil
	}

	msg := toStorageMessage(req.Message)
	if req.HasReplyToUID {
		type lookup struct {
			msg   storage.Message
			found bool
		}
		replyFut := async.Async(d.pool, func() (lookup, error) {
			m, found, err := d.storage.LoadByUID(ctx, req.ReplyToUID)
			return lookup{m, found}, err
		})
		resolved, err := replyFut.GetValue(callTimeout)
		if err != nil {
			d.logStorageFailure("SendMessage", err)
			return &chatrelay.SendMessageResponse{Status: chatrelay.StatusError, Error: err.Error()}, nil
		}
		if resolved.found {
			msg.Reply = resolved.msg.Body
			msg.HasReply = true
		}
	}

	fut := async.Async(d.pool, func() (storage.Message, error) {
		return d.storage.Store(ctx, msg)
	})

	stored, err := fut.GetValue(callTimeout)
	if err != nil {
		d.logStorageFailure("SendMessage", err)
		return &chatrelay.SendMessageResponse{Status: chatrelay.StatusError, Error: err.Error()}, nil
	}

	if d.notifier != nil {
		if pubErr := d.notifier.PublishStored(ctx, stored); pubErr != nil {
			d.log.Warn("rpc: failed to publish message-stored event", "error", pubErr)
		}
	}

	return &chatrelay.SendMessageResponse{Status: chatrelay.StatusOk}, nil
}

func (d *Dispatcher) ReceiveMessage(ctx context.Context, req *chatrelay.ReceiveMessageRequest) (*chatrelay.ReceiveMessageResponse, error) {
	call := d.calls.create(CallReceiveMessage)
	d.calls.process(call)
	defer d.calls.finish(call)

	addressees := d.expander.Expand(req.User)
	now := uint64(time.Now().Unix())

	fut := async.Async(d.pool, func() ([]storage.Message, error) {
		return d.storage.Load(ctx, addressees, now)
	})

	msgs, err := fut.GetValue(callTimeout)
	if err != nil {
		d.logStorageFailure("ReceiveMessage", err)
		return &chatrelay.ReceiveMessageResponse{Status: chatrelay.StatusError, Error: err.Error()}, nil
	}

	return &chatrelay.ReceiveMessageResponse{Status: chatrelay.StatusOk, Messages: toWireMessages(msgs)}, nil
}

func (d *Dispatcher) SentMessages(ctx context.Context, req *chatrelay.SentMessagesRequest) (*chatrelay.SentMessagesResponse, error) {
	call := d.calls.create(CallSentMessages)
	d.calls.process(call)
	defer d.calls.finish(call)

	now := uint64(time.Now().Unix())
	fut := async.Async(d.pool, func() ([]storage.Message, error) {
		return d.storage.LoadSent(ctx, req.User, now)
	})

	msgs, err := fut.GetValue(callTimeout)
	if err != nil {
		d.logStorageFailure("SentMessages", err)
		return &chatrelay.SentMessagesResponse{Status: chatrelay.StatusError, Error: err.Error()}, nil
	}

	return &chatrelay.SentMessagesResponse{Status: chatrelay.StatusOk, Messages: toWireMessages(msgs)}, nil
}

// logStorageFailure logs with a captured back-trace per spec.md §4.R's
// failure semantics: storage exceptions are caught, logged with a
// back-trace, and encoded as an Error status — the RPC itself still
// completes with OK at the transport layer.
func (d *Dispatcher) logStorageFailure(method string, err error) {
	e := errs.Wrap(err, "rpc: storage call failed").CaptureStack()
	d.log.Error("rpc: storage call failed", "method", method, "error", err, "stack", e.Stack())
}

func toStorageMessage(m chatrelay.Message) storage.Message {
	return storage.Message{
		Sender:   m.Sender,
		To:       m.To,
		SendTS:   m.SendTS,
		Body:     m.Body,
		Reply:    m.Reply,
		HasReply: m.HasReply,
	}
}

func toWireMessages(msgs []storage.Message) []chatrelay.Message {
	out := make([]chatrelay.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatrelay.Message{
			Sender:        m.Sender,
			To:            m.To,
			SendTS:        m.SendTS,
			Body:          m.Body,
			Reply:         m.Reply,
			HasReply:      m.HasReply,
			MessageUID:    m.UID,
			HasMessageUID: m.HasUID,
		})
	}
	return out
}
