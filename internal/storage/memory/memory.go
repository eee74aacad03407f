// Package memory implements a Backend that declares LockNone: it is
// internally thread-safe via its own sharded map, per spec.md §4.O's rule
// that a back-end declaring none must guard itself.
package memory

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/chatrelay/chat-relay/internal/storage"
)

const shardCount = 16

type row struct {
	msg       storage.Message
	addressee string
}

type shard struct {
	mu   sync.RWMutex
	rows []row
}

// Backend is an in-memory, sharded message store. Each addressee row is
// stored independently (per spec.md §4.O's "N indexable rows") so Load is
// a point scan per shard rather than a full-table scan.
type Backend struct {
	shards [shardCount]*shard
	nextID uint64
	idMu   sync.Mutex

	byUIDMu sync.RWMutex
	byUID   map[uint64]storage.Message
}

// New returns an empty in-memory backend.
func New() *Backend {
	b := &Backend{byUID: make(map[uint64]storage.Message)}
	for i := range b.shards {
		b.shards[i] = &shard{}
	}
	return b
}

func (b *Backend) shardFor(addressee string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(addressee))
	return b.shards[h.Sum32()%shardCount]
}

// Store assigns the message a UID and materializes one row per addressee.
func (b *Backend) Store(ctx context.Context, msg storage.Message) (storage.Message, error) {
	b.idMu.Lock()
	b.nextID++
	msg.UID = b.nextID
	msg.HasUID = true
	b.idMu.Unlock()

	for _, to := range msg.To {
		s := b.shardFor(to)
		s.mu.Lock()
		s.rows = append(s.rows, row{msg: msg, addressee: to})
		s.mu.Unlock()
	}
	// also index by sender so LoadSent is a point scan too.
	s := b.shardFor("sender:" + msg.Sender)
	s.mu.Lock()
	s.rows = append(s.rows, row{msg: msg, addressee: "sender:" + msg.Sender})
	s.mu.Unlock()

	b.byUIDMu.Lock()
	b.byUID[msg.UID] = msg
	b.byUIDMu.Unlock()

	return msg, nil
}

// LoadByUID returns the message stored under uid, ignoring the
// send-timestamp cutoff.
func (b *Backend) LoadByUID(ctx context.Context, uid uint64) (storage.Message, bool, error) {
	b.byUIDMu.RLock()
	defer b.byUIDMu.RUnlock()
	msg, ok := b.byUID[uid]
	return msg, ok, nil
}

// Load returns every stored message matching any of addressees with
// SendTS <= now. A message addressed to several of the requested
// addressees surfaces once per matching addressee row (spec.md §8 S2):
// no cross-addressee dedup is performed.
func (b *Backend) Load(ctx context.Context, addressees []string, now uint64) ([]storage.Message, error) {
	var out []storage.Message
	for _, addr := range addressees {
		s := b.shardFor(addr)
		s.mu.RLock()
		for _, r := range s.rows {
			if r.addressee != addr || r.msg.SendTS > now {
				continue
			}
			out = append(out, r.msg)
		}
		s.mu.RUnlock()
	}
	return out, nil
}

// LoadSent returns every message sent by user, subject to the timestamp
// cutoff.
func (b *Backend) LoadSent(ctx context.Context, user string, now uint64) ([]storage.Message, error) {
	s := b.shardFor("sender:" + user)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Message
	for _, r := range s.rows {
		if r.addressee != "sender:"+user || r.msg.SendTS > now {
			continue
		}
		out = append(out, r.msg)
	}
	return out, nil
}

// RequiredLockKind reports LockNone: the shard map guards itself.
func (b *Backend) RequiredLockKind() storage.LockKind { return storage.LockNone }

// Close is a no-op: the in-memory backend owns no external resources.
func (b *Backend) Close() error { return nil }
