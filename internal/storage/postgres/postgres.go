// Package postgres implements a Backend over a jackc/pgx/v5 connection
// pool. It declares LockNone: pgxpool.Pool is internally safe for
// concurrent use by many goroutines, so the wrapper takes no lock around
// it.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrelay/chat-relay/internal/storage"
)

// Backend stores messages in Postgres via a pooled connection.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return &Backend{pool: pool}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	uid BIGSERIAL PRIMARY KEY,
	sender TEXT NOT NULL,
	all_receivers TEXT[] NOT NULL,
	send_ts BIGINT NOT NULL,
	body TEXT NOT NULL,
	reply TEXT,
	has_reply BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS message_addressees (
	uid BIGINT NOT NULL REFERENCES messages(uid),
	addressee TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_addressee ON message_addressees(addressee);
CREATE INDEX IF NOT EXISTS idx_sender ON messages(sender);
`

// Store inserts msg, assigning its UID from the BIGSERIAL column, and
// materializes one message_addressees row per addressee within a single
// transaction.
func (b *Backend) Store(ctx context.Context, msg storage.Message) (storage.Message, error) {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return storage.Message{}, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var uid int64
	err = tx.QueryRow(ctx,
		`INSERT INTO messages (sender, all_receivers, send_ts, body, reply, has_reply)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING uid`,
		msg.Sender, msg.To, msg.SendTS, msg.Body, msg.Reply, msg.HasReply).Scan(&uid)
	if err != nil {
		return storage.Message{}, fmt.Errorf("postgres: insert message: %w", err)
	}

	for _, to := range msg.To {
		if _, err := tx.Exec(ctx,
			`INSERT INTO message_addressees (uid, addressee) VALUES ($1, $2)`, uid, to); err != nil {
			return storage.Message{}, fmt.Errorf("postgres: insert addressee: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Message{}, fmt.Errorf("postgres: commit: %w", err)
	}

	msg.UID = uint64(uid)
	msg.HasUID = true
	return msg, nil
}

// Load returns every message matching any of addressees with
// send_ts <= now. A message addressed to several of the requested
// addressees joins once per matching addressee row (spec.md §8 S2): no
// cross-addressee dedup is performed.
func (b *Backend) Load(ctx context.Context, addressees []string, now uint64) ([]storage.Message, error) {
	if len(addressees) == 0 {
		return nil, nil
	}
	rows, err := b.pool.Query(ctx, `
		SELECT m.uid, m.sender, m.all_receivers, m.send_ts, m.body, m.reply, m.has_reply
		FROM messages m JOIN message_addressees a ON a.uid = m.uid
		WHERE a.addressee = ANY($1) AND m.send_ts <= $2`, addressees, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// LoadSent returns every message sent by user with send_ts <= now.
func (b *Backend) LoadSent(ctx context.Context, user string, now uint64) ([]storage.Message, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT uid, sender, all_receivers, send_ts, body, reply, has_reply
		FROM messages WHERE sender = $1 AND send_ts <= $2`, user, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// LoadByUID returns the message stored under uid, ignoring the
// send-timestamp cutoff.
func (b *Backend) LoadByUID(ctx context.Context, uid uint64) (storage.Message, bool, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT uid, sender, all_receivers, send_ts, body, reply, has_reply
		FROM messages WHERE uid = $1`, int64(uid))
	if err != nil {
		return storage.Message{}, false, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil {
		return storage.Message{}, false, err
	}
	if len(msgs) == 0 {
		return storage.Message{}, false, nil
	}
	return msgs[0], true, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows pgxRows) ([]storage.Message, error) {
	var out []storage.Message
	for rows.Next() {
		var (
			uid       int64
			sender    string
			receivers []string
			sendTS    int64
			body      string
			reply     *string
			hasReply  bool
		)
		if err := rows.Scan(&uid, &sender, &receivers, &sendTS, &body, &reply, &hasReply); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		msg := storage.Message{
			UID:      uint64(uid),
			HasUID:   true,
			Sender:   sender,
			To:       receivers,
			SendTS:   uint64(sendTS),
			Body:     body,
			HasReply: hasReply,
		}
		if reply != nil {
			msg.Reply = *reply
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// RequiredLockKind reports LockNone: pgxpool.Pool is already safe for
// concurrent use.
func (b *Backend) RequiredLockKind() storage.LockKind { return storage.LockNone }

// Close releases the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
