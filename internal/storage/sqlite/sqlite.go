// Package sqlite implements a Backend over database/sql with the
// mattn/go-sqlite3 driver. It declares LockMutex: the cgo sqlite3 driver
// serializes writers itself but a single connection is not safe for
// concurrent use from multiple goroutines, so the caller must hold a
// mutex around every call.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chatrelay/chat-relay/internal/storage"
)

// Backend stores messages in a single SQLite file (or ":memory:").
type Backend struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// go-sqlite3 connections are not safe for concurrent use; the wrapper
	// enforces single-flight access, so a single connection suffices.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Backend{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	uid INTEGER PRIMARY KEY AUTOINCREMENT,
	sender TEXT NOT NULL,
	all_receivers TEXT NOT NULL,
	send_ts INTEGER NOT NULL,
	body TEXT NOT NULL,
	reply TEXT,
	has_reply INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS message_addressees (
	uid INTEGER NOT NULL,
	addressee TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_addressee ON message_addressees(addressee);
CREATE INDEX IF NOT EXISTS idx_sender ON messages(sender);
`

// Store inserts msg, assigning its UID from the table's autoincrement
// column, and materializes one message_addressees row per addressee.
func (b *Backend) Store(ctx context.Context, msg storage.Message) (storage.Message, error) {
	allReceivers, err := json.Marshal(msg.To)
	if err != nil {
		return storage.Message{}, fmt.Errorf("sqlite: marshal receivers: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Message{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (sender, all_receivers, send_ts, body, reply, has_reply) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.Sender, string(allReceivers), msg.SendTS, msg.Body, msg.Reply, boolToInt(msg.HasReply))
	if err != nil {
		return storage.Message{}, fmt.Errorf("sqlite: insert message: %w", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return storage.Message{}, fmt.Errorf("sqlite: last insert id: %w", err)
	}

	for _, to := range msg.To {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_addressees (uid, addressee) VALUES (?, ?)`, uid, to); err != nil {
			return storage.Message{}, fmt.Errorf("sqlite: insert addressee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Message{}, fmt.Errorf("sqlite: commit: %w", err)
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
	query, args := inQuery(`
		SELECT m.uid, m.sender, m.all_receivers, m.send_ts, m.body, m.reply, m.has_reply
		FROM messages m JOIN message_addressees a ON a.uid = m.uid
		WHERE a.addressee IN (%s) AND m.send_ts <= ?`, addressees, now)
	return b.query(ctx, query, args...)
}

// LoadSent returns every message sent by user with send_ts <= now.
func (b *Backend) LoadSent(ctx context.Context, user string, now uint64) ([]storage.Message, error) {
	return b.query(ctx, `
		SELECT uid, sender, all_receivers, send_ts, body, reply, has_reply
		FROM messages WHERE sender = ? AND send_ts <= ?`, user, now)
}

// LoadByUID returns the message stored under uid, ignoring the
// send-timestamp cutoff.
func (b *Backend) LoadByUID(ctx context.Context, uid uint64) (storage.Message, bool, error) {
	msgs, err := b.query(ctx, `
		SELECT uid, sender, all_receivers, send_ts, body, reply, has_reply
		FROM messages WHERE uid = ?`, int64(uid))
	if err != nil {
		return storage.Message{}, false, err
	}
	if len(msgs) == 0 {
		return storage.Message{}, false, nil
	}
	return msgs[0], true, nil
}

func (b *Backend) query(ctx context.Context, query string, args ...any) ([]storage.Message, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var out []storage.Message
	for rows.Next() {
		var (
			uid          int64
			sender       string
			allReceivers string
			sendTS       uint64
			body         string
			reply        sql.NullString
			hasReplyInt  int
		)
		if err := rows.Scan(&uid, &sender, &allReceivers, &sendTS, &body, &reply, &hasReplyInt); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		var to []string
		if err := json.Unmarshal([]byte(allReceivers), &to); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal receivers: %w", err)
		}
		out = append(out, storage.Message{
			UID:      uint64(uid),
			HasUID:   true,
			Sender:   sender,
			To:       to,
			SendTS:   sendTS,
			Body:     body,
			Reply:    reply.String,
			HasReply: hasReplyInt != 0,
		})
	}
	return out, rows.Err()
}

// RequiredLockKind reports LockMutex: go-sqlite3 connections are not
// concurrency-safe.
func (b *Backend) RequiredLockKind() storage.LockKind { return storage.LockMutex }

// Close closes the underlying database handle.
func (b *Backend) Close() error { return b.db.Close() }

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func inQuery(template string, addressees []string, now uint64) (string, []any) {
	placeholders := ""
	args := make([]any, 0, len(addressees)+1)
	for i, a := range addressees {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, a)
	}
	args = append(args, now)
	return fmt.Sprintf(template, placeholders), args
}
