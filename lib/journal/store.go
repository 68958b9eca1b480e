// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/warden-foundation/warden/lib/gateway"
	"github.com/warden-foundation/warden/lib/sqlitepool"
	"github.com/warden-foundation/warden/lib/tick"
)

// schema creates the journal table. Applied once per connection via
// the pool's OnConnect hook.
const schema = `
CREATE TABLE IF NOT EXISTS journal (
	seq      INTEGER PRIMARY KEY,
	kind     TEXT    NOT NULL,
	at       INTEGER NOT NULL,
	identity TEXT    NOT NULL,
	sender   TEXT    NOT NULL,
	amount   INTEGER NOT NULL,
	hash     BLOB    NOT NULL
);
`

// Store persists journal entries to SQLite. It implements [Sink]:
// Append queues the entry and returns immediately; a background
// goroutine (Run) drains the queue into the database.
//
// The queue is bounded. If the writer falls behind and the queue
// fills, Append drops the entry and logs it — the in-memory chain in
// [Journal] remains complete, and Verify still covers every recorded
// notification.
type Store struct {
	pool    *sqlitepool.Pool
	logger  *slog.Logger
	pending chan Entry
}

// StoreConfig holds the parameters for creating a journal store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// QueueSize bounds the Append queue. Defaults to 256.
	QueueSize int

	// Logger receives operational messages.
	Logger *slog.Logger
}

// OpenStore opens the journal database and prepares the write queue.
// The caller must run [Store.Run] to drain the queue and call
// [Store.Close] on shutdown.
func OpenStore(cfg StoreConfig) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("journal: opening store: %w", err)
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	return &Store{
		pool:    pool,
		logger:  logger,
		pending: make(chan Entry, queueSize),
	}, nil
}

// Append implements [Sink]. Never blocks: if the queue is full the
// entry is dropped with a log line.
func (s *Store) Append(entry Entry) {
	select {
	case s.pending <- entry:
	default:
		s.logger.Error("journal store queue full, dropping entry",
			"seq", entry.Seq,
			"kind", entry.Note.Kind,
		)
	}
}

// Run drains the write queue into the database until ctx is
// cancelled, then flushes whatever is already queued and returns.
func (s *Store) Run(ctx context.Context) error {
	for {
		select {
		case entry := <-s.pending:
			if err := s.write(ctx, entry); err != nil {
				s.logger.Error("journal write failed",
					"seq", entry.Seq,
					"error", err,
				)
			}
		case <-ctx.Done():
			s.flush()
			return nil
		}
	}
}

// flush writes queued entries after shutdown begins. Uses a
// background context: the run context is already cancelled.
func (s *Store) flush() {
	for {
		select {
		case entry := <-s.pending:
			if err := s.write(context.Background(), entry); err != nil {
				s.logger.Error("journal flush write failed",
					"seq", entry.Seq,
					"error", err,
				)
			}
		default:
			return
		}
	}
}

func (s *Store) write(ctx context.Context, entry Entry) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	return sqlitex.Execute(conn,
		`INSERT OR REPLACE INTO journal (seq, kind, at, identity, sender, amount, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				int64(entry.Seq),
				string(entry.Note.Kind),
				int64(entry.Note.At),
				entry.Note.Identity.String(),
				entry.Note.From.String(),
				int64(entry.Note.Amount),
				entry.Hash[:],
			},
		})
}

// Entries reads back all persisted entries in sequence order.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		`SELECT seq, kind, at, identity, sender, amount, hash
		 FROM journal ORDER BY seq`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entry := Entry{
					Seq: uint64(stmt.ColumnInt64(0)),
				}
				entry.Note.Kind = gateway.NotificationKind(stmt.ColumnText(1))
				entry.Note.At = tick.Tick(stmt.ColumnInt64(2))
				if err := entry.Note.Identity.UnmarshalText([]byte(stmt.ColumnText(3))); err != nil {
					return fmt.Errorf("row %d: identity: %w", entry.Seq, err)
				}
				if err := entry.Note.From.UnmarshalText([]byte(stmt.ColumnText(4))); err != nil {
					return fmt.Errorf("row %d: sender: %w", entry.Seq, err)
				}
				entry.Note.Amount = uint64(stmt.ColumnInt64(5))
				stmt.ColumnBytes(6, entry.Hash[:])
				entries = append(entries, entry)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("journal: reading entries: %w", err)
	}
	return entries, nil
}

// Close shuts the underlying pool. Call after Run has returned.
func (s *Store) Close() error {
	return s.pool.Close()
}
