// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/gateway"
)

// Hash is a 32-byte BLAKE3 digest linking journal entries into a
// chain.
type Hash [32]byte

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// entryDomainKey is the 32-byte key for BLAKE3 keyed hashing of
// journal entries. Domain separation keeps journal hashes from
// colliding with any other keyed-hash use. The byte values are the
// ASCII encoding of the domain name, zero-padded to 32 bytes, so the
// key is inspectable in hex dumps without sacrificing any
// cryptographic property.
var entryDomainKey = [32]byte{
	'w', 'a', 'r', 'd', 'e', 'n', '.', 'j', 'o', 'u', 'r', 'n', 'a', 'l', '.',
	'e', 'n', 't', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Entry is one journal record: a gateway notification with its
// position and chain hash. The hash covers the previous entry's hash
// and this entry's CBOR-encoded notification, so any rewrite of
// history invalidates every later hash.
type Entry struct {
	// Seq is the entry's position, starting at 1.
	Seq uint64 `cbor:"seq"`

	// Note is the recorded notification.
	Note gateway.Notification `cbor:"note"`

	// Hash chains this entry to its predecessor.
	Hash Hash `cbor:"hash"`
}

// Journal is an append-only, hash-chained record of gateway
// notifications. It implements [gateway.Recorder].
//
// Entries are held in memory; an optional [Sink] receives each entry
// as it is appended for durable storage. Journal is safe for
// concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
	head    Hash

	sink   Sink
	logger *slog.Logger
}

// Sink receives journal entries for durable storage. Append is called
// with the gateway's operation lock held, so implementations must not
// block; queue and return.
type Sink interface {
	Append(entry Entry)
}

// Config holds the parameters for creating a journal.
type Config struct {
	// Sink receives every appended entry. Nil means in-memory only.
	Sink Sink

	// Logger receives operational messages. Nil means discard.
	Logger *slog.Logger
}

// New creates an empty journal.
func New(cfg Config) *Journal {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Journal{
		sink:   cfg.Sink,
		logger: logger,
	}
}

// Record appends a notification to the chain. Implements
// [gateway.Recorder].
func (j *Journal) Record(note gateway.Notification) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := Entry{
		Seq:  uint64(len(j.entries)) + 1,
		Note: note,
		Hash: chainHash(j.head, note),
	}
	j.entries = append(j.entries, entry)
	j.head = entry.Hash

	j.logger.Debug("journal entry",
		"seq", entry.Seq,
		"kind", note.Kind,
		"hash", entry.Hash.String(),
	)

	if j.sink != nil {
		j.sink.Append(entry)
	}
}

// Entries returns a copy of all recorded entries in order.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Head returns the hash of the most recent entry, or the zero hash
// for an empty journal.
func (j *Journal) Head() Hash {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.head
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Verify recomputes the whole chain and returns an error naming the
// first entry whose hash does not match. A nil return means the
// journal is internally consistent.
func (j *Journal) Verify() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var prev Hash
	for i, entry := range j.entries {
		if want := uint64(i) + 1; entry.Seq != want {
			return fmt.Errorf("journal: entry %d has seq %d, want %d", i, entry.Seq, want)
		}
		expected := chainHash(prev, entry.Note)
		if entry.Hash != expected {
			return fmt.Errorf("journal: entry %d hash mismatch: chain broken", entry.Seq)
		}
		prev = entry.Hash
	}
	return nil
}

// chainHash computes the keyed BLAKE3 hash of the previous hash
// followed by the CBOR encoding of the notification. The encoding is
// deterministic, so the same notification always hashes identically.
func chainHash(prev Hash, note gateway.Notification) Hash {
	payload, err := codec.Marshal(note)
	if err != nil {
		// Notification is a fixed struct of scalar fields; encoding
		// cannot fail.
		panic("journal: encoding notification: " + err.Error())
	}

	hasher, err := blake3.NewKeyed(entryDomainKey[:])
	if err != nil {
		panic("journal: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(prev[:])
	hasher.Write(payload)

	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
