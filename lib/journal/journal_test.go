// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/warden-foundation/warden/lib/gateway"
	"github.com/warden-foundation/warden/lib/ref"
)

func testNotes() []gateway.Notification {
	carol := ref.MustNew("operator/carol")
	return []gateway.Notification{
		{Kind: gateway.NoteValueReceived, At: 7, From: carol, Amount: 9},
		{Kind: gateway.NoteKillSwitchDisengaged, At: 8},
		{Kind: gateway.NoteSuperAdminSet, At: 8, Identity: carol},
	}
}

func TestRecordChainsEntries(t *testing.T) {
	j := New(Config{})
	for _, note := range testNotes() {
		j.Record(note)
	}

	entries := j.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i)+1 {
			t.Errorf("entries[%d].Seq = %d, want %d", i, entry.Seq, i+1)
		}
		if entry.Hash == (Hash{}) {
			t.Errorf("entries[%d].Hash is zero", i)
		}
	}
	if j.Head() != entries[2].Hash {
		t.Error("Head() does not match the last entry's hash")
	}
	if err := j.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestChainIsDeterministic(t *testing.T) {
	a := New(Config{})
	b := New(Config{})
	for _, note := range testNotes() {
		a.Record(note)
		b.Record(note)
	}
	if a.Head() != b.Head() {
		t.Errorf("same notifications produced different heads: %s vs %s", a.Head(), b.Head())
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	j := New(Config{})
	for _, note := range testNotes() {
		j.Record(note)
	}

	// Rewrite an early notification in place: every later hash is
	// now wrong.
	j.mu.Lock()
	j.entries[0].Note.Amount = 9999
	j.mu.Unlock()

	if err := j.Verify(); err == nil {
		t.Fatal("Verify accepted a tampered chain")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(StoreConfig{
		Path: filepath.Join(t.TempDir(), "journal.db"),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Run(ctx)
	}()

	j := New(Config{Sink: store})
	for _, note := range testNotes() {
		j.Record(note)
	}

	// Stop the writer; Run flushes the queue before returning.
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("store.Run did not return after cancel")
	}

	persisted, err := store.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	want := j.Entries()
	if len(persisted) != len(want) {
		t.Fatalf("persisted %d entries, want %d", len(persisted), len(want))
	}
	for i := range want {
		if persisted[i] != want[i] {
			t.Errorf("persisted[%d] = %+v, want %+v", i, persisted[i], want[i])
		}
	}
}
