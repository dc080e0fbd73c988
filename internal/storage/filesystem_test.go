package storage

import (
	"context"
	"errors"
	"testing"

	"artistry/internal/domain"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	for i, body := range []string{"one", "two"} {
		if _, err := store.Write(ctx, PassKey("job-1", i), []byte(body)); err != nil {
			t.Fatalf("Write pass %d: %v", i, err)
		}
	}
	key, err := store.Write(ctx, FinalKey("job-1"), []byte("final"))
	if err != nil {
		t.Fatalf("Write final: %v", err)
	}
	if key != "rooms/job-1/final.png" {
		t.Fatalf("final key = %q", key)
	}

	keys, err := store.List(ctx, RoomPrefix("job-1"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"rooms/job-1/final.png", "rooms/job-1/pass-01.png", "rooms/job-1/pass-02.png"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if IsPassKey(keys[0]) || !IsPassKey(keys[1]) {
		t.Fatalf("IsPassKey misclassified %v", keys)
	}

	data, err := store.Read(ctx, keys[2])
	if err != nil || string(data) != "two" {
		t.Fatalf("Read = %q, %v", data, err)
	}
}

func TestFileStoreMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Read(context.Background(), "rooms/x/final.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.List(context.Background(), RoomPrefix("x")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "..", "../etc/passwd", "rooms/../../x"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("expected error for %q", key)
		}
	}
	got, err := sanitizeKey("/rooms//a/./b.png")
	if err != nil || got != "rooms/a/b.png" {
		t.Fatalf("sanitizeKey = %q, %v", got, err)
	}
}
