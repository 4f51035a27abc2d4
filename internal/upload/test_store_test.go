package upload

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "s1", "a.txt", []byte("alpha")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "s1", "b.txt", []byte("beta")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "s2", "c.txt", []byte("gamma")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	b, err := s.Get(ctx, "s1", "a.txt")
	if err != nil || string(b) != "alpha" {
		t.Fatalf("Get = %q, %v", b, err)
	}
	// Returned slice is a copy.
	b[0] = 'X'
	b, _ = s.Get(ctx, "s1", "a.txt")
	if string(b) != "alpha" {
		t.Fatalf("stored bytes mutated: %q", b)
	}

	names, err := s.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Fatalf("names = %v", names)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "s1", "missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestObjectKeyValidation(t *testing.T) {
	if _, err := objectKey("", "a.txt"); err == nil {
		t.Fatal("empty session accepted")
	}
	if _, err := objectKey("s1", "  "); err == nil {
		t.Fatal("blank name accepted")
	}
	key, err := objectKey("s1", "/a.txt")
	if err != nil || key != "s1/a.txt" {
		t.Fatalf("key = %q, %v", key, err)
	}
}
