package sitekit

import (
	"bytes"
	"path/filepath"
	"testing"
)

// exerciseStorage runs the Storage contract against any implementation.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := s.Set("k", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := s.Get("k")
	if err != nil || !ok || !bytes.Equal(got, []byte("v1")) {
		t.Fatalf("Get(k) = %q ok=%v err=%v", got, ok, err)
	}

	// Overwrite.
	if err := s.Set("k", []byte("v2")); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	got, _, _ = s.Get("k")
	if !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("after overwrite Get(k) = %q", got)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("key survived Delete")
	}
	// Deleting an absent key is fine.
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete of absent key failed: %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestMemoryStorageCopiesValues(t *testing.T) {
	s := NewMemoryStorage()
	val := []byte("original")
	if err := s.Set("k", val); err != nil {
		t.Fatal(err)
	}
	val[0] = 'X'

	got, _, _ := s.Get("k")
	if !bytes.Equal(got, []byte("original")) {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
	got[0] = 'Y'
	again, _, _ := s.Get("k")
	if !bytes.Equal(again, []byte("original")) {
		t.Errorf("returned value aliased stored slice: %q", again)
	}
}

func TestSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	exerciseStorage(t, s)
}

func TestSQLiteStoragePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	if err := first.Set(keyPosts, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	got, ok, err := second.Get(keyPosts)
	if err != nil || !ok || !bytes.Equal(got, []byte(`[]`)) {
		t.Fatalf("Get after reopen = %q ok=%v err=%v", got, ok, err)
	}
}
