package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageListAndDownload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	root := t.TempDir()
	s, err := NewLocalStorage(root)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := s.EnsureDir(ctx, "samples"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	for _, name := range []string{"b.txt", "a.md"} {
		if err := os.WriteFile(filepath.Join(root, "samples", name), []byte("content "+name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "samples", "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	names, err := s.List(ctx, "samples")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a.md" || names[1] != "b.txt" {
		t.Fatalf("unexpected listing: %v", names)
	}

	text, err := ReadText(ctx, s, "samples/b.txt")
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if text != "content b.txt" {
		t.Fatalf("unexpected content: %q", text)
	}
}

func TestLocalStorageMissingPaths(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	names, err := s.List(ctx, "does_not_exist")
	if err != nil || len(names) != 0 {
		t.Fatalf("missing dir should list empty: names=%v err=%v", names, err)
	}

	_, err = s.Download(ctx, "rules/master_rules.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKeyPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          "",
		".":         "",
		"./policy":  "policy/",
		"/policy/":  "policy/",
		"a/b/../c":  "a/c/",
		"assets\\x": "assets/x/",
	}
	for in, want := range cases {
		if got := keyPrefix(in); got != want {
			t.Fatalf("keyPrefix(%q): got=%q want=%q", in, got, want)
		}
	}
	if got := dirPrefix("policy/", "rules"); got != "policy/rules/" {
		t.Fatalf("dirPrefix: got=%q", got)
	}
}
