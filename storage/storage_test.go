package storage

import (
	"errors"
	"io"
	"testing"
)

type closingStorage struct {
	Storage
	closed int
	err    error
}

func (c *closingStorage) Close() error {
	c.closed++
	return c.err
}

func TestCloseReleasesClosableBackends(t *testing.T) {
	t.Parallel()

	want := errors.New("close failed")
	backend := &closingStorage{err: want}
	if err := Close(backend); !errors.Is(err, want) {
		t.Fatalf("got=%v want=%v", err, want)
	}
	if backend.closed != 1 {
		t.Fatalf("got=%d closes want=1", backend.closed)
	}
}

func TestCloseIgnoresPlainBackends(t *testing.T) {
	t.Parallel()

	local, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, ok := Storage(local).(io.Closer); ok {
		t.Fatalf("local storage is not expected to hold a client")
	}
	if err := Close(local); err != nil {
		t.Fatalf("got=%v", err)
	}
}
