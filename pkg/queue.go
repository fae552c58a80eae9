// Package pkg provides small utilities shared by phasegate commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when appending to a queue opened for reading.
var ErrReadOnly = errors.New("queue is read-only")

// Queue is an append-only sequence of items of type T persisted to a gob
// file. A queue is either created for writing or opened for reading; gob
// streams can not be extended by a second encoder.
type Queue[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileQueue[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// CreateQueue truncates or creates the queue file at path.
func CreateQueue[T any](path string) (Queue[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create queue directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Error("failed to create queue file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create queue file: %w", err)
	}

	slog.Debug("created queue", "path", path)

	return &fileQueue[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// OpenQueue opens an existing queue for reading and counts its items.
func OpenQueue[T any](path string) (Queue[T], error) {
	q := &fileQueue[T]{path: path}

	err := q.decodeAll(func(_ uint64, _ T) error {
		q.length++
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("opened queue", "path", path, "length", q.length)

	return q, nil
}

// Append implements Queue.
func (q *fileQueue[T]) Append(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.encoder == nil {
		return fmt.Errorf("%w: %s", ErrReadOnly, q.path)
	}

	if err := q.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", q.path, "index", q.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	q.length++

	return nil
}

// AppendBatch implements Queue.
func (q *fileQueue[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := q.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements Queue.
func (q *fileQueue[T]) Path() string {
	return q.path
}

// Len implements Queue.
func (q *fileQueue[T]) Len() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.length
}

// Range implements Queue.
func (q *fileQueue[T]) Range(fn func(index uint64, item T) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var i uint64

	return q.decodeAll(func(_ uint64, item T) error {
		if i >= q.length {
			return io.EOF
		}

		err := fn(i, item)
		i++

		return err
	})
}

func (q *fileQueue[T]) decodeAll(fn func(index uint64, item T) error) error {
	file, err := os.Open(filepath.Clean(q.path))
	if err != nil {
		slog.Error("failed to open queue", "path", q.path, "error", err)
		return fmt.Errorf("failed to open queue: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close queue", "path", q.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); ; i++ {
		var item T

		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			slog.Error("failed to decode item", "path", q.path, "index", i, "error", err)

			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}
	}
}

// Close implements Queue.
func (q *fileQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.file == nil {
		return nil
	}

	err := q.file.Close()
	q.file = nil
	q.encoder = nil

	if err != nil {
		slog.Error("failed to close queue", "path", q.path, "error", err)
		return err
	}

	return nil
}
