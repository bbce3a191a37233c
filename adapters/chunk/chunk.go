// Package chunk adapts a streaming reader into the bounded chunk
// iteration the storage port exposes for large downloads.
package chunk

import (
	"fmt"
	"io"

	"github.com/opsml/opsml/ports"
)

type iterator struct {
	rc   io.ReadCloser
	size int
	done bool
}

// NewIterator wraps rc in an iterator yielding chunks of at most size
// bytes. The iterator owns rc; Close releases it.
func NewIterator(rc io.ReadCloser, size int) (ports.ChunkIterator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	return &iterator{rc: rc, size: size}, nil
}

func (it *iterator) Next() ([]byte, error) {
	if it.done {
		return nil, io.EOF
	}
	buf := make([]byte, it.size)
	n, err := io.ReadFull(it.rc, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		it.done = true
		if n == 0 {
			return nil, io.EOF
		}
		return buf[:n], nil
	}
	if err != nil {
		it.done = true
		return nil, err
	}
	return buf[:n], nil
}

func (it *iterator) Close() error {
	return it.rc.Close()
}
