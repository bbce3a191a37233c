package chunk

import (
	"bytes"
	"io"
	"testing"
)

func TestIteratorExactMultiple(t *testing.T) {
	payload := bytes.Repeat([]byte{1}, 128)
	it, err := NewIterator(io.NopCloser(bytes.NewReader(payload)), 64)
	if err != nil {
		t.Fatalf("new iterator: %v", err)
	}

	var count int
	for {
		b, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(b) != 64 {
			t.Errorf("chunk length %d, want 64", len(b))
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d chunks, want 2", count)
	}

	// EOF is sticky.
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("next after EOF = %v", err)
	}
}

func TestIteratorRejectsBadSize(t *testing.T) {
	if _, err := NewIterator(io.NopCloser(bytes.NewReader(nil)), 0); err == nil {
		t.Error("zero chunk size accepted")
	}
}
