package chunk

import (
	"bytes"
	"context"
	"testing"

	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/rng"
)

func TestSplitReassemblesExactly(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 1000)
	chunks, err := Split(context.Background(), data, 16, 64, rng.NewTestRNG(0))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected at least one chunk")
	}
	var reassembled []byte
	for i, c := range chunks {
		if uint64(i) != c.ID {
			t.Errorf("chunk %d has ID %d, expected sequential ids", i, c.ID)
		}
		reassembled = append(reassembled, c.Data...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Errorf("reassembled data does not match original")
	}
}

func TestSplitRespectsMinAndMaxSize(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 500)
	chunks, err := Split(context.Background(), data, 16, 32, rng.NewTestRNG(7))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, c := range chunks {
		if len(c.Data) > 32 {
			t.Errorf("chunk %d size %d exceeds maxSize 32", i, len(c.Data))
		}
		// The final chunk simply takes whatever remains, so only the
		// preceding chunks are bound by minSize.
		if i < len(chunks)-1 && len(c.Data) < 16 {
			t.Errorf("non-final chunk %d size %d below minSize 16", i, len(c.Data))
		}
	}
}

func TestSplitRejectsBelowMinChunkSize(t *testing.T) {
	_, err := Split(context.Background(), []byte("data"), 15, 32, rng.NewTestRNG(0))
	if err == nil {
		t.Fatalf("expected error for minSize 15 below MinChunkSize")
	}
	if !pverr.Is(err, pverr.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestSplitRejectsEmptyPayload(t *testing.T) {
	_, err := Split(context.Background(), []byte{}, 16, 32, rng.NewTestRNG(0))
	if err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestSplitSingleByteBelowMinSize(t *testing.T) {
	// A payload smaller than minSize still produces exactly one chunk
	// carrying all of it.
	chunks, err := Split(context.Background(), []byte{0x42}, 16, 32, rng.NewTestRNG(0))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 || len(chunks[0].Data) != 1 {
		t.Fatalf("expected a single 1-byte chunk, got %v", chunks)
	}
}
