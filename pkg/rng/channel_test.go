package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	mrand "math/rand"
	"strconv"
	"testing"

	"github.com/seehuhn/mt19937"
)

func isPermutationOfRGB(seq []byte) bool {
	if len(seq) != 3 {
		return false
	}
	seen := [3]bool{}
	for _, v := range seq {
		if v > 2 || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func TestChannelSequenceIsPermutation(t *testing.T) {
	for id := uint64(0); id < 64; id++ {
		seq := ChannelSequence(id)
		if !isPermutationOfRGB(seq) {
			t.Errorf("ChannelSequence(%d) = %v, not a permutation of {0,1,2}", id, seq)
		}
	}
}

func TestChannelSequenceIsDeterministic(t *testing.T) {
	for id := uint64(0); id < 16; id++ {
		first := ChannelSequence(id)
		second := ChannelSequence(id)
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("ChannelSequence(%d) not deterministic: %v vs %v", id, first, second)
				break
			}
		}
	}
}

func TestChannelSequenceVariesAcrossChunks(t *testing.T) {
	seen := map[string]bool{}
	for id := uint64(0); id < 64; id++ {
		seq := ChannelSequence(id)
		seen[string(seq)] = true
	}
	// All 6 permutations of 3 elements should plausibly appear over 64 ids.
	if len(seen) < 2 {
		t.Errorf("expected ChannelSequence to vary across chunk ids, got only %d distinct sequence(s)", len(seen))
	}
}

// referenceSequence spells out the full pinned construction step by step:
// SHA-256 of the decimal chunk id, first 8 hex chars as a big-endian
// uint32 seed, mt19937.New().Seed, rand.Shuffle over [0,1,2].
func referenceSequence(chunkID uint64) []byte {
	sum := sha256.Sum256([]byte(strconv.FormatUint(chunkID, 10)))
	hexDigest := hex.EncodeToString(sum[:])
	seedBytes, _ := hex.DecodeString(hexDigest[:8])
	seed := binary.BigEndian.Uint32(seedBytes)

	mt := mt19937.New()
	mt.Seed(int64(seed))
	wrapper := mrand.New(mt)

	seq := []byte{0, 1, 2}
	wrapper.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq
}

// TestChannelSequenceReference pins ChannelSequence against an inline
// restatement of its documented construction, so a change to any step of
// that chain (a different hash, a different seed-byte slice, a different
// generator or shuffle) fails here instead of silently drifting between
// encode and decode.
func TestChannelSequenceReference(t *testing.T) {
	for id := uint64(0); id < 16; id++ {
		got := ChannelSequence(id)
		want := referenceSequence(id)
		if len(got) != len(want) {
			t.Fatalf("ChannelSequence(%d) = %v, want %v", id, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("ChannelSequence(%d) = %v, want %v", id, got, want)
				break
			}
		}
	}
}
