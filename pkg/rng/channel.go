package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	mrand "math/rand"
	"strconv"

	"github.com/seehuhn/mt19937"
)

// ChannelSequence returns the deterministic R/G/B channel visiting order
// for a given chunk id: seed the Mersenne Twister with the first 8 hex
// characters (interpreted as a uint32) of SHA-256(decimal(chunkId)), then
// Fisher-Yates shuffle [0,1,2] (R,G,B) with it. Encode and decode must
// agree on this function bit for bit, so the generator is pinned to
// seehuhn/mt19937 wrapped as a math/rand.Source.
func ChannelSequence(chunkID uint64) []byte {
	sum := sha256.Sum256([]byte(strconv.FormatUint(chunkID, 10)))
	hexDigest := hex.EncodeToString(sum[:])
	seedBytes, _ := hex.DecodeString(hexDigest[:8])
	seed := binary.BigEndian.Uint32(seedBytes)

	mt := mt19937.New()
	mt.Seed(int64(seed))
	wrapper := mrand.New(mt)

	seq := []byte{0, 1, 2} // R, G, B
	wrapper.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq
}
