// Package rng provides the entropy sources used by pixveil: a
// cryptographically-backed default source for candidate-position probing,
// chunk-size jitter, and salt/IV generation, plus a deterministic
// counter-based source for reproducible tests.
package rng

import (
	"context"
	"crypto/cipher"
	crand "crypto/rand"
	"fmt"
	mrand "math/rand"
	"sync"

	"github.com/slippyex/pixveil/pkg/trace"
	"golang.org/x/crypto/chacha20"
)

// Source is a context-aware entropy source. Implementations never return a
// short read without a non-nil error.
type Source interface {
	Read(ctx context.Context, p []byte) (n int, err error)
}

// CryptoRNG reads directly from crypto/rand.
type CryptoRNG struct {
	lock sync.Mutex
}

func (r *CryptoRNG) Read(ctx context.Context, p []byte) (int, error) {
	log := trace.FromContext(ctx).WithPrefix("CRYPTO-RNG")
	log.Debugf("reading %d bytes from crypto/rand", len(p))

	r.lock.Lock()
	defer r.lock.Unlock()

	n, err := crand.Read(p)
	if err != nil {
		log.Error(fmt.Errorf("crypto/rand read failed: %w", err))
		return n, fmt.Errorf("crypto/rand read failed: %w", err)
	}
	return n, nil
}

// MathRNG is a math/rand source seeded from crypto/rand, mixed into
// MultiRNG for defense in depth.
type MathRNG struct {
	src  *mrand.Rand
	lock sync.Mutex
}

// NewMathRNG returns a MathRNG seeded from crypto/rand.
func NewMathRNG() *MathRNG {
	var seed int64
	b := make([]byte, 8)
	if _, err := crand.Read(b); err == nil {
		for i := 0; i < 8; i++ {
			seed = (seed << 8) | int64(b[i])
		}
	}
	return &MathRNG{src: mrand.New(mrand.NewSource(seed))}
}

func (mr *MathRNG) Read(ctx context.Context, p []byte) (int, error) {
	log := trace.FromContext(ctx).WithPrefix("MATH-RNG")
	log.Debugf("reading %d bytes from math/rand", len(p))

	mr.lock.Lock()
	defer mr.lock.Unlock()

	for i := range p {
		p[i] = byte(mr.src.Intn(256))
	}
	return len(p), nil
}

// ChaCha20RNG streams keystream bytes from a randomly-keyed ChaCha20
// cipher. It is never used for key derivation, only as a mixed-in entropy
// source for placement probing and chunk-size jitter.
type ChaCha20RNG struct {
	lock   sync.Mutex
	stream cipher.Stream
}

// NewChaCha20RNG returns a ChaCha20RNG with a random key and nonce sourced
// from crypto/rand.
func NewChaCha20RNG() (*ChaCha20RNG, error) {
	key := make([]byte, chacha20.KeySize)
	nonce := make([]byte, chacha20.NonceSize)
	if _, err := crand.Read(key); err != nil {
		return nil, fmt.Errorf("generate chacha20 key: %w", err)
	}
	if _, err := crand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate chacha20 nonce: %w", err)
	}
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("create chacha20 stream: %w", err)
	}
	return &ChaCha20RNG{stream: stream}, nil
}

func (c *ChaCha20RNG) Read(ctx context.Context, p []byte) (int, error) {
	log := trace.FromContext(ctx).WithPrefix("CHACHA20-RNG")
	log.Debugf("reading %d bytes from ChaCha20 stream", len(p))

	c.lock.Lock()
	defer c.lock.Unlock()

	for i := range p {
		p[i] = 0
	}
	c.stream.XORKeyStream(p, p)
	return len(p), nil
}

// MultiRNG XORs the output of several sources together, each read fully
// before mixing, so a weakness in one source never compromises the
// combined stream.
type MultiRNG struct {
	Sources []Source
	lock    sync.Mutex
}

func (m *MultiRNG) Read(ctx context.Context, p []byte) (int, error) {
	log := trace.FromContext(ctx).WithPrefix("MULTI-RNG")
	log.Debugf("generating %d bytes from %d sources", len(p), len(m.Sources))

	m.lock.Lock()
	defer m.lock.Unlock()

	acc := make([]byte, len(p))
	for i, s := range m.Sources {
		tmp := make([]byte, len(p))
		offset := 0
		for offset < len(p) {
			n, err := s.Read(ctx, tmp[offset:])
			if err != nil {
				log.Error(fmt.Errorf("random source #%d failed: %w", i+1, err))
				return 0, fmt.Errorf("random source #%d failed: %w", i+1, err)
			}
			if n == 0 {
				continue
			}
			offset += n
		}
		for j := 0; j < len(p); j++ {
			acc[j] ^= tmp[j]
		}
	}
	copy(p, acc)
	return len(p), nil
}

// NewDefaultRNG combines crypto/rand with a ChaCha20 keystream:
//   - security depends only on the stronger of the two sources
//   - a weakness in either source alone does not compromise the system
func NewDefaultRNG() (Source, error) {
	cc, err := NewChaCha20RNG()
	if err != nil {
		return nil, err
	}
	return &MultiRNG{Sources: []Source{&CryptoRNG{}, cc}}, nil
}

// TestRNG is a deterministic counter-based source for reproducible tests.
type TestRNG struct {
	counter byte
}

// NewTestRNG returns a TestRNG whose first generated byte is initialValue.
func NewTestRNG(initialValue byte) *TestRNG { return &TestRNG{counter: initialValue} }

func (r *TestRNG) Read(ctx context.Context, p []byte) (int, error) {
	for i := range p {
		p[i] = r.counter
		r.counter++
	}
	return len(p), nil
}
