// Package distmap implements the distribution map's in-memory model and
// its binary wire codec. The embedded form is magic-framed: magic bytes,
// then a u32 size, then the encrypted map content.
package distmap

import (
	"fmt"

	"github.com/slippyex/pixveil/pkg/bitops"
	"github.com/slippyex/pixveil/pkg/codec"
	"github.com/slippyex/pixveil/pkg/compress"
	"github.com/slippyex/pixveil/pkg/pverr"
)

// MagicBytes marks the start of an embedded distribution map blob.
var MagicBytes = []byte("PVM1")

// MapPrefixBits is the fixed bitsPerChannel used when embedding/discovering
// the map blob in a carrier's channel-0 prefix.
const MapPrefixBits = 2

// Entry is one chunk's placement record, immutable once placement
// completes.
type Entry struct {
	ChunkID              uint32
	PNGFile              string
	StartChannelPosition uint32
	EndChannelPosition   uint32
	BitsPerChannel       uint8
	ChannelSequence      []byte // permutation of {0=R,1=G,2=B}, typically length 3
}

// Map is the full distribution map.
type Map struct {
	Entries             []Entry
	Checksum            []byte // raw SHA-256 digest bytes
	OriginalFilename    string
	EncryptedDataLength uint32
	CompressionStrategy compress.Strategy
}

// Marshal serializes the map content (entryCount, entries, checksum,
// filename, encryptedDataLength, compressionStrategy). This is
// the buffer that gets Brotli-compressed and AES-encrypted before being
// magic+size framed for embedding.
func (m *Map) Marshal() []byte {
	w := codec.NewWriter()
	w.PutUint32(uint32(len(m.Entries)))
	for _, e := range m.Entries {
		w.PutUint32(e.ChunkID)
		w.PutString16(e.PNGFile)
		w.PutUint32(e.StartChannelPosition)
		w.PutUint32(e.EndChannelPosition)
		w.PutUint8(e.BitsPerChannel)
		w.PutUint8(uint8(len(e.ChannelSequence)))
		w.PutRaw(bitops.PackChannelSeq(e.ChannelSequence))
	}
	w.PutBytes16(m.Checksum)
	w.PutString16(m.OriginalFilename)
	w.PutUint32(m.EncryptedDataLength)
	w.PutUint8(strategyToWire(m.CompressionStrategy))
	return w.Bytes()
}

// Unmarshal deserializes mapContent produced by Marshal, returning
// MapCorrupt on any structural inconsistency (truncation, unknown
// compression tag).
func Unmarshal(data []byte) (*Map, error) {
	r := codec.NewReader(data)
	entryCount := r.Uint32()
	entries := make([]Entry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		var e Entry
		e.ChunkID = r.Uint32()
		e.PNGFile = r.String16()
		e.StartChannelPosition = r.Uint32()
		e.EndChannelPosition = r.Uint32()
		e.BitsPerChannel = r.Uint8()
		seqLen := r.Uint8()
		packedLen := (int(seqLen)*2 + 7) / 8
		packed := r.Raw(packedLen)
		if r.Err() != nil {
			return nil, pverr.New(pverr.MapCorrupt, "distmap.Unmarshal: entry", r.Err())
		}
		e.ChannelSequence = bitops.UnpackChannelSeq(packed, int(seqLen))
		entries = append(entries, e)
	}
	m := &Map{Entries: entries}
	m.Checksum = r.Bytes16()
	m.OriginalFilename = r.String16()
	m.EncryptedDataLength = r.Uint32()
	strategy := r.Uint8()
	if r.Err() != nil {
		return nil, pverr.New(pverr.MapCorrupt, "distmap.Unmarshal", r.Err())
	}
	if strategy > 2 {
		return nil, pverr.New(pverr.MapCorrupt, "distmap.Unmarshal",
			fmt.Errorf("unknown compressionStrategy tag %d", strategy))
	}
	m.CompressionStrategy = wireToStrategy(strategy)
	return m, nil
}

// wireToStrategy maps the wire tag (0=Brotli,1=Gzip,2=None) to the
// internal compress.Strategy enumeration.
func wireToStrategy(wire byte) compress.Strategy {
	switch wire {
	case 0:
		return compress.Brotli
	case 1:
		return compress.Gzip
	default:
		return compress.None
	}
}

// strategyToWire is the inverse of wireToStrategy.
func strategyToWire(s compress.Strategy) byte {
	switch s {
	case compress.Brotli:
		return 0
	case compress.Gzip:
		return 1
	default:
		return 2
	}
}

// Frame wraps an already-compressed-and-encrypted map payload with the
// magic bytes and its u32 length.
func Frame(encryptedMapContent []byte) []byte {
	w := codec.NewWriter()
	w.PutRaw(MagicBytes)
	w.PutUint32(uint32(len(encryptedMapContent)))
	w.PutRaw(encryptedMapContent)
	return w.Bytes()
}

// HeaderLen is the number of bytes preceding the framed ciphertext
// (magic bytes plus the u32 size field).
func HeaderLen() int { return len(MagicBytes) + 4 }
