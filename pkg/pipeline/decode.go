package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/slippyex/pixveil/pkg/compress"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/extract"
	"github.com/slippyex/pixveil/pkg/mapio"
	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/pvcrypto"
	"github.com/slippyex/pixveil/pkg/pximage"
	"github.com/slippyex/pixveil/pkg/trace"
)

// DecodeConfig configures one decode run.
type DecodeConfig struct {
	CarrierDir string // directory holding the encoded carrier PNGs
	OutputPath string // file path to write the recovered secret to
	Password   string
}

func (c DecodeConfig) validate() error {
	if c.CarrierDir == "" || c.OutputPath == "" {
		return pverr.New(pverr.InvalidConfig, "DecodeConfig.validate", fmt.Errorf("carrierDir/outputPath required"))
	}
	if c.Password == "" {
		return pverr.New(pverr.InvalidConfig, "DecodeConfig.validate", fmt.Errorf("password required"))
	}
	return nil
}

// DecodeResult reports what Decode produced.
type DecodeResult struct {
	OutputPath string
	Filename   string
}

// Decode drives the decode state machine: discover the map, extract and
// assemble the payload, verify its checksum, then decrypt, decompress,
// and write the recovered secret.
func Decode(ctx context.Context, cfg DecodeConfig) (*DecodeResult, error) {
	log := trace.FromContext(ctx).WithPrefix("DECODE")
	state := StateInit

	fail := func(s State, err error) (*DecodeResult, error) {
		log.Error(fmt.Errorf("%s: %w", s, err))
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return fail(state, err)
	}

	state = StateDiscoverMap
	carrierPaths, err := listPNGs(cfg.CarrierDir)
	if err != nil {
		return fail(state, err)
	}
	if len(carrierPaths) == 0 {
		return fail(state, pverr.New(pverr.MapNotFound, "Decode: discover map", fmt.Errorf("no carrier PNGs in %s", cfg.CarrierDir)))
	}

	var dm *distmap.Map
	images := make(map[string]*pximage.Carrier, len(carrierPaths))
	var mapFound bool
	for _, p := range carrierPaths {
		img, err := pximage.Load(p)
		if err != nil {
			return fail(state, pverr.New(pverr.IOError, "Decode: load carrier", err))
		}
		images[filepath.Base(p)] = img

		if mapFound {
			continue
		}
		framed, found, derr := mapio.Discover(img)
		if derr != nil {
			return fail(state, derr)
		}
		if !found {
			continue
		}
		parsed, perr := parseFramedMap(ctx, framed, cfg.Password)
		if perr != nil {
			return fail(state, perr)
		}
		dm = parsed
		mapFound = true
	}
	if !mapFound {
		return fail(state, pverr.New(pverr.MapNotFound, "Decode: discover map", fmt.Errorf("no carrier exposes a valid map prefix")))
	}
	log.Infof("%s: map found with %d entries", state, len(dm.Entries))

	state = StateExtract
	chunkBytes := make(map[uint32][]byte, len(dm.Entries))
	for _, e := range dm.Entries {
		img, ok := images[e.PNGFile]
		if !ok {
			return fail(state, pverr.New(pverr.MapCorrupt, "Decode: extract",
				fmt.Errorf("map references unknown carrier %q", e.PNGFile)))
		}
		// floor((end-start)*k/8) recovers this chunk's exact original byte
		// length: placement reserved ceil(byteLen*8/k) channels, so the
		// leftover bits in the final channel are always < k <= 8 and
		// floor drops exactly them, never spilling into the next chunk.
		byteLen := int(e.EndChannelPosition-e.StartChannelPosition) * int(e.BitsPerChannel) / 8
		chunkBytes[e.ChunkID] = extract.ReadEntry(img, e, byteLen)
	}

	state = StateAssemble
	ids := make([]uint32, 0, len(dm.Entries))
	for id := range chunkBytes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assembled := make([]byte, 0, dm.EncryptedDataLength)
	for _, id := range ids {
		assembled = append(assembled, chunkBytes[id]...)
	}
	if uint32(len(assembled)) > dm.EncryptedDataLength {
		assembled = assembled[:dm.EncryptedDataLength]
	} else if uint32(len(assembled)) < dm.EncryptedDataLength {
		return fail(state, pverr.New(pverr.MapCorrupt, "Decode: assemble",
			fmt.Errorf("assembled %d bytes, expected %d", len(assembled), dm.EncryptedDataLength)))
	}

	state = StateVerifyChecksum
	if err := pvcrypto.VerifyChecksum(assembled, hex.EncodeToString(dm.Checksum)); err != nil {
		return fail(state, err)
	}

	state = StateDecrypt
	plainCompressed, err := pvcrypto.Decrypt(assembled, cfg.Password)
	if err != nil {
		return fail(state, err)
	}

	state = StateDecompress
	plain, err := compress.Decompress(ctx, dm.CompressionStrategy, plainCompressed)
	if err != nil {
		return fail(state, pverr.New(pverr.IOError, "Decode: decompress", err))
	}

	state = StateWriteOutput
	if err := os.WriteFile(cfg.OutputPath, plain, 0o644); err != nil {
		return fail(state, pverr.New(pverr.IOError, "Decode: write output", err))
	}

	state = StateDone
	log.Infof("%s: wrote %d bytes to %s", state, len(plain), cfg.OutputPath)
	return &DecodeResult{OutputPath: cfg.OutputPath, Filename: dm.OriginalFilename}, nil
}

// parseFramedMap strips the magic+size frame, decrypts, Brotli-decompresses,
// and deserializes a discovered map blob.
func parseFramedMap(ctx context.Context, framed []byte, password string) (*distmap.Map, error) {
	if len(framed) < distmap.HeaderLen() {
		return nil, pverr.New(pverr.MapCorrupt, "parseFramedMap", fmt.Errorf("truncated frame"))
	}
	ciphertext := framed[distmap.HeaderLen():]
	compressed, err := pvcrypto.Decrypt(ciphertext, password)
	if err != nil {
		return nil, err
	}
	mapContent, err := compress.Decompress(ctx, compress.Brotli, compressed)
	if err != nil {
		return nil, pverr.New(pverr.MapCorrupt, "parseFramedMap: decompress", err)
	}
	return distmap.Unmarshal(mapContent)
}
