// Package pipeline implements the encode/decode state machines that
// sequence every other package into the end-to-end codec.
package pipeline

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/slippyex/pixveil/pkg/chunk"
	"github.com/slippyex/pixveil/pkg/compress"
	"github.com/slippyex/pixveil/pkg/distmap"
	"github.com/slippyex/pixveil/pkg/file"
	"github.com/slippyex/pixveil/pkg/inject"
	"github.com/slippyex/pixveil/pkg/mapio"
	"github.com/slippyex/pixveil/pkg/placement"
	"github.com/slippyex/pixveil/pkg/pverr"
	"github.com/slippyex/pixveil/pkg/pvcrypto"
	"github.com/slippyex/pixveil/pkg/pximage"
	"github.com/slippyex/pixveil/pkg/rng"
	"github.com/slippyex/pixveil/pkg/tone"
	"github.com/slippyex/pixveil/pkg/trace"
)

// State identifies a step of the encode or decode state machine. Errors
// transition to the terminal Error state and surface the originating
// cause; Error never continues to the next state.
type State string

const (
	StateInit             State = "INIT"
	StateReadFile         State = "READ_FILE"
	StateCompress         State = "COMPRESS"
	StateEncrypt          State = "ENCRYPT"
	StateSplit            State = "SPLIT"
	StateAnalyzeCapacity  State = "ANALYZE_CAPACITY"
	StateDistribute       State = "DISTRIBUTE"
	StateInject           State = "INJECT"
	StateWriteMap         State = "WRITE_MAP"
	StateVerify           State = "VERIFY"
	StateDiscoverMap      State = "DISCOVER_MAP"
	StateExtract          State = "EXTRACT"
	StateAssemble         State = "ASSEMBLE"
	StateVerifyChecksum   State = "VERIFY_CHECKSUM"
	StateDecrypt          State = "DECRYPT"
	StateDecompress       State = "DECOMPRESS"
	StateWriteOutput      State = "WRITE_OUTPUT"
	StateDone             State = "DONE"
	StateError            State = "ERROR"
)

// EncodeConfig configures one encode run.
type EncodeConfig struct {
	SecretPath      string // path to the file being hidden
	CarrierDir      string // directory of input carrier PNGs
	OutputDir       string // directory to write mutated carrier PNGs into
	Password        string
	MinChunkSize    int // default 16
	MaxChunkSize    int // default 4096
	MaxChunksPerPNG int // default 16
	BitsPerChannel  uint8
	DebugOverlay    bool // paint diagnostic blocks at entry boundaries
	Verify          bool // re-decode the freshly written output and compare
	ClearOutputDir  bool // clear OutputDir if it already exists and is non-empty

	// Rand overrides the entropy source used for the IV, chunk-size
	// jitter, and placement probing. Nil selects rng.NewDefaultRNG; a
	// pinned source makes the whole encode reproducible.
	Rand rng.Source
}

func (c EncodeConfig) validate() error {
	if c.SecretPath == "" || c.CarrierDir == "" || c.OutputDir == "" {
		return pverr.New(pverr.InvalidConfig, "EncodeConfig.validate", fmt.Errorf("secret/carrier/output path required"))
	}
	if c.Password == "" {
		return pverr.New(pverr.InvalidConfig, "EncodeConfig.validate", fmt.Errorf("password required"))
	}
	if c.MinChunkSize < chunk.MinChunkSize {
		return pverr.New(pverr.InvalidConfig, "EncodeConfig.validate",
			fmt.Errorf("minChunkSize %d below %d", c.MinChunkSize, chunk.MinChunkSize))
	}
	if c.MaxChunkSize < c.MinChunkSize {
		return pverr.New(pverr.InvalidConfig, "EncodeConfig.validate", fmt.Errorf("maxChunkSize below minChunkSize"))
	}
	if c.BitsPerChannel < 1 || c.BitsPerChannel > 8 {
		return pverr.New(pverr.InvalidConfig, "EncodeConfig.validate",
			fmt.Errorf("bitsPerChannel %d out of [1,8]", c.BitsPerChannel))
	}
	return nil
}

// WithDefaults fills unset knobs with their defaults.
func (c EncodeConfig) WithDefaults() EncodeConfig {
	if c.MinChunkSize == 0 {
		c.MinChunkSize = chunk.MinChunkSize
	}
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = 4096
	}
	if c.MaxChunksPerPNG == 0 {
		c.MaxChunksPerPNG = placement.DefaultMaxChunksPerPNG
	}
	if c.BitsPerChannel == 0 {
		c.BitsPerChannel = 2
	}
	return c
}

// EncodeResult reports what Encode produced.
type EncodeResult struct {
	CarrierFiles []string
	MapCarrier   string
	ChunkCount   int
}

// Encode drives the encode state machine from INIT through DONE.
func Encode(ctx context.Context, cfg EncodeConfig) (*EncodeResult, error) {
	log := trace.FromContext(ctx).WithPrefix("ENCODE")
	state := StateInit
	cfg = cfg.WithDefaults()

	fail := func(s State, err error) (*EncodeResult, error) {
		log.Error(fmt.Errorf("%s: %w", s, err))
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return fail(StateInit, err)
	}

	state = StateReadFile
	secret, err := os.ReadFile(cfg.SecretPath)
	if err != nil {
		return fail(state, pverr.New(pverr.IOError, "Encode: read secret", err))
	}
	log.Infof("%s: read %d bytes from %s", state, len(secret), cfg.SecretPath)

	state = StateCompress
	strategy := compress.ForFilename(cfg.SecretPath)
	compressed, err := compress.Compress(ctx, strategy, secret)
	if err != nil {
		return fail(state, pverr.New(pverr.IOError, "Encode: compress", err))
	}

	state = StateEncrypt
	src := cfg.Rand
	if src == nil {
		src, err = rng.NewDefaultRNG()
		if err != nil {
			return fail(state, pverr.New(pverr.IOError, "Encode: rng init", err))
		}
	}
	encrypted, err := pvcrypto.EncryptWithRand(ctx, compressed, cfg.Password, src)
	if err != nil {
		return fail(state, err)
	}
	checksumHex := pvcrypto.Checksum(encrypted)
	checksumBytes, err := hex.DecodeString(checksumHex)
	if err != nil {
		return fail(state, pverr.New(pverr.IOError, "Encode: checksum decode", err))
	}

	state = StateSplit
	chunks, err := chunk.Split(ctx, encrypted, cfg.MinChunkSize, cfg.MaxChunkSize, src)
	if err != nil {
		return fail(state, err)
	}
	log.Infof("%s: %d chunks", state, len(chunks))

	state = StateAnalyzeCapacity
	if err := file.ValidateInputDirectory(ctx, cfg.CarrierDir); err != nil {
		return fail(state, pverr.New(pverr.InvalidConfig, "Encode: validate carrier dir", err))
	}
	carrierPaths, err := listPNGs(cfg.CarrierDir)
	if err != nil {
		return fail(state, err)
	}
	if len(carrierPaths) == 0 {
		return fail(state, pverr.New(pverr.InvalidConfig, "Encode: analyze capacity", fmt.Errorf("no carrier PNGs in %s", cfg.CarrierDir)))
	}
	carriers := make([]*placement.Carrier, 0, len(carrierPaths))
	images := make(map[string]*pximage.Carrier, len(carrierPaths))
	var totalCapacity tone.Capacity
	for _, p := range carrierPaths {
		img, err := pximage.Load(p)
		if err != nil {
			return fail(state, pverr.New(pverr.IOError, "Encode: load carrier", err))
		}
		c := placement.NewCarrier(img)
		carriers = append(carriers, c)
		images[c.Name] = img

		rep := tone.ReportCached(img)
		totalCapacity.Low += rep.Low
		totalCapacity.Mid += rep.Mid
		totalCapacity.High += rep.High
	}

	// Pre-flight capacity check over the tone analyzer's per-carrier
	// report: fail fast with a clear shortfall before placement.Plan's
	// per-chunk probing discovers the same thing chunk by chunk.
	neededChannels := 0
	for _, ch := range chunks {
		bits := len(ch.Data) * 8
		neededChannels += (bits + int(cfg.BitsPerChannel) - 1) / int(cfg.BitsPerChannel)
	}
	if neededChannels > totalCapacity.Total() {
		return fail(state, pverr.New(pverr.InsufficientCapacity, "Encode: analyze capacity",
			fmt.Errorf("need %d channels across %d chunks, carriers report %d (low=%d mid=%d high=%d)",
				neededChannels, len(chunks), totalCapacity.Total(), totalCapacity.Low, totalCapacity.Mid, totalCapacity.High)))
	}
	log.Infof("%s: %d channels needed, %d available across %d carrier(s)", state, neededChannels, totalCapacity.Total(), len(carriers))

	// Reserve the first carrier's map prefix (lexicographic order) before
	// placement runs, so payload chunks can never collide with it. The
	// map's exact size depends on the entries that placement is about to
	// produce, so a conservative upper-bound estimate is reserved now; the
	// real framed blob embedded later must stay within this bound.
	sort.Slice(carriers, func(i, j int) bool { return carriers[i].Name < carriers[j].Name })
	mapCarrierEntry := carriers[0]
	reservedPrefix := estimateMapPrefixChannels(len(chunks))
	mapCarrierEntry.ReserveMapPrefix(reservedPrefix)

	state = StateDistribute
	entries, err := placement.Plan(ctx, chunks, carriers, cfg.MaxChunksPerPNG, cfg.BitsPerChannel, src)
	if err != nil {
		return fail(state, err)
	}

	dm := &distmap.Map{
		Entries:             entries,
		Checksum:            checksumBytes,
		OriginalFilename:    filepath.Base(cfg.SecretPath),
		EncryptedDataLength: uint32(len(encrypted)),
		CompressionStrategy: strategy,
	}

	// The map blob itself is always Brotli-compressed, then encrypted
	// under the same password, then magic+size framed.
	mapContent := dm.Marshal()
	mapCompressed, err := compress.Compress(ctx, compress.Brotli, mapContent)
	if err != nil {
		return fail(StateWriteMap, pverr.New(pverr.IOError, "Encode: compress map", err))
	}
	mapEncrypted, err := pvcrypto.EncryptWithRand(ctx, mapCompressed, cfg.Password, src)
	if err != nil {
		return fail(StateWriteMap, err)
	}
	framed := distmap.Frame(mapEncrypted)

	state = StateInject
	for _, e := range entries {
		img := images[e.PNGFile]
		if err := inject.WriteEntry(img, e, chunkDataFor(chunks, e.ChunkID), cfg.DebugOverlay); err != nil {
			return fail(state, err)
		}
	}

	state = StateWriteMap
	if got := mapio.PrefixLength(len(framed)); got > reservedPrefix {
		return fail(state, pverr.New(pverr.InsufficientCapacity, "Encode: write map",
			fmt.Errorf("framed map needs %d channels, %d reserved", got, reservedPrefix)))
	}
	if err := mapio.Embed(mapCarrierEntry.Image, framed); err != nil {
		return fail(state, err)
	}

	if err := file.PrepareOutputDirectory(ctx, cfg.OutputDir, cfg.ClearOutputDir); err != nil {
		return fail(state, pverr.New(pverr.IOError, "Encode: prepare output dir", err))
	}
	var outFiles []string
	for _, c := range carriers {
		outPath := filepath.Join(cfg.OutputDir, c.Name)
		if err := c.Image.Save(outPath); err != nil {
			return fail(state, pverr.New(pverr.IOError, "Encode: save carrier", err))
		}
		outFiles = append(outFiles, outPath)
	}

	if cfg.Verify {
		state = StateVerify
		decoded, err := Decode(ctx, DecodeConfig{
			CarrierDir: cfg.OutputDir,
			OutputPath: cfg.SecretPath + ".verify",
			Password:   cfg.Password,
		})
		if err != nil {
			return fail(state, pverr.New(pverr.VerifyFailed, "Encode: verify", err))
		}
		defer os.Remove(decoded.OutputPath)
		got, err := os.ReadFile(decoded.OutputPath)
		if err != nil {
			return fail(state, pverr.New(pverr.VerifyFailed, "Encode: verify read", err))
		}
		if !bytes.Equal(got, secret) {
			return fail(state, pverr.New(pverr.VerifyFailed, "Encode: verify compare", fmt.Errorf("round-trip mismatch")))
		}
	}

	state = StateDone
	log.Infof("%s: wrote %d carriers, map in %s", state, len(outFiles), mapCarrierEntry.Name)
	return &EncodeResult{CarrierFiles: outFiles, MapCarrier: mapCarrierEntry.Name, ChunkCount: len(chunks)}, nil
}

// estimateMapPrefixChannels returns a conservative upper bound, in
// channels, for the space the framed distribution-map blob will occupy in
// the first carrier. The map's real size depends on the placement
// entries, which don't exist yet when the prefix must be reserved, so
// this over-counts: worst-case per-entry wire size, no assumption that
// Brotli shrinks anything, plus AES block rounding and frame overhead.
func estimateMapPrefixChannels(chunkCount int) int {
	const maxFilenameBytes = 96
	perEntry := 4 + 2 + maxFilenameBytes + 4 + 4 + 1 + 1 + 1 // chunkId..packed seq
	mapContentBound := 4 + chunkCount*perEntry + 2 + 32 + 2 + maxFilenameBytes + 4 + 1
	// Brotli framing/header overhead in the unlikely worst case it can't
	// shrink already-small structured data.
	compressedBound := mapContentBound + 64
	// PKCS#7 padding to the AES block size, plus the random IV prefix.
	encryptedBound := ((compressedBound+16)/16)*16 + 16
	framedBound := distmap.HeaderLen() + encryptedBound
	return mapio.PrefixLength(framedBound)
}

func chunkDataFor(chunks []chunk.Chunk, id uint32) []byte {
	for _, c := range chunks {
		if uint32(c.ID) == id {
			return c.Data
		}
	}
	return nil
}

func listPNGs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pverr.New(pverr.IOError, "listPNGs", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".png" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

