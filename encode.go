package pixveil

import (
	"context"

	"github.com/slippyex/pixveil/pkg/pipeline"
	"github.com/slippyex/pixveil/pkg/rng"
)

// EncodeConfig configures one Encode call. SecretPath names the file to
// hide; CarrierDir holds the input PNGs; OutputDir receives the mutated
// carriers (and is created if missing). Password derives the AES key; it
// plays no part in chunk/placement jitter, which comes from Rand.
//
// MinChunkSize, MaxChunkSize, MaxChunksPerPNG, and BitsPerChannel default
// to spec-given values (16, 4096, 16, 2) when left zero.
type EncodeConfig struct {
	SecretPath      string
	CarrierDir      string
	OutputDir       string
	Password        string
	MinChunkSize    int
	MaxChunkSize    int
	MaxChunksPerPNG int
	BitsPerChannel  uint8
	DebugOverlay    bool
	Verify          bool
	ClearOutputDir  bool

	// Rand overrides the entropy source used for the IV, chunk-size
	// jitter, and placement probing. Nil selects the default source.
	Rand rng.Source
}

// EncodeResult reports the carrier files Encode wrote, which one holds
// the embedded distribution map, and how many chunks the payload was
// split into.
type EncodeResult struct {
	CarrierFiles []string
	MapCarrier   string
	ChunkCount   int
}

// Encode hides the file at cfg.SecretPath across the PNGs in cfg.CarrierDir,
// writing the mutated carriers to cfg.OutputDir.
func Encode(ctx context.Context, cfg EncodeConfig) (*EncodeResult, error) {
	res, err := pipeline.Encode(ctx, pipeline.EncodeConfig{
		SecretPath:      cfg.SecretPath,
		CarrierDir:      cfg.CarrierDir,
		OutputDir:       cfg.OutputDir,
		Password:        cfg.Password,
		MinChunkSize:    cfg.MinChunkSize,
		MaxChunkSize:    cfg.MaxChunkSize,
		MaxChunksPerPNG: cfg.MaxChunksPerPNG,
		BitsPerChannel:  cfg.BitsPerChannel,
		DebugOverlay:    cfg.DebugOverlay,
		Verify:          cfg.Verify,
		ClearOutputDir:  cfg.ClearOutputDir,
		Rand:            cfg.Rand,
	})
	if err != nil {
		return nil, err
	}
	return &EncodeResult{CarrierFiles: res.CarrierFiles, MapCarrier: res.MapCarrier, ChunkCount: res.ChunkCount}, nil
}
