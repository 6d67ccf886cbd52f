package pixveil

import (
	"context"

	"github.com/slippyex/pixveil/pkg/pipeline"
)

// DecodeConfig configures one Decode call. CarrierDir holds the mutated
// PNGs produced by a prior Encode; OutputPath is where the recovered
// secret is written.
type DecodeConfig struct {
	CarrierDir string
	OutputPath string
	Password   string
}

// DecodeResult reports where Decode wrote the recovered secret and its
// original filename.
type DecodeResult struct {
	OutputPath string
	Filename   string
}

// Decode scans cfg.CarrierDir for the embedded distribution map, extracts
// every chunk it describes, and reassembles the original secret file at
// cfg.OutputPath.
func Decode(ctx context.Context, cfg DecodeConfig) (*DecodeResult, error) {
	res, err := pipeline.Decode(ctx, pipeline.DecodeConfig{
		CarrierDir: cfg.CarrierDir,
		OutputPath: cfg.OutputPath,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	return &DecodeResult{OutputPath: res.OutputPath, Filename: res.Filename}, nil
}
