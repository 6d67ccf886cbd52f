// Package main provides the command-line interface for pixveil, a tool
// that hides a secret file across a set of PNG carrier images using
// least-significant-bit embedding and recovers it again.
//
// Usage examples:
//
//	# Hide secret.txt across the PNGs in ./carriers, writing to ./out
//	pixveil encode secret.txt ./carriers ./out -password hunter2
//
//	# Recover the secret from a directory of encoded carriers
//	pixveil decode ./out recovered.txt -password hunter2
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/slippyex/pixveil"
	"github.com/slippyex/pixveil/pkg/trace"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  pixveil encode <secretFile> <carrierDir> <outputDir> -password PASS [options]
  pixveil decode <carrierDir> <outputFile> -password PASS

Commands:
  encode            Hide a file across the PNGs in carrierDir, writing mutated carriers to outputDir
  decode            Recover a file previously hidden across the PNGs in carrierDir

Options (encode):
  -password PASS    Password used to derive the AES key (required)
  -min-chunk N       Minimum chunk size in bytes (default 16)
  -max-chunk N       Maximum chunk size in bytes (default 4096)
  -max-per-png N     Maximum chunks placed in a single carrier (default 16)
  -bits N            Bits per channel, 1-8 (default 2)
  -debug             Paint diagnostic blocks at entry boundaries
  -verify            Re-decode the freshly written output and compare against the input
  -clear             Clear the output directory if it already exists and is non-empty
  -verbose           Enable detailed (debug-level) output

Options (decode):
  -password PASS    Password used to derive the AES key (required)
  -verbose           Enable detailed (debug-level) output

Examples:
  pixveil encode ~/secret.pdf ~/carriers ~/out -password "correct horse" -bits 2 -verify
  pixveil decode ~/out ~/recovered.pdf -password "correct horse"
`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "encode":
		runEncode()
	case "decode":
		runDecode()
	default:
		usage()
	}
}

func runEncode() {
	if len(os.Args) < 5 {
		usage()
	}
	secretPath := os.Args[2]
	carrierDir := os.Args[3]
	outputDir := os.Args[4]

	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	password := fs.String("password", "", "password used to derive the AES key (required)")
	minChunk := fs.Int("min-chunk", 16, "minimum chunk size in bytes")
	maxChunk := fs.Int("max-chunk", 4096, "maximum chunk size in bytes")
	maxPerPNG := fs.Int("max-per-png", 16, "maximum chunks placed in a single carrier")
	bits := fs.Int("bits", 2, "bits per channel, 1-8")
	debug := fs.Bool("debug", false, "paint diagnostic blocks at entry boundaries")
	verify := fs.Bool("verify", false, "re-decode the freshly written output and compare")
	clear := fs.Bool("clear", false, "clear the output directory if non-empty")
	verbose := fs.Bool("verbose", false, "enable detailed (debug-level) output")
	fs.Parse(os.Args[5:])

	if *password == "" {
		log.Fatal("Error: -password is required")
	}
	if *bits < 1 || *bits > 8 {
		log.Fatalf("Error: -bits must be between 1 and 8, got %d", *bits)
	}

	ctx := newTracedContext(*verbose)
	res, err := pixveil.Encode(ctx, pixveil.EncodeConfig{
		SecretPath:      secretPath,
		CarrierDir:      carrierDir,
		OutputDir:       outputDir,
		Password:        *password,
		MinChunkSize:    *minChunk,
		MaxChunkSize:    *maxChunk,
		MaxChunksPerPNG: *maxPerPNG,
		BitsPerChannel:  uint8(*bits),
		DebugOverlay:    *debug,
		Verify:          *verify,
		ClearOutputDir:  *clear,
	})
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	fmt.Printf("wrote %d carrier(s) to %s (map in %s)\n", len(res.CarrierFiles), outputDir, res.MapCarrier)
}

func runDecode() {
	if len(os.Args) < 4 {
		usage()
	}
	carrierDir := os.Args[2]
	outputPath := os.Args[3]

	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	password := fs.String("password", "", "password used to derive the AES key (required)")
	verbose := fs.Bool("verbose", false, "enable detailed (debug-level) output")
	fs.Parse(os.Args[4:])

	if *password == "" {
		log.Fatal("Error: -password is required")
	}

	ctx := newTracedContext(*verbose)
	res, err := pixveil.Decode(ctx, pixveil.DecodeConfig{
		CarrierDir: carrierDir,
		OutputPath: outputPath,
		Password:   *password,
	})
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}
	fmt.Printf("recovered %q to %s\n", res.Filename, res.OutputPath)
}

func newTracedContext(verbose bool) context.Context {
	level := trace.LogLevelNormal
	if verbose {
		level = trace.LogLevelVerbose
	}
	return trace.WithContext(context.Background(), trace.NewTracer("MAIN", level))
}
