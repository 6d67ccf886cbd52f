// Package file validates and prepares the directories Encode/Decode read
// carrier PNGs from and write them to.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slippyex/pixveil/pkg/trace"
)

// ValidateInputDirectory checks that dir exists and is a directory.
func ValidateInputDirectory(ctx context.Context, dir string) error {
	log := trace.FromContext(ctx).WithPrefix("FILE")
	log.Debugf("validating input directory: %s", dir)

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input directory does not exist: %s", dir)
		}
		return fmt.Errorf("cannot access input directory %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", dir)
	}
	return nil
}

// PrepareOutputDirectory ensures outputDir exists, creating it if absent.
// If it exists and is non-empty, clear must be true or an error naming the
// first few conflicting entries is returned.
func PrepareOutputDirectory(ctx context.Context, outputDir string, clear bool) error {
	log := trace.FromContext(ctx).WithPrefix("FILE")
	log.Debugf("preparing output directory: %s (clear=%v)", outputDir, clear)

	stat, err := os.Stat(outputDir)
	exists := true
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
		} else {
			return fmt.Errorf("cannot access output directory %s: %w", outputDir, err)
		}
	} else if !stat.IsDir() {
		return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
	}

	if !exists {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		return nil
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if !clear {
		var fileList string
		for i, e := range entries {
			if i >= 5 {
				fileList += fmt.Sprintf("\n  ... and %d more", len(entries)-5)
				break
			}
			fileList += fmt.Sprintf("\n  - %s", e.Name())
		}
		return fmt.Errorf("output directory is not empty, pass -clear to clear it:%s", fileList)
	}
	for _, e := range entries {
		entryPath := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(entryPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entryPath, err)
		}
	}
	return nil
}
