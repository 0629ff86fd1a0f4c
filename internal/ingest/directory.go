package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each readable file. Per-file failures are collected in the
// results; only a walk failure or cancellation aborts.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			if errors.Is(err, ErrNoSubject) {
				return err
			}
			return nil
		}
		results = append(results, r)
		switch {
		case r.Deduplicated:
			stats.Deduplicated++
		case r.Skipped:
			stats.Skipped++
		default:
			stats.Succeeded++
		}
		return nil
	})

	i.logger.Info("ingest.dir.done", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"skipped", stats.Skipped, "dedup", stats.Deduplicated, "failed", stats.Failed)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
