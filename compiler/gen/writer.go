package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/dbmap/meta"
)

// Metrics tracks generation output.
type Metrics struct {
	FilesGenerated int
	TotalBytes     int64
	// Skipped counts members left to reflection.
	Skipped int
}

// Metrics returns the generation metrics.
func (g *Generator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.metrics
}

// Generate writes one file per type returned by Types, in parallel.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.cfg.Target, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for _, mt := range g.Types() {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.generateFile(mt)
			}
		})
	}
	return eg.Wait()
}

// Render returns the formatted source of the file generated for mt.
func (g *Generator) Render(mt *meta.MetaType) ([]byte, []string, error) {
	f, skipped := g.File(mt)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, nil, NewGenerationError(mt.Name, FileName(mt), "render", err)
	}
	// Remove unused imports and add missing ones.
	out, err := imports.Process(filepath.Join(g.cfg.Target, FileName(mt)), buf.Bytes(), nil)
	if err != nil {
		return buf.Bytes(), skipped, NewGenerationError(mt.Name, FileName(mt), "format", err)
	}
	return out, skipped, nil
}

func (g *Generator) generateFile(mt *meta.MetaType) error {
	path := filepath.Join(g.cfg.Target, FileName(mt))
	src, skipped, err := g.Render(mt)
	if err != nil {
		if src != nil {
			// Unformatted output for debugging; the write error is secondary.
			_ = os.WriteFile(path+".error", src, 0o644)
		}
		return err
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return NewGenerationError(mt.Name, path, "write", err)
	}
	g.cfg.Logger.Debug("accessor file written",
		zap.String("type", mt.Name),
		zap.String("file", path),
		zap.Strings("skipped", skipped),
	)
	g.mu.Lock()
	g.metrics.FilesGenerated++
	g.metrics.TotalBytes += int64(len(src))
	g.metrics.Skipped += len(skipped)
	g.mu.Unlock()
	return nil
}
