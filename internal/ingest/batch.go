package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/chatnova/internal/models"
)

// BatchResult is the terminal state of one file in a batch: a document or an error.
type BatchResult struct {
	Name     string
	Document *models.UploadedDocument
	Err      error
}

// IngestBatch ingests files concurrently and returns once every file is terminal.
// Results are in input order; a failing file never affects the others.
func (in *Ingestor) IngestBatch(ctx context.Context, files []File) []BatchResult {
	results := make([]BatchResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(in.cfg.BatchConcurrency, 1))
	for i, f := range files {
		g.Go(func() error {
			results[i] = in.ingestOne(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (in *Ingestor) ingestOne(ctx context.Context, f File) (res BatchResult) {
	res.Name = f.Name
	defer func() {
		if r := recover(); r != nil {
			in.logger.Error("ingest panicked", zap.String("name", f.Name), zap.Any("panic", r))
			res.Document, res.Err = nil, fmt.Errorf("ingest %s: internal error", f.Name)
		}
	}()
	res.Document, res.Err = in.Ingest(ctx, f)
	return res
}
