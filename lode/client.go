package lode

import (
	"context"

	"github.com/justapithecus/lode/lode"

	"github.com/ashstone-io/testpool/report"
)

// LodeClient is a real Lode-backed implementation of Client. It uses
// Lode's Hive layout with partition keys day/run_id: one record per
// run, since a run produces exactly one compiled report rather than a
// stream of events or artifact chunks.
type LodeClient struct {
	dataset lode.Dataset
}

// NewLodeClient creates a Lode client backed by filesystem storage
// rooted at root.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a Lode client with a custom store
// factory. Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("day", "run_id"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return &LodeClient{dataset: ds}, nil
}

// WriteReport writes rep as a single record to the dataset's
// day/run_id partition. Errors are classified by the caller (see
// Sink.Write), which knows the full dataset/day/run_id path.
func (c *LodeClient) WriteReport(ctx context.Context, dataset, runID string, rep *report.Report) error {
	_, err := c.dataset.Write(ctx, []any{rep}, lode.Metadata{})
	return err
}

// Close releases client resources. The dataset requires no explicit
// close in the current Lode API.
func (c *LodeClient) Close() error {
	return nil
}

var _ Client = (*LodeClient)(nil)
