package storage

import (
	"context"

	"liquidityQuoter/internal/model"
)

// SnapshotSink persists pool snapshots.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}

// QuoteSink records quotes.
type QuoteSink interface {
	PutQuotes(records []model.QuoteRecord) error
}

// MultiSink fans a snapshot out to every sink, stopping at the first error.
type MultiSink []SnapshotSink

func (m MultiSink) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	for _, sink := range m {
		if err := sink.SaveSnapshot(ctx, snap); err != nil {
			return err
		}
	}
	return nil
}
