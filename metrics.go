package rtree

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// instruments holds the metric instruments an RTree records to.
type instruments struct {
	splits       metric.Int64Counter
	rootGrows    metric.Int64Counter
	rootShrinks  metric.Int64Counter
	reinsertions metric.Int64Counter
	visited      metric.Int64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	splits, err := meter.Int64Counter(
		"rtree.node.splits",
		metric.WithDescription("Number of overflowing nodes split in two."),
		metric.WithUnit("{split}"),
	)
	if err != nil {
		return nil, err
	}

	rootGrows, err := meter.Int64Counter(
		"rtree.root.grows",
		metric.WithDescription("Number of times a root split added a level to the tree."),
		metric.WithUnit("{level}"),
	)
	if err != nil {
		return nil, err
	}

	rootShrinks, err := meter.Int64Counter(
		"rtree.root.shrinks",
		metric.WithDescription("Number of levels removed from the tree by deletions."),
		metric.WithUnit("{level}"),
	)
	if err != nil {
		return nil, err
	}

	reinsertions, err := meter.Int64Counter(
		"rtree.reinsertions",
		metric.WithDescription("Number of entries reinserted after their node was condensed away."),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	visited, err := meter.Int64Histogram(
		"rtree.search.visited_nodes",
		metric.WithDescription("Number of nodes visited by a single search."),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		splits:       splits,
		rootGrows:    rootGrows,
		rootShrinks:  rootShrinks,
		reinsertions: reinsertions,
		visited:      visited,
	}, nil
}

// Tree operations take no context, so recording uses a background one.
func (m *instruments) split()              { m.splits.Add(context.Background(), 1) }
func (m *instruments) grow()               { m.rootGrows.Add(context.Background(), 1) }
func (m *instruments) shrink(levels int)   { m.rootShrinks.Add(context.Background(), int64(levels)) }
func (m *instruments) reinserted(n int)    { m.reinsertions.Add(context.Background(), int64(n)) }
func (m *instruments) searched(visits int) { m.visited.Record(context.Background(), int64(visits)) }
