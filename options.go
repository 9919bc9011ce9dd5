package rtree

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// SplitPolicy selects how an overflowing node's entries are divided between
// the two nodes that replace it.
type SplitPolicy int

const (
	// QuadraticSplit picks as seeds the pair of entries that would waste the
	// most area if grouped together, then repeatedly assigns the entry with
	// the strongest preference for one group. It's the default.
	QuadraticSplit SplitPolicy = iota
	// LinearSplit picks as seeds the pair of entries with the greatest
	// normalised separation along either axis, then assigns the remaining
	// entries in order. Splits are cheaper but the resulting tree overlaps
	// more.
	LinearSplit
)

func (p SplitPolicy) valid() bool {
	return p == QuadraticSplit || p == LinearSplit
}

// String returns "quadratic" or "linear".
func (p SplitPolicy) String() string {
	switch p {
	case QuadraticSplit:
		return "quadratic"
	case LinearSplit:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseSplitPolicy is the inverse of SplitPolicy.String.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch s {
	case "quadratic", "":
		return QuadraticSplit, nil
	case "linear":
		return LinearSplit, nil
	default:
		return 0, wrapErr(ErrInvalidConfig, "unknown split policy %q", s)
	}
}

// Option alters the behaviour of an RTree created by New.
type Option func(*options)

type options struct {
	logger *zap.Logger
	meter  metric.Meter
	split  SplitPolicy
}

func defaultOptions() options {
	return options{
		logger: zap.NewNop(),
		meter:  noop.NewMeterProvider().Meter(""),
		split:  QuadraticSplit,
	}
}

// WithLogger sets the logger that receives debug events for structural
// changes (splits, root growth and shrinkage, condensing). A nil logger is
// ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeter sets the meter used to create the tree's metric instruments. A
// nil meter is ignored.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithSplitPolicy sets the node split algorithm.
func WithSplitPolicy(p SplitPolicy) Option {
	return func(o *options) {
		o.split = p
	}
}
