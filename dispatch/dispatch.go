// Package dispatch runs candidate clusters through an evaluator with bounded
// concurrency, grounded on lvlath/core's concurrency-safety discipline
// (core/concurrency_test.go) but reimplemented with golang.org/x/sync/errgroup
// for fan-out/fan-in instead of raw sync.WaitGroup, since the evaluator calls
// here are fallible and results must be collected in input order.
package dispatch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clustermin/clustermin/evaluator"
	"github.com/clustermin/clustermin/species"
)

// Dispatcher fans candidate clusters out to an Evaluator, bounded by Workers
// concurrent calls.
type Dispatcher struct {
	Eval    evaluator.Evaluator
	Workers int
	Log     *zap.Logger
}

// New constructs a Dispatcher. workers <= 0 is treated as 1.
func New(eval evaluator.Evaluator, workers int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Eval: eval, Workers: workers, Log: log}
}

// Outcome pairs one candidate with its evaluation result; Err is non-nil when
// the candidate was unusable and should be discarded by the caller.
type Outcome struct {
	Cluster *species.Cluster
	Result  evaluator.Result
	Err     error
}

// EvaluateBatch evaluates all candidates concurrently, bounded by d.Workers,
// and returns one Outcome per input candidate in the same order. A per-item
// evaluation error never aborts the batch; it is recorded in that item's
// Outcome.Err.
func (d *Dispatcher) EvaluateBatch(ctx context.Context, candidates []*species.Cluster) []Outcome {
	outcomes := make([]Outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			res, err := d.Eval.Evaluate(gctx, c)
			outcomes[i] = Outcome{Cluster: c, Result: res, Err: err}
			if err != nil {
				d.Log.Debug("candidate evaluation failed",
					zap.String("cluster_id", c.ID),
					zap.Error(err))
			}
			return nil
		})
	}
	// g.Wait's error is always nil: worker goroutines never return a
	// non-nil error themselves, they record failures per-item instead, so
	// a batch of unusable candidates never aborts the others.
	_ = g.Wait()

	return outcomes
}

// EvaluateOne evaluates a single candidate synchronously on the caller's
// goroutine. Used for mass-extinction refill, which spec §4.5 requires to run
// serially rather than through the normal parallel batch path.
func (d *Dispatcher) EvaluateOne(ctx context.Context, c *species.Cluster) Outcome {
	res, err := d.Eval.Evaluate(ctx, c)
	if err != nil {
		d.Log.Debug("candidate evaluation failed",
			zap.String("cluster_id", c.ID),
			zap.Error(err))
	}
	return Outcome{Cluster: c, Result: res, Err: err}
}
