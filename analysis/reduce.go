// analysis/reduce.go
package analysis

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/gewnthar/flightstats/models"
)

// BucketKey addresses one cell of a table. Year is 0 for dimensions that are not split per year.
type BucketKey struct {
	Year int
	Key  int
}

// KeyFunc assigns a flight to a bucket. ok=false drops the flight silently; an error drops it and
// counts it as excluded.
type KeyFunc func(models.Flight) (key BucketKey, ok bool, err error)

// Partial is the result of folding one sequence.
type Partial struct {
	Cells    map[BucketKey]Accumulator
	Excluded int
}

// NewPartial returns an empty partial.
func NewPartial() *Partial {
	return &Partial{Cells: make(map[BucketKey]Accumulator)}
}

// Merge folds other into p.
func (p *Partial) Merge(other *Partial) {
	MergeMaps(p.Cells, other.Cells)
	p.Excluded += other.Excluded
}

// MergeMaps combines src into dst key by key.
func MergeMaps(dst, src map[BucketKey]Accumulator) {
	for key, acc := range src {
		dst[key] = Combine(dst[key], acc)
	}
}

// FoldAll folds seq in a single pass.
func FoldAll(seq iter.Seq[models.Flight], keyFn KeyFunc) *Partial {
	p := NewPartial()
	for f := range seq {
		key, ok, err := keyFn(f)
		if err != nil {
			p.Excluded++
			continue
		}
		if !ok {
			continue
		}
		p.Cells[key] = p.Cells[key].Fold(f)
	}
	return p
}

// ReduceShards folds every shard on its own goroutine and combines the partials. At most
// parallelism shards run at once; parallelism <= 0 means no limit. Shards must not share
// iteration state.
func ReduceShards(ctx context.Context, shards []iter.Seq[models.Flight], keyFn KeyFunc, parallelism int) (*Partial, error) {
	partials := make([]*Partial, len(shards))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, shard := range shards {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[i] = FoldAll(shard, keyFn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := NewPartial()
	for _, p := range partials {
		out.Merge(p)
	}
	return out, nil
}
