package affine_test

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"loom/internal/affine"
)

// TestConcurrentIntern hammers the lookup-or-insert path from many
// goroutines. Every goroutine builds the same map, so all of them must land
// on one interned copy. Run with -race to check the mutex discipline.
func TestConcurrentIntern(t *testing.T) {
	const workers = 16
	const rounds = 200

	ctx := affine.NewContext()
	got := make([]affine.Map, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var last affine.Map
			for i := 0; i < rounds; i++ {
				d0 := ctx.Dim(0)
				c := ctx.Constant(int64(i % 8))
				last = ctx.MakeMap(2, 1, []affine.Expr{
					ctx.Add(ctx.Mul(d0, ctx.Symbol(0)), c),
					ctx.Mod(ctx.Dim(1), ctx.Constant(16)),
				})
			}
			got[w] = last
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	for w := 1; w < workers; w++ {
		if got[w] != got[0] {
			t.Fatalf("worker %d interned a distinct handle", w)
		}
	}

	// 8 distinct constants rotate through the first result, plus the fixed
	// second result, give exactly 8 distinct maps.
	if maps := ctx.Stats().Maps; maps != 8 {
		t.Fatalf("Maps = %d, want 8", maps)
	}
}
