package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/voicebridge-ai/voicebridge-server/internal/pacer"
)

// Run fans a session's two long-lived tasks — the inbound Loop and the
// outbound Pacer — out onto an errgroup (spec.md §5's C5/C6/C7 worker tasks
// running concurrently per session), so a failure or clean exit in either
// tears down the other via ctx cancellation.
//
// errgroup.WithContext only cancels its derived context on a non-nil
// error, but Loop.Run returns nil on an ordinary transport close; without
// an explicit cancel here the Pacer would block on gctx forever and Wait
// would never return. A locally-owned cancel closes that gap.
func Run(ctx context.Context, loop *Loop, p *pacer.Pacer) error {
	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, _ := errgroup.WithContext(gctx)
	g.Go(func() error {
		p.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		err := loop.Run(gctx)
		// Cancel before waiting: any pipeline goroutine still running was
		// derived from gctx, so this lets it notice and exit promptly
		// instead of running to the end of its current provider call.
		cancel()
		loop.Wait()
		return err
	})
	return g.Wait()
}
