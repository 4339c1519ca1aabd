package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/client"
	"github.com/dm/pidash/internal/model"
)

// PullStatus performs one status request bounded by timeout. Only this HTTP
// fallback is bounded; push requests have no deadline.
func PullStatus(ctx context.Context, c client.DeviceClient, timeout time.Duration) (model.StatusSnapshot, error) {
	pullCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := c.GetStatus(pullCtx)
	if err != nil {
		return model.StatusSnapshot{}, apperror.PullFailed.Wrap(err)
	}
	if snap == nil {
		return model.StatusSnapshot{}, apperror.PullFailed.Wrap(fmt.Errorf("PullStatus: empty response"))
	}
	out := *snap
	out.Source = model.SourcePull
	if out.FetchedAt.IsZero() {
		out.FetchedAt = time.Now()
	}
	return out, nil
}

// pullResult carries a finished pull back to the Syncer loop.
type pullResult struct {
	seq  uint64
	snap model.StatusSnapshot
	err  error
}

// startPull runs PullStatus in its own goroutine and posts the result to out.
// The send is abandoned if ctx ends first so the goroutine never leaks.
func startPull(ctx context.Context, c client.DeviceClient, timeout time.Duration, seq uint64, out chan<- pullResult) {
	go func() {
		snap, err := PullStatus(ctx, c, timeout)
		select {
		case out <- pullResult{seq: seq, snap: snap, err: err}:
		case <-ctx.Done():
		}
	}()
}
