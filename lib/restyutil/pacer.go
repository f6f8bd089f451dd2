package restyutil

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Pacer keeps a minimum delay between consecutive requests. The first
// request goes out immediately, every later one waits for the delay
// measured from the previous request.
type Pacer struct {
	limiter *rate.Limiter
	stopped context.Context
	stop    context.CancelFunc
}

func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	stopped, stop := context.WithCancel(context.Background())
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		stopped: stopped,
		stop:    stop,
	}
}

// Wait blocks until the next request may be sent, ctx is done, or the
// pacer is stopped. A delay that would outlast the deadline of ctx is
// reported as context.DeadlineExceeded.
func (p *Pacer) Wait(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unregister := context.AfterFunc(p.stopped, cancel)
	defer unregister()

	if p.stopped.Err() != nil {
		return context.Canceled
	}
	err := p.limiter.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		// the limiter refuses up front when the delay outlasts the deadline
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
	}
	return err
}

// Stop cancels any pending wait so teardown never blocks on the delay.
func (p *Pacer) Stop() {
	p.stop()
}

// Middleware paces every request made through a resty client.
func (p *Pacer) Middleware() resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		return p.Wait(req.Context())
	}
}
