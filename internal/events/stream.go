package events

import (
	"context"
	"log"
	"time"
)

type StreamOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *log.Logger
}

// Stream keeps a subscription alive across broker disconnects, resubscribing
// with exponential backoff. The returned channel closes only when ctx is done.
func Stream(ctx context.Context, src Source, opts StreamOptions, bindings ...string) <-chan Change {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}

	out := make(chan Change)
	go func() {
		defer close(out)

		backoff := opts.InitialBackoff
		for {
			changes, err := src.Subscribe(ctx, bindings...)
			if err != nil {
				if opts.Logger != nil {
					opts.Logger.Printf("change feed: subscribe failed, retrying in %s: %v", backoff, err)
				}
			} else {
				backoff = opts.InitialBackoff
				if !forward(ctx, changes, out) {
					return
				}
				if opts.Logger != nil {
					opts.Logger.Printf("change feed: subscription dropped, resubscribing in %s", backoff)
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > opts.MaxBackoff {
				backoff = opts.MaxBackoff
			}
		}
	}()
	return out
}

// forward copies changes to out and reports false once ctx is done.
func forward(ctx context.Context, in <-chan Change, out chan<- Change) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case c, ok := <-in:
			if !ok {
				return ctx.Err() == nil
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return false
			}
		}
	}
}
