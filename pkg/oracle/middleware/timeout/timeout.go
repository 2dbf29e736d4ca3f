// Package timeout enforces per-call deadlines on oracle requests.
package timeout

import (
	"context"
	"fmt"
	"time"

	"mediroute/pkg/oracle"
)

// DefaultTimeout bounds a single model call when the caller passes zero.
const DefaultTimeout = 60 * time.Second

// Middleware returns a middleware that bounds every Complete and Stream
// call with the given timeout. A timeout on Complete is reported as a
// transient oracle error; the call is not retried.
func Middleware(timeout time.Duration) oracle.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next oracle.Client) oracle.Client {
		return oracle.WrapClient(
			func(ctx context.Context, req oracle.Request) (oracle.Response, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				resp, err := next.Complete(ctx, req)
				if err != nil && ctx.Err() == context.DeadlineExceeded {
					return oracle.Response{}, oracle.WrapError("complete", oracle.ErrorTypeTransient,
						fmt.Errorf("timed out after %v: %w", timeout, err))
				}
				return resp, err
			},
			func(ctx context.Context, req oracle.Request) (<-chan oracle.StreamChunk, error) {
				// Streams outlive this function, so the deadline must be
				// cancelled only once the stream drains.
				ctx, cancel := context.WithTimeout(ctx, timeout)

				stream, err := next.Stream(ctx, req)
				if err != nil {
					cancel()
					return nil, err
				}

				out := make(chan oracle.StreamChunk)
				go func() {
					defer cancel()
					defer close(out)
					for chunk := range stream {
						select {
						case out <- chunk:
						case <-ctx.Done():
							return
						}
					}
				}()
				return out, nil
			},
			next.ModelName,
		)
	}
}
