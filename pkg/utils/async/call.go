package async

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
)

// Call runs fn on its own goroutine and waits for its result until the
// deadline elapses. A call that misses the deadline is abandoned: the
// goroutine may keep running against a cancelled context, but whatever it
// eventually produces is discarded. Panics inside fn are recovered and
// returned as errors.
func Call(ctx context.Context, deadline time.Duration, fn func(ctx context.Context) (string, error)) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type outcome struct {
		value string
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(callCtx).Error("panic in bounded call", "panic", r)
				done <- outcome{err: goerr.New("panic in bounded call", goerr.V("panic", r))}
			}
		}()

		value, err := fn(callCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-callCtx.Done():
		return "", goerr.Wrap(callCtx.Err(), "call abandoned after deadline", goerr.V("deadline", deadline.String()))
	}
}
