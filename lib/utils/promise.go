package utils

import (
	"context"
	"time"

	"github.com/chebyrash/promise"
)

// SleepContext blocks for ts or until ctx is done.
func SleepContext(ctx context.Context, ts time.Duration) error {
	t := time.NewTimer(ts)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func Sleep(ts time.Duration) *promise.Promise[struct{}] {
	return promise.New(func(resolve func(struct{}), reject func(error)) {
		time.AfterFunc(ts, func() {
			resolve(struct{}{})
		})
	})
}

func PromiseResolve[T any](val T) *promise.Promise[T] {
	return promise.New(func(resolve func(T), reject func(error)) {
		resolve(val)
	})
}

func PromiseReject[T any](err error) *promise.Promise[T] {
	return promise.New(func(resolve func(T), reject func(error)) {
		reject(err)
	})
}
