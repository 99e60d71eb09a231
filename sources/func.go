package sources

import (
	"context"

	"github.com/creastat/logmerge/core"
)

// AsyncFunc adapts a function to core.AsyncSource
type AsyncFunc func(ctx context.Context) (core.Record, error)

// PopAsync calls f
func (f AsyncFunc) PopAsync(ctx context.Context) (core.Record, error) {
	return f(ctx)
}

// FailAfter serves the records of inner and then fails with err instead of
// reporting exhaustion.
func FailAfter(inner core.Source, err error) AsyncFunc {
	return func(ctx context.Context) (core.Record, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if inner.Drained() {
			return nil, err
		}
		return inner.Pop()
	}
}
