package logs

import (
	"context"

	"github.com/reusee/dscope"
)

type Module struct {
	dscope.Module
}

// Span identifies a unit of work, such as one script run, across log records.
type Span string

type spanKey struct{}

var SpanKey spanKey

// SpanFrom returns the span carried by ctx, or "".
func SpanFrom(ctx context.Context) Span {
	span, _ := ctx.Value(SpanKey).(Span)
	return span
}
