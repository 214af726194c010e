package logs

import (
	"context"
	"errors"
	"fmt"
)

// WrapSpan joins the span of ctx into err so failures can be matched with logs.
func WrapSpan(ctx context.Context, err error) error {
	span := SpanFrom(ctx)
	if span == "" || err == nil {
		return err
	}
	return errors.Join(err, fmt.Errorf("span: %s", span))
}
