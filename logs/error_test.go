package logs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapSpan(t *testing.T) {
	if err := WrapSpan(context.Background(), io.EOF); err != io.EOF {
		t.Fatalf("got %v", err)
	}
	ctx := context.WithValue(context.Background(), SpanKey, Span("abc"))
	err := WrapSpan(ctx, io.EOF)
	if !errors.Is(err, io.EOF) {
		t.Fatal("should keep the cause")
	}
	if !strings.Contains(err.Error(), "span: abc") {
		t.Fatalf("got %v", err)
	}
}

func TestWrapSpanNil(t *testing.T) {
	ctx := context.WithValue(context.Background(), SpanKey, Span("abc"))
	if err := WrapSpan(ctx, nil); err != nil {
		t.Fatalf("got %v", err)
	}
}
