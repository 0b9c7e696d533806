package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
)

func TestSpanTree(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := logger.WithRequestID(context.Background(), "req-42")
	ctx, root := Start(ctx, "index.build")
	_, list := Start(ctx, "list")
	list.SetAttr("items", 7)
	list.End()
	_, weigh := Start(ctx, "weigh")
	weigh.End()

	assert.Empty(t, buf.String(), "only the root span logs")
	root.End()

	require.Len(t, root.Children(), 2)
	assert.Equal(t, "req-42", list.TraceID)
	assert.Equal(t, 7, list.Attr("items"))
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "trace_id=req-42")
	assert.Contains(t, out, "span=weigh")
}

func TestStartWithoutRequestID(t *testing.T) {
	ctx, span := Start(context.Background(), "job")
	assert.Len(t, span.TraceID, 36)
	assert.Same(t, span, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
