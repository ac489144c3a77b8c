package kafkax

import (
	"context"
	"slices"
	"sort"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InjectTraceHeaders returns a copy of headers with the W3C trace context of
// ctx added. Keys already present are overwritten, so injecting twice does not
// duplicate traceparent.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	fields := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, fields)

	out := slices.Clone(headers)
	keys := fields.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		out = setHeader(out, k, fields.Get(k))
	}
	return out
}

func setHeader(headers []kafka.Header, key, value string) []kafka.Header {
	i := slices.IndexFunc(headers, func(h kafka.Header) bool { return h.Key == key })
	if i < 0 {
		return append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	headers[i].Value = []byte(value)
	return headers
}
