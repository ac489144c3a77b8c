package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderContentType   = "content_type"
)

// EventMeta identifies one outbox event on the wire.
type EventMeta struct {
	ID            string
	Type          string
	AggregateType string
}

// Headers returns the metadata headers consumers use for dedup and routing.
// Payloads are always JSON.
func (m EventMeta) Headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(m.ID)},
		{Key: HeaderEventType, Value: []byte(m.Type)},
		{Key: HeaderContentType, Value: []byte("application/json")},
	}
	if m.AggregateType != "" {
		headers = append(headers, kafka.Header{Key: HeaderAggregateType, Value: []byte(m.AggregateType)})
	}
	return headers
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
