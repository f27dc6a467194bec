package kafka

import kgo "github.com/segmentio/kafka-go"

const (
	HeaderMessageID   = "message-id"
	HeaderContentType = "content-type"
	HeaderEventType   = "event-type"

	contentTypeJSON = "application/json"
)

func headerValue(headers []kgo.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func headerMap(headers []kgo.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
