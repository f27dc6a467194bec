package tracing

import "go.opentelemetry.io/otel/attribute"

const (
	MessagingSystem          = attribute.Key("messaging.system")
	MessagingDestination     = attribute.Key("messaging.destination")
	MessagingDestinationKind = attribute.Key("messaging.destination_kind")
	KafkaBootstrapServers    = attribute.Key("messaging.kafka.bootstrap_servers")
	KafkaPartition           = attribute.Key("messaging.kafka.partition")
	KafkaOffset              = attribute.Key("messaging.kafka.offset")
	KafkaConsumerGroup       = attribute.Key("messaging.kafka.consumer_group")
	KafkaMessageKey          = attribute.Key("messaging.kafka.message_key")
	MessagingMessageID       = attribute.Key("messaging.message_id")

	DownstreamName    = attribute.Key("downstream.name")
	HTTPStatusCode    = attribute.Key("http.response.status_code")
	DownstreamOutcome = attribute.Key("downstream.outcome")

	OperationName = attribute.Key("operation.name")
	EventType     = attribute.Key("event.type")
)

// InstrumentationName is the tracer name used by every component of the module.
const InstrumentationName = "github.com/checkman123/OpenTelemetry"
