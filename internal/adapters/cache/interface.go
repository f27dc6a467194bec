package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("no observations for entity")

// DefaultPerEntity bounds how many observations are kept per entity id.
const DefaultPerEntity = 32

// Observation records that a consumed event was seen.
type Observation struct {
	EntityID   string    `json:"entityId"`
	EventType  string    `json:"eventType"`
	Topic      string    `json:"topic"`
	Partition  int       `json:"partition"`
	Offset     int64     `json:"offset"`
	TraceID    string    `json:"traceId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	ObservedAt time.Time `json:"observedAt"`
}

// position identifies the broker record. Redelivered records share it.
func (o Observation) position() string {
	return o.Topic + "/" + itoa(int64(o.Partition)) + "/" + itoa(o.Offset)
}

// Cache is the observation log. Record is idempotent per broker record.
type Cache interface {
	Record(ctx context.Context, o Observation) error
	Get(ctx context.Context, entityID string) ([]Observation, error)
	Delete(ctx context.Context, entityID string) error
}
