package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	TypeInventoryItemAdded = "InventoryItemAdded"
	TypeUserCreated        = "UserCreated"
)

var ErrInvalidEvent = errors.New("invalid domain event")

// Attribute is one key/value pair of an event. Values are scalars:
// string, bool, integers, floats or nil.
type Attribute struct {
	Key   string
	Value any
}

func Attr(key string, value any) Attribute { return Attribute{Key: key, Value: value} }

// DomainEvent is immutable after New. Attribute order is kept on the wire.
type DomainEvent struct {
	eventType  string
	entityID   uuid.UUID
	attributes []Attribute
	occurredAt time.Time
}

func New(eventType string, entityID uuid.UUID, occurredAt time.Time, attrs ...Attribute) (DomainEvent, error) {
	if eventType == "" {
		return DomainEvent{}, fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}
	if entityID == uuid.Nil {
		return DomainEvent{}, fmt.Errorf("%w: entity id is required", ErrInvalidEvent)
	}
	seen := make(map[string]struct{}, len(attrs))
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" {
			return DomainEvent{}, fmt.Errorf("%w: empty attribute key", ErrInvalidEvent)
		}
		if _, dup := seen[a.Key]; dup {
			return DomainEvent{}, fmt.Errorf("%w: duplicate attribute %q", ErrInvalidEvent, a.Key)
		}
		if !isScalar(a.Value) {
			return DomainEvent{}, fmt.Errorf("%w: attribute %q is not a scalar (%T)", ErrInvalidEvent, a.Key, a.Value)
		}
		seen[a.Key] = struct{}{}
		out = append(out, a)
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return DomainEvent{
		eventType:  eventType,
		entityID:   entityID,
		attributes: out,
		occurredAt: occurredAt.UTC(),
	}, nil
}

func (e DomainEvent) EventType() string     { return e.eventType }
func (e DomainEvent) EntityID() uuid.UUID   { return e.entityID }
func (e DomainEvent) OccurredAt() time.Time { return e.occurredAt }

// Key is the partition key: the entity id in canonical string form.
func (e DomainEvent) Key() []byte { return []byte(e.entityID.String()) }

func (e DomainEvent) Attributes() []Attribute {
	out := make([]Attribute, len(e.attributes))
	copy(out, e.attributes)
	return out
}

func (e DomainEvent) Attribute(key string) (any, bool) {
	for _, a := range e.attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

type wireEvent struct {
	EventType  string          `json:"eventType"`
	EntityID   uuid.UUID       `json:"entityId"`
	Attributes json.RawMessage `json:"attributes"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func (e DomainEvent) MarshalJSON() ([]byte, error) {
	attrs, err := marshalAttributes(e.attributes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		EventType:  e.eventType,
		EntityID:   e.entityID,
		Attributes: attrs,
		OccurredAt: e.occurredAt,
	})
}

func (e *DomainEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	attrs, err := unmarshalAttributes(w.Attributes)
	if err != nil {
		return err
	}
	parsed, err := New(w.EventType, w.EntityID, w.OccurredAt, attrs...)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func marshalAttributes(attrs []Attribute) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(a.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalAttributes(raw json.RawMessage) ([]Attribute, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: attributes must be an object", ErrInvalidEvent)
	}
	var out []Attribute
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if n, ok := v.(json.Number); ok {
			v = number(n)
		}
		out = append(out, Attribute{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// isScalar also rejects NaN and infinities, which have no JSON form.
func isScalar(v any) bool {
	switch t := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return isFinite(float64(t))
	case float64:
		return isFinite(t)
	}
	return false
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// PublishResult is where the broker stored an event.
type PublishResult struct {
	Partition int
	Offset    int64
}
