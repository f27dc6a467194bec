package kafka

import (
	"context"
	"sync"

	"github.com/google/uuid"
	kgo "github.com/segmentio/kafka-go"
)

// syncWriter writes one message and returns it with the partition and offset
// the broker assigned.
type syncWriter interface {
	WriteMessage(ctx context.Context, msg kgo.Message) (kgo.Message, error)
	Close() error
}

type ack struct {
	partition int
	offset    int64
}

// ackWriter correlates kafka-go completion callbacks with the WriteMessages
// call that produced them through the message-id header.
type ackWriter struct {
	w *kgo.Writer

	mu      sync.Mutex
	pending map[string]*ack
}

func newAckWriter(cfg ProducerConfig) *ackWriter {
	aw := &ackWriter{pending: make(map[string]*ack)}
	aw.w = &kgo.Writer{
		Addr:     kgo.TCP(cfg.Brokers...),
		Balancer: &kgo.Hash{},
		// All in-sync replicas must acknowledge; the writer never re-sends a
		// batch on its own, so one call appends at most one copy.
		RequiredAcks:           kgo.RequireAll,
		MaxAttempts:            1,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            cfg.Compression,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		Transport:              &kgo.Transport{ClientID: cfg.ClientID},
		Completion:             aw.complete,
	}
	return aw
}

func (aw *ackWriter) complete(msgs []kgo.Message, err error) {
	if err != nil {
		return
	}
	aw.mu.Lock()
	defer aw.mu.Unlock()
	for _, m := range msgs {
		if a, ok := aw.pending[headerValue(m.Headers, HeaderMessageID)]; ok {
			a.partition = m.Partition
			a.offset = m.Offset
		}
	}
}

func (aw *ackWriter) WriteMessage(ctx context.Context, msg kgo.Message) (kgo.Message, error) {
	id := uuid.NewString()
	msg.Headers = append(msg.Headers, kgo.Header{Key: HeaderMessageID, Value: []byte(id)})

	a := &ack{partition: -1, offset: -1}
	aw.mu.Lock()
	aw.pending[id] = a
	aw.mu.Unlock()
	defer func() {
		aw.mu.Lock()
		delete(aw.pending, id)
		aw.mu.Unlock()
	}()

	if err := aw.w.WriteMessages(ctx, msg); err != nil {
		return msg, err
	}

	aw.mu.Lock()
	msg.Partition, msg.Offset = a.partition, a.offset
	aw.mu.Unlock()
	return msg, nil
}

func (aw *ackWriter) Close() error { return aw.w.Close() }
