package cache

import (
	"context"
	"strconv"
	"sync"
)

type lruNode struct {
	key   string
	value []Observation
	prev  *lruNode
	next  *lruNode
}

// LRU is a thread-safe observation log bounded by the number of entities.
// The least recently touched entity is evicted first.
type LRU struct {
	mu        sync.Mutex
	cache     map[string]*lruNode
	head      *lruNode // least recently used
	tail      *lruNode // most recently used
	capacity  int
	perEntity int
}

func NewLRU(capacity, perEntity int) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	if perEntity <= 0 {
		perEntity = DefaultPerEntity
	}
	return &LRU{
		cache:     make(map[string]*lruNode, capacity),
		capacity:  capacity,
		perEntity: perEntity,
	}
}

func (c *LRU) Record(_ context.Context, o Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if nd, ok := c.cache[o.EntityID]; ok {
		nd.value = appendObservation(nd.value, o, c.perEntity)
		c.moveToTail(nd)
		return nil
	}

	if len(c.cache) >= c.capacity {
		c.evictHead()
	}

	nd := &lruNode{key: o.EntityID, value: []Observation{o}}
	c.appendToTail(nd)
	c.cache[o.EntityID] = nd
	return nil
}

// Get returns a copy of the observations for entityID, oldest first.
func (c *LRU) Get(_ context.Context, entityID string) ([]Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nd, ok := c.cache[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	c.moveToTail(nd)
	out := make([]Observation, len(nd.value))
	copy(out, nd.value)
	return out, nil
}

func (c *LRU) Delete(_ context.Context, entityID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nd, ok := c.cache[entityID]
	if !ok {
		return ErrNotFound
	}
	c.unlink(nd)
	delete(c.cache, entityID)
	return nil
}

func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*lruNode, c.capacity)
	c.head = nil
	c.tail = nil
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
func (c *LRU) Cap() int { return c.capacity }

func appendObservation(list []Observation, o Observation, limit int) []Observation {
	pos := o.position()
	for _, existing := range list {
		if existing.position() == pos {
			return list
		}
	}
	list = append(list, o)
	if len(list) > limit {
		list = append(list[:0:0], list[len(list)-limit:]...)
	}
	return list
}

func (c *LRU) appendToTail(nd *lruNode) {
	if c.tail == nil {
		c.head = nd
		c.tail = nd
		return
	}
	nd.prev = c.tail
	c.tail.next = nd
	c.tail = nd
}

func (c *LRU) moveToTail(nd *lruNode) {
	if nd == c.tail {
		return
	}
	c.unlink(nd)
	c.appendToTail(nd)
}

func (c *LRU) evictHead() {
	if c.head == nil {
		return
	}
	evicted := c.head
	c.unlink(evicted)
	delete(c.cache, evicted.key)
}

func (c *LRU) unlink(nd *lruNode) {
	if nd == nil {
		return
	}

	if nd.prev != nil {
		nd.prev.next = nd.next
	} else {
		c.head = nd.next
	}
	if nd.next != nil {
		nd.next.prev = nd.prev
	} else {
		c.tail = nd.prev
	}

	nd.prev = nil
	nd.next = nil
}

func itoa(i int64) string { return strconv.FormatInt(i, 10) }
