package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const defaultCleanupInterval = 5 * time.Minute

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache is closed")

type document struct {
	key        string
	value      []byte
	compressed bool
	expiration time.Time
}

func (d *document) isExpired(now time.Time) bool {
	return !d.expiration.IsZero() && now.After(d.expiration)
}

// InMemoryCache keeps documents in process memory, least recently used first
// out once maxEntries is reached. Documents may be stored zstd compressed.
type InMemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	maxEntries int
	interval   time.Duration

	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder

	stop   chan struct{}
	closed bool
}

// InMemoryOption configures an InMemoryCache.
type InMemoryOption func(*InMemoryCache)

// WithCleanupInterval sets how often expired documents are purged.
func WithCleanupInterval(interval time.Duration) InMemoryOption {
	return func(c *InMemoryCache) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithMaxEntries bounds the number of documents kept. Zero is unbounded.
func WithMaxEntries(n int) InMemoryOption {
	return func(c *InMemoryCache) {
		if n >= 0 {
			c.maxEntries = n
		}
	}
}

// WithCompression stores documents zstd compressed.
func WithCompression() InMemoryOption {
	return func(c *InMemoryCache) {
		c.compress = true
	}
}

// NewInMemoryCache creates an in-memory cache and starts its cleanup loop.
func NewInMemoryCache(opts ...InMemoryOption) (*InMemoryCache, error) {
	c := &InMemoryCache{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		interval: defaultCleanupInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			_ = enc.Close()
			return nil, err
		}
		c.encoder, c.decoder = enc, dec
	}

	go c.startCleanup()
	return c, nil
}

func (c *InMemoryCache) startCleanup() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for e := c.order.Back(); e != nil; {
		prev := e.Prev()
		if doc, _ := e.Value.(*document); doc != nil && doc.isExpired(now) {
			c.removeElement(e)
		}
		e = prev
	}
}

// Get returns a copy of the document stored under key.
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrClosed
	}

	doc, ok := c.live(key)
	if !ok {
		return nil, false, nil
	}

	if doc.compressed {
		out, err := c.decoder.DecodeAll(doc.value, nil)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return append([]byte{}, doc.value...), true, nil
}

// Set stores value under key. A positive ttl expires it.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	doc := &document{key: key}
	if c.compress && len(value) > 0 {
		doc.value = c.encoder.EncodeAll(value, nil)
		doc.compressed = true
	} else {
		doc.value = append([]byte{}, value...)
	}
	if ttl > 0 {
		doc.expiration = time.Now().Add(ttl)
	}

	if e, ok := c.items[key]; ok {
		e.Value = doc
		c.order.MoveToFront(e)
		return nil
	}

	c.items[key] = c.order.PushFront(doc)
	if c.maxEntries > 0 {
		for c.order.Len() > c.maxEntries {
			c.removeElement(c.order.Back())
		}
	}
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeElement(e)
	}
	return nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	_, ok := c.live(key)
	return ok, nil
}

func (c *InMemoryCache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Len counts the unexpired documents in the cache.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	n := 0
	for _, e := range c.items {
		if doc, _ := e.Value.(*document); doc != nil && !doc.isExpired(now) {
			n++
		}
	}
	return n
}

// Close stops the cleanup loop and drops every document. Closing twice is a no-op.
func (c *InMemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stop)

	c.items = make(map[string]*list.Element)
	c.order.Init()

	var err error
	if c.encoder != nil {
		err = c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return err
}

// live returns the unexpired document under key and marks it recently used.
// The caller holds mu.
func (c *InMemoryCache) live(key string) (*document, bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}

	doc, _ := e.Value.(*document)
	if doc == nil || doc.isExpired(time.Now()) {
		c.removeElement(e)
		return nil, false
	}

	c.order.MoveToFront(e)
	return doc, true
}

func (c *InMemoryCache) removeElement(e *list.Element) {
	c.order.Remove(e)
	if doc, _ := e.Value.(*document); doc != nil {
		delete(c.items, doc.key)
	}
}
