package query

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads the value of one key from the remote collaborator.
type Fetcher func(ctx context.Context) (any, error)

// Status of a cache entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is a point-in-time view of one entry.
type Snapshot struct {
	Key       Key
	Value     any
	HasValue  bool
	Err       error
	Status    Status
	Stale     bool
	UpdatedAt time.Time
}

// EventType distinguishes cache events delivered to listeners.
type EventType int

const (
	EventHit EventType = iota
	EventMiss
	EventFetched
	EventInvalidated
)

// Event is delivered synchronously to every listener registered with Subscribe.
type Event struct {
	Type   EventType
	Key    Key
	Err    error
	Count  int  // entries matched, for EventInvalidated
	Remote bool // invalidation received from another instance
}

// Options tune a single Fetch.
type Options struct {
	// StaleTime is how long a successful value is served without refetching.
	StaleTime time.Duration
	// KeepPrevious serves a stale value immediately and revalidates in the background.
	KeepPrevious bool
}

type Option func(*Options)

func WithStaleTime(d time.Duration) Option {
	return func(o *Options) { o.StaleTime = d }
}

func WithKeepPrevious() Option {
	return func(o *Options) { o.KeepPrevious = true }
}

// Config holds client-wide defaults.
type Config struct {
	StaleTime    time.Duration
	FetchTimeout time.Duration
	GCTime       time.Duration
}

type entry struct {
	key       Key
	value     any
	hasValue  bool
	err       error
	updatedAt time.Time
	touched   time.Time // last commit of a value or an error
	stale     bool
	gen       uint64
	fetcher   Fetcher
	observers map[int]func(Snapshot)
}

func (e *entry) snapshot() Snapshot {
	s := Snapshot{
		Key:       e.key,
		Value:     e.value,
		HasValue:  e.hasValue,
		Err:       e.err,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}
	switch {
	case e.err != nil:
		s.Status = StatusError
	case e.hasValue:
		s.Status = StatusSuccess
	default:
		s.Status = StatusPending
	}
	return s
}

// Client is a keyed cache of remote reads. Concurrent fetches of one key share a single
// in-flight call, and invalidations mark entries stale and refetch the ones being watched.
type Client struct {
	cfg   Config
	now   func() time.Time
	group singleflight.Group

	mu        sync.Mutex
	entries   map[string]*entry
	nextID    int
	listeners map[int]func(Event)
}

// NewClient creates a Client with the given defaults.
func NewClient(cfg Config) *Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = 5 * time.Minute
	}
	return &Client{
		cfg:       cfg,
		now:       time.Now,
		entries:   make(map[string]*entry),
		listeners: make(map[int]func(Event)),
	}
}

func (c *Client) entryLocked(key Key) *entry {
	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key, observers: make(map[int]func(Snapshot))}
		c.entries[ks] = e
	}
	return e
}

// Subscribe registers a listener for cache events and returns a function removing it.
func (c *Client) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) emit(ev Event) {
	c.mu.Lock()
	ls := make([]func(Event), 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}

// Get returns the current snapshot of key without fetching.
func (c *Client) Get(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{Key: key, Status: StatusPending}, false
	}
	return e.snapshot(), true
}

// Set stores value as a fresh result for key and notifies observers.
func (c *Client) Set(key Key, value any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.value = value
	e.hasValue = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	e.touched = e.updatedAt
	e.gen++
	snap, obs := e.snapshot(), observersOf(e)
	c.mu.Unlock()
	notify(obs, snap)
}

func observersOf(e *entry) []func(Snapshot) {
	obs := make([]func(Snapshot), 0, len(e.observers))
	for _, o := range e.observers {
		obs = append(obs, o)
	}
	return obs
}

func notify(obs []func(Snapshot), s Snapshot) {
	for _, o := range obs {
		o(s)
	}
}

func (c *Client) options(opts []Option) Options {
	o := Options{StaleTime: c.cfg.StaleTime}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Fetch returns the cached value of key when fresh, otherwise loads it through fn.
// The load itself is not bound to ctx: a caller that gives up only stops waiting, and the
// result is still committed to the cache.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query: cached value for %s has type %T", key, v)
	}
	return t, nil
}

func (c *Client) fetch(ctx context.Context, key Key, fn Fetcher, opts ...Option) (any, error) {
	o := c.options(opts)

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fn
	fresh := e.hasValue && e.err == nil && !e.stale && c.now().Sub(e.updatedAt) < o.StaleTime
	if fresh {
		v := e.value
		c.mu.Unlock()
		c.emit(Event{Type: EventHit, Key: key})
		return v, nil
	}
	if o.KeepPrevious && e.hasValue {
		v := e.value
		c.mu.Unlock()
		c.emit(Event{Type: EventHit, Key: key})
		c.refresh(ctx, key, fn)
		return v, nil
	}
	c.mu.Unlock()
	c.emit(Event{Type: EventMiss, Key: key})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-c.refresh(ctx, key, fn):
		return r.Val, r.Err
	}
}

// refresh starts, or joins, the single in-flight load of key. When the entry is invalidated
// while the load runs, the result (value or error) is stored and one more load follows; further
// invalidations during that window collapse into the same follow-up.
func (c *Client) refresh(ctx context.Context, key Key, fn Fetcher) <-chan singleflight.Result {
	base := context.WithoutCancel(ctx)
	ks := key.String()
	return c.group.DoChan(ks, func() (any, error) {
		for {
			c.mu.Lock()
			e := c.entryLocked(key)
			gen := e.gen
			c.mu.Unlock()

			fctx, cancel := context.WithTimeout(base, c.cfg.FetchTimeout)
			v, err := fn(fctx)
			cancel()

			c.mu.Lock()
			e = c.entryLocked(key)
			if err != nil {
				e.err = err
				e.touched = c.now()
				current := e.gen == gen
				snap, obs := e.snapshot(), observersOf(e)
				if current {
					c.group.Forget(ks)
				}
				c.mu.Unlock()
				log.Printf("query %s failed: %v", key, err)
				notify(obs, snap)
				c.emit(Event{Type: EventFetched, Key: key, Err: err})
				if current {
					return nil, err
				}
				continue
			}
			e.value = v
			e.hasValue = true
			e.err = nil
			e.updatedAt = c.now()
			e.touched = e.updatedAt
			current := e.gen == gen
			e.stale = !current
			snap, obs := e.snapshot(), observersOf(e)
			if current {
				// Later loads of this key must start a new flight, not join this finished one.
				c.group.Forget(ks)
			}
			c.mu.Unlock()

			notify(obs, snap)
			c.emit(Event{Type: EventFetched, Key: key})
			if current {
				return v, nil
			}
		}
	})
}

// Invalidate marks every entry whose key starts with prefix as stale. Watched entries are
// refetched in the background; in-flight loads are never cancelled. It returns the number of
// entries matched. Invalidating a prefix nobody holds is a no-op.
func (c *Client) Invalidate(ctx context.Context, prefix Key) int {
	return c.invalidate(ctx, prefix, false)
}

// InvalidateRemote applies an invalidation that originated on another instance.
func (c *Client) InvalidateRemote(ctx context.Context, prefix Key) int {
	return c.invalidate(ctx, prefix, true)
}

func (c *Client) invalidate(ctx context.Context, prefix Key, remote bool) int {
	type job struct {
		key Key
		fn  Fetcher
	}
	var jobs []job
	n := 0

	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		n++
		e.stale = true
		e.gen++
		if len(e.observers) > 0 && e.fetcher != nil {
			jobs = append(jobs, job{key: e.key, fn: e.fetcher})
		}
	}
	c.mu.Unlock()

	c.emit(Event{Type: EventInvalidated, Key: prefix, Count: n, Remote: remote})
	for _, j := range jobs {
		c.refresh(ctx, j.key, j.fn)
	}
	return n
}

// Watch mounts a consumer on key. The observer receives the current snapshot, if any, and every
// later change. A missing or stale value is loaded in the background. The returned function
// unmounts the consumer.
func (c *Client) Watch(ctx context.Context, key Key, fn Fetcher, observer func(Snapshot), opts ...Option) func() {
	o := c.options(opts)

	c.mu.Lock()
	e := c.entryLocked(key)
	e.fetcher = fn
	id := c.nextID
	c.nextID++
	e.observers[id] = observer
	snap := e.snapshot()
	fresh := e.hasValue && e.err == nil && !e.stale && c.now().Sub(e.updatedAt) < o.StaleTime
	c.mu.Unlock()

	if snap.HasValue {
		observer(snap)
	}
	if !fresh {
		c.refresh(ctx, key, fn)
	}

	return func() {
		c.mu.Lock()
		if e, ok := c.entries[key.String()]; ok {
			delete(e.observers, id)
		}
		c.mu.Unlock()
	}
}

// Prune drops entries that nobody watches and that were last updated more than GCTime ago.
func (c *Client) Prune() int {
	cutoff := c.now().Add(-c.cfg.GCTime)
	n := 0
	c.mu.Lock()
	for ks, e := range c.entries {
		if len(e.observers) == 0 && !e.touched.IsZero() && e.touched.Before(cutoff) {
			delete(c.entries, ks)
			n++
		}
	}
	c.mu.Unlock()
	return n
}

// RunJanitor prunes unused entries every interval until ctx is done.
func (c *Client) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Prune(); n > 0 {
				log.Printf("query cache pruned %d entries", n)
			}
		}
	}
}
