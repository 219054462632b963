package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jackc/pgx/v5"
)

const EventInsert = "INSERT"

// Change is one row change published by the database trigger.
type Change struct {
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	Record map[string]any `json:"record"`
}

// Filter selects the changes a subscriber receives. Empty Event matches any event; empty Column
// matches any row.
type Filter struct {
	Table  string
	Event  string
	Column string
	Value  string
}

func (f Filter) Matches(c Change) bool {
	if c.Table != f.Table {
		return false
	}
	if f.Event != "" && f.Event != "*" && f.Event != c.Type {
		return false
	}
	if f.Column == "" {
		return true
	}
	v, ok := c.Record[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

type Handler func(Change)

type Subscription interface {
	Close()
}

// Feed delivers row changes to subscribers.
type Feed interface {
	Subscribe(ctx context.Context, filter Filter, h Handler) (Subscription, error)
}

// Channel is the notification channel a table's trigger publishes on.
func Channel(table string) string {
	return "realtime_" + table
}

func decode(payload string) (Change, error) {
	var c Change
	err := json.Unmarshal([]byte(payload), &c)
	return c, err
}

// PGFeed listens on Postgres NOTIFY channels. Each subscription holds its own connection.
type PGFeed struct {
	connString string
}

func NewPGFeed(connString string) *PGFeed {
	return &PGFeed{connString: connString}
}

func (f *PGFeed) Subscribe(ctx context.Context, filter Filter, h Handler) (Subscription, error) {
	conn, err := pgx.Connect(ctx, f.connString)
	if err != nil {
		return nil, fmt.Errorf("realtime connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel(filter.Table)}.Sanitize()); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("realtime listen: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	s := &pgSubscription{conn: conn, cancel: cancel, done: make(chan struct{})}
	go s.loop(subCtx, filter, h)
	return s, nil
}

type pgSubscription struct {
	conn   *pgx.Conn
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *pgSubscription) loop(ctx context.Context, filter Filter, h Handler) {
	defer close(s.done)
	for {
		n, err := s.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("realtime %s: %v", filter.Table, err)
			}
			return
		}
		c, err := decode(n.Payload)
		if err != nil {
			log.Printf("realtime %s: bad payload: %v", filter.Table, err)
			continue
		}
		if filter.Matches(c) {
			h(c)
		}
	}
}

// Close stops delivery and releases the connection. It is safe to call more than once.
func (s *pgSubscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.conn.Close(context.Background())
	})
}
