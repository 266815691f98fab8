package store

import (
	"context"
	"time"

	"github.com/courtmix/courtmix/internal/schedule"
)

// Session is one saved generation run: the schedule it produced plus
// enough metadata to list and recall it later.
type Session struct {
	ID        string
	Label     string
	Players   int
	Courts    int
	Rounds    int
	Seed      int64
	Score     int
	Schedule  *schedule.Schedule
	CreatedAt time.Time
}

// Store defines the persistence layer for session history.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	Delete(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
