// Package notify keeps the toast notifications shown to the operator.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// DefaultCapacity bounds how many undrained toasts are kept.
const DefaultCapacity = 50

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Feed is a bounded, ordered list of notifications. The oldest entry is
// dropped when it is full.
type Feed struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	logger   zerolog.Logger
	now      func() time.Time
}

func NewFeed(capacity int, logger zerolog.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		logger:   logger.With().Str("component", "notify").Logger(),
		now:      time.Now,
	}
}

func (f *Feed) Success(message string) { f.push(LevelSuccess, message) }

func (f *Feed) Error(message string) { f.push(LevelError, message) }

func (f *Feed) push(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: f.now(),
	}
	f.mu.Lock()
	if len(f.items) >= f.capacity {
		f.items = append(f.items[:0], f.items[1:]...)
	}
	f.items = append(f.items, n)
	f.mu.Unlock()

	f.logger.Debug().Str("id", n.ID).Str("level", string(level)).Msg(message)
}

// List returns the pending notifications, oldest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Drain returns the pending notifications and clears the feed.
func (f *Feed) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}
