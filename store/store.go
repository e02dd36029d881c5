// Package store keeps the most recently fetched record collections and their
// load status for the lifetime of a dashboard session.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dost-atlas/metrics"
	"dost-atlas/models"
)

// ErrSuperseded is returned by a load whose result arrived after a newer load
// for the same collection had already been issued. The result is dropped.
var ErrSuperseded = errors.New("load superseded by a newer request")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

const (
	collectionImplementations = "implementations"
	collectionProjects        = "projects"
)

// Fetcher retrieves complete collections from the records API.
type Fetcher interface {
	FetchImplementations(ctx context.Context) ([]models.ImplementationPoint, error)
	FetchProjects(ctx context.Context) ([]models.ProjectPoint, error)
}

// UserMessager is implemented by errors that carry text meant for the
// operator, such as the message field of an API error envelope.
type UserMessager interface {
	UserMessage() string
}

// Collection is one fetched collection with its load status.
type Collection[T any] struct {
	Items    []T       `json:"items"`
	Status   Status    `json:"status"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
}

// Snapshot is a read-only copy of both collections.
type Snapshot struct {
	Implementations Collection[models.ImplementationPoint] `json:"implementations"`
	Projects        Collection[models.ProjectPoint]        `json:"projects"`
}

// Empty reports whether neither collection holds any record.
func (s Snapshot) Empty() bool {
	return len(s.Implementations.Items) == 0 && len(s.Projects.Items) == 0
}

type slot[T any] struct {
	Collection[T]
	latest uint64
}

func (sl *slot[T]) snapshot() Collection[T] {
	c := sl.Collection
	c.Items = slices.Clone(sl.Items)
	return c
}

type Store struct {
	fetcher Fetcher
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu              sync.RWMutex
	implementations slot[models.ImplementationPoint]
	projects        slot[models.ProjectPoint]
}

func New(fetcher Fetcher, logger zerolog.Logger, m *metrics.Metrics) *Store {
	s := &Store{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "store").Logger(),
		metrics: m,
		now:     time.Now,
	}
	s.implementations.Status = StatusIdle
	s.projects.Status = StatusIdle
	return s
}

// LoadImplementations replaces the implementation collection on success and
// keeps the previous one on failure.
func (s *Store) LoadImplementations(ctx context.Context) error {
	return load(ctx, s, &s.implementations, collectionImplementations, s.fetcher.FetchImplementations)
}

// LoadProjects is LoadImplementations for project points.
func (s *Store) LoadProjects(ctx context.Context) error {
	return load(ctx, s, &s.projects, collectionProjects, s.fetcher.FetchProjects)
}

// LoadAll runs both loads concurrently. A failure in one does not cancel the
// other; the returned error joins both outcomes.
func (s *Store) LoadAll(ctx context.Context) error {
	var (
		wg               sync.WaitGroup
		implErr, projErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		implErr = s.LoadImplementations(ctx)
	}()
	go func() {
		defer wg.Done()
		projErr = s.LoadProjects(ctx)
	}()
	wg.Wait()
	return errors.Join(implErr, projErr)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Implementations: s.implementations.snapshot(),
		Projects:        s.projects.snapshot(),
	}
}

func load[T any](ctx context.Context, s *Store, sl *slot[T], name string, fetch func(context.Context) ([]T, error)) error {
	s.mu.Lock()
	sl.latest++
	token := sl.latest
	sl.Status = StatusLoading
	s.mu.Unlock()

	items, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != sl.latest {
		s.logger.Debug().Str("collection", name).Uint64("token", token).Uint64("latest", sl.latest).Msg("dropping superseded load")
		s.metrics.ObserveFetch(name, "stale", 0)
		return ErrSuperseded
	}

	if err != nil {
		sl.Status = StatusErrored
		sl.Error = userMessage(err, "Failed to load "+name)
		s.logger.Warn().Err(err).Str("collection", name).Int("kept", len(sl.Items)).Msg("load failed")
		s.metrics.ObserveFetch(name, "errored", 0)
		return err
	}

	sl.Items = slices.Clone(items)
	sl.Status = StatusLoaded
	sl.Error = ""
	sl.LoadedAt = s.now()
	s.logger.Info().Str("collection", name).Int("records", len(items)).Msg("collection loaded")
	s.metrics.ObserveFetch(name, "loaded", len(items))
	return nil
}

func userMessage(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
