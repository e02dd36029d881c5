package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dost-atlas/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type messageErr string

func (e messageErr) Error() string       { return "api: " + string(e) }
func (e messageErr) UserMessage() string { return string(e) }

type fakeFetcher struct {
	mu       sync.Mutex
	implFn   func(ctx context.Context) ([]models.ImplementationPoint, error)
	projFns  []func(ctx context.Context) ([]models.ProjectPoint, error)
	projCall int
}

func (f *fakeFetcher) FetchImplementations(ctx context.Context) ([]models.ImplementationPoint, error) {
	if f.implFn == nil {
		return nil, nil
	}
	return f.implFn(ctx)
}

func (f *fakeFetcher) FetchProjects(ctx context.Context) ([]models.ProjectPoint, error) {
	f.mu.Lock()
	i := f.projCall
	f.projCall++
	f.mu.Unlock()
	if i >= len(f.projFns) {
		return nil, nil
	}
	return f.projFns[i](ctx)
}

func project(id string) models.ProjectPoint {
	return models.ProjectPoint{
		ID:           id,
		ProjectTitle: "Project " + id,
		Coordinates:  models.Coordinates{Lat: 13.4, Lng: 121.9},
		ProgramType:  models.ProgramGIA,
	}
}

func TestStore_initiallyIdle(t *testing.T) {
	s := New(&fakeFetcher{}, zerolog.Nop(), nil)
	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Implementations.Status)
	assert.Equal(t, StatusIdle, snap.Projects.Status)
	assert.True(t, snap.Empty())
}

func TestStore_failureThenRetry(t *testing.T) {
	f := &fakeFetcher{projFns: []func(context.Context) ([]models.ProjectPoint, error){
		func(context.Context) ([]models.ProjectPoint, error) {
			return nil, messageErr("Error fetching projects")
		},
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("a"), project("b")}, nil
		},
	}}
	s := New(f, zerolog.Nop(), nil)

	err := s.LoadProjects(context.Background())
	require.Error(t, err)
	snap := s.Snapshot()
	assert.Equal(t, StatusErrored, snap.Projects.Status)
	assert.Equal(t, "Error fetching projects", snap.Projects.Error)
	assert.Empty(t, snap.Projects.Items)

	require.NoError(t, s.LoadProjects(context.Background()))
	snap = s.Snapshot()
	assert.Equal(t, StatusLoaded, snap.Projects.Status)
	assert.Empty(t, snap.Projects.Error)
	assert.Len(t, snap.Projects.Items, 2)
}

func TestStore_failureKeepsPreviousCollection(t *testing.T) {
	f := &fakeFetcher{projFns: []func(context.Context) ([]models.ProjectPoint, error){
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("a")}, nil
		},
		func(context.Context) ([]models.ProjectPoint, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}}
	s := New(f, zerolog.Nop(), nil)

	require.NoError(t, s.LoadProjects(context.Background()))
	require.Error(t, s.LoadProjects(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, StatusErrored, snap.Projects.Status)
	assert.Equal(t, "Failed to load projects", snap.Projects.Error)
	require.Len(t, snap.Projects.Items, 1)
	assert.Equal(t, "a", snap.Projects.Items[0].ID)
}

func TestStore_loadReplacesWholeCollection(t *testing.T) {
	f := &fakeFetcher{projFns: []func(context.Context) ([]models.ProjectPoint, error){
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("a"), project("b")}, nil
		},
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("c")}, nil
		},
	}}
	s := New(f, zerolog.Nop(), nil)
	require.NoError(t, s.LoadProjects(context.Background()))
	require.NoError(t, s.LoadProjects(context.Background()))

	items := s.Snapshot().Projects.Items
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)
}

func TestStore_independentCollections(t *testing.T) {
	f := &fakeFetcher{
		implFn: func(context.Context) ([]models.ImplementationPoint, error) {
			return nil, messageErr("Error fetching implementations")
		},
		projFns: []func(context.Context) ([]models.ProjectPoint, error){
			func(context.Context) ([]models.ProjectPoint, error) {
				return []models.ProjectPoint{project("a")}, nil
			},
		},
	}
	s := New(f, zerolog.Nop(), nil)

	err := s.LoadAll(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StatusErrored, snap.Implementations.Status)
	assert.Equal(t, StatusLoaded, snap.Projects.Status)
	assert.Len(t, snap.Projects.Items, 1)
}

func TestStore_loadAllJoinsBothFailures(t *testing.T) {
	implErr := messageErr("Error fetching implementations")
	projErr := messageErr("Error fetching projects")
	f := &fakeFetcher{
		implFn: func(context.Context) ([]models.ImplementationPoint, error) { return nil, implErr },
		projFns: []func(context.Context) ([]models.ProjectPoint, error){
			func(context.Context) ([]models.ProjectPoint, error) { return nil, projErr },
		},
	}
	s := New(f, zerolog.Nop(), nil)

	err := s.LoadAll(context.Background())
	assert.ErrorIs(t, err, implErr)
	assert.ErrorIs(t, err, projErr)

	snap := s.Snapshot()
	assert.Equal(t, "Error fetching implementations", snap.Implementations.Error)
	assert.Equal(t, "Error fetching projects", snap.Projects.Error)
}

func TestStore_staleCompletionIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := &fakeFetcher{projFns: []func(context.Context) ([]models.ProjectPoint, error){
		func(context.Context) ([]models.ProjectPoint, error) {
			close(started)
			<-release
			return []models.ProjectPoint{project("old")}, nil
		},
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("new")}, nil
		},
	}}
	s := New(f, zerolog.Nop(), nil)

	errc := make(chan error, 1)
	go func() { errc <- s.LoadProjects(context.Background()) }()
	<-started

	require.NoError(t, s.LoadProjects(context.Background()))
	close(release)
	assert.ErrorIs(t, <-errc, ErrSuperseded)

	items := s.Snapshot().Projects.Items
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, StatusLoaded, s.Snapshot().Projects.Status)
}

func TestStore_snapshotIsACopy(t *testing.T) {
	f := &fakeFetcher{projFns: []func(context.Context) ([]models.ProjectPoint, error){
		func(context.Context) ([]models.ProjectPoint, error) {
			return []models.ProjectPoint{project("a")}, nil
		},
	}}
	s := New(f, zerolog.Nop(), nil)
	require.NoError(t, s.LoadProjects(context.Background()))

	snap := s.Snapshot()
	snap.Projects.Items[0].ProjectTitle = "mutated"
	assert.Equal(t, "Project a", s.Snapshot().Projects.Items[0].ProjectTitle)
}
