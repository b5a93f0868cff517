package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type noopJob struct{ name string }

func (j noopJob) Name() string                  { return j.name }
func (j noopJob) Run(ctx context.Context) error { return nil }

func TestRegistryKeepsInsertionOrder(t *testing.T) {
	registry := NewRegistry(noopJob{name: "first"}, nil, noopJob{name: "second"})
	registry.Register(noopJob{name: "third"})
	registry.Register(nil)

	jobs := registry.Jobs()
	require.Len(t, jobs, 3)
	require.Equal(t, "first", jobs[0].Name())
	require.Equal(t, "second", jobs[1].Name())
	require.Equal(t, "third", jobs[2].Name())
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(noopJob{name: "only"})

	jobs := registry.Jobs()
	jobs[0] = noopJob{name: "mutated"}

	require.Equal(t, "only", registry.Jobs()[0].Name())
}
