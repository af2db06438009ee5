package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobsInOrder(t *testing.T) {
	registry := NewRegistry()
	jobA := &stubJob{name: "a"}
	jobB := &stubJob{name: "b"}
	registry.Register(jobA)
	registry.Register(nil)
	registry.Register(jobB)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, jobA, jobs[0])
	assert.Same(t, jobB, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0], "internal slice leaked")
}

func TestRegistryReplacesDuplicateNames(t *testing.T) {
	first := &stubJob{name: "ledger-reconcile"}
	second := &stubJob{name: "ledger-reconcile"}
	registry := NewRegistry(first, &stubJob{name: "other"}, second)

	assert.Equal(t, []string{"ledger-reconcile", "other"}, registry.Names())
	assert.Same(t, second, registry.Jobs()[0])
}
