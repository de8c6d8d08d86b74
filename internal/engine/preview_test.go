package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/providers/memory"
)

func TestPreview_EmptyEnvironment(t *testing.T) {
	env := memory.New()

	entries, err := Preview(context.Background(), env, testSet())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byID := make(map[string]PreviewEntry)
	for _, e := range entries {
		byID[e.DescriptorID] = e
	}

	assert.Equal(t, PreviewCreate, byID["bucket"].Action)
	assert.Equal(t, PreviewCreate, byID["pool"].Action)

	// The function references resources that do not exist yet, so it
	// cannot be probed.
	assert.Equal(t, PreviewCreate, byID["fn"].Action)
	assert.Equal(t, "pending dependency resolution", byID["fn"].Detail)
}

func TestPreview_ConvergedEnvironment(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, testSet())
	require.NoError(t, err)
	creates := env.CreateCalls()

	entries, err := Preview(ctx, env, testSet())
	require.NoError(t, err)

	for _, e := range entries {
		assert.Equal(t, PreviewReuse, e.Action, "descriptor %s", e.DescriptorID)
	}
	// Probing never created anything.
	assert.Equal(t, creates, env.CreateCalls())
}

func TestPreview_ReportsConflicts(t *testing.T) {
	env := memory.New()
	env.Seed(descriptor.KindAuthPool, identityNamed("AcmePool"))
	env.Seed(descriptor.KindAuthPool, identityNamed("AcmePool-legacy"))

	entries, err := Preview(context.Background(), env, testSet())
	require.NoError(t, err)

	for _, e := range entries {
		if e.DescriptorID == "pool" {
			assert.Equal(t, PreviewConflict, e.Action)
			assert.Contains(t, e.Detail, "AcmePool-legacy")
		}
	}
}
