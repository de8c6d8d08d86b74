package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/errors"
	"github.com/groundwork-io/groundwork/internal/packager"
	"github.com/groundwork-io/groundwork/providers/memory"
)

func testSet() *descriptor.Set {
	return &descriptor.Set{Items: []*descriptor.Descriptor{
		{ID: "bucket", Kind: descriptor.KindBucket, Name: "acme-artifacts"},
		{ID: "role", Kind: descriptor.KindRole, Name: "AcmeRole"},
		{ID: "fn", Kind: descriptor.KindComputeFunction, Name: "acme-tools",
			DependsOn: []string{"bucket", "role"},
			Config: map[string]any{
				"role":   "ref://role/arn",
				"bucket": "ref://bucket/name",
			}},
		{ID: "pool", Kind: descriptor.KindAuthPool, Name: "AcmePool"},
	}}
}

func testReconciler(env *memory.Environment) *Reconciler {
	rec := New(env, nil)
	rec.retry = fastPolicy()
	return rec
}

func TestReconciler_FreshRunCreatesEverything(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)

	res, err := rec.Reconcile(context.Background(), testSet())
	require.NoError(t, err)
	require.True(t, res.OK())

	require.Len(t, res.Resolved, 4)
	for id, r := range res.Resolved {
		assert.True(t, r.CreatedNow, "descriptor %s", id)
	}
	assert.NotEmpty(t, res.Resolved["role"].ARN)
}

func TestReconciler_SecondRunReusesEverything(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, testSet())
	require.NoError(t, err)
	firstCreates := env.CreateCalls()

	res, err := rec.Reconcile(ctx, testSet())
	require.NoError(t, err)
	require.True(t, res.OK())

	// No new creation calls; every outcome is a reuse.
	assert.Equal(t, firstCreates, env.CreateCalls())
	for _, o := range res.Outcomes {
		assert.Equal(t, StatusReused, o.Status, "descriptor %s", o.DescriptorID)
	}
	for _, r := range res.Resolved {
		assert.False(t, r.CreatedNow)
	}
}

func TestReconciler_DependencyOrder(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)

	_, err := rec.Reconcile(context.Background(), testSet())
	require.NoError(t, err)

	calls := env.CreateCalls()
	require.Len(t, calls, 4)
	fnIdx := indexOf(calls, "fn")
	assert.Greater(t, fnIdx, indexOf(calls, "bucket"))
	assert.Greater(t, fnIdx, indexOf(calls, "role"))
}

func TestReconciler_ReferencesResolveFromDependencies(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)

	res, err := rec.Reconcile(context.Background(), testSet())
	require.NoError(t, err)

	// The function descriptor could only be created if its role ref
	// resolved to the role's actual ARN; a dangling ref fails the run.
	assert.Contains(t, res.Resolved["role"].ARN, "role/AcmeRole")
	assert.Equal(t, StatusCreated, statusOf(res, "fn"))
}

func TestReconciler_AmbiguousNeverCreates(t *testing.T) {
	env := memory.New()
	// Two pools collide with the desired name.
	env.Seed(descriptor.KindAuthPool, identityNamed("AcmePool"))
	env.Seed(descriptor.KindAuthPool, identityNamed("AcmePool-legacy"))

	rec := testReconciler(env)
	res, err := rec.Reconcile(context.Background(), testSet())
	require.Error(t, err)

	assert.Equal(t, StatusFailed, statusOf(res, "pool"))
	assert.NotContains(t, env.CreateCalls(), "pool")

	var found bool
	for _, o := range res.Outcomes {
		if o.DescriptorID == "pool" {
			assert.True(t, errors.Is(o.Err, errors.CodeAmbiguousResource))
			found = true
		}
	}
	require.True(t, found)
}

func TestReconciler_FailedDependencySkipsDependents(t *testing.T) {
	env := memory.New()
	env.FailCreate["role"] = assert.AnError

	rec := testReconciler(env)
	res, err := rec.Reconcile(context.Background(), testSet())
	require.Error(t, err)

	assert.Equal(t, StatusFailed, statusOf(res, "role"))
	assert.Equal(t, StatusSkipped, statusOf(res, "fn"))

	// Independent branches still converge.
	assert.Equal(t, StatusCreated, statusOf(res, "bucket"))
	assert.Equal(t, StatusCreated, statusOf(res, "pool"))
	assert.ElementsMatch(t, []string{"role", "fn"}, res.FailedIDs())
}

func TestReconciler_TransientCreateRetried(t *testing.T) {
	env := memory.New()
	env.TransientCreate["bucket"] = 2

	rec := testReconciler(env)
	res, err := rec.Reconcile(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, statusOf(res, "bucket"))
}

func TestReconciler_PackagingFailureBlocksBranchOnly(t *testing.T) {
	env := memory.New()
	set := &descriptor.Set{Items: []*descriptor.Descriptor{
		{ID: "bucket", Kind: descriptor.KindBucket, Name: "acme-artifacts"},
		{ID: "bundle", Kind: descriptor.KindCodeArtifact, Name: "acme-bundle",
			DependsOn: []string{"bucket"},
			Config: map[string]any{
				"source_dir": "/nonexistent/source",
				"bucket":     "ref://bucket/name",
				"key_prefix": "bundles/",
			}},
		{ID: "fn", Kind: descriptor.KindComputeFunction, Name: "acme-tools",
			DependsOn: []string{"bundle"},
			Config:    map[string]any{"key": "ref://bundle/id"}},
		{ID: "pool", Kind: descriptor.KindAuthPool, Name: "AcmePool"},
	}}

	rec := New(env, &packager.Packager{OutDir: t.TempDir()})
	rec.retry = fastPolicy()

	res, err := rec.Reconcile(context.Background(), set)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, statusOf(res, "bundle"))
	assert.Equal(t, StatusSkipped, statusOf(res, "fn"))
	assert.Equal(t, StatusCreated, statusOf(res, "bucket"))
	assert.Equal(t, StatusCreated, statusOf(res, "pool"))

	var bundleErr error
	for _, o := range res.Outcomes {
		if o.DescriptorID == "bundle" {
			bundleErr = o.Err
		}
	}
	assert.True(t, errors.Is(bundleErr, errors.CodePackaging))
}

func TestReconciler_CodeArtifactRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "lambda_function.py"), []byte("def lambda_handler(event, context):\n    return {}\n"), 0o644))

	env := memory.New()
	set := &descriptor.Set{Items: []*descriptor.Descriptor{
		{ID: "bucket", Kind: descriptor.KindBucket, Name: "acme-artifacts"},
		{ID: "bundle", Kind: descriptor.KindCodeArtifact, Name: "acme-bundle",
			DependsOn: []string{"bucket"},
			Config: map[string]any{
				"source_dir": src,
				"bucket":     "ref://bucket/name",
				"key_prefix": "bundles/",
			}},
	}}

	rec := New(env, &packager.Packager{OutDir: t.TempDir()})
	rec.retry = fastPolicy()
	ctx := context.Background()

	res, err := rec.Reconcile(ctx, set)
	require.NoError(t, err)
	key := res.Resolved["bundle"].ID
	assert.Contains(t, key, "bundles/acme-bundle-")
	assert.Contains(t, key, ".zip")

	// Unchanged source converges to the same object key.
	res2, err := rec.Reconcile(ctx, set)
	require.NoError(t, err)
	assert.Equal(t, key, res2.Resolved["bundle"].ID)
}

func TestReconciler_EventCallback(t *testing.T) {
	env := memory.New()
	rec := testReconciler(env)

	var mu sync.Mutex
	var events []Event
	rec.Callback = func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}

	_, err := rec.Reconcile(context.Background(), testSet())
	require.NoError(t, err)

	statuses := make(map[string]int)
	for _, ev := range events {
		statuses[ev.Status]++
	}
	assert.Equal(t, 4, statuses["started"])
	assert.Equal(t, 4, statuses["created"])
}

func identityNamed(name string) cloud.Identity {
	return cloud.Identity{Name: name, ID: name}
}

func statusOf(res *Result, id string) Status {
	for _, o := range res.Outcomes {
		if o.DescriptorID == id {
			return o.Status
		}
	}
	return ""
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
