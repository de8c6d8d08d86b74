package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/providers/memory"
)

func TestProber_Probe(t *testing.T) {
	env := memory.New()
	prober := NewProber(env)
	ctx := context.Background()

	d := &descriptor.Descriptor{ID: "b", Kind: descriptor.KindBucket, Name: "my-bucket"}

	// 1. Nothing exists.
	res, err := prober.Probe(ctx, d, nil)
	require.NoError(t, err)
	assert.Equal(t, ProbeNotFound, res.Outcome)

	// 2. One exact match.
	env.Seed(descriptor.KindBucket, cloud.Identity{Name: "my-bucket", ID: "my-bucket"})
	res, err = prober.Probe(ctx, d, nil)
	require.NoError(t, err)
	assert.Equal(t, ProbeFound, res.Outcome)
	assert.Equal(t, "my-bucket", res.Identity.Name)

	// 3. A second, prefix-colliding bucket makes the probe ambiguous.
	env.Seed(descriptor.KindBucket, cloud.Identity{Name: "my-bucket-old", ID: "my-bucket-old"})
	res, err = prober.Probe(ctx, d, nil)
	require.NoError(t, err)
	assert.Equal(t, ProbeAmbiguous, res.Outcome)
	assert.Len(t, res.Candidates, 2)
}

func TestProber_RelaxedOnlyMatchIsAmbiguous(t *testing.T) {
	env := memory.New()
	prober := NewProber(env)

	// Case collision: matches relaxed but not exact.
	env.Seed(descriptor.KindAuthPool, cloud.Identity{Name: "mcpserverpool", ID: "p1"})
	d := &descriptor.Descriptor{ID: "pool", Kind: descriptor.KindAuthPool, Name: "MCPServerPool"}

	res, err := prober.Probe(context.Background(), d, nil)
	require.NoError(t, err)
	assert.Equal(t, ProbeAmbiguous, res.Outcome)
	assert.Equal(t, "mcpserverpool", CandidateNames(res.Candidates))
}

func TestProber_KeyMismatchIsAmbiguous(t *testing.T) {
	env := memory.New()
	prober := NewProber(env)

	// Same table name, different hash key.
	env.Seed(descriptor.KindTable, cloud.Identity{
		Name:  "tickets",
		ID:    "tickets",
		Extra: map[string]string{"hash_key": "legacy_id"},
	})
	d := &descriptor.Descriptor{ID: "table", Kind: descriptor.KindTable, Name: "tickets"}
	cfg := map[string]any{"hash_key": "ticket_id"}

	res, err := prober.Probe(context.Background(), d, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProbeAmbiguous, res.Outcome)
}
