package engine

import (
	"context"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

// PreviewAction is what a reconcile run would do for a descriptor.
type PreviewAction string

const (
	PreviewReuse    PreviewAction = "reuse"
	PreviewCreate   PreviewAction = "create"
	PreviewConflict PreviewAction = "conflict"
)

// PreviewEntry is the probe-only verdict for one descriptor.
type PreviewEntry struct {
	DescriptorID string
	Name         string
	Action       PreviewAction
	Detail       string
}

// Preview probes every descriptor in dependency order without creating
// anything. A descriptor whose references point at a resource that does
// not exist yet cannot be probed; it is reported as a create pending its
// dependencies.
func Preview(ctx context.Context, env cloud.Environment, set *descriptor.Set) ([]PreviewEntry, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	dag, err := BuildDAG(set)
	if err != nil {
		return nil, err
	}

	prober := NewProber(env)
	resolved := make(map[string]descriptor.Resolved)
	entries := make([]PreviewEntry, 0, len(set.Items))

	for _, id := range dag.Order() {
		d := set.ByID(id)
		entry := PreviewEntry{DescriptorID: id, Name: d.Name}

		cfg, err := resolveRefs(id, d.Config, resolved)
		if err != nil {
			entry.Action = PreviewCreate
			entry.Detail = "pending dependency resolution"
			entries = append(entries, entry)
			continue
		}

		probe, err := prober.Probe(ctx, d, cfg)
		if err != nil {
			return nil, err
		}
		switch probe.Outcome {
		case ProbeFound:
			entry.Action = PreviewReuse
			resolved[id] = toResolved(id, probe.Identity, false)
		case ProbeAmbiguous:
			entry.Action = PreviewConflict
			entry.Detail = "candidates: " + CandidateNames(probe.Candidates)
		default:
			entry.Action = PreviewCreate
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
