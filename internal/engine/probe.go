package engine

import (
	"context"
	"strings"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

// ProbeOutcome is the typed result of an existence check.
type ProbeOutcome int

const (
	ProbeNotFound ProbeOutcome = iota
	ProbeFound
	ProbeAmbiguous
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeFound:
		return "found"
	case ProbeAmbiguous:
		return "ambiguous"
	default:
		return "not found"
	}
}

// ProbeResult carries the matched identity on Found and the full
// candidate list on Ambiguous.
type ProbeResult struct {
	Outcome    ProbeOutcome
	Identity   cloud.Identity
	Candidates []cloud.Identity
}

// Prober decides whether a descriptor's resource already exists. It is
// side-effect free: probing never creates, mutates, or deletes.
type Prober struct {
	env cloud.Environment
}

func NewProber(env cloud.Environment) *Prober {
	return &Prober{env: env}
}

// Probe queries the environment by the descriptor's desired name and
// kind-specific secondary keys. A single exact match resolves to Found.
// Any other non-empty candidate set is Ambiguous: a relaxed-only match
// (case collision, prefix collision, or secondary-key mismatch) is
// surfaced rather than silently resolved or silently duplicated.
func (p *Prober) Probe(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (ProbeResult, error) {
	candidates, err := p.env.Describe(ctx, d, cfg)
	if err != nil {
		return ProbeResult{}, err
	}

	if len(candidates) == 0 {
		return ProbeResult{Outcome: ProbeNotFound}, nil
	}

	if len(candidates) == 1 && exactMatch(candidates[0], d.Name) {
		return ProbeResult{Outcome: ProbeFound, Identity: candidates[0]}, nil
	}

	return ProbeResult{Outcome: ProbeAmbiguous, Candidates: candidates}, nil
}

// exactMatch requires the candidate name to equal the desired name and
// the provider to not have flagged a secondary-key mismatch.
func exactMatch(c cloud.Identity, desired string) bool {
	if c.Name != desired {
		return false
	}
	return !strings.EqualFold(c.Extra["key_mismatch"], "true")
}

// CandidateNames lists candidate names for error messages.
func CandidateNames(candidates []cloud.Identity) string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
