// Package cloud defines the ports between the orchestrator and the
// environment being provisioned. Implementations live under providers/;
// tests substitute the in-memory one.
package cloud

import (
	"context"

	"github.com/groundwork-io/groundwork/internal/descriptor"
)

// Identity is the externally visible identity of an existing resource.
type Identity struct {
	Name  string
	ID    string
	ARN   string
	Extra map[string]string
}

// Environment is the injectable control plane. Describe is side-effect
// free and safe to call repeatedly and concurrently; Create is additive
// only. Both treat every call as independently retryable: the
// environment offers no transactional guarantees.
type Environment interface {
	// Region returns the region the environment is bound to.
	Region() string

	// Account returns the account identity owning the environment.
	Account(ctx context.Context) (string, error)

	// Describe returns every existing resource matching the
	// descriptor's desired name under relaxed matching (exact,
	// case-insensitive, and list-collision candidates). cfg is the
	// descriptor config with references already resolved.
	Describe(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]Identity, error)

	// Create provisions the resource and returns its identity. cfg is
	// the descriptor config with references already resolved.
	Create(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (Identity, error)
}

// ParameterStore is the publication target for resolved identities.
// Put overwrites unconditionally; last writer wins.
type ParameterStore interface {
	Put(ctx context.Context, name, value string) error
}

// ArtifactObjectKey derives the content-addressed object key for a code
// bundle. The key depends only on the descriptor name and the bundle
// digest, so an unchanged tree maps to the same key on every run.
func ArtifactObjectKey(prefix, name, digest string) string {
	short := digest
	if len(short) > 16 {
		short = short[:16]
	}
	return prefix + name + "-" + short + ".zip"
}
