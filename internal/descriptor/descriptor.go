package descriptor

import (
	"fmt"

	"github.com/groundwork-io/groundwork/internal/errors"
)

// Kind identifies the class of cloud resource a descriptor provisions.
type Kind string

const (
	KindBucket          Kind = "bucket"
	KindCodeArtifact    Kind = "code_artifact"
	KindComputeFunction Kind = "compute_function"
	KindRole            Kind = "role"
	KindAuthPool        Kind = "auth_pool"
	KindAuthClient      Kind = "auth_client"
	KindTable           Kind = "table"
)

// Descriptor declares a single resource to provision: its desired name,
// the descriptors it depends on, and kind-specific configuration.
// Config values may reference a dependency's resolved identity with
// "ref://<id>/<attribute>" strings; references are resolved just before
// the creation call.
type Descriptor struct {
	ID        string
	Kind      Kind
	Name      string
	DependsOn []string
	Config    map[string]any
}

// Set is a collection of descriptors keyed by id. Order of Items is the
// declaration order; execution order is decided by the dependency graph.
type Set struct {
	Items []*Descriptor
}

// ByID returns the descriptor with the given id, or nil.
func (s *Set) ByID(id string) *Descriptor {
	for _, d := range s.Items {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Validate checks set invariants that do not require graph traversal:
// unique ids, non-empty names, and dependency references that exist.
// Cycle detection happens when the dependency graph is built.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Items))
	for _, d := range s.Items {
		if d.ID == "" {
			return errors.New(errors.CodeConfiguration, "descriptor with empty id")
		}
		if seen[d.ID] {
			return errors.Newf(errors.CodeConfiguration, "duplicate descriptor id %q", d.ID)
		}
		seen[d.ID] = true
		if d.Name == "" {
			return errors.ForDescriptor(errors.CodeConfiguration, d.ID, "empty desired name")
		}
		if d.Kind == "" {
			return errors.ForDescriptor(errors.CodeConfiguration, d.ID, "empty kind")
		}
	}
	for _, d := range s.Items {
		for _, dep := range d.DependsOn {
			if !seen[dep] {
				return errors.ForDescriptor(errors.CodeConfiguration, d.ID,
					fmt.Sprintf("depends on unknown descriptor %q", dep))
			}
			if dep == d.ID {
				return errors.ForDescriptor(errors.CodeConfiguration, d.ID, "depends on itself")
			}
		}
	}
	return nil
}
