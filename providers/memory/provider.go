// Package memory is an in-process Environment and ParameterStore used
// by tests and dry runs. It implements the same contract as the AWS
// provider, including relaxed name matching and failure injection, so
// reconciliation logic can be exercised without a live control plane.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/smithy-go"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
)

// Environment is a fake control plane. The zero value is not usable;
// call New.
type Environment struct {
	mu        sync.Mutex
	region    string
	account   string
	resources map[descriptor.Kind][]cloud.Identity
	params    map[string]string
	creates   []string
	seq       int

	// FailCreate fails every creation call for a descriptor id.
	FailCreate map[string]error
	// TransientCreate fails the next n creation calls for a descriptor
	// id with a throttling error, then succeeds.
	TransientCreate map[string]int
	// FailPut fails parameter writes for specific paths.
	FailPut map[string]error
}

func New() *Environment {
	return &Environment{
		region:          "us-east-1",
		account:         "123456789012",
		resources:       make(map[descriptor.Kind][]cloud.Identity),
		params:          make(map[string]string),
		FailCreate:      make(map[string]error),
		TransientCreate: make(map[string]int),
		FailPut:         make(map[string]error),
	}
}

func (e *Environment) Region() string {
	return e.region
}

func (e *Environment) Account(ctx context.Context) (string, error) {
	return e.account, nil
}

// Seed places an existing resource into the environment, as if an
// earlier run or an operator had created it.
func (e *Environment) Seed(kind descriptor.Kind, identity cloud.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resources[kind] = append(e.resources[kind], identity)
}

// CreateCalls returns descriptor ids in the order their creation calls
// arrived.
func (e *Environment) CreateCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.creates...)
}

// Parameter returns a published parameter value.
func (e *Environment) Parameter(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.params[name]
	return v, ok
}

// Describe matches existing resources against the desired name under
// relaxed matching: case-insensitive equality plus shared-prefix
// collisions. Secondary keys narrow or flag candidates per kind.
func (e *Environment) Describe(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) ([]cloud.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []cloud.Identity
	for _, c := range e.resources[d.Kind] {
		if !strings.EqualFold(c.Name, d.Name) && !strings.HasPrefix(c.Name, d.Name) {
			continue
		}
		if d.Kind == descriptor.KindAuthClient {
			poolID, _ := cfg["user_pool_id"].(string)
			if poolID != "" && c.Extra["user_pool_id"] != poolID {
				continue
			}
		}
		if d.Kind == descriptor.KindTable {
			if hashKey, _ := cfg["hash_key"].(string); hashKey != "" && c.Extra["hash_key"] != hashKey {
				c = withExtra(c, "key_mismatch", "true")
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Create provisions a fake resource with deterministic identifiers.
func (e *Environment) Create(ctx context.Context, d *descriptor.Descriptor, cfg map[string]any) (cloud.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err, ok := e.FailCreate[d.ID]; ok {
		return cloud.Identity{}, err
	}
	if n := e.TransientCreate[d.ID]; n > 0 {
		e.TransientCreate[d.ID] = n - 1
		return cloud.Identity{}, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "simulated throttle"}
	}

	e.seq++
	identity := cloud.Identity{Name: d.Name}

	switch d.Kind {
	case descriptor.KindBucket:
		identity.ID = d.Name
		identity.ARN = "arn:aws:s3:::" + d.Name
	case descriptor.KindCodeArtifact:
		prefix, _ := cfg["key_prefix"].(string)
		digest, _ := cfg["artifact_digest"].(string)
		identity.ID = cloud.ArtifactObjectKey(prefix, d.Name, digest)
		bucket, _ := cfg["bucket"].(string)
		identity.ARN = fmt.Sprintf("arn:aws:s3:::%s/%s", bucket, identity.ID)
	case descriptor.KindComputeFunction:
		identity.ID = d.Name
		identity.ARN = fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", e.region, e.account, d.Name)
	case descriptor.KindRole:
		identity.ID = fmt.Sprintf("AROA%08d", e.seq)
		identity.ARN = fmt.Sprintf("arn:aws:iam::%s:role/%s", e.account, d.Name)
	case descriptor.KindAuthPool:
		identity.ID = fmt.Sprintf("%s_Pool%04d", e.region, e.seq)
		identity.ARN = fmt.Sprintf("arn:aws:cognito-idp:%s:%s:userpool/%s", e.region, e.account, identity.ID)
	case descriptor.KindAuthClient:
		identity.ID = fmt.Sprintf("client%016d", e.seq)
		poolID, _ := cfg["user_pool_id"].(string)
		identity.Extra = map[string]string{"user_pool_id": poolID}
	case descriptor.KindTable:
		identity.ID = d.Name
		identity.ARN = fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", e.region, e.account, d.Name)
		if hashKey, _ := cfg["hash_key"].(string); hashKey != "" {
			identity.Extra = map[string]string{"hash_key": hashKey}
		}
	default:
		return cloud.Identity{}, fmt.Errorf("unknown resource kind: %s", d.Kind)
	}

	e.resources[d.Kind] = append(e.resources[d.Kind], identity)
	e.creates = append(e.creates, d.ID)
	return identity, nil
}

// Put records a parameter, overwriting any prior value.
func (e *Environment) Put(ctx context.Context, name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.FailPut[name]; ok {
		return err
	}
	e.params[name] = value
	return nil
}

func withExtra(c cloud.Identity, key, value string) cloud.Identity {
	extra := make(map[string]string, len(c.Extra)+1)
	for k, v := range c.Extra {
		extra[k] = v
	}
	extra[key] = value
	c.Extra = extra
	return c
}
